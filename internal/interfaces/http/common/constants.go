package common

const (
	// MaxRequestBody limits JSON request bodies for survey/response endpoints.
	MaxRequestBody = 1 << 20
)
