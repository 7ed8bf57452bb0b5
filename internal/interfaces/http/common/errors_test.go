package common

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kikitori/survey-services/api/internal/survey/domain"
)

func TestClassifyDomainError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"validation", domain.NewValidationError("タイトルを入力してください"), http.StatusBadRequest, "validation_error"},
		{"survey not found", domain.ErrSurveyNotFound, http.StatusNotFound, "survey_not_found"},
		{"response not found", domain.ErrResponseNotFound, http.StatusNotFound, "response_not_found"},
		{"domain not permitted", domain.ErrDomainNotPermitted, http.StatusForbidden, "domain_not_permitted"},
		{"unauthorized", domain.ErrUnauthorized, http.StatusForbidden, "unauthorized"},
		{"survey closed", domain.ErrSurveyClosed, http.StatusConflict, "survey_closed"},
		{"survey expired", domain.ErrSurveyExpired, http.StatusGone, "survey_expired"},
		{"quota exceeded", domain.ErrQuotaExceeded, http.StatusConflict, "quota_exceeded"},
		{"closed survey expiry", domain.ErrClosedSurveyExpiry, http.StatusConflict, "closed_survey"},
		{"past expiry date", domain.ErrPastExpiryDate, http.StatusUnprocessableEntity, "past_expiry_date"},
		{"revision conflict", domain.ErrRevisionConflict, http.StatusConflict, "conflict_retry"},
		{"summary unavailable", domain.ErrSummaryUnavailable, http.StatusBadGateway, "summary_unavailable"},
		{"unknown error", errors.New("boom"), http.StatusInternalServerError, "internal_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, code, message := classifyDomainError(tt.err)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.code, code)
			assert.NotEmpty(t, message)
		})
	}
}

// ラップされた番兵も errors.Is 経由で同じコードへ分類される。
func TestClassifyDomainErrorUnwrapsWrappedSentinels(t *testing.T) {
	wrapped := fmt.Errorf("%w: attempt 3", domain.ErrRevisionConflict)
	status, code, _ := classifyDomainError(wrapped)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "conflict_retry", code)

	wrapped = fmt.Errorf("%w: %v", domain.ErrSummaryUnavailable, errors.New("rate limited"))
	status, code, _ = classifyDomainError(wrapped)
	assert.Equal(t, http.StatusBadGateway, status)
	assert.Equal(t, "summary_unavailable", code)
}
