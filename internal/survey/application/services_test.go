package application

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseSurveyStatus(t *testing.T) {
	assert.Equal(t, StatusActive, ParseSurveyStatus("active"))
	assert.Equal(t, StatusClosed, ParseSurveyStatus("closed"))
	assert.Equal(t, StatusExpired, ParseSurveyStatus("expired"))
	assert.Equal(t, StatusAll, ParseSurveyStatus("all"))
	assert.Equal(t, StatusAll, ParseSurveyStatus(""))
	assert.Equal(t, StatusAll, ParseSurveyStatus("draft"))
}

func TestViewerKnown(t *testing.T) {
	assert.False(t, Anonymous.Known())
	assert.True(t, Viewer{ID: "user-a"}.Known())
}
