package mongo

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/kikitori/survey-services/api/internal/survey/application"
	"github.com/kikitori/survey-services/api/internal/survey/domain"
)

func TestBuildSurveyFilter(t *testing.T) {
	now := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)

	t.Run("empty filter matches everything", func(t *testing.T) {
		filter := buildSurveyFilter(application.SurveyFilter{}, now)
		assert.Empty(t, filter)
	})

	t.Run("creator filter", func(t *testing.T) {
		filter := buildSurveyFilter(application.SurveyFilter{CreatorID: " user-1 "}, now)
		assert.Equal(t, "user-1", filter["creatorId"])
	})

	t.Run("active requires open and unexpired", func(t *testing.T) {
		filter := buildSurveyFilter(application.SurveyFilter{Status: application.StatusActive}, now)
		assert.Equal(t, false, filter["closed"])
		or, ok := filter["$or"].(bson.A)
		require.True(t, ok)
		assert.Len(t, or, 2)
	})

	t.Run("closed maps to the closed flag", func(t *testing.T) {
		filter := buildSurveyFilter(application.SurveyFilter{Status: application.StatusClosed}, now)
		assert.Equal(t, true, filter["closed"])
		assert.NotContains(t, filter, "expiryDate")
	})

	t.Run("expired requires open and a past expiry", func(t *testing.T) {
		filter := buildSurveyFilter(application.SurveyFilter{Status: application.StatusExpired}, now)
		assert.Equal(t, false, filter["closed"])
		expiry, ok := filter["expiryDate"].(bson.M)
		require.True(t, ok)
		assert.Equal(t, now, expiry["$lte"])
		assert.Equal(t, nil, expiry["$ne"])
	})

	t.Run("search text becomes an escaped case-insensitive regex", func(t *testing.T) {
		filter := buildSurveyFilter(application.SurveyFilter{SearchText: "調査 (8月)"}, now)
		or, ok := filter["$or"].(bson.A)
		require.True(t, ok)
		require.Len(t, or, 2)

		titleClause, ok := or[0].(bson.M)
		require.True(t, ok)
		pattern, ok := titleClause["title"].(primitive.Regex)
		require.True(t, ok)
		assert.Equal(t, "i", pattern.Options)
		// メタ文字はエスケープされ、リテラル一致になる
		assert.Contains(t, pattern.Pattern, `\(8月\)`)
	})

	t.Run("status and search combine under $and", func(t *testing.T) {
		filter := buildSurveyFilter(application.SurveyFilter{
			Status:     application.StatusActive,
			SearchText: "調査",
		}, now)
		and, ok := filter["$and"].([]bson.M)
		require.True(t, ok)
		assert.Len(t, and, 2)
		assert.Equal(t, false, filter["closed"])
	})
}

func TestMapSurveyDocument(t *testing.T) {
	objectID := primitive.NewObjectID()
	expiry := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	quota := 5
	doc := SurveyDocument{
		ID:                  objectID,
		Title:               "調査",
		Area:                "開発部",
		Question:            "課題は？",
		Guidelines:          "具体的に",
		PermittedDomains:    []string{"example.com"},
		PermittedResponses:  &quota,
		SummaryInstructions: "要点を絞って",
		CreatorID:           "creator",
		ExpiryDate:          &expiry,
		Closed:              true,
		Responses: []ResponseDocument{
			{ID: "r1", UserID: "user-a", Text: "回答A"},
			{ID: "r2", UserID: "user-b", Text: "回答B"},
		},
		Summary:  &SummaryDocument{Text: "要約", IsVisible: true},
		Revision: 7,
	}

	survey := mapSurveyDocument(doc)

	assert.Equal(t, objectID.Hex(), survey.ID)
	assert.Equal(t, "調査", survey.Title.String())
	assert.Equal(t, domain.PermittedDomains{"example.com"}, survey.PermittedDomains)
	require.NotNil(t, survey.PermittedResponses)
	assert.Equal(t, 5, *survey.PermittedResponses)
	assert.True(t, survey.Closed)
	require.Len(t, survey.Responses, 2)
	assert.Equal(t, "user-a", survey.Responses[0].UserID)
	require.NotNil(t, survey.Summary)
	assert.True(t, survey.Summary.Visible)
	assert.EqualValues(t, 7, survey.Revision)
}

func TestMapResponseDocumentsPreservesOrder(t *testing.T) {
	records := []domain.ResponseRecord{
		{ID: "r1", UserID: "a", Text: "一"},
		{ID: "r2", UserID: "b", Text: "二"},
		{ID: "r3", UserID: "c", Text: "三"},
	}
	docs := mapResponseDocuments(records)
	require.Len(t, docs, 3)
	assert.Equal(t, "r1", docs[0].ID)
	assert.Equal(t, "r3", docs[2].ID)
}
