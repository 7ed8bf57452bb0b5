package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kikitori/survey-services/api/internal/survey/domain"
)

func newSummaryService(repo *fakeSurveyRepo, summarizer Summarizer) *surveySummaryService {
	svc := NewSurveySummaryService(repo, summarizer).(*surveySummaryService)
	svc.now = func() time.Time { return testNow }
	return svc
}

func surveyWithResponses(repo *fakeSurveyRepo) *domain.Survey {
	return repo.put(&domain.Survey{
		Title:               "リモートワーク実態調査",
		Area:                "開発部",
		Question:            "課題を教えてください",
		Guidelines:          "具体的に",
		SummaryInstructions: "要点を3つに絞って",
		CreatorID:           "creator",
		Responses: []domain.ResponseRecord{
			{ID: "r1", UserID: "user-a", Text: "会議が多い"},
			{ID: "r2", UserID: "user-b", Text: "資料が散在している"},
		},
	})
}

func TestGenerateSummary(t *testing.T) {
	t.Run("saves a hidden summary with ordered response texts", func(t *testing.T) {
		repo := newFakeSurveyRepo()
		stub := &stubSummarizer{text: "会議と資料管理への不満が中心。"}
		svc := newSummaryService(repo, stub)
		survey := surveyWithResponses(repo)

		summary, err := svc.Generate(context.Background(), survey.ID, "creator")
		require.NoError(t, err)
		assert.Equal(t, "会議と資料管理への不満が中心。", summary.Text)
		assert.False(t, summary.Visible)
		assert.Equal(t, testNow, summary.GeneratedAt)

		assert.Equal(t, []string{"会議が多い", "資料が散在している"}, stub.lastInput.Responses)
		assert.Equal(t, "要点を3つに絞って", stub.lastInput.Instructions)

		stored := repo.stored(survey.ID)
		require.NotNil(t, stored.Summary)
		assert.False(t, stored.Summary.Visible)
	})

	t.Run("only the creator can generate", func(t *testing.T) {
		repo := newFakeSurveyRepo()
		stub := &stubSummarizer{text: "要約"}
		svc := newSummaryService(repo, stub)
		survey := surveyWithResponses(repo)

		_, err := svc.Generate(context.Background(), survey.ID, "user-a")
		assert.True(t, errors.Is(err, domain.ErrUnauthorized))
		assert.Zero(t, stub.calls)
	})

	t.Run("requires at least one response", func(t *testing.T) {
		repo := newFakeSurveyRepo()
		stub := &stubSummarizer{text: "要約"}
		svc := newSummaryService(repo, stub)
		survey := repo.put(&domain.Survey{
			Title: "空の調査", Area: "A", Question: "Q", CreatorID: "creator",
		})

		_, err := svc.Generate(context.Background(), survey.ID, "creator")
		assert.True(t, errors.Is(err, domain.ErrValidation))
		assert.Zero(t, stub.calls)
	})

	t.Run("collaborator failure never mutates persisted state", func(t *testing.T) {
		repo := newFakeSurveyRepo()
		stub := &stubSummarizer{err: errors.New("rate limited")}
		svc := newSummaryService(repo, stub)
		survey := surveyWithResponses(repo)

		existing := &domain.Summary{Text: "以前の要約", GeneratedAt: testNow.Add(-time.Hour), Visible: true}
		stored := repo.stored(survey.ID)
		stored.Summary = existing
		repo.put(stored)

		_, err := svc.Generate(context.Background(), survey.ID, "creator")
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrSummaryUnavailable))

		after := repo.stored(survey.ID)
		require.NotNil(t, after.Summary)
		assert.Equal(t, "以前の要約", after.Summary.Text)
		assert.True(t, after.Summary.Visible)
		assert.Zero(t, repo.saveSummaryCalls)
	})

	t.Run("regeneration replaces the previous summary and resets visibility", func(t *testing.T) {
		repo := newFakeSurveyRepo()
		stub := &stubSummarizer{text: "新しい要約"}
		svc := newSummaryService(repo, stub)
		survey := surveyWithResponses(repo)

		stored := repo.stored(survey.ID)
		stored.Summary = &domain.Summary{Text: "古い要約", Visible: true}
		repo.put(stored)

		summary, err := svc.Generate(context.Background(), survey.ID, "creator")
		require.NoError(t, err)
		assert.Equal(t, "新しい要約", summary.Text)
		assert.False(t, summary.Visible)
	})
}

func TestSetSummaryVisibility(t *testing.T) {
	t.Run("creator toggles visibility", func(t *testing.T) {
		repo := newFakeSurveyRepo()
		svc := newSummaryService(repo, &stubSummarizer{})
		survey := surveyWithResponses(repo)
		stored := repo.stored(survey.ID)
		stored.Summary = &domain.Summary{Text: "要約", Visible: false}
		repo.put(stored)

		summary, err := svc.SetVisibility(context.Background(), survey.ID, "creator", true)
		require.NoError(t, err)
		assert.True(t, summary.Visible)

		summary, err = svc.SetVisibility(context.Background(), survey.ID, "creator", false)
		require.NoError(t, err)
		assert.False(t, summary.Visible)
	})

	t.Run("requires an existing summary", func(t *testing.T) {
		repo := newFakeSurveyRepo()
		svc := newSummaryService(repo, &stubSummarizer{})
		survey := surveyWithResponses(repo)

		_, err := svc.SetVisibility(context.Background(), survey.ID, "creator", true)
		assert.True(t, errors.Is(err, domain.ErrValidation))
	})

	t.Run("non-creator is rejected", func(t *testing.T) {
		repo := newFakeSurveyRepo()
		svc := newSummaryService(repo, &stubSummarizer{})
		survey := surveyWithResponses(repo)
		stored := repo.stored(survey.ID)
		stored.Summary = &domain.Summary{Text: "要約"}
		repo.put(stored)

		_, err := svc.SetVisibility(context.Background(), survey.ID, "user-a", true)
		assert.True(t, errors.Is(err, domain.ErrUnauthorized))
	})
}
