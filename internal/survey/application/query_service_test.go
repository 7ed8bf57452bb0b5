package application

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kikitori/survey-services/api/internal/survey/domain"
)

func TestListPagination(t *testing.T) {
	repo := newFakeSurveyRepo()
	svc := NewSurveyQueryService(repo)
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 25; i++ {
		repo.put(&domain.Survey{
			Title:     domain.Title(fmt.Sprintf("調査 %02d", i)),
			Area:      domain.Area("全社"),
			Question:  domain.Question("質問"),
			CreatorID: "creator",
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
		})
	}

	t.Run("last partial page", func(t *testing.T) {
		page, err := svc.List(context.Background(), SurveyFilter{}, Paging{Page: 3, Limit: 10})
		require.NoError(t, err)
		assert.Len(t, page.Surveys, 5)
		assert.Equal(t, 3, page.CurrentPage)
		assert.Equal(t, 3, page.TotalPages)
		assert.EqualValues(t, 25, page.TotalSurveys)
	})

	t.Run("defaults apply when paging is unset", func(t *testing.T) {
		page, err := svc.List(context.Background(), SurveyFilter{}, Paging{})
		require.NoError(t, err)
		assert.Len(t, page.Surveys, 10)
		assert.Equal(t, 1, page.CurrentPage)
	})

	t.Run("page beyond the data is empty but keeps metadata", func(t *testing.T) {
		page, err := svc.List(context.Background(), SurveyFilter{}, Paging{Page: 9, Limit: 10})
		require.NoError(t, err)
		assert.Empty(t, page.Surveys)
		assert.EqualValues(t, 25, page.TotalSurveys)
	})

	t.Run("newest first", func(t *testing.T) {
		page, err := svc.List(context.Background(), SurveyFilter{}, Paging{Page: 1, Limit: 1})
		require.NoError(t, err)
		require.Len(t, page.Surveys, 1)
		assert.Equal(t, "調査 24", page.Surveys[0].Survey.Title.String())
	})
}

func TestListStatusFilter(t *testing.T) {
	repo := newFakeSurveyRepo()
	svc := NewSurveyQueryService(repo)
	now := time.Now().UTC()
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	repo.put(&domain.Survey{ID: "active-open", Title: "進行中", Area: "A", Question: "Q", CreatorID: "c"})
	repo.put(&domain.Survey{ID: "active-future", Title: "期限内", Area: "A", Question: "Q", CreatorID: "c", ExpiryDate: &future})
	repo.put(&domain.Survey{ID: "closed", Title: "締切済み", Area: "A", Question: "Q", CreatorID: "c", Closed: true})
	repo.put(&domain.Survey{ID: "expired", Title: "期限切れ", Area: "A", Question: "Q", CreatorID: "c", ExpiryDate: &past})

	collect := func(status SurveyStatus) []string {
		page, err := svc.List(context.Background(), SurveyFilter{Status: status}, Paging{Page: 1, Limit: 50})
		require.NoError(t, err)
		ids := make([]string, 0, len(page.Surveys))
		for _, view := range page.Surveys {
			ids = append(ids, view.Survey.ID)
		}
		return ids
	}

	assert.ElementsMatch(t, []string{"active-open", "active-future"}, collect(StatusActive))
	assert.ElementsMatch(t, []string{"closed"}, collect(StatusClosed))
	assert.ElementsMatch(t, []string{"expired"}, collect(StatusExpired))
	assert.Len(t, collect(StatusAll), 4)
}

func TestListNeverExposesResponses(t *testing.T) {
	repo := newFakeSurveyRepo()
	svc := NewSurveyQueryService(repo)
	repo.put(&domain.Survey{
		Title: "調査", Area: "A", Question: "Q", CreatorID: "creator",
		Responses: []domain.ResponseRecord{{ID: "r1", UserID: "user-a", Text: "秘匿されるべき本文"}},
		Summary:   &domain.Summary{Text: "非公開要約", Visible: false},
	})

	page, err := svc.List(context.Background(), SurveyFilter{}, Paging{Page: 1, Limit: 10})
	require.NoError(t, err)
	require.Len(t, page.Surveys, 1)

	view := page.Surveys[0]
	assert.Equal(t, 1, view.ResponseCount)
	assert.Nil(t, view.Responses)
	assert.Nil(t, view.Summary)
	assert.Nil(t, view.Survey.Responses)
	assert.Nil(t, view.Survey.Summary)
}

func TestDetailViewerExposure(t *testing.T) {
	repo := newFakeSurveyRepo()
	svc := NewSurveyQueryService(repo)
	survey := repo.put(&domain.Survey{
		Title: "調査", Area: "A", Question: "Q", CreatorID: "creator",
		Responses: []domain.ResponseRecord{
			{ID: "r1", UserID: "user-a", Text: "回答A"},
			{ID: "r2", UserID: "user-b", Text: "回答B"},
		},
		Summary: &domain.Summary{Text: "要約本文", Visible: false},
	})

	t.Run("creator sees responses and hidden summary", func(t *testing.T) {
		view, err := svc.Detail(context.Background(), survey.ID, Viewer{ID: "creator"})
		require.NoError(t, err)
		assert.Len(t, view.Responses, 2)
		require.NotNil(t, view.Summary)
		assert.Equal(t, "要約本文", view.Summary.Text)
	})

	t.Run("anonymous viewer sees only the count", func(t *testing.T) {
		view, err := svc.Detail(context.Background(), survey.ID, Anonymous)
		require.NoError(t, err)
		assert.Equal(t, 2, view.ResponseCount)
		assert.Nil(t, view.Responses)
		assert.Nil(t, view.Summary)
	})

	t.Run("respondent does not see other responses", func(t *testing.T) {
		view, err := svc.Detail(context.Background(), survey.ID, Viewer{ID: "user-a"})
		require.NoError(t, err)
		assert.Nil(t, view.Responses)
		assert.Nil(t, view.Summary)
	})

	t.Run("published summary is visible to everyone", func(t *testing.T) {
		stored := repo.stored(survey.ID)
		stored.Summary.Visible = true
		repo.put(stored)

		view, err := svc.Detail(context.Background(), survey.ID, Anonymous)
		require.NoError(t, err)
		require.NotNil(t, view.Summary)
		assert.Nil(t, view.Responses)
	})

	t.Run("missing survey", func(t *testing.T) {
		_, err := svc.Detail(context.Background(), "missing", Anonymous)
		assert.True(t, errors.Is(err, domain.ErrSurveyNotFound))
	})
}

func TestListUserResponses(t *testing.T) {
	repo := newFakeSurveyRepo()
	svc := NewSurveyQueryService(repo)
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	repo.put(&domain.Survey{
		ID: "s1", Title: "古い調査", Area: "A", Question: "Q", CreatorID: "c",
		Responses: []domain.ResponseRecord{{ID: "r1", UserID: "user-a", Text: "回答1", CreatedAt: base}},
	})
	repo.put(&domain.Survey{
		ID: "s2", Title: "新しい調査", Area: "B", Question: "Q", CreatorID: "c", Closed: true,
		Responses: []domain.ResponseRecord{
			{ID: "r2", UserID: "user-a", Text: "回答2", CreatedAt: base.Add(time.Hour)},
			{ID: "r3", UserID: "user-b", Text: "他人の回答", CreatedAt: base.Add(2 * time.Hour)},
		},
	})

	t.Run("returns own responses newest first with survey context", func(t *testing.T) {
		views, err := svc.ListUserResponses(context.Background(), "user-a", "user-a")
		require.NoError(t, err)
		require.Len(t, views, 2)
		assert.Equal(t, "s2", views[0].SurveyID)
		assert.Equal(t, "新しい調査", views[0].SurveyTitle)
		assert.True(t, views[0].Closed)
		assert.Equal(t, "回答2", views[0].Response.Text)
		assert.Equal(t, "s1", views[1].SurveyID)
	})

	t.Run("requester must be the target user", func(t *testing.T) {
		_, err := svc.ListUserResponses(context.Background(), "user-a", "user-b")
		assert.True(t, errors.Is(err, domain.ErrUnauthorized))
	})

	t.Run("empty result for a user with no responses", func(t *testing.T) {
		views, err := svc.ListUserResponses(context.Background(), "user-z", "user-z")
		require.NoError(t, err)
		assert.Empty(t, views)
	})
}
