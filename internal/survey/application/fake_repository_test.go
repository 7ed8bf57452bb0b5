package application

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/kikitori/survey-services/api/internal/survey/domain"
)

// fakeSurveyRepo は SurveyRepository のインメモリ実装。
// UpdateResponses は保存済み revision との一致を検査する本物同様の CAS として振る舞い、
// injectConflicts で競合エラーを前置きして再試行経路を検証できる。
type fakeSurveyRepo struct {
	mu                   sync.Mutex
	seq                  int
	surveys              map[string]*domain.Survey
	pendingConflicts     int
	updateResponsesCalls int
	saveSummaryCalls     int
}

func newFakeSurveyRepo() *fakeSurveyRepo {
	return &fakeSurveyRepo{surveys: make(map[string]*domain.Survey)}
}

func (r *fakeSurveyRepo) injectConflicts(n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pendingConflicts = n
}

func (r *fakeSurveyRepo) Create(_ context.Context, survey *domain.Survey) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	survey.ID = fmt.Sprintf("survey-%d", r.seq)
	survey.Revision = 0
	r.surveys[survey.ID] = cloneSurvey(survey)
	return nil
}

func (r *fakeSurveyRepo) FindByID(_ context.Context, id string) (*domain.Survey, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.surveys[id]
	if !ok {
		return nil, domain.ErrSurveyNotFound
	}
	return cloneSurvey(stored), nil
}

func (r *fakeSurveyRepo) Find(_ context.Context, filter SurveyFilter, paging Paging) ([]domain.Survey, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	matched := make([]*domain.Survey, 0, len(r.surveys))
	for _, stored := range r.surveys {
		if filter.CreatorID != "" && stored.CreatorID != filter.CreatorID {
			continue
		}
		if !matchesStatus(stored, filter.Status, now) {
			continue
		}
		if filter.SearchText != "" {
			needle := strings.ToLower(filter.SearchText)
			title := strings.ToLower(stored.Title.String())
			area := strings.ToLower(stored.Area.String())
			if !strings.Contains(title, needle) && !strings.Contains(area, needle) {
				continue
			}
		}
		matched = append(matched, stored)
	}

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := int64(len(matched))
	start := (paging.Page - 1) * paging.Limit
	if start > len(matched) {
		start = len(matched)
	}
	end := start + paging.Limit
	if end > len(matched) {
		end = len(matched)
	}

	page := make([]domain.Survey, 0, end-start)
	for _, stored := range matched[start:end] {
		page = append(page, *cloneSurvey(stored))
	}
	return page, total, nil
}

func matchesStatus(survey *domain.Survey, status SurveyStatus, now time.Time) bool {
	switch status {
	case StatusActive:
		return !survey.Closed && !survey.IsExpired(now)
	case StatusClosed:
		return survey.Closed
	case StatusExpired:
		return !survey.Closed && survey.IsExpired(now)
	default:
		return true
	}
}

func (r *fakeSurveyRepo) UpdateLifecycle(_ context.Context, id string, patch LifecyclePatch) (*domain.Survey, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.surveys[id]
	if !ok {
		return nil, domain.ErrSurveyNotFound
	}
	if patch.Closed != nil {
		stored.Closed = *patch.Closed
	}
	if patch.ExpiryDate != nil {
		expiry := *patch.ExpiryDate
		stored.ExpiryDate = &expiry
	}
	stored.UpdatedAt = time.Now().UTC()
	return cloneSurvey(stored), nil
}

func (r *fakeSurveyRepo) UpdateResponses(_ context.Context, id string, revision int64, responses []domain.ResponseRecord) (*domain.Survey, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updateResponsesCalls++

	if r.pendingConflicts > 0 {
		r.pendingConflicts--
		return nil, domain.ErrRevisionConflict
	}

	stored, ok := r.surveys[id]
	if !ok {
		return nil, domain.ErrSurveyNotFound
	}
	if stored.Revision != revision {
		return nil, domain.ErrRevisionConflict
	}

	stored.Responses = append([]domain.ResponseRecord(nil), responses...)
	stored.Revision++
	stored.UpdatedAt = time.Now().UTC()
	return cloneSurvey(stored), nil
}

func (r *fakeSurveyRepo) SaveSummary(_ context.Context, id string, summary domain.Summary) (*domain.Survey, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saveSummaryCalls++
	stored, ok := r.surveys[id]
	if !ok {
		return nil, domain.ErrSurveyNotFound
	}
	stored.Summary = &summary
	stored.UpdatedAt = time.Now().UTC()
	return cloneSurvey(stored), nil
}

func (r *fakeSurveyRepo) SetSummaryVisibility(_ context.Context, id string, visible bool) (*domain.Survey, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.surveys[id]
	if !ok {
		return nil, domain.ErrSurveyNotFound
	}
	if stored.Summary == nil {
		return nil, domain.ErrSurveyNotFound
	}
	stored.Summary.Visible = visible
	stored.UpdatedAt = time.Now().UTC()
	return cloneSurvey(stored), nil
}

func (r *fakeSurveyRepo) FindByRespondent(_ context.Context, userID string) ([]domain.Survey, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.Survey
	for _, stored := range r.surveys {
		if _, ok := stored.ResponseByUser(userID); ok {
			result = append(result, *cloneSurvey(stored))
		}
	}
	return result, nil
}

// put はテスト準備用に集約を直接保存する。ID 未設定なら採番する。
func (r *fakeSurveyRepo) put(survey *domain.Survey) *domain.Survey {
	r.mu.Lock()
	defer r.mu.Unlock()
	if survey.ID == "" {
		r.seq++
		survey.ID = fmt.Sprintf("survey-%d", r.seq)
	}
	r.surveys[survey.ID] = cloneSurvey(survey)
	return survey
}

func (r *fakeSurveyRepo) stored(id string) *domain.Survey {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.surveys[id]
	if !ok {
		return nil
	}
	return cloneSurvey(stored)
}

func cloneSurvey(s *domain.Survey) *domain.Survey {
	cp := *s
	cp.Responses = append([]domain.ResponseRecord(nil), s.Responses...)
	if s.Summary != nil {
		summary := *s.Summary
		cp.Summary = &summary
	}
	if s.ExpiryDate != nil {
		expiry := *s.ExpiryDate
		cp.ExpiryDate = &expiry
	}
	if s.PermittedResponses != nil {
		quota := *s.PermittedResponses
		cp.PermittedResponses = &quota
	}
	if s.PermittedDomains != nil {
		cp.PermittedDomains = append(domain.PermittedDomains(nil), s.PermittedDomains...)
	}
	return &cp
}

// stubSummarizer は Summarizer のテストダブル。
type stubSummarizer struct {
	text      string
	err       error
	calls     int
	lastInput SummaryInput
}

func (s *stubSummarizer) Summarize(_ context.Context, input SummaryInput) (string, error) {
	s.calls++
	s.lastInput = input
	if s.err != nil {
		return "", s.err
	}
	return s.text, nil
}
