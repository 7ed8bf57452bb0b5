package application

import (
	"context"
	"fmt"
	"time"

	"github.com/kikitori/survey-services/api/internal/survey/domain"
)

type surveySummaryService struct {
	repo       SurveyRepository
	summarizer Summarizer
	now        func() time.Time
}

// NewSurveySummaryService creates a new SurveySummaryService.
func NewSurveySummaryService(repo SurveyRepository, summarizer Summarizer) SurveySummaryService {
	return &surveySummaryService{
		repo:       repo,
		summarizer: summarizer,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Generate は作成者の指示で回答全体の AI 要約を生成し、非公開状態で保存する。
// コラボレーター失敗時は既存の要約を含む永続状態へ一切触れない。
func (s *surveySummaryService) Generate(ctx context.Context, surveyID, actorID string) (*domain.Summary, error) {
	survey, err := s.repo.FindByID(ctx, surveyID)
	if err != nil {
		return nil, err
	}

	role := domain.ResolveRole(survey, actorID, "")
	if !role.IsCreator() {
		return nil, domain.ErrUnauthorized
	}
	if survey.RespondentCount() == 0 {
		return nil, domain.NewValidationError("要約する回答がまだありません")
	}

	text, err := s.summarizer.Summarize(ctx, SummaryInput{
		Title:        survey.Title.String(),
		Area:         survey.Area.String(),
		Question:     survey.Question.String(),
		Guidelines:   survey.Guidelines,
		Instructions: survey.SummaryInstructions,
		Responses:    survey.ResponseTexts(),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSummaryUnavailable, err)
	}

	summary := domain.Summary{
		Text:        text,
		GeneratedAt: s.now(),
		Visible:     false,
	}
	updated, err := s.repo.SaveSummary(ctx, surveyID, summary)
	if err != nil {
		return nil, err
	}
	return updated.Summary, nil
}

// SetVisibility は要約の公開フラグを切り替える。作成者のみ。
func (s *surveySummaryService) SetVisibility(ctx context.Context, surveyID, actorID string, visible bool) (*domain.Summary, error) {
	survey, err := s.repo.FindByID(ctx, surveyID)
	if err != nil {
		return nil, err
	}

	role := domain.ResolveRole(survey, actorID, "")
	if !role.IsCreator() {
		return nil, domain.ErrUnauthorized
	}
	if survey.Summary == nil {
		return nil, domain.NewValidationError("要約がまだ生成されていません")
	}

	updated, err := s.repo.SetSummaryVisibility(ctx, surveyID, visible)
	if err != nil {
		return nil, err
	}
	return updated.Summary, nil
}
