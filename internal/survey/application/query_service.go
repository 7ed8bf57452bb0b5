package application

import (
	"context"
	"sort"

	"github.com/kikitori/survey-services/api/internal/survey/domain"
)

type surveyQueryService struct {
	repo SurveyRepository
}

// NewSurveyQueryService creates a new SurveyQueryService.
func NewSurveyQueryService(repo SurveyRepository) SurveyQueryService {
	return &surveyQueryService{repo: repo}
}

// List は状態・作成者・キーワードで絞り込んだ一覧をページネーションメタデータ付きで返す。
// 各要素は回答数のみを添え、回答本文は閲覧者が作成者の場合に限り含める。
func (s *surveyQueryService) List(ctx context.Context, filter SurveyFilter, paging Paging) (*SurveyPage, error) {
	if paging.Page < 1 {
		paging.Page = 1
	}
	if paging.Limit < 1 {
		paging.Limit = 10
	}

	surveys, total, err := s.repo.Find(ctx, filter, paging)
	if err != nil {
		return nil, err
	}

	views := make([]SurveyView, 0, len(surveys))
	for i := range surveys {
		// 一覧では常に回答本文を伏せる。閲覧者ごとの展開は Detail が担う。
		views = append(views, buildSurveyView(&surveys[i], Anonymous))
	}

	totalPages := int((total + int64(paging.Limit) - 1) / int64(paging.Limit))
	if totalPages < 1 {
		totalPages = 1
	}

	return &SurveyPage{
		Surveys:      views,
		CurrentPage:  paging.Page,
		TotalPages:   totalPages,
		TotalSurveys: total,
	}, nil
}

// Detail は単一アンケートを閲覧者の役割に応じた形で返す。
func (s *surveyQueryService) Detail(ctx context.Context, id string, viewer Viewer) (*SurveyView, error) {
	survey, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	view := buildSurveyView(survey, viewer)
	return &view, nil
}

// ListUserResponses は本人確認付きで、自分の回答を親アンケートの文脈付きで
// 投稿日時の降順に返す。
func (s *surveyQueryService) ListUserResponses(ctx context.Context, userID, requesterID string) ([]UserResponseView, error) {
	if requesterID == "" || requesterID != userID {
		return nil, domain.ErrUnauthorized
	}

	surveys, err := s.repo.FindByRespondent(ctx, userID)
	if err != nil {
		return nil, err
	}

	views := make([]UserResponseView, 0, len(surveys))
	for i := range surveys {
		record, ok := surveys[i].ResponseByUser(userID)
		if !ok {
			continue
		}
		views = append(views, UserResponseView{
			SurveyID:    surveys[i].ID,
			SurveyTitle: surveys[i].Title.String(),
			SurveyArea:  surveys[i].Area.String(),
			Closed:      surveys[i].Closed,
			ExpiryDate:  surveys[i].ExpiryDate,
			Response:    *record,
		})
	}

	sort.SliceStable(views, func(i, j int) bool {
		return views[i].Response.CreatedAt.After(views[j].Response.CreatedAt)
	})
	return views, nil
}

// buildSurveyView は集約から閲覧者向けの読み取りモデルを組み立てる。
// 回答一覧は作成者本人にのみ、要約は公開済みか作成者本人にのみ展開する。
func buildSurveyView(survey *domain.Survey, viewer Viewer) SurveyView {
	view := SurveyView{
		Survey:        *survey,
		ResponseCount: survey.RespondentCount(),
	}

	if viewer.Known() && viewer.ID == survey.CreatorID {
		responses := make([]domain.ResponseRecord, len(survey.Responses))
		copy(responses, survey.Responses)
		view.Responses = responses
	}

	if survey.SummaryVisibleTo(viewer.ID) {
		summary := *survey.Summary
		view.Summary = &summary
	}

	// 読み取りモデル側の Survey からは生の回答と要約を取り除き、
	// 展開済みフィールド経由でのみ公開する。
	view.Survey.Responses = nil
	view.Survey.Summary = nil
	return view
}
