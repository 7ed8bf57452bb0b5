package survey

import (
	"time"

	"github.com/kikitori/survey-services/api/internal/survey/application"
	"github.com/kikitori/survey-services/api/internal/survey/domain"
)

type createSurveyRequest struct {
	Title               string     `json:"title"`
	Area                string     `json:"area"`
	Question            string     `json:"question"`
	Guidelines          string     `json:"guidelines,omitempty"`
	PermittedDomains    []string   `json:"permittedDomains,omitempty"`
	PermittedResponses  *int       `json:"permittedResponses,omitempty"`
	SummaryInstructions string     `json:"summaryInstructions,omitempty"`
	ExpiryDate          *time.Time `json:"expiryDate,omitempty"`
}

type updateExpiryRequest struct {
	ExpiryDate time.Time `json:"expiryDate"`
}

type submitResponseRequest struct {
	Text string `json:"text"`
}

type updateResponseRequest struct {
	Text string `json:"text"`
}

type summaryVisibilityRequest struct {
	Visible bool `json:"visible"`
}

type surveyResponse struct {
	ID                  string                   `json:"id"`
	Title               string                   `json:"title"`
	Area                string                   `json:"area"`
	Question            string                   `json:"question"`
	Guidelines          string                   `json:"guidelines,omitempty"`
	PermittedDomains    []string                 `json:"permittedDomains,omitempty"`
	PermittedResponses  *int                     `json:"permittedResponses,omitempty"`
	SummaryInstructions string                   `json:"summaryInstructions,omitempty"`
	CreatorID           string                   `json:"creatorId"`
	ExpiryDate          *time.Time               `json:"expiryDate,omitempty"`
	Closed              bool                     `json:"closed"`
	ResponseCount       int                      `json:"responseCount"`
	Responses           []responseRecordResponse `json:"responses,omitempty"`
	Summary             *summaryResponse         `json:"summary,omitempty"`
	CreatedAt           time.Time                `json:"createdAt"`
	UpdatedAt           time.Time                `json:"updatedAt"`
}

type responseRecordResponse struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type summaryResponse struct {
	Text        string    `json:"text"`
	GeneratedAt time.Time `json:"generatedAt"`
	IsVisible   bool      `json:"isVisible"`
}

type surveyListResponse struct {
	Surveys      []surveyResponse `json:"surveys"`
	CurrentPage  int              `json:"currentPage"`
	TotalPages   int              `json:"totalPages"`
	TotalSurveys int64            `json:"totalSurveys"`
}

type userResponseItem struct {
	SurveyID    string                 `json:"surveyId"`
	SurveyTitle string                 `json:"surveyTitle"`
	SurveyArea  string                 `json:"surveyArea"`
	Closed      bool                   `json:"closed"`
	ExpiryDate  *time.Time             `json:"expiryDate,omitempty"`
	Response    responseRecordResponse `json:"response"`
}

type analyticsResponse struct {
	ResponseCount     int                  `json:"responseCount"`
	AverageTextLength float64              `json:"averageTextLength"`
	Entries           []analyticsStatEntry `json:"entries"`
}

type analyticsStatEntry struct {
	ResponseID  string    `json:"responseId"`
	TextLength  int       `json:"textLength"`
	SubmittedAt time.Time `json:"submittedAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// buildSurveyResponse は閲覧者向け読み取りモデルを JSON 形へ写す。
// 回答と要約の絞り込みは application.SurveyView が済ませている。
func buildSurveyResponse(view application.SurveyView) surveyResponse {
	resp := surveyResponse{
		ID:                  view.Survey.ID,
		Title:               view.Survey.Title.String(),
		Area:                view.Survey.Area.String(),
		Question:            view.Survey.Question.String(),
		Guidelines:          view.Survey.Guidelines,
		PermittedDomains:    view.Survey.PermittedDomains,
		PermittedResponses:  view.Survey.PermittedResponses,
		SummaryInstructions: view.Survey.SummaryInstructions,
		CreatorID:           view.Survey.CreatorID,
		ExpiryDate:          view.Survey.ExpiryDate,
		Closed:              view.Survey.Closed,
		ResponseCount:       view.ResponseCount,
		CreatedAt:           view.Survey.CreatedAt,
		UpdatedAt:           view.Survey.UpdatedAt,
	}
	if view.Responses != nil {
		resp.Responses = buildResponseRecords(view.Responses)
	}
	if view.Summary != nil {
		resp.Summary = buildSummaryResponse(view.Summary)
	}
	return resp
}

// buildCreatedSurveyResponse は作成直後の集約をそのまま JSON 形へ写す。作成者本人向け。
func buildCreatedSurveyResponse(survey *domain.Survey) surveyResponse {
	return buildSurveyResponse(application.SurveyView{
		Survey:        *survey,
		ResponseCount: survey.RespondentCount(),
	})
}

func buildResponseRecords(records []domain.ResponseRecord) []responseRecordResponse {
	result := make([]responseRecordResponse, 0, len(records))
	for _, record := range records {
		result = append(result, buildResponseRecord(&record))
	}
	return result
}

func buildResponseRecord(record *domain.ResponseRecord) responseRecordResponse {
	return responseRecordResponse{
		ID:        record.ID,
		UserID:    record.UserID,
		Text:      record.Text,
		CreatedAt: record.CreatedAt,
		UpdatedAt: record.UpdatedAt,
	}
}

func buildSummaryResponse(summary *domain.Summary) *summaryResponse {
	return &summaryResponse{
		Text:        summary.Text,
		GeneratedAt: summary.GeneratedAt,
		IsVisible:   summary.Visible,
	}
}
