package application

import (
	"context"
	"time"

	"github.com/kikitori/survey-services/api/internal/survey/domain"
)

// SurveyRepository handles survey aggregate reads/writes.
// SurveyRepository はアンケート集約を読み書きするポート。更新系は §revision による
// 楽観ロックを前提とし、競合時は domain.ErrRevisionConflict を返す。
type SurveyRepository interface {
	Create(ctx context.Context, survey *domain.Survey) error
	FindByID(ctx context.Context, id string) (*domain.Survey, error)
	Find(ctx context.Context, filter SurveyFilter, paging Paging) ([]domain.Survey, int64, error)
	// UpdateLifecycle は closed / expiryDate のみを対象とした部分更新。
	UpdateLifecycle(ctx context.Context, id string, patch LifecyclePatch) (*domain.Survey, error)
	// UpdateResponses は revision が一致する場合に限り responses 配列を差し替え、
	// revision をインクリメントする Compare-and-Swap。
	UpdateResponses(ctx context.Context, id string, revision int64, responses []domain.ResponseRecord) (*domain.Survey, error)
	// SaveSummary は summary フィールドのみを更新し、responses には触れない。
	SaveSummary(ctx context.Context, id string, summary domain.Summary) (*domain.Survey, error)
	SetSummaryVisibility(ctx context.Context, id string, visible bool) (*domain.Survey, error)
	// FindByRespondent は指定ユーザーの回答を含む集約を列挙する。
	FindByRespondent(ctx context.Context, userID string) ([]domain.Survey, error)
}

// Summarizer は AI 要約コラボレーターのポート。失敗しても永続状態へは影響しない。
type Summarizer interface {
	Summarize(ctx context.Context, input SummaryInput) (string, error)
}

// SummaryInput は要約生成に渡すアンケートメタデータと投稿順の回答本文。
type SummaryInput struct {
	Title        string
	Area         string
	Question     string
	Guidelines   string
	Instructions string
	Responses    []string
}

// LifecyclePatch expresses a partial update limited to lifecycle fields.
type LifecyclePatch struct {
	Closed     *bool
	ExpiryDate *time.Time
}

// SurveyStatus はアンケート一覧の状態フィルタ。
type SurveyStatus string

const (
	StatusAll     SurveyStatus = "all"
	StatusActive  SurveyStatus = "active"
	StatusClosed  SurveyStatus = "closed"
	StatusExpired SurveyStatus = "expired"
)

// ParseSurveyStatus は文字列を状態フィルタへ正規化する。未知の値は all 扱い。
func ParseSurveyStatus(value string) SurveyStatus {
	switch SurveyStatus(value) {
	case StatusActive, StatusClosed, StatusExpired:
		return SurveyStatus(value)
	default:
		return StatusAll
	}
}

// SurveyFilter expresses search criteria for surveys.
type SurveyFilter struct {
	CreatorID  string
	Status     SurveyStatus
	SearchText string
}

// Paging controls pagination.
type Paging struct {
	Page  int
	Limit int
}

// Viewer は読み取り系エンドポイントへ渡す三値の閲覧者識別。
// 未認証 (Anonymous)、認証済みユーザー、作成者本人かはアンケートごとに解決される。
type Viewer struct {
	ID string
}

// Anonymous は未認証の閲覧者。
var Anonymous = Viewer{}

// Known は閲覧者が認証済みかを返す。
func (v Viewer) Known() bool {
	return v.ID != ""
}

// SurveyLifecycleService はアンケート集約のライフサイクルを司るコアのユースケース群。
type SurveyLifecycleService interface {
	Create(ctx context.Context, cmd CreateSurveyCommand) (*domain.Survey, error)
	// Close は締切済みなら alreadyClosed=true を返す冪等操作。
	Close(ctx context.Context, surveyID, actorID string) (survey *domain.Survey, alreadyClosed bool, err error)
	UpdateExpiry(ctx context.Context, surveyID, actorID string, newExpiry time.Time) (*domain.Survey, error)
	// SubmitResponse は初回投稿なら created=true、再投稿なら既存回答を上書きして false を返す。
	SubmitResponse(ctx context.Context, cmd SubmitResponseCommand) (record *domain.ResponseRecord, created bool, err error)
	UpdateResponse(ctx context.Context, cmd UpdateResponseCommand) (*domain.ResponseRecord, error)
	DeleteResponse(ctx context.Context, surveyID, responseID, actorID string) error
	UserResponse(ctx context.Context, surveyID, userID, requesterID string) (*domain.ResponseRecord, error)
	ResponseCount(ctx context.Context, surveyID string) (int, error)
	Analytics(ctx context.Context, surveyID, actorID string) (*SurveyAnalytics, error)
}

// SurveyQueryService describes survey read use-cases.
type SurveyQueryService interface {
	List(ctx context.Context, filter SurveyFilter, paging Paging) (*SurveyPage, error)
	Detail(ctx context.Context, id string, viewer Viewer) (*SurveyView, error)
	ListUserResponses(ctx context.Context, userID, requesterID string) ([]UserResponseView, error)
}

// SurveySummaryService handles AI summary use-cases.
type SurveySummaryService interface {
	Generate(ctx context.Context, surveyID, actorID string) (*domain.Summary, error)
	SetVisibility(ctx context.Context, surveyID, actorID string, visible bool) (*domain.Summary, error)
}

// CreateSurveyCommand captures creator input for a new survey.
type CreateSurveyCommand struct {
	CreatorID           string
	Title               string
	Area                string
	Question            string
	Guidelines          string
	PermittedDomains    []string
	PermittedResponses  *int
	SummaryInstructions string
	ExpiryDate          *time.Time
}

// SubmitResponseCommand captures a respondent submission.
type SubmitResponseCommand struct {
	SurveyID   string
	ActorID    string
	ActorEmail string
	Text       string
}

// UpdateResponseCommand captures an owner's edit of an existing response.
type UpdateResponseCommand struct {
	SurveyID   string
	ResponseID string
	ActorID    string
	Text       string
}

// SurveyView は閲覧者の役割に応じて絞り込んだアンケートの読み取りモデル。
// Responses は作成者本人にのみ、Summary は公開済みか作成者本人にのみ含まれる。
type SurveyView struct {
	Survey        domain.Survey
	ResponseCount int
	Responses     []domain.ResponseRecord
	Summary       *domain.Summary
}

// SurveyPage はページネーションメタデータ付きの一覧結果。
type SurveyPage struct {
	Surveys      []SurveyView
	CurrentPage  int
	TotalPages   int
	TotalSurveys int64
}

// UserResponseView は親アンケートの文脈を添えた自分の回答。
type UserResponseView struct {
	SurveyID    string
	SurveyTitle string
	SurveyArea  string
	Closed      bool
	ExpiryDate  *time.Time
	Response    domain.ResponseRecord
}

// SurveyAnalytics は回答集合に対する純粋な派生統計。
type SurveyAnalytics struct {
	ResponseCount     int
	AverageTextLength float64
	Entries           []ResponseStat
}

// ResponseStat は回答 1 件分の長さと投稿時期。
type ResponseStat struct {
	ResponseID  string
	TextLength  int
	SubmittedAt time.Time
	UpdatedAt   time.Time
}
