package common

import (
	"errors"
	"log"
	"net/http"

	"github.com/kikitori/survey-services/api/internal/survey/domain"
)

// errorResponse はライフサイクル上の拒絶理由を機械判別可能なコードで返す共通形。
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// WriteDomainError はドメインの番兵エラーを HTTP ステータスと安定したコードへ対応付ける。
// 判定は errors.Is のみで行い、メッセージ文字列には依存しない。
func WriteDomainError(logger *log.Logger, w http.ResponseWriter, err error) {
	status, code, message := classifyDomainError(err)
	if status == http.StatusInternalServerError && logger != nil {
		logger.Printf("ハンドラ内部エラー: %v", err)
	}
	WriteJSON(logger, w, status, errorResponse{Error: message, Code: code})
}

func classifyDomainError(err error) (int, string, string) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest, "validation_error", err.Error()
	case errors.Is(err, domain.ErrSurveyNotFound):
		return http.StatusNotFound, "survey_not_found", "アンケートが見つかりません"
	case errors.Is(err, domain.ErrResponseNotFound):
		return http.StatusNotFound, "response_not_found", "回答が見つかりません"
	case errors.Is(err, domain.ErrDomainNotPermitted):
		return http.StatusForbidden, "domain_not_permitted", "このアンケートに回答できるメールドメインではありません"
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusForbidden, "unauthorized", "この操作を行う権限がありません"
	case errors.Is(err, domain.ErrSurveyClosed):
		return http.StatusConflict, "survey_closed", "アンケートは締め切られています"
	case errors.Is(err, domain.ErrSurveyExpired):
		return http.StatusGone, "survey_expired", "アンケートの回答期限が過ぎています"
	case errors.Is(err, domain.ErrQuotaExceeded):
		return http.StatusConflict, "quota_exceeded", "回答者数が上限に達しています"
	case errors.Is(err, domain.ErrClosedSurveyExpiry):
		return http.StatusConflict, "closed_survey", "締め切り済みのアンケートは期限を変更できません"
	case errors.Is(err, domain.ErrPastExpiryDate):
		return http.StatusUnprocessableEntity, "past_expiry_date", "回答期限は未来の日時を指定してください"
	case errors.Is(err, domain.ErrRevisionConflict):
		return http.StatusConflict, "conflict_retry", "更新が競合しました。時間をおいて再試行してください"
	case errors.Is(err, domain.ErrSummaryUnavailable):
		return http.StatusBadGateway, "summary_unavailable", "要約サービスが利用できません"
	default:
		return http.StatusInternalServerError, "internal_error", "内部エラーが発生しました"
	}
}
