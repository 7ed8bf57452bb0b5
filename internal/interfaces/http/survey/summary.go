package survey

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kikitori/survey-services/api/internal/interfaces/http/common"
)

// summaryGenerateHandler は AI 要約の生成 API。作成者のみ実行でき、
// 生成された要約は非公開状態で保存される。
func (h *Handler) summaryGenerateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// 要約生成は外部 AI との往復を含むため、通常の API より長めの猶予を持たせる。
		ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
		defer cancel()

		user, ok := common.UserFromContext(ctx)
		if !ok {
			common.WriteJSON(h.logger, w, http.StatusUnauthorized, map[string]string{"error": "認証情報の取得に失敗しました"})
			return
		}

		summary, err := h.summaries.Generate(ctx, chi.URLParam(r, "id"), user.ID)
		if err != nil {
			common.WriteDomainError(h.logger, w, err)
			return
		}

		common.WriteJSON(h.logger, w, http.StatusCreated, buildSummaryResponse(summary))
	}
}

// summaryVisibilityHandler は要約の公開フラグを切り替える API。作成者のみ。
func (h *Handler) summaryVisibilityHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		user, ok := common.UserFromContext(ctx)
		if !ok {
			common.WriteJSON(h.logger, w, http.StatusUnauthorized, map[string]string{"error": "認証情報の取得に失敗しました"})
			return
		}

		var req summaryVisibilityRequest
		r.Body = http.MaxBytesReader(w, r.Body, common.MaxRequestBody)
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			common.WriteJSON(h.logger, w, http.StatusBadRequest, map[string]string{"error": "リクエストボディの形式が不正です"})
			return
		}

		summary, err := h.summaries.SetVisibility(ctx, chi.URLParam(r, "id"), user.ID, req.Visible)
		if err != nil {
			common.WriteDomainError(h.logger, w, err)
			return
		}

		common.WriteJSON(h.logger, w, http.StatusOK, buildSummaryResponse(summary))
	}
}
