package survey

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kikitori/survey-services/api/internal/interfaces/http/common"
	"github.com/kikitori/survey-services/api/internal/survey/application"
)

// responseSubmitHandler は回答の投稿 API。同一ユーザーの再投稿は既存回答の上書きになる。
func (h *Handler) responseSubmitHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		user, ok := common.UserFromContext(ctx)
		if !ok {
			common.WriteJSON(h.logger, w, http.StatusUnauthorized, map[string]string{"error": "認証情報の取得に失敗しました"})
			return
		}

		var req submitResponseRequest
		r.Body = http.MaxBytesReader(w, r.Body, common.MaxRequestBody)
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			common.WriteJSON(h.logger, w, http.StatusBadRequest, map[string]string{"error": "リクエストボディの形式が不正です"})
			return
		}

		surveyID := chi.URLParam(r, "id")
		record, created, err := h.lifecycle.SubmitResponse(ctx, application.SubmitResponseCommand{
			SurveyID:   surveyID,
			ActorID:    user.ID,
			ActorEmail: user.Email,
			Text:       req.Text,
		})
		if err != nil {
			common.WriteDomainError(h.logger, w, err)
			return
		}

		status := http.StatusOK
		label := "updated"
		if created {
			status = http.StatusCreated
			label = "created"
			h.notifyNewResponse(surveyID, user, record)
		}

		common.WriteJSON(h.logger, w, status, map[string]any{
			"status":   label,
			"response": buildResponseRecord(record),
		})
	}
}

// responseUpdateHandler は回答本文の編集 API。所有者本人のみが実行できる。
func (h *Handler) responseUpdateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		user, ok := common.UserFromContext(ctx)
		if !ok {
			common.WriteJSON(h.logger, w, http.StatusUnauthorized, map[string]string{"error": "認証情報の取得に失敗しました"})
			return
		}

		var req updateResponseRequest
		r.Body = http.MaxBytesReader(w, r.Body, common.MaxRequestBody)
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			common.WriteJSON(h.logger, w, http.StatusBadRequest, map[string]string{"error": "リクエストボディの形式が不正です"})
			return
		}

		record, err := h.lifecycle.UpdateResponse(ctx, application.UpdateResponseCommand{
			SurveyID:   chi.URLParam(r, "id"),
			ResponseID: chi.URLParam(r, "responseId"),
			ActorID:    user.ID,
			Text:       req.Text,
		})
		if err != nil {
			common.WriteDomainError(h.logger, w, err)
			return
		}

		common.WriteJSON(h.logger, w, http.StatusOK, map[string]any{
			"status":   "updated",
			"response": buildResponseRecord(record),
		})
	}
}

// responseDeleteHandler は回答の削除 API。所有者または作成者が実行できる。
func (h *Handler) responseDeleteHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		user, ok := common.UserFromContext(ctx)
		if !ok {
			common.WriteJSON(h.logger, w, http.StatusUnauthorized, map[string]string{"error": "認証情報の取得に失敗しました"})
			return
		}

		err := h.lifecycle.DeleteResponse(ctx, chi.URLParam(r, "id"), chi.URLParam(r, "responseId"), user.ID)
		if err != nil {
			common.WriteDomainError(h.logger, w, err)
			return
		}

		common.WriteJSON(h.logger, w, http.StatusOK, map[string]string{"status": "deleted"})
	}
}

// myResponseHandler は対象アンケートにおける自分の回答を返す API。
func (h *Handler) myResponseHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		user, ok := common.UserFromContext(ctx)
		if !ok {
			common.WriteJSON(h.logger, w, http.StatusUnauthorized, map[string]string{"error": "認証情報の取得に失敗しました"})
			return
		}

		record, err := h.lifecycle.UserResponse(ctx, chi.URLParam(r, "id"), user.ID, user.ID)
		if err != nil {
			common.WriteDomainError(h.logger, w, err)
			return
		}

		common.WriteJSON(h.logger, w, http.StatusOK, buildResponseRecord(record))
	}
}

// myResponsesHandler は自分の全回答を親アンケートの文脈付きで新しい順に返す API。
func (h *Handler) myResponsesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		user, ok := common.UserFromContext(ctx)
		if !ok {
			common.WriteJSON(h.logger, w, http.StatusUnauthorized, map[string]string{"error": "認証情報の取得に失敗しました"})
			return
		}

		views, err := h.queries.ListUserResponses(ctx, user.ID, user.ID)
		if err != nil {
			common.WriteDomainError(h.logger, w, err)
			return
		}

		items := make([]userResponseItem, 0, len(views))
		for _, view := range views {
			items = append(items, userResponseItem{
				SurveyID:    view.SurveyID,
				SurveyTitle: view.SurveyTitle,
				SurveyArea:  view.SurveyArea,
				Closed:      view.Closed,
				ExpiryDate:  view.ExpiryDate,
				Response:    buildResponseRecord(&view.Response),
			})
		}

		common.WriteJSON(h.logger, w, http.StatusOK, items)
	}
}
