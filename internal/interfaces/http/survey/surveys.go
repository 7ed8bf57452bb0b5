package survey

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kikitori/survey-services/api/internal/interfaces/http/common"
	"github.com/kikitori/survey-services/api/internal/survey/application"
)

// surveyCreateHandler はアンケートの新規作成 API。認証済みユーザーが作成者となる。
func (h *Handler) surveyCreateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		user, ok := common.UserFromContext(ctx)
		if !ok {
			common.WriteJSON(h.logger, w, http.StatusUnauthorized, map[string]string{"error": "認証情報の取得に失敗しました"})
			return
		}

		var req createSurveyRequest
		r.Body = http.MaxBytesReader(w, r.Body, common.MaxRequestBody)
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			common.WriteJSON(h.logger, w, http.StatusBadRequest, map[string]string{"error": "リクエストボディの形式が不正です"})
			return
		}

		survey, err := h.lifecycle.Create(ctx, application.CreateSurveyCommand{
			CreatorID:           user.ID,
			Title:               req.Title,
			Area:                req.Area,
			Question:            req.Question,
			Guidelines:          req.Guidelines,
			PermittedDomains:    req.PermittedDomains,
			PermittedResponses:  req.PermittedResponses,
			SummaryInstructions: req.SummaryInstructions,
			ExpiryDate:          req.ExpiryDate,
		})
		if err != nil {
			common.WriteDomainError(h.logger, w, err)
			return
		}

		common.WriteJSON(h.logger, w, http.StatusCreated, buildCreatedSurveyResponse(survey))
	}
}

// surveyListHandler はアンケート一覧 API。状態・作成者・キーワードで絞り込める。
func (h *Handler) surveyListHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		query := r.URL.Query()
		filter := application.SurveyFilter{
			CreatorID:  strings.TrimSpace(query.Get("creatorId")),
			Status:     application.ParseSurveyStatus(strings.TrimSpace(query.Get("status"))),
			SearchText: strings.TrimSpace(query.Get("search")),
		}

		paging := application.Paging{}
		paging.Page, _ = common.ParsePositiveInt(query.Get("page"), 1)
		paging.Limit, _ = common.ParsePositiveInt(query.Get("limit"), 10)

		page, err := h.queries.List(ctx, filter, paging)
		if err != nil {
			common.WriteDomainError(h.logger, w, err)
			return
		}

		surveys := make([]surveyResponse, 0, len(page.Surveys))
		for _, view := range page.Surveys {
			surveys = append(surveys, buildSurveyResponse(view))
		}

		common.WriteJSON(h.logger, w, http.StatusOK, surveyListResponse{
			Surveys:      surveys,
			CurrentPage:  page.CurrentPage,
			TotalPages:   page.TotalPages,
			TotalSurveys: page.TotalSurveys,
		})
	}
}

// surveyDetailHandler は単一アンケートの取得 API。
// 回答一覧は作成者本人にのみ、要約は公開済みか作成者本人にのみ含まれる。
func (h *Handler) surveyDetailHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		viewer := application.Anonymous
		if user, ok := common.UserFromContext(ctx); ok {
			viewer = application.Viewer{ID: user.ID}
		}

		view, err := h.queries.Detail(ctx, chi.URLParam(r, "id"), viewer)
		if err != nil {
			common.WriteDomainError(h.logger, w, err)
			return
		}

		common.WriteJSON(h.logger, w, http.StatusOK, buildSurveyResponse(*view))
	}
}

// surveyCloseHandler はアンケートの締切 API。締切済みへの再実行は状態を変えず
// already_closed を返す冪等な操作。
func (h *Handler) surveyCloseHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		user, ok := common.UserFromContext(ctx)
		if !ok {
			common.WriteJSON(h.logger, w, http.StatusUnauthorized, map[string]string{"error": "認証情報の取得に失敗しました"})
			return
		}

		survey, alreadyClosed, err := h.lifecycle.Close(ctx, chi.URLParam(r, "id"), user.ID)
		if err != nil {
			common.WriteDomainError(h.logger, w, err)
			return
		}

		status := "closed"
		if alreadyClosed {
			status = "already_closed"
		}
		common.WriteJSON(h.logger, w, http.StatusOK, map[string]any{
			"status": status,
			"survey": buildCreatedSurveyResponse(survey),
		})
	}
}

// surveyExpiryHandler は回答期限の変更 API。締め切っていなければ期限切れ後でも延長できる。
func (h *Handler) surveyExpiryHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		user, ok := common.UserFromContext(ctx)
		if !ok {
			common.WriteJSON(h.logger, w, http.StatusUnauthorized, map[string]string{"error": "認証情報の取得に失敗しました"})
			return
		}

		var req updateExpiryRequest
		r.Body = http.MaxBytesReader(w, r.Body, common.MaxRequestBody)
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ExpiryDate.IsZero() {
			common.WriteJSON(h.logger, w, http.StatusBadRequest, map[string]string{"error": "回答期限の形式が不正です"})
			return
		}

		survey, err := h.lifecycle.UpdateExpiry(ctx, chi.URLParam(r, "id"), user.ID, req.ExpiryDate)
		if err != nil {
			common.WriteDomainError(h.logger, w, err)
			return
		}

		common.WriteJSON(h.logger, w, http.StatusOK, buildCreatedSurveyResponse(survey))
	}
}

// surveyAnalyticsHandler は回答統計 API。作成者のみ参照できる。
func (h *Handler) surveyAnalyticsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		user, ok := common.UserFromContext(ctx)
		if !ok {
			common.WriteJSON(h.logger, w, http.StatusUnauthorized, map[string]string{"error": "認証情報の取得に失敗しました"})
			return
		}

		analytics, err := h.lifecycle.Analytics(ctx, chi.URLParam(r, "id"), user.ID)
		if err != nil {
			common.WriteDomainError(h.logger, w, err)
			return
		}

		entries := make([]analyticsStatEntry, 0, len(analytics.Entries))
		for _, entry := range analytics.Entries {
			entries = append(entries, analyticsStatEntry{
				ResponseID:  entry.ResponseID,
				TextLength:  entry.TextLength,
				SubmittedAt: entry.SubmittedAt,
				UpdatedAt:   entry.UpdatedAt,
			})
		}

		common.WriteJSON(h.logger, w, http.StatusOK, analyticsResponse{
			ResponseCount:     analytics.ResponseCount,
			AverageTextLength: analytics.AverageTextLength,
			Entries:           entries,
		})
	}
}
