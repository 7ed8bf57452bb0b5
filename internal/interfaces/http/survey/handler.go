package survey

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	mongodoc "github.com/kikitori/survey-services/api/internal/infrastructure/mongo"
	"github.com/kikitori/survey-services/api/internal/survey/application"
)

// Handler wires survey HTTP endpoints to application services.
type Handler struct {
	logger              *log.Logger
	lifecycle           application.SurveyLifecycleService
	queries             application.SurveyQueryService
	summaries           application.SurveySummaryService
	httpClient          *http.Client
	notifyEndpoint      string
	notifyDestination   string
	failedNotifications *mongodoc.FailedNotificationRepository
}

// Config defines dependencies required by Handler.
type Config struct {
	Logger              *log.Logger
	Lifecycle           application.SurveyLifecycleService
	Queries             application.SurveyQueryService
	Summaries           application.SurveySummaryService
	HTTPClient          *http.Client
	NotifyEndpoint      string
	NotifyDestination   string
	FailedNotifications *mongodoc.FailedNotificationRepository
}

// NewHandler constructs the survey HTTP handler set.
func NewHandler(cfg Config) *Handler {
	return &Handler{
		logger:              cfg.Logger,
		lifecycle:           cfg.Lifecycle,
		queries:             cfg.Queries,
		summaries:           cfg.Summaries,
		httpClient:          cfg.HTTPClient,
		notifyEndpoint:      cfg.NotifyEndpoint,
		notifyDestination:   cfg.NotifyDestination,
		failedNotifications: cfg.FailedNotifications,
	}
}

// Register mounts all survey routes onto the router.
// 読み取り系は未認証でも閲覧できるよう optionalAuth を、書き込み系は auth を通す。
func (h *Handler) Register(r chi.Router, auth, optionalAuth func(http.Handler) http.Handler) {
	r.With(optionalAuth).Get("/surveys", h.surveyListHandler())
	r.With(optionalAuth).Get("/surveys/{id}", h.surveyDetailHandler())

	r.With(auth).Post("/surveys", h.surveyCreateHandler())
	r.With(auth).Post("/surveys/{id}/close", h.surveyCloseHandler())
	r.With(auth).Patch("/surveys/{id}/expiry", h.surveyExpiryHandler())

	r.With(auth).Post("/surveys/{id}/responses", h.responseSubmitHandler())
	r.With(auth).Patch("/surveys/{id}/responses/{responseId}", h.responseUpdateHandler())
	r.With(auth).Delete("/surveys/{id}/responses/{responseId}", h.responseDeleteHandler())
	r.With(auth).Get("/surveys/{id}/responses/me", h.myResponseHandler())
	r.With(auth).Get("/surveys/{id}/analytics", h.surveyAnalyticsHandler())

	r.With(auth).Post("/surveys/{id}/summary", h.summaryGenerateHandler())
	r.With(auth).Patch("/surveys/{id}/summary/visibility", h.summaryVisibilityHandler())

	r.With(auth).Get("/users/me/responses", h.myResponsesHandler())
	r.With(auth).Get("/auth/verify", h.authVerifyHandler())
}
