// internal/api/router.go

// Package api exposes answer ingestion and recommendations over HTTP.
package api

import (
	"context"
	"net/http"
	"time"

	apperrors "survey-recommender/internal/common/errors"
	"survey-recommender/internal/common/logger"
	"survey-recommender/internal/common/observability"
	"survey-recommender/internal/models"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type AnswerSubmitter interface {
	Submit(ctx context.Context, inputs []models.AnswerInput) (string, error)
}

type AnswerLoader interface {
	LoadByResponse(ctx context.Context, responseID string) ([]models.Answer, error)
}

type PlantRecommender interface {
	Recommend(ctx context.Context, answers []models.Answer) ([]models.PlantRecommendation, error)
}

type PartnerRecommender interface {
	Recommend(ctx context.Context, answers []models.Answer) ([]models.PartnerRecommendation, error)
}

// Check reports whether one dependency is ready to serve.
type Check func(ctx context.Context) error

// RateLimit caps submissions per client IP. Zero Requests disables it.
type RateLimit struct {
	Requests int
	Window   time.Duration
}

// Config defines dependencies required by Handler.
type Config struct {
	Logger         logger.Logger
	Submitter      AnswerSubmitter
	Answers        AnswerLoader
	Plants         PlantRecommender
	Partners       PartnerRecommender
	ReadyChecks    map[string]Check
	Observability  *observability.Observability
	MetricsHandler http.Handler
	AllowedOrigins []string
	SubmitLimit    RateLimit
}

// Handler wires HTTP endpoints to the ingestion and recommendation services.
type Handler struct {
	logger      logger.Logger
	errors      *apperrors.ErrorHandler
	submitter   AnswerSubmitter
	answers     AnswerLoader
	plants      PlantRecommender
	partners    PartnerRecommender
	readyChecks map[string]Check
	submitLimit func(http.Handler) http.Handler
}

func NewHandler(cfg Config) *Handler {
	log := logger.Component(cfg.Logger, "http")
	return &Handler{
		logger:      log,
		errors:      apperrors.NewErrorHandler(log),
		submitter:   cfg.Submitter,
		answers:     cfg.Answers,
		plants:      cfg.Plants,
		partners:    cfg.Partners,
		readyChecks: cfg.ReadyChecks,
		submitLimit: rateLimiter(cfg.SubmitLimit),
	}
}

func rateLimiter(limit RateLimit) func(http.Handler) http.Handler {
	if limit.Requests <= 0 || limit.Window <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	return httprate.LimitByIP(limit.Requests, limit.Window)
}

// Register mounts the API routes onto r.
func (h *Handler) Register(r chi.Router) {
	r.Get("/health", h.healthHandler())
	r.Get("/ready", h.readyHandler())

	r.With(h.submitLimit).Post("/answers", h.submitAnswersHandler())
	r.Get("/answers/{responseId}/plants", h.plantRecommendationsHandler())
	r.Get("/answers/{responseId}/partners", h.partnerRecommendationsHandler())
}

// NewRouter builds the full HTTP handler: middleware, API routes and /metrics.
func NewRouter(cfg Config) http.Handler {
	h := NewHandler(cfg)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(requestLogger(h.logger))
	router.Use(middleware.Recoverer)
	if len(cfg.AllowedOrigins) > 0 {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins: cfg.AllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
			ExposedHeaders: []string{"X-Request-Id"},
			MaxAge:         300,
		}))
	}
	if cfg.Observability != nil {
		router.Use(cfg.Observability.Middleware)
	}

	h.Register(router)

	metricsHandler := cfg.MetricsHandler
	if metricsHandler == nil {
		metricsHandler = promhttp.Handler()
	}
	router.Method(http.MethodGet, "/metrics", metricsHandler)

	return router
}

func requestLogger(log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			log.Info("request served", map[string]interface{}{
				"requestId":  middleware.GetReqID(r.Context()),
				"method":     r.Method,
				"path":       r.URL.Path,
				"status":     ww.Status(),
				"bytes":      ww.BytesWritten(),
				"durationMs": time.Since(start).Milliseconds(),
			})
		})
	}
}
