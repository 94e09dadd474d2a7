package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/herdpool/herdpool/internal/adapter/http/handler"
	"github.com/herdpool/herdpool/internal/adapter/http/middleware"
	"github.com/herdpool/herdpool/internal/infrastructure/auth"
	"github.com/herdpool/herdpool/internal/infrastructure/metrics"
	"github.com/herdpool/herdpool/internal/usecase"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	WalletHandler    *handler.WalletHandler
	GroupHandler     *handler.GroupHandler
	PaymentHandler   *handler.PaymentHandler
	HealthHandler    *handler.HealthHandler
	IdempotencyStore usecase.IdempotencyStore
	JWTManager       *auth.JWTManager
	Logger           zerolog.Logger
	Metrics          *metrics.Metrics
	RateLimit        float64
	RateBurst        int
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewLoggingMiddleware(cfg.Logger).Wrap)
	r.Use(middleware.Recovery)

	if cfg.Metrics != nil {
		r.Use(middleware.NewMetricsMiddleware(cfg.Metrics).Wrap)
	}
	if cfg.RateLimit > 0 {
		r.Use(middleware.NewRateLimiter(cfg.RateLimit, cfg.RateBurst).Limit)
	}

	// Health and telemetry endpoints
	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)
	r.Handle("/metrics", promhttp.Handler())

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		if cfg.JWTManager != nil {
			r.Use(middleware.OptionalAuth(cfg.JWTManager))
		}

		// Idempotency middleware for mutating requests
		if cfg.IdempotencyStore != nil {
			idempotencyMiddleware := middleware.NewIdempotencyMiddleware(cfg.IdempotencyStore)
			r.Use(idempotencyMiddleware.Wrap)
		}

		// Wallets
		r.Route("/wallets", func(r chi.Router) {
			r.Post("/", cfg.WalletHandler.Create)
			r.Get("/{userID}", cfg.WalletHandler.Get)
			r.Get("/{userID}/entries", cfg.WalletHandler.ListEntries)
			r.With(middleware.RequireSettler).Post("/{userID}/credit", cfg.WalletHandler.Credit)
			r.With(middleware.RequireSettler).Post("/{userID}/debit", cfg.WalletHandler.Debit)
		})

		// Groups
		r.Route("/groups", func(r chi.Router) {
			r.Get("/", cfg.GroupHandler.List)
			r.Get("/{id}", cfg.GroupHandler.Get)
			r.Get("/{id}/participations", cfg.GroupHandler.ListParticipations)
			r.With(middleware.RequireSettler).Post("/", cfg.GroupHandler.StartCreate)
			r.With(middleware.RequireSettler).Post("/{id}/complete", cfg.GroupHandler.CompleteCreate)
			r.With(middleware.RequireSettler).Post("/{id}/join", cfg.GroupHandler.StartJoin)
			r.With(middleware.RequireSettler).Post("/{id}/join/complete", cfg.GroupHandler.CompleteJoin)
			r.With(middleware.RequireSettler).Delete("/{id}", cfg.GroupHandler.Cancel)
		})

		// Gateway redirect landing
		r.Get("/payments/callback", cfg.PaymentHandler.Callback)
	})

	return r
}
