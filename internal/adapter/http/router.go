package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/iho/bobpool/internal/adapter/http/handler"
	"github.com/iho/bobpool/internal/adapter/http/middleware"
	"github.com/iho/bobpool/internal/infrastructure/metrics"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	RestaurantHandler *handler.RestaurantHandler
	EntryHandler      *handler.EntryHandler
	LedgerHandler     *handler.LedgerHandler
	HealthHandler     *handler.HealthHandler

	// Optional
	Idempotency    *middleware.IdempotencyMiddleware
	RateLimiter    *middleware.RateLimiter
	Metrics        *metrics.Metrics
	MetricsHandler http.Handler
	Logger         zerolog.Logger
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewLoggingMiddleware(cfg.Logger).Wrap)
	r.Use(middleware.Recovery(cfg.Logger))
	if cfg.Metrics != nil {
		r.Use(middleware.Metrics(cfg.Metrics))
	}

	// Health endpoints
	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)

	metricsHandler := cfg.MetricsHandler
	if metricsHandler == nil {
		metricsHandler = promhttp.Handler()
	}
	r.Method(http.MethodGet, "/metrics", metricsHandler)

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		if cfg.RateLimiter != nil {
			r.Use(cfg.RateLimiter.Limit)
		}

		// Idempotency middleware for mutating requests
		if cfg.Idempotency != nil {
			r.Use(cfg.Idempotency.Wrap)
		}

		// Restaurants
		r.Route("/restaurants", func(r chi.Router) {
			r.Get("/", cfg.RestaurantHandler.List)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", cfg.RestaurantHandler.Get)
				r.Get("/menu/price", cfg.RestaurantHandler.MenuPrice)
				r.Get("/pool", cfg.RestaurantHandler.Pool)
				r.Get("/edit-session", cfg.RestaurantHandler.EditSession)

				r.Get("/entries", cfg.EntryHandler.List)
				r.Patch("/entries/{entryID}", cfg.EntryHandler.Revise)
				r.Post("/deposits", cfg.EntryHandler.CreateDeposit)
				r.Post("/withdrawals", cfg.EntryHandler.CreateWithdrawal)
			})
		})

		// Ledger
		r.Get("/ledger/consistency", cfg.LedgerHandler.CheckConsistency)
	})

	return r
}
