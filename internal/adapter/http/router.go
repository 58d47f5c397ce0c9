package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/iho/paymaster/internal/adapter/http/handler"
	"github.com/iho/paymaster/internal/adapter/http/middleware"
	"github.com/iho/paymaster/internal/infrastructure/metrics"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	BudgetHandler  *handler.BudgetHandler
	LedgerHandler  *handler.LedgerHandler
	BreakerHandler *handler.BreakerHandler
	ServiceHandler *handler.ServiceHandler
	ToolHandler    *handler.ToolHandler
	HealthHandler  *handler.HealthHandler
	Logger         zerolog.Logger
	Metrics        *metrics.Metrics
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewLoggingMiddleware(cfg.Logger).Wrap)
	r.Use(middleware.NewRecoveryMiddleware(cfg.Logger).Wrap)
	if cfg.Metrics != nil {
		r.Use(middleware.NewMetricsMiddleware(cfg.Metrics).Wrap)
	}

	// Health and telemetry endpoints
	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)
	r.Handle("/metrics", promhttp.Handler())

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/budget/status", cfg.BudgetHandler.Status)

		r.Route("/ledger", func(r chi.Router) {
			r.Get("/entries", cfg.LedgerHandler.List)
			r.Get("/entries/{id}", cfg.LedgerHandler.Get)
			r.Get("/export", cfg.LedgerHandler.Export)
			r.Post("/import", cfg.LedgerHandler.Import)
		})

		r.Route("/breakers", func(r chi.Router) {
			r.Get("/", cfg.BreakerHandler.List)
			r.Post("/{service}/reset", cfg.BreakerHandler.Reset)
		})

		r.Route("/services", func(r chi.Router) {
			r.Get("/", cfg.ServiceHandler.List)
			r.Put("/{service}/health", cfg.ServiceHandler.SetHealth)
		})

		r.Post("/tools/call", cfg.ToolHandler.Call)
	})

	return r
}
