// Package http serves the operational API: health probes and Prometheus
// metrics. Business commands never travel over HTTP here; callers use the
// typed ledger client in process.
package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/openpos/ledgerd/internal/adapter/http/handler"
	"github.com/openpos/ledgerd/internal/adapter/http/middleware"
	"github.com/openpos/ledgerd/internal/infrastructure/metrics"
)

// RouterConfig holds dependencies for the ops router.
type RouterConfig struct {
	HealthHandler *handler.HealthHandler
	Logger        zerolog.Logger
	Metrics       *metrics.Metrics
	Registry      *prometheus.Registry
}

// NewRouter creates the ops HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewLoggingMiddleware(cfg.Logger).Wrap)
	r.Use(middleware.NewMetricsMiddleware(cfg.Metrics).Wrap)
	r.Use(middleware.Recovery)

	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(cfg.Registry, promhttp.HandlerOpts{}))

	return r
}
