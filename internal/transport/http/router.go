package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"snapcli/internal/middleware"
)

// RouterConfig wires the status server
type RouterConfig struct {
	Status     StatusProvider
	Prometheus http.Handler
	// RPS and Burst rate limit every route; zero RPS disables limiting.
	RPS    float64
	Burst  int
	Logger *slog.Logger
}

// NewRouter builds the status server routes: /health, /metrics and /status.
func NewRouter(cfg RouterConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.StructuredLogger(logger))
	r.Use(middleware.Recoverer(logger))
	if cfg.RPS > 0 {
		r.Use(middleware.NewRateLimiter(cfg.RPS, cfg.Burst, logger).Handler)
	}

	metrics := NewMetricsHandler(cfg.Prometheus)
	status := NewStatusHandler(cfg.Status, logger)

	r.Get("/health", metrics.GetHealth)
	r.Get("/metrics", metrics.GetMetrics)
	r.Get("/status", status.GetStatus)
	return r
}
