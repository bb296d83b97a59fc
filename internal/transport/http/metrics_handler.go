package http

import (
	"net/http"
	"time"

	"github.com/go-chi/render"

	apperrors "snapcli/internal/errors"
	"snapcli/pkg/contracts"
)

// MetricsHandler serves the Prometheus scrape endpoint and a liveness check
type MetricsHandler struct {
	prometheus http.Handler
	started    time.Time
}

// NewMetricsHandler wraps the exporter handler; nil answers 404 on /metrics.
func NewMetricsHandler(prometheus http.Handler) *MetricsHandler {
	return &MetricsHandler{prometheus: prometheus, started: time.Now()}
}

// GetHealth returns basic health status
func (h *MetricsHandler) GetHealth(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]interface{}{
		"status":    "ok",
		"version":   contracts.Version,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"uptime":    time.Since(h.started).Round(time.Second).String(),
	})
}

// GetMetrics delegates to the Prometheus exporter
func (h *MetricsHandler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	if h.prometheus == nil {
		_ = render.Render(w, r, apperrors.NewErrorResponse(
			apperrors.New(http.StatusNotFound, "METRICS_DISABLED", "metrics exporter is disabled")))
		return
	}
	h.prometheus.ServeHTTP(w, r)
}
