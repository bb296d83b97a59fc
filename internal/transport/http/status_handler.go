package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	apperrors "snapcli/internal/errors"
	"snapcli/pkg/contracts/domain"
)

// StatusProvider exposes the run in progress
type StatusProvider interface {
	Status() (domain.RunReport, bool)
}

// StatusResponse is the body of GET /status
type StatusResponse struct {
	Run    domain.RunReport           `json:"run"`
	Done   bool                       `json:"done"`
	Counts map[domain.GroupStatus]int `json:"counts"`
	Totals domain.GroupCounts         `json:"totals"`
}

// StatusHandler serves the run report
type StatusHandler struct {
	provider StatusProvider
	logger   *slog.Logger
}

// NewStatusHandler creates a new status handler
func NewStatusHandler(provider StatusProvider, logger *slog.Logger) *StatusHandler {
	return &StatusHandler{
		provider: provider,
		logger:   logger.With(slog.String("handler", "status")),
	}
}

// GetStatus handles GET /status
func (h *StatusHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	if h.provider == nil {
		_ = render.Render(w, r, apperrors.NewErrorResponse(apperrors.NotFoundError("run")))
		return
	}
	report, ok := h.provider.Status()
	if !ok {
		_ = render.Render(w, r, apperrors.NewErrorResponse(apperrors.NotFoundError("run")))
		return
	}

	report.SortGroups()
	render.JSON(w, r, StatusResponse{
		Run:    report,
		Done:   report.CompletedAt != nil,
		Counts: report.StatusCounts(),
		Totals: report.Totals(),
	})
}
