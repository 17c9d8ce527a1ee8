package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/evolution-ecosystem/bridge/internal/model"
)

// AdminRunService defines the operator surface the admin handler needs.
type AdminRunService interface {
	ListRecent(ctx context.Context, limit int) ([]*model.Run, error)
	PruneMetrics(ctx context.Context, retention time.Duration) (int, error)
}

// AdminHandler handles operator endpoints. Routes are guarded by the
// admin API key middleware, not dashboard tokens.
type AdminHandler struct {
	runs            AdminRunService
	metricRetention time.Duration
}

// NewAdminHandler creates a new admin handler.
func NewAdminHandler(runs AdminRunService, metricRetention time.Duration) *AdminHandler {
	if metricRetention == 0 {
		metricRetention = 30 * 24 * time.Hour
	}
	return &AdminHandler{runs: runs, metricRetention: metricRetention}
}

// ListRuns handles GET /api/v1/admin/runs - recent runs across all owners
func (h *AdminHandler) ListRuns(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			WriteError(w, model.NewBadRequestError("limit must be a positive integer"))
			return
		}
		limit = parsed
	}

	runs, err := h.runs.ListRecent(r.Context(), limit)
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}

	WriteCollection(w, http.StatusOK, runs, len(runs))
}

type pruneResponse struct {
	Removed int `json:"removed"`
}

// PruneMetrics handles POST /api/v1/admin/maintenance/prune - immediate
// metric prune outside the scheduled job
func (h *AdminHandler) PruneMetrics(w http.ResponseWriter, r *http.Request) {
	removed, err := h.runs.PruneMetrics(r.Context(), h.metricRetention)
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}

	WriteData(w, http.StatusOK, pruneResponse{Removed: removed})
}
