package handler

import (
	"context"
	"net/http"

	"github.com/evolution-ecosystem/bridge/internal/middleware"
	"github.com/evolution-ecosystem/bridge/internal/model"
)

// RunService defines the service surface the run handler needs.
type RunService interface {
	Start(ctx context.Context, ownerID, experimentID string) (*model.Run, error)
	Get(ctx context.Context, ownerID, runID string) (*model.Run, error)
	ListByExperiment(ctx context.Context, ownerID, experimentID string) ([]*model.Run, error)
	Cancel(ctx context.Context, ownerID, runID string) (*model.Run, error)
	Metrics(ctx context.Context, ownerID, runID string) ([]*model.GenerationMetric, error)
	RecordProgress(ctx context.Context, report *model.ProgressReport) (*model.Run, error)
}

// RunHandler handles run HTTP requests
type RunHandler struct {
	svc RunService
}

// NewRunHandler creates a new run handler
func NewRunHandler(svc RunService) *RunHandler {
	return &RunHandler{svc: svc}
}

// Start handles POST /api/v1/experiments/{experimentId}/runs
func (h *RunHandler) Start(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		WriteError(w, model.NewUnauthorizedError("authentication required"))
		return
	}

	experimentID := r.PathValue("experimentId")
	if experimentID == "" {
		WriteError(w, model.NewBadRequestError("experiment ID required"))
		return
	}

	run, err := h.svc.Start(ctx, userID, experimentID)
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}

	WriteData(w, http.StatusAccepted, run)
}

// List handles GET /api/v1/experiments/{experimentId}/runs
func (h *RunHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		WriteError(w, model.NewUnauthorizedError("authentication required"))
		return
	}

	experimentID := r.PathValue("experimentId")
	if experimentID == "" {
		WriteError(w, model.NewBadRequestError("experiment ID required"))
		return
	}

	runs, err := h.svc.ListByExperiment(ctx, userID, experimentID)
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}

	WriteCollection(w, http.StatusOK, runs, len(runs))
}

// Get handles GET /api/v1/runs/{runId}
func (h *RunHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		WriteError(w, model.NewUnauthorizedError("authentication required"))
		return
	}

	runID := r.PathValue("runId")
	if runID == "" {
		WriteError(w, model.NewBadRequestError("run ID required"))
		return
	}

	run, err := h.svc.Get(ctx, userID, runID)
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}

	WriteData(w, http.StatusOK, run)
}

// Cancel handles POST /api/v1/runs/{runId}/cancel
func (h *RunHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		WriteError(w, model.NewUnauthorizedError("authentication required"))
		return
	}

	runID := r.PathValue("runId")
	if runID == "" {
		WriteError(w, model.NewBadRequestError("run ID required"))
		return
	}

	run, err := h.svc.Cancel(ctx, userID, runID)
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}

	WriteData(w, http.StatusOK, run)
}

// Metrics handles GET /api/v1/runs/{runId}/metrics
func (h *RunHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		WriteError(w, model.NewUnauthorizedError("authentication required"))
		return
	}

	runID := r.PathValue("runId")
	if runID == "" {
		WriteError(w, model.NewBadRequestError("run ID required"))
		return
	}

	metrics, err := h.svc.Metrics(ctx, userID, runID)
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}

	WriteCollection(w, http.StatusOK, metrics, len(metrics))
}

// Callback handles POST /api/v1/engine/callback. The engine authenticates
// with its shared key via middleware; the body is a progress report.
func (h *RunHandler) Callback(w http.ResponseWriter, r *http.Request) {
	var report model.ProgressReport
	if err := DecodeJSON(r, &report); err != nil {
		WriteError(w, model.NewBadRequestError("invalid request body"))
		return
	}
	if fieldErrs := report.Validate(); len(fieldErrs) > 0 {
		WriteError(w, model.NewValidationError(fieldErrs))
		return
	}

	run, err := h.svc.RecordProgress(r.Context(), &report)
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}

	WriteData(w, http.StatusOK, run)
}
