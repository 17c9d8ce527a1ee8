package handler

import (
	"context"
	"net/http"

	"github.com/evolution-ecosystem/bridge/internal/middleware"
	"github.com/evolution-ecosystem/bridge/internal/model"
)

// ExperimentService defines the service surface the experiment handler needs.
type ExperimentService interface {
	Create(ctx context.Context, ownerID string, req *model.CreateExperimentRequest) (*model.Experiment, error)
	Get(ctx context.Context, ownerID, id string) (*model.Experiment, error)
	List(ctx context.Context, ownerID string) ([]*model.Experiment, error)
	Update(ctx context.Context, ownerID, id string, req *model.UpdateExperimentRequest) (*model.Experiment, error)
	Archive(ctx context.Context, ownerID, id string) error
}

// ExperimentHandler handles experiment HTTP requests
type ExperimentHandler struct {
	svc ExperimentService
}

// NewExperimentHandler creates a new experiment handler
func NewExperimentHandler(svc ExperimentService) *ExperimentHandler {
	return &ExperimentHandler{svc: svc}
}

// List handles GET /api/v1/experiments - list the caller's experiments
func (h *ExperimentHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		WriteError(w, model.NewUnauthorizedError("authentication required"))
		return
	}

	experiments, err := h.svc.List(ctx, userID)
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}

	WriteCollection(w, http.StatusOK, experiments, len(experiments))
}

// Create handles POST /api/v1/experiments - create a new experiment
func (h *ExperimentHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		WriteError(w, model.NewUnauthorizedError("authentication required"))
		return
	}

	var req model.CreateExperimentRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteError(w, model.NewBadRequestError("invalid request body"))
		return
	}
	if fieldErrs := req.Validate(); len(fieldErrs) > 0 {
		WriteError(w, model.NewValidationError(fieldErrs))
		return
	}

	exp, err := h.svc.Create(ctx, userID, &req)
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}

	WriteData(w, http.StatusCreated, exp)
}

// Get handles GET /api/v1/experiments/{experimentId}
func (h *ExperimentHandler) Get(w http.ResponseWriter, r *http.Request) {
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

	exp, err := h.svc.Get(ctx, userID, experimentID)
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}

	WriteData(w, http.StatusOK, exp)
}

// Update handles PATCH /api/v1/experiments/{experimentId}
func (h *ExperimentHandler) Update(w http.ResponseWriter, r *http.Request) {
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

	var req model.UpdateExperimentRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteError(w, model.NewBadRequestError("invalid request body"))
		return
	}
	if fieldErrs := req.Validate(); len(fieldErrs) > 0 {
		WriteError(w, model.NewValidationError(fieldErrs))
		return
	}

	exp, err := h.svc.Update(ctx, userID, experimentID, &req)
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}

	WriteData(w, http.StatusOK, exp)
}

// Archive handles DELETE /api/v1/experiments/{experimentId}. Experiments
// are archived rather than destroyed; their run history stays queryable.
func (h *ExperimentHandler) Archive(w http.ResponseWriter, r *http.Request) {
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

	if err := h.svc.Archive(ctx, userID, experimentID); err != nil {
		WriteError(w, MapServiceError(err))
		return
	}

	WriteNoContent(w)
}
