package handler

import (
	"errors"

	"github.com/evolution-ecosystem/bridge/internal/engine"
	"github.com/evolution-ecosystem/bridge/internal/model"
	"github.com/evolution-ecosystem/bridge/internal/service"
)

// MapServiceError converts a service or engine error to a ProblemDetails
// response. Centralizing the mapping keeps status codes consistent across
// every endpoint.
func MapServiceError(err error) *model.ProblemDetails {
	if err == nil {
		return nil
	}

	switch {
	// ===== Authentication Errors → 401 =====
	case errors.Is(err, service.ErrInvalidAPIKey),
		errors.Is(err, service.ErrAPIKeyNotConfigured):
		return model.NewUnauthorizedError("invalid API key")

	// ===== Not Found Errors → 404 =====
	case errors.Is(err, service.ErrExperimentNotFound):
		return model.NewNotFoundError("experiment")
	case errors.Is(err, service.ErrRunNotFound):
		return model.NewNotFoundError("run")

	// ===== Conflict Errors → 409 =====
	case errors.Is(err, service.ErrExperimentArchived),
		errors.Is(err, service.ErrExperimentHasActiveRun),
		errors.Is(err, service.ErrRunAlreadyActive),
		errors.Is(err, service.ErrRunFinished),
		errors.Is(err, service.ErrStaleReport):
		return model.NewConflictError(err.Error())

	// ===== Engine Errors =====
	case errors.Is(err, engine.ErrUnavailable):
		return model.NewEngineError("optimization engine unavailable")
	case errors.Is(err, engine.ErrJobRejected):
		return model.NewValidationError([]model.FieldError{
			{Field: "parameters", Message: err.Error()},
		})
	case errors.Is(err, engine.ErrJobNotFound):
		return model.NewNotFoundError("engine job")
	case errors.Is(err, service.ErrUnknownJobStatus):
		return model.NewEngineError(err.Error())

	default:
		return model.NewInternalError("an unexpected error occurred")
	}
}
