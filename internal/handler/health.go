package handler

import (
	"context"
	"net/http"
	"time"
)

// Pinger checks document store connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// BreakerStater reports the engine circuit breaker state.
type BreakerStater interface {
	BreakerState() string
}

// HealthHandler reports bridge liveness and dependency status.
type HealthHandler struct {
	db      Pinger
	engine  BreakerStater
	version string
}

// NewHealthHandler creates a health handler.
func NewHealthHandler(db Pinger, eng BreakerStater, version string) *HealthHandler {
	return &HealthHandler{db: db, engine: eng, version: version}
}

type healthResponse struct {
	Status   string `json:"status"`
	Version  string `json:"version,omitempty"`
	Database string `json:"database"`
	Engine   string `json:"engine"`
}

// Health handles GET /api/health. The database being down degrades the
// response to 503; an open engine breaker is reported but does not fail
// the check, since reads still work without the engine.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	resp := healthResponse{
		Status:   "ok",
		Version:  h.version,
		Database: "ok",
		Engine:   "closed",
	}
	status := http.StatusOK

	if err := h.db.Ping(ctx); err != nil {
		resp.Status = "degraded"
		resp.Database = "unreachable"
		status = http.StatusServiceUnavailable
	}

	if h.engine != nil {
		resp.Engine = h.engine.BreakerState()
		if resp.Engine != "closed" {
			resp.Status = "degraded"
		}
	}

	WriteJSON(w, status, resp)
}
