package model

import "time"

// RunStatus is the lifecycle state of an optimization run.
type RunStatus string

const (
	RunPending   RunStatus = "pending"
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
	RunCancelled RunStatus = "cancelled"
)

// IsValid returns true for a recognized run status.
func (s RunStatus) IsValid() bool {
	switch s {
	case RunPending, RunRunning, RunCompleted, RunFailed, RunCancelled:
		return true
	default:
		return false
	}
}

// IsTerminal returns true once a run can no longer change state.
func (s RunStatus) IsTerminal() bool {
	switch s {
	case RunCompleted, RunFailed, RunCancelled:
		return true
	default:
		return false
	}
}

// CanTransitionTo reports whether the state machine permits moving from s
// to next. Terminal states are frozen; pending may not jump straight to
// completed (the engine always reports running first).
func (s RunStatus) CanTransitionTo(next RunStatus) bool {
	if s.IsTerminal() {
		return false
	}
	switch s {
	case RunPending:
		return next == RunRunning || next == RunFailed || next == RunCancelled
	case RunRunning:
		return next == RunCompleted || next == RunFailed || next == RunCancelled
	default:
		return false
	}
}

// Run is a single submission of an experiment to the optimization engine.
type Run struct {
	ID           string     `json:"id"`
	ExperimentID string     `json:"experiment_id"`
	OwnerID      string     `json:"owner_id"`
	EngineJobID  string     `json:"engine_job_id,omitempty"`
	Status       RunStatus  `json:"status"`
	Generation   int        `json:"generation"`
	BestFitness  *float64   `json:"best_fitness,omitempty"`
	Reason       string     `json:"reason,omitempty"`
	SubmittedOn  time.Time  `json:"submitted_on"`
	StartedOn    *time.Time `json:"started_on,omitempty"`
	FinishedOn   *time.Time `json:"finished_on,omitempty"`
}

// ProgressReport is what the engine posts to /api/v1/engine/callback and
// what the poller translates engine status into.
type ProgressReport struct {
	EngineJobID string    `json:"job_id"`
	Status      RunStatus `json:"status"`
	Generation  int       `json:"generation"`
	BestFitness *float64  `json:"best_fitness,omitempty"`
	MeanFitness *float64  `json:"mean_fitness,omitempty"`
	Diversity   *float64  `json:"diversity,omitempty"`
	Reason      string    `json:"reason,omitempty"`
}

// Validate reports all field-level problems with the report.
func (r *ProgressReport) Validate() []FieldError {
	var errs []FieldError

	if r.EngineJobID == "" {
		errs = append(errs, FieldError{Field: "job_id", Message: "job_id is required"})
	}
	if !r.Status.IsValid() {
		errs = append(errs, FieldError{Field: "status", Message: "unrecognized status"})
	}
	if r.Status == RunPending {
		errs = append(errs, FieldError{Field: "status", Message: "engine cannot report pending"})
	}
	if r.Generation < 0 {
		errs = append(errs, FieldError{Field: "generation", Message: "generation cannot be negative"})
	}

	return errs
}
