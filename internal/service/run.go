package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/evolution-ecosystem/bridge/internal/engine"
	"github.com/evolution-ecosystem/bridge/internal/model"
)

// RunRepository defines the persistence surface the run service needs.
type RunRepository interface {
	Create(ctx context.Context, run *model.Run) error
	GetByID(ctx context.Context, id string) (*model.Run, error)
	GetByEngineJobID(ctx context.Context, jobID string) (*model.Run, error)
	ListByExperiment(ctx context.Context, experimentID string) ([]*model.Run, error)
	ListActive(ctx context.Context) ([]*model.Run, error)
	ListRecent(ctx context.Context, limit int) ([]*model.Run, error)
	CountActiveByExperiment(ctx context.Context, experimentID string) (int, error)
	ApplyProgress(ctx context.Context, run *model.Run, metric *model.GenerationMetric) error
}

// MetricRepository defines the metric store surface the run service needs.
type MetricRepository interface {
	ListByRun(ctx context.Context, runID string) ([]*model.GenerationMetric, error)
	PruneArchived(ctx context.Context, cutoff time.Time) (int, error)
}

// EngineClient defines the calls the run service makes against the
// optimization engine.
type EngineClient interface {
	Submit(ctx context.Context, spec engine.JobSpec) (*engine.JobAck, error)
	Status(ctx context.Context, jobID string) (*engine.JobStatus, error)
	Cancel(ctx context.Context, jobID string) error
}

// RunService orchestrates optimization runs: submission to the engine,
// progress ingestion, cancellation, and reconciliation.
type RunService struct {
	runRepo        RunRepository
	metricRepo     MetricRepository
	experimentRepo ExperimentRepository
	engine         EngineClient
}

// RunServiceConfig holds run service dependencies.
type RunServiceConfig struct {
	RunRepo        RunRepository
	MetricRepo     MetricRepository
	ExperimentRepo ExperimentRepository
	Engine         EngineClient
}

// NewRunService creates a new run service.
func NewRunService(cfg RunServiceConfig) *RunService {
	return &RunService{
		runRepo:        cfg.RunRepo,
		metricRepo:     cfg.MetricRepo,
		experimentRepo: cfg.ExperimentRepo,
		engine:         cfg.Engine,
	}
}

// Start submits an experiment to the engine and records the resulting run.
// One active run per experiment: a second submission while one is pending
// or running is refused.
func (s *RunService) Start(ctx context.Context, ownerID, experimentID string) (*model.Run, error) {
	exp, err := s.experimentRepo.GetByID(ctx, experimentID)
	if err != nil {
		return nil, err
	}
	if exp == nil || exp.OwnerID != ownerID {
		return nil, ErrExperimentNotFound
	}
	if exp.Status == model.ExperimentArchived {
		return nil, ErrExperimentArchived
	}

	active, err := s.runRepo.CountActiveByExperiment(ctx, exp.ID)
	if err != nil {
		return nil, err
	}
	if active > 0 {
		return nil, ErrRunAlreadyActive
	}

	ack, err := s.engine.Submit(ctx, engine.JobSpec{
		Objective:   exp.Objective,
		Parameters:  exp.Parameters,
		CallbackRef: exp.ID,
	})
	if err != nil {
		return nil, err
	}

	run := &model.Run{
		ExperimentID: exp.ID,
		OwnerID:      ownerID,
		EngineJobID:  ack.JobID,
	}
	if err := s.runRepo.Create(ctx, run); err != nil {
		// The engine job is now orphaned; stop it so it does not burn
		// compute against a run the bridge cannot track.
		_ = s.engine.Cancel(ctx, ack.JobID)
		return nil, err
	}

	return run, nil
}

// Get returns a run owned by ownerID. Foreign runs read as not found.
func (s *RunService) Get(ctx context.Context, ownerID, runID string) (*model.Run, error) {
	run, err := s.runRepo.GetByID(ctx, runID)
	if err != nil {
		return nil, err
	}
	if run == nil || run.OwnerID != ownerID {
		return nil, ErrRunNotFound
	}
	return run, nil
}

// ListByExperiment returns all runs of an owned experiment.
func (s *RunService) ListByExperiment(ctx context.Context, ownerID, experimentID string) ([]*model.Run, error) {
	exp, err := s.experimentRepo.GetByID(ctx, experimentID)
	if err != nil {
		return nil, err
	}
	if exp == nil || exp.OwnerID != ownerID {
		return nil, ErrExperimentNotFound
	}
	return s.runRepo.ListByExperiment(ctx, exp.ID)
}

// ListRecent returns the newest runs across all owners. Operator surface.
func (s *RunService) ListRecent(ctx context.Context, limit int) ([]*model.Run, error) {
	return s.runRepo.ListRecent(ctx, limit)
}

// Metrics returns the generation series of an owned run.
func (s *RunService) Metrics(ctx context.Context, ownerID, runID string) ([]*model.GenerationMetric, error) {
	run, err := s.Get(ctx, ownerID, runID)
	if err != nil {
		return nil, err
	}
	return s.metricRepo.ListByRun(ctx, run.ID)
}

// Cancel stops an owned run. The engine is told first; a job the engine
// no longer knows is treated as already stopped.
func (s *RunService) Cancel(ctx context.Context, ownerID, runID string) (*model.Run, error) {
	run, err := s.Get(ctx, ownerID, runID)
	if err != nil {
		return nil, err
	}
	if run.Status.IsTerminal() {
		return nil, ErrRunFinished
	}

	if err := s.engine.Cancel(ctx, run.EngineJobID); err != nil && !errors.Is(err, engine.ErrJobNotFound) {
		return nil, err
	}

	now := time.Now()
	run.Status = model.RunCancelled
	run.FinishedOn = &now
	if err := s.runRepo.ApplyProgress(ctx, run, nil); err != nil {
		return nil, err
	}
	return run, nil
}

// RecordProgress ingests a progress report, updating the run and storing
// the generation sample it carries. Reports that repeat the current status
// refresh generation and fitness while the run is live; once terminal the
// run is frozen, duplicate terminal reports are acknowledged unchanged and
// reports that would move it backwards are rejected as stale.
func (s *RunService) RecordProgress(ctx context.Context, report *model.ProgressReport) (*model.Run, error) {
	run, err := s.runRepo.GetByEngineJobID(ctx, report.EngineJobID)
	if err != nil {
		return nil, err
	}
	if run == nil {
		return nil, ErrRunNotFound
	}

	if report.Status != run.Status && !run.Status.CanTransitionTo(report.Status) {
		return nil, ErrStaleReport
	}
	// Terminal runs are frozen; a duplicate terminal report is acknowledged
	// without rewriting anything.
	if run.Status.IsTerminal() {
		return run, nil
	}

	now := time.Now()
	if run.Status == model.RunPending && report.Status != model.RunPending && run.StartedOn == nil {
		run.StartedOn = &now
	}
	run.Status = report.Status
	if report.Generation > run.Generation {
		run.Generation = report.Generation
	}
	if report.BestFitness != nil {
		run.BestFitness = report.BestFitness
	}
	if report.Reason != "" {
		run.Reason = report.Reason
	}
	if report.Status.IsTerminal() && run.FinishedOn == nil {
		run.FinishedOn = &now
	}

	var metric *model.GenerationMetric
	if report.BestFitness != nil || report.MeanFitness != nil {
		metric = &model.GenerationMetric{
			RunID:       run.ID,
			Generation:  report.Generation,
			BestFitness: floatValue(report.BestFitness),
			MeanFitness: floatValue(report.MeanFitness),
			Diversity:   floatValue(report.Diversity),
		}
	}

	if err := s.runRepo.ApplyProgress(ctx, run, metric); err != nil {
		return nil, err
	}
	return run, nil
}

// SyncActive reconciles every non-terminal run against the engine's view.
// Covers progress callbacks lost to network trouble or bridge downtime.
// Individual run failures are logged and skipped so one bad job does not
// stall the rest.
func (s *RunService) SyncActive(ctx context.Context) error {
	runs, err := s.runRepo.ListActive(ctx)
	if err != nil {
		return err
	}

	for _, run := range runs {
		if err := s.syncRun(ctx, run); err != nil {
			slog.Warn("run sync failed",
				slog.String("run_id", run.ID),
				slog.String("engine_job_id", run.EngineJobID),
				slog.String("error", err.Error()),
			)
		}
	}
	return nil
}

func (s *RunService) syncRun(ctx context.Context, run *model.Run) error {
	status, err := s.engine.Status(ctx, run.EngineJobID)
	if errors.Is(err, engine.ErrJobNotFound) {
		// The engine lost the job; nothing will ever report again.
		report := &model.ProgressReport{
			EngineJobID: run.EngineJobID,
			Status:      model.RunFailed,
			Generation:  run.Generation,
			Reason:      "engine no longer tracks this job",
		}
		_, err := s.RecordProgress(ctx, report)
		return err
	}
	if err != nil {
		return err
	}

	mapped, err := mapEngineStatus(status.Status)
	if err != nil {
		return err
	}
	if mapped == model.RunPending {
		// Still queued engine-side; nothing to record.
		return nil
	}

	report := &model.ProgressReport{
		EngineJobID: run.EngineJobID,
		Status:      mapped,
		Generation:  status.Generation,
		BestFitness: status.BestFitness,
		MeanFitness: status.MeanFitness,
		Diversity:   status.Diversity,
		Reason:      status.Reason,
	}
	_, err = s.RecordProgress(ctx, report)
	if errors.Is(err, ErrStaleReport) {
		// A callback beat the poll; the stored state is newer.
		return nil
	}
	return err
}

// PruneMetrics deletes generation metrics of archived experiments older
// than the retention window. Returns the number of records removed.
func (s *RunService) PruneMetrics(ctx context.Context, retention time.Duration) (int, error) {
	return s.metricRepo.PruneArchived(ctx, time.Now().Add(-retention))
}

// mapEngineStatus translates the engine's job status vocabulary into run
// statuses.
func mapEngineStatus(status string) (model.RunStatus, error) {
	switch status {
	case "queued", "pending":
		return model.RunPending, nil
	case "running":
		return model.RunRunning, nil
	case "completed":
		return model.RunCompleted, nil
	case "failed":
		return model.RunFailed, nil
	case "cancelled":
		return model.RunCancelled, nil
	default:
		return "", ErrUnknownJobStatus
	}
}

func floatValue(f *float64) float64 {
	if f == nil {
		return 0
	}
	return *f
}
