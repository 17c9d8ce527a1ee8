package repository

import (
	"context"
	"errors"

	"github.com/evolution-ecosystem/bridge/internal/database"
	"github.com/evolution-ecosystem/bridge/internal/model"
)

// RunRepository handles optimization run persistence.
type RunRepository struct {
	db database.Database
}

// NewRunRepository creates a new run repository.
func NewRunRepository(db database.Database) *RunRepository {
	return &RunRepository{db: db}
}

// Create persists a new run and fills in its generated id and submission
// timestamp.
func (r *RunRepository) Create(ctx context.Context, run *model.Run) error {
	query := `
		CREATE run CONTENT {
			experiment_id: $experiment_id,
			owner_id: $owner_id,
			engine_job_id: $engine_job_id,
			status: $status,
			generation: 0,
			submitted_on: time::now()
		}
	`
	vars := map[string]interface{}{
		"experiment_id": run.ExperimentID,
		"owner_id":      run.OwnerID,
		"engine_job_id": run.EngineJobID,
		"status":        string(model.RunPending),
	}

	result, err := r.db.QueryOne(ctx, query, vars)
	if err != nil {
		return err
	}

	created, ok := result.(map[string]interface{})
	if !ok {
		return database.ErrQuery
	}
	run.ID = extractRecordID(created["id"])
	run.Status = model.RunPending
	run.Generation = 0
	run.SubmittedOn = getTime(created, "submitted_on")
	return nil
}

// GetByID retrieves a run, or nil when it does not exist.
func (r *RunRepository) GetByID(ctx context.Context, id string) (*model.Run, error) {
	query := `SELECT * FROM type::record($id)`
	result, err := r.db.QueryOne(ctx, query, map[string]interface{}{"id": id})
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return parseRun(result)
}

// GetByEngineJobID retrieves the run tracking a given engine job, or nil.
func (r *RunRepository) GetByEngineJobID(ctx context.Context, jobID string) (*model.Run, error) {
	query := `SELECT * FROM run WHERE engine_job_id = $job_id LIMIT 1`
	result, err := r.db.QueryOne(ctx, query, map[string]interface{}{"job_id": jobID})
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return parseRun(result)
}

// ListByExperiment retrieves all runs of an experiment, newest first.
func (r *RunRepository) ListByExperiment(ctx context.Context, experimentID string) ([]*model.Run, error) {
	query := `SELECT * FROM run WHERE experiment_id = $experiment_id ORDER BY submitted_on DESC`
	results, err := r.db.Query(ctx, query, map[string]interface{}{"experiment_id": experimentID})
	if err != nil {
		return nil, err
	}
	return parseRunList(results)
}

// ListActive retrieves every run not yet in a terminal state.
func (r *RunRepository) ListActive(ctx context.Context) ([]*model.Run, error) {
	query := `SELECT * FROM run WHERE status IN ['pending', 'running'] ORDER BY submitted_on ASC`
	results, err := r.db.Query(ctx, query, nil)
	if err != nil {
		return nil, err
	}
	return parseRunList(results)
}

// ListRecent retrieves the most recent runs across all owners. Operator
// surface only.
func (r *RunRepository) ListRecent(ctx context.Context, limit int) ([]*model.Run, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	query := `SELECT * FROM run ORDER BY submitted_on DESC LIMIT $limit`
	results, err := r.db.Query(ctx, query, map[string]interface{}{"limit": limit})
	if err != nil {
		return nil, err
	}
	return parseRunList(results)
}

// CountActiveByExperiment counts pending or running runs of an experiment.
func (r *RunRepository) CountActiveByExperiment(ctx context.Context, experimentID string) (int, error) {
	query := `SELECT count() FROM run WHERE experiment_id = $experiment_id AND status IN ['pending', 'running'] GROUP ALL`
	result, err := r.db.QueryOne(ctx, query, map[string]interface{}{"experiment_id": experimentID})
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return extractCount(result), nil
}

// ApplyProgress writes a run state change and, when metric is non-nil, the
// generation sample that accompanied it, atomically. The metric upsert is
// keyed on (run, generation) so engine re-reports simply replace the
// sample.
func (r *RunRepository) ApplyProgress(ctx context.Context, run *model.Run, metric *model.GenerationMetric) error {
	batch := database.NewBatch()

	batch.Add(`
		UPDATE type::record($id) MERGE {
			status: $status,
			generation: $generation,
			best_fitness: $best_fitness,
			reason: $reason,
			started_on: $started_on,
			finished_on: $finished_on
		}`,
		map[string]interface{}{
			"id":           run.ID,
			"status":       string(run.Status),
			"generation":   run.Generation,
			"best_fitness": run.BestFitness,
			"reason":       run.Reason,
			"started_on":   run.StartedOn,
			"finished_on":  run.FinishedOn,
		})

	if metric != nil {
		batch.Add(`
			UPSERT type::thing('generation_metric', crypto::md5($run_id + ':' + <string> $generation)) CONTENT {
				run_id: $run_id,
				generation: $generation,
				best_fitness: $best,
				mean_fitness: $mean,
				diversity: $diversity,
				recorded_on: time::now()
			}`,
			map[string]interface{}{
				"run_id":     metric.RunID,
				"generation": metric.Generation,
				"best":       metric.BestFitness,
				"mean":       metric.MeanFitness,
				"diversity":  metric.Diversity,
			})
	}

	return batch.Execute(ctx, r.db)
}

func parseRun(result interface{}) (*model.Run, error) {
	m, ok := result.(map[string]interface{})
	if !ok {
		return nil, database.ErrQuery
	}

	return &model.Run{
		ID:           extractRecordID(m["id"]),
		ExperimentID: getString(m, "experiment_id"),
		OwnerID:      getString(m, "owner_id"),
		EngineJobID:  getString(m, "engine_job_id"),
		Status:       model.RunStatus(getString(m, "status")),
		Generation:   getInt(m, "generation"),
		BestFitness:  getFloatPtr(m, "best_fitness"),
		Reason:       getString(m, "reason"),
		SubmittedOn:  getTime(m, "submitted_on"),
		StartedOn:    getTimePtr(m, "started_on"),
		FinishedOn:   getTimePtr(m, "finished_on"),
	}, nil
}

func parseRunList(results []interface{}) ([]*model.Run, error) {
	rows, ok := extractQueryResults(results)
	if !ok {
		return []*model.Run{}, nil
	}

	runs := make([]*model.Run, 0, len(rows))
	for _, row := range rows {
		run, err := parseRun(row)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, nil
}
