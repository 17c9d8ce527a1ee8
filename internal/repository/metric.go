package repository

import (
	"context"
	"errors"
	"time"

	"github.com/evolution-ecosystem/bridge/internal/database"
	"github.com/evolution-ecosystem/bridge/internal/model"
)

// MetricRepository handles generation metric persistence.
type MetricRepository struct {
	db database.Database
}

// NewMetricRepository creates a new metric repository.
func NewMetricRepository(db database.Database) *MetricRepository {
	return &MetricRepository{db: db}
}

// ListByRun retrieves the full generation series of a run in generation
// order.
func (r *MetricRepository) ListByRun(ctx context.Context, runID string) ([]*model.GenerationMetric, error) {
	query := `SELECT * FROM generation_metric WHERE run_id = $run_id ORDER BY generation ASC`
	results, err := r.db.Query(ctx, query, map[string]interface{}{"run_id": runID})
	if err != nil {
		return nil, err
	}

	rows, ok := extractQueryResults(results)
	if !ok {
		return []*model.GenerationMetric{}, nil
	}

	metrics := make([]*model.GenerationMetric, 0, len(rows))
	for _, row := range rows {
		m, ok := row.(map[string]interface{})
		if !ok {
			return nil, database.ErrQuery
		}
		metrics = append(metrics, &model.GenerationMetric{
			ID:          extractRecordID(m["id"]),
			RunID:       getString(m, "run_id"),
			Generation:  getInt(m, "generation"),
			BestFitness: getFloat(m, "best_fitness"),
			MeanFitness: getFloat(m, "mean_fitness"),
			Diversity:   getFloat(m, "diversity"),
			RecordedOn:  getTime(m, "recorded_on"),
		})
	}
	return metrics, nil
}

// PruneArchived deletes metrics recorded before the cutoff whose runs
// belong to archived experiments. Returns the number of records removed.
func (r *MetricRepository) PruneArchived(ctx context.Context, cutoff time.Time) (int, error) {
	selector := `
		run_id IN (
			SELECT VALUE id FROM run WHERE experiment_id IN (
				SELECT VALUE id FROM experiment WHERE status = 'archived'
			)
		) AND recorded_on < $cutoff
	`
	vars := map[string]interface{}{"cutoff": cutoff}

	countQuery := `SELECT count() FROM generation_metric WHERE ` + selector + ` GROUP ALL`
	result, err := r.db.QueryOne(ctx, countQuery, vars)
	count := 0
	if err != nil {
		if !errors.Is(err, database.ErrNotFound) {
			return 0, err
		}
	} else {
		count = extractCount(result)
	}
	if count == 0 {
		return 0, nil
	}

	deleteQuery := `DELETE generation_metric WHERE ` + selector
	if err := r.db.Execute(ctx, deleteQuery, vars); err != nil {
		return 0, err
	}
	return count, nil
}
