package repository

import (
	"context"
	"errors"

	"github.com/evolution-ecosystem/bridge/internal/database"
	"github.com/evolution-ecosystem/bridge/internal/model"
)

// ExperimentRepository handles experiment persistence.
type ExperimentRepository struct {
	db database.Database
}

// NewExperimentRepository creates a new experiment repository.
func NewExperimentRepository(db database.Database) *ExperimentRepository {
	return &ExperimentRepository{db: db}
}

// Create persists a new experiment and fills in its generated id and
// timestamps.
func (r *ExperimentRepository) Create(ctx context.Context, exp *model.Experiment) error {
	query := `
		CREATE experiment CONTENT {
			owner_id: $owner_id,
			name: $name,
			description: $description,
			objective: $objective,
			parameters: $parameters,
			status: $status,
			created_on: time::now(),
			updated_on: time::now()
		}
	`
	vars := map[string]interface{}{
		"owner_id":    exp.OwnerID,
		"name":        exp.Name,
		"description": exp.Description,
		"objective":   string(exp.Objective),
		"parameters":  parametersDoc(exp.Parameters),
		"status":      string(model.ExperimentActive),
	}

	result, err := r.db.QueryOne(ctx, query, vars)
	if err != nil {
		return err
	}

	created, ok := result.(map[string]interface{})
	if !ok {
		return database.ErrQuery
	}
	exp.ID = extractRecordID(created["id"])
	exp.Status = model.ExperimentActive
	exp.CreatedOn = getTime(created, "created_on")
	exp.UpdatedOn = getTime(created, "updated_on")
	return nil
}

// GetByID retrieves an experiment, or nil when it does not exist.
func (r *ExperimentRepository) GetByID(ctx context.Context, id string) (*model.Experiment, error) {
	query := `SELECT * FROM type::record($id)`
	result, err := r.db.QueryOne(ctx, query, map[string]interface{}{"id": id})
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return parseExperiment(result)
}

// ListByOwner retrieves all experiments owned by a user, newest first.
func (r *ExperimentRepository) ListByOwner(ctx context.Context, ownerID string) ([]*model.Experiment, error) {
	query := `SELECT * FROM experiment WHERE owner_id = $owner_id ORDER BY created_on DESC`
	results, err := r.db.Query(ctx, query, map[string]interface{}{"owner_id": ownerID})
	if err != nil {
		return nil, err
	}
	return parseExperimentList(results)
}

// Update applies the mutable fields of exp to its stored record.
func (r *ExperimentRepository) Update(ctx context.Context, exp *model.Experiment) error {
	query := `
		UPDATE type::record($id) MERGE {
			name: $name,
			description: $description,
			objective: $objective,
			parameters: $parameters,
			updated_on: time::now()
		}
	`
	return r.db.Execute(ctx, query, map[string]interface{}{
		"id":          exp.ID,
		"name":        exp.Name,
		"description": exp.Description,
		"objective":   string(exp.Objective),
		"parameters":  parametersDoc(exp.Parameters),
	})
}

// SetStatus moves an experiment between active and archived.
func (r *ExperimentRepository) SetStatus(ctx context.Context, id string, status model.ExperimentStatus) error {
	query := `UPDATE type::record($id) MERGE { status: $status, updated_on: time::now() }`
	return r.db.Execute(ctx, query, map[string]interface{}{
		"id":     id,
		"status": string(status),
	})
}

func parametersDoc(p model.Parameters) map[string]interface{} {
	return map[string]interface{}{
		"population_size": p.PopulationSize,
		"max_generations": p.MaxGenerations,
		"mutation_rate":   p.MutationRate,
		"crossover_rate":  p.CrossoverRate,
		"elitism":         p.Elitism,
	}
}

func parseExperiment(result interface{}) (*model.Experiment, error) {
	m, ok := result.(map[string]interface{})
	if !ok {
		return nil, database.ErrQuery
	}

	exp := &model.Experiment{
		ID:          extractRecordID(m["id"]),
		OwnerID:     getString(m, "owner_id"),
		Name:        getString(m, "name"),
		Description: getString(m, "description"),
		Objective:   model.Objective(getString(m, "objective")),
		Status:      model.ExperimentStatus(getString(m, "status")),
		CreatedOn:   getTime(m, "created_on"),
		UpdatedOn:   getTime(m, "updated_on"),
	}

	if params, ok := m["parameters"].(map[string]interface{}); ok {
		exp.Parameters = model.Parameters{
			PopulationSize: getInt(params, "population_size"),
			MaxGenerations: getInt(params, "max_generations"),
			MutationRate:   getFloat(params, "mutation_rate"),
			CrossoverRate:  getFloat(params, "crossover_rate"),
			Elitism:        getInt(params, "elitism"),
		}
	}

	return exp, nil
}

func parseExperimentList(results []interface{}) ([]*model.Experiment, error) {
	rows, ok := extractQueryResults(results)
	if !ok {
		return []*model.Experiment{}, nil
	}

	experiments := make([]*model.Experiment, 0, len(rows))
	for _, row := range rows {
		exp, err := parseExperiment(row)
		if err != nil {
			return nil, err
		}
		experiments = append(experiments, exp)
	}
	return experiments, nil
}
