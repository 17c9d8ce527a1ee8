package model

import "time"

// Objective is the optimization direction of an experiment.
type Objective string

const (
	ObjectiveMaximize Objective = "maximize"
	ObjectiveMinimize Objective = "minimize"
)

// IsValid returns true for a recognized objective.
func (o Objective) IsValid() bool {
	return o == ObjectiveMaximize || o == ObjectiveMinimize
}

// ExperimentStatus is the lifecycle state of an experiment.
type ExperimentStatus string

const (
	ExperimentActive   ExperimentStatus = "active"
	ExperimentArchived ExperimentStatus = "archived"
)

// Parameters configure the evolutionary search the engine performs for an
// experiment.
type Parameters struct {
	PopulationSize int     `json:"population_size"`
	MaxGenerations int     `json:"max_generations"`
	MutationRate   float64 `json:"mutation_rate"`
	CrossoverRate  float64 `json:"crossover_rate"`
	Elitism        int     `json:"elitism"`
}

// Experiment is a named optimization problem owned by a dashboard user.
type Experiment struct {
	ID          string           `json:"id"`
	OwnerID     string           `json:"owner_id"`
	Name        string           `json:"name"`
	Description string           `json:"description,omitempty"`
	Objective   Objective        `json:"objective"`
	Parameters  Parameters       `json:"parameters"`
	Status      ExperimentStatus `json:"status"`
	CreatedOn   time.Time        `json:"created_on"`
	UpdatedOn   time.Time        `json:"updated_on"`
}

// Validation limits for experiments.
const (
	MaxNameLength        = 100
	MaxDescriptionLength = 2000
	MinPopulationSize    = 2
	MaxPopulationSize    = 10000
	MaxGenerationsLimit  = 100000
)

// CreateExperimentRequest is the payload for POST /api/v1/experiments.
type CreateExperimentRequest struct {
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Objective   Objective  `json:"objective"`
	Parameters  Parameters `json:"parameters"`
}

// Validate reports all field-level problems with the request.
func (r *CreateExperimentRequest) Validate() []FieldError {
	var errs []FieldError

	if r.Name == "" {
		errs = append(errs, FieldError{Field: "name", Message: "name is required"})
	}
	if len(r.Name) > MaxNameLength {
		errs = append(errs, FieldError{Field: "name", Message: "name exceeds maximum length"})
	}
	if len(r.Description) > MaxDescriptionLength {
		errs = append(errs, FieldError{Field: "description", Message: "description exceeds maximum length"})
	}
	if !r.Objective.IsValid() {
		errs = append(errs, FieldError{Field: "objective", Message: "objective must be maximize or minimize"})
	}
	errs = append(errs, r.Parameters.validate()...)

	return errs
}

// UpdateExperimentRequest is the payload for PATCH
// /api/v1/experiments/{experimentId}. Nil fields are left unchanged.
type UpdateExperimentRequest struct {
	Name        *string     `json:"name,omitempty"`
	Description *string     `json:"description,omitempty"`
	Objective   *Objective  `json:"objective,omitempty"`
	Parameters  *Parameters `json:"parameters,omitempty"`
}

// Validate reports all field-level problems with the request.
func (r *UpdateExperimentRequest) Validate() []FieldError {
	var errs []FieldError

	if r.Name != nil {
		if *r.Name == "" {
			errs = append(errs, FieldError{Field: "name", Message: "name cannot be empty"})
		}
		if len(*r.Name) > MaxNameLength {
			errs = append(errs, FieldError{Field: "name", Message: "name exceeds maximum length"})
		}
	}
	if r.Description != nil && len(*r.Description) > MaxDescriptionLength {
		errs = append(errs, FieldError{Field: "description", Message: "description exceeds maximum length"})
	}
	if r.Objective != nil && !r.Objective.IsValid() {
		errs = append(errs, FieldError{Field: "objective", Message: "objective must be maximize or minimize"})
	}
	if r.Parameters != nil {
		errs = append(errs, r.Parameters.validate()...)
	}

	return errs
}

func (p *Parameters) validate() []FieldError {
	var errs []FieldError

	if p.PopulationSize < MinPopulationSize || p.PopulationSize > MaxPopulationSize {
		errs = append(errs, FieldError{
			Field:   "parameters.population_size",
			Message: "population_size must be between 2 and 10000",
		})
	}
	if p.MaxGenerations < 1 || p.MaxGenerations > MaxGenerationsLimit {
		errs = append(errs, FieldError{
			Field:   "parameters.max_generations",
			Message: "max_generations must be between 1 and 100000",
		})
	}
	if p.MutationRate < 0 || p.MutationRate > 1 {
		errs = append(errs, FieldError{Field: "parameters.mutation_rate", Message: "mutation_rate must be in [0, 1]"})
	}
	if p.CrossoverRate < 0 || p.CrossoverRate > 1 {
		errs = append(errs, FieldError{Field: "parameters.crossover_rate", Message: "crossover_rate must be in [0, 1]"})
	}
	if p.Elitism < 0 || p.Elitism > p.PopulationSize {
		errs = append(errs, FieldError{Field: "parameters.elitism", Message: "elitism must be between 0 and population_size"})
	}

	return errs
}
