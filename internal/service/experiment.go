package service

import (
	"context"

	"github.com/evolution-ecosystem/bridge/internal/model"
)

// ExperimentRepository defines the persistence surface the experiment
// service needs.
type ExperimentRepository interface {
	Create(ctx context.Context, exp *model.Experiment) error
	GetByID(ctx context.Context, id string) (*model.Experiment, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*model.Experiment, error)
	Update(ctx context.Context, exp *model.Experiment) error
	SetStatus(ctx context.Context, id string, status model.ExperimentStatus) error
}

// ActiveRunCounter reports how many non-terminal runs an experiment has.
type ActiveRunCounter interface {
	CountActiveByExperiment(ctx context.Context, experimentID string) (int, error)
}

// ExperimentService implements experiment business logic: ownership
// enforcement and lifecycle rules on top of the repository.
type ExperimentService struct {
	repo ExperimentRepository
	runs ActiveRunCounter
}

// ExperimentServiceConfig holds experiment service dependencies.
type ExperimentServiceConfig struct {
	ExperimentRepo ExperimentRepository
	RunCounter     ActiveRunCounter
}

// NewExperimentService creates a new experiment service.
func NewExperimentService(cfg ExperimentServiceConfig) *ExperimentService {
	return &ExperimentService{repo: cfg.ExperimentRepo, runs: cfg.RunCounter}
}

// Create stores a new experiment for the given owner.
func (s *ExperimentService) Create(ctx context.Context, ownerID string, req *model.CreateExperimentRequest) (*model.Experiment, error) {
	exp := &model.Experiment{
		OwnerID:     ownerID,
		Name:        req.Name,
		Description: req.Description,
		Objective:   req.Objective,
		Parameters:  req.Parameters,
	}
	if err := s.repo.Create(ctx, exp); err != nil {
		return nil, err
	}
	return exp, nil
}

// Get returns an experiment owned by ownerID. A foreign experiment reads
// as not found so the API does not leak which ids exist.
func (s *ExperimentService) Get(ctx context.Context, ownerID, id string) (*model.Experiment, error) {
	exp, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if exp == nil || exp.OwnerID != ownerID {
		return nil, ErrExperimentNotFound
	}
	return exp, nil
}

// List returns all experiments owned by ownerID.
func (s *ExperimentService) List(ctx context.Context, ownerID string) ([]*model.Experiment, error) {
	return s.repo.ListByOwner(ctx, ownerID)
}

// Update applies a partial update to an owned, active experiment.
func (s *ExperimentService) Update(ctx context.Context, ownerID, id string, req *model.UpdateExperimentRequest) (*model.Experiment, error) {
	exp, err := s.Get(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if exp.Status == model.ExperimentArchived {
		return nil, ErrExperimentArchived
	}

	if req.Name != nil {
		exp.Name = *req.Name
	}
	if req.Description != nil {
		exp.Description = *req.Description
	}
	if req.Objective != nil {
		exp.Objective = *req.Objective
	}
	if req.Parameters != nil {
		exp.Parameters = *req.Parameters
	}

	if err := s.repo.Update(ctx, exp); err != nil {
		return nil, err
	}
	return exp, nil
}

// Archive retires an experiment. Refused while a run is pending or
// running, and when the experiment is already archived.
func (s *ExperimentService) Archive(ctx context.Context, ownerID, id string) error {
	exp, err := s.Get(ctx, ownerID, id)
	if err != nil {
		return err
	}
	if exp.Status == model.ExperimentArchived {
		return ErrExperimentArchived
	}

	active, err := s.runs.CountActiveByExperiment(ctx, exp.ID)
	if err != nil {
		return err
	}
	if active > 0 {
		return ErrExperimentHasActiveRun
	}

	return s.repo.SetStatus(ctx, exp.ID, model.ExperimentArchived)
}
