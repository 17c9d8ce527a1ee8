package service

import "errors"

// Centralized service layer errors. Handlers translate these into problem
// details through a single mapper, so every endpoint reports the same
// condition the same way.

// ===== Experiment errors =====
var (
	ErrExperimentNotFound     = errors.New("experiment not found")
	ErrExperimentArchived     = errors.New("experiment is archived")
	ErrExperimentHasActiveRun = errors.New("experiment has an active run")
)

// ===== Run errors =====
var (
	ErrRunNotFound      = errors.New("run not found")
	ErrRunFinished      = errors.New("run already finished")
	ErrRunAlreadyActive = errors.New("experiment already has an active run")
	ErrStaleReport      = errors.New("progress report conflicts with run state")
	ErrUnknownJobStatus = errors.New("unrecognized engine job status")
)

// ===== API key errors =====
var (
	ErrInvalidAPIKey       = errors.New("invalid API key")
	ErrAPIKeyNotConfigured = errors.New("API key not configured")
)
