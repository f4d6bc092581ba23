package domain

import "errors"

var (
	// ErrJobAlreadyActive is returned when starting a job while a checkpoint
	// for another job still exists
	ErrJobAlreadyActive = errors.New("a batch job is already active")

	// ErrCheckpointNotFound is returned when no job checkpoint exists
	ErrCheckpointNotFound = errors.New("job checkpoint not found")

	// ErrNoStagedRows is returned when starting a job with an empty row table
	ErrNoStagedRows = errors.New("no staged rows")

	// ErrEmployeeNotFound is returned when a business identifier resolves to
	// no record, locally or remotely
	ErrEmployeeNotFound = errors.New("employee not found")
)
