package scheduler

import "errors"

var (
	// ErrInvalidJob is returned when a job has no name, no run func or an unusable schedule
	ErrInvalidJob = errors.New("invalid scheduled job")

	// ErrDuplicateJob is returned when two jobs share a name
	ErrDuplicateJob = errors.New("duplicate scheduled job")
)
