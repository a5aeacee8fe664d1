package shared

import (
	"context"
	"time"
)

// RunLock provides mutual exclusion for a named job across processes
type RunLock interface {
	// TryAcquire takes the lock for name until ttl elapses.
	// Returns a release func and true when acquired, or false when another holder owns it.
	TryAcquire(ctx context.Context, name string, ttl time.Duration) (release func(context.Context) error, acquired bool, err error)
}

// ErrRunInProgress is returned when a guarded job is already running elsewhere
var ErrRunInProgress = NewDomainError(KindConflict, "RUN_IN_PROGRESS", "Another instance of this job is already running")
