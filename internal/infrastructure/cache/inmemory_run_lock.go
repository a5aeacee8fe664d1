package cache

import (
	"context"
	"sync"
	"time"

	"github.com/sitemanager/backend/internal/domain/shared"
)

type heldLock struct {
	token     uint64
	expiresAt time.Time
}

// InMemoryRunLock implements RunLock inside one process. It only prevents
// overlap between goroutines of the same binary.
type InMemoryRunLock struct {
	mu    sync.Mutex
	held  map[string]heldLock
	seq   uint64
	clock func() time.Time
}

// NewInMemoryRunLock creates an empty lock table
func NewInMemoryRunLock() *InMemoryRunLock {
	return &InMemoryRunLock{
		held:  make(map[string]heldLock),
		clock: time.Now,
	}
}

// TryAcquire implements shared.RunLock. Expired holders are taken over.
func (l *InMemoryRunLock) TryAcquire(_ context.Context, name string, ttl time.Duration) (func(context.Context) error, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock()
	if h, ok := l.held[name]; ok && now.Before(h.expiresAt) {
		return nil, false, nil
	}

	l.seq++
	token := l.seq
	l.held[name] = heldLock{token: token, expiresAt: now.Add(ttl)}

	release := func(context.Context) error {
		l.mu.Lock()
		defer l.mu.Unlock()
		if h, ok := l.held[name]; ok && h.token == token {
			delete(l.held, name)
		}
		return nil
	}
	return release, true, nil
}

var _ shared.RunLock = (*InMemoryRunLock)(nil)
