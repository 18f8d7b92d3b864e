package core

// adhoc_limiter.go bounds the number of ad-hoc imports and previews that
// parse files at the same time.
//
// Scheduled runs are bounded by the scheduler; request-driven imports share a
// semaphore instead. When every slot is taken a caller waits up to maxWait
// before failing with ErrTooManyImports.

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrTooManyImports is returned when all ad-hoc slots stay occupied for the
// whole wait period. Clients should retry after a short delay.
var ErrTooManyImports = errors.New("too many concurrent imports, please try again later")

// DefaultMaxConcurrentAdHoc is the default limit for parallel ad-hoc imports.
const DefaultMaxConcurrentAdHoc = 5

// DefaultAdHocWait is how long to wait for a slot before rejecting.
const DefaultAdHocWait = 30 * time.Second

// AdHocLimiter is a counting semaphore for request-driven imports.
type AdHocLimiter struct {
	semaphore chan struct{}
	maxWait   time.Duration

	mu     sync.RWMutex
	active int
}

// NewAdHocLimiter creates a limiter that allows at most maxConcurrent
// simultaneous imports.
func NewAdHocLimiter(maxConcurrent int, maxWait time.Duration) *AdHocLimiter {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrentAdHoc
	}
	if maxWait <= 0 {
		maxWait = DefaultAdHocWait
	}

	return &AdHocLimiter{
		semaphore: make(chan struct{}, maxConcurrent),
		maxWait:   maxWait,
	}
}

// Acquire takes a slot, waiting at most maxWait.
// The caller MUST call Release when the import completes.
func (l *AdHocLimiter) Acquire(ctx context.Context) error {
	timer := time.NewTimer(l.maxWait)
	defer timer.Stop()

	select {
	case l.semaphore <- struct{}{}:
		l.mu.Lock()
		l.active++
		l.mu.Unlock()
		return nil
	case <-timer.C:
		return ErrTooManyImports
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release frees a slot taken by Acquire.
func (l *AdHocLimiter) Release() {
	l.mu.Lock()
	l.active--
	l.mu.Unlock()

	<-l.semaphore
}

// ActiveCount returns the number of imports holding a slot.
func (l *AdHocLimiter) ActiveCount() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.active
}

// Available returns the number of free slots.
func (l *AdHocLimiter) Available() int {
	return cap(l.semaphore) - len(l.semaphore)
}

// WaitForDrain blocks until no import holds a slot or ctx is cancelled.
func (l *AdHocLimiter) WaitForDrain(ctx context.Context) error {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		if l.ActiveCount() == 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
