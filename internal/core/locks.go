package core

// locks.go implements per-schedule mutual exclusion.
//
// Each schedule id owns a one-slot semaphore. Acquisition never waits: a
// second run request for a busy schedule is rejected with ConcurrencyError so
// callers see the conflict immediately. Unrelated schedules have independent
// slots and never block each other.
//
// WaitForDrain supports graceful shutdown by blocking until every held slot is
// released.

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ScheduleLocks holds one slot per schedule id.
type ScheduleLocks struct {
	mu    sync.Mutex
	slots map[uuid.UUID]chan struct{}
	held  int
}

// NewScheduleLocks creates an empty lock table.
func NewScheduleLocks() *ScheduleLocks {
	return &ScheduleLocks{slots: make(map[uuid.UUID]chan struct{})}
}

func (l *ScheduleLocks) slotLocked(id uuid.UUID) chan struct{} {
	s, ok := l.slots[id]
	if !ok {
		s = make(chan struct{}, 1)
		l.slots[id] = s
	}
	return s
}

// TryAcquire takes the slot for id without blocking.
// Returns true if the slot was acquired; the caller MUST call Release.
func (l *ScheduleLocks) TryAcquire(id uuid.UUID) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	select {
	case l.slotLocked(id) <- struct{}{}:
		l.held++
		return true
	default:
		return false
	}
}

// Acquire is TryAcquire returning a ConcurrencyError on conflict.
func (l *ScheduleLocks) Acquire(id uuid.UUID) error {
	if !l.TryAcquire(id) {
		return &ConcurrencyError{ScheduleID: id}
	}
	return nil
}

// Release frees the slot for id.
// Must be called exactly once for each successful Acquire/TryAcquire.
func (l *ScheduleLocks) Release(id uuid.UUID) {
	l.mu.Lock()
	defer l.mu.Unlock()

	select {
	case <-l.slotLocked(id):
		l.held--
	default:
	}
}

// IsRunning reports whether the slot for id is held.
func (l *ScheduleLocks) IsRunning(id uuid.UUID) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	s, ok := l.slots[id]
	return ok && len(s) > 0
}

// ActiveCount returns the number of held slots.
func (l *ScheduleLocks) ActiveCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.held
}

// Forget drops the slot for a deleted schedule. A held slot is kept.
func (l *ScheduleLocks) Forget(id uuid.UUID) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if s, ok := l.slots[id]; ok && len(s) == 0 {
		delete(l.slots, id)
	}
}

// WaitForDrain blocks until no slot is held or ctx is cancelled.
func (l *ScheduleLocks) WaitForDrain(ctx context.Context) error {
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
