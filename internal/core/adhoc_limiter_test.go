package core

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestAdHocLimiter_Defaults(t *testing.T) {
	l := NewAdHocLimiter(0, 0)
	if got := l.Available(); got != DefaultMaxConcurrentAdHoc {
		t.Errorf("Available() = %d, want %d", got, DefaultMaxConcurrentAdHoc)
	}
	if l.maxWait != DefaultAdHocWait {
		t.Errorf("maxWait = %v, want %v", l.maxWait, DefaultAdHocWait)
	}
}

func TestAdHocLimiter_AcquireRelease(t *testing.T) {
	l := NewAdHocLimiter(2, 10*time.Millisecond)
	ctx := context.Background()

	if err := l.Acquire(ctx); err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	if err := l.Acquire(ctx); err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	if got := l.ActiveCount(); got != 2 {
		t.Errorf("ActiveCount() = %d, want 2", got)
	}

	if err := l.Acquire(ctx); !errors.Is(err, ErrTooManyImports) {
		t.Fatalf("Acquire() when full error = %v, want ErrTooManyImports", err)
	}

	l.Release()
	if got := l.Available(); got != 1 {
		t.Errorf("Available() = %d, want 1", got)
	}
	if err := l.Acquire(ctx); err != nil {
		t.Fatalf("Acquire() after Release error = %v", err)
	}
	l.Release()
	l.Release()
}

func TestAdHocLimiter_ContextCancelled(t *testing.T) {
	l := NewAdHocLimiter(1, time.Minute)
	if err := l.Acquire(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer l.Release()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := l.Acquire(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Acquire() error = %v, want context.Canceled", err)
	}
}

func TestAdHocLimiter_WaitsForSlot(t *testing.T) {
	l := NewAdHocLimiter(1, time.Second)
	if err := l.Acquire(context.Background()); err != nil {
		t.Fatal(err)
	}

	go func() {
		time.Sleep(20 * time.Millisecond)
		l.Release()
	}()

	if err := l.Acquire(context.Background()); err != nil {
		t.Fatalf("Acquire() error = %v, want slot after release", err)
	}
	l.Release()

	if err := l.WaitForDrain(context.Background()); err != nil {
		t.Errorf("WaitForDrain() error = %v", err)
	}
}
