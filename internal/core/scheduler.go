package core

// scheduler.go provides the polling loop that starts due imports.
//
// On every tick the scheduler loads the enabled schedules, asks the
// TriggerEvaluator which are due, and hands those to a bounded worker pool
// owned by the scheduler. The tick never waits for runs: a schedule that is
// still running from an earlier tick is skipped, and a due schedule that finds
// the pool full is picked up again on a later tick.
//
// The scheduler is designed to be long-running and context-aware for graceful
// shutdown. It logs failures but never stops because one run failed.

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/woimport/internal/metrics"
	"golang.org/x/sync/errgroup"
)

// DefaultTickInterval is how often the scheduler polls when unset.
const DefaultTickInterval = time.Minute

// SchedulerConfig holds polling settings.
type SchedulerConfig struct {
	TickInterval  time.Duration // Poll period, capped at FinestInterval (default: 1m)
	MaxConcurrent int           // Parallel scheduled runs (default: 4)
}

// Scheduler polls schedules and executes the due ones.
type Scheduler struct {
	schedules ScheduleStore
	evaluator TriggerEvaluator
	executor  *Executor
	clock     Clock
	cfg       SchedulerConfig

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	running bool
	pool    *errgroup.Group

	inflightMu sync.Mutex
	inflight   map[uuid.UUID]bool
}

// NewScheduler creates a stopped scheduler.
func NewScheduler(schedules ScheduleStore, evaluator TriggerEvaluator, executor *Executor, clock Clock, cfg SchedulerConfig) *Scheduler {
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = DefaultTickInterval
	}
	if cfg.TickInterval > FinestInterval {
		cfg.TickInterval = FinestInterval
	}
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 4
	}
	if clock == nil {
		clock = SystemClock{}
	}
	return &Scheduler{
		schedules: schedules,
		evaluator: evaluator,
		executor:  executor,
		clock:     clock,
		cfg:       cfg,
		inflight:  make(map[uuid.UUID]bool),
	}
}

// Start launches the polling loop. It evaluates once immediately, then on
// every tick, until Stop is called or ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}

	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	s.running = true

	pool := new(errgroup.Group)
	pool.SetLimit(s.cfg.MaxConcurrent)
	s.pool = pool

	ticker := s.clock.NewTicker(s.cfg.TickInterval)

	slog.Info("import scheduler started",
		"tick_interval", s.cfg.TickInterval.String(),
		"max_concurrent", s.cfg.MaxConcurrent,
	)

	go func() {
		defer close(s.done)
		defer ticker.Stop()

		s.dispatch(ctx, pool)

		for {
			select {
			case <-ctx.Done():
				slog.Info("import scheduler stopped")
				return
			case <-ticker.C():
				s.dispatch(ctx, pool)
			}
		}
	}()
}

// Stop cancels the loop and waits for the runs it started.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	cancel, done, pool := s.cancel, s.done, s.pool
	s.running = false
	s.mu.Unlock()

	cancel()
	<-done
	_ = pool.Wait()
}

// dispatch starts every due schedule on pool without waiting for the runs.
// It returns the number of runs started.
func (s *Scheduler) dispatch(ctx context.Context, pool *errgroup.Group) int {
	due := s.dueSchedules(ctx)
	if len(due) == 0 {
		return 0
	}

	var started, busy, deferred int
	for i := range due {
		sched := due[i]
		if ctx.Err() != nil {
			break
		}
		if !s.claim(sched.ID) {
			busy++
			continue
		}
		ok := pool.TryGo(func() error {
			defer s.unclaim(sched.ID)
			s.runOne(ctx, &sched)
			return nil
		})
		if !ok {
			s.unclaim(sched.ID)
			deferred++
			continue
		}
		started++
	}

	slog.Info("scheduler tick dispatched",
		"due", len(due),
		"started", started,
		"busy", busy,
		"deferred", deferred,
	)
	return started
}

// RunDue executes every schedule that is due now and waits for those runs.
// It returns the number of runs that completed. The polling loop does not
// use it; it is the one-shot form for callers that need the outcome.
func (s *Scheduler) RunDue(ctx context.Context) int {
	start := time.Now()
	due := s.dueSchedules(ctx)
	if len(due) == 0 {
		return 0
	}

	var (
		mu        sync.Mutex
		completed int
	)
	g := new(errgroup.Group)
	g.SetLimit(s.cfg.MaxConcurrent)

	for i := range due {
		sched := &due[i]
		if ctx.Err() != nil {
			break
		}
		if !s.claim(sched.ID) {
			continue
		}
		g.Go(func() error {
			defer s.unclaim(sched.ID)
			if s.runOne(ctx, sched) {
				mu.Lock()
				completed++
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	slog.Info("scheduler run completed",
		"due", len(due),
		"completed", completed,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return completed
}

// dueSchedules returns the enabled schedules that are due now.
func (s *Scheduler) dueSchedules(ctx context.Context) []ImportSchedule {
	now := s.clock.Now()

	schedules, err := s.schedules.ListEnabledSchedules(ctx)
	if err != nil {
		slog.Error("scheduler: list schedules failed", "error", err)
		metrics.ObserveTick(0)
		return nil
	}

	var due []ImportSchedule
	for i := range schedules {
		if s.evaluator.IsDue(&schedules[i], now) {
			due = append(due, schedules[i])
		}
	}
	metrics.ObserveTick(len(due))
	if len(due) == 0 {
		slog.Debug("scheduler tick: nothing due", "enabled", len(schedules))
	}
	return due
}

// claim marks id as queued or running. It fails when the schedule already has
// a run in the pool or holds its lock from a manual run.
func (s *Scheduler) claim(id uuid.UUID) bool {
	s.inflightMu.Lock()
	defer s.inflightMu.Unlock()
	if s.inflight[id] || s.executor.locks.IsRunning(id) {
		return false
	}
	s.inflight[id] = true
	return true
}

func (s *Scheduler) unclaim(id uuid.UUID) {
	s.inflightMu.Lock()
	defer s.inflightMu.Unlock()
	delete(s.inflight, id)
}

// runOne executes one scheduled run and reports whether it completed.
func (s *Scheduler) runOne(ctx context.Context, sched *ImportSchedule) bool {
	_, err := s.executor.RunSchedule(ctx, sched, TriggerPoll)
	var ce *ConcurrencyError
	switch {
	case errors.As(err, &ce):
		slog.Debug("scheduler: schedule still running, skipped", "schedule_id", sched.ID)
		return false
	case err != nil:
		slog.Error("scheduler: run failed", "schedule_id", sched.ID, "error", err)
		return false
	}
	return true
}
