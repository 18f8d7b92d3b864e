package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ServiceConfig holds import settings shared by all operations.
type ServiceConfig struct {
	Executor         ExecutorConfig
	DefaultDelimiter string // Used when a schedule has none (default: ",")
	PreviewLimit     int    // Rows returned by PreviewImport (default: 10)

	MaxConcurrentAdHoc int           // Parallel ad-hoc imports and previews (default: 5)
	AdHocWait          time.Duration // Wait for a free ad-hoc slot (default: 30s)
}

// Deps are the collaborators a Service needs. Clock and Evaluator are optional.
type Deps struct {
	Schedules ScheduleStore
	Runs      RunStore
	Drop      DropLocation
	Sink      PersistenceSink
	Clock     Clock
	Evaluator TriggerEvaluator
}

// Service provides the import operations used by the HTTP layer and the CLI.
type Service struct {
	schedules ScheduleStore
	drop      DropLocation
	locks     *ScheduleLocks
	evaluator TriggerEvaluator
	history   *HistoryRecorder
	executor  *Executor
	adhoc     *AdHocLimiter
	clock     Clock
	cfg       ServiceConfig
}

// NewService wires a Service from its collaborators.
func NewService(deps Deps, cfg ServiceConfig) (*Service, error) {
	switch {
	case deps.Schedules == nil:
		return nil, errors.New("new service: schedule store is required")
	case deps.Runs == nil:
		return nil, errors.New("new service: run store is required")
	case deps.Drop == nil:
		return nil, errors.New("new service: drop location is required")
	case deps.Sink == nil:
		return nil, errors.New("new service: persistence sink is required")
	}
	if deps.Clock == nil {
		deps.Clock = SystemClock{}
	}
	if deps.Evaluator == nil {
		deps.Evaluator = NewCronEvaluator()
	}
	if cfg.DefaultDelimiter == "" {
		cfg.DefaultDelimiter = ","
	}
	if cfg.PreviewLimit <= 0 {
		cfg.PreviewLimit = DefaultPreviewLimit
	}
	if len(cfg.Executor.ServiceTypes.Codes) == 0 {
		cfg.Executor.ServiceTypes = DefaultServiceTypes()
	}

	locks := NewScheduleLocks()
	history := NewHistoryRecorder(deps.Runs, deps.Schedules, locks)
	executor := NewExecutor(ExecutorDeps{
		Drop:      deps.Drop,
		Sink:      deps.Sink,
		Schedules: deps.Schedules,
		History:   history,
		Locks:     locks,
		Evaluator: deps.Evaluator,
		Clock:     deps.Clock,
	}, cfg.Executor)

	return &Service{
		schedules: deps.Schedules,
		drop:      deps.Drop,
		locks:     locks,
		evaluator: deps.Evaluator,
		history:   history,
		executor:  executor,
		adhoc:     NewAdHocLimiter(cfg.MaxConcurrentAdHoc, cfg.AdHocWait),
		clock:     deps.Clock,
		cfg:       cfg,
	}, nil
}

// NewScheduler returns a polling scheduler that shares this service's locks.
func (s *Service) NewScheduler(cfg SchedulerConfig) *Scheduler {
	return NewScheduler(s.schedules, s.evaluator, s.executor, s.clock, cfg)
}

// ActiveRuns returns the number of schedule runs and ad-hoc imports in progress.
func (s *Service) ActiveRuns() int {
	return s.locks.ActiveCount() + s.adhoc.ActiveCount()
}

// WaitForRuns blocks until in-progress runs finish or ctx expires.
func (s *Service) WaitForRuns(ctx context.Context) error {
	if err := s.locks.WaitForDrain(ctx); err != nil {
		return err
	}
	return s.adhoc.WaitForDrain(ctx)
}

// CreateSchedule validates and stores a new schedule.
func (s *Service) CreateSchedule(ctx context.Context, in ScheduleInput) (*ImportSchedule, error) {
	now := s.clock.Now()

	sched := &ImportSchedule{
		ID:                   uuid.New(),
		ProjectID:            strings.TrimSpace(in.ProjectID),
		Name:                 strings.TrimSpace(in.Name),
		Delimiter:            in.Delimiter,
		HasHeader:            true,
		ColumnMapping:        in.ColumnMapping.Clone(),
		Frequency:            in.Frequency,
		CustomCronExpression: strings.TrimSpace(in.CustomCronExpression),
		IsEnabled:            true,
		ProcessedFilePattern: strings.TrimSpace(in.ProcessedFilePattern),
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	if sched.Delimiter == "" {
		sched.Delimiter = s.cfg.DefaultDelimiter
	}
	if in.HasHeader != nil {
		sched.HasHeader = *in.HasHeader
	}
	if in.IsEnabled != nil {
		sched.IsEnabled = *in.IsEnabled
	}
	if sched.Frequency != FrequencyCustom {
		sched.CustomCronExpression = ""
	}

	if err := ValidateSchedule(sched, s.evaluator); err != nil {
		return nil, err
	}
	sched.NextRunAt = s.plannedRunAt(sched, now)

	if err := s.schedules.CreateSchedule(ctx, sched); err != nil {
		return nil, fmt.Errorf("create schedule: %w", err)
	}
	return sched, nil
}

// UpdateSchedule applies a patch to the configuration fields of a schedule.
func (s *Service) UpdateSchedule(ctx context.Context, id uuid.UUID, patch SchedulePatch) (*ImportSchedule, error) {
	sched, err := s.schedules.GetSchedule(ctx, id)
	if err != nil {
		return nil, err
	}

	patch.Apply(sched)
	if sched.Delimiter == "" {
		sched.Delimiter = s.cfg.DefaultDelimiter
	}
	if sched.Frequency != FrequencyCustom {
		sched.CustomCronExpression = ""
	}

	if err := ValidateSchedule(sched, s.evaluator); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	sched.UpdatedAt = now
	sched.NextRunAt = s.plannedRunAt(sched, now)

	if err := s.schedules.UpdateSchedule(ctx, sched); err != nil {
		return nil, fmt.Errorf("update schedule: %w", err)
	}
	return sched, nil
}

// DeleteSchedule removes a schedule. Its run history is kept.
func (s *Service) DeleteSchedule(ctx context.Context, id uuid.UUID) error {
	if !s.locks.TryAcquire(id) {
		return &ConcurrencyError{ScheduleID: id}
	}
	err := s.schedules.DeleteSchedule(ctx, id)
	s.locks.Release(id)
	if err != nil {
		return err
	}
	s.locks.Forget(id)
	return nil
}

// GetSchedule returns one schedule.
func (s *Service) GetSchedule(ctx context.Context, id uuid.UUID) (*ImportSchedule, error) {
	return s.schedules.GetSchedule(ctx, id)
}

// ListSchedules returns the schedules of a project.
func (s *Service) ListSchedules(ctx context.Context, projectID string) ([]ImportSchedule, error) {
	if strings.TrimSpace(projectID) == "" {
		return nil, ErrProjectRequired
	}
	return s.schedules.ListSchedules(ctx, projectID)
}

// RunNow runs a schedule immediately, whether or not it is enabled or due.
// Returns a ConcurrencyError if the schedule is already running.
func (s *Service) RunNow(ctx context.Context, scheduleID uuid.UUID) (*ImportRun, error) {
	sched, err := s.schedules.GetSchedule(ctx, scheduleID)
	if err != nil {
		return nil, err
	}
	return s.executor.RunSchedule(ctx, sched, TriggerRunNow)
}

// ResetProcessedMarker makes the last processed file eligible again.
func (s *Service) ResetProcessedMarker(ctx context.Context, scheduleID uuid.UUID) (ResetResult, error) {
	return s.history.Reset(ctx, scheduleID)
}

// ImportAdHoc runs a one-off import outside any schedule.
// Returns ErrTooManyImports when no ad-hoc slot frees up in time.
func (s *Service) ImportAdHoc(ctx context.Context, req AdHocRequest) (*ImportRun, error) {
	if err := s.adhoc.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.adhoc.Release()
	return s.executor.RunAdHoc(ctx, req)
}

// ListHistory returns runs for a schedule or a project, newest first.
func (s *Service) ListHistory(ctx context.Context, filter RunFilter) ([]ImportRun, error) {
	if filter.ScheduleID == nil && strings.TrimSpace(filter.ProjectID) == "" {
		return nil, ErrProjectRequired
	}
	return s.history.List(ctx, filter)
}

// plannedRunAt computes nextRunAt for a schedule at save time.
func (s *Service) plannedRunAt(sched *ImportSchedule, now time.Time) *time.Time {
	if sched.LastRunAt != nil {
		return s.evaluator.NextRunAt(sched, *sched.LastRunAt)
	}
	if !sched.IsEnabled || sched.Frequency == FrequencyManual {
		return nil
	}
	if sched.Frequency == FrequencyCustom {
		return s.evaluator.NextRunAt(sched, sched.CreatedAt)
	}
	due := now
	return &due
}
