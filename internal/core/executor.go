package core

// executor.go runs one import from file selection to history.
//
// Schedule-driven runs (the polling loop or an explicit run request) hold the
// schedule's lock for their whole duration, select the newest unprocessed
// file, and advance lastProcessedFile unless the file itself was rejected.
// Ad-hoc runs receive their bytes from the caller and touch no schedule.
//
// Row-level failures never abort a batch. Each one becomes an errorDetails
// entry and the remaining rows continue, so a run can finish partial.

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/JonMunkholm/woimport/internal/logging"
	"github.com/JonMunkholm/woimport/internal/metrics"
	"github.com/google/uuid"
)

// ErrProjectRequired is returned for requests without a project id.
var ErrProjectRequired = errors.New("project id is required")

// ExecutorConfig holds run settings.
type ExecutorConfig struct {
	ServiceTypes ServiceTypes  // Accepted service type codes
	MaxFileSize  int64         // Reject larger files; 0 disables the check
	RunTimeout   time.Duration // Deadline for a single run; 0 means none
}

// Executor drives the import pipeline.
type Executor struct {
	selector  *FileSelector
	drop      DropLocation
	sink      PersistenceSink
	schedules ScheduleStore
	history   *HistoryRecorder
	locks     *ScheduleLocks
	evaluator TriggerEvaluator
	clock     Clock
	cfg       ExecutorConfig
}

// ExecutorDeps groups the collaborators of an Executor.
type ExecutorDeps struct {
	Drop      DropLocation
	Sink      PersistenceSink
	Schedules ScheduleStore
	History   *HistoryRecorder
	Locks     *ScheduleLocks
	Evaluator TriggerEvaluator
	Clock     Clock
}

// NewExecutor creates an executor.
func NewExecutor(deps ExecutorDeps, cfg ExecutorConfig) *Executor {
	if deps.Clock == nil {
		deps.Clock = SystemClock{}
	}
	if deps.Evaluator == nil {
		deps.Evaluator = NewCronEvaluator()
	}
	if len(cfg.ServiceTypes.Codes) == 0 {
		cfg.ServiceTypes = DefaultServiceTypes()
	}
	return &Executor{
		selector:  NewFileSelector(deps.Drop),
		drop:      deps.Drop,
		sink:      deps.Sink,
		schedules: deps.Schedules,
		history:   deps.History,
		locks:     deps.Locks,
		evaluator: deps.Evaluator,
		clock:     deps.Clock,
		cfg:       cfg,
	}
}

// AdHocRequest is a one-off import outside any schedule. Exactly one of Data
// or JSONText is used; JSONText wins when both are set.
type AdHocRequest struct {
	ProjectID string
	FileName  string
	Data      []byte
	JSONText  string
	Mapping   ColumnMapping
	Delimiter string
	HasHeader bool
}

// rowFailure is one row-level error detail.
type rowFailure struct {
	row int
	msg string
}

// RunSchedule imports the next file for s. It returns a ConcurrencyError
// without recording anything if s is already running.
//
// TriggerPoll and TriggerRunNow behave the same: both select from the drop
// location and advance the processed marker when a file is imported. The
// trigger only labels the run in logs. One-off uploads go through RunAdHoc,
// which never touches the marker.
func (e *Executor) RunSchedule(ctx context.Context, s *ImportSchedule, trigger Trigger) (*ImportRun, error) {
	if err := e.locks.Acquire(s.ID); err != nil {
		return nil, err
	}
	defer e.locks.Release(s.ID)

	metrics.RunStarted()
	defer metrics.RunFinished()

	ctx, cancel := e.runContext(ctx)
	defer cancel()

	// The caller's copy may predate a reset or another run.
	current, err := e.schedules.GetSchedule(ctx, s.ID)
	if err != nil {
		return nil, fmt.Errorf("load schedule: %w", err)
	}
	s = current

	scheduleID := s.ID
	run := &ImportRun{
		ID:           uuid.New(),
		ScheduleID:   &scheduleID,
		ProjectID:    s.ProjectID,
		ImportSource: SourceScheduled,
		StartedAt:    e.clock.Now(),
		ErrorDetails: []string{},
	}

	logger := logging.WithFields(ctx,
		"schedule_id", s.ID,
		"project_id", s.ProjectID,
		"run_id", run.ID,
		"trigger", trigger,
	)
	logger.Info("import run started")

	var (
		fileErr  error
		selected *FileInfo
	)

	selected, err = e.selector.Select(ctx, s)
	switch {
	case err != nil:
		fileErr = err
		run.ErrorDetails = append(run.ErrorDetails, err.Error())
	case selected == nil:
		logger.Info("no new file to import", "pattern", s.ProcessedFilePattern)
	default:
		run.FileName = selected.Name
		data, readErr := e.drop.Read(ctx, s.ProjectID, selected.Name)
		if readErr != nil {
			fileErr = &FormatError{FileName: selected.Name, Reason: "cannot read file", Err: readErr}
			run.ErrorDetails = append(run.ErrorDetails, fileErr.Error())
		} else {
			table, dispatchErr := Dispatch(selected.Name, data, DispatchOptions{
				Delimiter:   s.DelimiterRune(),
				HasHeader:   s.HasHeader,
				MaxFileSize: e.cfg.MaxFileSize,
			})
			if dispatchErr != nil {
				fileErr = dispatchErr
				run.ErrorDetails = append(run.ErrorDetails, dispatchErr.Error())
			} else {
				fileErr = e.importTable(ctx, run, table, s.ColumnMapping)
			}
		}
	}

	e.finish(run, fileErr)

	state := RunState{
		LastRunAt:          run.CompletedAt,
		LastRunStatus:      run.Status,
		LastRunMessage:     runMessage(run, fileErr),
		LastRunRecordCount: run.RecordsImported,
		NextRunAt:          e.evaluator.NextRunAt(s, run.CompletedAt),
	}
	if selected != nil && fileErr == nil {
		name := selected.Name
		state.LastProcessedFile = &name
	}

	if err := e.history.Record(ctx, run); err != nil {
		logger.Error("failed to record run", "error", err)
		return run, err
	}
	if err := e.schedules.UpdateRunState(ctx, s.ID, state); err != nil {
		logger.Error("failed to update schedule status", "error", err)
		return run, fmt.Errorf("update schedule status: %w", err)
	}

	logger.Info("import run completed",
		"file", run.FileName,
		"status", run.Status,
		"records_imported", run.RecordsImported,
		"records_failed", run.RecordsFailed,
		"duration_ms", run.CompletedAt.Sub(run.StartedAt).Milliseconds(),
	)

	return run, nil
}

// RunAdHoc imports caller-supplied bytes or JSON text for a project.
func (e *Executor) RunAdHoc(ctx context.Context, req AdHocRequest) (*ImportRun, error) {
	if strings.TrimSpace(req.ProjectID) == "" {
		return nil, ErrProjectRequired
	}

	metrics.RunStarted()
	defer metrics.RunFinished()

	ctx, cancel := e.runContext(ctx)
	defer cancel()

	run := &ImportRun{
		ID:           uuid.New(),
		ProjectID:    req.ProjectID,
		ImportSource: SourceManualFile,
		FileName:     req.FileName,
		StartedAt:    e.clock.Now(),
		ErrorDetails: []string{},
	}

	var (
		table *ParsedTable
		err   error
	)
	if req.JSONText != "" {
		run.ImportSource = SourceJSONText
		if run.FileName == "" {
			run.FileName = "pasted.json"
		}
		table, err = DispatchJSON(run.FileName, []byte(req.JSONText))
	} else {
		delim := ','
		for _, r := range req.Delimiter {
			delim = r
			break
		}
		table, err = Dispatch(run.FileName, req.Data, DispatchOptions{
			Delimiter:   delim,
			HasHeader:   req.HasHeader,
			MaxFileSize: e.cfg.MaxFileSize,
		})
	}

	logger := logging.WithFields(ctx,
		"project_id", run.ProjectID,
		"run_id", run.ID,
		"source", run.ImportSource,
	)

	var fileErr error
	if err != nil {
		fileErr = err
		run.ErrorDetails = append(run.ErrorDetails, err.Error())
	} else {
		fileErr = e.importTable(ctx, run, table, req.Mapping)
	}

	e.finish(run, fileErr)

	if err := e.history.Record(ctx, run); err != nil {
		logger.Error("failed to record run", "error", err)
		return run, err
	}

	logger.Info("ad-hoc import completed",
		"file", run.FileName,
		"status", run.Status,
		"records_imported", run.RecordsImported,
		"records_failed", run.RecordsFailed,
		"duration_ms", run.CompletedAt.Sub(run.StartedAt).Milliseconds(),
	)

	return run, nil
}

// importTable maps, validates and persists the table rows. It returns a
// non-nil error only for file-level failures.
func (e *Executor) importTable(ctx context.Context, run *ImportRun, table *ParsedTable, mapping ColumnMapping) error {
	if len(mapping.Clone()) == 0 {
		mapping = AutoMap(table.Headers)
	}

	session := NewMappingSession(table, mapping, e.cfg.ServiceTypes)
	result, err := session.MaterializeStrict()
	if err != nil {
		run.ErrorDetails = append(run.ErrorDetails, err.Error())
		return err
	}

	failures := make([]rowFailure, 0, len(result.RowErrors))
	for _, ve := range result.RowErrors {
		failures = append(failures, rowFailure{row: ve.Row, msg: ve.Error()})
	}

	for _, rec := range result.Records {
		if err := e.sink.Insert(ctx, run.ProjectID, rec.Record); err != nil {
			pe := &PersistenceError{Row: rec.Row, Err: err}
			failures = append(failures, rowFailure{row: rec.Row, msg: pe.Error()})
			continue
		}
		run.RecordsImported++
	}

	sort.SliceStable(failures, func(i, j int) bool { return failures[i].row < failures[j].row })
	for _, f := range failures {
		run.ErrorDetails = append(run.ErrorDetails, f.msg)
	}
	run.RecordsFailed = len(failures)

	return nil
}

// finish stamps completion, classifies the run and reports metrics.
func (e *Executor) finish(run *ImportRun, fileErr error) {
	run.CompletedAt = e.clock.Now()
	run.Status = Classify(run.RecordsImported, run.RecordsFailed, fileErr)
	metrics.ObserveRun(string(run.ImportSource), string(run.Status),
		run.RecordsImported, run.RecordsFailed, run.CompletedAt.Sub(run.StartedAt))
}

// runContext detaches the run from caller cancellation and applies the
// configured deadline.
func (e *Executor) runContext(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx = context.WithoutCancel(ctx)
	if e.cfg.RunTimeout > 0 {
		return context.WithTimeout(ctx, e.cfg.RunTimeout)
	}
	return context.WithCancel(ctx)
}

// Classify derives a run status from its counts.
func Classify(imported, failed int, fileErr error) RunStatus {
	switch {
	case fileErr != nil:
		return RunFailed
	case failed == 0:
		return RunSuccess
	case imported > 0:
		return RunPartial
	default:
		return RunFailed
	}
}

// runMessage summarizes a run for the schedule's lastRunMessage.
func runMessage(run *ImportRun, fileErr error) string {
	switch {
	case fileErr != nil:
		return fileErr.Error()
	case run.FileName == "":
		return "no new files to import"
	case run.Status == RunSuccess:
		return fmt.Sprintf("imported %d records from %s", run.RecordsImported, run.FileName)
	case run.Status == RunPartial:
		return fmt.Sprintf("imported %d of %d records from %s; %d failed",
			run.RecordsImported, run.RecordsImported+run.RecordsFailed, run.FileName, run.RecordsFailed)
	default:
		return fmt.Sprintf("all %d records from %s failed", run.RecordsFailed, run.FileName)
	}
}
