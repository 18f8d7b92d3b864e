package core

// history.go records finished runs and handles processed-marker resets.
//
// Runs are appended once, after completion, and never updated. Resetting a
// schedule clears lastProcessedFile so the file it named becomes eligible
// again; the reset takes the schedule's lock so it cannot interleave with a
// run that is about to advance the marker.

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
)

// ResetResult reports the outcome of a processed-marker reset.
type ResetResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// HistoryRecorder appends runs and resets processed markers.
type HistoryRecorder struct {
	runs      RunStore
	schedules ScheduleStore
	locks     *ScheduleLocks
}

// NewHistoryRecorder creates a recorder.
func NewHistoryRecorder(runs RunStore, schedules ScheduleStore, locks *ScheduleLocks) *HistoryRecorder {
	return &HistoryRecorder{runs: runs, schedules: schedules, locks: locks}
}

// Record appends a finished run.
func (h *HistoryRecorder) Record(ctx context.Context, run *ImportRun) error {
	if run.ErrorDetails == nil {
		run.ErrorDetails = []string{}
	}
	if err := h.runs.AppendRun(ctx, run); err != nil {
		return fmt.Errorf("record run: %w", err)
	}
	return nil
}

// Reset clears the processed marker of a schedule. It fails without changes
// while a run holds the schedule.
func (h *HistoryRecorder) Reset(ctx context.Context, scheduleID uuid.UUID) (ResetResult, error) {
	s, err := h.schedules.GetSchedule(ctx, scheduleID)
	if err != nil {
		return ResetResult{}, err
	}

	if !h.locks.TryAcquire(scheduleID) {
		return ResetResult{
			Success: false,
			Message: "an import is currently running for this schedule; try again when it completes",
		}, nil
	}
	defer h.locks.Release(scheduleID)

	// A run may have moved the marker before the lock was taken.
	if s, err = h.schedules.GetSchedule(ctx, scheduleID); err != nil {
		return ResetResult{}, err
	}
	if s.LastProcessedFile == "" {
		return ResetResult{Success: true, Message: "no processed file recorded"}, nil
	}

	if err := h.schedules.ClearProcessedFile(ctx, scheduleID); err != nil {
		return ResetResult{}, fmt.Errorf("reset processed marker: %w", err)
	}

	slog.Info("processed marker reset",
		"schedule_id", scheduleID,
		"project_id", s.ProjectID,
		"file", s.LastProcessedFile,
	)

	return ResetResult{
		Success: true,
		Message: fmt.Sprintf("%s will be imported again on the next run", s.LastProcessedFile),
	}, nil
}

// List returns runs for a schedule or a project, newest first.
func (h *HistoryRecorder) List(ctx context.Context, filter RunFilter) ([]ImportRun, error) {
	runs, err := h.runs.ListRuns(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return runs, nil
}
