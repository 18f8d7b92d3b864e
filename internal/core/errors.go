package core

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ErrScheduleNotFound is returned when a schedule id does not exist.
var ErrScheduleNotFound = errors.New("schedule not found")

// ErrRunNotFound is returned when a run id does not exist.
var ErrRunNotFound = errors.New("run not found")

// FormatError means a file could not be parsed at all.
type FormatError struct {
	FileName string
	Reason   string
	Err      error
}

func (e *FormatError) Error() string {
	msg := "invalid file format"
	if e.FileName != "" {
		msg += " " + e.FileName
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *FormatError) Unwrap() error { return e.Err }

// ScheduleConfigError rejects a schedule at save time.
type ScheduleConfigError struct {
	Field  string
	Reason string
}

func (e *ScheduleConfigError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("invalid schedule config: %s: %s", e.Field, e.Reason)
	}
	return "invalid schedule config: " + e.Reason
}

// MappingError means required fields have no bound header.
type MappingError struct {
	Missing []CanonicalField
}

func (e *MappingError) Error() string {
	names := make([]string, len(e.Missing))
	for i, f := range e.Missing {
		names[i] = string(f)
	}
	return "missing required column mapping: " + strings.Join(names, ", ")
}

// ValidationError is a single row missing a required value.
type ValidationError struct {
	Row     int            // 1-based data row index
	Field   CanonicalField // Offending field
	Value   string         // Raw value, if any
	Message string         // Human-readable message
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("row %d: %s: %s", e.Row, e.Field, e.Message)
	}
	return fmt.Sprintf("row %d: %s", e.Row, e.Message)
}

// PersistenceError is a record the sink rejected.
type PersistenceError struct {
	Row int
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("row %d: persist failed: %v", e.Row, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// ConcurrencyError rejects a run while another run of the same schedule is
// in progress.
type ConcurrencyError struct {
	ScheduleID uuid.UUID
}

func (e *ConcurrencyError) Error() string {
	return fmt.Sprintf("import already running for schedule %s", e.ScheduleID)
}
