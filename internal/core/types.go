package core

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Frequency is how often a schedule runs.
type Frequency string

const (
	FrequencyManual         Frequency = "manual"
	FrequencyEvery15Minutes Frequency = "every_15_minutes"
	FrequencyEvery30Minutes Frequency = "every_30_minutes"
	FrequencyHourly         Frequency = "hourly"
	FrequencyEvery2Hours    Frequency = "every_2_hours"
	FrequencyEvery6Hours    Frequency = "every_6_hours"
	FrequencyEvery12Hours   Frequency = "every_12_hours"
	FrequencyDaily          Frequency = "daily"
	FrequencyWeekly         Frequency = "weekly"
	FrequencyMonthly        Frequency = "monthly"
	FrequencyCustom         Frequency = "custom"
)

// Frequencies lists every accepted frequency in display order.
var Frequencies = []Frequency{
	FrequencyManual,
	FrequencyEvery15Minutes,
	FrequencyEvery30Minutes,
	FrequencyHourly,
	FrequencyEvery2Hours,
	FrequencyEvery6Hours,
	FrequencyEvery12Hours,
	FrequencyDaily,
	FrequencyWeekly,
	FrequencyMonthly,
	FrequencyCustom,
}

// Valid reports whether f is a known frequency.
func (f Frequency) Valid() bool {
	for _, known := range Frequencies {
		if f == known {
			return true
		}
	}
	return false
}

// RunStatus is the outcome of a finished run.
type RunStatus string

const (
	RunSuccess RunStatus = "success"
	RunPartial RunStatus = "partial"
	RunFailed  RunStatus = "failed"
)

// ImportSource records what started a run.
type ImportSource string

const (
	SourceScheduled  ImportSource = "scheduled"
	SourceManualFile ImportSource = "manual_file"
	SourceJSONText   ImportSource = "json_text"
)

// Trigger distinguishes the polling loop from an explicit run request.
// Both select a file from the drop location and advance the processed marker.
type Trigger string

const (
	TriggerPoll   Trigger = "poll"
	TriggerRunNow Trigger = "run_now"
)

// ColumnMapping binds canonical fields to source header names.
// A missing or empty entry means the field is unmapped.
type ColumnMapping map[CanonicalField]string

// Header returns the header bound to f, or "".
func (m ColumnMapping) Header(f CanonicalField) string {
	if m == nil {
		return ""
	}
	return m[f]
}

// Bound reports whether f has a non-empty header.
func (m ColumnMapping) Bound(f CanonicalField) bool {
	return m.Header(f) != ""
}

// Clone returns a copy without empty entries.
func (m ColumnMapping) Clone() ColumnMapping {
	out := make(ColumnMapping, len(m))
	for f, h := range m {
		if h != "" {
			out[f] = h
		}
	}
	return out
}

// ParsedTable is the schema-independent output of the dispatcher.
type ParsedTable struct {
	Headers   []string   // Column names, in source order
	Rows      [][]string // Raw rows; Rows[0] is the header row when HeaderRow is set
	HeaderRow bool       // True when Rows[0] repeats Headers
}

// DataRows returns the rows after the header row, if any.
func (t *ParsedTable) DataRows() [][]string {
	if t == nil {
		return nil
	}
	if t.HeaderRow && len(t.Rows) > 0 {
		return t.Rows[1:]
	}
	return t.Rows
}

// CanonicalRecord is one normalized work order.
// Empty strings and nil readings mean the value is unset.
type CanonicalRecord struct {
	CustomerWoID    string `json:"customerWoId"`
	CustomerID      string `json:"customerId"`
	CustomerName    string `json:"customerName"`
	Address         string `json:"address"`
	City            string `json:"city,omitempty"`
	State           string `json:"state,omitempty"`
	ZipCode         string `json:"zipCode,omitempty"`
	Phone           string `json:"phone,omitempty"`
	Email           string `json:"email,omitempty"`
	ServiceType     string `json:"serviceType"`
	Route           string `json:"route,omitempty"`
	Zone            string `json:"zone,omitempty"`
	MeterNumber     string `json:"meterNumber,omitempty"`
	MeterSize       string `json:"meterSize,omitempty"`
	MeterType       string `json:"meterType,omitempty"`
	MeterMake       string `json:"meterMake,omitempty"`
	MeterLocation   string `json:"meterLocation,omitempty"`
	OldMeterNumber  string `json:"oldMeterNumber,omitempty"`
	OldMeterReading *int64 `json:"oldMeterReading,omitempty"`
	NewMeterNumber  string `json:"newMeterNumber,omitempty"`
	NewMeterReading *int64 `json:"newMeterReading,omitempty"`
	Latitude        string `json:"latitude,omitempty"`
	Longitude       string `json:"longitude,omitempty"`
	ScheduledDate   string `json:"scheduledDate,omitempty"`
	DueDate         string `json:"dueDate,omitempty"`
	Priority        string `json:"priority,omitempty"`
	Notes           string `json:"notes,omitempty"`
}

// ImportSchedule describes how and when files are imported for a project.
type ImportSchedule struct {
	ID                   uuid.UUID     `json:"id"`
	ProjectID            string        `json:"projectId"`
	Name                 string        `json:"name"`
	Delimiter            string        `json:"delimiter"`
	HasHeader            bool          `json:"hasHeader"`
	ColumnMapping        ColumnMapping `json:"columnMapping,omitempty"`
	Frequency            Frequency     `json:"scheduleFrequency"`
	CustomCronExpression string        `json:"customCronExpression,omitempty"`
	IsEnabled            bool          `json:"isEnabled"`
	ProcessedFilePattern string        `json:"processedFilePattern,omitempty"`
	LastProcessedFile    string        `json:"lastProcessedFile,omitempty"`
	LastRunAt            *time.Time    `json:"lastRunAt,omitempty"`
	LastRunStatus        RunStatus     `json:"lastRunStatus,omitempty"`
	LastRunMessage       string        `json:"lastRunMessage,omitempty"`
	LastRunRecordCount   int           `json:"lastRunRecordCount"`
	NextRunAt            *time.Time    `json:"nextRunAt,omitempty"`
	CreatedAt            time.Time     `json:"createdAt"`
	UpdatedAt            time.Time     `json:"updatedAt"`
}

// DelimiterRune returns the configured delimiter, falling back to a comma.
func (s *ImportSchedule) DelimiterRune() rune {
	for _, r := range s.Delimiter {
		return r
	}
	return ','
}

// RunState is the set of status fields the executor writes after a run.
type RunState struct {
	LastRunAt          time.Time
	LastRunStatus      RunStatus
	LastRunMessage     string
	LastRunRecordCount int
	NextRunAt          *time.Time
	LastProcessedFile  *string // nil leaves the marker untouched
}

// ImportRun is the immutable record of one execution.
type ImportRun struct {
	ID              uuid.UUID    `json:"id"`
	ScheduleID      *uuid.UUID   `json:"scheduleId,omitempty"`
	ProjectID       string       `json:"projectId"`
	ImportSource    ImportSource `json:"importSource"`
	FileName        string       `json:"fileName"`
	Status          RunStatus    `json:"status"`
	RecordsImported int          `json:"recordsImported"`
	RecordsFailed   int          `json:"recordsFailed"`
	ErrorDetails    []string     `json:"errorDetails"`
	StartedAt       time.Time    `json:"startedAt"`
	CompletedAt     time.Time    `json:"completedAt"`
}

// RunFilter selects history entries. ScheduleID takes precedence over ProjectID.
type RunFilter struct {
	ScheduleID *uuid.UUID
	ProjectID  string
	Limit      int
}

// FileInfo describes one file in a drop location.
type FileInfo struct {
	Name    string    `json:"name"`
	ModTime time.Time `json:"mtime"`
	Size    int64     `json:"size"`
}

// DropLocation lists and reads the files in a project's drop location.
type DropLocation interface {
	List(ctx context.Context, projectID string) ([]FileInfo, error)
	Read(ctx context.Context, projectID, name string) ([]byte, error)
}

// PersistenceSink stores one canonical record. A returned error rejects that
// record only.
type PersistenceSink interface {
	Insert(ctx context.Context, projectID string, rec CanonicalRecord) error
}

// ScheduleStore persists import schedules.
type ScheduleStore interface {
	CreateSchedule(ctx context.Context, s *ImportSchedule) error
	GetSchedule(ctx context.Context, id uuid.UUID) (*ImportSchedule, error)
	UpdateSchedule(ctx context.Context, s *ImportSchedule) error
	UpdateRunState(ctx context.Context, id uuid.UUID, state RunState) error
	ClearProcessedFile(ctx context.Context, id uuid.UUID) error
	DeleteSchedule(ctx context.Context, id uuid.UUID) error
	ListSchedules(ctx context.Context, projectID string) ([]ImportSchedule, error)
	ListEnabledSchedules(ctx context.Context) ([]ImportSchedule, error)
}

// RunStore is the append-only run history.
type RunStore interface {
	AppendRun(ctx context.Context, run *ImportRun) error
	ListRuns(ctx context.Context, filter RunFilter) ([]ImportRun, error)
}
