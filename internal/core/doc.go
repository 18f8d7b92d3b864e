// Package core provides the business logic for scheduled work-order imports.
//
// This package is the heart of the importer, containing all domain logic
// independent of any transport or storage layer. Web handlers, the CLI and
// tests drive it through [Service] and plug in storage through the
// [ScheduleStore], [RunStore], [DropLocation] and [PersistenceSink]
// interfaces.
//
// # Pipeline
//
// A run moves through the same stages whether it was triggered by the
// scheduler, by an explicit run request, or by an ad-hoc upload:
//
//  1. [FileSelector] picks the newest matching file in the project's drop location
//  2. [Dispatch] turns the bytes into a [ParsedTable] based on the file extension
//  3. [AutoMap] proposes a [ColumnMapping] unless the schedule carries one
//  4. [MappingSession.MaterializeStrict] converts rows into [CanonicalRecord] values
//  5. Each record is handed to the [PersistenceSink]; failures are kept per row
//  6. [HistoryRecorder] appends the [ImportRun] and updates the schedule status
//
// # Scheduling
//
// [Scheduler] polls on a fixed tick and asks the [TriggerEvaluator] which
// enabled schedules are due. Fixed frequencies are measured from the last run;
// custom schedules use standard five-field cron expressions.
//
// Each schedule is guarded by its own lock in [ScheduleLocks]. A run request
// for a schedule that is already running fails immediately with
// [ConcurrencyError] instead of queueing.
//
// # Error Handling
//
// File-level failures ([FormatError], [MappingError]) fail the whole run.
// Row-level failures ([ValidationError], [PersistenceError]) are collected in
// [ImportRun.ErrorDetails] and the rest of the batch continues. Technical
// errors are mapped to user-facing messages with support codes by [MapError].
package core
