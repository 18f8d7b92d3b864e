// Package store persists schedules, run history and work orders.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/JonMunkholm/woimport/internal/core"
)

// DBTX is the subset of pgx used by the stores. Both *pgxpool.Pool and
// pgx.Tx satisfy it.
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// DefaultRunLimit caps history queries that do not set a limit.
const DefaultRunLimit = 100

var (
	_ core.ScheduleStore = (*PostgresStore)(nil)
	_ core.RunStore      = (*PostgresStore)(nil)
)

// PostgresStore implements core.ScheduleStore and core.RunStore.
type PostgresStore struct {
	db DBTX
}

// NewPostgresStore creates a store backed by db.
func NewPostgresStore(db DBTX) *PostgresStore {
	return &PostgresStore{db: db}
}

const scheduleColumns = `id, project_id, name, delimiter, has_header, column_mapping,
	schedule_frequency, custom_cron_expression, is_enabled, processed_file_pattern,
	last_processed_file, last_run_at, last_run_status, last_run_message,
	last_run_record_count, next_run_at, created_at, updated_at`

// CreateSchedule inserts a new schedule.
func (p *PostgresStore) CreateSchedule(ctx context.Context, s *core.ImportSchedule) error {
	mapping, err := marshalMapping(s.ColumnMapping)
	if err != nil {
		return err
	}

	query := `INSERT INTO import_schedules (` + scheduleColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`

	_, err = p.db.Exec(ctx, query,
		s.ID, s.ProjectID, s.Name, s.Delimiter, s.HasHeader, mapping,
		string(s.Frequency), ToPgText(s.CustomCronExpression), s.IsEnabled, ToPgText(s.ProcessedFilePattern),
		ToPgText(s.LastProcessedFile), ToPgTimestamptz(s.LastRunAt), ToPgText(string(s.LastRunStatus)), ToPgText(s.LastRunMessage),
		s.LastRunRecordCount, ToPgTimestamptz(s.NextRunAt), s.CreatedAt.UTC(), s.UpdatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert schedule: %w", err)
	}
	return nil
}

// GetSchedule loads one schedule.
func (p *PostgresStore) GetSchedule(ctx context.Context, id uuid.UUID) (*core.ImportSchedule, error) {
	query := `SELECT ` + scheduleColumns + ` FROM import_schedules WHERE id = $1`
	s, err := scanSchedule(p.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, notFound(err)
	}
	return s, nil
}

// UpdateSchedule writes the configuration fields and nextRunAt. Run state is
// left to UpdateRunState.
func (p *PostgresStore) UpdateSchedule(ctx context.Context, s *core.ImportSchedule) error {
	mapping, err := marshalMapping(s.ColumnMapping)
	if err != nil {
		return err
	}

	query := `UPDATE import_schedules SET
		name = $2, delimiter = $3, has_header = $4, column_mapping = $5,
		schedule_frequency = $6, custom_cron_expression = $7, is_enabled = $8,
		processed_file_pattern = $9, next_run_at = $10, updated_at = $11
		WHERE id = $1`

	tag, err := p.db.Exec(ctx, query,
		s.ID, s.Name, s.Delimiter, s.HasHeader, mapping,
		string(s.Frequency), ToPgText(s.CustomCronExpression), s.IsEnabled,
		ToPgText(s.ProcessedFilePattern), ToPgTimestamptz(s.NextRunAt), s.UpdatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("update schedule: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return core.ErrScheduleNotFound
	}
	return nil
}

// UpdateRunState records the outcome of a run. A nil LastProcessedFile keeps
// the stored marker.
func (p *PostgresStore) UpdateRunState(ctx context.Context, id uuid.UUID, st core.RunState) error {
	var marker pgtype.Text
	if st.LastProcessedFile != nil {
		marker = pgtype.Text{String: *st.LastProcessedFile, Valid: true}
	}

	query := `UPDATE import_schedules SET
		last_run_at = $2, last_run_status = $3, last_run_message = $4,
		last_run_record_count = $5, next_run_at = $6,
		last_processed_file = COALESCE($7, last_processed_file),
		updated_at = now()
		WHERE id = $1`

	tag, err := p.db.Exec(ctx, query,
		id, st.LastRunAt.UTC(), string(st.LastRunStatus), ToPgText(st.LastRunMessage),
		st.LastRunRecordCount, ToPgTimestamptz(st.NextRunAt), marker,
	)
	if err != nil {
		return fmt.Errorf("update run state: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return core.ErrScheduleNotFound
	}
	return nil
}

// ClearProcessedFile removes the processed-file marker.
func (p *PostgresStore) ClearProcessedFile(ctx context.Context, id uuid.UUID) error {
	tag, err := p.db.Exec(ctx,
		`UPDATE import_schedules SET last_processed_file = NULL, updated_at = now() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("clear processed file: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return core.ErrScheduleNotFound
	}
	return nil
}

// DeleteSchedule removes a schedule. Runs referencing it are kept.
func (p *PostgresStore) DeleteSchedule(ctx context.Context, id uuid.UUID) error {
	tag, err := p.db.Exec(ctx, `DELETE FROM import_schedules WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete schedule: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return core.ErrScheduleNotFound
	}
	return nil
}

// ListSchedules returns a project's schedules ordered by name.
func (p *PostgresStore) ListSchedules(ctx context.Context, projectID string) ([]core.ImportSchedule, error) {
	query := `SELECT ` + scheduleColumns + ` FROM import_schedules
		WHERE project_id = $1 ORDER BY name, created_at`
	return p.querySchedules(ctx, query, projectID)
}

// ListEnabledSchedules returns every enabled schedule across projects.
func (p *PostgresStore) ListEnabledSchedules(ctx context.Context) ([]core.ImportSchedule, error) {
	query := `SELECT ` + scheduleColumns + ` FROM import_schedules
		WHERE is_enabled ORDER BY next_run_at NULLS FIRST, id`
	return p.querySchedules(ctx, query)
}

func (p *PostgresStore) querySchedules(ctx context.Context, query string, args ...interface{}) ([]core.ImportSchedule, error) {
	rows, err := p.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list schedules: %w", err)
	}
	defer rows.Close()

	schedules := make([]core.ImportSchedule, 0)
	for rows.Next() {
		s, err := scanSchedule(rows)
		if err != nil {
			return nil, err
		}
		schedules = append(schedules, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return schedules, nil
}

// AppendRun inserts a run record.
func (p *PostgresStore) AppendRun(ctx context.Context, run *core.ImportRun) error {
	details := run.ErrorDetails
	if details == nil {
		details = []string{}
	}

	query := `INSERT INTO import_runs (id, schedule_id, project_id, import_source, file_name,
		status, records_imported, records_failed, error_details, started_at, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := p.db.Exec(ctx, query,
		run.ID, ToPgUUID(run.ScheduleID), run.ProjectID, string(run.ImportSource), run.FileName,
		string(run.Status), run.RecordsImported, run.RecordsFailed, details,
		run.StartedAt.UTC(), run.CompletedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// ListRuns returns runs newest first.
func (p *PostgresStore) ListRuns(ctx context.Context, filter core.RunFilter) ([]core.ImportRun, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = DefaultRunLimit
	}

	query := `SELECT id, schedule_id, project_id, import_source, file_name, status,
		records_imported, records_failed, error_details, started_at, completed_at
		FROM import_runs`
	var args []interface{}
	if filter.ScheduleID != nil {
		query += ` WHERE schedule_id = $1`
		args = append(args, *filter.ScheduleID)
	} else {
		query += ` WHERE project_id = $1`
		args = append(args, filter.ProjectID)
	}
	query += ` ORDER BY started_at DESC, id LIMIT $2`
	args = append(args, limit)

	rows, err := p.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	runs := make([]core.ImportRun, 0)
	for rows.Next() {
		var (
			run        core.ImportRun
			scheduleID pgtype.UUID
			source     string
			status     string
			startedAt  time.Time
			finishedAt time.Time
		)
		if err := rows.Scan(
			&run.ID, &scheduleID, &run.ProjectID, &source, &run.FileName, &status,
			&run.RecordsImported, &run.RecordsFailed, &run.ErrorDetails, &startedAt, &finishedAt,
		); err != nil {
			return nil, err
		}
		run.ScheduleID = FromPgUUID(scheduleID)
		run.ImportSource = core.ImportSource(source)
		run.Status = core.RunStatus(status)
		run.StartedAt = startedAt.UTC()
		run.CompletedAt = finishedAt.UTC()
		if run.ErrorDetails == nil {
			run.ErrorDetails = []string{}
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return runs, nil
}

// scanSchedule reads one row selected with scheduleColumns.
func scanSchedule(row pgx.Row) (*core.ImportSchedule, error) {
	var (
		s           core.ImportSchedule
		mapping     []byte
		frequency   string
		cron        pgtype.Text
		pattern     pgtype.Text
		marker      pgtype.Text
		lastRunAt   pgtype.Timestamptz
		lastStatus  pgtype.Text
		lastMessage pgtype.Text
		nextRunAt   pgtype.Timestamptz
	)

	err := row.Scan(
		&s.ID, &s.ProjectID, &s.Name, &s.Delimiter, &s.HasHeader, &mapping,
		&frequency, &cron, &s.IsEnabled, &pattern,
		&marker, &lastRunAt, &lastStatus, &lastMessage,
		&s.LastRunRecordCount, &nextRunAt, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	s.Frequency = core.Frequency(frequency)
	s.CustomCronExpression = FromPgText(cron)
	s.ProcessedFilePattern = FromPgText(pattern)
	s.LastProcessedFile = FromPgText(marker)
	s.LastRunAt = FromPgTimestamptz(lastRunAt)
	s.LastRunStatus = core.RunStatus(FromPgText(lastStatus))
	s.LastRunMessage = FromPgText(lastMessage)
	s.NextRunAt = FromPgTimestamptz(nextRunAt)
	s.CreatedAt = s.CreatedAt.UTC()
	s.UpdatedAt = s.UpdatedAt.UTC()

	s.ColumnMapping = core.ColumnMapping{}
	if len(mapping) > 0 {
		if err := json.Unmarshal(mapping, &s.ColumnMapping); err != nil {
			return nil, fmt.Errorf("decode column mapping for schedule %s: %w", s.ID, err)
		}
	}
	return &s, nil
}

func marshalMapping(m core.ColumnMapping) ([]byte, error) {
	if m == nil {
		m = core.ColumnMapping{}
	}
	data, err := json.Marshal(m.Clone())
	if err != nil {
		return nil, fmt.Errorf("encode column mapping: %w", err)
	}
	return data, nil
}
