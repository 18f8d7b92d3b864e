package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/woimport/internal/core"
)

var (
	_ core.ScheduleStore   = (*MemoryStore)(nil)
	_ core.RunStore        = (*MemoryStore)(nil)
	_ core.PersistenceSink = (*MemorySink)(nil)
)

// MemoryStore keeps schedules and runs in process memory.
type MemoryStore struct {
	mu        sync.RWMutex
	schedules map[uuid.UUID]core.ImportSchedule
	runs      []core.ImportRun
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{schedules: make(map[uuid.UUID]core.ImportSchedule)}
}

func (m *MemoryStore) CreateSchedule(_ context.Context, s *core.ImportSchedule) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.schedules[s.ID]; ok {
		return fmt.Errorf("insert schedule: duplicate key %s", s.ID)
	}
	m.schedules[s.ID] = copySchedule(*s)
	return nil
}

func (m *MemoryStore) GetSchedule(_ context.Context, id uuid.UUID) (*core.ImportSchedule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.schedules[id]
	if !ok {
		return nil, core.ErrScheduleNotFound
	}
	out := copySchedule(s)
	return &out, nil
}

func (m *MemoryStore) UpdateSchedule(_ context.Context, s *core.ImportSchedule) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.schedules[s.ID]
	if !ok {
		return core.ErrScheduleNotFound
	}
	cur.Name = s.Name
	cur.Delimiter = s.Delimiter
	cur.HasHeader = s.HasHeader
	cur.ColumnMapping = s.ColumnMapping.Clone()
	cur.Frequency = s.Frequency
	cur.CustomCronExpression = s.CustomCronExpression
	cur.IsEnabled = s.IsEnabled
	cur.ProcessedFilePattern = s.ProcessedFilePattern
	cur.NextRunAt = copyTime(s.NextRunAt)
	cur.UpdatedAt = s.UpdatedAt
	m.schedules[s.ID] = cur
	return nil
}

func (m *MemoryStore) UpdateRunState(_ context.Context, id uuid.UUID, st core.RunState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.schedules[id]
	if !ok {
		return core.ErrScheduleNotFound
	}
	ranAt := st.LastRunAt
	cur.LastRunAt = &ranAt
	cur.LastRunStatus = st.LastRunStatus
	cur.LastRunMessage = st.LastRunMessage
	cur.LastRunRecordCount = st.LastRunRecordCount
	cur.NextRunAt = copyTime(st.NextRunAt)
	if st.LastProcessedFile != nil {
		cur.LastProcessedFile = *st.LastProcessedFile
	}
	cur.UpdatedAt = st.LastRunAt
	m.schedules[id] = cur
	return nil
}

func (m *MemoryStore) ClearProcessedFile(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.schedules[id]
	if !ok {
		return core.ErrScheduleNotFound
	}
	cur.LastProcessedFile = ""
	m.schedules[id] = cur
	return nil
}

func (m *MemoryStore) DeleteSchedule(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.schedules[id]; !ok {
		return core.ErrScheduleNotFound
	}
	delete(m.schedules, id)
	return nil
}

func (m *MemoryStore) ListSchedules(_ context.Context, projectID string) ([]core.ImportSchedule, error) {
	return m.filterSchedules(func(s core.ImportSchedule) bool { return s.ProjectID == projectID }), nil
}

func (m *MemoryStore) ListEnabledSchedules(_ context.Context) ([]core.ImportSchedule, error) {
	return m.filterSchedules(func(s core.ImportSchedule) bool { return s.IsEnabled }), nil
}

func (m *MemoryStore) filterSchedules(keep func(core.ImportSchedule) bool) []core.ImportSchedule {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]core.ImportSchedule, 0)
	for _, s := range m.schedules {
		if keep(s) {
			out = append(out, copySchedule(s))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out
}

func (m *MemoryStore) AppendRun(_ context.Context, run *core.ImportRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r := *run
	r.ErrorDetails = append([]string{}, run.ErrorDetails...)
	m.runs = append(m.runs, r)
	return nil
}

func (m *MemoryStore) ListRuns(_ context.Context, filter core.RunFilter) ([]core.ImportRun, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	limit := filter.Limit
	if limit <= 0 {
		limit = DefaultRunLimit
	}

	out := make([]core.ImportRun, 0)
	// Newest first; equal start times keep reverse insertion order.
	for i := len(m.runs) - 1; i >= 0; i-- {
		r := m.runs[i]
		if filter.ScheduleID != nil {
			if r.ScheduleID == nil || *r.ScheduleID != *filter.ScheduleID {
				continue
			}
		} else if r.ProjectID != filter.ProjectID {
			continue
		}
		r.ErrorDetails = append([]string{}, r.ErrorDetails...)
		out = append(out, r)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// MemorySink stores work orders in memory, enforcing one record per
// customer work order ID per project.
type MemorySink struct {
	mu      sync.Mutex
	records map[string][]core.CanonicalRecord
	seen    map[string]map[string]bool
}

// NewMemorySink creates an empty sink.
func NewMemorySink() *MemorySink {
	return &MemorySink{
		records: make(map[string][]core.CanonicalRecord),
		seen:    make(map[string]map[string]bool),
	}
}

// Insert stores rec or rejects a duplicate customer work order ID.
func (m *MemorySink) Insert(_ context.Context, projectID string, rec core.CanonicalRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	ids := m.seen[projectID]
	if ids == nil {
		ids = make(map[string]bool)
		m.seen[projectID] = ids
	}
	if ids[rec.CustomerWoID] {
		return fmt.Errorf("work order %s: %w", rec.CustomerWoID, ErrDuplicateWorkOrder)
	}
	ids[rec.CustomerWoID] = true
	m.records[projectID] = append(m.records[projectID], rec)
	return nil
}

// Records returns the work orders stored for a project, in insert order.
func (m *MemorySink) Records(projectID string) []core.CanonicalRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]core.CanonicalRecord{}, m.records[projectID]...)
}

func copySchedule(s core.ImportSchedule) core.ImportSchedule {
	s.ColumnMapping = s.ColumnMapping.Clone()
	s.LastRunAt = copyTime(s.LastRunAt)
	s.NextRunAt = copyTime(s.NextRunAt)
	return s
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
