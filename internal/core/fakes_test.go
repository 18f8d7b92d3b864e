package core

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ----------------------------------------------------------------------------
// Stores
// ----------------------------------------------------------------------------

type memStore struct {
	mu        sync.Mutex
	schedules map[uuid.UUID]ImportSchedule
	runs      []ImportRun
	listErr   error
	onDelete  func(id uuid.UUID) // Called before a schedule is removed
}

func newMemStore() *memStore {
	return &memStore{schedules: map[uuid.UUID]ImportSchedule{}}
}

func (m *memStore) CreateSchedule(_ context.Context, s *ImportSchedule) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.schedules[s.ID] = *s
	return nil
}

func (m *memStore) GetSchedule(_ context.Context, id uuid.UUID) (*ImportSchedule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.schedules[id]
	if !ok {
		return nil, ErrScheduleNotFound
	}
	return &s, nil
}

func (m *memStore) UpdateSchedule(_ context.Context, s *ImportSchedule) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.schedules[s.ID]; !ok {
		return ErrScheduleNotFound
	}
	m.schedules[s.ID] = *s
	return nil
}

func (m *memStore) UpdateRunState(_ context.Context, id uuid.UUID, st RunState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.schedules[id]
	if !ok {
		return ErrScheduleNotFound
	}
	at := st.LastRunAt
	s.LastRunAt = &at
	s.LastRunStatus = st.LastRunStatus
	s.LastRunMessage = st.LastRunMessage
	s.LastRunRecordCount = st.LastRunRecordCount
	s.NextRunAt = st.NextRunAt
	if st.LastProcessedFile != nil {
		s.LastProcessedFile = *st.LastProcessedFile
	}
	m.schedules[id] = s
	return nil
}

func (m *memStore) ClearProcessedFile(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.schedules[id]
	if !ok {
		return ErrScheduleNotFound
	}
	s.LastProcessedFile = ""
	m.schedules[id] = s
	return nil
}

func (m *memStore) DeleteSchedule(_ context.Context, id uuid.UUID) error {
	if m.onDelete != nil {
		m.onDelete(id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.schedules[id]; !ok {
		return ErrScheduleNotFound
	}
	delete(m.schedules, id)
	return nil
}

func (m *memStore) ListSchedules(_ context.Context, projectID string) ([]ImportSchedule, error) {
	return m.list(func(s ImportSchedule) bool { return s.ProjectID == projectID })
}

func (m *memStore) ListEnabledSchedules(context.Context) ([]ImportSchedule, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.list(func(s ImportSchedule) bool { return s.IsEnabled })
}

func (m *memStore) list(keep func(ImportSchedule) bool) ([]ImportSchedule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []ImportSchedule{}
	for _, s := range m.schedules {
		if keep(s) {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *memStore) AppendRun(_ context.Context, run *ImportRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs = append(m.runs, *run)
	return nil
}

func (m *memStore) ListRuns(_ context.Context, f RunFilter) ([]ImportRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []ImportRun{}
	for i := len(m.runs) - 1; i >= 0; i-- {
		r := m.runs[i]
		switch {
		case f.ScheduleID != nil:
			if r.ScheduleID == nil || *r.ScheduleID != *f.ScheduleID {
				continue
			}
		case r.ProjectID != f.ProjectID:
			continue
		}
		out = append(out, r)
		if f.Limit > 0 && len(out) == f.Limit {
			break
		}
	}
	return out, nil
}

func (m *memStore) runCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.runs)
}

func (m *memStore) schedule(id uuid.UUID) ImportSchedule {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.schedules[id]
}

// ----------------------------------------------------------------------------
// Drop location
// ----------------------------------------------------------------------------

type dropFile struct {
	info FileInfo
	data []byte
}

type fakeDrop struct {
	mu      sync.Mutex
	files   map[string][]dropFile
	listErr error
	readErr error
}

func newFakeDrop() *fakeDrop {
	return &fakeDrop{files: map[string][]dropFile{}}
}

func (d *fakeDrop) put(projectID, name, body string, mtime time.Time) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.files[projectID] = append(d.files[projectID], dropFile{
		info: FileInfo{Name: name, ModTime: mtime, Size: int64(len(body))},
		data: []byte(body),
	})
}

func (d *fakeDrop) List(_ context.Context, projectID string) ([]FileInfo, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.listErr != nil {
		return nil, d.listErr
	}
	out := make([]FileInfo, 0, len(d.files[projectID]))
	for _, f := range d.files[projectID] {
		out = append(out, f.info)
	}
	return out, nil
}

func (d *fakeDrop) Read(_ context.Context, projectID, name string) ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.readErr != nil {
		return nil, d.readErr
	}
	for _, f := range d.files[projectID] {
		if f.info.Name == name {
			return f.data, nil
		}
	}
	return nil, os.ErrNotExist
}

// ----------------------------------------------------------------------------
// Sink
// ----------------------------------------------------------------------------

var errDuplicate = errors.New("duplicate key: work order already exists for project")

type memSink struct {
	mu      sync.Mutex
	records map[string]map[string]CanonicalRecord
	inserts int

	// When set, each Insert waits for gate to be closed. gateProject limits
	// the gate to one project.
	gate        chan struct{}
	gateProject string
	entered     chan struct{}
}

func newMemSink() *memSink {
	return &memSink{records: map[string]map[string]CanonicalRecord{}}
}

func (s *memSink) Insert(ctx context.Context, projectID string, rec CanonicalRecord) error {
	if s.gate != nil && (s.gateProject == "" || s.gateProject == projectID) {
		select {
		case s.entered <- struct{}{}:
		default:
		}
		select {
		case <-s.gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.inserts++
	if s.records[projectID] == nil {
		s.records[projectID] = map[string]CanonicalRecord{}
	}
	if _, ok := s.records[projectID][rec.CustomerWoID]; ok {
		return fmt.Errorf("work order %s: %w", rec.CustomerWoID, errDuplicate)
	}
	s.records[projectID][rec.CustomerWoID] = rec
	return nil
}

func (s *memSink) count(projectID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records[projectID])
}

// ----------------------------------------------------------------------------
// Clock
// ----------------------------------------------------------------------------

type manualClock struct {
	mu     sync.Mutex
	now    time.Time
	ticker *manualTicker
}

func newManualClock(now time.Time) *manualClock {
	return &manualClock{now: now}
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func (c *manualClock) NewTicker(time.Duration) Ticker {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ticker = &manualTicker{ch: make(chan time.Time)}
	return c.ticker
}

type manualTicker struct {
	ch chan time.Time
}

func (t *manualTicker) C() <-chan time.Time { return t.ch }
func (t *manualTicker) Stop()               {}

// ----------------------------------------------------------------------------
// Fixtures
// ----------------------------------------------------------------------------

const testProject = "proj-1"

// ordersCSV has ten rows; rows 3, 6 and 9 lack a customer id.
func ordersCSV(prefix string) string {
	body := "Work Order ID,Customer ID,Customer Name,Address,Service Type,Old Meter Reading\n"
	for i := 1; i <= 10; i++ {
		cust := fmt.Sprintf("C-%d", i)
		if i%3 == 0 {
			cust = ""
		}
		body += fmt.Sprintf("%s-%d,%s,Customer %d,%d Main St,Meter Exchange,%d\n", prefix, i, cust, i, i, i*100)
	}
	return body
}

type testEnv struct {
	store   *memStore
	drop    *fakeDrop
	sink    *memSink
	clock   *manualClock
	service *Service
}

func newTestEnv() *testEnv {
	env := &testEnv{
		store: newMemStore(),
		drop:  newFakeDrop(),
		sink:  newMemSink(),
		clock: newManualClock(baseTime),
	}
	svc, err := NewService(Deps{
		Schedules: env.store,
		Runs:      env.store,
		Drop:      env.drop,
		Sink:      env.sink,
		Clock:     env.clock,
	}, ServiceConfig{})
	if err != nil {
		panic(err)
	}
	env.service = svc
	return env
}

func (env *testEnv) createSchedule(name string, mutate func(*ScheduleInput)) *ImportSchedule {
	in := ScheduleInput{
		ProjectID:            testProject,
		Name:                 name,
		Frequency:            FrequencyHourly,
		ProcessedFilePattern: "*.csv",
	}
	if mutate != nil {
		mutate(&in)
	}
	s, err := env.service.CreateSchedule(context.Background(), in)
	if err != nil {
		panic(err)
	}
	return s
}
