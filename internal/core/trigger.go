package core

// trigger.go decides when schedules are due.
//
// Fixed frequencies are measured from the previous run: a schedule is due
// once now >= lastRunAt + interval, and immediately if it has never run.
// Custom schedules use standard five-field cron expressions (plus the
// @hourly/@daily style descriptors); one is due when the first activation
// after its reference time has passed. Manual and disabled schedules are
// never due.

import (
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// TriggerEvaluator decides whether a schedule should run.
type TriggerEvaluator interface {
	// IsDue reports whether s should run at now.
	IsDue(s *ImportSchedule, now time.Time) bool
	// NextRunAt returns the next planned run after lastRunAt, or nil when the
	// schedule never runs on its own.
	NextRunAt(s *ImportSchedule, lastRunAt time.Time) *time.Time
	// Validate rejects schedules that can never be evaluated.
	Validate(s *ImportSchedule) error
}

// CronEvaluator is the TriggerEvaluator backed by robfig/cron.
type CronEvaluator struct {
	parser cron.Parser
}

var _ TriggerEvaluator = (*CronEvaluator)(nil)

// NewCronEvaluator returns an evaluator for standard cron expressions.
func NewCronEvaluator() *CronEvaluator {
	return &CronEvaluator{
		parser: cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor),
	}
}

// fixedIntervals maps fixed frequencies to their period. Monthly is handled
// separately as a calendar month.
var fixedIntervals = map[Frequency]time.Duration{
	FrequencyEvery15Minutes: 15 * time.Minute,
	FrequencyEvery30Minutes: 30 * time.Minute,
	FrequencyHourly:         time.Hour,
	FrequencyEvery2Hours:    2 * time.Hour,
	FrequencyEvery6Hours:    6 * time.Hour,
	FrequencyEvery12Hours:   12 * time.Hour,
	FrequencyDaily:          24 * time.Hour,
	FrequencyWeekly:         7 * 24 * time.Hour,
}

// FinestInterval is the shortest fixed frequency; the polling tick must not
// exceed it.
const FinestInterval = 15 * time.Minute

func (e *CronEvaluator) IsDue(s *ImportSchedule, now time.Time) bool {
	if s == nil || !s.IsEnabled {
		return false
	}

	switch s.Frequency {
	case FrequencyManual:
		return false
	case FrequencyCustom:
		sched, err := e.parse(s.CustomCronExpression)
		if err != nil {
			return false
		}
		ref := s.CreatedAt
		if s.LastRunAt != nil {
			ref = *s.LastRunAt
		}
		if ref.IsZero() {
			return true
		}
		return !sched.Next(ref).After(now)
	default:
		if s.LastRunAt == nil {
			return true
		}
		next, ok := addInterval(s.Frequency, *s.LastRunAt)
		return ok && !now.Before(next)
	}
}

func (e *CronEvaluator) NextRunAt(s *ImportSchedule, lastRunAt time.Time) *time.Time {
	if s == nil || !s.IsEnabled {
		return nil
	}

	switch s.Frequency {
	case FrequencyManual:
		return nil
	case FrequencyCustom:
		sched, err := e.parse(s.CustomCronExpression)
		if err != nil {
			return nil
		}
		next := sched.Next(lastRunAt)
		return &next
	default:
		next, ok := addInterval(s.Frequency, lastRunAt)
		if !ok {
			return nil
		}
		return &next
	}
}

func (e *CronEvaluator) Validate(s *ImportSchedule) error {
	if !s.Frequency.Valid() {
		return &ScheduleConfigError{Field: "scheduleFrequency", Reason: "unknown frequency " + string(s.Frequency)}
	}
	if s.Frequency != FrequencyCustom {
		return nil
	}
	if strings.TrimSpace(s.CustomCronExpression) == "" {
		return &ScheduleConfigError{Field: "customCronExpression", Reason: "required when scheduleFrequency is custom"}
	}
	if _, err := e.parse(s.CustomCronExpression); err != nil {
		return &ScheduleConfigError{Field: "customCronExpression", Reason: err.Error()}
	}
	return nil
}

func (e *CronEvaluator) parse(expr string) (cron.Schedule, error) {
	return e.parser.Parse(strings.TrimSpace(expr))
}

// addInterval advances t by one period of f.
func addInterval(f Frequency, t time.Time) (time.Time, bool) {
	if f == FrequencyMonthly {
		return t.AddDate(0, 1, 0), true
	}
	d, ok := fixedIntervals[f]
	if !ok {
		return time.Time{}, false
	}
	return t.Add(d), true
}
