// Package metrics defines the Prometheus collectors for the import engine.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	namespace = "woimport"

	importRunsTotal       = "runs_total"
	importRecordsTotal    = "records_total"
	importRunDuration     = "run_duration_seconds"
	importActiveRuns      = "active_runs"
	schedulerTicksTotal   = "scheduler_ticks_total"
	schedulerDueSchedules = "scheduler_due_schedules"

	// Labels
	sourceLabel  = "source"
	statusLabel  = "status"
	outcomeLabel = "outcome"
)

/**
* Metrics definition
**/
var runsTotalMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      importRunsTotal,
		Help:      "number of finished import runs by source and status",
	},
	[]string{sourceLabel, statusLabel},
)

var recordsTotalMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      importRecordsTotal,
		Help:      "number of records processed by outcome",
	},
	[]string{outcomeLabel},
)

var runDurationMetric = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      importRunDuration,
		Help:      "duration of import runs",
		Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
	},
	[]string{sourceLabel},
)

var activeRunsMetric = prometheus.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      importActiveRuns,
		Help:      "number of import runs in progress",
	},
)

var schedulerTicksMetric = prometheus.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      schedulerTicksTotal,
		Help:      "number of scheduler polling ticks",
	},
)

var dueSchedulesMetric = prometheus.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      schedulerDueSchedules,
		Help:      "number of schedules found due on the last tick",
	},
)

// ObserveRun records a finished run.
func ObserveRun(source, status string, imported, failed int, d time.Duration) {
	runsTotalMetric.With(prometheus.Labels{sourceLabel: source, statusLabel: status}).Inc()
	recordsTotalMetric.With(prometheus.Labels{outcomeLabel: "imported"}).Add(float64(imported))
	recordsTotalMetric.With(prometheus.Labels{outcomeLabel: "failed"}).Add(float64(failed))
	runDurationMetric.With(prometheus.Labels{sourceLabel: source}).Observe(d.Seconds())
}

// RunStarted increments the active run gauge.
func RunStarted() {
	activeRunsMetric.Inc()
}

// RunFinished decrements the active run gauge.
func RunFinished() {
	activeRunsMetric.Dec()
}

// ObserveTick records one scheduler tick and how many schedules were due.
func ObserveTick(due int) {
	schedulerTicksMetric.Inc()
	dueSchedulesMetric.Set(float64(due))
}

func init() {
	registerMetrics()
}

func registerMetrics() {
	prometheus.MustRegister(runsTotalMetric)
	prometheus.MustRegister(recordsTotalMetric)
	prometheus.MustRegister(runDurationMetric)
	prometheus.MustRegister(activeRunsMetric)
	prometheus.MustRegister(schedulerTicksMetric)
	prometheus.MustRegister(dueSchedulesMetric)
}
