package worker

import (
	"leadwatch/internal/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// WorkerMetrics provides Prometheus metrics for the worker component.
// It embeds the standard ConfigMetrics for configuration monitoring and adds
// worker-specific metrics for poll job execution tracking.
//
// Embedded metrics (from ConfigMetrics):
//   - worker_config_load_timestamp: Unix timestamp of last configuration load
//   - worker_config_validation_errors_total: Total validation errors by field
//   - worker_config_fallbacks_total: Total fallback operations by field
//   - worker_config_fallback_active: 1 if any fallback active, 0 otherwise
//
// Worker-specific metrics:
//   - worker_poll_job_runs_total: Total poll job runs by status (success/failure)
//   - worker_poll_job_duration_seconds: Duration histogram of poll job execution
//   - worker_poll_job_leads_committed_total: Total leads committed per job run
//   - worker_poll_job_last_success_timestamp: Unix timestamp of last successful run
//
// Example usage:
//
//	metrics := NewWorkerMetrics()
//	metrics.MustRegister()
//
//	start := time.Now()
//	defer func() {
//	    metrics.RecordJobRun("success")
//	    metrics.RecordJobDuration(time.Since(start).Seconds())
//	    metrics.RecordLeadsCommitted(3)
//	    metrics.RecordLastSuccess()
//	}()
type WorkerMetrics struct {
	// Embedded configuration metrics
	*config.ConfigMetrics

	// PollJobRunsTotal counts the total number of poll job runs.
	// Type: Counter
	// Labels: status (success, failure)
	PollJobRunsTotal *prometheus.CounterVec

	// PollJobDurationSeconds measures the duration of poll job execution.
	// Type: Histogram
	// Buckets: 1s, 5s, 15s, 30s, 1m, 3m, 5m (a cycle should fit well inside
	// the poll interval)
	PollJobDurationSeconds prometheus.Histogram

	// PollJobLeadsCommittedTotal counts the total number of leads committed per job.
	// Type: Counter
	PollJobLeadsCommittedTotal prometheus.Counter

	// PollJobLastSuccessTimestamp records the Unix timestamp of the last successful run.
	// Type: Gauge
	PollJobLastSuccessTimestamp prometheus.Gauge
}

// NewWorkerMetrics creates a new WorkerMetrics instance with all metrics initialized.
// Metrics are created but not registered with Prometheus. Call MustRegister() to register.
func NewWorkerMetrics() *WorkerMetrics {
	return &WorkerMetrics{
		ConfigMetrics: config.NewConfigMetrics("worker"),

		PollJobRunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "worker_poll_job_runs_total",
			Help: "Total number of poll job runs by status (success/failure)",
		}, []string{"status"}),

		PollJobDurationSeconds: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "worker_poll_job_duration_seconds",
			Help:    "Duration of poll job execution in seconds",
			Buckets: []float64{1, 5, 15, 30, 60, 180, 300},
		}),

		PollJobLeadsCommittedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "worker_poll_job_leads_committed_total",
			Help: "Total number of leads committed across all poll job runs",
		}),

		PollJobLastSuccessTimestamp: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "worker_poll_job_last_success_timestamp",
			Help: "Unix timestamp of the last successful poll job run",
		}),
	}
}

// MustRegister is a no-op method for API compatibility.
// Metrics are automatically registered via promauto when created in NewWorkerMetrics.
func (m *WorkerMetrics) MustRegister() {
	// No-op: metrics are auto-registered via promauto
}

// RecordJobRun increments the job run counter for the given status.
// Status should be either "success" or "failure".
func (m *WorkerMetrics) RecordJobRun(status string) {
	m.PollJobRunsTotal.WithLabelValues(status).Inc()
}

// RecordJobDuration observes the duration of a poll job execution.
// Duration should be in seconds.
func (m *WorkerMetrics) RecordJobDuration(seconds float64) {
	m.PollJobDurationSeconds.Observe(seconds)
}

// RecordLeadsCommitted adds the number of committed leads to the total counter.
func (m *WorkerMetrics) RecordLeadsCommitted(count int64) {
	m.PollJobLeadsCommittedTotal.Add(float64(count))
}

// RecordLastSuccess records the current time as the last successful job completion.
func (m *WorkerMetrics) RecordLastSuccess() {
	m.PollJobLastSuccessTimestamp.SetToCurrentTime()
}
