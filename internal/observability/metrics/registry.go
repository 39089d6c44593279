// Package metrics provides centralized Prometheus metrics for the application.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Business metrics track the lead pipeline
var (
	// LeadsTotal tracks the total number of leads recorded in the ledger
	LeadsTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "leads_total",
			Help: "Total number of leads recorded in the ledger",
		},
	)

	// ItemsFetchedTotal counts raw items fetched from each source
	ItemsFetchedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "items_fetched_total",
			Help: "Total number of raw items fetched from sources",
		},
		[]string{"source"},
	)

	// ItemsIrrelevantTotal counts items rejected by the relevance filter
	ItemsIrrelevantTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "items_irrelevant_total",
			Help: "Total number of items rejected by the relevance filter",
		},
	)

	// LeadsCommittedTotal counts leads appended to the ledger
	LeadsCommittedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "leads_committed_total",
			Help: "Total number of leads appended to the ledger",
		},
	)

	// LeadsDuplicatedTotal counts leads skipped as duplicates by dedup key
	LeadsDuplicatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leads_duplicated_total",
			Help: "Total number of leads skipped as duplicates",
		},
		[]string{"key"}, // key: id, fingerprint, append
	)

	// SourceFetchDuration measures time to fetch one source
	SourceFetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "source_fetch_duration_seconds",
			Help:    "Time taken to fetch items from a source",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
		},
		[]string{"source"},
	)

	// SourceFetchErrors counts errors during source fetching
	SourceFetchErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "source_fetch_errors_total",
			Help: "Total number of source fetch errors",
		},
		[]string{"source", "error_type"},
	)

	// PollCycleDuration measures the duration of a full poll cycle
	PollCycleDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "poll_cycle_duration_seconds",
			Help:    "Time taken to run a full poll cycle",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
		},
	)

	// PollCyclesTotal counts poll cycles by outcome
	PollCyclesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "poll_cycles_total",
			Help: "Total number of poll cycles",
		},
		[]string{"status"}, // status: success, partial, failure
	)
)

// Database metrics track ledger storage performance
var (
	// DBQueryDuration measures database query duration
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 10),
		},
		[]string{"operation"},
	)

	// DBConnectionsActive tracks active database connections
	DBConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "db_connections_active",
			Help: "Number of active database connections",
		},
	)

	// DBConnectionsIdle tracks idle database connections
	DBConnectionsIdle = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "db_connections_idle",
			Help: "Number of idle database connections",
		},
	)
)

// RecordOperationDuration records the duration of a named operation
func RecordOperationDuration(operation string, duration time.Duration) {
	DBQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
}
