package metrics

import (
	"time"
)

// RecordItemsFetched records the number of raw items fetched from a source.
// This metric helps track source activity and the search API vs feed overlap.
func RecordItemsFetched(source string, count int) {
	ItemsFetchedTotal.WithLabelValues(source).Add(float64(count))
}

// RecordSourceFetch records metrics for one source fetch within a poll cycle.
func RecordSourceFetch(source string, duration time.Duration, itemsFound int) {
	SourceFetchDuration.WithLabelValues(source).Observe(duration.Seconds())
	if itemsFound > 0 {
		RecordItemsFetched(source, itemsFound)
	}
}

// RecordSourceFetchError records an error during source fetching.
func RecordSourceFetchError(source, errorType string) {
	SourceFetchErrors.WithLabelValues(source, errorType).Inc()
}

// RecordItemIrrelevant records an item rejected by the relevance filter.
func RecordItemIrrelevant() {
	ItemsIrrelevantTotal.Inc()
}

// RecordLeadCommitted records a lead appended to the ledger.
func RecordLeadCommitted() {
	LeadsCommittedTotal.Inc()
}

// RecordLeadDuplicated records a lead skipped as a duplicate.
// Key should be "id", "fingerprint" or "append" depending on which dedup
// check caught it.
func RecordLeadDuplicated(key string) {
	LeadsDuplicatedTotal.WithLabelValues(key).Inc()
}

// RecordPollCycle records the outcome of a full poll cycle.
// Status should be "success", "partial" (some sources failed) or "failure".
func RecordPollCycle(duration time.Duration, status string) {
	PollCycleDuration.Observe(duration.Seconds())
	PollCyclesTotal.WithLabelValues(status).Inc()
}

// UpdateLeadsTotal updates the total count of leads in the ledger.
// This gauge should be updated periodically to reflect the current state.
func UpdateLeadsTotal(count int64) {
	LeadsTotal.Set(float64(count))
}

// RecordDBQuery records the duration of a database query operation.
// Operation should describe the query type (e.g., "contains_lead", "append_lead").
func RecordDBQuery(operation string, duration time.Duration) {
	DBQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// UpdateDBConnectionStats updates database connection pool statistics.
func UpdateDBConnectionStats(active, idle int) {
	DBConnectionsActive.Set(float64(active))
	DBConnectionsIdle.Set(float64(idle))
}
