// Package metrics provides Prometheus metrics registry and recording utilities.
//
// This package centralizes all application metrics including:
//   - Business metrics (items fetched, leads committed, duplicates)
//   - Poll cycle metrics (duration, outcome)
//   - Database query metrics
//
// All metrics are automatically registered with the Prometheus default registry
// and exposed via the /metrics endpoint.
//
// Example usage:
//
//	import "leadwatch/internal/observability/metrics"
//
//	func fetchSource(name string) {
//	    start := time.Now()
//	    // ... fetch items ...
//	    count := 10
//
//	    metrics.RecordSourceFetch(name, time.Since(start), count)
//	}
package metrics
