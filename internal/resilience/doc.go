// Package resilience provides reliability and fault tolerance patterns for the application.
// It includes implementations of circuit breakers and retry logic to keep
// the poll loop healthy when upstream services misbehave.
//
// The package supports:
//   - Circuit breakers for external calls (search API, RSS feeds, the database)
//   - Retry logic with exponential backoff and jitter
//
// Usage Example:
//
//	cb := circuitbreaker.New(circuitbreaker.SourceFetchConfig("search-api"))
//	result, err := cb.Execute(func() (interface{}, error) {
//	    return fetchSubmissions()
//	})
//
//	retryConfig := retry.SourceFetchConfig()
//	err := retry.WithBackoff(ctx, retryConfig, func() error {
//	    return performOperation()
//	})
package resilience
