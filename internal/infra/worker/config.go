package worker

import (
	"fmt"
	"log/slog"
	"time"

	"leadwatch/internal/pkg/config"
)

// WorkerConfig holds the configuration for the worker component.
// This configuration controls the poll cadence, per-cycle timeouts,
// notification settings and the health check port.
//
// Configuration sources:
//   - Environment variables (loaded via LoadConfigFromEnv)
//   - Default values (provided by DefaultConfig)
//
// All fields have sensible defaults and validation rules so the worker can
// operate safely even with invalid or missing configuration.
type WorkerConfig struct {
	// PollInterval is the time between poll cycles.
	// Range: 10s-1h
	// Default: 3 minutes
	PollInterval time.Duration

	// CycleTimeout is the maximum duration for a single poll cycle.
	// After this timeout, the cycle is cancelled.
	// Range: 10s-30m
	// Default: equal to PollInterval so cycles never overlap
	CycleTimeout time.Duration

	// SourceTimeout bounds a single source fetch within a cycle.
	// Range: 1s-10m
	// Default: 60 seconds
	SourceTimeout time.Duration

	// NotifyMaxConcurrent is the maximum number of concurrent notification operations.
	// Range: 1-100
	// Default: 10
	NotifyMaxConcurrent int

	// HealthPort is the port number for the health check HTTP server.
	// Range: 1024-65535 (avoid privileged ports)
	// Default: 9091
	HealthPort int
}

// DefaultConfig returns a WorkerConfig with sensible default values.
// The 3-minute interval keeps the pipeline close behind the upstream posts
// without hammering either source.
func DefaultConfig() WorkerConfig {
	return WorkerConfig{
		PollInterval:        3 * time.Minute,
		CycleTimeout:        3 * time.Minute,
		SourceTimeout:       60 * time.Second,
		NotifyMaxConcurrent: 10,
		HealthPort:          9091,
	}
}

// Validate checks if the configuration values are valid.
// If multiple fields are invalid, all errors are collected and returned together.
func (c *WorkerConfig) Validate() error {
	var errors []error

	if err := config.ValidateDuration(c.PollInterval, 10*time.Second, time.Hour); err != nil {
		errors = append(errors, fmt.Errorf("poll interval: %w", err))
	}

	if err := config.ValidateDuration(c.CycleTimeout, 10*time.Second, 30*time.Minute); err != nil {
		errors = append(errors, fmt.Errorf("cycle timeout: %w", err))
	}

	if err := config.ValidateDuration(c.SourceTimeout, time.Second, 10*time.Minute); err != nil {
		errors = append(errors, fmt.Errorf("source timeout: %w", err))
	}

	if err := config.ValidateIntRange(c.NotifyMaxConcurrent, 1, 100); err != nil {
		errors = append(errors, fmt.Errorf("notify max concurrent: %w", err))
	}

	if err := config.ValidateIntRange(c.HealthPort, 1024, 65535); err != nil {
		errors = append(errors, fmt.Errorf("health port: %w", err))
	}

	if len(errors) > 0 {
		return fmt.Errorf("validation failed: %v", errors)
	}

	return nil
}

// LoadConfigFromEnv loads worker configuration from environment variables
// with validation and automatic fallback to default values on failure.
//
// This function implements the fail-open strategy:
//  1. Start with DefaultConfig() as base
//  2. Load each field from environment variables
//  3. Validate each loaded value
//  4. If validation fails: use default value, log warning, increment metrics
//  5. Never return error - always return a valid configuration
//
// Environment variables:
//   - POLL_INTERVAL: Duration string, e.g. "3m" (default: 3 minutes)
//   - CYCLE_TIMEOUT: Duration string (default: equal to POLL_INTERVAL)
//   - SOURCE_TIMEOUT: Duration string (default: 60 seconds)
//   - NOTIFY_MAX_CONCURRENT: Integer 1-100 (default: 10)
//   - WORKER_HEALTH_PORT: Integer 1024-65535 (default: 9091)
func LoadConfigFromEnv(logger *slog.Logger, metrics *WorkerMetrics) (*WorkerConfig, error) {
	cfg := DefaultConfig()
	fallbackApplied := false

	result := config.LoadEnvDuration("POLL_INTERVAL", cfg.PollInterval, func(d time.Duration) error {
		return config.ValidateDuration(d, 10*time.Second, time.Hour)
	})
	cfg.PollInterval = result.Value.(time.Duration)
	if result.FallbackApplied {
		fallbackApplied = true
		metrics.RecordValidationError("poll_interval")
		metrics.RecordFallback("poll_interval", "default")
		for _, warning := range result.Warnings {
			logger.Warn("Configuration fallback applied",
				slog.String("field", "PollInterval"),
				slog.String("warning", warning))
		}
	}

	// Cycles are cut off at the poll interval unless told otherwise.
	result = config.LoadEnvDuration("CYCLE_TIMEOUT", cfg.PollInterval, func(d time.Duration) error {
		return config.ValidateDuration(d, 10*time.Second, 30*time.Minute)
	})
	cfg.CycleTimeout = result.Value.(time.Duration)
	if result.FallbackApplied {
		fallbackApplied = true
		metrics.RecordValidationError("cycle_timeout")
		metrics.RecordFallback("cycle_timeout", "default")
		for _, warning := range result.Warnings {
			logger.Warn("Configuration fallback applied",
				slog.String("field", "CycleTimeout"),
				slog.String("warning", warning))
		}
	}

	result = config.LoadEnvDuration("SOURCE_TIMEOUT", cfg.SourceTimeout, func(d time.Duration) error {
		return config.ValidateDuration(d, time.Second, 10*time.Minute)
	})
	cfg.SourceTimeout = result.Value.(time.Duration)
	if result.FallbackApplied {
		fallbackApplied = true
		metrics.RecordValidationError("source_timeout")
		metrics.RecordFallback("source_timeout", "default")
		for _, warning := range result.Warnings {
			logger.Warn("Configuration fallback applied",
				slog.String("field", "SourceTimeout"),
				slog.String("warning", warning))
		}
	}

	result = config.LoadEnvInt("NOTIFY_MAX_CONCURRENT", cfg.NotifyMaxConcurrent, func(v int) error {
		return config.ValidateIntRange(v, 1, 100)
	})
	cfg.NotifyMaxConcurrent = result.Value.(int)
	if result.FallbackApplied {
		fallbackApplied = true
		metrics.RecordValidationError("notify_max_concurrent")
		metrics.RecordFallback("notify_max_concurrent", "default")
		for _, warning := range result.Warnings {
			logger.Warn("Configuration fallback applied",
				slog.String("field", "NotifyMaxConcurrent"),
				slog.String("warning", warning))
		}
	}

	result = config.LoadEnvInt("WORKER_HEALTH_PORT", cfg.HealthPort, func(v int) error {
		return config.ValidateIntRange(v, 1024, 65535)
	})
	cfg.HealthPort = result.Value.(int)
	if result.FallbackApplied {
		fallbackApplied = true
		metrics.RecordValidationError("health_port")
		metrics.RecordFallback("health_port", "default")
		for _, warning := range result.Warnings {
			logger.Warn("Configuration fallback applied",
				slog.String("field", "HealthPort"),
				slog.String("warning", warning))
		}
	}

	metrics.SetFallbackActive("", fallbackApplied)
	metrics.RecordLoadTimestamp()

	// Always return valid config (fail-open strategy)
	return &cfg, nil
}
