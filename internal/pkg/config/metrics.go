package config

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ConfigMetrics provides parameterized Prometheus metrics for configuration
// management: load state, validation errors, and fallback behavior for a
// single component.
//
// Metrics generated (parameterized by component name):
//   - {component}_config_load_timestamp: Unix timestamp of last configuration load
//   - {component}_config_validation_errors_total: Total validation errors by field
//   - {component}_config_fallbacks_total: Total fallback operations by field
//   - {component}_config_fallback_active: 1 if any fallback active, 0 otherwise
//
// Example usage:
//
//	metrics := config.NewConfigMetrics("worker")
//
//	// Record configuration load
//	metrics.RecordLoadTimestamp()
//
//	// Record a field that failed validation and fell back
//	metrics.RecordValidationError("poll_interval")
//	metrics.RecordFallback("poll_interval", "default")
//
//	// Reflect overall fallback status
//	metrics.SetFallbackActive("", anyFallbackApplied)
type ConfigMetrics struct {
	// LoadTimestamp records the Unix timestamp of the last configuration load.
	LoadTimestamp prometheus.Gauge

	// ValidationErrorsTotal counts validation failures, labeled by field
	// (e.g. "poll_interval", "notify_max_concurrent").
	ValidationErrorsTotal *prometheus.CounterVec

	// FallbacksTotal counts applied fallbacks, labeled by field.
	FallbacksTotal *prometheus.CounterVec

	// FallbackActive is 1 while any field is running on its fallback value.
	FallbackActive prometheus.Gauge

	componentName string
}

// NewConfigMetrics creates a ConfigMetrics instance with component-prefixed
// metric names, e.g. NewConfigMetrics("worker") registers
// worker_config_load_timestamp and friends.
//
// Metrics are registered with the Prometheus default registry; registering
// the same component name twice panics, so construct once per process.
func NewConfigMetrics(componentName string) *ConfigMetrics {
	return &ConfigMetrics{
		LoadTimestamp: promauto.NewGauge(prometheus.GaugeOpts{
			Name: fmt.Sprintf("%s_config_load_timestamp", componentName),
			Help: fmt.Sprintf("Unix timestamp of last %s configuration load", componentName),
		}),

		ValidationErrorsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: fmt.Sprintf("%s_config_validation_errors_total", componentName),
			Help: fmt.Sprintf("Total number of %s configuration validation errors", componentName),
		}, []string{"field"}),

		FallbacksTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: fmt.Sprintf("%s_config_fallbacks_total", componentName),
			Help: fmt.Sprintf("Total number of %s configuration fallback operations", componentName),
		}, []string{"field"}),

		FallbackActive: promauto.NewGauge(prometheus.GaugeOpts{
			Name: fmt.Sprintf("%s_config_fallback_active", componentName),
			Help: fmt.Sprintf("1 if any %s configuration fallback is active, 0 otherwise", componentName),
		}),

		componentName: componentName,
	}
}

// RecordLoadTimestamp records the current time as the configuration load
// timestamp. Call whenever configuration is loaded or reloaded.
func (m *ConfigMetrics) RecordLoadTimestamp() {
	m.LoadTimestamp.SetToCurrentTime()
}

// RecordValidationError increments the validation error counter for a field.
func (m *ConfigMetrics) RecordValidationError(field string) {
	m.ValidationErrorsTotal.WithLabelValues(field).Inc()
}

// RecordFallback increments the fallback counter for a field. The
// fallbackType parameter ("default", "runtime") is accepted for call-site
// readability but not currently exported as a label.
func (m *ConfigMetrics) RecordFallback(field, fallbackType string) {
	m.FallbacksTotal.WithLabelValues(field).Inc()
}

// SetFallbackActive sets the fallback active gauge. Pass true while any
// configuration field is using a fallback value. The field parameter is
// accepted for call-site context only.
func (m *ConfigMetrics) SetFallbackActive(field string, active bool) {
	if active {
		m.FallbackActive.Set(1)
	} else {
		m.FallbackActive.Set(0)
	}
}
