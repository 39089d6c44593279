package worker

import (
	"bytes"
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	// Verify all fields have expected default values
	if config.PollInterval != 3*time.Minute {
		t.Errorf("Expected PollInterval 3m, got %v", config.PollInterval)
	}

	if config.CycleTimeout != 3*time.Minute {
		t.Errorf("Expected CycleTimeout 3m, got %v", config.CycleTimeout)
	}

	if config.SourceTimeout != 60*time.Second {
		t.Errorf("Expected SourceTimeout 60s, got %v", config.SourceTimeout)
	}

	if config.NotifyMaxConcurrent != 10 {
		t.Errorf("Expected NotifyMaxConcurrent 10, got %d", config.NotifyMaxConcurrent)
	}

	if config.HealthPort != 9091 {
		t.Errorf("Expected HealthPort 9091, got %d", config.HealthPort)
	}
}

func TestDefaultConfig_Immutability(t *testing.T) {
	// Each call to DefaultConfig should return a new instance
	config1 := DefaultConfig()
	config2 := DefaultConfig()

	// Modify config1
	config1.PollInterval = 10 * time.Minute
	config1.NotifyMaxConcurrent = 20

	// config2 should still have default values
	if config2.PollInterval != 3*time.Minute {
		t.Error("DefaultConfig returned a shared instance instead of a new one")
	}

	if config2.NotifyMaxConcurrent != 10 {
		t.Error("DefaultConfig returned a shared instance instead of a new one")
	}
}

func TestWorkerConfig_Validate_ValidConfig(t *testing.T) {
	// Default config should be valid
	config := DefaultConfig()

	err := config.Validate()
	if err != nil {
		t.Errorf("DefaultConfig should be valid, got error: %v", err)
	}
}

func TestWorkerConfig_Validate_PollIntervalBoundary(t *testing.T) {
	tests := []struct {
		name     string
		interval time.Duration
		valid    bool
	}{
		{"Min valid (10s)", 10 * time.Second, true},
		{"Default (3m)", 3 * time.Minute, true},
		{"Max valid (1h)", time.Hour, true},
		{"Below min (5s)", 5 * time.Second, false},
		{"Zero", 0, false},
		{"Negative", -time.Minute, false},
		{"Above max (2h)", 2 * time.Hour, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			config.PollInterval = tt.interval

			err := config.Validate()
			if tt.valid && err != nil {
				t.Errorf("Expected valid interval %v, got error: %v", tt.interval, err)
			}
			if !tt.valid && err == nil {
				t.Errorf("Expected validation error for interval %v", tt.interval)
			}
		})
	}
}

func TestWorkerConfig_Validate_CycleTimeoutZero(t *testing.T) {
	config := DefaultConfig()
	config.CycleTimeout = 0

	err := config.Validate()
	if err == nil {
		t.Error("Expected validation error for CycleTimeout = 0")
	}
}

func TestWorkerConfig_Validate_SourceTimeoutBoundary(t *testing.T) {
	tests := []struct {
		name    string
		timeout time.Duration
		valid   bool
	}{
		{"Min valid (1s)", time.Second, true},
		{"Default (60s)", 60 * time.Second, true},
		{"Max valid (10m)", 10 * time.Minute, true},
		{"Below min (500ms)", 500 * time.Millisecond, false},
		{"Negative", -time.Second, false},
		{"Above max (11m)", 11 * time.Minute, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			config.SourceTimeout = tt.timeout

			err := config.Validate()
			if tt.valid && err != nil {
				t.Errorf("Expected valid timeout %v, got error: %v", tt.timeout, err)
			}
			if !tt.valid && err == nil {
				t.Errorf("Expected validation error for timeout %v", tt.timeout)
			}
		})
	}
}

func TestWorkerConfig_Validate_NotifyMaxConcurrentBoundary(t *testing.T) {
	tests := []struct {
		name  string
		value int
		valid bool
	}{
		{"Min valid (1)", 1, true},
		{"Max valid (100)", 100, true},
		{"Below min (0)", 0, false},
		{"Negative", -1, false},
		{"Above max (101)", 101, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			config.NotifyMaxConcurrent = tt.value

			err := config.Validate()
			if tt.valid && err != nil {
				t.Errorf("Expected valid config, got error: %v", err)
			}
			if !tt.valid && err == nil {
				t.Errorf("Expected validation error for value %d", tt.value)
			}
		})
	}
}

func TestWorkerConfig_Validate_HealthPortBoundary(t *testing.T) {
	tests := []struct {
		name  string
		port  int
		valid bool
	}{
		{"Min valid (1024)", 1024, true},
		{"Max valid (65535)", 65535, true},
		{"Below min (1023)", 1023, false},
		{"Above max (65536)", 65536, false},
		{"Zero", 0, false},
		{"Negative", -1, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			config.HealthPort = tt.port

			err := config.Validate()
			if tt.valid && err != nil {
				t.Errorf("Expected valid port %d, got error: %v", tt.port, err)
			}
			if !tt.valid && err == nil {
				t.Errorf("Expected validation error for port %d", tt.port)
			}
		})
	}
}

func TestWorkerConfig_Validate_MultipleErrors(t *testing.T) {
	// Create config with multiple invalid fields
	config := WorkerConfig{
		PollInterval:        time.Second, // Invalid (too low)
		CycleTimeout:        0,           // Invalid (zero)
		SourceTimeout:       0,           // Invalid (zero)
		NotifyMaxConcurrent: 0,           // Invalid (too low)
		HealthPort:          100,         // Invalid (too low)
	}

	err := config.Validate()
	if err == nil {
		t.Fatal("Expected validation errors for multiple invalid fields")
	}

	// Error should contain information about all validation failures
	errStr := err.Error()
	if errStr == "" {
		t.Error("Error message should not be empty")
	}

	// Check that error message is meaningful (contains "validation")
	// We don't check exact format as it may contain wrapped errors
	t.Logf("Validation error (expected): %v", err)
}

func TestWorkerConfig_Validate_ValidCustomConfig(t *testing.T) {
	config := WorkerConfig{
		PollInterval:        10 * time.Minute,
		CycleTimeout:        5 * time.Minute,
		SourceTimeout:       2 * time.Minute,
		NotifyMaxConcurrent: 20,
		HealthPort:          8080,
	}

	err := config.Validate()
	if err != nil {
		t.Errorf("Expected valid custom config, got error: %v", err)
	}
}

// globalTestMetrics is a shared metrics instance for tests to avoid
// duplicate Prometheus registration errors. In production, metrics are
// created once at startup, so this simulates that behavior.
var globalTestMetrics = NewWorkerMetrics()

// setEnv is a test helper that sets an environment variable and fails the test if it errors
func setEnv(t *testing.T, key, value string) {
	t.Helper()
	if err := os.Setenv(key, value); err != nil {
		t.Fatalf("Failed to set %s: %v", key, err)
	}
}

// unsetEnv is a test helper that unsets an environment variable and fails the test if it errors
func unsetEnv(t *testing.T, key string) {
	t.Helper()
	if err := os.Unsetenv(key); err != nil {
		t.Fatalf("Failed to unset %s: %v", key, err)
	}
}

func TestLoadConfigFromEnv_AllEnvVarsValid(t *testing.T) {
	setEnv(t, "POLL_INTERVAL", "5m")
	setEnv(t, "CYCLE_TIMEOUT", "4m")
	setEnv(t, "SOURCE_TIMEOUT", "2m")
	setEnv(t, "NOTIFY_MAX_CONCURRENT", "20")
	setEnv(t, "WORKER_HEALTH_PORT", "8080")
	defer func() {
		unsetEnv(t, "POLL_INTERVAL")
		unsetEnv(t, "CYCLE_TIMEOUT")
		unsetEnv(t, "SOURCE_TIMEOUT")
		unsetEnv(t, "NOTIFY_MAX_CONCURRENT")
		unsetEnv(t, "WORKER_HEALTH_PORT")
	}()

	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	config, err := LoadConfigFromEnv(logger, globalTestMetrics)

	// Should not return error (fail-open strategy)
	if err != nil {
		t.Errorf("Expected no error, got: %v", err)
	}

	// Should load all values from environment
	if config.PollInterval != 5*time.Minute {
		t.Errorf("Expected PollInterval 5m, got %v", config.PollInterval)
	}
	if config.CycleTimeout != 4*time.Minute {
		t.Errorf("Expected CycleTimeout 4m, got %v", config.CycleTimeout)
	}
	if config.SourceTimeout != 2*time.Minute {
		t.Errorf("Expected SourceTimeout 2m, got %v", config.SourceTimeout)
	}
	if config.NotifyMaxConcurrent != 20 {
		t.Errorf("Expected NotifyMaxConcurrent 20, got %d", config.NotifyMaxConcurrent)
	}
	if config.HealthPort != 8080 {
		t.Errorf("Expected HealthPort 8080, got %d", config.HealthPort)
	}

	// No warnings should be logged
	if buf.Len() > 0 {
		t.Errorf("Expected no warnings, got: %s", buf.String())
	}
}

func TestLoadConfigFromEnv_MissingEnvVars(t *testing.T) {
	// Clear all environment variables
	unsetEnv(t, "POLL_INTERVAL")
	unsetEnv(t, "CYCLE_TIMEOUT")
	unsetEnv(t, "SOURCE_TIMEOUT")
	unsetEnv(t, "NOTIFY_MAX_CONCURRENT")
	unsetEnv(t, "WORKER_HEALTH_PORT")

	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	config, err := LoadConfigFromEnv(logger, globalTestMetrics)

	// Should not return error (fail-open strategy)
	if err != nil {
		t.Errorf("Expected no error, got: %v", err)
	}

	// Should use default values
	defaults := DefaultConfig()
	if config.PollInterval != defaults.PollInterval {
		t.Errorf("Expected default PollInterval, got %v", config.PollInterval)
	}
	if config.CycleTimeout != defaults.CycleTimeout {
		t.Errorf("Expected default CycleTimeout, got %v", config.CycleTimeout)
	}
	if config.SourceTimeout != defaults.SourceTimeout {
		t.Errorf("Expected default SourceTimeout, got %v", config.SourceTimeout)
	}
	if config.NotifyMaxConcurrent != defaults.NotifyMaxConcurrent {
		t.Errorf("Expected default NotifyMaxConcurrent, got %d", config.NotifyMaxConcurrent)
	}
	if config.HealthPort != defaults.HealthPort {
		t.Errorf("Expected default HealthPort, got %d", config.HealthPort)
	}

	// No warnings should be logged (missing env vars don't trigger fallback)
	if buf.Len() > 0 {
		t.Errorf("Expected no warnings, got: %s", buf.String())
	}
}

func TestLoadConfigFromEnv_CycleTimeoutFollowsPollInterval(t *testing.T) {
	// When only POLL_INTERVAL is set, the cycle timeout defaults to it
	setEnv(t, "POLL_INTERVAL", "10m")
	unsetEnv(t, "CYCLE_TIMEOUT")
	defer unsetEnv(t, "POLL_INTERVAL")

	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	config, err := LoadConfigFromEnv(logger, globalTestMetrics)
	if err != nil {
		t.Errorf("Expected no error, got: %v", err)
	}

	if config.CycleTimeout != 10*time.Minute {
		t.Errorf("Expected CycleTimeout to follow PollInterval (10m), got %v", config.CycleTimeout)
	}
}

func TestLoadConfigFromEnv_InvalidPollInterval(t *testing.T) {
	tests := []struct {
		name  string
		value string
	}{
		{"Zero", "0"},
		{"Negative", "-1m"},
		{"Too short", "1s"},
		{"Too long", "24h"},
		{"Invalid format", "invalid"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setEnv(t, "POLL_INTERVAL", tt.value)
			defer unsetEnv(t, "POLL_INTERVAL")

			var buf bytes.Buffer
			logger := slog.New(slog.NewJSONHandler(&buf, nil))

			config, err := LoadConfigFromEnv(logger, globalTestMetrics)

			// Should not return error (fail-open strategy)
			if err != nil {
				t.Errorf("Expected no error, got: %v", err)
			}

			// Should use default value
			if config.PollInterval != DefaultConfig().PollInterval {
				t.Errorf("Expected default PollInterval, got %v", config.PollInterval)
			}

			// Warning should be logged
			logOutput := buf.String()
			if !strings.Contains(logOutput, "Configuration fallback applied") {
				t.Error("Expected fallback warning in logs")
			}
			if !strings.Contains(logOutput, "PollInterval") {
				t.Error("Expected PollInterval field in warning")
			}
		})
	}
}

func TestLoadConfigFromEnv_InvalidNotifyMaxConcurrent(t *testing.T) {
	tests := []struct {
		name  string
		value string
	}{
		{"Zero", "0"},
		{"Negative", "-1"},
		{"Too high", "101"},
		{"Invalid format", "abc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setEnv(t, "NOTIFY_MAX_CONCURRENT", tt.value)
			defer unsetEnv(t, "NOTIFY_MAX_CONCURRENT")

			var buf bytes.Buffer
			logger := slog.New(slog.NewJSONHandler(&buf, nil))

			config, err := LoadConfigFromEnv(logger, globalTestMetrics)

			// Should not return error (fail-open strategy)
			if err != nil {
				t.Errorf("Expected no error, got: %v", err)
			}

			// Should use default value
			if config.NotifyMaxConcurrent != DefaultConfig().NotifyMaxConcurrent {
				t.Errorf("Expected default NotifyMaxConcurrent, got %d", config.NotifyMaxConcurrent)
			}

			// Warning should be logged
			logOutput := buf.String()
			if !strings.Contains(logOutput, "Configuration fallback applied") {
				t.Error("Expected fallback warning in logs")
			}
		})
	}
}

func TestLoadConfigFromEnv_InvalidHealthPort(t *testing.T) {
	tests := []struct {
		name  string
		value string
	}{
		{"Too low", "1023"},
		{"Too high", "65536"},
		{"Zero", "0"},
		{"Negative", "-1"},
		{"Invalid format", "abc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setEnv(t, "WORKER_HEALTH_PORT", tt.value)
			defer unsetEnv(t, "WORKER_HEALTH_PORT")

			var buf bytes.Buffer
			logger := slog.New(slog.NewJSONHandler(&buf, nil))

			config, err := LoadConfigFromEnv(logger, globalTestMetrics)

			// Should not return error (fail-open strategy)
			if err != nil {
				t.Errorf("Expected no error, got: %v", err)
			}

			// Should use default value
			if config.HealthPort != DefaultConfig().HealthPort {
				t.Errorf("Expected default HealthPort, got %d", config.HealthPort)
			}

			// Warning should be logged
			logOutput := buf.String()
			if !strings.Contains(logOutput, "Configuration fallback applied") {
				t.Error("Expected fallback warning in logs")
			}
		})
	}
}

func TestLoadConfigFromEnv_PartiallyValid(t *testing.T) {
	// Set some valid and some invalid values
	setEnv(t, "POLL_INTERVAL", "5m")          // Valid
	setEnv(t, "SOURCE_TIMEOUT", "invalid")    // Invalid
	setEnv(t, "NOTIFY_MAX_CONCURRENT", "20")  // Valid
	setEnv(t, "WORKER_HEALTH_PORT", "100")    // Invalid
	unsetEnv(t, "CYCLE_TIMEOUT")
	defer func() {
		unsetEnv(t, "POLL_INTERVAL")
		unsetEnv(t, "SOURCE_TIMEOUT")
		unsetEnv(t, "NOTIFY_MAX_CONCURRENT")
		unsetEnv(t, "WORKER_HEALTH_PORT")
	}()

	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	config, err := LoadConfigFromEnv(logger, globalTestMetrics)

	// Should not return error (fail-open strategy)
	if err != nil {
		t.Errorf("Expected no error, got: %v", err)
	}

	// Valid fields should use environment values
	if config.PollInterval != 5*time.Minute {
		t.Errorf("Expected PollInterval 5m, got %v", config.PollInterval)
	}
	if config.NotifyMaxConcurrent != 20 {
		t.Errorf("Expected NotifyMaxConcurrent 20, got %d", config.NotifyMaxConcurrent)
	}

	// Invalid fields should use defaults
	if config.SourceTimeout != DefaultConfig().SourceTimeout {
		t.Errorf("Expected default SourceTimeout, got %v", config.SourceTimeout)
	}
	if config.HealthPort != DefaultConfig().HealthPort {
		t.Errorf("Expected default HealthPort, got %d", config.HealthPort)
	}

	// Only 2 warnings should be logged (for SourceTimeout and HealthPort)
	logOutput := buf.String()
	warningCount := strings.Count(logOutput, "Configuration fallback applied")
	if warningCount != 2 {
		t.Errorf("Expected 2 warnings, got %d", warningCount)
	}
}
