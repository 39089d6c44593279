package config

import (
	"fmt"
	"os"
	"time"
)

// ConfigLoadResult represents the result of loading a configuration value.
// It contains the loaded value, any warnings generated during loading,
// and a flag indicating whether a fallback value was used.
//
// Fields:
//   - Value: The loaded configuration value (may be fallback if validation failed)
//   - Warnings: List of warning messages (one per fallback applied)
//   - FallbackApplied: True if the default value was used due to validation failure
//
// Example:
//
//	result := LoadEnvDuration("POLL_INTERVAL", 3*time.Minute, validator)
//	if result.FallbackApplied {
//	    for _, warning := range result.Warnings {
//	        logger.Warn("Configuration fallback applied", slog.String("warning", warning))
//	    }
//	}
//	interval := result.Value.(time.Duration)
type ConfigLoadResult struct {
	Value           interface{}
	Warnings        []string
	FallbackApplied bool
}

// LoadEnvDuration loads a duration value from an environment variable
// with parsing, validation, and automatic fallback to default on failure.
//
// Loading behavior:
//  1. Read environment variable
//  2. If not set or empty: Use default value (no warning)
//  3. If set: Parse using time.ParseDuration
//  4. If parsing fails: Use default value and generate warning
//  5. If parsing succeeds: Validate using provided validator
//  6. If validation fails: Use default value and generate warning
//
// This function never returns an error. It always returns a valid
// duration value, either from the environment or the default; the worker
// must come up even when an operator fat-fingers POLL_INTERVAL.
//
// Parameters:
//   - envKey: Environment variable name to read
//   - defaultValue: Duration to use if variable not set or parsing/validation fails
//   - validator: Validation function (can be nil to skip validation)
//
// Environment variable format is a Go duration string: "30s", "3m", "1h30m".
//
// Example:
//
//	result := LoadEnvDuration("SOURCE_TIMEOUT", 60*time.Second, func(d time.Duration) error {
//	    return ValidateDuration(d, time.Second, 10*time.Minute)
//	})
//	timeout := result.Value.(time.Duration)
func LoadEnvDuration(envKey string, defaultValue time.Duration, validator func(time.Duration) error) ConfigLoadResult {
	valueStr := os.Getenv(envKey)

	// If environment variable is not set or empty, use default (no warning)
	if valueStr == "" {
		return ConfigLoadResult{
			Value:           defaultValue,
			Warnings:        nil,
			FallbackApplied: false,
		}
	}

	parsedDuration, err := time.ParseDuration(valueStr)
	if err != nil {
		return fallbackResult(envKey, valueStr, err, fmt.Sprintf("%v", defaultValue), defaultValue)
	}

	if validator != nil {
		if err := validator(parsedDuration); err != nil {
			return fallbackResult(envKey, valueStr, err, fmt.Sprintf("%v", defaultValue), defaultValue)
		}
	}

	return ConfigLoadResult{
		Value:           parsedDuration,
		Warnings:        nil,
		FallbackApplied: false,
	}
}

// LoadEnvInt loads an integer value from an environment variable
// with parsing, validation, and automatic fallback to default on failure.
//
// Loading follows the same fail-open rules as LoadEnvDuration: an unset
// variable silently yields the default, a malformed or out-of-range value
// yields the default plus a warning, and no path returns an error.
//
// Example:
//
//	result := LoadEnvInt("NOTIFY_MAX_CONCURRENT", 10, func(v int) error {
//	    return ValidateIntRange(v, 1, 100)
//	})
//	maxConcurrent := result.Value.(int)
func LoadEnvInt(envKey string, defaultValue int, validator func(int) error) ConfigLoadResult {
	valueStr := os.Getenv(envKey)

	// If environment variable is not set or empty, use default (no warning)
	if valueStr == "" {
		return ConfigLoadResult{
			Value:           defaultValue,
			Warnings:        nil,
			FallbackApplied: false,
		}
	}

	var parsedInt int
	if _, err := fmt.Sscanf(valueStr, "%d", &parsedInt); err != nil {
		warning := fmt.Sprintf(
			"Invalid %s='%s': invalid integer format, falling back to default '%d'",
			envKey,
			valueStr,
			defaultValue,
		)
		return ConfigLoadResult{
			Value:           defaultValue,
			Warnings:        []string{warning},
			FallbackApplied: true,
		}
	}

	if validator != nil {
		if err := validator(parsedInt); err != nil {
			return fallbackResult(envKey, valueStr, err, fmt.Sprintf("%d", defaultValue), defaultValue)
		}
	}

	return ConfigLoadResult{
		Value:           parsedInt,
		Warnings:        nil,
		FallbackApplied: false,
	}
}

// fallbackResult builds the standard warning-carrying result used when a
// set-but-invalid value falls back to its default.
func fallbackResult(envKey, valueStr string, err error, defaultStr string, defaultValue interface{}) ConfigLoadResult {
	warning := fmt.Sprintf(
		"Invalid %s='%s': %v, falling back to default '%s'",
		envKey,
		valueStr,
		err,
		defaultStr,
	)
	return ConfigLoadResult{
		Value:           defaultValue,
		Warnings:        []string{warning},
		FallbackApplied: true,
	}
}
