package config

import (
	"fmt"
	"slices"
	"strings"

	"github.com/Iron-Ham/servloc/internal/audio"
	"github.com/Iron-Ham/servloc/internal/logging"
)

// ValidationError represents a single validation failure
type ValidationError struct {
	Field   string // The config field path (e.g., "stress.readers")
	Value   any    // The invalid value
	Message string // Human-readable error description
}

// Error implements the error interface for ValidationError
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for ValidationErrors
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e)))
	for i, err := range e {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// Upper bounds that keep a misconfigured stress run from exhausting the host.
const (
	maxStressGoroutines = 1024
	maxStressIterations = 10_000_000
	maxDebounceMs       = 60_000
)

// ValidLogLevels returns the list of valid log levels
func ValidLogLevels() []string {
	return logging.ValidLevels()
}

// Validate checks the Config for invalid values and returns all validation errors found
func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	errors = append(errors, c.validateLogging()...)
	errors = append(errors, c.validateStress()...)
	errors = append(errors, c.validateWatch()...)
	errors = append(errors, c.validateAudio()...)

	return errors
}

// validateLogging validates the LoggingConfig
func (c *Config) validateLogging() []ValidationError {
	var errors []ValidationError

	if c.Logging.Level != "" && !slices.Contains(ValidLogLevels(), c.Logging.Level) {
		errors = append(errors, ValidationError{
			Field:   "logging.level",
			Value:   c.Logging.Level,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidLogLevels(), ", ")),
		})
	}

	return errors
}

// validateStress validates the StressConfig
func (c *Config) validateStress() []ValidationError {
	var errors []ValidationError

	counts := []struct {
		field string
		value int
	}{
		{"stress.readers", c.Stress.Readers},
		{"stress.writers", c.Stress.Writers},
	}
	for _, n := range counts {
		if n.value < 0 {
			errors = append(errors, ValidationError{
				Field:   n.field,
				Value:   n.value,
				Message: "must be non-negative",
			})
		} else if n.value > maxStressGoroutines {
			errors = append(errors, ValidationError{
				Field:   n.field,
				Value:   n.value,
				Message: fmt.Sprintf("exceeds maximum of %d", maxStressGoroutines),
			})
		}
	}

	if c.Stress.Readers+c.Stress.Writers == 0 {
		errors = append(errors, ValidationError{
			Field:   "stress",
			Value:   0,
			Message: "at least one reader or writer is required",
		})
	}

	if c.Stress.Iterations <= 0 {
		errors = append(errors, ValidationError{
			Field:   "stress.iterations",
			Value:   c.Stress.Iterations,
			Message: "must be positive",
		})
	} else if c.Stress.Iterations > maxStressIterations {
		errors = append(errors, ValidationError{
			Field:   "stress.iterations",
			Value:   c.Stress.Iterations,
			Message: fmt.Sprintf("exceeds maximum of %d", maxStressIterations),
		})
	}

	if c.Stress.SwapEvery < 0 {
		errors = append(errors, ValidationError{
			Field:   "stress.swap_every",
			Value:   c.Stress.SwapEvery,
			Message: "must be non-negative (0 disables swapping)",
		})
	}

	return errors
}

// validateWatch validates the WatchConfig
func (c *Config) validateWatch() []ValidationError {
	var errors []ValidationError

	if c.Watch.DebounceMs < 0 || c.Watch.DebounceMs > maxDebounceMs {
		errors = append(errors, ValidationError{
			Field:   "watch.debounce_ms",
			Value:   c.Watch.DebounceMs,
			Message: fmt.Sprintf("must be between 0 and %d", maxDebounceMs),
		})
	}

	if c.Watch.ProviderFile != "" && strings.TrimSpace(c.Watch.ProviderFile) == "" {
		errors = append(errors, ValidationError{
			Field:   "watch.provider_file",
			Value:   c.Watch.ProviderFile,
			Message: "must not be blank",
		})
	}

	return errors
}

// validateAudio validates the AudioConfig
func (c *Config) validateAudio() []ValidationError {
	var errors []ValidationError

	if _, ok := audio.Lookup(c.Audio.DefaultDriver); !ok {
		errors = append(errors, ValidationError{
			Field:   "audio.default_driver",
			Value:   c.Audio.DefaultDriver,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(audio.Names(), ", ")),
		})
	}

	return errors
}
