package config

import (
	"fmt"
	"slices"
	"strings"
)

// ValidationError represents a single validation failure
type ValidationError struct {
	Field   string // The config field path (e.g., "timing.type_char_ms")
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

// ValidLogLevels returns the list of valid log levels
func ValidLogLevels() []string {
	return []string{"debug", "info", "warn", "error"}
}

// ValidIDMismatchPolicies returns the list of valid jobs.id_mismatch values
func ValidIDMismatchPolicies() []string {
	return []string{string(IDMismatchWarn), string(IDMismatchError)}
}

// Validate checks the Config for invalid values and returns all validation
// errors found
func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	errors = append(errors, c.validateTarget()...)
	errors = append(errors, c.validateTiming()...)
	errors = append(errors, c.validateJobs()...)
	errors = append(errors, c.validateLifecycle()...)
	errors = append(errors, c.validateLogging()...)

	return errors
}

// validateTarget validates the TargetConfig
func (c *Config) validateTarget() []ValidationError {
	var errors []ValidationError

	if c.Target.DeepLinkTemplate == "" {
		errors = append(errors, ValidationError{
			Field:   "target.deep_link_template",
			Value:   c.Target.DeepLinkTemplate,
			Message: "cannot be empty",
		})
	} else if !strings.Contains(c.Target.DeepLinkTemplate, "{prompt}") {
		errors = append(errors, ValidationError{
			Field:   "target.deep_link_template",
			Value:   c.Target.DeepLinkTemplate,
			Message: "must contain the {prompt} placeholder",
		})
	}

	return errors
}

// validateTiming validates the TimingConfig. All delays must be positive:
// a zero delay collapses the detached-mode ordering, which depends entirely
// on conservative offsets.
func (c *Config) validateTiming() []ValidationError {
	var errors []ValidationError

	millis := []struct {
		field string
		value int
	}{
		{"timing.type_char_ms", c.Timing.TypeCharMs},
		{"timing.settle_ms", c.Timing.SettleMs},
		{"timing.submit_base_ms", c.Timing.SubmitBaseMs},
		{"timing.command_gap_ms", c.Timing.CommandGapMs},
		{"timing.task_gap_ms", c.Timing.TaskGapMs},
	}
	for _, m := range millis {
		if m.value <= 0 {
			errors = append(errors, ValidationError{
				Field:   m.field,
				Value:   m.value,
				Message: "must be positive",
			})
		}
	}

	seconds := []struct {
		field string
		value int
	}{
		{"timing.open_to_enter_sec", c.Timing.OpenToEnterSec},
		{"timing.second_enter_sec", c.Timing.SecondEnterSec},
		{"timing.follow_up_base_sec", c.Timing.FollowUpBaseSec},
		{"timing.follow_up_spacing_sec", c.Timing.FollowUpSpacingSec},
	}
	for _, s := range seconds {
		if s.value <= 0 {
			errors = append(errors, ValidationError{
				Field:   s.field,
				Value:   s.value,
				Message: "must be positive",
			})
		}
	}

	if c.Timing.SecondEnterSec <= c.Timing.OpenToEnterSec {
		errors = append(errors, ValidationError{
			Field:   "timing.second_enter_sec",
			Value:   c.Timing.SecondEnterSec,
			Message: fmt.Sprintf("must be greater than open_to_enter_sec (%d)", c.Timing.OpenToEnterSec),
		})
	}
	if c.Timing.FollowUpBaseSec <= c.Timing.SecondEnterSec {
		errors = append(errors, ValidationError{
			Field:   "timing.follow_up_base_sec",
			Value:   c.Timing.FollowUpBaseSec,
			Message: fmt.Sprintf("must be greater than second_enter_sec (%d)", c.Timing.SecondEnterSec),
		})
	}

	return errors
}

// validateJobs validates the JobsConfig
func (c *Config) validateJobs() []ValidationError {
	var errors []ValidationError

	if c.Jobs.IDMismatch != "" && !slices.Contains(ValidIDMismatchPolicies(), c.Jobs.IDMismatch) {
		errors = append(errors, ValidationError{
			Field:   "jobs.id_mismatch",
			Value:   c.Jobs.IDMismatch,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidIDMismatchPolicies(), ", ")),
		})
	}

	return errors
}

// validateLifecycle validates the LifecycleConfig
func (c *Config) validateLifecycle() []ValidationError {
	var errors []ValidationError

	if c.Lifecycle.CompleteTimeoutMinutes <= 0 {
		errors = append(errors, ValidationError{
			Field:   "lifecycle.complete_timeout_minutes",
			Value:   c.Lifecycle.CompleteTimeoutMinutes,
			Message: "must be positive",
		})
	}
	if c.Lifecycle.PollIntervalSeconds <= 0 {
		errors = append(errors, ValidationError{
			Field:   "lifecycle.poll_interval_seconds",
			Value:   c.Lifecycle.PollIntervalSeconds,
			Message: "must be positive",
		})
	}

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
