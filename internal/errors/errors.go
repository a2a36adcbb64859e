// Package errors provides centralized error definitions and error handling
// utilities for the drover codebase. It defines domain sentinel errors,
// semantic error types with context-carrying builder methods, and
// classification helpers.
//
// # Usage
//
// Creating errors:
//
//	// Semantic error
//	err := errors.NewNotFoundError("agent", "a1b2c3")
//
//	// With context
//	err := errors.NewInvalidStateError("accept", "running").WithAgentID("a1b2c3")
//
// Checking errors:
//
//	if errors.Is(err, errors.ErrAgentNotFound) { ... }
//
//	var timeoutErr *errors.TimeoutError
//	if errors.As(err, &timeoutErr) { ... }
//
//	if errors.IsRetryable(err) { ... }
package errors

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Re-export standard library functions for convenience.
// This allows callers to import only this package for all error handling.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	New    = errors.New
	Join   = errors.Join
)

// Session and agent sentinel errors
var (
	// ErrSessionNotFound indicates that a session could not be found in the registry.
	ErrSessionNotFound = New("session not found")
	// ErrAgentNotFound indicates that an agent could not be found in any session.
	ErrAgentNotFound = New("agent not found")
	// ErrInvalidState indicates a lifecycle transition from an illegal status.
	ErrInvalidState = New("invalid agent state for operation")
)

// Registry sentinel errors
var (
	// ErrLockTimeout indicates the state file lock could not be acquired.
	ErrLockTimeout = New("could not acquire state file lock")
	// ErrRegistryCorrupted indicates the state file did not parse as a registry.
	ErrRegistryCorrupted = New("state registry corrupted")
)

// Job sentinel errors
var (
	// ErrJobNotFound indicates that no job file exists for the given id.
	ErrJobNotFound = New("job not found")
	// ErrJobInvalid indicates that a job failed structural validation.
	ErrJobInvalid = New("job is invalid")
	// ErrUnknownTaskType indicates a task references a type with no mapping.
	ErrUnknownTaskType = New("unknown task type")
)

// General sentinel errors
var (
	// ErrTimeout indicates that an operation timed out.
	ErrTimeout = New("operation timed out")
	// ErrToolUnavailable indicates no automation tool could satisfy a capability.
	ErrToolUnavailable = New("no automation tool available")
)

// NotFoundError represents a resource that could not be found.
type NotFoundError struct {
	ResourceType string
	ResourceID   string
	cause        error
}

// NewNotFoundError creates a new NotFoundError.
func NewNotFoundError(resourceType, resourceID string) *NotFoundError {
	return &NotFoundError{ResourceType: resourceType, ResourceID: resourceID}
}

// WithCause adds a cause to the error.
func (e *NotFoundError) WithCause(cause error) *NotFoundError {
	e.cause = cause
	return e
}

func (e *NotFoundError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s '%s' not found: %v", e.ResourceType, e.ResourceID, e.cause)
	}
	return fmt.Sprintf("%s '%s' not found", e.ResourceType, e.ResourceID)
}

func (e *NotFoundError) Unwrap() error { return e.cause }

// Is reports whether this error matches the target.
func (e *NotFoundError) Is(target error) bool {
	if _, ok := target.(*NotFoundError); ok {
		return true
	}
	switch e.ResourceType {
	case "agent":
		if errors.Is(target, ErrAgentNotFound) {
			return true
		}
	case "session":
		if errors.Is(target, ErrSessionNotFound) {
			return true
		}
	case "job":
		if errors.Is(target, ErrJobNotFound) {
			return true
		}
	}
	return e.cause != nil && errors.Is(e.cause, target)
}

// InvalidStateError represents a lifecycle operation attempted against an
// agent whose current status does not permit it.
type InvalidStateError struct {
	Operation string // "accept", "feedback", "complete", ...
	Status    string // the agent's current status
	AgentID   string
}

// NewInvalidStateError creates a new InvalidStateError.
func NewInvalidStateError(operation, status string) *InvalidStateError {
	return &InvalidStateError{Operation: operation, Status: status}
}

// WithAgentID adds the agent id to the error context.
func (e *InvalidStateError) WithAgentID(id string) *InvalidStateError {
	e.AgentID = id
	return e
}

func (e *InvalidStateError) Error() string {
	if e.AgentID != "" {
		return fmt.Sprintf("cannot %s agent %s in status %q", e.Operation, e.AgentID, e.Status)
	}
	return fmt.Sprintf("cannot %s agent in status %q", e.Operation, e.Status)
}

// Is reports whether this error matches the target.
func (e *InvalidStateError) Is(target error) bool {
	if _, ok := target.(*InvalidStateError); ok {
		return true
	}
	return errors.Is(target, ErrInvalidState)
}

// ValidationError represents one or more structural validation failures.
// Problems are collected as human-readable strings and surfaced together,
// never partially applied.
type ValidationError struct {
	Subject  string // what was validated, e.g. "job 'refactor-auth'"
	Problems []string
}

// NewValidationError creates a ValidationError for the given subject.
func NewValidationError(subject string, problems ...string) *ValidationError {
	return &ValidationError{Subject: subject, Problems: problems}
}

// Append adds problems to the error and returns it for chaining.
func (e *ValidationError) Append(problems ...string) *ValidationError {
	e.Problems = append(e.Problems, problems...)
	return e
}

func (e *ValidationError) Error() string {
	if len(e.Problems) == 1 {
		return fmt.Sprintf("%s: %s", e.Subject, e.Problems[0])
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s: %d validation errors:", e.Subject, len(e.Problems))
	for i, p := range e.Problems {
		fmt.Fprintf(&sb, "\n  %d. %s", i+1, p)
	}
	return sb.String()
}

// Is reports whether this error matches the target.
func (e *ValidationError) Is(target error) bool {
	if _, ok := target.(*ValidationError); ok {
		return true
	}
	return errors.Is(target, ErrJobInvalid)
}

// TimeoutError represents an operation that exceeded its deadline. It is a
// distinct type so callers can decide between retrying and aborting.
type TimeoutError struct {
	Operation string
	Duration  time.Duration
	cause     error
}

// NewTimeoutError creates a new TimeoutError.
func NewTimeoutError(operation string, duration time.Duration) *TimeoutError {
	return &TimeoutError{Operation: operation, Duration: duration}
}

// WithCause adds a cause to the error.
func (e *TimeoutError) WithCause(cause error) *TimeoutError {
	e.cause = cause
	return e
}

func (e *TimeoutError) Error() string {
	base := fmt.Sprintf("timeout: %s (after %s)", e.Operation, e.Duration)
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", base, e.cause)
	}
	return base
}

func (e *TimeoutError) Unwrap() error { return e.cause }

// Is reports whether this error matches the target.
func (e *TimeoutError) Is(target error) bool {
	if _, ok := target.(*TimeoutError); ok {
		return true
	}
	return errors.Is(target, ErrTimeout)
}

// ToolUnavailableError indicates that no candidate automation tool for a
// capability is installed. It names the tools that would satisfy the
// capability and how to install them.
type ToolUnavailableError struct {
	Capability string   // "open-url", "type-text", ...
	Candidates []string // tool names in priority order
	InstallVia string   // e.g. "your distribution's package manager"
}

// NewToolUnavailableError creates a new ToolUnavailableError.
func NewToolUnavailableError(capability string, candidates []string, installVia string) *ToolUnavailableError {
	return &ToolUnavailableError{Capability: capability, Candidates: candidates, InstallVia: installVia}
}

func (e *ToolUnavailableError) Error() string {
	msg := fmt.Sprintf("no tool available for %s (tried: %s)", e.Capability, strings.Join(e.Candidates, ", "))
	if e.InstallVia != "" {
		msg += "; install one via " + e.InstallVia
	}
	return msg
}

// Is reports whether this error matches the target.
func (e *ToolUnavailableError) Is(target error) bool {
	if _, ok := target.(*ToolUnavailableError); ok {
		return true
	}
	return errors.Is(target, ErrToolUnavailable)
}

// IsRetryable returns true if the error represents a transient condition
// that may succeed on retry. Timeouts and lock contention are retryable;
// validation and invalid-state errors are not.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	return Is(err, ErrTimeout) || Is(err, ErrLockTimeout)
}

// IsUserFacing returns true if the error message is safe to display to end
// users without translation.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}

	var notFound *NotFoundError
	var invalidState *InvalidStateError
	var validation *ValidationError
	var timeout *TimeoutError
	var tool *ToolUnavailableError

	return As(err, &notFound) || As(err, &invalidState) ||
		As(err, &validation) || As(err, &timeout) || As(err, &tool)
}

// Wrapf wraps an error with a formatted context message.
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}
