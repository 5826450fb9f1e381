package core

import "fmt"

// DuplicateCapabilityError is returned by the registry when a capability
// name is registered twice. Fatal at startup: the process cannot continue
// with an ambiguous capability set.
type DuplicateCapabilityError struct {
	Name string
}

func (e *DuplicateCapabilityError) Error() string {
	return fmt.Sprintf("capability %q already registered", e.Name)
}

// UnknownCapabilityError is returned by registry lookups for absent names.
type UnknownCapabilityError struct {
	Name string
}

func (e *UnknownCapabilityError) Error() string {
	return fmt.Sprintf("unknown capability %q", e.Name)
}

// NoMatchingCapabilityError is returned by the router when no capability
// scores above the selection threshold. It is surfaced to the caller as a
// failed response, never as a process fault.
type NoMatchingCapabilityError struct {
	Task string
}

func (e *NoMatchingCapabilityError) Error() string {
	return fmt.Sprintf("no capability matched task %q", e.Task)
}

// ValidationError rejects an invocation whose input failed schema checks.
// Recorded as a failure outcome; does not consume a retry attempt.
type ValidationError struct {
	Field   string `json:"field"`
	Value   any    `json:"value,omitempty"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field %q: %s", e.Field, e.Message)
}

// TransientError wraps a condition worth retrying, subject to the
// capability's idempotency class.
type TransientError struct {
	Reason string
	Cause  error
}

func (e *TransientError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("transient: %s: %v", e.Reason, e.Cause)
	}
	return "transient: " + e.Reason
}

func (e *TransientError) Unwrap() error { return e.Cause }

// NewTransientError wraps err as retryable with a short reason.
func NewTransientError(reason string, err error) *TransientError {
	return &TransientError{Reason: reason, Cause: err}
}

// PermanentError wraps a condition no retry can fix.
type PermanentError struct {
	Reason string
	Cause  error
}

func (e *PermanentError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("permanent: %s: %v", e.Reason, e.Cause)
	}
	return "permanent: " + e.Reason
}

func (e *PermanentError) Unwrap() error { return e.Cause }

// NewPermanentError wraps err as non-retryable with a short reason.
func NewPermanentError(reason string, err error) *PermanentError {
	return &PermanentError{Reason: reason, Cause: err}
}
