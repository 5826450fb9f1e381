package core

import (
	"time"

	"github.com/google/uuid"
)

// IdempotencyClass declares how safely a capability invocation may be
// repeated. The executor uses it to decide whether a failed or timed-out
// call is eligible for automatic retry.
type IdempotencyClass string

const (
	// SafeRetry marks capabilities whose invocations can be repeated without
	// observable side effects (pure lookups, read-only queries).
	SafeRetry IdempotencyClass = "safe-retry"

	// AtMostOnce marks capabilities that must not be invoked again once
	// dispatched, even if the first attempt failed (e.g. code execution).
	AtMostOnce IdempotencyClass = "at-most-once"

	// NonIdempotent marks capabilities with externally visible side effects
	// per call (e.g. file writes). Never retried.
	NonIdempotent IdempotencyClass = "non-idempotent"
)

// Retryable reports whether the executor may re-dispatch an invocation of
// this class after a transient failure or timeout.
func (c IdempotencyClass) Retryable() bool { return c == SafeRetry }

// Capability describes a named operation an external adapter can perform.
// Descriptors are immutable once registered; the registry rejects duplicate
// names at startup.
type Capability struct {
	// Name uniquely identifies the capability (snake_case recommended).
	Name string `json:"name"`

	// Description is the natural language summary the router scores tasks
	// against. It should name the concrete things the capability can do.
	Description string `json:"description"`

	// InputSchema is a minimal JSON-Schema-like map validated against the
	// derived sub-query before dispatch. A failed check is recorded as a
	// validation failure without consuming a retry attempt.
	InputSchema map[string]any `json:"input_schema,omitempty"`

	// Idempotency governs the executor's retry policy for this capability.
	Idempotency IdempotencyClass `json:"idempotency"`

	// Timeout bounds a single invocation attempt.
	Timeout time.Duration `json:"timeout"`

	// MaxRetries caps additional attempts after the first for retryable
	// classes. The executor additionally enforces a global attempt ceiling.
	MaxRetries int `json:"max_retries"`

	// Knowledge marks lookup-style capabilities whose successful payloads
	// feed the session knowledge accumulator.
	Knowledge bool `json:"knowledge"`
}

// RequiredFields returns the number of required properties in the input
// schema. The router prefers the capability with more required fields when
// two score equally (a narrower schema is a more specific match).
func (c Capability) RequiredFields() int {
	if c.InputSchema == nil {
		return 0
	}
	switch req := c.InputSchema["required"].(type) {
	case []string:
		return len(req)
	case []any:
		return len(req)
	default:
		return 0
	}
}

// NewID generates a unique identifier for tasks, sessions and invocations.
func NewID() string { return uuid.NewString() }
