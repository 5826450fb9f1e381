package core

import "context"

// Call carries the input of a single capability invocation.
type Call struct {
	// Query is the sub-query derived by the router for this capability.
	Query string `json:"query"`

	// Context maps capability names to the payloads of earlier successful
	// steps. Populated only for sequential plans; empty for parallel steps.
	Context map[string]string `json:"context,omitempty"`
}

// Result is the successful output of a capability invocation.
type Result struct {
	// Payload is the adapter's answer fragment fed into synthesis.
	Payload string `json:"payload"`

	// Sources are citation strings in the order the adapter produced them.
	Sources []string `json:"sources,omitempty"`
}

// Adapter is the uniform contract every capability implementation exposes.
//
// Adapters are thin, stateless collaborators wrapping external APIs, the
// filesystem or local computations. They must respect context cancellation;
// the executor detaches from adapters that do not and records a timeout.
//
// Errors should be typed: return *TransientError for conditions worth
// retrying (network hiccups, throttling), *PermanentError for conditions a
// retry cannot fix, and *ValidationError for malformed input. Untyped errors
// are recorded as permanent failures.
type Adapter interface {
	Invoke(ctx context.Context, call Call) (*Result, error)
}

// ResourceKeyer is an optional adapter interface declaring an exclusive
// resource (e.g. a file path) for a given call. The executor serializes
// invocations sharing a key, across plans and regardless of execution mode.
// An empty key means no serialization is needed for that call.
type ResourceKeyer interface {
	ResourceKey(call Call) string
}
