package core

import "time"

// OutcomeStatus is the terminal state of a single capability invocation.
type OutcomeStatus string

const (
	// StatusSuccess marks an invocation that returned a payload.
	StatusSuccess OutcomeStatus = "success"
	// StatusFailure marks an adapter error or rejected validation.
	StatusFailure OutcomeStatus = "failure"
	// StatusTimeout marks an invocation that exceeded its per-call timeout
	// or the task deadline.
	StatusTimeout OutcomeStatus = "timeout"
	// StatusSkipped marks a step whose upstream dependency did not succeed.
	StatusSkipped OutcomeStatus = "skipped"
)

// Outcome records the terminal result of one plan step. Immutable once
// recorded; exactly one outcome exists per plan step.
type Outcome struct {
	Capability string        `json:"capability"`
	Status     OutcomeStatus `json:"status"`
	Payload    string        `json:"payload,omitempty"`
	Err        string        `json:"error,omitempty"`
	Sources    []string      `json:"sources,omitempty"`
	Duration   time.Duration `json:"duration"`
}

// Succeeded reports whether the invocation produced a payload.
func (o Outcome) Succeeded() bool { return o.Status == StatusSuccess }

// ResponseStatus summarizes a whole response.
type ResponseStatus string

const (
	// StatusComplete: every outcome succeeded.
	StatusComplete ResponseStatus = "complete"
	// StatusPartial: at least one success and at least one non-success.
	StatusPartial ResponseStatus = "partial"
	// StatusFailed: zero successes.
	StatusFailed ResponseStatus = "failed"
)

// Response is the single synthesized answer for one task. Terminal; produced
// exactly once per task and appended to the session history.
type Response struct {
	TaskID string `json:"task_id"`

	// Text is the synthesized answer, annotated with capability attribution
	// when more than one capability contributed.
	Text string `json:"text"`

	// Sources is the deduplicated, first-seen-ordered list of citations
	// across all outcomes.
	Sources []string `json:"sources,omitempty"`

	// Outcomes preserves every per-capability result in plan order for audit.
	Outcomes []Outcome `json:"outcomes,omitempty"`

	Status ResponseStatus `json:"status"`
}
