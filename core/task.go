package core

import "time"

// Task is a single caller request. Immutable after creation.
type Task struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	SessionID string    `json:"session_id"`
	Arrived   time.Time `json:"arrived"`

	// Deadline bounds the whole plan execution. Zero means no deadline.
	Deadline time.Time `json:"deadline,omitempty"`
}

// NewTask creates a task for the given text bound to a session. A non-zero
// budget establishes the overall deadline relative to arrival time.
func NewTask(sessionID, text string, budget time.Duration) Task {
	now := time.Now().UTC()
	t := Task{ID: NewID(), Text: text, SessionID: sessionID, Arrived: now}
	if budget > 0 {
		t.Deadline = now.Add(budget)
	}
	return t
}

// ExecutionMode tags how the steps of a plan are dispatched.
type ExecutionMode string

const (
	// ModeSequential executes steps in declared order; later steps see the
	// payloads of earlier successful steps.
	ModeSequential ExecutionMode = "sequential"

	// ModeParallel dispatches all steps concurrently and waits for every
	// step to reach a terminal state or for the task deadline.
	ModeParallel ExecutionMode = "parallel"
)

// Step is one planned capability invocation.
type Step struct {
	// Capability names the registry entry to invoke.
	Capability string `json:"capability"`

	// Query is the sub-query derived from the task text for this capability.
	Query string `json:"query"`

	// DependsOn lists indices of earlier steps whose success is required.
	// If any referenced step did not succeed this step is skipped.
	// Only meaningful in sequential mode.
	DependsOn []int `json:"depends_on,omitempty"`
}

// Plan is the ordered, mode-tagged set of capability invocations chosen for
// one task. Produced by the router, consumed by the executor, discarded
// after execution.
type Plan struct {
	TaskID string        `json:"task_id"`
	Mode   ExecutionMode `json:"mode"`
	Steps  []Step        `json:"steps"`
}

// Empty reports whether the plan contains no steps (routing found nothing).
func (p Plan) Empty() bool { return len(p.Steps) == 0 }
