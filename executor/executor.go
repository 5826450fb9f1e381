// Package executor runs plans against live capability adapters.
//
// The executor owns the failure semantics of the engine: per-call timeouts,
// a single retry policy keyed by idempotency class, dependency skipping in
// sequential plans, deadline-bounded parallel fan-out and resource-key
// serialization. No adapter error ever aborts a plan; every step produces
// exactly one terminal outcome.
package executor

import (
	"context"
	"errors"
	"time"

	"github.com/hupe1980/agenthub/core"
	"github.com/hupe1980/agenthub/internal/schema"
	"github.com/hupe1980/agenthub/logging"
	"github.com/hupe1980/agenthub/registry"
)

// Options configures an Executor.
type Options struct {
	// BaseBackoff is the first retry delay; subsequent delays double.
	BaseBackoff time.Duration

	// MaxAttempts is the global ceiling on attempts per invocation,
	// including the first. Capability MaxRetries is additionally honored.
	MaxAttempts int

	Logger logging.Logger
}

// Executor dispatches plan steps to adapters. Safe for concurrent use; a
// single instance should be shared so resource-key serialization holds
// process-wide.
type Executor struct {
	reg         *registry.Registry
	baseBackoff time.Duration
	maxAttempts int
	locks       *keyedLocks
	logger      logging.Logger
}

// New constructs an Executor over the given registry.
func New(reg *registry.Registry, optFns ...func(o *Options)) *Executor {
	opts := Options{
		BaseBackoff: time.Second,
		MaxAttempts: 3,
		Logger:      logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.MaxAttempts < 1 {
		opts.MaxAttempts = 1
	}

	return &Executor{
		reg:         reg,
		baseBackoff: opts.BaseBackoff,
		maxAttempts: opts.MaxAttempts,
		locks:       newKeyedLocks(),
		logger:      logging.OrNoOp(opts.Logger),
	}
}

// Execute runs every step of the plan and returns one outcome per step in
// plan order. The task deadline bounds the whole run; steps still pending at
// the deadline are cancelled and recorded as timeouts.
func (e *Executor) Execute(ctx context.Context, task core.Task, plan core.Plan) []core.Outcome {
	if plan.Empty() {
		return nil
	}

	if !task.Deadline.IsZero() {
		var cancel context.CancelFunc
		ctx, cancel = context.WithDeadline(ctx, task.Deadline)
		defer cancel()
	}

	if plan.Mode == core.ModeParallel {
		return e.executeParallel(ctx, plan)
	}
	return e.executeSequential(ctx, plan)
}

func (e *Executor) executeSequential(ctx context.Context, plan core.Plan) []core.Outcome {
	outcomes := make([]core.Outcome, len(plan.Steps))

	for i, step := range plan.Steps {
		if blocked, upstream := blockedBy(step, outcomes); blocked {
			outcomes[i] = core.Outcome{
				Capability: step.Capability,
				Status:     core.StatusSkipped,
				Err:        "upstream capability " + upstream + " did not succeed",
			}
			continue
		}

		call := core.Call{Query: step.Query, Context: priorPayloads(plan.Steps[:i], outcomes[:i])}
		outcomes[i] = e.invoke(ctx, step, call)
	}

	return outcomes
}

func (e *Executor) executeParallel(ctx context.Context, plan core.Plan) []core.Outcome {
	outcomes := make([]core.Outcome, len(plan.Steps))

	type indexed struct {
		i       int
		outcome core.Outcome
	}
	results := make(chan indexed, len(plan.Steps))

	for i, step := range plan.Steps {
		go func(i int, step core.Step) {
			results <- indexed{i: i, outcome: e.invoke(ctx, step, core.Call{Query: step.Query})}
		}(i, step)
	}

	// invoke always returns by the deadline (it detaches from adapters that
	// ignore cancellation), so draining the channel terminates.
	for range plan.Steps {
		r := <-results
		outcomes[r.i] = r.outcome
	}

	return outcomes
}

// blockedBy reports whether a step's declared dependencies prevent it from
// running, naming the first non-successful upstream capability.
func blockedBy(step core.Step, outcomes []core.Outcome) (bool, string) {
	for _, dep := range step.DependsOn {
		if dep < 0 || dep >= len(outcomes) {
			continue
		}
		if !outcomes[dep].Succeeded() {
			return true, outcomes[dep].Capability
		}
	}
	return false, ""
}

// priorPayloads collects the payloads of earlier successful steps, keyed by
// capability name, as input context for downstream sequential steps.
func priorPayloads(steps []core.Step, outcomes []core.Outcome) map[string]string {
	if len(outcomes) == 0 {
		return nil
	}
	prior := make(map[string]string, len(outcomes))
	for i, o := range outcomes {
		if o.Succeeded() {
			prior[steps[i].Capability] = o.Payload
		}
	}
	if len(prior) == 0 {
		return nil
	}
	return prior
}

// invoke runs one plan step to a terminal outcome: validation, resource
// serialization, attempt loop with per-call timeout, and retry with
// exponential backoff for transient failures of safe-retry capabilities.
func (e *Executor) invoke(ctx context.Context, step core.Step, call core.Call) core.Outcome {
	start := time.Now()

	entry, err := e.reg.Lookup(step.Capability)
	if err != nil {
		return core.Outcome{
			Capability: step.Capability,
			Status:     core.StatusFailure,
			Err:        err.Error(),
			Duration:   time.Since(start),
		}
	}
	cap := entry.Capability

	// Pre-dispatch validation; a rejected call never consumes an attempt.
	if err := schema.Validate(map[string]any{"query": call.Query}, cap.InputSchema); err != nil {
		logging.Invocation(e.logger, cap.Name, string(core.StatusFailure), 0, time.Since(start))
		return core.Outcome{
			Capability: cap.Name,
			Status:     core.StatusFailure,
			Err:        err.Error(),
			Duration:   time.Since(start),
		}
	}

	if rk, ok := entry.Adapter.(core.ResourceKeyer); ok {
		if key := rk.ResourceKey(call); key != "" {
			release := e.locks.acquire(key)
			defer release()
		}
	}

	attempts := 1
	if cap.Idempotency.Retryable() {
		attempts = cap.MaxRetries + 1
		if attempts > e.maxAttempts {
			attempts = e.maxAttempts
		}
	}

	var outcome core.Outcome
	for attempt := 1; attempt <= attempts; attempt++ {
		var retryable bool
		outcome, retryable = e.attempt(ctx, cap, entry.Adapter, call)
		outcome.Duration = time.Since(start)
		logging.Invocation(e.logger, cap.Name, string(outcome.Status), attempt, outcome.Duration)

		if outcome.Succeeded() || !retryable || attempt == attempts {
			return outcome
		}
		if !e.backoff(ctx, attempt) {
			return outcome // task deadline hit while waiting
		}
	}
	return outcome
}

// attempt performs a single adapter call under the capability timeout. The
// second return value reports whether a retry would be worthwhile.
func (e *Executor) attempt(ctx context.Context, cap core.Capability, adapter core.Adapter, call core.Call) (core.Outcome, bool) {
	callCtx, cancel := context.WithTimeout(ctx, cap.Timeout)
	defer cancel()

	type reply struct {
		result *core.Result
		err    error
	}
	done := make(chan reply, 1)

	go func() {
		result, err := adapter.Invoke(callCtx, call)
		done <- reply{result: result, err: err}
	}()

	select {
	case <-callCtx.Done():
		// Adapter ignored cancellation or ran out of time; detach and record
		// the timeout. A late result is discarded via the buffered channel.
		return core.Outcome{
			Capability: cap.Name,
			Status:     core.StatusTimeout,
			Err:        callCtx.Err().Error(),
		}, ctx.Err() == nil // retry only if the task deadline itself is intact
	case r := <-done:
		if r.err != nil {
			// An adapter that honors cancellation surfaces the context error
			// itself; record it as a timeout, same as the detached path.
			if errors.Is(r.err, context.DeadlineExceeded) || errors.Is(r.err, context.Canceled) {
				return core.Outcome{
					Capability: cap.Name,
					Status:     core.StatusTimeout,
					Err:        r.err.Error(),
				}, ctx.Err() == nil
			}
			return e.classify(cap, r.err)
		}
		if r.result == nil {
			return core.Outcome{Capability: cap.Name, Status: core.StatusFailure, Err: "adapter returned no result"}, false
		}
		return core.Outcome{
			Capability: cap.Name,
			Status:     core.StatusSuccess,
			Payload:    r.result.Payload,
			Sources:    r.result.Sources,
		}, false
	}
}

// classify maps a typed adapter error to an outcome and retry eligibility.
func (e *Executor) classify(cap core.Capability, err error) (core.Outcome, bool) {
	outcome := core.Outcome{Capability: cap.Name, Status: core.StatusFailure, Err: err.Error()}

	var transient *core.TransientError
	if errors.As(err, &transient) {
		return outcome, true
	}
	// Validation, permanent and untyped errors are never retried.
	return outcome, false
}

// backoff sleeps for the exponential delay of the given attempt, returning
// false if the context expires first.
func (e *Executor) backoff(ctx context.Context, attempt int) bool {
	delay := e.baseBackoff << (attempt - 1)
	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
