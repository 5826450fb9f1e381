package executor

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hupe1980/agenthub/core"
	"github.com/hupe1980/agenthub/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// adapterFunc adapts a function to core.Adapter for tests.
type adapterFunc func(ctx context.Context, call core.Call) (*core.Result, error)

func (f adapterFunc) Invoke(ctx context.Context, call core.Call) (*core.Result, error) {
	return f(ctx, call)
}

// keyedAdapter is an adapterFunc with a fixed resource key.
type keyedAdapter struct {
	adapterFunc
	key string
}

func (k keyedAdapter) ResourceKey(core.Call) string { return k.key }

func okAdapter(payload string, sources ...string) adapterFunc {
	return func(context.Context, core.Call) (*core.Result, error) {
		return &core.Result{Payload: payload, Sources: sources}, nil
	}
}

func fastBackoff(o *Options) { o.BaseBackoff = time.Millisecond }

func TestExecutor_OneOutcomePerStep(t *testing.T) {
	reg := registry.New()
	require.NoError(t, reg.Register(core.Capability{Name: "alpha", Idempotency: core.SafeRetry}, okAdapter("a")))
	require.NoError(t, reg.Register(core.Capability{Name: "beta", Idempotency: core.SafeRetry}, okAdapter("b")))

	exec := New(reg, fastBackoff)
	task := core.NewTask("s1", "run both", 0)
	plan := core.Plan{TaskID: task.ID, Mode: core.ModeParallel, Steps: []core.Step{
		{Capability: "alpha", Query: "run both"},
		{Capability: "beta", Query: "run both"},
	}}

	outcomes := exec.Execute(context.Background(), task, plan)
	require.Len(t, outcomes, 2)
	assert.Equal(t, "alpha", outcomes[0].Capability)
	assert.Equal(t, "a", outcomes[0].Payload)
	assert.Equal(t, "beta", outcomes[1].Capability)
	assert.Equal(t, "b", outcomes[1].Payload)
	for _, o := range outcomes {
		assert.Equal(t, core.StatusSuccess, o.Status)
	}
}

func TestExecutor_SequentialPassesPriorPayloads(t *testing.T) {
	reg := registry.New()
	require.NoError(t, reg.Register(core.Capability{Name: "producer", Idempotency: core.SafeRetry}, okAdapter("the answer")))

	var seen map[string]string
	require.NoError(t, reg.Register(core.Capability{Name: "consumer", Idempotency: core.NonIdempotent},
		adapterFunc(func(_ context.Context, call core.Call) (*core.Result, error) {
			seen = call.Context
			return &core.Result{Payload: "stored"}, nil
		})))

	exec := New(reg, fastBackoff)
	task := core.NewTask("s1", "produce then consume", 0)
	plan := core.Plan{TaskID: task.ID, Mode: core.ModeSequential, Steps: []core.Step{
		{Capability: "producer", Query: "produce"},
		{Capability: "consumer", Query: "consume", DependsOn: []int{0}},
	}}

	outcomes := exec.Execute(context.Background(), task, plan)
	require.Len(t, outcomes, 2)
	assert.Equal(t, core.StatusSuccess, outcomes[1].Status)
	assert.Equal(t, "the answer", seen["producer"])
}

func TestExecutor_SkipsOnFailedDependency(t *testing.T) {
	reg := registry.New()
	require.NoError(t, reg.Register(core.Capability{Name: "producer", Idempotency: core.AtMostOnce},
		adapterFunc(func(context.Context, core.Call) (*core.Result, error) {
			return nil, core.NewPermanentError("upstream is gone", nil)
		})))

	invoked := false
	require.NoError(t, reg.Register(core.Capability{Name: "consumer", Idempotency: core.NonIdempotent},
		adapterFunc(func(context.Context, core.Call) (*core.Result, error) {
			invoked = true
			return &core.Result{Payload: "stored"}, nil
		})))

	exec := New(reg, fastBackoff)
	task := core.NewTask("s1", "produce then consume", 0)
	plan := core.Plan{TaskID: task.ID, Mode: core.ModeSequential, Steps: []core.Step{
		{Capability: "producer", Query: "produce"},
		{Capability: "consumer", Query: "consume", DependsOn: []int{0}},
	}}

	outcomes := exec.Execute(context.Background(), task, plan)
	require.Len(t, outcomes, 2)
	assert.Equal(t, core.StatusFailure, outcomes[0].Status)
	assert.Equal(t, core.StatusSkipped, outcomes[1].Status)
	assert.Contains(t, outcomes[1].Err, "producer")
	assert.False(t, invoked, "skipped step must never reach the adapter")
}

func TestExecutor_RetriesTransientForSafeRetry(t *testing.T) {
	var calls atomic.Int32
	reg := registry.New()
	require.NoError(t, reg.Register(core.Capability{Name: "flaky", Idempotency: core.SafeRetry, MaxRetries: 2},
		adapterFunc(func(context.Context, core.Call) (*core.Result, error) {
			if calls.Add(1) < 3 {
				return nil, core.NewTransientError("upstream hiccup", nil)
			}
			return &core.Result{Payload: "recovered"}, nil
		})))

	exec := New(reg, fastBackoff)
	task := core.NewTask("s1", "be flaky", 0)
	plan := core.Plan{TaskID: task.ID, Mode: core.ModeSequential, Steps: []core.Step{{Capability: "flaky", Query: "go"}}}

	outcomes := exec.Execute(context.Background(), task, plan)
	require.Len(t, outcomes, 1)
	assert.Equal(t, core.StatusSuccess, outcomes[0].Status)
	assert.Equal(t, "recovered", outcomes[0].Payload)
	assert.Equal(t, int32(3), calls.Load())
}

func TestExecutor_NeverRetriesNonIdempotent(t *testing.T) {
	for _, class := range []core.IdempotencyClass{core.AtMostOnce, core.NonIdempotent} {
		t.Run(string(class), func(t *testing.T) {
			var calls atomic.Int32
			reg := registry.New()
			require.NoError(t, reg.Register(core.Capability{Name: "sideeffect", Idempotency: class, MaxRetries: 5},
				adapterFunc(func(context.Context, core.Call) (*core.Result, error) {
					calls.Add(1)
					return nil, core.NewTransientError("blip", nil)
				})))

			exec := New(reg, fastBackoff)
			task := core.NewTask("s1", "do it once", 0)
			plan := core.Plan{TaskID: task.ID, Mode: core.ModeSequential, Steps: []core.Step{{Capability: "sideeffect", Query: "go"}}}

			outcomes := exec.Execute(context.Background(), task, plan)
			require.Len(t, outcomes, 1)
			assert.Equal(t, core.StatusFailure, outcomes[0].Status)
			assert.Equal(t, int32(1), calls.Load())
		})
	}
}

func TestExecutor_PermanentErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	reg := registry.New()
	require.NoError(t, reg.Register(core.Capability{Name: "lookup", Idempotency: core.SafeRetry, MaxRetries: 3},
		adapterFunc(func(context.Context, core.Call) (*core.Result, error) {
			calls.Add(1)
			return nil, core.NewPermanentError("no such page", nil)
		})))

	exec := New(reg, fastBackoff)
	task := core.NewTask("s1", "look it up", 0)
	plan := core.Plan{TaskID: task.ID, Mode: core.ModeSequential, Steps: []core.Step{{Capability: "lookup", Query: "go"}}}

	outcomes := exec.Execute(context.Background(), task, plan)
	require.Len(t, outcomes, 1)
	assert.Equal(t, core.StatusFailure, outcomes[0].Status)
	assert.Contains(t, outcomes[0].Err, "no such page")
	assert.Equal(t, int32(1), calls.Load())
}

func TestExecutor_GlobalAttemptCeiling(t *testing.T) {
	var calls atomic.Int32
	reg := registry.New()
	require.NoError(t, reg.Register(core.Capability{Name: "flaky", Idempotency: core.SafeRetry, MaxRetries: 10},
		adapterFunc(func(context.Context, core.Call) (*core.Result, error) {
			calls.Add(1)
			return nil, core.NewTransientError("still down", nil)
		})))

	exec := New(reg, fastBackoff, func(o *Options) { o.MaxAttempts = 2 })
	task := core.NewTask("s1", "be flaky", 0)
	plan := core.Plan{TaskID: task.ID, Mode: core.ModeSequential, Steps: []core.Step{{Capability: "flaky", Query: "go"}}}

	outcomes := exec.Execute(context.Background(), task, plan)
	require.Len(t, outcomes, 1)
	assert.Equal(t, core.StatusFailure, outcomes[0].Status)
	assert.Equal(t, int32(2), calls.Load())
}

func TestExecutor_ValidationRejectsWithoutDispatch(t *testing.T) {
	var calls atomic.Int32
	reg := registry.New()
	require.NoError(t, reg.Register(core.Capability{
		Name:        "strict",
		Idempotency: core.SafeRetry,
		InputSchema: map[string]any{
			"type":       "object",
			"properties": map[string]any{"query": map[string]any{"type": "string", "minLength": 3}},
			"required":   []string{"query"},
		},
	}, adapterFunc(func(context.Context, core.Call) (*core.Result, error) {
		calls.Add(1)
		return &core.Result{Payload: "ok"}, nil
	})))

	exec := New(reg, fastBackoff)
	task := core.NewTask("s1", "x", 0)
	plan := core.Plan{TaskID: task.ID, Mode: core.ModeSequential, Steps: []core.Step{{Capability: "strict", Query: "x"}}}

	outcomes := exec.Execute(context.Background(), task, plan)
	require.Len(t, outcomes, 1)
	assert.Equal(t, core.StatusFailure, outcomes[0].Status)
	assert.Contains(t, outcomes[0].Err, "query")
	assert.Equal(t, int32(0), calls.Load(), "rejected call must never reach the adapter")
}

func TestExecutor_PerCallTimeout(t *testing.T) {
	reg := registry.New()
	require.NoError(t, reg.Register(core.Capability{Name: "slow", Idempotency: core.NonIdempotent, Timeout: 20 * time.Millisecond},
		adapterFunc(func(ctx context.Context, _ core.Call) (*core.Result, error) {
			select {
			case <-time.After(time.Second):
				return &core.Result{Payload: "too late"}, nil
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		})))

	exec := New(reg, fastBackoff)
	task := core.NewTask("s1", "take too long", 0)
	plan := core.Plan{TaskID: task.ID, Mode: core.ModeSequential, Steps: []core.Step{{Capability: "slow", Query: "go"}}}

	start := time.Now()
	outcomes := exec.Execute(context.Background(), task, plan)
	require.Len(t, outcomes, 1)
	assert.Equal(t, core.StatusTimeout, outcomes[0].Status)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestExecutor_TaskDeadlineBoundsParallelPlan(t *testing.T) {
	slow := adapterFunc(func(ctx context.Context, _ core.Call) (*core.Result, error) {
		select {
		case <-time.After(time.Second):
			return &core.Result{Payload: "late"}, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	})

	reg := registry.New()
	require.NoError(t, reg.Register(core.Capability{Name: "slow_a", Idempotency: core.NonIdempotent, Timeout: time.Minute}, slow))
	require.NoError(t, reg.Register(core.Capability{Name: "slow_b", Idempotency: core.NonIdempotent, Timeout: time.Minute}, slow))

	exec := New(reg, fastBackoff)
	task := core.NewTask("s1", "hurry up", 30*time.Millisecond)
	plan := core.Plan{TaskID: task.ID, Mode: core.ModeParallel, Steps: []core.Step{
		{Capability: "slow_a", Query: "go"},
		{Capability: "slow_b", Query: "go"},
	}}

	start := time.Now()
	outcomes := exec.Execute(context.Background(), task, plan)
	require.Len(t, outcomes, 2)
	for _, o := range outcomes {
		assert.Equal(t, core.StatusTimeout, o.Status)
	}
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestExecutor_ResourceKeySerializesParallelSteps(t *testing.T) {
	var mu sync.Mutex
	var active, maxActive int

	write := keyedAdapter{
		key: "files/notes.txt",
		adapterFunc: func(context.Context, core.Call) (*core.Result, error) {
			mu.Lock()
			active++
			if active > maxActive {
				maxActive = active
			}
			mu.Unlock()

			time.Sleep(10 * time.Millisecond)

			mu.Lock()
			active--
			mu.Unlock()
			return &core.Result{Payload: "written"}, nil
		},
	}

	reg := registry.New()
	require.NoError(t, reg.Register(core.Capability{Name: "writer_a", Idempotency: core.NonIdempotent}, write))
	require.NoError(t, reg.Register(core.Capability{Name: "writer_b", Idempotency: core.NonIdempotent}, write))

	exec := New(reg, fastBackoff)
	task := core.NewTask("s1", "write twice", 0)
	plan := core.Plan{TaskID: task.ID, Mode: core.ModeParallel, Steps: []core.Step{
		{Capability: "writer_a", Query: "go"},
		{Capability: "writer_b", Query: "go"},
	}}

	outcomes := exec.Execute(context.Background(), task, plan)
	require.Len(t, outcomes, 2)
	for _, o := range outcomes {
		assert.Equal(t, core.StatusSuccess, o.Status)
	}
	assert.Equal(t, 1, maxActive, "same resource key must never run concurrently")
}

func TestExecutor_UnknownCapabilityFails(t *testing.T) {
	exec := New(registry.New(), fastBackoff)
	task := core.NewTask("s1", "call the void", 0)
	plan := core.Plan{TaskID: task.ID, Mode: core.ModeSequential, Steps: []core.Step{{Capability: "ghost", Query: "go"}}}

	outcomes := exec.Execute(context.Background(), task, plan)
	require.Len(t, outcomes, 1)
	assert.Equal(t, core.StatusFailure, outcomes[0].Status)
	assert.Contains(t, outcomes[0].Err, "ghost")
}

func TestExecutor_EmptyPlan(t *testing.T) {
	exec := New(registry.New())
	task := core.NewTask("s1", "nothing to do", 0)

	outcomes := exec.Execute(context.Background(), task, core.Plan{TaskID: task.ID})
	assert.Empty(t, outcomes)
}
