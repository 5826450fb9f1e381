package router

import (
	"context"
	"testing"

	"github.com/hupe1980/agenthub/classify"
	"github.com/hupe1980/agenthub/core"
	"github.com/hupe1980/agenthub/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type readAdapter struct{}

func (readAdapter) Invoke(context.Context, core.Call) (*core.Result, error) {
	return &core.Result{Payload: "ok"}, nil
}

type writeAdapter struct{}

func (writeAdapter) Invoke(context.Context, core.Call) (*core.Result, error) {
	return &core.Result{Payload: "saved"}, nil
}

func (writeAdapter) ResourceKey(core.Call) string { return "files/out.txt" }

func newTestRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	reg := registry.New()

	caps := []core.Capability{
		{
			Name: "web_search",
			Description: "Search the web or the news for any query and return the " +
				"top results with a short summary and source for each.",
		},
		{
			Name: "calculator",
			Description: "Perform arithmetic: add, subtract, multiply, divide, " +
				"square a number, compute square roots, factorials and check primes.",
		},
		{
			Name: "stock_quotes",
			Description: "Retrieve the latest stock price quote for a ticker symbol " +
				"including open, close, high and low.",
		},
	}
	for _, c := range caps {
		require.NoError(t, reg.Register(c, readAdapter{}))
	}
	require.NoError(t, reg.Register(core.Capability{
		Name: "file_store",
		Description: "Save data to a txt file or read the content of an existing " +
			"file in the files directory.",
	}, writeAdapter{}))

	return reg
}

func TestRouter_SingleCapability(t *testing.T) {
	r := New(newTestRegistry(t))
	task := core.NewTask("s1", "What is 17 squared?", 0)

	plan, err := r.Route(context.Background(), task, core.NewSession("s1"))
	require.NoError(t, err)

	require.Len(t, plan.Steps, 1)
	assert.Equal(t, "calculator", plan.Steps[0].Capability)
	assert.Equal(t, task.Text, plan.Steps[0].Query)
	assert.Equal(t, core.ModeSequential, plan.Mode)
	assert.Equal(t, task.ID, plan.TaskID)
}

func TestRouter_NoMatch(t *testing.T) {
	r := New(newTestRegistry(t))
	task := core.NewTask("s1", "zzz qqq xyzzy", 0)

	plan, err := r.Route(context.Background(), task, core.NewSession("s1"))
	var noMatch *core.NoMatchingCapabilityError
	require.ErrorAs(t, err, &noMatch)
	assert.True(t, plan.Empty())
}

func TestRouter_ParallelFanOut(t *testing.T) {
	r := New(newTestRegistry(t))
	task := core.NewTask("s1", "search the news for chip makers and check the stock price of NVDA", 0)

	plan, err := r.Route(context.Background(), task, core.NewSession("s1"))
	require.NoError(t, err)

	require.GreaterOrEqual(t, len(plan.Steps), 2)
	assert.Equal(t, core.ModeParallel, plan.Mode)

	names := map[string]bool{}
	for _, s := range plan.Steps {
		names[s.Capability] = true
	}
	assert.True(t, names["web_search"])
	assert.True(t, names["stock_quotes"])
}

func TestRouter_SequentialDependency(t *testing.T) {
	r := New(newTestRegistry(t))
	task := core.NewTask("s1", "Search for Go generics and save the top result to notes.txt", 0)

	plan, err := r.Route(context.Background(), task, core.NewSession("s1"))
	require.NoError(t, err)

	assert.Equal(t, core.ModeSequential, plan.Mode)
	require.Len(t, plan.Steps, 2)
	assert.Equal(t, "web_search", plan.Steps[0].Capability)
	assert.Equal(t, "file_store", plan.Steps[1].Capability)
	assert.Equal(t, []int{0}, plan.Steps[1].DependsOn)

	// Sub-queries follow the clauses, not the whole task.
	assert.Contains(t, plan.Steps[0].Query, "Search for Go generics")
	assert.Contains(t, plan.Steps[1].Query, "save the top result")
}

func TestRouter_Deterministic(t *testing.T) {
	reg := newTestRegistry(t)
	// Two independent routers so the plan cache cannot mask nondeterminism.
	r1 := New(reg, func(o *Options) { o.CacheSize = 0 })
	r2 := New(reg, func(o *Options) { o.CacheSize = 0 })

	sess := core.NewSession("s1")
	sess.Accumulate("go", "a programming language")
	task := core.NewTask("s1", "search the web for Go release notes", 0)

	p1, err := r1.Route(context.Background(), task, sess)
	require.NoError(t, err)
	p2, err := r2.Route(context.Background(), task, sess)
	require.NoError(t, err)

	assert.Equal(t, p1.Mode, p2.Mode)
	assert.Equal(t, p1.Steps, p2.Steps)
}

func TestRouter_TieBreakNarrowerSchema(t *testing.T) {
	reg := registry.New()
	require.NoError(t, reg.Register(core.Capability{
		Name:        "broad",
		InputSchema: map[string]any{"required": []string{"query"}},
	}, readAdapter{}))
	require.NoError(t, reg.Register(core.Capability{
		Name:        "narrow",
		InputSchema: map[string]any{"required": []string{"query", "path"}},
	}, readAdapter{}))

	constant := classify.Func(func(context.Context, string, []string, core.Capability) (float64, error) {
		return 0.5, nil
	})
	r := New(reg, func(o *Options) {
		o.Classifier = constant
		o.MaxSelections = 1
	})

	plan, err := r.Route(context.Background(), core.NewTask("s1", "anything", 0), nil)
	require.NoError(t, err)
	require.Len(t, plan.Steps, 1)
	assert.Equal(t, "narrow", plan.Steps[0].Capability)
}

func TestRouter_TieBreakRegistrationOrder(t *testing.T) {
	reg := registry.New()
	require.NoError(t, reg.Register(core.Capability{Name: "first"}, readAdapter{}))
	require.NoError(t, reg.Register(core.Capability{Name: "second"}, readAdapter{}))

	constant := classify.Func(func(context.Context, string, []string, core.Capability) (float64, error) {
		return 0.5, nil
	})
	r := New(reg, func(o *Options) {
		o.Classifier = constant
		o.MaxSelections = 1
	})

	plan, err := r.Route(context.Background(), core.NewTask("s1", "anything", 0), nil)
	require.NoError(t, err)
	require.Len(t, plan.Steps, 1)
	assert.Equal(t, "first", plan.Steps[0].Capability)
}

func TestRouter_MaxSelections(t *testing.T) {
	reg := newTestRegistry(t)
	constant := classify.Func(func(context.Context, string, []string, core.Capability) (float64, error) {
		return 0.9, nil
	})
	r := New(reg, func(o *Options) {
		o.Classifier = constant
		o.MaxSelections = 2
	})

	plan, err := r.Route(context.Background(), core.NewTask("s1", "anything at all", 0), nil)
	require.NoError(t, err)
	assert.Len(t, plan.Steps, 2)
}

func TestRouter_ClassifierErrorsDegradeToNoMatch(t *testing.T) {
	reg := newTestRegistry(t)
	failing := classify.Func(func(context.Context, string, []string, core.Capability) (float64, error) {
		return 0, context.DeadlineExceeded
	})
	r := New(reg, func(o *Options) { o.Classifier = failing })

	_, err := r.Route(context.Background(), core.NewTask("s1", "anything", 0), nil)
	var noMatch *core.NoMatchingCapabilityError
	assert.ErrorAs(t, err, &noMatch)
}

func TestRouter_CacheReturnsFreshPlanPerTask(t *testing.T) {
	r := New(newTestRegistry(t))
	sess := core.NewSession("s1")

	t1 := core.NewTask("s1", "What is 17 squared?", 0)
	p1, err := r.Route(context.Background(), t1, sess)
	require.NoError(t, err)

	t2 := core.NewTask("s1", "What is 17 squared?", 0)
	p2, err := r.Route(context.Background(), t2, sess)
	require.NoError(t, err)

	assert.Equal(t, t2.ID, p2.TaskID)
	assert.Equal(t, p1.Steps, p2.Steps)

	// Mutating one plan must not leak into the cache.
	p1.Steps[0].Query = "mutated"
	p3, err := r.Route(context.Background(), core.NewTask("s1", "What is 17 squared?", 0), sess)
	require.NoError(t, err)
	assert.Equal(t, "What is 17 squared?", p3.Steps[0].Query)
}
