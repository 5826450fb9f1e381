// Package hub wires the pipeline together: session lookup, routing,
// execution and synthesis, then the write-back of history and knowledge.
// One task in, one response out, always.
package hub

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/hupe1980/agenthub/classify"
	"github.com/hupe1980/agenthub/core"
	"github.com/hupe1980/agenthub/executor"
	"github.com/hupe1980/agenthub/logging"
	"github.com/hupe1980/agenthub/registry"
	"github.com/hupe1980/agenthub/router"
	"github.com/hupe1980/agenthub/session"
	"github.com/hupe1980/agenthub/synth"
)

// Options configures a Hub. Any unset collaborator is initialized with its
// default in-memory implementation.
type Options struct {
	// Store persists sessions. Defaults to the in-memory store.
	Store core.SessionStore

	// Classifier scores task/capability pairs during routing. Defaults to
	// the deterministic keyword classifier.
	Classifier classify.Classifier

	// TaskBudget bounds end-to-end plan execution per task. Zero means no
	// deadline beyond the caller's context.
	TaskBudget time.Duration

	// RouterOptions tunes routing beyond the classifier choice.
	RouterOptions []func(o *router.Options)

	// ExecutorOptions tunes retry backoff and attempt ceilings.
	ExecutorOptions []func(o *executor.Options)

	Logger logging.Logger
}

// Hub coordinates the full task lifecycle over a shared registry. Safe for
// concurrent use; tasks within one session are serialized, tasks across
// sessions proceed independently.
type Hub struct {
	reg    *registry.Registry
	store  core.SessionStore
	router *router.Router
	exec   *executor.Executor
	synth  *synth.Synthesizer
	budget time.Duration
	logger logging.Logger

	mu       sync.Mutex
	sessions map[string]*sync.Mutex
}

// New creates a Hub over the given registry with optional overrides.
func New(reg *registry.Registry, optFns ...func(o *Options)) *Hub {
	opts := Options{
		Store:      session.NewInMemoryStore(),
		Classifier: classify.NewKeyword(),
		Logger:     logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	logger := logging.OrNoOp(opts.Logger)

	routerOpts := append([]func(o *router.Options){func(o *router.Options) {
		o.Classifier = opts.Classifier
		o.Logger = logger
	}}, opts.RouterOptions...)

	executorOpts := append([]func(o *executor.Options){func(o *executor.Options) {
		o.Logger = logger
	}}, opts.ExecutorOptions...)

	return &Hub{
		reg:      reg,
		store:    opts.Store,
		router:   router.New(reg, routerOpts...),
		exec:     executor.New(reg, executorOpts...),
		synth:    synth.New(reg, func(o *synth.Options) { o.Logger = logger }),
		budget:   opts.TaskBudget,
		logger:   logger,
		sessions: make(map[string]*sync.Mutex),
	}
}

// Submit runs one task through the full pipeline and returns its terminal
// response. Routing misses and execution failures surface as failed or
// partial responses; an error return means the store itself misbehaved.
func (h *Hub) Submit(ctx context.Context, sessionID, text string) (core.Response, error) {
	// One task at a time per session: later tasks must see earlier history.
	release := h.lockSession(sessionID)
	defer release()

	sess, err := h.store.Get(sessionID)
	if err != nil {
		return core.Response{}, err
	}

	task := core.NewTask(sessionID, text, h.budget)
	h.logger.Info("task accepted", "task_id", task.ID, "session_id", sessionID)

	resp := h.resolve(ctx, task, sess)

	if err := h.store.Append(sessionID, core.Exchange{Task: task, Response: resp}); err != nil {
		return core.Response{}, err
	}
	return resp, nil
}

// resolve routes, executes and synthesizes, folding routing misses into a
// failed response.
func (h *Hub) resolve(ctx context.Context, task core.Task, sess *core.Session) core.Response {
	plan, err := h.router.Route(ctx, task, sess)
	if err != nil {
		var noMatch *core.NoMatchingCapabilityError
		if errors.As(err, &noMatch) {
			return h.synth.Failed(task, "no capability matched the request")
		}
		return h.synth.Failed(task, err.Error())
	}

	outcomes := h.exec.Execute(ctx, task, plan)
	resp := h.synth.Synthesize(task, plan, outcomes)

	for topic, summary := range h.synth.Knowledge(plan, outcomes) {
		if err := h.store.Accumulate(task.SessionID, topic, summary); err != nil {
			h.logger.Warn("knowledge write failed",
				"session_id", task.SessionID, "topic", topic, "error", err.Error())
		}
	}
	return resp
}

// Session returns a read-only copy of the session state.
func (h *Hub) Session(id string) (*core.Session, error) {
	return h.store.Get(id)
}

// lockSession locks the per-session mutex and returns its release function.
func (h *Hub) lockSession(id string) func() {
	h.mu.Lock()
	l, ok := h.sessions[id]
	if !ok {
		l = &sync.Mutex{}
		h.sessions[id] = l
	}
	h.mu.Unlock()

	l.Lock()
	return l.Unlock
}
