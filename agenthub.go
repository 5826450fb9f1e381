// Package agenthub provides a high-level façade over the capability
// registry, router, executor, synthesizer and session store. Most
// applications interact with this package by:
//  1. Creating a Hub via New() (optionally overriding the classifier,
//     session store, task budget or logger)
//  2. Registering capability adapters (built-ins from the adapter package
//     or custom ones)
//  3. Asking questions with Ask(); each call returns exactly one response
//
// The façade delegates orchestration to hub.Hub while keeping setup
// ergonomics concise. All defaults are deterministic and in-memory, safe for
// local development and testing.
package agenthub

import (
	"context"

	"github.com/hupe1980/agenthub/core"
	"github.com/hupe1980/agenthub/hub"
	"github.com/hupe1980/agenthub/logging"
	"github.com/hupe1980/agenthub/registry"
)

// Options configures the AgentHub instance.
type Options struct {
	// HubOptions is forwarded to the underlying coordinator: session store,
	// classifier, task budget, retry tuning.
	HubOptions []func(o *hub.Options)

	// Logger (defaults to NoOp logger if nil).
	Logger logging.Logger
}

// AgentHub is the high-level façade aggregating the registry and the task
// pipeline.
type AgentHub struct {
	reg *registry.Registry
	hub *hub.Hub
}

// New creates an AgentHub with optional overrides. Capabilities must be
// registered before the first Ask; registration is not synchronized with
// in-flight tasks.
func New(optFns ...func(o *Options)) *AgentHub {
	opts := Options{
		Logger: logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	reg := registry.New()
	hubOpts := append([]func(o *hub.Options){func(o *hub.Options) {
		o.Logger = opts.Logger
	}}, opts.HubOptions...)

	return &AgentHub{reg: reg, hub: hub.New(reg, hubOpts...)}
}

// Register adds a capability and its adapter.
func (h *AgentHub) Register(cap core.Capability, adapter core.Adapter) error {
	return h.reg.Register(cap, adapter)
}

// Ask runs one task through routing, execution and synthesis, records the
// exchange in the session and returns the terminal response.
func (h *AgentHub) Ask(ctx context.Context, sessionID, text string) (core.Response, error) {
	return h.hub.Submit(ctx, sessionID, text)
}

// Session returns a read-only copy of a session's history and knowledge.
func (h *AgentHub) Session(id string) (*core.Session, error) {
	return h.hub.Session(id)
}

// Capabilities returns the registered capability descriptors in registration
// order.
func (h *AgentHub) Capabilities() []core.Capability {
	entries := h.reg.List()
	caps := make([]core.Capability, len(entries))
	for i, e := range entries {
		caps[i] = e.Capability
	}
	return caps
}
