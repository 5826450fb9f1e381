// Package registry implements the capability registry: a static mapping from
// capability name to its descriptor and adapter. Registration happens once
// at process start; the registry is read-only thereafter.
package registry

import (
	"sync"
	"time"

	"github.com/hupe1980/agenthub/core"
)

// DefaultTimeout is applied to capabilities registered without one.
const DefaultTimeout = 15 * time.Second

// Entry pairs a capability descriptor with its adapter.
type Entry struct {
	Capability core.Capability
	Adapter    core.Adapter
}

// Registry holds registered capabilities in registration order. Safe for
// concurrent reads; writes are expected only during startup.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]Entry
	order   []string
}

// New constructs an empty registry.
func New() *Registry {
	return &Registry{entries: make(map[string]Entry)}
}

// Register adds a capability and its adapter. It fails with
// *core.DuplicateCapabilityError if the name is already present; duplicate
// registration is fatal at startup by policy. A zero timeout is replaced
// with DefaultTimeout and a negative retry count is clamped to zero.
func (r *Registry) Register(cap core.Capability, adapter core.Adapter) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[cap.Name]; exists {
		return &core.DuplicateCapabilityError{Name: cap.Name}
	}
	if cap.Timeout <= 0 {
		cap.Timeout = DefaultTimeout
	}
	if cap.MaxRetries < 0 {
		cap.MaxRetries = 0
	}

	r.entries[cap.Name] = Entry{Capability: cap, Adapter: adapter}
	r.order = append(r.order, cap.Name)
	return nil
}

// Lookup returns the entry for a capability name or
// *core.UnknownCapabilityError if absent.
func (r *Registry) Lookup(name string) (Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.entries[name]
	if !ok {
		return Entry{}, &core.UnknownCapabilityError{Name: name}
	}
	return entry, nil
}

// List returns all entries in registration order. The router relies on this
// order as the final routing tie-break.
func (r *Registry) List() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Entry, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.entries[name])
	}
	return out
}

// Len returns the number of registered capabilities.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}
