// Package session provides session persistence. The in-memory store is the
// default; anything durable can be dropped in behind core.SessionStore.
package session

import (
	"sync"

	"github.com/hupe1980/agenthub/core"
)

// InMemoryStore keeps sessions in a process-local map. Safe for concurrent
// use. Sessions are created lazily on first access and never expire.
type InMemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*core.Session
}

var _ core.SessionStore = (*InMemoryStore)(nil)

// NewInMemoryStore creates an empty store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{sessions: make(map[string]*core.Session)}
}

// Get returns a deep copy of the session, creating it if absent. Callers can
// read the clone freely without racing writers.
func (s *InMemoryStore) Get(id string) (*core.Session, error) {
	return s.obtain(id).Clone(), nil
}

// Append records a completed exchange in the session history.
func (s *InMemoryStore) Append(id string, ex core.Exchange) error {
	s.obtain(id).Append(ex)
	return nil
}

// Accumulate stores a knowledge summary under the topic key, overwriting any
// prior value.
func (s *InMemoryStore) Accumulate(id, topic, summary string) error {
	s.obtain(id).Accumulate(topic, summary)
	return nil
}

// Len returns the number of live sessions.
func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// obtain returns the live session for id, creating it on first use.
func (s *InMemoryStore) obtain(id string) *core.Session {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if ok {
		return sess
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok = s.sessions[id]; ok {
		return sess
	}
	sess = core.NewSession(id)
	s.sessions[id] = sess
	return sess
}
