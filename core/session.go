package core

import (
	"sort"
	"sync"
	"time"
)

// Exchange pairs a task with its terminal response in session history.
type Exchange struct {
	Task     Task     `json:"task"`
	Response Response `json:"response"`
}

// Session is a conversation-scoped container holding the ordered history of
// (task, response) pairs and the knowledge accumulator. Safe for concurrent
// access. Sessions are independent: no cross-session sharing, ever.
//
// Contract:
//   - History is append-only; mutations update the Updated timestamp
//   - Knowledge is last-write-wins per topic key and never auto-deleted
//   - Clone performs deep copies so callers can read without holding locks
type Session struct {
	ID        string            `json:"id"`
	History   []Exchange        `json:"history"`
	Knowledge map[string]string `json:"knowledge"`
	Created   time.Time         `json:"created"`
	Updated   time.Time         `json:"updated"`
	mu        sync.RWMutex
}

// NewSession creates an empty session with the given ID.
func NewSession(id string) *Session {
	now := time.Now().UTC()
	return &Session{ID: id, History: []Exchange{}, Knowledge: map[string]string{}, Created: now, Updated: now}
}

// Append adds a completed exchange to the history.
func (s *Session) Append(ex Exchange) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.History = append(s.History, ex)
	s.Updated = time.Now().UTC()
}

// Accumulate stores a retrieved summary under a topic key, overwriting any
// prior summary for that topic.
func (s *Session) Accumulate(topic, summary string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Knowledge[topic] = summary
	s.Updated = time.Now().UTC()
}

// Lookup returns the accumulated summary for a topic, if any.
func (s *Session) Lookup(topic string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.Knowledge[topic]
	return v, ok
}

// RecentTexts returns the task texts of the most recent n exchanges in
// chronological order. Used by the router for context-dependent routing.
func (s *Session) RecentTexts(n int) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	start := len(s.History) - n
	if start < 0 {
		start = 0
	}
	texts := make([]string, 0, len(s.History)-start)
	for _, ex := range s.History[start:] {
		texts = append(texts, ex.Task.Text)
	}
	return texts
}

// Topics returns the knowledge topic keys sorted lexicographically so that
// callers relying on them (e.g. routing context) stay deterministic.
func (s *Session) Topics() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	topics := make([]string, 0, len(s.Knowledge))
	for k := range s.Knowledge {
		topics = append(topics, k)
	}
	sort.Strings(topics)
	return topics
}

// Clone returns a deep copy of the session safe for independent mutation.
func (s *Session) Clone() *Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	clone := &Session{
		ID:        s.ID,
		History:   make([]Exchange, len(s.History)),
		Knowledge: make(map[string]string, len(s.Knowledge)),
		Created:   s.Created,
		Updated:   s.Updated,
	}
	copy(clone.History, s.History)
	for k, v := range s.Knowledge {
		clone.Knowledge[k] = v
	}
	return clone
}

// SessionStore owns session lifecycle. Get lazily creates missing sessions;
// Append and Accumulate mutate stored state after a task's plan has fully
// resolved.
type SessionStore interface {
	Get(id string) (*Session, error)
	Append(id string, ex Exchange) error
	Accumulate(id, topic, summary string) error
}
