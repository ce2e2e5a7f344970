// Package session keeps wizard sessions alive between requests.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jonathan/smartapplicant/internal/wizard"
)

// ErrNotFound is returned for unknown or expired sessions.
var ErrNotFound = errors.New("session not found")

// Store persists wizard state by session id. Entries expire.
type Store interface {
	Get(ctx context.Context, id string) (wizard.State, error)
	Save(ctx context.Context, id string, state wizard.State) error
	Delete(ctx context.Context, id string) error
}

type memoryEntry struct {
	state   wizard.State
	expires time.Time
}

// MemoryStore keeps sessions in process memory.
type MemoryStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemoryStore creates a MemoryStore whose entries live for ttl after the last save.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		ttl:     ttl,
		entries: map[string]memoryEntry{},
		now:     time.Now,
	}
}

// Get returns a copy of the stored state.
func (s *MemoryStore) Get(_ context.Context, id string) (wizard.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok {
		return wizard.State{}, ErrNotFound
	}
	if s.ttl > 0 && s.now().After(e.expires) {
		delete(s.entries, id)
		return wizard.State{}, ErrNotFound
	}
	return e.state.Clone(), nil
}

// Save stores a copy of state and refreshes its expiry.
func (s *MemoryStore) Save(_ context.Context, id string, state wizard.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[id] = memoryEntry{state: state.Clone(), expires: s.now().Add(s.ttl)}
	return nil
}

// Delete removes a session. Unknown ids are not an error.
func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, id)
	return nil
}

// Cleanup drops expired entries and returns how many were removed.
func (s *MemoryStore) Cleanup() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ttl <= 0 {
		return 0
	}
	now := s.now()
	removed := 0
	for id, e := range s.entries {
		if now.After(e.expires) {
			delete(s.entries, id)
			removed++
		}
	}
	return removed
}

// Len returns the number of stored sessions, expired ones included.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
