// Package memory provides an in-memory checkpoint store, used by tests
// and by the chat CLI when no Redis is configured.
package memory

import (
	"context"
	"sync"

	"github.com/aaasjp/travel-bill-agent/pkg/domain"
)

// Store implements ports.CheckpointStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[string]*domain.State
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string]*domain.State),
	}
}

// Save persists a snapshot. The state is deep-copied so later caller
// mutations do not leak into the stored snapshot.
func (s *Store) Save(ctx context.Context, threadID string, state *domain.State) error {
	copied := state.Clone()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[threadID] = copied
	return nil
}

// Load retrieves a snapshot, copied so the caller cannot mutate the
// stored state through the returned pointer.
func (s *Store) Load(ctx context.Context, threadID string) (*domain.State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state, ok := s.data[threadID]
	if !ok {
		return nil, domain.ErrThreadNotFound
	}
	return state.Clone(), nil
}

// Delete removes a snapshot.
func (s *Store) Delete(ctx context.Context, threadID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, threadID)
	return nil
}

// List returns the stored thread IDs.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	threads := make([]string, 0, len(s.data))
	for id := range s.data {
		threads = append(threads, id)
	}
	return threads, nil
}
