package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/heartmarshall/myenglish-session/internal/domain"
)

type entry struct {
	value     []byte
	updatedAt time.Time
}

// SnapshotStore is a key-value store for session snapshots.
type SnapshotStore struct {
	clock clockwork.Clock

	mu      sync.RWMutex
	entries map[string]entry
}

// NewSnapshotStore creates an empty SnapshotStore. The clock stamps writes
// for DeleteOlderThan.
func NewSnapshotStore(clock clockwork.Clock) *SnapshotStore {
	return &SnapshotStore{
		clock:   clock,
		entries: make(map[string]entry),
	}
}

// Get returns a copy of the value stored under key.
// Returns domain.ErrNotFound if the key is absent.
func (s *SnapshotStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[key]
	if !ok {
		return nil, fmt.Errorf("snapshot %s: %w", key, domain.ErrNotFound)
	}
	return append([]byte(nil), e.value...), nil
}

// Set stores a copy of value under key.
func (s *SnapshotStore) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[key] = entry{
		value:     append([]byte(nil), value...),
		updatedAt: s.clock.Now(),
	}
	return nil
}

// Remove deletes key. Removing an absent key is not an error.
func (s *SnapshotStore) Remove(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, key)
	return nil
}

// DeleteOlderThan removes entries last written before t and returns how
// many were removed.
func (s *SnapshotStore) DeleteOlderThan(_ context.Context, t time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for key, e := range s.entries {
		if e.updatedAt.Before(t) {
			delete(s.entries, key)
			n++
		}
	}
	return n, nil
}
