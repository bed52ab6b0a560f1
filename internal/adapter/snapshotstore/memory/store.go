package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/openpos/ledgerd/internal/actor"
)

// Store is an in-memory snapshot store for single-process deployments and
// tests. Contents do not survive a restart.
type Store struct {
	mu    sync.RWMutex
	snaps map[actor.Key]actor.Snapshot
}

// New creates an empty store.
func New() *Store {
	return &Store{snaps: make(map[actor.Key]actor.Snapshot)}
}

// Load returns the snapshot for key.
func (s *Store) Load(ctx context.Context, key actor.Key) (*actor.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap, ok := s.snaps[key]
	if !ok {
		return nil, actor.ErrSnapshotNotFound
	}
	snap.Data = slices.Clone(snap.Data)
	return &snap, nil
}

// Save overwrites the snapshot for key.
func (s *Store) Save(ctx context.Context, key actor.Key, snap actor.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap.Data = slices.Clone(snap.Data)
	s.snaps[key] = snap
	return nil
}

// ListKeys returns every stored key of the given kind; an empty kind matches
// all kinds.
func (s *Store) ListKeys(ctx context.Context, kind string) ([]actor.Key, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]actor.Key, 0, len(s.snaps))
	for key := range s.snaps {
		if kind == "" || key.Kind == kind {
			keys = append(keys, key)
		}
	}
	return keys, nil
}

// Len reports the number of stored snapshots.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.snaps)
}
