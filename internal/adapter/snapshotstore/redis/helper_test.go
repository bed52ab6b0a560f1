package redis

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	redislib "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/openpos/ledgerd/internal/actor"
	"github.com/openpos/ledgerd/internal/adapter/snapshotstore/memory"
)

var errDatabaseDown = errors.New("database down")

// countingStore wraps the in-memory store to observe which operations
// bypass the cache.
type countingStore struct {
	*memory.Store
	loads    atomic.Int64
	saves    atomic.Int64
	failSave atomic.Bool
}

func newCountingStore() *countingStore {
	return &countingStore{Store: memory.New()}
}

func (s *countingStore) Load(ctx context.Context, key actor.Key) (*actor.Snapshot, error) {
	s.loads.Add(1)
	return s.Store.Load(ctx, key)
}

func (s *countingStore) Save(ctx context.Context, key actor.Key, snap actor.Snapshot) error {
	if s.failSave.Load() {
		return errDatabaseDown
	}
	s.saves.Add(1)
	return s.Store.Save(ctx, key, snap)
}

func newTestCache(t *testing.T) (*Cache, *countingStore, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redislib.NewClient(&redislib.Options{
		Addr: mr.Addr(),
	})
	t.Cleanup(func() { _ = client.Close() })

	inner := newCountingStore()
	cache := NewCache(inner, client, time.Minute, zerolog.Nop())

	return cache, inner, mr
}
