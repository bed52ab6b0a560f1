package actor_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/openpos/ledgerd/internal/actor"
)

// counter is a minimal entity for exercising the runtime.
type counterState struct {
	Value int `json:"value"`
}

type addCmd struct{ N int }

type rejectCmd struct{}

// slowCmd blocks its turn until release is closed, signalling entry via
// started. Tests use it to keep an activation busy deterministically.
type slowCmd struct {
	started chan struct{}
	release chan struct{}
}

type getQuery struct{}

type counter struct{}

func (counter) Kind() string          { return "counter" }
func (counter) NewState() actor.State { return counterState{} }

func (counter) Apply(state actor.State, cmd actor.Command) (actor.State, any, error) {
	s := state.(counterState)
	switch c := cmd.(type) {
	case addCmd:
		s.Value += c.N
		return s, s.Value, nil
	case slowCmd:
		close(c.started)
		<-c.release
		s.Value += 100
		return s, s.Value, nil
	case rejectCmd:
		return nil, nil, errors.New("rejected")
	default:
		return nil, nil, fmt.Errorf("unknown command %T", cmd)
	}
}

func (counter) Answer(state actor.State, query actor.Query) (any, error) {
	s := state.(counterState)
	switch query.(type) {
	case getQuery:
		return s.Value, nil
	default:
		return nil, fmt.Errorf("unknown query %T", query)
	}
}

func (counter) Snapshot(state actor.State) ([]byte, error) {
	return json.Marshal(state.(counterState))
}

func (counter) Restore(data []byte) (actor.State, error) {
	var s counterState
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return s, nil
}

// memStore is a map-backed snapshot store with injectable failures.
type memStore struct {
	mu       sync.Mutex
	snaps    map[actor.Key]actor.Snapshot
	loads    int
	saves    int
	failLoad bool
	failSave bool
}

func newMemStore() *memStore {
	return &memStore{snaps: make(map[actor.Key]actor.Snapshot)}
}

func (s *memStore) Load(ctx context.Context, key actor.Key) (*actor.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loads++
	if s.failLoad {
		return nil, errors.New("store down")
	}
	snap, ok := s.snaps[key]
	if !ok {
		return nil, actor.ErrSnapshotNotFound
	}
	return &snap, nil
}

func (s *memStore) Save(ctx context.Context, key actor.Key, snap actor.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saves++
	if s.failSave {
		return errors.New("store down")
	}
	s.snaps[key] = snap
	return nil
}

func (s *memStore) setFailLoad(fail bool) {
	s.mu.Lock()
	s.failLoad = fail
	s.mu.Unlock()
}

func (s *memStore) setFailSave(fail bool) {
	s.mu.Lock()
	s.failSave = fail
	s.mu.Unlock()
}

func (s *memStore) loadCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loads
}

func (s *memStore) saveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}

func (s *memStore) get(key actor.Key) (actor.Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap, ok := s.snaps[key]
	return snap, ok
}

func newTestRuntime(t *testing.T, cfg actor.Config, store actor.SnapshotStore) *actor.Runtime {
	t.Helper()
	rt := actor.New(cfg, store, nil, zerolog.Nop())
	rt.Register(counter{})
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = rt.Shutdown(ctx)
	})
	return rt
}

func counterKey(entityID string) actor.Key {
	return actor.NewKey("counter", "org-1", entityID)
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}
