// Package actor hosts single-writer entity instances. Each key activates on
// demand, processes its mailbox strictly in order on one goroutine, persists
// a snapshot after every applied command, and passivates when idle. Callers
// get location-transparent access through Execute and Ask.
package actor

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"

	"github.com/openpos/ledgerd/internal/infrastructure/metrics"
)

const shardCount = 32

// Defaults applied by New for zero Config fields.
const (
	DefaultIdleTimeout           = 5 * time.Minute
	DefaultMailboxSize           = 1024
	DefaultMaxConcurrentTurns    = 256
	DefaultActivationRetryBudget = 5 * time.Second
)

// Config tunes the runtime.
type Config struct {
	// IdleTimeout passivates activations that have processed nothing for
	// this long. Zero applies the default; negative disables passivation.
	IdleTimeout time.Duration

	// MailboxSize bounds the queue of each activation.
	MailboxSize int

	// MaxConcurrentTurns bounds turns executing at once across all
	// activations.
	MaxConcurrentTurns int64

	// ActivationRetryBudget bounds transparent retries of snapshot loads
	// during activation.
	ActivationRetryBudget time.Duration
}

type shard struct {
	mu          sync.Mutex
	activations map[Key]*activation
}

// Runtime hosts activations for all registered entity kinds.
type Runtime struct {
	cfg     Config
	store   SnapshotStore
	metrics *metrics.Metrics
	logger  zerolog.Logger

	entities map[string]Entity

	shards [shardCount]shard

	sem *semaphore.Weighted

	// closeMu orders activation spawns against Shutdown so wg.Add never
	// races wg.Wait.
	closeMu sync.RWMutex
	closed  chan struct{}
	once    sync.Once
	wg      sync.WaitGroup
}

// New creates a runtime backed by store. A nil metrics instance gets a
// private registry, which keeps tests isolated.
func New(cfg Config, store SnapshotStore, m *metrics.Metrics, logger zerolog.Logger) *Runtime {
	if cfg.IdleTimeout == 0 {
		cfg.IdleTimeout = DefaultIdleTimeout
	}
	if cfg.MailboxSize <= 0 {
		cfg.MailboxSize = DefaultMailboxSize
	}
	if cfg.MaxConcurrentTurns <= 0 {
		cfg.MaxConcurrentTurns = DefaultMaxConcurrentTurns
	}
	if cfg.ActivationRetryBudget <= 0 {
		cfg.ActivationRetryBudget = DefaultActivationRetryBudget
	}
	if m == nil {
		m = metrics.New(prometheus.NewRegistry())
	}

	rt := &Runtime{
		cfg:      cfg,
		store:    store,
		metrics:  m,
		logger:   logger,
		entities: make(map[string]Entity),
		sem:      semaphore.NewWeighted(cfg.MaxConcurrentTurns),
		closed:   make(chan struct{}),
	}
	for i := range rt.shards {
		rt.shards[i].activations = make(map[Key]*activation)
	}
	return rt
}

// Register adds an entity kind. Register all kinds before serving; it is not
// safe to call concurrently with Execute or Ask.
func (rt *Runtime) Register(e Entity) {
	rt.entities[e.Kind()] = e
}

// Execute sends a command to the entity behind key and waits for the result.
// The entity activates on first use. A caller that cancels ctx while the
// command is still queued gets ctx.Err and the command is skipped; once the
// command starts executing it runs to completion.
func (rt *Runtime) Execute(ctx context.Context, key Key, cmd Command) (any, error) {
	return rt.dispatch(ctx, key, cmd, false)
}

// Ask sends a read-only query to the entity behind key.
func (rt *Runtime) Ask(ctx context.Context, key Key, query Query) (any, error) {
	return rt.dispatch(ctx, key, query, true)
}

func (rt *Runtime) dispatch(ctx context.Context, key Key, msg any, isQuery bool) (any, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}
	if _, ok := rt.entities[key.Kind]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownKind, key.Kind)
	}

	env := &envelope{
		ctx:     ctx,
		msg:     msg,
		isQuery: isQuery,
		reply:   make(chan turnResult, 1),
	}

	for {
		select {
		case <-rt.closed:
			return nil, ErrRuntimeClosed
		default:
		}

		a, err := rt.activation(key)
		if err != nil {
			return nil, err
		}

		select {
		case <-a.ready:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		if a.loadErr != nil {
			return nil, a.loadErr
		}

		if err := a.mb.push(env); err != nil {
			if errors.Is(err, errPassivated) {
				// Lost a race with passivation; activate again.
				continue
			}
			rt.metrics.MailboxRejections.WithLabelValues(key.Kind).Inc()
			return nil, err
		}

		select {
		case res := <-env.reply:
			if errors.Is(res.err, errPassivated) {
				continue
			}
			return res.value, res.err
		case <-ctx.Done():
			// The reply channel is buffered, so an abandoned envelope
			// never blocks the activation.
			return nil, ctx.Err()
		}
	}
}

// activation returns the live activation for key, spawning one if needed.
func (rt *Runtime) activation(key Key) (*activation, error) {
	rt.closeMu.RLock()
	defer rt.closeMu.RUnlock()

	select {
	case <-rt.closed:
		return nil, ErrRuntimeClosed
	default:
	}

	sh := rt.shardFor(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	if a, ok := sh.activations[key]; ok {
		return a, nil
	}

	a := &activation{
		rt:     rt,
		key:    key,
		entity: rt.entities[key.Kind],
		mb:     newMailbox(rt.cfg.MailboxSize),
		ready:  make(chan struct{}),
	}
	sh.activations[key] = a

	rt.wg.Add(1)
	go a.run()

	return a, nil
}

func (rt *Runtime) shardFor(key Key) *shard {
	h := fnv.New32a()
	h.Write([]byte(key.Kind))
	h.Write([]byte{0})
	h.Write([]byte(key.OrganizationID))
	h.Write([]byte{0})
	h.Write([]byte(key.EntityID))
	return &rt.shards[h.Sum32()%shardCount]
}

// ActiveCount reports the number of live activations.
func (rt *Runtime) ActiveCount() int {
	n := 0
	for i := range rt.shards {
		sh := &rt.shards[i]
		sh.mu.Lock()
		n += len(sh.activations)
		sh.mu.Unlock()
	}
	return n
}

// Shutdown stops accepting messages, lets queued work finish and waits for
// all activations to exit, or until ctx expires.
func (rt *Runtime) Shutdown(ctx context.Context) error {
	rt.once.Do(func() {
		rt.closeMu.Lock()
		close(rt.closed)
		rt.closeMu.Unlock()
	})

	done := make(chan struct{})
	go func() {
		rt.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
