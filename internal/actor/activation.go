package actor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// activation is one live instance of an entity. Its run goroutine is the
// only writer of state and version after load completes.
type activation struct {
	rt     *Runtime
	key    Key
	entity Entity

	mb *mailbox

	// ready closes once load finishes. loadErr is written before the
	// close, so any goroutine that saw ready closed may read it.
	ready   chan struct{}
	loadErr error

	state   State
	version int64
}

func (a *activation) run() {
	defer a.rt.wg.Done()

	a.load()
	if a.loadErr != nil {
		return
	}

	var idle *time.Timer
	var idleC <-chan time.Time
	if a.rt.cfg.IdleTimeout > 0 {
		idle = time.NewTimer(a.rt.cfg.IdleTimeout)
		defer idle.Stop()
		idleC = idle.C
	}

	for {
		if env := a.mb.pop(); env != nil {
			if err := a.handle(env); err != nil {
				a.discard(err)
				return
			}
			if idle != nil {
				if !idle.Stop() {
					select {
					case <-idle.C:
					default:
					}
				}
				idle.Reset(a.rt.cfg.IdleTimeout)
			}
			continue
		}

		select {
		case <-a.mb.notify:
		case <-idleC:
			if a.passivate() {
				return
			}
			idle.Reset(a.rt.cfg.IdleTimeout)
		case <-a.rt.closed:
			a.drain()
			return
		}
	}
}

// load fetches the latest snapshot, retrying transient store errors within
// the activation retry budget. A missing snapshot means a fresh instance.
func (a *activation) load() {
	rt := a.rt

	ctx, cancel := context.WithTimeout(context.Background(), rt.cfg.ActivationRetryBudget)
	defer cancel()

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 50 * time.Millisecond
	bo.MaxElapsedTime = rt.cfg.ActivationRetryBudget

	var state State
	var version int64

	op := func() error {
		start := time.Now()
		snap, err := rt.store.Load(ctx, a.key)
		rt.metrics.SnapshotLoadDuration.WithLabelValues(a.key.Kind).Observe(time.Since(start).Seconds())
		if err != nil {
			if errors.Is(err, ErrSnapshotNotFound) {
				state = a.entity.NewState()
				version = 0
				return nil
			}
			rt.metrics.SnapshotLoadErrors.WithLabelValues(a.key.Kind).Inc()
			return err
		}

		restored, err := a.entity.Restore(snap.Data)
		if err != nil {
			// A snapshot that does not decode will not decode on retry.
			return backoff.Permanent(err)
		}
		state = restored
		version = snap.Version
		return nil
	}

	if err := backoff.Retry(op, backoff.WithContext(bo, ctx)); err != nil {
		a.loadErr = fmt.Errorf("%w: %v", ErrActivationFailed, err)
		rt.metrics.ActorActivationErrors.WithLabelValues(a.key.Kind).Inc()
		rt.logger.Error().Err(err).Str("key", a.key.String()).Msg("activation failed")
		a.removeSelf()
		close(a.ready)
		return
	}

	a.state = state
	a.version = version

	rt.metrics.ActorActivations.WithLabelValues(a.key.Kind).Inc()
	rt.metrics.ActorsActive.WithLabelValues(a.key.Kind).Inc()
	rt.logger.Debug().Str("key", a.key.String()).Int64("version", version).Msg("activation loaded")

	close(a.ready)
}

// handle executes one turn. A non-nil return means the activation can no
// longer trust its in-memory state and must shut down.
func (a *activation) handle(env *envelope) error {
	rt := a.rt

	// The caller may have given up while this message sat queued.
	if err := env.ctx.Err(); err != nil {
		env.reply <- turnResult{err: err}
		return nil
	}

	if err := rt.sem.Acquire(env.ctx, 1); err != nil {
		env.reply <- turnResult{err: err}
		return nil
	}
	defer rt.sem.Release(1)

	start := time.Now()

	if env.isQuery {
		value, err := a.entity.Answer(a.state, env.msg)
		rt.metrics.ActorTurnDuration.WithLabelValues(a.key.Kind, "query").Observe(time.Since(start).Seconds())
		env.reply <- turnResult{value: value, err: err}
		return nil
	}

	next, value, err := a.entity.Apply(a.state, env.msg)
	if err != nil {
		rt.metrics.ActorTurnDuration.WithLabelValues(a.key.Kind, "command").Observe(time.Since(start).Seconds())
		env.reply <- turnResult{err: err}
		return nil
	}

	data, err := a.entity.Snapshot(next)
	if err != nil {
		// Nothing was written, so the current state stays valid.
		env.reply <- turnResult{err: fmt.Errorf("encode snapshot: %w", err)}
		return nil
	}

	// Once a command is applied the turn runs to completion, even if the
	// caller is gone.
	saveStart := time.Now()
	saveErr := rt.store.Save(context.WithoutCancel(env.ctx), a.key, Snapshot{
		Version:   a.version + 1,
		Data:      data,
		UpdatedAt: time.Now().UTC(),
	})
	rt.metrics.SnapshotSaveDuration.WithLabelValues(a.key.Kind).Observe(time.Since(saveStart).Seconds())
	if saveErr != nil {
		rt.metrics.SnapshotSaveErrors.WithLabelValues(a.key.Kind).Inc()
		wrapped := fmt.Errorf("persist snapshot: %w", saveErr)
		env.reply <- turnResult{err: wrapped}
		// The write may or may not have landed. Drop the in-memory state
		// so the next message reloads whatever is actually durable.
		return wrapped
	}

	a.state = next
	a.version++

	rt.metrics.ActorTurnDuration.WithLabelValues(a.key.Kind, "command").Observe(time.Since(start).Seconds())
	env.reply <- turnResult{value: value}
	return nil
}

// passivate removes an idle activation. It returns false when a message
// slipped in after the idle timer fired, in which case the loop keeps going.
func (a *activation) passivate() bool {
	sh := a.rt.shardFor(a.key)
	sh.mu.Lock()
	if a.mb.len() > 0 {
		sh.mu.Unlock()
		return false
	}
	if sh.activations[a.key] == a {
		delete(sh.activations, a.key)
	}
	sh.mu.Unlock()

	// A push can still land between the length check and the close; bounce
	// those so dispatch retries against a fresh activation.
	for _, env := range a.mb.close() {
		env.reply <- turnResult{err: errPassivated}
	}

	a.rt.metrics.ActorPassivations.WithLabelValues(a.key.Kind).Inc()
	a.rt.metrics.ActorsActive.WithLabelValues(a.key.Kind).Dec()
	a.rt.logger.Debug().Str("key", a.key.String()).Msg("activation passivated")
	return true
}

// discard tears down an activation whose in-memory state diverged from the
// store. Queued messages bounce back to dispatch for a fresh activation.
func (a *activation) discard(cause error) {
	a.rt.logger.Error().Err(cause).Str("key", a.key.String()).Msg("discarding activation state")

	a.removeSelf()
	for _, env := range a.mb.close() {
		env.reply <- turnResult{err: errPassivated}
	}

	a.rt.metrics.ActorPassivations.WithLabelValues(a.key.Kind).Inc()
	a.rt.metrics.ActorsActive.WithLabelValues(a.key.Kind).Dec()
}

// drain finishes queued work during runtime shutdown.
func (a *activation) drain() {
	a.removeSelf()

	poisoned := false
	for _, env := range a.mb.close() {
		if poisoned {
			env.reply <- turnResult{err: errPassivated}
			continue
		}
		if err := a.handle(env); err != nil {
			poisoned = true
		}
	}

	a.rt.metrics.ActorPassivations.WithLabelValues(a.key.Kind).Inc()
	a.rt.metrics.ActorsActive.WithLabelValues(a.key.Kind).Dec()
}

func (a *activation) removeSelf() {
	sh := a.rt.shardFor(a.key)
	sh.mu.Lock()
	if sh.activations[a.key] == a {
		delete(sh.activations, a.key)
	}
	sh.mu.Unlock()
}
