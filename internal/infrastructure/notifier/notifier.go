// Package notifier delivers domain events emitted after committed
// mutations. Delivery is asynchronous and best-effort: the ledger never
// blocks on, and never fails because of, a notification problem.
package notifier

import (
	"context"
	"encoding/json"

	"log/slog"

	"github.com/openpos/ledgerd/internal/domain"
)

// Sink delivers a single event to an external system.
type Sink interface {
	Deliver(ctx context.Context, event domain.Event) error
}

// Dispatcher fans events out to a sink from a bounded queue. When the
// queue is full new events are dropped, not blocked on.
type Dispatcher struct {
	sink   Sink
	logger *slog.Logger
	queue  chan domain.Event
}

// Config for Dispatcher.
type Config struct {
	Sink   Sink
	Logger *slog.Logger
	Buffer int // queued events before new ones are dropped
}

// NewDispatcher creates a new Dispatcher.
func NewDispatcher(cfg Config) *Dispatcher {
	if cfg.Buffer <= 0 {
		cfg.Buffer = 256
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Sink == nil {
		cfg.Sink = NewLogSink(cfg.Logger)
	}

	return &Dispatcher{
		sink:   cfg.Sink,
		logger: cfg.Logger,
		queue:  make(chan domain.Event, cfg.Buffer),
	}
}

// Notify enqueues an event for delivery. It never blocks; a full queue
// drops the event with a warning.
func (d *Dispatcher) Notify(_ context.Context, event domain.Event) {
	select {
	case d.queue <- event:
	default:
		d.logger.Warn("notification queue full, dropping event",
			slog.String("event_id", event.ID),
			slog.String("event_type", event.EventType))
	}
}

// Start runs the delivery worker until ctx is cancelled. Events still
// queued at shutdown are delivered before Start returns.
func (d *Dispatcher) Start(ctx context.Context) error {
	d.logger.Info("notifier started", slog.Int("buffer", cap(d.queue)))

	for {
		select {
		case <-ctx.Done():
			d.drain()
			d.logger.Info("notifier shutting down")
			return ctx.Err()
		case event := <-d.queue:
			d.deliver(ctx, event)
		}
	}
}

// deliver hands one event to the sink. Failures are logged and skipped so
// one bad event cannot stall the queue.
func (d *Dispatcher) deliver(ctx context.Context, event domain.Event) {
	if err := d.sink.Deliver(ctx, event); err != nil {
		d.logger.Error("failed to deliver event",
			slog.String("event_id", event.ID),
			slog.String("event_type", event.EventType),
			slog.String("error", err.Error()))
	}
}

func (d *Dispatcher) drain() {
	for {
		select {
		case event := <-d.queue:
			d.deliver(context.Background(), event)
		default:
			return
		}
	}
}

// LogSink writes events to the log. It stands in for real delivery
// transports, which live outside this repo.
type LogSink struct {
	logger *slog.Logger
}

// NewLogSink creates a new LogSink.
func NewLogSink(logger *slog.Logger) *LogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSink{logger: logger}
}

// Deliver logs the event.
func (s *LogSink) Deliver(_ context.Context, event domain.Event) error {
	payload, err := json.Marshal(event.Payload)
	if err != nil {
		return err
	}

	s.logger.Info("EVENT",
		slog.String("event_id", event.ID),
		slog.String("event_type", event.EventType),
		slog.String("organization_id", event.OrganizationID),
		slog.String("account_id", event.AccountID),
		slog.Time("occurred_at", event.OccurredAt),
		slog.String("payload", string(payload)))

	return nil
}
