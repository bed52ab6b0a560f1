// Package testutil wires full ledger stacks for integration tests.
package testutil

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oklog/ulid/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/openpos/ledgerd/internal/actor"
	postgresStore "github.com/openpos/ledgerd/internal/adapter/snapshotstore/postgres"
	sqliteStore "github.com/openpos/ledgerd/internal/adapter/snapshotstore/sqlite"
	"github.com/openpos/ledgerd/internal/domain"
	"github.com/openpos/ledgerd/internal/infrastructure/metrics"
	"github.com/openpos/ledgerd/internal/infrastructure/postgres"
	"github.com/openpos/ledgerd/internal/ledger"
)

// Stack is a fully wired ledger: snapshot store, actor runtime, typed client
// and an event recorder standing in for the notifier.
type Stack struct {
	Store   actor.SnapshotStore
	Runtime *actor.Runtime
	Client  *ledger.Client
	Events  *EventRecorder
}

// NewStack builds a runtime and client over the given store. The runtime is
// drained when the test finishes; call Stop earlier to simulate a restart.
func NewStack(t *testing.T, store actor.SnapshotStore, cfg actor.Config) *Stack {
	t.Helper()

	m := metrics.New(prometheus.NewRegistry())
	rt := actor.New(cfg, store, m, zerolog.Nop())
	rt.Register(ledger.NewEntity(nil, nil))
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = rt.Shutdown(ctx)
	})

	events := NewEventRecorder()
	return &Stack{
		Store:   store,
		Runtime: rt,
		Client:  ledger.NewClient(rt, events, m),
		Events:  events,
	}
}

// Stop drains the runtime, persisting every active entity.
func (s *Stack) Stop(t *testing.T) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.Runtime.Shutdown(ctx); err != nil {
		t.Fatalf("failed to drain runtime: %v", err)
	}
}

// EventRecorder collects notified events for assertions.
type EventRecorder struct {
	mu     sync.Mutex
	events []domain.Event
}

func NewEventRecorder() *EventRecorder {
	return &EventRecorder{}
}

func (r *EventRecorder) Notify(_ context.Context, event domain.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

// Types returns the recorded event types in notification order.
func (r *EventRecorder) Types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	types := make([]string, len(r.events))
	for i, event := range r.events {
		types[i] = event.EventType
	}
	return types
}

// Events returns a copy of everything recorded so far.
func (r *EventRecorder) Events() []domain.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.Event(nil), r.events...)
}

func (r *EventRecorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}

// NewSQLiteStore opens a snapshot store in a per-test temp directory.
func NewSQLiteStore(t *testing.T) *sqliteStore.Store {
	t.Helper()

	store, err := sqliteStore.Open(filepath.Join(t.TempDir(), "snapshots.db"))
	if err != nil {
		t.Fatalf("failed to open sqlite store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

// NewPostgresStore connects to DATABASE_URL and runs migrations. Tests are
// skipped when no database is configured.
func NewPostgresStore(t *testing.T) *postgresStore.Store {
	t.Helper()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Skip("DATABASE_URL is not set")
	}

	migrationsPath := "internal/infrastructure/postgres/migrations"
	if _, err := os.Stat(migrationsPath); os.IsNotExist(err) {
		migrationsPath = "../../internal/infrastructure/postgres/migrations"
	}
	if err := postgres.RunMigrations(dbURL, migrationsPath); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		t.Fatalf("failed to connect to test database: %v", err)
	}
	if err := pool.Ping(ctx); err != nil {
		t.Fatalf("failed to ping test database: %v", err)
	}
	t.Cleanup(pool.Close)

	return postgresStore.NewStore(pool)
}

// NewOrgID returns a unique organization ID so tests sharing a database
// never see each other's accounts.
func NewOrgID() string {
	return "org-" + ulid.Make().String()
}

// AccountSpec returns a valid asset-account spec with a generated account ID.
func AccountSpec(organizationID string) domain.CreateSpec {
	return domain.CreateSpec{
		OrganizationID: organizationID,
		AccountID:      "acct-" + ulid.Make().String(),
		AccountCode:    "1000",
		Name:           "Cash",
		Type:           domain.AccountTypeAsset,
		CreatedBy:      "tester",
	}
}
