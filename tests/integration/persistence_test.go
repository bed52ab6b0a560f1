package integration

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	redislib "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/openpos/ledgerd/internal/actor"
	memoryStore "github.com/openpos/ledgerd/internal/adapter/snapshotstore/memory"
	redisStore "github.com/openpos/ledgerd/internal/adapter/snapshotstore/redis"
	"github.com/openpos/ledgerd/internal/ledger"
	"github.com/openpos/ledgerd/tests/testutil"
)

func TestStateSurvivesRestartOnSQLite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()
	store := testutil.NewSQLiteStore(t)

	org := testutil.NewOrgID()
	spec := testutil.AccountSpec(org)
	spec.OpeningBalance = decimal.NewFromInt(100)

	stack := testutil.NewStack(t, store, actor.Config{})
	mustCreate(t, stack, spec)
	if _, err := stack.Client.PostEntry(ctx, org, spec.AccountID, ledgerPost(decimal.NewFromInt(42))); err != nil {
		t.Fatalf("failed to post entry: %v", err)
	}
	stack.Stop(t)

	snap, err := store.Load(ctx, ledger.AccountKey(org, spec.AccountID))
	if err != nil {
		t.Fatalf("failed to load snapshot directly: %v", err)
	}
	if snap.Version != 2 {
		t.Errorf("expected snapshot version 2 after two commands, got %d", snap.Version)
	}

	restarted := testutil.NewStack(t, store, actor.Config{})
	balance, err := restarted.Client.Balance(ctx, org, spec.AccountID)
	if err != nil {
		t.Fatalf("failed to fetch balance after restart: %v", err)
	}
	if !balance.Equal(decimal.NewFromInt(142)) {
		t.Errorf("expected balance 142 after restart, got %s", balance)
	}

	entries, err := restarted.Client.Entries(ctx, org, spec.AccountID, 10)
	if err != nil {
		t.Fatalf("failed to list entries after restart: %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("expected 2 entries after restart, got %d", len(entries))
	}
}

func TestRedisCacheServesReactivations(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redislib.NewClient(&redislib.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	inner := memoryStore.New()
	store := redisStore.NewCache(inner, client, time.Minute, zerolog.Nop())

	org := testutil.NewOrgID()
	spec := testutil.AccountSpec(org)
	spec.OpeningBalance = decimal.NewFromInt(50)

	stack := testutil.NewStack(t, store, actor.Config{})
	mustCreate(t, stack, spec)
	stack.Stop(t)

	cacheKey := "snapshot:" + ledger.AccountKey(org, spec.AccountID).String()
	if !mr.Exists(cacheKey) {
		t.Fatalf("expected the save to prime the cache at %s", cacheKey)
	}

	restarted := testutil.NewStack(t, store, actor.Config{})
	balance, err := restarted.Client.Balance(ctx, org, spec.AccountID)
	if err != nil {
		t.Fatalf("failed to fetch balance after restart: %v", err)
	}
	if !balance.Equal(decimal.NewFromInt(50)) {
		t.Errorf("expected balance 50 after restart, got %s", balance)
	}
}

func TestStateSurvivesRestartOnPostgres(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()
	store := testutil.NewPostgresStore(t)

	org := testutil.NewOrgID()
	spec := testutil.AccountSpec(org)
	spec.OpeningBalance = decimal.NewFromInt(100)

	stack := testutil.NewStack(t, store, actor.Config{})
	mustCreate(t, stack, spec)
	if _, err := stack.Client.PostEntry(ctx, org, spec.AccountID, ledgerPost(decimal.NewFromInt(8))); err != nil {
		t.Fatalf("failed to post entry: %v", err)
	}
	stack.Stop(t)

	restarted := testutil.NewStack(t, store, actor.Config{})
	balance, err := restarted.Client.Balance(ctx, org, spec.AccountID)
	if err != nil {
		t.Fatalf("failed to fetch balance after restart: %v", err)
	}
	if !balance.Equal(decimal.NewFromInt(108)) {
		t.Errorf("expected balance 108 after restart, got %s", balance)
	}
}
