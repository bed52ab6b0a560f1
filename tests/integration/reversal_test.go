package integration

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/openpos/ledgerd/internal/actor"
	memoryStore "github.com/openpos/ledgerd/internal/adapter/snapshotstore/memory"
	"github.com/openpos/ledgerd/internal/domain"
	"github.com/openpos/ledgerd/internal/ledger"
	"github.com/openpos/ledgerd/tests/testutil"
)

func TestReversalRestoresBalance(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()
	stack := testutil.NewStack(t, memoryStore.New(), actor.Config{})

	org := testutil.NewOrgID()
	spec := testutil.AccountSpec(org)
	spec.OpeningBalance = decimal.NewFromInt(100)
	mustCreate(t, stack, spec)

	entry, err := stack.Client.PostEntry(ctx, org, spec.AccountID, ledgerPost(decimal.NewFromInt(40)))
	if err != nil {
		t.Fatalf("failed to post entry: %v", err)
	}

	reversal, err := stack.Client.ReverseEntry(ctx, org, spec.AccountID, ledger.ReverseEntry{
		EntryID:  entry.EntryID,
		Reason:   "cashier error",
		PostedBy: "supervisor",
	})
	if err != nil {
		t.Fatalf("failed to reverse entry: %v", err)
	}

	if reversal.Type != domain.EntryTypeReversal {
		t.Errorf("expected a reversal entry, got %v", reversal.Type)
	}
	if !reversal.Delta.Equal(decimal.NewFromInt(-40)) {
		t.Errorf("expected delta -40, got %s", reversal.Delta)
	}
	if !reversal.BalanceAfter.Equal(decimal.NewFromInt(100)) {
		t.Errorf("expected the balance restored to 100, got %s", reversal.BalanceAfter)
	}

	t.Run("cross links both directions", func(t *testing.T) {
		if reversal.ReversedEntryID != entry.EntryID {
			t.Errorf("reversal must point at the original, got %q", reversal.ReversedEntryID)
		}

		account, err := stack.Client.Snapshot(ctx, org, spec.AccountID)
		if err != nil {
			t.Fatalf("failed to fetch snapshot: %v", err)
		}
		for _, e := range account.Entries {
			if e.EntryID == entry.EntryID && e.ReversalEntryID != reversal.EntryID {
				t.Errorf("original must point at the reversal, got %q", e.ReversalEntryID)
			}
		}
	})

	t.Run("second reversal is rejected", func(t *testing.T) {
		_, err := stack.Client.ReverseEntry(ctx, org, spec.AccountID, ledger.ReverseEntry{
			EntryID:  entry.EntryID,
			Reason:   "again",
			PostedBy: "supervisor",
		})
		if !errors.Is(err, domain.ErrAlreadyReversed) {
			t.Errorf("expected ErrAlreadyReversed, got %v", err)
		}
	})

	t.Run("reversing a reversal is rejected", func(t *testing.T) {
		_, err := stack.Client.ReverseEntry(ctx, org, spec.AccountID, ledger.ReverseEntry{
			EntryID:  reversal.EntryID,
			Reason:   "undo the undo",
			PostedBy: "supervisor",
		})
		if !errors.Is(err, domain.ErrCannotReverseReversal) {
			t.Errorf("expected ErrCannotReverseReversal, got %v", err)
		}
	})

	t.Run("unknown entry is rejected", func(t *testing.T) {
		_, err := stack.Client.ReverseEntry(ctx, org, spec.AccountID, ledger.ReverseEntry{
			EntryID:  "entry-unknown",
			Reason:   "noop",
			PostedBy: "supervisor",
		})
		if !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("reversal event carries both entry IDs", func(t *testing.T) {
		for _, event := range stack.Events.Events() {
			if event.EventType != domain.EventTypeEntryReversed {
				continue
			}
			payload, ok := event.Payload.(domain.EntryReversedEvent)
			if !ok {
				t.Fatalf("unexpected payload type %T", event.Payload)
			}
			if payload.ReversalEntryID != reversal.EntryID || payload.OriginalEntryID != entry.EntryID {
				t.Errorf("unexpected payload %+v", payload)
			}
			return
		}
		t.Error("no entry.reversed event recorded")
	})
}
