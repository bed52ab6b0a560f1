package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestAccount_PostEntry_NormalBalance(t *testing.T) {
	tests := []struct {
		name        string
		accountType AccountType
		entryType   EntryType
		amount      int64
		wantBalance int64
	}{
		{"debit increases asset", AccountTypeAsset, EntryTypeDebit, 500, 1500},
		{"credit decreases asset", AccountTypeAsset, EntryTypeCredit, 300, 700},
		{"debit increases expense", AccountTypeExpense, EntryTypeDebit, 150, 1150},
		{"credit increases liability", AccountTypeLiability, EntryTypeCredit, 400, 1400},
		{"debit decreases liability", AccountTypeLiability, EntryTypeDebit, 250, 750},
		{"credit increases revenue", AccountTypeRevenue, EntryTypeCredit, 1000, 2000},
		{"debit decreases revenue", AccountTypeRevenue, EntryTypeDebit, 200, 800},
		{"credit increases equity", AccountTypeEquity, EntryTypeCredit, 100, 1100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			acc := mustCreateAccount(t, tt.accountType, 1000)

			next, entry, err := acc.PostEntry(tt.entryType, decimal.NewFromInt(tt.amount), "test posting", Reference{}, "tester", "entry-2", testTime.Add(time.Minute))
			if err != nil {
				t.Fatalf("post: %v", err)
			}

			if !next.Balance.Equal(decimal.NewFromInt(tt.wantBalance)) {
				t.Errorf("balance = %s, want %d", next.Balance, tt.wantBalance)
			}
			if !entry.BalanceAfter.Equal(next.Balance) {
				t.Errorf("entry.BalanceAfter = %s, want %s", entry.BalanceAfter, next.Balance)
			}
			if !entry.Amount.Equal(decimal.NewFromInt(tt.amount)) {
				t.Errorf("entry amount = %s, want %d", entry.Amount, tt.amount)
			}
			if entry.Status != EntryStatusPosted {
				t.Errorf("entry status = %s, want POSTED", entry.Status)
			}
			if !acc.Balance.Equal(decimal.NewFromInt(1000)) {
				t.Error("posting must not mutate the previous state")
			}
		})
	}
}

func TestAccount_PostEntry_Scenarios(t *testing.T) {
	// Asset account, opening 1000: debit 500 then credit 300.
	acc := mustCreateAccount(t, AccountTypeAsset, 1000)

	acc, _, err := acc.PostEntry(EntryTypeDebit, decimal.NewFromInt(500), "cash in", Reference{}, "tester", "e2", testTime.Add(time.Minute))
	if err != nil {
		t.Fatalf("debit: %v", err)
	}
	if !acc.Balance.Equal(decimal.NewFromInt(1500)) {
		t.Fatalf("after debit balance = %s, want 1500", acc.Balance)
	}

	acc, _, err = acc.PostEntry(EntryTypeCredit, decimal.NewFromInt(300), "cash out", Reference{}, "tester", "e3", testTime.Add(2*time.Minute))
	if err != nil {
		t.Fatalf("credit: %v", err)
	}
	if !acc.Balance.Equal(decimal.NewFromInt(1200)) {
		t.Fatalf("after credit balance = %s, want 1200", acc.Balance)
	}
}

func TestAccount_PostEntry_Rejections(t *testing.T) {
	active := mustCreateAccount(t, AccountTypeAsset, 1000)
	inactive, err := active.Deactivate("admin", testTime)
	if err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	tests := []struct {
		name      string
		acc       *Account
		entryType EntryType
		amount    int64
		wantErr   error
	}{
		{"zero amount", active, EntryTypeDebit, 0, ErrInvalidArgument},
		{"negative amount", active, EntryTypeCredit, -50, ErrInvalidArgument},
		{"inactive account", inactive, EntryTypeDebit, 100, ErrNotActive},
		{"opening is not postable", active, EntryTypeOpening, 100, ErrInvalidArgument},
		{"reversal is not postable", active, EntryTypeReversal, 100, ErrInvalidArgument},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := tt.acc.PostEntry(tt.entryType, decimal.NewFromInt(tt.amount), "", Reference{}, "tester", "e9", testTime)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestAccount_Adjust(t *testing.T) {
	acc := mustCreateAccount(t, AccountTypeAsset, 1000)

	next, entry, err := acc.Adjust(decimal.NewFromInt(900), "stock count correction", "auditor", "e2", testTime.Add(time.Minute))
	if err != nil {
		t.Fatalf("adjust: %v", err)
	}

	if !next.Balance.Equal(decimal.NewFromInt(900)) {
		t.Errorf("balance = %s, want 900", next.Balance)
	}
	if entry.Type != EntryTypeAdjustment {
		t.Errorf("entry type = %s, want ADJUSTMENT", entry.Type)
	}
	if !entry.Delta.Equal(decimal.NewFromInt(-100)) {
		t.Errorf("delta = %s, want -100", entry.Delta)
	}
	if !entry.Amount.Equal(decimal.NewFromInt(100)) {
		t.Errorf("amount = %s, want 100", entry.Amount)
	}
}

func TestAccount_AdjustNoChange(t *testing.T) {
	acc := mustCreateAccount(t, AccountTypeAsset, 1000)

	if _, _, err := acc.Adjust(decimal.NewFromInt(1000), "no-op", "auditor", "e2", testTime); !errors.Is(err, ErrNoChange) {
		t.Errorf("expected ErrNoChange, got %v", err)
	}
}

func TestAccount_Reverse(t *testing.T) {
	acc := mustCreateAccount(t, AccountTypeAsset, 1000)
	ref := Reference{Type: "Order", ID: "X", Number: "R-100"}

	acc, posted, err := acc.PostEntry(EntryTypeDebit, decimal.NewFromInt(500), "sale", ref, "tester", "e2", testTime.Add(time.Minute))
	if err != nil {
		t.Fatalf("post: %v", err)
	}

	acc, reversal, err := acc.Reverse(posted.EntryID, "voided sale", "manager", "e3", testTime.Add(2*time.Minute))
	if err != nil {
		t.Fatalf("reverse: %v", err)
	}

	if !acc.Balance.Equal(decimal.NewFromInt(1000)) {
		t.Errorf("balance = %s, want 1000", acc.Balance)
	}
	if reversal.Type != EntryTypeReversal {
		t.Errorf("reversal type = %s, want REVERSAL", reversal.Type)
	}
	if reversal.ReversedEntryID != "e2" {
		t.Errorf("reversedEntryId = %q, want e2", reversal.ReversedEntryID)
	}
	if !reversal.Delta.Equal(decimal.NewFromInt(-500)) {
		t.Errorf("reversal delta = %s, want -500", reversal.Delta)
	}
	if reversal.Reference != ref {
		t.Errorf("reversal keeps original reference, got %+v", reversal.Reference)
	}

	original := acc.Entries[1]
	if original.Status != EntryStatusReversed {
		t.Errorf("original status = %s, want REVERSED", original.Status)
	}
	if original.ReversalEntryID != "e3" {
		t.Errorf("original.reversalEntryId = %q, want e3", original.ReversalEntryID)
	}
}

func TestAccount_ReverseAppliesToCurrentBalance(t *testing.T) {
	// Reversing an old entry only cancels that entry's own delta; entries
	// posted after it keep their effect.
	acc := mustCreateAccount(t, AccountTypeAsset, 1000)

	acc, first, err := acc.PostEntry(EntryTypeDebit, decimal.NewFromInt(500), "first", Reference{}, "tester", "e2", testTime.Add(time.Minute))
	if err != nil {
		t.Fatalf("post first: %v", err)
	}
	acc, _, err = acc.PostEntry(EntryTypeCredit, decimal.NewFromInt(200), "second", Reference{}, "tester", "e3", testTime.Add(2*time.Minute))
	if err != nil {
		t.Fatalf("post second: %v", err)
	}

	acc, _, err = acc.Reverse(first.EntryID, "undo first", "tester", "e4", testTime.Add(3*time.Minute))
	if err != nil {
		t.Fatalf("reverse: %v", err)
	}

	// 1000 + 500 - 200 - 500
	if !acc.Balance.Equal(decimal.NewFromInt(800)) {
		t.Errorf("balance = %s, want 800", acc.Balance)
	}
}

func TestAccount_ReverseRejections(t *testing.T) {
	acc := mustCreateAccount(t, AccountTypeAsset, 1000)

	acc, posted, err := acc.PostEntry(EntryTypeDebit, decimal.NewFromInt(500), "sale", Reference{}, "tester", "e2", testTime.Add(time.Minute))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	acc, reversal, err := acc.Reverse(posted.EntryID, "void", "tester", "e3", testTime.Add(2*time.Minute))
	if err != nil {
		t.Fatalf("reverse: %v", err)
	}

	if _, _, err := acc.Reverse("missing", "x", "tester", "e4", testTime); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown entry: expected ErrNotFound, got %v", err)
	}
	if _, _, err := acc.Reverse(posted.EntryID, "x", "tester", "e4", testTime); !errors.Is(err, ErrAlreadyReversed) {
		t.Errorf("double reversal: expected ErrAlreadyReversed, got %v", err)
	}
	if _, _, err := acc.Reverse(reversal.EntryID, "x", "tester", "e4", testTime); !errors.Is(err, ErrCannotReverseReversal) {
		t.Errorf("reversing a reversal: expected ErrCannotReverseReversal, got %v", err)
	}
}

func TestAccount_BalanceMatchesDeltaSum(t *testing.T) {
	acc := mustCreateAccount(t, AccountTypeRevenue, 1000)

	var err error
	acc, _, err = acc.PostEntry(EntryTypeCredit, decimal.NewFromInt(750), "", Reference{}, "t", "e2", testTime.Add(time.Minute))
	if err != nil {
		t.Fatal(err)
	}
	acc, _, err = acc.Adjust(decimal.NewFromInt(1500), "correction", "t", "e3", testTime.Add(2*time.Minute))
	if err != nil {
		t.Fatal(err)
	}
	acc, _, err = acc.Reverse("e2", "undo", "t", "e4", testTime.Add(3*time.Minute))
	if err != nil {
		t.Fatal(err)
	}

	sum := decimal.Zero
	for _, e := range acc.Entries {
		sum = sum.Add(e.Delta)
	}
	if !acc.Balance.Equal(sum) {
		t.Errorf("balance %s != sum of deltas %s", acc.Balance, sum)
	}
}
