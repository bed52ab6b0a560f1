package integration

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/openpos/ledgerd/internal/domain"
	"github.com/openpos/ledgerd/internal/ledger"
	"github.com/openpos/ledgerd/tests/testutil"
)

// ledgerPost builds a debit command for amount.
func ledgerPost(amount decimal.Decimal) ledger.PostEntry {
	return ledger.PostEntry{
		EntryType: domain.EntryTypeDebit,
		Amount:    amount,
		PostedBy:  "tester",
	}
}

func mustCreate(t *testing.T, stack *testutil.Stack, spec domain.CreateSpec) *domain.Account {
	t.Helper()

	account, err := stack.Client.CreateAccount(context.Background(), spec)
	if err != nil {
		t.Fatalf("failed to create account: %v", err)
	}
	return account
}
