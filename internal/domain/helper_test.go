package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

var testTime = time.Date(2025, 3, 15, 10, 0, 0, 0, time.UTC)

func mustCreateAccount(t *testing.T, accountType AccountType, opening int64) *Account {
	t.Helper()

	acc, err := NewAccount(CreateSpec{
		OrganizationID: "org-1",
		AccountID:      "acc-1",
		AccountCode:    "1000",
		Name:           "Cash",
		Type:           accountType,
		OpeningBalance: decimal.NewFromInt(opening),
		CreatedBy:      "tester",
	}, "entry-opening", testTime)
	if err != nil {
		t.Fatalf("create account: %v", err)
	}
	return acc
}
