package domain

import (
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

// Summary is the account's lifetime rollup. TotalDebits/TotalCredits fold
// every non-Opening entry by debit-equivalent delta; TotalEntryCount counts
// everything including Opening.
type Summary struct {
	Balance         decimal.Decimal `json:"balance"`
	TotalDebits     decimal.Decimal `json:"total_debits"`
	TotalCredits    decimal.Decimal `json:"total_credits"`
	TotalEntryCount int             `json:"total_entry_count"`
	IsActive        bool            `json:"is_active"`
}

// BalanceAt recomputes the balance as of ts by summing the deltas of entries
// posted at or before ts. Always a fresh scan, never cached per timestamp.
func (a *Account) BalanceAt(ts time.Time) decimal.Decimal {
	balance := decimal.Zero
	for i := range a.Entries {
		if a.Entries[i].PostedAt.After(ts) {
			continue
		}
		balance = balance.Add(a.Entries[i].Delta)
	}
	return balance
}

// RecentEntries returns up to limit entries, newest first. The limit is
// clamped by ClampLimit.
func (a *Account) RecentEntries(limit int) []JournalEntry {
	limit = ClampLimit(limit)
	if limit > len(a.Entries) {
		limit = len(a.Entries)
	}

	out := make([]JournalEntry, 0, limit)
	for i := len(a.Entries) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, a.Entries[i])
	}
	return out
}

// EntriesByReference returns, oldest first, every entry whose reference
// matches (referenceType, referenceID). Callers use it to check whether a
// referenceId has already been posted.
func (a *Account) EntriesByReference(referenceType, referenceID string) []JournalEntry {
	var out []JournalEntry
	for i := range a.Entries {
		ref := a.Entries[i].Reference
		if ref.Type == referenceType && ref.ID == referenceID {
			out = append(out, a.Entries[i])
		}
	}
	return out
}

// Summarize computes the lifetime Summary in one journal pass.
func (a *Account) Summarize() Summary {
	s := Summary{
		Balance:         a.Balance,
		TotalEntryCount: len(a.Entries),
		IsActive:        a.Active,
	}
	for i := range a.Entries {
		e := &a.Entries[i]
		if e.Type == EntryTypeOpening {
			continue
		}
		equiv := debitEquivalent(a.Type, e.Delta)
		if equiv.IsNegative() {
			s.TotalCredits = s.TotalCredits.Add(equiv.Neg())
		} else {
			s.TotalDebits = s.TotalDebits.Add(equiv)
		}
	}
	return s
}

// PeriodSummaries returns the closed periods, oldest first.
func (a *Account) PeriodSummaries() []PeriodSummary {
	return slices.Clone(a.Periods)
}
