package ledger

import "time"

// GetBalance returns the current balance.
type GetBalance struct{}

// GetBalanceAt returns the balance as of a point in time, recomputed from
// the journal.
type GetBalanceAt struct {
	At time.Time
}

// GetEntries returns the most recent entries, newest first.
type GetEntries struct {
	Limit int
}

// GetEntriesByReference returns entries matching a business reference,
// oldest first.
type GetEntriesByReference struct {
	ReferenceType string
	ReferenceID   string
}

// GetSummary returns balance plus lifetime activity totals.
type GetSummary struct{}

// GetPeriods returns all closed period summaries.
type GetPeriods struct{}

// GetSnapshot returns the full account state.
type GetSnapshot struct{}
