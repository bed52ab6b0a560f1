package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// EntryType classifies a journal entry.
type EntryType string

const (
	EntryTypeOpening    EntryType = "OPENING"
	EntryTypeDebit      EntryType = "DEBIT"
	EntryTypeCredit     EntryType = "CREDIT"
	EntryTypeAdjustment EntryType = "ADJUSTMENT"
	EntryTypeReversal   EntryType = "REVERSAL"
)

// EntryStatus is the lifecycle state of a journal entry. Entries are
// immutable apart from the single Posted -> Reversed transition.
type EntryStatus string

const (
	EntryStatusPosted   EntryStatus = "POSTED"
	EntryStatusReversed EntryStatus = "REVERSED"
)

// Reference ties an entry to an external document (order, payment, invoice).
// The ledger never deduplicates on it; callers that need exactly-once
// posting check EntriesByReference before posting.
type Reference struct {
	Number string `json:"number,omitempty"`
	Type   string `json:"type,omitempty"`
	ID     string `json:"id,omitempty"`
}

// IsZero reports whether no reference was supplied.
func (r Reference) IsZero() bool {
	return r == Reference{}
}

// JournalEntry is one immutable balance-affecting event. Amount is always
// positive; Delta is the signed effect actually applied to the balance, so
// the balance invariant is Balance == sum of all Deltas.
type JournalEntry struct {
	EntryID      string          `json:"entry_id"`
	Type         EntryType       `json:"entry_type"`
	Status       EntryStatus     `json:"status"`
	Amount       decimal.Decimal `json:"amount"`
	Delta        decimal.Decimal `json:"delta"`
	BalanceAfter decimal.Decimal `json:"balance_after"`
	Description  string          `json:"description,omitempty"`
	Reference    Reference       `json:"reference,omitzero"`
	PostedBy     string          `json:"posted_by"`
	PostedAt     time.Time       `json:"posted_at"`
	PeriodYear   int             `json:"period_year"`
	PeriodMonth  int             `json:"period_month"`

	// ReversalEntryID is set on the original entry once it has been
	// reversed; ReversedEntryID is set on the Reversal entry and points
	// back at the original.
	ReversalEntryID string `json:"reversal_entry_id,omitempty"`
	ReversedEntryID string `json:"reversed_entry_id,omitempty"`
}

// PostEntry appends a Debit or Credit entry. The signed delta follows the
// account's normal balance (see SignFor); the ledger imposes no balance
// floor, overdraft policy belongs to the caller.
func (a *Account) PostEntry(entryType EntryType, amount decimal.Decimal, description string, ref Reference, postedBy, entryID string, now time.Time) (*Account, *JournalEntry, error) {
	if entryType != EntryTypeDebit && entryType != EntryTypeCredit {
		return nil, nil, fmt.Errorf("%w: entry type %q is not postable", ErrInvalidArgument, entryType)
	}
	if err := a.validatePosting(amount, postedBy); err != nil {
		return nil, nil, err
	}

	delta := signedAmount(a.Type, entryType, amount)
	next := a.clone()
	entry := next.append(JournalEntry{
		EntryID:     entryID,
		Type:        entryType,
		Amount:      amount,
		Delta:       delta,
		Description: description,
		Reference:   ref,
		PostedBy:    postedBy,
		PostedAt:    now,
	})
	next.touch(postedBy, now)
	return next, entry, nil
}

// Adjust forces the balance to newBalance by appending an Adjustment entry
// whose delta is the difference. The normal-balance sign rule does not apply.
func (a *Account) Adjust(newBalance decimal.Decimal, reason, postedBy, entryID string, now time.Time) (*Account, *JournalEntry, error) {
	if err := a.operable(); err != nil {
		return nil, nil, err
	}
	delta := newBalance.Sub(a.Balance)
	if delta.IsZero() {
		return nil, nil, fmt.Errorf("%w: balance is already %s", ErrNoChange, newBalance)
	}

	next := a.clone()
	entry := next.append(JournalEntry{
		EntryID:     entryID,
		Type:        EntryTypeAdjustment,
		Amount:      delta.Abs(),
		Delta:       delta,
		Description: reason,
		PostedBy:    postedBy,
		PostedAt:    now,
	})
	next.touch(postedBy, now)
	return next, entry, nil
}

// Reverse cancels one earlier entry by appending a Reversal entry with the
// exact inverse delta applied to the current balance. It is not a rewind:
// entries posted after the original keep their effect. The original flips to
// Reversed and both entries cross-link.
func (a *Account) Reverse(entryID, reason, postedBy, reversalEntryID string, now time.Time) (*Account, *JournalEntry, error) {
	if err := a.operable(); err != nil {
		return nil, nil, err
	}

	idx := -1
	for i := range a.Entries {
		if a.Entries[i].EntryID == entryID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, nil, fmt.Errorf("%w: entry %s", ErrNotFound, entryID)
	}
	original := a.Entries[idx]
	if original.Type == EntryTypeReversal {
		return nil, nil, fmt.Errorf("%w: entry %s", ErrCannotReverseReversal, entryID)
	}
	if original.Status == EntryStatusReversed {
		return nil, nil, fmt.Errorf("%w: entry %s was reversed by %s", ErrAlreadyReversed, entryID, original.ReversalEntryID)
	}

	next := a.clone()
	entry := next.append(JournalEntry{
		EntryID:         reversalEntryID,
		Type:            EntryTypeReversal,
		Amount:          original.Amount,
		Delta:           original.Delta.Neg(),
		Description:     reason,
		Reference:       original.Reference,
		PostedBy:        postedBy,
		PostedAt:        now,
		ReversedEntryID: original.EntryID,
	})
	next.Entries[idx].Status = EntryStatusReversed
	next.Entries[idx].ReversalEntryID = reversalEntryID
	next.touch(postedBy, now)
	return next, entry, nil
}

func (a *Account) validatePosting(amount decimal.Decimal, postedBy string) error {
	if err := a.operable(); err != nil {
		return err
	}
	if err := ValidateAmount(amount); err != nil {
		return err
	}
	if postedBy == "" {
		return fmt.Errorf("%w: postedBy is required", ErrInvalidArgument)
	}
	return nil
}

// operable gates every balance-affecting command: the account must exist and
// be active.
func (a *Account) operable() error {
	if !a.Initialized() {
		return fmt.Errorf("%w: account is not initialized", ErrNotFound)
	}
	if !a.Active {
		return fmt.Errorf("%w: account %s", ErrNotActive, a.AccountID)
	}
	return nil
}

// append finalizes entry bookkeeping on an already-cloned account: status,
// period stamp, balance roll-forward. Returns a pointer into a.Entries.
func (a *Account) append(entry JournalEntry) *JournalEntry {
	entry.Status = EntryStatusPosted
	entry.PeriodYear = a.PeriodYear
	entry.PeriodMonth = a.PeriodMonth
	a.Balance = a.Balance.Add(entry.Delta)
	entry.BalanceAfter = a.Balance
	a.Entries = append(a.Entries, entry)
	return &a.Entries[len(a.Entries)-1]
}
