package ledger

import (
	"github.com/shopspring/decimal"

	"github.com/openpos/ledgerd/internal/domain"
)

// CreateAccount initializes an account. The spec's organization and account
// IDs must match the key the command is sent to.
type CreateAccount struct {
	Spec domain.CreateSpec
}

// PostEntry appends a debit or credit.
type PostEntry struct {
	EntryType   domain.EntryType
	Amount      decimal.Decimal
	Description string
	Reference   domain.Reference
	PostedBy    string
}

// ReverseEntry reverses a previously posted entry by ID.
type ReverseEntry struct {
	EntryID  string
	Reason   string
	PostedBy string
}

// AdjustBalance forces the balance to a target value through an Adjustment
// entry carrying the difference.
type AdjustBalance struct {
	NewBalance decimal.Decimal
	Reason     string
	PostedBy   string
}

// ClosePeriod closes the named accounting period, which must be the one
// currently open.
type ClosePeriod struct {
	Year     int
	Month    int
	ClosedBy string
}

// ActivateAccount re-enables posting.
type ActivateAccount struct {
	UpdatedBy string
}

// DeactivateAccount disables posting while keeping reads available.
type DeactivateAccount struct {
	UpdatedBy string
}

// UpdateMetadata changes descriptive fields only.
type UpdateMetadata struct {
	Update domain.MetadataUpdate
}
