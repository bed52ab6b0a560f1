package domain

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// AccountType classifies an account by its role in double-entry bookkeeping.
// The type fixes the account's normal balance: see SignFor.
type AccountType string

const (
	// AccountTypeAsset is debit-normal: debits increase the balance.
	AccountTypeAsset AccountType = "ASSET"
	// AccountTypeLiability is credit-normal: credits increase the balance.
	AccountTypeLiability AccountType = "LIABILITY"
	AccountTypeEquity    AccountType = "EQUITY"
	AccountTypeRevenue   AccountType = "REVENUE"
	// AccountTypeExpense is debit-normal, like Asset.
	AccountTypeExpense AccountType = "EXPENSE"
)

var validAccountTypes = map[AccountType]bool{
	AccountTypeAsset:     true,
	AccountTypeLiability: true,
	AccountTypeEquity:    true,
	AccountTypeRevenue:   true,
	AccountTypeExpense:   true,
}

// Valid reports whether t is a known account type.
func (t AccountType) Valid() bool {
	return validAccountTypes[t]
}

// Account is the full state of one ledger account: identity and metadata,
// the current balance, the open accounting period, the journal and the
// closed-period summaries. The journal is the sole source of truth for the
// balance; Balance is the running total of every entry's Delta.
type Account struct {
	OrganizationID string      `json:"organization_id"`
	AccountID      string      `json:"account_id"`
	AccountCode    string      `json:"account_code"`
	Name           string      `json:"name"`
	Description    string      `json:"description,omitempty"`
	TaxCode        string      `json:"tax_code,omitempty"`
	Type           AccountType `json:"account_type"`
	SubType        string      `json:"sub_type,omitempty"`
	SystemAccount  bool        `json:"is_system_account"`
	Active         bool        `json:"is_active"`

	Balance     decimal.Decimal `json:"balance"`
	PeriodYear  int             `json:"period_year"`
	PeriodMonth int             `json:"period_month"`

	Entries []JournalEntry  `json:"entries"`
	Periods []PeriodSummary `json:"periods"`

	CreatedAt      time.Time `json:"created_at"`
	CreatedBy      string    `json:"created_by"`
	LastModifiedAt time.Time `json:"last_modified_at"`
	LastModifiedBy string    `json:"last_modified_by"`
}

// CreateSpec carries the caller-supplied attributes for account creation.
type CreateSpec struct {
	OrganizationID string
	AccountID      string
	AccountCode    string
	Name           string
	Type           AccountType
	SubType        string
	Description    string
	TaxCode        string
	SystemAccount  bool
	OpeningBalance decimal.Decimal
	CreatedBy      string
}

// MetadataUpdate carries the optional metadata fields of Update. Nil means
// leave unchanged.
type MetadataUpdate struct {
	Name        *string
	Description *string
	TaxCode     *string
	SubType     *string
	UpdatedBy   string
}

// Initialized reports whether Create has run for this account.
func (a *Account) Initialized() bool {
	return a.AccountID != ""
}

// NewAccount creates an active account from spec. If the opening balance is
// nonzero one Opening entry is appended and the balance set from it. The open
// period is the calendar month of now.
func NewAccount(spec CreateSpec, entryID string, now time.Time) (*Account, error) {
	if err := ValidateAccountCode(spec.AccountCode); err != nil {
		return nil, err
	}
	if err := ValidateAccountName(spec.Name); err != nil {
		return nil, err
	}
	if !spec.Type.Valid() {
		return nil, fmt.Errorf("%w: unknown account type %q", ErrInvalidArgument, spec.Type)
	}
	if strings.TrimSpace(spec.CreatedBy) == "" {
		return nil, fmt.Errorf("%w: createdBy is required", ErrInvalidArgument)
	}

	a := &Account{
		OrganizationID: spec.OrganizationID,
		AccountID:      spec.AccountID,
		AccountCode:    spec.AccountCode,
		Name:           strings.TrimSpace(spec.Name),
		Description:    spec.Description,
		TaxCode:        spec.TaxCode,
		Type:           spec.Type,
		SubType:        spec.SubType,
		SystemAccount:  spec.SystemAccount,
		Active:         true,
		PeriodYear:     now.Year(),
		PeriodMonth:    int(now.Month()),
		CreatedAt:      now,
		CreatedBy:      spec.CreatedBy,
		LastModifiedAt: now,
		LastModifiedBy: spec.CreatedBy,
	}

	if !spec.OpeningBalance.IsZero() {
		a.append(JournalEntry{
			EntryID:     entryID,
			Type:        EntryTypeOpening,
			Amount:      spec.OpeningBalance.Abs(),
			Delta:       spec.OpeningBalance,
			Description: "Opening balance",
			PostedBy:    spec.CreatedBy,
			PostedAt:    now,
		})
	}

	return a, nil
}

// Activate re-enables posting. Fails NoChange if already active.
func (a *Account) Activate(by string, now time.Time) (*Account, error) {
	if !a.Initialized() {
		return nil, fmt.Errorf("%w: account is not initialized", ErrNotFound)
	}
	if a.Active {
		return nil, fmt.Errorf("%w: account is already active", ErrNoChange)
	}
	next := a.clone()
	next.Active = true
	next.touch(by, now)
	return next, nil
}

// Deactivate soft-disables the account. System accounts cannot be
// deactivated.
func (a *Account) Deactivate(by string, now time.Time) (*Account, error) {
	if !a.Initialized() {
		return nil, fmt.Errorf("%w: account is not initialized", ErrNotFound)
	}
	if a.SystemAccount {
		return nil, fmt.Errorf("%w: account %s is a system account", ErrSystemAccountProtected, a.AccountID)
	}
	if !a.Active {
		return nil, fmt.Errorf("%w: account is already inactive", ErrNoChange)
	}
	next := a.clone()
	next.Active = false
	next.touch(by, now)
	return next, nil
}

// UpdateMetadata changes name/description/taxCode/subType only. It never
// touches the balance or the journal.
func (a *Account) UpdateMetadata(upd MetadataUpdate, now time.Time) (*Account, error) {
	if !a.Initialized() {
		return nil, fmt.Errorf("%w: account is not initialized", ErrNotFound)
	}
	if strings.TrimSpace(upd.UpdatedBy) == "" {
		return nil, fmt.Errorf("%w: updatedBy is required", ErrInvalidArgument)
	}
	if upd.Name == nil && upd.Description == nil && upd.TaxCode == nil && upd.SubType == nil {
		return nil, fmt.Errorf("%w: no fields to update", ErrNoChange)
	}
	if upd.Name != nil {
		if err := ValidateAccountName(*upd.Name); err != nil {
			return nil, err
		}
	}

	next := a.clone()
	if upd.Name != nil {
		next.Name = strings.TrimSpace(*upd.Name)
	}
	if upd.Description != nil {
		next.Description = *upd.Description
	}
	if upd.TaxCode != nil {
		next.TaxCode = *upd.TaxCode
	}
	if upd.SubType != nil {
		next.SubType = *upd.SubType
	}
	next.touch(upd.UpdatedBy, now)
	return next, nil
}

// clone returns a copy safe to mutate while the receiver stays untouched.
// Mutations work on a clone so that a failed snapshot write can discard the
// new state without corrupting the last durable one.
func (a *Account) clone() *Account {
	next := *a
	next.Entries = slices.Clone(a.Entries)
	next.Periods = slices.Clone(a.Periods)
	return &next
}

func (a *Account) touch(by string, now time.Time) {
	a.LastModifiedAt = now
	a.LastModifiedBy = by
}
