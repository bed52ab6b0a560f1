package domain

import "time"

// Event types
const (
	EventTypeAccountCreated     = "account.created"
	EventTypeEntryPosted        = "entry.posted"
	EventTypeEntryReversed      = "entry.reversed"
	EventTypeBalanceAdjusted    = "balance.adjusted"
	EventTypePeriodClosed       = "period.closed"
	EventTypeAccountActivated   = "account.activated"
	EventTypeAccountDeactivated = "account.deactivated"
	EventTypeAccountUpdated     = "account.updated"
)

// Event is what the ledger hands to the notifier after a successful
// mutation. Delivery is fire-and-forget: a notifier failure never fails the
// command that produced the event.
type Event struct {
	ID             string    `json:"id"`
	OrganizationID string    `json:"organization_id"`
	AccountID      string    `json:"account_id"`
	EventType      string    `json:"event_type"`
	Payload        any       `json:"payload,omitempty"`
	OccurredAt     time.Time `json:"occurred_at"`
}

// EntryPostedEvent payload
type EntryPostedEvent struct {
	EntryID    string `json:"entry_id"`
	EntryType  string `json:"entry_type"`
	Amount     string `json:"amount"`
	NewBalance string `json:"new_balance"`
}

// EntryReversedEvent payload
type EntryReversedEvent struct {
	ReversalEntryID string `json:"reversal_entry_id"`
	OriginalEntryID string `json:"original_entry_id"`
	Amount          string `json:"amount"`
	NewBalance      string `json:"new_balance"`
}

// PeriodClosedEvent payload
type PeriodClosedEvent struct {
	Year           int    `json:"year"`
	Month          int    `json:"month"`
	ClosingBalance string `json:"closing_balance"`
	EntryCount     int    `json:"entry_count"`
}

// AccountCreatedEvent payload
type AccountCreatedEvent struct {
	AccountCode string `json:"account_code"`
	Name        string `json:"name"`
	AccountType string `json:"account_type"`
}
