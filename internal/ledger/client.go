package ledger

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"

	"github.com/openpos/ledgerd/internal/actor"
	"github.com/openpos/ledgerd/internal/domain"
	"github.com/openpos/ledgerd/internal/infrastructure/metrics"
)

// Notifier receives events after a command commits. Delivery is
// fire-and-forget: a notifier must not fail or block the command path.
type Notifier interface {
	Notify(ctx context.Context, event domain.Event)
}

type noopNotifier struct{}

func (noopNotifier) Notify(context.Context, domain.Event) {}

// Client is the typed surface of the account entity. It routes commands and
// queries through the runtime, emits events for committed commands and keeps
// the ledger counters.
type Client struct {
	runtime  *actor.Runtime
	notifier Notifier
	metrics  *metrics.Metrics
	ids      IDGenerator
}

// NewClient wires the client. A nil notifier drops events; a nil metrics
// instance gets a private registry.
func NewClient(runtime *actor.Runtime, notifier Notifier, m *metrics.Metrics) *Client {
	if notifier == nil {
		notifier = noopNotifier{}
	}
	if m == nil {
		m = metrics.New(prometheus.NewRegistry())
	}
	return &Client{
		runtime:  runtime,
		notifier: notifier,
		metrics:  m,
		ids:      NewULIDGenerator(),
	}
}

// AccountKey builds the runtime key for an account.
func AccountKey(organizationID, accountID string) actor.Key {
	return actor.NewKey(Kind, organizationID, accountID)
}

// CreateAccount initializes an account and returns its state.
func (c *Client) CreateAccount(ctx context.Context, spec domain.CreateSpec) (*domain.Account, error) {
	result, err := c.runtime.Execute(ctx, AccountKey(spec.OrganizationID, spec.AccountID), CreateAccount{Spec: spec})
	if err != nil {
		return nil, err
	}
	account := result.(*domain.Account)

	c.metrics.AccountsCreated.Inc()
	c.notify(ctx, account.OrganizationID, account.AccountID, domain.EventTypeAccountCreated, domain.AccountCreatedEvent{
		AccountCode: account.AccountCode,
		Name:        account.Name,
		AccountType: string(account.Type),
	})
	return account, nil
}

// PostEntry appends a debit or credit and returns the new entry.
func (c *Client) PostEntry(ctx context.Context, organizationID, accountID string, cmd PostEntry) (*domain.JournalEntry, error) {
	result, err := c.runtime.Execute(ctx, AccountKey(organizationID, accountID), cmd)
	if err != nil {
		return nil, err
	}
	entry := result.(*domain.JournalEntry)

	c.metrics.EntriesPosted.WithLabelValues(string(entry.Type)).Inc()
	c.notify(ctx, organizationID, accountID, domain.EventTypeEntryPosted, domain.EntryPostedEvent{
		EntryID:    entry.EntryID,
		EntryType:  string(entry.Type),
		Amount:     entry.Amount.String(),
		NewBalance: entry.BalanceAfter.String(),
	})
	return entry, nil
}

// ReverseEntry reverses a posted entry and returns the reversal.
func (c *Client) ReverseEntry(ctx context.Context, organizationID, accountID string, cmd ReverseEntry) (*domain.JournalEntry, error) {
	result, err := c.runtime.Execute(ctx, AccountKey(organizationID, accountID), cmd)
	if err != nil {
		return nil, err
	}
	entry := result.(*domain.JournalEntry)

	c.metrics.EntriesPosted.WithLabelValues(string(entry.Type)).Inc()
	c.notify(ctx, organizationID, accountID, domain.EventTypeEntryReversed, domain.EntryReversedEvent{
		ReversalEntryID: entry.EntryID,
		OriginalEntryID: entry.ReversedEntryID,
		Amount:          entry.Amount.String(),
		NewBalance:      entry.BalanceAfter.String(),
	})
	return entry, nil
}

// AdjustBalance forces the balance to a target value and returns the
// adjustment entry.
func (c *Client) AdjustBalance(ctx context.Context, organizationID, accountID string, cmd AdjustBalance) (*domain.JournalEntry, error) {
	result, err := c.runtime.Execute(ctx, AccountKey(organizationID, accountID), cmd)
	if err != nil {
		return nil, err
	}
	entry := result.(*domain.JournalEntry)

	c.metrics.EntriesPosted.WithLabelValues(string(entry.Type)).Inc()
	c.notify(ctx, organizationID, accountID, domain.EventTypeBalanceAdjusted, domain.EntryPostedEvent{
		EntryID:    entry.EntryID,
		EntryType:  string(entry.Type),
		Amount:     entry.Amount.String(),
		NewBalance: entry.BalanceAfter.String(),
	})
	return entry, nil
}

// ClosePeriod closes the open accounting period and returns its summary.
func (c *Client) ClosePeriod(ctx context.Context, organizationID, accountID string, cmd ClosePeriod) (*domain.PeriodSummary, error) {
	result, err := c.runtime.Execute(ctx, AccountKey(organizationID, accountID), cmd)
	if err != nil {
		return nil, err
	}
	summary := result.(*domain.PeriodSummary)

	c.metrics.PeriodsClosed.Inc()
	c.notify(ctx, organizationID, accountID, domain.EventTypePeriodClosed, domain.PeriodClosedEvent{
		Year:           summary.Year,
		Month:          summary.Month,
		ClosingBalance: summary.ClosingBalance.String(),
		EntryCount:     summary.EntryCount,
	})
	return summary, nil
}

// Activate re-enables posting on a deactivated account.
func (c *Client) Activate(ctx context.Context, organizationID, accountID, updatedBy string) (*domain.Account, error) {
	result, err := c.runtime.Execute(ctx, AccountKey(organizationID, accountID), ActivateAccount{UpdatedBy: updatedBy})
	if err != nil {
		return nil, err
	}
	account := result.(*domain.Account)

	c.notify(ctx, organizationID, accountID, domain.EventTypeAccountActivated, nil)
	return account, nil
}

// Deactivate disables posting; reads keep working.
func (c *Client) Deactivate(ctx context.Context, organizationID, accountID, updatedBy string) (*domain.Account, error) {
	result, err := c.runtime.Execute(ctx, AccountKey(organizationID, accountID), DeactivateAccount{UpdatedBy: updatedBy})
	if err != nil {
		return nil, err
	}
	account := result.(*domain.Account)

	c.notify(ctx, organizationID, accountID, domain.EventTypeAccountDeactivated, nil)
	return account, nil
}

// UpdateMetadata changes descriptive fields only.
func (c *Client) UpdateMetadata(ctx context.Context, organizationID, accountID string, update domain.MetadataUpdate) (*domain.Account, error) {
	result, err := c.runtime.Execute(ctx, AccountKey(organizationID, accountID), UpdateMetadata{Update: update})
	if err != nil {
		return nil, err
	}
	account := result.(*domain.Account)

	c.notify(ctx, organizationID, accountID, domain.EventTypeAccountUpdated, nil)
	return account, nil
}

// Balance returns the current balance.
func (c *Client) Balance(ctx context.Context, organizationID, accountID string) (decimal.Decimal, error) {
	result, err := c.runtime.Ask(ctx, AccountKey(organizationID, accountID), GetBalance{})
	if err != nil {
		return decimal.Zero, err
	}
	return result.(decimal.Decimal), nil
}

// BalanceAt recomputes the balance as of a point in time.
func (c *Client) BalanceAt(ctx context.Context, organizationID, accountID string, at time.Time) (decimal.Decimal, error) {
	result, err := c.runtime.Ask(ctx, AccountKey(organizationID, accountID), GetBalanceAt{At: at})
	if err != nil {
		return decimal.Zero, err
	}
	return result.(decimal.Decimal), nil
}

// Entries returns the most recent entries, newest first.
func (c *Client) Entries(ctx context.Context, organizationID, accountID string, limit int) ([]domain.JournalEntry, error) {
	result, err := c.runtime.Ask(ctx, AccountKey(organizationID, accountID), GetEntries{Limit: limit})
	if err != nil {
		return nil, err
	}
	return result.([]domain.JournalEntry), nil
}

// EntriesByReference returns entries matching a business reference, oldest
// first.
func (c *Client) EntriesByReference(ctx context.Context, organizationID, accountID, referenceType, referenceID string) ([]domain.JournalEntry, error) {
	result, err := c.runtime.Ask(ctx, AccountKey(organizationID, accountID), GetEntriesByReference{
		ReferenceType: referenceType,
		ReferenceID:   referenceID,
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.JournalEntry), nil
}

// Summary returns the balance plus lifetime activity totals.
func (c *Client) Summary(ctx context.Context, organizationID, accountID string) (domain.Summary, error) {
	result, err := c.runtime.Ask(ctx, AccountKey(organizationID, accountID), GetSummary{})
	if err != nil {
		return domain.Summary{}, err
	}
	return result.(domain.Summary), nil
}

// Periods returns all closed period summaries.
func (c *Client) Periods(ctx context.Context, organizationID, accountID string) ([]domain.PeriodSummary, error) {
	result, err := c.runtime.Ask(ctx, AccountKey(organizationID, accountID), GetPeriods{})
	if err != nil {
		return nil, err
	}
	return result.([]domain.PeriodSummary), nil
}

// Snapshot returns the full account state.
func (c *Client) Snapshot(ctx context.Context, organizationID, accountID string) (*domain.Account, error) {
	result, err := c.runtime.Ask(ctx, AccountKey(organizationID, accountID), GetSnapshot{})
	if err != nil {
		return nil, err
	}
	return result.(*domain.Account), nil
}

func (c *Client) notify(ctx context.Context, organizationID, accountID, eventType string, payload any) {
	c.notifier.Notify(ctx, domain.Event{
		ID:             c.ids.Generate(),
		OrganizationID: organizationID,
		AccountID:      accountID,
		EventType:      eventType,
		Payload:        payload,
		OccurredAt:     time.Now().UTC(),
	})
}
