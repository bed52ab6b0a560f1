package ledger

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/openpos/ledgerd/internal/actor"
	"github.com/openpos/ledgerd/internal/domain"
)

// Kind is the entity kind of ledger accounts.
const Kind = "account"

const snapshotSchemaVersion = 1

// snapshotEnvelope wraps the account state with a schema version so future
// layouts can migrate on load.
type snapshotEnvelope struct {
	SchemaVersion int             `json:"schema_version"`
	Account       *domain.Account `json:"account"`
}

// Entity adapts the account state machine to the actor runtime. It is
// stateless; the clock and ID generator are the only injected effects.
type Entity struct {
	ids   IDGenerator
	clock func() time.Time
}

// NewEntity creates the account entity. A nil generator gets ULIDs and a nil
// clock gets UTC wall time.
func NewEntity(ids IDGenerator, clock func() time.Time) *Entity {
	if ids == nil {
		ids = NewULIDGenerator()
	}
	if clock == nil {
		clock = func() time.Time { return time.Now().UTC() }
	}
	return &Entity{ids: ids, clock: clock}
}

func (e *Entity) Kind() string { return Kind }

func (e *Entity) NewState() actor.State {
	return &domain.Account{}
}

func (e *Entity) Apply(state actor.State, cmd actor.Command) (actor.State, any, error) {
	account := state.(*domain.Account)
	now := e.clock()

	switch c := cmd.(type) {
	case CreateAccount:
		if account.Initialized() {
			return nil, nil, fmt.Errorf("%w: account %s", domain.ErrAlreadyExists, account.AccountID)
		}
		next, err := domain.NewAccount(c.Spec, e.ids.Generate(), now)
		if err != nil {
			return nil, nil, err
		}
		return next, next, nil

	case PostEntry:
		next, entry, err := account.PostEntry(c.EntryType, c.Amount, c.Description, c.Reference, c.PostedBy, e.ids.Generate(), now)
		if err != nil {
			return nil, nil, err
		}
		return next, entry, nil

	case ReverseEntry:
		next, entry, err := account.Reverse(c.EntryID, c.Reason, c.PostedBy, e.ids.Generate(), now)
		if err != nil {
			return nil, nil, err
		}
		return next, entry, nil

	case AdjustBalance:
		next, entry, err := account.Adjust(c.NewBalance, c.Reason, c.PostedBy, e.ids.Generate(), now)
		if err != nil {
			return nil, nil, err
		}
		return next, entry, nil

	case ClosePeriod:
		next, summary, err := account.ClosePeriod(c.Year, c.Month, c.ClosedBy, now)
		if err != nil {
			return nil, nil, err
		}
		return next, summary, nil

	case ActivateAccount:
		next, err := account.Activate(c.UpdatedBy, now)
		if err != nil {
			return nil, nil, err
		}
		return next, next, nil

	case DeactivateAccount:
		next, err := account.Deactivate(c.UpdatedBy, now)
		if err != nil {
			return nil, nil, err
		}
		return next, next, nil

	case UpdateMetadata:
		next, err := account.UpdateMetadata(c.Update, now)
		if err != nil {
			return nil, nil, err
		}
		return next, next, nil

	default:
		return nil, nil, fmt.Errorf("%w: unknown command %T", domain.ErrInvalidArgument, cmd)
	}
}

func (e *Entity) Answer(state actor.State, query actor.Query) (any, error) {
	account := state.(*domain.Account)
	if !account.Initialized() {
		return nil, fmt.Errorf("%w: account is not initialized", domain.ErrNotFound)
	}

	switch q := query.(type) {
	case GetBalance:
		return account.Balance, nil
	case GetBalanceAt:
		return account.BalanceAt(q.At), nil
	case GetEntries:
		return account.RecentEntries(q.Limit), nil
	case GetEntriesByReference:
		return account.EntriesByReference(q.ReferenceType, q.ReferenceID), nil
	case GetSummary:
		return account.Summarize(), nil
	case GetPeriods:
		return account.PeriodSummaries(), nil
	case GetSnapshot:
		// Safe to share: states are never mutated in place.
		return account, nil
	default:
		return nil, fmt.Errorf("%w: unknown query %T", domain.ErrInvalidArgument, query)
	}
}

func (e *Entity) Snapshot(state actor.State) ([]byte, error) {
	return json.Marshal(snapshotEnvelope{
		SchemaVersion: snapshotSchemaVersion,
		Account:       state.(*domain.Account),
	})
}

func (e *Entity) Restore(data []byte) (actor.State, error) {
	var env snapshotEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	if env.SchemaVersion != snapshotSchemaVersion {
		return nil, fmt.Errorf("unsupported snapshot schema version %d", env.SchemaVersion)
	}
	if env.Account == nil {
		return nil, fmt.Errorf("snapshot carries no account state")
	}
	return env.Account, nil
}
