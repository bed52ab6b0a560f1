package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/openpos/ledgerd/internal/actor"
	postgresStore "github.com/openpos/ledgerd/internal/adapter/snapshotstore/postgres"
	sqliteStore "github.com/openpos/ledgerd/internal/adapter/snapshotstore/sqlite"
	"github.com/openpos/ledgerd/internal/domain"
	"github.com/openpos/ledgerd/internal/infrastructure/postgres"
	"github.com/openpos/ledgerd/internal/ledger"
)

var (
	backend     string
	sqlitePath  string
	databaseURL string
	auditOrg    string
)

// openStore connects to the snapshot store named by --backend. The CLI only
// ever loads and lists; it never saves. Swappable in tests.
var openStore = func(ctx context.Context) (actor.SnapshotStore, func(), error) {
	switch backend {
	case "sqlite":
		if _, err := os.Stat(sqlitePath); err != nil {
			return nil, nil, fmt.Errorf("no sqlite database at %s", sqlitePath)
		}
		store, err := sqliteStore.Open(sqlitePath)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { _ = store.Close() }, nil

	case "postgres":
		if databaseURL == "" {
			return nil, nil, fmt.Errorf("--database-url is required for the postgres backend")
		}
		pool, err := postgres.NewPool(ctx, databaseURL, 2, 0)
		if err != nil {
			return nil, nil, err
		}
		return postgresStore.NewStore(pool), pool.Close, nil

	default:
		return nil, nil, fmt.Errorf("unknown backend %q", backend)
	}
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "ledgerd-cli",
		Short:         "ledgerd offline inspection tool",
		Long:          `Reads account snapshots straight from a snapshot store. Never writes.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&backend, "backend", "sqlite", "Snapshot store backend (sqlite or postgres)")
	rootCmd.PersistentFlags().StringVar(&sqlitePath, "sqlite-path", "ledgerd.db", "Path to the sqlite snapshot database")
	rootCmd.PersistentFlags().StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL")

	rootCmd.AddCommand(snapshotCmd(), auditCmd(), periodsCmd())
	return rootCmd
}

func snapshotCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "snapshot <organization-id> <account-id>",
		Short: "Dump one account's decoded state",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, closeStore, err := openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer closeStore()

			account, err := loadAccount(cmd.Context(), store, args[0], args[1])
			if err != nil {
				return err
			}
			return printJSON(account)
		},
	}
}

func periodsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "periods <organization-id> <account-id>",
		Short: "List an account's closed periods",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, closeStore, err := openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer closeStore()

			account, err := loadAccount(cmd.Context(), store, args[0], args[1])
			if err != nil {
				return err
			}
			if len(account.Periods) == 0 {
				fmt.Println("no closed periods")
				return nil
			}
			return printJSON(account.Periods)
		},
	}
}

func auditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Recompute every account's balance from its entries",
		Long: `Walks all account snapshots, replays the entry deltas and compares the
running sum against each stored balance. Exits nonzero on any mismatch.
Duplicate account codes within an organization are reported but do not
fail the audit.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, closeStore, err := openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer closeStore()

			return runAudit(cmd.Context(), store)
		},
	}
	cmd.Flags().StringVar(&auditOrg, "org", "", "Audit only this organization")
	return cmd
}

func runAudit(ctx context.Context, store actor.SnapshotStore) error {
	lister, ok := store.(actor.KeyLister)
	if !ok {
		return fmt.Errorf("%q backend cannot list keys", backend)
	}
	keys, err := lister.ListKeys(ctx, ledger.Kind)
	if err != nil {
		return err
	}

	entity := ledger.NewEntity(nil, nil)
	seenCodes := make(map[string]string)
	audited := 0
	failures := 0
	for _, key := range keys {
		if auditOrg != "" && key.OrganizationID != auditOrg {
			continue
		}
		audited++

		snap, err := store.Load(ctx, key)
		if err != nil {
			failures++
			fmt.Printf("ERROR    %s/%s: %v\n", key.OrganizationID, key.EntityID, err)
			continue
		}
		state, err := entity.Restore(snap.Data)
		if err != nil {
			failures++
			fmt.Printf("ERROR    %s/%s: %v\n", key.OrganizationID, key.EntityID, err)
			continue
		}
		account := state.(*domain.Account)

		if err := auditAccount(account); err != nil {
			failures++
			fmt.Printf("MISMATCH %s/%s (%s): %v\n", key.OrganizationID, key.EntityID, truncate(account.Name, 24), err)
			continue
		}
		fmt.Printf("ok       %s/%s code=%s balance=%s entries=%d\n",
			key.OrganizationID, key.EntityID, account.AccountCode, account.Balance, len(account.Entries))

		codeKey := key.OrganizationID + "/" + account.AccountCode
		if first, dup := seenCodes[codeKey]; dup {
			fmt.Printf("DUPLICATE account code %s in %s: %s and %s\n",
				account.AccountCode, key.OrganizationID, first, key.EntityID)
		} else {
			seenCodes[codeKey] = key.EntityID
		}
	}

	if failures > 0 {
		return fmt.Errorf("%d of %d accounts failed the audit", failures, audited)
	}
	fmt.Printf("audited %d accounts, all balanced\n", audited)
	return nil
}

// auditAccount replays the entry chain: every balance_after must equal the
// running sum of deltas, and the stored balance must equal the final sum.
func auditAccount(account *domain.Account) error {
	sum := decimal.Zero
	for i, entry := range account.Entries {
		sum = sum.Add(entry.Delta)
		if !entry.BalanceAfter.Equal(sum) {
			return fmt.Errorf("entry %s (index %d) has balance_after %s, running sum is %s",
				entry.EntryID, i, entry.BalanceAfter, sum)
		}
	}
	if !account.Balance.Equal(sum) {
		return fmt.Errorf("stored balance %s does not match entry sum %s", account.Balance, sum)
	}
	return nil
}

func loadAccount(ctx context.Context, store actor.SnapshotStore, organizationID, accountID string) (*domain.Account, error) {
	snap, err := store.Load(ctx, actor.NewKey(ledger.Kind, organizationID, accountID))
	if err != nil {
		return nil, err
	}
	state, err := ledger.NewEntity(nil, nil).Restore(snap.Data)
	if err != nil {
		return nil, err
	}
	return state.(*domain.Account), nil
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	if n <= 3 {
		return s[:n]
	}
	return s[:n-3] + "..."
}
