// Package postgres persists entity snapshots in PostgreSQL, one row per
// entity key. The actor runtime serializes writes per key, so saves are
// plain upserts with no optimistic locking.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/openpos/ledgerd/internal/actor"
)

const (
	loadSnapshotSQL = `
		SELECT version, data, updated_at
		FROM snapshots
		WHERE kind = $1 AND organization_id = $2 AND entity_id = $3`

	saveSnapshotSQL = `
		INSERT INTO snapshots (kind, organization_id, entity_id, version, data, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (kind, organization_id, entity_id)
		DO UPDATE SET
			version    = EXCLUDED.version,
			data       = EXCLUDED.data,
			updated_at = EXCLUDED.updated_at`

	listKeysSQL = `
		SELECT kind, organization_id, entity_id
		FROM snapshots
		WHERE $1 = '' OR kind = $1
		ORDER BY kind, organization_id, entity_id`
)

// Store implements actor.SnapshotStore backed by PostgreSQL.
type Store struct {
	pool    *pgxpool.Pool
	retrier *Retrier
}

// NewStore creates a snapshot store over an existing connection pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{
		pool:    pool,
		retrier: NewRetrier(),
	}
}

// Load returns the stored snapshot for key, or actor.ErrSnapshotNotFound.
func (s *Store) Load(ctx context.Context, key actor.Key) (*actor.Snapshot, error) {
	var snap actor.Snapshot

	err := s.pool.QueryRow(ctx, loadSnapshotSQL, key.Kind, key.OrganizationID, key.EntityID).
		Scan(&snap.Version, &snap.Data, &snap.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, actor.ErrSnapshotNotFound
		}
		return nil, fmt.Errorf("load snapshot %s: %w", key, err)
	}

	return &snap, nil
}

// Save upserts the snapshot for key, retrying transient failures.
func (s *Store) Save(ctx context.Context, key actor.Key, snap actor.Snapshot) error {
	return s.retrier.Retry(ctx, func() error {
		_, err := s.pool.Exec(ctx, saveSnapshotSQL,
			key.Kind, key.OrganizationID, key.EntityID,
			snap.Version, snap.Data, snap.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("save snapshot %s: %w", key, err)
		}
		return nil
	})
}

// ListKeys returns every stored key of the given kind. An empty kind
// returns all keys.
func (s *Store) ListKeys(ctx context.Context, kind string) ([]actor.Key, error) {
	rows, err := s.pool.Query(ctx, listKeysSQL, kind)
	if err != nil {
		return nil, fmt.Errorf("list snapshot keys: %w", err)
	}
	defer rows.Close()

	var keys []actor.Key
	for rows.Next() {
		var key actor.Key
		if err := rows.Scan(&key.Kind, &key.OrganizationID, &key.EntityID); err != nil {
			return nil, fmt.Errorf("scan snapshot key: %w", err)
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list snapshot keys: %w", err)
	}

	return keys, nil
}
