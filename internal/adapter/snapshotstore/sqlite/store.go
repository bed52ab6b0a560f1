// Package sqlite persists entity snapshots in a local SQLite database.
// It suits single-node deployments where running Postgres is not worth
// the operational cost.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/openpos/ledgerd/internal/actor"
)

const schemaSQL = `
	CREATE TABLE IF NOT EXISTS snapshots (
		kind            TEXT    NOT NULL,
		organization_id TEXT    NOT NULL,
		entity_id       TEXT    NOT NULL,
		version         INTEGER NOT NULL,
		data            BLOB    NOT NULL,
		updated_at      INTEGER NOT NULL,
		PRIMARY KEY (kind, organization_id, entity_id)
	)`

const (
	loadSnapshotSQL = `
		SELECT version, data, updated_at
		FROM snapshots
		WHERE kind = ? AND organization_id = ? AND entity_id = ?`

	saveSnapshotSQL = `
		INSERT INTO snapshots (kind, organization_id, entity_id, version, data, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (kind, organization_id, entity_id)
		DO UPDATE SET
			version    = excluded.version,
			data       = excluded.data,
			updated_at = excluded.updated_at`

	listKeysSQL = `
		SELECT kind, organization_id, entity_id
		FROM snapshots
		WHERE ? = '' OR kind = ?
		ORDER BY kind, organization_id, entity_id`
)

// Store implements actor.SnapshotStore backed by SQLite.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the snapshot database at path and applies the
// schema.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}

	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create snapshots table: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database. Nil-safe so callers can defer it
// in all startup paths.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Ping verifies the database is still reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Load returns the stored snapshot for key, or actor.ErrSnapshotNotFound.
func (s *Store) Load(ctx context.Context, key actor.Key) (*actor.Snapshot, error) {
	var (
		snap   actor.Snapshot
		millis int64
	)

	err := s.db.QueryRowContext(ctx, loadSnapshotSQL, key.Kind, key.OrganizationID, key.EntityID).
		Scan(&snap.Version, &snap.Data, &millis)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, actor.ErrSnapshotNotFound
		}
		return nil, fmt.Errorf("load snapshot %s: %w", key, err)
	}

	snap.UpdatedAt = time.UnixMilli(millis).UTC()
	return &snap, nil
}

// Save upserts the snapshot for key.
func (s *Store) Save(ctx context.Context, key actor.Key, snap actor.Snapshot) error {
	_, err := s.db.ExecContext(ctx, saveSnapshotSQL,
		key.Kind, key.OrganizationID, key.EntityID,
		snap.Version, snap.Data, snap.UpdatedAt.UTC().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("save snapshot %s: %w", key, err)
	}
	return nil
}

// ListKeys returns every stored key of the given kind. An empty kind
// returns all keys.
func (s *Store) ListKeys(ctx context.Context, kind string) ([]actor.Key, error) {
	rows, err := s.db.QueryContext(ctx, listKeysSQL, kind, kind)
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
