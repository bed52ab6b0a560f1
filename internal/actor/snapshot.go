package actor

import (
	"context"
	"errors"
	"time"
)

// ErrSnapshotNotFound indicates no snapshot exists for a key. The runtime
// treats it as "new instance", not as a failure.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// Snapshot is one durable copy of an entity's state. Version counts applied
// commands; the runtime writes version n+1 after loading version n.
type Snapshot struct {
	Version   int64
	Data      []byte
	UpdatedAt time.Time
}

// SnapshotStore persists entity snapshots keyed by entity key.
type SnapshotStore interface {
	// Load returns the latest snapshot for key, or ErrSnapshotNotFound.
	Load(ctx context.Context, key Key) (*Snapshot, error)

	// Save overwrites the snapshot for key.
	Save(ctx context.Context, key Key, snap Snapshot) error
}

// KeyLister is implemented by stores that can enumerate stored keys. The
// runtime never lists; operational tooling does.
type KeyLister interface {
	ListKeys(ctx context.Context, kind string) ([]Key, error)
}
