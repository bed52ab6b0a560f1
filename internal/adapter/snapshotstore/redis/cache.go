// Package redis layers a Redis cache in front of a durable snapshot
// store. After a restart the runtime reactivates entities in bursts;
// serving those loads from Redis keeps the burst off the database.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/openpos/ledgerd/internal/actor"
)

const defaultTTL = 10 * time.Minute

// cachedSnapshot is the cache wire format.
type cachedSnapshot struct {
	Version   int64     `json:"version"`
	Data      []byte    `json:"data"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Cache implements actor.SnapshotStore as a read-through, write-through
// cache over an inner store. The inner store stays the source of truth:
// cache failures degrade to inner reads, never to errors.
type Cache struct {
	inner  actor.SnapshotStore
	client *redis.Client
	ttl    time.Duration
	prefix string
	logger zerolog.Logger
}

// NewCache creates a cache over inner. A non-positive ttl falls back to
// ten minutes.
func NewCache(inner actor.SnapshotStore, client *redis.Client, ttl time.Duration, logger zerolog.Logger) *Cache {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Cache{
		inner:  inner,
		client: client,
		ttl:    ttl,
		prefix: "snapshot:",
		logger: logger,
	}
}

func (c *Cache) cacheKey(key actor.Key) string {
	return c.prefix + key.String()
}

// Load returns the cached snapshot when present, falling back to the
// inner store and priming the cache on a miss.
func (c *Cache) Load(ctx context.Context, key actor.Key) (*actor.Snapshot, error) {
	raw, err := c.client.Get(ctx, c.cacheKey(key)).Bytes()
	if err == nil {
		var cached cachedSnapshot
		if err := json.Unmarshal(raw, &cached); err == nil {
			return &actor.Snapshot{
				Version:   cached.Version,
				Data:      cached.Data,
				UpdatedAt: cached.UpdatedAt,
			}, nil
		}
		c.logger.Warn().Str("key", key.String()).Msg("dropping undecodable snapshot cache entry")
		c.invalidate(ctx, key)
	} else if err != redis.Nil {
		c.logger.Warn().Err(err).Str("key", key.String()).Msg("snapshot cache read failed, falling back to store")
	}

	snap, err := c.inner.Load(ctx, key)
	if err != nil {
		return nil, err
	}

	c.prime(ctx, key, snap)
	return snap, nil
}

// Save writes to the inner store first, then refreshes the cache. When
// the durable write fails, the cache entry is dropped so the next load
// sees whatever actually landed.
func (c *Cache) Save(ctx context.Context, key actor.Key, snap actor.Snapshot) error {
	if err := c.inner.Save(ctx, key, snap); err != nil {
		c.invalidate(ctx, key)
		return err
	}

	c.prime(ctx, key, &snap)
	return nil
}

// ListKeys forwards to the inner store.
func (c *Cache) ListKeys(ctx context.Context, kind string) ([]actor.Key, error) {
	lister, ok := c.inner.(actor.KeyLister)
	if !ok {
		return nil, fmt.Errorf("snapshot store %T does not support listing keys", c.inner)
	}
	return lister.ListKeys(ctx, kind)
}

// prime refreshes the cache entry. A failed write invalidates instead,
// so the cache never holds an older version than the store.
func (c *Cache) prime(ctx context.Context, key actor.Key, snap *actor.Snapshot) {
	raw, err := json.Marshal(cachedSnapshot{
		Version:   snap.Version,
		Data:      snap.Data,
		UpdatedAt: snap.UpdatedAt,
	})
	if err != nil {
		c.logger.Warn().Err(err).Str("key", key.String()).Msg("failed to encode snapshot for cache")
		return
	}

	if err := c.client.Set(ctx, c.cacheKey(key), raw, c.ttl).Err(); err != nil {
		c.logger.Warn().Err(err).Str("key", key.String()).Msg("snapshot cache write failed")
		c.invalidate(ctx, key)
	}
}

func (c *Cache) invalidate(ctx context.Context, key actor.Key) {
	if err := c.client.Del(ctx, c.cacheKey(key)).Err(); err != nil {
		c.logger.Error().Err(err).Str("key", key.String()).Msg("failed to drop snapshot cache entry")
	}
}
