package tariff

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// snapshotKey stores the serialized active tier snapshot.
const snapshotKey = "tariffs:active:snapshot"

// Cache keeps the active tariff snapshot in redis so quote traffic does not
// hammer postgres. Every tariff mutation invalidates it; a table built from
// a snapshot is never refreshed mid-computation.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache constructs a snapshot cache helper.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

// Get returns the cached snapshot. The boolean reports whether the key existed.
func (c *Cache) Get(ctx context.Context) ([]Tier, bool, error) {
	if c == nil || c.client == nil {
		return nil, false, nil
	}
	data, err := c.client.Get(ctx, snapshotKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}
	var tiers []Tier
	if err := json.Unmarshal(data, &tiers); err != nil {
		return nil, false, err
	}
	return tiers, true, nil
}

// Set stores the snapshot with the configured TTL.
func (c *Cache) Set(ctx context.Context, tiers []Tier) error {
	if c == nil || c.client == nil {
		return nil
	}
	data, err := json.Marshal(tiers)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, snapshotKey, data, c.ttl).Err()
}

// Invalidate drops the cached snapshot after a tariff mutation.
func (c *Cache) Invalidate(ctx context.Context) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Del(ctx, snapshotKey).Err()
}
