package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"account-ledger/internal/core/domain"
	"account-ledger/internal/core/ports"

	goredis "github.com/redis/go-redis/v9"
)

// SnapshotCache keeps the whole ledger snapshot as one JSON value without expiry.
type SnapshotCache struct {
	client goredis.Cmdable
	key    string
}

var _ ports.SnapshotStore = (*SnapshotCache)(nil)

// NewSnapshotCache creates a snapshot store writing to key.
func NewSnapshotCache(client goredis.Cmdable, key string) *SnapshotCache {
	return &SnapshotCache{client: client, key: key}
}

// Save replaces the stored snapshot.
func (c *SnapshotCache) Save(ctx context.Context, snap domain.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := c.client.Set(ctx, c.key, data, 0).Err(); err != nil {
		return fmt.Errorf("redis snapshot set: %w", err)
	}
	return nil
}

// Load returns the stored snapshot, or nil, nil if the key does not exist.
func (c *SnapshotCache) Load(ctx context.Context) (*domain.Snapshot, error) {
	data, err := c.client.Get(ctx, c.key).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("redis snapshot get: %w", err)
	}

	var snap domain.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	return &snap, nil
}
