package ports

import (
	"context"
	"time"

	"account-ledger/internal/core/domain"
)

// SnapshotStore persists whole-ledger snapshots.
// Load returns (nil, nil) when nothing has been saved yet.
type SnapshotStore interface {
	Save(ctx context.Context, snapshot domain.Snapshot) error
	Load(ctx context.Context) (*domain.Snapshot, error)
}

// AuditRepository persists audit entries.
type AuditRepository interface {
	Create(ctx context.Context, log *domain.AuditLog) error
}

// RateLimitStore counts requests per key in fixed windows.
type RateLimitStore interface {
	Allow(ctx context.Context, key string, limit int64, window time.Duration) (*RateLimitResult, error)
}

// RateLimitResult holds the outcome of a rate limit check.
type RateLimitResult struct {
	Allowed   bool
	Limit     int64
	Remaining int64
	ResetAt   int64 // Unix timestamp
}

// IdempotencyCache stores replayable responses keyed by client and idempotency key.
// Get returns (nil, nil) on a miss.
type IdempotencyCache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}
