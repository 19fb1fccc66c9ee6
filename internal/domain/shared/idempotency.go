package shared

import (
	"context"
	"time"
)

// IdempotencyStore remembers which event keys were handled
type IdempotencyStore interface {
	// MarkProcessed claims key for ttl. It returns false when the key is
	// already claimed and not yet expired.
	MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error)
	IsProcessed(ctx context.Context, key string) (bool, error)
	// Forget releases a claim so the key can be handled again.
	Forget(ctx context.Context, key string) error
	Close() error
}

// IdempotencyConfig controls how long a handled key suppresses repeats
type IdempotencyConfig struct {
	TTL     time.Duration
	Enabled bool
}

// DefaultIdempotencyConfig keeps keys for a day
func DefaultIdempotencyConfig() IdempotencyConfig {
	return IdempotencyConfig{
		TTL:     24 * time.Hour,
		Enabled: true,
	}
}
