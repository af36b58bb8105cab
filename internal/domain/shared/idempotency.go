package shared

import (
	"context"
	"time"
)

// IdempotencyStore remembers keys of requests that were already accepted
type IdempotencyStore interface {
	// MarkProcessed claims key for ttl; false means another request holds it
	MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error)
	IsProcessed(ctx context.Context, key string) (bool, error)
	// Release frees a claimed key so a failed request can be retried
	Release(ctx context.Context, key string) error
	Close() error
}
