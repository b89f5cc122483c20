package ports

import (
	"context"

	"github.com/bnema/bandit-cli/internal/domain"
)

// CacheRepository is the durable backing of the expiring cache: one region
// per namespace, one record per key. Implementations return
// domain.ErrCacheMiss for absent keys and treat unreadable records as a miss
// for that key only.
type CacheRepository interface {
	Get(ctx context.Context, namespace, key string) (domain.CacheEntry, error)
	Put(ctx context.Context, namespace, key string, entry domain.CacheEntry) error
	Delete(ctx context.Context, namespace, key string) error
	Purge(ctx context.Context, namespace string) error
}
