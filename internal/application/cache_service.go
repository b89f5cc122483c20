package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/bnema/bandit-cli/internal/domain"
	"github.com/bnema/bandit-cli/internal/offline"
	"github.com/bnema/bandit-cli/internal/ports"
)

// Producer computes the value for a cache key on a genuine miss. It stands
// in for the external lookup capability (mentor, reference data).
type Producer func(ctx context.Context) (string, error)

// CacheService fronts external lookups with the durable expiring cache. An
// expired entry is a miss; callers cannot tell "never cached" from
// "expired", and both take the same fallback path.
type CacheService struct {
	repo    ports.CacheRepository
	offline *offline.Controller
	clock   ports.Clock
	logger  *zap.Logger
}

func NewCacheService(repo ports.CacheRepository, controller *offline.Controller, clock ports.Clock, logger *zap.Logger) *CacheService {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheService{repo: repo, offline: controller, clock: clock, logger: logger}
}

// Get returns the cached value or domain.ErrCacheMiss. Entries past their
// ttl are purged lazily, on the read that observes them.
func (c *CacheService) Get(ctx context.Context, namespace, key string) (string, error) {
	entry, err := c.repo.Get(ctx, namespace, key)
	if err != nil {
		if errors.Is(err, domain.ErrCacheMiss) {
			return "", domain.ErrCacheMiss
		}
		return "", fmt.Errorf("cache get %s/%s: %w", namespace, key, err)
	}

	if entry.Expired(c.clock.Now()) {
		if err := c.repo.Delete(ctx, namespace, key); err != nil {
			c.logger.Debug("purge expired cache entry", zap.String("namespace", namespace), zap.String("key", key), zap.Error(err))
		}
		return "", domain.ErrCacheMiss
	}

	return entry.Value, nil
}

// Set stores value under (namespace, key) with a per-entry ttl, overwriting
// any previous entry.
func (c *CacheService) Set(ctx context.Context, namespace, key, value string, ttl time.Duration) error {
	if ttl <= 0 {
		return fmt.Errorf("cache set %s/%s: ttl must be positive", namespace, key)
	}

	entry := domain.CacheEntry{Value: value, CreatedAt: c.clock.Now(), TTL: ttl}
	if err := c.repo.Put(ctx, namespace, key, entry); err != nil {
		return fmt.Errorf("cache set %s/%s: %w", namespace, key, err)
	}
	return nil
}

// FetchOrCompute returns the cached value on a hit. On a miss it consults
// the offline mode once: online, it invokes the producer, stores the result
// and returns it; offline, it returns domain.ErrUnavailable without ever
// calling the producer.
func (c *CacheService) FetchOrCompute(ctx context.Context, namespace, key string, ttl time.Duration, produce Producer) (string, error) {
	value, err := c.Get(ctx, namespace, key)
	if err == nil {
		return value, nil
	}
	if !errors.Is(err, domain.ErrCacheMiss) {
		return "", err
	}

	// One mode snapshot per lookup.
	if c.offline.IsOffline() {
		return "", domain.ErrUnavailable
	}

	produced, err := produce(ctx)
	if err != nil {
		return "", fmt.Errorf("compute %s/%s: %w", namespace, key, err)
	}

	if err := c.Set(ctx, namespace, key, produced, ttl); err != nil {
		// Failing to persist does not fail the lookup.
		c.logger.Warn("store computed cache entry", zap.String("namespace", namespace), zap.String("key", key), zap.Error(err))
	}
	return produced, nil
}

// Invalidate removes one entry.
func (c *CacheService) Invalidate(ctx context.Context, namespace, key string) error {
	if err := c.repo.Delete(ctx, namespace, key); err != nil {
		return fmt.Errorf("cache invalidate %s/%s: %w", namespace, key, err)
	}
	return nil
}

// PurgeNamespace clears a whole namespace.
func (c *CacheService) PurgeNamespace(ctx context.Context, namespace string) error {
	if err := c.repo.Purge(ctx, namespace); err != nil {
		return fmt.Errorf("cache purge %s: %w", namespace, err)
	}
	return nil
}
