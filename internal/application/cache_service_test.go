package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/bnema/bandit-cli/internal/adapters/cache/filecache"
	"github.com/bnema/bandit-cli/internal/domain"
	"github.com/bnema/bandit-cli/internal/offline"
)

type movableClock struct {
	now time.Time
}

func (c *movableClock) Now() time.Time { return c.now }

func (c *movableClock) advance(d time.Duration) { c.now = c.now.Add(d) }

func newCacheService(t *testing.T) (*CacheService, *movableClock, *offline.Controller) {
	t.Helper()
	clock := &movableClock{now: time.Date(2026, 8, 20, 8, 0, 0, 0, time.UTC)}
	controller := offline.NewController()
	service := NewCacheService(filecache.NewStore(t.TempDir()), controller, clock, zap.NewNop())
	return service, clock, controller
}

func TestCacheSetThenGetBeforeTTL(t *testing.T) {
	t.Parallel()

	service, clock, _ := newCacheService(t)

	require.NoError(t, service.Set(context.Background(), "hints", "k", "v", 60*time.Second))

	clock.advance(59 * time.Second)
	value, err := service.Get(context.Background(), "hints", "k")
	require.NoError(t, err)
	assert.Equal(t, "v", value)
}

func TestCacheGetAfterTTLIsMiss(t *testing.T) {
	t.Parallel()

	service, clock, _ := newCacheService(t)

	require.NoError(t, service.Set(context.Background(), "hints", "k", "v", 60*time.Second))

	clock.advance(60 * time.Second)
	_, err := service.Get(context.Background(), "hints", "k")
	require.ErrorIs(t, err, domain.ErrCacheMiss)

	// The expired entry is purged lazily; a later read is still a miss.
	_, err = service.Get(context.Background(), "hints", "k")
	require.ErrorIs(t, err, domain.ErrCacheMiss)
}

func TestCacheSetRejectsNonPositiveTTL(t *testing.T) {
	t.Parallel()

	service, _, _ := newCacheService(t)

	require.Error(t, service.Set(context.Background(), "hints", "k", "v", 0))
	require.Error(t, service.Set(context.Background(), "hints", "k", "v", -time.Second))
}

func TestFetchOrComputeHitSkipsProducer(t *testing.T) {
	t.Parallel()

	service, _, _ := newCacheService(t)
	require.NoError(t, service.Set(context.Background(), "hints", "k", "cached", time.Hour))

	calls := 0
	value, err := service.FetchOrCompute(context.Background(), "hints", "k", time.Hour, func(context.Context) (string, error) {
		calls++
		return "produced", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "cached", value)
	assert.Zero(t, calls)
}

func TestFetchOrComputeMissInvokesProducerAndStores(t *testing.T) {
	t.Parallel()

	service, _, _ := newCacheService(t)

	calls := 0
	value, err := service.FetchOrCompute(context.Background(), "hints", "k", time.Hour, func(context.Context) (string, error) {
		calls++
		return "produced", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "produced", value)
	assert.Equal(t, 1, calls)

	// Second lookup is served from the cache.
	value, err = service.FetchOrCompute(context.Background(), "hints", "k", time.Hour, func(context.Context) (string, error) {
		calls++
		return "produced again", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "produced", value)
	assert.Equal(t, 1, calls)
}

func TestFetchOrComputeOfflineMissNeverInvokesProducer(t *testing.T) {
	t.Parallel()

	service, _, controller := newCacheService(t)
	controller.SetOffline(true)

	calls := 0
	_, err := service.FetchOrCompute(context.Background(), "hints", "k", time.Hour, func(context.Context) (string, error) {
		calls++
		return "produced", nil
	})
	require.ErrorIs(t, err, domain.ErrUnavailable)
	assert.Zero(t, calls)
}

func TestFetchOrComputeOfflineHitStillServes(t *testing.T) {
	t.Parallel()

	service, _, controller := newCacheService(t)
	require.NoError(t, service.Set(context.Background(), "hints", "k", "cached", time.Hour))
	controller.SetOffline(true)

	value, err := service.FetchOrCompute(context.Background(), "hints", "k", time.Hour, func(context.Context) (string, error) {
		t.Fatal("producer must not run")
		return "", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "cached", value)
}

func TestFetchOrComputeProducerErrorPropagates(t *testing.T) {
	t.Parallel()

	service, _, _ := newCacheService(t)

	computeErr := errors.New("mentor unreachable")
	_, err := service.FetchOrCompute(context.Background(), "hints", "k", time.Hour, func(context.Context) (string, error) {
		return "", computeErr
	})
	require.ErrorIs(t, err, computeErr)

	// The failure is not cached.
	_, err = service.Get(context.Background(), "hints", "k")
	require.ErrorIs(t, err, domain.ErrCacheMiss)
}

func TestInvalidateAndPurge(t *testing.T) {
	t.Parallel()

	service, _, _ := newCacheService(t)

	require.NoError(t, service.Set(context.Background(), "hints", "a", "1", time.Hour))
	require.NoError(t, service.Set(context.Background(), "hints", "b", "2", time.Hour))
	require.NoError(t, service.Set(context.Background(), "levels", "c", "3", time.Hour))

	require.NoError(t, service.Invalidate(context.Background(), "hints", "a"))
	_, err := service.Get(context.Background(), "hints", "a")
	require.ErrorIs(t, err, domain.ErrCacheMiss)

	require.NoError(t, service.PurgeNamespace(context.Background(), "hints"))
	_, err = service.Get(context.Background(), "hints", "b")
	require.ErrorIs(t, err, domain.ErrCacheMiss)

	value, err := service.Get(context.Background(), "levels", "c")
	require.NoError(t, err)
	assert.Equal(t, "3", value)
}
