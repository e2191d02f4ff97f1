package metrics

import (
	"context"
	"time"

	"github.com/go-authgate/keygate/internal/core"
)

// Gauge cache keys.
const (
	keyActiveDevices     = "gauge:devices:active"
	keyActiveAssignments = "gauge:assignments:active"
	keyActiveKeys        = "gauge:keys:active"
)

// CacheWrapper is a read-through cache in front of the gauge count queries,
// so that several instances sharing a Redis cache do not all hit the
// database on every tick.
type CacheWrapper struct {
	store core.MetricsStore
	cache core.Cache[int64]
}

func NewCacheWrapper(store core.MetricsStore, cache core.Cache[int64]) *CacheWrapper {
	return &CacheWrapper{
		store: store,
		cache: cache,
	}
}

func (m *CacheWrapper) GetActiveDevicesCount(ctx context.Context, ttl time.Duration) (int64, error) {
	return m.getCountWithCache(ctx, keyActiveDevices, ttl, m.store.CountActiveDevices)
}

func (m *CacheWrapper) GetActiveAssignmentsCount(ctx context.Context, ttl time.Duration) (int64, error) {
	return m.getCountWithCache(ctx, keyActiveAssignments, ttl, m.store.CountActiveAssignments)
}

func (m *CacheWrapper) GetActiveKeysCount(ctx context.Context, ttl time.Duration) (int64, error) {
	return m.getCountWithCache(ctx, keyActiveKeys, ttl, m.store.CountActiveKeys)
}

func (m *CacheWrapper) getCountWithCache(
	ctx context.Context,
	key string,
	ttl time.Duration,
	count func(ctx context.Context) (int64, error),
) (int64, error) {
	return m.cache.GetWithFetch(
		ctx,
		key,
		ttl,
		func(ctx context.Context, _ string) (int64, error) {
			return count(ctx)
		},
	)
}
