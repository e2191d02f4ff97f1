package metrics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-authgate/keygate/internal/cache"
	"github.com/go-authgate/keygate/internal/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
)

func TestCacheWrapper_CacheHit(t *testing.T) {
	ctx := context.Background()
	memCache := cache.NewMemoryCache[int64]()
	ctrl := gomock.NewController(t)
	// No expectations: any store call fails the test.
	mockStore := mocks.NewMockMetricsStore(ctrl)

	wrapper := NewCacheWrapper(mockStore, memCache)
	require.NoError(t, memCache.Set(ctx, keyActiveDevices, 42, time.Minute))

	count, err := wrapper.GetActiveDevicesCount(ctx, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(42), count)
}

func TestCacheWrapper_CacheMiss(t *testing.T) {
	ctx := context.Background()
	memCache := cache.NewMemoryCache[int64]()
	ctrl := gomock.NewController(t)
	mockStore := mocks.NewMockMetricsStore(ctrl)
	mockStore.EXPECT().CountActiveAssignments(gomock.Any()).Return(int64(7), nil).Times(1)

	wrapper := NewCacheWrapper(mockStore, memCache)

	for range 2 {
		count, err := wrapper.GetActiveAssignmentsCount(ctx, time.Minute)
		require.NoError(t, err)
		assert.Equal(t, int64(7), count)
	}

	cached, err := memCache.Get(ctx, keyActiveAssignments)
	require.NoError(t, err)
	assert.Equal(t, int64(7), cached)
}

func TestCacheWrapper_DBError(t *testing.T) {
	ctx := context.Background()
	memCache := cache.NewMemoryCache[int64]()
	ctrl := gomock.NewController(t)
	mockStore := mocks.NewMockMetricsStore(ctrl)
	boom := errors.New("database down")
	mockStore.EXPECT().CountActiveKeys(gomock.Any()).Return(int64(0), boom)

	wrapper := NewCacheWrapper(mockStore, memCache)

	_, err := wrapper.GetActiveKeysCount(ctx, time.Minute)
	assert.ErrorIs(t, err, boom)

	_, err = memCache.Get(ctx, keyActiveKeys)
	assert.ErrorIs(t, err, cache.ErrCacheMiss, "errors must not be cached")
}

func TestCacheWrapper_CacheExpiration(t *testing.T) {
	ctx := context.Background()
	memCache := cache.NewMemoryCache[int64]()
	ctrl := gomock.NewController(t)
	mockStore := mocks.NewMockMetricsStore(ctrl)
	gomock.InOrder(
		mockStore.EXPECT().CountActiveDevices(gomock.Any()).Return(int64(1), nil),
		mockStore.EXPECT().CountActiveDevices(gomock.Any()).Return(int64(2), nil),
	)

	wrapper := NewCacheWrapper(mockStore, memCache)

	count, err := wrapper.GetActiveDevicesCount(ctx, 20*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	time.Sleep(40 * time.Millisecond)

	count, err = wrapper.GetActiveDevicesCount(ctx, 20*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestGaugeUpdater_Update(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	mockStore := mocks.NewMockMetricsStore(ctrl)
	recorder := mocks.NewMockRecorder(ctrl)

	mockStore.EXPECT().CountActiveDevices(gomock.Any()).Return(int64(5), nil)
	mockStore.EXPECT().CountActiveAssignments(gomock.Any()).Return(int64(0), errors.New("timeout"))
	mockStore.EXPECT().CountActiveKeys(gomock.Any()).Return(int64(3), nil)

	recorder.EXPECT().SetActiveDevicesCount(5)
	recorder.EXPECT().RecordDatabaseQueryError("count_assignments")
	recorder.EXPECT().SetActiveKeysCount(3)
	// SetActiveAssignmentsCount must not be called.

	updater := NewGaugeUpdater(
		NewCacheWrapper(mockStore, cache.NewMemoryCache[int64]()),
		recorder,
		time.Minute,
		zap.NewNop(),
	)
	updater.Update(ctx)
}

func TestErrorLogger_RateLimits(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	e := newErrorLogger(5 * time.Minute)
	e.now = func() time.Time { return now }

	assert.True(t, e.shouldLog("count_keys"))
	assert.False(t, e.shouldLog("count_keys"))
	assert.True(t, e.shouldLog("count_devices"))

	now = now.Add(5 * time.Minute)
	assert.True(t, e.shouldLog("count_keys"))
}
