package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/go-authgate/keygate/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bindParams(key *models.ActivationKey, a *models.KeyAssignment, deviceID string) BindParams {
	return BindParams{
		KeyID:        key.ID,
		AssignmentID: a.ID,
		UserID:       a.UserID,
		DeviceID:     deviceID,
		DeviceInfo:   models.DeviceInfo{UserAgent: "test-agent", Platform: "linux"},
		Now:          time.Now(),
	}
}

func testKeyOperations(t *testing.T, newStore storeFactory) {
	ctx := context.Background()

	t.Run("CreateAndGet", func(t *testing.T) {
		store := newStore(t)
		key := createTestKey(t, store, 3)

		byValue, err := store.GetKeyByValue(ctx, key.Key)
		require.NoError(t, err)
		assert.Equal(t, key.ID, byValue.ID)
		assert.Equal(t, 3, byValue.DeviceLimit)
		assert.True(t, byValue.IsActive)
		assert.Empty(t, byValue.Devices)

		byID, err := store.GetKeyByID(ctx, key.ID)
		require.NoError(t, err)
		assert.Equal(t, key.Key, byID.Key)

		_, err = store.GetKeyByValue(ctx, "KEY_missing")
		assert.ErrorIs(t, err, ErrRecordNotFound)
	})

	t.Run("DuplicateKeyValue", func(t *testing.T) {
		store := newStore(t)
		key := createTestKey(t, store, 1)

		err := store.CreateKey(ctx, &models.ActivationKey{Key: key.Key, DeviceLimit: 1, IsActive: true})
		assert.ErrorIs(t, err, ErrKeyExists)
	})

	t.Run("SetKeyActive", func(t *testing.T) {
		store := newStore(t)
		key := createTestKey(t, store, 1)

		updated, err := store.SetKeyActive(ctx, key.ID, false)
		require.NoError(t, err)
		assert.False(t, updated.IsActive)

		count, err := store.CountActiveKeys(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(0), count)

		_, err = store.SetKeyActive(ctx, "missing", true)
		assert.ErrorIs(t, err, ErrRecordNotFound)
	})

	t.Run("ListKeys", func(t *testing.T) {
		store := newStore(t)
		for range 3 {
			createTestKey(t, store, 1)
		}

		keys, page, err := store.ListKeys(ctx, NewPaginationParams(1, 2, ""))
		require.NoError(t, err)
		assert.Len(t, keys, 2)
		assert.Equal(t, int64(3), page.Total)
		assert.Equal(t, 2, page.TotalPages)
		assert.True(t, page.HasNext)
	})

	t.Run("DeleteKey", func(t *testing.T) {
		store := newStore(t)
		free := createTestKey(t, store, 1)
		_, assigned, _ := createAssignedKey(t, store, 1)

		require.NoError(t, store.DeleteKey(ctx, free.ID))
		_, err := store.GetKeyByID(ctx, free.ID)
		assert.ErrorIs(t, err, ErrRecordNotFound)

		assert.ErrorIs(t, store.DeleteKey(ctx, assigned.ID), ErrKeyAssigned)
		assert.ErrorIs(t, store.DeleteKey(ctx, "missing"), ErrRecordNotFound)
	})

	t.Run("DevicePrimitives", func(t *testing.T) {
		store := newStore(t)
		user, key, a := createAssignedKey(t, store, 2)
		now := time.Now()

		device := &models.Device{
			DeviceID:     "devA",
			AssignmentID: a.ID,
			UserID:       user.ID,
			RegisteredAt: now,
			LastActiveAt: now,
			IsActive:     true,
		}
		require.NoError(t, store.AppendDevice(ctx, key.ID, device))
		require.NoError(t, store.IncrementUsedDevices(ctx, key.ID))

		loaded, err := store.GetKeyByID(ctx, key.ID)
		require.NoError(t, err)
		require.Len(t, loaded.Devices, 1)
		assert.Equal(t, 1, loaded.UsedDevices)
		assert.Equal(t, int64(2), loaded.Version)

		require.NoError(t, store.SetDeviceActive(ctx, key.ID, "devA", a.ID, false, now))
		loaded, err = store.GetKeyByID(ctx, key.ID)
		require.NoError(t, err)
		assert.False(t, loaded.Devices[0].IsActive)
		assert.NotNil(t, loaded.Devices[0].RevokedAt)

		err = store.SetDeviceActive(ctx, key.ID, "devB", a.ID, true, now)
		assert.ErrorIs(t, err, ErrRecordNotFound)
	})
}

func testBindingOperations(t *testing.T, newStore storeFactory) {
	ctx := context.Background()

	t.Run("BindUpToLimit", func(t *testing.T) {
		store := newStore(t)
		_, key, a := createAssignedKey(t, store, 2)

		first, err := store.BindDevice(ctx, bindParams(key, a, "devA"))
		require.NoError(t, err)
		assert.True(t, first.NewlyBound)
		assert.Equal(t, 1, first.ActiveCount)
		assert.Equal(t, 2, first.Limit)

		second, err := store.BindDevice(ctx, bindParams(key, a, "devB"))
		require.NoError(t, err)
		assert.Equal(t, 2, second.ActiveCount)

		_, err = store.BindDevice(ctx, bindParams(key, a, "devC"))
		assert.ErrorIs(t, err, ErrDeviceLimitReached)

		loaded, err := store.GetKeyByID(ctx, key.ID)
		require.NoError(t, err)
		assert.Len(t, loaded.Devices, 2)
		assert.Equal(t, 2, loaded.UsedDevices)
		assert.Equal(t, "test-agent", loaded.Devices[0].DeviceInfo.UserAgent)

		assignment, err := store.GetAssignmentByID(ctx, a.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, assignment.DeviceCount)
		assert.NotNil(t, assignment.LastUsedAt)
	})

	t.Run("RebindActiveDeviceAtCapacity", func(t *testing.T) {
		store := newStore(t)
		_, key, a := createAssignedKey(t, store, 1)

		_, err := store.BindDevice(ctx, bindParams(key, a, "devA"))
		require.NoError(t, err)

		again, err := store.BindDevice(ctx, bindParams(key, a, "devA"))
		require.NoError(t, err)
		assert.False(t, again.NewlyBound)
		assert.False(t, again.Reactivated)
		assert.Equal(t, 1, again.ActiveCount)

		loaded, err := store.GetKeyByID(ctx, key.ID)
		require.NoError(t, err)
		assert.Len(t, loaded.Devices, 1)
		assert.Equal(t, 1, loaded.UsedDevices)

		assignment, err := store.GetAssignmentByID(ctx, a.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, assignment.DeviceCount)
	})

	t.Run("RevokeThenRebind", func(t *testing.T) {
		store := newStore(t)
		_, key, a := createAssignedKey(t, store, 1)

		_, err := store.BindDevice(ctx, bindParams(key, a, "devA"))
		require.NoError(t, err)

		revoked, err := store.RevokeDevice(ctx, key.ID, "devA", a.ID, time.Now())
		require.NoError(t, err)
		assert.False(t, revoked.IsActive)
		assert.NotNil(t, revoked.RevokedAt)

		// Revoking twice must not decrement twice.
		_, err = store.RevokeDevice(ctx, key.ID, "devA", a.ID, time.Now())
		require.NoError(t, err)

		assignment, err := store.GetAssignmentByID(ctx, a.ID)
		require.NoError(t, err)
		assert.Equal(t, 0, assignment.DeviceCount)

		// The freed slot can go to a different device.
		_, err = store.BindDevice(ctx, bindParams(key, a, "devB"))
		require.NoError(t, err)

		// The revoked device now re-checks the limit.
		_, err = store.BindDevice(ctx, bindParams(key, a, "devA"))
		assert.ErrorIs(t, err, ErrDeviceLimitReached)

		_, err = store.RevokeDevice(ctx, key.ID, "devB", a.ID, time.Now())
		require.NoError(t, err)

		back, err := store.BindDevice(ctx, bindParams(key, a, "devA"))
		require.NoError(t, err)
		assert.True(t, back.Reactivated)
		assert.False(t, back.NewlyBound)
		assert.Nil(t, back.Device.RevokedAt)

		loaded, err := store.GetKeyByID(ctx, key.ID)
		require.NoError(t, err)
		assert.Len(t, loaded.Devices, 2)
		assert.Equal(t, 2, loaded.UsedDevices, "reactivation does not count as a new device")

		assignment, err = store.GetAssignmentByID(ctx, a.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, assignment.DeviceCount)
	})

	t.Run("RevokeByID", func(t *testing.T) {
		store := newStore(t)
		_, key, a := createAssignedKey(t, store, 2)

		bound, err := store.BindDevice(ctx, bindParams(key, a, "devA"))
		require.NoError(t, err)

		revoked, err := store.RevokeDeviceByID(ctx, bound.Device.ID, time.Now())
		require.NoError(t, err)
		assert.Equal(t, "devA", revoked.DeviceID)
		assert.False(t, revoked.IsActive)

		_, err = store.RevokeDeviceByID(ctx, "missing", time.Now())
		assert.ErrorIs(t, err, ErrRecordNotFound)

		count, err := store.CountActiveDevices(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(0), count)
	})

	t.Run("DeviceCountFloor", func(t *testing.T) {
		store := newStore(t)
		_, key, a := createAssignedKey(t, store, 2)

		_, err := store.BindDevice(ctx, bindParams(key, a, "devA"))
		require.NoError(t, err)
		require.NoError(t, store.DB().Model(&models.KeyAssignment{}).
			Where("id = ?", a.ID).
			Update("device_count", 0).Error)

		_, err = store.RevokeDevice(ctx, key.ID, "devA", a.ID, time.Now())
		require.NoError(t, err)

		assignment, err := store.GetAssignmentByID(ctx, a.ID)
		require.NoError(t, err)
		assert.Equal(t, 0, assignment.DeviceCount)
	})

	t.Run("ConcurrentBindsNeverExceedLimit", func(t *testing.T) {
		store := newStore(t)
		_, key, a := createAssignedKey(t, store, 3)

		const attempts = 8
		var (
			wg        sync.WaitGroup
			mu        sync.Mutex
			succeeded int
		)
		for i := range attempts {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, err := store.BindDevice(ctx, bindParams(key, a, fmt.Sprintf("dev-%d", i)))
				if err == nil {
					mu.Lock()
					succeeded++
					mu.Unlock()
					return
				}
				if !errors.Is(err, ErrDeviceLimitReached) && !errors.Is(err, ErrConcurrentUpdate) {
					t.Errorf("unexpected bind error: %v", err)
				}
			}(i)
		}
		wg.Wait()

		loaded, err := store.GetKeyByID(ctx, key.ID)
		require.NoError(t, err)
		active := loaded.ActiveDevicesFor(a.ID)
		assert.LessOrEqual(t, len(active), 3)
		assert.Equal(t, succeeded, len(active))
		assert.Equal(t, succeeded, loaded.UsedDevices)
	})

	t.Run("LimitIsPerAssignment", func(t *testing.T) {
		store := newStore(t)
		user, key, a := createAssignedKey(t, store, 1)

		_, err := store.BindDevice(ctx, bindParams(key, a, "devA"))
		require.NoError(t, err)

		// Simulate a historical binding under an older assignment.
		old := bindParams(key, a, "devOld")
		old.AssignmentID = "old-assignment"
		old.UserID = user.ID
		_, err = store.BindDevice(ctx, old)
		require.NoError(t, err)

		loaded, err := store.GetKeyByID(ctx, key.ID)
		require.NoError(t, err)
		assert.Len(t, loaded.ActiveDevicesFor(a.ID), 1)
		assert.Len(t, loaded.ActiveDevicesFor("old-assignment"), 1)
	})

	t.Run("TouchDevice", func(t *testing.T) {
		store := newStore(t)
		_, key, a := createAssignedKey(t, store, 1)

		_, err := store.BindDevice(ctx, bindParams(key, a, "devA"))
		require.NoError(t, err)

		later := time.Now().Add(time.Hour)
		require.NoError(t, store.TouchDevice(ctx, key.ID, "devA", a.ID, later))

		loaded, err := store.GetKeyByID(ctx, key.ID)
		require.NoError(t, err)
		assert.WithinDuration(t, later, loaded.Devices[0].LastActiveAt, time.Second)

		assignment, err := store.GetAssignmentByID(ctx, a.ID)
		require.NoError(t, err)
		require.NotNil(t, assignment.LastUsedAt)
		assert.WithinDuration(t, later, *assignment.LastUsedAt, time.Second)

		err = store.TouchDevice(ctx, key.ID, "devZ", a.ID, later)
		assert.ErrorIs(t, err, ErrRecordNotFound)

		_, err = store.RevokeDevice(ctx, key.ID, "devA", a.ID, later)
		require.NoError(t, err)
		err = store.TouchDevice(ctx, key.ID, "devA", a.ID, later)
		assert.ErrorIs(t, err, ErrRecordNotFound)
	})

	t.Run("BindMissingKey", func(t *testing.T) {
		store := newStore(t)
		_, err := store.BindDevice(ctx, BindParams{KeyID: "missing", AssignmentID: "a", DeviceID: "d", Now: time.Now()})
		assert.ErrorIs(t, err, ErrRecordNotFound)
	})
}
