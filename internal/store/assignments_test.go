package store

import (
	"context"
	"testing"
	"time"

	"github.com/go-authgate/keygate/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testAssignmentOperations(t *testing.T, newStore storeFactory) {
	ctx := context.Background()

	t.Run("CreateAndLookup", func(t *testing.T) {
		store := newStore(t)
		user, key, a := createAssignedKey(t, store, 1)

		assert.NotEmpty(t, a.ID)
		assert.Equal(t, models.AssignmentActive, a.Status)

		got, err := store.GetAssignment(ctx, key.ID, user.ID, "")
		require.NoError(t, err)
		assert.Equal(t, a.ID, got.ID)

		_, err = store.GetAssignment(ctx, key.ID, user.ID, models.AssignmentRevoked)
		assert.ErrorIs(t, err, ErrRecordNotFound)

		_, err = store.GetAssignment(ctx, key.ID, "someone-else", models.AssignmentActive)
		assert.ErrorIs(t, err, ErrRecordNotFound)

		active, err := store.ListActiveAssignmentsForUser(ctx, user.ID)
		require.NoError(t, err)
		require.Len(t, active, 1)
		assert.Equal(t, a.ID, active[0].ID)
	})

	t.Run("ActiveAssignmentsNewestFirst", func(t *testing.T) {
		store := newStore(t)
		user := createTestUser(t, store, "carol")
		assign := func(assignedAt time.Time) *models.KeyAssignment {
			a := &models.KeyAssignment{
				UserID:     user.ID,
				KeyID:      createTestKey(t, store, 1).ID,
				AssignedAt: assignedAt,
			}
			require.NoError(t, store.CreateAssignment(ctx, a))
			return a
		}
		now := time.Now()
		oldest := assign(now.Add(-2 * time.Hour))
		expired := now.Add(-time.Hour)
		newest := assign(now)
		_, err := store.UpdateAssignment(ctx, newest.ID, AssignmentUpdate{ExpiresAt: &expired})
		require.NoError(t, err)
		revoked := assign(now.Add(-time.Hour))
		_, err = store.RevokeAssignment(ctx, revoked.ID, "admin", now)
		require.NoError(t, err)

		active, err := store.ListActiveAssignmentsForUser(ctx, user.ID)
		require.NoError(t, err)
		require.Len(t, active, 2)
		assert.Equal(t, newest.ID, active[0].ID)
		assert.Equal(t, oldest.ID, active[1].ID)

		none, err := store.ListActiveAssignmentsForUser(ctx, "nobody")
		require.NoError(t, err)
		assert.Empty(t, none)
	})

	t.Run("KeyAssignedOnlyOnce", func(t *testing.T) {
		store := newStore(t)
		_, key, a := createAssignedKey(t, store, 1)
		other := createTestUser(t, store, "other")

		err := store.CreateAssignment(ctx, &models.KeyAssignment{
			UserID:     other.ID,
			KeyID:      key.ID,
			AssignedAt: time.Now(),
		})
		assert.ErrorIs(t, err, ErrDuplicateKeyAssignment)

		// Still rejected after the first assignment is revoked.
		_, err = store.RevokeAssignment(ctx, a.ID, "admin", time.Now())
		require.NoError(t, err)
		err = store.CreateAssignment(ctx, &models.KeyAssignment{
			UserID:     other.ID,
			KeyID:      key.ID,
			AssignedAt: time.Now(),
		})
		assert.ErrorIs(t, err, ErrDuplicateKeyAssignment)
	})

	t.Run("AssignMissingKey", func(t *testing.T) {
		store := newStore(t)
		user := createTestUser(t, store, "bob")
		err := store.CreateAssignment(ctx, &models.KeyAssignment{
			UserID:     user.ID,
			KeyID:      "missing",
			AssignedAt: time.Now(),
		})
		assert.ErrorIs(t, err, ErrRecordNotFound)
	})

	t.Run("UpdateAssignment", func(t *testing.T) {
		store := newStore(t)
		_, _, a := createAssignedKey(t, store, 1)

		expiry := time.Now().Add(24 * time.Hour)
		notes := "contractor"
		updated, err := store.UpdateAssignment(ctx, a.ID, AssignmentUpdate{
			ExpiresAt: &expiry,
			Notes:     &notes,
			Metadata:  &models.AssignmentMetadata{Department: "eng", Extra: map[string]string{"ticket": "OPS-1"}},
		})
		require.NoError(t, err)
		require.NotNil(t, updated.ExpiresAt)
		assert.WithinDuration(t, expiry, *updated.ExpiresAt, time.Second)
		assert.Equal(t, "contractor", updated.Notes)
		assert.Equal(t, "eng", updated.Metadata.Department)
		assert.Equal(t, "OPS-1", updated.Metadata.Extra["ticket"])

		cleared, err := store.UpdateAssignment(ctx, a.ID, AssignmentUpdate{ClearExpiry: true})
		require.NoError(t, err)
		assert.Nil(t, cleared.ExpiresAt)

		_, err = store.UpdateAssignment(ctx, "missing", AssignmentUpdate{Notes: &notes})
		assert.ErrorIs(t, err, ErrRecordNotFound)
	})

	t.Run("RevokeAndDelete", func(t *testing.T) {
		store := newStore(t)
		_, _, a := createAssignedKey(t, store, 1)

		revoked, err := store.RevokeAssignment(ctx, a.ID, "admin-id", time.Now())
		require.NoError(t, err)
		assert.Equal(t, models.AssignmentRevoked, revoked.Status)
		assert.Equal(t, "admin-id", revoked.RevokedBy)
		assert.NotNil(t, revoked.RevokedAt)

		count, err := store.CountActiveAssignments(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(0), count)

		require.NoError(t, store.DeleteAssignment(ctx, a.ID))
		_, err = store.GetAssignmentByID(ctx, a.ID)
		assert.ErrorIs(t, err, ErrRecordNotFound)
		assert.ErrorIs(t, store.DeleteAssignment(ctx, a.ID), ErrRecordNotFound)
	})

	t.Run("MarkExpiredOnce", func(t *testing.T) {
		store := newStore(t)
		_, _, a := createAssignedKey(t, store, 1)

		changed, err := store.MarkAssignmentExpired(ctx, a.ID)
		require.NoError(t, err)
		assert.True(t, changed)

		changed, err = store.MarkAssignmentExpired(ctx, a.ID)
		require.NoError(t, err)
		assert.False(t, changed)

		got, err := store.GetAssignmentByID(ctx, a.ID)
		require.NoError(t, err)
		assert.Equal(t, models.AssignmentExpired, got.Status)
	})

	t.Run("ListAssignments", func(t *testing.T) {
		store := newStore(t)
		user, _, _ := createAssignedKey(t, store, 1)
		createAssignedKey(t, store, 1)
		_, _, revoked := createAssignedKey(t, store, 1)
		_, err := store.RevokeAssignment(ctx, revoked.ID, "admin", time.Now())
		require.NoError(t, err)

		all, page, err := store.ListAssignments(ctx, NewPaginationParams(1, 10, ""), AssignmentFilters{})
		require.NoError(t, err)
		assert.Len(t, all, 3)
		assert.Equal(t, int64(3), page.Total)

		byUser, _, err := store.ListAssignments(ctx, NewPaginationParams(1, 10, ""), AssignmentFilters{UserID: user.ID})
		require.NoError(t, err)
		assert.Len(t, byUser, 1)

		active, _, err := store.ListAssignments(
			ctx,
			NewPaginationParams(1, 10, ""),
			AssignmentFilters{Status: models.AssignmentActive},
		)
		require.NoError(t, err)
		assert.Len(t, active, 2)
	})
}
