package store

import (
	"context"
	"testing"
	"time"

	"github.com/go-authgate/keygate/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCredentialOperations(t *testing.T, newStore storeFactory) {
	ctx := context.Background()

	t.Run("ScopedToOwner", func(t *testing.T) {
		store := newStore(t)
		alice := createTestUser(t, store, "alice")
		bob := createTestUser(t, store, "bob")

		cred := &models.Credential{
			UserID:   alice.ID,
			Title:    "GitHub",
			Username: "alice",
			Password: "s3cret",
			URL:      "https://github.com",
		}
		require.NoError(t, store.CreateCredential(ctx, cred))

		got, err := store.GetCredential(ctx, alice.ID, cred.ID)
		require.NoError(t, err)
		assert.Equal(t, "s3cret", got.Password)

		_, err = store.GetCredential(ctx, bob.ID, cred.ID)
		assert.ErrorIs(t, err, ErrRecordNotFound)

		bobs, err := store.ListCredentials(ctx, bob.ID, "")
		require.NoError(t, err)
		assert.Empty(t, bobs)

		stolen := *cred
		stolen.UserID = bob.ID
		stolen.Password = "pwned"
		assert.ErrorIs(t, store.UpdateCredential(ctx, &stolen), ErrRecordNotFound)
		assert.ErrorIs(t, store.DeleteCredential(ctx, bob.ID, cred.ID), ErrRecordNotFound)

		got, err = store.GetCredential(ctx, alice.ID, cred.ID)
		require.NoError(t, err)
		assert.Equal(t, "s3cret", got.Password)
	})

	t.Run("UpdateAndDelete", func(t *testing.T) {
		store := newStore(t)
		user := createTestUser(t, store, "carol")
		cred := &models.Credential{UserID: user.ID, Title: "Mail", Password: "one"}
		require.NoError(t, store.CreateCredential(ctx, cred))

		cred.Password = "two"
		cred.Notes = "rotated"
		require.NoError(t, store.UpdateCredential(ctx, cred))

		got, err := store.GetCredential(ctx, user.ID, cred.ID)
		require.NoError(t, err)
		assert.Equal(t, "two", got.Password)
		assert.Equal(t, "rotated", got.Notes)

		require.NoError(t, store.DeleteCredential(ctx, user.ID, cred.ID))
		_, err = store.GetCredential(ctx, user.ID, cred.ID)
		assert.ErrorIs(t, err, ErrRecordNotFound)
	})

	t.Run("BulkCreateAndSearch", func(t *testing.T) {
		store := newStore(t)
		user := createTestUser(t, store, "dave")

		creds := []*models.Credential{
			{UserID: user.ID, Title: "GitLab", Username: "dave", URL: "https://gitlab.com"},
			{UserID: user.ID, Title: "Bank", Username: "d.smith", URL: "https://bank.example.com"},
			{UserID: user.ID, Title: "VPN", Username: "dave", URL: "vpn.corp"},
		}
		require.NoError(t, store.CreateCredentials(ctx, creds))
		for _, c := range creds {
			assert.NotEmpty(t, c.ID)
		}

		all, err := store.ListCredentials(ctx, user.ID, "")
		require.NoError(t, err)
		assert.Len(t, all, 3)

		found, err := store.ListCredentials(ctx, user.ID, "Bank")
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.Equal(t, "Bank", found[0].Title)

		require.NoError(t, store.CreateCredentials(ctx, nil))
	})

	t.Run("BulkCreateIsAtomic", func(t *testing.T) {
		store := newStore(t)
		user := createTestUser(t, store, "erin")
		dupID := uuid.New().String()

		err := store.CreateCredentials(ctx, []*models.Credential{
			{ID: dupID, UserID: user.ID, Title: "one"},
			{ID: dupID, UserID: user.ID, Title: "two"},
		})
		require.Error(t, err)

		all, err := store.ListCredentials(ctx, user.ID, "")
		require.NoError(t, err)
		assert.Empty(t, all)
	})
}

func testAuditOperations(t *testing.T, newStore storeFactory) {
	ctx := context.Background()

	newLog := func(event models.EventType, actor string, success bool, at time.Time) *models.AuditLog {
		return &models.AuditLog{
			ID:            uuid.New().String(),
			EventType:     event,
			EventTime:     at,
			Severity:      models.SeverityInfo,
			ActorUserID:   actor,
			ActorUsername: actor,
			ResourceType:  models.ResourceDevice,
			Action:        string(event),
			Details:       models.AuditDetails{"device_id": "devA"},
			Success:       success,
			CreatedAt:     at,
		}
	}

	t.Run("BatchAndFilter", func(t *testing.T) {
		store := newStore(t)
		now := time.Now()

		require.NoError(t, store.CreateAuditLogBatch(ctx, []*models.AuditLog{
			newLog(models.EventDeviceActivated, "u1", true, now.Add(-2*time.Minute)),
			newLog(models.EventActivationDenied, "u1", false, now.Add(-time.Minute)),
			newLog(models.EventDeviceRevoked, "admin", true, now),
		}))
		require.NoError(t, store.CreateAuditLog(ctx, newLog(models.EventLogout, "u2", true, now)))

		logs, page, err := store.GetAuditLogsPaginated(ctx, NewPaginationParams(1, 10, ""), AuditLogFilters{})
		require.NoError(t, err)
		assert.Len(t, logs, 4)
		assert.Equal(t, int64(4), page.Total)

		failed := false
		denied, _, err := store.GetAuditLogsPaginated(
			ctx,
			NewPaginationParams(1, 10, ""),
			AuditLogFilters{Success: &failed},
		)
		require.NoError(t, err)
		require.Len(t, denied, 1)
		assert.Equal(t, models.EventActivationDenied, denied[0].EventType)
		assert.Equal(t, "devA", denied[0].Details["device_id"])

		byActor, _, err := store.GetAuditLogsPaginated(
			ctx,
			NewPaginationParams(1, 10, ""),
			AuditLogFilters{ActorUserID: "u1", EventType: models.EventDeviceActivated},
		)
		require.NoError(t, err)
		assert.Len(t, byActor, 1)
	})

	t.Run("DeleteOld", func(t *testing.T) {
		store := newStore(t)
		now := time.Now()

		require.NoError(t, store.CreateAuditLogBatch(ctx, []*models.AuditLog{
			newLog(models.EventLogout, "u1", true, now.Add(-100*24*time.Hour)),
			newLog(models.EventLogout, "u1", true, now),
		}))

		deleted, err := store.DeleteOldAuditLogs(ctx, now.Add(-90*24*time.Hour))
		require.NoError(t, err)
		assert.Equal(t, int64(1), deleted)
	})
}
