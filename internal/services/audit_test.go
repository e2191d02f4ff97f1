package services

import (
	"context"
	"testing"
	"time"

	"github.com/go-authgate/keygate/internal/models"
	"github.com/go-authgate/keygate/internal/store"
	"github.com/go-authgate/keygate/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMaskSensitiveDetails(t *testing.T) {
	masked := maskSensitiveDetails(models.AuditDetails{
		"password":       "hunter2",
		"client_secret":  "abc",
		"session_token":  "eyJ...",
		"activation_key": "KEY_1767225600000_ABCDEFGH",
		"short_key":      "KEY_1",
		"device_id":      "devA",
	})

	assert.Equal(t, "***REDACTED***", masked["password"])
	assert.Equal(t, "***REDACTED***", masked["client_secret"])
	assert.Equal(t, "***REDACTED***", masked["session_token"])
	assert.Equal(t, "KEY_1767...EFGH", masked["activation_key"])
	assert.Equal(t, "KEY_1", masked["short_key"])
	assert.Equal(t, "devA", masked["device_id"])

	assert.Nil(t, maskSensitiveDetails(nil))
}

func TestAuditService_LogFlushesOnShutdown(t *testing.T) {
	s := setupTestStore(t)
	audit, flush := newFlushedAudit(t, s)

	ctx := util.SetActor(context.Background(), util.Actor{UserID: "admin-id", Username: "admin"})
	ctx = util.SetRequestMeta(ctx, util.RequestMeta{IP: "10.0.0.1", UserAgent: "curl", Path: "/api/x", Method: "POST"})

	for range 5 {
		audit.Log(ctx, AuditLogEntry{
			EventType:    models.EventKeyCreated,
			ResourceType: models.ResourceActivationKey,
			Action:       "Activation key created",
			Success:      true,
		})
	}
	flush()

	logs, page, err := audit.GetAuditLogs(context.Background(), store.NewPaginationParams(1, 10, ""),
		store.AuditLogFilters{})
	require.NoError(t, err)
	assert.Equal(t, int64(5), page.Total)
	require.Len(t, logs, 5)
	assert.Equal(t, "admin-id", logs[0].ActorUserID)
	assert.Equal(t, "admin", logs[0].ActorUsername)
	assert.Equal(t, "10.0.0.1", logs[0].ActorIP)
	assert.Equal(t, "/api/x", logs[0].RequestPath)
	assert.Equal(t, models.SeverityInfo, logs[0].Severity)
}

func TestAuditService_FailureDefaultsToWarning(t *testing.T) {
	s := setupTestStore(t)
	audit := NewAuditService(s, zap.NewNop(), true, 10)
	t.Cleanup(func() { _ = audit.Shutdown(context.Background()) })

	require.NoError(t, audit.LogSync(context.Background(), AuditLogEntry{
		EventType:    models.EventActivationDenied,
		ResourceType: models.ResourceDevice,
		Action:       "Device activation denied",
		Success:      false,
	}))

	logs, _, err := audit.GetAuditLogs(context.Background(), store.NewPaginationParams(1, 10, ""),
		store.AuditLogFilters{EventType: models.EventActivationDenied})
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, models.SeverityWarning, logs[0].Severity)
}

func TestAuditService_Disabled(t *testing.T) {
	s := setupTestStore(t)
	audit := newDisabledAudit(s)

	audit.Log(context.Background(), AuditLogEntry{EventType: models.EventKeyCreated})
	require.NoError(t, audit.LogSync(context.Background(), AuditLogEntry{EventType: models.EventKeyCreated}))
	require.NoError(t, audit.Shutdown(context.Background()))

	_, page, err := audit.GetAuditLogs(context.Background(), store.NewPaginationParams(1, 10, ""),
		store.AuditLogFilters{})
	require.NoError(t, err)
	assert.Zero(t, page.Total)
}

func TestAuditService_CleanupOldLogs(t *testing.T) {
	s := setupTestStore(t)
	audit := NewAuditService(s, zap.NewNop(), true, 10)
	t.Cleanup(func() { _ = audit.Shutdown(context.Background()) })
	ctx := context.Background()

	old := audit.buildLog(ctx, AuditLogEntry{EventType: models.EventKeyCreated, Success: true})
	old.EventTime = time.Now().Add(-100 * 24 * time.Hour)
	old.CreatedAt = old.EventTime
	require.NoError(t, s.CreateAuditLog(ctx, old))
	require.NoError(t, audit.LogSync(ctx, AuditLogEntry{EventType: models.EventKeyDeleted, Success: true}))

	deleted, err := audit.CleanupOldLogs(ctx, 90*24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	_, page, err := audit.GetAuditLogs(ctx, store.NewPaginationParams(1, 10, ""), store.AuditLogFilters{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Total)
}
