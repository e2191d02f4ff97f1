package services

import (
	"context"
	"testing"
	"time"

	"github.com/go-authgate/keygate/internal/access"
	"github.com/go-authgate/keygate/internal/mocks"
	"github.com/go-authgate/keygate/internal/models"
	"github.com/go-authgate/keygate/internal/store"
	"github.com/go-authgate/keygate/internal/token"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func activate(t *testing.T, env *testEnv, key *models.ActivationKey, userID, deviceID string) *Session {
	t.Helper()
	session, err := env.sessions.Activate(context.Background(), ActivateRequest{
		UserID:        userID,
		ActivationKey: key.Key,
		DeviceID:      deviceID,
		DeviceInfo:    models.DeviceInfo{Platform: "Web"},
	})
	require.NoError(t, err)
	return session
}

func TestActivate_IssuesToken(t *testing.T) {
	env := newTestEnv(t, nil)
	user := createTestUser(t, env.store, models.RoleUser)
	key := createTestKey(t, env.store, 2)
	a := createTestAssignment(t, env.store, key.ID, user.ID, nil)

	session := activate(t, env, key, user.ID, "devA")
	assert.NotEmpty(t, session.Token)
	assert.Equal(t, "devA", session.Device.DeviceID)

	claims, err := env.codec.Verify(session.Token)
	require.NoError(t, err)
	assert.True(t, claims.SameSubject(token.SessionClaims{
		DeviceID:      "devA",
		ActivationKey: key.Key,
		UserID:        user.ID,
		AssignmentID:  a.ID,
	}))
	assert.True(t, claims.SameSubject(session.Claims))
	assert.True(t, claims.ExpiresAt.Equal(session.ExpiresAt))
}

func TestActivate_Denied(t *testing.T) {
	env := newTestEnv(t, nil)
	user := createTestUser(t, env.store, models.RoleUser)
	key := createTestKey(t, env.store, 1)
	createTestAssignment(t, env.store, key.ID, user.ID, nil)
	activate(t, env, key, user.ID, "devA")

	session, err := env.sessions.Activate(context.Background(), ActivateRequest{
		UserID:        user.ID,
		ActivationKey: key.Key,
		DeviceID:      "devB",
	})
	assert.Nil(t, session)
	requireReason(t, err, access.ReasonDeviceLimitReached)
}

func TestLogin_Admin(t *testing.T) {
	env := newTestEnv(t, nil)
	admin := createTestUser(t, env.store, models.RoleAdmin)

	res, err := env.sessions.Login(context.Background(), LoginRequest{
		Username: admin.Username,
		Password: testPassword,
	})
	require.NoError(t, err)
	assert.Equal(t, LoginStatusAdmin, res.Status)
	assert.Nil(t, res.Session)
	assert.Equal(t, admin.ID, res.User.ID)
}

func TestLogin_WrongPassword(t *testing.T) {
	env := newTestEnv(t, nil)
	user := createTestUser(t, env.store, models.RoleUser)

	res, err := env.sessions.Login(context.Background(), LoginRequest{
		Username: user.Username,
		Password: "wrong-password",
	})
	assert.Nil(t, res)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogin_NotActivated(t *testing.T) {
	t.Run("no assignment", func(t *testing.T) {
		env := newTestEnv(t, nil)
		user := createTestUser(t, env.store, models.RoleUser)

		res, err := env.sessions.Login(context.Background(), LoginRequest{
			Username: user.Username,
			Password: testPassword,
		})
		require.NoError(t, err)
		assert.Equal(t, LoginStatusNotActivated, res.Status)
		assert.Equal(t, access.ReasonNoAssignment, res.Reason)
	})

	t.Run("no device yet", func(t *testing.T) {
		env := newTestEnv(t, nil)
		user := createTestUser(t, env.store, models.RoleUser)
		key := createTestKey(t, env.store, 2)
		createTestAssignment(t, env.store, key.ID, user.ID, nil)

		res, err := env.sessions.Login(context.Background(), LoginRequest{
			Username: user.Username,
			Password: testPassword,
			DeviceID: "devA",
		})
		require.NoError(t, err)
		assert.Equal(t, LoginStatusNotActivated, res.Status)
		assert.Equal(t, access.ReasonDeviceNotRegistered, res.Reason)

		// Login never creates a binding.
		stored, err := env.store.GetKeyByID(context.Background(), key.ID)
		require.NoError(t, err)
		assert.Empty(t, stored.Devices)
	})

	t.Run("pinned device not bound", func(t *testing.T) {
		env := newTestEnv(t, nil)
		user := createTestUser(t, env.store, models.RoleUser)
		key := createTestKey(t, env.store, 2)
		createTestAssignment(t, env.store, key.ID, user.ID, nil)
		activate(t, env, key, user.ID, "devA")

		res, err := env.sessions.Login(context.Background(), LoginRequest{
			Username: user.Username,
			Password: testPassword,
			DeviceID: "devB",
		})
		require.NoError(t, err)
		assert.Equal(t, LoginStatusNotActivated, res.Status)
	})

	t.Run("key deactivated", func(t *testing.T) {
		env := newTestEnv(t, nil)
		user := createTestUser(t, env.store, models.RoleUser)
		key := createTestKey(t, env.store, 2)
		createTestAssignment(t, env.store, key.ID, user.ID, nil)
		activate(t, env, key, user.ID, "devA")
		_, err := env.store.SetKeyActive(context.Background(), key.ID, false)
		require.NoError(t, err)

		res, err := env.sessions.Login(context.Background(), LoginRequest{
			Username: user.Username,
			Password: testPassword,
		})
		require.NoError(t, err)
		assert.Equal(t, LoginStatusNotActivated, res.Status)
		assert.Equal(t, access.ReasonKeyInactive, res.Reason)
	})
}

func TestLogin_ExpiredAssignmentIsMarked(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	user := createTestUser(t, env.store, models.RoleUser)
	key := createTestKey(t, env.store, 2)
	expired := time.Now().Add(-6 * time.Minute)
	a := createTestAssignment(t, env.store, key.ID, user.ID, &expired)

	res, err := env.sessions.Login(ctx, LoginRequest{Username: user.Username, Password: testPassword})
	require.NoError(t, err)
	assert.Equal(t, LoginStatusNotActivated, res.Status)
	assert.Equal(t, access.ReasonAssignmentExpired, res.Reason)

	stored, err := env.store.GetAssignmentByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AssignmentExpired, stored.Status)
}

func TestLogin_SkipsNewerExpiredAssignment(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	user := createTestUser(t, env.store, models.RoleUser)

	older := createTestKey(t, env.store, 1)
	a := createTestAssignment(t, env.store, older.ID, user.ID, nil)
	activate(t, env, older, user.ID, "devA")
	env.waitTouches()

	newer := createTestKey(t, env.store, 1)
	expired := time.Now().Add(-time.Hour)
	stale := &models.KeyAssignment{
		UserID:     user.ID,
		KeyID:      newer.ID,
		AssignedAt: time.Now().Add(time.Minute),
		Status:     models.AssignmentActive,
		ExpiresAt:  &expired,
	}
	require.NoError(t, env.store.CreateAssignment(ctx, stale))

	res, err := env.sessions.Login(ctx, LoginRequest{Username: user.Username, Password: testPassword})
	require.NoError(t, err)
	require.Equal(t, LoginStatusActivated, res.Status)
	require.NotNil(t, res.Session)
	assert.Equal(t, "devA", res.Session.Device.DeviceID)
	assert.Equal(t, a.ID, res.Session.Assignment.ID)
	assert.Equal(t, older.Key, res.Session.Claims.ActivationKey)
	env.waitTouches()

	got, err := env.store.GetAssignmentByID(ctx, stale.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AssignmentExpired, got.Status)
}

func TestLogin_ReportsReasonOfUsableAssignment(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	user := createTestUser(t, env.store, models.RoleUser)

	// Assigned but never activated.
	older := createTestKey(t, env.store, 1)
	createTestAssignment(t, env.store, older.ID, user.ID, nil)

	newer := createTestKey(t, env.store, 1)
	expired := time.Now().Add(-time.Hour)
	require.NoError(t, env.store.CreateAssignment(ctx, &models.KeyAssignment{
		UserID:     user.ID,
		KeyID:      newer.ID,
		AssignedAt: time.Now().Add(time.Minute),
		Status:     models.AssignmentActive,
		ExpiresAt:  &expired,
	}))

	res, err := env.sessions.Login(ctx, LoginRequest{Username: user.Username, Password: testPassword})
	require.NoError(t, err)
	assert.Equal(t, LoginStatusNotActivated, res.Status)
	assert.Equal(t, access.ReasonDeviceNotRegistered, res.Reason)
}

func TestLogin_ResumesExistingBinding(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	user := createTestUser(t, env.store, models.RoleUser)
	key := createTestKey(t, env.store, 2)
	a := createTestAssignment(t, env.store, key.ID, user.ID, nil)

	base := time.Now()
	env.bindings.now = func() time.Time { return base.Add(-time.Hour) }
	activate(t, env, key, user.ID, "devA")
	env.bindings.now = func() time.Time { return base.Add(-time.Minute) }
	activate(t, env, key, user.ID, "devB")
	env.waitTouches()
	env.bindings.now = time.Now

	t.Run("most recent device", func(t *testing.T) {
		res, err := env.sessions.Login(ctx, LoginRequest{Username: user.Username, Password: testPassword})
		require.NoError(t, err)
		require.Equal(t, LoginStatusActivated, res.Status)
		require.NotNil(t, res.Session)
		assert.Equal(t, "devB", res.Session.Device.DeviceID)

		claims, err := env.codec.Verify(res.Session.Token)
		require.NoError(t, err)
		assert.Equal(t, "devB", claims.DeviceID)
	})

	t.Run("pinned device", func(t *testing.T) {
		res, err := env.sessions.Login(ctx, LoginRequest{
			Username: user.Username,
			Password: testPassword,
			DeviceID: "devA",
		})
		require.NoError(t, err)
		require.Equal(t, LoginStatusActivated, res.Status)
		assert.Equal(t, "devA", res.Session.Device.DeviceID)
	})

	t.Run("revoked device is skipped", func(t *testing.T) {
		_, err := env.bindings.Revoke(ctx, key.ID, "devA", a.ID, "admin")
		require.NoError(t, err)

		res, err := env.sessions.Login(ctx, LoginRequest{
			Username: user.Username,
			Password: testPassword,
			DeviceID: "devA",
		})
		require.NoError(t, err)
		assert.Equal(t, LoginStatusNotActivated, res.Status)
	})

	stored, err := env.store.GetKeyByID(ctx, key.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Devices, 2)
}

func storeExpiry(ts time.Time) store.AssignmentUpdate {
	return store.AssignmentUpdate{ExpiresAt: &ts}
}

func TestValidateSession_Allowed(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	user := createTestUser(t, env.store, models.RoleUser)
	key := createTestKey(t, env.store, 2)
	a := createTestAssignment(t, env.store, key.ID, user.ID, nil)
	session := activate(t, env, key, user.ID, "devA")
	env.waitTouches()

	later := session.Device.LastActiveAt.Add(time.Hour)
	env.bindings.now = func() time.Time { return later }

	info, err := env.sessions.ValidateSession(ctx, session.Token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, info.User.ID)
	assert.Equal(t, key.ID, info.Key.ID)
	assert.Equal(t, a.ID, info.Assignment.ID)
	assert.Equal(t, "devA", info.Claims.DeviceID)

	env.waitTouches()
	stored, err := env.store.GetKeyByID(ctx, key.ID)
	require.NoError(t, err)
	require.Len(t, stored.Devices, 1)
	assert.WithinDuration(t, later, stored.Devices[0].LastActiveAt, time.Second)
}

func TestValidateSession_TokenErrors(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	_, err := env.sessions.ValidateSession(ctx, "")
	assert.ErrorIs(t, err, token.ErrInvalidToken)

	_, err = env.sessions.ValidateSession(ctx, "not.a.jwt")
	assert.ErrorIs(t, err, token.ErrInvalidToken)

	old := token.NewCodec("test-secret-for-session-tokens",
		token.WithTTL(time.Hour),
		token.WithClock(func() time.Time { return time.Now().Add(-2 * time.Hour) }))
	issued, err := old.Issue(token.SessionClaims{
		DeviceID:      "d",
		ActivationKey: "k",
		UserID:        "u",
		AssignmentID:  "a",
	})
	require.NoError(t, err)
	_, err = env.sessions.ValidateSession(ctx, issued.Token)
	assert.ErrorIs(t, err, token.ErrExpiredToken)

	forged := token.NewCodec("some-other-secret-entirely", token.WithTTL(time.Hour))
	issued, err = forged.Issue(token.SessionClaims{
		DeviceID:      "d",
		ActivationKey: "k",
		UserID:        "u",
		AssignmentID:  "a",
	})
	require.NoError(t, err)
	_, err = env.sessions.ValidateSession(ctx, issued.Token)
	assert.ErrorIs(t, err, token.ErrInvalidToken)
}

func TestValidateSession_Denials(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(t *testing.T, env *testEnv, key *models.ActivationKey, a *models.KeyAssignment)
		reason access.Reason
	}{
		{
			name: "key deactivated",
			mutate: func(t *testing.T, env *testEnv, key *models.ActivationKey, _ *models.KeyAssignment) {
				_, err := env.store.SetKeyActive(context.Background(), key.ID, false)
				require.NoError(t, err)
			},
			reason: access.ReasonKeyInactive,
		},
		{
			name: "key deleted from under the session",
			mutate: func(t *testing.T, env *testEnv, key *models.ActivationKey, a *models.KeyAssignment) {
				require.NoError(t, env.store.DeleteAssignment(context.Background(), a.ID))
				require.NoError(t, env.store.DeleteKey(context.Background(), key.ID))
			},
			reason: access.ReasonKeyNotFound,
		},
		{
			name: "assignment revoked",
			mutate: func(t *testing.T, env *testEnv, _ *models.ActivationKey, a *models.KeyAssignment) {
				_, err := env.store.RevokeAssignment(context.Background(), a.ID, "admin", time.Now())
				require.NoError(t, err)
			},
			reason: access.ReasonNoAssignment,
		},
		{
			name: "device revoked",
			mutate: func(t *testing.T, env *testEnv, key *models.ActivationKey, a *models.KeyAssignment) {
				_, err := env.bindings.Revoke(context.Background(), key.ID, "devA", a.ID, "admin")
				require.NoError(t, err)
			},
			reason: access.ReasonDeviceRevoked,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, nil)
			user := createTestUser(t, env.store, models.RoleUser)
			key := createTestKey(t, env.store, 2)
			a := createTestAssignment(t, env.store, key.ID, user.ID, nil)
			session := activate(t, env, key, user.ID, "devA")
			env.waitTouches()

			tt.mutate(t, env, key, a)

			info, err := env.sessions.ValidateSession(context.Background(), session.Token)
			assert.Nil(t, info)
			requireReason(t, err, tt.reason)
		})
	}
}

func TestValidateSession_LazyExpiry(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	user := createTestUser(t, env.store, models.RoleUser)
	key := createTestKey(t, env.store, 2)
	a := createTestAssignment(t, env.store, key.ID, user.ID, nil)
	session := activate(t, env, key, user.ID, "devA")
	env.waitTouches()

	// Four minutes past expiry is still inside the grace window.
	within := time.Now().Add(-4 * time.Minute)
	_, err := env.store.UpdateAssignment(ctx, a.ID, storeExpiry(within))
	require.NoError(t, err)
	_, err = env.sessions.ValidateSession(ctx, session.Token)
	require.NoError(t, err)
	env.waitTouches()

	beyond := time.Now().Add(-6 * time.Minute)
	_, err = env.store.UpdateAssignment(ctx, a.ID, storeExpiry(beyond))
	require.NoError(t, err)
	_, err = env.sessions.ValidateSession(ctx, session.Token)
	requireReason(t, err, access.ReasonAssignmentExpired)

	stored, err := env.store.GetAssignmentByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AssignmentExpired, stored.Status)

	// Once EXPIRED the assignment is no longer ACTIVE.
	_, err = env.sessions.ValidateSession(ctx, session.Token)
	requireReason(t, err, access.ReasonNoAssignment)
}

func TestValidateSession_DisabledUser(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	user := createTestUser(t, env.store, models.RoleUser)
	key := createTestKey(t, env.store, 2)
	createTestAssignment(t, env.store, key.ID, user.ID, nil)
	session := activate(t, env, key, user.ID, "devA")
	env.waitTouches()

	require.NoError(t, env.store.DB().Model(&models.User{}).
		Where("id = ?", user.ID).
		Update("is_active", false).Error)

	_, err := env.sessions.ValidateSession(ctx, session.Token)
	assert.ErrorIs(t, err, ErrAccountDisabled)
}

func TestValidateSession_RecordsMetrics(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	user := createTestUser(t, env.store, models.RoleUser)
	key := createTestKey(t, env.store, 2)
	createTestAssignment(t, env.store, key.ID, user.ID, nil)
	session := activate(t, env, key, user.ID, "devA")
	env.waitTouches()

	ctrl := gomock.NewController(t)
	m := mocks.NewMockRecorder(ctrl)
	env.sessions.metrics = m

	gomock.InOrder(
		m.EXPECT().RecordTokenValidation(tokenResultValid, gomock.Any()),
		m.EXPECT().RecordAccessDecision("session", "", gomock.Any()),
		m.EXPECT().RecordTokenValidation(tokenResultInvalid, gomock.Any()),
	)

	_, err := env.sessions.ValidateSession(ctx, session.Token)
	require.NoError(t, err)
	_, err = env.sessions.ValidateSession(ctx, "garbage")
	require.Error(t, err)
}
