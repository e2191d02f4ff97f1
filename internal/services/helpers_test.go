package services

import (
	"context"
	"testing"
	"time"

	"github.com/go-authgate/keygate/internal/access"
	"github.com/go-authgate/keygate/internal/auth"
	"github.com/go-authgate/keygate/internal/cache"
	"github.com/go-authgate/keygate/internal/config"
	"github.com/go-authgate/keygate/internal/core"
	"github.com/go-authgate/keygate/internal/metrics"
	"github.com/go-authgate/keygate/internal/models"
	"github.com/go-authgate/keygate/internal/store"
	"github.com/go-authgate/keygate/internal/token"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testPassword = "s3cret-pass"

func setupTestStore(t *testing.T) *store.Store {
	t.Helper()
	// Use in-memory SQLite database for testing
	cfg := &config.Config{
		DefaultAdminPassword: "", // Use random password in tests
	}
	s, err := store.New("sqlite", ":memory:", cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// newDisabledAudit returns an audit service that drops every entry.
func newDisabledAudit(s *store.Store) *AuditService {
	return NewAuditService(s, zap.NewNop(), false, 0)
}

// newFlushedAudit returns an enabled audit service that is shut down (and
// therefore flushed) when the test ends or flush is called.
func newFlushedAudit(t *testing.T, s *store.Store) (*AuditService, func()) {
	t.Helper()
	a := NewAuditService(s, zap.NewNop(), true, 100)
	flush := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		require.NoError(t, a.Shutdown(ctx))
	}
	t.Cleanup(flush)
	return a, flush
}

func createTestUser(t *testing.T, s *store.Store, role string) *models.User {
	t.Helper()
	hash, err := auth.HashPassword(testPassword)
	require.NoError(t, err)
	u := &models.User{
		ID:           uuid.New().String(),
		Username:     "user-" + uuid.New().String()[:8],
		Email:        uuid.New().String()[:8] + "@example.com",
		PasswordHash: hash,
		Role:         role,
		IsActive:     true,
		AuthSource:   models.AuthSourceLocal,
	}
	require.NoError(t, s.CreateUser(context.Background(), u))
	return u
}

func createTestKey(t *testing.T, s *store.Store, limit int) *models.ActivationKey {
	t.Helper()
	key := &models.ActivationKey{
		Key:         "KEY_TEST_" + uuid.New().String()[:8],
		DeviceLimit: limit,
		IsActive:    true,
	}
	require.NoError(t, s.CreateKey(context.Background(), key))
	return key
}

func createTestAssignment(
	t *testing.T,
	s *store.Store,
	keyID, userID string,
	expiresAt *time.Time,
) *models.KeyAssignment {
	t.Helper()
	a := &models.KeyAssignment{
		UserID:     userID,
		KeyID:      keyID,
		AssignedAt: time.Now(),
		Status:     models.AssignmentActive,
		ExpiresAt:  expiresAt,
	}
	require.NoError(t, s.CreateAssignment(context.Background(), a))
	return a
}

// callFetchFn is a DoAndReturn helper that invokes the cache fetch function,
// simulating a cache miss where the real DB fetch is executed.
func callFetchFn[T any](
	ctx context.Context,
	key string,
	_ time.Duration,
	fn func(context.Context, string) (T, error),
) (T, error) {
	return fn(ctx, key)
}

// testEnv wires the full service graph over one in-memory store.
type testEnv struct {
	store     *store.Store
	audit     *AuditService
	users     *UserService
	bindings  *DeviceBindingService
	sessions  *SessionService
	validator *access.Validator
	codec     *token.Codec
}

func newTestEnv(t *testing.T, m core.Recorder) *testEnv {
	t.Helper()
	if m == nil {
		m = metrics.NewNoopMetrics()
	}
	s := setupTestStore(t)
	audit := newDisabledAudit(s)
	users := NewUserService(
		s,
		auth.NewLocalAuthProvider(s),
		nil,
		AuthModeLocal,
		m,
		cache.NewMemoryCache[models.User](),
		time.Minute,
		zap.NewNop(),
	)
	validator := access.NewValidator(s)
	codec := token.NewCodec("test-secret-for-session-tokens", token.WithTTL(time.Hour))
	bindings := NewDeviceBindingService(s, validator, audit, m, zap.NewNop(), time.Second)
	sessions := NewSessionService(s, users, bindings, validator, codec, audit, m, zap.NewNop())

	env := &testEnv{
		store:     s,
		audit:     audit,
		users:     users,
		bindings:  bindings,
		sessions:  sessions,
		validator: validator,
		codec:     codec,
	}
	t.Cleanup(env.waitTouches)
	return env
}

// waitTouches lets background last-active updates finish before the store
// is closed.
func (e *testEnv) waitTouches() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = e.bindings.Wait(ctx)
}
