package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/go-authgate/keygate/internal/auth"
	"github.com/go-authgate/keygate/internal/core"
	"github.com/go-authgate/keygate/internal/models"
	"github.com/go-authgate/keygate/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	AuthModeLocal   = models.AuthSourceLocal
	AuthModeHTTPAPI = models.AuthSourceHTTPAPI

	userCacheKeyPrefix = "user:"
	minUsernameLength  = 3
	minPasswordLength  = 6
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

var (
	ErrInvalidCredentials  = errors.New("invalid username or password")
	ErrAccountDisabled     = errors.New("account is disabled")
	ErrUserNotFound        = errors.New("user not found")
	ErrAuthProviderFailed  = errors.New("authentication provider failed")
	ErrUserSyncFailed      = errors.New("failed to sync user from external provider")
	ErrInvalidRegistration = errors.New("invalid registration")
	ErrUserExists          = errors.New("username or email already registered")
)

type UserService struct {
	store           *store.Store
	localProvider   core.AuthProvider
	httpAPIProvider core.AuthProvider
	authMode        string
	metrics         core.Recorder
	userCache       core.Cache[models.User]
	userCacheTTL    time.Duration
	logger          *zap.Logger
}

// NewUserService wires the password backends. httpAPIProvider may be nil
// when AUTH_MODE is local.
func NewUserService(
	s *store.Store,
	localProvider core.AuthProvider,
	httpAPIProvider core.AuthProvider,
	authMode string,
	m core.Recorder,
	userCache core.Cache[models.User],
	userCacheTTL time.Duration,
	logger *zap.Logger,
) *UserService {
	return &UserService{
		store:           s,
		localProvider:   localProvider,
		httpAPIProvider: httpAPIProvider,
		authMode:        authMode,
		metrics:         m,
		userCache:       userCache,
		userCacheTTL:    userCacheTTL,
		logger:          logger,
	}
}

// Authenticate routes an existing user to the backend named by its
// auth_source. Unknown users are created on first successful login when
// AUTH_MODE is http_api.
func (s *UserService) Authenticate(
	ctx context.Context,
	username, password string,
) (*models.User, error) {
	existingUser, err := s.store.GetUserByUsername(ctx, username)
	if err == nil {
		return s.authenticateExistingUser(ctx, existingUser, password)
	}
	if !errors.Is(err, store.ErrRecordNotFound) {
		return nil, fmt.Errorf("load user: %w", err)
	}

	if s.authMode == AuthModeHTTPAPI {
		return s.authenticateAndCreateExternalUser(ctx, username, password)
	}

	s.metrics.RecordAuthAttempt(AuthModeLocal, false, 0)
	return nil, ErrInvalidCredentials
}

func (s *UserService) authenticateExistingUser(
	ctx context.Context,
	user *models.User,
	password string,
) (*models.User, error) {
	provider := s.localProvider
	if user.AuthSource == AuthModeHTTPAPI {
		provider = s.httpAPIProvider
	}
	if provider == nil {
		return nil, fmt.Errorf("%w: %s provider not configured", ErrAuthProviderFailed, user.AuthSource)
	}

	result, err := s.callProvider(ctx, provider, user.Username, password)
	if err != nil {
		if errors.Is(err, auth.ErrAccountDisabled) {
			return nil, ErrAccountDisabled
		}
		s.logger.Info("authentication failed",
			zap.String("username", user.Username),
			zap.String("provider", provider.Name()),
			zap.Error(err))
		return nil, ErrInvalidCredentials
	}

	if user.IsExternal() {
		updated, syncErr := s.syncExternalUser(ctx, result, user.AuthSource)
		if syncErr != nil {
			s.logger.Warn("external user sync failed",
				zap.String("username", user.Username),
				zap.Error(syncErr))
		} else {
			user = updated
		}
	}

	if !user.IsActive {
		return nil, ErrAccountDisabled
	}
	return user, nil
}

func (s *UserService) authenticateAndCreateExternalUser(
	ctx context.Context,
	username, password string,
) (*models.User, error) {
	if s.httpAPIProvider == nil {
		return nil, fmt.Errorf("%w: HTTP API provider not configured", ErrAuthProviderFailed)
	}

	result, err := s.callProvider(ctx, s.httpAPIProvider, username, password)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	user, err := s.syncExternalUser(ctx, result, AuthModeHTTPAPI)
	if err != nil {
		s.logger.Error("failed to create external user",
			zap.String("username", username),
			zap.Error(err))
		return nil, ErrUserSyncFailed
	}

	s.logger.Info("external user created", zap.String("username", username))
	return user, nil
}

// callProvider runs one backend and records the attempt.
func (s *UserService) callProvider(
	ctx context.Context,
	provider core.AuthProvider,
	username, password string,
) (*core.AuthResult, error) {
	start := time.Now()
	result, err := provider.Authenticate(ctx, username, password)
	elapsed := time.Since(start)

	ok := err == nil && result != nil && result.Success
	s.metrics.RecordAuthAttempt(provider.Name(), ok, elapsed)
	if provider.Name() != AuthModeLocal {
		s.metrics.RecordExternalAPICall(provider.Name(), elapsed)
	}

	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}
	return result, nil
}

func (s *UserService) syncExternalUser(
	ctx context.Context,
	result *core.AuthResult,
	authSource string,
) (*models.User, error) {
	user, err := s.store.UpsertExternalUser(
		ctx,
		result.Username,
		result.ExternalID,
		authSource,
		result.Email,
		result.FullName,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert external user: %w", err)
	}
	s.InvalidateUserCache(ctx, user.ID)
	return user, nil
}

// RegisterRequest is the self-service sign-up payload.
type RegisterRequest struct {
	Username string
	Email    string
	Password string
	FullName string
}

// Register creates a local USER account.
func (s *UserService) Register(ctx context.Context, req RegisterRequest) (*models.User, error) {
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))

	switch {
	case req.Username == "" || req.Email == "" || req.Password == "":
		return nil, fmt.Errorf("%w: username, email, and password are required", ErrInvalidRegistration)
	case len(req.Username) < minUsernameLength:
		return nil, fmt.Errorf("%w: username must be at least %d characters",
			ErrInvalidRegistration, minUsernameLength)
	case len(req.Password) < minPasswordLength:
		return nil, fmt.Errorf("%w: password must be at least %d characters",
			ErrInvalidRegistration, minPasswordLength)
	case !emailPattern.MatchString(req.Email):
		return nil, fmt.Errorf("%w: invalid email format", ErrInvalidRegistration)
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{
		ID:           uuid.New().String(),
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
		FullName:     strings.TrimSpace(req.FullName),
		Role:         models.RoleUser,
		IsActive:     true,
		AuthSource:   AuthModeLocal,
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrUsernameConflict) || errors.Is(err, store.ErrEmailConflict) {
			return nil, ErrUserExists
		}
		return nil, err
	}
	return user, nil
}

// GetUserByID reads through the user cache.
func (s *UserService) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	user, err := s.userCache.GetWithFetch(
		ctx,
		userCacheKeyPrefix+id,
		s.userCacheTTL,
		func(ctx context.Context, _ string) (models.User, error) {
			u, err := s.store.GetUserByID(ctx, id)
			if err != nil {
				return models.User{}, err
			}
			return *u, nil
		},
	)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// InvalidateUserCache drops the cached copy of a user.
func (s *UserService) InvalidateUserCache(ctx context.Context, id string) {
	if err := s.userCache.Delete(ctx, userCacheKeyPrefix+id); err != nil {
		s.logger.Warn("failed to invalidate user cache",
			zap.String("user_id", id),
			zap.Error(err))
	}
}
