package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-authgate/keygate/internal/access"
	"github.com/go-authgate/keygate/internal/core"
	"github.com/go-authgate/keygate/internal/models"
	"github.com/go-authgate/keygate/internal/store"
	"github.com/go-authgate/keygate/internal/token"

	"go.uber.org/zap"
)

// LoginStatus tells the client what to do after a successful login.
type LoginStatus string

const (
	LoginStatusAdmin        LoginStatus = "admin"
	LoginStatusActivated    LoginStatus = "activated"
	LoginStatusNotActivated LoginStatus = "not_activated"
)

// Token validation results, used as metric labels.
const (
	tokenResultValid   = "valid"
	tokenResultExpired = "expired"
	tokenResultInvalid = "invalid"
)

// Session is an issued device session token and the binding it covers.
type Session struct {
	Token      string
	ExpiresAt  time.Time
	Claims     token.SessionClaims
	Key        *models.ActivationKey
	Assignment *models.KeyAssignment
	Device     *models.Device
}

// LoginRequest is the username/password login. DeviceID optionally pins
// which existing binding to resume.
type LoginRequest struct {
	Username string
	Password string
	DeviceID string
}

// LoginResult carries the authenticated user and, for status activated, a
// fresh session. Reason explains a not_activated status when known.
type LoginResult struct {
	User    *models.User
	Status  LoginStatus
	Session *Session
	Reason  access.Reason
}

// ActivateRequest binds DeviceID to the caller's assignment of
// ActivationKey.
type ActivateRequest struct {
	UserID        string
	ActivationKey string
	DeviceID      string
	DeviceInfo    models.DeviceInfo
}

// SessionInfo is what a successful session validation returns.
type SessionInfo struct {
	Claims     token.SessionClaims
	User       *models.User
	Key        *models.ActivationKey
	Assignment *models.KeyAssignment
}

// SessionService ties login, explicit activation and token re-validation
// together. It never creates a binding during login.
type SessionService struct {
	store     *store.Store
	users     *UserService
	bindings  *DeviceBindingService
	validator *access.Validator
	codec     *token.Codec
	audit     *AuditService
	metrics   core.Recorder
	logger    *zap.Logger
}

// NewSessionService creates a new session service
func NewSessionService(
	s *store.Store,
	users *UserService,
	bindings *DeviceBindingService,
	validator *access.Validator,
	codec *token.Codec,
	audit *AuditService,
	m core.Recorder,
	logger *zap.Logger,
) *SessionService {
	return &SessionService{
		store:     s,
		users:     users,
		bindings:  bindings,
		validator: validator,
		codec:     codec,
		audit:     audit,
		metrics:   m,
		logger:    logger,
	}
}

// Login authenticates the user and, for USER accounts, resumes an existing
// active binding under their assignment if there is one.
func (s *SessionService) Login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	user, err := s.users.Authenticate(ctx, req.Username, req.Password)
	if err != nil {
		s.metrics.RecordLogin("failure")
		s.audit.Log(ctx, AuditLogEntry{
			EventType:    models.EventAuthenticationFailure,
			Severity:     models.SeverityWarning,
			ResourceType: models.ResourceUser,
			ResourceName: req.Username,
			Action:       "Login failed",
			Success:      false,
			ErrorMessage: err.Error(),
		})
		return nil, err
	}

	s.audit.Log(ctx, AuditLogEntry{
		EventType:     models.EventAuthenticationSuccess,
		ActorUserID:   user.ID,
		ActorUsername: user.Username,
		ResourceType:  models.ResourceUser,
		ResourceID:    user.ID,
		ResourceName:  user.Username,
		Action:        "Login succeeded",
		Success:       true,
	})

	if user.IsAdmin() {
		s.metrics.RecordLogin(string(LoginStatusAdmin))
		return &LoginResult{User: user, Status: LoginStatusAdmin}, nil
	}

	session, reason, err := s.resume(ctx, user, req.DeviceID)
	if err != nil {
		s.metrics.RecordLogin("error")
		return nil, err
	}
	if session == nil {
		s.metrics.RecordLogin(string(LoginStatusNotActivated))
		return &LoginResult{User: user, Status: LoginStatusNotActivated, Reason: reason}, nil
	}
	s.metrics.RecordLogin(string(LoginStatusActivated))
	return &LoginResult{User: user, Status: LoginStatusActivated, Session: session}, nil
}

// resume walks the user's ACTIVE assignments newest first and issues a token
// for the first one with an active binding. Expired assignments are marked
// EXPIRED and skipped. A nil session with a reason means the user must
// activate.
func (s *SessionService) resume(
	ctx context.Context,
	user *models.User,
	deviceID string,
) (*Session, access.Reason, error) {
	assignments, err := s.store.ListActiveAssignmentsForUser(ctx, user.ID)
	if err != nil {
		return nil, "", fmt.Errorf("load assignments: %w", err)
	}
	if len(assignments) == 0 {
		return nil, access.ReasonNoAssignment, nil
	}

	var reason access.Reason
	for i := range assignments {
		session, r, err := s.resumeAssignment(ctx, user, &assignments[i], deviceID)
		if err != nil || session != nil {
			return session, "", err
		}
		// Report the newest assignment that is still usable.
		if reason == "" || reason == access.ReasonAssignmentExpired {
			reason = r
		}
	}
	return nil, reason, nil
}

func (s *SessionService) resumeAssignment(
	ctx context.Context,
	user *models.User,
	assignment *models.KeyAssignment,
	deviceID string,
) (*Session, access.Reason, error) {
	start := time.Now()

	key, err := s.store.GetKeyByID(ctx, assignment.KeyID)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, access.ReasonKeyNotFound, nil
		}
		return nil, "", fmt.Errorf("load activation key: %w", err)
	}

	decision, err := s.validator.Validate(ctx, access.Request{
		ActivationKey: key.Key,
		UserID:        user.ID,
	})
	if err != nil {
		return nil, "", err
	}
	s.metrics.RecordAccessDecision("login", string(decision.Reason), time.Since(start))
	if !decision.Allowed {
		if decision.Reason == access.ReasonAssignmentExpired {
			s.expireAssignment(ctx, decision.Assignment)
		}
		return nil, decision.Reason, nil
	}

	device := pickDevice(decision.Key, decision.Assignment.ID, user.ID, deviceID)
	if device == nil {
		return nil, access.ReasonDeviceNotRegistered, nil
	}

	session, err := s.issue(ctx, decision.Key, decision.Assignment, device)
	if err != nil {
		return nil, "", err
	}
	s.bindings.TouchLastActive(decision.Key.ID, device.DeviceID, decision.Assignment.ID)
	return session, "", nil
}

// pickDevice returns the user's active device under assignmentID. When
// deviceID is set only that device qualifies; otherwise the most recently
// active one wins.
func pickDevice(key *models.ActivationKey, assignmentID, userID, deviceID string) *models.Device {
	active := key.ActiveDevicesFor(assignmentID)
	if deviceID != "" {
		if d, ok := active[deviceID]; ok && d.UserID == userID {
			return d
		}
		return nil
	}

	var latest *models.Device
	for _, d := range active {
		if d.UserID != userID {
			continue
		}
		if latest == nil || d.LastActiveAt.After(latest.LastActiveAt) {
			latest = d
		}
	}
	return latest
}

// Activate binds the device and issues a session token for it. Policy
// denials are returned as *access.DenialError.
func (s *SessionService) Activate(ctx context.Context, req ActivateRequest) (*Session, error) {
	outcome, err := s.bindings.Bind(ctx, BindRequest{
		ActivationKey: req.ActivationKey,
		UserID:        req.UserID,
		DeviceID:      req.DeviceID,
		DeviceInfo:    req.DeviceInfo,
	})
	if err != nil {
		return nil, err
	}
	return s.issue(ctx, outcome.Key, outcome.Assignment, outcome.Device)
}

func (s *SessionService) issue(
	ctx context.Context,
	key *models.ActivationKey,
	assignment *models.KeyAssignment,
	device *models.Device,
) (*Session, error) {
	start := time.Now()
	claims := token.SessionClaims{
		DeviceID:      device.DeviceID,
		ActivationKey: key.Key,
		UserID:        assignment.UserID,
		AssignmentID:  assignment.ID,
	}
	issued, err := s.codec.Issue(claims)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordTokenIssued(time.Since(start))

	s.audit.Log(ctx, AuditLogEntry{
		EventType:    models.EventSessionIssued,
		ActorUserID:  assignment.UserID,
		ResourceType: models.ResourceSession,
		ResourceID:   device.ID,
		ResourceName: device.DeviceID,
		Action:       "Device session issued",
		Details: models.AuditDetails{
			"key_id":        key.ID,
			"assignment_id": assignment.ID,
			"expires_at":    issued.ExpiresAt,
		},
		Success: true,
	})

	claims.IssuedAt = issued.IssuedAt
	claims.ExpiresAt = issued.ExpiresAt
	return &Session{
		Token:      issued.Token,
		ExpiresAt:  issued.ExpiresAt,
		Claims:     claims,
		Key:        key,
		Assignment: assignment,
		Device:     device,
	}, nil
}

// ValidateSession verifies a session token and re-checks it against current
// state. Token failures are returned as token errors, policy denials as
// *access.DenialError, and store failures as plain errors.
func (s *SessionService) ValidateSession(ctx context.Context, tokenString string) (*SessionInfo, error) {
	start := time.Now()

	claims, err := s.codec.Verify(tokenString)
	switch {
	case errors.Is(err, token.ErrExpiredToken):
		s.metrics.RecordTokenValidation(tokenResultExpired, time.Since(start))
		return nil, err
	case err != nil:
		s.metrics.RecordTokenValidation(tokenResultInvalid, time.Since(start))
		return nil, err
	}
	s.metrics.RecordTokenValidation(tokenResultValid, time.Since(start))

	decision, err := s.validator.ValidateSession(ctx, *claims)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordAccessDecision("session", string(decision.Reason), time.Since(start))
	if !decision.Allowed {
		if decision.Reason == access.ReasonAssignmentExpired {
			s.expireAssignment(ctx, decision.Assignment)
		}
		s.audit.Log(ctx, AuditLogEntry{
			EventType:    models.EventSessionDenied,
			ActorUserID:  claims.UserID,
			ResourceType: models.ResourceSession,
			ResourceName: claims.DeviceID,
			Action:       "Device session rejected",
			Details: models.AuditDetails{
				"activation_key": claims.ActivationKey,
				"assignment_id":  claims.AssignmentID,
				"reason":         string(decision.Reason),
			},
			Success:      false,
			ErrorMessage: decision.Message(),
		})
		return nil, decision.Err()
	}

	user, err := s.users.GetUserByID(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrAccountDisabled
	}

	s.bindings.TouchLastActive(decision.Key.ID, claims.DeviceID, claims.AssignmentID)

	return &SessionInfo{
		Claims:     *claims,
		User:       user,
		Key:        decision.Key,
		Assignment: decision.Assignment,
	}, nil
}

// CheckDevice reports whether deviceID is registered and active anywhere on
// the key, whichever assignment bound it. It never touches the binding.
func (s *SessionService) CheckDevice(
	ctx context.Context,
	activationKey, deviceID string,
) (access.Decision, error) {
	if deviceID == "" {
		return access.Decision{}, ErrDeviceIDRequired
	}
	start := time.Now()
	decision, err := s.validator.ValidateDevice(ctx, activationKey, deviceID)
	if err != nil {
		return access.Decision{}, err
	}
	s.metrics.RecordAccessDecision("device", string(decision.Reason), time.Since(start))
	return decision, nil
}

// expireAssignment moves an ACTIVE assignment past its expiry to EXPIRED.
// Failures only get logged; the caller already has its answer.
func (s *SessionService) expireAssignment(ctx context.Context, a *models.KeyAssignment) {
	if a == nil {
		return
	}
	changed, err := s.store.MarkAssignmentExpired(ctx, a.ID)
	if err != nil {
		s.logger.Warn("failed to mark assignment expired",
			zap.String("assignment_id", a.ID),
			zap.Error(err))
		return
	}
	if !changed {
		return
	}
	s.audit.Log(ctx, AuditLogEntry{
		EventType:    models.EventAssignmentExpired,
		ActorUserID:  a.UserID,
		ResourceType: models.ResourceAssignment,
		ResourceID:   a.ID,
		Action:       "Assignment expired",
		Details:      models.AuditDetails{"key_id": a.KeyID, "expires_at": a.ExpiresAt},
		Success:      true,
	})
}
