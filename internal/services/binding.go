package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-authgate/keygate/internal/access"
	"github.com/go-authgate/keygate/internal/core"
	"github.com/go-authgate/keygate/internal/models"
	"github.com/go-authgate/keygate/internal/store"

	"go.uber.org/zap"
)

// Bind outcomes, used as metric labels.
const (
	bindOutcomeBound       = "bound"
	bindOutcomeReactivated = "reactivated"
	bindOutcomeRefreshed   = "refreshed"
	bindOutcomeDenied      = "denied"
	bindOutcomeError       = "error"
)

var (
	ErrDeviceIDRequired = errors.New("device id is required")
	ErrDeviceNotFound   = errors.New("device binding not found")
)

// BindRequest asks to register DeviceID under the caller's assignment of
// ActivationKey.
type BindRequest struct {
	ActivationKey string
	UserID        string
	DeviceID      string
	DeviceInfo    models.DeviceInfo
}

// BindOutcome describes a successful bind.
type BindOutcome struct {
	Key         *models.ActivationKey
	Assignment  *models.KeyAssignment
	Device      *models.Device
	NewlyBound  bool
	Reactivated bool
	ActiveCount int
}

// DeviceBindingService moves (deviceID, assignmentID) pairs through
// UNREGISTERED -> ACTIVE -> REVOKED and back to ACTIVE on re-bind.
type DeviceBindingService struct {
	store        *store.Store
	validator    *access.Validator
	audit        *AuditService
	metrics      core.Recorder
	logger       *zap.Logger
	touchTimeout time.Duration
	now          func() time.Time

	touches sync.WaitGroup
}

// NewDeviceBindingService creates a new device binding service
func NewDeviceBindingService(
	s *store.Store,
	validator *access.Validator,
	audit *AuditService,
	m core.Recorder,
	logger *zap.Logger,
	touchTimeout time.Duration,
) *DeviceBindingService {
	if touchTimeout <= 0 {
		touchTimeout = 3 * time.Second
	}
	return &DeviceBindingService{
		store:        s,
		validator:    validator,
		audit:        audit,
		metrics:      m,
		logger:       logger,
		touchTimeout: touchTimeout,
		now:          time.Now,
	}
}

// Bind validates the request and registers the device. A lost race on the
// key row is retried once with a fresh read; a second loss is reported as
// DEVICE_LIMIT_REACHED. Policy denials are returned as *access.DenialError.
func (s *DeviceBindingService) Bind(ctx context.Context, req BindRequest) (*BindOutcome, error) {
	if req.DeviceID == "" {
		return nil, ErrDeviceIDRequired
	}
	start := time.Now()

	for attempt := 0; ; attempt++ {
		decision, err := s.validator.Validate(ctx, access.Request{
			ActivationKey: req.ActivationKey,
			UserID:        req.UserID,
			DeviceID:      req.DeviceID,
		})
		if err != nil {
			s.metrics.RecordDeviceBind(bindOutcomeError, time.Since(start))
			return nil, err
		}
		s.metrics.RecordAccessDecision("activate", string(decision.Reason), time.Since(start))
		if !decision.Allowed {
			return nil, s.denied(ctx, req, decision, start)
		}

		result, err := s.store.BindDevice(ctx, store.BindParams{
			KeyID:        decision.Key.ID,
			AssignmentID: decision.Assignment.ID,
			UserID:       req.UserID,
			DeviceID:     req.DeviceID,
			DeviceInfo:   req.DeviceInfo,
			Now:          s.now(),
		})
		switch {
		case err == nil:
			return s.bound(ctx, req, decision, result, start), nil
		case errors.Is(err, store.ErrConcurrentUpdate) && attempt == 0:
			s.metrics.RecordBindRetry()
			s.logger.Debug("bind lost a race, retrying",
				zap.String("key_id", decision.Key.ID),
				zap.String("device_id", req.DeviceID))
			continue
		case errors.Is(err, store.ErrConcurrentUpdate),
			errors.Is(err, store.ErrDeviceLimitReached):
			decision.Allowed = false
			decision.Reason = access.ReasonDeviceLimitReached
			return nil, s.denied(ctx, req, decision, start)
		case errors.Is(err, store.ErrRecordNotFound):
			decision.Allowed = false
			decision.Reason = access.ReasonKeyNotFound
			return nil, s.denied(ctx, req, decision, start)
		default:
			s.metrics.RecordDeviceBind(bindOutcomeError, time.Since(start))
			return nil, fmt.Errorf("bind device: %w", err)
		}
	}
}

func (s *DeviceBindingService) bound(
	ctx context.Context,
	req BindRequest,
	decision access.Decision,
	result *store.BindResult,
	start time.Time,
) *BindOutcome {
	outcome, event, action := bindOutcomeRefreshed, models.EventDeviceReactivated, "Device session refreshed"
	switch {
	case result.NewlyBound:
		outcome, event, action = bindOutcomeBound, models.EventDeviceActivated, "Device activated"
	case result.Reactivated:
		outcome, action = bindOutcomeReactivated, "Device reactivated"
	}
	s.metrics.RecordDeviceBind(outcome, time.Since(start))

	s.audit.Log(ctx, AuditLogEntry{
		EventType:    event,
		ActorUserID:  req.UserID,
		ResourceType: models.ResourceDevice,
		ResourceID:   result.Device.ID,
		ResourceName: req.DeviceID,
		Action:       action,
		Details: models.AuditDetails{
			"activation_key": req.ActivationKey,
			"assignment_id":  decision.Assignment.ID,
			"active_devices": result.ActiveCount,
			"device_limit":   result.Limit,
			"platform":       req.DeviceInfo.Platform,
		},
		Success: true,
	})

	// The decision was read before the bind; reflect the new counters.
	key, assignment := *decision.Key, *decision.Assignment
	if result.NewlyBound {
		key.UsedDevices++
	}
	assignment.DeviceCount = result.ActiveCount

	return &BindOutcome{
		Key:         &key,
		Assignment:  &assignment,
		Device:      result.Device,
		NewlyBound:  result.NewlyBound,
		Reactivated: result.Reactivated,
		ActiveCount: result.ActiveCount,
	}
}

func (s *DeviceBindingService) denied(
	ctx context.Context,
	req BindRequest,
	decision access.Decision,
	start time.Time,
) error {
	s.metrics.RecordDeviceBind(bindOutcomeDenied, time.Since(start))

	details := models.AuditDetails{
		"activation_key": req.ActivationKey,
		"device_id":      req.DeviceID,
		"reason":         string(decision.Reason),
	}
	if decision.Assignment != nil {
		details["assignment_id"] = decision.Assignment.ID
	}
	s.audit.Log(ctx, AuditLogEntry{
		EventType:    models.EventActivationDenied,
		ActorUserID:  req.UserID,
		ResourceType: models.ResourceDevice,
		ResourceName: req.DeviceID,
		Action:       "Device activation denied",
		Details:      details,
		Success:      false,
		ErrorMessage: decision.Message(),
	})
	return decision.Err()
}

// Revoke deactivates one binding. Revoking a revoked binding succeeds
// without changing anything.
func (s *DeviceBindingService) Revoke(
	ctx context.Context,
	keyID, deviceID, assignmentID, actor string,
) (*models.Device, error) {
	device, err := s.store.RevokeDevice(ctx, keyID, deviceID, assignmentID, s.now())
	return s.revoked(ctx, device, err, actor)
}

// RevokeByID is the admin variant addressed by device record ID.
func (s *DeviceBindingService) RevokeByID(ctx context.Context, id, actor string) (*models.Device, error) {
	device, err := s.store.RevokeDeviceByID(ctx, id, s.now())
	return s.revoked(ctx, device, err, actor)
}

func (s *DeviceBindingService) revoked(
	ctx context.Context,
	device *models.Device,
	err error,
	actor string,
) (*models.Device, error) {
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, ErrDeviceNotFound
		}
		return nil, fmt.Errorf("revoke device: %w", err)
	}

	s.metrics.RecordDeviceRevoked(actor)
	s.audit.Log(ctx, AuditLogEntry{
		EventType:    models.EventDeviceRevoked,
		Severity:     models.SeverityWarning,
		ResourceType: models.ResourceDevice,
		ResourceID:   device.ID,
		ResourceName: device.DeviceID,
		Action:       "Device revoked",
		Details: models.AuditDetails{
			"key_id":        device.KeyID,
			"assignment_id": device.AssignmentID,
			"owner_user_id": device.UserID,
			"revoked_by":    actor,
		},
		Success: true,
	})
	return device, nil
}

// TouchLastActive refreshes the binding's last-active time in the
// background. Failures are logged and counted, never returned.
func (s *DeviceBindingService) TouchLastActive(keyID, deviceID, assignmentID string) {
	at := s.now()
	s.touches.Add(1)
	go func() {
		defer s.touches.Done()

		ctx, cancel := context.WithTimeout(context.Background(), s.touchTimeout)
		defer cancel()

		err := s.store.TouchDevice(ctx, keyID, deviceID, assignmentID, at)
		if err == nil || errors.Is(err, store.ErrRecordNotFound) {
			return
		}
		s.metrics.RecordTouchFailure()
		s.logger.Warn("failed to refresh device last-active time",
			zap.String("key_id", keyID),
			zap.String("device_id", deviceID),
			zap.String("assignment_id", assignmentID),
			zap.Error(err))
	}()
}

// Wait blocks until in-flight touches finish or ctx is done.
func (s *DeviceBindingService) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.touches.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
