package access

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-authgate/keygate/internal/core"
	"github.com/go-authgate/keygate/internal/models"
	"github.com/go-authgate/keygate/internal/store"
	"github.com/go-authgate/keygate/internal/token"
)

// ExpiryGrace is added to every stored expiry before comparing it with now,
// absorbing client/server clock skew.
const ExpiryGrace = 5 * time.Minute

// IsExpired reports whether expiresAt (plus ExpiryGrace) lies before now.
// A nil expiry never expires.
func IsExpired(expiresAt *time.Time, now time.Time) bool {
	if expiresAt == nil {
		return false
	}
	return now.After(expiresAt.Add(ExpiryGrace))
}

// Request is the input to Validate. UserID and DeviceID are optional.
type Request struct {
	ActivationKey string
	UserID        string
	DeviceID      string
}

// Decision is the outcome of a validation. Key and Assignment are populated
// as far as evaluation got, so callers can log context on denials too.
type Decision struct {
	Allowed    bool
	Reason     Reason
	Key        *models.ActivationKey
	Assignment *models.KeyAssignment
}

// Message returns the user-facing text for a denial.
func (d Decision) Message() string {
	return d.Reason.Message()
}

// Err converts a denial into a *DenialError, or nil when allowed.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	return &DenialError{Reason: d.Reason}
}

func allow(key *models.ActivationKey, assignment *models.KeyAssignment) Decision {
	return Decision{Allowed: true, Key: key, Assignment: assignment}
}

func deny(reason Reason, key *models.ActivationKey, assignment *models.KeyAssignment) Decision {
	return Decision{Reason: reason, Key: key, Assignment: assignment}
}

// Validator decides whether a (key, user, device) tuple may access the vault.
// It holds no state beyond its data source and clock.
type Validator struct {
	keys core.KeyReader
	now  func() time.Time
}

// Option configures a Validator.
type Option func(*Validator)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(v *Validator) {
		v.now = now
	}
}

// NewValidator creates a validator reading keys and assignments from keys
func NewValidator(keys core.KeyReader, opts ...Option) *Validator {
	v := &Validator{keys: keys, now: time.Now}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// loadKey runs the key checks shared by every variant: existence, active
// flag, and buffered expiry.
func (v *Validator) loadKey(
	ctx context.Context,
	activationKey string,
	now time.Time,
) (*models.ActivationKey, *Decision, error) {
	if activationKey == "" {
		d := deny(ReasonKeyNotFound, nil, nil)
		return nil, &d, nil
	}
	key, err := v.keys.GetKeyByValue(ctx, activationKey)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			d := deny(ReasonKeyNotFound, nil, nil)
			return nil, &d, nil
		}
		return nil, nil, fmt.Errorf("load activation key: %w", err)
	}
	if !key.IsActive {
		d := deny(ReasonKeyInactive, key, nil)
		return key, &d, nil
	}
	if IsExpired(key.ExpiresAt, now) {
		d := deny(ReasonKeyExpired, key, nil)
		return key, &d, nil
	}
	return key, nil, nil
}

// loadAssignment finds the ACTIVE assignment for (key, user) and applies the
// buffered expiry rule to it.
func (v *Validator) loadAssignment(
	ctx context.Context,
	key *models.ActivationKey,
	userID string,
	now time.Time,
) (*models.KeyAssignment, *Decision, error) {
	assignment, err := v.keys.GetAssignment(ctx, key.ID, userID, models.AssignmentActive)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			d := deny(ReasonNoAssignment, key, nil)
			return nil, &d, nil
		}
		return nil, nil, fmt.Errorf("load assignment: %w", err)
	}
	if IsExpired(assignment.ExpiresAt, now) {
		d := deny(ReasonAssignmentExpired, key, assignment)
		return assignment, &d, nil
	}
	return assignment, nil, nil
}

// Validate evaluates, in order: key exists, key active, key not expired,
// ACTIVE assignment for the user, assignment not expired, and device limit.
// The first failing check decides the reason. Without a UserID only the key
// checks run; without a DeviceID the limit check is skipped. A device that
// is already actively bound under the assignment always passes the limit
// check. Store failures are returned as errors, never as denials.
func (v *Validator) Validate(ctx context.Context, req Request) (Decision, error) {
	now := v.now()

	key, denied, err := v.loadKey(ctx, req.ActivationKey, now)
	if err != nil || denied != nil {
		return deref(denied), err
	}

	if req.UserID == "" {
		return allow(key, nil), nil
	}

	assignment, denied, err := v.loadAssignment(ctx, key, req.UserID, now)
	if err != nil || denied != nil {
		return deref(denied), err
	}

	if req.DeviceID != "" {
		active := key.ActiveDevicesFor(assignment.ID)
		if _, bound := active[req.DeviceID]; !bound && len(active) >= key.DeviceLimit {
			return deny(ReasonDeviceLimitReached, key, assignment), nil
		}
	}

	return allow(key, assignment), nil
}

// ValidateDevice is the user-less variant: key checks, then membership of
// deviceID in the key's device list regardless of assignment.
func (v *Validator) ValidateDevice(
	ctx context.Context,
	activationKey, deviceID string,
) (Decision, error) {
	key, denied, err := v.loadKey(ctx, activationKey, v.now())
	if err != nil || denied != nil {
		return deref(denied), err
	}

	device := key.FindDevice(deviceID)
	if device == nil {
		return deny(ReasonDeviceNotRegistered, key, nil), nil
	}
	if !device.IsActive {
		return deny(ReasonDeviceRevoked, key, nil), nil
	}
	return allow(key, nil), nil
}

// ValidateSession checks a verified session token against current state:
// the key checks, the user's ACTIVE assignment (which must be the one the
// token was issued for), and an active (deviceID, assignmentID) binding.
func (v *Validator) ValidateSession(
	ctx context.Context,
	claims token.SessionClaims,
) (Decision, error) {
	now := v.now()

	key, denied, err := v.loadKey(ctx, claims.ActivationKey, now)
	if err != nil || denied != nil {
		return deref(denied), err
	}

	assignment, denied, err := v.loadAssignment(ctx, key, claims.UserID, now)
	if err != nil || denied != nil {
		return deref(denied), err
	}
	if assignment.ID != claims.AssignmentID {
		return deny(ReasonNoAssignment, key, assignment), nil
	}

	device, ok := key.DeviceSet()[models.DeviceBindingKey{
		DeviceID:     claims.DeviceID,
		AssignmentID: claims.AssignmentID,
	}]
	if !ok {
		return deny(ReasonDeviceNotRegistered, key, assignment), nil
	}
	if !device.IsActive {
		return deny(ReasonDeviceRevoked, key, assignment), nil
	}

	return allow(key, assignment), nil
}

func deref(d *Decision) Decision {
	if d == nil {
		return Decision{}
	}
	return *d
}
