package access

import (
	"errors"
	"fmt"
)

// Reason is a stable policy denial code. Reasons and their messages reveal
// nothing secret and can be shown to end users as-is.
type Reason string

const (
	ReasonKeyNotFound         Reason = "KEY_NOT_FOUND"
	ReasonKeyInactive         Reason = "KEY_INACTIVE"
	ReasonKeyExpired          Reason = "KEY_EXPIRED"
	ReasonNoAssignment        Reason = "NO_ASSIGNMENT"
	ReasonAssignmentExpired   Reason = "ASSIGNMENT_EXPIRED"
	ReasonDeviceLimitReached  Reason = "DEVICE_LIMIT_REACHED"
	ReasonDeviceNotRegistered Reason = "DEVICE_NOT_REGISTERED"
	ReasonDeviceRevoked       Reason = "DEVICE_REVOKED"
)

var reasonMessages = map[Reason]string{
	ReasonKeyNotFound:         "Invalid activation key",
	ReasonKeyInactive:         "Activation key has been deactivated",
	ReasonKeyExpired:          "Activation key has expired",
	ReasonNoAssignment:        "This activation key is not assigned to your account. Please contact administrator.",
	ReasonAssignmentExpired:   "Your access to this activation key has expired. Please contact administrator.",
	ReasonDeviceLimitReached:  "Device limit reached for your assignment",
	ReasonDeviceNotRegistered: "Device not registered",
	ReasonDeviceRevoked:       "Device access has been revoked",
}

// Message returns the user-facing text for r.
func (r Reason) Message() string {
	if msg, ok := reasonMessages[r]; ok {
		return msg
	}
	return "Access denied"
}

// DenialError carries a policy denial through error returns.
type DenialError struct {
	Reason Reason
}

func (e *DenialError) Error() string {
	return fmt.Sprintf("access denied: %s", e.Reason)
}

// Is matches any *DenialError with the same reason, so callers can write
// errors.Is(err, &access.DenialError{Reason: access.ReasonKeyInactive}).
func (e *DenialError) Is(target error) bool {
	t, ok := target.(*DenialError)
	return ok && (t.Reason == "" || t.Reason == e.Reason)
}

// ReasonOf extracts the denial reason from err, or "" if err is not a denial.
func ReasonOf(err error) Reason {
	var de *DenialError
	if errors.As(err, &de) {
		return de.Reason
	}
	return ""
}
