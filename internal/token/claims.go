package token

import (
	"fmt"
	"time"
)

// Claim names carried in the JWT payload.
const (
	ClaimDeviceID      = "device_id"
	ClaimActivationKey = "activation_key"
	ClaimUserID        = "user_id"
	ClaimAssignmentID  = "assignment_id"
	claimIssuedAt      = "iat"
	claimExpiresAt     = "exp"
	claimIssuer        = "iss"
)

// SessionClaims is the closed claim set of a session token.
type SessionClaims struct {
	DeviceID      string    `json:"device_id"`
	ActivationKey string    `json:"activation_key"`
	UserID        string    `json:"user_id"`
	AssignmentID  string    `json:"assignment_id"`
	IssuedAt      time.Time `json:"issued_at,omitzero"`
	ExpiresAt     time.Time `json:"expires_at,omitzero"`
}

// Validate checks that every identity claim is present.
func (c SessionClaims) Validate() error {
	fields := [...]struct{ name, value string }{
		{ClaimDeviceID, c.DeviceID},
		{ClaimActivationKey, c.ActivationKey},
		{ClaimUserID, c.UserID},
		{ClaimAssignmentID, c.AssignmentID},
	}
	for _, f := range fields {
		if f.value == "" {
			return fmt.Errorf("%w: %s is empty", ErrMalformedClaims, f.name)
		}
	}
	return nil
}

// SameSubject reports whether two claim sets identify the same binding,
// ignoring timestamps.
func (c SessionClaims) SameSubject(other SessionClaims) bool {
	return c.DeviceID == other.DeviceID &&
		c.ActivationKey == other.ActivationKey &&
		c.UserID == other.UserID &&
		c.AssignmentID == other.AssignmentID
}
