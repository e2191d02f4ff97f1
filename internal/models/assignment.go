package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"
)

// AssignmentStatus is the lifecycle state of a key assignment.
type AssignmentStatus string

const (
	AssignmentActive  AssignmentStatus = "ACTIVE"
	AssignmentExpired AssignmentStatus = "EXPIRED"
	AssignmentRevoked AssignmentStatus = "REVOKED"
)

// Valid reports whether s is a known status.
func (s AssignmentStatus) Valid() bool {
	switch s {
	case AssignmentActive, AssignmentExpired, AssignmentRevoked:
		return true
	}
	return false
}

// KeyAssignment binds one user to one activation key. KeyID is unique: a key
// is assigned at most once over its lifetime.
type KeyAssignment struct {
	ID          string             `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID      string             `gorm:"type:varchar(36);not null;index" json:"user_id"`
	KeyID       string             `gorm:"type:varchar(36);not null;uniqueIndex" json:"key_id"`
	AssignedAt  time.Time          `gorm:"not null" json:"assigned_at"`
	AssignedBy  string             `gorm:"type:varchar(36)" json:"assigned_by"`
	Status      AssignmentStatus   `gorm:"type:varchar(10);not null;default:'ACTIVE';index" json:"status"`
	ExpiresAt   *time.Time         `json:"expires_at,omitempty"`
	Notes       string             `gorm:"type:text" json:"notes,omitempty"`
	Metadata    AssignmentMetadata `gorm:"type:json" json:"metadata"`
	DeviceCount int                `gorm:"not null;default:0" json:"device_count"`
	LastUsedAt  *time.Time         `json:"last_used_at,omitempty"`
	RevokedAt   *time.Time         `json:"revoked_at,omitempty"`
	RevokedBy   string             `gorm:"type:varchar(36)" json:"revoked_by,omitempty"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
}

func (KeyAssignment) TableName() string {
	return "key_assignments"
}

// AssignmentMetadata is free-form admin context for an assignment.
type AssignmentMetadata struct {
	Department string            `json:"department,omitempty"`
	Project    string            `json:"project,omitempty"`
	Priority   string            `json:"priority,omitempty"`
	Extra      map[string]string `json:"extra,omitempty"`
}

// Value implements the driver.Valuer interface for database storage
func (m AssignmentMetadata) Value() (driver.Value, error) {
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements the sql.Scanner interface for database retrieval
func (m *AssignmentMetadata) Scan(value any) error {
	*m = AssignmentMetadata{}
	if value == nil {
		return nil
	}
	return scanJSON(value, m)
}
