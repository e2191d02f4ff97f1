package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// EventType represents the type of audit event
type EventType string

const (
	// Authentication events
	EventAuthenticationSuccess EventType = "AUTHENTICATION_SUCCESS"
	EventAuthenticationFailure EventType = "AUTHENTICATION_FAILURE"
	EventLogout                EventType = "LOGOUT"
	EventUserRegistered        EventType = "USER_REGISTERED"

	// Device binding events
	EventDeviceActivated   EventType = "DEVICE_ACTIVATED"
	EventDeviceReactivated EventType = "DEVICE_REACTIVATED"
	EventDeviceRevoked     EventType = "DEVICE_REVOKED"
	EventActivationDenied  EventType = "ACTIVATION_DENIED"

	// Session events
	EventSessionIssued EventType = "SESSION_ISSUED"
	EventSessionDenied EventType = "SESSION_DENIED"

	// Admin operations
	EventKeyCreated        EventType = "KEY_CREATED"
	EventKeyActivated      EventType = "KEY_ACTIVATED"
	EventKeyDeactivated    EventType = "KEY_DEACTIVATED"
	EventKeyDeleted        EventType = "KEY_DELETED"
	EventAssignmentCreated EventType = "ASSIGNMENT_CREATED"
	EventAssignmentUpdated EventType = "ASSIGNMENT_UPDATED"
	EventAssignmentRevoked EventType = "ASSIGNMENT_REVOKED"
	EventAssignmentDeleted EventType = "ASSIGNMENT_DELETED"
	EventAssignmentExpired EventType = "ASSIGNMENT_EXPIRED"

	// Credential events
	EventCredentialCreated EventType = "CREDENTIAL_CREATED"
	EventCredentialUpdated EventType = "CREDENTIAL_UPDATED"
	EventCredentialDeleted EventType = "CREDENTIAL_DELETED"

	// Audit events
	EventTypeAuditLogView     EventType = "AUDIT_LOG_VIEWED"
	EventTypeAuditLogExported EventType = "AUDIT_LOG_EXPORTED"
)

// EventSeverity represents the severity level of an audit event
type EventSeverity string

const (
	SeverityInfo     EventSeverity = "INFO"
	SeverityWarning  EventSeverity = "WARNING"
	SeverityError    EventSeverity = "ERROR"
	SeverityCritical EventSeverity = "CRITICAL"
)

// ResourceType represents the type of resource being operated on
type ResourceType string

const (
	ResourceUser          ResourceType = "USER"
	ResourceActivationKey ResourceType = "ACTIVATION_KEY"
	ResourceAssignment    ResourceType = "ASSIGNMENT"
	ResourceDevice        ResourceType = "DEVICE"
	ResourceSession       ResourceType = "SESSION"
	ResourceCredential    ResourceType = "CREDENTIAL"
)

// AuditDetails stores additional event-specific information as JSON
type AuditDetails map[string]any

// Value implements the driver.Valuer interface for database storage
func (a AuditDetails) Value() (driver.Value, error) {
	if a == nil {
		return nil, nil //nolint:nilnil // nil driver.Value represents SQL NULL, which is valid here
	}
	b, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements the sql.Scanner interface for database retrieval
func (a *AuditDetails) Scan(value any) error {
	if value == nil {
		*a = nil
		return nil
	}

	result := make(AuditDetails)
	if err := scanJSON(value, &result); err != nil {
		return fmt.Errorf("failed to unmarshal AuditDetails value: %w", err)
	}

	*a = result
	return nil
}

// AuditLog represents an audit log entry
type AuditLog struct {
	ID string `gorm:"primaryKey;type:varchar(36)" json:"id"`

	// Event information
	EventType EventType     `gorm:"type:varchar(50);index;not null" json:"event_type"`
	EventTime time.Time     `gorm:"index;not null"                  json:"event_time"`
	Severity  EventSeverity `gorm:"type:varchar(20);not null"       json:"severity"`

	// Actor information
	ActorUserID   string `gorm:"type:varchar(36);index" json:"actor_user_id"`
	ActorUsername string `gorm:"type:varchar(100)"      json:"actor_username"`
	ActorIP       string `gorm:"type:varchar(45);index" json:"actor_ip"` // Support IPv6

	// Resource information
	ResourceType ResourceType `gorm:"type:varchar(50);index" json:"resource_type"`
	ResourceID   string       `gorm:"type:varchar(36);index" json:"resource_id"`
	ResourceName string       `gorm:"type:varchar(255)"      json:"resource_name"`

	// Operation details
	Action       string       `gorm:"type:varchar(255);not null" json:"action"`
	Details      AuditDetails `gorm:"type:json"                  json:"details"`
	Success      bool         `gorm:"index;not null"             json:"success"`
	ErrorMessage string       `gorm:"type:text"                  json:"error_message,omitempty"`

	// Request metadata
	UserAgent     string `gorm:"type:varchar(500)" json:"user_agent,omitempty"`
	RequestPath   string `gorm:"type:varchar(500)" json:"request_path,omitempty"`
	RequestMethod string `gorm:"type:varchar(10)"  json:"request_method,omitempty"`

	// Timestamps (no UpdatedAt - immutable logs)
	CreatedAt time.Time `gorm:"index;not null" json:"created_at"`
}

// TableName specifies the table name for GORM
func (AuditLog) TableName() string {
	return "audit_logs"
}
