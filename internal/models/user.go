package models

import (
	"time"
)

// Role values
const (
	RoleAdmin = "ADMIN"
	RoleUser  = "USER"
)

// Auth source values
const (
	AuthSourceLocal   = "local"
	AuthSourceHTTPAPI = "http_api"
)

type User struct {
	ID           string `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Username     string `gorm:"uniqueIndex;not null" json:"username"`
	Email        string `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string `json:"-"` // empty for external users
	Role         string `gorm:"type:varchar(10);not null;default:'USER'" json:"role"`
	FullName     string `json:"full_name,omitempty"`
	IsActive     bool   `gorm:"not null" json:"is_active"`

	// External authentication support
	ExternalID string `gorm:"index" json:"-"`
	AuthSource string `gorm:"default:'local'" json:"auth_source"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsAdmin returns true if the user has admin role
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// IsExternal returns true if user authenticates via external provider
func (u *User) IsExternal() bool {
	return u.AuthSource != AuthSourceLocal && u.AuthSource != ""
}
