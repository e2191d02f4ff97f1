package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"
)

type ActivationKey struct {
	ID          string     `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Key         string     `gorm:"column:activation_key;uniqueIndex;not null" json:"key"`
	DeviceLimit int        `gorm:"not null;default:10" json:"device_limit"`
	UsedDevices int        `gorm:"not null;default:0" json:"used_devices"`
	IsActive    bool       `gorm:"not null" json:"is_active"`
	ExpiresAt   *time.Time `gorm:"index" json:"expires_at,omitempty"`
	Notes       string     `gorm:"type:text" json:"notes,omitempty"`
	CreatedBy   string     `gorm:"type:varchar(36)" json:"created_by,omitempty"`
	Version     int64      `gorm:"not null;default:0" json:"-"`
	Devices     []Device   `gorm:"foreignKey:KeyID;constraint:OnDelete:CASCADE" json:"devices,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func (ActivationKey) TableName() string {
	return "activation_keys"
}

// DeviceBindingKey identifies a binding within one key's device list.
type DeviceBindingKey struct {
	DeviceID     string
	AssignmentID string
}

// DeviceSet indexes the key's devices by (deviceID, assignmentID).
func (k *ActivationKey) DeviceSet() map[DeviceBindingKey]*Device {
	set := make(map[DeviceBindingKey]*Device, len(k.Devices))
	for i := range k.Devices {
		d := &k.Devices[i]
		set[d.BindingKey()] = d
	}
	return set
}

// ActiveDevicesFor returns the active devices bound under the given assignment.
func (k *ActivationKey) ActiveDevicesFor(assignmentID string) map[string]*Device {
	active := make(map[string]*Device)
	for i := range k.Devices {
		d := &k.Devices[i]
		if d.AssignmentID == assignmentID && d.IsActive {
			active[d.DeviceID] = d
		}
	}
	return active
}

// FindDevice returns the first device with the given client device ID,
// regardless of assignment. Used by the legacy device check.
func (k *ActivationKey) FindDevice(deviceID string) *Device {
	for i := range k.Devices {
		if k.Devices[i].DeviceID == deviceID {
			return &k.Devices[i]
		}
	}
	return nil
}

type Device struct {
	ID           string     `gorm:"primaryKey;type:varchar(36)" json:"id"`
	KeyID        string     `gorm:"type:varchar(36);not null;uniqueIndex:idx_device_binding,priority:1" json:"key_id"`
	DeviceID     string     `gorm:"type:varchar(255);not null;uniqueIndex:idx_device_binding,priority:2" json:"device_id"`
	AssignmentID string     `gorm:"type:varchar(36);not null;uniqueIndex:idx_device_binding,priority:3;index" json:"assignment_id"`
	UserID       string     `gorm:"type:varchar(36);not null;index" json:"user_id"`
	RegisteredAt time.Time  `gorm:"not null" json:"registered_at"`
	LastActiveAt time.Time  `gorm:"not null" json:"last_active_at"`
	IsActive     bool       `gorm:"not null" json:"is_active"`
	RevokedAt    *time.Time `json:"revoked_at,omitempty"`
	DeviceInfo   DeviceInfo `gorm:"type:json" json:"device_info"`
}

func (Device) TableName() string {
	return "devices"
}

// BindingKey returns the (deviceID, assignmentID) identity of the device.
func (d *Device) BindingKey() DeviceBindingKey {
	return DeviceBindingKey{DeviceID: d.DeviceID, AssignmentID: d.AssignmentID}
}

// DeviceInfo is free-form client metadata captured at bind time.
type DeviceInfo struct {
	UserAgent string            `json:"user_agent,omitempty"`
	IP        string            `json:"ip,omitempty"`
	Platform  string            `json:"platform,omitempty"`
	Extra     map[string]string `json:"extra,omitempty"`
}

// Value implements the driver.Valuer interface for database storage
func (d DeviceInfo) Value() (driver.Value, error) {
	b, err := json.Marshal(d)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements the sql.Scanner interface for database retrieval
func (d *DeviceInfo) Scan(value any) error {
	*d = DeviceInfo{}
	if value == nil {
		return nil
	}
	return scanJSON(value, d)
}
