package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-authgate/keygate/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// forUpdate row-locks the selected key on PostgreSQL. SQLite drops the
// clause and relies on its single writer.
func forUpdate(tx *gorm.DB) *gorm.DB {
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

func preloadDevices(db *gorm.DB) *gorm.DB {
	return db.Preload("Devices", func(db *gorm.DB) *gorm.DB {
		return db.Order("registered_at ASC, id ASC")
	})
}

// CreateKey inserts a new activation key.
func (s *Store) CreateKey(ctx context.Context, key *models.ActivationKey) error {
	if key.ID == "" {
		key.ID = uuid.New().String()
	}
	if err := s.db.WithContext(ctx).Omit("Devices").Create(key).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("%w: %q", ErrKeyExists, key.Key)
		}
		return err
	}
	return nil
}

// GetKeyByValue loads a key and its devices by the key string.
func (s *Store) GetKeyByValue(ctx context.Context, value string) (*models.ActivationKey, error) {
	var key models.ActivationKey
	err := preloadDevices(s.db.WithContext(ctx)).
		Where("activation_key = ?", value).
		First(&key).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &key, nil
}

// GetKeyByID loads a key and its devices by primary key.
func (s *Store) GetKeyByID(ctx context.Context, id string) (*models.ActivationKey, error) {
	var key models.ActivationKey
	if err := preloadDevices(s.db.WithContext(ctx)).Where("id = ?", id).First(&key).Error; err != nil {
		return nil, notFound(err)
	}
	return &key, nil
}

// ListKeys returns keys ordered by creation time, newest first.
func (s *Store) ListKeys(
	ctx context.Context,
	params PaginationParams,
) ([]models.ActivationKey, PaginationResult, error) {
	base := func() *gorm.DB {
		query := s.db.WithContext(ctx).Model(&models.ActivationKey{})
		if params.Search != "" {
			like := "%" + params.Search + "%"
			query = query.Where("activation_key LIKE ? OR notes LIKE ?", like, like)
		}
		return query
	}

	var total int64
	if err := base().Count(&total).Error; err != nil {
		return nil, PaginationResult{}, err
	}

	var keys []models.ActivationKey
	err := preloadDevices(base()).
		Order("created_at DESC").
		Offset(params.Offset()).
		Limit(params.PageSize).
		Find(&keys).Error
	if err != nil {
		return nil, PaginationResult{}, err
	}

	return keys, CalculatePagination(total, params.Page, params.PageSize), nil
}

// SetKeyActive toggles the key's active flag.
func (s *Store) SetKeyActive(
	ctx context.Context,
	id string,
	active bool,
) (*models.ActivationKey, error) {
	res := s.db.WithContext(ctx).Model(&models.ActivationKey{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"is_active": active,
			"version":   gorm.Expr("version + 1"),
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrRecordNotFound
	}
	return s.GetKeyByID(ctx, id)
}

// DeleteKey removes an unassigned key and its device history.
func (s *Store) DeleteKey(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var assigned int64
		if err := tx.Model(&models.KeyAssignment{}).Where("key_id = ?", id).Count(&assigned).Error; err != nil {
			return err
		}
		if assigned > 0 {
			return ErrKeyAssigned
		}
		if err := tx.Where("key_id = ?", id).Delete(&models.Device{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&models.ActivationKey{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrRecordNotFound
		}
		return nil
	})
}

// bumpKeyVersion increments the key's version, failing when the key is gone.
func bumpKeyVersion(tx *gorm.DB, keyID string) error {
	res := tx.Model(&models.ActivationKey{}).
		Where("id = ?", keyID).
		Update("version", gorm.Expr("version + 1"))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

// AppendDevice adds a device record to the key's device list.
func (s *Store) AppendDevice(ctx context.Context, keyID string, device *models.Device) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := bumpKeyVersion(tx, keyID); err != nil {
			return err
		}
		device.KeyID = keyID
		if device.ID == "" {
			device.ID = uuid.New().String()
		}
		return tx.Create(device).Error
	})
}

// IncrementUsedDevices bumps the key's cached used-device counter.
func (s *Store) IncrementUsedDevices(ctx context.Context, keyID string) error {
	res := s.db.WithContext(ctx).Model(&models.ActivationKey{}).
		Where("id = ?", keyID).
		Updates(map[string]any{
			"used_devices": gorm.Expr("used_devices + 1"),
			"version":      gorm.Expr("version + 1"),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

// SetDeviceActive flips the active flag of one (deviceID, assignmentID)
// binding. Deactivation stamps revoked_at, activation clears it.
func (s *Store) SetDeviceActive(
	ctx context.Context,
	keyID, deviceID, assignmentID string,
	active bool,
	at time.Time,
) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		updates := map[string]any{"is_active": active}
		if active {
			updates["revoked_at"] = nil
			updates["last_active_at"] = at
		} else {
			updates["revoked_at"] = at
		}
		res := tx.Model(&models.Device{}).
			Where("key_id = ? AND device_id = ? AND assignment_id = ?", keyID, deviceID, assignmentID).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrRecordNotFound
		}
		return bumpKeyVersion(tx, keyID)
	})
}

// BindParams describes one bind attempt.
type BindParams struct {
	KeyID        string
	AssignmentID string
	UserID       string
	DeviceID     string
	DeviceInfo   models.DeviceInfo
	Now          time.Time
}

// BindResult reports what BindDevice did.
type BindResult struct {
	Device      *models.Device
	NewlyBound  bool // a new (deviceID, assignmentID) record was inserted
	Reactivated bool // a revoked binding was made active again
	ActiveCount int  // active bindings for the assignment after the bind
	Limit       int
}

// BindDevice registers or reactivates a device under an assignment. The
// limit check and the write run in one transaction guarded by a
// version-conditional update of the key row. A version mismatch returns
// ErrConcurrentUpdate so the caller can retry with a fresh read.
func (s *Store) BindDevice(ctx context.Context, p BindParams) (*BindResult, error) {
	var result *BindResult

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var key models.ActivationKey
		if err := forUpdate(tx).Where("id = ?", p.KeyID).First(&key).Error; err != nil {
			return notFound(err)
		}

		var devices []models.Device
		if err := tx.Where("key_id = ? AND assignment_id = ?", key.ID, p.AssignmentID).
			Find(&devices).Error; err != nil {
			return err
		}

		active := 0
		var existing *models.Device
		for i := range devices {
			if devices[i].IsActive {
				active++
			}
			if devices[i].DeviceID == p.DeviceID {
				existing = &devices[i]
			}
		}

		result = &BindResult{Limit: key.DeviceLimit, ActiveCount: active}

		// Already active: refresh only, counters untouched.
		if existing != nil && existing.IsActive {
			if err := tx.Model(existing).Updates(map[string]any{
				"last_active_at": p.Now,
				"device_info":    p.DeviceInfo,
			}).Error; err != nil {
				return err
			}
			existing.LastActiveAt = p.Now
			existing.DeviceInfo = p.DeviceInfo
			result.Device = existing
			return touchAssignment(tx, p.AssignmentID, p.Now, 0)
		}

		if active >= key.DeviceLimit {
			return ErrDeviceLimitReached
		}

		usedDelta := 0
		if existing == nil {
			usedDelta = 1
		}
		res := tx.Model(&models.ActivationKey{}).
			Where("id = ? AND version = ?", key.ID, key.Version).
			Updates(map[string]any{
				"version":      gorm.Expr("version + 1"),
				"used_devices": gorm.Expr("used_devices + ?", usedDelta),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrConcurrentUpdate
		}

		if existing != nil {
			if err := tx.Model(existing).Updates(map[string]any{
				"is_active":      true,
				"revoked_at":     nil,
				"last_active_at": p.Now,
				"device_info":    p.DeviceInfo,
			}).Error; err != nil {
				return err
			}
			existing.IsActive = true
			existing.RevokedAt = nil
			existing.LastActiveAt = p.Now
			existing.DeviceInfo = p.DeviceInfo
			result.Device = existing
			result.Reactivated = true
		} else {
			device := &models.Device{
				ID:           uuid.New().String(),
				KeyID:        key.ID,
				DeviceID:     p.DeviceID,
				UserID:       p.UserID,
				AssignmentID: p.AssignmentID,
				RegisteredAt: p.Now,
				LastActiveAt: p.Now,
				IsActive:     true,
				DeviceInfo:   p.DeviceInfo,
			}
			if err := tx.Create(device).Error; err != nil {
				if errors.Is(err, gorm.ErrDuplicatedKey) {
					return ErrConcurrentUpdate
				}
				return err
			}
			result.Device = device
			result.NewlyBound = true
		}

		result.ActiveCount = active + 1
		return touchAssignment(tx, p.AssignmentID, p.Now, 1)
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// touchAssignment stamps last_used_at and adjusts device_count by delta.
func touchAssignment(tx *gorm.DB, assignmentID string, at time.Time, delta int) error {
	updates := map[string]any{"last_used_at": at}
	if delta != 0 {
		updates["device_count"] = gorm.Expr("device_count + ?", delta)
	}
	return tx.Model(&models.KeyAssignment{}).
		Where("id = ?", assignmentID).
		Updates(updates).Error
}

// RevokeDevice deactivates one binding and decrements the assignment's live
// device count. Revoking an already revoked binding is a no-op.
func (s *Store) RevokeDevice(
	ctx context.Context,
	keyID, deviceID, assignmentID string,
	at time.Time,
) (*models.Device, error) {
	var device models.Device
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where(
			"key_id = ? AND device_id = ? AND assignment_id = ?",
			keyID, deviceID, assignmentID,
		).First(&device).Error; err != nil {
			return notFound(err)
		}
		return revokeDevice(tx, &device, at)
	})
	if err != nil {
		return nil, err
	}
	return &device, nil
}

// RevokeDeviceByID revokes a binding by its record ID.
func (s *Store) RevokeDeviceByID(ctx context.Context, id string, at time.Time) (*models.Device, error) {
	var device models.Device
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", id).First(&device).Error; err != nil {
			return notFound(err)
		}
		return revokeDevice(tx, &device, at)
	})
	if err != nil {
		return nil, err
	}
	return &device, nil
}

func revokeDevice(tx *gorm.DB, device *models.Device, at time.Time) error {
	if !device.IsActive {
		return nil
	}
	if err := tx.Model(device).Updates(map[string]any{
		"is_active":  false,
		"revoked_at": at,
	}).Error; err != nil {
		return err
	}
	device.IsActive = false
	device.RevokedAt = &at

	if err := tx.Model(&models.KeyAssignment{}).
		Where("id = ?", device.AssignmentID).
		Update("device_count", gorm.Expr("CASE WHEN device_count > 0 THEN device_count - 1 ELSE 0 END")).
		Error; err != nil {
		return err
	}
	return bumpKeyVersion(tx, device.KeyID)
}

// TouchDevice refreshes last_active_at on an active binding and the owning
// assignment's last_used_at.
func (s *Store) TouchDevice(
	ctx context.Context,
	keyID, deviceID, assignmentID string,
	at time.Time,
) error {
	db := s.db.WithContext(ctx)
	res := db.Model(&models.Device{}).
		Where("key_id = ? AND device_id = ? AND assignment_id = ? AND is_active = ?",
			keyID, deviceID, assignmentID, true).
		Update("last_active_at", at)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return db.Model(&models.KeyAssignment{}).
		Where("id = ?", assignmentID).
		Update("last_used_at", at).Error
}

// CountActiveDevices is used by the gauge updater.
func (s *Store) CountActiveDevices(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Device{}).Where("is_active = ?", true).Count(&count).Error
	return count, err
}

// CountActiveKeys is used by the gauge updater.
func (s *Store) CountActiveKeys(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.ActivationKey{}).Where("is_active = ?", true).Count(&count).Error
	return count, err
}
