package store

import (
	"context"
	"errors"
	"time"

	"github.com/go-authgate/keygate/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CreateAssignment assigns a key to a user. A key that has ever been
// assigned, in any status, is rejected with ErrDuplicateKeyAssignment.
func (s *Store) CreateAssignment(ctx context.Context, a *models.KeyAssignment) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var key models.ActivationKey
		if err := forUpdate(tx).Select("id").Where("id = ?", a.KeyID).First(&key).Error; err != nil {
			return notFound(err)
		}

		var existing int64
		if err := tx.Model(&models.KeyAssignment{}).
			Where("key_id = ?", a.KeyID).
			Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return ErrDuplicateKeyAssignment
		}

		if a.ID == "" {
			a.ID = uuid.New().String()
		}
		if a.Status == "" {
			a.Status = models.AssignmentActive
		}
		if err := tx.Create(a).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrDuplicateKeyAssignment
			}
			return err
		}
		return nil
	})
}

// GetAssignment finds the assignment of keyID to userID in the given status.
// An empty status means ACTIVE.
func (s *Store) GetAssignment(
	ctx context.Context,
	keyID, userID string,
	status models.AssignmentStatus,
) (*models.KeyAssignment, error) {
	if status == "" {
		status = models.AssignmentActive
	}
	var a models.KeyAssignment
	err := s.db.WithContext(ctx).
		Where("key_id = ? AND user_id = ? AND status = ?", keyID, userID, status).
		First(&a).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &a, nil
}

// GetAssignmentByID looks up an assignment by its primary key.
func (s *Store) GetAssignmentByID(ctx context.Context, id string) (*models.KeyAssignment, error) {
	var a models.KeyAssignment
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&a).Error; err != nil {
		return nil, notFound(err)
	}
	return &a, nil
}

// ListActiveAssignmentsForUser returns the user's ACTIVE assignments, newest
// first. Expiry is not checked here; callers decide what an expired one means.
func (s *Store) ListActiveAssignmentsForUser(
	ctx context.Context,
	userID string,
) ([]models.KeyAssignment, error) {
	var assignments []models.KeyAssignment
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND status = ?", userID, models.AssignmentActive).
		Order("assigned_at DESC").
		Find(&assignments).Error
	if err != nil {
		return nil, err
	}
	return assignments, nil
}

// AssignmentFilters narrows ListAssignments.
type AssignmentFilters struct {
	UserID string
	KeyID  string
	Status models.AssignmentStatus
}

func (s *Store) ListAssignments(
	ctx context.Context,
	params PaginationParams,
	filters AssignmentFilters,
) ([]models.KeyAssignment, PaginationResult, error) {
	base := func() *gorm.DB {
		query := s.db.WithContext(ctx).Model(&models.KeyAssignment{})
		if filters.UserID != "" {
			query = query.Where("user_id = ?", filters.UserID)
		}
		if filters.KeyID != "" {
			query = query.Where("key_id = ?", filters.KeyID)
		}
		if filters.Status != "" {
			query = query.Where("status = ?", filters.Status)
		}
		if params.Search != "" {
			like := "%" + params.Search + "%"
			query = query.Where("notes LIKE ?", like)
		}
		return query
	}

	var total int64
	if err := base().Count(&total).Error; err != nil {
		return nil, PaginationResult{}, err
	}

	var assignments []models.KeyAssignment
	err := base().
		Order("assigned_at DESC").
		Offset(params.Offset()).
		Limit(params.PageSize).
		Find(&assignments).Error
	if err != nil {
		return nil, PaginationResult{}, err
	}

	return assignments, CalculatePagination(total, params.Page, params.PageSize), nil
}

// AssignmentUpdate is a partial update. Nil fields are left unchanged.
type AssignmentUpdate struct {
	Status      *models.AssignmentStatus
	ExpiresAt   *time.Time
	ClearExpiry bool
	Notes       *string
	Metadata    *models.AssignmentMetadata
}

func (s *Store) UpdateAssignment(
	ctx context.Context,
	id string,
	u AssignmentUpdate,
) (*models.KeyAssignment, error) {
	updates := map[string]any{}
	if u.Status != nil {
		updates["status"] = *u.Status
	}
	if u.ClearExpiry {
		updates["expires_at"] = nil
	} else if u.ExpiresAt != nil {
		updates["expires_at"] = *u.ExpiresAt
	}
	if u.Notes != nil {
		updates["notes"] = *u.Notes
	}
	if u.Metadata != nil {
		updates["metadata"] = *u.Metadata
	}

	if len(updates) > 0 {
		res := s.db.WithContext(ctx).Model(&models.KeyAssignment{}).
			Where("id = ?", id).
			Updates(updates)
		if res.Error != nil {
			return nil, res.Error
		}
		if res.RowsAffected == 0 {
			return nil, ErrRecordNotFound
		}
	}
	return s.GetAssignmentByID(ctx, id)
}

// RevokeAssignment soft-deletes an assignment by moving it to REVOKED. The
// record is kept, so the key stays unassignable.
func (s *Store) RevokeAssignment(
	ctx context.Context,
	id, revokedBy string,
	at time.Time,
) (*models.KeyAssignment, error) {
	res := s.db.WithContext(ctx).Model(&models.KeyAssignment{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":     models.AssignmentRevoked,
			"revoked_at": at,
			"revoked_by": revokedBy,
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrRecordNotFound
	}
	return s.GetAssignmentByID(ctx, id)
}

// DeleteAssignment hard-deletes an assignment record.
func (s *Store) DeleteAssignment(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Where("id = ?", id).Delete(&models.KeyAssignment{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

// MarkAssignmentExpired moves an ACTIVE assignment to EXPIRED. It reports
// whether this call made the transition.
func (s *Store) MarkAssignmentExpired(ctx context.Context, id string) (bool, error) {
	res := s.db.WithContext(ctx).Model(&models.KeyAssignment{}).
		Where("id = ? AND status = ?", id, models.AssignmentActive).
		Update("status", models.AssignmentExpired)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// CountActiveAssignments is used by the gauge updater.
func (s *Store) CountActiveAssignments(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.KeyAssignment{}).
		Where("status = ?", models.AssignmentActive).
		Count(&count).Error
	return count, err
}
