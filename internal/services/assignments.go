package services

import (
	"context"
	"errors"
	"time"

	"github.com/go-authgate/keygate/internal/models"
	"github.com/go-authgate/keygate/internal/store"
)

var (
	ErrAssignmentNotFound     = errors.New("assignment not found")
	ErrDuplicateKeyAssignment = errors.New("activation key already has an assignment")
	ErrInvalidAssignment      = errors.New("invalid assignment")
)

type AssignmentService struct {
	store *store.Store
	audit *AuditService
}

func NewAssignmentService(s *store.Store, audit *AuditService) *AssignmentService {
	return &AssignmentService{store: s, audit: audit}
}

// CreateAssignmentRequest assigns KeyID to UserID.
type CreateAssignmentRequest struct {
	UserID    string
	KeyID     string
	ExpiresAt *time.Time
	Notes     string
	Metadata  models.AssignmentMetadata
}

// CreateAssignment assigns a key to a USER account. A key holds at most one
// assignment record, revoked and expired ones included.
func (s *AssignmentService) CreateAssignment(
	ctx context.Context,
	req CreateAssignmentRequest,
	assignedBy string,
) (*models.KeyAssignment, error) {
	user, err := s.store.GetUserByID(ctx, req.UserID)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if user.IsAdmin() {
		return nil, errors.Join(ErrInvalidAssignment, errors.New("keys are assigned to USER accounts only"))
	}

	a := &models.KeyAssignment{
		UserID:     req.UserID,
		KeyID:      req.KeyID,
		AssignedAt: time.Now(),
		AssignedBy: assignedBy,
		Status:     models.AssignmentActive,
		ExpiresAt:  req.ExpiresAt,
		Notes:      req.Notes,
		Metadata:   req.Metadata,
	}
	if err := s.store.CreateAssignment(ctx, a); err != nil {
		switch {
		case errors.Is(err, store.ErrRecordNotFound):
			return nil, ErrKeyNotFound
		case errors.Is(err, store.ErrDuplicateKeyAssignment):
			return nil, ErrDuplicateKeyAssignment
		}
		return nil, err
	}

	s.audit.Log(ctx, AuditLogEntry{
		EventType:    models.EventAssignmentCreated,
		ResourceType: models.ResourceAssignment,
		ResourceID:   a.ID,
		ResourceName: user.Username,
		Action:       "Activation key assigned",
		Details: models.AuditDetails{
			"key_id":     a.KeyID,
			"user_id":    a.UserID,
			"expires_at": a.ExpiresAt,
		},
		Success: true,
	})
	return a, nil
}

func (s *AssignmentService) GetAssignment(ctx context.Context, id string) (*models.KeyAssignment, error) {
	a, err := s.store.GetAssignmentByID(ctx, id)
	if errors.Is(err, store.ErrRecordNotFound) {
		return nil, ErrAssignmentNotFound
	}
	return a, err
}

func (s *AssignmentService) ListAssignments(
	ctx context.Context,
	params store.PaginationParams,
	filters store.AssignmentFilters,
) ([]models.KeyAssignment, store.PaginationResult, error) {
	return s.store.ListAssignments(ctx, params, filters)
}

// UpdateAssignment patches status, expiry, notes or metadata. Setting the
// status to REVOKED goes through RevokeAssignment so the revocation is
// stamped.
func (s *AssignmentService) UpdateAssignment(
	ctx context.Context,
	id string,
	update store.AssignmentUpdate,
	actorID string,
) (*models.KeyAssignment, error) {
	details := models.AuditDetails{}
	if update.Status != nil {
		if !update.Status.Valid() {
			return nil, errors.Join(ErrInvalidAssignment, errors.New("unknown status"))
		}
		details["status"] = *update.Status
		if *update.Status == models.AssignmentRevoked {
			if _, err := s.RevokeAssignment(ctx, id, actorID); err != nil {
				return nil, err
			}
			update.Status = nil
		}
	}

	a, err := s.store.UpdateAssignment(ctx, id, update)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, ErrAssignmentNotFound
		}
		return nil, err
	}

	if update.ExpiresAt != nil || update.ClearExpiry {
		details["expires_at"] = a.ExpiresAt
	}
	if update.Notes != nil {
		details["notes_changed"] = true
	}
	if update.Metadata != nil {
		details["metadata_changed"] = true
	}
	s.audit.Log(ctx, AuditLogEntry{
		EventType:    models.EventAssignmentUpdated,
		ResourceType: models.ResourceAssignment,
		ResourceID:   a.ID,
		Action:       "Assignment updated",
		Details:      details,
		Success:      true,
	})
	return a, nil
}

// RevokeAssignment is the default admin delete: the row is kept with
// status REVOKED and every session under it fails validation.
func (s *AssignmentService) RevokeAssignment(
	ctx context.Context,
	id, revokedBy string,
) (*models.KeyAssignment, error) {
	a, err := s.store.RevokeAssignment(ctx, id, revokedBy, time.Now())
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, ErrAssignmentNotFound
		}
		return nil, err
	}

	s.audit.Log(ctx, AuditLogEntry{
		EventType:    models.EventAssignmentRevoked,
		Severity:     models.SeverityWarning,
		ResourceType: models.ResourceAssignment,
		ResourceID:   a.ID,
		Action:       "Assignment revoked",
		Details:      models.AuditDetails{"key_id": a.KeyID, "user_id": a.UserID},
		Success:      true,
	})
	return a, nil
}

// DeleteAssignment removes the assignment row, which frees the key for a new
// assignment. Devices bound under the old assignment never count toward
// the new one.
func (s *AssignmentService) DeleteAssignment(ctx context.Context, id string) error {
	if err := s.store.DeleteAssignment(ctx, id); err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return ErrAssignmentNotFound
		}
		return err
	}

	s.audit.Log(ctx, AuditLogEntry{
		EventType:    models.EventAssignmentDeleted,
		Severity:     models.SeverityWarning,
		ResourceType: models.ResourceAssignment,
		ResourceID:   id,
		Action:       "Assignment deleted",
		Success:      true,
	})
	return nil
}
