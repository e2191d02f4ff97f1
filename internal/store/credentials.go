package store

import (
	"context"
	"strings"

	"github.com/go-authgate/keygate/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ListCredentials returns the user's credentials, optionally filtered by a
// search over title, username and URL.
func (s *Store) ListCredentials(
	ctx context.Context,
	userID, search string,
) ([]models.Credential, error) {
	query := s.db.WithContext(ctx).Where("user_id = ?", userID)
	if search != "" {
		like := "%" + strings.ToLower(search) + "%"
		query = query.Where(
			"LOWER(title) LIKE ? OR LOWER(username) LIKE ? OR LOWER(url) LIKE ?",
			like, like, like,
		)
	}

	var creds []models.Credential
	if err := query.Order("updated_at DESC").Find(&creds).Error; err != nil {
		return nil, err
	}
	return creds, nil
}

func (s *Store) GetCredential(ctx context.Context, userID, id string) (*models.Credential, error) {
	var cred models.Credential
	err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&cred).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &cred, nil
}

func (s *Store) CreateCredential(ctx context.Context, cred *models.Credential) error {
	if cred.ID == "" {
		cred.ID = uuid.New().String()
	}
	return s.db.WithContext(ctx).Create(cred).Error
}

// CreateCredentials inserts a batch atomically.
func (s *Store) CreateCredentials(ctx context.Context, creds []*models.Credential) error {
	if len(creds) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, cred := range creds {
			if cred.ID == "" {
				cred.ID = uuid.New().String()
			}
		}
		return tx.CreateInBatches(creds, 100).Error
	})
}

// UpdateCredential overwrites the mutable fields of a credential the user owns.
func (s *Store) UpdateCredential(ctx context.Context, cred *models.Credential) error {
	res := s.db.WithContext(ctx).Model(&models.Credential{}).
		Where("id = ? AND user_id = ?", cred.ID, cred.UserID).
		Updates(map[string]any{
			"title":    cred.Title,
			"username": cred.Username,
			"password": cred.Password,
			"url":      cred.URL,
			"notes":    cred.Notes,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

func (s *Store) DeleteCredential(ctx context.Context, userID, id string) error {
	res := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&models.Credential{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}
