package services

import (
	"context"
	"errors"
	"strings"

	"github.com/go-authgate/keygate/internal/models"
	"github.com/go-authgate/keygate/internal/store"
)

const maxBulkCredentials = 500

var (
	ErrCredentialNotFound = errors.New("credential not found")
	ErrInvalidCredential  = errors.New("title, username, and password are required")
	ErrNoValidCredentials = errors.New("no valid credentials provided")
	ErrTooManyCredentials = errors.New("too many credentials in one request")
)

// CredentialInput is the editable part of a credential.
type CredentialInput struct {
	Title    string
	Username string
	Password string
	URL      string
	Notes    string
}

func (in CredentialInput) normalized() CredentialInput {
	in.Title = strings.TrimSpace(in.Title)
	in.Username = strings.TrimSpace(in.Username)
	in.Password = strings.TrimSpace(in.Password)
	in.URL = strings.TrimSpace(in.URL)
	return in
}

// CredentialService stores opaque secrets for their owner. Every method is
// scoped by ownerID; another user's ID behaves like a missing record.
type CredentialService struct {
	store *store.Store
	audit *AuditService
}

func NewCredentialService(s *store.Store, audit *AuditService) *CredentialService {
	return &CredentialService{store: s, audit: audit}
}

func (s *CredentialService) List(
	ctx context.Context,
	ownerID, search string,
) ([]models.Credential, error) {
	return s.store.ListCredentials(ctx, ownerID, strings.TrimSpace(search))
}

func (s *CredentialService) Get(ctx context.Context, ownerID, id string) (*models.Credential, error) {
	cred, err := s.store.GetCredential(ctx, ownerID, id)
	if errors.Is(err, store.ErrRecordNotFound) {
		return nil, ErrCredentialNotFound
	}
	return cred, err
}

func (s *CredentialService) Create(
	ctx context.Context,
	ownerID string,
	in CredentialInput,
) (*models.Credential, error) {
	in = in.normalized()
	if in.Title == "" || in.Username == "" || in.Password == "" {
		return nil, ErrInvalidCredential
	}

	cred := &models.Credential{
		UserID:   ownerID,
		Title:    in.Title,
		Username: in.Username,
		Password: in.Password,
		URL:      in.URL,
		Notes:    in.Notes,
	}
	if err := s.store.CreateCredential(ctx, cred); err != nil {
		return nil, err
	}

	s.logChange(ctx, models.EventCredentialCreated, cred.ID, cred.Title, "Credential created")
	return cred, nil
}

// BulkCreate inserts every input that has a username and password in one
// transaction. Inputs without a title use the username.
func (s *CredentialService) BulkCreate(
	ctx context.Context,
	ownerID string,
	inputs []CredentialInput,
) ([]*models.Credential, error) {
	if len(inputs) > maxBulkCredentials {
		return nil, ErrTooManyCredentials
	}

	creds := make([]*models.Credential, 0, len(inputs))
	for _, in := range inputs {
		in = in.normalized()
		if in.Username == "" || in.Password == "" {
			continue
		}
		if in.Title == "" {
			in.Title = in.Username
		}
		creds = append(creds, &models.Credential{
			UserID:   ownerID,
			Title:    in.Title,
			Username: in.Username,
			Password: in.Password,
			URL:      in.URL,
			Notes:    in.Notes,
		})
	}
	if len(creds) == 0 {
		return nil, ErrNoValidCredentials
	}

	if err := s.store.CreateCredentials(ctx, creds); err != nil {
		return nil, err
	}

	s.audit.Log(ctx, AuditLogEntry{
		EventType:    models.EventCredentialCreated,
		ResourceType: models.ResourceCredential,
		Action:       "Credentials imported",
		Details:      models.AuditDetails{"count": len(creds), "skipped": len(inputs) - len(creds)},
		Success:      true,
	})
	return creds, nil
}

func (s *CredentialService) Update(
	ctx context.Context,
	ownerID, id string,
	in CredentialInput,
) (*models.Credential, error) {
	in = in.normalized()
	if in.Title == "" || in.Username == "" || in.Password == "" {
		return nil, ErrInvalidCredential
	}

	cred, err := s.Get(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	cred.Title = in.Title
	cred.Username = in.Username
	cred.Password = in.Password
	cred.URL = in.URL
	cred.Notes = in.Notes

	if err := s.store.UpdateCredential(ctx, cred); err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, ErrCredentialNotFound
		}
		return nil, err
	}

	s.logChange(ctx, models.EventCredentialUpdated, cred.ID, cred.Title, "Credential updated")
	return cred, nil
}

func (s *CredentialService) Delete(ctx context.Context, ownerID, id string) error {
	if err := s.store.DeleteCredential(ctx, ownerID, id); err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return ErrCredentialNotFound
		}
		return err
	}
	s.logChange(ctx, models.EventCredentialDeleted, id, "", "Credential deleted")
	return nil
}

func (s *CredentialService) logChange(
	ctx context.Context,
	event models.EventType,
	id, title, action string,
) {
	s.audit.Log(ctx, AuditLogEntry{
		EventType:    event,
		ResourceType: models.ResourceCredential,
		ResourceID:   id,
		ResourceName: title,
		Action:       action,
		Success:      true,
	})
}
