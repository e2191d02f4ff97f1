package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-authgate/keygate/internal/models"
	"github.com/go-authgate/keygate/internal/store"
	"github.com/go-authgate/keygate/internal/util"
)

const (
	MinDeviceLimit = 1
	MaxDeviceLimit = 100

	keyPrefix       = "KEY_"
	keySuffixLength = 8
	keyGenAttempts  = 3
)

var (
	ErrInvalidDeviceLimit = fmt.Errorf("device limit must be between %d and %d", MinDeviceLimit, MaxDeviceLimit)
	ErrKeyNotFound        = errors.New("activation key not found")
	ErrKeyAssigned        = errors.New("activation key is assigned and cannot be deleted")
	ErrKeyExists          = errors.New("activation key already exists")
)

// GenerateActivationKey returns KEY_<unix millis>_<8 upper-case alphanumerics>.
func GenerateActivationKey(now time.Time) (string, error) {
	suffix, err := util.RandomString(util.UpperAlphanumeric, keySuffixLength)
	if err != nil {
		return "", fmt.Errorf("generate activation key: %w", err)
	}
	return keyPrefix + strconv.FormatInt(now.UnixMilli(), 10) + "_" + suffix, nil
}

type KeyService struct {
	store        *store.Store
	audit        *AuditService
	defaultLimit int
}

func NewKeyService(
	s *store.Store,
	audit *AuditService,
	defaultLimit int,
) *KeyService {
	if defaultLimit < MinDeviceLimit || defaultLimit > MaxDeviceLimit {
		defaultLimit = 10
	}
	return &KeyService{
		store:        s,
		audit:        audit,
		defaultLimit: defaultLimit,
	}
}

// CreateKeyRequest describes a new key. A zero DeviceLimit takes the
// configured default; an empty Key is generated.
type CreateKeyRequest struct {
	Key         string
	DeviceLimit int
	ExpiresAt   *time.Time
	Notes       string
}

func (s *KeyService) CreateKey(
	ctx context.Context,
	req CreateKeyRequest,
	createdBy string,
) (*models.ActivationKey, error) {
	limit := req.DeviceLimit
	if limit == 0 {
		limit = s.defaultLimit
	}
	if limit < MinDeviceLimit || limit > MaxDeviceLimit {
		return nil, ErrInvalidDeviceLimit
	}

	key := &models.ActivationKey{
		Key:         strings.TrimSpace(req.Key),
		DeviceLimit: limit,
		IsActive:    true,
		ExpiresAt:   req.ExpiresAt,
		Notes:       req.Notes,
		CreatedBy:   createdBy,
	}

	explicit := key.Key != ""
	var err error
	for attempt := 0; attempt < keyGenAttempts; attempt++ {
		if !explicit {
			if key.Key, err = GenerateActivationKey(time.Now()); err != nil {
				return nil, err
			}
		}
		key.ID = ""
		err = s.store.CreateKey(ctx, key)
		if err == nil || explicit || !errors.Is(err, store.ErrKeyExists) {
			break
		}
	}
	if err != nil {
		if errors.Is(err, store.ErrKeyExists) {
			return nil, ErrKeyExists
		}
		return nil, err
	}

	s.audit.Log(ctx, AuditLogEntry{
		EventType:    models.EventKeyCreated,
		ResourceType: models.ResourceActivationKey,
		ResourceID:   key.ID,
		ResourceName: key.Key,
		Action:       "Activation key created",
		Details: models.AuditDetails{
			"device_limit": key.DeviceLimit,
			"expires_at":   key.ExpiresAt,
		},
		Success: true,
	})
	return key, nil
}

func (s *KeyService) GetKey(ctx context.Context, id string) (*models.ActivationKey, error) {
	key, err := s.store.GetKeyByID(ctx, id)
	if errors.Is(err, store.ErrRecordNotFound) {
		return nil, ErrKeyNotFound
	}
	return key, err
}

func (s *KeyService) ListKeys(
	ctx context.Context,
	params store.PaginationParams,
) ([]models.ActivationKey, store.PaginationResult, error) {
	return s.store.ListKeys(ctx, params)
}

// SetKeyActive toggles a key. Deactivation takes effect on the next
// session validation of every device bound to it.
func (s *KeyService) SetKeyActive(
	ctx context.Context,
	id string,
	active bool,
) (*models.ActivationKey, error) {
	key, err := s.store.SetKeyActive(ctx, id, active)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, ErrKeyNotFound
		}
		return nil, err
	}

	event, action := models.EventKeyActivated, "Activation key activated"
	if !active {
		event, action = models.EventKeyDeactivated, "Activation key deactivated"
	}
	s.audit.Log(ctx, AuditLogEntry{
		EventType:    event,
		ResourceType: models.ResourceActivationKey,
		ResourceID:   key.ID,
		ResourceName: key.Key,
		Action:       action,
		Success:      true,
	})
	return key, nil
}

// DeleteKey removes a key that was never assigned.
func (s *KeyService) DeleteKey(ctx context.Context, id string) error {
	if err := s.store.DeleteKey(ctx, id); err != nil {
		switch {
		case errors.Is(err, store.ErrRecordNotFound):
			return ErrKeyNotFound
		case errors.Is(err, store.ErrKeyAssigned):
			return ErrKeyAssigned
		}
		return err
	}

	s.audit.Log(ctx, AuditLogEntry{
		EventType:    models.EventKeyDeleted,
		ResourceType: models.ResourceActivationKey,
		ResourceID:   id,
		Action:       "Activation key deleted",
		Success:      true,
	})
	return nil
}
