package auth

import (
	"context"

	"github.com/go-authgate/keygate/internal/core"
	"github.com/go-authgate/keygate/internal/models"

	"golang.org/x/crypto/bcrypt"
)

// UserLookup is the store method the local provider needs.
type UserLookup interface {
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
}

// LocalAuthProvider checks bcrypt password hashes in the users table.
type LocalAuthProvider struct {
	users UserLookup
}

var _ core.AuthProvider = (*LocalAuthProvider)(nil)

func NewLocalAuthProvider(users UserLookup) *LocalAuthProvider {
	return &LocalAuthProvider{users: users}
}

// Authenticate verifies credentials against the local database. Unknown
// users, external users and wrong passwords all yield ErrInvalidCredentials.
func (p *LocalAuthProvider) Authenticate(
	ctx context.Context,
	username, password string,
) (*core.AuthResult, error) {
	user, err := p.users.GetUserByUsername(ctx, username)
	if err != nil || user.PasswordHash == "" {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword(
		[]byte(user.PasswordHash),
		[]byte(password),
	); err != nil {
		return nil, ErrInvalidCredentials
	}

	if !user.IsActive {
		return nil, ErrAccountDisabled
	}

	return &core.AuthResult{
		Username: user.Username,
		Email:    user.Email,
		FullName: user.FullName,
		Success:  true,
	}, nil
}

func (p *LocalAuthProvider) Name() string {
	return models.AuthSourceLocal
}

// HashPassword returns the bcrypt hash stored for local users.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
