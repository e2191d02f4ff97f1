package core

import (
	"context"

	"github.com/go-authgate/keygate/internal/models"
)

// KeyReader is the read side of the key/assignment store that access
// decisions depend on. Lookups that find nothing return an error matching
// store.ErrRecordNotFound.
type KeyReader interface {
	GetKeyByValue(ctx context.Context, key string) (*models.ActivationKey, error)
	GetAssignment(
		ctx context.Context,
		keyID, userID string,
		status models.AssignmentStatus,
	) (*models.KeyAssignment, error)
}
