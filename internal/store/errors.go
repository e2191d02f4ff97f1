package store

import (
	"errors"

	"gorm.io/gorm"
)

var (
	// ErrUsernameConflict is returned when a username already exists
	ErrUsernameConflict = errors.New("username already exists")

	// ErrEmailConflict is returned when an email already exists
	ErrEmailConflict = errors.New("email already exists")

	// ErrRecordNotFound wraps GORM's not found error for consistency
	ErrRecordNotFound = errors.New("record not found")

	// ErrDuplicateKeyAssignment is returned when a key already has an
	// assignment in any status.
	ErrDuplicateKeyAssignment = errors.New("activation key already has an assignment")

	// ErrDeviceLimitReached is returned by BindDevice when the assignment
	// already holds deviceLimit active bindings.
	ErrDeviceLimitReached = errors.New("device limit reached")

	// ErrConcurrentUpdate is returned when the key's version changed between
	// read and write (0 rows updated).
	ErrConcurrentUpdate = errors.New("activation key modified concurrently")

	// ErrKeyExists is returned when a key string is already taken.
	ErrKeyExists = errors.New("activation key already exists")

	// ErrKeyAssigned is returned when deleting a key that is still assigned.
	ErrKeyAssigned = errors.New("activation key is assigned")
)

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrRecordNotFound
	}
	return err
}
