package core

import "context"

// AuthResult is what a password backend reports for a successful login.
type AuthResult struct {
	Username   string
	ExternalID string // set by external providers only
	Email      string
	FullName   string
	Success    bool
}

// AuthProvider verifies a username/password pair against one backend
// (the local user table or an external HTTP API).
type AuthProvider interface {
	Authenticate(ctx context.Context, username, password string) (*AuthResult, error)
	Name() string
}
