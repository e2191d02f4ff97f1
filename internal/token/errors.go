package token

import "errors"

var (
	// ErrTokenGeneration indicates token generation failed
	ErrTokenGeneration = errors.New("failed to generate token")

	// ErrInvalidToken indicates a bad signature, algorithm, or encoding
	ErrInvalidToken = errors.New("invalid token")

	// ErrExpiredToken indicates the token has expired
	ErrExpiredToken = errors.New("token expired")

	// ErrMalformedClaims indicates the payload does not carry exactly the
	// session claim set
	ErrMalformedClaims = errors.New("malformed token claims")
)
