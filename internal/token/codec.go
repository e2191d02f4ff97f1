package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTTL is the absolute lifetime of a session token.
const DefaultTTL = 7 * 24 * time.Hour

// IssuedToken is a signed session token and its validity window.
type IssuedToken struct {
	Token     string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Codec issues and verifies HS256 session tokens. It never reads headers or
// cookies; callers hand it the raw token string.
type Codec struct {
	secret []byte
	ttl    time.Duration
	issuer string
	now    func() time.Time
}

// Option configures a Codec.
type Option func(*Codec)

// WithTTL overrides DefaultTTL.
func WithTTL(ttl time.Duration) Option {
	return func(c *Codec) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithIssuer sets the iss claim and requires it on verify.
func WithIssuer(issuer string) Option {
	return func(c *Codec) {
		c.issuer = issuer
	}
}

// WithClock replaces time.Now for issue and expiry checks.
func WithClock(now func() time.Time) Option {
	return func(c *Codec) {
		c.now = now
	}
}

// NewCodec creates a session token codec signing with secret
func NewCodec(secret string, opts ...Option) *Codec {
	c := &Codec{
		secret: []byte(secret),
		ttl:    DefaultTTL,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// TTL returns the configured token lifetime.
func (c *Codec) TTL() time.Duration {
	return c.ttl
}

// Issue signs the identity claims with the current time and a fixed expiry.
// Output depends only on secret, claims and clock.
func (c *Codec) Issue(claims SessionClaims) (*IssuedToken, error) {
	if err := claims.Validate(); err != nil {
		return nil, err
	}

	issuedAt := c.now().Truncate(time.Second)
	expiresAt := issuedAt.Add(c.ttl)

	mc := jwt.MapClaims{
		ClaimDeviceID:      claims.DeviceID,
		ClaimActivationKey: claims.ActivationKey,
		ClaimUserID:        claims.UserID,
		ClaimAssignmentID:  claims.AssignmentID,
		claimIssuedAt:      issuedAt.Unix(),
		claimExpiresAt:     expiresAt.Unix(),
	}
	if c.issuer != "" {
		mc[claimIssuer] = c.issuer
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, mc).SignedString(c.secret)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenGeneration, err)
	}

	return &IssuedToken{
		Token:     signed,
		IssuedAt:  issuedAt,
		ExpiresAt: expiresAt,
	}, nil
}

// Verify checks signature, algorithm and expiry, then decodes the closed
// claim set. Unknown, missing, or mistyped claims yield ErrMalformedClaims.
func (c *Codec) Verify(tokenString string) (*SessionClaims, error) {
	if tokenString == "" {
		return nil, ErrInvalidToken
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(c.now),
		jwt.WithExpirationRequired(),
	}
	if c.issuer != "" {
		opts = append(opts, jwt.WithIssuer(c.issuer))
	}

	mc := jwt.MapClaims{}
	tok, err := jwt.ParseWithClaims(tokenString, mc, func(*jwt.Token) (any, error) {
		return c.secret, nil
	}, opts...)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrExpiredToken
		case errors.Is(err, jwt.ErrTokenRequiredClaimMissing),
			errors.Is(err, jwt.ErrInvalidType):
			return nil, fmt.Errorf("%w: %v", ErrMalformedClaims, err)
		default:
			return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
		}
	}
	if !tok.Valid {
		return nil, ErrInvalidToken
	}

	return c.decode(mc)
}

func (c *Codec) decode(mc jwt.MapClaims) (*SessionClaims, error) {
	allowed := map[string]bool{
		ClaimDeviceID:      true,
		ClaimActivationKey: true,
		ClaimUserID:        true,
		ClaimAssignmentID:  true,
		claimIssuedAt:      true,
		claimExpiresAt:     true,
		claimIssuer:        c.issuer != "",
	}
	for name := range mc {
		if !allowed[name] {
			return nil, fmt.Errorf("%w: unexpected claim %q", ErrMalformedClaims, name)
		}
	}

	str := func(name string) (string, error) {
		v, ok := mc[name].(string)
		if !ok || v == "" {
			return "", fmt.Errorf("%w: %s missing or not a string", ErrMalformedClaims, name)
		}
		return v, nil
	}

	var claims SessionClaims
	var err error
	if claims.DeviceID, err = str(ClaimDeviceID); err != nil {
		return nil, err
	}
	if claims.ActivationKey, err = str(ClaimActivationKey); err != nil {
		return nil, err
	}
	if claims.UserID, err = str(ClaimUserID); err != nil {
		return nil, err
	}
	if claims.AssignmentID, err = str(ClaimAssignmentID); err != nil {
		return nil, err
	}

	iat, err := mc.GetIssuedAt()
	if err != nil || iat == nil {
		return nil, fmt.Errorf("%w: iat missing", ErrMalformedClaims)
	}
	exp, err := mc.GetExpirationTime()
	if err != nil || exp == nil {
		return nil, fmt.Errorf("%w: exp missing", ErrMalformedClaims)
	}
	claims.IssuedAt = iat.Time
	claims.ExpiresAt = exp.Time

	return &claims, nil
}
