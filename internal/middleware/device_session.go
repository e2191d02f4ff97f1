package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/go-authgate/keygate/internal/access"
	"github.com/go-authgate/keygate/internal/services"
	"github.com/go-authgate/keygate/internal/token"
	"github.com/go-authgate/keygate/internal/util"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// TokenCookie carries the device session token for browser clients.
const TokenCookie = "user_token"

const contextDeviceSession = "device_session"

// SessionValidator is satisfied by *services.SessionService.
type SessionValidator interface {
	ValidateSession(ctx context.Context, tokenString string) (*services.SessionInfo, error)
}

// bearerToken returns the token from an "Authorization: Bearer" header.
func bearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return "", false
	}
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer ")), true
}

// ExtractToken looks for the session token in the Authorization header
// first, then in the user_token cookie.
func ExtractToken(c *gin.Context) string {
	if tok, ok := bearerToken(c); ok && tok != "" {
		return tok
	}
	if tok, err := c.Cookie(TokenCookie); err == nil {
		return tok
	}
	return ""
}

// RequireDeviceSession re-validates the device session token on every
// request. Bad tokens get 401, policy denials 403 with
// requiresReactivation, and store failures an opaque 500.
func RequireDeviceSession(sessions SessionValidator, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		tok := ExtractToken(c)
		if tok == "" {
			AbortUnauthorized(c, "No session token provided")
			return
		}

		info, err := sessions.ValidateSession(c.Request.Context(), tok)
		if err != nil {
			abortSessionError(c, err, logger)
			return
		}

		c.Set(contextDeviceSession, info)
		c.Set(ContextUserID, info.User.ID)
		c.Set(ContextUser, info.User)
		c.Request = c.Request.WithContext(util.SetActor(c.Request.Context(), util.Actor{
			UserID:   info.User.ID,
			Username: info.User.Username,
		}))
		c.Next()
	}
}

func abortSessionError(c *gin.Context, err error, logger *zap.Logger) {
	if reason := access.ReasonOf(err); reason != "" {
		AbortDenied(c, reason)
		return
	}

	switch {
	case errors.Is(err, token.ErrExpiredToken):
		AbortUnauthorized(c, "Session token has expired")
	case errors.Is(err, token.ErrInvalidToken),
		errors.Is(err, token.ErrMalformedClaims):
		AbortUnauthorized(c, "Invalid session token")
	case errors.Is(err, services.ErrUserNotFound),
		errors.Is(err, services.ErrAccountDisabled):
		AbortUnauthorized(c, "Account is not available")
	default:
		logger.Error("session validation failed",
			zap.String("path", c.Request.URL.Path),
			zap.Error(err))
		AbortServerError(c)
	}
}

// DeviceSession returns the validated session set by RequireDeviceSession.
func DeviceSession(c *gin.Context) (*services.SessionInfo, bool) {
	v, ok := c.Get(contextDeviceSession)
	if !ok {
		return nil, false
	}
	info, ok := v.(*services.SessionInfo)
	return info, ok
}
