package util

import (
	"context"

	"github.com/gin-gonic/gin"
)

type contextKey int

const (
	requestMetaKey contextKey = iota
	actorKey
)

// RequestMeta is the per-request information copied into audit entries.
type RequestMeta struct {
	IP        string
	UserAgent string
	Path      string
	Method    string
}

// Actor identifies the authenticated user behind a request.
type Actor struct {
	UserID   string
	Username string
}

// RequestMetaMiddleware stores the client IP and request line in the request
// context so that services can read them without depending on gin.
func RequestMetaMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Gin's ClientIP() handles X-Forwarded-For and other headers
		meta := RequestMeta{
			IP:        c.ClientIP(),
			UserAgent: c.Request.UserAgent(),
			Path:      c.Request.URL.Path,
			Method:    c.Request.Method,
		}
		c.Request = c.Request.WithContext(SetRequestMeta(c.Request.Context(), meta))
		c.Next()
	}
}

func SetRequestMeta(ctx context.Context, meta RequestMeta) context.Context {
	return context.WithValue(ctx, requestMetaKey, meta)
}

// GetRequestMeta returns the stored request metadata, or the zero value.
func GetRequestMeta(ctx context.Context) RequestMeta {
	if ginCtx, ok := ctx.(*gin.Context); ok {
		ctx = ginCtx.Request.Context()
	}
	meta, _ := ctx.Value(requestMetaKey).(RequestMeta)
	return meta
}

// GetIPFromContext extracts the client IP address from the context
func GetIPFromContext(ctx context.Context) string {
	return GetRequestMeta(ctx).IP
}

func SetActor(ctx context.Context, actor Actor) context.Context {
	if actor.UserID == "" {
		return ctx
	}
	return context.WithValue(ctx, actorKey, actor)
}

// GetActor returns the authenticated user stored by the auth middleware.
func GetActor(ctx context.Context) (Actor, bool) {
	if ginCtx, ok := ctx.(*gin.Context); ok {
		ctx = ginCtx.Request.Context()
	}
	actor, ok := ctx.Value(actorKey).(Actor)
	return actor, ok
}

// GetUsernameFromContext returns the actor's username, or "".
func GetUsernameFromContext(ctx context.Context) string {
	actor, _ := GetActor(ctx)
	return actor.Username
}
