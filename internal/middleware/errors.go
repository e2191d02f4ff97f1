package middleware

import (
	"net/http"

	"github.com/go-authgate/keygate/internal/access"

	"github.com/gin-gonic/gin"
)

// AbortUnauthorized writes the 401 body used for missing or bad credentials.
func AbortUnauthorized(c *gin.Context, description string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error":             "unauthorized",
		"error_description": description,
	})
}

// AbortDenied writes the 403 body for a policy denial. The client is
// expected to send the user back through activation.
func AbortDenied(c *gin.Context, reason access.Reason) {
	c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
		"error":                reason.Message(),
		"reason":               reason,
		"requiresReactivation": true,
	})
}

// AbortServerError writes an opaque 500. Callers log the cause.
func AbortServerError(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
		"error":             "server_error",
		"error_description": "Internal server error",
	})
}
