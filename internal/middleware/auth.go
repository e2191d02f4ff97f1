package middleware

import (
	"net/http"

	"github.com/go-authgate/keygate/internal/models"
	"github.com/go-authgate/keygate/internal/services"
	"github.com/go-authgate/keygate/internal/util"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

// Login session keys.
const (
	SessionUserID   = "user_id"
	SessionUsername = "username"
)

// Gin context keys.
const (
	ContextUserID = "user_id"
	ContextUser   = "user"
)

// RequireAuth requires a login session established by POST /api/auth/login.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		userID, _ := session.Get(SessionUserID).(string)
		if userID == "" {
			AbortUnauthorized(c, "Login required")
			return
		}
		username, _ := session.Get(SessionUsername).(string)

		c.Set(ContextUserID, userID)
		c.Request = c.Request.WithContext(util.SetActor(c.Request.Context(), util.Actor{
			UserID:   userID,
			Username: username,
		}))
		c.Next()
	}
}

// RequireAdmin must run after RequireAuth. The user is re-read (through the
// cache) so a demoted or disabled account loses access immediately.
func RequireAdmin(users *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString(ContextUserID)
		if userID == "" {
			AbortUnauthorized(c, "Login required")
			return
		}

		user, err := users.GetUserByID(c.Request.Context(), userID)
		if err != nil || !user.IsActive {
			AbortUnauthorized(c, "Login required")
			return
		}
		if !user.IsAdmin() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error":             "forbidden",
				"error_description": "Admin access required",
			})
			return
		}

		c.Set(ContextUser, user)
		c.Next()
	}
}

// CurrentUser returns the user loaded by RequireAdmin or RequireDeviceSession.
func CurrentUser(c *gin.Context) (*models.User, bool) {
	v, ok := c.Get(ContextUser)
	if !ok {
		return nil, false
	}
	user, ok := v.(*models.User)
	return user, ok
}
