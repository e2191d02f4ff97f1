package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-authgate/keygate/internal/access"
	"github.com/go-authgate/keygate/internal/middleware"
	"github.com/go-authgate/keygate/internal/models"
	"github.com/go-authgate/keygate/internal/services"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// TokenCookieConfig controls the user_token cookie.
type TokenCookieConfig struct {
	MaxAge time.Duration
	Secure bool
}

type AuthHandler struct {
	userService    *services.UserService
	sessionService *services.SessionService
	auditService   *services.AuditService
	cookie         TokenCookieConfig
	logger         *zap.Logger
}

func NewAuthHandler(
	us *services.UserService,
	ss *services.SessionService,
	as *services.AuditService,
	cookie TokenCookieConfig,
	logger *zap.Logger,
) *AuthHandler {
	return &AuthHandler{
		userService:    us,
		sessionService: ss,
		auditService:   as,
		cookie:         cookie,
		logger:         logger,
	}
}

type registerRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	FullName string `json:"fullName"`
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
	DeviceID string `json:"deviceId"`
}

// SessionResponse describes an issued device session.
type SessionResponse struct {
	Token        string    `json:"token"`
	ExpiresAt    time.Time `json:"expiresAt"`
	DeviceID     string    `json:"deviceId"`
	KeyID        string    `json:"keyId"`
	AssignmentID string    `json:"assignmentId"`
}

// LoginResponse is returned by a successful login.
type LoginResponse struct {
	Success bool                 `json:"success"`
	User    *models.User         `json:"user"`
	Status  services.LoginStatus `json:"status"`
	Reason  access.Reason        `json:"reason,omitempty"`
	Message string               `json:"message,omitempty"`
	Session *SessionResponse     `json:"session,omitempty"`
}

func newSessionResponse(s *services.Session) *SessionResponse {
	return &SessionResponse{
		Token:        s.Token,
		ExpiresAt:    s.ExpiresAt,
		DeviceID:     s.Claims.DeviceID,
		KeyID:        s.Key.ID,
		AssignmentID: s.Assignment.ID,
	}
}

// setTokenCookie stores the device session token for browser clients. A
// negative maxAge deletes it.
func setTokenCookie(c *gin.Context, cfg TokenCookieConfig, value string, maxAge int) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(middleware.TokenCookie, value, maxAge, "/", "", cfg.Secure, true)
}

// Register godoc
//
//	@Summary		Register a user account
//	@Description	Create a local USER account. Admin accounts are never created here.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		registerRequest						true	"Registration details"
//	@Success		201		{object}	object{success=bool,user=models.User}	"Account created"
//	@Failure		400		{object}	ErrorResponse						"Validation failed"
//	@Failure		409		{object}	ErrorResponse						"Username or email taken"
//	@Router			/api/auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Username, email, and password are required")
		return
	}

	user, err := h.userService.Register(c.Request.Context(), services.RegisterRequest{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		FullName: req.FullName,
	})
	switch {
	case errors.Is(err, services.ErrInvalidRegistration):
		badRequest(c, err.Error())
		return
	case errors.Is(err, services.ErrUserExists):
		respondError(c, http.StatusConflict, "user_exists", "Username or email already registered")
		return
	case err != nil:
		serverError(c, h.logger, "failed to register user", err)
		return
	}

	h.auditService.Log(c.Request.Context(), services.AuditLogEntry{
		EventType:     models.EventUserRegistered,
		ActorUserID:   user.ID,
		ActorUsername: user.Username,
		ResourceType:  models.ResourceUser,
		ResourceID:    user.ID,
		ResourceName:  user.Username,
		Action:        "User registered",
		Success:       true,
	})

	c.JSON(http.StatusCreated, gin.H{"success": true, "user": user})
}

// Login godoc
//
//	@Summary		Log in
//	@Description	Authenticate with username and password. USER accounts with an existing device binding get a fresh session token; others are reported as not_activated.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		loginRequest	true	"Credentials"
//	@Success		200		{object}	LoginResponse	"Authenticated"
//	@Failure		400		{object}	ErrorResponse	"Missing credentials"
//	@Failure		401		{object}	ErrorResponse	"Invalid credentials"
//	@Failure		500		{object}	ErrorResponse	"Internal error"
//	@Router			/api/auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Username and password are required")
		return
	}

	result, err := h.sessionService.Login(c.Request.Context(), services.LoginRequest{
		Username: req.Username,
		Password: req.Password,
		DeviceID: req.DeviceID,
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidCredentials),
			errors.Is(err, services.ErrAccountDisabled),
			errors.Is(err, services.ErrUserNotFound):
			middleware.AbortUnauthorized(c, "Invalid username or password")
		case errors.Is(err, services.ErrAuthProviderFailed):
			respondError(c, http.StatusBadGateway, "provider_unavailable",
				"Authentication provider unavailable")
		default:
			serverError(c, h.logger, "login failed", err)
		}
		return
	}

	session := sessions.Default(c)
	session.Set(middleware.SessionUserID, result.User.ID)
	session.Set(middleware.SessionUsername, result.User.Username)
	if err := session.Save(); err != nil {
		serverError(c, h.logger, "failed to save login session", err)
		return
	}

	resp := LoginResponse{
		Success: true,
		User:    result.User,
		Status:  result.Status,
		Reason:  result.Reason,
	}
	switch result.Status {
	case services.LoginStatusActivated:
		resp.Session = newSessionResponse(result.Session)
		setTokenCookie(c, h.cookie, result.Session.Token, int(h.cookie.MaxAge.Seconds()))
	case services.LoginStatusNotActivated:
		resp.Message = "Device activation required"
		if result.Reason != "" {
			resp.Message = result.Reason.Message()
		}
	}

	c.JSON(http.StatusOK, resp)
}

// Logout godoc
//
//	@Summary		Log out
//	@Description	Clear the login session and the user_token cookie
//	@Tags			Auth
//	@Produce		json
//	@Success		200	{object}	object{success=bool}	"Logged out"
//	@Router			/api/auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	session := sessions.Default(c)
	userID, _ := session.Get(middleware.SessionUserID).(string)
	username, _ := session.Get(middleware.SessionUsername).(string)

	session.Clear()
	session.Options(sessions.Options{Path: "/", MaxAge: -1})
	if err := session.Save(); err != nil {
		serverError(c, h.logger, "failed to clear login session", err)
		return
	}
	setTokenCookie(c, h.cookie, "", -1)

	if userID != "" {
		h.auditService.Log(c.Request.Context(), services.AuditLogEntry{
			EventType:     models.EventLogout,
			ActorUserID:   userID,
			ActorUsername: username,
			ResourceType:  models.ResourceUser,
			ResourceID:    userID,
			Action:        "User logged out",
			Success:       true,
		})
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}
