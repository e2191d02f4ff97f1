package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-authgate/keygate/internal/access"
	"github.com/go-authgate/keygate/internal/middleware"
	"github.com/go-authgate/keygate/internal/models"
	"github.com/go-authgate/keygate/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SessionHandler serves device activation and session validation.
type SessionHandler struct {
	sessionService *services.SessionService
	cookie         TokenCookieConfig
	logger         *zap.Logger
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(
	ss *services.SessionService,
	cookie TokenCookieConfig,
	logger *zap.Logger,
) *SessionHandler {
	return &SessionHandler{
		sessionService: ss,
		cookie:         cookie,
		logger:         logger,
	}
}

type activateRequest struct {
	ActivationKey string            `json:"activationKey" binding:"required"`
	DeviceID      string            `json:"deviceId"`
	Platform      string            `json:"platform"`
	Extra         map[string]string `json:"extra"`
}

// ActivateResponse is returned when a device is bound.
type ActivateResponse struct {
	Success     bool             `json:"success"`
	Session     *SessionResponse `json:"session"`
	DeviceLimit int              `json:"deviceLimit"`
	UsedDevices int              `json:"usedDevices"`
	DeviceCount int              `json:"deviceCount"`
}

// Activate godoc
//
//	@Summary		Activate a device
//	@Description	Bind a device to the caller's assignment of an activation key and issue a session token. Rebinding a known device refreshes it without consuming a slot.
//	@Tags			Session
//	@Accept			json
//	@Produce		json
//	@Security		SessionAuth
//	@Param			request	body		activateRequest		true	"Activation key and device"
//	@Success		200		{object}	ActivateResponse	"Device bound"
//	@Failure		400		{object}	ErrorResponse		"Missing activation key or device ID"
//	@Failure		401		{object}	ErrorResponse		"Not logged in"
//	@Failure		403		{object}	DenialResponse		"Activation denied"
//	@Failure		500		{object}	ErrorResponse		"Internal error"
//	@Router			/api/activate [post]
func (h *SessionHandler) Activate(c *gin.Context) {
	var req activateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Activation key is required")
		return
	}

	session, err := h.sessionService.Activate(c.Request.Context(), services.ActivateRequest{
		UserID:        c.GetString(middleware.ContextUserID),
		ActivationKey: req.ActivationKey,
		DeviceID:      req.DeviceID,
		DeviceInfo: models.DeviceInfo{
			UserAgent: c.Request.UserAgent(),
			IP:        c.ClientIP(),
			Platform:  req.Platform,
			Extra:     req.Extra,
		},
	})
	if err != nil {
		if reason := access.ReasonOf(err); reason != "" {
			respondDenied(c, reason)
			return
		}
		if errors.Is(err, services.ErrDeviceIDRequired) {
			badRequest(c, "Device ID is required")
			return
		}
		serverError(c, h.logger, "device activation failed", err)
		return
	}

	setTokenCookie(c, h.cookie, session.Token, int(time.Until(session.ExpiresAt).Seconds()))
	c.JSON(http.StatusOK, ActivateResponse{
		Success:     true,
		Session:     newSessionResponse(session),
		DeviceLimit: session.Key.DeviceLimit,
		UsedDevices: session.Key.UsedDevices,
		DeviceCount: session.Assignment.DeviceCount,
	})
}

// ValidateSessionResponse describes a session that passed validation.
type ValidateSessionResponse struct {
	Valid      bool              `json:"valid"`
	User       *models.User      `json:"user"`
	DeviceID   string            `json:"deviceId"`
	ExpiresAt  time.Time         `json:"expiresAt"`
	Key        keySummary        `json:"key"`
	Assignment assignmentSummary `json:"assignment"`
}

type keySummary struct {
	ID          string     `json:"id"`
	DeviceLimit int        `json:"deviceLimit"`
	UsedDevices int        `json:"usedDevices"`
	ExpiresAt   *time.Time `json:"expiresAt,omitempty"`
}

type assignmentSummary struct {
	ID          string                  `json:"id"`
	Status      models.AssignmentStatus `json:"status"`
	ExpiresAt   *time.Time              `json:"expiresAt,omitempty"`
	DeviceCount int                     `json:"deviceCount"`
}

// ValidateSession godoc
//
//	@Summary		Validate the device session
//	@Description	Re-check the session token against the current key, assignment and binding state
//	@Tags			Session
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{object}	ValidateSessionResponse	"Session is valid"
//	@Failure		401	{object}	ErrorResponse			"Missing, invalid or expired token"
//	@Failure		403	{object}	DenialResponse			"Session denied; reactivation required"
//	@Router			/api/validate-session [get]
func (h *SessionHandler) ValidateSession(c *gin.Context) {
	info, ok := middleware.DeviceSession(c)
	if !ok {
		middleware.AbortUnauthorized(c, "No session token provided")
		return
	}

	c.JSON(http.StatusOK, ValidateSessionResponse{
		Valid:     true,
		User:      info.User,
		DeviceID:  info.Claims.DeviceID,
		ExpiresAt: info.Claims.ExpiresAt,
		Key: keySummary{
			ID:          info.Key.ID,
			DeviceLimit: info.Key.DeviceLimit,
			UsedDevices: info.Key.UsedDevices,
			ExpiresAt:   info.Key.ExpiresAt,
		},
		Assignment: assignmentSummary{
			ID:          info.Assignment.ID,
			Status:      info.Assignment.Status,
			ExpiresAt:   info.Assignment.ExpiresAt,
			DeviceCount: info.Assignment.DeviceCount,
		},
	})
}

type validateDeviceRequest struct {
	ActivationKey string `json:"activationKey" binding:"required"`
	DeviceID      string `json:"deviceId" binding:"required"`
}

// ValidateDeviceResponse describes a device that is registered and active.
type ValidateDeviceResponse struct {
	Valid    bool       `json:"valid"`
	DeviceID string     `json:"deviceId"`
	Key      keySummary `json:"key"`
}

// ValidateDevice godoc
//
//	@Summary		Check a device against a key
//	@Description	Key checks, then whether the device is registered on the key and still active. No user or assignment is involved.
//	@Tags			Session
//	@Accept			json
//	@Produce		json
//	@Security		SessionAuth
//	@Param			request	body		validateDeviceRequest	true	"Activation key and device"
//	@Success		200		{object}	ValidateDeviceResponse	"Device is active"
//	@Failure		400		{object}	ErrorResponse			"Missing activation key or device ID"
//	@Failure		401		{object}	ErrorResponse			"Not logged in"
//	@Failure		403		{object}	DenialResponse			"Device rejected"
//	@Router			/api/validate-device [post]
func (h *SessionHandler) ValidateDevice(c *gin.Context) {
	var req validateDeviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Activation key and device ID are required")
		return
	}

	decision, err := h.sessionService.CheckDevice(c.Request.Context(), req.ActivationKey, req.DeviceID)
	if err != nil {
		serverError(c, h.logger, "device validation failed", err)
		return
	}
	if !decision.Allowed {
		respondDenied(c, decision.Reason)
		return
	}

	c.JSON(http.StatusOK, ValidateDeviceResponse{
		Valid:    true,
		DeviceID: req.DeviceID,
		Key: keySummary{
			ID:          decision.Key.ID,
			DeviceLimit: decision.Key.DeviceLimit,
			UsedDevices: decision.Key.UsedDevices,
			ExpiresAt:   decision.Key.ExpiresAt,
		},
	})
}
