package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-authgate/keygate/internal/middleware"
	"github.com/go-authgate/keygate/internal/models"
	"github.com/go-authgate/keygate/internal/services"
	"github.com/go-authgate/keygate/internal/store"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	// queryValueTrue represents the string "true" used in query parameters
	queryValueTrue = "true"

	revokedByAdmin = "admin"
)

// AdminHandler manages activation keys, assignments and device bindings.
type AdminHandler struct {
	keyService        *services.KeyService
	assignmentService *services.AssignmentService
	bindingService    *services.DeviceBindingService
	logger            *zap.Logger
}

func NewAdminHandler(
	ks *services.KeyService,
	as *services.AssignmentService,
	bs *services.DeviceBindingService,
	logger *zap.Logger,
) *AdminHandler {
	return &AdminHandler{
		keyService:        ks,
		assignmentService: as,
		bindingService:    bs,
		logger:            logger,
	}
}

type createKeyRequest struct {
	Key         string     `json:"key"`
	DeviceLimit int        `json:"deviceLimit"`
	ExpiresAt   *time.Time `json:"expiresAt"`
	Notes       string     `json:"notes"`
}

type updateKeyRequest struct {
	IsActive *bool `json:"isActive" binding:"required"`
}

func (h *AdminHandler) handleKeyError(c *gin.Context, err error, msg string) {
	switch {
	case errors.Is(err, services.ErrKeyNotFound):
		notFound(c, "Activation key not found")
	case errors.Is(err, services.ErrInvalidDeviceLimit):
		badRequest(c, err.Error())
	case errors.Is(err, services.ErrKeyExists):
		respondError(c, http.StatusConflict, "duplicate_key", "Activation key already exists")
	case errors.Is(err, services.ErrKeyAssigned):
		respondError(c, http.StatusConflict, "key_assigned",
			"Activation key is assigned; delete the assignment first")
	default:
		serverError(c, h.logger, msg, err)
	}
}

// ListKeys godoc
//
//	@Summary	List activation keys
//	@Tags		Admin
//	@Produce	json
//	@Security	SessionAuth
//	@Param		page		query		int																false	"Page"
//	@Param		page_size	query		int																false	"Page size (max 100)"
//	@Param		search		query		string															false	"Search key value or notes"
//	@Success	200			{object}	object{keys=[]models.ActivationKey,pagination=store.PaginationResult}	"Keys"
//	@Failure	403			{object}	ErrorResponse													"Admin access required"
//	@Router		/api/admin/keys [get]
func (h *AdminHandler) ListKeys(c *gin.Context) {
	keys, pagination, err := h.keyService.ListKeys(c.Request.Context(), paginationFromQuery(c))
	if err != nil {
		serverError(c, h.logger, "failed to list activation keys", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"keys": keys, "pagination": pagination})
}

// CreateKey godoc
//
//	@Summary		Create an activation key
//	@Description	An empty key is generated as KEY_<millis>_<8 chars>. deviceLimit must be within 1-100; zero takes the configured default.
//	@Tags			Admin
//	@Accept			json
//	@Produce		json
//	@Security		SessionAuth
//	@Param			request	body		createKeyRequest		true	"Key settings"
//	@Success		201		{object}	models.ActivationKey	"Created"
//	@Failure		400		{object}	ErrorResponse			"Invalid device limit"
//	@Failure		409		{object}	ErrorResponse			"Duplicate key"
//	@Router			/api/admin/keys [post]
func (h *AdminHandler) CreateKey(c *gin.Context) {
	var req createKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	key, err := h.keyService.CreateKey(c.Request.Context(), services.CreateKeyRequest{
		Key:         req.Key,
		DeviceLimit: req.DeviceLimit,
		ExpiresAt:   req.ExpiresAt,
		Notes:       req.Notes,
	}, c.GetString(middleware.ContextUserID))
	if err != nil {
		h.handleKeyError(c, err, "failed to create activation key")
		return
	}
	c.JSON(http.StatusCreated, key)
}

// UpdateKey godoc
//
//	@Summary		Activate or deactivate a key
//	@Description	A deactivated key denies every session bound to it on the next validation.
//	@Tags			Admin
//	@Accept			json
//	@Produce		json
//	@Security		SessionAuth
//	@Param			id		path		string					true	"Key ID"
//	@Param			request	body		updateKeyRequest		true	"New state"
//	@Success		200		{object}	models.ActivationKey	"Updated"
//	@Failure		404		{object}	ErrorResponse			"Not found"
//	@Router			/api/admin/keys/{id} [patch]
func (h *AdminHandler) UpdateKey(c *gin.Context) {
	var req updateKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "isActive is required")
		return
	}

	key, err := h.keyService.SetKeyActive(c.Request.Context(), c.Param("id"), *req.IsActive)
	if err != nil {
		h.handleKeyError(c, err, "failed to update activation key")
		return
	}
	c.JSON(http.StatusOK, key)
}

// DeleteKey godoc
//
//	@Summary	Delete an unassigned key
//	@Tags		Admin
//	@Produce	json
//	@Security	SessionAuth
//	@Param		id	path		string					true	"Key ID"
//	@Success	200	{object}	object{success=bool}	"Deleted"
//	@Failure	404	{object}	ErrorResponse			"Not found"
//	@Failure	409	{object}	ErrorResponse			"Key is assigned"
//	@Router		/api/admin/keys/{id} [delete]
func (h *AdminHandler) DeleteKey(c *gin.Context) {
	if err := h.keyService.DeleteKey(c.Request.Context(), c.Param("id")); err != nil {
		h.handleKeyError(c, err, "failed to delete activation key")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

type createAssignmentRequest struct {
	UserID    string                    `json:"userId" binding:"required"`
	KeyID     string                    `json:"keyId" binding:"required"`
	ExpiresAt *time.Time                `json:"expiresAt"`
	Notes     string                    `json:"notes"`
	Metadata  models.AssignmentMetadata `json:"metadata"`
}

type updateAssignmentRequest struct {
	Status      *models.AssignmentStatus   `json:"status"`
	ExpiresAt   *time.Time                 `json:"expiresAt"`
	ClearExpiry bool                       `json:"clearExpiry"`
	Notes       *string                    `json:"notes"`
	Metadata    *models.AssignmentMetadata `json:"metadata"`
}

func (h *AdminHandler) handleAssignmentError(c *gin.Context, err error, msg string) {
	switch {
	case errors.Is(err, services.ErrAssignmentNotFound):
		notFound(c, "Assignment not found")
	case errors.Is(err, services.ErrUserNotFound):
		notFound(c, "User not found")
	case errors.Is(err, services.ErrKeyNotFound):
		notFound(c, "Activation key not found")
	case errors.Is(err, services.ErrDuplicateKeyAssignment):
		respondError(c, http.StatusConflict, "duplicate_key_assignment",
			"Activation key already has an assignment")
	case errors.Is(err, services.ErrInvalidAssignment):
		badRequest(c, err.Error())
	default:
		serverError(c, h.logger, msg, err)
	}
}

// ListAssignments godoc
//
//	@Summary	List key assignments
//	@Tags		Admin
//	@Produce	json
//	@Security	SessionAuth
//	@Param		page		query		int																		false	"Page"
//	@Param		page_size	query		int																		false	"Page size (max 100)"
//	@Param		user_id		query		string																	false	"Filter by user"
//	@Param		key_id		query		string																	false	"Filter by key"
//	@Param		status		query		string																	false	"ACTIVE, EXPIRED or REVOKED"
//	@Success	200			{object}	object{assignments=[]models.KeyAssignment,pagination=store.PaginationResult}	"Assignments"
//	@Router		/api/admin/assignments [get]
func (h *AdminHandler) ListAssignments(c *gin.Context) {
	assignments, pagination, err := h.assignmentService.ListAssignments(
		c.Request.Context(),
		paginationFromQuery(c),
		store.AssignmentFilters{
			UserID: c.Query("user_id"),
			KeyID:  c.Query("key_id"),
			Status: models.AssignmentStatus(c.Query("status")),
		},
	)
	if err != nil {
		serverError(c, h.logger, "failed to list assignments", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"assignments": assignments, "pagination": pagination})
}

// CreateAssignment godoc
//
//	@Summary		Assign a key to a user
//	@Description	A key can be assigned once. Revoked or expired assignments still hold the key until hard-deleted.
//	@Tags			Admin
//	@Accept			json
//	@Produce		json
//	@Security		SessionAuth
//	@Param			request	body		createAssignmentRequest	true	"Assignment"
//	@Success		201		{object}	models.KeyAssignment	"Created"
//	@Failure		400		{object}	ErrorResponse			"Invalid assignment"
//	@Failure		404		{object}	ErrorResponse			"User or key not found"
//	@Failure		409		{object}	ErrorResponse			"duplicate_key_assignment"
//	@Router			/api/admin/assignments [post]
func (h *AdminHandler) CreateAssignment(c *gin.Context) {
	var req createAssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "userId and keyId are required")
		return
	}

	a, err := h.assignmentService.CreateAssignment(c.Request.Context(), services.CreateAssignmentRequest{
		UserID:    req.UserID,
		KeyID:     req.KeyID,
		ExpiresAt: req.ExpiresAt,
		Notes:     req.Notes,
		Metadata:  req.Metadata,
	}, c.GetString(middleware.ContextUserID))
	if err != nil {
		h.handleAssignmentError(c, err, "failed to create assignment")
		return
	}
	c.JSON(http.StatusCreated, a)
}

// UpdateAssignment godoc
//
//	@Summary	Update an assignment
//	@Tags		Admin
//	@Accept		json
//	@Produce	json
//	@Security	SessionAuth
//	@Param		id		path		string					true	"Assignment ID"
//	@Param		request	body		updateAssignmentRequest	true	"Fields to change"
//	@Success	200		{object}	models.KeyAssignment	"Updated"
//	@Failure	400		{object}	ErrorResponse			"Unknown status"
//	@Failure	404		{object}	ErrorResponse			"Not found"
//	@Router		/api/admin/assignments/{id} [patch]
func (h *AdminHandler) UpdateAssignment(c *gin.Context) {
	var req updateAssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	a, err := h.assignmentService.UpdateAssignment(c.Request.Context(), c.Param("id"), store.AssignmentUpdate{
		Status:      req.Status,
		ExpiresAt:   req.ExpiresAt,
		ClearExpiry: req.ClearExpiry,
		Notes:       req.Notes,
		Metadata:    req.Metadata,
	}, c.GetString(middleware.ContextUserID))
	if err != nil {
		h.handleAssignmentError(c, err, "failed to update assignment")
		return
	}
	c.JSON(http.StatusOK, a)
}

// DeleteAssignment godoc
//
//	@Summary		Revoke or delete an assignment
//	@Description	By default the assignment is revoked and kept for audit. With hard=true the row is deleted and the key becomes assignable again.
//	@Tags			Admin
//	@Produce		json
//	@Security		SessionAuth
//	@Param			id		path		string					true	"Assignment ID"
//	@Param			hard	query		bool					false	"Delete instead of revoke"
//	@Success		200		{object}	object{success=bool}	"Done"
//	@Failure		404		{object}	ErrorResponse			"Not found"
//	@Router			/api/admin/assignments/{id} [delete]
func (h *AdminHandler) DeleteAssignment(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")

	if c.Query("hard") == queryValueTrue {
		if err := h.assignmentService.DeleteAssignment(ctx, id); err != nil {
			h.handleAssignmentError(c, err, "failed to delete assignment")
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "deleted": true})
		return
	}

	a, err := h.assignmentService.RevokeAssignment(ctx, id, c.GetString(middleware.ContextUserID))
	if err != nil {
		h.handleAssignmentError(c, err, "failed to revoke assignment")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "assignment": a})
}

// RevokeDevice godoc
//
//	@Summary		Revoke a device binding
//	@Description	The device's sessions are denied with DEVICE_REVOKED. Revoking twice is a no-op.
//	@Tags			Admin
//	@Produce		json
//	@Security		SessionAuth
//	@Param			id	path		string								true	"Device record ID"
//	@Success		200	{object}	object{success=bool,device=models.Device}	"Revoked"
//	@Failure		404	{object}	ErrorResponse						"Not found"
//	@Router			/api/admin/devices/{id}/revoke [post]
func (h *AdminHandler) RevokeDevice(c *gin.Context) {
	device, err := h.bindingService.RevokeByID(c.Request.Context(), c.Param("id"), revokedByAdmin)
	if err != nil {
		if errors.Is(err, services.ErrDeviceNotFound) {
			notFound(c, "Device not found")
			return
		}
		serverError(c, h.logger, "failed to revoke device", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "device": device})
}

type revokeKeyDeviceRequest struct {
	DeviceID     string `json:"deviceId" binding:"required"`
	AssignmentID string `json:"assignmentId" binding:"required"`
}

// RevokeKeyDevice godoc
//
//	@Summary		Revoke a device binding on a key
//	@Description	Addresses the binding by (deviceId, assignmentId) under the key. Revoking twice is a no-op.
//	@Tags			Admin
//	@Accept			json
//	@Produce		json
//	@Security		SessionAuth
//	@Param			id		path		string								true	"Key ID"
//	@Param			request	body		revokeKeyDeviceRequest				true	"Binding to revoke"
//	@Success		200		{object}	object{success=bool,device=models.Device}	"Revoked"
//	@Failure		400		{object}	ErrorResponse						"Missing device or assignment ID"
//	@Failure		404		{object}	ErrorResponse						"Not found"
//	@Router			/api/admin/keys/{id}/revoke-device [post]
func (h *AdminHandler) RevokeKeyDevice(c *gin.Context) {
	var req revokeKeyDeviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Device ID and assignment ID are required")
		return
	}

	device, err := h.bindingService.Revoke(
		c.Request.Context(),
		c.Param("id"),
		req.DeviceID,
		req.AssignmentID,
		revokedByAdmin,
	)
	if err != nil {
		if errors.Is(err, services.ErrDeviceNotFound) {
			notFound(c, "Device not found")
			return
		}
		serverError(c, h.logger, "failed to revoke device", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "device": device})
}
