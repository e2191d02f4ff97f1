package handlers

import (
	"errors"
	"net/http"

	"github.com/go-authgate/keygate/internal/middleware"
	"github.com/go-authgate/keygate/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// CredentialHandler serves the vault. Every route runs behind
// RequireDeviceSession, so the owner is the validated session user.
type CredentialHandler struct {
	credentialService *services.CredentialService
	logger            *zap.Logger
}

func NewCredentialHandler(cs *services.CredentialService, logger *zap.Logger) *CredentialHandler {
	return &CredentialHandler{credentialService: cs, logger: logger}
}

type credentialRequest struct {
	Title    string `json:"title"`
	Username string `json:"username"`
	Password string `json:"password"`
	URL      string `json:"url"`
	Notes    string `json:"notes"`
}

func (r credentialRequest) input() services.CredentialInput {
	return services.CredentialInput{
		Title:    r.Title,
		Username: r.Username,
		Password: r.Password,
		URL:      r.URL,
		Notes:    r.Notes,
	}
}

type bulkCredentialRequest struct {
	Credentials []credentialRequest `json:"credentials" binding:"required"`
}

func (h *CredentialHandler) handleError(c *gin.Context, err error, msg string) {
	switch {
	case errors.Is(err, services.ErrCredentialNotFound):
		notFound(c, "Credential not found")
	case errors.Is(err, services.ErrInvalidCredential),
		errors.Is(err, services.ErrNoValidCredentials),
		errors.Is(err, services.ErrTooManyCredentials):
		badRequest(c, err.Error())
	default:
		serverError(c, h.logger, msg, err)
	}
}

// ListCredentials godoc
//
//	@Summary		List credentials
//	@Description	List the caller's credentials, optionally filtered by a case-insensitive search over title, username and URL
//	@Tags			Credentials
//	@Produce		json
//	@Security		BearerAuth
//	@Param			search	query		string											false	"Search term"
//	@Success		200		{object}	object{credentials=[]models.Credential,count=int}	"Credentials"
//	@Failure		401		{object}	ErrorResponse									"Missing or invalid token"
//	@Failure		403		{object}	DenialResponse									"Session denied"
//	@Router			/api/credentials [get]
func (h *CredentialHandler) ListCredentials(c *gin.Context) {
	creds, err := h.credentialService.List(
		c.Request.Context(),
		c.GetString(middleware.ContextUserID),
		c.Query("search"),
	)
	if err != nil {
		h.handleError(c, err, "failed to list credentials")
		return
	}
	c.JSON(http.StatusOK, gin.H{"credentials": creds, "count": len(creds)})
}

// GetCredential godoc
//
//	@Summary	Get a credential
//	@Tags		Credentials
//	@Produce	json
//	@Security	BearerAuth
//	@Param		id	path		string				true	"Credential ID"
//	@Success	200	{object}	models.Credential	"Credential"
//	@Failure	404	{object}	ErrorResponse		"Not found"
//	@Router		/api/credentials/{id} [get]
func (h *CredentialHandler) GetCredential(c *gin.Context) {
	cred, err := h.credentialService.Get(
		c.Request.Context(),
		c.GetString(middleware.ContextUserID),
		c.Param("id"),
	)
	if err != nil {
		h.handleError(c, err, "failed to load credential")
		return
	}
	c.JSON(http.StatusOK, cred)
}

// CreateCredential godoc
//
//	@Summary	Create a credential
//	@Tags		Credentials
//	@Accept		json
//	@Produce	json
//	@Security	BearerAuth
//	@Param		request	body		credentialRequest	true	"Credential"
//	@Success	201		{object}	models.Credential	"Created"
//	@Failure	400		{object}	ErrorResponse		"Title, username and password are required"
//	@Router		/api/credentials [post]
func (h *CredentialHandler) CreateCredential(c *gin.Context) {
	var req credentialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	cred, err := h.credentialService.Create(
		c.Request.Context(),
		c.GetString(middleware.ContextUserID),
		req.input(),
	)
	if err != nil {
		h.handleError(c, err, "failed to create credential")
		return
	}
	c.JSON(http.StatusCreated, cred)
}

// BulkCreateCredentials godoc
//
//	@Summary		Import credentials
//	@Description	Create many credentials at once. Entries without a username or password are skipped; a missing title defaults to the username.
//	@Tags			Credentials
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			request	body		bulkCredentialRequest								true	"Credentials"
//	@Success		201		{object}	object{credentials=[]models.Credential,count=int}	"Created"
//	@Failure		400		{object}	ErrorResponse										"No valid credentials"
//	@Router			/api/credentials/bulk [post]
func (h *CredentialHandler) BulkCreateCredentials(c *gin.Context) {
	var req bulkCredentialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "A credentials array is required")
		return
	}

	inputs := make([]services.CredentialInput, 0, len(req.Credentials))
	for _, r := range req.Credentials {
		inputs = append(inputs, r.input())
	}

	creds, err := h.credentialService.BulkCreate(
		c.Request.Context(),
		c.GetString(middleware.ContextUserID),
		inputs,
	)
	if err != nil {
		h.handleError(c, err, "failed to import credentials")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"credentials": creds, "count": len(creds)})
}

// UpdateCredential godoc
//
//	@Summary	Update a credential
//	@Tags		Credentials
//	@Accept		json
//	@Produce	json
//	@Security	BearerAuth
//	@Param		id		path		string				true	"Credential ID"
//	@Param		request	body		credentialRequest	true	"Credential"
//	@Success	200		{object}	models.Credential	"Updated"
//	@Failure	400		{object}	ErrorResponse		"Invalid credential"
//	@Failure	404		{object}	ErrorResponse		"Not found"
//	@Router		/api/credentials/{id} [put]
func (h *CredentialHandler) UpdateCredential(c *gin.Context) {
	var req credentialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	cred, err := h.credentialService.Update(
		c.Request.Context(),
		c.GetString(middleware.ContextUserID),
		c.Param("id"),
		req.input(),
	)
	if err != nil {
		h.handleError(c, err, "failed to update credential")
		return
	}
	c.JSON(http.StatusOK, cred)
}

// DeleteCredential godoc
//
//	@Summary	Delete a credential
//	@Tags		Credentials
//	@Produce	json
//	@Security	BearerAuth
//	@Param		id	path		string					true	"Credential ID"
//	@Success	200	{object}	object{success=bool}	"Deleted"
//	@Failure	404	{object}	ErrorResponse			"Not found"
//	@Router		/api/credentials/{id} [delete]
func (h *CredentialHandler) DeleteCredential(c *gin.Context) {
	err := h.credentialService.Delete(
		c.Request.Context(),
		c.GetString(middleware.ContextUserID),
		c.Param("id"),
	)
	if err != nil {
		h.handleError(c, err, "failed to delete credential")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
