package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-authgate/keygate/internal/access"
	"github.com/go-authgate/keygate/internal/middleware"
	"github.com/go-authgate/keygate/internal/store"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ErrorResponse is the JSON body of every non-denial error.
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}

// DenialResponse is the 403 body for a policy denial.
type DenialResponse struct {
	Error                string        `json:"error"`
	Reason               access.Reason `json:"reason"`
	RequiresReactivation bool          `json:"requiresReactivation,omitempty"`
}

func respondError(c *gin.Context, status int, code, description string) {
	c.JSON(status, ErrorResponse{Error: code, ErrorDescription: description})
}

func badRequest(c *gin.Context, description string) {
	respondError(c, http.StatusBadRequest, "invalid_request", description)
}

func notFound(c *gin.Context, description string) {
	respondError(c, http.StatusNotFound, "not_found", description)
}

// serverError logs err and hides it from the client.
func serverError(c *gin.Context, logger *zap.Logger, msg string, err error) {
	logger.Error(msg,
		zap.String("path", c.Request.URL.Path),
		zap.String("method", c.Request.Method),
		zap.Error(err))
	middleware.AbortServerError(c)
}

// respondDenied writes a 403 for an activation denial. The caller is already
// on the activation path, so requiresReactivation is left out.
func respondDenied(c *gin.Context, reason access.Reason) {
	c.JSON(http.StatusForbidden, DenialResponse{Error: reason.Message(), Reason: reason})
}

func paginationFromQuery(c *gin.Context) store.PaginationParams {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	return store.NewPaginationParams(page, pageSize, c.Query("search"))
}
