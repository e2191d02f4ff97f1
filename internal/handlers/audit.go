package handlers

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"time"

	"github.com/go-authgate/keygate/internal/models"
	"github.com/go-authgate/keygate/internal/services"
	"github.com/go-authgate/keygate/internal/store"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const maxExportRows = 10000

// AuditHandler handles audit log operations
type AuditHandler struct {
	auditService *services.AuditService
	logger       *zap.Logger
}

// NewAuditHandler creates a new audit handler
func NewAuditHandler(auditService *services.AuditService, logger *zap.Logger) *AuditHandler {
	return &AuditHandler{
		auditService: auditService,
		logger:       logger,
	}
}

func auditFiltersFromQuery(c *gin.Context) store.AuditLogFilters {
	filters := store.AuditLogFilters{
		EventType:    models.EventType(c.Query("event_type")),
		ActorUserID:  c.Query("actor_user_id"),
		ResourceType: models.ResourceType(c.Query("resource_type")),
		ResourceID:   c.Query("resource_id"),
		Severity:     models.EventSeverity(c.Query("severity")),
		Search:       c.Query("search"),
	}

	// Parse success filter (optional boolean)
	if successStr := c.Query("success"); successStr != "" {
		success := successStr == queryValueTrue
		filters.Success = &success
	}

	// Parse time range
	if startTimeStr := c.Query("start_time"); startTimeStr != "" {
		if t, err := time.Parse(time.RFC3339, startTimeStr); err == nil {
			filters.StartTime = t
		}
	}
	if endTimeStr := c.Query("end_time"); endTimeStr != "" {
		if t, err := time.Parse(time.RFC3339, endTimeStr); err == nil {
			filters.EndTime = t
		}
	}
	return filters
}

// ListAuditLogs godoc
//
//	@Summary	List audit logs
//	@Tags		Admin
//	@Produce	json
//	@Security	SessionAuth
//	@Param		page			query		int																false	"Page"
//	@Param		page_size		query		int																false	"Page size (max 100)"
//	@Param		event_type		query		string															false	"Event type"
//	@Param		severity		query		string															false	"Severity"
//	@Param		success			query		bool															false	"Outcome"
//	@Param		start_time		query		string															false	"RFC3339 lower bound"
//	@Param		end_time		query		string															false	"RFC3339 upper bound"
//	@Success	200				{object}	object{logs=[]models.AuditLog,pagination=store.PaginationResult}	"Audit logs"
//	@Router		/api/admin/audit [get]
func (h *AuditHandler) ListAuditLogs(c *gin.Context) {
	params := paginationFromQuery(c)
	filters := auditFiltersFromQuery(c)

	logs, pagination, err := h.auditService.GetAuditLogs(c.Request.Context(), params, filters)
	if err != nil {
		serverError(c, h.logger, "failed to retrieve audit logs", err)
		return
	}

	h.auditService.Log(c.Request.Context(), services.AuditLogEntry{
		EventType: models.EventTypeAuditLogView,
		Action:    "Viewed audit logs",
		Details: models.AuditDetails{
			"page":      params.Page,
			"page_size": params.PageSize,
			"filters":   filters,
		},
		Success: true,
	})

	c.JSON(http.StatusOK, gin.H{
		"logs":       logs,
		"pagination": pagination,
	})
}

// ExportAuditLogs godoc
//
//	@Summary	Export audit logs as CSV
//	@Tags		Admin
//	@Produce	text/csv
//	@Security	SessionAuth
//	@Success	200	{string}	string	"CSV file"
//	@Router		/api/admin/audit/export [get]
func (h *AuditHandler) ExportAuditLogs(c *gin.Context) {
	filters := auditFiltersFromQuery(c)
	params := store.PaginationParams{Page: 1, PageSize: maxExportRows}

	logs, _, err := h.auditService.GetAuditLogs(c.Request.Context(), params, filters)
	if err != nil {
		serverError(c, h.logger, "failed to export audit logs", err)
		return
	}

	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", fmt.Sprintf(
		"attachment; filename=audit_logs_%s.csv",
		time.Now().Format("2006-01-02"),
	))

	writer := csv.NewWriter(c.Writer)
	defer writer.Flush()

	if err := writer.Write([]string{
		"Event Time",
		"Event Type",
		"Severity",
		"Actor Username",
		"Actor IP",
		"Resource Type",
		"Resource Name",
		"Action",
		"Success",
		"Error Message",
	}); err != nil {
		return
	}

	for _, log := range logs {
		successStr := "Yes"
		if !log.Success {
			successStr = "No"
		}

		if err := writer.Write([]string{
			log.EventTime.Format(time.RFC3339),
			string(log.EventType),
			string(log.Severity),
			log.ActorUsername,
			log.ActorIP,
			string(log.ResourceType),
			log.ResourceName,
			log.Action,
			successStr,
			log.ErrorMessage,
		}); err != nil {
			return
		}
	}

	h.auditService.Log(c.Request.Context(), services.AuditLogEntry{
		EventType: models.EventTypeAuditLogExported,
		Action:    "Exported audit logs to CSV",
		Details: models.AuditDetails{
			"record_count": len(logs),
			"filters":      filters,
		},
		Success: true,
	})
}
