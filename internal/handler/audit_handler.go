package handler

import (
	"backend/internal/middleware"
	"backend/internal/model"
	"backend/internal/service"
	"backend/pkg/response"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

type AuditHandler struct {
	auditService service.AuditService
}

func NewAuditHandler(auditService service.AuditService) *AuditHandler {
	return &AuditHandler{auditService: auditService}
}

func (h *AuditHandler) RegisterRoutes(router *gin.RouterGroup) {
	group := router.Group("/api/audit-logs")
	group.Use(middleware.RequireRole(model.RoleOwner, model.RoleAdmin)) // Protect history logs
	{
		group.GET("", h.SearchAuditLogs)
		group.GET("/actions", h.GetActions)
	}
}

// SearchAuditLogs retrieves audit records with users pre-loaded, newest first
// @Summary      Search audit logs
// @Description  Retrieves audit logs filtered by user, action and date range (all filters optional, AND-combined)
// @Tags         audit
// @Security     BearerAuth
// @Produce      json
// @Param        user_id  query     string  false  "Filter by acting user"
// @Param        action   query     string  false  "Filter by action code"
// @Param        from     query     string  false  "Start date (YYYY-MM-DD)"
// @Param        to       query     string  false  "End date (YYYY-MM-DD, inclusive)"
// @Param        limit    query     int     false  "Maximum results (default and cap 1000)"
// @Success      200      {object}  response.Response{data=object}
// @Failure      400      {object}  response.Response
// @Router       /api/audit-logs [get]
func (h *AuditHandler) SearchAuditLogs(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))

	req := service.AuditSearchRequest{
		UserID: c.Query("user_id"),
		Action: c.Query("action"),
		From:   c.Query("from"),
		To:     c.Query("to"),
		Limit:  limit,
	}

	logs, err := h.auditService.Search(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"logs":  logs,
		"total": len(logs),
	}))
}

// GetActions lists the known audit action codes for filter dropdowns
// @Summary      List audit action codes
// @Tags         audit
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=[]string}
// @Router       /api/audit-logs/actions [get]
func (h *AuditHandler) GetActions(c *gin.Context) {
	c.JSON(http.StatusOK, response.Success(http.StatusOK, service.Actions()))
}
