package handler

import (
	"backend/internal/middleware"
	"backend/internal/model"
	"backend/internal/service"
	"backend/pkg/response"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

type ReportHandler struct {
	reportService service.ReportService
}

func NewReportHandler(reportService service.ReportService) *ReportHandler {
	return &ReportHandler{reportService: reportService}
}

func (h *ReportHandler) RegisterRoutes(router *gin.RouterGroup) {
	reports := router.Group("/api/reports")
	reports.Use(middleware.RequireRole(model.RoleOwner, model.RoleAdmin))
	{
		reports.GET("/membership", h.GetMembershipReport)
		reports.GET("/expiring", h.GetExpiringMembers)
	}
}

// GetMembershipReport handles GET /api/reports/membership
// @Summary      Membership report
// @Description  Headline member counts plus per-branch and per-month enrollment and revenue breakdowns
// @Tags         reports
// @Security     BearerAuth
// @Produce      json
// @Param        from  query     string  false  "Window start (YYYY-MM-DD, default 12 months ago)"
// @Param        to    query     string  false  "Window end (YYYY-MM-DD, default today)"
// @Success      200   {object}  response.Response{data=service.MembershipReport}
// @Failure      400   {object}  response.Response
// @Router       /api/reports/membership [get]
func (h *ReportHandler) GetMembershipReport(c *gin.Context) {
	now := time.Now()
	from := now.AddDate(-1, 0, 0)
	to := now

	if raw := c.Query("from"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "invalid from date: expected YYYY-MM-DD"))
			return
		}
		from = parsed
	}
	if raw := c.Query("to"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "invalid to date: expected YYYY-MM-DD"))
			return
		}
		to = parsed
	}

	report, err := h.reportService.MembershipReport(c.Request.Context(), from, to)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, report))
}

// GetExpiringMembers handles GET /api/reports/expiring
// @Summary      Expiring memberships
// @Description  Active members whose membership ends within the next N days, soonest first
// @Tags         reports
// @Security     BearerAuth
// @Produce      json
// @Param        days  query     int  false  "Lookahead window in days (default 7)"
// @Success      200   {object}  response.Response{data=[]service.ExpiringMember}
// @Router       /api/reports/expiring [get]
func (h *ReportHandler) GetExpiringMembers(c *gin.Context) {
	days, _ := strconv.Atoi(c.DefaultQuery("days", "7"))

	members, err := h.reportService.ExpiringWithin(c.Request.Context(), days)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, members))
}
