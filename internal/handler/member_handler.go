package handler

import (
	"backend/internal/middleware"
	"backend/internal/model"
	"backend/internal/service"
	"backend/pkg/pagination"
	"backend/pkg/response"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

type MemberHandler struct {
	memberService service.MemberService
}

func NewMemberHandler(memberService service.MemberService) *MemberHandler {
	return &MemberHandler{memberService: memberService}
}

func (h *MemberHandler) RegisterRoutes(router *gin.RouterGroup) {
	members := router.Group("/api/members")
	members.Use(middleware.RequireRole(model.RoleOwner, model.RoleAdmin, model.RoleCoach))
	{
		members.GET("", h.ListMembers)
		members.GET("/:id", h.GetMemberByID)
		members.GET("/by-random-id/:randomID", h.GetMemberByRandomID)
		members.GET("/export", h.ExportCSV)

		// Coaches are read-only on the member roster.
		members.POST("", middleware.RequireRole(model.RoleOwner, model.RoleAdmin), h.CreateMember)
		members.PUT("/:id", middleware.RequireRole(model.RoleOwner, model.RoleAdmin), h.UpdateMember)
		members.DELETE("/:id", middleware.RequireRole(model.RoleOwner, model.RoleAdmin), h.DeactivateMember)
		members.POST("/:id/renew", middleware.RequireRole(model.RoleOwner, model.RoleAdmin), h.RenewMembership)
		members.POST("/import", middleware.RequireRole(model.RoleOwner, model.RoleAdmin), h.ImportCSV)
	}
}

// CreateMember handles POST /api/members
// @Summary      Enroll a member
// @Description  Creates a member, deriving the membership period and end date from the payment
// @Tags         members
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateMemberRequest  true  "Create Member Payload"
// @Success      201      {object}  response.Response{data=service.MemberResponse}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/members [post]
func (h *MemberHandler) CreateMember(c *gin.Context) {
	var req service.CreateMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	member, err := h.memberService.CreateMember(c.Request.Context(), actorFrom(c), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, member))
}

// UpdateMember handles PUT /api/members/:id
// @Summary      Update member
// @Description  Updates member details; payment or start date changes re-derive the period and end date
// @Tags         members
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                       true  "Member ID"
// @Param        payload  body      service.UpdateMemberRequest  true  "Update Member Payload"
// @Success      200      {object}  response.Response{data=service.MemberResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/members/{id} [put]
func (h *MemberHandler) UpdateMember(c *gin.Context) {
	var req service.UpdateMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload"))
		return
	}

	member, err := h.memberService.UpdateMember(c.Request.Context(), actorFrom(c), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, member))
}

// DeactivateMember handles DELETE /api/members/:id as a logical deletion
// @Summary      Deactivate member
// @Description  Marks a member inactive; the record and its history remain queryable
// @Tags         members
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Member ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/members/{id} [delete]
func (h *MemberHandler) DeactivateMember(c *gin.Context) {
	if err := h.memberService.DeactivateMember(c.Request.Context(), actorFrom(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Member deactivated"))
}

// RenewMembership handles POST /api/members/:id/renew
// @Summary      Renew membership
// @Description  Starts a new membership period at the current end date (or today if already expired)
// @Tags         members
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                           true  "Member ID"
// @Param        payload  body      service.RenewMembershipRequest   true  "Renewal Payload"
// @Success      200      {object}  response.Response{data=service.MemberResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/members/{id}/renew [post]
func (h *MemberHandler) RenewMembership(c *gin.Context) {
	var req service.RenewMembershipRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload"))
		return
	}

	member, err := h.memberService.RenewMembership(c.Request.Context(), actorFrom(c), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, member))
}

// GetMemberByID handles GET /api/members/:id
// @Summary      Get member by ID
// @Tags         members
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Member ID"
// @Success      200  {object}  response.Response{data=service.MemberResponse}
// @Failure      403  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/members/{id} [get]
func (h *MemberHandler) GetMemberByID(c *gin.Context) {
	member, err := h.memberService.GetMemberByID(c.Request.Context(), actorFrom(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, member))
}

// GetMemberByRandomID handles GET /api/members/by-random-id/:randomID for
// front-desk check-in lookups.
// @Summary      Get member by check-in ID
// @Tags         members
// @Produce      json
// @Security     BearerAuth
// @Param        randomID  path      int  true  "Member check-in ID"
// @Success      200       {object}  response.Response{data=service.MemberResponse}
// @Failure      403       {object}  response.Response
// @Failure      404       {object}  response.Response
// @Router       /api/members/by-random-id/{randomID} [get]
func (h *MemberHandler) GetMemberByRandomID(c *gin.Context) {
	randomID, err := strconv.Atoi(c.Param("randomID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid member check-in ID"))
		return
	}

	member, err := h.memberService.GetMemberByRandomID(c.Request.Context(), actorFrom(c), randomID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, member))
}

// ListMembers handles GET /api/members
// @Summary      List members
// @Description  Retrieves a paginated member list, scoped to the caller's branch (and coach assignment for coaches)
// @Tags         members
// @Produce      json
// @Security     BearerAuth
// @Param        page       query     int     false  "Page number (default 1)"
// @Param        limit      query     int     false  "Number of items per page (default 20)"
// @Param        branch_id  query     string  false  "Filter by branch"
// @Param        coach_id   query     string  false  "Filter by coach"
// @Param        status     query     string  false  "Filter by status (active, expired, inactive)"
// @Success      200        {object}  response.Response{data=object}
// @Router       /api/members [get]
func (h *MemberHandler) ListMembers(c *gin.Context) {
	params := pagination.Parse(c)

	filter := service.MemberListFilter{
		BranchID: c.Query("branch_id"),
		CoachID:  c.Query("coach_id"),
		Status:   c.Query("status"),
	}

	members, total, err := h.memberService.ListMembers(c.Request.Context(), actorFrom(c), filter, params.Page, params.Limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, params.ListPayload("members", members, total)))
}

// ExportCSV handles GET /api/members/export, streaming the caller-visible
// roster as a CSV attachment.
// @Summary      Export members to CSV
// @Tags         members
// @Produce      text/csv
// @Security     BearerAuth
// @Success      200  {string}  string  "CSV file"
// @Router       /api/members/export [get]
func (h *MemberHandler) ExportCSV(c *gin.Context) {
	filename := "members-" + time.Now().Format("2006-01-02") + ".csv"
	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)

	if err := h.memberService.ExportCSV(c.Request.Context(), actorFrom(c), c.Writer); err != nil {
		respondError(c, err)
		return
	}
}

// ImportCSV handles POST /api/members/import with a multipart "file" field.
// Bad lines are reported per line; the batch never aborts as a whole.
// @Summary      Import members from CSV
// @Tags         members
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        file  formData  file  true  "CSV file"
// @Success      200   {object}  response.Response{data=service.ImportResult}
// @Failure      400   {object}  response.Response
// @Router       /api/members/import [post]
func (h *MemberHandler) ImportCSV(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Missing CSV file upload"))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Could not read uploaded file"))
		return
	}
	defer file.Close()

	result, err := h.memberService.ImportCSV(c.Request.Context(), actorFrom(c), file)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}
