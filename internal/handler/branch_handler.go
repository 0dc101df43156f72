package handler

import (
	"backend/internal/middleware"
	"backend/internal/model"
	"backend/internal/service"
	"backend/pkg/pagination"
	"backend/pkg/response"
	"net/http"

	"github.com/gin-gonic/gin"
)

type BranchHandler struct {
	branchService service.BranchService
}

func NewBranchHandler(branchService service.BranchService) *BranchHandler {
	return &BranchHandler{branchService: branchService}
}

func (h *BranchHandler) RegisterRoutes(router *gin.RouterGroup) {
	branches := router.Group("/api/branches")
	branches.Use(middleware.RequireRole(model.RoleOwner, model.RoleAdmin, model.RoleCoach))
	{
		branches.GET("", h.ListBranches)
		branches.GET("/:id", h.GetBranchByID)
		// Mutations are owner-only; the service enforces it, the route
		// gate just rejects the obvious cases early.
		branches.POST("", middleware.RequireRole(model.RoleOwner), h.CreateBranch)
		branches.PUT("/:id", middleware.RequireRole(model.RoleOwner), h.UpdateBranch)
		branches.DELETE("/:id", middleware.RequireRole(model.RoleOwner), h.DeactivateBranch)
	}
}

// CreateBranch handles POST /api/branches
// @Summary      Create branch
// @Description  Creates a new branch with a chain-wide unique name
// @Tags         branches
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateBranchRequest  true  "Create Branch Payload"
// @Success      201      {object}  response.Response{data=service.BranchResponse}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/branches [post]
func (h *BranchHandler) CreateBranch(c *gin.Context) {
	var req service.CreateBranchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	branch, err := h.branchService.CreateBranch(c.Request.Context(), actorFrom(c), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, branch))
}

// UpdateBranch handles PUT /api/branches/:id
// @Summary      Update branch
// @Description  Updates a branch's name, location or contact number
// @Tags         branches
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                       true  "Branch ID"
// @Param        payload  body      service.UpdateBranchRequest  true  "Update Branch Payload"
// @Success      200      {object}  response.Response{data=service.BranchResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/branches/{id} [put]
func (h *BranchHandler) UpdateBranch(c *gin.Context) {
	var req service.UpdateBranchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload"))
		return
	}

	branch, err := h.branchService.UpdateBranch(c.Request.Context(), actorFrom(c), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, branch))
}

// DeactivateBranch handles DELETE /api/branches/:id as a logical deletion
// @Summary      Deactivate branch
// @Description  Marks a branch inactive; refused while active staff or members still reference it
// @Tags         branches
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Branch ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/branches/{id} [delete]
func (h *BranchHandler) DeactivateBranch(c *gin.Context) {
	if err := h.branchService.DeactivateBranch(c.Request.Context(), actorFrom(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Branch deactivated"))
}

// GetBranchByID handles GET /api/branches/:id
// @Summary      Get branch by ID
// @Tags         branches
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Branch ID"
// @Success      200  {object}  response.Response{data=service.BranchResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/branches/{id} [get]
func (h *BranchHandler) GetBranchByID(c *gin.Context) {
	branch, err := h.branchService.GetBranchByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, branch))
}

// ListBranches handles GET /api/branches
// @Summary      List branches
// @Tags         branches
// @Produce      json
// @Security     BearerAuth
// @Param        page    query     int   false  "Page number (default 1)"
// @Param        limit   query     int   false  "Number of items per page (default 20)"
// @Param        active  query     bool  false  "Only active branches"
// @Success      200     {object}  response.Response{data=object}
// @Router       /api/branches [get]
func (h *BranchHandler) ListBranches(c *gin.Context) {
	params := pagination.Parse(c)
	activeOnly := c.Query("active") == "true"

	branches, total, err := h.branchService.ListBranches(c.Request.Context(), activeOnly, params.Page, params.Limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, params.ListPayload("branches", branches, total)))
}
