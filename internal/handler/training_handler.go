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

type TrainingHandler struct {
	trainingService service.TrainingService
}

func NewTrainingHandler(trainingService service.TrainingService) *TrainingHandler {
	return &TrainingHandler{trainingService: trainingService}
}

func (h *TrainingHandler) RegisterRoutes(router *gin.RouterGroup) {
	training := router.Group("/api/training")
	training.Use(middleware.RequireRole(model.RoleOwner, model.RoleAdmin, model.RoleCoach))
	{
		training.POST("", h.CreateEntry)
		training.PUT("/:id", h.UpdateEntry)
		training.GET("/member/:memberID", h.ListByMember)
		training.GET("/coach/:coachID", h.ListByCoach)
	}
}

// CreateEntry handles POST /api/training
// @Summary      Log a training session
// @Description  Records a training session for a member; coaches may only log for members assigned to them
// @Tags         training
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateTrainingRequest  true  "Training Entry Payload"
// @Success      201      {object}  response.Response{data=service.TrainingResponse}
// @Failure      400      {object}  response.Response
// @Failure      403      {object}  response.Response
// @Router       /api/training [post]
func (h *TrainingHandler) CreateEntry(c *gin.Context) {
	var req service.CreateTrainingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	entry, err := h.trainingService.CreateEntry(c.Request.Context(), actorFrom(c), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, entry))
}

// UpdateEntry handles PUT /api/training/:id
// @Summary      Update a training entry
// @Description  Updates a training entry; coaches may only touch their own entries
// @Tags         training
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                         true  "Training Entry ID"
// @Param        payload  body      service.UpdateTrainingRequest  true  "Update Payload"
// @Success      200      {object}  response.Response{data=service.TrainingResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/training/{id} [put]
func (h *TrainingHandler) UpdateEntry(c *gin.Context) {
	var req service.UpdateTrainingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload"))
		return
	}

	entry, err := h.trainingService.UpdateEntry(c.Request.Context(), actorFrom(c), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, entry))
}

// ListByMember handles GET /api/training/member/:memberID
// @Summary      List a member's training history
// @Tags         training
// @Produce      json
// @Security     BearerAuth
// @Param        memberID  path      string  true   "Member ID"
// @Param        page      query     int     false  "Page number (default 1)"
// @Param        limit     query     int     false  "Number of items per page (default 20)"
// @Success      200       {object}  response.Response{data=object}
// @Failure      404       {object}  response.Response
// @Router       /api/training/member/{memberID} [get]
func (h *TrainingHandler) ListByMember(c *gin.Context) {
	params := pagination.Parse(c)

	entries, total, err := h.trainingService.ListByMember(c.Request.Context(), actorFrom(c), c.Param("memberID"), params.Page, params.Limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, params.ListPayload("entries", entries, total)))
}

// ListByCoach handles GET /api/training/coach/:coachID
// @Summary      List a coach's logged sessions
// @Description  Lists training entries logged by a coach; coaches may only list their own
// @Tags         training
// @Produce      json
// @Security     BearerAuth
// @Param        coachID  path      string  true   "Coach ID"
// @Param        page     query     int     false  "Page number (default 1)"
// @Param        limit    query     int     false  "Number of items per page (default 20)"
// @Success      200      {object}  response.Response{data=object}
// @Failure      403      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /api/training/coach/{coachID} [get]
func (h *TrainingHandler) ListByCoach(c *gin.Context) {
	params := pagination.Parse(c)

	entries, total, err := h.trainingService.ListByCoach(c.Request.Context(), actorFrom(c), c.Param("coachID"), params.Page, params.Limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, params.ListPayload("entries", entries, total)))
}
