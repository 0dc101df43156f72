package handler

import (
	"backend/internal/middleware"
	"backend/internal/model"
	"backend/internal/service"
	"backend/pkg/response"
	"net/http"

	"github.com/gin-gonic/gin"
)

type SettingHandler struct {
	settingService service.SettingService
}

func NewSettingHandler(settingService service.SettingService) *SettingHandler {
	return &SettingHandler{settingService: settingService}
}

func (h *SettingHandler) RegisterRoutes(router *gin.RouterGroup) {
	settings := router.Group("/api/settings")
	{
		settings.GET("/monthly-price", middleware.RequireRole(model.RoleOwner, model.RoleAdmin, model.RoleCoach), h.GetMonthlyPrice)
		settings.PUT("/monthly-price", middleware.RequireRole(model.RoleOwner), h.UpdateMonthlyPrice)
	}
}

// GetMonthlyPrice handles GET /api/settings/monthly-price
// @Summary      Get the monthly price
// @Tags         settings
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=service.MonthlyPriceResponse}
// @Router       /api/settings/monthly-price [get]
func (h *SettingHandler) GetMonthlyPrice(c *gin.Context) {
	price, err := h.settingService.GetMonthlyPrice(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, price))
}

// UpdateMonthlyPrice handles PUT /api/settings/monthly-price
// @Summary      Update the monthly price
// @Description  Sets the chain-wide monthly price used to derive membership periods
// @Tags         settings
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.UpdateMonthlyPriceRequest  true  "Monthly Price Payload"
// @Success      200      {object}  response.Response{data=service.MonthlyPriceResponse}
// @Failure      400      {object}  response.Response
// @Failure      403      {object}  response.Response
// @Router       /api/settings/monthly-price [put]
func (h *SettingHandler) UpdateMonthlyPrice(c *gin.Context) {
	var req service.UpdateMonthlyPriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload"))
		return
	}

	price, err := h.settingService.UpdateMonthlyPrice(c.Request.Context(), actorFrom(c), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, price))
}
