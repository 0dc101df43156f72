package handler

import (
	"backend/internal/service"
	"backend/pkg/apperr"
	"backend/pkg/response"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// actorFrom rebuilds the acting identity from the context values the auth
// middleware stored off the JWT claims.
func actorFrom(c *gin.Context) service.Actor {
	actor := service.Actor{IP: c.ClientIP()}

	if v, ok := c.Get("userID"); ok {
		if idStr, ok := v.(string); ok {
			if id, err := uuid.Parse(idStr); err == nil {
				actor.ID = &id
			}
		}
	}
	if v, ok := c.Get("userRole"); ok {
		if role, ok := v.(string); ok {
			actor.Role = role
		}
	}
	if v, ok := c.Get("branchID"); ok {
		if branchStr, ok := v.(string); ok {
			if branch, err := uuid.Parse(branchStr); err == nil {
				actor.BranchID = &branch
			}
		}
	}
	return actor
}

// statusFor maps an error classification to its HTTP status.
func statusFor(err error) int {
	switch apperr.KindOf(err) {
	case apperr.KindValidation:
		return http.StatusBadRequest
	case apperr.KindConflict:
		return http.StatusConflict
	case apperr.KindPermission:
		return http.StatusForbidden
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindExternal:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	c.JSON(status, response.Error(status, err.Error()))
}
