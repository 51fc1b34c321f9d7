package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/trialconnect/agent/internal/dto"
	"github.com/trialconnect/agent/internal/gateway"
	"github.com/trialconnect/agent/internal/service"
)

// respondError maps service and gateway errors to bridge responses.
// Backend rejections keep their status and message; transport failures
// surface as a bad gateway with a generic message.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNotSignedIn):
		c.JSON(http.StatusUnauthorized, dto.ErrorResponse{
			Error:   "Unauthorized",
			Message: "Not signed in",
		})
	case errors.Is(err, service.ErrInvalidRole),
		errors.Is(err, service.ErrNoConversation),
		errors.Is(err, service.ErrMeetingTimeRequired):
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "Bad request",
			Message: err.Error(),
		})
	case errors.Is(err, service.ErrResearcherOnly):
		c.JSON(http.StatusForbidden, dto.ErrorResponse{
			Error:   "Forbidden",
			Message: err.Error(),
		})
	case errors.Is(err, service.ErrToggleInFlight),
		errors.Is(err, service.ErrAlreadyInvited):
		c.JSON(http.StatusConflict, dto.ErrorResponse{
			Error:   "Conflict",
			Message: err.Error(),
		})
	default:
		var apiErr *gateway.APIError
		if errors.As(err, &apiErr) {
			c.JSON(apiErr.Status, dto.ErrorResponse{
				Error:   "Backend error",
				Message: apiErr.Message,
			})
			return
		}
		c.JSON(http.StatusBadGateway, dto.ErrorResponse{
			Error:   "Bad gateway",
			Message: gateway.ErrorMessage(err),
		})
	}
}
