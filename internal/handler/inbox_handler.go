package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/trialconnect/agent/internal/domain"
	"github.com/trialconnect/agent/internal/dto"
	"github.com/trialconnect/agent/internal/service"
)

// InboxHandler serves the aggregated inbox: notifications, messages,
// connections, and meetings
type InboxHandler struct {
	inbox  *service.InboxService
	poller *service.Poller
}

// NewInboxHandler creates a new inbox handler
func NewInboxHandler(inbox *service.InboxService, poller *service.Poller) *InboxHandler {
	return &InboxHandler{
		inbox:  inbox,
		poller: poller,
	}
}

// Open loads the inbox for the signed-in user. An optional "select" query
// preselects a conversation once the conversation list exists.
func (h *InboxHandler) Open(c *gin.Context) {
	if err := h.inbox.Load(c.Request.Context(), c.Query("select")); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, h.inbox.Snapshot())
}

// Snapshot returns the current inbox state without fetching
func (h *InboxHandler) Snapshot(c *gin.Context) {
	c.JSON(http.StatusOK, h.inbox.Snapshot())
}

// SelectConversation opens one conversation and clears its unread state
func (h *InboxHandler) SelectConversation(c *gin.Context) {
	if err := h.inbox.SelectConversation(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, h.inbox.Snapshot())
}

// SendMessage posts a message into the selected conversation
func (h *InboxHandler) SendMessage(c *gin.Context) {
	var req dto.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "Validation failed",
			Message: err.Error(),
		})
		return
	}

	if err := h.inbox.SendMessage(c.Request.Context(), req.Content); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, h.inbox.Snapshot())
}

// NotificationClick marks the notification read and resolves where it leads
func (h *InboxHandler) NotificationClick(c *gin.Context) {
	var req dto.NotificationClickRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "Validation failed",
			Message: err.Error(),
		})
		return
	}

	dest := h.inbox.RouteNotification(c.Request.Context(), domain.Notification{
		ID:            req.ID,
		Type:          req.Type,
		RelatedUserID: req.RelatedUserID,
		RelatedItemID: req.RelatedItemID,
	})

	c.JSON(http.StatusOK, dest)
}

// MarkAllRead marks every notification read
func (h *InboxHandler) MarkAllRead(c *gin.Context) {
	if err := h.inbox.MarkAllRead(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, h.inbox.Snapshot())
}

// AcceptMeeting accepts a meeting request at the chosen time
func (h *InboxHandler) AcceptMeeting(c *gin.Context) {
	var req dto.AcceptMeetingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "Validation failed",
			Message: err.Error(),
		})
		return
	}

	if err := h.inbox.AcceptMeeting(c.Request.Context(), c.Param("id"), req.ScheduledAt, req.Notes); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.SuccessResponse{
		Message: "Meeting accepted",
	})
}

// DeclineMeeting rejects a meeting request
func (h *InboxHandler) DeclineMeeting(c *gin.Context) {
	if err := h.inbox.DeclineMeeting(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.SuccessResponse{
		Message: "Meeting declined",
	})
}

// RespondConnection accepts or rejects a connection request
func (h *InboxHandler) RespondConnection(c *gin.Context) {
	var req dto.RespondConnectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "Validation failed",
			Message: err.Error(),
		})
		return
	}

	if err := h.inbox.RespondConnection(c.Request.Context(), c.Param("id"), req.Status); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, h.inbox.Snapshot())
}

// RemoveConnection deletes an established connection
func (h *InboxHandler) RemoveConnection(c *gin.Context) {
	if err := h.inbox.RemoveConnection(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, h.inbox.Snapshot())
}

// Visibility pauses or resumes polling on UI visibility changes
func (h *InboxHandler) Visibility(c *gin.Context) {
	var req dto.VisibilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "Validation failed",
			Message: err.Error(),
		})
		return
	}

	h.poller.SetVisible(*req.Visible)

	c.JSON(http.StatusOK, dto.SuccessResponse{
		Message: "Visibility updated",
	})
}
