package gateway

import (
	"context"
	"net/http"
	"time"

	"github.com/trialconnect/agent/internal/domain"
)

// Notifications lists a user's notifications (insights).
func (c *Client) Notifications(ctx context.Context, token, userID string) ([]domain.Notification, error) {
	var list []domain.Notification
	if err := c.do(ctx, http.MethodGet, "/api/insights/"+userID, nil, token, nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// Followers lists the users following the given user.
func (c *Client) Followers(ctx context.Context, token, userID string) ([]domain.UserRecord, error) {
	var list []domain.UserRecord
	if err := c.do(ctx, http.MethodGet, "/api/insights/"+userID+"/followers", nil, token, nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// MarkNotificationRead marks one notification as read.
func (c *Client) MarkNotificationRead(ctx context.Context, token, notificationID string) error {
	return c.do(ctx, http.MethodPatch, "/api/insights/"+notificationID+"/read", nil, token, nil, nil)
}

// MarkAllNotificationsRead marks every notification of a user as read.
func (c *Client) MarkAllNotificationsRead(ctx context.Context, token, userID string) error {
	return c.do(ctx, http.MethodPatch, "/api/insights/"+userID+"/read-all", nil, token, nil, nil)
}

// Conversations lists a user's conversations.
func (c *Client) Conversations(ctx context.Context, token, userID string) ([]domain.Conversation, error) {
	var list []domain.Conversation
	if err := c.do(ctx, http.MethodGet, "/api/messages/"+userID+"/conversations", nil, token, nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// ConversationMessages lists the messages of one conversation, ordered by
// creation time.
func (c *Client) ConversationMessages(ctx context.Context, token, userID, otherID string) ([]domain.Message, error) {
	var list []domain.Message
	if err := c.do(ctx, http.MethodGet, "/api/messages/"+userID+"/conversation/"+otherID, nil, token, nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

type MessageRequest struct {
	SenderID   string `json:"senderId"`
	ReceiverID string `json:"receiverId"`
	Content    string `json:"content"`
}

// SendMessage posts a direct message.
func (c *Client) SendMessage(ctx context.Context, token string, req MessageRequest) error {
	return c.do(ctx, http.MethodPost, "/api/messages", nil, token, req, nil)
}

// MarkConversationRead clears the unread state of one conversation.
func (c *Client) MarkConversationRead(ctx context.Context, token, userID, otherID string) error {
	return c.do(ctx, http.MethodPatch, "/api/messages/"+userID+"/conversation/"+otherID+"/read", nil, token, nil, nil)
}

// ConnectionRequests lists pending connection requests addressed to a user.
func (c *Client) ConnectionRequests(ctx context.Context, token, userID string) ([]domain.ConnectionRequest, error) {
	var list []domain.ConnectionRequest
	if err := c.do(ctx, http.MethodGet, "/api/connection-requests/"+userID, nil, token, nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// RespondConnectionRequest accepts or rejects a connection request.
func (c *Client) RespondConnectionRequest(ctx context.Context, token, requestID, status string) error {
	req := map[string]string{"status": status}
	return c.do(ctx, http.MethodPatch, "/api/connection-requests/"+requestID, nil, token, req, nil)
}

// Connections lists a user's established connections.
func (c *Client) Connections(ctx context.Context, token, userID string) ([]domain.Connection, error) {
	var list []domain.Connection
	if err := c.do(ctx, http.MethodGet, "/api/connection-requests/"+userID+"/connections", nil, token, nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// RemoveConnection deletes an established connection.
func (c *Client) RemoveConnection(ctx context.Context, token, connectionID string) error {
	return c.do(ctx, http.MethodDelete, "/api/connection-requests/"+connectionID, nil, token, nil, nil)
}

// MeetingRequests lists meeting requests addressed to a user.
func (c *Client) MeetingRequests(ctx context.Context, token, userID string) ([]domain.MeetingRequest, error) {
	var list []domain.MeetingRequest
	if err := c.do(ctx, http.MethodGet, "/api/meeting-requests/"+userID, nil, token, nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// UpcomingMeetings lists accepted meetings with a scheduled time.
func (c *Client) UpcomingMeetings(ctx context.Context, token, userID string) ([]domain.MeetingRequest, error) {
	var list []domain.MeetingRequest
	if err := c.do(ctx, http.MethodGet, "/api/meeting-requests/"+userID+"/upcoming", nil, token, nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

type AcceptMeetingRequest struct {
	ScheduledAt time.Time `json:"scheduledAt"`
	Notes       string    `json:"notes,omitempty"`
}

// AcceptMeetingTime accepts a meeting request at the chosen time.
func (c *Client) AcceptMeetingTime(ctx context.Context, token, requestID string, req AcceptMeetingRequest) error {
	return c.do(ctx, http.MethodPatch, "/api/meeting-requests/"+requestID+"/accept-time", nil, token, req, nil)
}

// DeclineMeeting rejects a meeting request.
func (c *Client) DeclineMeeting(ctx context.Context, token, requestID string) error {
	req := map[string]string{"status": domain.StatusRejected}
	return c.do(ctx, http.MethodPatch, "/api/meeting-requests/"+requestID, nil, token, req, nil)
}
