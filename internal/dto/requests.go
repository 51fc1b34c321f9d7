package dto

import (
	"time"

	"github.com/trialconnect/agent/internal/domain"
)

// CallbackRequest carries the identity the OAuth provider resolved,
// posted by the UI once the provider redirect settles
type CallbackRequest struct {
	Authenticated bool   `json:"authenticated"`
	Sub           string `json:"sub"`
	Email         string `json:"email"`
	Name          string `json:"name"`
	Nickname      string `json:"nickname"`
	Picture       string `json:"picture"`
	EmailVerified bool   `json:"emailVerified"`
}

// Assertion converts the request into the domain identity assertion.
func (r CallbackRequest) Assertion() domain.IdentityAssertion {
	return domain.IdentityAssertion{
		Authenticated: r.Authenticated,
		Sub:           r.Sub,
		Email:         r.Email,
		Name:          r.Name,
		Nickname:      r.Nickname,
		Picture:       r.Picture,
		EmailVerified: r.EmailVerified,
	}
}

// CallbackResponse tells the UI which screen to show next
type CallbackResponse struct {
	Outcome string `json:"outcome"`
	Role    string `json:"role,omitempty"`
	Route   string `json:"route"`
	Message string `json:"message,omitempty"`
}

// CompleteProfileRequest finalizes a first-time OAuth account with a role
type CompleteProfileRequest struct {
	Role      string           `json:"role" binding:"required,oneof=patient researcher"`
	Assertion *CallbackRequest `json:"assertion,omitempty"`
}

// CompleteProfileResponse returns the new session's user and next screen
type CompleteProfileResponse struct {
	User  domain.UserRecord `json:"user"`
	Route string            `json:"route"`
}

// SessionResponse reports the locally held session, if any
type SessionResponse struct {
	SignedIn bool               `json:"signedIn"`
	User     *domain.UserRecord `json:"user,omitempty"`
}

// ToggleFavoriteRequest adds or removes one favorite
type ToggleFavoriteRequest struct {
	Type string              `json:"type" binding:"required,oneof=expert publication trial"`
	Item domain.FavoriteItem `json:"item" binding:"required"`
}

// ToggleFavoriteResponse reports the post-toggle state
type ToggleFavoriteResponse struct {
	Favorited bool                   `json:"favorited"`
	Favorites []domain.FavoriteEntry `json:"favorites"`
}

// InviteRequest invites an off-platform expert
type InviteRequest struct {
	Name        string `json:"name" binding:"required"`
	ORCID       string `json:"orcid,omitempty"`
	Affiliation string `json:"affiliation,omitempty"`
	Location    string `json:"location,omitempty"`
}

// InviteCheckResponse reports whether the expert was already invited
type InviteCheckResponse struct {
	HasInvited bool `json:"hasInvited"`
}

// SummaryRequest asks for an AI summary of profile text
type SummaryRequest struct {
	Text string `json:"text" binding:"required"`
}

// SummaryResponse carries the generated summary
type SummaryResponse struct {
	Summary string `json:"summary"`
}

// SendMessageRequest posts a message into the selected conversation
type SendMessageRequest struct {
	Content string `json:"content" binding:"required"`
}

// NotificationClickRequest resolves where a clicked notification leads
type NotificationClickRequest struct {
	ID            string `json:"id" binding:"required"`
	Type          string `json:"type" binding:"required"`
	RelatedUserID string `json:"relatedUserId,omitempty"`
	RelatedItemID string `json:"relatedItemId,omitempty"`
}

// AcceptMeetingRequest accepts a meeting request at a chosen time
type AcceptMeetingRequest struct {
	ScheduledAt time.Time `json:"scheduledAt"`
	Notes       string    `json:"notes,omitempty"`
}

// RespondConnectionRequest accepts or rejects a connection request
type RespondConnectionRequest struct {
	Status string `json:"status" binding:"required,oneof=accepted rejected"`
}

// VisibilityRequest pauses or resumes polling on visibility changes
type VisibilityRequest struct {
	Visible *bool `json:"visible" binding:"required"`
}

// SuccessResponse represents a success response
type SuccessResponse struct {
	Message string `json:"message"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string      `json:"error"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}
