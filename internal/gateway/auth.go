package gateway

import (
	"context"
	"net/http"
	"time"

	"github.com/trialconnect/agent/internal/domain"
)

// OAuthSyncRequest carries the identity assertion plus any pending
// onboarding answers, merged only when present.
type OAuthSyncRequest struct {
	Auth0ID       string   `json:"auth0Id"`
	Email         string   `json:"email"`
	Name          string   `json:"name"`
	Picture       string   `json:"picture,omitempty"`
	EmailVerified bool     `json:"emailVerified"`
	Provider      string   `json:"provider"`
	Role          string   `json:"role,omitempty"`
	Conditions    []string `json:"conditions,omitempty"`
	Location      string   `json:"location,omitempty"`
	Gender        string   `json:"gender,omitempty"`
}

type OAuthSyncResponse struct {
	Token                  string                 `json:"token,omitempty"`
	User                   *domain.UserRecord     `json:"user,omitempty"`
	IsNewUser              bool                   `json:"isNewUser,omitempty"`
	NeedsProfileCompletion bool                   `json:"needsProfileCompletion,omitempty"`
	Auth0User              *domain.PendingAccount `json:"auth0User,omitempty"`
}

// OAuthSync exchanges an identity assertion for a session or a
// profile-completion directive.
func (c *Client) OAuthSync(ctx context.Context, req OAuthSyncRequest) (*OAuthSyncResponse, error) {
	var resp OAuthSyncResponse
	if err := c.do(ctx, http.MethodPost, "/api/auth/oauth-sync", nil, "", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

type VerificationResponse struct {
	OTPExpiresAt *time.Time `json:"otpExpiresAt,omitempty"`
}

// SendVerificationEmail asks the backend to mail a verification code.
func (c *Client) SendVerificationEmail(ctx context.Context, token string) (*VerificationResponse, error) {
	var resp VerificationResponse
	if err := c.do(ctx, http.MethodPost, "/api/auth/send-verification-email", nil, token, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

type CompleteProfileRequest struct {
	Role          string `json:"role"`
	Auth0ID       string `json:"auth0Id,omitempty"`
	Email         string `json:"email,omitempty"`
	Name          string `json:"name,omitempty"`
	Picture       string `json:"picture,omitempty"`
	EmailVerified bool   `json:"emailVerified,omitempty"`
	Provider      string `json:"provider,omitempty"`
}

type CompleteProfileResponse struct {
	Token string             `json:"token,omitempty"`
	User  *domain.UserRecord `json:"user,omitempty"`
}

// CompleteOAuthProfile creates the account if needed and records the role.
func (c *Client) CompleteOAuthProfile(ctx context.Context, req CompleteProfileRequest) (*CompleteProfileResponse, error) {
	var resp CompleteProfileResponse
	if err := c.do(ctx, http.MethodPost, "/api/auth/complete-oauth-profile", nil, "", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
