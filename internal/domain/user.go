package domain

import (
	"strings"
	"time"
)

// Role gates which inbox tabs and actions are available to a user.
type Role string

const (
	RolePatient    Role = "patient"
	RoleResearcher Role = "researcher"
)

// Valid reports whether the role is one of the two supported roles.
func (r Role) Valid() bool {
	return r == RolePatient || r == RoleResearcher
}

// UserRecord represents a user as returned by the backend
type UserRecord struct {
	ID            string    `json:"id"`
	Email         string    `json:"email"`
	Name          string    `json:"name"`
	Role          Role      `json:"role"`
	EmailVerified bool      `json:"emailVerified"`
	Picture       string    `json:"picture,omitempty"`
	CreatedAt     time.Time `json:"created_at,omitempty"`
}

// Session is the locally held authenticated state
type Session struct {
	Token string     `json:"token"`
	User  UserRecord `json:"user"`
}

// IdentityAssertion carries the identity resolved by the external OAuth
// provider. The UI posts it to the bridge once the provider redirect settles.
type IdentityAssertion struct {
	Authenticated bool   `json:"authenticated"`
	Sub           string `json:"sub"`
	Email         string `json:"email"`
	Name          string `json:"name"`
	Nickname      string `json:"nickname"`
	Picture       string `json:"picture"`
	EmailVerified bool   `json:"emailVerified"`
}

// Provider returns the identity provider encoded as the prefix of the
// subject before the first "|" (e.g. "google-oauth2|123" -> "google-oauth2").
func (a IdentityAssertion) Provider() string {
	if i := strings.Index(a.Sub, "|"); i >= 0 {
		return a.Sub[:i]
	}
	return a.Sub
}

// DisplayName resolves the user-facing name, falling back to the nickname
// and then the local part of the email.
func (a IdentityAssertion) DisplayName() string {
	if a.Name != "" {
		return a.Name
	}
	if a.Nickname != "" {
		return a.Nickname
	}
	if i := strings.Index(a.Email, "@"); i > 0 {
		return a.Email[:i]
	}
	return a.Email
}

// PendingAccount is the identity snapshot held between the OAuth redirect
// and profile completion. It must never be replayed for a different Auth0ID.
type PendingAccount struct {
	Auth0ID       string `json:"auth0Id"`
	Email         string `json:"email"`
	Name          string `json:"name"`
	Picture       string `json:"picture,omitempty"`
	EmailVerified bool   `json:"emailVerified"`
	Provider      string `json:"provider"`
}

// PendingOnboarding holds onboarding answers captured before authentication,
// replayed into the sync call once identity is known. Consumed exactly once.
type PendingOnboarding struct {
	Role       Role     `json:"role,omitempty"`
	Conditions []string `json:"conditions,omitempty"`
	Location   string   `json:"location,omitempty"`
	Gender     string   `json:"gender,omitempty"`
}
