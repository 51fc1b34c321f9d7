package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/trialconnect/agent/internal/domain"
	"github.com/trialconnect/agent/internal/gateway"
	"github.com/trialconnect/agent/internal/store"
	"go.uber.org/zap"
)

// ErrNotSignedIn means no identity, pending account, or session is available.
var ErrNotSignedIn = errors.New("not signed in")

// ErrInvalidRole means the requested role is not patient or researcher.
var ErrInvalidRole = errors.New("invalid role")

// ProfileService finalizes account creation for first-time OAuth users.
type ProfileService struct {
	gw     *gateway.Client
	store  store.Store
	events *Broadcaster
	logger *zap.Logger
}

func NewProfileService(gw *gateway.Client, st store.Store, events *Broadcaster, logger *zap.Logger) *ProfileService {
	return &ProfileService{
		gw:     gw,
		store:  st,
		events: events,
		logger: logger,
	}
}

// ProfileResult is the session and next screen after completion.
type ProfileResult struct {
	Session domain.Session
	Route   string
}

// Complete records the chosen role and, if the account does not exist yet,
// creates it from the pending identity snapshot. The snapshot is consumed
// whether or not the call succeeds.
func (s *ProfileService) Complete(ctx context.Context, role domain.Role, a *domain.IdentityAssertion) (*ProfileResult, error) {
	if !role.Valid() {
		return nil, ErrInvalidRole
	}

	pending, err := s.store.TakePendingAccount(ctx)
	if err != nil {
		s.logger.Warn("Failed to read pending account", zap.Error(err))
	}

	sess, err := s.store.Session(ctx)
	if err != nil {
		s.logger.Warn("Failed to read session", zap.Error(err))
	}

	authenticated := a != nil && a.Authenticated
	if !authenticated && pending == nil && sess == nil {
		return nil, ErrNotSignedIn
	}

	req := gateway.CompleteProfileRequest{Role: string(role)}
	switch {
	case pending != nil:
		req.Auth0ID = pending.Auth0ID
		req.Email = pending.Email
		req.Name = pending.Name
		req.Picture = pending.Picture
		req.EmailVerified = pending.EmailVerified
		req.Provider = pending.Provider
	case authenticated:
		req.Auth0ID = a.Sub
		req.Email = a.Email
		req.Name = a.DisplayName()
		req.Picture = a.Picture
		req.EmailVerified = a.EmailVerified
		req.Provider = a.Provider()
	}

	resp, err := s.gw.CompleteOAuthProfile(ctx, req)
	if err != nil {
		return nil, err
	}
	if resp.Token == "" || resp.User == nil {
		return nil, fmt.Errorf("profile completion response missing session fields")
	}

	session := domain.Session{Token: resp.Token, User: *resp.User}
	if err := s.store.SaveSession(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to persist session: %w", err)
	}

	// Unconditional here, unlike the callback path.
	s.events.LoginCompleted(*resp.User)

	return &ProfileResult{
		Session: session,
		Route:   "/onboarding/" + string(role),
	}, nil
}

// Abandon discards the pending identity snapshot. Called when the user
// leaves the profile completion screen without choosing a role, so the
// next visit does not see orphaned state.
func (s *ProfileService) Abandon(ctx context.Context) error {
	return s.store.ClearPendingAccount(ctx)
}
