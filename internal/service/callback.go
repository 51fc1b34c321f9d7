package service

import (
	"context"

	"github.com/trialconnect/agent/internal/domain"
	"github.com/trialconnect/agent/internal/gateway"
	"github.com/trialconnect/agent/internal/store"
	"go.uber.org/zap"
)

// OutcomeKind tags the result of the OAuth callback decision tree.
type OutcomeKind string

const (
	// OutcomeSignIn: no authenticated identity, go back to sign-in.
	OutcomeSignIn OutcomeKind = "sign_in"
	// OutcomeNeedsProfile: first-time OAuth user, account not yet created.
	OutcomeNeedsProfile OutcomeKind = "needs_profile"
	// OutcomeNeedsVerification: account exists but email is unverified.
	OutcomeNeedsVerification OutcomeKind = "needs_verification"
	// OutcomeVerified: signed in with a verified account.
	OutcomeVerified OutcomeKind = "verified"
	// OutcomeFailed: the sync call failed; terminal, no automatic retry.
	OutcomeFailed OutcomeKind = "failed"
)

// CallbackOutcome is what the callback flow resolved to. Role is set for
// the verification and verified outcomes; Message for failures.
type CallbackOutcome struct {
	Kind    OutcomeKind
	Role    domain.Role
	Message string
}

// Route maps the outcome to the screen the UI should show next.
func (o CallbackOutcome) Route() string {
	switch o.Kind {
	case OutcomeNeedsProfile:
		return "/auth/complete-profile"
	case OutcomeNeedsVerification:
		return "/onboarding/" + string(o.Role) + "/verify"
	case OutcomeVerified:
		return "/dashboard/" + string(o.Role)
	default:
		return "/auth/signin"
	}
}

// CallbackService implements the OAuth callback flow.
type CallbackService struct {
	gw     *gateway.Client
	store  store.Store
	events *Broadcaster
	logger *zap.Logger
}

func NewCallbackService(gw *gateway.Client, st store.Store, events *Broadcaster, logger *zap.Logger) *CallbackService {
	return &CallbackService{
		gw:     gw,
		store:  st,
		events: events,
		logger: logger,
	}
}

// HandleCallback runs once the identity provider has resolved. It consumes
// any pending onboarding payload, syncs the identity with the backend, and
// decides the next screen.
func (s *CallbackService) HandleCallback(ctx context.Context, a domain.IdentityAssertion) CallbackOutcome {
	if !a.Authenticated || a.Sub == "" {
		return CallbackOutcome{Kind: OutcomeSignIn}
	}

	// A pending account left over from an abandoned, different login must
	// not be replayed for this identity.
	if err := s.store.ClearPendingAccountIfNot(ctx, a.Sub); err != nil {
		s.logger.Warn("Failed to check pending account owner", zap.Error(err))
	}

	onboarding, err := s.store.TakePendingOnboarding(ctx)
	if err != nil {
		s.logger.Warn("Failed to read pending onboarding", zap.Error(err))
	}

	req := gateway.OAuthSyncRequest{
		Auth0ID:       a.Sub,
		Email:         a.Email,
		Name:          a.DisplayName(),
		Picture:       a.Picture,
		EmailVerified: a.EmailVerified,
		Provider:      a.Provider(),
	}
	if onboarding != nil {
		req.Role = string(onboarding.Role)
		req.Conditions = onboarding.Conditions
		req.Location = onboarding.Location
		req.Gender = onboarding.Gender
	}

	resp, err := s.gw.OAuthSync(ctx, req)
	if err != nil {
		s.logger.Error("OAuth sync failed", zap.Error(err))
		return CallbackOutcome{Kind: OutcomeFailed, Message: gateway.ErrorMessage(err)}
	}

	if resp.NeedsProfileCompletion && resp.IsNewUser {
		// The account does not exist server-side yet; park the identity
		// snapshot for the profile completion screen.
		pending := resp.Auth0User
		if pending == nil {
			pending = &domain.PendingAccount{
				Auth0ID:       a.Sub,
				Email:         a.Email,
				Name:          a.DisplayName(),
				Picture:       a.Picture,
				EmailVerified: a.EmailVerified,
				Provider:      a.Provider(),
			}
		}
		if err := s.store.PutPendingAccount(ctx, *pending); err != nil {
			s.logger.Warn("Failed to persist pending account", zap.Error(err))
		}
		return CallbackOutcome{Kind: OutcomeNeedsProfile}
	}

	user := resp.User
	if resp.Token != "" && user != nil {
		// An absent emailVerified field decodes to false, which is exactly
		// the conservative default the flow needs.
		if err := s.store.SaveSession(ctx, domain.Session{Token: resp.Token, User: *user}); err != nil {
			s.logger.Error("Failed to persist session", zap.Error(err))
			return CallbackOutcome{Kind: OutcomeFailed, Message: "Something went wrong. Please try again."}
		}
		if user.EmailVerified {
			s.events.LoginCompleted(*user)
		}
	}

	if resp.IsNewUser && onboarding == nil {
		// Direct sign-in without prior onboarding still needs a role.
		return CallbackOutcome{Kind: OutcomeNeedsProfile}
	}

	if user != nil && !user.EmailVerified {
		if resp.Token != "" {
			s.requestVerificationEmail(ctx, resp.Token, user.Email)
		}
		return CallbackOutcome{Kind: OutcomeNeedsVerification, Role: user.Role}
	}

	if user != nil {
		return CallbackOutcome{Kind: OutcomeVerified, Role: user.Role}
	}

	s.logger.Error("OAuth sync response missing session fields")
	return CallbackOutcome{Kind: OutcomeFailed, Message: "Something went wrong. Please try again."}
}

// requestVerificationEmail is best-effort: failures are logged, never
// surfaced, never retried.
func (s *CallbackService) requestVerificationEmail(ctx context.Context, token, email string) {
	resp, err := s.gw.SendVerificationEmail(ctx, token)
	if err != nil {
		s.logger.Warn("Failed to request verification email", zap.Error(err))
		return
	}
	if resp.OTPExpiresAt != nil {
		if err := s.store.SetOTPExpiry(ctx, email, *resp.OTPExpiresAt); err != nil {
			s.logger.Warn("Failed to persist OTP expiry", zap.Error(err))
		}
	}
}
