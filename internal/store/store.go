// Package store holds the client-side key-value state that bridges page
// loads of multi-step flows: the session, pending OAuth handoff payloads,
// and per-email OTP expiries. Handoff payloads are single-consumer: reads
// delete the value, so two flows can never replay the same payload.
package store

import (
	"context"
	"time"

	"github.com/trialconnect/agent/internal/domain"
)

// Keys mirror the browser storage keys the web client used.
const (
	keyToken             = "token"
	keyUser              = "user"
	keyPendingAccount    = "auth0_pending_account"
	keyPendingOnboarding = "auth0_pending_onboarding"
	otpExpiryPrefix      = "otp_expiry_"
)

// Store is the shared mutable state consulted at flow boundaries.
// Absent values are returned as nil with a nil error.
type Store interface {
	// Session state.
	Session(ctx context.Context) (*domain.Session, error)
	SaveSession(ctx context.Context, s domain.Session) error
	ClearSession(ctx context.Context) error

	// Pending OAuth account handoff.
	PutPendingAccount(ctx context.Context, a domain.PendingAccount) error
	// TakePendingAccount consumes the pending account (delete-on-read).
	TakePendingAccount(ctx context.Context) (*domain.PendingAccount, error)
	// HasPendingAccount reports presence without consuming.
	HasPendingAccount(ctx context.Context) (bool, error)
	// ClearPendingAccountIfNot discards a pending account owned by a
	// different auth0Id. A matching or absent record is left untouched.
	ClearPendingAccountIfNot(ctx context.Context, auth0ID string) error
	ClearPendingAccount(ctx context.Context) error

	// Pending onboarding answers, consumed exactly once.
	PutPendingOnboarding(ctx context.Context, o domain.PendingOnboarding) error
	TakePendingOnboarding(ctx context.Context) (*domain.PendingOnboarding, error)

	// OTP expiry bookkeeping, keyed per email.
	SetOTPExpiry(ctx context.Context, email string, at time.Time) error
	OTPExpiry(ctx context.Context, email string) (*time.Time, error)

	Ping(ctx context.Context) error
	Close() error
}

func otpKey(email string) string {
	return otpExpiryPrefix + email
}
