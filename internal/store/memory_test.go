package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trialconnect/agent/internal/domain"
)

func TestSessionRoundTrip(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	s, err := m.Session(ctx)
	require.NoError(t, err)
	assert.Nil(t, s, "empty store should have no session")

	err = m.SaveSession(ctx, domain.Session{
		Token: "tok-1",
		User:  domain.UserRecord{ID: "u1", Email: "a@example.com", Role: domain.RolePatient},
	})
	require.NoError(t, err)

	s, err = m.Session(ctx)
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, "tok-1", s.Token)
	assert.Equal(t, "u1", s.User.ID)

	require.NoError(t, m.ClearSession(ctx))
	s, err = m.Session(ctx)
	require.NoError(t, err)
	assert.Nil(t, s)
}

func TestTakePendingAccountDeletesOnRead(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	require.NoError(t, m.PutPendingAccount(ctx, domain.PendingAccount{Auth0ID: "google-oauth2|1"}))

	a, err := m.TakePendingAccount(ctx)
	require.NoError(t, err)
	require.NotNil(t, a)
	assert.Equal(t, "google-oauth2|1", a.Auth0ID)

	a, err = m.TakePendingAccount(ctx)
	require.NoError(t, err)
	assert.Nil(t, a, "second take must find nothing")
}

func TestClearPendingAccountIfNot(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	require.NoError(t, m.PutPendingAccount(ctx, domain.PendingAccount{Auth0ID: "auth0|A"}))

	// Matching owner keeps the record.
	require.NoError(t, m.ClearPendingAccountIfNot(ctx, "auth0|A"))
	ok, err := m.HasPendingAccount(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	// A different identity discards it.
	require.NoError(t, m.ClearPendingAccountIfNot(ctx, "auth0|B"))
	ok, err = m.HasPendingAccount(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestTakePendingOnboardingConsumedOnce(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	require.NoError(t, m.PutPendingOnboarding(ctx, domain.PendingOnboarding{
		Role:       domain.RolePatient,
		Conditions: []string{"asthma"},
	}))

	o, err := m.TakePendingOnboarding(ctx)
	require.NoError(t, err)
	require.NotNil(t, o)
	assert.Equal(t, domain.RolePatient, o.Role)

	o, err = m.TakePendingOnboarding(ctx)
	require.NoError(t, err)
	assert.Nil(t, o)
}

func TestOTPExpiryKeyedPerEmail(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	at := time.Now().Add(10 * time.Minute).UTC().Truncate(time.Second)
	require.NoError(t, m.SetOTPExpiry(ctx, "a@example.com", at))

	got, err := m.OTPExpiry(ctx, "a@example.com")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.Equal(at))

	other, err := m.OTPExpiry(ctx, "b@example.com")
	require.NoError(t, err)
	assert.Nil(t, other)
}
