package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trialconnect/agent/internal/domain"
	"github.com/trialconnect/agent/internal/gateway"
	"github.com/trialconnect/agent/internal/store"
	"go.uber.org/zap"
)

func newProfileFixture(t *testing.T) (*ProfileService, *store.Memory, *Broadcaster, *gateway.CompleteProfileRequest) {
	t.Helper()

	st := store.NewMemory()
	events := NewBroadcaster()
	lastReq := &gateway.CompleteProfileRequest{}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/complete-oauth-profile", func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(lastReq)
		json.NewEncoder(w).Encode(gateway.CompleteProfileResponse{
			Token: "tok-2",
			User: &domain.UserRecord{
				ID:    "u2",
				Email: lastReq.Email,
				Role:  domain.Role(lastReq.Role),
				// Intake via explicit profile completion is treated as
				// verified enough to broadcast; the flag itself stays false.
			},
		})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	gw := gateway.New(srv.URL, 5*time.Second, zap.NewNop(), nil)
	return NewProfileService(gw, st, events, zap.NewNop()), st, events, lastReq
}

func TestComplete_ConsumesPendingAccount(t *testing.T) {
	ctx := context.Background()
	svc, st, events, lastReq := newProfileFixture(t)

	require.NoError(t, st.PutPendingAccount(ctx, domain.PendingAccount{
		Auth0ID:  "google-oauth2|42",
		Email:    "jane@example.com",
		Name:     "Jane Doe",
		Provider: "google-oauth2",
	}))

	id, logins := events.Subscribe()
	defer events.Unsubscribe(id)

	result, err := svc.Complete(ctx, domain.RoleResearcher, nil)
	require.NoError(t, err)
	assert.Equal(t, "/onboarding/researcher", result.Route)
	assert.Equal(t, "tok-2", result.Session.Token)

	assert.Equal(t, "google-oauth2|42", lastReq.Auth0ID)
	assert.Equal(t, "researcher", lastReq.Role)

	pending, err := st.TakePendingAccount(ctx)
	require.NoError(t, err)
	assert.Nil(t, pending, "pending account must be consumed")

	// Unlike the callback path, the login signal fires unconditionally.
	select {
	case user := <-logins:
		assert.Equal(t, "u2", user.ID)
	default:
		t.Fatal("expected unconditional login signal after profile completion")
	}

	sess, err := st.Session(ctx)
	require.NoError(t, err)
	require.NotNil(t, sess)
	assert.Equal(t, "tok-2", sess.Token)
}

func TestComplete_RequiresSomeIdentity(t *testing.T) {
	svc, _, _, _ := newProfileFixture(t)

	_, err := svc.Complete(context.Background(), domain.RolePatient, nil)
	assert.ErrorIs(t, err, ErrNotSignedIn)
}

func TestComplete_RejectsUnknownRole(t *testing.T) {
	svc, _, _, _ := newProfileFixture(t)

	_, err := svc.Complete(context.Background(), domain.Role("admin"), nil)
	assert.ErrorIs(t, err, ErrInvalidRole)
}

func TestComplete_AcceptsLiveAssertionWithoutPending(t *testing.T) {
	svc, _, _, _ := newProfileFixture(t)

	a := &domain.IdentityAssertion{Authenticated: true, Sub: "auth0|1", Email: "x@example.com"}
	result, err := svc.Complete(context.Background(), domain.RolePatient, a)
	require.NoError(t, err)
	assert.Equal(t, "/onboarding/patient", result.Route)
}

func TestAbandon_DiscardsPendingAccount(t *testing.T) {
	ctx := context.Background()
	svc, st, _, _ := newProfileFixture(t)

	require.NoError(t, st.PutPendingAccount(ctx, domain.PendingAccount{Auth0ID: "auth0|1"}))
	require.NoError(t, svc.Abandon(ctx))

	ok, err := st.HasPendingAccount(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}
