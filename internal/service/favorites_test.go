package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trialconnect/agent/internal/domain"
	"github.com/trialconnect/agent/internal/gateway"
	"github.com/trialconnect/agent/internal/store"
	"go.uber.org/zap"
)

type favoritesBackend struct {
	adds, removes, lists, invites atomic.Int64

	failAdds   bool
	serverList []domain.FavoriteEntry

	// When set, POST handlers block until released.
	addStarted chan struct{}
	addRelease chan struct{}
}

func (b *favoritesBackend) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasPrefix(r.URL.Path, "/api/favorites/"):
			switch r.Method {
			case http.MethodGet:
				b.lists.Add(1)
				json.NewEncoder(w).Encode(b.serverList)
			case http.MethodPost:
				if b.addStarted != nil {
					b.addStarted <- struct{}{}
					<-b.addRelease
				}
				b.adds.Add(1)
				if b.failAdds {
					w.WriteHeader(http.StatusInternalServerError)
					w.Write([]byte(`{"error":"favorite rejected"}`))
					return
				}
				w.Write([]byte("{}"))
			case http.MethodDelete:
				b.removes.Add(1)
				w.Write([]byte("{}"))
			}
		case r.URL.Path == "/api/expert-invites/check":
			json.NewEncoder(w).Encode(map[string]bool{"hasInvited": false})
		case r.URL.Path == "/api/expert-invites":
			b.invites.Add(1)
			w.Write([]byte("{}"))
		default:
			http.NotFound(w, r)
		}
	}
}

func newFavoritesFixture(t *testing.T, backend *favoritesBackend) (*FavoritesService, *store.Memory) {
	t.Helper()

	srv := httptest.NewServer(backend.handler())
	t.Cleanup(srv.Close)

	st := store.NewMemory()
	require.NoError(t, st.SaveSession(context.Background(), domain.Session{
		Token: "tok",
		User:  domain.UserRecord{ID: "u1", Role: domain.RolePatient},
	}))

	gw := gateway.New(srv.URL, 5*time.Second, zap.NewNop(), nil)
	return NewFavoritesService(gw, st, zap.NewNop()), st
}

func TestToggle_RequiresSession(t *testing.T) {
	backend := &favoritesBackend{}
	svc, st := newFavoritesFixture(t, backend)
	require.NoError(t, st.ClearSession(context.Background()))

	_, err := svc.Toggle(context.Background(), trial("T1", "Drug X Trial"))
	assert.ErrorIs(t, err, ErrNotSignedIn)
	assert.Equal(t, int64(0), backend.adds.Load())
}

func TestToggle_AddRefetchesAuthoritativeList(t *testing.T) {
	backend := &favoritesBackend{
		serverList: []domain.FavoriteEntry{
			{ID: "srv-1", Type: domain.FavoriteTrial, Item: domain.FavoriteItem{ID: "T1", Title: "Drug X Trial"}},
		},
	}
	svc, _ := newFavoritesFixture(t, backend)

	added, err := svc.Toggle(context.Background(), trial("T1", "Drug X Trial"))
	require.NoError(t, err)
	assert.True(t, added)

	list := svc.List()
	require.Len(t, list, 1)
	assert.Equal(t, "srv-1", list[0].ID, "local state must come from the re-fetch, not the optimistic value")
	assert.Equal(t, int64(1), backend.adds.Load())
	assert.Equal(t, int64(1), backend.lists.Load())
}

func TestToggle_RollsBackOnFailure(t *testing.T) {
	backend := &favoritesBackend{failAdds: true}
	svc, _ := newFavoritesFixture(t, backend)

	_, err := svc.Toggle(context.Background(), trial("T1", "Drug X Trial"))
	require.Error(t, err)
	assert.Equal(t, "favorite rejected", gateway.ErrorMessage(err))

	assert.Empty(t, svc.List(), "failed add must revert to the pre-toggle snapshot")

	// The in-flight marker must be cleared on failure too.
	backend.failAdds = false
	_, err = svc.Toggle(context.Background(), trial("T1", "Drug X Trial"))
	require.NoError(t, err)
}

func TestToggle_DuplicateInvocationIsNoOp(t *testing.T) {
	backend := &favoritesBackend{
		addStarted: make(chan struct{}),
		addRelease: make(chan struct{}),
	}
	svc, _ := newFavoritesFixture(t, backend)

	entry := trial("T1", "Drug X Trial")
	done := make(chan error, 1)
	go func() {
		_, err := svc.Toggle(context.Background(), entry)
		done <- err
	}()

	// Wait until the first toggle's network call is in flight.
	<-backend.addStarted

	_, err := svc.Toggle(context.Background(), entry)
	assert.ErrorIs(t, err, ErrToggleInFlight)

	close(backend.addRelease)
	require.NoError(t, <-done)

	assert.Equal(t, int64(1), backend.adds.Load(), "exactly one network call for a double toggle")
	assert.Len(t, svc.List(), 0, "final state equals a single toggle against the (empty) server list")
}

func TestToggle_RemoveUsesResolvedID(t *testing.T) {
	backend := &favoritesBackend{}
	svc, _ := newFavoritesFixture(t, backend)

	// Seed the local list as if loaded from the backend.
	backend.serverList = []domain.FavoriteEntry{
		{ID: "srv-9", Type: domain.FavoriteExpert, Item: domain.FavoriteItem{Name: "Jane Doe"}},
	}
	require.NoError(t, svc.Load(context.Background()))
	backend.serverList = nil

	added, err := svc.Toggle(context.Background(), expert("Jane Doe", ""))
	require.NoError(t, err)
	assert.False(t, added)
	assert.Equal(t, int64(1), backend.removes.Load())
	assert.Empty(t, svc.List())
}

func TestInvite_SecondInviteRejectedLocally(t *testing.T) {
	backend := &favoritesBackend{}
	svc, _ := newFavoritesFixture(t, backend)

	inv := domain.ExpertInvite{Name: "Jane Doe", ORCID: "0000-0001"}
	require.NoError(t, svc.Invite(context.Background(), inv))
	assert.Equal(t, int64(1), backend.invites.Load())

	err := svc.Invite(context.Background(), inv)
	assert.ErrorIs(t, err, ErrAlreadyInvited)
	assert.Equal(t, int64(1), backend.invites.Load(), "second invite must not reach the network")
}
