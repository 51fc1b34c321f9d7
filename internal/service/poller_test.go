package service

import (
	"context"
	"net/http"
	"net/http/httptest"
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

func newPollerFixture(t *testing.T, signedIn bool) (*Poller, *atomic.Int64) {
	t.Helper()

	var requests atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		if r.Method == http.MethodGet {
			w.Write([]byte("[]"))
			return
		}
		w.Write([]byte("{}"))
	}))
	t.Cleanup(srv.Close)

	st := store.NewMemory()
	gw := gateway.New(srv.URL, 5*time.Second, zap.NewNop(), nil)
	inbox := NewInboxService(gw, st, zap.NewNop())

	if signedIn {
		require.NoError(t, st.SaveSession(context.Background(), domain.Session{
			Token: "tok",
			User:  domain.UserRecord{ID: "u1", Role: domain.RolePatient},
		}))
		require.NoError(t, inbox.Load(context.Background(), ""))
	}

	return NewPoller(inbox, 20*time.Millisecond, time.Second, zap.NewNop(), nil), &requests
}

func TestPoller_TicksWhileVisible(t *testing.T) {
	p, requests := newPollerFixture(t, true)
	baseline := requests.Load()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go p.Run(ctx)

	assert.Eventually(t, func() bool {
		return requests.Load() > baseline
	}, 2*time.Second, 10*time.Millisecond, "visible poller must issue fetches")
}

func TestPoller_HiddenTickIssuesNoFetches(t *testing.T) {
	p, requests := newPollerFixture(t, true)
	p.SetVisible(false)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go p.Run(ctx)

	baseline := requests.Load()
	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, baseline, requests.Load(), "hidden ticks must not reach the network")

	// Resuming visibility resumes fetching.
	p.SetVisible(true)
	assert.Eventually(t, func() bool {
		return requests.Load() > baseline
	}, 2*time.Second, 10*time.Millisecond)
}

func TestPoller_SkipsWithoutUser(t *testing.T) {
	p, requests := newPollerFixture(t, false)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go p.Run(ctx)

	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, int64(0), requests.Load(), "no fetches before anyone signs in")
}

func TestPoller_StopsOnCancel(t *testing.T) {
	p, requests := newPollerFixture(t, true)

	ctx, cancel := context.WithCancel(context.Background())
	go p.Run(ctx)

	assert.Eventually(t, func() bool {
		return requests.Load() > 0
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	time.Sleep(50 * time.Millisecond)
	after := requests.Load()
	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, after, requests.Load(), "no ticks after cancellation")
}

func TestPoller_DefaultsApplied(t *testing.T) {
	p := NewPoller(nil, 0, 0, zap.NewNop(), nil)
	assert.Equal(t, 3*time.Second, p.interval)
	assert.Equal(t, 2*time.Second, p.tickTimeout)
	assert.True(t, p.Visible())
}
