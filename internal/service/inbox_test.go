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

type inboxBackend struct {
	requests      atomic.Int64
	readMarks     atomic.Int64
	sentMessages  atomic.Int64
	acceptedTimes atomic.Int64

	conversations []domain.Conversation
	messages      []domain.Message
}

func (b *inboxBackend) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b.requests.Add(1)

		switch {
		case r.Method == http.MethodGet && strings.HasSuffix(r.URL.Path, "/conversations"):
			json.NewEncoder(w).Encode(b.conversations)
		case r.Method == http.MethodGet && strings.Contains(r.URL.Path, "/conversation/"):
			json.NewEncoder(w).Encode(b.messages)
		case r.Method == http.MethodPatch && strings.HasSuffix(r.URL.Path, "/read"):
			b.readMarks.Add(1)
			w.Write([]byte("{}"))
		case r.Method == http.MethodPatch && strings.HasSuffix(r.URL.Path, "/accept-time"):
			b.acceptedTimes.Add(1)
			w.Write([]byte("{}"))
		case r.Method == http.MethodPost && r.URL.Path == "/api/messages":
			b.sentMessages.Add(1)
			w.Write([]byte("{}"))
		case r.Method == http.MethodGet:
			w.Write([]byte("[]"))
		default:
			w.Write([]byte("{}"))
		}
	}
}

func newInboxFixture(t *testing.T, backend *inboxBackend, role domain.Role) (*InboxService, *store.Memory) {
	t.Helper()

	srv := httptest.NewServer(backend.handler())
	t.Cleanup(srv.Close)

	st := store.NewMemory()
	require.NoError(t, st.SaveSession(context.Background(), domain.Session{
		Token: "tok",
		User:  domain.UserRecord{ID: "u1", Role: role, EmailVerified: true},
	}))

	gw := gateway.New(srv.URL, 5*time.Second, zap.NewNop(), nil)
	return NewInboxService(gw, st, zap.NewNop()), st
}

func TestShouldReplaceMessages(t *testing.T) {
	msgs := func(ids ...string) []domain.Message {
		out := make([]domain.Message, len(ids))
		for i, id := range ids {
			out[i] = domain.Message{ID: id}
		}
		return out
	}

	assert.False(t, shouldReplaceMessages(msgs("a", "b"), msgs("a", "b")),
		"same length and same last id must not replace")
	assert.False(t, shouldReplaceMessages(nil, nil))
	assert.True(t, shouldReplaceMessages(msgs("a"), msgs("a", "b")))
	assert.True(t, shouldReplaceMessages(msgs("a", "b"), msgs("a", "c")),
		"same length but different last id must replace")
	assert.True(t, shouldReplaceMessages(msgs("a"), nil))
}

func TestLoad_RequiresSession(t *testing.T) {
	backend := &inboxBackend{}
	svc, st := newInboxFixture(t, backend, domain.RolePatient)
	require.NoError(t, st.ClearSession(context.Background()))

	err := svc.Load(context.Background(), "")
	assert.ErrorIs(t, err, ErrNotSignedIn)
	assert.Equal(t, int64(0), backend.requests.Load())
}

func TestLoad_PreselectsConversationAfterListExists(t *testing.T) {
	backend := &inboxBackend{
		conversations: []domain.Conversation{{OtherUserID: "c1", OtherUserName: "Pat"}},
		messages:      []domain.Message{{ID: "m1", Content: "hello"}},
	}
	svc, _ := newInboxFixture(t, backend, domain.RoleResearcher)

	require.NoError(t, svc.Load(context.Background(), "c1"))

	snap := svc.Snapshot()
	assert.Equal(t, "c1", snap.SelectedConversation)
	require.Len(t, snap.Messages, 1)
	assert.Equal(t, "m1", snap.Messages[0].ID)
}

func TestLoad_PreselectIgnoredForPatients(t *testing.T) {
	backend := &inboxBackend{
		conversations: []domain.Conversation{{OtherUserID: "c1"}},
	}
	svc, _ := newInboxFixture(t, backend, domain.RolePatient)

	require.NoError(t, svc.Load(context.Background(), "c1"))
	assert.Empty(t, svc.Snapshot().SelectedConversation)
}

func TestTick_KeepsMessagesWhenUnchanged(t *testing.T) {
	backend := &inboxBackend{
		conversations: []domain.Conversation{{OtherUserID: "c1"}},
		messages:      []domain.Message{{ID: "m1"}, {ID: "m2"}},
	}
	svc, _ := newInboxFixture(t, backend, domain.RoleResearcher)

	require.NoError(t, svc.Load(context.Background(), "c1"))
	before := svc.Snapshot().Messages

	// Same length, same last id: the held slice must survive the tick.
	svc.Tick(context.Background())
	after := svc.Snapshot().Messages
	require.Len(t, after, 2)
	assert.Equal(t, before[1].ID, after[1].ID)

	backend.messages = []domain.Message{{ID: "m1"}, {ID: "m2"}, {ID: "m3"}}
	svc.Tick(context.Background())
	assert.Len(t, svc.Snapshot().Messages, 3)
}

func TestSendMessage_ResearcherOnly(t *testing.T) {
	backend := &inboxBackend{}
	svc, _ := newInboxFixture(t, backend, domain.RolePatient)
	require.NoError(t, svc.Load(context.Background(), ""))

	err := svc.SendMessage(context.Background(), "hello")
	assert.ErrorIs(t, err, ErrResearcherOnly)
	assert.Equal(t, int64(0), backend.sentMessages.Load())
}

func TestSendMessage_RefetchesInsteadOfAppending(t *testing.T) {
	backend := &inboxBackend{
		conversations: []domain.Conversation{{OtherUserID: "c1"}},
		messages:      []domain.Message{{ID: "m1"}},
	}
	svc, _ := newInboxFixture(t, backend, domain.RoleResearcher)
	require.NoError(t, svc.Load(context.Background(), "c1"))

	backend.messages = []domain.Message{{ID: "m1"}, {ID: "m2", Content: "hi"}}
	require.NoError(t, svc.SendMessage(context.Background(), "hi"))

	assert.Equal(t, int64(1), backend.sentMessages.Load())
	snap := svc.Snapshot()
	require.Len(t, snap.Messages, 2)
	assert.Equal(t, "m2", snap.Messages[1].ID, "sent message arrives via re-fetch")
}

func TestRouteNotification_Mapping(t *testing.T) {
	backend := &inboxBackend{}
	svc, _ := newInboxFixture(t, backend, domain.RoleResearcher)
	ctx := context.Background()

	dest := svc.RouteNotification(ctx, domain.Notification{
		ID: "n1", Type: domain.NotificationNewMessage, RelatedUserID: "c1",
	})
	assert.Equal(t, Destination{Tab: TabMessages, ConversationID: "c1"}, dest)

	dest = svc.RouteNotification(ctx, domain.Notification{
		ID: "n2", Type: domain.NotificationNewReply, RelatedItemID: "thread-1",
	})
	assert.Equal(t, Destination{Tab: TabForum, ThreadID: "thread-1"}, dest)

	dest = svc.RouteNotification(ctx, domain.Notification{
		ID: "n3", Type: domain.NotificationConnectionRequest,
	})
	assert.Equal(t, TabConnectionRequests, dest.Tab)

	dest = svc.RouteNotification(ctx, domain.Notification{
		ID: "n4", Type: domain.NotificationMeetingRequestAccept,
	})
	assert.Equal(t, TabUpcomingMeetings, dest.Tab, "researchers land on upcoming meetings")

	dest = svc.RouteNotification(ctx, domain.Notification{
		ID: "n5", Type: "something_else",
	})
	assert.Equal(t, TabNotifications, dest.Tab)

	assert.Equal(t, int64(5), backend.readMarks.Load(), "every click marks the notification read")
}

func TestRouteNotification_MeetingAcceptedForPatient(t *testing.T) {
	backend := &inboxBackend{}
	svc, _ := newInboxFixture(t, backend, domain.RolePatient)

	dest := svc.RouteNotification(context.Background(), domain.Notification{
		ID: "n1", Type: domain.NotificationMeetingRequestAccept,
	})
	assert.Equal(t, TabMeetingRequests, dest.Tab)
}

func TestAcceptMeeting_RequiresTime(t *testing.T) {
	backend := &inboxBackend{}
	svc, _ := newInboxFixture(t, backend, domain.RoleResearcher)

	err := svc.AcceptMeeting(context.Background(), "mr1", time.Time{}, "")
	assert.ErrorIs(t, err, ErrMeetingTimeRequired)
	assert.Equal(t, int64(0), backend.acceptedTimes.Load())

	err = svc.AcceptMeeting(context.Background(), "mr1", time.Now().Add(24*time.Hour), "bring charts")
	require.NoError(t, err)
	assert.Equal(t, int64(1), backend.acceptedTimes.Load())
}

func TestNotificationBuckets(t *testing.T) {
	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, domain.BucketToday,
		domain.Notification{CreatedAt: now.Add(-2 * time.Hour)}.Bucket(now))
	assert.Equal(t, domain.BucketYesterday,
		domain.Notification{CreatedAt: now.Add(-26 * time.Hour)}.Bucket(now))
	assert.Equal(t, domain.BucketThisWeek,
		domain.Notification{CreatedAt: now.Add(-4 * 24 * time.Hour)}.Bucket(now))
	assert.Equal(t, domain.BucketOlder,
		domain.Notification{CreatedAt: now.Add(-20 * 24 * time.Hour)}.Bucket(now))
}
