package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/trialconnect/agent/internal/domain"
	"github.com/trialconnect/agent/internal/gateway"
	"github.com/trialconnect/agent/internal/store"
	"go.uber.org/zap"
)

// ErrResearcherOnly means the action is limited to the researcher role.
var ErrResearcherOnly = errors.New("action requires the researcher role")

// ErrNoConversation means no conversation is selected.
var ErrNoConversation = errors.New("no conversation selected")

// ErrMeetingTimeRequired means meeting acceptance lacks a chosen time.
var ErrMeetingTimeRequired = errors.New("a meeting time is required")

// Inbox tabs a notification click can land on.
const (
	TabNotifications      = "notifications"
	TabMessages           = "messages"
	TabConnectionRequests = "connection_requests"
	TabMeetingRequests    = "meeting_requests"
	TabUpcomingMeetings   = "upcoming_meetings"
	TabForum              = "forum"
)

// Destination is where a notification click navigates.
type Destination struct {
	Tab            string `json:"tab"`
	ConversationID string `json:"conversationId,omitempty"`
	ThreadID       string `json:"threadId,omitempty"`
}

// InboxSnapshot is the aggregated inbox state handed to the UI.
type InboxSnapshot struct {
	Notifications        []domain.Notification      `json:"notifications"`
	Followers            []domain.UserRecord        `json:"followers,omitempty"`
	ConnectionRequests   []domain.ConnectionRequest `json:"connectionRequests,omitempty"`
	Connections          []domain.Connection        `json:"connections,omitempty"`
	Conversations        []domain.Conversation      `json:"conversations"`
	MeetingRequests      []domain.MeetingRequest    `json:"meetingRequests,omitempty"`
	UpcomingMeetings     []domain.MeetingRequest    `json:"upcomingMeetings,omitempty"`
	SelectedConversation string                     `json:"selectedConversation,omitempty"`
	Messages             []domain.Message           `json:"messages,omitempty"`
}

// InboxService aggregates notifications, messages, connections, and
// meetings, and is refreshed by the poller.
type InboxService struct {
	gw     *gateway.Client
	store  store.Store
	logger *zap.Logger

	mu   sync.Mutex
	user *domain.UserRecord
	snap InboxSnapshot
}

func NewInboxService(gw *gateway.Client, st store.Store, logger *zap.Logger) *InboxService {
	return &InboxService{
		gw:     gw,
		store:  st,
		logger: logger,
	}
}

// HasUser reports whether a signed-in user has been loaded.
func (s *InboxService) HasUser() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user != nil
}

// Snapshot returns a copy of the current inbox state.
func (s *InboxService) Snapshot() InboxSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap
}

// Load requires a session, then fetches the inbox lists for the user's
// role. Individual fetch failures are logged and leave that list empty;
// only a missing session is fatal. When preselect names a conversation
// and the user is a researcher, it is selected once the conversation
// list exists.
func (s *InboxService) Load(ctx context.Context, preselect string) error {
	sess, err := s.store.Session(ctx)
	if err != nil {
		return err
	}
	if sess == nil {
		return ErrNotSignedIn
	}

	s.mu.Lock()
	user := sess.User
	s.user = &user
	s.mu.Unlock()

	s.refreshNotifications(ctx, sess)
	s.refreshConversations(ctx, sess)
	s.refreshRoleLists(ctx, sess)

	// Conversation selection must not run before the list exists.
	if preselect != "" && sess.User.Role == domain.RoleResearcher {
		s.mu.Lock()
		known := false
		for _, c := range s.snap.Conversations {
			if c.OtherUserID == preselect {
				known = true
				break
			}
		}
		s.mu.Unlock()
		if known {
			if err := s.SelectConversation(ctx, preselect); err != nil {
				s.logger.Warn("Failed to preselect conversation", zap.Error(err))
			}
		}
	}

	return nil
}

// SelectConversation loads the messages of one conversation and clears its
// unread state. The read marker is best-effort.
func (s *InboxService) SelectConversation(ctx context.Context, otherID string) error {
	sess, err := s.store.Session(ctx)
	if err != nil {
		return err
	}
	if sess == nil {
		return ErrNotSignedIn
	}

	messages, err := s.gw.ConversationMessages(ctx, sess.Token, sess.User.ID, otherID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.snap.SelectedConversation = otherID
	s.snap.Messages = messages
	s.mu.Unlock()

	if err := s.gw.MarkConversationRead(ctx, sess.Token, sess.User.ID, otherID); err != nil {
		s.logger.Warn("Failed to mark conversation read", zap.Error(err))
	}
	return nil
}

// Tick is one polling refresh. The individual refreshes run concurrently
// and are not ordered with respect to each other; each is an idempotent
// list replacement, so a late resolution from a previous tick is benign.
func (s *InboxService) Tick(ctx context.Context) {
	sess, err := s.store.Session(ctx)
	if err != nil || sess == nil {
		return
	}

	s.mu.Lock()
	selected := s.snap.SelectedConversation
	s.mu.Unlock()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		s.refreshConversations(ctx, sess)
	}()
	go func() {
		defer wg.Done()
		s.refreshNotifications(ctx, sess)
	}()

	if selected != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.refreshMessages(ctx, sess, selected)
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		s.refreshRoleLists(ctx, sess)
	}()

	wg.Wait()
}

func (s *InboxService) refreshNotifications(ctx context.Context, sess *domain.Session) {
	list, err := s.gw.Notifications(ctx, sess.Token, sess.User.ID)
	if err != nil {
		s.logger.Warn("Failed to refresh notifications", zap.Error(err))
		return
	}
	s.mu.Lock()
	s.snap.Notifications = list
	s.mu.Unlock()
}

func (s *InboxService) refreshConversations(ctx context.Context, sess *domain.Session) {
	list, err := s.gw.Conversations(ctx, sess.Token, sess.User.ID)
	if err != nil {
		s.logger.Warn("Failed to refresh conversations", zap.Error(err))
		return
	}
	s.mu.Lock()
	s.snap.Conversations = list
	s.mu.Unlock()
}

// refreshMessages replaces the held messages only when the fetched list
// actually changed, so unchanged polls do not churn the view.
func (s *InboxService) refreshMessages(ctx context.Context, sess *domain.Session, otherID string) {
	fresh, err := s.gw.ConversationMessages(ctx, sess.Token, sess.User.ID, otherID)
	if err != nil {
		s.logger.Warn("Failed to refresh messages", zap.Error(err))
		return
	}

	s.mu.Lock()
	if s.snap.SelectedConversation == otherID && shouldReplaceMessages(s.snap.Messages, fresh) {
		s.snap.Messages = fresh
	}
	s.mu.Unlock()
}

func (s *InboxService) refreshRoleLists(ctx context.Context, sess *domain.Session) {
	meetings, err := s.gw.MeetingRequests(ctx, sess.Token, sess.User.ID)
	if err != nil {
		s.logger.Warn("Failed to refresh meeting requests", zap.Error(err))
	} else {
		s.mu.Lock()
		s.snap.MeetingRequests = meetings
		s.mu.Unlock()
	}

	if sess.User.Role != domain.RoleResearcher {
		return
	}

	if followers, err := s.gw.Followers(ctx, sess.Token, sess.User.ID); err != nil {
		s.logger.Warn("Failed to refresh followers", zap.Error(err))
	} else {
		s.mu.Lock()
		s.snap.Followers = followers
		s.mu.Unlock()
	}

	if reqs, err := s.gw.ConnectionRequests(ctx, sess.Token, sess.User.ID); err != nil {
		s.logger.Warn("Failed to refresh connection requests", zap.Error(err))
	} else {
		s.mu.Lock()
		s.snap.ConnectionRequests = reqs
		s.mu.Unlock()
	}

	if conns, err := s.gw.Connections(ctx, sess.Token, sess.User.ID); err != nil {
		s.logger.Warn("Failed to refresh connections", zap.Error(err))
	} else {
		s.mu.Lock()
		s.snap.Connections = conns
		s.mu.Unlock()
	}

	if upcoming, err := s.gw.UpcomingMeetings(ctx, sess.Token, sess.User.ID); err != nil {
		s.logger.Warn("Failed to refresh upcoming meetings", zap.Error(err))
	} else {
		s.mu.Lock()
		s.snap.UpcomingMeetings = upcoming
		s.mu.Unlock()
	}
}

// shouldReplaceMessages reports whether the fetched list differs from the
// held one: a different length, or a different last message.
func shouldReplaceMessages(current, fresh []domain.Message) bool {
	if len(current) != len(fresh) {
		return true
	}
	if len(fresh) == 0 {
		return false
	}
	return current[len(current)-1].ID != fresh[len(fresh)-1].ID
}

// SendMessage posts a message in the selected conversation. Only
// researchers may send. The conversation, conversation list, and
// notifications are re-fetched after the send instead of appending
// optimistically.
func (s *InboxService) SendMessage(ctx context.Context, content string) error {
	sess, err := s.store.Session(ctx)
	if err != nil {
		return err
	}
	if sess == nil {
		return ErrNotSignedIn
	}
	if sess.User.Role != domain.RoleResearcher {
		return ErrResearcherOnly
	}

	s.mu.Lock()
	selected := s.snap.SelectedConversation
	s.mu.Unlock()
	if selected == "" {
		return ErrNoConversation
	}

	err = s.gw.SendMessage(ctx, sess.Token, gateway.MessageRequest{
		SenderID:   sess.User.ID,
		ReceiverID: selected,
		Content:    content,
	})
	if err != nil {
		return err
	}

	if messages, err := s.gw.ConversationMessages(ctx, sess.Token, sess.User.ID, selected); err != nil {
		s.logger.Warn("Failed to refresh conversation after send", zap.Error(err))
	} else {
		s.mu.Lock()
		s.snap.Messages = messages
		s.mu.Unlock()
	}
	s.refreshConversations(ctx, sess)
	s.refreshNotifications(ctx, sess)

	return nil
}

// RouteNotification marks the notification read (best-effort) and returns
// the destination its type maps to.
func (s *InboxService) RouteNotification(ctx context.Context, n domain.Notification) Destination {
	sess, err := s.store.Session(ctx)
	if err == nil && sess != nil {
		if err := s.gw.MarkNotificationRead(ctx, sess.Token, n.ID); err != nil {
			s.logger.Warn("Failed to mark notification read", zap.Error(err))
		}
	}

	switch n.Type {
	case domain.NotificationNewMessage:
		return Destination{Tab: TabMessages, ConversationID: n.RelatedUserID}
	case domain.NotificationNewReply, domain.NotificationResearcherReplied:
		return Destination{Tab: TabForum, ThreadID: n.RelatedItemID}
	case domain.NotificationConnectionRequest:
		return Destination{Tab: TabConnectionRequests}
	case domain.NotificationMeetingRequestAccept:
		if sess != nil && sess.User.Role == domain.RoleResearcher {
			return Destination{Tab: TabUpcomingMeetings}
		}
		return Destination{Tab: TabMeetingRequests}
	case domain.NotificationMeetingRequest:
		return Destination{Tab: TabMeetingRequests}
	default:
		return Destination{Tab: TabNotifications}
	}
}

// AcceptMeeting accepts a meeting request at the chosen time. The time is
// mandatory; the UI pre-fills it from the requester's preference.
func (s *InboxService) AcceptMeeting(ctx context.Context, requestID string, at time.Time, notes string) error {
	if at.IsZero() {
		return ErrMeetingTimeRequired
	}

	sess, err := s.store.Session(ctx)
	if err != nil {
		return err
	}
	if sess == nil {
		return ErrNotSignedIn
	}

	return s.gw.AcceptMeetingTime(ctx, sess.Token, requestID, gateway.AcceptMeetingRequest{
		ScheduledAt: at,
		Notes:       notes,
	})
}

// RespondConnection accepts or rejects a connection request and refreshes
// the affected lists.
func (s *InboxService) RespondConnection(ctx context.Context, requestID, status string) error {
	sess, err := s.store.Session(ctx)
	if err != nil {
		return err
	}
	if sess == nil {
		return ErrNotSignedIn
	}

	if err := s.gw.RespondConnectionRequest(ctx, sess.Token, requestID, status); err != nil {
		return err
	}

	s.refreshRoleLists(ctx, sess)
	return nil
}

// DeclineMeeting rejects a meeting request and refreshes the meeting lists.
func (s *InboxService) DeclineMeeting(ctx context.Context, requestID string) error {
	sess, err := s.store.Session(ctx)
	if err != nil {
		return err
	}
	if sess == nil {
		return ErrNotSignedIn
	}

	if err := s.gw.DeclineMeeting(ctx, sess.Token, requestID); err != nil {
		return err
	}

	s.refreshRoleLists(ctx, sess)
	return nil
}

// RemoveConnection deletes an established connection and refreshes the
// connection lists.
func (s *InboxService) RemoveConnection(ctx context.Context, connectionID string) error {
	sess, err := s.store.Session(ctx)
	if err != nil {
		return err
	}
	if sess == nil {
		return ErrNotSignedIn
	}

	if err := s.gw.RemoveConnection(ctx, sess.Token, connectionID); err != nil {
		return err
	}

	s.refreshRoleLists(ctx, sess)
	return nil
}

// MarkAllRead marks every notification read and refreshes the list.
func (s *InboxService) MarkAllRead(ctx context.Context) error {
	sess, err := s.store.Session(ctx)
	if err != nil {
		return err
	}
	if sess == nil {
		return ErrNotSignedIn
	}

	if err := s.gw.MarkAllNotificationsRead(ctx, sess.Token, sess.User.ID); err != nil {
		return err
	}
	s.refreshNotifications(ctx, sess)
	return nil
}
