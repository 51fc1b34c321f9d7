package domain

import "time"

// Notification types the inbox knows how to route.
const (
	NotificationNewMessage            = "new_message"
	NotificationNewReply              = "new_reply"
	NotificationResearcherReplied     = "researcher_replied"
	NotificationConnectionRequest     = "connection_request"
	NotificationMeetingRequest        = "meeting_request"
	NotificationMeetingRequestAccept  = "meeting_request_accepted"
	NotificationNewFollower           = "new_follower"
)

// AgeBucket groups notifications by recency for display.
type AgeBucket string

const (
	BucketToday     AgeBucket = "today"
	BucketYesterday AgeBucket = "yesterday"
	BucketThisWeek  AgeBucket = "this_week"
	BucketOlder     AgeBucket = "older"
)

type Notification struct {
	ID              string    `json:"_id"`
	Type            string    `json:"type"`
	Title           string    `json:"title"`
	Message         string    `json:"message"`
	Read            bool      `json:"read"`
	CreatedAt       time.Time `json:"createdAt"`
	RelatedUserID   string    `json:"relatedUserId,omitempty"`
	RelatedItemID   string    `json:"relatedItemId,omitempty"`
	RelatedItemType string    `json:"relatedItemType,omitempty"`
}

// Bucket places the notification into a recency group relative to now.
func (n Notification) Bucket(now time.Time) AgeBucket {
	y, m, d := now.Date()
	startOfDay := time.Date(y, m, d, 0, 0, 0, 0, now.Location())

	switch {
	case !n.CreatedAt.Before(startOfDay):
		return BucketToday
	case !n.CreatedAt.Before(startOfDay.AddDate(0, 0, -1)):
		return BucketYesterday
	case !n.CreatedAt.Before(startOfDay.AddDate(0, 0, -6)):
		return BucketThisWeek
	default:
		return BucketOlder
	}
}

// Conversation is keyed by the other participant's id.
type Conversation struct {
	OtherUserID   string    `json:"otherUserId"`
	OtherUserName string    `json:"otherUserName,omitempty"`
	LastMessage   string    `json:"lastMessage,omitempty"`
	LastMessageAt time.Time `json:"lastMessageAt,omitempty"`
	UnreadCount   int       `json:"unreadCount"`
}

type Message struct {
	ID         string    `json:"_id"`
	SenderID   string    `json:"senderId"`
	ReceiverID string    `json:"receiverId"`
	Content    string    `json:"content"`
	Read       bool      `json:"read"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Request statuses shared by connection and meeting requests.
const (
	StatusPending  = "pending"
	StatusAccepted = "accepted"
	StatusRejected = "rejected"
)

type ConnectionRequest struct {
	ID            string    `json:"_id"`
	RequesterID   string    `json:"requesterId"`
	RequesterName string    `json:"requesterName,omitempty"`
	RecipientID   string    `json:"recipientId"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"createdAt"`
}

type Connection struct {
	ID            string    `json:"_id"`
	OtherUserID   string    `json:"otherUserId"`
	OtherUserName string    `json:"otherUserName,omitempty"`
	ConnectedAt   time.Time `json:"connectedAt"`
}

// MeetingRequest carries the requester's preferred time; acceptance requires
// a chosen scheduled time.
type MeetingRequest struct {
	ID            string     `json:"_id"`
	RequesterID   string     `json:"requesterId"`
	RequesterName string     `json:"requesterName,omitempty"`
	RecipientID   string     `json:"recipientId"`
	Status        string     `json:"status"`
	Topic         string     `json:"topic,omitempty"`
	PreferredAt   *time.Time `json:"preferredAt,omitempty"`
	ScheduledAt   *time.Time `json:"scheduledAt,omitempty"`
	Notes         string     `json:"notes,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
}
