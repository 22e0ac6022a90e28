package model

import "time"

// NotificationType enumerates notification kinds. Mentions are the only
// kind produced today.
type NotificationType string

const (
	NotificationMention NotificationType = "MENTION"
)

// Notification is a persisted event directed at a user. Sender fields are
// denormalized for fast rendering. Rows are never deleted, only marked read.
type Notification struct {
	ID               int64            `json:"id"`
	UserID           int64            `json:"user_id"`
	WorkspaceID      int64            `json:"workspace_id"`
	Type             NotificationType `json:"type"`
	Content          string           `json:"content"`
	ConversationType ConversationType `json:"conversation_type"`
	ConversationID   int64            `json:"conversation_id"`
	MessageID        *int64           `json:"message_id,omitempty"`
	SenderID         int64            `json:"sender_id"`
	SenderName       string           `json:"sender_name"`
	SenderAvatarURL  string           `json:"sender_avatar_url,omitempty"`
	IsRead           bool             `json:"is_read"`
	CreatedAt        time.Time        `json:"created_at"`
	ReadAt           *time.Time       `json:"read_at,omitempty"`
}

// MarkAllReadResponse reports how many notifications were mutated.
type MarkAllReadResponse struct {
	Updated int `json:"updated"`
}

// ListNotificationsResponse is the latest notification page. UnreadCount is
// counted within the returned page, not over the full history.
type ListNotificationsResponse struct {
	Notifications []Notification `json:"notifications"`
	UnreadCount   int            `json:"unread_count"`
}
