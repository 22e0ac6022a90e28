package model

import "time"

// ReadState is the per (conversation, user) cursor. A missing row means
// "never read". Only the owning user advances it, and never backward.
type ReadState struct {
	ConversationID    int64     `json:"conversation_id"`
	UserID            int64     `json:"user_id"`
	LastReadMessageID *int64    `json:"last_read_message_id,omitempty"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// UpdateReadStateRequest advances the caller's read cursor.
type UpdateReadStateRequest struct {
	LastReadMessageID int64 `json:"last_read_message_id"`
}

// UnreadCountResponse carries a computed unread count.
type UnreadCountResponse struct {
	ConversationID int64 `json:"conversation_id"`
	UnreadCount    int   `json:"unread_count"`
}
