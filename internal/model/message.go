package model

import (
	"time"
)

// DeletedMessageBody replaces the content of soft-deleted messages. The row
// stays addressable by id so delete events re-deliver idempotently.
const DeletedMessageBody = "[deleted]"

// Message is an immutable-identity chat message.
type Message struct {
	ID               int64            `json:"id"`
	WorkspaceID      int64            `json:"workspace_id"`
	ConversationID   int64            `json:"conversation_id"`
	ConversationType ConversationType `json:"conversation_type"`
	UserID           int64            `json:"user_id"`
	Content          string           `json:"content"`
	ParentMessageID  *int64           `json:"parent_message_id,omitempty"`
	IsEdited         bool             `json:"is_edited"`
	IsDeleted        bool             `json:"is_deleted"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
	EditedAt         *time.Time       `json:"edited_at,omitempty"`

	// ChunkID is the opaque external-index reference, written back only
	// after the message row is durable.
	ChunkID *string `json:"chunk_id,omitempty"`
}

// Conversation returns the reference of the owning conversation.
func (m *Message) Conversation() ConversationRef {
	return ConversationRef{Type: m.ConversationType, ID: m.ConversationID}
}

// ThreadID returns the external-index thread key: the parent id for replies,
// the message's own id for thread roots.
func (m *Message) ThreadID() int64 {
	if m.ParentMessageID != nil {
		return *m.ParentMessageID
	}
	return m.ID
}

// MentionInfo is the mention summary carried on message views.
type MentionInfo struct {
	UserID *int64      `json:"user_id,omitempty"`
	Kind   MentionKind `json:"kind"`
}

// MessageView is a message rendered for clients, with denormalized sender
// fields and aggregates.
type MessageView struct {
	Message
	UserName      string             `json:"user_name"`
	UserAvatarURL string             `json:"user_avatar_url,omitempty"`
	ReplyCount    int                `json:"reply_count"`
	Mentions      []MentionInfo      `json:"mentions,omitempty"`
	Reactions     map[string][]int64 `json:"reactions,omitempty"`
}

// SendMessageRequest is the request to submit a new message.
type SendMessageRequest struct {
	Content         string             `json:"content"`
	ParentMessageID *int64             `json:"parent_message_id,omitempty"`
	Mentions        []MentionDirective `json:"mentions,omitempty"`
}

// UpdateMessageRequest is the request to edit a message body.
type UpdateMessageRequest struct {
	Content string `json:"content"`
}

// ListMessagesResponse is the response for listing messages.
type ListMessagesResponse struct {
	Messages []MessageView `json:"messages"`
	HasMore  bool          `json:"has_more"`
}

// ReactionRequest adds or removes an emoji reaction.
type ReactionRequest struct {
	Emoji string `json:"emoji"`
}
