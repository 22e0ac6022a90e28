// Package model defines data structures for the messaging platform.
package model

import (
	"fmt"
	"time"
)

// ConversationType discriminates channels from direct chatrooms.
type ConversationType string

const (
	// ConversationChannel is a named, workspace-scoped channel. Supports threads.
	ConversationChannel ConversationType = "channel"
	// ConversationChatroom is a two-participant direct room. No name, no threads.
	ConversationChatroom ConversationType = "chatroom"
)

// Valid reports whether t is a known conversation type.
func (t ConversationType) Valid() bool {
	return t == ConversationChannel || t == ConversationChatroom
}

// ConversationRef addresses a conversation of either type.
type ConversationRef struct {
	Type ConversationType `json:"type"`
	ID   int64            `json:"id"`
}

// Topic returns the broadcast topic for this conversation. Thread replies
// share their parent channel's topic.
func (r ConversationRef) Topic() string {
	return fmt.Sprintf("conv.%s.%d", r.Type, r.ID)
}

// UserTopic returns the private unicast topic for a user. Mention
// notifications travel here, independent of conversation topics.
func UserTopic(userID int64) string {
	return fmt.Sprintf("user.%d", userID)
}

// Conversation is the addressable container for messages.
type Conversation struct {
	ID          int64            `json:"id"`
	WorkspaceID int64            `json:"workspace_id"`
	Type        ConversationType `json:"type"`
	Name        string           `json:"name,omitempty"`
	IsPrivate   bool             `json:"is_private"`
	CreatedBy   int64            `json:"created_by"`
	CreatedAt   time.Time        `json:"created_at"`
}

// Ref returns the reference addressing this conversation.
func (c *Conversation) Ref() ConversationRef {
	return ConversationRef{Type: c.Type, ID: c.ID}
}

// RequiresMembership reports whether submit requires an explicit membership
// row. Public channels admit any workspace member implicitly.
func (c *Conversation) RequiresMembership() bool {
	return c.Type == ConversationChatroom || c.IsPrivate
}

// ChatroomView is a chatroom rendered for one participant: the display name
// is derived from the other participant.
type ChatroomView struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	AvatarURL    string    `json:"avatar_url,omitempty"`
	TargetUserID int64     `json:"target_user_id"`
	CreatedBy    int64     `json:"created_by"`
	UnreadCount  int       `json:"unread_count"`
	CreatedAt    time.Time `json:"created_at"`
}

// CreateChatroomRequest opens (or unhides) the direct chatroom with a user.
type CreateChatroomRequest struct {
	WorkspaceID  int64 `json:"workspace_id"`
	TargetUserID int64 `json:"target_user_id"`
}
