package model

import (
	"time"
)

// EventType enumerates the envelope types carried over the broadcast bus.
type EventType string

const (
	EventMessage        EventType = "MESSAGE"
	EventMessageUpdated EventType = "MESSAGE_UPDATED"
	EventMessageDeleted EventType = "MESSAGE_DELETED"
	EventMention        EventType = "MENTION"
)

// Envelope is the serialized event wrapper carried over the broadcast
// medium and down live connections. Delivery is at-least-once; clients
// must treat repeated delivery of one message id as idempotent.
type Envelope struct {
	Type         EventType       `json:"type"`
	WorkspaceID  int64           `json:"workspace_id,omitempty"`
	Conversation ConversationRef `json:"conversation"`
	Payload      map[string]any  `json:"payload"`
	Timestamp    time.Time       `json:"timestamp"`
}

// NewMessageEnvelope wraps a freshly persisted message.
func NewMessageEnvelope(view *MessageView) Envelope {
	return Envelope{
		Type:         EventMessage,
		WorkspaceID:  view.WorkspaceID,
		Conversation: view.Conversation(),
		Payload:      map[string]any{"message": view},
		Timestamp:    time.Now().UTC(),
	}
}

// NewMessageUpdatedEnvelope wraps an edited message.
func NewMessageUpdatedEnvelope(view *MessageView) Envelope {
	return Envelope{
		Type:         EventMessageUpdated,
		WorkspaceID:  view.WorkspaceID,
		Conversation: view.Conversation(),
		Payload:      map[string]any{"message": view},
		Timestamp:    time.Now().UTC(),
	}
}

// NewMessageDeletedEnvelope carries only identifiers, never the body.
func NewMessageDeletedEnvelope(ref ConversationRef, workspaceID, messageID int64) Envelope {
	return Envelope{
		Type:         EventMessageDeleted,
		WorkspaceID:  workspaceID,
		Conversation: ref,
		Payload: map[string]any{
			"conversation_id": ref.ID,
			"message_id":      messageID,
		},
		Timestamp: time.Now().UTC(),
	}
}

// NewMentionEnvelope wraps a notification for the unicast mention path.
func NewMentionEnvelope(ref ConversationRef, n *Notification) Envelope {
	return Envelope{
		Type:         EventMention,
		WorkspaceID:  n.WorkspaceID,
		Conversation: ref,
		Payload:      map[string]any{"notification": n},
		Timestamp:    time.Now().UTC(),
	}
}
