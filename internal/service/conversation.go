package service

import (
	"context"

	"github.com/teamgrid/messaging-platform/internal/model"
	"github.com/teamgrid/messaging-platform/internal/store"
)

// ConversationService exposes access-checked conversation lookups. The live
// stream endpoint uses it to validate topic subscriptions at connect time.
type ConversationService struct {
	store *store.Store
}

// NewConversationService creates the conversation lookup service.
func NewConversationService(st *store.Store) *ConversationService {
	return &ConversationService{store: st}
}

// Get returns a conversation the caller may access.
func (s *ConversationService) Get(ctx context.Context, userID, conversationID int64) (*model.Conversation, error) {
	conv, err := s.store.GetConversation(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if err := authorizeConversation(ctx, s.store, conv, userID); err != nil {
		return nil, err
	}
	return conv, nil
}
