package service

import (
	"context"
	"strings"

	"github.com/teamgrid/messaging-platform/internal/apperr"
	"github.com/teamgrid/messaging-platform/internal/store"
)

// ReactionService manages emoji reactions on messages.
type ReactionService struct {
	store *store.Store
}

// NewReactionService creates the reaction manager.
func NewReactionService(st *store.Store) *ReactionService {
	return &ReactionService{store: st}
}

// Add records the caller's reaction. Reacting twice with the same emoji is
// a no-op.
func (s *ReactionService) Add(ctx context.Context, userID, messageID int64, emoji string) error {
	emoji, err := s.authorize(ctx, userID, messageID, emoji)
	if err != nil {
		return err
	}
	return s.store.AddReaction(ctx, messageID, userID, emoji)
}

// Remove deletes the caller's reaction.
func (s *ReactionService) Remove(ctx context.Context, userID, messageID int64, emoji string) error {
	emoji, err := s.authorize(ctx, userID, messageID, emoji)
	if err != nil {
		return err
	}
	return s.store.RemoveReaction(ctx, messageID, userID, emoji)
}

func (s *ReactionService) authorize(ctx context.Context, userID, messageID int64, emoji string) (string, error) {
	emoji = strings.TrimSpace(emoji)
	if emoji == "" {
		return "", apperr.InvalidArgument("emoji must not be blank")
	}

	msg, err := s.store.GetMessage(ctx, messageID)
	if err != nil {
		return "", err
	}
	if msg.IsDeleted {
		return "", apperr.InvalidArgument("message is deleted")
	}
	conv, err := s.store.GetConversation(ctx, msg.ConversationID)
	if err != nil {
		return "", err
	}
	if err := authorizeConversation(ctx, s.store, conv, userID); err != nil {
		return "", err
	}
	return emoji, nil
}
