package service

import (
	"context"

	"github.com/teamgrid/messaging-platform/internal/apperr"
	"github.com/teamgrid/messaging-platform/internal/model"
	"github.com/teamgrid/messaging-platform/internal/store"
)

// ReadStateService tracks per-user read cursors and computes unread counts.
type ReadStateService struct {
	store *store.Store
}

// NewReadStateService creates the read-state tracker.
func NewReadStateService(st *store.Store) *ReadStateService {
	return &ReadStateService{store: st}
}

// Advance moves the caller's cursor in a conversation. The referenced
// message must exist in that conversation; regressions are silently kept at
// the highest cursor seen.
func (s *ReadStateService) Advance(ctx context.Context, userID, conversationID int64, req *model.UpdateReadStateRequest) error {
	conv, err := s.store.GetConversation(ctx, conversationID)
	if err != nil {
		return err
	}
	if err := authorizeConversation(ctx, s.store, conv, userID); err != nil {
		return err
	}

	msg, err := s.store.GetMessage(ctx, req.LastReadMessageID)
	if err != nil {
		if apperr.IsNotFound(err) {
			return apperr.InvalidArgument("message does not exist")
		}
		return err
	}
	if msg.ConversationID != conversationID {
		return apperr.InvalidArgument("message belongs to another conversation")
	}

	return s.store.UpsertReadState(ctx, conversationID, userID, req.LastReadMessageID)
}

// Unread returns the caller's unread count: non-deleted top-level messages
// after the cursor. A user who never read the conversation counts from the
// beginning.
func (s *ReadStateService) Unread(ctx context.Context, userID, conversationID int64) (*model.UnreadCountResponse, error) {
	conv, err := s.store.GetConversation(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if err := authorizeConversation(ctx, s.store, conv, userID); err != nil {
		return nil, err
	}

	n, err := s.unreadCount(ctx, userID, conversationID)
	if err != nil {
		return nil, err
	}
	return &model.UnreadCountResponse{ConversationID: conversationID, UnreadCount: n}, nil
}

func (s *ReadStateService) unreadCount(ctx context.Context, userID, conversationID int64) (int, error) {
	rs, err := s.store.GetReadState(ctx, conversationID, userID)
	if err != nil {
		return 0, err
	}
	var cursor int64
	if rs != nil && rs.LastReadMessageID != nil {
		cursor = *rs.LastReadMessageID
	}
	return s.store.CountMessagesAfter(ctx, conversationID, cursor)
}
