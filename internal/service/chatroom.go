package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/teamgrid/messaging-platform/internal/apperr"
	"github.com/teamgrid/messaging-platform/internal/model"
	"github.com/teamgrid/messaging-platform/internal/store"
	"github.com/teamgrid/messaging-platform/pkg/logger"
)

// ChatroomService manages two-participant direct rooms. A pair of users has
// at most one chatroom per workspace; opening it again returns the existing
// room and clears the caller's hide marker.
type ChatroomService struct {
	store      *store.Store
	readstates *ReadStateService
	logger     *logger.Logger
}

// NewChatroomService creates the chatroom manager.
func NewChatroomService(st *store.Store, rs *ReadStateService, log *logger.Logger) *ChatroomService {
	return &ChatroomService{store: st, readstates: rs, logger: log}
}

// Open returns the direct chatroom between the caller and the target,
// creating it on first contact. Idempotent from the caller's perspective.
func (s *ChatroomService) Open(ctx context.Context, userID int64, req *model.CreateChatroomRequest) (*model.ChatroomView, error) {
	if req.TargetUserID == userID {
		return nil, apperr.InvalidArgument("cannot open a chatroom with yourself")
	}

	target, err := s.store.GetUser(ctx, req.TargetUserID)
	if err != nil {
		return nil, err
	}
	for _, id := range []int64{userID, req.TargetUserID} {
		ok, err := s.store.IsWorkspaceMember(ctx, req.WorkspaceID, id)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, apperr.Forbidden("not a member of this workspace")
		}
	}

	conv, err := s.store.FindDirectChatroom(ctx, req.WorkspaceID, userID, req.TargetUserID)
	if err != nil {
		return nil, err
	}
	if conv == nil {
		conv, err = s.store.CreateConversation(ctx, &model.Conversation{
			WorkspaceID: req.WorkspaceID,
			Type:        model.ConversationChatroom,
			IsPrivate:   true,
			CreatedBy:   userID,
		})
		if err != nil {
			return nil, err
		}
		for _, id := range []int64{userID, req.TargetUserID} {
			if err := s.store.AddConversationMember(ctx, conv.ID, id); err != nil {
				return nil, err
			}
		}
		s.logger.Info("chatroom created",
			zap.Int64("conversation_id", conv.ID),
			zap.Int64("user_id", userID),
			zap.Int64("target_id", req.TargetUserID))
	} else {
		// Reopening unhides the room for the caller only.
		hidden, err := s.store.IsConversationHidden(ctx, conv.ID, userID)
		if err != nil {
			return nil, err
		}
		if hidden {
			if err := s.store.UnhideConversation(ctx, conv.ID, userID); err != nil {
				return nil, err
			}
			s.logger.Info("chatroom reopened",
				zap.Int64("conversation_id", conv.ID),
				zap.Int64("user_id", userID))
		}
	}

	return s.buildView(ctx, userID, conv, target)
}

// List returns the caller's visible chatrooms in a workspace with unread
// counts. Hidden rooms are excluded until a reopen or a new message.
func (s *ChatroomService) List(ctx context.Context, userID, workspaceID int64) ([]model.ChatroomView, error) {
	ids, err := s.store.ListChatroomIDsForUser(ctx, workspaceID, userID)
	if err != nil {
		return nil, err
	}

	views := make([]model.ChatroomView, 0, len(ids))
	for _, id := range ids {
		conv, err := s.store.GetConversation(ctx, id)
		if err != nil {
			return nil, err
		}
		v, err := s.buildView(ctx, userID, conv, nil)
		if err != nil {
			return nil, err
		}
		views = append(views, *v)
	}
	return views, nil
}

// Hide removes a chatroom from the caller's list without affecting the
// other participant or the room's history.
func (s *ChatroomService) Hide(ctx context.Context, userID, conversationID int64) error {
	conv, err := s.store.GetConversation(ctx, conversationID)
	if err != nil {
		return err
	}
	if conv.Type != model.ConversationChatroom {
		return apperr.InvalidArgument("only chatrooms can be hidden")
	}
	if err := authorizeConversation(ctx, s.store, conv, userID); err != nil {
		return err
	}
	return s.store.HideConversation(ctx, conversationID, userID)
}

// buildView renders the room for one participant: the display name comes
// from the other participant. target may be pre-resolved by the caller.
func (s *ChatroomService) buildView(ctx context.Context, userID int64, conv *model.Conversation, target *model.User) (*model.ChatroomView, error) {
	if target == nil {
		members, err := s.store.ListMemberIDs(ctx, conv.ID)
		if err != nil {
			return nil, err
		}
		var otherID int64
		for _, id := range members {
			if id != userID {
				otherID = id
				break
			}
		}
		if otherID == 0 {
			return nil, apperr.NotFound("chatroom participant")
		}
		target, err = s.store.GetUser(ctx, otherID)
		if err != nil {
			return nil, err
		}
	}

	unread, err := s.readstates.unreadCount(ctx, userID, conv.ID)
	if err != nil {
		return nil, err
	}

	return &model.ChatroomView{
		ID:           conv.ID,
		Name:         target.Name,
		AvatarURL:    target.AvatarURL,
		TargetUserID: target.ID,
		CreatedBy:    conv.CreatedBy,
		UnreadCount:  unread,
		CreatedAt:    conv.CreatedAt,
	}, nil
}
