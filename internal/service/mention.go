package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/teamgrid/messaging-platform/internal/model"
	"github.com/teamgrid/messaging-platform/internal/store"
	"github.com/teamgrid/messaging-platform/pkg/logger"
	"github.com/teamgrid/messaging-platform/pkg/metrics"
)

// MentionService resolves mention directives submitted with a message into
// materialized per-user mention rows, then hands each concrete target to the
// notification dispatcher. Resolution runs after the send has returned, so
// every failure here is logged and dropped.
type MentionService struct {
	store         *store.Store
	notifications *NotificationService
	logger        *logger.Logger
}

// NewMentionService creates the mention resolver.
func NewMentionService(st *store.Store, notifications *NotificationService, log *logger.Logger) *MentionService {
	return &MentionService{store: st, notifications: notifications, logger: log}
}

// Resolve materializes the directives of one message. Group directives
// expand against membership as of now; the author never receives a mention
// from their own group directive. Duplicate directives collapse via the
// store's uniqueness rule.
func (s *MentionService) Resolve(ctx context.Context, conv *model.Conversation, msg *model.Message, sender *model.User, directives []model.MentionDirective) {
	for _, d := range directives {
		if !d.Kind.Valid() {
			s.logger.Warn("skipping mention with unknown kind",
				zap.Int64("message_id", msg.ID), zap.String("kind", string(d.Kind)))
			continue
		}
		if d.Kind.Group() {
			s.resolveGroup(ctx, conv, msg, sender, d.Kind)
			continue
		}
		s.resolveUser(ctx, conv, msg, sender, d)
	}
}

func (s *MentionService) resolveUser(ctx context.Context, conv *model.Conversation, msg *model.Message, sender *model.User, d model.MentionDirective) {
	if d.UserID == nil {
		s.logger.Warn("skipping user mention without target",
			zap.Int64("message_id", msg.ID))
		return
	}
	targetID := *d.UserID

	ok, err := s.targetCanAccess(ctx, conv, targetID)
	if err != nil {
		s.logger.Error("failed to check mention target access",
			zap.Int64("message_id", msg.ID), zap.Int64("target_id", targetID), zap.Error(err))
		return
	}
	if !ok {
		s.logger.Warn("skipping mention of user without access",
			zap.Int64("message_id", msg.ID), zap.Int64("target_id", targetID))
		return
	}

	s.materialize(ctx, conv, msg, sender, targetID, d.Kind)
}

func (s *MentionService) resolveGroup(ctx context.Context, conv *model.Conversation, msg *model.Message, sender *model.User, kind model.MentionKind) {
	members, err := s.store.ListMemberIDs(ctx, conv.ID)
	if err != nil {
		s.logger.Error("failed to expand group mention",
			zap.Int64("message_id", msg.ID), zap.Error(err))
		return
	}
	for _, memberID := range members {
		if memberID == sender.ID {
			continue
		}
		s.materialize(ctx, conv, msg, sender, memberID, kind)
	}
}

// materialize inserts one mention row and dispatches its notification. A row
// that already exists produces no second notification.
func (s *MentionService) materialize(ctx context.Context, conv *model.Conversation, msg *model.Message, sender *model.User, targetID int64, kind model.MentionKind) {
	_, created, err := s.store.CreateMention(ctx, &model.Mention{
		MessageID: msg.ID,
		UserID:    &targetID,
		Kind:      kind,
	})
	if err != nil {
		s.logger.Error("failed to create mention",
			zap.Int64("message_id", msg.ID), zap.Int64("target_id", targetID), zap.Error(err))
		return
	}
	if !created {
		return
	}
	metrics.MentionsTotal.WithLabelValues(string(kind)).Inc()

	if targetID == sender.ID {
		return
	}
	s.notifications.DispatchMention(ctx, conv, msg, sender, targetID, kind)
}

// targetCanAccess mirrors the submit access rule for the mention target.
func (s *MentionService) targetCanAccess(ctx context.Context, conv *model.Conversation, targetID int64) (bool, error) {
	if conv.RequiresMembership() {
		return s.store.HasConversationMember(ctx, conv.ID, targetID)
	}
	return s.store.IsWorkspaceMember(ctx, conv.WorkspaceID, targetID)
}

// ListUnread returns the caller's unread mentions.
func (s *MentionService) ListUnread(ctx context.Context, userID int64) ([]model.Mention, error) {
	return s.store.ListUnreadMentions(ctx, userID)
}

// MarkRead marks one of the caller's mentions read. Already-read mentions
// are a no-op.
func (s *MentionService) MarkRead(ctx context.Context, userID, mentionID int64) error {
	return s.store.MarkMentionRead(ctx, mentionID, userID)
}

// MarkAllRead marks all of the caller's unread mentions read.
func (s *MentionService) MarkAllRead(ctx context.Context, userID int64) (*model.MarkAllReadResponse, error) {
	n, err := s.store.MarkAllMentionsRead(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &model.MarkAllReadResponse{Updated: n}, nil
}
