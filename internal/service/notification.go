package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/teamgrid/messaging-platform/internal/apperr"
	"github.com/teamgrid/messaging-platform/internal/model"
	"github.com/teamgrid/messaging-platform/internal/push"
	"github.com/teamgrid/messaging-platform/internal/store"
	"github.com/teamgrid/messaging-platform/pkg/logger"
	"github.com/teamgrid/messaging-platform/pkg/metrics"
)

// notificationPageSize is the fixed page returned by List. The unread count
// is computed within this page.
const notificationPageSize = 20

// NotificationService is the dispatcher: it persists notifications, sends
// them down the target's private event queue, and attempts push delivery.
type NotificationService struct {
	store     *store.Store
	publisher Publisher
	push      push.Sender // nil when push is not configured
	logger    *logger.Logger
}

// NewNotificationService creates the dispatcher.
func NewNotificationService(st *store.Store, pub Publisher, sender push.Sender, log *logger.Logger) *NotificationService {
	return &NotificationService{store: st, publisher: pub, push: sender, logger: log}
}

// DispatchMention records and delivers one mention notification. Publication
// and push failures are logged and dropped; the mention row already exists.
func (s *NotificationService) DispatchMention(ctx context.Context, conv *model.Conversation, msg *model.Message, sender *model.User, targetID int64, kind model.MentionKind) {
	n, err := s.store.CreateNotification(ctx, &model.Notification{
		UserID:           targetID,
		WorkspaceID:      conv.WorkspaceID,
		Type:             model.NotificationMention,
		Content:          mentionContent(sender, kind, msg.Content),
		ConversationType: conv.Type,
		ConversationID:   conv.ID,
		MessageID:        &msg.ID,
		SenderID:         sender.ID,
		SenderName:       sender.Name,
		SenderAvatarURL:  sender.AvatarURL,
	})
	if err != nil {
		s.logger.Error("failed to create notification",
			zap.Int64("message_id", msg.ID), zap.Int64("target_id", targetID), zap.Error(err))
		return
	}
	metrics.NotificationsTotal.WithLabelValues(string(n.Type)).Inc()

	if err := s.publisher.PublishUser(targetID, model.NewMentionEnvelope(conv.Ref(), n)); err != nil {
		s.logger.Error("failed to publish mention event",
			zap.Int64("notification_id", n.ID), zap.Error(err))
	}

	s.sendPush(ctx, n, msg)
}

// sendPush delivers the notification to the target's desktop devices, or
// to every active device when none is a desktop. Every failure is swallowed.
func (s *NotificationService) sendPush(ctx context.Context, n *model.Notification, msg *model.Message) {
	if s.push == nil {
		return
	}
	devices, err := s.store.ActiveDevices(ctx, n.UserID)
	if err != nil {
		s.logger.Warn("failed to load devices for push",
			zap.Int64("user_id", n.UserID), zap.Error(err))
		return
	}
	targets := selectDevices(devices)
	if len(targets) == 0 {
		return
	}

	data := map[string]string{
		"conversation_type": string(n.ConversationType),
		"conversation_id":   fmt.Sprintf("%d", n.ConversationID),
		"message_id":        fmt.Sprintf("%d", msg.ID),
	}
	for _, d := range targets {
		if err := s.push.Send(ctx, d.Token, n.SenderName, n.Content, data); err != nil {
			metrics.PushFailures.Inc()
			s.logger.Warn("push delivery failed",
				zap.Int64("user_id", n.UserID),
				zap.String("device", push.MaskToken(d.Token)),
				zap.Error(err))
		}
	}
}

// selectDevices returns the desktop devices when any is active, otherwise
// every active device.
func selectDevices(devices []model.Device) []model.Device {
	var desktops []model.Device
	for _, d := range devices {
		if d.Class == model.DeviceDesktopApp {
			desktops = append(desktops, d)
		}
	}
	if len(desktops) > 0 {
		return desktops
	}
	return devices
}

func mentionContent(sender *model.User, kind model.MentionKind, body string) string {
	if kind == model.MentionUser {
		return fmt.Sprintf("%s mentioned you: %s", sender.Name, body)
	}
	return fmt.Sprintf("%s mentioned @%s: %s", sender.Name, kind, body)
}

// List returns the caller's latest notifications with the unread count
// within the page.
func (s *NotificationService) List(ctx context.Context, userID, workspaceID int64) (*model.ListNotificationsResponse, error) {
	notifications, err := s.store.ListNotifications(ctx, userID, workspaceID, notificationPageSize)
	if err != nil {
		return nil, err
	}
	unread := 0
	for _, n := range notifications {
		if !n.IsRead {
			unread++
		}
	}
	return &model.ListNotificationsResponse{Notifications: notifications, UnreadCount: unread}, nil
}

// ListUnread returns all of the caller's unread notifications in a workspace.
func (s *NotificationService) ListUnread(ctx context.Context, userID, workspaceID int64) ([]model.Notification, error) {
	return s.store.ListUnreadNotifications(ctx, userID, workspaceID)
}

// MarkRead marks one notification read. Only the owner may mark it, and
// marking an already-read notification is a no-op.
func (s *NotificationService) MarkRead(ctx context.Context, userID, notificationID int64) error {
	n, err := s.store.GetNotification(ctx, notificationID)
	if err != nil {
		return err
	}
	if n.UserID != userID {
		return apperr.Forbidden("not your notification")
	}
	return s.store.MarkNotificationRead(ctx, notificationID)
}

// MarkAllRead marks every unread notification of the caller in one workspace.
func (s *NotificationService) MarkAllRead(ctx context.Context, userID, workspaceID int64) (*model.MarkAllReadResponse, error) {
	n, err := s.store.MarkAllNotificationsRead(ctx, userID, workspaceID)
	if err != nil {
		return nil, err
	}
	return &model.MarkAllReadResponse{Updated: n}, nil
}
