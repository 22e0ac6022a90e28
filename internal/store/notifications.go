package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/teamgrid/messaging-platform/internal/apperr"
	"github.com/teamgrid/messaging-platform/internal/model"
)

const notificationColumns = `id, user_id, workspace_id, type, content,
    conversation_type, conversation_id, message_id, sender_id, sender_name,
    sender_avatar_url, is_read, created_at, read_at`

// CreateNotification persists a notification row.
func (s *Store) CreateNotification(ctx context.Context, n *model.Notification) (*model.Notification, error) {
	now := time.Now()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO notifications (user_id, workspace_id, type, content,
             conversation_type, conversation_id, message_id, sender_id,
             sender_name, sender_avatar_url, is_read, created_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, FALSE, ?)`,
		n.UserID, n.WorkspaceID, string(n.Type), n.Content,
		string(n.ConversationType), n.ConversationID, n.MessageID, n.SenderID,
		n.SenderName, n.SenderAvatarURL, now)
	if err != nil {
		return nil, fmt.Errorf("failed to insert notification: %w", err)
	}
	id, _ := res.LastInsertId()
	out := *n
	out.ID = id
	out.IsRead = false
	out.CreatedAt = now
	return &out, nil
}

// GetNotification returns a notification by id.
func (s *Store) GetNotification(ctx context.Context, id int64) (*model.Notification, error) {
	row := s.db.QueryRowContext(ctx,
		fmt.Sprintf("SELECT %s FROM notifications WHERE id = ?", notificationColumns), id)
	n, err := scanNotification(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperr.NotFound("notification")
		}
		return nil, fmt.Errorf("failed to query notification: %w", err)
	}
	return n, nil
}

// ListNotifications returns the latest notifications for a user in a
// workspace, newest first.
func (s *Store) ListNotifications(ctx context.Context, userID, workspaceID int64, limit int) ([]model.Notification, error) {
	rows, err := s.db.QueryContext(ctx,
		fmt.Sprintf(`SELECT %s FROM notifications
             WHERE user_id = ? AND workspace_id = ?
             ORDER BY created_at DESC, id DESC LIMIT ?`, notificationColumns),
		userID, workspaceID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query notifications: %w", err)
	}
	defer rows.Close()
	return collectNotifications(rows)
}

// ListUnreadNotifications returns a user's unread notifications in a
// workspace, newest first.
func (s *Store) ListUnreadNotifications(ctx context.Context, userID, workspaceID int64) ([]model.Notification, error) {
	rows, err := s.db.QueryContext(ctx,
		fmt.Sprintf(`SELECT %s FROM notifications
             WHERE user_id = ? AND workspace_id = ? AND is_read = FALSE
             ORDER BY created_at DESC, id DESC`, notificationColumns),
		userID, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("failed to query unread notifications: %w", err)
	}
	defer rows.Close()
	return collectNotifications(rows)
}

// MarkNotificationRead stamps read_at once. Marking an already-read row is
// a no-op.
func (s *Store) MarkNotificationRead(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE notifications SET is_read = TRUE, read_at = ? WHERE id = ? AND is_read = FALSE",
		time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	return nil
}

// MarkAllNotificationsRead marks every unread notification of the user in
// one workspace and returns the count mutated.
func (s *Store) MarkAllNotificationsRead(ctx context.Context, userID, workspaceID int64) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE notifications SET is_read = TRUE, read_at = ?
         WHERE user_id = ? AND workspace_id = ? AND is_read = FALSE`,
		time.Now(), userID, workspaceID)
	if err != nil {
		return 0, fmt.Errorf("failed to mark notifications read: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

func scanNotification(row rowScanner) (*model.Notification, error) {
	var n model.Notification
	var typ, convType string
	var messageID sql.NullInt64
	var avatar sql.NullString
	var readAt sql.NullTime
	err := row.Scan(&n.ID, &n.UserID, &n.WorkspaceID, &typ, &n.Content,
		&convType, &n.ConversationID, &messageID, &n.SenderID, &n.SenderName,
		&avatar, &n.IsRead, &n.CreatedAt, &readAt)
	if err != nil {
		return nil, err
	}
	n.Type = model.NotificationType(typ)
	n.ConversationType = model.ConversationType(convType)
	if messageID.Valid {
		n.MessageID = &messageID.Int64
	}
	n.SenderAvatarURL = avatar.String
	if readAt.Valid {
		n.ReadAt = &readAt.Time
	}
	return &n, nil
}

func collectNotifications(rows *sql.Rows) ([]model.Notification, error) {
	var out []model.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan notification row: %w", err)
		}
		out = append(out, *n)
	}
	return out, rows.Err()
}
