package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/teamgrid/messaging-platform/internal/apperr"
	"github.com/teamgrid/messaging-platform/internal/model"
)

const messageColumns = `id, workspace_id, conversation_id, user_id, content,
    parent_message_id, is_edited, is_deleted, created_at, updated_at, edited_at, chunk_id`

// CreateMessage persists a message and assigns its monotonic id.
func (s *Store) CreateMessage(ctx context.Context, m *model.Message) (*model.Message, error) {
	now := time.Now()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO messages (workspace_id, conversation_id, user_id, content,
             parent_message_id, is_edited, is_deleted, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?, FALSE, FALSE, ?, ?)`,
		m.WorkspaceID, m.ConversationID, m.UserID, m.Content, m.ParentMessageID, now, now)
	if err != nil {
		return nil, fmt.Errorf("failed to insert message: %w", err)
	}
	id, _ := res.LastInsertId()

	out := *m
	out.ID = id
	out.IsEdited = false
	out.IsDeleted = false
	out.CreatedAt = now
	out.UpdatedAt = now
	return &out, nil
}

// GetMessage returns a message by id, including soft-deleted rows so delete
// events stay addressable.
func (s *Store) GetMessage(ctx context.Context, id int64) (*model.Message, error) {
	row := s.db.QueryRowContext(ctx,
		fmt.Sprintf("SELECT %s FROM messages WHERE id = ?", messageColumns), id)
	m, err := scanMessage(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperr.NotFound("message")
		}
		return nil, fmt.Errorf("failed to query message: %w", err)
	}
	return m, nil
}

// UpdateMessageContent applies an edit: new body, edited flag, edit stamp.
// The deleted guard is re-checked here so a racing delete wins.
func (s *Store) UpdateMessageContent(ctx context.Context, id int64, content string) (*model.Message, error) {
	now := time.Now()
	res, err := s.db.ExecContext(ctx,
		`UPDATE messages SET content = ?, is_edited = TRUE, edited_at = ?, updated_at = ?
         WHERE id = ? AND is_deleted = FALSE`,
		content, now, now, id)
	if err != nil {
		return nil, fmt.Errorf("failed to update message: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, apperr.InvalidArgument("message is deleted or missing")
	}
	return s.GetMessage(ctx, id)
}

// SoftDeleteMessage sets the deleted flag and replaces the body with the
// deletion marker. Monotonic: deleting an already-deleted row is a no-op.
func (s *Store) SoftDeleteMessage(ctx context.Context, id int64) error {
	now := time.Now()
	_, err := s.db.ExecContext(ctx,
		`UPDATE messages SET is_deleted = TRUE, content = ?, updated_at = ?
         WHERE id = ? AND is_deleted = FALSE`,
		model.DeletedMessageBody, now, id)
	if err != nil {
		return fmt.Errorf("failed to delete message: %w", err)
	}
	return nil
}

// SetMessageChunkID records the external-index reference. Runs only after
// the message row is durable.
func (s *Store) SetMessageChunkID(ctx context.Context, id int64, chunkID string) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE messages SET chunk_id = ? WHERE id = ?", chunkID, id)
	if err != nil {
		return fmt.Errorf("failed to set chunk id: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("message")
	}
	return nil
}

// ListTopLevelMessages returns non-deleted top-level messages in id order.
func (s *Store) ListTopLevelMessages(ctx context.Context, conversationID int64, limit, offset int) ([]model.Message, error) {
	rows, err := s.db.QueryContext(ctx,
		fmt.Sprintf(`SELECT %s FROM messages
             WHERE conversation_id = ? AND parent_message_id IS NULL AND is_deleted = FALSE
             ORDER BY id ASC LIMIT ? OFFSET ?`, messageColumns),
		conversationID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()
	return collectMessages(rows)
}

// ListThreadReplies returns non-deleted replies of a parent in id order.
func (s *Store) ListThreadReplies(ctx context.Context, parentMessageID int64) ([]model.Message, error) {
	rows, err := s.db.QueryContext(ctx,
		fmt.Sprintf(`SELECT %s FROM messages
             WHERE parent_message_id = ? AND is_deleted = FALSE
             ORDER BY id ASC`, messageColumns),
		parentMessageID)
	if err != nil {
		return nil, fmt.Errorf("failed to query replies: %w", err)
	}
	defer rows.Close()
	return collectMessages(rows)
}

// CountReplies returns the number of non-deleted replies under a parent.
func (s *Store) CountReplies(ctx context.Context, parentMessageID int64) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM messages WHERE parent_message_id = ? AND is_deleted = FALSE",
		parentMessageID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count replies: %w", err)
	}
	return n, nil
}

// CountMessagesAfter counts non-deleted top-level messages with id greater
// than afterID. Thread replies never count toward the unread badge.
func (s *Store) CountMessagesAfter(ctx context.Context, conversationID, afterID int64) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM messages
         WHERE conversation_id = ? AND parent_message_id IS NULL
           AND is_deleted = FALSE AND id > ?`,
		conversationID, afterID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread messages: %w", err)
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMessage(row rowScanner) (*model.Message, error) {
	var m model.Message
	var parent sql.NullInt64
	var editedAt sql.NullTime
	var chunkID sql.NullString
	err := row.Scan(&m.ID, &m.WorkspaceID, &m.ConversationID, &m.UserID, &m.Content,
		&parent, &m.IsEdited, &m.IsDeleted, &m.CreatedAt, &m.UpdatedAt, &editedAt, &chunkID)
	if err != nil {
		return nil, err
	}
	if parent.Valid {
		m.ParentMessageID = &parent.Int64
	}
	if editedAt.Valid {
		m.EditedAt = &editedAt.Time
	}
	if chunkID.Valid {
		m.ChunkID = &chunkID.String
	}
	return &m, nil
}

func collectMessages(rows *sql.Rows) ([]model.Message, error) {
	var out []model.Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan message row: %w", err)
		}
		out = append(out, *m)
	}
	return out, rows.Err()
}
