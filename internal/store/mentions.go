package store

import (
	"context"
	"fmt"

	"github.com/teamgrid/messaging-platform/internal/apperr"
	"github.com/teamgrid/messaging-platform/internal/model"
)

// CreateMention inserts a mention row. A uniqueness violation is swallowed
// and reported as created=false: duplicate submissions are expected under
// retry and must not fail the send.
func (s *Store) CreateMention(ctx context.Context, m *model.Mention) (*model.Mention, bool, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO mentions (message_id, mentioned_user_id, kind, is_read)
         VALUES (?, ?, ?, FALSE)`,
		m.MessageID, m.UserID, string(m.Kind))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to insert mention: %w", err)
	}
	id, _ := res.LastInsertId()
	out := *m
	out.ID = id
	out.IsRead = false
	return &out, true, nil
}

// ListMentionsForMessage returns the mention rows of one message.
func (s *Store) ListMentionsForMessage(ctx context.Context, messageID int64) ([]model.Mention, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, message_id, mentioned_user_id, kind, is_read
         FROM mentions WHERE message_id = ? ORDER BY id`, messageID)
	if err != nil {
		return nil, fmt.Errorf("failed to query mentions: %w", err)
	}
	defer rows.Close()

	var out []model.Mention
	for rows.Next() {
		var m model.Mention
		var kind string
		if err := rows.Scan(&m.ID, &m.MessageID, &m.UserID, &kind, &m.IsRead); err != nil {
			return nil, fmt.Errorf("failed to scan mention row: %w", err)
		}
		m.Kind = model.MentionKind(kind)
		out = append(out, m)
	}
	return out, rows.Err()
}

// ListUnreadMentions returns a user's unread mentions.
func (s *Store) ListUnreadMentions(ctx context.Context, userID int64) ([]model.Mention, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, message_id, mentioned_user_id, kind, is_read
         FROM mentions WHERE mentioned_user_id = ? AND is_read = FALSE ORDER BY id`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query unread mentions: %w", err)
	}
	defer rows.Close()

	var out []model.Mention
	for rows.Next() {
		var m model.Mention
		var kind string
		if err := rows.Scan(&m.ID, &m.MessageID, &m.UserID, &kind, &m.IsRead); err != nil {
			return nil, fmt.Errorf("failed to scan mention row: %w", err)
		}
		m.Kind = model.MentionKind(kind)
		out = append(out, m)
	}
	return out, rows.Err()
}

// MarkMentionRead flips is_read to true. The transition is monotonic; rows
// already read are untouched.
func (s *Store) MarkMentionRead(ctx context.Context, mentionID, userID int64) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE mentions SET is_read = TRUE WHERE id = ? AND mentioned_user_id = ?",
		mentionID, userID)
	if err != nil {
		return fmt.Errorf("failed to mark mention read: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		var exists int
		if err := s.db.QueryRowContext(ctx,
			"SELECT COUNT(1) FROM mentions WHERE id = ? AND mentioned_user_id = ?",
			mentionID, userID).Scan(&exists); err == nil && exists == 0 {
			return apperr.NotFound("mention")
		}
	}
	return nil
}

// MarkAllMentionsRead flips all of a user's unread mentions and returns the
// number mutated.
func (s *Store) MarkAllMentionsRead(ctx context.Context, userID int64) (int, error) {
	res, err := s.db.ExecContext(ctx,
		"UPDATE mentions SET is_read = TRUE WHERE mentioned_user_id = ? AND is_read = FALSE",
		userID)
	if err != nil {
		return 0, fmt.Errorf("failed to mark mentions read: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}
