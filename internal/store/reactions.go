package store

import (
	"context"
	"fmt"

	"github.com/teamgrid/messaging-platform/internal/apperr"
)

// AddReaction records an emoji reaction. A duplicate add is swallowed.
func (s *Store) AddReaction(ctx context.Context, messageID, userID int64, emoji string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO message_reactions (message_id, user_id, emoji) VALUES (?, ?, ?)",
		messageID, userID, emoji)
	if err != nil {
		if isUniqueViolation(err) {
			return nil
		}
		return fmt.Errorf("failed to insert reaction: %w", err)
	}
	return nil
}

// RemoveReaction deletes one user's emoji reaction from a message.
func (s *Store) RemoveReaction(ctx context.Context, messageID, userID int64, emoji string) error {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM message_reactions WHERE message_id = ? AND user_id = ? AND emoji = ?",
		messageID, userID, emoji)
	if err != nil {
		return fmt.Errorf("failed to delete reaction: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("reaction")
	}
	return nil
}

// ListReactions returns a message's reactions grouped emoji → user ids.
func (s *Store) ListReactions(ctx context.Context, messageID int64) (map[string][]int64, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT emoji, user_id FROM message_reactions WHERE message_id = ? ORDER BY id",
		messageID)
	if err != nil {
		return nil, fmt.Errorf("failed to query reactions: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]int64)
	for rows.Next() {
		var emoji string
		var userID int64
		if err := rows.Scan(&emoji, &userID); err != nil {
			return nil, fmt.Errorf("failed to scan reaction row: %w", err)
		}
		out[emoji] = append(out[emoji], userID)
	}
	return out, rows.Err()
}
