package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/teamgrid/messaging-platform/internal/model"
)

// UpsertReadState advances the (conversation, user) cursor. The upsert
// converges concurrent first-writes to a single row, and MAX keeps the
// cursor from ever moving backward.
func (s *Store) UpsertReadState(ctx context.Context, conversationID, userID, lastReadMessageID int64) error {
	now := time.Now()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO read_states (conversation_id, user_id, last_read_message_id, updated_at)
         VALUES (?, ?, ?, ?)
         ON CONFLICT (conversation_id, user_id) DO UPDATE SET
             last_read_message_id = MAX(IFNULL(last_read_message_id, 0), excluded.last_read_message_id),
             updated_at = excluded.updated_at`,
		conversationID, userID, lastReadMessageID, now)
	if err != nil {
		return fmt.Errorf("failed to upsert read state: %w", err)
	}
	return nil
}

// GetReadState returns the stored cursor, or nil when the user has never
// read the conversation.
func (s *Store) GetReadState(ctx context.Context, conversationID, userID int64) (*model.ReadState, error) {
	var rs model.ReadState
	var last sql.NullInt64
	err := s.db.QueryRowContext(ctx,
		`SELECT conversation_id, user_id, last_read_message_id, updated_at
         FROM read_states WHERE conversation_id = ? AND user_id = ?`,
		conversationID, userID).
		Scan(&rs.ConversationID, &rs.UserID, &last, &rs.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query read state: %w", err)
	}
	if last.Valid {
		rs.LastReadMessageID = &last.Int64
	}
	return &rs, nil
}
