package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/teamgrid/messaging-platform/internal/apperr"
	"github.com/teamgrid/messaging-platform/internal/model"
)

// CreateConversation inserts a conversation row.
func (s *Store) CreateConversation(ctx context.Context, c *model.Conversation) (*model.Conversation, error) {
	now := time.Now()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO conversations (workspace_id, type, name, is_private, created_by, created_at)
         VALUES (?, ?, ?, ?, ?, ?)`,
		c.WorkspaceID, string(c.Type), c.Name, c.IsPrivate, c.CreatedBy, now)
	if err != nil {
		return nil, fmt.Errorf("failed to insert conversation: %w", err)
	}
	id, _ := res.LastInsertId()
	out := *c
	out.ID = id
	out.CreatedAt = now
	return &out, nil
}

// GetConversation returns a conversation by id.
func (s *Store) GetConversation(ctx context.Context, id int64) (*model.Conversation, error) {
	var c model.Conversation
	var name sql.NullString
	var typ string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, workspace_id, type, name, is_private, created_by, created_at
         FROM conversations WHERE id = ?`, id).
		Scan(&c.ID, &c.WorkspaceID, &typ, &name, &c.IsPrivate, &c.CreatedBy, &c.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperr.NotFound("conversation")
		}
		return nil, fmt.Errorf("failed to query conversation: %w", err)
	}
	c.Type = model.ConversationType(typ)
	c.Name = name.String
	return &c, nil
}

// AddConversationMember records membership. Duplicate adds are swallowed:
// concurrent joins are expected under retry.
func (s *Store) AddConversationMember(ctx context.Context, conversationID, userID int64) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO conversation_members (conversation_id, user_id) VALUES (?, ?)",
		conversationID, userID)
	if err != nil {
		return fmt.Errorf("failed to insert conversation member: %w", err)
	}
	return nil
}

// HasConversationMember reports whether an explicit membership row exists.
func (s *Store) HasConversationMember(ctx context.Context, conversationID, userID int64) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM conversation_members WHERE conversation_id = ? AND user_id = ?",
		conversationID, userID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to query membership: %w", err)
	}
	return n > 0, nil
}

// ListMemberIDs returns the user ids of a conversation's explicit members.
func (s *Store) ListMemberIDs(ctx context.Context, conversationID int64) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT user_id FROM conversation_members WHERE conversation_id = ? ORDER BY user_id",
		conversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to query members: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan member row: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// FindDirectChatroom returns the chatroom shared by exactly the two users
// in a workspace, or nil when none exists.
func (s *Store) FindDirectChatroom(ctx context.Context, workspaceID, userA, userB int64) (*model.Conversation, error) {
	var id int64
	err := s.db.QueryRowContext(ctx,
		`SELECT c.id FROM conversations c
         JOIN conversation_members a ON a.conversation_id = c.id AND a.user_id = ?
         JOIN conversation_members b ON b.conversation_id = c.id AND b.user_id = ?
         WHERE c.workspace_id = ? AND c.type = 'chatroom'
         LIMIT 1`,
		userA, userB, workspaceID).Scan(&id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query direct chatroom: %w", err)
	}
	return s.GetConversation(ctx, id)
}

// ListChatroomIDsForUser returns chatroom ids the user belongs to,
// excluding rooms the user has hidden.
func (s *Store) ListChatroomIDsForUser(ctx context.Context, workspaceID, userID int64) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT c.id FROM conversations c
         JOIN conversation_members m ON m.conversation_id = c.id
         WHERE c.workspace_id = ? AND c.type = 'chatroom' AND m.user_id = ?
           AND NOT EXISTS (
             SELECT 1 FROM conversation_hidden h
             WHERE h.conversation_id = c.id AND h.user_id = ?)
         ORDER BY c.id`,
		workspaceID, userID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query chatrooms: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan chatroom row: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// HideConversation hides a conversation for one user. Idempotent.
func (s *Store) HideConversation(ctx context.Context, conversationID, userID int64) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO conversation_hidden (conversation_id, user_id) VALUES (?, ?)",
		conversationID, userID)
	if err != nil {
		return fmt.Errorf("failed to hide conversation: %w", err)
	}
	return nil
}

// UnhideConversation removes the per-user hide marker. Idempotent.
func (s *Store) UnhideConversation(ctx context.Context, conversationID, userID int64) error {
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM conversation_hidden WHERE conversation_id = ? AND user_id = ?",
		conversationID, userID)
	if err != nil {
		return fmt.Errorf("failed to unhide conversation: %w", err)
	}
	return nil
}

// IsConversationHidden reports whether the user has hidden the conversation.
func (s *Store) IsConversationHidden(ctx context.Context, conversationID, userID int64) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM conversation_hidden WHERE conversation_id = ? AND user_id = ?",
		conversationID, userID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to query hidden state: %w", err)
	}
	return n > 0, nil
}
