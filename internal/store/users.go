package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/teamgrid/messaging-platform/internal/apperr"
	"github.com/teamgrid/messaging-platform/internal/model"
)

// CreateUser inserts a user row and returns it.
func (s *Store) CreateUser(ctx context.Context, name, avatarURL string) (*model.User, error) {
	now := time.Now()
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO users (name, avatar_url, created_at) VALUES (?, ?, ?)",
		name, avatarURL, now)
	if err != nil {
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}
	id, _ := res.LastInsertId()
	return &model.User{ID: id, Name: name, AvatarURL: avatarURL, CreatedAt: now}, nil
}

// GetUser returns a user by id.
func (s *Store) GetUser(ctx context.Context, id int64) (*model.User, error) {
	var u model.User
	var avatar sql.NullString
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, avatar_url, created_at FROM users WHERE id = ?", id).
		Scan(&u.ID, &u.Name, &avatar, &u.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperr.NotFound("user")
		}
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	u.AvatarURL = avatar.String
	return &u, nil
}

// AddWorkspaceMember records workspace membership. Duplicate adds are no-ops.
func (s *Store) AddWorkspaceMember(ctx context.Context, workspaceID, userID int64) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO workspace_members (workspace_id, user_id) VALUES (?, ?)",
		workspaceID, userID)
	if err != nil {
		return fmt.Errorf("failed to insert workspace member: %w", err)
	}
	return nil
}

// IsWorkspaceMember reports whether the user belongs to the workspace.
func (s *Store) IsWorkspaceMember(ctx context.Context, workspaceID, userID int64) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM workspace_members WHERE workspace_id = ? AND user_id = ?",
		workspaceID, userID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to query workspace membership: %w", err)
	}
	return n > 0, nil
}
