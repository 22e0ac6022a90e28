// Package store implements the durable store on SQLite.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	sqlite3 "github.com/mattn/go-sqlite3"
)

// Store wraps the SQL database. Message, mention, notification, and
// reaction ids are AUTOINCREMENT integers: monotonically increasing and
// totally ordered, which the read cursor comparison relies on.
type Store struct {
	db *sql.DB
}

// New opens the database and initializes the schema.
func New(dataSourceName string) (*Store, error) {
	db, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if strings.Contains(dataSourceName, ":memory:") {
		// A second connection would see a different empty database.
		db.SetMaxOpenConns(1)
	}
	if err = db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if _, err = db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	s := &Store{db: db}
	if err = s.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) initSchema() error {
	schema := `
    CREATE TABLE IF NOT EXISTS users (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        name TEXT NOT NULL,
        avatar_url TEXT,
        created_at DATETIME DEFAULT CURRENT_TIMESTAMP
    );

    CREATE TABLE IF NOT EXISTS workspace_members (
        workspace_id INTEGER NOT NULL,
        user_id INTEGER NOT NULL,
        PRIMARY KEY (workspace_id, user_id)
    );

    CREATE TABLE IF NOT EXISTS conversations (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        workspace_id INTEGER NOT NULL,
        type TEXT NOT NULL CHECK (type IN ('channel', 'chatroom')),
        name TEXT,
        is_private BOOLEAN NOT NULL DEFAULT FALSE,
        created_by INTEGER NOT NULL,
        created_at DATETIME DEFAULT CURRENT_TIMESTAMP
    );

    CREATE TABLE IF NOT EXISTS conversation_members (
        conversation_id INTEGER NOT NULL,
        user_id INTEGER NOT NULL,
        role TEXT NOT NULL DEFAULT 'MEMBER',
        created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
        PRIMARY KEY (conversation_id, user_id),
        FOREIGN KEY (conversation_id) REFERENCES conversations (id)
    );

    CREATE TABLE IF NOT EXISTS conversation_hidden (
        conversation_id INTEGER NOT NULL,
        user_id INTEGER NOT NULL,
        PRIMARY KEY (conversation_id, user_id)
    );

    CREATE TABLE IF NOT EXISTS messages (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        workspace_id INTEGER NOT NULL,
        conversation_id INTEGER NOT NULL,
        user_id INTEGER NOT NULL,
        content TEXT NOT NULL,
        parent_message_id INTEGER,
        is_edited BOOLEAN NOT NULL DEFAULT FALSE,
        is_deleted BOOLEAN NOT NULL DEFAULT FALSE,
        created_at DATETIME NOT NULL,
        updated_at DATETIME NOT NULL,
        edited_at DATETIME,
        chunk_id TEXT,
        FOREIGN KEY (conversation_id) REFERENCES conversations (id)
    );
    CREATE INDEX IF NOT EXISTS idx_messages_conv_parent
        ON messages (conversation_id, parent_message_id, is_deleted);
    CREATE INDEX IF NOT EXISTS idx_messages_parent
        ON messages (parent_message_id);

    CREATE TABLE IF NOT EXISTS mentions (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        message_id INTEGER NOT NULL,
        mentioned_user_id INTEGER,
        kind TEXT NOT NULL,
        is_read BOOLEAN NOT NULL DEFAULT FALSE,
        FOREIGN KEY (message_id) REFERENCES messages (id)
    );
    CREATE UNIQUE INDEX IF NOT EXISTS uk_mentions_message_user_kind
        ON mentions (message_id, IFNULL(mentioned_user_id, 0), kind);
    CREATE INDEX IF NOT EXISTS idx_mentions_user_read
        ON mentions (mentioned_user_id, is_read);

    CREATE TABLE IF NOT EXISTS read_states (
        conversation_id INTEGER NOT NULL,
        user_id INTEGER NOT NULL,
        last_read_message_id INTEGER,
        updated_at DATETIME NOT NULL,
        PRIMARY KEY (conversation_id, user_id)
    );

    CREATE TABLE IF NOT EXISTS notifications (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        user_id INTEGER NOT NULL,
        workspace_id INTEGER NOT NULL,
        type TEXT NOT NULL,
        content TEXT NOT NULL,
        conversation_type TEXT NOT NULL,
        conversation_id INTEGER NOT NULL,
        message_id INTEGER,
        sender_id INTEGER NOT NULL,
        sender_name TEXT NOT NULL,
        sender_avatar_url TEXT,
        is_read BOOLEAN NOT NULL DEFAULT FALSE,
        created_at DATETIME NOT NULL,
        read_at DATETIME
    );
    CREATE INDEX IF NOT EXISTS idx_notifications_user_ws
        ON notifications (user_id, workspace_id, created_at);

    CREATE TABLE IF NOT EXISTS message_reactions (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        message_id INTEGER NOT NULL,
        user_id INTEGER NOT NULL,
        emoji TEXT NOT NULL,
        created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
        UNIQUE (message_id, user_id, emoji)
    );

    CREATE TABLE IF NOT EXISTS user_devices (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        user_id INTEGER NOT NULL,
        device_token TEXT NOT NULL UNIQUE,
        device_class TEXT NOT NULL,
        is_active BOOLEAN NOT NULL DEFAULT TRUE,
        created_at DATETIME DEFAULT CURRENT_TIMESTAMP
    );
    `
	_, err := s.db.Exec(schema)
	return err
}

// isUniqueViolation reports whether err is a uniqueness constraint failure.
func isUniqueViolation(err error) bool {
	var serr sqlite3.Error
	if errors.As(err, &serr) {
		return serr.Code == sqlite3.ErrConstraint
	}
	return false
}
