package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	// Registers the "sqlite" driver (pure Go).
	_ "modernc.org/sqlite"
)

// Cap bounds how many messages are kept per chat; the oldest are pruned.
const Cap = 1000

// Message is one recorded group message, the raw material for /summary
// and /mood.
type Message struct {
	ChatID   int64
	UserName string
	Text     string
	SentAt   time.Time // UTC
}

// Store is the SQLite-backed chat history.
type Store struct{ db *sql.DB }

// Open opens (or creates) the history database at the given path, applies
// PRAGMAs, runs migrations and returns the store.
func Open(ctx context.Context, path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// SQLite is a single-writer engine; one connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := applyPragmas(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}
	if err := runMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}

	return &Store{db: db}, nil
}

func applyPragmas(ctx context.Context, db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

// Close releases the underlying database resources.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record stores one message and prunes the chat's history beyond Cap.
func (s *Store) Record(ctx context.Context, m Message) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO messages (chat_id, user_name, text, sent_at)
		VALUES (?, ?, ?, ?)`,
		m.ChatID, m.UserName, m.Text, m.SentAt.UTC().Unix(),
	)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		DELETE FROM messages
		WHERE chat_id = ?
		  AND id NOT IN (
			SELECT id FROM messages
			WHERE chat_id = ?
			ORDER BY id DESC
			LIMIT ?
		  )`,
		m.ChatID, m.ChatID, Cap,
	)
	return err
}

// Recent returns up to n most recent messages for a chat, oldest first.
func (s *Store) Recent(ctx context.Context, chatID int64, n int) ([]Message, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT chat_id, user_name, text, sent_at FROM (
			SELECT id, chat_id, user_name, text, sent_at
			FROM messages
			WHERE chat_id = ?
			ORDER BY id DESC
			LIMIT ?
		) ORDER BY id ASC`,
		chatID, n,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanMessages(rows)
}

// Since returns the messages for a chat sent at or after t, oldest first.
func (s *Store) Since(ctx context.Context, chatID int64, t time.Time) ([]Message, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT chat_id, user_name, text, sent_at
		FROM messages
		WHERE chat_id = ? AND sent_at >= ?
		ORDER BY id ASC`,
		chatID, t.UTC().Unix(),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanMessages(rows)
}

func scanMessages(rows *sql.Rows) ([]Message, error) {
	var res []Message
	for rows.Next() {
		var (
			m      Message
			sentAt int64
		)
		if err := rows.Scan(&m.ChatID, &m.UserName, &m.Text, &sentAt); err != nil {
			return nil, err
		}
		m.SentAt = time.Unix(sentAt, 0).UTC()
		res = append(res, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}
