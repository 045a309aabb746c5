// Package memory provides the default passive-witnessing store: a local
// SQLite table of witnessed exchanges. The orchestrator writes to it
// fire-and-forget; durability problems are logged upstream and never block
// a response.
package memory

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS witness (
	id         TEXT PRIMARY KEY,
	user_id    TEXT NOT NULL,
	content    TEXT NOT NULL,
	metadata   TEXT NOT NULL DEFAULT '{}',
	created_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_witness_user ON witness(user_id, created_at);
`

// SQLiteStore implements types.MemoryStore over a local SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// Entry is a witnessed exchange as read back from the store.
type Entry struct {
	ID        string
	UserID    string
	Content   string
	Metadata  map[string]string
	CreatedAt time.Time
}

// Open opens (creating if needed) the witness database at path. Use
// ":memory:" for tests.
func Open(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open memory store %s: %w", path, err)
	}
	// SQLite handles one writer at a time; serialize at the pool level
	// rather than surfacing SQLITE_BUSY to callers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize memory schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Write appends a witnessed exchange and returns its id.
func (s *SQLiteStore) Write(ctx context.Context, userID, content string, metadata map[string]string) (string, error) {
	if userID == "" {
		return "", fmt.Errorf("memory write requires a user id")
	}

	meta, err := json.Marshal(metadata)
	if err != nil {
		return "", fmt.Errorf("failed to encode memory metadata: %w", err)
	}

	id := uuid.NewString()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO witness (id, user_id, content, metadata, created_at) VALUES (?, ?, ?, ?, ?)`,
		id, userID, content, string(meta), time.Now().UTC(),
	)
	if err != nil {
		return "", fmt.Errorf("memory write failed: %w", err)
	}
	return id, nil
}

// Recent returns the newest n entries for a user, newest first.
func (s *SQLiteStore) Recent(ctx context.Context, userID string, n int) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, content, metadata, created_at FROM witness
		 WHERE user_id = ? ORDER BY created_at DESC LIMIT ?`,
		userID, n,
	)
	if err != nil {
		return nil, fmt.Errorf("memory recall failed: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var meta string
		if err := rows.Scan(&e.ID, &e.UserID, &e.Content, &meta, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("memory row scan failed: %w", err)
		}
		if err := json.Unmarshal([]byte(meta), &e.Metadata); err != nil {
			e.Metadata = nil
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
