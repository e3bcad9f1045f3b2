package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ponyo877/swapdesk/server/domain"
	"github.com/ponyo877/swapdesk/server/usecase"
)

// Session rows are keyed with a "session-" prefix.
const storeKeyPrefix = "session-"

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	created_at INTEGER NOT NULL
)`

// Repository persists sessions as JSON values in a key-value table.
// Writes are last-write-wins whole-record upserts; serialization of
// read-modify-write cycles is the caller's concern.
type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) (*Repository, error) {
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("ensure sessions table: %w", err)
	}
	return &Repository{db: db}, nil
}

func storeKey(id string) string {
	return storeKeyPrefix + id
}

func (r *Repository) GetSession(ctx context.Context, id string) (domain.Session, error) {
	var value string
	query := `SELECT value FROM sessions WHERE key = ?`
	if err := r.db.QueryRowContext(ctx, query, storeKey(id)).Scan(&value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Session{}, usecase.ErrSessionNotFound
		}
		return domain.Session{}, fmt.Errorf("query session %s: %w", id, err)
	}
	var session domain.Session
	if err := json.Unmarshal([]byte(value), &session); err != nil {
		return domain.Session{}, fmt.Errorf("decode session %s: %w", id, err)
	}
	return session, nil
}

func (r *Repository) PutSession(ctx context.Context, id string, session domain.Session) error {
	value, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode session %s: %w", id, err)
	}
	query := `
		INSERT INTO sessions (key, value, created_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`
	if _, err := r.db.ExecContext(ctx, query, storeKey(id), string(value), session.Timestamp); err != nil {
		return fmt.Errorf("store session %s: %w", id, err)
	}
	return nil
}

func (r *Repository) DeleteSessionsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `DELETE FROM sessions WHERE created_at < ?`
	result, err := r.db.ExecContext(ctx, query, cutoff.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	return result.RowsAffected()
}
