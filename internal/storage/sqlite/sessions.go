// ABOUTME: Session persistence for the sqlite engine
// ABOUTME: Cascade delete removes messages, context, and the current pointer
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/pensive-labs/converse/internal/models"
)

const currentSessionKey = "current_session"

// CreateSession persists a new session row
func (s *Store) CreateSession(ctx context.Context, sess *models.Session) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, title, created_at, last_message_at, message_count)
		VALUES (?, ?, ?, ?, ?)
	`, string(sess.ID), sess.Title, sess.CreatedAt, nullableTime(sess.LastMessageAt), sess.MessageCount)
	if err != nil {
		return fmt.Errorf("inserting session: %w", err)
	}
	return nil
}

// GetSession retrieves a session by id
func (s *Store) GetSession(ctx context.Context, id models.SessionID) (*models.Session, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, title, created_at, last_message_at, message_count
		FROM sessions
		WHERE id = ?
	`, string(id))

	sess, err := scanSession(row)
	if err == sql.ErrNoRows {
		return nil, goerr.Wrap(models.ErrNotFound, "session", goerr.V("session_id", id))
	}
	if err != nil {
		return nil, fmt.Errorf("querying session: %w", err)
	}
	return sess, nil
}

// ListSessions returns all sessions, most recently active first
func (s *Store) ListSessions(ctx context.Context) ([]models.Session, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, created_at, last_message_at, message_count
		FROM sessions
		ORDER BY COALESCE(last_message_at, created_at) DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("querying sessions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var sessions []models.Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning session: %w", err)
		}
		sessions = append(sessions, *sess)
	}
	return sessions, rows.Err()
}

// UpdateSession updates a session's mutable fields in place
func (s *Store) UpdateSession(ctx context.Context, sess *models.Session) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE sessions
		SET title = ?, last_message_at = ?, message_count = ?
		WHERE id = ?
	`, sess.Title, nullableTime(sess.LastMessageAt), sess.MessageCount, string(sess.ID))
	if err != nil {
		return fmt.Errorf("updating session: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking session update: %w", err)
	}
	if affected == 0 {
		return goerr.Wrap(models.ErrNotFound, "session", goerr.V("session_id", sess.ID))
	}
	return nil
}

// DeleteSessionCascade removes a session together with its messages and
// conversation context, and clears the current pointer if it pointed there.
// Deleting a session that no longer exists is a no-op.
func (s *Store) DeleteSessionCascade(ctx context.Context, id models.SessionID) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning delete transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, stmt := range []string{
		`DELETE FROM messages WHERE session_id = ?`,
		`DELETE FROM contexts WHERE session_id = ?`,
		`DELETE FROM sessions WHERE id = ?`,
	} {
		if _, err := tx.ExecContext(ctx, stmt, string(id)); err != nil {
			return fmt.Errorf("cascading session delete: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM settings WHERE key = ? AND value = ?`,
		currentSessionKey, string(id)); err != nil {
		return fmt.Errorf("clearing current pointer: %w", err)
	}

	return tx.Commit()
}

// CurrentSession returns the persisted current-session pointer, or "" if
// no session is current
func (s *Store) CurrentSession(ctx context.Context) (models.SessionID, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM settings WHERE key = ?`, currentSessionKey).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("querying current session: %w", err)
	}
	return models.SessionID(value), nil
}

// SetCurrentSession persists the current-session pointer
func (s *Store) SetCurrentSession(ctx context.Context, id models.SessionID) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, currentSessionKey, string(id))
	if err != nil {
		return fmt.Errorf("setting current session: %w", err)
	}
	return nil
}

// ClearCurrentSession removes the current-session pointer
func (s *Store) ClearCurrentSession(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM settings WHERE key = ?`, currentSessionKey)
	if err != nil {
		return fmt.Errorf("clearing current session: %w", err)
	}
	return nil
}

func scanSession(row rowScanner) (*models.Session, error) {
	var (
		sess          models.Session
		id            string
		lastMessageAt sql.NullTime
	)
	if err := row.Scan(&id, &sess.Title, &sess.CreatedAt, &lastMessageAt, &sess.MessageCount); err != nil {
		return nil, err
	}
	sess.ID = models.SessionID(id)
	if lastMessageAt.Valid {
		sess.LastMessageAt = lastMessageAt.Time
	}
	return &sess, nil
}

func nullableTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}
