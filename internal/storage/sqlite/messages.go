// ABOUTME: Message persistence for the sqlite engine
// ABOUTME: Append-only writes; session counters update in the same transaction
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/m-mizutani/goerr/v2"

	"github.com/pensive-labs/converse/internal/models"
)

// AppendMessage durably appends a message and advances the owning session's
// last_message_at and message_count. The id and timestamp are assigned here
// if unset; the timestamp is strictly monotonic within this store instance.
func (s *Store) AppendMessage(ctx context.Context, msg *models.Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}
	if msg.ID == "" {
		msg.ID = models.NewMessageID()
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = s.nextTimestamp()
	}

	var metadataJSON sql.NullString
	if len(msg.Metadata) > 0 {
		data, err := json.Marshal(msg.Metadata)
		if err != nil {
			return fmt.Errorf("marshaling message metadata: %w", err)
		}
		metadataJSON = sql.NullString{String: string(data), Valid: true}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning append transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `
		UPDATE sessions
		SET last_message_at = ?, message_count = message_count + 1
		WHERE id = ?
	`, msg.Timestamp, string(msg.SessionID))
	if err != nil {
		return fmt.Errorf("updating session counters: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking session update: %w", err)
	}
	if affected == 0 {
		return goerr.Wrap(models.ErrNotFound, "session", goerr.V("session_id", msg.SessionID))
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO messages (id, session_id, role, content, created_at, metadata)
		VALUES (?, ?, ?, ?, ?, ?)
	`, string(msg.ID), string(msg.SessionID), string(msg.Role), msg.Content,
		msg.Timestamp, metadataJSON); err != nil {
		return fmt.Errorf("inserting message: %w", err)
	}

	return tx.Commit()
}

// GetMessage retrieves a single message by id
func (s *Store) GetMessage(ctx context.Context, id models.MessageID) (*models.Message, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, session_id, role, content, created_at, metadata
		FROM messages
		WHERE id = ?
	`, string(id))

	msg, err := s.scanMessage(row)
	if err == sql.ErrNoRows {
		return nil, goerr.Wrap(models.ErrNotFound, "message", goerr.V("message_id", id))
	}
	if err != nil {
		return nil, fmt.Errorf("querying message: %w", err)
	}
	return msg, nil
}

// MessagesBySession returns a session's messages in timestamp order.
// When the session index exists the query is index-accelerated; otherwise
// every message is scanned and filtered here, which is functionally
// identical but O(n), logged once per open.
func (s *Store) MessagesBySession(ctx context.Context, sessionID models.SessionID) ([]models.Message, error) {
	if _, err := s.GetSession(ctx, sessionID); err != nil {
		return nil, err
	}

	query := `
		SELECT id, session_id, role, content, created_at, metadata
		FROM messages
		WHERE session_id = ?
		ORDER BY created_at ASC
	`
	args := []any{string(sessionID)}

	if !s.hasSessionIndex {
		s.warnFullScan()
		query = `
			SELECT id, session_id, role, content, created_at, metadata
			FROM messages
			ORDER BY created_at ASC
		`
		args = nil
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying messages: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var messages []models.Message
	for rows.Next() {
		msg, err := s.scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning message: %w", err)
		}
		if !s.hasSessionIndex && msg.SessionID != sessionID {
			continue
		}
		messages = append(messages, *msg)
	}
	return messages, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *Store) scanMessage(row rowScanner) (*models.Message, error) {
	var (
		msg          models.Message
		id, sid, rl  string
		metadataJSON sql.NullString
	)
	if err := row.Scan(&id, &sid, &rl, &msg.Content, &msg.Timestamp, &metadataJSON); err != nil {
		return nil, err
	}
	msg.ID = models.MessageID(id)
	msg.SessionID = models.SessionID(sid)
	msg.Role = models.Role(rl)

	if metadataJSON.Valid && metadataJSON.String != "" {
		if err := json.Unmarshal([]byte(metadataJSON.String), &msg.Metadata); err != nil {
			// Corrupt metadata does not block reading the message itself
			s.logger.Warn("dropping unreadable message metadata",
				"message_id", id, "error", err)
			msg.Metadata = nil
		}
	}
	return &msg, nil
}
