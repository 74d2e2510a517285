// ABOUTME: Per-session conversation context persistence for the sqlite engine
// ABOUTME: Contexts are stored as JSON blobs keyed by session id
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/pensive-labs/converse/internal/models"
)

// SaveContext upserts a session's serialized conversation context
func (s *Store) SaveContext(ctx context.Context, convCtx *models.Context) error {
	if convCtx.SessionID == "" {
		return fmt.Errorf("context session id is required")
	}
	convCtx.UpdatedAt = time.Now()

	data, err := json.Marshal(convCtx)
	if err != nil {
		return fmt.Errorf("marshaling context: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO contexts (session_id, data, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(session_id) DO UPDATE SET
			data = excluded.data,
			updated_at = excluded.updated_at
	`, string(convCtx.SessionID), string(data), convCtx.UpdatedAt)
	if err != nil {
		return fmt.Errorf("saving context: %w", err)
	}
	return nil
}

// LoadContext rehydrates a session's conversation context
func (s *Store) LoadContext(ctx context.Context, sessionID models.SessionID) (*models.Context, error) {
	var data string
	err := s.db.QueryRowContext(ctx,
		`SELECT data FROM contexts WHERE session_id = ?`, string(sessionID)).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, goerr.Wrap(models.ErrNotFound, "context", goerr.V("session_id", sessionID))
	}
	if err != nil {
		return nil, fmt.Errorf("querying context: %w", err)
	}

	var convCtx models.Context
	if err := json.Unmarshal([]byte(data), &convCtx); err != nil {
		return nil, fmt.Errorf("unmarshaling context: %w", err)
	}
	convCtx.SessionID = sessionID
	return &convCtx, nil
}

// DeleteContext removes a session's conversation context; missing is a no-op
func (s *Store) DeleteContext(ctx context.Context, sessionID models.SessionID) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM contexts WHERE session_id = ?`, string(sessionID))
	if err != nil {
		return fmt.Errorf("deleting context: %w", err)
	}
	return nil
}
