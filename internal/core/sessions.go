// ABOUTME: SessionManager owns the current-session pointer and session lifecycle
// ABOUTME: The pointer is an explicit persisted field, never ambient global state
package core

import (
	"context"
	"fmt"

	"github.com/m-mizutani/goerr/v2"

	"github.com/pensive-labs/converse/internal/models"
	"github.com/pensive-labs/converse/internal/storage"
)

// SessionManager resolves, creates, and switches the current session
type SessionManager struct {
	store storage.Store
}

// NewSessionManager creates a SessionManager over the given store
func NewSessionManager(store storage.Store) *SessionManager {
	return &SessionManager{store: store}
}

// CurrentID returns the current-session pointer, or "" when no session
// is current
func (m *SessionManager) CurrentID(ctx context.Context) (models.SessionID, error) {
	return m.store.CurrentSession(ctx)
}

// Current returns the current session, or ErrNotFound when none is current
func (m *SessionManager) Current(ctx context.Context) (*models.Session, error) {
	id, err := m.store.CurrentSession(ctx)
	if err != nil {
		return nil, err
	}
	if id == "" {
		return nil, goerr.Wrap(models.ErrNotFound, "no current session")
	}
	return m.store.GetSession(ctx, id)
}

// Create persists a fresh session with the placeholder title. It does not
// change the current pointer.
func (m *SessionManager) Create(ctx context.Context) (*models.Session, error) {
	sess := models.NewSession()
	if err := m.store.CreateSession(ctx, sess); err != nil {
		return nil, fmt.Errorf("creating session: %w", err)
	}
	return sess, nil
}

// SetCurrent points the current-session pointer at an existing session
func (m *SessionManager) SetCurrent(ctx context.Context, id models.SessionID) error {
	if _, err := m.store.GetSession(ctx, id); err != nil {
		return err
	}
	return m.store.SetCurrentSession(ctx, id)
}

// ContinueOrCreate returns the current session, creating and persisting a
// new one only when no current pointer exists. Idempotent: repeated calls
// return the same session until the pointer changes.
func (m *SessionManager) ContinueOrCreate(ctx context.Context) (*models.Session, error) {
	id, err := m.store.CurrentSession(ctx)
	if err != nil {
		return nil, err
	}
	if id != "" {
		sess, err := m.store.GetSession(ctx, id)
		if err == nil {
			return sess, nil
		}
		// Dangling pointer (session deleted out of band): fall through
		// and start fresh
	}
	return m.SwitchToNew(ctx)
}

// SwitchToNew creates a fresh session and makes it current without
// touching the previous session
func (m *SessionManager) SwitchToNew(ctx context.Context) (*models.Session, error) {
	sess, err := m.Create(ctx)
	if err != nil {
		return nil, err
	}
	if err := m.store.SetCurrentSession(ctx, sess.ID); err != nil {
		return nil, fmt.Errorf("switching current session: %w", err)
	}
	return sess, nil
}

// List returns all sessions, most recently active first
func (m *SessionManager) List(ctx context.Context) ([]models.Session, error) {
	return m.store.ListSessions(ctx)
}

// Delete removes a session and everything it owns
func (m *SessionManager) Delete(ctx context.Context, id models.SessionID) error {
	return m.store.DeleteSessionCascade(ctx, id)
}

// MaybeAssignTitle sets the session title from its first user message.
// Runs after each user append; only the append that brings the count to
// exactly one while the title is still the placeholder takes effect.
func (m *SessionManager) MaybeAssignTitle(ctx context.Context, id models.SessionID, content string) error {
	sess, err := m.store.GetSession(ctx, id)
	if err != nil {
		return err
	}
	if sess.Title != models.DefaultSessionTitle || sess.MessageCount != 1 {
		return nil
	}
	sess.Title = models.TitleFromContent(content)
	return m.store.UpdateSession(ctx, sess)
}
