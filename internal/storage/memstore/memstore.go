// ABOUTME: Degraded storage engine: in-memory maps with a flat JSON backup file
// ABOUTME: Serves when the sqlite engine cannot open; reduced durability, same contract
package memstore

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/pensive-labs/converse/internal/models"
)

// backupVersion marks the flat-file layout; newer files are refused rather
// than misread
const backupVersion = 1

// backup is the serialized snapshot written after every mutation
type backup struct {
	Version        int                                  `json:"version"`
	CurrentSession models.SessionID                     `json:"current_session,omitempty"`
	Sessions       map[models.SessionID]*models.Session `json:"sessions"`
	Messages       []models.Message                     `json:"messages"`
	Facts          []models.Fact                        `json:"facts"`
	Contexts       map[models.SessionID]*models.Context `json:"contexts"`
}

func newBackup() *backup {
	return &backup{
		Version:  backupVersion,
		Sessions: map[models.SessionID]*models.Session{},
		Contexts: map[models.SessionID]*models.Context{},
	}
}

// Store is the in-memory engine. A single mutex guards everything; this
// engine trades concurrency for simplicity since it only runs when the
// primary engine is unavailable.
type Store struct {
	mu     sync.Mutex
	path   string
	logger *slog.Logger
	data   *backup

	// message ids per session, in append order
	bySession map[models.SessionID][]int

	lastTS time.Time
}

// Open loads the backup file if one exists and rebuilds the session index.
// An empty path disables the backup file entirely (memory only).
func Open(path string, logger *slog.Logger) (*Store, error) {
	s := &Store{
		path:      path,
		logger:    logger,
		data:      newBackup(),
		bySession: map[models.SessionID][]int{},
	}

	if path != "" {
		raw, err := os.ReadFile(path)
		if err == nil {
			var loaded backup
			if jsonErr := json.Unmarshal(raw, &loaded); jsonErr != nil {
				logger.Warn("backup file unreadable, starting empty", "path", path, "error", jsonErr)
			} else if loaded.Version > backupVersion {
				return nil, goerr.Wrap(models.ErrMigrationFailed, "backup file is newer than this build",
					goerr.V("stored", loaded.Version), goerr.V("expected", backupVersion))
			} else {
				if loaded.Sessions == nil {
					loaded.Sessions = map[models.SessionID]*models.Session{}
				}
				if loaded.Contexts == nil {
					loaded.Contexts = map[models.SessionID]*models.Context{}
				}
				loaded.Version = backupVersion
				s.data = &loaded
			}
		} else if !os.IsNotExist(err) {
			logger.Warn("backup file unreadable, starting empty", "path", path, "error", err)
		}
	}

	s.rebuildIndex()
	return s, nil
}

func (s *Store) rebuildIndex() {
	s.bySession = map[models.SessionID][]int{}
	for i, msg := range s.data.Messages {
		s.bySession[msg.SessionID] = append(s.bySession[msg.SessionID], i)
		if msg.Timestamp.After(s.lastTS) {
			s.lastTS = msg.Timestamp
		}
	}
}

// persist rewrites the backup file; callers hold the lock. Failures are
// logged and swallowed: this engine already runs in degraded mode and
// keeping the in-memory state live beats failing the operation.
func (s *Store) persist() {
	if s.path == "" {
		return
	}
	data, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		s.logger.Warn("backup serialization failed", "error", err)
		return
	}
	tmp := s.path + ".tmp"
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		s.logger.Warn("backup directory unavailable", "error", err)
		return
	}
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		s.logger.Warn("backup write failed", "error", err)
		return
	}
	if err := os.Rename(tmp, s.path); err != nil {
		s.logger.Warn("backup rename failed", "error", err)
	}
}

func (s *Store) nextTimestamp() time.Time {
	ts := time.Now()
	if !ts.After(s.lastTS) {
		ts = s.lastTS.Add(time.Microsecond)
	}
	s.lastTS = ts
	return ts
}

// Close writes a final backup snapshot
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.persist()
	return nil
}

// AppendMessage appends a message and advances the session counters
func (s *Store) AppendMessage(ctx context.Context, msg *models.Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.data.Sessions[msg.SessionID]
	if !ok {
		return goerr.Wrap(models.ErrNotFound, "session", goerr.V("session_id", msg.SessionID))
	}

	if msg.ID == "" {
		msg.ID = models.NewMessageID()
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = s.nextTimestamp()
	}

	s.data.Messages = append(s.data.Messages, *msg)
	s.bySession[msg.SessionID] = append(s.bySession[msg.SessionID], len(s.data.Messages)-1)
	sess.LastMessageAt = msg.Timestamp
	sess.MessageCount++

	s.persist()
	return nil
}

// GetMessage retrieves a message by id
func (s *Store) GetMessage(ctx context.Context, id models.MessageID) (*models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.data.Messages {
		if s.data.Messages[i].ID == id {
			msg := s.data.Messages[i]
			return &msg, nil
		}
	}
	return nil, goerr.Wrap(models.ErrNotFound, "message", goerr.V("message_id", id))
}

// MessagesBySession returns a session's messages in timestamp order
func (s *Store) MessagesBySession(ctx context.Context, sessionID models.SessionID) ([]models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.data.Sessions[sessionID]; !ok {
		return nil, goerr.Wrap(models.ErrNotFound, "session", goerr.V("session_id", sessionID))
	}

	indices := s.bySession[sessionID]
	messages := make([]models.Message, 0, len(indices))
	for _, i := range indices {
		messages = append(messages, s.data.Messages[i])
	}
	sort.SliceStable(messages, func(a, b int) bool {
		return messages[a].Timestamp.Before(messages[b].Timestamp)
	})
	return messages, nil
}

// CreateSession stores a new session
func (s *Store) CreateSession(ctx context.Context, sess *models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data.Sessions[sess.ID]; exists {
		return fmt.Errorf("session %s already exists", sess.ID)
	}
	copied := *sess
	s.data.Sessions[sess.ID] = &copied
	s.persist()
	return nil
}

// GetSession retrieves a session by id
func (s *Store) GetSession(ctx context.Context, id models.SessionID) (*models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.data.Sessions[id]
	if !ok {
		return nil, goerr.Wrap(models.ErrNotFound, "session", goerr.V("session_id", id))
	}
	copied := *sess
	return &copied, nil
}

// ListSessions returns all sessions, most recently active first
func (s *Store) ListSessions(ctx context.Context) ([]models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sessions := make([]models.Session, 0, len(s.data.Sessions))
	for _, sess := range s.data.Sessions {
		sessions = append(sessions, *sess)
	}
	sort.Slice(sessions, func(a, b int) bool {
		at, bt := sessions[a].LastMessageAt, sessions[b].LastMessageAt
		if at.IsZero() {
			at = sessions[a].CreatedAt
		}
		if bt.IsZero() {
			bt = sessions[b].CreatedAt
		}
		return at.After(bt)
	})
	return sessions, nil
}

// UpdateSession replaces a session's mutable fields
func (s *Store) UpdateSession(ctx context.Context, sess *models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.data.Sessions[sess.ID]
	if !ok {
		return goerr.Wrap(models.ErrNotFound, "session", goerr.V("session_id", sess.ID))
	}
	existing.Title = sess.Title
	existing.LastMessageAt = sess.LastMessageAt
	existing.MessageCount = sess.MessageCount
	s.persist()
	return nil
}

// DeleteSessionCascade removes a session, its messages, and its context.
// Missing sessions are a no-op.
func (s *Store) DeleteSessionCascade(ctx context.Context, id models.SessionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.data.Sessions[id]; !ok {
		return nil
	}

	delete(s.data.Sessions, id)
	delete(s.data.Contexts, id)

	kept := s.data.Messages[:0]
	for _, msg := range s.data.Messages {
		if msg.SessionID != id {
			kept = append(kept, msg)
		}
	}
	s.data.Messages = kept
	s.rebuildIndex()

	if s.data.CurrentSession == id {
		s.data.CurrentSession = ""
	}

	s.persist()
	return nil
}

// AddFact stores a fact
func (s *Store) AddFact(ctx context.Context, fact *models.Fact) error {
	if err := fact.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if fact.ID == "" {
		fact.ID = models.NewFactID()
	}
	if fact.CreatedAt.IsZero() {
		fact.CreatedAt = time.Now()
	}
	s.data.Facts = append(s.data.Facts, *fact)
	s.persist()
	return nil
}

// GetFact retrieves a fact by id
func (s *Store) GetFact(ctx context.Context, id models.FactID) (*models.Fact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.data.Facts {
		if s.data.Facts[i].ID == id {
			fact := s.data.Facts[i]
			return &fact, nil
		}
	}
	return nil, goerr.Wrap(models.ErrNotFound, "fact", goerr.V("fact_id", id))
}

// ListFacts returns all facts ordered by creation time ascending
func (s *Store) ListFacts(ctx context.Context) ([]models.Fact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	facts := make([]models.Fact, len(s.data.Facts))
	copy(facts, s.data.Facts)
	sort.SliceStable(facts, func(a, b int) bool {
		return facts[a].CreatedAt.Before(facts[b].CreatedAt)
	})
	return facts, nil
}

// DeleteFact removes a fact by id; missing facts are a no-op
func (s *Store) DeleteFact(ctx context.Context, id models.FactID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.data.Facts[:0]
	for _, fact := range s.data.Facts {
		if fact.ID != id {
			kept = append(kept, fact)
		}
	}
	s.data.Facts = kept
	s.persist()
	return nil
}

// ClearFacts removes all facts
func (s *Store) ClearFacts(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data.Facts = nil
	s.persist()
	return nil
}

// SaveContext upserts a session's conversation context
func (s *Store) SaveContext(ctx context.Context, convCtx *models.Context) error {
	if convCtx.SessionID == "" {
		return fmt.Errorf("context session id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	convCtx.UpdatedAt = time.Now()
	copied := *convCtx
	s.data.Contexts[convCtx.SessionID] = &copied
	s.persist()
	return nil
}

// LoadContext rehydrates a session's conversation context
func (s *Store) LoadContext(ctx context.Context, sessionID models.SessionID) (*models.Context, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	convCtx, ok := s.data.Contexts[sessionID]
	if !ok {
		return nil, goerr.Wrap(models.ErrNotFound, "context", goerr.V("session_id", sessionID))
	}
	copied := *convCtx
	return &copied, nil
}

// DeleteContext removes a session's conversation context
func (s *Store) DeleteContext(ctx context.Context, sessionID models.SessionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.data.Contexts, sessionID)
	s.persist()
	return nil
}

// CurrentSession returns the current-session pointer, or "" if none
func (s *Store) CurrentSession(ctx context.Context) (models.SessionID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.CurrentSession, nil
}

// SetCurrentSession stores the current-session pointer
func (s *Store) SetCurrentSession(ctx context.Context, id models.SessionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.CurrentSession = id
	s.persist()
	return nil
}

// ClearCurrentSession removes the current-session pointer
func (s *Store) ClearCurrentSession(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.CurrentSession = ""
	s.persist()
	return nil
}
