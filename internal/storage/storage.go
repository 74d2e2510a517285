// ABOUTME: Store interface and engine selection for the memory subsystem
// ABOUTME: Prefers sqlite, falls back to the degraded in-memory engine
package storage

import (
	"context"
	"errors"
	"log/slog"

	"github.com/pensive-labs/converse/internal/config"
	"github.com/pensive-labs/converse/internal/models"
	"github.com/pensive-labs/converse/internal/storage/memstore"
	"github.com/pensive-labs/converse/internal/storage/sqlite"
)

// Engine identifies which storage backend is serving requests
type Engine string

const (
	EngineSQLite Engine = "sqlite"
	EngineMemory Engine = "memory"
)

// Store is the persistence contract shared by all engines.
//
// Messages are append-only; Session and Fact support in-place updates.
// All calls may block on I/O and accept a context. Per-session mutations
// are expected to be serialized by the caller (one active turn per session);
// different sessions are independent.
type Store interface {
	// Messages
	AppendMessage(ctx context.Context, msg *models.Message) error
	GetMessage(ctx context.Context, id models.MessageID) (*models.Message, error)
	MessagesBySession(ctx context.Context, sessionID models.SessionID) ([]models.Message, error)

	// Sessions
	CreateSession(ctx context.Context, sess *models.Session) error
	GetSession(ctx context.Context, id models.SessionID) (*models.Session, error)
	ListSessions(ctx context.Context) ([]models.Session, error)
	UpdateSession(ctx context.Context, sess *models.Session) error
	DeleteSessionCascade(ctx context.Context, id models.SessionID) error

	// Facts
	AddFact(ctx context.Context, fact *models.Fact) error
	GetFact(ctx context.Context, id models.FactID) (*models.Fact, error)
	ListFacts(ctx context.Context) ([]models.Fact, error)
	DeleteFact(ctx context.Context, id models.FactID) error
	ClearFacts(ctx context.Context) error

	// Per-session conversation contexts
	SaveContext(ctx context.Context, convCtx *models.Context) error
	LoadContext(ctx context.Context, sessionID models.SessionID) (*models.Context, error)
	DeleteContext(ctx context.Context, sessionID models.SessionID) error

	// Current-session pointer
	CurrentSession(ctx context.Context) (models.SessionID, error)
	SetCurrentSession(ctx context.Context, id models.SessionID) error
	ClearCurrentSession(ctx context.Context) error

	Close() error
}

// OpenResult carries the selected store plus which engine is behind it,
// so callers can surface a non-fatal degraded-mode notice.
type OpenResult struct {
	Store  Store
	Engine Engine
}

// Open opens the primary sqlite store. If the engine cannot be opened the
// degraded in-memory store with a flat-file backup takes over, with a single
// warning. A schema migration failure is fatal and never falls back: the
// subsystem refuses to operate on a store it cannot safely interpret.
func Open(cfg *config.Config, logger *slog.Logger) (*OpenResult, error) {
	db, err := sqlite.Open(cfg.DBPath(), logger)
	if err == nil {
		return &OpenResult{Store: db, Engine: EngineSQLite}, nil
	}
	if errors.Is(err, models.ErrMigrationFailed) {
		return nil, err
	}

	logger.Warn("primary storage unavailable, using in-memory store with flat-file backup",
		"error", err, "backup", cfg.BackupPath())

	mem, memErr := memstore.Open(cfg.BackupPath(), logger)
	if memErr != nil {
		return nil, memErr
	}
	return &OpenResult{Store: mem, Engine: EngineMemory}, nil
}
