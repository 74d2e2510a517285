// ABOUTME: SQLite store connection and lifecycle management
// ABOUTME: Uses modernc.org/sqlite for pure-Go SQLite support
package sqlite

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// Store is the sqlite-backed persistence engine
type Store struct {
	db     *sql.DB
	path   string
	logger *slog.Logger

	// set at open time by probing sqlite_master; when false the
	// per-session message query path scans and filters in Go
	hasSessionIndex bool
	scanWarn        sync.Once

	// serializes timestamp minting so messages stay totally ordered
	// even when the clock does not advance between appends
	tsMu   sync.Mutex
	lastTS time.Time
}

// Open opens or creates a sqlite store at the given path and brings the
// schema up to the current version.
func Open(path string, logger *slog.Logger) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	conn, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &Store{
		db:     conn,
		path:   path,
		logger: logger,
	}

	if err := s.migrate(); err != nil {
		_ = conn.Close()
		return nil, err
	}

	s.hasSessionIndex = s.indexExists("idx_messages_session")

	return s, nil
}

// OpenInMemory creates an in-memory sqlite store (for testing)
func OpenInMemory(logger *slog.Logger) (*Store, error) {
	conn, err := sql.Open("sqlite", ":memory:?_pragma=foreign_keys(ON)")
	if err != nil {
		return nil, fmt.Errorf("failed to open in-memory database: %w", err)
	}
	// each pooled connection would otherwise see its own empty database
	conn.SetMaxOpenConns(1)

	s := &Store{
		db:     conn,
		path:   ":memory:",
		logger: logger,
	}

	if err := s.migrate(); err != nil {
		_ = conn.Close()
		return nil, err
	}

	s.hasSessionIndex = s.indexExists("idx_messages_session")

	return s, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// nextTimestamp mints a message timestamp that is strictly after every
// timestamp this store instance has handed out before
func (s *Store) nextTimestamp() time.Time {
	s.tsMu.Lock()
	defer s.tsMu.Unlock()

	ts := time.Now()
	if !ts.After(s.lastTS) {
		ts = s.lastTS.Add(time.Microsecond)
	}
	s.lastTS = ts
	return ts
}

func (s *Store) indexExists(name string) bool {
	var found string
	err := s.db.QueryRow(
		`SELECT name FROM sqlite_master WHERE type = 'index' AND name = ?`, name,
	).Scan(&found)
	return err == nil
}

func (s *Store) warnFullScan() {
	s.scanWarn.Do(func() {
		s.logger.Warn("message session index missing, falling back to full scans",
			"index", "idx_messages_session")
	})
}
