// ABOUTME: Versioned schema and ordered forward-only migrations
// ABOUTME: Each step is idempotent and applied in its own transaction
package sqlite

import (
	"database/sql"
	"fmt"

	"github.com/m-mizutani/goerr/v2"

	"github.com/pensive-labs/converse/internal/models"
)

// SchemaVersion is the schema version this build expects
const SchemaVersion = 3

// migrationStep upgrades the schema to exactly one version
type migrationStep struct {
	Version int
	Name    string
	Apply   func(tx *sql.Tx) error
}

// migrations run in order from the stored version to SchemaVersion.
// Steps only add tables, columns, and indexes; existing rows are preserved.
var migrations = []migrationStep{
	{
		Version: 1,
		Name:    "base tables",
		Apply: func(tx *sql.Tx) error {
			_, err := tx.Exec(`
				CREATE TABLE IF NOT EXISTS sessions (
					id TEXT PRIMARY KEY,
					title TEXT NOT NULL,
					created_at TIMESTAMP NOT NULL,
					last_message_at TIMESTAMP,
					message_count INTEGER NOT NULL DEFAULT 0
				);

				CREATE TABLE IF NOT EXISTS messages (
					id TEXT PRIMARY KEY,
					session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
					role TEXT NOT NULL,
					content TEXT NOT NULL,
					created_at TIMESTAMP NOT NULL
				);

				CREATE TABLE IF NOT EXISTS facts (
					id TEXT PRIMARY KEY,
					content TEXT NOT NULL,
					category TEXT NOT NULL DEFAULT 'other',
					confidence REAL NOT NULL DEFAULT 1.0,
					created_at TIMESTAMP NOT NULL
				);

				CREATE TABLE IF NOT EXISTS contexts (
					session_id TEXT PRIMARY KEY REFERENCES sessions(id) ON DELETE CASCADE,
					data TEXT NOT NULL,
					updated_at TIMESTAMP NOT NULL
				);

				CREATE TABLE IF NOT EXISTS settings (
					key TEXT PRIMARY KEY,
					value TEXT NOT NULL
				);
			`)
			return err
		},
	},
	{
		Version: 2,
		Name:    "query indexes",
		Apply: func(tx *sql.Tx) error {
			_, err := tx.Exec(`
				CREATE INDEX IF NOT EXISTS idx_messages_session ON messages(session_id);
				CREATE INDEX IF NOT EXISTS idx_sessions_last_message ON sessions(last_message_at);
				CREATE INDEX IF NOT EXISTS idx_facts_created ON facts(created_at);
			`)
			return err
		},
	},
	{
		Version: 3,
		Name:    "message metadata",
		Apply: func(tx *sql.Tx) error {
			exists, err := columnExists(tx, "messages", "metadata")
			if err != nil {
				return err
			}
			if exists {
				return nil
			}
			_, err = tx.Exec(`ALTER TABLE messages ADD COLUMN metadata TEXT`)
			return err
		},
	},
}

// migrate brings the store to SchemaVersion. Any failure here is fatal for
// the store instance: a half-understood schema risks data corruption.
func (s *Store) migrate() error {
	if _, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER NOT NULL
		)
	`); err != nil {
		return goerr.Wrap(models.ErrMigrationFailed, "creating version table", goerr.V("cause", err.Error()))
	}

	current, err := s.storedVersion()
	if err != nil {
		return goerr.Wrap(models.ErrMigrationFailed, "reading stored version", goerr.V("cause", err.Error()))
	}

	if current > SchemaVersion {
		return goerr.Wrap(models.ErrMigrationFailed, "store is newer than this build",
			goerr.V("stored", current), goerr.V("expected", SchemaVersion))
	}

	for _, step := range migrations {
		if step.Version <= current {
			continue
		}
		if err := s.applyStep(step); err != nil {
			return goerr.Wrap(models.ErrMigrationFailed, "applying migration",
				goerr.V("version", step.Version), goerr.V("name", step.Name), goerr.V("cause", err.Error()))
		}
	}

	return nil
}

func (s *Store) applyStep(step migrationStep) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if err := step.Apply(tx); err != nil {
		return err
	}

	if _, err := tx.Exec(`DELETE FROM schema_version`); err != nil {
		return err
	}
	if _, err := tx.Exec(`INSERT INTO schema_version (version) VALUES (?)`, step.Version); err != nil {
		return err
	}

	return tx.Commit()
}

func (s *Store) storedVersion() (int, error) {
	var version int
	err := s.db.QueryRow(`SELECT version FROM schema_version`).Scan(&version)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	return version, err
}

func columnExists(tx *sql.Tx, table, column string) (bool, error) {
	rows, err := tx.Query(fmt.Sprintf(`PRAGMA table_info(%s)`, table))
	if err != nil {
		return false, err
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var (
			cid       int
			name, typ string
			notnull   int
			dfltValue sql.NullString
			pk        int
		)
		if err := rows.Scan(&cid, &name, &typ, &notnull, &dfltValue, &pk); err != nil {
			return false, err
		}
		if name == column {
			return true, nil
		}
	}
	return false, rows.Err()
}
