// ABOUTME: Sentinel errors shared across storage engines and callers
// ABOUTME: Checked with errors.Is; goerr carries structured context values
package models

import "github.com/m-mizutani/goerr/v2"

var (
	// ErrNotFound is returned when a requested entity does not exist.
	// Loading a foreign or deleted session id is an expected occurrence,
	// so callers branch on this rather than treating it as a bug.
	ErrNotFound = goerr.New("not found")

	// ErrMigrationFailed means the store cannot be safely interpreted.
	// It is fatal for that store instance; no fallback applies.
	ErrMigrationFailed = goerr.New("schema migration failed")
)
