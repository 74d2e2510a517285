// ABOUTME: Shared test fixtures for the core package
// ABOUTME: All core tests run against an in-memory sqlite store
package core

import (
	"io"
	"testing"

	"github.com/pensive-labs/converse/internal/logging"
	"github.com/pensive-labs/converse/internal/storage"
	"github.com/pensive-labs/converse/internal/storage/sqlite"
)

func testStore(t *testing.T) storage.Store {
	t.Helper()
	store, err := sqlite.OpenInMemory(logging.New("error", io.Discard))
	if err != nil {
		t.Fatalf("OpenInMemory() error = %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}
