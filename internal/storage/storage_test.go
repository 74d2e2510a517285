// ABOUTME: Tests for engine selection and degraded-mode fallback
// ABOUTME: Verifies sqlite preference and the in-memory takeover path

package storage

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pensive-labs/converse/internal/config"
	"github.com/pensive-labs/converse/internal/logging"
	"github.com/pensive-labs/converse/internal/models"
)

func TestOpen_PrefersSQLite(t *testing.T) {
	cfg := &config.Config{DataDir: t.TempDir()}
	logger := logging.New("error", os.Stderr)

	result, err := Open(cfg, logger)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer func() { _ = result.Store.Close() }()

	if result.Engine != EngineSQLite {
		t.Errorf("Engine = %q, want %q", result.Engine, EngineSQLite)
	}
}

func TestOpen_FallsBackToMemoryWithWarning(t *testing.T) {
	// Make the data directory path unusable by placing a file where the
	// directory should be
	dir := t.TempDir()
	blocked := filepath.Join(dir, "blocked")
	if err := os.WriteFile(blocked, []byte("x"), 0644); err != nil {
		t.Fatalf("writing blocker file error = %v", err)
	}

	cfg := &config.Config{DataDir: filepath.Join(blocked, "nested")}
	var logBuf bytes.Buffer
	logger := logging.New("warn", &logBuf)

	result, err := Open(cfg, logger)
	if err != nil {
		t.Fatalf("Open() error = %v, want degraded fallback", err)
	}
	defer func() { _ = result.Store.Close() }()

	if result.Engine != EngineMemory {
		t.Fatalf("Engine = %q, want %q", result.Engine, EngineMemory)
	}
	if !strings.Contains(logBuf.String(), "primary storage unavailable") {
		t.Error("fallback warning missing from log output")
	}

	// The degraded store still honors the contract
	ctx := context.Background()
	sess := models.NewSession()
	if err := result.Store.CreateSession(ctx, sess); err != nil {
		t.Fatalf("CreateSession() on degraded store error = %v", err)
	}
	if err := result.Store.AppendMessage(ctx, &models.Message{
		SessionID: sess.ID, Role: models.RoleUser, Content: "still works",
	}); err != nil {
		t.Fatalf("AppendMessage() on degraded store error = %v", err)
	}
}
