// ABOUTME: Tests for the degraded in-memory engine and its flat-file backup
// ABOUTME: Verifies the same contract as the sqlite engine plus backup reload

package memstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/pensive-labs/converse/internal/logging"
	"github.com/pensive-labs/converse/internal/models"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open("", logging.New("error", io.Discard))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	return s
}

func TestAppendMessage_OrderingAndCounters(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	sess := models.NewSession()
	if err := s.CreateSession(ctx, sess); err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}

	for i := 0; i < 4; i++ {
		msg := &models.Message{SessionID: sess.ID, Role: models.RoleUser, Content: fmt.Sprintf("m%d", i)}
		if err := s.AppendMessage(ctx, msg); err != nil {
			t.Fatalf("AppendMessage(%d) error = %v", i, err)
		}
	}

	messages, err := s.MessagesBySession(ctx, sess.ID)
	if err != nil {
		t.Fatalf("MessagesBySession() error = %v", err)
	}
	if len(messages) != 4 {
		t.Fatalf("got %d messages, want 4", len(messages))
	}
	for i := 1; i < len(messages); i++ {
		if messages[i].Timestamp.Before(messages[i-1].Timestamp) {
			t.Errorf("messages out of order at %d", i)
		}
	}

	got, err := s.GetSession(ctx, sess.ID)
	if err != nil {
		t.Fatalf("GetSession() error = %v", err)
	}
	if got.MessageCount != 4 {
		t.Errorf("MessageCount = %d, want 4", got.MessageCount)
	}
}

func TestAppendMessage_UnknownSession(t *testing.T) {
	s := testStore(t)

	msg := &models.Message{SessionID: "sess_ghost", Role: models.RoleUser, Content: "hello"}
	if err := s.AppendMessage(context.Background(), msg); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("AppendMessage() error = %v, want ErrNotFound", err)
	}
}

func TestDeleteSessionCascade_KeepsFacts(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	sess := models.NewSession()
	if err := s.CreateSession(ctx, sess); err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}
	if err := s.AppendMessage(ctx, &models.Message{SessionID: sess.ID, Role: models.RoleUser, Content: "x"}); err != nil {
		t.Fatalf("AppendMessage() error = %v", err)
	}
	if err := s.SaveContext(ctx, models.NewContext(sess.ID)); err != nil {
		t.Fatalf("SaveContext() error = %v", err)
	}
	if err := s.AddFact(ctx, &models.Fact{Content: "vegetarian", Category: models.FactPreference, Confidence: 1}); err != nil {
		t.Fatalf("AddFact() error = %v", err)
	}
	if err := s.SetCurrentSession(ctx, sess.ID); err != nil {
		t.Fatalf("SetCurrentSession() error = %v", err)
	}

	if err := s.DeleteSessionCascade(ctx, sess.ID); err != nil {
		t.Fatalf("DeleteSessionCascade() error = %v", err)
	}
	if err := s.DeleteSessionCascade(ctx, sess.ID); err != nil {
		t.Errorf("second DeleteSessionCascade() error = %v, want nil", err)
	}

	if _, err := s.GetSession(ctx, sess.ID); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("GetSession() after cascade error = %v, want ErrNotFound", err)
	}
	if current, _ := s.CurrentSession(ctx); current != "" {
		t.Errorf("CurrentSession() = %q after cascade, want empty", current)
	}
	facts, _ := s.ListFacts(ctx)
	if len(facts) != 1 {
		t.Errorf("facts after cascade = %d, want 1", len(facts))
	}
}

func TestBackupFile_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "backup.json")
	logger := logging.New("error", io.Discard)

	s, err := Open(path, logger)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	ctx := context.Background()

	sess := models.NewSession()
	if err := s.CreateSession(ctx, sess); err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}
	if err := s.AppendMessage(ctx, &models.Message{SessionID: sess.ID, Role: models.RoleUser, Content: "remember me"}); err != nil {
		t.Fatalf("AppendMessage() error = %v", err)
	}
	if err := s.SetCurrentSession(ctx, sess.ID); err != nil {
		t.Fatalf("SetCurrentSession() error = %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	s2, err := Open(path, logger)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}

	messages, err := s2.MessagesBySession(ctx, sess.ID)
	if err != nil {
		t.Fatalf("MessagesBySession() after reload error = %v", err)
	}
	if len(messages) != 1 || messages[0].Content != "remember me" {
		t.Errorf("messages after reload = %+v, want the persisted message", messages)
	}
	current, _ := s2.CurrentSession(ctx)
	if current != sess.ID {
		t.Errorf("CurrentSession() after reload = %q, want %q", current, sess.ID)
	}
}

func TestBackupFile_NewerVersionRefused(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "backup.json")
	if err := os.WriteFile(path, []byte(`{"version": 99}`), 0644); err != nil {
		t.Fatalf("writing backup error = %v", err)
	}

	_, err := Open(path, logging.New("error", io.Discard))
	if !errors.Is(err, models.ErrMigrationFailed) {
		t.Errorf("Open() on newer backup error = %v, want ErrMigrationFailed", err)
	}
}

func TestBackupFile_CorruptFileStartsEmpty(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "backup.json")
	if err := os.WriteFile(path, []byte("not json{"), 0644); err != nil {
		t.Fatalf("writing backup error = %v", err)
	}

	s, err := Open(path, logging.New("error", io.Discard))
	if err != nil {
		t.Fatalf("Open() on corrupt backup error = %v, want fresh store", err)
	}
	sessions, err := s.ListSessions(context.Background())
	if err != nil {
		t.Fatalf("ListSessions() error = %v", err)
	}
	if len(sessions) != 0 {
		t.Errorf("fresh store has %d sessions, want 0", len(sessions))
	}
}
