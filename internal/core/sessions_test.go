// ABOUTME: Tests for the session manager lifecycle and current pointer
// ABOUTME: Covers continue-or-create idempotence and title assignment
package core

import (
	"context"
	"errors"
	"testing"

	"github.com/pensive-labs/converse/internal/models"
)

func TestContinueOrCreate_Idempotent(t *testing.T) {
	ctx := context.Background()
	mgr := NewSessionManager(testStore(t))

	first, err := mgr.ContinueOrCreate(ctx)
	if err != nil {
		t.Fatalf("ContinueOrCreate() error = %v", err)
	}
	second, err := mgr.ContinueOrCreate(ctx)
	if err != nil {
		t.Fatalf("ContinueOrCreate() error = %v", err)
	}
	if first.ID != second.ID {
		t.Errorf("ContinueOrCreate() returned different sessions: %s vs %s", first.ID, second.ID)
	}
}

func TestContinueOrCreate_DanglingPointer(t *testing.T) {
	ctx := context.Background()
	store := testStore(t)
	mgr := NewSessionManager(store)

	first, err := mgr.ContinueOrCreate(ctx)
	if err != nil {
		t.Fatalf("ContinueOrCreate() error = %v", err)
	}
	if err := store.DeleteSessionCascade(ctx, first.ID); err != nil {
		t.Fatalf("DeleteSessionCascade() error = %v", err)
	}
	// Cascade clears the pointer; simulate a dangling one explicitly
	if err := store.SetCurrentSession(ctx, first.ID); err != nil {
		t.Fatalf("SetCurrentSession() error = %v", err)
	}

	second, err := mgr.ContinueOrCreate(ctx)
	if err != nil {
		t.Fatalf("ContinueOrCreate() error = %v", err)
	}
	if second.ID == first.ID {
		t.Error("ContinueOrCreate() resurrected a deleted session")
	}
}

func TestSwitchToNew_KeepsOldSession(t *testing.T) {
	ctx := context.Background()
	mgr := NewSessionManager(testStore(t))

	old, err := mgr.ContinueOrCreate(ctx)
	if err != nil {
		t.Fatalf("ContinueOrCreate() error = %v", err)
	}
	fresh, err := mgr.SwitchToNew(ctx)
	if err != nil {
		t.Fatalf("SwitchToNew() error = %v", err)
	}
	if fresh.ID == old.ID {
		t.Fatal("SwitchToNew() returned the old session")
	}

	current, err := mgr.Current(ctx)
	if err != nil {
		t.Fatalf("Current() error = %v", err)
	}
	if current.ID != fresh.ID {
		t.Errorf("Current() = %s, want %s", current.ID, fresh.ID)
	}

	sessions, err := mgr.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(sessions) != 2 {
		t.Errorf("List() returned %d sessions, want 2", len(sessions))
	}
}

func TestSetCurrent_UnknownSession(t *testing.T) {
	ctx := context.Background()
	mgr := NewSessionManager(testStore(t))

	err := mgr.SetCurrent(ctx, models.SessionID("sess_missing"))
	if !errors.Is(err, models.ErrNotFound) {
		t.Errorf("SetCurrent() error = %v, want ErrNotFound", err)
	}
}

func TestCurrent_NoPointer(t *testing.T) {
	ctx := context.Background()
	mgr := NewSessionManager(testStore(t))

	_, err := mgr.Current(ctx)
	if !errors.Is(err, models.ErrNotFound) {
		t.Errorf("Current() error = %v, want ErrNotFound", err)
	}
}

func TestMaybeAssignTitle(t *testing.T) {
	ctx := context.Background()
	store := testStore(t)
	mgr := NewSessionManager(store)

	sess, err := mgr.ContinueOrCreate(ctx)
	if err != nil {
		t.Fatalf("ContinueOrCreate() error = %v", err)
	}

	append := func(content string) {
		t.Helper()
		msg := &models.Message{SessionID: sess.ID, Role: models.RoleUser, Content: content}
		if err := store.AppendMessage(ctx, msg); err != nil {
			t.Fatalf("AppendMessage() error = %v", err)
		}
		if err := mgr.MaybeAssignTitle(ctx, sess.ID, content); err != nil {
			t.Fatalf("MaybeAssignTitle() error = %v", err)
		}
	}

	append("What should I cook for dinner tonight?")
	got, err := store.GetSession(ctx, sess.ID)
	if err != nil {
		t.Fatalf("GetSession() error = %v", err)
	}
	if got.Title != "What should I cook for dinner tonight?" {
		t.Errorf("Title = %q, want first message content", got.Title)
	}

	// Later messages never retitle
	append("Actually, let's talk about the weather")
	got, err = store.GetSession(ctx, sess.ID)
	if err != nil {
		t.Fatalf("GetSession() error = %v", err)
	}
	if got.Title != "What should I cook for dinner tonight?" {
		t.Errorf("Title changed on second message: %q", got.Title)
	}
}

func TestMaybeAssignTitle_TruncatesLongContent(t *testing.T) {
	ctx := context.Background()
	store := testStore(t)
	mgr := NewSessionManager(store)

	sess, err := mgr.ContinueOrCreate(ctx)
	if err != nil {
		t.Fatalf("ContinueOrCreate() error = %v", err)
	}

	long := "I have been wondering for a very long time about the best way to prepare a traditional italian carbonara at home"
	msg := &models.Message{SessionID: sess.ID, Role: models.RoleUser, Content: long}
	if err := store.AppendMessage(ctx, msg); err != nil {
		t.Fatalf("AppendMessage() error = %v", err)
	}
	if err := mgr.MaybeAssignTitle(ctx, sess.ID, long); err != nil {
		t.Fatalf("MaybeAssignTitle() error = %v", err)
	}

	got, err := store.GetSession(ctx, sess.ID)
	if err != nil {
		t.Fatalf("GetSession() error = %v", err)
	}
	if len([]rune(got.Title)) > models.TitleMaxRunes {
		t.Errorf("Title length = %d runes, want <= %d", len([]rune(got.Title)), models.TitleMaxRunes)
	}
}
