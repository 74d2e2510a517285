// ABOUTME: Tests for the topic tracker state machine
// ABOUTME: Covers change detection, reset phrases, eviction and rehydration
package core

import (
	"context"
	"strings"
	"testing"

	"github.com/pensive-labs/converse/internal/classify"
	"github.com/pensive-labs/converse/internal/models"
)

// scriptedBackend returns queued (label, score) pairs in order, repeating
// the last entry once exhausted
type scriptedBackend struct {
	script []scriptedResult
	calls  int
}

type scriptedResult struct {
	label string
	score float64
}

func (b *scriptedBackend) Classify(ctx context.Context, text string, labels []string) (string, float64, error) {
	idx := b.calls
	if idx >= len(b.script) {
		idx = len(b.script) - 1
	}
	b.calls++
	r := b.script[idx]
	return r.label, r.score, nil
}

func newTestTracker(t *testing.T, script ...scriptedResult) (*Tracker, models.SessionID) {
	t.Helper()
	store := testStore(t)
	sess, err := NewSessionManager(store).ContinueOrCreate(context.Background())
	if err != nil {
		t.Fatalf("ContinueOrCreate() error = %v", err)
	}
	adapter := classify.NewAdapter(&scriptedBackend{script: script}, 0)
	return NewTracker(store, adapter), sess.ID
}

func TestObserveTurn_FirstTurnStartsTopic(t *testing.T) {
	ctx := context.Background()
	tracker, sid := newTestTracker(t, scriptedResult{"weather", 0.9})

	update, err := tracker.ObserveTurn(ctx, sid, "Will it rain tomorrow?")
	if err != nil {
		t.Fatalf("ObserveTurn() error = %v", err)
	}
	if !update.TopicChanged {
		t.Error("first turn TopicChanged = false, want true")
	}
	if update.CurrentLabel != "weather" {
		t.Errorf("CurrentLabel = %q, want weather", update.CurrentLabel)
	}
	if update.Hint != "" {
		t.Errorf("first turn Hint = %q, want empty", update.Hint)
	}
}

func TestObserveTurn_SameLabelMerges(t *testing.T) {
	ctx := context.Background()
	tracker, sid := newTestTracker(t, scriptedResult{"weather", 0.9})

	turns := []string{
		"Will it rain tomorrow?",
		"Should I bring an umbrella?",
		"What about the weekend forecast?",
	}
	changes := 0
	for _, text := range turns {
		update, err := tracker.ObserveTurn(ctx, sid, text)
		if err != nil {
			t.Fatalf("ObserveTurn(%q) error = %v", text, err)
		}
		if update.TopicChanged {
			changes++
		}
	}
	if changes != 1 {
		t.Errorf("same-label sequence produced %d changes, want 1 (the first turn)", changes)
	}

	label, err := tracker.CurrentLabel(ctx, sid)
	if err != nil {
		t.Fatalf("CurrentLabel() error = %v", err)
	}
	if label != "weather" {
		t.Errorf("CurrentLabel() = %q, want weather", label)
	}
}

func TestObserveTurn_ConfidentChangeFiresOnce(t *testing.T) {
	ctx := context.Background()
	tracker, sid := newTestTracker(t,
		scriptedResult{"weather", 0.9},
		scriptedResult{"weather", 0.9},
		scriptedResult{"weather", 0.9},
		scriptedResult{"cooking", 0.8},
	)

	var updates []*TurnUpdate
	for _, text := range []string{
		"Will it rain tomorrow?",
		"Bring an umbrella?",
		"Weekend forecast?",
		"What should I cook for dinner?",
	} {
		update, err := tracker.ObserveTurn(ctx, sid, text)
		if err != nil {
			t.Fatalf("ObserveTurn(%q) error = %v", text, err)
		}
		updates = append(updates, update)
	}

	last := updates[len(updates)-1]
	if !last.TopicChanged {
		t.Error("change to cooking not detected")
	}
	if last.CurrentLabel != "cooking" {
		t.Errorf("CurrentLabel = %q, want cooking", last.CurrentLabel)
	}
	if last.Hint == "" {
		t.Error("label-to-label change produced no hint")
	}
	if !strings.Contains(last.Hint, "weather") || !strings.Contains(last.Hint, "cooking") {
		t.Errorf("Hint = %q, want both labels mentioned", last.Hint)
	}
	if !strings.Contains(last.Summary, "weather") {
		t.Errorf("Summary = %q, want the previous topic in recents", last.Summary)
	}

	// Middle turns must not re-fire
	for i := 1; i < len(updates)-1; i++ {
		if updates[i].TopicChanged {
			t.Errorf("turn %d reported a change on the same label", i)
		}
	}
}

func TestObserveTurn_UncertainLabelMergesIntoCurrent(t *testing.T) {
	ctx := context.Background()
	tracker, sid := newTestTracker(t,
		scriptedResult{"weather", 0.9},
		scriptedResult{"cooking", 0.3},
	)

	if _, err := tracker.ObserveTurn(ctx, sid, "Will it rain tomorrow?"); err != nil {
		t.Fatalf("ObserveTurn() error = %v", err)
	}
	update, err := tracker.ObserveTurn(ctx, sid, "Hmm, maybe something else")
	if err != nil {
		t.Fatalf("ObserveTurn() error = %v", err)
	}
	if update.TopicChanged {
		t.Error("uncertain classification asserted a topic change")
	}
	if update.CurrentLabel != "weather" {
		t.Errorf("CurrentLabel = %q, want weather kept", update.CurrentLabel)
	}
}

func TestObserveTurn_UncertainFirstTurnIsGeneral(t *testing.T) {
	ctx := context.Background()
	tracker, sid := newTestTracker(t, scriptedResult{"weather", 0.2})

	update, err := tracker.ObserveTurn(ctx, sid, "hello there")
	if err != nil {
		t.Fatalf("ObserveTurn() error = %v", err)
	}
	if update.CurrentLabel != classify.GeneralLabel {
		t.Errorf("CurrentLabel = %q, want %q for an uncertain first turn", update.CurrentLabel, classify.GeneralLabel)
	}
}

func TestObserveTurn_ResetPhrase(t *testing.T) {
	ctx := context.Background()
	tracker, sid := newTestTracker(t,
		scriptedResult{"weather", 0.9},
		scriptedResult{"cooking", 0.8},
	)

	if _, err := tracker.ObserveTurn(ctx, sid, "Will it rain tomorrow?"); err != nil {
		t.Fatalf("ObserveTurn() error = %v", err)
	}
	update, err := tracker.ObserveTurn(ctx, sid, "Let's Change The Subject please")
	if err != nil {
		t.Fatalf("ObserveTurn() error = %v", err)
	}
	if !update.Reset {
		t.Error("reset phrase not detected")
	}
	if update.CurrentLabel != "" {
		t.Errorf("CurrentLabel after reset = %q, want empty", update.CurrentLabel)
	}
	if !strings.Contains(update.Summary, "weather") {
		t.Errorf("Summary = %q, want reset topic in recents", update.Summary)
	}

	// The next substantive turn starts a fresh topic and acknowledges
	// the shift away from the topic that was just reset
	next, err := tracker.ObserveTurn(ctx, sid, "What should I cook for dinner?")
	if err != nil {
		t.Fatalf("ObserveTurn() error = %v", err)
	}
	if !next.TopicChanged {
		t.Error("turn after reset did not start a topic")
	}
	if next.Hint == "" {
		t.Error("first topic after reset produced no hint")
	}
	if !strings.Contains(next.Hint, "weather") || !strings.Contains(next.Hint, "cooking") {
		t.Errorf("Hint = %q, want both labels mentioned", next.Hint)
	}
}

func TestObserveTurn_ResetThenSameTopicNoHint(t *testing.T) {
	ctx := context.Background()
	tracker, sid := newTestTracker(t, scriptedResult{"weather", 0.9})

	if _, err := tracker.ObserveTurn(ctx, sid, "Will it rain tomorrow?"); err != nil {
		t.Fatalf("ObserveTurn() error = %v", err)
	}
	if _, err := tracker.ObserveTurn(ctx, sid, "new topic please"); err != nil {
		t.Fatalf("ObserveTurn() error = %v", err)
	}

	// Picking the same topic back up is not a shift
	next, err := tracker.ObserveTurn(ctx, sid, "So will it rain or not?")
	if err != nil {
		t.Fatalf("ObserveTurn() error = %v", err)
	}
	if !next.TopicChanged {
		t.Error("turn after reset did not start a topic")
	}
	if next.Hint != "" {
		t.Errorf("Hint = %q, want empty for same-label pickup", next.Hint)
	}
}

func TestIsResetPhrase(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"let's talk about something else", true},
		{"NEW TOPIC please", true},
		{"can we change the subject", true},
		{"I want a different topic now", true},
		{"start over on a new topic", true},
		{"the weather is a hot topic lately", false},
		{"what's new", false},
	}
	for _, tt := range tests {
		if got := IsResetPhrase(tt.text); got != tt.want {
			t.Errorf("IsResetPhrase(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}

func TestObserveTurn_RecentTopicsCapped(t *testing.T) {
	ctx := context.Background()
	tracker, sid := newTestTracker(t,
		scriptedResult{"weather", 0.9},
		scriptedResult{"cooking", 0.9},
		scriptedResult{"travel", 0.9},
		scriptedResult{"sports", 0.9},
		scriptedResult{"finance", 0.9},
	)

	for _, text := range []string{"one", "two", "three", "four", "five"} {
		if _, err := tracker.ObserveTurn(ctx, sid, text); err != nil {
			t.Fatalf("ObserveTurn(%q) error = %v", text, err)
		}
	}

	convCtx, err := tracker.contextFor(ctx, sid)
	if err != nil {
		t.Fatalf("contextFor() error = %v", err)
	}
	if len(convCtx.RecentTopics) != models.MaxRecentTopics {
		t.Fatalf("RecentTopics length = %d, want %d", len(convCtx.RecentTopics), models.MaxRecentTopics)
	}
	// Oldest (weather) evicted, newest three retained in order
	want := []string{"cooking", "travel", "sports"}
	for i, label := range want {
		if convCtx.RecentTopics[i].Label != label {
			t.Errorf("RecentTopics[%d] = %q, want %q", i, convCtx.RecentTopics[i].Label, label)
		}
	}
}

func TestTracker_RehydratesAcrossInstances(t *testing.T) {
	ctx := context.Background()
	store := testStore(t)
	sess, err := NewSessionManager(store).ContinueOrCreate(ctx)
	if err != nil {
		t.Fatalf("ContinueOrCreate() error = %v", err)
	}

	adapter := classify.NewAdapter(&scriptedBackend{script: []scriptedResult{{"weather", 0.9}}}, 0)
	first := NewTracker(store, adapter)
	if _, err := first.ObserveTurn(ctx, sess.ID, "Will it rain tomorrow?"); err != nil {
		t.Fatalf("ObserveTurn() error = %v", err)
	}

	second := NewTracker(store, adapter)
	label, err := second.CurrentLabel(ctx, sess.ID)
	if err != nil {
		t.Fatalf("CurrentLabel() error = %v", err)
	}
	if label != "weather" {
		t.Errorf("rehydrated CurrentLabel = %q, want weather", label)
	}
}

func TestTracker_ResetProgrammatic(t *testing.T) {
	ctx := context.Background()
	tracker, sid := newTestTracker(t, scriptedResult{"weather", 0.9})

	if _, err := tracker.ObserveTurn(ctx, sid, "Will it rain tomorrow?"); err != nil {
		t.Fatalf("ObserveTurn() error = %v", err)
	}
	if err := tracker.Reset(ctx, sid); err != nil {
		t.Fatalf("Reset() error = %v", err)
	}
	label, err := tracker.CurrentLabel(ctx, sid)
	if err != nil {
		t.Fatalf("CurrentLabel() error = %v", err)
	}
	if label != "" {
		t.Errorf("CurrentLabel after Reset = %q, want empty", label)
	}
}
