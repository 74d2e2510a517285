// ABOUTME: Tracker maintains per-session topic state across turns
// ABOUTME: Detects topic changes, handles reset phrases, persists after every turn
package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/pensive-labs/converse/internal/classify"
	"github.com/pensive-labs/converse/internal/models"
	"github.com/pensive-labs/converse/internal/storage"
)

// resetPhrases trigger an explicit topic reset on case-insensitive
// substring match
var resetPhrases = []string{
	"new topic",
	"change the subject",
	"different topic",
	"talk about something else",
	"start over on a new topic",
}

// IsResetPhrase reports whether the text contains one of the reset phrases
func IsResetPhrase(text string) bool {
	lower := strings.ToLower(text)
	for _, phrase := range resetPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}

// TurnUpdate is the tracker's outcome for a single observed turn
type TurnUpdate struct {
	TopicChanged bool
	Reset        bool
	CurrentLabel string // "" when no topic is tracked
	Summary      string
	Hint         string // "" unless a change should be acknowledged
}

// Tracker is the conversation context manager. Each session moves through
// Empty -> Tracking(topic) -> Tracking(topic') on detected changes and back
// to Empty on an explicit reset. State is persisted after every turn and
// rehydrated when a session resumes.
//
// Per-session mutations are expected to be serialized by the caller;
// the internal lock only protects the cache map across sessions.
type Tracker struct {
	store   storage.Store
	adapter *classify.Adapter

	mu    sync.Mutex
	cache map[models.SessionID]*models.Context
}

// NewTracker creates a Tracker over the given store and classifier adapter
func NewTracker(store storage.Store, adapter *classify.Adapter) *Tracker {
	return &Tracker{
		store:   store,
		adapter: adapter,
		cache:   map[models.SessionID]*models.Context{},
	}
}

// contextFor returns the cached context for a session, rehydrating from the
// store or starting empty for a brand-new session
func (t *Tracker) contextFor(ctx context.Context, sessionID models.SessionID) (*models.Context, error) {
	t.mu.Lock()
	cached, ok := t.cache[sessionID]
	t.mu.Unlock()
	if ok {
		return cached, nil
	}

	loaded, err := t.store.LoadContext(ctx, sessionID)
	if errors.Is(err, models.ErrNotFound) {
		loaded = models.NewContext(sessionID)
	} else if err != nil {
		return nil, fmt.Errorf("loading conversation context: %w", err)
	}

	t.mu.Lock()
	t.cache[sessionID] = loaded
	t.mu.Unlock()
	return loaded, nil
}

// ObserveTurn updates topic state for one user turn and persists the result.
// Classification degradation is invisible here: an uncertain result simply
// never asserts a topic change.
func (t *Tracker) ObserveTurn(ctx context.Context, sessionID models.SessionID, text string) (*TurnUpdate, error) {
	convCtx, err := t.contextFor(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if IsResetPhrase(text) {
		if convCtx.CurrentTopic != nil {
			convCtx.PushRecent(*convCtx.CurrentTopic)
			convCtx.CurrentTopic = nil
		}
		if err := t.persist(ctx, convCtx); err != nil {
			return nil, err
		}
		return &TurnUpdate{
			Reset:   true,
			Summary: t.render(convCtx),
		}, nil
	}

	result := t.adapter.Classify(ctx, text)
	keywords := classify.ExtractKeywords(text)
	now := time.Now()

	update := &TurnUpdate{}

	switch {
	case convCtx.CurrentTopic == nil:
		// Empty -> Tracking
		label := result.Label
		if result.Uncertain {
			label = classify.GeneralLabel
		}
		convCtx.CurrentTopic = newTopic(label, keywords, text, result.Confidence, now)
		update.TopicChanged = true
		// After a reset the previous topic lives in the recent history;
		// the first topic picked up afterwards is still a shift worth
		// acknowledging
		if n := len(convCtx.RecentTopics); n > 0 && convCtx.RecentTopics[n-1].Label != label {
			update.Hint = transitionHint(convCtx.RecentTopics[n-1].Label, label)
		}

	case result.Label == convCtx.CurrentTopic.Label:
		convCtx.CurrentTopic.Merge(keywords, text, result.Confidence, now)

	case !result.Uncertain:
		// Tracking(topic) -> Tracking(topic')
		convCtx.PushRecent(*convCtx.CurrentTopic)
		update.Hint = transitionHint(convCtx.CurrentTopic.Label, result.Label)
		convCtx.CurrentTopic = newTopic(result.Label, keywords, text, result.Confidence, now)
		update.TopicChanged = true

	default:
		// Different label but uncertain: treat as continuation
		convCtx.CurrentTopic.Merge(keywords, text, result.Confidence, now)
	}

	if err := t.persist(ctx, convCtx); err != nil {
		return nil, err
	}

	update.CurrentLabel = convCtx.CurrentTopic.Label
	update.Summary = t.render(convCtx)
	return update, nil
}

// Reset clears the current topic programmatically, the equivalent of a
// spoken reset phrase. Recent history and Facts are untouched.
func (t *Tracker) Reset(ctx context.Context, sessionID models.SessionID) error {
	convCtx, err := t.contextFor(ctx, sessionID)
	if err != nil {
		return err
	}
	if convCtx.CurrentTopic != nil {
		convCtx.PushRecent(*convCtx.CurrentTopic)
		convCtx.CurrentTopic = nil
	}
	return t.persist(ctx, convCtx)
}

// Summary renders the current topic state for prompt injection
func (t *Tracker) Summary(ctx context.Context, sessionID models.SessionID) (string, error) {
	convCtx, err := t.contextFor(ctx, sessionID)
	if err != nil {
		return "", err
	}
	return t.render(convCtx), nil
}

// CurrentLabel returns the tracked topic label, or "" when empty
func (t *Tracker) CurrentLabel(ctx context.Context, sessionID models.SessionID) (string, error) {
	convCtx, err := t.contextFor(ctx, sessionID)
	if err != nil {
		return "", err
	}
	if convCtx.CurrentTopic == nil {
		return "", nil
	}
	return convCtx.CurrentTopic.Label, nil
}

// Invalidate drops a session's cached context, e.g. after its deletion
func (t *Tracker) Invalidate(sessionID models.SessionID) {
	t.mu.Lock()
	delete(t.cache, sessionID)
	t.mu.Unlock()
}

func (t *Tracker) persist(ctx context.Context, convCtx *models.Context) error {
	if err := t.store.SaveContext(ctx, convCtx); err != nil {
		return fmt.Errorf("persisting conversation context: %w", err)
	}
	return nil
}

func (t *Tracker) render(convCtx *models.Context) string {
	var parts []string

	if len(convCtx.RecentTopics) > 0 {
		entries := make([]string, 0, len(convCtx.RecentTopics))
		for _, topic := range convCtx.RecentTopics {
			entries = append(entries, fmt.Sprintf("%s (discussed in %d messages)", topic.Label, topic.MessageCount))
		}
		parts = append(parts, "Recently discussed: "+strings.Join(entries, ", "))
	}

	if topic := convCtx.CurrentTopic; topic != nil {
		entry := fmt.Sprintf("Currently discussing: %s", topic.Label)
		if len(topic.Keywords) > 0 {
			sample := topic.Keywords
			if len(sample) > 4 {
				sample = sample[:4]
			}
			entry += fmt.Sprintf(" (keywords: %s)", strings.Join(sample, ", "))
		}
		entry += fmt.Sprintf(", %d messages so far", topic.MessageCount)
		parts = append(parts, entry)
	}

	return strings.Join(parts, ". ")
}

func newTopic(label string, keywords []string, message string, confidence float64, now time.Time) *models.Topic {
	if len(keywords) > models.MaxTopicKeywords {
		keywords = keywords[:models.MaxTopicKeywords]
	}
	return &models.Topic{
		Label:           label,
		Keywords:        keywords,
		ExampleMessages: []string{message},
		Confidence:      confidence,
		StartedAt:       now,
		LastUpdatedAt:   now,
		MessageCount:    1,
	}
}

func transitionHint(oldLabel, newLabel string) string {
	return fmt.Sprintf("The conversation has shifted from %s to %s; acknowledge the change naturally.", oldLabel, newLabel)
}
