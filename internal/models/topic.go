// ABOUTME: Topic and Context model what a span of conversation is about
// ABOUTME: Context is serialized per session and rehydrated on resume
package models

import (
	"strings"
	"time"
)

// Caps on topic state so serialized contexts stay small
const (
	MaxTopicKeywords   = 8 // keywords kept per topic
	MaxExampleMessages = 5 // sample messages kept per topic
	MaxRecentTopics    = 3 // recent topics kept per session
)

// Topic is a label plus supporting keywords and sample messages
type Topic struct {
	Label           string    `json:"label"`
	Keywords        []string  `json:"keywords,omitempty"`
	ExampleMessages []string  `json:"example_messages,omitempty"`
	Confidence      float64   `json:"confidence"`
	StartedAt       time.Time `json:"started_at"`
	LastUpdatedAt   time.Time `json:"last_updated_at"`
	MessageCount    int       `json:"message_count"`
}

// Merge folds a same-label turn into the topic: keywords are deduplicated
// up to MaxTopicKeywords, the message joins the bounded example sample,
// and the message count advances.
func (t *Topic) Merge(keywords []string, message string, confidence float64, now time.Time) {
	for _, kw := range keywords {
		if len(t.Keywords) >= MaxTopicKeywords {
			break
		}
		if !containsFold(t.Keywords, kw) {
			t.Keywords = append(t.Keywords, kw)
		}
	}
	t.ExampleMessages = append(t.ExampleMessages, message)
	if len(t.ExampleMessages) > MaxExampleMessages {
		t.ExampleMessages = t.ExampleMessages[len(t.ExampleMessages)-MaxExampleMessages:]
	}
	if confidence > t.Confidence {
		t.Confidence = confidence
	}
	t.LastUpdatedAt = now
	t.MessageCount++
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}

// Context is the per-session topic state: the topic being tracked now plus
// a bounded history of recently discussed topics
type Context struct {
	SessionID    SessionID `json:"session_id"`
	CurrentTopic *Topic    `json:"current_topic,omitempty"`
	RecentTopics []Topic   `json:"recent_topics,omitempty"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// NewContext creates an empty context for a session
func NewContext(sessionID SessionID) *Context {
	return &Context{SessionID: sessionID}
}

// PushRecent moves a topic into the recent history, evicting the oldest
// entry once MaxRecentTopics is reached
func (c *Context) PushRecent(t Topic) {
	c.RecentTopics = append(c.RecentTopics, t)
	if len(c.RecentTopics) > MaxRecentTopics {
		c.RecentTopics = c.RecentTopics[len(c.RecentTopics)-MaxRecentTopics:]
	}
}
