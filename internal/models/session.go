// ABOUTME: Session represents an independent conversation thread
// ABOUTME: Exactly one session is "current" per install; deletion cascades to messages
package models

import (
	"time"

	"github.com/google/uuid"
)

// SessionID uniquely identifies a conversation session
type SessionID string

// NewSessionID generates a new unique SessionID
func NewSessionID() SessionID {
	return SessionID("sess_" + uuid.New().String())
}

// DefaultSessionTitle is the placeholder title until the first user message arrives
const DefaultSessionTitle = "New Conversation"

// TitleMaxRunes bounds auto-assigned session titles
const TitleMaxRunes = 60

// Session is an ordered conversation thread with its own message history
type Session struct {
	ID            SessionID `json:"id"`
	Title         string    `json:"title"`
	CreatedAt     time.Time `json:"created_at"`
	LastMessageAt time.Time `json:"last_message_at"`
	MessageCount  int       `json:"message_count"`
}

// NewSession creates a session with the placeholder title
func NewSession() *Session {
	now := time.Now()
	return &Session{
		ID:        NewSessionID(),
		Title:     DefaultSessionTitle,
		CreatedAt: now,
	}
}

// TitleFromContent derives a session title from the first user message,
// truncated to TitleMaxRunes with an ellipsis
func TitleFromContent(content string) string {
	runes := []rune(content)
	if len(runes) <= TitleMaxRunes {
		return content
	}
	return string(runes[:TitleMaxRunes-3]) + "..."
}
