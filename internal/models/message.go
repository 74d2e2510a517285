// ABOUTME: Message represents a single exchange entry in a conversation session
// ABOUTME: Append-only; never mutated after creation, deleted only with its session
package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// MessageID uniquely identifies a message across all sessions
type MessageID string

// NewMessageID generates a new unique MessageID
func NewMessageID() MessageID {
	return MessageID("msg_" + uuid.New().String())
}

// Role identifies who produced a message
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Known metadata keys. Arbitrary keys are permitted; these are the ones
// other subsystems agree on.
const (
	MetaSource     = "source"     // e.g. "voice", "text", "mcp"
	MetaAction     = "action"     // action that produced the message
	MetaAttachment = "attachment" // attachment reference, if any
)

// Message is a single user or assistant utterance within a session
type Message struct {
	ID        MessageID         `json:"id"`
	SessionID SessionID         `json:"session_id"`
	Role      Role              `json:"role"`
	Content   string            `json:"content"`
	Timestamp time.Time         `json:"timestamp"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// Validate checks the message is well-formed for appending
func (m *Message) Validate() error {
	if m.SessionID == "" {
		return fmt.Errorf("message session id is required")
	}
	if m.Role != RoleUser && m.Role != RoleAssistant {
		return fmt.Errorf("invalid message role %q", m.Role)
	}
	if m.Content == "" {
		return fmt.Errorf("message content is required")
	}
	return nil
}
