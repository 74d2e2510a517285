// ABOUTME: ContextPayload handed to the language-model client each turn
// ABOUTME: An ordered, size-bounded list of role-tagged text blocks
package models

import "unicode/utf8"

// BlockRole tags a payload block for the language-model client.
// Distinct from Role: payload blocks include system-level directives that
// are never persisted as messages.
type BlockRole string

const (
	BlockSystem BlockRole = "system"
	BlockUser   BlockRole = "user"
)

// PayloadBlock is one ordered fragment of the assembled context
type PayloadBlock struct {
	Role BlockRole `json:"role"`
	Name string    `json:"name"` // fragment identity: personality, emotion, context, facts, knowledge, user
	Text string    `json:"text"`
}

// Payload is the final assembled context for a single turn
type Payload struct {
	SessionID SessionID      `json:"session_id"`
	Blocks    []PayloadBlock `json:"blocks"`
}

// Size returns the total character length of all block texts
func (p *Payload) Size() int {
	total := 0
	for _, b := range p.Blocks {
		total += utf8.RuneCountInString(b.Text)
	}
	return total
}
