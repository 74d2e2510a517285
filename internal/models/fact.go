// ABOUTME: Fact represents durable, session-independent knowledge about the user
// ABOUTME: Facts survive session deletion and topic resets
package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// FactID uniquely identifies a stored fact
type FactID string

// NewFactID generates a new unique FactID
func NewFactID() FactID {
	return FactID("fact_" + uuid.New().String())
}

// FactCategory classifies what kind of knowledge a fact carries
type FactCategory string

const (
	FactPersonal   FactCategory = "personal"
	FactPreference FactCategory = "preference"
	FactContext    FactCategory = "context"
	FactOther      FactCategory = "other"
)

// Fact is a durable piece of knowledge about the user
type Fact struct {
	ID         FactID       `json:"id"`
	Content    string       `json:"content"`
	Category   FactCategory `json:"category"`
	Confidence float64      `json:"confidence"`
	CreatedAt  time.Time    `json:"created_at"`
}

// Validate checks the fact is well-formed for storage
func (f *Fact) Validate() error {
	if f.Content == "" {
		return fmt.Errorf("fact content is required")
	}
	switch f.Category {
	case FactPersonal, FactPreference, FactContext, FactOther:
	default:
		return fmt.Errorf("invalid fact category %q", f.Category)
	}
	if f.Confidence < 0 || f.Confidence > 1 {
		return fmt.Errorf("fact confidence must be 0-1, got %f", f.Confidence)
	}
	return nil
}
