// ABOUTME: FactStore manages durable user facts and their prompt rendering
// ABOUTME: Facts are session-independent and unaffected by topic resets
package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/pensive-labs/converse/internal/models"
	"github.com/pensive-labs/converse/internal/storage"
)

// DefaultFactBudget bounds the rendered fact block in characters
const DefaultFactBudget = 600

// FactStore manages durable knowledge about the user
type FactStore struct {
	store  storage.Store
	budget int
}

// NewFactStore creates a FactStore. A budget of 0 selects DefaultFactBudget.
func NewFactStore(store storage.Store, budget int) *FactStore {
	if budget <= 0 {
		budget = DefaultFactBudget
	}
	return &FactStore{store: store, budget: budget}
}

// Add validates and stores a new fact
func (f *FactStore) Add(ctx context.Context, content string, category models.FactCategory, confidence float64) (*models.Fact, error) {
	fact := &models.Fact{
		Content:    strings.TrimSpace(content),
		Category:   category,
		Confidence: confidence,
	}
	if err := f.store.AddFact(ctx, fact); err != nil {
		return nil, fmt.Errorf("adding fact: %w", err)
	}
	return fact, nil
}

// List returns all facts ordered by creation time ascending
func (f *FactStore) List(ctx context.Context) ([]models.Fact, error) {
	return f.store.ListFacts(ctx)
}

// Delete removes a fact by id
func (f *FactStore) Delete(ctx context.Context, id models.FactID) error {
	return f.store.DeleteFact(ctx, id)
}

// ClearAll removes every fact
func (f *FactStore) ClearAll(ctx context.Context) error {
	return f.store.ClearFacts(ctx)
}

// FormatForPrompt renders facts as a line-delimited block in CreatedAt
// order, bounded by the character budget. When the block would overflow,
// the oldest facts are dropped first so the freshest knowledge survives.
func (f *FactStore) FormatForPrompt(ctx context.Context) (string, error) {
	facts, err := f.store.ListFacts(ctx)
	if err != nil {
		return "", fmt.Errorf("listing facts: %w", err)
	}
	if len(facts) == 0 {
		return "", nil
	}

	const header = "USER FACTS:\n"
	remaining := f.budget - len(header)

	// Walk newest to oldest deciding what fits, then render ascending
	keepFrom := len(facts)
	for i := len(facts) - 1; i >= 0; i-- {
		line := "- " + facts[i].Content + "\n"
		if len(line) > remaining {
			break
		}
		remaining -= len(line)
		keepFrom = i
	}
	if keepFrom == len(facts) {
		return "", nil
	}

	var sb strings.Builder
	sb.WriteString(header)
	for _, fact := range facts[keepFrom:] {
		sb.WriteString("- ")
		sb.WriteString(fact.Content)
		sb.WriteString("\n")
	}
	return sb.String(), nil
}
