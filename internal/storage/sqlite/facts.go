// ABOUTME: Fact persistence for the sqlite engine
// ABOUTME: Facts are independent of sessions and survive cascade deletes
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/pensive-labs/converse/internal/models"
)

// AddFact persists a fact, assigning id and creation time if unset
func (s *Store) AddFact(ctx context.Context, fact *models.Fact) error {
	if err := fact.Validate(); err != nil {
		return err
	}
	if fact.ID == "" {
		fact.ID = models.NewFactID()
	}
	if fact.CreatedAt.IsZero() {
		fact.CreatedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO facts (id, content, category, confidence, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, string(fact.ID), fact.Content, string(fact.Category), fact.Confidence, fact.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting fact: %w", err)
	}
	return nil
}

// GetFact retrieves a fact by id
func (s *Store) GetFact(ctx context.Context, id models.FactID) (*models.Fact, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, content, category, confidence, created_at
		FROM facts
		WHERE id = ?
	`, string(id))

	fact, err := scanFact(row)
	if err == sql.ErrNoRows {
		return nil, goerr.Wrap(models.ErrNotFound, "fact", goerr.V("fact_id", id))
	}
	if err != nil {
		return nil, fmt.Errorf("querying fact: %w", err)
	}
	return fact, nil
}

// ListFacts returns all facts ordered by creation time ascending
func (s *Store) ListFacts(ctx context.Context) ([]models.Fact, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, content, category, confidence, created_at
		FROM facts
		ORDER BY created_at ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("querying facts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var facts []models.Fact
	for rows.Next() {
		fact, err := scanFact(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning fact: %w", err)
		}
		facts = append(facts, *fact)
	}
	return facts, rows.Err()
}

// DeleteFact removes a fact by id; deleting a missing fact is a no-op
func (s *Store) DeleteFact(ctx context.Context, id models.FactID) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM facts WHERE id = ?`, string(id))
	if err != nil {
		return fmt.Errorf("deleting fact: %w", err)
	}
	return nil
}

// ClearFacts removes all facts
func (s *Store) ClearFacts(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM facts`)
	if err != nil {
		return fmt.Errorf("clearing facts: %w", err)
	}
	return nil
}

func scanFact(row rowScanner) (*models.Fact, error) {
	var (
		fact     models.Fact
		id, cat  string
	)
	if err := row.Scan(&id, &fact.Content, &cat, &fact.Confidence, &fact.CreatedAt); err != nil {
		return nil, err
	}
	fact.ID = models.FactID(id)
	fact.Category = models.FactCategory(cat)
	return &fact, nil
}
