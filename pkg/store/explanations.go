package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/KarikariSamuelZachary/praxis-move-explainer/pkg/explain"
)

// Compile-time interface check: the store doubles as the shared
// explanation cache.
var _ explain.Cache = (*Store)(nil)

// Get returns the cached explanation for key, or (nil, nil) when absent.
func (s *Store) Get(ctx context.Context, key string) (*explain.Explanation, error) {
	var e explain.Explanation
	var category, whyGood, whyFailed, pattern sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT key, position_key, context_hash, text, category, why_good, why_failed, pattern, created_at
		FROM explanations WHERE key = ?`, key).Scan(
		&e.Key, &e.PositionKey, &e.ContextHash, &e.Text,
		&category, &whyGood, &whyFailed, &pattern, &e.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get explanation: %w", err)
	}
	e.Category = category.String
	e.WhyGood = whyGood.String
	e.WhyFailed = whyFailed.String
	e.Pattern = pattern.String
	e.Provenance = explain.ProvenanceCache
	return &e, nil
}

// Put durably stores an explanation. Entries are immutable: a second write
// under the same key is ignored, so the first generation wins and readers
// never observe an edit.
func (s *Store) Put(ctx context.Context, e *explain.Explanation) error {
	createdAt := e.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO explanations
			(key, position_key, context_hash, text, category, why_good, why_failed, pattern, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.Key, e.PositionKey, e.ContextHash, e.Text, e.Category,
		e.WhyGood, e.WhyFailed, e.Pattern, createdAt)
	if err != nil {
		return fmt.Errorf("failed to put explanation: %w", err)
	}
	return nil
}

// CountExplanations returns the number of cached explanations.
func (s *Store) CountExplanations(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM explanations").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count explanations: %w", err)
	}
	return n, nil
}
