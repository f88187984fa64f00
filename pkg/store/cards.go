package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/KarikariSamuelZachary/praxis-move-explainer/pkg/review"
)

// Card is one user's repetition card for one mistake. Scheduling fields are
// mutated only through ApplyReview; everything else is fixed at creation.
type Card struct {
	ID        string
	UserID    string
	MistakeID string
	State     review.State
	Interval  time.Duration
	DueAt     time.Time
	Streak    int
	CapStreak int
	Lapses    int
	Archived  bool
	Version   int64
	CreatedAt time.Time
}

// SchedulingState extracts the pure scheduling state for the transition
// function.
func (c *Card) SchedulingState() review.CardState {
	return review.CardState{
		State:     c.State,
		Interval:  c.Interval,
		Streak:    c.Streak,
		CapStreak: c.CapStreak,
		Lapses:    c.Lapses,
	}
}

// DueCard is a card joined with the mistake it drills, as returned by due
// queries.
type DueCard struct {
	Card
	GameID             string
	Ply                int
	PositionKey        string
	MovePlayed         string
	BestMove           string
	ExplanationKey     string
	ExplanationPending bool
}

// CreateCard inserts a new card in the New state, due immediately. At most
// one card exists per (user, mistake); a duplicate returns ErrCardExists.
func (s *Store) CreateCard(ctx context.Context, userID, mistakeID string, now time.Time) (*Card, error) {
	c := &Card{
		ID:        uuid.New().String(),
		UserID:    userID,
		MistakeID: mistakeID,
		State:     review.New,
		DueAt:     now,
		CreatedAt: now,
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO cards (id, user_id, mistake_id, state, interval_secs, due_at, created_at)
		VALUES (?, ?, ?, ?, 0, ?, ?)
		ON CONFLICT(user_id, mistake_id) DO NOTHING`,
		c.ID, c.UserID, c.MistakeID, c.State.String(), c.DueAt, c.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create card: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to create card: %w", err)
	}
	if rows == 0 {
		return nil, ErrCardExists
	}
	return c, nil
}

const cardColumns = `id, user_id, mistake_id, state, interval_secs, due_at,
	streak, cap_streak, lapses, archived, version, created_at`

// GetCard retrieves a card by ID. Returns ErrNotFound if absent.
func (s *Store) GetCard(ctx context.Context, id string) (*Card, error) {
	return s.queryCard(ctx, "WHERE id = ?", id)
}

// CardByUserMistake retrieves the user's card for a mistake, if any.
func (s *Store) CardByUserMistake(ctx context.Context, userID, mistakeID string) (*Card, error) {
	return s.queryCard(ctx, "WHERE user_id = ? AND mistake_id = ?", userID, mistakeID)
}

func (s *Store) queryCard(ctx context.Context, where string, args ...any) (*Card, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+cardColumns+" FROM cards "+where, args...)
	c, err := scanCard(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get card: %w", err)
	}
	return c, nil
}

func scanCard(r rowScanner) (*Card, error) {
	var c Card
	var state string
	var intervalSecs int64
	err := r.Scan(&c.ID, &c.UserID, &c.MistakeID, &state, &intervalSecs, &c.DueAt,
		&c.Streak, &c.CapStreak, &c.Lapses, &c.Archived, &c.Version, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	if err := c.State.UnmarshalText([]byte(state)); err != nil {
		return nil, err
	}
	c.Interval = time.Duration(intervalSecs) * time.Second
	return &c, nil
}

// ApplyReview commits one review transition: it advances the card's
// scheduling state and appends the review record, atomically. The update
// is guarded by the card's version; a concurrent transition that committed
// first makes this call fail with ErrVersionConflict, and the caller
// reloads and retries. On success c is updated in place.
func (s *Store) ApplyReview(ctx context.Context, c *Card, next review.CardState, dueAt time.Time, archived bool, rec review.Record) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin review transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE cards
		SET state = ?, interval_secs = ?, due_at = ?, streak = ?, cap_streak = ?,
			lapses = ?, archived = ?, version = version + 1
		WHERE id = ? AND version = ?`,
		next.State.String(), int64(next.Interval/time.Second), dueAt,
		next.Streak, next.CapStreak, next.Lapses, archived,
		c.ID, c.Version)
	if err != nil {
		return fmt.Errorf("failed to update card: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update card: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: card %s at version %d", ErrVersionConflict, c.ID, c.Version)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO reviews (card_id, reviewed_at, prior_state, outcome, new_interval_secs)
		VALUES (?, ?, ?, ?, ?)`,
		rec.CardID, rec.ReviewedAt, rec.PriorState.String(), rec.Outcome.String(),
		int64(rec.NewInterval/time.Second))
	if err != nil {
		return fmt.Errorf("failed to append review record: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit review: %w", err)
	}

	c.State = next.State
	c.Interval = next.Interval
	c.DueAt = dueAt
	c.Streak = next.Streak
	c.CapStreak = next.CapStreak
	c.Lapses = next.Lapses
	c.Archived = archived
	c.Version++
	return nil
}

// DueCards returns every non-archived card for the user with due_at at or
// before now, joined with its mistake, ordered by ascending due time with
// creation order breaking ties.
func (s *Store) DueCards(ctx context.Context, userID string, now time.Time) ([]*DueCard, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.id, c.user_id, c.mistake_id, c.state, c.interval_secs, c.due_at,
			c.streak, c.cap_streak, c.lapses, c.archived, c.version, c.created_at,
			m.game_id, m.ply, m.position_key, m.move_played, m.best_move,
			m.explanation_key, m.explanation_status
		FROM cards c
		JOIN mistakes m ON m.id = c.mistake_id
		WHERE c.user_id = ? AND c.archived = 0 AND c.due_at <= ?
		ORDER BY c.due_at ASC, c.rowid ASC`,
		userID, now)
	if err != nil {
		return nil, fmt.Errorf("failed to query due cards: %w", err)
	}
	defer rows.Close()

	var out []*DueCard
	for rows.Next() {
		var d DueCard
		var state, explanationStatus string
		var intervalSecs int64
		err := rows.Scan(&d.ID, &d.UserID, &d.MistakeID, &state, &intervalSecs, &d.DueAt,
			&d.Streak, &d.CapStreak, &d.Lapses, &d.Archived, &d.Version, &d.CreatedAt,
			&d.GameID, &d.Ply, &d.PositionKey, &d.MovePlayed, &d.BestMove,
			&d.ExplanationKey, &explanationStatus)
		if err != nil {
			return nil, fmt.Errorf("failed to scan due card: %w", err)
		}
		if err := d.State.UnmarshalText([]byte(state)); err != nil {
			return nil, err
		}
		d.Interval = time.Duration(intervalSecs) * time.Second
		d.ExplanationPending = explanationStatus == ExplanationPending
		out = append(out, &d)
	}
	return out, rows.Err()
}

// CardReviews returns a card's review history in review order.
func (s *Store) CardReviews(ctx context.Context, cardID string) ([]review.Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT card_id, reviewed_at, prior_state, outcome, new_interval_secs
		FROM reviews WHERE card_id = ? ORDER BY id ASC`, cardID)
	if err != nil {
		return nil, fmt.Errorf("failed to query reviews: %w", err)
	}
	defer rows.Close()

	var out []review.Record
	for rows.Next() {
		var rec review.Record
		var priorState, outcome string
		var intervalSecs int64
		if err := rows.Scan(&rec.CardID, &rec.ReviewedAt, &priorState, &outcome, &intervalSecs); err != nil {
			return nil, fmt.Errorf("failed to scan review: %w", err)
		}
		if err := rec.PriorState.UnmarshalText([]byte(priorState)); err != nil {
			return nil, err
		}
		if err := rec.Outcome.UnmarshalText([]byte(outcome)); err != nil {
			return nil, err
		}
		rec.NewInterval = time.Duration(intervalSecs) * time.Second
		out = append(out, rec)
	}
	return out, rows.Err()
}

// CardsForMistake returns the ids of all cards drilling the given mistake.
// Used by the maintenance sweep to fan a recovered explanation out to
// every affected user.
func (s *Store) CardsForMistake(ctx context.Context, mistakeID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id FROM cards WHERE mistake_id = ?", mistakeID)
	if err != nil {
		return nil, fmt.Errorf("failed to query cards for mistake: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan card id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// CountCards returns the number of cards, excluding archived ones when
// activeOnly is set.
func (s *Store) CountCards(ctx context.Context, activeOnly bool) (int64, error) {
	q := "SELECT COUNT(*) FROM cards"
	if activeOnly {
		q += " WHERE archived = 0"
	}
	var n int64
	if err := s.db.QueryRowContext(ctx, q).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count cards: %w", err)
	}
	return n, nil
}
