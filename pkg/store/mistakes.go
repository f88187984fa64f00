package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/KarikariSamuelZachary/praxis-move-explainer/pkg/detect"
	"github.com/KarikariSamuelZachary/praxis-move-explainer/pkg/engine"
)

// Explanation status values for a stored mistake.
const (
	ExplanationPending  = "pending"  // generation failed or has not run yet
	ExplanationComplete = "complete" // explanation_key points at a cache entry
)

// Mistake is a durable detected mistake. The detection fields are immutable
// after creation; only the explanation reference changes, once, when the
// pipeline resolves it.
type Mistake struct {
	ID                string
	GameID            string
	Ply               int
	Color             engine.Color
	PositionKey       string
	MovePlayed        string
	BestMove          string
	EvalBefore        int
	EvalAfter         int
	DeltaCP           int
	Rank              int
	ExplanationKey    string // empty while pending
	ExplanationStatus string
	CreatedAt         time.Time
}

// NewMistake builds a storable mistake from a detection result.
func NewMistake(m detect.Mistake) *Mistake {
	return &Mistake{
		ID:                uuid.New().String(),
		GameID:            m.GameID,
		Ply:               m.Ply,
		Color:             m.Color,
		PositionKey:       m.PositionKey,
		MovePlayed:        m.MovePlayed,
		BestMove:          m.BestMove,
		EvalBefore:        m.EvalBefore,
		EvalAfter:         m.EvalAfter,
		DeltaCP:           m.DeltaCP,
		Rank:              m.Rank,
		ExplanationStatus: ExplanationPending,
	}
}

// Detection converts a stored mistake back to its detection form, as the
// explanation pipeline consumes it.
func (m *Mistake) Detection() detect.Mistake {
	return detect.Mistake{
		GameID:      m.GameID,
		Ply:         m.Ply,
		Color:       m.Color,
		PositionKey: m.PositionKey,
		MovePlayed:  m.MovePlayed,
		BestMove:    m.BestMove,
		EvalBefore:  m.EvalBefore,
		EvalAfter:   m.EvalAfter,
		DeltaCP:     m.DeltaCP,
		Rank:        m.Rank,
	}
}

// AddMistake inserts a mistake. At most one mistake exists per (game, ply):
// re-ingesting a game keeps the original row and rewrites m.ID to match it.
func (s *Store) AddMistake(ctx context.Context, m *Mistake) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}
	if m.ExplanationStatus == "" {
		m.ExplanationStatus = ExplanationPending
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO mistakes (id, game_id, ply, color, position_key, move_played, best_move,
			eval_before, eval_after, delta_cp, rank, explanation_key, explanation_status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(game_id, ply) DO NOTHING`,
		m.ID, m.GameID, m.Ply, string(m.Color), m.PositionKey, m.MovePlayed, m.BestMove,
		m.EvalBefore, m.EvalAfter, m.DeltaCP, m.Rank, m.ExplanationKey, m.ExplanationStatus, m.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to add mistake: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to add mistake: %w", err)
	}
	if rows == 0 {
		existing, err := s.mistakeByGamePly(ctx, m.GameID, m.Ply)
		if err != nil {
			return err
		}
		*m = *existing
	}
	return nil
}

// GetMistake retrieves a mistake by ID. Returns ErrNotFound if absent.
func (s *Store) GetMistake(ctx context.Context, id string) (*Mistake, error) {
	return s.queryMistake(ctx, "WHERE id = ?", id)
}

func (s *Store) mistakeByGamePly(ctx context.Context, gameID string, ply int) (*Mistake, error) {
	return s.queryMistake(ctx, "WHERE game_id = ? AND ply = ?", gameID, ply)
}

const mistakeColumns = `id, game_id, ply, color, position_key, move_played, best_move,
	eval_before, eval_after, delta_cp, rank, explanation_key, explanation_status, created_at`

func (s *Store) queryMistake(ctx context.Context, where string, args ...any) (*Mistake, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+mistakeColumns+" FROM mistakes "+where, args...)
	m, err := scanMistake(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get mistake: %w", err)
	}
	return m, nil
}

// MistakesByGame returns a game's mistakes in ascending ply order.
func (s *Store) MistakesByGame(ctx context.Context, gameID string) ([]*Mistake, error) {
	return s.queryMistakes(ctx, "WHERE game_id = ? ORDER BY ply ASC", gameID)
}

// PendingMistakes returns up to limit mistakes whose explanation is still
// pending, oldest first, for the maintenance retry sweep.
func (s *Store) PendingMistakes(ctx context.Context, limit int) ([]*Mistake, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.queryMistakes(ctx,
		"WHERE explanation_status = ? ORDER BY created_at ASC, rowid ASC LIMIT ?",
		ExplanationPending, limit)
}

func (s *Store) queryMistakes(ctx context.Context, where string, args ...any) ([]*Mistake, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+mistakeColumns+" FROM mistakes "+where, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query mistakes: %w", err)
	}
	defer rows.Close()

	var out []*Mistake
	for rows.Next() {
		m, err := scanMistake(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan mistake: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMistake(r rowScanner) (*Mistake, error) {
	var m Mistake
	var color string
	err := r.Scan(&m.ID, &m.GameID, &m.Ply, &color, &m.PositionKey, &m.MovePlayed, &m.BestMove,
		&m.EvalBefore, &m.EvalAfter, &m.DeltaCP, &m.Rank, &m.ExplanationKey, &m.ExplanationStatus, &m.CreatedAt)
	if err != nil {
		return nil, err
	}
	m.Color = engine.Color(color)
	return &m, nil
}

// SetMistakeExplanation records the resolved explanation cache key for a
// pending mistake and marks it complete.
func (s *Store) SetMistakeExplanation(ctx context.Context, id, explanationKey string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE mistakes SET explanation_key = ?, explanation_status = ?
		WHERE id = ? AND explanation_status = ?`,
		explanationKey, ExplanationComplete, id, ExplanationPending)
	if err != nil {
		return fmt.Errorf("failed to set mistake explanation: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to set mistake explanation: %w", err)
	}
	if rows == 0 {
		// Already complete or unknown id; completing twice is harmless.
		if _, err := s.GetMistake(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

// CountMistakes returns the number of stored mistakes.
func (s *Store) CountMistakes(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM mistakes").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count mistakes: %w", err)
	}
	return n, nil
}
