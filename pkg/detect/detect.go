// Package detect finds the critical moments of a game: the plies where the
// evaluation swung against the mover by at least a configurable threshold.
package detect

import (
	"sort"

	"github.com/KarikariSamuelZachary/praxis-move-explainer/pkg/engine"
)

// Config controls mistake detection.
// Zero values produce defaults; see field comments.
type Config struct {
	// ThresholdCP is the minimum centipawn drop, from the mover's
	// perspective, for a move to count as a mistake (zero → 100).
	ThresholdCP int

	// MaxPerGame caps how many mistakes are retained per game, keeping
	// the largest drops (zero → 3).
	MaxPerGame int

	// Color restricts detection to one side's moves ("" → both sides).
	Color engine.Color
}

func (c Config) withDefaults() Config {
	if c.ThresholdCP <= 0 {
		c.ThresholdCP = 100
	}
	if c.MaxPerGame <= 0 {
		c.MaxPerGame = 3
	}
	return c
}

// Mistake is one detected critical moment. Immutable once created.
type Mistake struct {
	GameID      string
	Ply         int          // ply index of the after-move evaluation
	Color       engine.Color // side that made the move
	PositionKey string       // FEN of the position before the move
	MovePlayed  string       // SAN of the move that was played
	BestMove    string       // SAN of the engine's best move in the prior position
	EvalBefore  int          // centipawns, mover's perspective
	EvalAfter   int          // centipawns, mover's perspective
	DeltaCP     int          // signed drop; always <= -ThresholdCP
	Rank        int          // 1-based rank within the game by |DeltaCP|
}

// Detect walks the evaluation stream in ply order and returns at most
// MaxPerGame mistakes, ordered by ascending ply.
//
// For each adjacent pair the mover is the side to move in the earlier
// position; the drop is the change in that side's evaluation across the
// move. Mate scores saturate, so swings into or out of a forced mate
// always qualify. Fewer than two evaluations yield no mistakes.
func Detect(gameID string, evals []engine.Evaluation, cfg Config) []Mistake {
	cfg = cfg.withDefaults()

	var candidates []Mistake
	for i := 0; i+1 < len(evals); i++ {
		before, after := evals[i], evals[i+1]
		mover := before.SideToMove
		if cfg.Color != "" && mover != cfg.Color {
			continue
		}

		evalBefore := perspective(mover, before.Score())
		evalAfter := perspective(mover, after.Score())
		delta := evalAfter - evalBefore
		if delta > -cfg.ThresholdCP {
			continue
		}

		candidates = append(candidates, Mistake{
			GameID:      gameID,
			Ply:         after.Ply,
			Color:       mover,
			PositionKey: before.FEN,
			MovePlayed:  after.MovePlayed,
			BestMove:    before.BestMoveSAN,
			EvalBefore:  evalBefore,
			EvalAfter:   evalAfter,
			DeltaCP:     delta,
		})
	}

	// Rank by drop magnitude, earlier ply winning ties, and keep the top K.
	sort.SliceStable(candidates, func(a, b int) bool {
		if candidates[a].DeltaCP != candidates[b].DeltaCP {
			return candidates[a].DeltaCP < candidates[b].DeltaCP
		}
		return candidates[a].Ply < candidates[b].Ply
	})
	if len(candidates) > cfg.MaxPerGame {
		candidates = candidates[:cfg.MaxPerGame]
	}
	for i := range candidates {
		candidates[i].Rank = i + 1
	}

	// Present in game order.
	sort.Slice(candidates, func(a, b int) bool {
		return candidates[a].Ply < candidates[b].Ply
	})

	return candidates
}

// perspective converts a White-perspective score to the given side's view.
func perspective(c engine.Color, scoreCP int) int {
	if c == engine.Black {
		return -scoreCP
	}
	return scoreCP
}
