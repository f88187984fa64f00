package detect

import (
	"fmt"
	"testing"

	"github.com/KarikariSamuelZachary/praxis-move-explainer/pkg/engine"
)

// stream builds an evaluation stream of consecutive plies starting at
// firstPly. Scores are White-perspective centipawns; the side to move
// follows from the ply count (White moves at even plies).
func stream(firstPly int, scores ...int) []engine.Evaluation {
	evals := make([]engine.Evaluation, len(scores))
	for i, score := range scores {
		ply := firstPly + i
		stm := engine.White
		if ply%2 == 1 {
			stm = engine.Black
		}
		evals[i] = engine.Evaluation{
			Ply:         ply,
			SideToMove:  stm,
			ScoreCP:     score,
			FEN:         fmt.Sprintf("fen-%d", ply),
			MovePlayed:  fmt.Sprintf("move-%d", ply),
			BestMoveSAN: fmt.Sprintf("best-%d", ply),
		}
	}
	return evals
}

// TestDetectSingleBlunder covers the canonical stream: one large swing
// against White among otherwise quiet moves.
func TestDetectSingleBlunder(t *testing.T) {
	evals := stream(1, 20, 15, -350, -360, 10)

	mistakes := Detect("game-1", evals, Config{ThresholdCP: 300})
	if len(mistakes) != 1 {
		t.Fatalf("expected 1 mistake, got %d: %+v", len(mistakes), mistakes)
	}

	m := mistakes[0]
	if m.GameID != "game-1" {
		t.Errorf("GameID = %q, want %q", m.GameID, "game-1")
	}
	if m.Ply != 3 {
		t.Errorf("Ply = %d, want 3", m.Ply)
	}
	if m.Color != engine.White {
		t.Errorf("Color = %q, want white", m.Color)
	}
	if m.DeltaCP != -365 {
		t.Errorf("DeltaCP = %d, want -365", m.DeltaCP)
	}
	if m.EvalBefore != 15 || m.EvalAfter != -350 {
		t.Errorf("evals = (%d, %d), want (15, -350)", m.EvalBefore, m.EvalAfter)
	}
	if m.PositionKey != "fen-2" {
		t.Errorf("PositionKey = %q, want fen-2 (position before the move)", m.PositionKey)
	}
	if m.MovePlayed != "move-3" {
		t.Errorf("MovePlayed = %q, want move-3", m.MovePlayed)
	}
	if m.BestMove != "best-2" {
		t.Errorf("BestMove = %q, want best-2 (engine choice in the prior position)", m.BestMove)
	}
	if m.Rank != 1 {
		t.Errorf("Rank = %d, want 1", m.Rank)
	}
}

// TestDetectThresholdBoundary verifies a drop of exactly the threshold
// qualifies and one centipawn less does not.
func TestDetectThresholdBoundary(t *testing.T) {
	at := Detect("g", stream(0, 0, -100), Config{})
	if len(at) != 1 {
		t.Fatalf("drop of exactly 100 with default threshold: got %d mistakes, want 1", len(at))
	}
	if at[0].DeltaCP != -100 {
		t.Errorf("DeltaCP = %d, want -100", at[0].DeltaCP)
	}

	under := Detect("g", stream(0, 0, -99), Config{})
	if len(under) != 0 {
		t.Fatalf("drop of 99 with default threshold: got %d mistakes, want 0", len(under))
	}
}

// TestDetectPerGameCap verifies at most MaxPerGame mistakes survive, with
// the earlier ply winning among equal drops, and output in ply order.
func TestDetectPerGameCap(t *testing.T) {
	// White loses 200cp on each of four moves; Black's replies are quiet.
	evals := stream(0, 0, -200, -200, -400, -400, -600, -600, -800, -800)

	mistakes := Detect("g", evals, Config{})
	if len(mistakes) != 3 {
		t.Fatalf("expected default cap of 3 mistakes, got %d", len(mistakes))
	}
	wantPlies := []int{1, 3, 5}
	for i, m := range mistakes {
		if m.Ply != wantPlies[i] {
			t.Errorf("mistakes[%d].Ply = %d, want %d", i, m.Ply, wantPlies[i])
		}
		if m.Rank != i+1 {
			t.Errorf("mistakes[%d].Rank = %d, want %d", i, m.Rank, i+1)
		}
	}
}

// TestDetectRankingBySeverity verifies the cap keeps the largest drops and
// ranks reflect severity while output order stays chronological.
func TestDetectRankingBySeverity(t *testing.T) {
	// White drops 150 at ply 1, 500 at ply 3, 250 at ply 5.
	evals := stream(0, 0, -150, -150, -650, -650, -900)

	mistakes := Detect("g", evals, Config{MaxPerGame: 2})
	if len(mistakes) != 2 {
		t.Fatalf("expected 2 mistakes, got %d", len(mistakes))
	}
	if mistakes[0].Ply != 3 || mistakes[1].Ply != 5 {
		t.Fatalf("plies = (%d, %d), want (3, 5)", mistakes[0].Ply, mistakes[1].Ply)
	}
	if mistakes[0].Rank != 1 || mistakes[1].Rank != 2 {
		t.Errorf("ranks = (%d, %d), want (1, 2)", mistakes[0].Rank, mistakes[1].Rank)
	}
	if mistakes[0].DeltaCP != -500 || mistakes[1].DeltaCP != -250 {
		t.Errorf("deltas = (%d, %d), want (-500, -250)", mistakes[0].DeltaCP, mistakes[1].DeltaCP)
	}
}

// TestDetectMateSaturation verifies a swing into a forced mate registers
// as an extreme drop rather than being skipped for lack of a centipawn
// score.
func TestDetectMateSaturation(t *testing.T) {
	evals := stream(0, 50, 0)
	evals[1].MateIn = -3 // White walked into a mate in 3

	mistakes := Detect("g", evals, Config{})
	if len(mistakes) != 1 {
		t.Fatalf("expected 1 mistake, got %d", len(mistakes))
	}
	if mistakes[0].DeltaCP != -10050 {
		t.Errorf("DeltaCP = %d, want -10050 (saturated mate score)", mistakes[0].DeltaCP)
	}
}

// TestDetectColorFilter verifies detection restricted to one side ignores
// the other side's drops.
func TestDetectColorFilter(t *testing.T) {
	evals := stream(1, 20, 15, -350, -360, 10) // the blunder is White's

	if got := Detect("g", evals, Config{ThresholdCP: 300, Color: engine.Black}); len(got) != 0 {
		t.Errorf("black filter: got %d mistakes, want 0", len(got))
	}
	if got := Detect("g", evals, Config{ThresholdCP: 300, Color: engine.White}); len(got) != 1 {
		t.Errorf("white filter: got %d mistakes, want 1", len(got))
	}
}

// TestDetectShortStreams verifies streams too short to form a move pair
// yield nothing.
func TestDetectShortStreams(t *testing.T) {
	if got := Detect("g", nil, Config{}); len(got) != 0 {
		t.Errorf("nil stream: got %d mistakes, want 0", len(got))
	}
	if got := Detect("g", stream(0, 0), Config{}); len(got) != 0 {
		t.Errorf("single evaluation: got %d mistakes, want 0", len(got))
	}
}

// TestDetectGainNeverFlagged verifies evaluation gains for the mover are
// never mistakes, however large.
func TestDetectGainNeverFlagged(t *testing.T) {
	// White to move at ply 0; the score jumps in White's favor.
	evals := stream(0, 0, 900)
	if got := Detect("g", evals, Config{}); len(got) != 0 {
		t.Errorf("gain: got %d mistakes, want 0", len(got))
	}
}
