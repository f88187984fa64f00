// Package engine provides clients for external chess analysis engines.
package engine

// Color identifies a side in a chess game.
type Color string

const (
	White Color = "white"
	Black Color = "black"
)

// Opponent returns the other side.
func (c Color) Opponent() Color {
	if c == White {
		return Black
	}
	return White
}

// mateScoreCP is the saturating centipawn value assigned to mate scores.
// It exceeds any finite evaluation an engine reports for a non-mate line,
// so a swing into or out of a forced mate always registers as an extreme
// evaluation change.
const mateScoreCP = 10000

// Game identifies one uploaded game to analyze.
type Game struct {
	ID  string `json:"id"`
	PGN string `json:"pgn"`
}

// Evaluation is one entry of the per-ply evaluation stream for a game.
//
// Entry conventions: Ply is the number of half-moves played when the
// position was evaluated (ply 0 is the initial position, when present).
// ScoreCP is centipawns from White's perspective. SideToMove is the side
// to move in the evaluated position. MovePlayed is the SAN of the move
// that produced this position (empty at ply 0).
type Evaluation struct {
	Ply         int    `json:"ply"`
	SideToMove  Color  `json:"side_to_move"`
	ScoreCP     int    `json:"score_cp"`
	MateIn      int    `json:"mate_in,omitempty"` // 0 = no forced mate; sign is White's perspective
	FEN         string `json:"fen"`
	MovePlayed  string `json:"move_played,omitempty"`
	BestMoveUCI string `json:"best_move_uci,omitempty"`
	BestMoveSAN string `json:"best_move_san,omitempty"`
}

// Score returns the evaluation in centipawns from White's perspective,
// with mate scores saturated to ±mateScoreCP.
func (e Evaluation) Score() int {
	if e.MateIn > 0 {
		return mateScoreCP
	}
	if e.MateIn < 0 {
		return -mateScoreCP
	}
	return e.ScoreCP
}
