package engine

import (
	"context"
	"errors"
	"fmt"
)

// Sentinel errors for engine clients.
var (
	// ErrUnavailable indicates the engine service was unreachable or timed
	// out. When returned alongside a non-empty evaluation slice the stream
	// is partial: the engine failed mid-game and the evaluations up to the
	// failure point are still usable.
	ErrUnavailable = errors.New("engine: service unavailable")

	// ErrInvalidSequence indicates the evaluation stream was malformed
	// (out-of-order or non-consecutive plies). The stream is unusable.
	ErrInvalidSequence = errors.New("engine: invalid evaluation sequence")
)

// Client is the interface to an external analysis engine.
type Client interface {
	// Evaluate analyzes a game and returns one evaluation per ply, in ply
	// order. Implementations may return partial results together with an
	// error wrapping ErrUnavailable when the engine fails mid-game.
	Evaluate(ctx context.Context, game Game) ([]Evaluation, error)
}

// ValidateSequence checks that evaluations are in ply order with no gaps.
// An empty stream is valid (a game too short to evaluate).
func ValidateSequence(evals []Evaluation) error {
	for i := 1; i < len(evals); i++ {
		if evals[i].Ply != evals[i-1].Ply+1 {
			return fmt.Errorf("%w: ply %d followed by ply %d at index %d",
				ErrInvalidSequence, evals[i-1].Ply, evals[i].Ply, i)
		}
	}
	return nil
}
