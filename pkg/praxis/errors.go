package praxis

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/KarikariSamuelZachary/praxis-move-explainer/pkg/engine"
	"github.com/KarikariSamuelZachary/praxis-move-explainer/pkg/explain"
)

// Error taxonomy of the engine. Per-mistake failures never abort a game's
// ingestion; per-game failures never abort other games; only card-state
// races are retried inline before surfacing.
var (
	// ErrEngineUnavailable: the engine service was unreachable or failed
	// mid-game. Partial results are kept and the ingest result is marked
	// partial.
	ErrEngineUnavailable = engine.ErrUnavailable

	// ErrInvalidEvaluationSequence: the evaluation stream was malformed.
	// That game's ingestion aborts.
	ErrInvalidEvaluationSequence = engine.ErrInvalidSequence

	// ErrExplanationFailed: explanation generation exhausted its retries.
	// The card is kept with a pending explanation and swept later.
	ErrExplanationFailed = explain.ErrFailed

	// ErrCardStateConflict: a concurrent review transition won the race
	// twice. The caller must resubmit against the latest card state.
	ErrCardStateConflict = errors.New("praxis: card state conflict")

	// ErrCardArchived: the card lapsed past the configured ceiling and no
	// longer accepts reviews.
	ErrCardArchived = errors.New("praxis: card is archived")
)

// ConflictError reports a lost review race after the inline retry.
type ConflictError struct {
	CardID string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("praxis: concurrent review conflict on card %s; resubmit with latest state", e.CardID)
}

func (e *ConflictError) Unwrap() error {
	return ErrCardStateConflict
}

// Error type constants for classification
const (
	ErrTypeEngine      = "engine"
	ErrTypeExplanation = "explanation"
	ErrTypeDatabase    = "database"
	ErrTypeValidation  = "validation"
	ErrTypeConflict    = "conflict"
	ErrTypeNetwork     = "network"
	ErrTypeTimeout     = "timeout"
	ErrTypeUnknown     = "unknown"
)

// ClassifyError inspects an error and returns its type classification.
// This enables grouping errors by category in metrics and traces.
func ClassifyError(err error) string {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, ErrCardStateConflict):
		return ErrTypeConflict
	case errors.Is(err, ErrInvalidEvaluationSequence), errors.Is(err, ErrCardArchived):
		return ErrTypeValidation
	case errors.Is(err, ErrEngineUnavailable):
		return ErrTypeEngine
	case errors.Is(err, ErrExplanationFailed):
		return ErrTypeExplanation
	}

	errStrLower := strings.ToLower(err.Error())

	// Check for timeout errors
	if errors.Is(err, context.DeadlineExceeded) || strings.Contains(errStrLower, "timeout") || strings.Contains(errStrLower, "deadline exceeded") {
		return ErrTypeTimeout
	}

	// Check for network errors
	var netErr *net.OpError
	if errors.As(err, &netErr) {
		return ErrTypeNetwork
	}
	if strings.Contains(errStrLower, "connection refused") ||
		strings.Contains(errStrLower, "connection reset") ||
		strings.Contains(errStrLower, "no such host") ||
		strings.Contains(errStrLower, "network is unreachable") ||
		strings.Contains(errStrLower, "dial tcp") {
		return ErrTypeNetwork
	}

	// Check for LLM/API errors
	if strings.Contains(errStrLower, "api error") ||
		strings.Contains(errStrLower, "rate limit") ||
		strings.Contains(errStrLower, "completion") ||
		strings.Contains(errStrLower, "openai") ||
		strings.Contains(errStrLower, "ollama") {
		return ErrTypeExplanation
	}

	// Check for database errors
	if strings.Contains(errStrLower, "sql") ||
		strings.Contains(errStrLower, "database") ||
		strings.Contains(errStrLower, "constraint") {
		return ErrTypeDatabase
	}

	// Check for validation errors
	if strings.Contains(errStrLower, "invalid") ||
		strings.Contains(errStrLower, "required") ||
		strings.Contains(errStrLower, "out of bounds") ||
		strings.Contains(errStrLower, "must be") {
		return ErrTypeValidation
	}

	return ErrTypeUnknown
}
