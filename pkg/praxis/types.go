package praxis

import (
	"github.com/KarikariSamuelZachary/praxis-move-explainer/pkg/engine"
	"github.com/KarikariSamuelZachary/praxis-move-explainer/pkg/explain"
	"github.com/KarikariSamuelZachary/praxis-move-explainer/pkg/review"
	"github.com/KarikariSamuelZachary/praxis-move-explainer/pkg/store"
)

// Type re-exports for caller convenience

// Game is re-exported from the engine package
type Game = engine.Game

// Evaluation is re-exported from the engine package
type Evaluation = engine.Evaluation

// Explanation is re-exported from the explain package
type Explanation = explain.Explanation

// Card is re-exported from the store package
type Card = store.Card

// DueCard is re-exported from the store package
type DueCard = store.DueCard

// State is re-exported from the review package
type State = review.State

// Outcome is re-exported from the review package
type Outcome = review.Outcome

// Review outcome constants re-exported from the review package
const (
	OutcomeCorrect   = review.Correct
	OutcomeIncorrect = review.Incorrect
)

// Card state constants re-exported from the review package
const (
	StateNew       = review.New
	StateLearning  = review.Learning
	StateReviewing = review.Reviewing
	StateMastered  = review.Mastered
	StateLapsed    = review.Lapsed
)
