package praxis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/KarikariSamuelZachary/praxis-move-explainer/pkg/review"
	"github.com/KarikariSamuelZachary/praxis-move-explainer/pkg/store"
)

// SubmitReview applies one review outcome to a card and returns the card's
// new state. Concurrent submissions for the same card serialize: a lost
// race is retried once against the fresh state, then surfaced as a
// ConflictError for the caller to resubmit.
func (p *Praxis) SubmitReview(ctx context.Context, cardID string, outcome review.Outcome) (*store.Card, error) {
	opID := uuid.New().String()
	started := p.now()
	opTrace := newTrace()

	card, err := p.submitReview(ctx, cardID, outcome, opTrace)

	status := "success"
	if err != nil {
		status = "error"
	}
	p.metrics.RecordOperation(ctx, "review", status, time.Since(started).Milliseconds())
	p.exportTrace(ctx, "review", opID, started, opTrace, err, map[string]interface{}{
		"cardId": cardID,
	})
	return card, err
}

func (p *Praxis) submitReview(ctx context.Context, cardID string, outcome review.Outcome, opTrace *OperationTrace) (*store.Card, error) {
	if !outcome.IsValid() {
		return nil, review.ErrInvalidOutcome
	}

	timer := newSpanTimer("transition", opTrace)

	// The version guard serializes concurrent transitions; a lost race is
	// retried once against the committed state before surfacing.
	const maxAttempts = 2
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		card, err := p.store.GetCard(ctx, cardID)
		if err != nil {
			timer.finish(false, err, nil)
			p.metrics.RecordError(ctx, "review", ClassifyError(err))
			return nil, err
		}
		if card.Archived {
			timer.finish(false, ErrCardArchived, nil)
			p.metrics.RecordError(ctx, "review", ErrTypeValidation)
			return nil, fmt.Errorf("%w: card %s", ErrCardArchived, cardID)
		}

		next, err := p.params.Next(card.SchedulingState(), outcome)
		if err != nil {
			timer.finish(false, err, nil)
			p.metrics.RecordError(ctx, "review", ClassifyError(err))
			return nil, err
		}

		now := p.now()
		rec := review.Record{
			CardID:      cardID,
			ReviewedAt:  now,
			PriorState:  card.State,
			Outcome:     outcome,
			NewInterval: next.Interval,
		}
		err = p.store.ApplyReview(ctx, card, next, now.Add(next.Interval), p.params.ShouldArchive(next), rec)
		if errors.Is(err, store.ErrVersionConflict) {
			p.logger.Debug("review transition lost race, retrying",
				"card_id", cardID, "attempt", attempt)
			continue
		}
		if err != nil {
			timer.finish(false, err, nil)
			p.metrics.RecordError(ctx, "review", ClassifyError(err))
			return nil, err
		}

		if card.Archived {
			p.logger.Info("card archived after lapse ceiling",
				"card_id", cardID, "lapses", card.Lapses)
		}
		timer.finish(true, nil, nil)
		return card, nil
	}

	conflictErr := &ConflictError{CardID: cardID}
	timer.finish(false, conflictErr, nil)
	p.metrics.RecordError(ctx, "review", ErrTypeConflict)
	return nil, conflictErr
}

// DueCards returns every card for the user due at or before now, oldest
// due first, creation order breaking ties. The read is a snapshot: a
// review committed concurrently may or may not be reflected, but the
// result is always consistent.
func (p *Praxis) DueCards(ctx context.Context, userID string, now time.Time) ([]*store.DueCard, error) {
	opID := uuid.New().String()
	started := p.now()
	opTrace := newTrace()

	timer := newSpanTimer("due-query", opTrace)
	cards, err := p.store.DueCards(ctx, userID, now)
	timer.finish(err == nil, err, map[string]int64{"dueCount": int64(len(cards))})

	status := "success"
	if err != nil {
		status = "error"
		p.metrics.RecordError(ctx, "due_query", ClassifyError(err))
	}
	p.metrics.RecordOperation(ctx, "due_query", status, time.Since(started).Milliseconds())
	p.exportTrace(ctx, "due-query", opID, started, opTrace, err, map[string]interface{}{
		"userId": userID,
	})
	return cards, err
}

// CardHistory returns a card's append-only review history in review order,
// suitable for audit or replay.
func (p *Praxis) CardHistory(ctx context.Context, cardID string) ([]review.Record, error) {
	return p.store.CardReviews(ctx, cardID)
}
