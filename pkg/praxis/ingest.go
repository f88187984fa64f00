package praxis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/KarikariSamuelZachary/praxis-move-explainer/pkg/detect"
	"github.com/KarikariSamuelZachary/praxis-move-explainer/pkg/engine"
	"github.com/KarikariSamuelZachary/praxis-move-explainer/pkg/explain"
	"github.com/KarikariSamuelZachary/praxis-move-explainer/pkg/store"
	"github.com/KarikariSamuelZachary/praxis-move-explainer/pkg/trace"
)

// MistakeResult is one detected mistake in an ingest response, with its
// explanation when the pipeline resolved one.
type MistakeResult struct {
	Mistake            *store.Mistake
	Explanation        *explain.Explanation // nil while pending
	CardID             string
	ExplanationPending bool
}

// IngestResult is the outcome of analyzing one uploaded game.
type IngestResult struct {
	GameID  string
	UserID  string
	Partial bool // evaluation stream was incomplete; mistakes cover what the engine produced
	// Mistakes in ascending ply order, regardless of the order in which
	// explanations completed.
	Mistakes []MistakeResult
}

// IngestGame runs the full analysis pipeline for one game: evaluate,
// detect, explain, persist, and enqueue a first review for each mistake.
//
// An engine failure mid-game keeps whatever mistakes are derivable and
// marks the result partial. A failed explanation keeps its card with a
// pending marker; other mistakes complete normally. Only a malformed
// evaluation stream aborts ingestion of this game.
//
// Cancelling ctx lets in-flight explanation fetches finish and populate
// the shared cache, but creates no cards for this game.
func (p *Praxis) IngestGame(ctx context.Context, userID string, game engine.Game) (*IngestResult, error) {
	opID := uuid.New().String()
	started := p.now()
	opTrace := newTrace()

	result, err := p.ingestGame(ctx, userID, game, opTrace)

	status := "success"
	if err != nil {
		status = "error"
	}
	p.metrics.RecordOperation(ctx, "ingest", status, time.Since(started).Milliseconds())
	p.exportTrace(ctx, "ingest", opID, started, opTrace, err, map[string]interface{}{
		"gameId": game.ID,
		"userId": userID,
	})
	return result, err
}

func (p *Praxis) ingestGame(ctx context.Context, userID string, game engine.Game, opTrace *OperationTrace) (*IngestResult, error) {
	if userID == "" {
		return nil, fmt.Errorf("user id is required")
	}
	if game.ID == "" {
		return nil, fmt.Errorf("game id is required")
	}

	// Stage 1: evaluation stream from the external engine.
	evalTimer := newSpanTimer("evaluate", opTrace)
	evals, engErr := p.engine.Evaluate(ctx, game)
	partial := false
	switch {
	case engErr == nil:
	case errors.Is(engErr, engine.ErrUnavailable) && len(evals) > 0:
		// Engine died mid-game: keep what it produced, report partial.
		partial = true
		p.logger.Warn("engine failed mid-game, keeping partial stream",
			"game_id", game.ID, "evals", len(evals), "error", engErr)
	default:
		evalTimer.finish(false, engErr, nil)
		p.metrics.RecordError(ctx, "ingest", ClassifyError(engErr))
		return nil, fmt.Errorf("engine evaluation for game %s: %w", game.ID, engErr)
	}
	evalTimer.finish(true, nil, map[string]int64{"evalCount": int64(len(evals))})

	// Stage 2: detection.
	detectTimer := newSpanTimer("detect", opTrace)
	detected := detect.Detect(game.ID, evals, p.config.Detect)
	detectTimer.finish(true, nil, map[string]int64{"mistakeCount": int64(len(detected))})

	// Persist mistakes before explaining so a crash mid-explain leaves
	// them pending and sweepable.
	stored := make([]*store.Mistake, len(detected))
	for i, d := range detected {
		m := store.NewMistake(d)
		if err := p.store.AddMistake(ctx, m); err != nil {
			p.metrics.RecordError(ctx, "ingest", ClassifyError(err))
			return nil, err
		}
		stored[i] = m
	}

	// Stage 3: explanations, in parallel, bounded to respect external
	// rate limits. Runs on a detached context: a cancelled ingest lets
	// fetches finish and populate the shared cache, which is reusable by
	// other games, but creates no cards below.
	explainTimer := newSpanTimer("explain", opTrace)
	fetchCtx := context.WithoutCancel(ctx)
	explanations := make([]*explain.Explanation, len(detected))

	var g errgroup.Group
	g.SetLimit(p.config.ExplainConcurrency)
	for i := range detected {
		i := i
		g.Go(func() error {
			if stored[i].ExplanationStatus == store.ExplanationComplete {
				// Re-ingest of a game whose explanation already resolved.
				e, err := p.store.Get(fetchCtx, stored[i].ExplanationKey)
				if err == nil && e != nil {
					explanations[i] = e
					p.metrics.RecordCacheLookup(fetchCtx, "hit")
				}
				return nil
			}

			e, err := p.pipeline.Explain(fetchCtx, detected[i])
			if err != nil {
				// Kept pending; the maintenance sweep retries later.
				p.logger.Warn("explanation pending after retries",
					"game_id", game.ID, "ply", detected[i].Ply, "error", err)
				p.metrics.RecordError(fetchCtx, "ingest", ErrTypeExplanation)
				p.metrics.RecordCacheLookup(fetchCtx, "pending")
				return nil
			}
			if err := p.store.SetMistakeExplanation(fetchCtx, stored[i].ID, e.Key); err != nil {
				return err
			}
			stored[i].ExplanationKey = e.Key
			stored[i].ExplanationStatus = store.ExplanationComplete
			explanations[i] = e
			if e.Provenance == explain.ProvenanceCache {
				p.metrics.RecordCacheLookup(fetchCtx, "hit")
			} else {
				p.metrics.RecordCacheLookup(fetchCtx, "miss")
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		explainTimer.finish(false, err, nil)
		p.metrics.RecordError(ctx, "ingest", ClassifyError(err))
		return nil, err
	}
	explainTimer.finish(true, nil, nil)

	// The cache is populated; stop here if the upload was cancelled.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Stage 4: one card per mistake, due immediately.
	cardTimer := newSpanTimer("write-cards", opTrace)
	result := &IngestResult{GameID: game.ID, UserID: userID, Partial: partial}
	now := p.now()
	for i, m := range stored {
		card, err := p.store.CreateCard(ctx, userID, m.ID, now)
		if errors.Is(err, store.ErrCardExists) {
			card, err = p.store.CardByUserMistake(ctx, userID, m.ID)
		}
		if err != nil {
			cardTimer.finish(false, err, nil)
			p.metrics.RecordError(ctx, "ingest", ClassifyError(err))
			return nil, err
		}
		result.Mistakes = append(result.Mistakes, MistakeResult{
			Mistake:            m,
			Explanation:        explanations[i],
			CardID:             card.ID,
			ExplanationPending: explanations[i] == nil,
		})
	}
	cardTimer.finish(true, nil, map[string]int64{"cardCount": int64(len(result.Mistakes))})

	p.recordStorageCounts(ctx)
	return result, nil
}

func (p *Praxis) recordStorageCounts(ctx context.Context) {
	if n, err := p.store.CountMistakes(ctx); err == nil {
		p.metrics.SetStorageCount(ctx, "mistakes", n)
	}
	if n, err := p.store.CountExplanations(ctx); err == nil {
		p.metrics.SetStorageCount(ctx, "explanations", n)
	}
	if n, err := p.store.CountCards(ctx, true); err == nil {
		p.metrics.SetStorageCount(ctx, "cards", n)
	}
}

func (p *Praxis) exportTrace(ctx context.Context, operation, opID string, started time.Time, opTrace *OperationTrace, opErr error, ids map[string]interface{}) {
	for _, s := range opTrace.Spans {
		p.metrics.RecordStage(ctx, operation, s.Name, s.DurationMs)
	}
	if p.exporter == nil {
		return
	}

	record := &trace.TraceRecord{
		Timestamp:   started,
		OperationID: opID,
		Operation:   operation,
		DurationMs:  opTrace.TotalDurationMs,
		Status:      "success",
		IDs:         ids,
	}
	if opErr != nil {
		record.Status = "error"
		record.ErrorType = ClassifyError(opErr)
	}
	for _, s := range opTrace.Spans {
		sr := trace.SpanRecord{
			Name:       s.Name,
			DurationMs: s.DurationMs,
			OK:         s.OK,
			Counters:   s.Counters,
		}
		if !s.OK && s.Error != "" {
			sr.ErrorType = ErrTypeUnknown
		}
		record.Spans = append(record.Spans, sr)
	}

	if err := p.exporter.Export(ctx, record); err != nil {
		p.logger.Warn("trace export failed", "operation", operation, "error", err)
	}
}
