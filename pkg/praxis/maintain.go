package praxis

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// RetryPendingExplanations re-runs the explanation pipeline for mistakes
// whose generation previously exhausted its retries. It processes up to
// limit pending mistakes (zero for the default batch size) and returns how
// many were resolved. Mistakes that fail again simply stay pending for the
// next sweep.
func (p *Praxis) RetryPendingExplanations(ctx context.Context, limit int) (int, error) {
	opID := uuid.New().String()
	started := p.now()
	opTrace := newTrace()

	resolved, err := p.retryPending(ctx, limit, opTrace)

	status := "success"
	if err != nil {
		status = "error"
		p.metrics.RecordError(ctx, "retry_pending", ClassifyError(err))
	}
	p.metrics.RecordOperation(ctx, "retry_pending", status, time.Since(started).Milliseconds())
	p.exportTrace(ctx, "retry-pending", opID, started, opTrace, err, nil)
	return resolved, err
}

func (p *Praxis) retryPending(ctx context.Context, limit int, opTrace *OperationTrace) (int, error) {
	pending, err := p.store.PendingMistakes(ctx, limit)
	if err != nil {
		return 0, err
	}

	timer := newSpanTimer("explain", opTrace)
	resolved := 0
	for _, m := range pending {
		if ctx.Err() != nil {
			break
		}

		e, err := p.pipeline.Explain(ctx, m.Detection())
		if err != nil {
			p.logger.Warn("pending explanation still failing",
				"mistake_id", m.ID, "game_id", m.GameID, "ply", m.Ply, "error", err)
			continue
		}
		if err := p.store.SetMistakeExplanation(ctx, m.ID, e.Key); err != nil {
			timer.finish(false, err, nil)
			return resolved, err
		}
		resolved++
	}
	timer.finish(true, nil, map[string]int64{
		"pendingCount":  int64(len(pending)),
		"resolvedCount": int64(resolved),
	})

	p.recordStorageCounts(ctx)
	return resolved, ctx.Err()
}
