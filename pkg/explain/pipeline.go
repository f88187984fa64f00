package explain

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/KarikariSamuelZachary/praxis-move-explainer/pkg/detect"
	"github.com/KarikariSamuelZachary/praxis-move-explainer/pkg/llm"
)

// Cache is the durable, shared explanation store. Implementations must be
// safe for concurrent use. Entries are immutable: Put with an existing key
// keeps the first write.
type Cache interface {
	// Get returns the cached explanation for key, or (nil, nil) when absent.
	Get(ctx context.Context, key string) (*Explanation, error)

	// Put durably stores an explanation. First write per key wins.
	Put(ctx context.Context, e *Explanation) error
}

// Pipeline resolves mistakes to explanations through the cache, generating
// at most one explanation per distinct cache key at a time. Concurrent
// callers for the same key share a single external call.
type Pipeline struct {
	llm    llm.Client
	cache  Cache
	group  singleflight.Group
	logger *slog.Logger
	now    func() time.Time
}

// NewPipeline creates a Pipeline. A nil logger discards logs.
func NewPipeline(client llm.Client, cache Cache, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Pipeline{
		llm:    client,
		cache:  cache,
		logger: logger,
		now:    time.Now,
	}
}

// Explain returns the explanation for a mistake, from the cache when
// possible. On a miss the external model is called (the LLM client retries
// transient failures with backoff) and the result is written to the cache
// before any waiter observes it. If generation ultimately fails the error
// wraps ErrFailed and the caller keeps the mistake with a pending
// explanation.
func (p *Pipeline) Explain(ctx context.Context, m detect.Mistake) (*Explanation, error) {
	moveContext := MoveContext(m)
	key := CacheKey(m.PositionKey, moveContext)

	// Fast path: complete cache entry.
	if e, err := p.cache.Get(ctx, key); err != nil {
		return nil, fmt.Errorf("explanation cache read: %w", err)
	} else if e != nil {
		e.Provenance = ProvenanceCache
		return e, nil
	}

	// Slow path: collapse concurrent misses for the same key onto one
	// generation. Losers of the race wait here and read the winner's
	// result.
	v, err, _ := p.group.Do(key, func() (any, error) {
		// Re-check under the flight: another goroutine may have populated
		// the cache between our miss and acquiring the flight.
		if e, err := p.cache.Get(ctx, key); err != nil {
			return nil, fmt.Errorf("explanation cache read: %w", err)
		} else if e != nil {
			e.Provenance = ProvenanceCache
			return e, nil
		}
		return p.generate(ctx, m, key, moveContext)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Explanation), nil
}

func (p *Pipeline) generate(ctx context.Context, m detect.Mistake, key, moveContext string) (*Explanation, error) {
	text, err := p.llm.Complete(ctx, systemPrompt, BuildPrompt(m))
	if err != nil {
		p.logger.Warn("explanation generation failed",
			"game_id", m.GameID, "ply", m.Ply, "key", key, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrFailed, err)
	}

	whyGood, whyFailed, concept, pattern := parseSections(text)
	e := &Explanation{
		Key:         key,
		PositionKey: m.PositionKey,
		ContextHash: ContextHash(moveContext),
		Text:        text,
		Category:    concept,
		WhyGood:     whyGood,
		WhyFailed:   whyFailed,
		Pattern:     pattern,
		Provenance:  ProvenanceGenerated,
		CreatedAt:   p.now(),
	}

	// The cache write happens before the flight releases, so no waiter can
	// observe a miss after a successful generation.
	if err := p.cache.Put(ctx, e); err != nil {
		return nil, fmt.Errorf("explanation cache write: %w", err)
	}

	return e, nil
}
