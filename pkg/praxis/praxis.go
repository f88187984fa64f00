// Package praxis wires the mistake-detection and spaced-repetition engine:
// games are evaluated by an external chess engine, the critical moments are
// detected and explained through a shared cache, and each mistake becomes a
// per-user card scheduled for repeated review.
package praxis

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/KarikariSamuelZachary/praxis-move-explainer/pkg/detect"
	"github.com/KarikariSamuelZachary/praxis-move-explainer/pkg/engine"
	"github.com/KarikariSamuelZachary/praxis-move-explainer/pkg/explain"
	"github.com/KarikariSamuelZachary/praxis-move-explainer/pkg/llm"
	"github.com/KarikariSamuelZachary/praxis-move-explainer/pkg/metrics"
	"github.com/KarikariSamuelZachary/praxis-move-explainer/pkg/review"
	"github.com/KarikariSamuelZachary/praxis-move-explainer/pkg/store"
	"github.com/KarikariSamuelZachary/praxis-move-explainer/pkg/trace"
)

// Config holds configuration for the Praxis engine
type Config struct {
	// Engine overrides the analysis engine client. When nil an HTTP client
	// is built from EngineURL.
	Engine    engine.Client
	EngineURL string

	// EngineDepth is the engine search depth (default: 20)
	EngineDepth int

	// LLM overrides the explanation model client. When nil an OpenAI
	// client is built from OpenAIKey, unless OllamaURL is set.
	LLM llm.Client

	// OpenAI API key for explanation generation
	OpenAIKey string

	// Model for explanation generation (default: "gpt-4o")
	Model string

	// OllamaURL selects a local Ollama server instead of OpenAI
	OllamaURL   string
	OllamaModel string

	// DBPath is the SQLite database path (default: "praxis.db";
	// ":memory:" for tests)
	DBPath string

	// Detect configures mistake detection (threshold, per-game cap, color)
	Detect detect.Config

	// Review configures the repetition schedule
	Review review.Params

	// ExplainConcurrency bounds parallel explanation fetches per game to
	// respect external rate limits (default: 4)
	ExplainConcurrency int

	// TraceFile enables trace export to the given JSONL path (requires
	// the 'tracing' build tag to have any effect)
	TraceFile string

	// Logger receives structured operational logs (default: slog.Default())
	Logger *slog.Logger
}

// Praxis is the main entry point for the training engine
type Praxis struct {
	config   Config
	engine   engine.Client
	store    *store.Store
	pipeline *explain.Pipeline
	params   review.Params
	logger   *slog.Logger
	metrics  metrics.Collector
	exporter trace.Exporter
	now      func() time.Time
}

// New creates a new Praxis instance
func New(cfg Config) (*Praxis, error) {
	// Apply defaults
	if cfg.DBPath == "" {
		cfg.DBPath = "praxis.db"
	}
	if cfg.ExplainConcurrency <= 0 {
		cfg.ExplainConcurrency = 4
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	cfg.Review = cfg.Review.WithDefaults()
	if err := cfg.Review.Validate(); err != nil {
		return nil, err
	}

	// Initialize engine client
	engineClient := cfg.Engine
	if engineClient == nil {
		httpClient := engine.NewHTTPClient(cfg.EngineURL)
		if cfg.EngineDepth > 0 {
			httpClient.SetDepth(cfg.EngineDepth)
		}
		engineClient = httpClient
	}

	// Initialize explanation model client
	llmClient := cfg.LLM
	if llmClient == nil {
		if cfg.OllamaURL != "" {
			llmClient = llm.NewOllamaClient(cfg.OllamaURL, cfg.OllamaModel)
		} else {
			openai := llm.NewOpenAIClient(cfg.OpenAIKey)
			if cfg.Model != "" {
				openai.Model = cfg.Model
			}
			llmClient = openai
		}
	}

	st, err := store.Open(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	exporter := trace.Exporter(nil)
	if cfg.TraceFile != "" {
		exporter, err = trace.NewFileExporter(cfg.TraceFile)
		if err != nil {
			st.Close()
			return nil, fmt.Errorf("failed to open trace exporter: %w", err)
		}
	}

	return &Praxis{
		config:   cfg,
		engine:   engineClient,
		store:    st,
		pipeline: explain.NewPipeline(llmClient, st, cfg.Logger),
		params:   cfg.Review,
		logger:   cfg.Logger,
		metrics:  metrics.Default(),
		exporter: exporter,
		now:      time.Now,
	}, nil
}

// Store returns the underlying store. Useful for direct queries in
// consuming services.
func (p *Praxis) Store() *store.Store {
	return p.store
}

// Close releases the store and flushes the trace exporter.
func (p *Praxis) Close() error {
	var firstErr error
	if p.exporter != nil {
		if err := p.exporter.Close(); err != nil {
			firstErr = err
		}
	}
	if err := p.store.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
