package query

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/54b3r/ragqa-go/internal/cache"
	"github.com/54b3r/ragqa-go/internal/logging"
	"github.com/54b3r/ragqa-go/internal/rag"
)

// Query outcomes reported to an Observer.
const (
	OutcomeAnswered   = "answered"
	OutcomeBelowFloor = "below_floor"
	OutcomeFiltered   = "filtered"
	OutcomeEmptyCache = "empty_cache"
	OutcomeError      = "error"
)

// defaultEmbedTimeout bounds the query embedding call.
const defaultEmbedTimeout = 30 * time.Second

// Observer receives one notification per completed question.
type Observer interface {
	ObserveQuery(outcome string, bestScore float64, contexts int)
}

// Config holds the settings for constructing an Engine.
type Config struct {
	// Cache is the immutable vector cache loaded for this session.
	Cache *cache.Cache
	// Embedder converts the question into a vector. Must match the cache dimension.
	Embedder rag.Embedder
	// TopK is the number of ranked candidates considered (default: DefaultTopK).
	TopK int
	// EmbedTimeout bounds the query embedding call (default: 30s).
	EmbedTimeout time.Duration
	// Observer is notified after every question. Optional.
	Observer Observer
}

// Result is the transient outcome of one question.
type Result struct {
	// Question is the text that was asked.
	Question string
	// Intent is the class derived from the question's leading word.
	Intent Intent
	// BestScore is the maximum similarity over the cache, or EmptyCacheScore.
	BestScore float64
	// Contexts are the passages that passed both gates and the intent filter,
	// ordered by descending similarity.
	Contexts []string
	// Scores is parallel to Contexts.
	Scores []float64
	// Answer is the synthesized answer. Empty when Contexts is empty.
	Answer string
}

// NoMatch reports whether no passage qualified as context.
func (r *Result) NoMatch() bool { return len(r.Contexts) == 0 }

// Engine answers questions against a fixed cache. The cache is never mutated,
// so one Engine may serve sequential questions for the whole process; all
// per-question state lives on the stack of Ask.
type Engine struct {
	cache        *cache.Cache
	embedder     rag.Embedder
	topK         int
	embedTimeout time.Duration
	observer     Observer
}

// NewEngine constructs an Engine from cfg.
func NewEngine(cfg *Config) (*Engine, error) {
	if cfg.Cache == nil {
		return nil, fmt.Errorf("query: cache must not be nil")
	}
	if cfg.Embedder == nil {
		return nil, fmt.Errorf("query: embedder must not be nil")
	}
	topK := cfg.TopK
	if topK <= 0 {
		topK = DefaultTopK
	}
	timeout := cfg.EmbedTimeout
	if timeout <= 0 {
		timeout = defaultEmbedTimeout
	}
	return &Engine{
		cache:        cfg.Cache,
		embedder:     cfg.Embedder,
		topK:         topK,
		embedTimeout: timeout,
		observer:     cfg.Observer,
	}, nil
}

// Ask runs question → embed → rank → gate → intent filter → synthesize.
// Below-threshold questions are not errors: they return a Result with no
// contexts. Errors are reserved for embedding failures and dimension mismatch.
func (e *Engine) Ask(ctx context.Context, question string) (*Result, error) {
	log := logging.FromContext(ctx)
	res := &Result{Question: question, Intent: ClassifyIntent(question)}

	if e.cache.Len() == 0 {
		res.BestScore = EmptyCacheScore
		log.Debug("query: cache is empty", slog.Float64("best_score", res.BestScore))
		e.observe(OutcomeEmptyCache, res)
		return res, nil
	}

	embedCtx, cancel := context.WithTimeout(ctx, e.embedTimeout)
	vec, err := rag.EmbedOne(embedCtx, e.embedder, question)
	cancel()
	if err != nil {
		e.observe(OutcomeError, res)
		return nil, fmt.Errorf("query: embed question: %w", err)
	}

	ranking, err := Rank(e.cache, vec, e.topK)
	if err != nil {
		e.observe(OutcomeError, res)
		return nil, err
	}
	res.BestScore = ranking.BestScore

	if !(ranking.BestScore >= MinSemanticFloor) {
		log.Debug("query: below semantic floor",
			slog.Float64("best_score", ranking.BestScore),
			slog.Float64("floor", MinSemanticFloor),
		)
		e.observe(OutcomeBelowFloor, res)
		return res, nil
	}

	for _, m := range ranking.Top {
		if !(m.Score >= SimilarityThreshold) {
			continue
		}
		text := e.cache.Record(m.Index).Text
		if !Compatible(res.Intent, text) {
			continue
		}
		res.Contexts = append(res.Contexts, text)
		res.Scores = append(res.Scores, m.Score)
	}

	log.Debug("query: ranked",
		slog.Float64("best_score", res.BestScore),
		slog.Int("candidates", len(ranking.Top)),
		slog.String("intent", res.Intent.String()),
		slog.Int("contexts", len(res.Contexts)),
	)

	if res.NoMatch() {
		e.observe(OutcomeFiltered, res)
		return res, nil
	}

	res.Answer = Synthesize(res.Contexts, question)
	e.observe(OutcomeAnswered, res)
	return res, nil
}

func (e *Engine) observe(outcome string, res *Result) {
	if e.observer != nil {
		e.observer.ObserveQuery(outcome, res.BestScore, len(res.Contexts))
	}
}
