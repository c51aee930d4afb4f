package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/54b3r/ragqa-go/internal/cache"
	"github.com/54b3r/ragqa-go/internal/config"
	"github.com/54b3r/ragqa-go/internal/embedder"
	"github.com/54b3r/ragqa-go/internal/health"
	"github.com/54b3r/ragqa-go/internal/logging"
	"github.com/54b3r/ragqa-go/internal/query"
	"github.com/54b3r/ragqa-go/internal/rag"
)

// initializer is implemented by embedders that load a model on first use.
type initializer interface {
	Init(ctx context.Context) error
}

// buildEmbedder constructs the configured embedder and loads it eagerly so
// the first question does not pay the model load.
func buildEmbedder(ctx context.Context) (rag.Embedder, func(), error) {
	emb, err := embedder.NewFromEnv()
	if err != nil {
		return nil, nil, err
	}
	closeFn := func() {
		if c, ok := emb.(io.Closer); ok {
			_ = c.Close()
		}
	}
	if in, ok := emb.(initializer); ok {
		if err := in.Init(ctx); err != nil {
			closeFn()
			return nil, nil, fmt.Errorf("load embedding model: %w", err)
		}
	}
	logging.FromContext(ctx).Info("embedder initialised", slog.String("provider", embedder.Backend()))
	return emb, closeFn, nil
}

// session is a loaded cache plus the engine answering against it.
type session struct {
	engine *query.Engine
	cache  *cache.Cache
	close  func()
}

// openSession loads the cache and embedder and builds the query engine.
// The cache is loaded first so a missing snapshot fails before any model load.
func openSession(ctx context.Context, s config.Settings) (*session, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}

	c, err := cache.Load(s.CachePath)
	if err != nil {
		return nil, fmt.Errorf("%w (run 'ragqa ingest' first)", err)
	}
	logging.FromContext(ctx).Info("cache loaded",
		slog.String("path", s.CachePath),
		slog.Int("records", c.Len()),
		slog.Int("dimension", c.Dimension()),
	)

	emb, closeEmb, err := buildEmbedder(ctx)
	if err != nil {
		return nil, err
	}

	engine, err := query.NewEngine(&query.Config{
		Cache:    c,
		Embedder: emb,
		TopK:     s.TopK,
		Observer: run.metrics,
	})
	if err != nil {
		closeEmb()
		return nil, err
	}
	return &session{engine: engine, cache: c, close: closeEmb}, nil
}

// Ask answers one question and records its latency.
func (s *session) Ask(ctx context.Context, question string) (*query.Result, error) {
	start := time.Now()
	res, err := s.engine.Ask(ctx, question)
	if run.metrics != nil {
		run.metrics.ObserveDuration(time.Since(start))
	}
	return res, err
}

// remoteIndex is a rag.Index that can also report its own health.
type remoteIndex struct {
	rag.Index
	pinger health.Pinger
}

// buildIndex connects to the configured remote index. It returns nil when
// INDEX_BACKEND is none.
func buildIndex(ctx context.Context, s config.Settings) (*remoteIndex, error) {
	switch s.IndexBackend {
	case config.IndexBackendNone:
		return nil, nil

	case config.IndexBackendQdrant:
		idx, err := rag.NewQdrantIndex(&rag.QdrantConfig{
			Host:   s.QdrantHost,
			Port:   s.QdrantPort,
			APIKey: s.QdrantAPIKey,
			UseTLS: s.QdrantTLS,
		})
		if err != nil {
			return nil, fmt.Errorf("connect to Qdrant at %s:%d: %w", s.QdrantHost, s.QdrantPort, err)
		}
		return &remoteIndex{Index: idx, pinger: health.NewQdrantPinger(idx.Client())}, nil

	case config.IndexBackendEndee:
		idx := rag.NewEndeeIndex(&rag.EndeeConfig{URL: s.EndeeURL, APIKey: s.EndeeAPIKey})
		return &remoteIndex{Index: idx, pinger: idx}, nil

	case config.IndexBackendPGVector:
		idx, err := rag.NewPGVectorIndex(ctx, s.PGVectorDSN)
		if err != nil {
			return nil, err
		}
		return &remoteIndex{Index: idx, pinger: idx}, nil

	default:
		return nil, fmt.Errorf("unknown INDEX_BACKEND %q", s.IndexBackend)
	}
}

// embedderPinger adapts any embedder to health.Pinger. Backends with their
// own probe are used directly; others embed a short probe text.
type embedderPinger struct {
	emb rag.Embedder
}

func (p embedderPinger) Name() string {
	if n, ok := p.emb.(interface{ Name() string }); ok {
		return n.Name()
	}
	return "embedder"
}

func (p embedderPinger) Ping(ctx context.Context) error {
	if pg, ok := p.emb.(interface{ Ping(context.Context) error }); ok {
		return pg.Ping(ctx)
	}
	_, err := rag.EmbedOne(ctx, p.emb, "ping")
	return err
}

// cacheRecordCount loads path and returns its record count.
func cacheRecordCount(path string) (int, error) {
	c, err := cache.Load(path)
	if err != nil {
		return 0, err
	}
	return c.Len(), nil
}
