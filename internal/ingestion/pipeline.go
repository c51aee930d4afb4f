// Package ingestion implements the document ingestion pipeline. It reads
// plain-text documents from a directory, splits them into fixed-size word
// chunks, embeds each chunk, upserts the vectors into the remote index, and
// writes the local cache snapshot the query engine loads.
// This pipeline is invoked by the `ragqa ingest` CLI command.
package ingestion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/54b3r/ragqa-go/internal/cache"
	"github.com/54b3r/ragqa-go/internal/logging"
	"github.com/54b3r/ragqa-go/internal/rag"
)

// ErrNoDocuments is returned when the documents directory holds no .txt files.
var ErrNoDocuments = errors.New("ingestion: no .txt documents")

const (
	// DefaultChunkWords is the number of words per chunk.
	DefaultChunkWords = 300
	// DefaultIndexName is the remote index name when none is configured.
	DefaultIndexName = "rag_index"
)

// Config holds the configuration for the ingestion pipeline.
type Config struct {
	// IndexName is the remote index to reset and upsert into.
	// Defaults to DefaultIndexName if empty.
	IndexName string

	// Dimension is the embedding length used to create the index. Every
	// embedding returned during ingestion must have this length.
	Dimension int

	// ChunkWords is the number of whitespace-separated words per chunk.
	// Defaults to DefaultChunkWords if zero.
	ChunkWords int

	// CachePath is where the cache snapshot is written. The extension picks
	// the format (see cache.Save).
	CachePath string

	// RPS limits embedding calls per second. Zero or negative means unlimited.
	RPS float64

	// SkipReset leaves the existing remote index in place instead of
	// deleting and recreating it.
	SkipReset bool
}

// Observer is notified once per ingested file. Optional.
type Observer interface {
	ObserveIngest(source string, chunks int)
}

// Summary describes a completed ingestion run.
type Summary struct {
	// Files is the number of documents that produced at least one chunk.
	Files int
	// Chunks is the total number of chunks written to the cache.
	Chunks int
	// CachePath is where the snapshot was written.
	CachePath string
}

// Pipeline orchestrates the read → chunk → embed → upsert → snapshot flow
// for a directory of documents.
type Pipeline struct {
	// embedder converts text chunks into dense vector embeddings.
	embedder rag.Embedder

	// index is the remote vector index. Nil disables remote upserts; the
	// cache snapshot is still written.
	index rag.Index

	cfg      *Config
	limiter  *rate.Limiter
	observer Observer
}

// NewPipeline constructs a Pipeline from the provided dependencies and config.
// index may be nil.
func NewPipeline(embedder rag.Embedder, index rag.Index, cfg *Config, observer Observer) (*Pipeline, error) {
	if embedder == nil {
		return nil, fmt.Errorf("ingestion: embedder must not be nil")
	}
	if cfg == nil {
		cfg = &Config{}
	}
	if cfg.CachePath == "" {
		return nil, fmt.Errorf("ingestion: cache path must not be empty")
	}
	if index != nil && cfg.Dimension <= 0 {
		return nil, fmt.Errorf("ingestion: dimension must be positive when an index is configured, got %d", cfg.Dimension)
	}
	if cfg.IndexName == "" {
		cfg.IndexName = DefaultIndexName
	}
	if cfg.ChunkWords <= 0 {
		cfg.ChunkWords = DefaultChunkWords
	}

	limit := rate.Inf
	if cfg.RPS > 0 {
		limit = rate.Limit(cfg.RPS)
	}

	return &Pipeline{
		embedder: embedder,
		index:    index,
		cfg:      cfg,
		limiter:  rate.NewLimiter(limit, 1),
		observer: observer,
	}, nil
}

// ResetIndex deletes and recreates the remote index. Deleting an index that
// does not exist is not an error. It is a no-op without a remote index.
func (p *Pipeline) ResetIndex(ctx context.Context) error {
	if p.index == nil {
		return nil
	}
	if err := p.index.DeleteIndex(ctx, p.cfg.IndexName); err != nil {
		return fmt.Errorf("ingestion: delete index %q: %w", p.cfg.IndexName, err)
	}
	if err := p.index.CreateIndex(ctx, p.cfg.IndexName, p.cfg.Dimension); err != nil {
		return fmt.Errorf("ingestion: create index %q: %w", p.cfg.IndexName, err)
	}
	return nil
}

// Ingest processes every .txt file in dir in file-name order and writes the
// cache snapshot once all files succeed. It returns the first error
// encountered; a failed run leaves any previous snapshot untouched.
// Progress is reported via the optional progress callback.
func (p *Pipeline) Ingest(ctx context.Context, dir string, progress func(msg string)) (*Summary, error) {
	if progress == nil {
		progress = func(string) {}
	}
	log := logging.FromContext(ctx)

	files, err := listDocuments(dir)
	if err != nil {
		return nil, err
	}

	if !p.cfg.SkipReset {
		if err := p.ResetIndex(ctx); err != nil {
			return nil, err
		}
	}

	var records []cache.Record
	summary := &Summary{CachePath: p.cfg.CachePath}

	for _, name := range files {
		raw, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("ingestion: read %s: %w", name, err)
		}

		chunks := ChunkWords(string(raw), p.cfg.ChunkWords)
		if len(chunks) == 0 {
			progress(fmt.Sprintf("skipped %s (empty)", name))
			continue
		}

		if err := p.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("ingestion: rate limit wait: %w", err)
		}
		embeddings, err := p.embedder.Embed(ctx, chunks)
		if err != nil {
			return nil, fmt.Errorf("ingestion: embedding failed for %s: %w", name, err)
		}
		if len(embeddings) != len(chunks) {
			return nil, fmt.Errorf("ingestion: embedding %s: expected %d vectors, got %d", name, len(chunks), len(embeddings))
		}

		vectors := make([]rag.Vector, len(chunks))
		for i, chunk := range chunks {
			if p.cfg.Dimension > 0 && len(embeddings[i]) != p.cfg.Dimension {
				return nil, fmt.Errorf("ingestion: %s chunk %d: embedding has %d values, index expects %d",
					name, i, len(embeddings[i]), p.cfg.Dimension)
			}
			vectors[i] = rag.Vector{
				ID:       ChunkID(name, i),
				Values:   embeddings[i],
				Metadata: chunkMetadata(name, i, chunk),
			}
			records = append(records, cache.Record{Text: chunk, Embedding: embeddings[i], Source: name})
		}

		if p.index != nil {
			if err := p.index.Upsert(ctx, p.cfg.IndexName, vectors); err != nil {
				return nil, fmt.Errorf("ingestion: upsert failed for %s: %w", name, err)
			}
		}

		summary.Files++
		summary.Chunks += len(chunks)
		if p.observer != nil {
			p.observer.ObserveIngest(name, len(chunks))
		}
		log.Debug("ingestion: file done", slog.String("source", name), slog.Int("chunks", len(chunks)))
		progress(fmt.Sprintf("ingested %s (%d chunks)", name, len(chunks)))
	}

	if err := cache.Save(p.cfg.CachePath, records); err != nil {
		return nil, fmt.Errorf("ingestion: write cache: %w", err)
	}
	return summary, nil
}

// listDocuments returns the .txt file names in dir, sorted by name.
func listDocuments(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("ingestion: read documents dir: %w", err)
	}
	var files []string
	for _, e := range entries {
		if e.Type().IsRegular() && strings.HasSuffix(e.Name(), ".txt") {
			files = append(files, e.Name())
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoDocuments, dir)
	}
	return files, nil
}

// ChunkWords splits text on whitespace into chunks of at most size words,
// each re-joined with single spaces. Whitespace-only text yields no chunks.
func ChunkWords(text string, size int) []string {
	if size <= 0 {
		size = DefaultChunkWords
	}
	words := strings.Fields(text)
	chunks := make([]string, 0, (len(words)+size-1)/size)
	for start := 0; start < len(words); start += size {
		end := min(start+size, len(words))
		chunks = append(chunks, strings.Join(words[start:end], " "))
	}
	return chunks
}

// ChunkID returns a deterministic UUID for a chunk of a source document, so
// re-ingesting the same corpus overwrites rather than duplicates points.
func ChunkID(source string, index int) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, fmt.Appendf(nil, "%s#%d", source, index)).String()
}
