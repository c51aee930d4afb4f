// Package rag defines the boundaries shared by the ingestion pipeline and the
// query engine: the embedding provider and the remote vector index.
// Concrete implementations (Qdrant, Endee, pgvector, local/Ollama/OpenAI
// embedders) satisfy these interfaces so neither side depends on a backend.
package rag

import (
	"context"
)

// Vector is one point written to a remote vector index.
type Vector struct {
	// ID is the unique point identifier (a UUID string).
	ID string `json:"id"`

	// Values is the embedding for this point.
	Values []float32 `json:"values"`

	// Metadata holds the chunk text and its source document name.
	Metadata map[string]string `json:"metadata"`
}

// Index is a networked vector database. It is written to by ingestion only;
// the query engine never talks to it and reads the local cache instead.
// Implementations must be safe to call from multiple goroutines.
type Index interface {
	// CreateIndex creates an index of the given name and vector dimension.
	CreateIndex(ctx context.Context, name string, dimension int) error

	// DeleteIndex drops the named index. Dropping a missing index is not an error.
	DeleteIndex(ctx context.Context, name string) error

	// Upsert stores or replaces a batch of vectors in the named index.
	Upsert(ctx context.Context, index string, vectors []Vector) error

	// Close releases any resources held by the index client.
	Close() error
}

// Embedder is the interface for converting text into dense vector embeddings.
// Implementations must be deterministic for a fixed configuration and safe
// to call from multiple goroutines.
type Embedder interface {
	// Embed converts a batch of texts into their corresponding embeddings.
	// The returned slice is parallel to the input slice.
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}
