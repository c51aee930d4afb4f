package rag

import (
	"context"
	"fmt"
)

// EmbedOne embeds a single text through a batch Embedder.
func EmbedOne(ctx context.Context, e Embedder, text string) ([]float32, error) {
	if e == nil {
		return nil, fmt.Errorf("rag: embedder must not be nil")
	}
	embeddings, err := e.Embed(ctx, []string{text})
	if err != nil {
		return nil, fmt.Errorf("rag: embedding failed: %w", err)
	}
	if len(embeddings) != 1 {
		return nil, fmt.Errorf("rag: embedder returned %d vectors for 1 text", len(embeddings))
	}
	return embeddings[0], nil
}
