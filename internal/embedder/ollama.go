package embedder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// httpTimeout is the client-side ceiling for one embeddings round trip.
const httpTimeout = 30 * time.Second

// OllamaEmbedder implements rag.Embedder using the Ollama /api/embed endpoint.
// It is safe for concurrent use. Ollama needs no API key.
type OllamaEmbedder struct {
	// host is the Ollama server base URL (e.g. "http://localhost:11434").
	host string
	// model is the embedding model name (e.g. "nomic-embed-text").
	model string
	client *http.Client
}

// OllamaConfig holds the settings for constructing an OllamaEmbedder.
type OllamaConfig struct {
	// Host is the Ollama server base URL (e.g. "http://localhost:11434").
	Host string
	// Model is the embedding model name (e.g. "nomic-embed-text").
	Model string
}

// NewOllamaEmbedder constructs an OllamaEmbedder from the given config.
func NewOllamaEmbedder(cfg *OllamaConfig) *OllamaEmbedder {
	return &OllamaEmbedder{
		host:   strings.TrimRight(cfg.Host, "/"),
		model:  cfg.Model,
		client: &http.Client{Timeout: 2 * httpTimeout},
	}
}

// ollamaEmbedRequest is the JSON body sent to the Ollama /api/embed endpoint.
type ollamaEmbedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

// ollamaEmbedResponse is the JSON body returned from the Ollama /api/embed endpoint.
type ollamaEmbedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
	Error      string      `json:"error,omitempty"`
}

// Embed converts a batch of texts into their corresponding embeddings.
// The returned slice is parallel to the input slice.
func (e *OllamaEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	body := ollamaEmbedRequest{
		Model: e.model,
		Input: texts,
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("ollama embedder: marshal request: %w", err)
	}

	url := e.host + "/api/embed"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("ollama embedder: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ollama embedder: request failed: %w", err)
	}
	defer resp.Body.Close()

	var result ollamaEmbedResponse
	decodeErr := json.NewDecoder(resp.Body).Decode(&result)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := fmt.Sprintf("HTTP %d", resp.StatusCode)
		if decodeErr == nil && result.Error != "" {
			msg = fmt.Sprintf("HTTP %d: %s", resp.StatusCode, result.Error)
		}
		return nil, fmt.Errorf("ollama embedder: %s", msg)
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("ollama embedder: decode response: %w", decodeErr)
	}

	if len(result.Embeddings) != len(texts) {
		return nil, fmt.Errorf("ollama embedder: expected %d embeddings, got %d", len(texts), len(result.Embeddings))
	}
	if err := checkVectors(result.Embeddings, 0); err != nil {
		return nil, fmt.Errorf("ollama embedder: %w", err)
	}

	return result.Embeddings, nil
}

// Ping checks that the Ollama server answers its version endpoint.
func (e *OllamaEmbedder) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.host+"/api/version", nil)
	if err != nil {
		return fmt.Errorf("ollama embedder: create request: %w", err)
	}
	resp, err := e.client.Do(req)
	if err != nil {
		return fmt.Errorf("ollama embedder: ping: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ollama embedder: ping: HTTP %d", resp.StatusCode)
	}
	return nil
}

// Name returns the backend label used by health reports.
func (e *OllamaEmbedder) Name() string { return "ollama" }
