package rag

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// EndeeConfig holds connection parameters for an Endee vector server.
type EndeeConfig struct {
	// URL is the server base URL (default: http://localhost:8080).
	URL string

	// APIKey is sent as a Bearer token when set.
	APIKey string

	// Timeout bounds each request (default: 30s).
	Timeout time.Duration
}

// EndeeIndex implements Index against the Endee REST API:
//
//	POST /api/v1/index/create  {"name", "dimension"}
//	POST /api/v1/index/delete  {"name"}
//	POST /api/v1/vector/upsert {"index", "vectors": [{"id", "values", "metadata"}]}
type EndeeIndex struct {
	// baseURL is the server root without a trailing slash.
	baseURL string
	// apiKey is the optional Bearer token.
	apiKey string
	// client is the shared HTTP client.
	client *http.Client
}

// NewEndeeIndex constructs an EndeeIndex from the given config.
func NewEndeeIndex(cfg *EndeeConfig) *EndeeIndex {
	url := cfg.URL
	if url == "" {
		url = "http://localhost:8080"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &EndeeIndex{
		baseURL: strings.TrimRight(url, "/"),
		apiKey:  cfg.APIKey,
		client:  &http.Client{Timeout: timeout},
	}
}

type endeeIndexRequest struct {
	Name      string `json:"name"`
	Dimension int    `json:"dimension,omitempty"`
}

type endeeUpsertRequest struct {
	Index   string   `json:"index"`
	Vectors []Vector `json:"vectors"`
}

// CreateIndex creates a named index with the given dimension.
func (e *EndeeIndex) CreateIndex(ctx context.Context, name string, dimension int) error {
	if dimension <= 0 {
		return fmt.Errorf("endee: invalid dimension %d", dimension)
	}
	return e.post(ctx, "/api/v1/index/create", endeeIndexRequest{Name: name, Dimension: dimension}, false)
}

// DeleteIndex drops the named index. A 404 response is treated as success.
func (e *EndeeIndex) DeleteIndex(ctx context.Context, name string) error {
	return e.post(ctx, "/api/v1/index/delete", endeeIndexRequest{Name: name}, true)
}

// Upsert writes a batch of vectors into the named index.
func (e *EndeeIndex) Upsert(ctx context.Context, index string, vectors []Vector) error {
	if len(vectors) == 0 {
		return nil
	}
	return e.post(ctx, "/api/v1/vector/upsert", endeeUpsertRequest{Index: index, Vectors: vectors}, false)
}

// Ping checks that the server answers HTTP at all.
func (e *EndeeIndex) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.baseURL+"/", nil)
	if err != nil {
		return fmt.Errorf("endee: create request: %w", err)
	}
	e.authorize(req)
	resp, err := e.client.Do(req)
	if err != nil {
		return fmt.Errorf("endee: request failed: %w", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode >= 500 {
		return fmt.Errorf("endee: HTTP %d", resp.StatusCode)
	}
	return nil
}

// Name returns the dependency label used in readiness output.
func (e *EndeeIndex) Name() string { return "endee" }

// Close is a no-op; the HTTP client holds no dedicated resources.
func (e *EndeeIndex) Close() error { return nil }

func (e *EndeeIndex) post(ctx context.Context, path string, body any, allowNotFound bool) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("endee: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("endee: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	e.authorize(req)

	resp, err := e.client.Do(req)
	if err != nil {
		return fmt.Errorf("endee: request failed: %w", err)
	}
	defer resp.Body.Close()

	if allowNotFound && resp.StatusCode == http.StatusNotFound {
		return nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("endee: POST %s: HTTP %d: %s", path, resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	return nil
}

func (e *EndeeIndex) authorize(req *http.Request) {
	if e.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+e.apiKey)
	}
}
