// Package embedder provides implementations of the rag.Embedder interface for
// converting questions and document chunks into dense vectors. The default
// backend runs sentence-transformers/all-MiniLM-L6-v2 in-process through
// hugot; Ollama and OpenAI/Azure are reached over plain HTTP.
package embedder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// OpenAIEmbedder embeds chunks and questions through the OpenAI embeddings
// API, or an Azure OpenAI deployment of it. Vectors are checked before they
// are returned so a bad response never reaches the cache.
type OpenAIEmbedder struct {
	baseURL    string
	apiKey     string
	model      string
	dimensions int
	azure      bool
	apiVersion string
	client     *http.Client
}

// OpenAIConfig holds the settings for constructing an OpenAIEmbedder.
type OpenAIConfig struct {
	// BaseURL is "https://api.openai.com/v1" or, for Azure,
	// "https://<resource>.openai.azure.com/openai".
	BaseURL string
	APIKey  string
	// Model is the model name, or the deployment name on Azure.
	Model string
	// Dimensions requests a vector length and is enforced on the response.
	// Zero accepts the model default.
	Dimensions int
	Azure      bool
	// APIVersion is the Azure api-version query parameter.
	APIVersion string
}

// NewOpenAIEmbedder constructs an OpenAIEmbedder from the given config.
func NewOpenAIEmbedder(cfg *OpenAIConfig) *OpenAIEmbedder {
	return &OpenAIEmbedder{
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		dimensions: cfg.Dimensions,
		azure:      cfg.Azure,
		apiVersion: cfg.APIVersion,
		client:     &http.Client{Timeout: httpTimeout},
	}
}

type openaiEmbedRequest struct {
	Input      []string `json:"input"`
	Model      string   `json:"model"`
	Dimensions int      `json:"dimensions,omitempty"`
}

type openaiEmbedResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Embed returns one vector per text, in input order.
func (e *OpenAIEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	payload, err := json.Marshal(openaiEmbedRequest{Input: texts, Model: e.model, Dimensions: e.dimensions})
	if err != nil {
		return nil, fmt.Errorf("embedder: %s: encode request: %w", e.Name(), err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint(), bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("embedder: %s: build request: %w", e.Name(), err)
	}
	req.Header.Set("Content-Type", "application/json")
	e.authorize(req)

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embedder: %s: request: %w", e.Name(), err)
	}
	defer resp.Body.Close()

	vecs, err := decodeOpenAI(resp.StatusCode, resp.Body, len(texts))
	if err != nil {
		return nil, fmt.Errorf("embedder: %s: %w", e.Name(), err)
	}
	if err := checkVectors(vecs, e.dimensions); err != nil {
		return nil, fmt.Errorf("embedder: %s: %w", e.Name(), err)
	}
	return vecs, nil
}

// endpoint returns the embeddings URL. Azure routes by deployment and
// requires an api-version.
func (e *OpenAIEmbedder) endpoint() string {
	if !e.azure {
		return e.baseURL + "/embeddings"
	}
	return e.baseURL + "/deployments/" + url.PathEscape(e.model) +
		"/embeddings?api-version=" + url.QueryEscape(e.apiVersion)
}

func (e *OpenAIEmbedder) authorize(req *http.Request) {
	if e.azure {
		req.Header.Set("api-key", e.apiKey)
		return
	}
	req.Header.Set("Authorization", "Bearer "+e.apiKey)
}

// decodeOpenAI turns an embeddings response into n vectors ordered by their
// index field. Error responses surface the API's own message when present.
func decodeOpenAI(status int, body io.Reader, n int) ([][]float32, error) {
	var result openaiEmbedResponse
	decodeErr := json.NewDecoder(body).Decode(&result)

	if status < 200 || status >= 300 {
		if decodeErr == nil && result.Error != nil {
			return nil, fmt.Errorf("HTTP %d: %s", status, result.Error.Message)
		}
		return nil, fmt.Errorf("HTTP %d", status)
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("decode response: %w", decodeErr)
	}
	if len(result.Data) != n {
		return nil, fmt.Errorf("expected %d embeddings, got %d", n, len(result.Data))
	}

	vecs := make([][]float32, n)
	for _, d := range result.Data {
		if d.Index < 0 || d.Index >= n {
			return nil, fmt.Errorf("index %d out of range [0, %d)", d.Index, n)
		}
		if vecs[d.Index] != nil {
			return nil, fmt.Errorf("duplicate index %d", d.Index)
		}
		vecs[d.Index] = d.Embedding
	}
	return vecs, nil
}

// Name returns the backend label used in errors and health reports.
func (e *OpenAIEmbedder) Name() string {
	if e.azure {
		return "azure"
	}
	return "openai"
}
