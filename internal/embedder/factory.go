package embedder

import (
	"fmt"
	"os"
	"strconv"

	"github.com/54b3r/ragqa-go/internal/rag"
)

// Default embedding models per backend.
const (
	defaultOllamaModel = "nomic-embed-text"
	defaultOpenAIModel = "text-embedding-3-small"

	// defaultOllamaDimensions is the output dimension of nomic-embed-text.
	// Other Ollama models may differ; override with EMBEDDING_DIMENSIONS.
	defaultOllamaDimensions = 768
	// defaultOpenAIDimensions is the output dimension of text-embedding-3-small.
	defaultOpenAIDimensions = 1536
)

// Backend returns the configured embedding backend name (default: local).
func Backend() string {
	return getEnvOrDefault("EMBEDDING_PROVIDER", "local")
}

// DefaultDimensions returns the embedding vector size for the given backend.
// Index creation uses it so the remote index matches the cache.
// EMBEDDING_DIMENSIONS always takes precedence when set.
func DefaultDimensions(backend string) int {
	if v := getEnvInt("EMBEDDING_DIMENSIONS", 0); v > 0 {
		return v
	}
	switch backend {
	case "ollama":
		return defaultOllamaDimensions
	case "openai", "azure":
		return defaultOpenAIDimensions
	default:
		return defaultLocalDimensions
	}
}

// NewFromEnv constructs a rag.Embedder from environment variables.
//
// Resolution order:
//
//  1. EMBEDDING_PROVIDER: local | ollama | openai | azure (default: local)
//  2. EMBEDDING_MODEL overrides the default model for the backend
//  3. EMBEDDING_API_KEY overrides the backend's own key variable
//  4. EMBEDDING_ENDPOINT overrides the backend's default endpoint
//  5. EMBEDDING_DIMENSIONS requests a vector size from OpenAI/Azure
//  6. EMBEDDING_MODEL_DIR sets the local model cache directory
//
// The same configuration must be used for ingestion and for questions, or
// the cache dimension will not match the query vectors.
func NewFromEnv() (rag.Embedder, error) {
	switch backend := Backend(); backend {
	case "local":
		return NewLocalEmbedder(&LocalConfig{
			Model:    getEnv("EMBEDDING_MODEL"),
			ModelDir: getEnv("EMBEDDING_MODEL_DIR"),
		}), nil

	case "ollama":
		host := getEnv("EMBEDDING_ENDPOINT")
		if host == "" {
			host = getEnvOrDefault("OLLAMA_HOST", "http://localhost:11434")
		}
		return NewOllamaEmbedder(&OllamaConfig{
			Host:  host,
			Model: getEnvOrDefault("EMBEDDING_MODEL", defaultOllamaModel),
		}), nil

	case "openai":
		apiKey := firstEnv("EMBEDDING_API_KEY", "OPENAI_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("embedder: openai requires OPENAI_API_KEY or EMBEDDING_API_KEY")
		}
		return NewOpenAIEmbedder(&OpenAIConfig{
			BaseURL:    getEnvOrDefault("EMBEDDING_ENDPOINT", "https://api.openai.com/v1"),
			APIKey:     apiKey,
			Model:      getEnvOrDefault("EMBEDDING_MODEL", defaultOpenAIModel),
			Dimensions: getEnvInt("EMBEDDING_DIMENSIONS", defaultOpenAIDimensions),
		}), nil

	case "azure":
		apiKey := firstEnv("EMBEDDING_API_KEY", "AZURE_OPENAI_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("embedder: azure requires AZURE_OPENAI_API_KEY or EMBEDDING_API_KEY")
		}
		endpoint := firstEnv("EMBEDDING_ENDPOINT", "AZURE_OPENAI_ENDPOINT")
		if endpoint == "" {
			return nil, fmt.Errorf("embedder: azure requires AZURE_OPENAI_ENDPOINT or EMBEDDING_ENDPOINT")
		}
		return NewOpenAIEmbedder(&OpenAIConfig{
			BaseURL:    endpoint + "/openai",
			APIKey:     apiKey,
			Model:      getEnvOrDefault("EMBEDDING_MODEL", defaultOpenAIModel),
			Dimensions: getEnvInt("EMBEDDING_DIMENSIONS", defaultOpenAIDimensions),
			Azure:      true,
			APIVersion: getEnvOrDefault("AZURE_OPENAI_API_VERSION", "2025-04-01-preview"),
		}), nil

	default:
		return nil, fmt.Errorf("embedder: unknown backend %q (valid: local, ollama, openai, azure)", backend)
	}
}

// getEnv returns the value of the named environment variable, or empty string.
func getEnv(key string) string {
	return os.Getenv(key)
}

// firstEnv returns the first non-empty value among keys.
func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}

// getEnvOrDefault returns the value of the named environment variable, or
// fallback if the variable is unset or empty.
func getEnvOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// getEnvInt returns the integer value of the named environment variable, or
// fallback if the variable is unset, empty, or not parseable.
func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}
