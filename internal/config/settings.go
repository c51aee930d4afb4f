package config

import (
	"fmt"
	"os"
	"strconv"
)

// Defaults applied by FromEnv when a variable is unset.
const (
	DefaultCachePath  = "local_vectors.json"
	DefaultDocsDir    = "data/documents"
	DefaultTopK       = 3
	DefaultIndexName  = "rag_index"
	DefaultEndeeURL   = "http://localhost:8080"
	DefaultQdrantHost = "localhost"
	DefaultQdrantPort = 6334
)

// Remote index backends accepted by INDEX_BACKEND.
const (
	IndexBackendNone     = "none"
	IndexBackendQdrant   = "qdrant"
	IndexBackendEndee    = "endee"
	IndexBackendPGVector = "pgvector"
)

// Settings is the resolved runtime configuration read from the environment
// after Load and LoadDotEnv have run.
type Settings struct {
	// CachePath is the local vector cache snapshot (RAGQA_CACHE).
	CachePath string
	// DocsDir is the documents directory for ingest (RAGQA_DOCS).
	DocsDir string
	// TopK is the candidate count per question (RAGQA_TOP_K).
	TopK int
	// MetricsFile receives Prometheus text metrics when set (RAGQA_METRICS_FILE).
	MetricsFile string

	// IndexBackend is qdrant, endee, pgvector, or none (INDEX_BACKEND).
	IndexBackend string
	// IndexName is the remote index name (INDEX_NAME).
	IndexName string

	QdrantHost   string
	QdrantPort   int
	QdrantAPIKey string
	QdrantTLS    bool

	EndeeURL    string
	EndeeAPIKey string

	PGVectorDSN string

	// EmbeddingRPS limits ingestion embedding calls per second (EMBEDDING_RPS).
	EmbeddingRPS float64
}

// FromEnv resolves Settings from environment variables with defaults.
func FromEnv() Settings {
	return Settings{
		CachePath:    envOr("RAGQA_CACHE", DefaultCachePath),
		DocsDir:      envOr("RAGQA_DOCS", DefaultDocsDir),
		TopK:         envInt("RAGQA_TOP_K", DefaultTopK),
		MetricsFile:  os.Getenv("RAGQA_METRICS_FILE"),
		IndexBackend: envOr("INDEX_BACKEND", IndexBackendNone),
		IndexName:    envOr("INDEX_NAME", DefaultIndexName),
		QdrantHost:   envOr("QDRANT_HOST", DefaultQdrantHost),
		QdrantPort:   envInt("QDRANT_PORT", DefaultQdrantPort),
		QdrantAPIKey: os.Getenv("QDRANT_API_KEY"),
		QdrantTLS:    os.Getenv("QDRANT_TLS") == "true",
		EndeeURL:     envOr("ENDEE_URL", DefaultEndeeURL),
		EndeeAPIKey:  os.Getenv("ENDEE_API_KEY"),
		PGVectorDSN:  os.Getenv("PGVECTOR_DSN"),
		EmbeddingRPS: envFloat("EMBEDDING_RPS", 0),
	}
}

// Validate rejects settings that cannot work regardless of which command runs.
func (s Settings) Validate() error {
	switch s.IndexBackend {
	case IndexBackendNone, IndexBackendQdrant, IndexBackendEndee:
	case IndexBackendPGVector:
		if s.PGVectorDSN == "" {
			return fmt.Errorf("config: INDEX_BACKEND=pgvector requires PGVECTOR_DSN")
		}
	default:
		return fmt.Errorf("config: unknown INDEX_BACKEND %q (valid: qdrant, endee, pgvector, none)", s.IndexBackend)
	}
	if s.TopK <= 0 {
		return fmt.Errorf("config: RAGQA_TOP_K must be positive, got %d", s.TopK)
	}
	if s.CachePath == "" {
		return fmt.Errorf("config: RAGQA_CACHE must not be empty")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}
