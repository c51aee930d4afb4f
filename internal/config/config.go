// Package config provides YAML-based configuration for ragqa.
// Configuration is loaded with a layered precedence: defaults → .env → YAML
// file → env vars. Variables already set in the environment always win.
//
// File search order:
//  1. --config CLI flag (explicit path)
//  2. RAGQA_CONFIG environment variable
//  3. ~/.ragqa/config.yaml
//  4. ./ragqa.yaml
//
// If no file is found the system runs entirely from env vars.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the top-level YAML configuration structure.
// Field names use yaml tags that mirror the env var naming (lowercase, underscored).
type Config struct {
	// Embedding configures the embedding provider shared by ingest and ask.
	Embedding EmbeddingConfig `yaml:"embedding"`

	// Index configures the remote vector index written by ingest.
	Index IndexConfig `yaml:"index"`

	// App configures paths and retrieval settings.
	App AppConfig `yaml:"app"`

	// Logging configures structured logging.
	Logging LoggingConfig `yaml:"logging"`
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	// Provider selects the embedding backend (local, ollama, openai, azure).
	Provider string `yaml:"provider"`
	// Model is the embedding model name.
	Model string `yaml:"model"`
	// Dimensions overrides the embedding vector size.
	Dimensions int `yaml:"dimensions"`
	// APIKey is the embedding API key. Prefer env var EMBEDDING_API_KEY.
	APIKey string `yaml:"api_key"`
	// Endpoint is the embedding API endpoint.
	Endpoint string `yaml:"endpoint"`
	// ModelDir is where the local backend caches downloaded models.
	ModelDir string `yaml:"model_dir"`
	// RPS limits embedding calls per second during ingestion.
	RPS float32 `yaml:"rps"`

	// Ollama holds Ollama-specific settings.
	Ollama OllamaConfig `yaml:"ollama"`
	// OpenAI holds OpenAI-specific settings.
	OpenAI OpenAIConfig `yaml:"openai"`
	// Azure holds Azure OpenAI-specific settings.
	Azure AzureConfig `yaml:"azure"`
}

// OllamaConfig holds Ollama provider settings.
type OllamaConfig struct {
	// Host is the Ollama API endpoint.
	Host string `yaml:"host"`
}

// OpenAIConfig holds OpenAI provider settings.
type OpenAIConfig struct {
	// APIKey is the OpenAI API key. Prefer env var OPENAI_API_KEY.
	APIKey string `yaml:"api_key"`
}

// AzureConfig holds Azure OpenAI provider settings.
type AzureConfig struct {
	// APIKey is the Azure OpenAI API key. Prefer env var AZURE_OPENAI_API_KEY.
	APIKey string `yaml:"api_key"`
	// Endpoint is the Azure OpenAI resource endpoint.
	Endpoint string `yaml:"endpoint"`
	// APIVersion is the Azure OpenAI API version.
	APIVersion string `yaml:"api_version"`
}

// IndexConfig holds remote vector index settings.
type IndexConfig struct {
	// Backend selects the remote index: qdrant, endee, pgvector, none.
	Backend string `yaml:"backend"`
	// Name is the index (collection, table) name.
	Name string `yaml:"name"`

	// Qdrant holds Qdrant connection settings.
	Qdrant QdrantConfig `yaml:"qdrant"`
	// Endee holds Endee HTTP settings.
	Endee EndeeConfig `yaml:"endee"`
	// PGVector holds Postgres settings.
	PGVector PGVectorConfig `yaml:"pgvector"`
}

// QdrantConfig holds Qdrant vector store settings.
type QdrantConfig struct {
	// Host is the Qdrant server hostname.
	Host string `yaml:"host"`
	// Port is the Qdrant gRPC port.
	Port int `yaml:"port"`
	// APIKey is the Qdrant API key. Prefer env var QDRANT_API_KEY.
	APIKey string `yaml:"api_key"`
	// TLS enables TLS for the Qdrant connection.
	TLS bool `yaml:"tls"`
}

// EndeeConfig holds Endee vector database settings.
type EndeeConfig struct {
	// URL is the Endee base URL.
	URL string `yaml:"url"`
	// APIKey is the Endee bearer token. Prefer env var ENDEE_API_KEY.
	APIKey string `yaml:"api_key"`
}

// PGVectorConfig holds Postgres + pgvector settings.
type PGVectorConfig struct {
	// DSN is the connection string. Prefer env var PGVECTOR_DSN.
	DSN string `yaml:"dsn"`
}

// AppConfig holds ragqa paths and retrieval settings.
type AppConfig struct {
	// Cache is the local vector cache snapshot path.
	Cache string `yaml:"cache"`
	// Docs is the documents directory read by ingest.
	Docs string `yaml:"docs"`
	// TopK is the number of ranked candidates considered per question.
	TopK int `yaml:"top_k"`
	// MetricsFile is where Prometheus text metrics are written after a command.
	MetricsFile string `yaml:"metrics_file"`
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error.
	Level string `yaml:"level"`
	// Format is the log output format: json, text.
	Format string `yaml:"format"`
}

// envMapping maps YAML config fields to their corresponding env var names.
// Only non-empty YAML values are applied; env vars always take precedence.
var envMapping = []struct {
	envKey string
	value  func(*Config) string
}{
	{"EMBEDDING_PROVIDER", func(c *Config) string { return c.Embedding.Provider }},
	{"EMBEDDING_MODEL", func(c *Config) string { return c.Embedding.Model }},
	{"EMBEDDING_DIMENSIONS", func(c *Config) string { return intStr(c.Embedding.Dimensions) }},
	{"EMBEDDING_API_KEY", func(c *Config) string { return c.Embedding.APIKey }},
	{"EMBEDDING_ENDPOINT", func(c *Config) string { return c.Embedding.Endpoint }},
	{"EMBEDDING_MODEL_DIR", func(c *Config) string { return c.Embedding.ModelDir }},
	{"EMBEDDING_RPS", func(c *Config) string { return float32Str(c.Embedding.RPS) }},
	{"OLLAMA_HOST", func(c *Config) string { return c.Embedding.Ollama.Host }},
	{"OPENAI_API_KEY", func(c *Config) string { return c.Embedding.OpenAI.APIKey }},
	{"AZURE_OPENAI_API_KEY", func(c *Config) string { return c.Embedding.Azure.APIKey }},
	{"AZURE_OPENAI_ENDPOINT", func(c *Config) string { return c.Embedding.Azure.Endpoint }},
	{"AZURE_OPENAI_API_VERSION", func(c *Config) string { return c.Embedding.Azure.APIVersion }},
	{"INDEX_BACKEND", func(c *Config) string { return c.Index.Backend }},
	{"INDEX_NAME", func(c *Config) string { return c.Index.Name }},
	{"QDRANT_HOST", func(c *Config) string { return c.Index.Qdrant.Host }},
	{"QDRANT_PORT", func(c *Config) string { return intStr(c.Index.Qdrant.Port) }},
	{"QDRANT_API_KEY", func(c *Config) string { return c.Index.Qdrant.APIKey }},
	{"QDRANT_TLS", func(c *Config) string { return boolStr(c.Index.Qdrant.TLS) }},
	{"ENDEE_URL", func(c *Config) string { return c.Index.Endee.URL }},
	{"ENDEE_API_KEY", func(c *Config) string { return c.Index.Endee.APIKey }},
	{"PGVECTOR_DSN", func(c *Config) string { return c.Index.PGVector.DSN }},
	{"RAGQA_CACHE", func(c *Config) string { return c.App.Cache }},
	{"RAGQA_DOCS", func(c *Config) string { return c.App.Docs }},
	{"RAGQA_TOP_K", func(c *Config) string { return intStr(c.App.TopK) }},
	{"RAGQA_METRICS_FILE", func(c *Config) string { return c.App.MetricsFile }},
	{"LOG_LEVEL", func(c *Config) string { return c.Logging.Level }},
	{"LOG_FORMAT", func(c *Config) string { return c.Logging.Format }},
}

// Load reads a YAML config file and applies non-empty values as environment
// variables. Existing env vars are never overwritten (env always wins).
// Returns the path that was loaded, or empty string if no file was found.
func Load(explicitPath string, log *slog.Logger) (string, error) {
	path := resolveConfigPath(explicitPath)
	if path == "" {
		log.Debug("config: no YAML config file found, using env vars only")
		return "", nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("config: failed to read %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return "", fmt.Errorf("config: failed to parse %s: %w", path, err)
	}

	applied := 0
	for _, m := range envMapping {
		yamlVal := m.value(&cfg)
		if yamlVal == "" {
			continue
		}
		if os.Getenv(m.envKey) != "" {
			continue
		}
		if err := os.Setenv(m.envKey, yamlVal); err != nil {
			return "", fmt.Errorf("config: set %s: %w", m.envKey, err)
		}
		applied++
	}

	log.Info("config: loaded YAML config",
		slog.String("path", path),
		slog.Int("keys_applied", applied),
	)

	return path, nil
}

// LoadDotEnv loads KEY=VALUE pairs from the given .env files (default:
// ./.env) without overriding variables that are already set. Missing files
// are skipped. It returns the files that were read.
func LoadDotEnv(log *slog.Logger, paths ...string) ([]string, error) {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	var loaded []string
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return loaded, fmt.Errorf("config: failed to load %s: %w", p, err)
		}
		loaded = append(loaded, p)
		log.Debug("config: loaded .env file", slog.String("path", p))
	}
	return loaded, nil
}

// resolveConfigPath returns the first config file path that exists.
func resolveConfigPath(explicit string) string {
	if explicit != "" {
		if _, err := os.Stat(explicit); err == nil {
			return explicit
		}
		return ""
	}

	if envPath := os.Getenv("RAGQA_CONFIG"); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	home, err := os.UserHomeDir()
	if err == nil {
		p := filepath.Join(home, ".ragqa", "config.yaml")
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	if _, err := os.Stat("ragqa.yaml"); err == nil {
		return "ragqa.yaml"
	}

	return ""
}

// intStr converts an int to string, returning "" for zero values.
func intStr(v int) string {
	if v == 0 {
		return ""
	}
	return fmt.Sprintf("%d", v)
}

// float32Str converts a float32 to string, returning "" for zero values.
func float32Str(v float32) string {
	if v == 0 {
		return ""
	}
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.4f", v), "0"), ".")
}

// boolStr converts a bool to string, returning "" for false.
func boolStr(v bool) string {
	if !v {
		return ""
	}
	return "true"
}
