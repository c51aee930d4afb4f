package config

import (
	"strings"
	"testing"
)

var settingsEnvKeys = []string{
	"RAGQA_CACHE", "RAGQA_DOCS", "RAGQA_TOP_K", "RAGQA_METRICS_FILE",
	"INDEX_BACKEND", "INDEX_NAME", "QDRANT_HOST", "QDRANT_PORT", "QDRANT_API_KEY",
	"QDRANT_TLS", "ENDEE_URL", "ENDEE_API_KEY", "PGVECTOR_DSN", "EMBEDDING_RPS",
}

func clearSettingsEnv(t *testing.T) {
	t.Helper()
	for _, k := range settingsEnvKeys {
		t.Setenv(k, "")
	}
}

func TestFromEnv_Defaults(t *testing.T) {
	clearSettingsEnv(t)

	s := FromEnv()
	if s.CachePath != DefaultCachePath || s.DocsDir != DefaultDocsDir || s.TopK != DefaultTopK {
		t.Errorf("unexpected app defaults: %+v", s)
	}
	if s.IndexBackend != IndexBackendNone || s.IndexName != DefaultIndexName {
		t.Errorf("unexpected index defaults: %+v", s)
	}
	if s.EndeeURL != DefaultEndeeURL || s.QdrantHost != DefaultQdrantHost || s.QdrantPort != DefaultQdrantPort {
		t.Errorf("unexpected backend defaults: %+v", s)
	}
	if err := s.Validate(); err != nil {
		t.Errorf("defaults must validate: %v", err)
	}
}

func TestFromEnv_Overrides(t *testing.T) {
	clearSettingsEnv(t)
	t.Setenv("RAGQA_TOP_K", "7")
	t.Setenv("INDEX_BACKEND", "qdrant")
	t.Setenv("QDRANT_TLS", "true")
	t.Setenv("EMBEDDING_RPS", "1.5")
	t.Setenv("QDRANT_PORT", "not-a-number")

	s := FromEnv()
	if s.TopK != 7 || s.IndexBackend != "qdrant" || !s.QdrantTLS || s.EmbeddingRPS != 1.5 {
		t.Errorf("overrides not applied: %+v", s)
	}
	if s.QdrantPort != DefaultQdrantPort {
		t.Errorf("unparseable port should fall back, got %d", s.QdrantPort)
	}
}

func TestSettings_Validate(t *testing.T) {
	t.Parallel()
	base := Settings{CachePath: "c.json", TopK: 3, IndexBackend: IndexBackendNone}

	tests := []struct {
		name    string
		mutate  func(*Settings)
		wantErr string
	}{
		{name: "ok", mutate: func(*Settings) {}},
		{name: "unknown backend", mutate: func(s *Settings) { s.IndexBackend = "milvus" }, wantErr: "unknown INDEX_BACKEND"},
		{name: "pgvector without dsn", mutate: func(s *Settings) { s.IndexBackend = IndexBackendPGVector }, wantErr: "PGVECTOR_DSN"},
		{name: "zero top k", mutate: func(s *Settings) { s.TopK = 0 }, wantErr: "RAGQA_TOP_K"},
		{name: "empty cache", mutate: func(s *Settings) { s.CachePath = "" }, wantErr: "RAGQA_CACHE"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			s := base
			tc.mutate(&s)
			err := s.Validate()
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("want error containing %q, got %v", tc.wantErr, err)
			}
		})
	}
}
