// Package audit provides a structured audit logger for CLI command invocations.
// It logs the command name, resolved configuration, and sanitised environment
// state so operators can trace what happened without exposing secret values.
//
// Secrets, and connection strings that may embed them, are logged as
// presence/absence only.
package audit

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"time"
)

// auditEntry defines an env var to include in the audit log.
type auditEntry struct {
	// key is the environment variable name.
	key string
	// secret indicates the value should be redacted to presence/absence.
	secret bool
}

// auditKeys is the ordered list of env vars included in every audit log entry.
var auditKeys = []auditEntry{
	{"EMBEDDING_PROVIDER", false},
	{"EMBEDDING_MODEL", false},
	{"EMBEDDING_DIMENSIONS", false},
	{"EMBEDDING_ENDPOINT", false},
	{"EMBEDDING_API_KEY", true},
	{"OLLAMA_HOST", false},
	{"OPENAI_API_KEY", true},
	{"AZURE_OPENAI_ENDPOINT", false},
	{"AZURE_OPENAI_API_KEY", true},
	{"INDEX_BACKEND", false},
	{"INDEX_NAME", false},
	{"QDRANT_HOST", false},
	{"QDRANT_PORT", false},
	{"QDRANT_API_KEY", true},
	{"ENDEE_URL", false},
	{"ENDEE_API_KEY", true},
	{"PGVECTOR_DSN", true},
	{"RAGQA_CACHE", false},
	{"RAGQA_DOCS", false},
	{"RAGQA_TOP_K", false},
	{"LOG_LEVEL", false},
	{"LOG_FORMAT", false},
}

// secretEnvKeys lists environment variable names whose values must never be
// logged. Derived from auditKeys.
var secretEnvKeys = func() map[string]bool {
	m := make(map[string]bool)
	for _, e := range auditKeys {
		if e.secret {
			m[e.key] = true
		}
	}
	return m
}()

// LogCommandStart emits a structured audit log entry when a CLI command begins.
// It records the command name, config file source, and sanitised environment.
func LogCommandStart(log *slog.Logger, command string, configPath string) {
	attrs := []slog.Attr{
		slog.String("command", command),
		slog.String("config_file", sanitiseConfigPath(configPath)),
	}
	for _, entry := range auditKeys {
		attrs = append(attrs, slog.String(entry.key, SanitiseKey(entry.key, os.Getenv(entry.key))))
	}
	log.LogAttrs(context.Background(), slog.LevelInfo, "audit: command start", attrs...)
}

// LogCommandEnd emits the matching entry when a command finishes.
func LogCommandEnd(log *slog.Logger, command string, started time.Time, err error) {
	attrs := []slog.Attr{
		slog.String("command", command),
		slog.Duration("duration", time.Since(started)),
		slog.Bool("ok", err == nil),
	}
	level := slog.LevelInfo
	if err != nil {
		level = slog.LevelWarn
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	log.LogAttrs(context.Background(), level, "audit: command end", attrs...)
}

// SanitiseKey returns "set" or "unset" for known secret keys, or the actual
// value for non-secret keys. This is safe to use in log messages.
func SanitiseKey(key, value string) string {
	if secretEnvKeys[key] {
		return presence(value)
	}
	return valOrUnset(value)
}

// presence returns "set" if the value is non-empty, "unset" otherwise.
func presence(v string) string {
	if v != "" {
		return "set"
	}
	return "unset"
}

// valOrUnset returns the value if non-empty, "unset" otherwise.
func valOrUnset(v string) string {
	if v != "" {
		return v
	}
	return "unset"
}

// sanitiseConfigPath returns the config path or "none" if empty.
func sanitiseConfigPath(p string) string {
	if p == "" {
		return "none"
	}
	// Redact home directory.
	home, err := os.UserHomeDir()
	if err == nil && strings.HasPrefix(p, home) {
		return "~" + p[len(home):]
	}
	return p
}
