package embedder

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
)

// knownChatModelFragments identify chat/completion models, which are not
// suitable for embedding.
var knownChatModelFragments = []string{
	"gpt-4",
	"gpt-3.5",
	"gpt-35",
	"o1",
	"o3",
	"llama3",
	"llama2",
	"llama-3",
	"llama-2",
	"mistral",
	"mixtral",
	"gemma",
	"phi-",
	"phi3",
	"claude",
	"command-r",
	"deepseek",
	"qwen",
}

// looksLikeChatModel returns true when the model name resembles a known
// chat/completion model rather than a dedicated embedding model.
func looksLikeChatModel(model string) bool {
	lower := strings.ToLower(model)
	for _, fragment := range knownChatModelFragments {
		if strings.Contains(lower, fragment) {
			return true
		}
	}
	return false
}

// ValidateForIndex is the pre-flight check run before ingestion or a question
// session. It returns an error when the embedding configuration is clearly
// broken (unknown backend, missing credentials) and logs warnings for
// configurations that work but will likely produce a mismatched index.
func ValidateForIndex(log *slog.Logger) error {
	backend := Backend()

	switch backend {
	case "local", "ollama":
	case "openai":
		if firstEnv("EMBEDDING_API_KEY", "OPENAI_API_KEY") == "" {
			return fmt.Errorf("embedder: no OpenAI API key found, set OPENAI_API_KEY or EMBEDDING_API_KEY")
		}
	case "azure":
		if firstEnv("EMBEDDING_API_KEY", "AZURE_OPENAI_API_KEY") == "" {
			return fmt.Errorf("embedder: no Azure API key found, set AZURE_OPENAI_API_KEY or EMBEDDING_API_KEY")
		}
		if firstEnv("EMBEDDING_ENDPOINT", "AZURE_OPENAI_ENDPOINT") == "" {
			return fmt.Errorf("embedder: no Azure endpoint found, set AZURE_OPENAI_ENDPOINT or EMBEDDING_ENDPOINT")
		}
	default:
		return fmt.Errorf("embedder: unknown backend %q (valid: local, ollama, openai, azure)", backend)
	}

	model := os.Getenv("EMBEDDING_MODEL")
	if model != "" && looksLikeChatModel(model) {
		log.Warn("embedder: EMBEDDING_MODEL looks like a chat model, not an embedding model",
			slog.String("model", model),
			slog.String("hint", "use a dedicated embedding model e.g. all-MiniLM-L6-v2, nomic-embed-text, text-embedding-3-small"),
		)
	}

	// The local model has a fixed output size; a different dimension here
	// would create a remote index the vectors cannot be written to.
	if backend == "local" && model == "" {
		if d := getEnvInt("EMBEDDING_DIMENSIONS", 0); d > 0 && d != defaultLocalDimensions {
			log.Warn("embedder: EMBEDDING_DIMENSIONS does not match the local model",
				slog.Int("configured", d),
				slog.Int("model_dimensions", defaultLocalDimensions),
			)
		}
	}

	return nil
}
