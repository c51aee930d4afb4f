package commands

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/54b3r/ragqa-go/internal/embedder"
	"github.com/54b3r/ragqa-go/internal/ingestion"
	"github.com/54b3r/ragqa-go/internal/logging"
	"github.com/54b3r/ragqa-go/internal/rag"
)

// NewIngestCmd constructs the `ragqa ingest` command, which runs the
// ingestion pipeline over a directory of .txt documents.
func NewIngestCmd() *cobra.Command {
	var docsDir string
	var cachePath string
	var noReset bool

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Chunk, embed, and index a directory of .txt documents",
		Long: `Read every .txt file in the documents directory, split it into chunks of
300 words, embed the chunks, and write the local vector cache that 'ragqa ask'
reads. When INDEX_BACKEND is set the vectors are also upserted into a remote
index, which is deleted and recreated first unless --no-reset is given.

A cache path ending in .db or .sqlite is written as SQLite; anything else is
written as JSON.

Relevant environment variables:
  EMBEDDING_PROVIDER   local, ollama, openai, azure (default: local)
  EMBEDDING_RPS        Embedding calls per second (default: unlimited)
  INDEX_BACKEND        qdrant, endee, pgvector, none (default: none)
  INDEX_NAME           Remote index name (default: rag_index)
  QDRANT_*, ENDEE_*, PGVECTOR_DSN  Backend connection settings

Examples:
  ragqa ingest
  ragqa ingest --docs ./data/documents --cache vectors.db
  INDEX_BACKEND=qdrant ragqa ingest --no-reset`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			log := logging.FromContext(ctx)

			s := run.settings
			if docsDir != "" {
				s.DocsDir = docsDir
			}
			if cachePath != "" {
				s.CachePath = cachePath
			}
			if err := s.Validate(); err != nil {
				return fmt.Errorf("ingest: %w", err)
			}
			if err := embedder.ValidateForIndex(log); err != nil {
				return fmt.Errorf("ingest: %w", err)
			}

			emb, closeEmb, err := buildEmbedder(ctx)
			if err != nil {
				return fmt.Errorf("ingest: failed to initialise embedder: %w", err)
			}
			defer closeEmb()

			remote, err := buildIndex(ctx, s)
			if err != nil {
				return fmt.Errorf("ingest: %w", err)
			}
			var index rag.Index
			if remote != nil {
				defer remote.Close()
				index = remote
				log.Info("remote index ready", slog.String("backend", s.IndexBackend), slog.String("index", s.IndexName))
			}

			pipeline, err := ingestion.NewPipeline(emb, index, &ingestion.Config{
				IndexName: s.IndexName,
				Dimension: embedder.DefaultDimensions(embedder.Backend()),
				CachePath: s.CachePath,
				RPS:       s.EmbeddingRPS,
				SkipReset: noReset,
			}, run.metrics)
			if err != nil {
				return fmt.Errorf("ingest: failed to create pipeline: %w", err)
			}

			log.Info("starting ingestion", slog.String("docs", s.DocsDir), slog.String("cache", s.CachePath))
			summary, err := pipeline.Ingest(ctx, s.DocsDir, func(msg string) {
				log.Info(msg)
			})
			if err != nil {
				return fmt.Errorf("ingest: %w", err)
			}

			log.Info("ingestion complete",
				slog.Int("files", summary.Files),
				slog.Int("chunks", summary.Chunks),
				slog.String("cache", summary.CachePath),
			)
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Ingested %d chunks from %d files into %s\n",
				summary.Chunks, summary.Files, summary.CachePath)
			return err
		},
	}

	cmd.Flags().StringVarP(&docsDir, "docs", "d", "", "Documents directory (env: RAGQA_DOCS, default: data/documents)")
	cmd.Flags().StringVar(&cachePath, "cache", "", "Vector cache output path (env: RAGQA_CACHE, default: local_vectors.json)")
	cmd.Flags().BoolVar(&noReset, "no-reset", false, "Keep the existing remote index instead of recreating it")

	return cmd
}
