// Package commands defines all Cobra CLI commands for the ragqa binary.
package commands

import (
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/54b3r/ragqa-go/internal/audit"
	"github.com/54b3r/ragqa-go/internal/config"
	"github.com/54b3r/ragqa-go/internal/logging"
	"github.com/54b3r/ragqa-go/internal/metrics"
)

// configPath holds the --config flag value for YAML config file override.
var configPath string

// metricsFile holds the --metrics-file flag value.
var metricsFile string

// run is the per-invocation state set up by the root pre-run hook.
var run struct {
	log      *slog.Logger
	metrics  *metrics.Metrics
	started  time.Time
	settings config.Settings
}

// NewRootCmd constructs the root Cobra command that all subcommands attach to.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "ragqa",
		Short: "ragqa answers questions about your documents",
		Long: `ragqa is a local retrieval question-answering tool.

'ragqa ingest' splits the .txt files in a directory into chunks, embeds them,
and writes a local vector cache (optionally mirroring the vectors into a
remote index: Qdrant, Endee, or pgvector). 'ragqa ask' and 'ragqa chat' embed
a question, rank the cached chunks by cosine similarity, and compose an answer
from the passages that clear the relevance gates.

Configuration comes from environment variables, optionally seeded from a
.env file and a YAML config file (~/.ragqa/config.yaml).
See 'ragqa --help' for available commands.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			log := logging.New()

			if _, err := config.LoadDotEnv(log); err != nil {
				return err
			}

			// Load YAML config (env vars always override YAML values).
			path, err := config.Load(configPath, log)
			if err != nil {
				return err
			}

			// LOG_* may have come from the files loaded above.
			log = logging.New()
			audit.LogCommandStart(log, cmd.Name(), path)

			run.log = log
			run.started = time.Now()
			run.metrics = metrics.New(prometheus.NewRegistry())
			run.settings = config.FromEnv()
			if metricsFile != "" {
				run.settings.MetricsFile = metricsFile
			}

			cmd.SetContext(logging.WithLogger(cmd.Context(), log))
			return nil
		},
	}

	root.PersistentFlags().StringVar(&configPath, "config", "", "Path to YAML config file (default: ~/.ragqa/config.yaml)")
	root.PersistentFlags().StringVar(&metricsFile, "metrics-file", "", "Write Prometheus text metrics to this file after the command (env: RAGQA_METRICS_FILE)")

	root.AddCommand(
		NewAskCmd(),
		NewChatCmd(),
		NewIngestCmd(),
		NewCheckCmd(),
		NewVersionCmd(),
	)

	return root
}

// Execute runs the root command, then writes metrics and the closing audit
// entry. Both happen even when the command fails, which cobra's post-run
// hooks do not guarantee.
func Execute() error {
	cmd, err := NewRootCmd().ExecuteC()
	if run.log == nil {
		return err
	}

	if path := run.settings.MetricsFile; path != "" {
		if werr := run.metrics.WriteFile(path); werr != nil {
			run.log.Warn("metrics: write failed", slog.String("path", path), slog.Any("error", werr))
		} else {
			run.log.Debug("metrics: written", slog.String("path", path))
		}
	}

	audit.LogCommandEnd(run.log, cmd.Name(), run.started, err)
	return err
}
