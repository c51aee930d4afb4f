package commands

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/54b3r/ragqa-go/internal/embedder"
	"github.com/54b3r/ragqa-go/internal/health"
)

// localProbeTimeout covers a first-run model download.
const localProbeTimeout = 5 * time.Minute

// NewCheckCmd constructs the `ragqa check` command, which probes the
// embedding provider, the remote index, and the local cache.
func NewCheckCmd() *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Probe the embedder, remote index, and vector cache",
		Long: `Check that every dependency of the current configuration is reachable.

Prints one line per dependency and exits non-zero when any probe fails.
The remote index is only probed when INDEX_BACKEND is not none.

Examples:
  ragqa check
  INDEX_BACKEND=qdrant ragqa check --timeout 10s`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			s := run.settings
			if err := s.Validate(); err != nil {
				return fmt.Errorf("check: %w", err)
			}

			emb, err := embedder.NewFromEnv()
			if err != nil {
				return fmt.Errorf("check: %w", err)
			}
			if c, ok := emb.(io.Closer); ok {
				defer c.Close()
			}
			pingers := []health.Pinger{embedderPinger{emb: emb}}

			remote, err := buildIndex(ctx, s)
			if err != nil {
				return fmt.Errorf("check: %w", err)
			}
			if remote != nil {
				defer remote.Close()
				pingers = append(pingers, remote.pinger)
			}
			pingers = append(pingers, health.NewCachePinger(s.CachePath, cacheRecordCount))

			if timeout <= 0 && embedder.Backend() == "local" {
				timeout = localProbeTimeout
			}
			report := health.Check(ctx, timeout, pingers...)
			if err := report.Write(cmd.OutOrStdout()); err != nil {
				return err
			}
			if !report.Healthy {
				return fmt.Errorf("check: one or more dependencies are unhealthy")
			}
			return nil
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", 0, "Per-probe timeout (default: 5s, 5m for the local model)")

	return cmd
}
