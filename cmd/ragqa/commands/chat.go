package commands

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/54b3r/ragqa-go/internal/logging"
	"github.com/54b3r/ragqa-go/internal/tui"
)

// NewChatCmd constructs the `ragqa chat` command, an interactive loop that
// answers questions one after another against the same loaded cache.
func NewChatCmd() *cobra.Command {
	var cachePath string

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Ask questions interactively in a terminal UI",
		Long: `Open a full-screen question loop over the local vector cache.

The cache and the embedding model are loaded once; every question is answered
against the same data. Logging is silenced while the UI owns the terminal.

Keys: Enter asks, PgUp/PgDn scroll the answer, Esc or Ctrl+C quits.

Examples:
  ragqa chat
  ragqa chat --cache vectors.db`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			s := run.settings
			if cachePath != "" {
				s.CachePath = cachePath
			}
			sess, err := openSession(ctx, s)
			if err != nil {
				return fmt.Errorf("chat: %w", err)
			}
			defer sess.close()

			summary := fmt.Sprintf("%s: %d chunks, dimension %d", s.CachePath, sess.cache.Len(), sess.cache.Dimension())
			model := tui.New(logging.WithLogger(ctx, logging.Discard()), sess, summary)

			p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
			if _, err := p.Run(); err != nil {
				return fmt.Errorf("chat: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&cachePath, "cache", "", "Vector cache path (env: RAGQA_CACHE, default: local_vectors.json)")

	return cmd
}
