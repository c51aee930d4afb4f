package commands

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/54b3r/ragqa-go/internal/query"
)

// NewAskCmd constructs the `ragqa ask` command, which answers a single
// question against the local vector cache and prints the result to stdout.
func NewAskCmd() *cobra.Command {
	var cachePath string

	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Answer one question from the ingested documents",
		Long: `Answer a single question using the local vector cache written by 'ragqa ingest'.

The question is embedded with the configured embedding provider, ranked
against every cached chunk by cosine similarity, and answered from the
passages that clear the relevance gates. Without an argument the question is
read from stdin.

The embedding configuration must match the one used for ingestion.

Examples:
  ragqa ask "What is cloud computing?"
  ragqa ask --cache vectors.db "How does edge computing work?"
  echo "Define virtualization" | ragqa ask`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			question, err := questionFrom(args, cmd.InOrStdin(), cmd.OutOrStdout())
			if err != nil {
				return fmt.Errorf("ask: %w", err)
			}

			s := run.settings
			if cachePath != "" {
				s.CachePath = cachePath
			}
			sess, err := openSession(ctx, s)
			if err != nil {
				return fmt.Errorf("ask: %w", err)
			}
			defer sess.close()

			res, err := sess.Ask(ctx, question)
			if err != nil {
				return fmt.Errorf("ask: %w", err)
			}
			return printResult(cmd.OutOrStdout(), res)
		},
	}

	cmd.Flags().StringVar(&cachePath, "cache", "", "Vector cache path (env: RAGQA_CACHE, default: local_vectors.json)")

	return cmd
}

// questionFrom returns the question argument, or prompts on out and reads
// one line from in when no argument was given.
func questionFrom(args []string, in io.Reader, out io.Writer) (string, error) {
	var q string
	if len(args) > 0 {
		q = args[0]
	} else {
		if _, err := fmt.Fprint(out, "Ask a question: "); err != nil {
			return "", err
		}
		line, err := bufio.NewReader(in).ReadString('\n')
		if err != nil && err != io.EOF {
			return "", fmt.Errorf("read question: %w", err)
		}
		q = line
	}
	q = strings.TrimSpace(q)
	if q == "" {
		return "", fmt.Errorf("question must not be empty")
	}
	return q, nil
}

var (
	headingColor = color.New(color.Bold, color.FgCyan)
	noMatchColor = color.New(color.FgYellow)
)

// printResult writes r in the plain format. On a colour terminal the section
// headings are highlighted; the text is otherwise identical.
func printResult(w io.Writer, r *query.Result) error {
	if color.NoColor {
		return query.Render(w, r)
	}

	var b strings.Builder
	b.WriteString("\n")
	headingColor.Fprintf(&b, " Best similarity score: %.3f\n", r.BestScore)
	b.WriteString("\n")
	headingColor.Fprint(&b, " Retrieved Context:\n")
	if r.NoMatch() {
		b.WriteString("No relevant context found.\n\n")
		headingColor.Fprint(&b, " Answer:\n")
		noMatchColor.Fprintln(&b, query.NoMatchMessage)
	} else {
		for _, c := range r.Contexts {
			fmt.Fprintf(&b, "- %s ...\n", query.Snippet(c))
		}
		b.WriteString("\n")
		headingColor.Fprint(&b, " Answer:\n")
		b.WriteString(r.Answer + "\n")
	}
	_, err := io.WriteString(w, b.String())
	return err
}
