// Command ragqa answers questions about a local document collection using
// embedding retrieval and a rule-based answer synthesizer. Documents are
// ingested into a local vector cache (and optionally a remote vector index)
// with `ragqa ingest`, then queried with `ragqa ask` or `ragqa chat`.
package main

import (
	"fmt"
	"os"

	"github.com/54b3r/ragqa-go/cmd/ragqa/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
