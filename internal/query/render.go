package query

import (
	"fmt"
	"io"
)

// NoMatchMessage is shown when no passage qualifies as context.
const NoMatchMessage = "No relevant information was found in the indexed documents. " +
	"Please ask a question related to the uploaded content."

// snippetRunes is the display length of each retrieved context.
const snippetRunes = 200

// Snippet shortens a context for display.
func Snippet(text string) string {
	return truncateRunes(text, snippetRunes)
}

// Render writes the plain-text presentation of r: best score, context
// snippets, and the answer or the no-match message.
func Render(w io.Writer, r *Result) error {
	ew := &errWriter{w: w}

	ew.printf("\n Best similarity score: %.3f\n", r.BestScore)
	ew.printf("\n Retrieved Context:\n")
	if r.NoMatch() {
		ew.printf("No relevant context found.\n")
		ew.printf("\n Answer:\n")
		ew.printf("%s\n", NoMatchMessage)
		return ew.err
	}
	for _, c := range r.Contexts {
		ew.printf("- %s ...\n", Snippet(c))
	}
	ew.printf("\n Answer:\n")
	ew.printf("%s\n", r.Answer)
	return ew.err
}

// errWriter remembers the first write error and skips later writes.
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) printf(format string, args ...any) {
	if e.err != nil {
		return
	}
	_, e.err = fmt.Fprintf(e.w, format, args...)
}
