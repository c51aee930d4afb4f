package commands

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fatih/color"

	"github.com/54b3r/ragqa-go/internal/query"
)

func TestQuestionFrom(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		args       []string
		stdin      string
		want       string
		wantPrompt bool
		wantErr    bool
	}{
		{name: "argument", args: []string{"  What is cloud computing? "}, want: "What is cloud computing?"},
		{name: "stdin line", stdin: "Define edge\nignored\n", want: "Define edge", wantPrompt: true},
		{name: "stdin without newline", stdin: "How does it work?", want: "How does it work?", wantPrompt: true},
		{name: "empty stdin", stdin: "", wantPrompt: true, wantErr: true},
		{name: "blank argument", args: []string{"   "}, wantErr: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			var out bytes.Buffer
			got, err := questionFrom(tc.args, strings.NewReader(tc.stdin), &out)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("want error, got %q", got)
				}
			} else if err != nil {
				t.Fatalf("questionFrom: %v", err)
			}
			if got != tc.want {
				t.Errorf("want %q, got %q", tc.want, got)
			}
			if prompted := out.String() == "Ask a question: "; prompted != tc.wantPrompt {
				t.Errorf("prompt: want %v, got %q", tc.wantPrompt, out.String())
			}
		})
	}
}

func TestPrintResult_PlainMatchesRender(t *testing.T) {
	prev := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = prev })

	res := &query.Result{
		BestScore: 0.8123,
		Contexts:  []string{"Cloud computing is a service."},
		Scores:    []float64{0.8123},
		Answer:    "Definition:\nCloud computing is a service.",
	}

	var got, want bytes.Buffer
	if err := printResult(&got, res); err != nil {
		t.Fatalf("printResult: %v", err)
	}
	if err := query.Render(&want, res); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if got.String() != want.String() {
		t.Errorf("plain output differs from Render:\n%s\nvs\n%s", got.String(), want.String())
	}
	if !strings.Contains(got.String(), " Best similarity score: 0.812") {
		t.Errorf("missing score line: %q", got.String())
	}
}
