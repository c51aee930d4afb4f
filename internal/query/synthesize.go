package query

import (
	"fmt"
	"strings"
)

const (
	// maxDefinitionSegments caps definition sentences collected from a passage.
	maxDefinitionSegments = 2
	// maxWorkingStepsDefinition caps "How it works" steps under a definition.
	maxWorkingStepsDefinition = 4
	// maxWorkingStepsProcess caps "How it works" steps for how-questions.
	maxWorkingStepsProcess = 5
	// fallbackAnswerRunes is how much raw passage text other questions get.
	fallbackAnswerRunes = 600
)

// workingCues mark a sentence as describing how something works.
var workingCues = []string{"how does", "front end", "back end", "servers"}

// answerStyle is the output layout chosen from the question's leading word.
// It is derived separately from Intent: the filter and the formatter are
// allowed to diverge.
type answerStyle int

const (
	styleVerbatim answerStyle = iota
	styleDefinition
	styleProcess
)

func styleFor(question string) answerStyle {
	q := strings.ToLower(question)
	switch {
	case strings.HasPrefix(q, "what"):
		return styleDefinition
	case strings.HasPrefix(q, "how"):
		return styleProcess
	default:
		return styleVerbatim
	}
}

// Synthesize builds a short answer from the best context, contexts[0]. The
// remaining contexts are not consulted. An empty contexts slice yields "".
func Synthesize(contexts []string, question string) string {
	if len(contexts) == 0 {
		return ""
	}
	passage := contexts[0]

	var definition, working []string
	for _, segment := range strings.Split(strings.ReplaceAll(passage, "\n", " "), ".") {
		lower := strings.ToLower(segment)
		if strings.Contains(lower, "is") && strings.Contains(lower, "cloud") && len(definition) < maxDefinitionSegments {
			definition = append(definition, strings.TrimSpace(segment))
		}
		if containsAny(workingCues...)(lower) {
			working = append(working, strings.TrimSpace(segment))
		}
	}

	var b strings.Builder
	switch styleFor(question) {
	case styleDefinition:
		b.WriteString("Definition:\n")
		b.WriteString("- " + strings.Join(definition, ". ") + "\n\n")
		if len(working) > 0 {
			writeSteps(&b, working, maxWorkingStepsDefinition)
		}
	case styleProcess:
		writeSteps(&b, working, maxWorkingStepsProcess)
	default:
		return truncateRunes(passage, fallbackAnswerRunes)
	}
	return b.String()
}

func writeSteps(b *strings.Builder, steps []string, limit int) {
	b.WriteString("How it works:\n")
	for i, step := range steps {
		if i == limit {
			break
		}
		fmt.Fprintf(b, "%d. %s\n", i+1, step)
	}
}

// truncateRunes returns at most n runes of s.
func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
