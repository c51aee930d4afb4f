package query

import "strings"

// Intent is the coarse answer shape expected by a question.
type Intent int

const (
	IntentGeneral Intent = iota
	IntentPerson
	IntentLocation
	IntentProcess
	IntentDefinition
)

func (i Intent) String() string {
	switch i {
	case IntentPerson:
		return "PERSON"
	case IntentLocation:
		return "LOCATION"
	case IntentProcess:
		return "PROCESS"
	case IntentDefinition:
		return "DEFINITION"
	default:
		return "GENERAL"
	}
}

// intentPrefixes is checked in order against the trimmed, lowercased question.
var intentPrefixes = []struct {
	prefix string
	intent Intent
}{
	{"who", IntentPerson},
	{"where", IntentLocation},
	{"how", IntentProcess},
	{"what", IntentDefinition},
}

// ClassifyIntent maps a question to an Intent from its leading word. It never
// fails: anything unrecognised is IntentGeneral.
func ClassifyIntent(question string) Intent {
	q := strings.ToLower(strings.TrimSpace(question))
	for _, p := range intentPrefixes {
		if strings.HasPrefix(q, p.prefix) {
			return p.intent
		}
	}
	return IntentGeneral
}

// intentRules maps each intent to the predicate a passage must satisfy.
// The corpus holds no person entities, so PERSON never matches.
var intentRules = map[Intent]func(text string) bool{
	IntentPerson:     func(string) bool { return false },
	IntentLocation:   containsAny("region", "location", "place", "network", "edge"),
	IntentProcess:    containsAny("steps", "process", "how", "works", "method"),
	IntentDefinition: containsAny("is", "refers", "defined", "model", "service"),
	IntentGeneral:    func(string) bool { return true },
}

// Compatible reports whether text lexically supports the given intent.
// Matching is case-insensitive substring containment.
func Compatible(intent Intent, text string) bool {
	rule, ok := intentRules[intent]
	if !ok {
		return true
	}
	return rule(strings.ToLower(text))
}

// FilterContexts keeps, in order, the texts compatible with intent.
func FilterContexts(intent Intent, texts []string) []string {
	out := make([]string, 0, len(texts))
	for _, t := range texts {
		if Compatible(intent, t) {
			out = append(out, t)
		}
	}
	return out
}

func containsAny(words ...string) func(string) bool {
	return func(lower string) bool {
		for _, w := range words {
			if strings.Contains(lower, w) {
				return true
			}
		}
		return false
	}
}
