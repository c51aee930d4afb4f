// Package query implements the question-answering core: cosine ranking over
// the local vector cache, the two-stage similarity gate, the leading-word
// intent classifier, the per-intent context filter, and the rule-based
// answer synthesizer.
package query

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/54b3r/ragqa-go/internal/cache"
)

const (
	// MinSemanticFloor is the best-match similarity below which a question is
	// treated as unanswerable and no context is returned.
	MinSemanticFloor = 0.30

	// SimilarityThreshold is the per-candidate similarity required for a
	// passage to be cited as context.
	SimilarityThreshold = 0.55

	// DefaultTopK is the number of ranked candidates considered per question.
	DefaultTopK = 3

	// EmptyCacheScore is reported as the best score when the cache is empty.
	EmptyCacheScore = -1.0
)

// ErrDimensionMismatch is returned when the query embedding length differs
// from the cache embedding length.
var ErrDimensionMismatch = errors.New("dimension mismatch")

// ErrNonFiniteScore is returned when a similarity evaluates to NaN or ±Inf,
// which only happens when an input vector holds non-finite values.
var ErrNonFiniteScore = errors.New("non-finite similarity")

// Match is one ranked cache record.
type Match struct {
	// Index is the record position in the cache.
	Index int
	// Score is the cosine similarity against the query.
	Score float64
}

// Ranking is the outcome of scoring a query against the whole cache.
type Ranking struct {
	// BestScore is the maximum similarity over all records, or
	// EmptyCacheScore when the cache has no records.
	BestScore float64
	// Top holds at most top_k matches ordered by descending score, ties
	// broken by cache order.
	Top []Match
}

// Cosine returns dot(a, b) / (|a| * |b|). It fails with ErrDimensionMismatch
// when the lengths differ or are zero, and with ErrNonFiniteScore when either
// vector holds NaN or ±Inf. It returns 0 when either vector has zero norm.
func Cosine(a, b []float32) (float64, error) {
	if len(a) != len(b) || len(a) == 0 {
		return 0, fmt.Errorf("%w: %d vs %d", ErrDimensionMismatch, len(a), len(b))
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if !isFinite(na) || !isFinite(nb) {
		return 0, ErrNonFiniteScore
	}
	if na == 0 || nb == 0 {
		return 0, nil
	}
	s := dot / (math.Sqrt(na) * math.Sqrt(nb))
	if !isFinite(s) {
		return 0, ErrNonFiniteScore
	}
	return s, nil
}

// Rank scores every record in c against q and selects the top k matches.
// Dimensions are checked before any scoring happens. A non-positive k falls
// back to DefaultTopK.
func Rank(c *cache.Cache, q []float32, k int) (Ranking, error) {
	if k <= 0 {
		k = DefaultTopK
	}
	if c == nil || c.Len() == 0 {
		return Ranking{BestScore: EmptyCacheScore}, nil
	}
	if len(q) != c.Dimension() {
		return Ranking{}, fmt.Errorf("query: %w: query has %d values, cache has %d", ErrDimensionMismatch, len(q), c.Dimension())
	}

	matches := make([]Match, c.Len())
	best := math.Inf(-1)
	for i, r := range c.Records() {
		s, err := Cosine(q, r.Embedding)
		if err != nil {
			return Ranking{}, fmt.Errorf("query: record %d: %w", i, err)
		}
		matches[i] = Match{Index: i, Score: s}
		if s > best {
			best = s
		}
	}

	sort.SliceStable(matches, func(i, j int) bool { return matches[i].Score > matches[j].Score })
	if k > len(matches) {
		k = len(matches)
	}
	return Ranking{BestScore: best, Top: matches[:k]}, nil
}

func isFinite(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) }
