package embedder

import (
	"fmt"
	"math"
)

// checkVectors rejects embeddings the query ranker cannot score. Every vector
// must be non-empty with one shared length (want, when positive) and hold
// only finite values.
func checkVectors(vecs [][]float32, want int) error {
	dim := want
	for i, v := range vecs {
		if len(v) == 0 {
			return fmt.Errorf("embedding %d is empty", i)
		}
		if dim <= 0 {
			dim = len(v)
		}
		if len(v) != dim {
			return fmt.Errorf("embedding %d has %d values, want %d", i, len(v), dim)
		}
		for j, x := range v {
			if f := float64(x); math.IsNaN(f) || math.IsInf(f, 0) {
				return fmt.Errorf("embedding %d has non-finite value at position %d", i, j)
			}
		}
	}
	return nil
}
