package search

import (
	"fmt"
	"math"

	verrors "github.com/Aman-CERP/personalvault/internal/errors"
)

// Cosine returns the cosine similarity of a and b.
// Vectors of different length are a DimensionMismatch error. A zero-norm
// vector scores 0 rather than NaN so it sorts and filters like a non-match.
func Cosine(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, verrors.New(verrors.ErrCodeDimensionMismatch,
			fmt.Sprintf("embedding dimension mismatch: %d vs %d", len(a), len(b)), nil)
	}

	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}
	if normA == 0 || normB == 0 {
		return 0, nil
	}

	sim := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	if math.IsNaN(sim) || math.IsInf(sim, 0) {
		return 0, nil
	}
	return sim, nil
}
