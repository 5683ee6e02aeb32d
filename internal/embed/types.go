// Package embed is the boundary to the external sentence-embedding model.
// Every provider response is resolved once, here, into a flat []float32 so
// stored and query vectors are always compared at the same nesting depth.
package embed

import (
	"context"
	"math"
	"time"
)

// Common embedding constants
const (
	// DefaultTimeout bounds a single provider request.
	DefaultTimeout = 30 * time.Second

	// DefaultModel is the sentence-transformers model the vault embeds with.
	DefaultModel = "sentence-transformers/all-MiniLM-L6-v2"

	// DefaultDimensions is the output size of DefaultModel.
	DefaultDimensions = 384
)

// Static embedder constants
const (
	// StaticDimensions is the embedding dimension for static embedder
	StaticDimensions = 256
)

// Embedder generates vector embeddings for text.
// Implementations return a single flat vector per call, never a batch.
type Embedder interface {
	// Embed generates the embedding for a single text of any length.
	Embed(ctx context.Context, text string) ([]float32, error)

	// ModelName returns the model identifier
	ModelName() string

	// Available checks if the embedder is ready
	Available(ctx context.Context) bool

	// Close releases resources
	Close() error
}

// normalizeVector normalizes a vector to unit length.
func normalizeVector(v []float32) []float32 {
	var sumSquares float64
	for _, val := range v {
		sumSquares += float64(val) * float64(val)
	}

	magnitude := math.Sqrt(sumSquares)
	if magnitude == 0 {
		return v // Return as-is if zero vector
	}

	normalized := make([]float32, len(v))
	for i, val := range v {
		normalized[i] = float32(float64(val) / magnitude)
	}
	return normalized
}
