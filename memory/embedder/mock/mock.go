// Package mock provides a deterministic embedder for tests and offline runs.
package mock

import (
	"context"
	"hash/fnv"
	"math"

	"github.com/becomeliminal/nim-recall/memory"
)

// Embedder generates deterministic embeddings from a hash of the text.
// Equal texts embed identically; different texts are unrelated.
type Embedder struct {
	dimensions int
	fixed      map[string][]float32
}

var _ memory.Embedder = (*Embedder)(nil)

// Option configures an Embedder.
type Option func(*Embedder)

// WithVector pins the embedding returned for text.
func WithVector(text string, vec []float32) Option {
	return func(e *Embedder) {
		e.fixed[text] = append([]float32(nil), vec...)
	}
}

// New creates a mock embedder producing vectors of dims components.
func New(dims int, opts ...Option) *Embedder {
	e := &Embedder{
		dimensions: dims,
		fixed:      make(map[string][]float32),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Embed returns the pinned vector for text, or a unit vector seeded by its
// hash.
func (e *Embedder) Embed(_ context.Context, text string) ([]float32, error) {
	if vec, ok := e.fixed[text]; ok {
		if len(vec) != e.dimensions {
			return nil, memory.ErrDimensionMismatch
		}
		return append([]float32(nil), vec...), nil
	}

	h := fnv.New64a()
	h.Write([]byte(text))
	seed := h.Sum64()

	embedding := make([]float32, e.dimensions)
	for i := range embedding {
		// LCG step, mapped into [-1, 1]
		seed = seed*6364136223846793005 + 1442695040888963407
		embedding[i] = float32(int64(seed)) / float32(math.MaxInt64)
	}
	return normalize(embedding), nil
}

// Dimensions returns the embedding size.
func (e *Embedder) Dimensions() int {
	return e.dimensions
}

func normalize(vec []float32) []float32 {
	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		return vec
	}

	norm = math.Sqrt(norm)
	for i, v := range vec {
		vec[i] = float32(float64(v) / norm)
	}
	return vec
}
