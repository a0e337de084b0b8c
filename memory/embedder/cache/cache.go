// Package cache memoizes an Embedder with a ristretto cache.
package cache

import (
	"context"

	"github.com/dgraph-io/ristretto"
	"github.com/m-mizutani/goerr/v2"

	"github.com/becomeliminal/nim-recall/logging"
	"github.com/becomeliminal/nim-recall/memory"
)

// DefaultMaxCost bounds the cache by total vector components held.
const DefaultMaxCost = 1 << 22

// Embedder wraps another embedder and reuses vectors for repeated texts.
// Admission is probabilistic, so a miss is always safe.
type Embedder struct {
	next  memory.Embedder
	cache *ristretto.Cache
}

var _ memory.Embedder = (*Embedder)(nil)

// New wraps next. maxCost is counted in float32 components; zero uses
// DefaultMaxCost.
func New(next memory.Embedder, maxCost int64) (*Embedder, error) {
	if next == nil {
		return nil, goerr.New("embedder is required")
	}
	if maxCost <= 0 {
		maxCost = DefaultMaxCost
	}

	// ristretto wants ~10 counters per item it may hold
	items := maxCost / int64(max(next.Dimensions(), 1))
	c, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: min(max(items*10, 100), 1e6),
		MaxCost:     maxCost,
		BufferItems: 64,
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create embedding cache")
	}

	return &Embedder{next: next, cache: c}, nil
}

// Embed returns a copy of the cached vector for text, embedding it on a miss.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if v, ok := e.cache.Get(text); ok {
		logging.Component(ctx, "embedder").Debug("embedding cache hit", "length", len(text))
		return clone(v.([]float32)), nil
	}

	vec, err := e.next.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	e.cache.Set(text, clone(vec), int64(len(vec)))
	return vec, nil
}

// Dimensions returns the wrapped embedder's size.
func (e *Embedder) Dimensions() int {
	return e.next.Dimensions()
}

// Wait blocks until pending cache writes are applied.
func (e *Embedder) Wait() {
	e.cache.Wait()
}

// Close stops the cache's background goroutines.
func (e *Embedder) Close() error {
	e.cache.Close()
	return nil
}

func clone(v []float32) []float32 {
	return append([]float32(nil), v...)
}
