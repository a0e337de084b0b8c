// Package chromem implements memory.Index on chromem-go, a pure Go embedded
// vector database.
package chromem

import (
	"context"
	"math"
	"runtime"
	"sort"
	"strconv"
	"sync"

	chromem "github.com/philippgille/chromem-go"

	"github.com/becomeliminal/nim-recall/logging"
	"github.com/becomeliminal/nim-recall/memory"
	"github.com/m-mizutani/goerr/v2"
)

const collectionName = "memories"

// Index is an exact cosine index over one chromem collection.
//
// Add only stages a vector. Staged vectors become visible to Query after the
// next Build.
type Index struct {
	mu      sync.Mutex
	dims    int
	col     *chromem.Collection
	pending []chromem.Document
	built   bool
}

var _ memory.Index = (*Index)(nil)

// New creates an empty index for vectors of dims components.
func New(dims int) (*Index, error) {
	if dims <= 0 {
		return nil, goerr.New("dimensions must be positive", goerr.V("dims", dims))
	}

	db := chromem.NewDB()
	col, err := db.CreateCollection(
		collectionName,
		nil,
		nil, // embeddings are always supplied
	)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create collection")
	}

	return &Index{dims: dims, col: col}, nil
}

// Add stages vec under seq.
func (x *Index) Add(_ context.Context, seq int, vec []float32) error {
	if len(vec) != x.dims {
		return goerr.Wrap(memory.ErrDimensionMismatch, "failed to stage vector",
			goerr.V("sequence", seq),
			goerr.V("expected", x.dims),
			goerr.V("actual", len(vec)))
	}

	id := strconv.Itoa(seq)
	x.mu.Lock()
	defer x.mu.Unlock()
	x.pending = append(x.pending, chromem.Document{
		ID:        id,
		Content:   id,
		Embedding: append([]float32(nil), vec...),
	})
	return nil
}

// Build makes every staged vector queryable.
func (x *Index) Build(ctx context.Context) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	if len(x.pending) > 0 {
		if err := x.col.AddDocuments(ctx, x.pending, runtime.NumCPU()); err != nil {
			return goerr.Wrap(err, "failed to add documents", goerr.V("count", len(x.pending)))
		}
		logging.Component(ctx, "index").Debug("index built",
			"added", len(x.pending),
			"total", x.col.Count(),
		)
		x.pending = nil
	}
	x.built = true
	return nil
}

// Query returns up to n sequence numbers, most similar first. Ties keep
// insertion order.
func (x *Index) Query(ctx context.Context, vec []float32, n int) ([]int, error) {
	x.mu.Lock()
	defer x.mu.Unlock()

	if !x.built {
		return nil, goerr.Wrap(memory.ErrIndexNotBuilt, "failed to query index")
	}
	if len(vec) != x.dims {
		return nil, goerr.Wrap(memory.ErrDimensionMismatch, "failed to query index",
			goerr.V("expected", x.dims),
			goerr.V("actual", len(vec)))
	}

	// chromem-go picks an arbitrary subset among equal similarities, so
	// rank the whole collection and cut after ordering ties by sequence.
	total := x.col.Count()
	if n <= 0 || total == 0 {
		return nil, nil
	}

	results, err := x.col.QueryEmbedding(ctx, vec, total, nil, nil)
	if err != nil {
		return nil, goerr.Wrap(err, "chromem query failed", goerr.V("n", total))
	}

	type hit struct {
		seq int
		sim float64
	}
	hits := make([]hit, 0, len(results))
	for _, r := range results {
		seq, err := strconv.Atoi(r.ID)
		if err != nil {
			return nil, goerr.Wrap(err, "invalid document id", goerr.V("id", r.ID))
		}
		sim := float64(r.Similarity)
		if math.IsNaN(sim) {
			// zero vectors normalize to NaN
			sim = 0
		}
		hits = append(hits, hit{seq: seq, sim: sim})
	}

	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].sim != hits[j].sim {
			return hits[i].sim > hits[j].sim
		}
		return hits[i].seq < hits[j].seq
	})

	hits = hits[:min(n, len(hits))]
	out := make([]int, len(hits))
	for i, h := range hits {
		out[i] = h.seq
	}
	return out, nil
}

// Len returns the number of built vectors.
func (x *Index) Len() int {
	return x.col.Count()
}
