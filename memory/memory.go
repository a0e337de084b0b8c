package memory

import (
	"context"
)

// Embedder converts text to embedding vectors.
// Implementations: mock (testing), onnx (local), gemini (API), cache
// (decorator).
type Embedder interface {
	// Embed converts a single text to an embedding vector.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Dimensions returns the embedding vector size.
	Dimensions() int
}

// Index is the approximate nearest-neighbor index over record embeddings,
// keyed by sequence number. It has no remove or update operation.
type Index interface {
	// Add stages a vector under seq. Staged vectors are not queryable until
	// the next Build.
	Add(ctx context.Context, seq int, vec []float32) error

	// Build makes every staged vector queryable.
	Build(ctx context.Context) error

	// Query returns up to n sequence numbers, nearest first; equally near
	// vectors come in sequence order. Querying an index that was never built
	// fails with ErrIndexNotBuilt.
	Query(ctx context.Context, vec []float32, n int) ([]int, error)

	// Len returns the number of queryable vectors.
	Len() int
}

// TaskStore is one level of the task hierarchy.
type TaskStore interface {
	// AddTask registers a plan as a task.
	AddTask(ctx context.Context, plan *Record) error

	// Tasks returns every task in insertion order.
	Tasks(ctx context.Context) ([]Task, error)
}

// ImportanceRater scores how significant a piece of content is, in [0, 1].
type ImportanceRater interface {
	Rate(ctx context.Context, content string) (float64, error)
}

// Task is an entry of a task store. Its Number takes part in relevance
// matching against memory content.
type Task struct {
	Number      int
	Description string
	PlanID      string
	Level       Level
}
