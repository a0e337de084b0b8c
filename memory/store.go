package memory

import (
	"context"
	"sync"
	"time"

	"github.com/becomeliminal/nim-recall/logging"
	"github.com/m-mizutani/goerr/v2"
)

// Store is the append-only memory stream and its ANN index.
//
// Deleting a record tombstones its slot in the collection; the index entry
// stays. Stale index hits are dropped after lookup, and lookups over-fetch by
// the number of tombstones so a full candidate set is still returned.
type Store struct {
	mu         sync.Mutex
	dims       int
	index      Index
	hierarchy  Hierarchy
	records    []*Record // indexed by sequence number; nil once deleted
	ids        map[string]int
	tombstones int
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithDimensions sets the embedding dimension D. Default: 1536.
func WithDimensions(dims int) StoreOption {
	return func(s *Store) {
		s.dims = dims
	}
}

// WithHierarchy sets the task stores plans are routed to.
// Default: in-memory task lists.
func WithHierarchy(h Hierarchy) StoreOption {
	return func(s *Store) {
		s.hierarchy = h
	}
}

// NewStore creates an empty store over index.
func NewStore(index Index, opts ...StoreOption) *Store {
	s := &Store{
		dims:      DefaultDimensions,
		index:     index,
		hierarchy: NewHierarchy(),
		ids:       make(map[string]int),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Dimensions returns the store's embedding dimension.
func (s *Store) Dimensions() int {
	return s.dims
}

// Hierarchy returns the task stores plans are routed to.
func (s *Store) Hierarchy() Hierarchy {
	return s.hierarchy
}

// Add appends rec, assigns its sequence number and stages its embedding in
// the index. A plan is then registered with the task store for its level.
// On error rec is not added. If task registration fails after the embedding
// was staged, that sequence number is burnt and never reused.
func (s *Store) Add(ctx context.Context, rec *Record) error {
	if rec == nil {
		return goerr.New("record is nil")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := rec.Kind.Validate(); err != nil {
		return goerr.Wrap(err, "failed to add memory", goerr.V("id", rec.ID))
	}
	if rec.seq >= 0 {
		return goerr.New("memory already added", goerr.V("id", rec.ID), goerr.V("sequence", rec.seq))
	}
	if len(rec.Embedding) != s.dims {
		return goerr.Wrap(ErrDimensionMismatch, "failed to add memory",
			goerr.V("id", rec.ID),
			goerr.V("expected", s.dims),
			goerr.V("actual", len(rec.Embedding)))
	}
	if _, dup := s.ids[rec.ID]; dup {
		return goerr.Wrap(ErrDuplicateID, "failed to add memory", goerr.V("id", rec.ID))
	}

	var tasks TaskStore
	if rec.Kind == KindPlan {
		ts, err := s.hierarchy.For(rec.Level)
		if err != nil {
			return goerr.Wrap(err, "failed to route plan", goerr.V("id", rec.ID))
		}
		tasks = ts
	}

	seq := len(s.records)
	if err := s.index.Add(ctx, seq, rec.Embedding); err != nil {
		return goerr.Wrap(err, "failed to index memory", goerr.V("id", rec.ID), goerr.V("sequence", seq))
	}

	if tasks != nil {
		if err := tasks.AddTask(ctx, rec); err != nil {
			// the index cannot unstage a vector, so the slot stays dead
			s.records = append(s.records, nil)
			s.tombstones++
			return goerr.Wrap(err, "failed to add task",
				goerr.V("id", rec.ID),
				goerr.V("level", rec.Level),
				goerr.V("sequence", seq))
		}
	}

	rec.seq = seq
	s.records = append(s.records, rec)
	s.ids[rec.ID] = seq

	logging.Component(ctx, "store").Debug("memory added",
		"id", rec.ID,
		"kind", rec.Kind,
		"sequence", seq,
	)
	return nil
}

// Get returns the live record with id. Absence is not an error.
func (s *Store) Get(id string) (*Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, rec := range s.records {
		if rec != nil && rec.ID == id {
			return rec, true
		}
	}
	return nil, false
}

// Delete removes the record with id from the collection and reports whether
// it was present. Its sequence number and id are never reused.
func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	seq, ok := s.ids[id]
	if !ok || s.records[seq] == nil {
		return false
	}
	s.records[seq] = nil
	s.tombstones++
	return true
}

// Len returns the number of live records.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records) - s.tombstones
}

// Records returns the live records in append order.
func (s *Store) Records() []*Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*Record, 0, len(s.records)-s.tombstones)
	for _, rec := range s.records {
		if rec != nil {
			out = append(out, rec)
		}
	}
	return out
}

// Candidates builds any staged index entries and returns up to k live
// records nearest to vec, in index order.
func (s *Store) Candidates(ctx context.Context, vec []float32, k int) ([]*Record, error) {
	if k <= 0 {
		return nil, goerr.New("candidate count must be positive", goerr.V("k", k))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if len(vec) != s.dims {
		return nil, goerr.Wrap(ErrDimensionMismatch, "failed to query index",
			goerr.V("expected", s.dims),
			goerr.V("actual", len(vec)))
	}

	if err := s.index.Build(ctx); err != nil {
		return nil, goerr.Wrap(err, "failed to build index")
	}

	hits, err := s.index.Query(ctx, vec, k+s.tombstones)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to query index", goerr.V("k", k))
	}

	logger := logging.Component(ctx, "store")
	candidates := make([]*Record, 0, k)
	for _, seq := range hits {
		if seq < 0 || seq >= len(s.records) {
			logger.Warn("index returned unknown sequence", "sequence", seq)
			continue
		}
		rec := s.records[seq]
		if rec == nil {
			continue
		}
		candidates = append(candidates, rec)
		if len(candidates) == k {
			break
		}
	}

	logger.Debug("candidates fetched", "hits", len(hits), "candidates", len(candidates))
	return candidates, nil
}

// markViewed stamps LastViewed on every record.
func (s *Store) markViewed(records []*Record, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, rec := range records {
		rec.lastViewed = at
	}
}
