package memory

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/becomeliminal/nim-recall/logging"
	"github.com/m-mizutani/goerr/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// DefaultImportance is given to observations when no rater is configured.
const DefaultImportance = 0.5

var tracer = otel.Tracer("github.com/becomeliminal/nim-recall/memory")

// Manager is the retrieval service over a Store.
//
// Retrieve and Explain stamp LastViewed on what they return; TaskRelevant
// does not.
type Manager struct {
	store       *Store
	embedder    Embedder
	scorer      *Scorer
	config      Config
	rater       ImportanceRater
	diagnostics io.Writer
}

// Option configures a Manager.
type Option func(*Manager)

// WithRater sets the importance rater used by Observe.
func WithRater(r ImportanceRater) Option {
	return func(m *Manager) {
		m.rater = r
	}
}

// WithDiagnostics writes a scoring table to w after every retrieval.
func WithDiagnostics(w io.Writer) Option {
	return func(m *Manager) {
		m.diagnostics = w
	}
}

// NewManager creates a Manager. A nil config uses DefaultConfig; zero fields
// take their defaults.
func NewManager(store *Store, embedder Embedder, config *Config, opts ...Option) (*Manager, error) {
	if store == nil {
		return nil, goerr.New("store is required")
	}
	if embedder == nil {
		return nil, goerr.New("embedder is required")
	}
	if config == nil {
		config = DefaultConfig()
	}

	cfg := config.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid memory config")
	}
	if embedder.Dimensions() != store.Dimensions() {
		return nil, goerr.Wrap(ErrDimensionMismatch, "embedder does not match store",
			goerr.V("embedder", embedder.Dimensions()),
			goerr.V("store", store.Dimensions()))
	}

	m := &Manager{
		store:    store,
		embedder: embedder,
		scorer:   NewScorer(cfg.DecayRate),
		config:   cfg,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Store returns the managed store.
func (m *Manager) Store() *Store {
	return m.store
}

// Retrieval is the full result of one retrieval.
type Retrieval struct {
	Query string
	At    time.Time

	// Candidates are the ANN hits, nearest first.
	Candidates []*Record

	// Scores has one row per candidate, in candidate order.
	Scores []Score

	// Ranked is what the retrieval returned, best first.
	Ranked []Score
}

// Records returns the ranked records.
func (r *Retrieval) Records() []*Record {
	out := make([]*Record, len(r.Ranked))
	for i, sc := range r.Ranked {
		out[i] = sc.Record
	}
	return out
}

// Retrieve returns up to RetrievalLimit records worth recalling for query at
// now, best first, and sets their LastViewed to now.
func (m *Manager) Retrieve(ctx context.Context, query string, now time.Time) ([]*Record, error) {
	r, err := m.Explain(ctx, query, now)
	if err != nil {
		return nil, err
	}
	return r.Records(), nil
}

// Explain runs the same pipeline as Retrieve and also returns every
// candidate and score row.
func (m *Manager) Explain(ctx context.Context, query string, now time.Time) (*Retrieval, error) {
	ctx, span := tracer.Start(ctx, "memory.Retrieve", trace.WithAttributes(
		attribute.Int("memory.retrieval_limit", m.config.RetrievalLimit),
	))
	defer span.End()

	r, err := m.explain(ctx, query, now)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.SetAttributes(
		attribute.Int("memory.candidates", len(r.Candidates)),
		attribute.Int("memory.returned", len(r.Ranked)),
	)
	return r, nil
}

func (m *Manager) explain(ctx context.Context, query string, now time.Time) (*Retrieval, error) {
	logger := logging.Component(ctx, "manager")
	k := m.config.RetrievalLimit

	vec, err := m.embed(ctx, query)
	if err != nil {
		return nil, err
	}

	candidates, err := m.store.Candidates(ctx, vec, k)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, goerr.Wrap(ErrEmptyCandidateSet, "no memories to retrieve", goerr.V("query", query))
	}

	scores, err := m.scorer.Score(vec, now, candidates)
	if err != nil {
		return nil, err
	}
	m.report(ctx, scores)

	ranked := Rank(scores, k)
	r := &Retrieval{
		Query:      query,
		At:         now,
		Candidates: candidates,
		Scores:     scores,
		Ranked:     ranked,
	}
	m.store.markViewed(r.Records(), now)

	logger.Info("memories retrieved",
		"query", truncateLog(query, 50),
		"candidates", len(candidates),
		"returned", len(ranked),
	)
	return r, nil
}

// TaskRelevant returns the retrieval candidates for query that mention a
// task number from the hierarchy. It is independent of ranking.
func (m *Manager) TaskRelevant(ctx context.Context, query string) ([]*Record, error) {
	vec, err := m.embed(ctx, query)
	if err != nil {
		return nil, err
	}

	candidates, err := m.store.Candidates(ctx, vec, m.config.RetrievalLimit)
	if err != nil {
		return nil, err
	}

	tasks, err := m.store.Hierarchy().AllTasks(ctx)
	if err != nil {
		return nil, err
	}

	relevant := FilterByTasks(candidates, tasks)
	logging.Component(ctx, "manager").Debug("task relevance computed",
		"candidates", len(candidates),
		"tasks", len(tasks),
		"relevant", len(relevant),
	)
	return relevant, nil
}

// Remember embeds rec.Content when rec has no embedding and adds rec to the
// store.
func (m *Manager) Remember(ctx context.Context, rec *Record) error {
	if rec == nil {
		return goerr.New("record is nil")
	}
	if len(rec.Embedding) == 0 {
		vec, err := m.embed(ctx, rec.Content)
		if err != nil {
			return goerr.Wrap(err, "failed to remember memory", goerr.V("id", rec.ID))
		}
		rec.Embedding = vec
	}
	return m.store.Add(ctx, rec)
}

// Observe rates, embeds and stores content as an observation made at now.
func (m *Manager) Observe(ctx context.Context, content string, now time.Time) (*Record, error) {
	importance := DefaultImportance
	if m.rater != nil {
		rated, err := m.rater.Rate(ctx, content)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to rate importance")
		}
		importance = rated
	}

	rec := NewObservation(content, importance, now)
	if err := m.Remember(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func (m *Manager) embed(ctx context.Context, text string) ([]float32, error) {
	vec, err := m.embedder.Embed(ctx, text)
	if err != nil {
		return nil, goerr.Wrap(errors.Join(ErrEmbeddingUnavailable, err), "failed to embed text",
			goerr.V("text", truncateLog(text, 50)))
	}
	return vec, nil
}

// report logs reflection evidence and writes the diagnostics table. It never
// changes the retrieval.
func (m *Manager) report(ctx context.Context, scores []Score) {
	logger := logging.Component(ctx, "manager")
	for _, sc := range scores {
		if sc.Record.Kind == KindReflection && len(sc.Record.Evidence) > 0 {
			logger.Debug("reflection evidence", "id", sc.Record.ID, "evidence", sc.Record.Evidence)
		}
	}

	if m.diagnostics == nil {
		return
	}
	if err := RenderDiagnostics(m.diagnostics, scores); err != nil {
		logger.Warn("failed to render diagnostics", "error", err)
	}
}

// truncateLog truncates text for logging.
func truncateLog(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
