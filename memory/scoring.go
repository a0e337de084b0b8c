package memory

import (
	"math"
	"sort"
	"time"

	"github.com/m-mizutani/goerr/v2"
)

// Score is one candidate's row: raw factors, normalized factors and total.
type Score struct {
	Record  *Record
	Elapsed time.Duration

	Recency    float64
	Relevance  float64
	Importance float64

	NormRecency    float64
	NormRelevance  float64
	NormImportance float64

	Total float64
}

// Scorer computes recency, relevance and importance for a candidate set.
type Scorer struct {
	decayRate float64
}

// NewScorer creates a scorer with the given per-second decay rate.
func NewScorer(decayRate float64) *Scorer {
	return &Scorer{decayRate: decayRate}
}

// Recency returns exp(-elapsed * decayRate) for elapsed in seconds.
func (s *Scorer) Recency(elapsed time.Duration) float64 {
	return math.Exp(-elapsed.Seconds() * s.decayRate)
}

// Score returns one row per candidate, in candidate order. Each factor is
// min-max normalized over this candidate set only.
func (s *Scorer) Score(query []float32, now time.Time, candidates []*Record) ([]Score, error) {
	if len(candidates) == 0 {
		return nil, goerr.Wrap(ErrEmptyCandidateSet, "nothing to score")
	}

	scores := make([]Score, len(candidates))
	for i, rec := range candidates {
		elapsed := now.Sub(rec.CreatedAt)
		if elapsed < 0 {
			return nil, goerr.Wrap(ErrInvalidTimestamp, "failed to score memory",
				goerr.V("id", rec.ID),
				goerr.V("created_at", rec.CreatedAt),
				goerr.V("now", now))
		}

		relevance, err := cosineSimilarity(query, rec.Embedding)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to score memory", goerr.V("id", rec.ID))
		}

		scores[i] = Score{
			Record:     rec,
			Elapsed:    elapsed,
			Recency:    s.Recency(elapsed),
			Relevance:  relevance,
			Importance: rec.Importance,
		}
	}

	recency := newColumn(scores, func(sc *Score) float64 { return sc.Recency })
	relevance := newColumn(scores, func(sc *Score) float64 { return sc.Relevance })
	importance := newColumn(scores, func(sc *Score) float64 { return sc.Importance })

	for i := range scores {
		sc := &scores[i]
		sc.NormRecency = recency.scale(sc.Recency)
		sc.NormRelevance = relevance.scale(sc.Relevance)
		sc.NormImportance = importance.scale(sc.Importance)
		sc.Total = RecencyWeight*sc.NormRecency +
			RelevanceWeight*sc.NormRelevance +
			ImportanceWeight*sc.NormImportance
	}

	return scores, nil
}

// Rank drops rows with a non-positive total, sorts the rest by total
// descending (ties keep their order) and keeps the first limit.
func Rank(scores []Score, limit int) []Score {
	ranked := make([]Score, 0, len(scores))
	for _, sc := range scores {
		if sc.Total > 0 {
			ranked = append(ranked, sc)
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Total > ranked[j].Total
	})

	if limit >= 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

type column struct {
	min, max float64
}

func newColumn(scores []Score, value func(*Score) float64) column {
	c := column{min: math.Inf(1), max: math.Inf(-1)}
	for i := range scores {
		v := value(&scores[i])
		c.min = math.Min(c.min, v)
		c.max = math.Max(c.max, v)
	}
	return c
}

// scale maps v into [0, 1]. A column with no spread maps to 0.
func (c column) scale(v float64) float64 {
	if c.max == c.min {
		return 0
	}
	return (v - c.min) / (c.max - c.min)
}

// cosineSimilarity returns the cosine of the angle between a and b, in
// [-1, 1]. A zero vector has similarity 0 with everything.
func cosineSimilarity(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, goerr.Wrap(ErrDimensionMismatch, "cannot compare vectors",
			goerr.V("left", len(a)),
			goerr.V("right", len(b)))
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
	return math.Max(-1, math.Min(1, sim)), nil
}
