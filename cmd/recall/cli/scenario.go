package cli

import (
	"context"
	"os"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"gopkg.in/yaml.v3"

	"github.com/becomeliminal/nim-recall/memory"
)

// scenario is a memory stream described in YAML.
type scenario struct {
	memory.Config `yaml:",inline"`

	// Queries pins query embeddings for the mock embedder.
	Queries map[string][]float32 `yaml:"queries"`

	Memories []scenarioMemory `yaml:"memories"`
}

type scenarioMemory struct {
	ID         string       `yaml:"id"`
	Kind       memory.Kind  `yaml:"kind"`
	Content    string       `yaml:"content"`
	Importance *float64     `yaml:"importance"`
	CreatedAt  time.Time    `yaml:"created_at"`
	Embedding  []float32    `yaml:"embedding"`
	Level      memory.Level `yaml:"level"`
	Evidence   []string     `yaml:"evidence"`
}

func loadScenario(path string) (*scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read scenario", goerr.V("path", path))
	}

	var sc scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, goerr.Wrap(err, "failed to parse scenario", goerr.V("path", path))
	}
	if len(sc.Memories) == 0 {
		return nil, goerr.New("scenario has no memories", goerr.V("path", path))
	}
	return &sc, nil
}

// record builds the memory record. Missing importance is rated by rater.
func (m scenarioMemory) record(ctx context.Context, rater memory.ImportanceRater) (*memory.Record, error) {
	kind := m.Kind
	if kind == "" {
		kind = memory.KindObservation
	}
	if err := kind.Validate(); err != nil {
		return nil, err
	}
	if m.CreatedAt.IsZero() {
		return nil, goerr.Wrap(memory.ErrInvalidTimestamp, "created_at is required", goerr.V("content", m.Content))
	}

	var importance float64
	if m.Importance != nil {
		importance = *m.Importance
	} else {
		rated, err := rater.Rate(ctx, m.Content)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to rate importance", goerr.V("content", m.Content))
		}
		importance = rated
	}

	var rec *memory.Record
	switch kind {
	case memory.KindObservation:
		rec = memory.NewObservation(m.Content, importance, m.CreatedAt)
	case memory.KindReflection:
		rec = memory.NewReflection(m.Content, importance, m.CreatedAt, m.Evidence...)
	case memory.KindPlan:
		rec = memory.NewPlan(m.Content, importance, m.CreatedAt, m.Level)
	}

	if m.ID != "" {
		rec.ID = m.ID
	}
	rec.Embedding = m.Embedding
	return rec, nil
}
