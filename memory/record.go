package memory

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
)

// Kind discriminates the record variants.
type Kind string

const (
	KindObservation Kind = "observation"
	KindReflection  Kind = "reflection"
	KindPlan        Kind = "plan"
)

// Validate reports whether k is a known kind.
func (k Kind) Validate() error {
	switch k {
	case KindObservation, KindReflection, KindPlan:
		return nil
	default:
		return goerr.Wrap(ErrInvalidKind, "unknown kind", goerr.V("kind", k))
	}
}

// Level is the task hierarchy a plan belongs to.
type Level string

const (
	LevelIndividual   Level = "individual"
	LevelTeam         Level = "team"
	LevelOrganization Level = "organization"
)

// Levels lists the hierarchy in flattening order.
var Levels = []Level{LevelIndividual, LevelTeam, LevelOrganization}

// Validate reports whether l is a known level.
func (l Level) Validate() error {
	switch l {
	case LevelIndividual, LevelTeam, LevelOrganization:
		return nil
	default:
		return goerr.Wrap(ErrInvalidPlanLevel, "unknown plan level", goerr.V("level", l))
	}
}

// Record is one entry of the memory stream.
//
// Only LastViewed changes once a record is in a Store, and only the Manager
// changes it.
type Record struct {
	ID         string
	Kind       Kind
	Content    string
	Embedding  []float32
	Importance float64
	CreatedAt  time.Time

	// Evidence lists the memories a reflection was drawn from.
	// Reported only; never scored.
	Evidence []string

	// Level routes a plan to a task store.
	Level Level

	lastViewed time.Time
	seq        int
}

func newRecord(kind Kind, content string, importance float64, createdAt time.Time) *Record {
	return &Record{
		ID:         uuid.New().String(),
		Kind:       kind,
		Content:    content,
		Importance: importance,
		CreatedAt:  createdAt,
		lastViewed: createdAt,
		seq:        -1,
	}
}

// NewObservation creates an observation record.
func NewObservation(content string, importance float64, createdAt time.Time) *Record {
	return newRecord(KindObservation, content, importance, createdAt)
}

// NewReflection creates a reflection backed by evidence.
func NewReflection(content string, importance float64, createdAt time.Time, evidence ...string) *Record {
	r := newRecord(KindReflection, content, importance, createdAt)
	r.Evidence = evidence
	return r
}

// NewPlan creates a plan for the given hierarchy level. The level is checked
// when the plan is added to a Store.
func NewPlan(content string, importance float64, createdAt time.Time, level Level) *Record {
	r := newRecord(KindPlan, content, importance, createdAt)
	r.Level = level
	return r
}

// Sequence returns the record's position in its store's append order, or -1
// if it has not been added.
func (r *Record) Sequence() int {
	return r.seq
}

// LastViewed returns when the record was last returned by a retrieval. It
// starts at CreatedAt.
func (r *Record) LastViewed() time.Time {
	return r.lastViewed
}

// String renders the record on one line for logs and the CLI.
func (r *Record) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s", r.Kind, r.Content)
	if r.Kind == KindPlan {
		fmt.Fprintf(&b, " (level=%s)", r.Level)
	}
	if len(r.Evidence) > 0 {
		fmt.Fprintf(&b, " (evidence: %s)", strings.Join(r.Evidence, ", "))
	}
	return b.String()
}
