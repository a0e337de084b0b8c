package memory

import "github.com/m-mizutani/goerr/v2"

var (
	// ErrInvalidPlanLevel is returned when a plan's level is not individual,
	// team or organization.
	ErrInvalidPlanLevel = goerr.New("invalid plan level")

	// ErrInvalidKind is returned for a record whose kind is unknown.
	ErrInvalidKind = goerr.New("invalid memory kind")

	// ErrDimensionMismatch is returned when a vector's length differs from
	// the store dimension.
	ErrDimensionMismatch = goerr.New("embedding dimension mismatch")

	// ErrDuplicateID is returned when a record id is already in the store.
	ErrDuplicateID = goerr.New("duplicate memory id")

	// ErrEmptyCandidateSet is returned when a retrieval has nothing to score.
	ErrEmptyCandidateSet = goerr.New("empty candidate set")

	// ErrIndexNotBuilt is returned by an Index queried before any Build.
	ErrIndexNotBuilt = goerr.New("index not built")

	// ErrInvalidTimestamp is returned when a record was created after the
	// query time.
	ErrInvalidTimestamp = goerr.New("memory created after query time")

	// ErrEmbeddingUnavailable is returned when the embedder fails.
	ErrEmbeddingUnavailable = goerr.New("embedding unavailable")
)
