// Package importance rates how much a memory is worth keeping around.
package importance

import (
	"context"
	"strings"

	"github.com/becomeliminal/nim-recall/memory"
)

var (
	failureWords = []string{
		"fail", "error", "broke", "crash", "lost", "missed", "wrong", "couldn't", "could not",
	}
	commitmentWords = []string{
		"decided", "promised", "agreed", "confirmed", "will ", "plan to", "must",
	}
)

// Heuristic rates content by keywords and length, without a model.
//
// The base rating is 0.5. Failures add 0.3, commitments add 0.2 and content
// longer than 50 bytes adds 0.1. The result is capped at 1.
type Heuristic struct{}

var _ memory.ImportanceRater = Heuristic{}

// Rate implements memory.ImportanceRater. It never fails.
func (Heuristic) Rate(_ context.Context, content string) (float64, error) {
	lower := strings.ToLower(content)
	importance := 0.5

	// failures are worth learning from
	if containsAny(lower, failureWords) {
		importance += 0.3
	}
	if containsAny(lower, commitmentWords) {
		importance += 0.2
	}
	if len(content) > 50 {
		importance += 0.1
	}

	return min(importance, 1.0), nil
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
