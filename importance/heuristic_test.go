package importance_test

import (
	"context"
	"math"
	"testing"

	"github.com/becomeliminal/nim-recall/importance"
	"github.com/m-mizutani/gt"
)

func TestHeuristic(t *testing.T) {
	testCases := map[string]struct {
		content string
		want    float64
	}{
		"plain":      {content: "ate lunch", want: 0.5},
		"failure":    {content: "the build failed", want: 0.8},
		"commitment": {content: "we agreed on friday", want: 0.7},
		"long": {
			content: "walked along the river and counted the boats passing by",
			want:    0.6,
		},
		"capped": {
			content: "the deploy crashed again so we decided to freeze releases until monday",
			want:    1.0,
		},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			got, err := importance.Heuristic{}.Rate(context.Background(), tc.content)
			gt.NoError(t, err)
			gt.True(t, math.Abs(got-tc.want) < 1e-9)
		})
	}
}
