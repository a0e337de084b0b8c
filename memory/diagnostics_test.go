package memory

import (
	"bytes"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
)

func TestFormatElapsed(t *testing.T) {
	gt.Equal(t, formatElapsed(0), "00:00:00")
	gt.Equal(t, formatElapsed(90*time.Second), "00:01:30")
	gt.Equal(t, formatElapsed(27*time.Hour+5*time.Minute+9*time.Second), "27:05:09")
}

func TestRenderDiagnostics(t *testing.T) {
	rec := NewObservation("walked east", 0.25, time.Unix(0, 0))
	rec.seq = 4

	var buf bytes.Buffer
	gt.NoError(t, RenderDiagnostics(&buf, []Score{{
		Record:     rec,
		Elapsed:    time.Hour,
		Recency:    0.6977,
		Relevance:  1,
		Importance: 0.25,
		Total:      1.5,
	}}))

	out := buf.String()
	for _, h := range diagnosticsHeaders {
		gt.S(t, out).Contains(h)
	}
	gt.S(t, out).Contains(rec.ID)
	gt.S(t, out).Contains("01:00:00")
	gt.S(t, out).Contains("0.6977")
	gt.S(t, out).Contains("1.5000")
}
