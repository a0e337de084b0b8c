package memory

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/m-mizutani/goerr/v2"
)

var diagnosticsHeaders = []string{
	"Memory ID",
	"Seq",
	"Kind",
	"Elapsed",
	"Recency",
	"Norm Recency",
	"Relevance",
	"Norm Relevance",
	"Importance",
	"Norm Importance",
	"Total",
}

// RenderDiagnostics writes one table row per score. It is observability
// only.
func RenderDiagnostics(w io.Writer, scores []Score) error {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(diagnosticsHeaders...)

	for _, sc := range scores {
		t.Row(
			sc.Record.ID,
			strconv.Itoa(sc.Record.Sequence()),
			string(sc.Record.Kind),
			formatElapsed(sc.Elapsed),
			formatFloat(sc.Recency),
			formatFloat(sc.NormRecency),
			formatFloat(sc.Relevance),
			formatFloat(sc.NormRelevance),
			formatFloat(sc.Importance),
			formatFloat(sc.NormImportance),
			formatFloat(sc.Total),
		)
	}

	if _, err := fmt.Fprintln(w, t.String()); err != nil {
		return goerr.Wrap(err, "failed to write diagnostics")
	}
	return nil
}

// formatElapsed renders d as HH:MM:SS; hours may exceed 24.
func formatElapsed(d time.Duration) string {
	total := int64(d / time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", total/3600, (total/60)%60, total%60)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}
