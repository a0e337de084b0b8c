package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/urfave/cli/v3"

	"github.com/becomeliminal/nim-recall/memory"
)

func runApp(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	err := newApp(&out, &errOut).Run(context.Background(), append([]string{"recall"}, args...))
	return out.String(), err
}

func TestRetrieveCommand(t *testing.T) {
	out, err := runApp(t, "retrieve",
		"--scenario", "testdata/scenario.yaml",
		"--query", "where did I walk east",
		"--at", "2024-05-01T19:00:00Z",
	)
	gt.NoError(t, err)

	gt.S(t, out).Contains("Recalled 2 of 2 candidates")
	first := strings.Index(out, "1. [reflection] I enjoy long walks")
	second := strings.Index(out, "2. [observation] walked east along the river")
	gt.True(t, first >= 0)
	gt.True(t, second > first)
	gt.S(t, out).NotContains("walked north")
	gt.S(t, out).NotContains("Norm Recency")
}

func TestRetrieveCommandDiagnostics(t *testing.T) {
	out, err := runApp(t, "retrieve",
		"-s", "testdata/scenario.yaml",
		"-q", "where did I walk east",
		"--at", "2024-05-01T19:00:00Z",
		"--diagnostics",
		"--limit", "1",
	)
	gt.NoError(t, err)

	// a lone candidate normalizes to zero on every factor and is dropped
	gt.S(t, out).Contains("Norm Recency")
	gt.S(t, out).Contains("east")
	gt.S(t, out).Contains("No memories worth recalling")
}

func TestRetrieveCommandFutureMemory(t *testing.T) {
	_, err := runApp(t, "retrieve",
		"-s", "testdata/scenario.yaml",
		"-q", "where did I walk east",
		"--at", "2024-05-01T12:00:00Z",
	)
	gt.True(t, errors.Is(err, memory.ErrInvalidTimestamp))
}

func TestRetrieveCommandBadFlags(t *testing.T) {
	_, err := runApp(t, "retrieve",
		"-s", "testdata/scenario.yaml",
		"-q", "east",
		"--at", "yesterday",
	)
	gt.Error(t, err)

	_, err = runApp(t, "retrieve",
		"-s", "testdata/scenario.yaml",
		"-q", "east",
		"--embedder", "word2vec",
	)
	gt.Error(t, err)
}

func TestTasksCommand(t *testing.T) {
	out, err := runApp(t, "tasks",
		"-s", "testdata/tasks.yaml",
		"-q", "fence",
	)
	gt.NoError(t, err)

	gt.S(t, out).Contains("team #1: repaint the garden fence")
	gt.S(t, out).Contains("(1):")
	gt.S(t, out).Contains("- [observation] finished step 1 of the fence")
	gt.S(t, out).NotContains("heron")
}

func TestTasksCommandWithSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.db")
	out, err := runApp(t, "tasks",
		"-s", "testdata/tasks.yaml",
		"-q", "fence",
		"--tasks-db", path,
	)
	gt.NoError(t, err)
	gt.S(t, out).Contains("team #1: repaint the garden fence")

	_, err = os.Stat(path)
	gt.NoError(t, err)
}

func TestTasksCommandReusesSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.db")
	for range 2 {
		out, err := runApp(t, "tasks",
			"-s", "testdata/tasks.yaml",
			"-q", "fence",
			"--tasks-db", path,
		)
		gt.NoError(t, err)
		gt.S(t, out).Contains("Tasks (1):")
		gt.S(t, out).Contains("team #1: repaint the garden fence")
		gt.S(t, out).NotContains("#2")
	}
}

func TestAdapterFlagsGeminiModel(t *testing.T) {
	var cfg config
	cmd := &cli.Command{
		Name:   "recall",
		Flags:  adapterFlags(&cfg),
		Action: func(context.Context, *cli.Command) error { return nil },
	}
	gt.NoError(t, cmd.Run(context.Background(), []string{"recall", "--gemini-model", "text-embedding-004"}))
	gt.Equal(t, cfg.geminiModel, "text-embedding-004")
}

func TestLoadScenario(t *testing.T) {
	sc, err := loadScenario("testdata/scenario.yaml")
	gt.NoError(t, err)

	gt.Equal(t, sc.Dimensions, 2)
	gt.Equal(t, sc.RetrievalLimit, 2)
	gt.A(t, sc.Memories).Length(3)
	gt.Equal(t, sc.Memories[2].Kind, memory.KindReflection)
	gt.Equal(t, sc.Memories[2].Evidence, []string{"east", "north"})
	gt.Equal(t, sc.Queries["fence"], []float32{0, 1})

	_, err = loadScenario("testdata/missing.yaml")
	gt.Error(t, err)
}

func TestScenarioMemoryRecord(t *testing.T) {
	ctx := context.Background()
	sc, err := loadScenario("testdata/tasks.yaml")
	gt.NoError(t, err)

	plan, err := sc.Memories[0].record(ctx, fixedRater(0.1))
	gt.NoError(t, err)
	gt.Equal(t, plan.ID, "plan")
	gt.Equal(t, plan.Level, memory.LevelTeam)
	gt.Equal(t, plan.Importance, 0.8)

	// importance is rated when missing
	progress, err := sc.Memories[1].record(ctx, fixedRater(0.1))
	gt.NoError(t, err)
	gt.Equal(t, progress.Importance, 0.1)

	bad := sc.Memories[1]
	bad.Kind = "dream"
	_, err = bad.record(ctx, fixedRater(0.1))
	gt.True(t, errors.Is(err, memory.ErrInvalidKind))
}

type fixedRater float64

func (r fixedRater) Rate(context.Context, string) (float64, error) {
	return float64(r), nil
}
