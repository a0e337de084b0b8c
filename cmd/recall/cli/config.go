package cli

import (
	"context"
	"io"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/becomeliminal/nim-recall/importance"
	"github.com/becomeliminal/nim-recall/importance/claude"
	"github.com/becomeliminal/nim-recall/logging"
	"github.com/becomeliminal/nim-recall/memory"
	"github.com/becomeliminal/nim-recall/memory/embedder/cache"
	"github.com/becomeliminal/nim-recall/memory/embedder/gemini"
	"github.com/becomeliminal/nim-recall/memory/embedder/mock"
	"github.com/becomeliminal/nim-recall/memory/index/chromem"
	"github.com/becomeliminal/nim-recall/memory/tasks/sqlite"
)

// config holds configuration values
type config struct {
	logLevel string

	// Scenario
	scenario string
	query    string
	at       string
	limit    int64

	// Adapters
	embedder        string
	geminiAPIKey    string
	geminiModel     string
	anthropicAPIKey string
	rater           string
	tasksDB         string
}

// globalFlags returns flags shared by every command
func globalFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "Log level (debug, info, warn, error)",
			Value:       "info",
			Sources:     cli.EnvVars("RECALL_LOG_LEVEL"),
			Destination: &cfg.logLevel,
		},
		&cli.StringFlag{
			Name:        "scenario",
			Aliases:     []string{"s"},
			Usage:       "Path to a YAML scenario describing the memory stream",
			Sources:     cli.EnvVars("RECALL_SCENARIO"),
			Destination: &cfg.scenario,
			Required:    true,
		},
		&cli.StringFlag{
			Name:        "query",
			Aliases:     []string{"q"},
			Usage:       "Query text",
			Destination: &cfg.query,
			Required:    true,
		},
		&cli.IntFlag{
			Name:        "limit",
			Aliases:     []string{"k"},
			Usage:       "Retrieval limit K (0 uses the scenario or default)",
			Sources:     cli.EnvVars("RECALL_LIMIT"),
			Destination: &cfg.limit,
		},
	}
}

// adapterFlags returns flags selecting collaborators
func adapterFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "embedder",
			Aliases:     []string{"e"},
			Usage:       "Embedder (mock, gemini)",
			Value:       "mock",
			Sources:     cli.EnvVars("RECALL_EMBEDDER"),
			Destination: &cfg.embedder,
		},
		&cli.StringFlag{
			Name:        "gemini-api-key",
			Usage:       "Gemini API key",
			Sources:     cli.EnvVars("GEMINI_API_KEY"),
			Destination: &cfg.geminiAPIKey,
		},
		&cli.StringFlag{
			Name:        "gemini-model",
			Usage:       "Gemini embedding model",
			Value:       gemini.DefaultModel,
			Sources:     cli.EnvVars("GEMINI_EMBEDDING_MODEL"),
			Destination: &cfg.geminiModel,
		},
		&cli.StringFlag{
			Name:        "rater",
			Usage:       "Importance rater for memories without importance (heuristic, claude)",
			Value:       "heuristic",
			Sources:     cli.EnvVars("RECALL_RATER"),
			Destination: &cfg.rater,
		},
		&cli.StringFlag{
			Name:        "anthropic-api-key",
			Usage:       "Anthropic API key",
			Sources:     cli.EnvVars("ANTHROPIC_API_KEY"),
			Destination: &cfg.anthropicAPIKey,
		},
		&cli.StringFlag{
			Name:        "tasks-db",
			Usage:       "SQLite file for the task hierarchy (in-memory lists when empty)",
			Sources:     cli.EnvVars("RECALL_TASKS_DB"),
			Destination: &cfg.tasksDB,
		},
	}
}

// queryTime parses --at, defaulting to now
func (cfg *config) queryTime() (time.Time, error) {
	if cfg.at == "" {
		return time.Now(), nil
	}
	at, err := time.Parse(time.RFC3339, cfg.at)
	if err != nil {
		return time.Time{}, goerr.Wrap(err, "invalid --at, want RFC3339", goerr.V("at", cfg.at))
	}
	return at, nil
}

// withLogger attaches a logger writing to w at --log-level
func (cfg *config) withLogger(ctx context.Context, w io.Writer) (context.Context, error) {
	level, err := logging.ParseLevel(cfg.logLevel)
	if err != nil {
		return nil, err
	}
	return logging.With(ctx, logging.New(level, w)), nil
}

// newEmbedder creates the configured embedder
func (cfg *config) newEmbedder(ctx context.Context, sc *scenario, dims int) (memory.Embedder, func(), error) {
	switch cfg.embedder {
	case "", "mock":
		var opts []mock.Option
		for text, vec := range sc.Queries {
			opts = append(opts, mock.WithVector(text, vec))
		}
		return mock.New(dims, opts...), func() {}, nil

	case "gemini":
		g, err := gemini.New(ctx, cfg.geminiAPIKey, dims, gemini.WithModel(cfg.geminiModel))
		if err != nil {
			return nil, nil, err
		}
		cached, err := cache.New(g, 0)
		if err != nil {
			return nil, nil, err
		}
		return cached, func() { cached.Close() }, nil

	default:
		return nil, nil, goerr.New("unknown embedder", goerr.V("embedder", cfg.embedder))
	}
}

// newRater creates the configured importance rater
func (cfg *config) newRater() (memory.ImportanceRater, error) {
	switch cfg.rater {
	case "", "heuristic":
		return importance.Heuristic{}, nil
	case "claude":
		return claude.New(cfg.anthropicAPIKey)
	default:
		return nil, goerr.New("unknown rater", goerr.V("rater", cfg.rater))
	}
}

// newHierarchy creates the task hierarchy
func (cfg *config) newHierarchy(ctx context.Context) (memory.Hierarchy, func(), error) {
	if cfg.tasksDB == "" {
		return memory.NewHierarchy(), func() {}, nil
	}
	db, err := sqlite.New(ctx, cfg.tasksDB)
	if err != nil {
		return memory.Hierarchy{}, nil, err
	}
	return db.Hierarchy(), func() { db.Close() }, nil
}

// newManager loads the scenario into a fresh store and returns its manager
func (cfg *config) newManager(ctx context.Context, diagnostics io.Writer) (*memory.Manager, func(), error) {
	sc, err := loadScenario(cfg.scenario)
	if err != nil {
		return nil, nil, err
	}

	memCfg := sc.Config
	if cfg.limit > 0 {
		memCfg.RetrievalLimit = int(cfg.limit)
	}
	dims := memCfg.Dimensions
	if dims == 0 {
		dims = memory.DefaultDimensions
	}

	var cleanups []func()
	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}

	embedder, closeEmbedder, err := cfg.newEmbedder(ctx, sc, dims)
	if err != nil {
		return nil, nil, err
	}
	cleanups = append(cleanups, closeEmbedder)

	hierarchy, closeTasks, err := cfg.newHierarchy(ctx)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	cleanups = append(cleanups, closeTasks)

	rater, err := cfg.newRater()
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	idx, err := chromem.New(dims)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	store := memory.NewStore(idx, memory.WithDimensions(dims), memory.WithHierarchy(hierarchy))

	var opts []memory.Option
	opts = append(opts, memory.WithRater(rater))
	if diagnostics != nil {
		opts = append(opts, memory.WithDiagnostics(diagnostics))
	}
	m, err := memory.NewManager(store, embedder, &memCfg, opts...)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	for _, sm := range sc.Memories {
		rec, err := sm.record(ctx, rater)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		if err := m.Remember(ctx, rec); err != nil {
			cleanup()
			return nil, nil, goerr.Wrap(err, "failed to load scenario memory", goerr.V("content", sm.Content))
		}
	}

	logging.From(ctx).Debug("scenario loaded", "path", cfg.scenario, "memories", store.Len())
	return m, cleanup, nil
}
