package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/urfave/cli/v3"

	"github.com/becomeliminal/nim-recall/memory"
)

func retrieveCommand() *cli.Command {
	var (
		cfg         config
		diagnostics bool
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "at",
			Usage:       "Query time in RFC3339 (default: now)",
			Destination: &cfg.at,
		},
		&cli.BoolFlag{
			Name:        "diagnostics",
			Aliases:     []string{"d"},
			Usage:       "Print the scoring table for every candidate",
			Destination: &diagnostics,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)
	flags = append(flags, adapterFlags(&cfg)...)

	return &cli.Command{
		Name:  "retrieve",
		Usage: "Rank the scenario's memories for a query",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx, err := cfg.withLogger(ctx, c.Root().ErrWriter)
			if err != nil {
				return err
			}

			at, err := cfg.queryTime()
			if err != nil {
				return err
			}

			var diag io.Writer
			if diagnostics {
				diag = c.Root().Writer
			}
			m, cleanup, err := cfg.newManager(ctx, diag)
			if err != nil {
				return err
			}
			defer cleanup()

			r, err := m.Explain(ctx, cfg.query, at)
			if err != nil {
				return err
			}

			printRanked(c.Root().Writer, r)
			return nil
		},
	}
}

func printRanked(w io.Writer, r *memory.Retrieval) {
	if len(r.Ranked) == 0 {
		fmt.Fprintf(w, "No memories worth recalling for %q\n", r.Query)
		return
	}

	fmt.Fprintf(w, "Recalled %d of %d candidates for %q:\n\n", len(r.Ranked), len(r.Candidates), r.Query)
	for i, sc := range r.Ranked {
		fmt.Fprintf(w, "%d. %s\n", i+1, sc.Record)
		fmt.Fprintf(w, "   ID: %s  Score: %.4f\n", sc.Record.ID, sc.Total)
	}
}
