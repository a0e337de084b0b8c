package cli

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"
)

func tasksCommand() *cli.Command {
	var cfg config

	flags := globalFlags(&cfg)
	flags = append(flags, adapterFlags(&cfg)...)

	return &cli.Command{
		Name:  "tasks",
		Usage: "List the candidates for a query that mention a task number",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			w := c.Root().Writer
			ctx, err := cfg.withLogger(ctx, c.Root().ErrWriter)
			if err != nil {
				return err
			}

			m, cleanup, err := cfg.newManager(ctx, nil)
			if err != nil {
				return err
			}
			defer cleanup()

			tasks, err := m.Store().Hierarchy().AllTasks(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "Tasks (%d):\n", len(tasks))
			for _, task := range tasks {
				fmt.Fprintf(w, "  %s #%d: %s\n", task.Level, task.Number, task.Description)
			}

			relevant, err := m.TaskRelevant(ctx, cfg.query)
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "\nTask-relevant memories for %q (%d):\n", cfg.query, len(relevant))
			for _, rec := range relevant {
				fmt.Fprintf(w, "  - %s\n", rec)
			}
			return nil
		},
	}
}
