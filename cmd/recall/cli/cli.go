// Package cli implements the recall command line.
package cli

import (
	"context"
	"io"
	"os"

	"github.com/urfave/cli/v3"
)

type Error struct {
	Code    int
	Message string
}

func Run(ctx context.Context, argv []string) *Error {
	if err := newApp(os.Stdout, os.Stderr).Run(ctx, argv); err != nil {
		return &Error{
			Code:    1,
			Message: err.Error(),
		}
	}

	return nil
}

func newApp(w, errW io.Writer) *cli.Command {
	return &cli.Command{
		Name:      "recall",
		Usage:     "Retrieve memories by recency, relevance and importance",
		Writer:    w,
		ErrWriter: errW,
		Commands: []*cli.Command{
			retrieveCommand(),
			tasksCommand(),
		},
	}
}
