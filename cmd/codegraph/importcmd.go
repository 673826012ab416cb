package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/codegraph/internal/cgerrors"
	"github.com/standardbeagle/codegraph/internal/scipimport"
)

// importCommand wires internal/scipimport into the CLI surface: spec §6
// marks external-index import optional, but a package with no caller isn't
// reachable, so it gets a verb here alongside the mandated ones.
var importCommand = &cli.Command{
	Name:      "import",
	Usage:     "Import a SCIP-style external occurrence index (supplements the resolver's own edges)",
	ArgsUsage: "<scip.json>",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "scip", Usage: "Path to the SCIP-style JSON file (overrides the positional argument)"},
	},
	Action: func(c *cli.Context) error {
		root, err := resolveRoot(c)
		if err != nil {
			return err
		}
		p, err := openProject(root, c.Bool("quiet"))
		if err != nil {
			return err
		}
		defer p.Close()

		path := c.String("scip")
		if path == "" {
			path = c.Args().First()
		}
		if path == "" {
			return fail(exitError, fmt.Errorf("usage: codegraph import <scip.json>"))
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return fail(exitError, cgerrors.NewIOError("read", path, err))
		}

		stats, err := scipimport.Import(context.Background(), p.handlers.Store, path, data)
		if err != nil {
			return fail(exitError, err)
		}
		return printResult(c, stats)
	},
}
