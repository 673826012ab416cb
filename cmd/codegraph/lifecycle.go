package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/codegraph/internal/config"
)

var initCommand = &cli.Command{
	Name:      "init",
	Usage:     "Write a fresh .codegraph/config.json under the project root",
	ArgsUsage: "[path]",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "name", Usage: "Project name recorded in config.json"},
		&cli.BoolFlag{Name: "force", Usage: "Overwrite an existing config.json"},
	},
	Action: func(c *cli.Context) error {
		root, err := resolveRootArg(c)
		if err != nil {
			return err
		}
		name := c.String("name")
		if name == "" {
			name = defaultProjectName(root)
		}
		cfg := config.Default(root, name)
		if config.Exists(root) && !c.Bool("force") {
			return fail(exitError, fmt.Errorf("config.json already exists at %s (use --force)", config.Path(root)))
		}
		if err := cfg.Save(root); err != nil {
			return fail(exitError, err)
		}
		fmt.Fprintf(os.Stdout, "initialized codegraph project %q at %s\n", name, root)
		return nil
	},
}

func defaultProjectName(root string) string {
	return filepath.Base(root)
}

var indexCommand = &cli.Command{
	Name:      "index",
	Usage:     "Full rebuild of the code graph",
	ArgsUsage: "[path]",
	Flags: []cli.Flag{
		&cli.BoolFlag{Name: "force", Usage: "Truncate the store before reindexing"},
	},
	Action: func(c *cli.Context) error {
		root, err := resolveRootArg(c)
		if err != nil {
			return err
		}
		p, err := openProject(root, c.Bool("quiet"))
		if err != nil {
			return err
		}
		defer p.Close()

		result, err := p.handlers.Index(context.Background(), root, c.Bool("force"))
		if err != nil {
			return fail(exitCodeFor(err), err)
		}
		return printResult(c, result)
	},
}

var syncCommand = &cli.Command{
	Name:      "sync",
	Usage:     "Incremental reindex of changed files",
	ArgsUsage: "[path]",
	Flags: []cli.Flag{
		&cli.BoolFlag{Name: "watch", Usage: "Watch the project tree and sync on change (spec §4.I optional trigger)"},
	},
	Action: func(c *cli.Context) error {
		root, err := resolveRootArg(c)
		if err != nil {
			return err
		}
		p, err := openProject(root, c.Bool("quiet"))
		if err != nil {
			return err
		}
		defer p.Close()

		if c.Bool("watch") {
			return runWatch(c, p)
		}

		result, err := p.handlers.Sync(context.Background(), root)
		if err != nil {
			return fail(exitCodeFor(err), err)
		}
		return printResult(c, result)
	},
}

var statusCommand = &cli.Command{
	Name:      "status",
	Usage:     "Graph stats: counts by kind/language, database size, last sync time",
	ArgsUsage: "[path]",
	Action: func(c *cli.Context) error {
		root, err := resolveRootArg(c)
		if err != nil {
			return err
		}
		p, err := openProject(root, c.Bool("quiet"))
		if err != nil {
			return err
		}
		defer p.Close()

		report, err := p.handlers.Status(context.Background())
		if err != nil {
			return fail(exitError, err)
		}
		return printResult(c, report)
	},
}

func printResult(c *cli.Context, v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
