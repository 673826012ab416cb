package main

import (
	"context"

	"github.com/urfave/cli/v2"

	contextbuilder "github.com/standardbeagle/codegraph/internal/context"
	"github.com/standardbeagle/codegraph/internal/handlers"
)

var queryCommand = &cli.Command{
	Name:      "query",
	Usage:     "Lexical search over the code graph",
	ArgsUsage: "<text>",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "kind", Usage: "Restrict to a node kind"},
		&cli.StringFlag{Name: "language", Usage: "Restrict to a language"},
		&cli.StringFlag{Name: "path", Usage: "Restrict to paths containing this fragment"},
		&cli.BoolFlag{Name: "include-files", Usage: "Include synthetic file nodes"},
		&cli.IntFlag{Name: "limit", Value: 20, Usage: "Max results"},
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

		results, err := p.handlers.Search(context.Background(), handlers.SearchRequest{
			Query:        c.Args().First(),
			Kind:         c.String("kind"),
			Language:     c.String("language"),
			PathHint:     c.String("path"),
			IncludeFiles: c.Bool("include-files"),
			Limit:        c.Int("limit"),
		})
		if err != nil {
			return fail(exitError, err)
		}
		return printResult(c, results)
	},
}

var contextCommand = &cli.Command{
	Name:      "context",
	Usage:     "Build a task-scoped subgraph with ranked code excerpts",
	ArgsUsage: "<task description>",
	Flags: []cli.Flag{
		&cli.IntFlag{Name: "max-nodes", Usage: "Node budget for the returned subgraph"},
		&cli.StringFlag{Name: "kind", Usage: "Restrict auto-scope to a node kind"},
		&cli.StringFlag{Name: "language", Usage: "Restrict auto-scope to a language"},
		&cli.StringFlag{Name: "path", Usage: "Restrict auto-scope to a path fragment"},
		&cli.BoolFlag{Name: "include-files", Usage: "Include file nodes in the subgraph"},
		&cli.BoolFlag{Name: "no-code", Usage: "Omit code excerpts"},
		&cli.StringFlag{Name: "format", Value: "markdown", Usage: "markdown, json, or object"},
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

		rendered, err := p.handlers.Context(context.Background(), handlers.ContextRequest{
			Task:         c.Args().First(),
			MaxNodes:     c.Int("max-nodes"),
			Kind:         c.String("kind"),
			Language:     c.String("language"),
			PathHint:     c.String("path"),
			IncludeFiles: c.Bool("include-files"),
			IncludeCode:  !c.Bool("no-code"),
			Format:       contextbuilder.Format(c.String("format")),
		})
		if err != nil {
			return fail(exitError, err)
		}
		if text, ok := rendered.(string); ok {
			_, err := c.App.Writer.Write([]byte(text + "\n"))
			return err
		}
		return printResult(c, rendered)
	},
}
