// Command codegraph is the CLI entrypoint of spec §6/§10.4: init, index,
// sync, status, query, context, hooks {install|remove|status} and
// serve --mcp, each wired onto internal/handlers. Grounded on
// cmd/lci/main.go (teacher)'s urfave/cli/v2 app shape: a root command with
// --quiet/--force-style flags, one subcommand per verb, and the same
// "log to stderr, reserve stdout for JSON/MCP" discipline.
package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/codegraph/internal/version"
)

func main() {
	app := &cli.App{
		Name:    "codegraph",
		Usage:   "Local-first code intelligence graph",
		Version: version.Version,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "root", Aliases: []string{"r"}, Usage: "Project root (default: current directory)"},
			&cli.BoolFlag{Name: "quiet", Aliases: []string{"q"}, Usage: "Suppress phase logging"},
		},
		Commands: []*cli.Command{
			initCommand,
			indexCommand,
			syncCommand,
			statusCommand,
			queryCommand,
			contextCommand,
			hooksCommand,
			serveCommand,
			importCommand,
		},
	}

	err := app.Run(os.Args)
	code := exitCodeFor(err)
	if err != nil {
		fmt.Fprintln(os.Stderr, "codegraph: "+err.Error())
	}
	os.Exit(code)
}
