package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/codegraph/internal/mcpserver"
)

// serveCommand runs the MCP tool surface over stdio (spec §6 `serve --mcp`).
// Grounded on cmd/lci/main.go's mcpCommand: start the server in a goroutine,
// race its error channel against SIGINT/SIGTERM for graceful shutdown.
var serveCommand = &cli.Command{
	Name:      "serve",
	Usage:     "Serve the code graph over a protocol (--mcp for the MCP stdio tool surface)",
	ArgsUsage: "[path]",
	Flags: []cli.Flag{
		&cli.BoolFlag{Name: "mcp", Usage: "Serve the MCP stdio tool surface", Value: true},
	},
	Action: func(c *cli.Context) error {
		if !c.Bool("mcp") {
			return fail(exitError, fmt.Errorf("serve currently only supports --mcp"))
		}
		root, err := resolveRoot(c)
		if err != nil {
			return err
		}
		p, err := openProject(root, true)
		if err != nil {
			return err
		}
		defer p.Close()

		server := mcpserver.New(p.handlers)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

		errCh := make(chan error, 1)
		go func() { errCh <- server.Start(ctx) }()

		select {
		case err := <-errCh:
			if err != nil {
				return fail(exitError, err)
			}
			return nil
		case <-sigCh:
			cancel()
			<-errCh
			return nil
		}
	},
}
