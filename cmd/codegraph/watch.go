package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/codegraph/internal/diag"
	"github.com/standardbeagle/codegraph/internal/sync"
)

// runWatch installs a recursive fsnotify watch and syncs on settle, until
// SIGINT/SIGTERM (spec §4.I's optional trigger). Grounded on cmd/lci/main.go's
// mcpCommand signal-handling shape: a cancellable context plus a signal
// channel raced against the background loop's error channel.
func runWatch(c *cli.Context, p *project) error {
	log := diag.Default()
	if c.Bool("quiet") {
		log = diag.Quiet()
	}

	watcher, err := sync.NewWatcher(p.handlers.Syncer, p.root, log)
	if err != nil {
		return fail(exitError, err)
	}
	defer watcher.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() { errCh <- watcher.Run(ctx) }()

	fmt.Fprintf(os.Stderr, "codegraph: watching %s for changes (ctrl-c to stop)\n", p.root)
	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			return fail(exitError, err)
		}
		return nil
	case <-sigCh:
		cancel()
		<-errCh
		return nil
	}
}
