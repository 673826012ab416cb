package main

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/codegraph/internal/cgerrors"
	"github.com/standardbeagle/codegraph/internal/config"
	contextbuilder "github.com/standardbeagle/codegraph/internal/context"
	"github.com/standardbeagle/codegraph/internal/diag"
	"github.com/standardbeagle/codegraph/internal/graph"
	"github.com/standardbeagle/codegraph/internal/handlers"
	"github.com/standardbeagle/codegraph/internal/search"
	"github.com/standardbeagle/codegraph/internal/store"
	"github.com/standardbeagle/codegraph/internal/sync"
	"github.com/standardbeagle/codegraph/internal/vectors"
)

// exit codes per spec §6: 0 success, 1 unrecoverable error, 2 not
// initialized, 3 locked by another process.
const (
	exitOK      = 0
	exitError   = 1
	exitNotInit = 2
	exitLocked  = 3
)

// exitCoded lets command Actions report a specific process exit code without
// urfave/cli's default of always exiting 1 on a returned error.
type exitCoded struct {
	code int
	err  error
}

func (e *exitCoded) Error() string { return e.err.Error() }

func fail(code int, err error) error { return &exitCoded{code: code, err: err} }

// exitCodeFor maps a returned error to a process exit code, unwrapping
// exitCoded and recognizing cgerrors.IOError("lock", ...) as exitLocked.
func exitCodeFor(err error) int {
	if err == nil {
		return exitOK
	}
	var coded *exitCoded
	if errors.As(err, &coded) {
		return coded.code
	}
	var ioErr *cgerrors.IOError
	if errors.As(err, &ioErr) && ioErr.Op == "lock" {
		return exitLocked
	}
	return exitError
}

// project bundles every open component a CLI command needs, mirroring the
// wiring internal/handlers/handlers_test.go's newTestHandlers helper does
// for tests but against a real .codegraph/graph.db.
type project struct {
	root     string
	cfg      *config.Config
	store    *store.Store
	handlers *handlers.Handlers
}

func dbPath(root string) string {
	return filepath.Join(config.Dir(root), "graph.db")
}

// openProject loads config.json and opens the Store/Graph/Searcher/Context
// pipeline under root. The Vectors component is left nil: spec §4.G marks it
// optional, and no embedder implementation is wired into this repo yet.
func openProject(root string, quiet bool) (*project, error) {
	if !config.Exists(root) {
		return nil, fail(exitNotInit, cgerrors.NewConfigError("root", errProjectNotInitialized(root)))
	}
	cfg, err := config.Load(root)
	if err != nil {
		return nil, fail(exitError, err)
	}

	log := diag.Default()
	if quiet {
		log = diag.Quiet()
	}

	s, err := store.Open(dbPath(root))
	if err != nil {
		return nil, fail(exitError, err)
	}

	g := graph.New(s)
	searcher := search.New(s)
	var semantic contextbuilder.Semantic
	var vecs *vectors.Vectors
	ctxBuilder := contextbuilder.New(s, g, searcher, semantic, os.ReadFile)
	syncer := sync.New(s, cfg, log, os.ReadFile)

	h := handlers.New(root, s, g, searcher, ctxBuilder, syncer, vecs, log)
	return &project{root: root, cfg: cfg, store: s, handlers: h}, nil
}

func (p *project) Close() error {
	if p == nil || p.store == nil {
		return nil
	}
	return p.store.Close()
}

type notInitializedError struct{ root string }

func (e *notInitializedError) Error() string {
	return "not an initialized codegraph project at " + e.root + " (run `codegraph init` first)"
}

func errProjectNotInitialized(root string) error { return &notInitializedError{root: root} }

// resolveRoot resolves the project root from the --root flag, falling back
// to the current working directory. Use this for commands whose positional
// argument is something else (query text, a task description, an import
// file path).
func resolveRoot(c *cli.Context) (string, error) {
	return absRoot(c.String("root"))
}

// resolveRootArg is resolveRoot but also accepts the root as a bare
// positional argument, for commands (init/index/sync/status) whose
// ArgsUsage is "[path]".
func resolveRootArg(c *cli.Context) (string, error) {
	path := c.String("root")
	if path == "" {
		path = c.Args().First()
	}
	return absRoot(path)
}

func absRoot(path string) (string, error) {
	if path == "" {
		path = "."
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fail(exitError, cgerrors.NewIOError("resolve-root", path, err))
	}
	return abs, nil
}
