package handlers

import (
	"context"
	"path/filepath"
	"sync"

	"github.com/standardbeagle/codegraph/internal/cgerrors"
	"github.com/standardbeagle/codegraph/internal/config"
	"github.com/standardbeagle/codegraph/internal/lock"
	syncer "github.com/standardbeagle/codegraph/internal/sync"
)

// indexMutex serializes indexAll/indexFiles/sync within one process (spec
// §5: "An in-process IndexMutex serializes indexAll, indexFiles, and sync
// so that at most one writer runs at a time"). A package-level mutex is
// sufficient since a process opens at most one project store at a time (see
// SetRoot).
var indexMutex sync.Mutex

// lockName is the cross-process writer lock's filename under .codegraph/
// (spec §5, §6).
const lockName = "codegraph.lock"

// withWriteLock serializes in-process writers via indexMutex, then takes the
// cross-process PID-file lock under root before running fn (spec §5).
func withWriteLock(root string, fn func() error) error {
	indexMutex.Lock()
	defer indexMutex.Unlock()

	l, err := lock.Acquire(filepath.Join(config.Dir(root), lockName))
	if err != nil {
		return err
	}
	defer l.Release()

	return fn()
}

// Init writes a fresh .codegraph/config.json under root (spec §6). If a
// config already exists, force must be set or Init fails with a ConfigError
// so callers don't silently clobber project settings.
func (h *Handlers) Init(ctx context.Context, root, projectName string, force bool) (*config.Config, error) {
	if config.Exists(root) && !force {
		return nil, cgerrors.NewConfigError("init", errAlreadyInitialized)
	}
	cfg := config.Default(root, projectName)
	if err := cfg.Save(root); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Index runs a full rebuild: with force it truncates the store first so
// every file is reclassified as "added"; without force it behaves like an
// initial Sync, since diffing an empty store against the project already
// treats every file as added (spec §4.I, §6 indexAll).
func (h *Handlers) Index(ctx context.Context, root string, force bool) (syncer.Result, error) {
	var result syncer.Result
	err := withWriteLock(root, func() error {
		if force {
			if err := h.Store.Reset(ctx); err != nil {
				return err
			}
		}
		var err error
		result, err = h.Syncer.Run(ctx)
		return err
	})
	return result, err
}

// Sync runs the incremental sync pipeline under the cross-process lock
// (spec §4.I, §5).
func (h *Handlers) Sync(ctx context.Context, root string) (syncer.Result, error) {
	var result syncer.Result
	err := withWriteLock(root, func() error {
		var err error
		result, err = h.Syncer.Run(ctx)
		return err
	})
	return result, err
}

// GetRoot reports the project root this Handlers instance currently serves
// (spec §6 `get_root`).
func (h *Handlers) GetRoot() string { return h.Root }

// SetRoot validates that path is an initialized codegraph project (spec §6
// `set_root`). The caller (mcpserver/cmd) is responsible for actually
// reopening the Store/components against the new root and constructing a
// fresh Handlers — this layer only validates and records the target so the
// "thin request-shaping" boundary of spec §4.J holds.
func (h *Handlers) SetRoot(path string) error {
	if !config.Exists(path) {
		return cgerrors.NewConfigError("set_root", errNotInitialized)
	}
	h.Root = path
	return nil
}

// Uninit closes the Store and clears the in-memory root, signalling the
// caller to drop .codegraph (spec §6 `uninit`). It leaves any lock file in
// place and does not delete project files itself:
// destructive filesystem removal is left to the CLI layer, which can ask
// for confirmation.
func (h *Handlers) Uninit(ctx context.Context) error {
	if err := h.Store.Close(); err != nil {
		return err
	}
	h.Root = ""
	return nil
}
