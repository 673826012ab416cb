package sync

import (
	"context"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/standardbeagle/codegraph/internal/cgerrors"
	"github.com/standardbeagle/codegraph/internal/diag"
)

// watchSettleDelay is how long the Watcher waits after the last filesystem
// event before running a Sync pass. Editors emit several events (write,
// chmod, rename-into-place) per logical save; without debouncing a single
// save would trigger several redundant Run calls.
const watchSettleDelay = 500 * time.Millisecond

// watchIgnoredDirs are skipped both when walking to install recursive
// watches and when deciding whether an event should mark the tree dirty.
// This mirrors config.Default's exclusions for the directories an editor or
// build tool touches constantly but that never hold source the indexer
// tracks.
var watchIgnoredDirs = []string{".git", ".codegraph", "node_modules", "vendor", "dist", "build", "out", "target", "bin", "obj", "__pycache__", ".venv"}

// Watcher wires fsnotify into Sync as spec §4.I's optional trigger: each
// filesystem event restarts a settle timer and, once the tree settles, it
// runs one Syncer.Run pass. It never syncs per-event since that would thrash the
// store during a multi-file save or branch switch.
type Watcher struct {
	syncer *Syncer
	fsw    *fsnotify.Watcher
	log    *diag.Logger
	root   string
}

// NewWatcher installs a recursive fsnotify watch rooted at projectRoot.
// Callers must call Run to drain events (it blocks until ctx is done) and
// Close to release the OS watch handles.
func NewWatcher(sy *Syncer, projectRoot string, log *diag.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, cgerrors.NewIOError("watch", projectRoot, err)
	}
	if err := addRecursive(fsw, projectRoot); err != nil {
		_ = fsw.Close()
		return nil, err
	}
	if log == nil {
		log = diag.Quiet()
	}
	return &Watcher{syncer: sy, fsw: fsw, log: log, root: projectRoot}, nil
}

// addRecursive registers a watch on dir and every non-ignored subdirectory,
// since fsnotify only watches the directories it's explicitly given.
func addRecursive(fsw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && isIgnoredDir(d.Name()) {
			return filepath.SkipDir
		}
		if err := fsw.Add(path); err != nil {
			return cgerrors.NewIOError("watch-add", path, err)
		}
		return nil
	})
}

func isIgnoredDir(name string) bool {
	for _, ignored := range watchIgnoredDirs {
		if name == ignored {
			return true
		}
	}
	return false
}

func touchesIgnoredDir(path string) bool {
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if isIgnoredDir(part) {
			return true
		}
	}
	return false
}

// Run drains fsnotify events until ctx is cancelled, debouncing bursts into
// at most one Sync().Run call per watchSettleDelay quiet period. Run events
// are logged through the Watcher's diag.Logger phase "watch" rather than
// returned, since a single malformed event shouldn't stop the watch loop.
func (w *Watcher) Run(ctx context.Context) error {
	var settle *time.Timer
	defer func() {
		if settle != nil {
			settle.Stop()
		}
	}()

	var settleCh <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if touchesIgnoredDir(ev.Name) {
				continue
			}
			// A newly created directory needs its own watch or its
			// descendants' events never arrive.
			if ev.Op&fsnotify.Create != 0 {
				if err := addRecursive(w.fsw, ev.Name); err != nil {
					w.log.Phase("watch", "add %s: %v", ev.Name, err)
				}
			}
			if settle == nil {
				settle = time.NewTimer(watchSettleDelay)
			} else {
				if !settle.Stop() {
					select {
					case <-settle.C:
					default:
					}
				}
				settle.Reset(watchSettleDelay)
			}
			settleCh = settle.C

		case <-settleCh:
			settleCh = nil
			if _, err := w.syncer.Run(ctx); err != nil {
				w.log.Phase("watch", "triggered sync failed: %v", err)
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.log.Phase("watch", "fsnotify error: %v", err)
		}
	}
}

// Close releases the underlying fsnotify watch. Safe to call after Run's
// context has been cancelled.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}
