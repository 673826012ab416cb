// Package lock implements the cross-process writer lock of spec §5, §9:
// a PID-file at .codegraph/<name>.lock guarding indexAll/indexFiles/sync
// so two processes never write the same store concurrently. Grounded on
// the teacher corpus's PID-file pattern (Aman-CERP-amanmcp's
// internal/daemon/pidfile.go), generalized from a daemon-liveness check
// to acquire/release-with-stale-recovery semantics. Acquisition uses
// exclusive-create (O_EXCL), not third-party advisory locking (flock):
// the spec calls for inspecting and evicting a stale PID, a policy no
// pack library implements, so this stays on the standard library.
package lock

import (
	"fmt"
	"os"
	"strconv"
	"syscall"

	"github.com/standardbeagle/codegraph/internal/cgerrors"
)

// Lock is a held cross-process file lock. The zero value is not usable;
// obtain one via Acquire.
type Lock struct {
	path string
}

// Acquire creates path exclusively and writes the current PID into it. If
// path already exists, its PID is checked for liveness: a dead holder's
// lock is removed and acquisition retried once; a live holder causes
// acquisition to fail with a structured IOError (spec §7 "concurrent lock
// held", §6 CLI exit code 3).
func Acquire(path string) (*Lock, error) {
	if err := tryCreate(path); err == nil {
		return &Lock{path: path}, nil
	}

	holder, readErr := readPID(path)
	if readErr == nil && !processAlive(holder) {
		_ = os.Remove(path)
		if err := tryCreate(path); err == nil {
			return &Lock{path: path}, nil
		}
	}

	return nil, cgerrors.NewIOError("lock", path, fmt.Errorf("locked by another process (pid %d)", holder))
}

// Release removes the lock file, but only if its recorded PID still
// matches this process (spec §9: "release only removes the file if the
// PID in it is ours"). A lock whose file was already removed, or whose PID
// belongs to someone else, is left alone.
func (l *Lock) Release() error {
	holder, err := readPID(l.path)
	if err != nil {
		return nil
	}
	if holder != os.Getpid() {
		return nil
	}
	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return cgerrors.NewIOError("unlock", l.path, err)
	}
	return nil
}

// Path returns the lock file's path.
func (l *Lock) Path() string { return l.path }

func tryCreate(path string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.WriteString(strconv.Itoa(os.Getpid()))
	return err
}

func readPID(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(string(data))
}

// processAlive reports whether pid is a live process, by sending the null
// signal (spec §9 "stale holders (PID not alive) are evicted").
func processAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return process.Signal(syscall.Signal(0)) == nil
}
