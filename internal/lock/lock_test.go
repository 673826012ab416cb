package lock

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAcquireAndRelease(t *testing.T) {
	path := filepath.Join(t.TempDir(), "codegraph.lock")

	l, err := Acquire(path)
	require.NoError(t, err)
	require.Equal(t, path, l.Path())
	require.FileExists(t, path)

	require.NoError(t, l.Release())
	require.NoFileExists(t, path)
}

func TestAcquireFailsWhileHeldByLiveProcess(t *testing.T) {
	path := filepath.Join(t.TempDir(), "codegraph.lock")

	l, err := Acquire(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Release() })

	_, err = Acquire(path)
	require.Error(t, err)
}

func TestAcquireRecoversStaleLock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "codegraph.lock")

	// A PID that cannot plausibly still be alive: 2^30, well past any real
	// process table.
	require.NoError(t, os.WriteFile(path, []byte(strconv.Itoa(1<<30)), 0o644))

	l, err := Acquire(path)
	require.NoError(t, err)
	require.NoError(t, l.Release())
}

func TestReleaseIsNoopForForeignHolder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "codegraph.lock")
	require.NoError(t, os.WriteFile(path, []byte(strconv.Itoa(os.Getpid()+1)), 0o644))

	l := &Lock{path: path}
	require.NoError(t, l.Release())
	require.FileExists(t, path)
}
