package sync

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/codegraph/internal/config"
	"github.com/standardbeagle/codegraph/internal/store"
)

func openTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func writeProjectFile(t *testing.T, root, rel, content string) {
	t.Helper()
	full := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
}

func newSyncer(t *testing.T, s *store.Store, root string) *Syncer {
	t.Helper()
	cfg := config.Default(root, "testproj")
	readFile := func(path string) ([]byte, error) { return os.ReadFile(path) }
	return New(s, cfg, nil, readFile)
}

func TestRunIndexesAddedFiles(t *testing.T) {
	root := t.TempDir()
	writeProjectFile(t, root, "main.go", "package main\n\nfunc Hello() {}\n")

	s := openTestStore(t)
	ctx := context.Background()
	sy := newSyncer(t, s, root)

	result, err := sy.Run(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, result.Added)
	require.Equal(t, 0, result.Modified)
	require.Equal(t, 0, result.Removed)

	files, err := s.AllFilePaths(ctx)
	require.NoError(t, err)
	require.Contains(t, files, "main.go")
}

func TestRunDetectsModifiedAndRemoved(t *testing.T) {
	root := t.TempDir()
	writeProjectFile(t, root, "main.go", "package main\n\nfunc Hello() {}\n")

	s := openTestStore(t)
	ctx := context.Background()
	sy := newSyncer(t, s, root)

	_, err := sy.Run(ctx)
	require.NoError(t, err)

	writeProjectFile(t, root, "main.go", "package main\n\nfunc Hello() {}\nfunc World() {}\n")
	result, err := sy.Run(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, result.Modified)

	require.NoError(t, os.Remove(filepath.Join(root, "main.go")))
	result, err = sy.Run(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, result.Removed)

	files, err := s.AllFilePaths(ctx)
	require.NoError(t, err)
	require.NotContains(t, files, "main.go")
}

func TestRunIsIdempotentOnUnchangedFiles(t *testing.T) {
	root := t.TempDir()
	writeProjectFile(t, root, "main.go", "package main\n\nfunc Hello() {}\n")

	s := openTestStore(t)
	ctx := context.Background()
	sy := newSyncer(t, s, root)

	_, err := sy.Run(ctx)
	require.NoError(t, err)

	result, err := sy.Run(ctx)
	require.NoError(t, err)
	require.Equal(t, 0, result.Added)
	require.Equal(t, 0, result.Modified)
	require.Equal(t, 1, result.Unchanged)
}

func TestRunWritesSyncProvenance(t *testing.T) {
	root := t.TempDir()
	writeProjectFile(t, root, "main.go", "package main\n\nfunc Hello() {}\n")

	s := openTestStore(t)
	ctx := context.Background()
	sy := newSyncer(t, s, root)

	_, err := sy.Run(ctx)
	require.NoError(t, err)

	v, ok, err := s.GetMetadata(ctx, "lastSyncedByVersion")
	require.NoError(t, err)
	require.True(t, ok)
	require.NotEmpty(t, v)
}
