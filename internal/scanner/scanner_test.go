package scanner

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	abs := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(abs), 0o755))
	require.NoError(t, os.WriteFile(abs, []byte(content), 0o644))
}

func paths(files []File) []string {
	out := make([]string, len(files))
	for i, f := range files {
		out[i] = f.Path
	}
	sort.Strings(out)
	return out
}

func TestScanIncludeExcludeExcludeWins(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "src/main.go", "package main")
	writeFile(t, root, "vendor/lib/lib.go", "package lib")
	writeFile(t, root, "src/main_test.go", "package main")

	s := New(root, Options{
		Include: []string{"**/*.go"},
		Exclude: []string{"**/vendor/**"},
	}, nil)

	files, err := s.Scan(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"src/main.go", "src/main_test.go"}, paths(files))
}

func TestScanContentHashMatchesSHA256(t *testing.T) {
	root := t.TempDir()
	content := "package main\n\nfunc main() {}\n"
	writeFile(t, root, "main.go", content)

	s := New(root, Options{Include: []string{"**/*.go"}}, nil)
	files, err := s.Scan(context.Background())
	require.NoError(t, err)
	require.Len(t, files, 1)

	sum := sha256.Sum256([]byte(content))
	require.Equal(t, hex.EncodeToString(sum[:]), files[0].ContentHash)
}

func TestScanSkipsBrokenSymlink(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks require elevated privileges on windows")
	}
	root := t.TempDir()
	writeFile(t, root, "real.go", "package main")
	require.NoError(t, os.Symlink(filepath.Join(root, "does-not-exist.go"), filepath.Join(root, "broken.go")))

	s := New(root, Options{Include: []string{"**/*.go"}, FollowSymlinks: true}, nil)
	files, err := s.Scan(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"real.go"}, paths(files))
}

func TestScanSymlinkCycleTerminates(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks require elevated privileges on windows")
	}
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "a"), 0o755))
	writeFile(t, root, "a/file.go", "package a")
	require.NoError(t, os.Symlink(root, filepath.Join(root, "a", "loop")))

	s := New(root, Options{Include: []string{"**/*.go"}, FollowSymlinks: true}, nil)

	done := make(chan struct{})
	go func() {
		_, err := s.Scan(context.Background())
		require.NoError(t, err)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("scan did not terminate on symlink cycle")
	}
}

func TestScanDedupesFileReachedViaTwoSymlinkPaths(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks require elevated privileges on windows")
	}
	root := t.TempDir()
	writeFile(t, root, "real/file.go", "package real")
	require.NoError(t, os.Symlink(filepath.Join(root, "real"), filepath.Join(root, "alias")))

	s := New(root, Options{Include: []string{"**/*.go"}, FollowSymlinks: true}, nil)
	files, err := s.Scan(context.Background())
	require.NoError(t, err)
	require.Len(t, files, 1)
}

func TestIsBinaryDetectsMagicAndExtension(t *testing.T) {
	require.True(t, isBinary("logo.png", []byte{0x89, 0x50, 0x4e, 0x47}))
	require.True(t, isBinary("archive.zip", nil))
	require.False(t, isBinary("main.go", []byte("package main\n")))
	require.True(t, isBinary("unknown", []byte{0x00, 0x01, 0x02, 0x03}))
}
