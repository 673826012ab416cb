package config

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	root := t.TempDir()
	cfg := Default(root, "demo")

	require.NoError(t, cfg.Save(root))
	require.True(t, Exists(root))

	loaded, err := Load(root)
	require.NoError(t, err)
	require.Equal(t, cfg.ProjectName, loaded.ProjectName)
	require.Equal(t, cfg.Exclude, loaded.Exclude)
}

func TestSaveLeavesNoTempFile(t *testing.T) {
	root := t.TempDir()
	cfg := Default(root, "demo")
	require.NoError(t, cfg.Save(root))

	entries, err := filepath.Glob(filepath.Join(Dir(root), "*.tmp.*"))
	require.NoError(t, err)
	require.Empty(t, entries, "no *.tmp.* sibling should remain after a successful save")
}

func TestValidateRejectsBadGlob(t *testing.T) {
	cfg := Default(t.TempDir(), "demo")
	cfg.Exclude = append(cfg.Exclude, "[")

	err := cfg.Validate()
	require.Error(t, err)
	require.True(t, strings.Contains(err.Error(), "glob"))
}

func TestValidateRejectsUnsupportedVersion(t *testing.T) {
	cfg := Default(t.TempDir(), "demo")
	cfg.Version = SchemaVersion + 1

	require.Error(t, cfg.Validate())
}

func TestLoadMissingConfigIsIOError(t *testing.T) {
	_, err := Load(t.TempDir())
	require.Error(t, err)
}
