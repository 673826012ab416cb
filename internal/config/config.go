// Package config loads and atomically writes .codegraph/config.json
// (spec §6): include/exclude globs, maxFileSize, languages, a frameworks
// hint, project name/version and enableEmbeddings.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/standardbeagle/codegraph/internal/cgerrors"
)

// SchemaVersion is the current on-disk config schema version.
const SchemaVersion = 1

// DefaultMaxFileSize is the size above which the extractor skips a file
// with a warning (spec §4.B).
const DefaultMaxFileSize = 2 << 20 // 2 MiB

// Config is the on-disk shape of .codegraph/config.json.
type Config struct {
	Version          int      `json:"version"`
	ProjectName      string   `json:"projectName"`
	ProjectRoot      string   `json:"-"`
	Include          []string `json:"include"`
	Exclude          []string `json:"exclude"`
	MaxFileSize      int64    `json:"maxFileSize"`
	Languages        []string `json:"languages,omitempty"`
	FrameworksHint   []string `json:"frameworksHint,omitempty"`
	EnableEmbeddings bool     `json:"enableEmbeddings"`
}

// Default returns the configuration used by `codegraph init` when no
// config.json exists yet. Exclusions mirror the ambient defaults a real
// indexer needs (VCS metadata, dependency trees, build output) without
// requiring a build-tool-specific parser.
func Default(root, projectName string) *Config {
	return &Config{
		Version:     SchemaVersion,
		ProjectName: projectName,
		ProjectRoot: root,
		Include:     []string{"**/*"},
		Exclude: []string{
			"**/.git/**",
			"**/.codegraph/**",
			"**/node_modules/**",
			"**/vendor/**",
			"**/dist/**",
			"**/build/**",
			"**/out/**",
			"**/target/**",
			"**/bin/**",
			"**/obj/**",
			"**/__pycache__/**",
			"**/.venv/**",
		},
		MaxFileSize:      DefaultMaxFileSize,
		EnableEmbeddings: false,
	}
}

// Dir returns the .codegraph directory under root.
func Dir(root string) string {
	return filepath.Join(root, ".codegraph")
}

// Path returns the config.json path under root.
func Path(root string) string {
	return filepath.Join(Dir(root), "config.json")
}

// Load reads and validates config.json under root.
func Load(root string) (*Config, error) {
	path := Path(root)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, cgerrors.NewIOError("read", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, cgerrors.NewConfigError("config.json", err)
	}
	cfg.ProjectRoot = root

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects a config whose schema version is unsupported or whose
// globs fail to compile (spec §7 Config errors).
func (c *Config) Validate() error {
	if c.Version <= 0 || c.Version > SchemaVersion {
		return cgerrors.NewConfigError("version", fmt.Errorf("unsupported schema version %d", c.Version))
	}
	for _, pattern := range append(append([]string{}, c.Include...), c.Exclude...) {
		if err := validateGlob(pattern); err != nil {
			return cgerrors.NewConfigError("glob", fmt.Errorf("%q: %w", pattern, err))
		}
	}
	if c.MaxFileSize <= 0 {
		return cgerrors.NewConfigError("maxFileSize", fmt.Errorf("must be positive, got %d", c.MaxFileSize))
	}
	return nil
}

// Save writes config.json atomically: write to path+".tmp.<pid>", then
// rename into place (spec §6, §9). On failure the temp file is removed so
// no *.tmp.* sibling survives (testable property 10).
func (c *Config) Save(root string) error {
	if err := os.MkdirAll(Dir(root), 0o755); err != nil {
		return cgerrors.NewIOError("mkdir", Dir(root), err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return cgerrors.NewConfigError("config.json", err)
	}

	path := Path(root)
	tmp := fmt.Sprintf("%s.tmp.%d", path, os.Getpid())
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		_ = os.Remove(tmp)
		return cgerrors.NewIOError("write", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return cgerrors.NewIOError("rename", path, err)
	}
	return writeGitignore(root)
}

// writeGitignore ensures .codegraph/.gitignore excludes the store's
// binary artifacts from version control (spec §6).
func writeGitignore(root string) error {
	path := filepath.Join(Dir(root), ".gitignore")
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	content := "*.db\n*.db-wal\n*.db-shm\n*.lock\nmodels/\nsync.log\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return cgerrors.NewIOError("write", path, err)
	}
	return nil
}

// Exists reports whether a config.json has been initialized under root.
func Exists(root string) bool {
	_, err := os.Stat(Path(root))
	return err == nil
}
