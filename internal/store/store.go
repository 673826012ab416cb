// Package store is the hybrid relational store (spec §4.A): SQLite tables
// for nodes, edges, files, unresolved references, vectors and project
// metadata, plus an FTS5 index over (name, qualifiedName, docstring). Uses
// modernc.org/sqlite, a pure-Go driver, so codegraph ships as a single
// cgo-free binary.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	_ "modernc.org/sqlite"

	"github.com/standardbeagle/codegraph/internal/cgerrors"
	"github.com/standardbeagle/codegraph/internal/types"
)

// nodeCacheSize bounds the LRU cache fronting getNodeById (spec §4.A: "~1000 entries").
const nodeCacheSize = 1000

// Store is the single open handle to a project's .codegraph/graph.db.
type Store struct {
	mu    sync.RWMutex
	db    *sql.DB
	path  string
	cache *lru.Cache[string, types.Node]
}

// Open opens (creating if absent) the SQLite database at path, applies
// performance pragmas, and runs pending schema migrations.
func Open(path string) (*Store, error) {
	dsn := path
	if path != ":memory:" {
		dsn = path + "?_pragma=busy_timeout(5000)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, cgerrors.NewDatabaseError("open", true, err)
	}
	// One open connection serializes every read and write through it,
	// which avoids SQLITE_BUSY storms under WAL.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA cache_size = -65536", // ~64MB page cache
		"PRAGMA temp_store = MEMORY",
		"PRAGMA mmap_size = 268435456", // ~256MB mmap window
		"PRAGMA foreign_keys = ON",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, cgerrors.NewDatabaseError("pragma", true, err)
		}
	}

	cache, _ := lru.New[string, types.Node](nodeCacheSize)
	s := &Store{db: db, path: path, cache: cache}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Path returns the filesystem path the store was opened with, used by
// status reporting to stat the on-disk database size.
func (s *Store) Path() string { return s.path }

// Reset truncates every table that index/sync populate, leaving schema and
// project_metadata provenance keys untouched. Used by `index --force` (spec
// §6) to force a from-scratch rebuild instead of an incremental diff.
func (s *Store) Reset(ctx context.Context) error {
	defer s.cache.Purge()
	return s.withTx(ctx, func(tx *sql.Tx) error {
		for _, stmt := range []string{
			"DELETE FROM nodes_fts",
			"DELETE FROM vectors",
			"DELETE FROM unresolved_refs",
			"DELETE FROM edges",
			"DELETE FROM nodes",
			"DELETE FROM files",
		} {
			if _, err := tx.Exec(stmt); err != nil {
				return cgerrors.NewDatabaseError("reset", false, err)
			}
		}
		return nil
	})
}

// Close flushes the WAL and closes the underlying handle.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, _ = s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
	return s.db.Close()
}

// schemaVersion returns the current version recorded in schema_versions, or
// 0 if the table doesn't exist yet (spec §4.A).
func (s *Store) schemaVersion() (int, error) {
	var exists int
	err := s.db.QueryRow(`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='schema_versions'`).Scan(&exists)
	if err != nil {
		return 0, err
	}
	if exists == 0 {
		return 0, nil
	}
	var v int
	err = s.db.QueryRow(`SELECT COALESCE(MAX(version), 0) FROM schema_versions`).Scan(&v)
	return v, err
}

// migrate runs every migration above the current schema version inside one
// transaction per migration (spec §4.A: "linear migrations").
func (s *Store) migrate() error {
	current, err := s.schemaVersion()
	if err != nil {
		return cgerrors.NewDatabaseError("schema_version", true, err)
	}
	for _, m := range migrations {
		if m.version <= current {
			continue
		}
		tx, err := s.db.Begin()
		if err != nil {
			return cgerrors.NewDatabaseError("migrate", true, err)
		}
		if _, err := tx.Exec(m.sql); err != nil {
			_ = tx.Rollback()
			return cgerrors.NewDatabaseError(fmt.Sprintf("migrate v%d", m.version), true, err)
		}
		if _, err := tx.Exec(`INSERT INTO schema_versions(version) VALUES (?)`, m.version); err != nil {
			_ = tx.Rollback()
			return cgerrors.NewDatabaseError(fmt.Sprintf("migrate v%d", m.version), true, err)
		}
		if err := tx.Commit(); err != nil {
			return cgerrors.NewDatabaseError(fmt.Sprintf("migrate v%d", m.version), true, err)
		}
	}
	return nil
}

type migration struct {
	version int
	sql     string
}

var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS schema_versions (
	version INTEGER PRIMARY KEY,
	applied_at INTEGER DEFAULT (strftime('%s','now'))
);

CREATE TABLE IF NOT EXISTS nodes (
	id TEXT PRIMARY KEY,
	kind TEXT NOT NULL,
	name TEXT NOT NULL,
	qualified_name TEXT,
	file_path TEXT NOT NULL,
	language TEXT,
	start_line INTEGER,
	end_line INTEGER,
	start_column INTEGER,
	end_column INTEGER,
	docstring TEXT,
	signature TEXT,
	visibility TEXT,
	is_exported INTEGER DEFAULT 0,
	is_async INTEGER DEFAULT 0,
	is_static INTEGER DEFAULT 0,
	is_abstract INTEGER DEFAULT 0,
	decorators TEXT,
	type_parameters TEXT,
	updated_at INTEGER
);
CREATE INDEX IF NOT EXISTS idx_nodes_file ON nodes(file_path);
CREATE INDEX IF NOT EXISTS idx_nodes_name ON nodes(name);
CREATE INDEX IF NOT EXISTS idx_nodes_qualified_name ON nodes(qualified_name);
CREATE INDEX IF NOT EXISTS idx_nodes_kind ON nodes(kind);

CREATE TABLE IF NOT EXISTS edges (
	source TEXT NOT NULL,
	target TEXT NOT NULL,
	kind TEXT NOT NULL,
	line INTEGER,
	column INTEGER,
	metadata TEXT,
	PRIMARY KEY (source, target, kind, line, column)
);
CREATE INDEX IF NOT EXISTS idx_edges_source ON edges(source, kind);
CREATE INDEX IF NOT EXISTS idx_edges_target ON edges(target, kind);

CREATE TABLE IF NOT EXISTS files (
	path TEXT PRIMARY KEY,
	content_hash TEXT NOT NULL,
	language TEXT,
	size INTEGER,
	modified_at INTEGER,
	indexed_at INTEGER,
	node_count INTEGER,
	errors TEXT
);

CREATE TABLE IF NOT EXISTS unresolved_refs (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	from_node_id TEXT NOT NULL,
	reference_name TEXT NOT NULL,
	reference_kind TEXT NOT NULL,
	line INTEGER,
	column INTEGER,
	file_path TEXT NOT NULL,
	language TEXT
);
CREATE INDEX IF NOT EXISTS idx_unresolved_refs_file ON unresolved_refs(file_path);

CREATE TABLE IF NOT EXISTS vectors (
	node_id TEXT PRIMARY KEY,
	dimension INTEGER NOT NULL,
	model_id TEXT NOT NULL,
	values BLOB NOT NULL
);

CREATE TABLE IF NOT EXISTS project_metadata (
	key TEXT PRIMARY KEY,
	value TEXT
);

CREATE VIRTUAL TABLE IF NOT EXISTS nodes_fts USING fts5(
	id UNINDEXED,
	name,
	qualified_name,
	docstring,
	tokenize='unicode61'
);
`,
	},
}

// withTx runs fn inside a transaction, committing on success.
func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return cgerrors.NewDatabaseError("begin", false, err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return cgerrors.NewDatabaseError("commit", false, err)
	}
	return nil
}

func marshalJSON(v any) string {
	if v == nil {
		return ""
	}
	switch t := v.(type) {
	case []string:
		if len(t) == 0 {
			return ""
		}
	case map[string]any:
		if len(t) == 0 {
			return ""
		}
	}
	data, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(data)
}

// unmarshalJSON tolerates malformed JSON by returning the zero value rather
// than an error (spec §4.A failure model).
func unmarshalJSON[T any](raw sql.NullString) T {
	var out T
	if !raw.Valid || raw.String == "" {
		return out
	}
	_ = json.Unmarshal([]byte(raw.String), &out)
	return out
}
