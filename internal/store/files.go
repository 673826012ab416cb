package store

import (
	"context"
	"database/sql"

	"github.com/standardbeagle/codegraph/internal/cgerrors"
	"github.com/standardbeagle/codegraph/internal/types"
)

// UpsertFile records or updates a file's sync bookkeeping row (spec §4.A, §4.I).
func (s *Store) UpsertFile(ctx context.Context, f types.FileRecord) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO files (path, content_hash, language, size, modified_at, indexed_at, node_count, errors)
			VALUES (?,?,?,?,?,?,?,?)
			ON CONFLICT(path) DO UPDATE SET
				content_hash=excluded.content_hash, language=excluded.language, size=excluded.size,
				modified_at=excluded.modified_at, indexed_at=excluded.indexed_at,
				node_count=excluded.node_count, errors=excluded.errors
		`, f.Path, f.ContentHash, f.Language, f.Size, f.ModifiedAt, f.IndexedAt, f.NodeCount, marshalJSON(f.Errors))
		if err != nil {
			return cgerrors.NewDatabaseError("upsertFile", false, err)
		}
		return nil
	})
}

// DeleteFile removes a file's bookkeeping row. Callers use DeleteNodesByFile
// first to clear the file's nodes/edges/unresolved refs (spec §4.I ordering).
func (s *Store) DeleteFile(ctx context.Context, path string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM files WHERE path = ?`, path); err != nil {
			return cgerrors.NewDatabaseError("deleteFile", false, err)
		}
		return nil
	})
}

// GetFile returns a file's bookkeeping row, if present.
func (s *Store) GetFile(ctx context.Context, path string) (types.FileRecord, bool, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT path, content_hash, language, size, modified_at, indexed_at, node_count, errors
		FROM files WHERE path = ?`, path)

	var f types.FileRecord
	var errs sql.NullString
	err := row.Scan(&f.Path, &f.ContentHash, &f.Language, &f.Size, &f.ModifiedAt, &f.IndexedAt, &f.NodeCount, &errs)
	if err == sql.ErrNoRows {
		return types.FileRecord{}, false, nil
	}
	if err != nil {
		return types.FileRecord{}, false, cgerrors.NewDatabaseError("getFile", false, err)
	}
	f.Errors = unmarshalJSON[[]types.FileError](errs)
	return f, true, nil
}

// AllFilePaths returns every path currently tracked in files, the read model
// the resolver and syncer use to answer "does this file exist" (spec §4.D).
func (s *Store) AllFilePaths(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT path FROM files ORDER BY path`)
	if err != nil {
		return nil, cgerrors.NewDatabaseError("allFilePaths", false, err)
	}
	defer rows.Close()

	var paths []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, cgerrors.NewDatabaseError("allFilePaths scan", false, err)
		}
		paths = append(paths, p)
	}
	return paths, rows.Err()
}

// AllFiles returns every tracked file's bookkeeping row, used by the syncer
// to diff content hashes against a fresh scan (spec §4.I).
func (s *Store) AllFiles(ctx context.Context) (map[string]types.FileRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT path, content_hash, language, size, modified_at, indexed_at, node_count, errors FROM files`)
	if err != nil {
		return nil, cgerrors.NewDatabaseError("allFiles", false, err)
	}
	defer rows.Close()

	out := make(map[string]types.FileRecord)
	for rows.Next() {
		var f types.FileRecord
		var errs sql.NullString
		if err := rows.Scan(&f.Path, &f.ContentHash, &f.Language, &f.Size, &f.ModifiedAt, &f.IndexedAt, &f.NodeCount, &errs); err != nil {
			return nil, cgerrors.NewDatabaseError("allFiles scan", false, err)
		}
		f.Errors = unmarshalJSON[[]types.FileError](errs)
		out[f.Path] = f
	}
	return out, rows.Err()
}

// InsertUnresolvedRefs replaces a file's pending reference rows in one
// transaction regardless of batch size (spec §4.A contract).
func (s *Store) InsertUnresolvedRefs(ctx context.Context, filePath string, refs []types.UnresolvedReference) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM unresolved_refs WHERE file_path = ?`, filePath); err != nil {
			return cgerrors.NewDatabaseError("insertUnresolvedRefs delete", false, err)
		}
		if len(refs) == 0 {
			return nil
		}
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO unresolved_refs (from_node_id, reference_name, reference_kind, line, column, file_path, language)
			VALUES (?,?,?,?,?,?,?)
		`)
		if err != nil {
			return cgerrors.NewDatabaseError("insertUnresolvedRefs prepare", false, err)
		}
		defer stmt.Close()
		for _, r := range refs {
			if _, err := stmt.ExecContext(ctx, r.FromNodeID, r.ReferenceName, string(r.ReferenceKind), r.Line, r.Column, r.FilePath, r.Language); err != nil {
				return cgerrors.NewDatabaseError("insertUnresolvedRefs", false, err)
			}
		}
		return nil
	})
}

// AllUnresolvedRefs returns every pending reference, the resolver's input set.
func (s *Store) AllUnresolvedRefs(ctx context.Context) ([]types.UnresolvedReference, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT from_node_id, reference_name, reference_kind, line, column, file_path, language
		FROM unresolved_refs`)
	if err != nil {
		return nil, cgerrors.NewDatabaseError("allUnresolvedRefs", false, err)
	}
	defer rows.Close()

	var refs []types.UnresolvedReference
	for rows.Next() {
		var r types.UnresolvedReference
		var kind string
		if err := rows.Scan(&r.FromNodeID, &r.ReferenceName, &kind, &r.Line, &r.Column, &r.FilePath, &r.Language); err != nil {
			return nil, cgerrors.NewDatabaseError("allUnresolvedRefs scan", false, err)
		}
		r.ReferenceKind = types.EdgeKind(kind)
		refs = append(refs, r)
	}
	return refs, rows.Err()
}

// SetMetadata upserts a single project_metadata key/value pair.
func (s *Store) SetMetadata(ctx context.Context, key, value string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO project_metadata(key, value) VALUES (?,?)
			ON CONFLICT(key) DO UPDATE SET value=excluded.value`, key, value)
		if err != nil {
			return cgerrors.NewDatabaseError("setMetadata", false, err)
		}
		return nil
	})
}

// GetMetadata reads a single project_metadata value.
func (s *Store) GetMetadata(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM project_metadata WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, cgerrors.NewDatabaseError("getMetadata", false, err)
	}
	return value, true, nil
}
