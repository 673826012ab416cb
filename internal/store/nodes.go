package store

import (
	"context"
	"database/sql"

	"github.com/standardbeagle/codegraph/internal/cgerrors"
	"github.com/standardbeagle/codegraph/internal/types"
)

// InsertNodes upserts a batch of nodes and their FTS rows in one transaction
// (spec §4.A contract).
func (s *Store) InsertNodes(ctx context.Context, nodes []types.Node) error {
	if len(nodes) == 0 {
		return nil
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		nodeStmt, err := tx.PrepareContext(ctx, `
			INSERT INTO nodes (id, kind, name, qualified_name, file_path, language,
				start_line, end_line, start_column, end_column, docstring, signature,
				visibility, is_exported, is_async, is_static, is_abstract,
				decorators, type_parameters, updated_at)
			VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)
			ON CONFLICT(id) DO UPDATE SET
				kind=excluded.kind, name=excluded.name, qualified_name=excluded.qualified_name,
				file_path=excluded.file_path, language=excluded.language,
				start_line=excluded.start_line, end_line=excluded.end_line,
				start_column=excluded.start_column, end_column=excluded.end_column,
				docstring=excluded.docstring, signature=excluded.signature,
				visibility=excluded.visibility, is_exported=excluded.is_exported,
				is_async=excluded.is_async, is_static=excluded.is_static,
				is_abstract=excluded.is_abstract, decorators=excluded.decorators,
				type_parameters=excluded.type_parameters, updated_at=excluded.updated_at
		`)
		if err != nil {
			return cgerrors.NewDatabaseError("prepare insertNodes", false, err)
		}
		defer nodeStmt.Close()

		ftsDelete, err := tx.PrepareContext(ctx, `DELETE FROM nodes_fts WHERE id = ?`)
		if err != nil {
			return cgerrors.NewDatabaseError("prepare fts delete", false, err)
		}
		defer ftsDelete.Close()

		ftsInsert, err := tx.PrepareContext(ctx, `INSERT INTO nodes_fts(id, name, qualified_name, docstring) VALUES (?,?,?,?)`)
		if err != nil {
			return cgerrors.NewDatabaseError("prepare fts insert", false, err)
		}
		defer ftsInsert.Close()

		for _, n := range nodes {
			_, err := nodeStmt.ExecContext(ctx, n.ID, string(n.Kind), n.Name, n.QualifiedName,
				n.FilePath, n.Language, n.StartLine, n.EndLine, n.StartColumn, n.EndColumn,
				n.Docstring, n.Signature, string(n.Visibility), boolToInt(n.IsExported),
				boolToInt(n.IsAsync), boolToInt(n.IsStatic), boolToInt(n.IsAbstract),
				marshalJSON(n.Decorators), marshalJSON(n.TypeParameters), n.UpdatedAt)
			if err != nil {
				return cgerrors.NewDatabaseError("insertNodes", false, err)
			}
			if _, err := ftsDelete.ExecContext(ctx, n.ID); err != nil {
				return cgerrors.NewDatabaseError("insertNodes fts delete", false, err)
			}
			if _, err := ftsInsert.ExecContext(ctx, n.ID, n.Name, n.QualifiedName, n.Docstring); err != nil {
				return cgerrors.NewDatabaseError("insertNodes fts insert", false, err)
			}
		}
		return nil
	})
}

// InsertEdges upserts a batch of edges in one transaction (spec §4.A).
func (s *Store) InsertEdges(ctx context.Context, edges []types.Edge) error {
	if len(edges) == 0 {
		return nil
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO edges (source, target, kind, line, column, metadata)
			VALUES (?,?,?,?,?,?)
			ON CONFLICT(source, target, kind, line, column) DO UPDATE SET metadata=excluded.metadata
		`)
		if err != nil {
			return cgerrors.NewDatabaseError("prepare insertEdges", false, err)
		}
		defer stmt.Close()

		for _, e := range edges {
			if _, err := stmt.ExecContext(ctx, e.Source, e.Target, string(e.Kind), e.Line, e.Column, marshalJSON(e.Metadata)); err != nil {
				return cgerrors.NewDatabaseError("insertEdges", false, err)
			}
		}
		return nil
	})
}

// DeleteEdgesBySourceKind deletes every edge with the given (source, kind),
// the idempotence step the resolver runs before re-inserting resolutions
// for a reference it has already resolved once (spec §4.D).
func (s *Store) DeleteEdgesBySourceKind(ctx context.Context, source string, kind types.EdgeKind) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `DELETE FROM edges WHERE source = ? AND kind = ?`, source, string(kind))
		if err != nil {
			return cgerrors.NewDatabaseError("deleteEdgesBySourceKind", false, err)
		}
		return nil
	})
}

// DeleteEdgesByProvenance removes every edge whose metadata carries
// `"source": value`. Used by scipimport to make re-import idempotent: a
// fresh import must replace, not accumulate alongside, the edges a prior
// import created (spec §6).
func (s *Store) DeleteEdgesByProvenance(ctx context.Context, value string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `DELETE FROM edges WHERE json_extract(metadata, '$.source') = ?`, value)
		if err != nil {
			return cgerrors.NewDatabaseError("deleteEdgesByProvenance", false, err)
		}
		return nil
	})
}

// DeleteNodesByFile removes every node, its FTS row, and every edge
// touching those nodes, for one file path (spec §4.A, §4.I).
func (s *Store) DeleteNodesByFile(ctx context.Context, filePath string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, `SELECT id FROM nodes WHERE file_path = ?`, filePath)
		if err != nil {
			return cgerrors.NewDatabaseError("deleteNodesByFile select", false, err)
		}
		var ids []string
		for rows.Next() {
			var id string
			if err := rows.Scan(&id); err != nil {
				rows.Close()
				return cgerrors.NewDatabaseError("deleteNodesByFile scan", false, err)
			}
			ids = append(ids, id)
		}
		rows.Close()

		for _, id := range ids {
			if _, err := tx.ExecContext(ctx, `DELETE FROM edges WHERE source = ? OR target = ?`, id, id); err != nil {
				return cgerrors.NewDatabaseError("deleteNodesByFile edges", false, err)
			}
			if _, err := tx.ExecContext(ctx, `DELETE FROM nodes_fts WHERE id = ?`, id); err != nil {
				return cgerrors.NewDatabaseError("deleteNodesByFile fts", false, err)
			}
			if _, err := tx.ExecContext(ctx, `DELETE FROM vectors WHERE node_id = ?`, id); err != nil {
				return cgerrors.NewDatabaseError("deleteNodesByFile vectors", false, err)
			}
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM nodes WHERE file_path = ?`, filePath); err != nil {
			return cgerrors.NewDatabaseError("deleteNodesByFile nodes", false, err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM unresolved_refs WHERE file_path = ?`, filePath); err != nil {
			return cgerrors.NewDatabaseError("deleteNodesByFile unresolved_refs", false, err)
		}
		s.invalidateFile(ids)
		return nil
	})
}

func (s *Store) invalidateFile(ids []string) {
	for _, id := range ids {
		s.cache.Remove(id)
	}
}

// GetNodeByID returns a node by ID, consulting the LRU cache first (spec §4.A).
func (s *Store) GetNodeByID(ctx context.Context, id string) (types.Node, bool, error) {
	if n, ok := s.cache.Get(id); ok {
		return n, true, nil
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT id, kind, name, qualified_name, file_path, language, start_line, end_line,
			start_column, end_column, docstring, signature, visibility, is_exported,
			is_async, is_static, is_abstract, decorators, type_parameters, updated_at
		FROM nodes WHERE id = ?`, id)

	n, err := scanNode(row)
	if err == sql.ErrNoRows {
		return types.Node{}, false, nil
	}
	if err != nil {
		return types.Node{}, false, cgerrors.NewDatabaseError("getNodeById", false, err)
	}
	s.cache.Add(id, n)
	return n, true, nil
}

// GetNodesByFile returns every node for one file path.
func (s *Store) GetNodesByFile(ctx context.Context, filePath string) ([]types.Node, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, kind, name, qualified_name, file_path, language, start_line, end_line,
			start_column, end_column, docstring, signature, visibility, is_exported,
			is_async, is_static, is_abstract, decorators, type_parameters, updated_at
		FROM nodes WHERE file_path = ?`, filePath)
	if err != nil {
		return nil, cgerrors.NewDatabaseError("getNodesByFile", false, err)
	}
	defer rows.Close()
	return scanNodes(rows)
}

// AllNodes returns every node in the graph. The resolver uses this once per
// bulk resolution pass to warm its in-memory name/qualifiedName/kind indices
// rather than issuing a query per reference (spec §4.D).
func (s *Store) AllNodes(ctx context.Context) ([]types.Node, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, kind, name, qualified_name, file_path, language, start_line, end_line,
			start_column, end_column, docstring, signature, visibility, is_exported,
			is_async, is_static, is_abstract, decorators, type_parameters, updated_at
		FROM nodes`)
	if err != nil {
		return nil, cgerrors.NewDatabaseError("allNodes", false, err)
	}
	defer rows.Close()
	return scanNodes(rows)
}

// GetNodesByName returns every node whose name matches exactly.
func (s *Store) GetNodesByName(ctx context.Context, name string) ([]types.Node, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, kind, name, qualified_name, file_path, language, start_line, end_line,
			start_column, end_column, docstring, signature, visibility, is_exported,
			is_async, is_static, is_abstract, decorators, type_parameters, updated_at
		FROM nodes WHERE name = ?`, name)
	if err != nil {
		return nil, cgerrors.NewDatabaseError("getNodesByName", false, err)
	}
	defer rows.Close()
	return scanNodes(rows)
}

// GetEdgesFrom returns outgoing edges from a node, optionally filtered by kind.
func (s *Store) GetEdgesFrom(ctx context.Context, nodeID string, kinds []types.EdgeKind) ([]types.Edge, error) {
	return s.getEdges(ctx, "source", nodeID, kinds)
}

// GetEdgesTo returns incoming edges to a node, optionally filtered by kind.
func (s *Store) GetEdgesTo(ctx context.Context, nodeID string, kinds []types.EdgeKind) ([]types.Edge, error) {
	return s.getEdges(ctx, "target", nodeID, kinds)
}

func (s *Store) getEdges(ctx context.Context, col, nodeID string, kinds []types.EdgeKind) ([]types.Edge, error) {
	query := `SELECT source, target, kind, line, column, metadata FROM edges WHERE ` + col + ` = ?`
	args := []any{nodeID}
	if len(kinds) > 0 {
		placeholders := make([]byte, 0, len(kinds)*2)
		for i, k := range kinds {
			if i > 0 {
				placeholders = append(placeholders, ',')
			}
			placeholders = append(placeholders, '?')
			args = append(args, string(k))
		}
		query += ` AND kind IN (` + string(placeholders) + `)`
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, cgerrors.NewDatabaseError("getEdges", false, err)
	}
	defer rows.Close()

	var edges []types.Edge
	for rows.Next() {
		var e types.Edge
		var kind string
		var metadata sql.NullString
		if err := rows.Scan(&e.Source, &e.Target, &kind, &e.Line, &e.Column, &metadata); err != nil {
			return nil, cgerrors.NewDatabaseError("getEdges scan", false, err)
		}
		e.Kind = types.EdgeKind(kind)
		e.Metadata = unmarshalJSON[map[string]any](metadata)
		edges = append(edges, e)
	}
	return edges, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNode(row rowScanner) (types.Node, error) {
	var n types.Node
	var kind, visibility string
	var isExported, isAsync, isStatic, isAbstract int
	var decorators, typeParams sql.NullString

	err := row.Scan(&n.ID, &kind, &n.Name, &n.QualifiedName, &n.FilePath, &n.Language,
		&n.StartLine, &n.EndLine, &n.StartColumn, &n.EndColumn, &n.Docstring, &n.Signature,
		&visibility, &isExported, &isAsync, &isStatic, &isAbstract, &decorators, &typeParams, &n.UpdatedAt)
	if err != nil {
		return types.Node{}, err
	}
	n.Kind = types.Kind(kind)
	n.Visibility = types.Visibility(visibility)
	n.IsExported = isExported != 0
	n.IsAsync = isAsync != 0
	n.IsStatic = isStatic != 0
	n.IsAbstract = isAbstract != 0
	n.Decorators = unmarshalJSON[[]string](decorators)
	n.TypeParameters = unmarshalJSON[[]string](typeParams)
	return n, nil
}

func scanNodes(rows *sql.Rows) ([]types.Node, error) {
	var nodes []types.Node
	for rows.Next() {
		n, err := scanNode(rows)
		if err != nil {
			return nil, cgerrors.NewDatabaseError("scanNodes", false, err)
		}
		nodes = append(nodes, n)
	}
	return nodes, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
