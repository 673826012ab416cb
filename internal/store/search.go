package store

import (
	"context"
	"database/sql"
	"strings"

	"github.com/standardbeagle/codegraph/internal/cgerrors"
	"github.com/standardbeagle/codegraph/internal/types"
)

// FTSHit is one row of a raw FTS5 match, prior to the Searcher's re-ranking
// (spec §4.F). BM25 is SQLite's raw bm25() score: more negative is better.
type FTSHit struct {
	Node types.Node
	BM25 float64
}

// SearchFTS runs an FTS5 MATCH query against nodes_fts and joins back to the
// full node row. The Searcher owns query construction (AND/OR relaxation,
// prefix expansion); Store just executes whatever MATCH expression it's given.
func (s *Store) SearchFTS(ctx context.Context, matchExpr string, limit int) ([]FTSHit, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT n.id, n.kind, n.name, n.qualified_name, n.file_path, n.language,
			n.start_line, n.end_line, n.start_column, n.end_column, n.docstring, n.signature,
			n.visibility, n.is_exported, n.is_async, n.is_static, n.is_abstract,
			n.decorators, n.type_parameters, n.updated_at, bm25(nodes_fts) AS score
		FROM nodes_fts
		JOIN nodes n ON n.id = nodes_fts.id
		WHERE nodes_fts MATCH ?
		ORDER BY score
		LIMIT ?
	`, matchExpr, limit)
	if err != nil {
		return nil, cgerrors.NewSearchError(matchExpr, err)
	}
	defer rows.Close()

	var hits []FTSHit
	for rows.Next() {
		var kind, visibility string
		var isExported, isAsync, isStatic, isAbstract int
		var decorators, typeParams sql.NullString
		var n types.Node
		var score float64
		err := rows.Scan(&n.ID, &kind, &n.Name, &n.QualifiedName, &n.FilePath, &n.Language,
			&n.StartLine, &n.EndLine, &n.StartColumn, &n.EndColumn, &n.Docstring, &n.Signature,
			&visibility, &isExported, &isAsync, &isStatic, &isAbstract, &decorators, &typeParams,
			&n.UpdatedAt, &score)
		if err != nil {
			return nil, cgerrors.NewDatabaseError("searchFTS scan", false, err)
		}
		n.Kind = types.Kind(kind)
		n.Visibility = types.Visibility(visibility)
		n.IsExported = isExported != 0
		n.IsAsync = isAsync != 0
		n.IsStatic = isStatic != 0
		n.IsAbstract = isAbstract != 0
		n.Decorators = unmarshalJSON[[]string](decorators)
		n.TypeParameters = unmarshalJSON[[]string](typeParams)
		hits = append(hits, FTSHit{Node: n, BM25: score})
	}
	return hits, rows.Err()
}

// SearchSubstring is the substring fallback run when the FTS prefix pass is
// empty (spec §4.F step 3): three LIKE predicates in one statement -
// "%q%" on name, "%q%" on qualifiedName, and "q%" on name - deduplicated by
// node ID. escaped must already have %, _ and \ escaped by EscapeLike.
func (s *Store) SearchSubstring(ctx context.Context, escaped string, limit int) ([]types.Node, error) {
	contains := "%" + escaped + "%"
	prefix := escaped + "%"
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, kind, name, qualified_name, file_path, language, start_line, end_line,
			start_column, end_column, docstring, signature, visibility, is_exported,
			is_async, is_static, is_abstract, decorators, type_parameters, updated_at
		FROM nodes
		WHERE name LIKE ? ESCAPE '\' OR qualified_name LIKE ? ESCAPE '\' OR name LIKE ? ESCAPE '\'
		LIMIT ?
	`, contains, contains, prefix, limit)
	if err != nil {
		return nil, cgerrors.NewDatabaseError("searchSubstring", false, err)
	}
	defer rows.Close()
	return scanNodes(rows)
}

// EscapeLike escapes the LIKE special characters %, _ and \ in a user
// substring before it's wrapped in wildcards (spec §4.F).
func EscapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
