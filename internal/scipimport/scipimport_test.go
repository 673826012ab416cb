package scipimport

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/codegraph/internal/store"
	"github.com/standardbeagle/codegraph/internal/types"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func seed(t *testing.T, s *store.Store) {
	t.Helper()
	ctx := context.Background()
	login := types.Node{ID: "function:login", Kind: types.KindFunction, Name: "Login",
		FilePath: "auth.go", Language: "go", StartLine: 10, EndLine: 20}
	handler := types.Node{ID: "function:handler", Kind: types.KindFunction, Name: "LoginHandler",
		FilePath: "handler.go", Language: "go", StartLine: 1, EndLine: 5}
	require.NoError(t, s.InsertNodes(ctx, []types.Node{login, handler}))
}

func rangeJSON(startLine, startCol, endLine, endCol int) []int {
	if startLine == endLine {
		return []int{startLine, startCol, endCol}
	}
	return []int{startLine, startCol, endLine, endCol}
}

func TestImportLinksReferenceToDefinition(t *testing.T) {
	s := newTestStore(t)
	seed(t, s)
	ctx := context.Background()

	f := File{Documents: []Document{
		{RelativePath: "auth.go", Occurrences: []Occurrence{
			{Symbol: "pkg.Login", Range: rangeJSON(12, 0, 12, 5), SymbolRoles: RoleDefinition},
		}},
		{RelativePath: "handler.go", Occurrences: []Occurrence{
			{Symbol: "pkg.Login", Range: rangeJSON(3, 2, 3, 7), SymbolRoles: RoleReference},
		}},
	}}
	data, err := json.Marshal(f)
	require.NoError(t, err)

	stats, err := Import(ctx, s, "index.scip.json", data)
	require.NoError(t, err)
	require.Equal(t, 1, stats.Definitions)
	require.Equal(t, 1, stats.References)

	edges, err := s.GetEdgesFrom(ctx, "function:handler", []types.EdgeKind{types.EdgeReferences})
	require.NoError(t, err)
	require.Len(t, edges, 1)
	require.Equal(t, "function:login", edges[0].Target)
	require.Equal(t, "scip", edges[0].Metadata["source"])
}

func TestImportDedupesRepeatedOccurrences(t *testing.T) {
	s := newTestStore(t)
	seed(t, s)
	ctx := context.Background()

	f := File{Documents: []Document{
		{RelativePath: "auth.go", Occurrences: []Occurrence{
			{Symbol: "pkg.Login", Range: rangeJSON(12, 0, 12, 5), SymbolRoles: RoleDefinition},
		}},
		{RelativePath: "handler.go", Occurrences: []Occurrence{
			{Symbol: "pkg.Login", Range: rangeJSON(3, 2, 3, 7), SymbolRoles: RoleReference},
			{Symbol: "pkg.Login", Range: rangeJSON(4, 2, 4, 7), SymbolRoles: RoleReference},
		}},
	}}
	data, err := json.Marshal(f)
	require.NoError(t, err)

	_, err = Import(ctx, s, "index.scip.json", data)
	require.NoError(t, err)

	edges, err := s.GetEdgesFrom(ctx, "function:handler", []types.EdgeKind{types.EdgeReferences})
	require.NoError(t, err)
	require.Len(t, edges, 1)
	require.Equal(t, float64(2), edges[0].Metadata["scipOccurrences"])
}

func TestImportReplacesPriorScipEdges(t *testing.T) {
	s := newTestStore(t)
	seed(t, s)
	ctx := context.Background()

	f := File{Documents: []Document{
		{RelativePath: "auth.go", Occurrences: []Occurrence{
			{Symbol: "pkg.Login", Range: rangeJSON(12, 0, 12, 5), SymbolRoles: RoleDefinition},
		}},
		{RelativePath: "handler.go", Occurrences: []Occurrence{
			{Symbol: "pkg.Login", Range: rangeJSON(3, 2, 3, 7), SymbolRoles: RoleReference},
		}},
	}}
	data, err := json.Marshal(f)
	require.NoError(t, err)

	_, err = Import(ctx, s, "index.scip.json", data)
	require.NoError(t, err)

	empty := File{}
	emptyData, err := json.Marshal(empty)
	require.NoError(t, err)
	_, err = Import(ctx, s, "index.scip.json", emptyData)
	require.NoError(t, err)

	edges, err := s.GetEdgesFrom(ctx, "function:handler", nil)
	require.NoError(t, err)
	require.Empty(t, edges)
}
