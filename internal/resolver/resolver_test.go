package resolver

import (
	"context"
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

func noFiles(string) ([]byte, error) { return nil, nil }

func TestResolveAllSkipsBuiltins(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	fileID := "file:1"
	require.NoError(t, s.InsertNodes(ctx, []types.Node{{ID: fileID, Kind: types.KindFile, Name: "sample.go", FilePath: "sample.go"}}))
	require.NoError(t, s.InsertUnresolvedRefs(ctx, "sample.go", []types.UnresolvedReference{
		{FromNodeID: fileID, ReferenceName: "Sprintf", ReferenceKind: types.EdgeCalls, FilePath: "sample.go", Language: "go"},
	}))

	r := New(s, nil)
	stats, err := r.ResolveAll(ctx, ".", noFiles)
	require.NoError(t, err)
	require.Equal(t, 1, stats.Total)
	require.Equal(t, 0, stats.Resolved)
	require.Equal(t, 1, stats.Unresolved)
}

func TestResolveAllResolvesSameFileNameMatch(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	fileID := "file:1"
	callerID := "function:caller"
	calleeID := "function:callee"
	require.NoError(t, s.InsertNodes(ctx, []types.Node{
		{ID: fileID, Kind: types.KindFile, Name: "sample.go", FilePath: "sample.go"},
		{ID: callerID, Kind: types.KindFunction, Name: "Caller", FilePath: "sample.go", Language: "go"},
		{ID: calleeID, Kind: types.KindFunction, Name: "Greet", FilePath: "sample.go", Language: "go", IsExported: true},
	}))
	require.NoError(t, s.InsertUnresolvedRefs(ctx, "sample.go", []types.UnresolvedReference{
		{FromNodeID: callerID, ReferenceName: "Greet", ReferenceKind: types.EdgeCalls, FilePath: "sample.go", Language: "go", Line: 4},
	}))

	r := New(s, nil)
	stats, err := r.ResolveAll(ctx, ".", noFiles)
	require.NoError(t, err)
	require.Equal(t, 1, stats.Resolved)
	require.Equal(t, 1, stats.ByMethod["name"])

	edges, err := s.GetEdgesFrom(ctx, callerID, []types.EdgeKind{types.EdgeCalls})
	require.NoError(t, err)
	require.Len(t, edges, 1)
	require.Equal(t, calleeID, edges[0].Target)
}

func TestResolveAllIsIdempotentAcrossReResolution(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	callerID := "function:caller"
	calleeID := "function:callee"
	require.NoError(t, s.InsertNodes(ctx, []types.Node{
		{ID: callerID, Kind: types.KindFunction, Name: "Caller", FilePath: "sample.go", Language: "go"},
		{ID: calleeID, Kind: types.KindFunction, Name: "Greet", FilePath: "sample.go", Language: "go", IsExported: true},
	}))
	require.NoError(t, s.InsertUnresolvedRefs(ctx, "sample.go", []types.UnresolvedReference{
		{FromNodeID: callerID, ReferenceName: "Greet", ReferenceKind: types.EdgeCalls, FilePath: "sample.go", Language: "go", Line: 4},
	}))

	r := New(s, nil)
	_, err := r.ResolveAll(ctx, ".", noFiles)
	require.NoError(t, err)
	_, err = r.ResolveAll(ctx, ".", noFiles)
	require.NoError(t, err)

	edges, err := s.GetEdgesFrom(ctx, callerID, []types.EdgeKind{types.EdgeCalls})
	require.NoError(t, err)
	require.Len(t, edges, 1)
}

func TestResolveImportBasedPicksExportedSymbolInImportedFile(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	callerID := "function:caller"
	calleeID := "function:callee"
	require.NoError(t, s.InsertNodes(ctx, []types.Node{
		{ID: callerID, Kind: types.KindFunction, Name: "Caller", FilePath: "pkg/a.go", Language: "go"},
		{ID: calleeID, Kind: types.KindFunction, Name: "Helper", FilePath: "pkg/b.go", Language: "go", IsExported: true},
	}))
	require.NoError(t, s.UpsertFile(ctx, types.FileRecord{Path: "pkg/a.go"}))
	require.NoError(t, s.UpsertFile(ctx, types.FileRecord{Path: "pkg/b.go"}))
	require.NoError(t, s.InsertUnresolvedRefs(ctx, "pkg/a.go", []types.UnresolvedReference{
		{FromNodeID: callerID, ReferenceName: "./b", ReferenceKind: types.EdgeImports, FilePath: "pkg/a.go", Language: "go"},
		{FromNodeID: callerID, ReferenceName: "Helper", ReferenceKind: types.EdgeCalls, FilePath: "pkg/a.go", Language: "go", Line: 3},
	}))

	r := New(s, nil)
	stats, err := r.ResolveAll(ctx, ".", noFiles)
	require.NoError(t, err)
	require.Equal(t, 1, stats.ByMethod["import"])

	edges, err := s.GetEdgesFrom(ctx, callerID, []types.EdgeKind{types.EdgeCalls})
	require.NoError(t, err)
	require.Len(t, edges, 1)
	require.Equal(t, calleeID, edges[0].Target)
}

func TestFrameworkResolverMatchesPascalCaseComponent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	callerID := "function:caller"
	componentID := "component:button"
	require.NoError(t, s.InsertNodes(ctx, []types.Node{
		{ID: callerID, Kind: types.KindFunction, Name: "App", FilePath: "app.tsx", Language: "typescript"},
		{ID: componentID, Kind: types.KindComponent, Name: "Button", FilePath: "button.tsx", Language: "typescript", IsExported: true},
	}))
	require.NoError(t, s.InsertUnresolvedRefs(ctx, "app.tsx", []types.UnresolvedReference{
		{FromNodeID: callerID, ReferenceName: "Button", ReferenceKind: types.EdgeReferences, FilePath: "app.tsx", Language: "typescript", Line: 2},
	}))

	r := New(s, nil)
	stats, err := r.ResolveAll(ctx, ".", noFiles)
	require.NoError(t, err)
	require.Equal(t, 1, stats.Resolved)
	require.Equal(t, 1, stats.ByMethod["framework:react-like"])
}

func TestIsBuiltinRecognizesGoAndJS(t *testing.T) {
	require.True(t, isBuiltin(types.UnresolvedReference{Language: "go", ReferenceName: "Sprintf"}))
	require.True(t, isBuiltin(types.UnresolvedReference{Language: "javascript", ReferenceName: "map"}))
	require.False(t, isBuiltin(types.UnresolvedReference{Language: "go", ReferenceName: "MyCustomFunc"}))
}
