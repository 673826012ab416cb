package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/codegraph/internal/types"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestOpenRunsMigrations(t *testing.T) {
	s := openTestStore(t)
	v, err := s.schemaVersion()
	require.NoError(t, err)
	require.Equal(t, 1, v)
}

func TestInsertAndGetNodeByIDRoundTrips(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	n := types.Node{
		ID:         "function:abc123",
		Kind:       types.KindFunction,
		Name:       "Greet",
		FilePath:   "sample.go",
		Language:   "go",
		StartLine:  3,
		EndLine:    5,
		Docstring:  "Greet says hello.",
		Visibility: types.VisibilityPublic,
		IsExported: true,
	}
	require.NoError(t, s.InsertNodes(ctx, []types.Node{n}))

	got, ok, err := s.GetNodeByID(ctx, n.ID)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, n.Name, got.Name)
	require.Equal(t, n.Docstring, got.Docstring)
	require.True(t, got.IsExported)

	// Second read should hit the LRU cache path, same result.
	cached, ok, err := s.GetNodeByID(ctx, n.ID)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, got, cached)
}

func TestGetNodeByIDMissingReturnsFalse(t *testing.T) {
	s := openTestStore(t)
	_, ok, err := s.GetNodeByID(context.Background(), "function:doesnotexist")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestDeleteNodesByFileRemovesNodesEdgesAndRefs(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	fileNode := types.Node{ID: "file:1", Kind: types.KindFile, Name: "sample.go", FilePath: "sample.go"}
	fn := types.Node{ID: "function:1", Kind: types.KindFunction, Name: "Greet", FilePath: "sample.go"}
	require.NoError(t, s.InsertNodes(ctx, []types.Node{fileNode, fn}))
	require.NoError(t, s.InsertEdges(ctx, []types.Edge{{Source: fileNode.ID, Target: fn.ID, Kind: types.EdgeContains}}))
	require.NoError(t, s.InsertUnresolvedRefs(ctx, "sample.go", []types.UnresolvedReference{
		{FromNodeID: fn.ID, ReferenceName: "Sprintf", ReferenceKind: types.EdgeCalls, FilePath: "sample.go"},
	}))

	require.NoError(t, s.DeleteNodesByFile(ctx, "sample.go"))

	_, ok, err := s.GetNodeByID(ctx, fn.ID)
	require.NoError(t, err)
	require.False(t, ok)

	edges, err := s.GetEdgesFrom(ctx, fileNode.ID, nil)
	require.NoError(t, err)
	require.Empty(t, edges)

	refs, err := s.AllUnresolvedRefs(ctx)
	require.NoError(t, err)
	require.Empty(t, refs)
}

func TestDeleteEdgesBySourceKindIsIdempotentForResolver(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	e := types.Edge{Source: "function:1", Target: "function:2", Kind: types.EdgeCalls, Line: 4}
	require.NoError(t, s.InsertEdges(ctx, []types.Edge{e}))
	require.NoError(t, s.DeleteEdgesBySourceKind(ctx, "function:1", types.EdgeCalls))

	// Re-resolving should be able to insert fresh edges without duplicates
	// left behind by the stale resolution.
	require.NoError(t, s.InsertEdges(ctx, []types.Edge{{Source: "function:1", Target: "function:3", Kind: types.EdgeCalls, Line: 4}}))

	edges, err := s.GetEdgesFrom(ctx, "function:1", []types.EdgeKind{types.EdgeCalls})
	require.NoError(t, err)
	require.Len(t, edges, 1)
	require.Equal(t, "function:3", edges[0].Target)
}

func TestSearchFTSFindsByNameAndDocstring(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.InsertNodes(ctx, []types.Node{
		{ID: "function:1", Kind: types.KindFunction, Name: "ParseConfig", Docstring: "parses the yaml config file"},
		{ID: "function:2", Kind: types.KindFunction, Name: "WriteLog", Docstring: "writes a log line"},
	}))

	hits, err := s.SearchFTS(ctx, "config", 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	require.Equal(t, "ParseConfig", hits[0].Node.Name)
}

func TestSearchSubstringFallback(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.InsertNodes(ctx, []types.Node{
		{ID: "function:1", Kind: types.KindFunction, Name: "ParseConfig"},
	}))

	nodes, err := s.SearchSubstring(ctx, EscapeLike("Config"), 10)
	require.NoError(t, err)
	require.Len(t, nodes, 1)
}

func TestUpsertFileAndGetFileRoundTrips(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	f := types.FileRecord{Path: "sample.go", ContentHash: "abc", Language: "go", Size: 10, NodeCount: 2}
	require.NoError(t, s.UpsertFile(ctx, f))

	got, ok, err := s.GetFile(ctx, "sample.go")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, f.ContentHash, got.ContentHash)
	require.Equal(t, f.NodeCount, got.NodeCount)
}

func TestUnmarshalJSONToleratesMalformedColumn(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, err := s.db.ExecContext(ctx, `INSERT INTO nodes (id, kind, name, file_path, decorators) VALUES (?,?,?,?,?)`,
		"function:bad", "function", "Bad", "bad.go", "{not json")
	require.NoError(t, err)

	n, ok, err := s.GetNodeByID(ctx, "function:bad")
	require.NoError(t, err)
	require.True(t, ok)
	require.Empty(t, n.Decorators)
}

func TestInsertVectorsRoundTripsFloat32Values(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	v := types.Vector{NodeID: "function:1", Dimension: 3, ModelID: "test-model", Values: []float32{0.1, -0.2, 0.3}}
	require.NoError(t, s.InsertVectors(ctx, []types.Vector{v}))

	all, err := s.AllVectors(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	require.Equal(t, v.Dimension, all[0].Dimension)
	require.InDeltaSlice(t, v.Values, all[0].Values, 1e-6)
}

func TestSetAndGetMetadata(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SetMetadata(ctx, "schemaVersion", "1"))
	v, ok, err := s.GetMetadata(ctx, "schemaVersion")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "1", v)
}
