package graph

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/codegraph/internal/idgen"
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

func TestTraverseOutgoingRespectsMaxDepth(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.InsertNodes(ctx, []types.Node{
		{ID: "a", Kind: types.KindFunction, Name: "A"},
		{ID: "b", Kind: types.KindFunction, Name: "B"},
		{ID: "c", Kind: types.KindFunction, Name: "C"},
	}))
	require.NoError(t, s.InsertEdges(ctx, []types.Edge{
		{Source: "a", Target: "b", Kind: types.EdgeCalls},
		{Source: "b", Target: "c", Kind: types.EdgeCalls},
	}))

	g := New(s)
	sub, err := g.Traverse(ctx, "a", types.TraverseOptions{MaxDepth: 1, Direction: types.DirectionOutgoing})
	require.NoError(t, err)
	require.Contains(t, sub.Nodes, "a")
	require.Contains(t, sub.Nodes, "b")
	require.NotContains(t, sub.Nodes, "c")
}

func TestTraverseSkipsSelfLoops(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.InsertNodes(ctx, []types.Node{{ID: "a", Kind: types.KindFunction, Name: "A"}}))
	require.NoError(t, s.InsertEdges(ctx, []types.Edge{{Source: "a", Target: "a", Kind: types.EdgeCalls}}))

	g := New(s)
	sub, err := g.Traverse(ctx, "a", types.TraverseOptions{MaxDepth: 3, Direction: types.DirectionOutgoing})
	require.NoError(t, err)
	require.Len(t, sub.Nodes, 1)
}

func TestShortestPathFindsInterleavedRoute(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.InsertNodes(ctx, []types.Node{
		{ID: "a", Kind: types.KindFunction, Name: "A"},
		{ID: "b", Kind: types.KindFunction, Name: "B"},
		{ID: "c", Kind: types.KindFunction, Name: "C"},
	}))
	require.NoError(t, s.InsertEdges(ctx, []types.Edge{
		{Source: "a", Target: "b", Kind: types.EdgeCalls},
		{Source: "b", Target: "c", Kind: types.EdgeCalls},
	}))

	g := New(s)
	path, err := g.ShortestPath(ctx, "a", "c", nil)
	require.NoError(t, err)
	require.Len(t, path, 5) // node, edge, node, edge, node
	require.Equal(t, "a", path[0].Node.ID)
	require.Equal(t, "c", path[4].Node.ID)
}

func TestShortestPathUnreachableReturnsNil(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.InsertNodes(ctx, []types.Node{
		{ID: "a", Kind: types.KindFunction, Name: "A"},
		{ID: "b", Kind: types.KindFunction, Name: "B"},
	}))

	g := New(s)
	path, err := g.ShortestPath(ctx, "a", "b", nil)
	require.NoError(t, err)
	require.Nil(t, path)
}

func TestCircularFileDepsDetectsCycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	fileA := idgen.FileNodeID("a.go")
	fileB := idgen.FileNodeID("b.go")
	require.NoError(t, s.InsertNodes(ctx, []types.Node{
		{ID: fileA, Kind: types.KindFile, Name: "a.go", FilePath: "a.go"},
		{ID: fileB, Kind: types.KindFile, Name: "b.go", FilePath: "b.go"},
	}))
	require.NoError(t, s.UpsertFile(ctx, types.FileRecord{Path: "a.go"}))
	require.NoError(t, s.UpsertFile(ctx, types.FileRecord{Path: "b.go"}))
	require.NoError(t, s.InsertEdges(ctx, []types.Edge{
		{Source: fileA, Target: fileB, Kind: types.EdgeImports},
		{Source: fileB, Target: fileA, Kind: types.EdgeImports},
	}))

	g := New(s)
	cycles, err := g.CircularFileDeps(ctx)
	require.NoError(t, err)
	require.Len(t, cycles, 1)
	require.ElementsMatch(t, []string{"a.go", "b.go"}, cycles[0])
}

func TestDeadCodeFindsUncalledFunction(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.InsertNodes(ctx, []types.Node{
		{ID: "fn:used", Kind: types.KindFunction, Name: "Used"},
		{ID: "fn:unused", Kind: types.KindFunction, Name: "Unused"},
		{ID: "fn:caller", Kind: types.KindFunction, Name: "Caller"},
	}))
	require.NoError(t, s.InsertEdges(ctx, []types.Edge{
		{Source: "fn:caller", Target: "fn:used", Kind: types.EdgeCalls},
	}))

	g := New(s)
	dead, err := g.DeadCode(ctx, []types.Kind{types.KindFunction})
	require.NoError(t, err)

	var names []string
	for _, n := range dead {
		names = append(names, n.Name)
	}
	require.Contains(t, names, "Unused")
	require.Contains(t, names, "Caller")
	require.NotContains(t, names, "Used")
}
