package vectors

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/codegraph/internal/store"
	"github.com/standardbeagle/codegraph/internal/types"
)

// fakeEmbedder maps text deterministically to a 3-dimension vector so tests
// don't depend on a real model.
type fakeEmbedder struct{}

func (fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	var sum float32
	for _, r := range text {
		sum += float32(r)
	}
	return []float32{sum, sum / 2, 1}, nil
}
func (fakeEmbedder) Dimension() int  { return 3 }
func (fakeEmbedder) ModelID() string { return "fake-v1" }
func (fakeEmbedder) Close() error    { return nil }

func openTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestEmbeddableRequiresDocOrSignature(t *testing.T) {
	require.True(t, Embeddable(types.Node{Kind: types.KindFunction, Docstring: "does a thing"}))
	require.False(t, Embeddable(types.Node{Kind: types.KindFunction}))
	require.False(t, Embeddable(types.Node{Kind: types.KindVariable, Docstring: "x"}))
}

func TestEmbedNodeSkipsNonEmbeddableKinds(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	v := New(s, fakeEmbedder{})

	n := types.Node{ID: "variable:1", Kind: types.KindVariable, Name: "x"}
	require.NoError(t, v.EmbedNode(ctx, n, nil))

	all, err := s.AllVectors(ctx)
	require.NoError(t, err)
	require.Empty(t, all)
}

func TestEmbedNodeAndFindSimilar(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	v := New(s, fakeEmbedder{})

	a := types.Node{ID: "function:a", Kind: types.KindFunction, Name: "Alpha", Docstring: "alpha function"}
	b := types.Node{ID: "function:b", Kind: types.KindFunction, Name: "Alpha2", Docstring: "alpha function"}
	c := types.Node{ID: "function:c", Kind: types.KindFunction, Name: "Zulu", Docstring: "totally unrelated"}

	require.NoError(t, v.EmbedNode(ctx, a, nil))
	require.NoError(t, v.EmbedNode(ctx, b, nil))
	require.NoError(t, v.EmbedNode(ctx, c, nil))

	results, err := v.FindSimilar(ctx, "function:a", 2)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	for _, r := range results {
		require.NotEqual(t, "function:a", r.NodeID)
	}
}

func TestSearchWithoutEmbedderReturnsVectorError(t *testing.T) {
	s := openTestStore(t)
	v := New(s, nil)
	_, err := v.Search(context.Background(), "anything", SearchOptions{})
	require.Error(t, err)
}

func TestInvalidateRemovesVector(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	v := New(s, fakeEmbedder{})

	n := types.Node{ID: "function:a", Kind: types.KindFunction, Name: "Alpha", Docstring: "alpha function"}
	require.NoError(t, v.EmbedNode(ctx, n, nil))
	require.NoError(t, v.Invalidate(ctx, "function:a"))

	all, err := s.AllVectors(ctx)
	require.NoError(t, err)
	require.Empty(t, all)
}

func TestWarmRepopulatesIndexFromStore(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	n := types.Node{ID: "function:a", Kind: types.KindFunction, Name: "Alpha", Docstring: "alpha function"}
	require.NoError(t, s.InsertNodes(ctx, []types.Node{n}))
	require.NoError(t, s.InsertVectors(ctx, []types.Vector{
		{NodeID: n.ID, Dimension: 3, ModelID: "fake-v1", Values: []float32{1, 2, 3}},
	}))

	v := New(s, fakeEmbedder{})
	require.NoError(t, v.Warm(ctx))

	results, err := v.searchVector([]float32{1, 2, 3}, SearchOptions{})
	require.NoError(t, err)
	require.NotEmpty(t, results)
	require.Equal(t, n.ID, results[0].NodeID)
}
