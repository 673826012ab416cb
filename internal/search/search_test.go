package search

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/codegraph/internal/store"
	"github.com/standardbeagle/codegraph/internal/types"
)

func openTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSearchExactNameMatchRanksFirst(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.InsertNodes(ctx, []types.Node{
		{ID: "function:1", Kind: types.KindFunction, Name: "ParseConfig", FilePath: "config.go", Docstring: "parses config"},
		{ID: "function:2", Kind: types.KindFunction, Name: "ParseConfigFile", FilePath: "configfile.go", Docstring: "parses a config file"},
	}))

	results, err := New(s).Search(ctx, "ParseConfig", Options{})
	require.NoError(t, err)
	require.NotEmpty(t, results)
	require.Equal(t, "ParseConfig", results[0].Node.Name)
	require.Equal(t, 1.0, results[0].Lexical)
}

func TestSearchSubstringFallbackWhenFTSEmpty(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.InsertNodes(ctx, []types.Node{
		{ID: "function:1", Kind: types.KindFunction, Name: "fooxqz7bar", FilePath: "a.go"},
	}))

	results, err := New(s).Search(ctx, "xqz7", Options{})
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, "substring", results[0].MatchedVia)
}

func TestSearchFiltersByKind(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.InsertNodes(ctx, []types.Node{
		{ID: "function:1", Kind: types.KindFunction, Name: "Widget", FilePath: "w.go"},
		{ID: "class:1", Kind: types.KindClass, Name: "Widget", FilePath: "w2.go"},
	}))

	results, err := New(s).Search(ctx, "Widget", Options{Kinds: []types.Kind{types.KindClass}})
	require.NoError(t, err)
	for _, r := range results {
		require.Equal(t, types.KindClass, r.Node.Kind)
	}
}

func TestSearchExcludesFilesUnlessFileIntent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.InsertNodes(ctx, []types.Node{
		{ID: "file:1", Kind: types.KindFile, Name: "widget.go", FilePath: "widget.go"},
	}))

	results, err := New(s).Search(ctx, "widget", Options{})
	require.NoError(t, err)
	require.Empty(t, results)

	results, err = New(s).Search(ctx, "widget.go", Options{})
	require.NoError(t, err)
	require.NotEmpty(t, results)
}

func TestIsFileIntent(t *testing.T) {
	require.True(t, IsFileIntent("internal/store/store.go"))
	require.True(t, IsFileIntent("store.go"))
	require.False(t, IsFileIntent("ParseConfig"))
	require.False(t, IsFileIntent(""))
}

func TestTokenizeDropsStopWordsAndShortTokens(t *testing.T) {
	tokens := tokenize("the Parse of a Config")
	require.Equal(t, []string{"parse", "config"}, tokens)
}

func TestKindBoostOrdersFunctionsAboveTypesAboveModules(t *testing.T) {
	require.Greater(t, kindBoostFor(types.KindFunction, false), kindBoostFor(types.KindClass, false))
	require.Greater(t, kindBoostFor(types.KindClass, false), kindBoostFor(types.KindModule, false))
	require.Greater(t, kindBoostFor(types.KindFile, true), kindBoostFor(types.KindFile, false))
}
