package contextbuilder

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/codegraph/internal/graph"
	"github.com/standardbeagle/codegraph/internal/search"
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

func seedGraph(t *testing.T, s *store.Store) {
	t.Helper()
	ctx := context.Background()
	file := types.Node{ID: "file:1", Kind: types.KindFile, Name: "auth.go", FilePath: "internal/auth/auth.go", Language: "go"}
	login := types.Node{ID: "function:1", Kind: types.KindFunction, Name: "Login", FilePath: "internal/auth/auth.go",
		Language: "go", StartLine: 10, EndLine: 14, Docstring: "Login authenticates a user"}
	helper := types.Node{ID: "function:2", Kind: types.KindFunction, Name: "hashPassword", FilePath: "internal/auth/auth.go",
		Language: "go", StartLine: 20, EndLine: 22, Docstring: "hashes a password"}

	require.NoError(t, s.InsertNodes(ctx, []types.Node{file, login, helper}))
	require.NoError(t, s.InsertEdges(ctx, []types.Edge{
		{Source: file.ID, Target: login.ID, Kind: types.EdgeContains},
		{Source: file.ID, Target: helper.ID, Kind: types.EdgeContains},
		{Source: login.ID, Target: helper.ID, Kind: types.EdgeCalls},
	}))
}

func testReadFile(path string) ([]byte, error) {
	lines := make([]string, 30)
	for i := range lines {
		lines[i] = fmt.Sprintf("line %d of %s", i+1, path)
	}
	content := ""
	for i, l := range lines {
		if i > 0 {
			content += "\n"
		}
		content += l
	}
	return []byte(content), nil
}

func TestBuildProducesSubgraphAndCodeBlocks(t *testing.T) {
	s := openTestStore(t)
	seedGraph(t, s)
	ctx := context.Background()

	b := New(s, graph.New(s), search.New(s), nil, testReadFile)
	tc, err := b.Build(ctx, "user login authentication", Options{})
	require.NoError(t, err)

	require.NotEmpty(t, tc.Subgraph.Nodes)
	require.NotEmpty(t, tc.CodeBlocks)
	require.Equal(t, tc.Stats.NodeCount, len(tc.Subgraph.Nodes))
	require.NotEmpty(t, tc.Summary)
}

func TestBuildRendersMarkdown(t *testing.T) {
	s := openTestStore(t)
	seedGraph(t, s)
	ctx := context.Background()

	b := New(s, graph.New(s), search.New(s), nil, testReadFile)
	tc, err := b.Build(ctx, "login", Options{Format: FormatMarkdown})
	require.NoError(t, err)

	rendered, err := Render(tc, FormatMarkdown)
	require.NoError(t, err)
	md, ok := rendered.(string)
	require.True(t, ok)
	require.Contains(t, md, "Context for: login")
}

func TestInferScopeDetectsExploratory(t *testing.T) {
	s := openTestStore(t)
	seedGraph(t, s)
	ctx := context.Background()

	b := New(s, graph.New(s), search.New(s), nil, testReadFile)
	scope := b.inferScope(ctx, "explore the authentication module", Options{}.withDefaults())
	require.True(t, scope.Exploratory)
	require.Empty(t, scope.Kind)

	scope = b.inferScope(ctx, "fix login bug", Options{}.withDefaults())
	require.False(t, scope.Exploratory)
	require.Equal(t, types.KindFunction, scope.Kind)
}

func TestTrimKeepsEntryPointsWithinBudget(t *testing.T) {
	sub := types.NewSubgraph()
	for i := 0; i < 10; i++ {
		id := fmt.Sprintf("function:%d", i)
		sub.Nodes[id] = types.Node{ID: id, Kind: types.KindFunction, Name: id}
	}
	entry := scored{node: sub.Nodes["function:0"]}
	trim(sub, []scored{entry}, 3)

	require.LessOrEqual(t, len(sub.Nodes), 3)
	_, ok := sub.Nodes["function:0"]
	require.True(t, ok)
}
