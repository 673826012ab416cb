package handlers

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/codegraph/internal/config"
	contextbuilder "github.com/standardbeagle/codegraph/internal/context"
	"github.com/standardbeagle/codegraph/internal/graph"
	"github.com/standardbeagle/codegraph/internal/search"
	"github.com/standardbeagle/codegraph/internal/store"
	"github.com/standardbeagle/codegraph/internal/sync"
	"github.com/standardbeagle/codegraph/internal/types"
)

func testReadFile(path string) ([]byte, error) { return os.ReadFile(path) }

func newTestHandlers(t *testing.T, root string) *Handlers {
	t.Helper()
	s, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	g := graph.New(s)
	searcher := search.New(s)
	ctxBuilder := contextbuilder.New(s, g, searcher, nil, testReadFile)
	cfg := config.Default(root, "testproj")
	sy := sync.New(s, cfg, nil, testReadFile)

	return New(root, s, g, searcher, ctxBuilder, sy, nil, nil)
}

func seedCallGraph(t *testing.T, s *store.Store) (loginID, hashID, callerID string) {
	t.Helper()
	ctx := context.Background()
	login := types.Node{ID: "function:login", Kind: types.KindFunction, Name: "Login", QualifiedName: "auth.Login",
		FilePath: "internal/auth/auth.go", Language: "go", StartLine: 10, EndLine: 14}
	hash := types.Node{ID: "function:hash", Kind: types.KindFunction, Name: "hashPassword",
		FilePath: "internal/auth/auth.go", Language: "go", StartLine: 20, EndLine: 22}
	caller := types.Node{ID: "function:handler", Kind: types.KindFunction, Name: "HandleAuth",
		Docstring: "serves the login form",
		FilePath: "internal/http/handler.go", Language: "go", StartLine: 5, EndLine: 9}

	require.NoError(t, s.InsertNodes(ctx, []types.Node{login, hash, caller}))
	require.NoError(t, s.InsertEdges(ctx, []types.Edge{
		{Source: caller.ID, Target: login.ID, Kind: types.EdgeCalls},
		{Source: login.ID, Target: hash.ID, Kind: types.EdgeCalls},
	}))
	return login.ID, hash.ID, caller.ID
}

func TestResolveSymbolAutoPicksExactMatch(t *testing.T) {
	root := t.TempDir()
	h := newTestHandlers(t, root)
	seedCallGraph(t, h.Store)
	ctx := context.Background()

	node, ambiguous, err := h.ResolveSymbol(ctx, SymbolQuery{Symbol: "Login"})
	require.NoError(t, err)
	require.Nil(t, ambiguous)
	require.Equal(t, "function:login", node.ID)
}

func TestResolveSymbolReportsAmbiguous(t *testing.T) {
	root := t.TempDir()
	h := newTestHandlers(t, root)
	ctx := context.Background()

	require.NoError(t, h.Store.InsertNodes(ctx, []types.Node{
		{ID: "function:run1", Kind: types.KindFunction, Name: "Run", FilePath: "pkg/a/a.go", Language: "go"},
		{ID: "function:run2", Kind: types.KindFunction, Name: "Run", FilePath: "pkg/b/b.go", Language: "go"},
	}))

	node, ambiguous, err := h.ResolveSymbol(ctx, SymbolQuery{Symbol: "Run"})
	require.NoError(t, err)
	require.Nil(t, node)
	require.NotNil(t, ambiguous)
	require.Len(t, ambiguous.Candidates, 2)
	require.NotEmpty(t, ambiguous.SuggestedRetries)
}

func TestResolveSymbolReturnsErrorWhenNoMatch(t *testing.T) {
	root := t.TempDir()
	h := newTestHandlers(t, root)
	ctx := context.Background()

	_, _, err := h.ResolveSymbol(ctx, SymbolQuery{Symbol: "NoSuchSymbolAnywhere"})
	require.Error(t, err)
}

func TestCallersAndCallees(t *testing.T) {
	root := t.TempDir()
	h := newTestHandlers(t, root)
	seedCallGraph(t, h.Store)
	ctx := context.Background()

	callers, err := h.Callers(ctx, SymbolQuery{Symbol: "Login"})
	require.NoError(t, err)
	require.Len(t, callers, 1)
	require.Equal(t, "HandleAuth", callers[0].Name)

	callees, err := h.Callees(ctx, SymbolQuery{Symbol: "Login"})
	require.NoError(t, err)
	require.Len(t, callees, 1)
	require.Equal(t, "hashPassword", callees[0].Name)
}

func TestImpactGroupsByFile(t *testing.T) {
	root := t.TempDir()
	h := newTestHandlers(t, root)
	seedCallGraph(t, h.Store)
	ctx := context.Background()

	groups, err := h.Impact(ctx, SymbolQuery{Symbol: "hashPassword"}, 2)
	require.NoError(t, err)
	require.NotEmpty(t, groups)
	for _, g := range groups {
		require.NotEmpty(t, g.Nodes)
	}
}

func TestNodeIncludesSource(t *testing.T) {
	root := t.TempDir()
	h := newTestHandlers(t, root)
	seedCallGraph(t, h.Store)
	ctx := context.Background()

	src := "line1\nline2\nline3\nline4\nline5\nline6\nline7\nline8\nline9\nline10\n" +
		"func Login() {}\nline12\nline13\nline14\n"
	readFile := func(string) ([]byte, error) { return []byte(src), nil }

	detail, err := h.Node(ctx, SymbolQuery{Symbol: "Login"}, true, readFile)
	require.NoError(t, err)
	require.Equal(t, "function:login", detail.Node.ID)
	require.Contains(t, detail.Source, "func Login")
}

func TestStatusReportsCounts(t *testing.T) {
	root := t.TempDir()
	h := newTestHandlers(t, root)
	seedCallGraph(t, h.Store)
	ctx := context.Background()

	report, err := h.Status(ctx)
	require.NoError(t, err)
	require.Equal(t, 3, report.NodeCount)
	require.Equal(t, 2, report.EdgeCount)
	require.Equal(t, 3, report.CountsByKind[types.KindFunction])
}

func TestInitIndexAndSyncLifecycle(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "main.go"), []byte("package main\n\nfunc Hello() {}\n"), 0o644))

	h := newTestHandlers(t, root)
	ctx := context.Background()

	cfg, err := h.Init(ctx, root, "testproj", false)
	require.NoError(t, err)
	require.Equal(t, "testproj", cfg.ProjectName)

	_, err = h.Init(ctx, root, "testproj", false)
	require.Error(t, err)

	result, err := h.Index(ctx, root, false)
	require.NoError(t, err)
	require.Equal(t, 1, result.Added)

	result, err = h.Sync(ctx, root)
	require.NoError(t, err)
	require.Equal(t, 1, result.Unchanged)

	require.Equal(t, root, h.GetRoot())
}

func TestSetRootRejectsUninitializedPath(t *testing.T) {
	root := t.TempDir()
	h := newTestHandlers(t, root)
	require.Error(t, h.SetRoot(t.TempDir()))
}
