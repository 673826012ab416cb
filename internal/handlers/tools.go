package handlers

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/standardbeagle/codegraph/internal/cgerrors"
	contextbuilder "github.com/standardbeagle/codegraph/internal/context"
	"github.com/standardbeagle/codegraph/internal/search"
	"github.com/standardbeagle/codegraph/internal/types"
)

// SearchRequest is the `search` tool's input shape (spec §6).
type SearchRequest struct {
	Query        string
	Kind         string
	Language     string
	PathHint     string
	IncludeFiles bool
	Limit        int
}

// Search runs lexical search with exactly the filters given in req and
// returns the ranked results. It does no auto-scope inference, and the
// response carries no annotation of the filters that were applied.
func (h *Handlers) Search(ctx context.Context, req SearchRequest) ([]types.SearchResult, error) {
	opts := searchOptsFromRequest(req)
	return h.Searcher.Search(ctx, req.Query, opts)
}

func searchOptsFromRequest(req SearchRequest) search.Options {
	opts := search.Options{Limit: limitOr(req.Limit, defaultNodeLimit), IncludeFiles: req.IncludeFiles}
	if req.Kind != "" {
		opts.Kinds = []types.Kind{types.Kind(req.Kind)}
	}
	if req.Language != "" {
		opts.Languages = []string{req.Language}
	}
	if req.PathHint != "" {
		opts.IncludePatterns = []string{"**/" + req.PathHint + "**"}
	}
	return opts
}

// ContextRequest is the `context` tool's input shape (spec §6).
type ContextRequest struct {
	Task         string
	MaxNodes     int
	Kind         string
	Language     string
	PathHint     string
	IncludeFiles bool
	IncludeCode  bool
	Format       contextbuilder.Format
}

// noCodeBlockLimit is passed when a caller asks for includeCode=false; the
// Context builder has no literal "off" switch, so one code block keeps the
// pipeline's code-extraction pass cheap; Context then drops that block
// before rendering.
const noCodeBlockLimit = 1

// Context runs the full Context-builder pipeline (spec §4.H) and renders it
// per req.Format (markdown by default).
func (h *Handlers) Context(ctx context.Context, req ContextRequest) (any, error) {
	opts := contextbuilder.Options{
		Kind:         types.Kind(req.Kind),
		Language:     req.Language,
		PathHint:     req.PathHint,
		IncludeFiles: req.IncludeFiles,
		MaxNodes:     req.MaxNodes,
		Format:       req.Format,
	}
	if !req.IncludeCode {
		opts.MaxCodeBlocks = noCodeBlockLimit
	}
	tc, err := h.ContextBuilder.Build(ctx, req.Task, opts)
	if err != nil {
		return nil, err
	}
	if !req.IncludeCode {
		tc.CodeBlocks = nil
		tc.Stats.CodeBlockCount = 0
		tc.Stats.TotalCodeSize = 0
	}
	return contextbuilder.Render(tc, opts.Format)
}

// symbolNode runs ResolveSymbol and maps an Ambiguous result into a
// cgerrors.RequestError, since callers/callees/impact/node all need exactly
// one resolved node to proceed.
func (h *Handlers) symbolNode(ctx context.Context, q SymbolQuery) (*types.Node, error) {
	node, ambiguous, err := h.ResolveSymbol(ctx, q)
	if err != nil {
		return nil, err
	}
	if ambiguous != nil {
		return nil, ambiguousToError("resolveSymbol", *ambiguous)
	}
	return node, nil
}

// Callers returns the nodes that call/reference the resolved symbol (spec §6).
func (h *Handlers) Callers(ctx context.Context, q SymbolQuery) ([]types.Node, error) {
	n, err := h.symbolNode(ctx, q)
	if err != nil {
		return nil, err
	}
	sub, err := h.Graph.Traverse(ctx, n.ID, types.TraverseOptions{
		MaxDepth:  1,
		EdgeKinds: []types.EdgeKind{types.EdgeCalls, types.EdgeReferences},
		Direction: types.DirectionIncoming,
		Limit:     limitOr(q.Limit, defaultNodeLimit),
	})
	if err != nil {
		return nil, err
	}
	return nodesExcept(sub, n.ID), nil
}

// Callees returns the nodes the resolved symbol calls/references (spec §6).
func (h *Handlers) Callees(ctx context.Context, q SymbolQuery) ([]types.Node, error) {
	n, err := h.symbolNode(ctx, q)
	if err != nil {
		return nil, err
	}
	sub, err := h.Graph.Traverse(ctx, n.ID, types.TraverseOptions{
		MaxDepth:  1,
		EdgeKinds: []types.EdgeKind{types.EdgeCalls, types.EdgeReferences},
		Direction: types.DirectionOutgoing,
		Limit:     limitOr(q.Limit, defaultNodeLimit),
	})
	if err != nil {
		return nil, err
	}
	return nodesExcept(sub, n.ID), nil
}

// ImpactGroup is one file's worth of nodes in an impact radius (spec §6:
// "Subgraph summary grouped by file").
type ImpactGroup struct {
	FilePath string
	Nodes    []types.Node
}

// Impact runs an incoming dependency-edge BFS from the resolved symbol and
// groups the result by file (spec §4.E ImpactRadius, §6).
func (h *Handlers) Impact(ctx context.Context, q SymbolQuery, depth int) ([]ImpactGroup, error) {
	n, err := h.symbolNode(ctx, q)
	if err != nil {
		return nil, err
	}
	if depth <= 0 {
		depth = 2
	}
	sub, err := h.Graph.ImpactRadius(ctx, n.ID, depth)
	if err != nil {
		return nil, err
	}
	return groupByFile(nodesExcept(sub, n.ID)), nil
}

// Node returns the resolved node, optionally with its source excerpt (spec §6).
type NodeDetail struct {
	Node   types.Node
	Source string
}

func (h *Handlers) Node(ctx context.Context, q SymbolQuery, includeCode bool, readFile func(string) ([]byte, error)) (*NodeDetail, error) {
	n, err := h.symbolNode(ctx, q)
	if err != nil {
		return nil, err
	}
	detail := &NodeDetail{Node: *n}
	if includeCode && readFile != nil && n.EndLine >= n.StartLine {
		src, rerr := readFile(n.FilePath)
		if rerr == nil {
			detail.Source = extractLines(src, n.StartLine, n.EndLine)
		}
	}
	return detail, nil
}

// StatusReport is the `status` tool's result (spec §6: "Graph stats (counts
// by kind/language, DB size)").
type StatusReport struct {
	NodeCount    int
	EdgeCount    int
	FileCount    int
	CountsByKind map[types.Kind]int
	ByLanguage   map[string]int
	DBSizeBytes  int64
	LastSyncedAt string
}

// Status reports aggregate graph stats and on-disk store size (spec §6).
func (h *Handlers) Status(ctx context.Context) (*StatusReport, error) {
	nodes, err := h.Store.AllNodes(ctx)
	if err != nil {
		return nil, err
	}
	files, err := h.Store.AllFilePaths(ctx)
	if err != nil {
		return nil, err
	}

	report := &StatusReport{
		NodeCount:    len(nodes),
		FileCount:    len(files),
		CountsByKind: make(map[types.Kind]int),
		ByLanguage:   make(map[string]int),
	}
	for _, n := range nodes {
		report.CountsByKind[n.Kind]++
		if n.Language != "" {
			report.ByLanguage[n.Language]++
		}
		edges, err := h.Store.GetEdgesFrom(ctx, n.ID, nil)
		if err != nil {
			return nil, err
		}
		report.EdgeCount += len(edges)
	}

	if info, statErr := os.Stat(h.Store.Path()); statErr == nil {
		report.DBSizeBytes = info.Size()
	}
	if v, ok, _ := h.Store.GetMetadata(ctx, "lastSyncedAt"); ok {
		report.LastSyncedAt = v
	}
	return report, nil
}

func nodesExcept(sub *types.Subgraph, exclude string) []types.Node {
	out := make([]types.Node, 0, len(sub.Nodes))
	for id, n := range sub.Nodes {
		if id == exclude {
			continue
		}
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].FilePath != out[j].FilePath {
			return out[i].FilePath < out[j].FilePath
		}
		return out[i].StartLine < out[j].StartLine
	})
	return out
}

func groupByFile(nodes []types.Node) []ImpactGroup {
	byFile := make(map[string][]types.Node)
	var order []string
	for _, n := range nodes {
		if _, ok := byFile[n.FilePath]; !ok {
			order = append(order, n.FilePath)
		}
		byFile[n.FilePath] = append(byFile[n.FilePath], n)
	}
	sort.Strings(order)
	groups := make([]ImpactGroup, 0, len(order))
	for _, f := range order {
		groups = append(groups, ImpactGroup{FilePath: f, Nodes: byFile[f]})
	}
	return groups
}

func extractLines(src []byte, start, end int) string {
	lines := strings.Split(string(src), "\n")
	if start < 1 {
		start = 1
	}
	if end > len(lines) {
		end = len(lines)
	}
	if start > end || start > len(lines) {
		return ""
	}
	return strings.Join(lines[start-1:end], "\n")
}

func ambiguousToError(tool string, a Ambiguous) error {
	return cgerrors.NewRequestError(tool,
		fmt.Sprintf("ambiguous symbol %q (%d candidates)", a.Symbol, len(a.Candidates)),
		a.SuggestedRetries...)
}
