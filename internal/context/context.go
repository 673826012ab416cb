// Package contextbuilder implements the Context component of spec §4.H: turning a
// free-text task description into a ranked subgraph of entry points plus
// their neighbors, with extracted code excerpts and a deterministic
// markdown/JSON rendering. Grounded on the graph traversal idiom of
// internal/graph (BFS, bounded by depth and a node budget) and the Searcher
// re-ranking ladder of internal/search, generalized from "rank hits" to
// "rank entry points, then grow a subgraph around them".
package contextbuilder

import (
	"context"
	"sort"
	"strings"

	"github.com/standardbeagle/codegraph/internal/graph"
	"github.com/standardbeagle/codegraph/internal/search"
	"github.com/standardbeagle/codegraph/internal/store"
	"github.com/standardbeagle/codegraph/internal/types"
	"github.com/standardbeagle/codegraph/internal/vectors"
)

// Semantic is the subset of *vectors.Vectors the Builder needs; satisfied
// by *vectors.Vectors, or nil when the Vectors component isn't initialized
// (spec §4.G "the Vectors component is optional").
type Semantic interface {
	Search(ctx context.Context, queryText string, opts vectors.SearchOptions) ([]vectors.Result, error)
}

// Format selects the TaskContext rendering (spec §4.H step 7).
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatJSON     Format = "json"
	FormatObject   Format = "object"
)

// Options narrows a Build call (spec §4.H). Zero values take the defaults
// named in the spec.
type Options struct {
	Kind             types.Kind
	Language         string
	PathHint         string
	MinScore         float64
	IncludeFiles     bool
	SearchLimit      int
	TraversalDepth   int
	MaxNodes         int
	MaxCodeBlocks    int
	MaxCodeBlockSize int
	Format           Format
}

const (
	defaultMinScore         = 0.3
	defaultSearchLimit      = 8
	defaultTraversalDepth   = 1
	defaultMaxNodes         = 60
	defaultMaxCodeBlocks    = 10
	defaultMaxCodeBlockSize = 4000
)

func (o Options) withDefaults() Options {
	if o.MinScore <= 0 {
		o.MinScore = defaultMinScore
	}
	if o.SearchLimit <= 0 {
		o.SearchLimit = defaultSearchLimit
	}
	if o.TraversalDepth <= 0 {
		o.TraversalDepth = defaultTraversalDepth
	}
	if o.MaxNodes <= 0 {
		o.MaxNodes = defaultMaxNodes
	}
	if o.MaxCodeBlocks <= 0 {
		o.MaxCodeBlocks = defaultMaxCodeBlocks
	}
	if o.MaxCodeBlockSize <= 0 {
		o.MaxCodeBlockSize = defaultMaxCodeBlockSize
	}
	if o.Format == "" {
		o.Format = FormatMarkdown
	}
	return o
}

// ReadFileFunc reads a project-relative path's raw bytes, used for code
// block extraction (spec §4.H step 6).
type ReadFileFunc func(path string) ([]byte, error)

// Builder assembles TaskContext values from a task string (spec §4.H).
type Builder struct {
	store    *store.Store
	graph    *graph.Graph
	searcher *search.Searcher
	semantic Semantic
	readFile ReadFileFunc
}

// New returns a Builder. semantic may be nil to force lexical-only search.
func New(s *store.Store, g *graph.Graph, searcher *search.Searcher, semantic Semantic, readFile ReadFileFunc) *Builder {
	return &Builder{store: s, graph: g, searcher: searcher, semantic: semantic, readFile: readFile}
}

// Build runs the full spec §4.H pipeline: auto-scope, search, re-rank,
// bounded multi-root BFS, trim, code-block extraction, and summary/stats.
func (b *Builder) Build(ctx context.Context, task string, opts Options) (*types.TaskContext, error) {
	opts = opts.withDefaults()

	scope := b.inferScope(ctx, task, opts)

	candidates, err := b.candidateNodes(ctx, task, scope, opts)
	if err != nil {
		return nil, err
	}

	entryPoints := rerank(task, candidates, opts.SearchLimit)

	sub, err := b.buildSubgraph(ctx, entryPoints, opts)
	if err != nil {
		return nil, err
	}
	trim(sub, entryPoints, opts.MaxNodes)

	blocks := b.extractCodeBlocks(sub, entryPoints, opts)

	stats := computeStats(sub, blocks)
	tc := &types.TaskContext{
		Task:           task,
		InferredFilter: scope,
		Subgraph:       *sub,
		CodeBlocks:     blocks,
		Stats:          stats,
	}
	tc.Summary = summarize(task, scope, stats)
	return tc, nil
}

// candidateNodes runs semantic search when available, otherwise lexical
// search, and filters by minScore/pathHint/language/file-inclusion (spec
// §4.H step 2).
func (b *Builder) candidateNodes(ctx context.Context, task string, scope types.AutoScope, opts Options) ([]scored, error) {
	fetchLimit := 5 * opts.SearchLimit

	var raw []scored
	if b.semantic != nil {
		hits, err := b.semantic.Search(ctx, task, vectors.SearchOptions{Limit: fetchLimit, Kinds: kindFilter(scope)})
		if err == nil && len(hits) > 0 {
			for _, h := range hits {
				n, ok, gerr := b.store.GetNodeByID(ctx, h.NodeID)
				if gerr != nil {
					return nil, gerr
				}
				if !ok {
					continue
				}
				raw = append(raw, scored{node: n, score: h.Score})
			}
		}
	}

	if len(raw) == 0 {
		searchOpts := search.Options{Limit: fetchLimit, IncludeFiles: opts.IncludeFiles}
		if scope.Language != "" {
			searchOpts.Languages = []string{scope.Language}
		}
		if scope.Kind != "" {
			searchOpts.Kinds = []types.Kind{scope.Kind}
		}
		results, err := b.searcher.Search(ctx, task, searchOpts)
		if err != nil {
			return nil, err
		}
		for _, r := range results {
			raw = append(raw, scored{node: r.Node, score: r.Final})
		}
	}

	pathHint := opts.PathHint
	if pathHint == "" {
		pathHint = scope.PathHint
	}

	filtered := make([]scored, 0, len(raw))
	for _, c := range raw {
		if c.score < opts.MinScore {
			continue
		}
		if pathHint != "" && !strings.Contains(c.node.FilePath, pathHint) {
			continue
		}
		if scope.Language != "" && c.node.Language != "" && !strings.EqualFold(c.node.Language, scope.Language) {
			continue
		}
		if c.node.Kind == types.KindFile && !opts.IncludeFiles {
			continue
		}
		filtered = append(filtered, c)
	}
	return filtered, nil
}

func kindFilter(scope types.AutoScope) []types.Kind {
	if scope.Kind == "" {
		return nil
	}
	return []types.Kind{scope.Kind}
}

// buildSubgraph runs a bounded BFS from each entry point and merges the
// results into one subgraph (spec §4.H step 4).
func (b *Builder) buildSubgraph(ctx context.Context, entryPoints []scored, opts Options) (*types.Subgraph, error) {
	merged := types.NewSubgraph()
	perRootBudget := opts.MaxNodes
	if len(entryPoints) > 0 {
		perRootBudget = max(1, opts.MaxNodes/len(entryPoints))
	}

	traverseOpts := types.TraverseOptions{
		MaxDepth:  opts.TraversalDepth,
		Direction: types.DirectionBoth,
		Limit:     perRootBudget,
	}

	for _, c := range entryPoints {
		sub, err := b.graph.Traverse(ctx, c.node.ID, traverseOpts)
		if err != nil {
			return nil, err
		}
		merged.Roots = append(merged.Roots, c.node.ID)
		for id, n := range sub.Nodes {
			if n.Kind == types.KindFile && !opts.IncludeFiles {
				continue
			}
			if opts.Language != "" && n.Language != "" && !strings.EqualFold(n.Language, opts.Language) {
				continue
			}
			merged.Nodes[id] = n
		}
		for _, e := range sub.Edges {
			merged.Edges = append(merged.Edges, e)
		}
	}
	merged.Edges = dedupEdges(merged.Edges)
	return merged, nil
}

func dedupEdges(edges []types.Edge) []types.Edge {
	seen := make(map[string]bool, len(edges))
	out := make([]types.Edge, 0, len(edges))
	for _, e := range edges {
		key := e.Source + "|" + e.Target + "|" + string(e.Kind)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, e)
	}
	return out
}

// trim keeps entry points and their direct neighbors first, then drops
// nodes over maxNodes and any edge that no longer spans two retained nodes
// (spec §4.H step 5).
func trim(sub *types.Subgraph, entryPoints []scored, maxNodes int) {
	if len(sub.Nodes) <= maxNodes {
		return
	}

	keep := make(map[string]bool, maxNodes)
	for _, c := range entryPoints {
		if _, ok := sub.Nodes[c.node.ID]; ok {
			keep[c.node.ID] = true
		}
	}
	for _, e := range sub.Edges {
		if len(keep) >= maxNodes {
			break
		}
		if keep[e.Source] && !keep[e.Target] {
			keep[e.Target] = true
		} else if keep[e.Target] && !keep[e.Source] {
			keep[e.Source] = true
		}
	}
	// Fill any remaining budget with whatever's left, in stable ID order.
	remaining := make([]string, 0, len(sub.Nodes))
	for id := range sub.Nodes {
		if !keep[id] {
			remaining = append(remaining, id)
		}
	}
	sort.Strings(remaining)
	for _, id := range remaining {
		if len(keep) >= maxNodes {
			break
		}
		keep[id] = true
	}

	for id := range sub.Nodes {
		if !keep[id] {
			delete(sub.Nodes, id)
		}
	}
	filteredEdges := sub.Edges[:0]
	for _, e := range sub.Edges {
		if keep[e.Source] && keep[e.Target] {
			filteredEdges = append(filteredEdges, e)
		}
	}
	sub.Edges = filteredEdges
}

func computeStats(sub *types.Subgraph, blocks []types.CodeBlock) types.TaskContextStats {
	files := make(map[string]bool)
	totalSize := 0
	for _, n := range sub.Nodes {
		if n.FilePath != "" {
			files[n.FilePath] = true
		}
	}
	for _, b := range blocks {
		totalSize += len(b.Code)
	}
	return types.TaskContextStats{
		NodeCount:      len(sub.Nodes),
		EdgeCount:      len(sub.Edges),
		FileCount:      len(files),
		CodeBlockCount: len(blocks),
		TotalCodeSize:  totalSize,
	}
}

func summarize(task string, scope types.AutoScope, stats types.TaskContextStats) string {
	var b strings.Builder
	b.WriteString("Context for: ")
	b.WriteString(task)
	if scope.Kind != "" {
		b.WriteString(" (kind=")
		b.WriteString(string(scope.Kind))
		b.WriteByte(')')
	}
	b.WriteString(" — ")
	writeCount(&b, stats.NodeCount, "node")
	b.WriteString(", ")
	writeCount(&b, stats.EdgeCount, "edge")
	b.WriteString(", ")
	writeCount(&b, stats.FileCount, "file")
	return b.String()
}

func writeCount(b *strings.Builder, n int, noun string) {
	b.WriteString(itoa(n))
	b.WriteByte(' ')
	b.WriteString(noun)
	if n != 1 {
		b.WriteByte('s')
	}
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var digits []byte
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	if neg {
		return "-" + string(digits)
	}
	return string(digits)
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
