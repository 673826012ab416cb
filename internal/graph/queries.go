package graph

import (
	"context"

	"github.com/standardbeagle/codegraph/internal/idgen"
	"github.com/standardbeagle/codegraph/internal/types"
)

// CallGraph is the union of an outgoing and incoming `calls` BFS from node,
// up to depth (spec §4.E).
func (g *Graph) CallGraph(ctx context.Context, node string, depth int) (*types.Subgraph, error) {
	out, err := g.Traverse(ctx, node, types.TraverseOptions{MaxDepth: depth, EdgeKinds: []types.EdgeKind{types.EdgeCalls}, Direction: types.DirectionOutgoing})
	if err != nil {
		return nil, err
	}
	in, err := g.Traverse(ctx, node, types.TraverseOptions{MaxDepth: depth, EdgeKinds: []types.EdgeKind{types.EdgeCalls}, Direction: types.DirectionIncoming})
	if err != nil {
		return nil, err
	}
	return union(out, in), nil
}

// TypeHierarchy returns ancestors (outgoing extends/implements) and
// descendants (incoming extends/implements) of node (spec §4.E).
func (g *Graph) TypeHierarchy(ctx context.Context, node string, depth int) (ancestors, descendants *types.Subgraph, err error) {
	kinds := []types.EdgeKind{types.EdgeExtends, types.EdgeImplements}
	ancestors, err = g.Traverse(ctx, node, types.TraverseOptions{MaxDepth: depth, EdgeKinds: kinds, Direction: types.DirectionOutgoing})
	if err != nil {
		return nil, nil, err
	}
	descendants, err = g.Traverse(ctx, node, types.TraverseOptions{MaxDepth: depth, EdgeKinds: kinds, Direction: types.DirectionIncoming})
	if err != nil {
		return nil, nil, err
	}
	return ancestors, descendants, nil
}

// ImpactRadius answers "what depends on this, transitively": an incoming
// BFS over the edge kinds that signal dependency (spec §4.E,
// types.DependencyEdgeKinds).
func (g *Graph) ImpactRadius(ctx context.Context, node string, depth int) (*types.Subgraph, error) {
	return g.Traverse(ctx, node, types.TraverseOptions{
		MaxDepth:  depth,
		EdgeKinds: types.DependencyEdgeKinds,
		Direction: types.DirectionIncoming,
	})
}

// ShortestPath returns the interleaved [node, edge?, node, ...] path from
// start to end via BFS over an optional edge-kind whitelist, or nil if
// unreachable (spec §4.E).
func (g *Graph) ShortestPath(ctx context.Context, start, end string, edgeKinds []types.EdgeKind) ([]types.PathStep, error) {
	if start == end {
		n, ok, err := g.store.GetNodeByID(ctx, start)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, nil
		}
		return []types.PathStep{{Node: &n}}, nil
	}

	type parent struct {
		id   string
		edge types.Edge
	}
	prev := map[string]parent{start: {}}
	queue := []string{start}
	visited := map[string]bool{start: true}

	found := false
	for len(queue) > 0 && len(visited) < maxVisited {
		cur := queue[0]
		queue = queue[1:]
		if cur == end {
			found = true
			break
		}
		edges, err := g.store.GetEdgesFrom(ctx, cur, edgeKinds)
		if err != nil {
			return nil, err
		}
		for _, e := range edges {
			if visited[e.Target] {
				continue
			}
			visited[e.Target] = true
			prev[e.Target] = parent{id: cur, edge: e}
			if e.Target == end {
				found = true
			}
			queue = append(queue, e.Target)
		}
		if found {
			break
		}
	}
	if !visited[end] {
		return nil, nil
	}

	var chain []parent
	for at := end; at != start; {
		p := prev[at]
		chain = append([]parent{{id: at, edge: p.edge}}, chain...)
		at = p.id
	}

	steps := make([]types.PathStep, 0, len(chain)*2+1)
	startNode, ok, err := g.store.GetNodeByID(ctx, start)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	steps = append(steps, types.PathStep{Node: &startNode})
	for _, p := range chain {
		e := p.edge
		n, ok, err := g.store.GetNodeByID(ctx, p.id)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, nil
		}
		steps = append(steps, types.PathStep{Edge: &e}, types.PathStep{Node: &n})
	}
	return steps, nil
}

// CircularFileDeps finds cycles in the file-level import graph using
// Tarjan's strongly-connected-components algorithm, returning each
// nontrivial SCC as a list of file paths (spec §4.E).
func (g *Graph) CircularFileDeps(ctx context.Context) ([][]string, error) {
	paths, err := g.store.AllFilePaths(ctx)
	if err != nil {
		return nil, err
	}

	adjacency := make(map[string][]string, len(paths))
	for _, p := range paths {
		fileID := idgen.FileNodeID(p)
		edges, err := g.store.GetEdgesFrom(ctx, fileID, []types.EdgeKind{types.EdgeImports})
		if err != nil {
			return nil, err
		}
		for _, e := range edges {
			target, ok, err := g.store.GetNodeByID(ctx, e.Target)
			if err != nil {
				return nil, err
			}
			if ok && target.Kind == types.KindFile {
				adjacency[p] = append(adjacency[p], target.FilePath)
			}
		}
	}

	return tarjanSCCs(adjacency), nil
}

// tarjanSCCs runs Tarjan's algorithm iteratively (no recursion, so depth is
// bounded only by heap size, not goroutine stack) and returns every
// strongly connected component with more than one node, or a single
// self-referential node, as a cycle.
func tarjanSCCs(adjacency map[string][]string) [][]string {
	index := 0
	indices := make(map[string]int)
	lowlink := make(map[string]int)
	onStack := make(map[string]bool)
	var stack []string
	var sccs [][]string

	type frame struct {
		node    string
		edgeIdx int
	}

	var nodes []string
	for n := range adjacency {
		nodes = append(nodes, n)
	}

	var strongConnect func(v string)
	strongConnect = func(v string) {
		work := []frame{{node: v}}
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for len(work) > 0 {
			top := &work[len(work)-1]
			neighbors := adjacency[top.node]
			if top.edgeIdx < len(neighbors) {
				w := neighbors[top.edgeIdx]
				top.edgeIdx++
				if _, seen := indices[w]; !seen {
					indices[w] = index
					lowlink[w] = index
					index++
					stack = append(stack, w)
					onStack[w] = true
					work = append(work, frame{node: w})
				} else if onStack[w] {
					if indices[w] < lowlink[top.node] {
						lowlink[top.node] = indices[w]
					}
				}
				continue
			}

			// Done with top.node's neighbors.
			work = work[:len(work)-1]
			if len(work) > 0 {
				parentFrame := &work[len(work)-1]
				if lowlink[top.node] < lowlink[parentFrame.node] {
					lowlink[parentFrame.node] = lowlink[top.node]
				}
			}
			if lowlink[top.node] == indices[top.node] {
				var scc []string
				for {
					n := stack[len(stack)-1]
					stack = stack[:len(stack)-1]
					onStack[n] = false
					scc = append(scc, n)
					if n == top.node {
						break
					}
				}
				if len(scc) > 1 || (len(scc) == 1 && selfLoop(adjacency, scc[0])) {
					sccs = append(sccs, scc)
				}
			}
		}
	}

	for _, n := range nodes {
		if _, seen := indices[n]; !seen {
			strongConnect(n)
		}
	}
	return sccs
}

func selfLoop(adjacency map[string][]string, n string) bool {
	for _, t := range adjacency[n] {
		if t == n {
			return true
		}
	}
	return false
}

// DeadCode returns nodes of the requested kinds with zero incoming
// calls/references from nodes outside themselves (spec §4.E).
func (g *Graph) DeadCode(ctx context.Context, kinds []types.Kind) ([]types.Node, error) {
	var candidates []types.Node
	for _, k := range kinds {
		nodes, err := g.nodesByKind(ctx, k)
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, nodes...)
	}

	var dead []types.Node
	for _, n := range candidates {
		incoming, err := g.store.GetEdgesTo(ctx, n.ID, []types.EdgeKind{types.EdgeCalls, types.EdgeReferences})
		if err != nil {
			return nil, err
		}
		live := false
		for _, e := range incoming {
			if e.Source != n.ID {
				live = true
				break
			}
		}
		if !live {
			dead = append(dead, n)
		}
	}
	return dead, nil
}

func (g *Graph) nodesByKind(ctx context.Context, k types.Kind) ([]types.Node, error) {
	all, err := g.store.AllNodes(ctx)
	if err != nil {
		return nil, err
	}
	var out []types.Node
	for _, n := range all {
		if n.Kind == k {
			out = append(out, n)
		}
	}
	return out, nil
}

// union merges two subgraphs' nodes and edges, deduping nodes by ID.
func union(a, b *types.Subgraph) *types.Subgraph {
	out := types.NewSubgraph()
	out.Roots = a.Roots
	for id, n := range a.Nodes {
		out.Nodes[id] = n
	}
	for id, n := range b.Nodes {
		out.Nodes[id] = n
	}
	out.Edges = append(out.Edges, a.Edges...)
	out.Edges = append(out.Edges, b.Edges...)
	return out
}
