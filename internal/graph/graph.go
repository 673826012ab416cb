// Package graph is the pure, read-only query layer over the Store (spec
// §4.E): bounded BFS traversal, call graph, type hierarchy, impact radius,
// shortest path, circular file dependencies, and dead-code detection. Every
// query is deterministic given the store and terminates regardless of graph
// shape via hard caps on visited-node count.
package graph

import (
	"context"

	"github.com/standardbeagle/codegraph/internal/store"
	"github.com/standardbeagle/codegraph/internal/types"
)

// maxVisited hard-caps every traversal below, the termination guarantee
// spec §4.E requires regardless of graph shape or requested limit.
const maxVisited = 50_000

// Graph wraps a Store with traversal queries. It holds no state of its own.
type Graph struct {
	store *store.Store
}

// New returns a Graph backed by s.
func New(s *store.Store) *Graph {
	return &Graph{store: s}
}

// Traverse runs a bounded BFS from start per spec §4.E: self-loops are
// skipped, revisits are pruned, and the walk halts at MaxDepth or Limit
// (whichever comes first), on top of the package-wide maxVisited cap.
func (g *Graph) Traverse(ctx context.Context, start string, opts types.TraverseOptions) (*types.Subgraph, error) {
	sub := types.NewSubgraph()
	sub.Roots = []string{start}

	startNode, ok, err := g.store.GetNodeByID(ctx, start)
	if err != nil {
		return nil, err
	}
	if !ok {
		return sub, nil
	}
	sub.Nodes[start] = startNode

	type queued struct {
		id    string
		depth int
	}
	visited := map[string]bool{start: true}
	queue := []queued{{id: start, depth: 0}}
	limit := opts.Limit
	if limit <= 0 {
		limit = maxVisited
	}
	maxDepth := opts.MaxDepth
	if maxDepth <= 0 {
		maxDepth = 1
	}

	for len(queue) > 0 && len(visited) < limit && len(visited) < maxVisited {
		cur := queue[0]
		queue = queue[1:]
		if cur.depth >= maxDepth {
			continue
		}

		edges, err := g.edgesFor(ctx, cur.id, opts.Direction, opts.EdgeKinds)
		if err != nil {
			return nil, err
		}
		for _, e := range edges {
			other := otherEnd(e, cur.id)
			if other == cur.id {
				continue // self-loop
			}
			sub.Edges = append(sub.Edges, e)
			if visited[other] {
				continue
			}
			node, ok, err := g.store.GetNodeByID(ctx, other)
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
			if len(opts.NodeKinds) > 0 && !containsKind(opts.NodeKinds, node.Kind) {
				continue
			}
			visited[other] = true
			sub.Nodes[other] = node
			if len(visited) >= limit || len(visited) >= maxVisited {
				break
			}
			queue = append(queue, queued{id: other, depth: cur.depth + 1})
		}
	}
	return sub, nil
}

// edgesFor returns the edges touching id in the requested direction,
// filtered to edgeKinds when given.
func (g *Graph) edgesFor(ctx context.Context, id string, dir types.Direction, edgeKinds []types.EdgeKind) ([]types.Edge, error) {
	var edges []types.Edge
	if dir == types.DirectionOutgoing || dir == types.DirectionBoth || dir == "" {
		out, err := g.store.GetEdgesFrom(ctx, id, edgeKinds)
		if err != nil {
			return nil, err
		}
		edges = append(edges, out...)
	}
	if dir == types.DirectionIncoming || dir == types.DirectionBoth {
		in, err := g.store.GetEdgesTo(ctx, id, edgeKinds)
		if err != nil {
			return nil, err
		}
		edges = append(edges, in...)
	}
	return edges, nil
}

func otherEnd(e types.Edge, from string) string {
	if e.Source == from {
		return e.Target
	}
	return e.Source
}

func containsKind(kinds []types.Kind, k types.Kind) bool {
	for _, want := range kinds {
		if want == k {
			return true
		}
	}
	return false
}
