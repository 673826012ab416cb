package resolver

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/cespare/xxhash/v2"

	"github.com/standardbeagle/codegraph/internal/diag"
	"github.com/standardbeagle/codegraph/internal/store"
	"github.com/standardbeagle/codegraph/internal/types"
)

// Stats tallies how a bulk resolution pass resolved its input, broken down
// by method, for status reporting (spec §4.D, §6 `status`).
type Stats struct {
	Total      int
	Resolved   int
	Unresolved int
	ByMethod   map[string]int
}

// Resolver runs the ranked strategy cascade of spec §4.D over the
// unresolved references in a Store, synthesizing and persisting edges.
type Resolver struct {
	store      *store.Store
	log        *diag.Logger
	frameworks []Framework
}

// New returns a Resolver bound to a Store. Frameworks are detected fresh on
// every ResolveAll call against that call's warmed Context, since a sync
// pass may add files belonging to a framework absent at Resolver
// construction time.
func New(s *store.Store, log *diag.Logger) *Resolver {
	return &Resolver{store: s, log: log}
}

// ResolveAll resolves every unresolved reference currently in the store,
// dispatching the work across a fixed worker pool (spec §4.D "Parallelism":
// N = CPU count - 1). Workers are pure readers over an immutable Context;
// only this driver writes resolved edges, after merging worker results and
// deleting prior edges on the same (source, kind) to keep re-resolution
// idempotent.
func (r *Resolver) ResolveAll(ctx context.Context, projectRoot string, readFile ReadFileFunc) (Stats, error) {
	refs, err := r.store.AllUnresolvedRefs(ctx)
	if err != nil {
		return Stats{}, err
	}
	rc, err := NewContext(ctx, r.store, projectRoot, readFile)
	if err != nil {
		return Stats{}, err
	}
	frameworks := DetectFrameworks(rc)
	r.frameworks = frameworks

	imports := importReferences(refs)

	workers := max(1, runtime.NumCPU()-1)
	chunks := chunk(refs, workers)

	type chunkResult struct {
		resolved   []Resolution
		unresolved []types.UnresolvedReference
		byMethod   map[string]int
	}
	results := make([]chunkResult, len(chunks))

	g, gctx := errgroup.WithContext(ctx)
	for i, c := range chunks {
		i, c := i, c
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			var cr chunkResult
			cr.byMethod = make(map[string]int)
			for _, ref := range c {
				res, ok := r.resolveOne(ref, rc, frameworks, imports)
				if !ok {
					cr.unresolved = append(cr.unresolved, ref)
					continue
				}
				cr.resolved = append(cr.resolved, res)
				cr.byMethod[res.ResolvedBy]++
			}
			results[i] = cr
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Stats{}, err
	}

	stats := Stats{Total: len(refs), ByMethod: make(map[string]int)}
	var allResolved []Resolution
	for _, cr := range results {
		allResolved = append(allResolved, cr.resolved...)
		stats.Resolved += len(cr.resolved)
		stats.Unresolved += len(cr.unresolved)
		for method, n := range cr.byMethod {
			stats.ByMethod[method] += n
		}
	}

	if err := r.persist(ctx, allResolved); err != nil {
		return stats, err
	}
	if r.log != nil {
		r.log.Phase("resolve", "resolved %d/%d references (%d unresolved)", stats.Resolved, stats.Total, stats.Unresolved)
	}
	return stats, nil
}

// resolveOne runs the strategy cascade for a single reference; first
// success wins (spec §4.D).
func (r *Resolver) resolveOne(ref types.UnresolvedReference, rc *Context, frameworks []Framework, imports []types.UnresolvedReference) (Resolution, bool) {
	if isBuiltin(ref) {
		return Resolution{}, false
	}
	if res, ok := resolveImportStatement(ref, rc); ok {
		return res, true
	}
	for _, f := range frameworks {
		if id, confidence, ok := f.Resolve(ref, rc); ok {
			return Resolution{Original: ref, TargetNodeID: id, Confidence: confidence, ResolvedBy: "framework:" + f.Name()}, true
		}
	}
	if res, ok := resolveImportBased(ref, rc, imports); ok {
		return res, true
	}
	if res, ok := resolveByName(ref, rc); ok {
		return res, true
	}
	return Resolution{}, false
}

// persist synthesizes edges from resolutions and writes them transactionally
// per source node: dedup on (source, target, kind, line, column,
// metadataJSON), and delete prior edges with the same (source, kind) first
// to make re-resolution idempotent (spec §4.D).
func (r *Resolver) persist(ctx context.Context, resolutions []Resolution) error {
	if len(resolutions) == 0 {
		return nil
	}

	bySourceKind := make(map[string][]Resolution)
	for _, res := range resolutions {
		key := res.Original.FromNodeID + "\x00" + string(res.Original.ReferenceKind)
		bySourceKind[key] = append(bySourceKind[key], res)
	}

	for key, group := range bySourceKind {
		source, kind := splitSourceKindKey(key)
		if err := r.store.DeleteEdgesBySourceKind(ctx, source, kind); err != nil {
			return err
		}

		seen := make(map[uint64]bool, len(group))
		var edges []types.Edge
		for _, res := range group {
			metadata := map[string]any{"confidence": res.Confidence, "resolvedBy": res.ResolvedBy}
			e := types.Edge{
				Source:   res.Original.FromNodeID,
				Target:   res.TargetNodeID,
				Kind:     res.Original.ReferenceKind,
				Line:     res.Original.Line,
				Column:   res.Original.Column,
				Metadata: metadata,
			}
			h := dedupKey(e)
			if seen[h] {
				continue
			}
			seen[h] = true
			edges = append(edges, e)
		}
		if err := r.store.InsertEdges(ctx, edges); err != nil {
			return err
		}
	}
	return nil
}

func splitSourceKindKey(key string) (string, types.EdgeKind) {
	for i := 0; i < len(key); i++ {
		if key[i] == 0 {
			return key[:i], types.EdgeKind(key[i+1:])
		}
	}
	return key, ""
}

// dedupKey hashes the edge's dedup identity (spec §4.D: "(source, target,
// kind, line, column, metadataJSON)") with xxhash, a fast non-cryptographic
// hash appropriate for an in-memory set key, not a security boundary.
func dedupKey(e types.Edge) uint64 {
	raw := fmt.Sprintf("%s\x00%s\x00%s\x00%d\x00%d\x00%v", e.Source, e.Target, e.Kind, e.Line, e.Column, e.Metadata)
	return xxhash.Sum64String(raw)
}

func importReferences(refs []types.UnresolvedReference) []types.UnresolvedReference {
	var out []types.UnresolvedReference
	for _, r := range refs {
		if r.ReferenceKind == types.EdgeImports {
			out = append(out, r)
		}
	}
	return out
}

func chunk(refs []types.UnresolvedReference, n int) [][]types.UnresolvedReference {
	if len(refs) == 0 {
		return nil
	}
	if n <= 0 {
		n = 1
	}
	size := (len(refs) + n - 1) / n
	if size == 0 {
		size = 1
	}
	var chunks [][]types.UnresolvedReference
	for i := 0; i < len(refs); i += size {
		end := i + size
		if end > len(refs) {
			end = len(refs)
		}
		chunks = append(chunks, refs[i:end])
	}
	return chunks
}
