// Package vectors is the optional semantic layer of spec §4.G: an Embedder
// turns node text into fixed-length vectors, an ANN index over
// github.com/coder/hnsw answers `search`/`findSimilar` top-k queries, and a
// brute-force cosine fallback covers graphs too small to benefit from an
// index. Grounded on the teacher corpus's HNSW wrapper
// (Aman-CERP-amanmcp's internal/store/hnsw.go), generalized from a generic
// string-keyed vector store to the codegraph Node/Vector model and trimmed
// to the read/write shape the Vectors component needs.
package vectors

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/coder/hnsw"

	"github.com/standardbeagle/codegraph/internal/cgerrors"
	"github.com/standardbeagle/codegraph/internal/store"
	"github.com/standardbeagle/codegraph/internal/types"
)

var (
	errNoEmbedder = errors.New("no embedder configured")
	errNoVector   = errors.New("node has no stored vector")
)

// Embedder is the opaque embedding capability spec §4.G requires: given
// text, produce a fixed-length float vector. Dimension reports that fixed
// length. ModelID identifies the embedding model for the stored mapping.
// Close releases any resources (model handles, client connections) the
// embedder holds; the Vectors component calls it once on shutdown.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimension() int
	ModelID() string
	Close() error
}

// embeddableKinds is the default inclusion rule of spec §4.G: nodes whose
// kind typically carries a meaningful docstring or signature.
var embeddableKinds = map[types.Kind]bool{
	types.KindFunction:  true,
	types.KindMethod:    true,
	types.KindClass:     true,
	types.KindStruct:    true,
	types.KindInterface: true,
	types.KindTrait:     true,
	types.KindProtocol:  true,
	types.KindRoute:     true,
	types.KindComponent: true,
}

// Embeddable reports whether n is a candidate for embedding under the
// default rule: an embeddable kind with a non-empty docstring or signature.
func Embeddable(n types.Node) bool {
	if !embeddableKinds[n.Kind] {
		return false
	}
	return strings.TrimSpace(n.Docstring) != "" || strings.TrimSpace(n.Signature) != ""
}

// embeddingSourceLines caps how much of a node's raw source feeds its
// embedding text (spec §4.G step "first N lines of source if available").
const embeddingSourceLines = 20

// BuildText assembles the compact embedding text for a node (spec §4.G):
// name, qualifiedName, kind, signature, docstring, and the first N lines of
// source when readFile can supply it.
func BuildText(n types.Node, readFile func(path string) ([]byte, error)) string {
	var b strings.Builder
	b.WriteString(n.Name)
	b.WriteByte('\n')
	if n.QualifiedName != "" {
		b.WriteString(n.QualifiedName)
		b.WriteByte('\n')
	}
	b.WriteString(string(n.Kind))
	b.WriteByte('\n')
	if n.Signature != "" {
		b.WriteString(n.Signature)
		b.WriteByte('\n')
	}
	if n.Docstring != "" {
		b.WriteString(n.Docstring)
		b.WriteByte('\n')
	}
	if readFile == nil {
		return b.String()
	}
	content, err := readFile(n.FilePath)
	if err != nil {
		return b.String()
	}
	b.WriteString(sourceExcerpt(content, n.StartLine, embeddingSourceLines))
	return b.String()
}

func sourceExcerpt(content []byte, startLine, maxLines int) string {
	lines := strings.Split(string(content), "\n")
	if startLine < 1 || startLine > len(lines) {
		return ""
	}
	end := startLine - 1 + maxLines
	if end > len(lines) {
		end = len(lines)
	}
	return strings.Join(lines[startLine-1:end], "\n")
}

// Result is one ranked hit from Search or FindSimilar.
type Result struct {
	NodeID string
	Score  float64
}

// SearchOptions narrows a semantic Search call (spec §4.G).
type SearchOptions struct {
	Limit int
	Kinds []types.Kind
}

const defaultSearchLimit = 10

// annThreshold is the node count above which Vectors prefers the HNSW
// index over a brute-force scan; below it the scan is both simpler and, at
// these sizes, not meaningfully slower.
const annThreshold = 500

// Vectors is the embedding lifecycle and search surface of spec §4.G. It is
// always safe to construct with a nil Embedder: EmbedNode/Search then
// report cgerrors.VectorError and the rest of the system continues to work
// off lexical search alone (spec §4.G "the Vectors component is optional").
type Vectors struct {
	mu       sync.RWMutex
	store    *store.Store
	embedder Embedder

	graph   *hnsw.Graph[uint64]
	idMap   map[string]uint64
	keyMap  map[uint64]string
	nextKey uint64
	kindOf  map[string]types.Kind
	vecOf   map[string][]float32
}

// New builds a Vectors component over s. embedder may be nil, in which case
// EmbedNode and Search return cgerrors.VectorError until one is set;
// FindSimilar reads stored vectors and does not use the embedder.
func New(s *store.Store, embedder Embedder) *Vectors {
	graph := hnsw.NewGraph[uint64]()
	graph.Distance = hnsw.CosineDistance
	return &Vectors{
		store:    s,
		embedder: embedder,
		graph:    graph,
		idMap:    make(map[string]uint64),
		keyMap:   make(map[uint64]string),
		kindOf:   make(map[string]types.Kind),
		vecOf:    make(map[string][]float32),
	}
}

// SetEmbedder swaps the active embedder, closing the previous one if set.
func (v *Vectors) SetEmbedder(e Embedder) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.embedder != nil {
		if err := v.embedder.Close(); err != nil {
			return err
		}
	}
	v.embedder = e
	return nil
}

// Close releases the embedder, if any.
func (v *Vectors) Close() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.embedder == nil {
		return nil
	}
	err := v.embedder.Close()
	v.embedder = nil
	return err
}

// Warm loads every persisted vector from the store into the in-memory ANN
// index, so Search/FindSimilar work immediately after a process restart
// without re-embedding anything.
func (v *Vectors) Warm(ctx context.Context) error {
	all, err := v.store.AllVectors(ctx)
	if err != nil {
		return err
	}
	nodesByID := make(map[string]types.Node, len(all))
	for _, vec := range all {
		n, ok, err := v.store.GetNodeByID(ctx, vec.NodeID)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		nodesByID[vec.NodeID] = n
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	for _, vec := range all {
		v.insertLocked(vec.NodeID, vec.Values, nodesByID[vec.NodeID].Kind)
	}
	return nil
}

// EmbedNode embeds and persists a vector for n, skipping nodes that fail
// the Embeddable inclusion rule. readFile supplies the node's source file
// for the embedding-text source excerpt; it may be nil.
func (v *Vectors) EmbedNode(ctx context.Context, n types.Node, readFile func(string) ([]byte, error)) error {
	v.mu.RLock()
	embedder := v.embedder
	v.mu.RUnlock()
	if embedder == nil {
		return cgerrors.NewVectorError("embed", fmt.Errorf("node %s: %w", n.ID, errNoEmbedder))
	}
	if !Embeddable(n) {
		return nil
	}

	text := BuildText(n, readFile)
	values, err := embedder.Embed(ctx, text)
	if err != nil {
		return cgerrors.NewVectorError("embed", fmt.Errorf("node %s: %w", n.ID, err))
	}

	vec := types.Vector{NodeID: n.ID, Dimension: embedder.Dimension(), ModelID: embedder.ModelID(), Values: values}
	if err := v.store.InsertVectors(ctx, []types.Vector{vec}); err != nil {
		return err
	}

	v.mu.Lock()
	v.insertLocked(n.ID, values, n.Kind)
	v.mu.Unlock()
	return nil
}

// insertLocked adds/replaces nodeID's vector under the write lock. Stale
// HNSW entries are orphaned rather than deleted in place: coder/hnsw's
// Delete can corrupt the graph when removing its last remaining node, the
// same hazard the teacher's HNSW wrapper works around with lazy deletion.
func (v *Vectors) insertLocked(nodeID string, values []float32, kind types.Kind) {
	if existing, ok := v.idMap[nodeID]; ok {
		delete(v.keyMap, existing)
	}
	key := v.nextKey
	v.nextKey++
	normalized := normalize(values)
	v.graph.Add(hnsw.MakeNode(key, normalized))
	v.idMap[nodeID] = key
	v.keyMap[key] = nodeID
	v.kindOf[nodeID] = kind
	v.vecOf[nodeID] = normalized
}

// Invalidate drops nodeID's vector (spec §3 "vectors are... invalidated
// when the owning node disappears").
func (v *Vectors) Invalidate(ctx context.Context, nodeID string) error {
	v.mu.Lock()
	if key, ok := v.idMap[nodeID]; ok {
		delete(v.keyMap, key)
		delete(v.idMap, nodeID)
		delete(v.kindOf, nodeID)
		delete(v.vecOf, nodeID)
	}
	v.mu.Unlock()
	return v.store.DeleteVector(ctx, nodeID)
}

// Search embeds queryText and returns its ANN (or brute-force, below
// annThreshold) nearest neighbors, optionally filtered to Kinds.
func (v *Vectors) Search(ctx context.Context, queryText string, opts SearchOptions) ([]Result, error) {
	v.mu.RLock()
	embedder := v.embedder
	v.mu.RUnlock()
	if embedder == nil {
		return nil, cgerrors.NewVectorError("search", errNoEmbedder)
	}
	query, err := embedder.Embed(ctx, queryText)
	if err != nil {
		return nil, cgerrors.NewVectorError("search", err)
	}
	return v.searchVector(query, opts)
}

// FindSimilar returns the nearest neighbors of an already-embedded node,
// excluding the node itself.
func (v *Vectors) FindSimilar(ctx context.Context, nodeID string, limit int) ([]Result, error) {
	all, err := v.store.AllVectors(ctx)
	if err != nil {
		return nil, err
	}
	var target *types.Vector
	for i := range all {
		if all[i].NodeID == nodeID {
			target = &all[i]
			break
		}
	}
	if target == nil {
		return nil, cgerrors.NewVectorError("findSimilar", fmt.Errorf("node %s: %w", nodeID, errNoVector))
	}
	results, err := v.searchVector(target.Values, SearchOptions{Limit: limit + 1})
	if err != nil {
		return nil, err
	}
	filtered := results[:0]
	for _, r := range results {
		if r.NodeID == nodeID {
			continue
		}
		filtered = append(filtered, r)
	}
	if limit > 0 && len(filtered) > limit {
		filtered = filtered[:limit]
	}
	return filtered, nil
}

func (v *Vectors) searchVector(query []float32, opts SearchOptions) ([]Result, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	normalized := normalize(query)

	v.mu.RLock()
	defer v.mu.RUnlock()

	if len(v.idMap) == 0 {
		return nil, nil
	}
	if len(v.idMap) >= annThreshold {
		return v.searchANNLocked(normalized, opts, limit)
	}
	return v.searchBruteForceLocked(normalized, opts, limit)
}

func (v *Vectors) searchANNLocked(query []float32, opts SearchOptions, limit int) ([]Result, error) {
	k := limit
	if len(opts.Kinds) > 0 {
		k = limit * 4 // over-fetch so post-filtering by kind still fills limit
	}
	nodes := v.graph.Search(query, k)
	results := make([]Result, 0, len(nodes))
	for _, node := range nodes {
		id, ok := v.keyMap[node.Key]
		if !ok {
			continue
		}
		if len(opts.Kinds) > 0 && !kindIn(opts.Kinds, v.kindOf[id]) {
			continue
		}
		score := cosineSimilarity(query, node.Value)
		results = append(results, Result{NodeID: id, Score: score})
		if len(results) >= limit {
			break
		}
	}
	return results, nil
}

func (v *Vectors) searchBruteForceLocked(query []float32, opts SearchOptions, limit int) ([]Result, error) {
	results := make([]Result, 0, len(v.idMap))
	for id := range v.idMap {
		if len(opts.Kinds) > 0 && !kindIn(opts.Kinds, v.kindOf[id]) {
			continue
		}
		results = append(results, Result{NodeID: id, Score: cosineSimilarity(query, v.vecOf[id])})
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

func kindIn(kinds []types.Kind, k types.Kind) bool {
	for _, want := range kinds {
		if want == k {
			return true
		}
	}
	return false
}

func normalize(values []float32) []float32 {
	out := make([]float32, len(values))
	copy(out, values)
	var sumSquares float64
	for _, val := range out {
		sumSquares += float64(val) * float64(val)
	}
	if sumSquares == 0 {
		return out
	}
	inv := float32(1.0 / math.Sqrt(sumSquares))
	for i := range out {
		out[i] *= inv
	}
	return out
}

func cosineSimilarity(a, b []float32) float64 {
	var dot float64
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot
}

