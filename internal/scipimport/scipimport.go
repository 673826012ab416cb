// Package scipimport implements the external index import of spec §6: a
// JSON file of SCIP-style semantic occurrences, grouped per document, each
// carrying a symbol, a source range, and a role bitmask. Grounded on
// internal/resolver's two-pass "collect candidates, then link" shape,
// generalized from resolving textual references against an in-memory index
// to resolving ranges against nodes already in the Store.
//
// Ranges use the same 1-based line numbers as types.Node.StartLine/EndLine
// so a caller can address the same source a codegraph extraction already
// produced; columns are informational only and not used for containment.
package scipimport

import (
	"context"
	"encoding/json"
	"sort"
	"strconv"
	"time"

	"github.com/standardbeagle/codegraph/internal/cgerrors"
	"github.com/standardbeagle/codegraph/internal/store"
	"github.com/standardbeagle/codegraph/internal/types"
)

// Role bits per the symbol_roles bitmask spec §6 describes.
const (
	RoleDefinition = 1 << 0
	RoleReference  = 1 << 1
)

// provenanceSource tags every edge this package creates so a later
// Import can find and replace them (spec §6 "re-import replaces prior
// edges tagged with provenance source=\"scip\"").
const provenanceSource = "scip"

// Occurrence is one symbol occurrence within a Document.
type Occurrence struct {
	Symbol string `json:"symbol"`
	// Range is [line, startCol, endCol] for a single-line occurrence, or
	// [startLine, startCol, endLine, endCol] spanning multiple lines.
	Range       []int `json:"range"`
	SymbolRoles int   `json:"symbol_roles"`
}

// Document is one file's worth of occurrences.
type Document struct {
	RelativePath string       `json:"relativePath"`
	Occurrences  []Occurrence `json:"occurrences"`
}

// File is the on-disk import format: a flat list of documents.
type File struct {
	Documents []Document `json:"documents"`
}

// Stats summarizes one Import call; also stored as JSON under the
// project_metadata key lastExternalImportStats (spec §6 provenance fields).
type Stats struct {
	Definitions int `json:"definitions"`
	References  int `json:"references"`
	Imports     int `json:"imports"`
	Unmatched   int `json:"unmatched"`
}

// startLine returns o's first line, handling both the 3- and 4-element
// range encodings.
func (o Occurrence) startLine() (int, bool) {
	if len(o.Range) < 3 {
		return 0, false
	}
	return o.Range[0], true
}

// Import parses data as a File and runs the two-pass algorithm of spec §6
// against s: pass 1 maps every definition occurrence (role & 1) to the
// smallest node in its document containing that line; pass 2 creates a
// references or imports edge from each reference occurrence's (role & 2)
// containing node to its symbol's mapped definition, deduplicated per
// (source, target, kind) with a scipOccurrences count in edge metadata.
// sourcePath is recorded as provenance (spec §6) but is not read from disk
// here; callers read the file themselves so this package stays IO-free.
func Import(ctx context.Context, s *store.Store, sourcePath string, data []byte) (Stats, error) {
	var file File
	if err := json.Unmarshal(data, &file); err != nil {
		return Stats{}, cgerrors.NewParseError(sourcePath, 0, 0, "error", err)
	}

	if err := s.DeleteEdgesByProvenance(ctx, provenanceSource); err != nil {
		return Stats{}, err
	}

	definitions, stats, err := resolveDefinitions(ctx, s, file)
	if err != nil {
		return stats, err
	}

	edges, refStats, err := linkReferences(ctx, s, file, definitions)
	if err != nil {
		return stats, err
	}
	stats.References = refStats.References
	stats.Imports = refStats.Imports
	stats.Unmatched += refStats.Unmatched

	if err := s.InsertEdges(ctx, edges); err != nil {
		return stats, err
	}
	if err := writeProvenance(ctx, s, sourcePath, stats); err != nil {
		return stats, err
	}
	return stats, nil
}

// resolveDefinitions is pass 1: map every role&1 occurrence's symbol to the
// smallest node containing it in its document.
func resolveDefinitions(ctx context.Context, s *store.Store, file File) (map[string]string, Stats, error) {
	definitions := make(map[string]string)
	var stats Stats

	for _, doc := range file.Documents {
		nodes, err := s.GetNodesByFile(ctx, doc.RelativePath)
		if err != nil {
			return nil, stats, err
		}
		for _, occ := range doc.Occurrences {
			if occ.SymbolRoles&RoleDefinition == 0 {
				continue
			}
			line, ok := occ.startLine()
			if !ok {
				stats.Unmatched++
				continue
			}
			n, found := smallestContaining(nodes, line)
			if !found {
				stats.Unmatched++
				continue
			}
			definitions[occ.Symbol] = n.ID
			stats.Definitions++
		}
	}
	return definitions, stats, nil
}

// linkReferences is pass 2: for every role&2 occurrence, resolve its own
// containing node as the edge source and its symbol's pass-1 definition as
// the edge target, deduplicating per (source, target, kind).
func linkReferences(ctx context.Context, s *store.Store, file File, definitions map[string]string) ([]types.Edge, Stats, error) {
	type key struct{ source, target string; kind types.EdgeKind }
	counts := make(map[key]int)
	var stats Stats

	docNodes := make(map[string][]types.Node, len(file.Documents))
	for _, doc := range file.Documents {
		if _, ok := docNodes[doc.RelativePath]; ok {
			continue
		}
		nodes, err := s.GetNodesByFile(ctx, doc.RelativePath)
		if err != nil {
			return nil, stats, err
		}
		docNodes[doc.RelativePath] = nodes
	}

	for _, doc := range file.Documents {
		nodes := docNodes[doc.RelativePath]
		for _, occ := range doc.Occurrences {
			if occ.SymbolRoles&RoleReference == 0 {
				continue
			}
			target, ok := definitions[occ.Symbol]
			if !ok {
				stats.Unmatched++
				continue
			}
			line, ok := occ.startLine()
			if !ok {
				stats.Unmatched++
				continue
			}
			from, found := smallestContaining(nodes, line)
			if !found {
				stats.Unmatched++
				continue
			}
			if from.ID == target {
				continue
			}
			kind := edgeKindFor(target, docNodes)
			counts[key{from.ID, target, kind}]++
		}
	}

	edges := make([]types.Edge, 0, len(counts))
	for k, n := range counts {
		edges = append(edges, types.Edge{
			Source: k.source,
			Target: k.target,
			Kind:   k.kind,
			Metadata: map[string]any{
				"source":          provenanceSource,
				"scipOccurrences": n,
			},
		})
		switch k.kind {
		case types.EdgeImports:
			stats.Imports++
		default:
			stats.References++
		}
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].Source != edges[j].Source {
			return edges[i].Source < edges[j].Source
		}
		return edges[i].Target < edges[j].Target
	})
	return edges, stats, nil
}

// edgeKindFor classifies a reference as an import when its target is a
// whole-file node (spec §6: "creates references or imports edges") rather
// than a declaration within a file.
func edgeKindFor(targetID string, docNodes map[string][]types.Node) types.EdgeKind {
	for _, nodes := range docNodes {
		for _, n := range nodes {
			if n.ID == targetID && n.Kind == types.KindFile {
				return types.EdgeImports
			}
		}
	}
	return types.EdgeReferences
}

// smallestContaining returns the node in nodes with the narrowest
// [StartLine, EndLine] span that contains line, per spec §6's "smallest
// containing node" rule.
func smallestContaining(nodes []types.Node, line int) (types.Node, bool) {
	var best types.Node
	var bestSpan = -1
	found := false
	for _, n := range nodes {
		if line < n.StartLine || line > n.EndLine {
			continue
		}
		span := n.EndLine - n.StartLine
		if !found || span < bestSpan {
			best, bestSpan, found = n, span, true
		}
	}
	return best, found
}

func writeProvenance(ctx context.Context, s *store.Store, sourcePath string, stats Stats) error {
	statsJSON, err := json.Marshal(stats)
	if err != nil {
		return cgerrors.NewConfigError("scipimport stats", err)
	}
	if err := s.SetMetadata(ctx, "lastExternalImportPath", sourcePath); err != nil {
		return err
	}
	if err := s.SetMetadata(ctx, "lastExternalImportAt", strconv.FormatInt(nowMillis(), 10)); err != nil {
		return err
	}
	return s.SetMetadata(ctx, "lastExternalImportStats", string(statsJSON))
}

func nowMillis() int64 { return time.Now().UnixMilli() }
