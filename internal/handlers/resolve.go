package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/standardbeagle/codegraph/internal/cgerrors"
	"github.com/standardbeagle/codegraph/internal/search"
	"github.com/standardbeagle/codegraph/internal/types"
)

// exactMarginThreshold and fuzzyMarginThreshold are the auto-pick margins of
// spec §4.J: a candidate wins outright only when it beats the runner-up by
// this much. Exact name matches get the higher bar: the lexical ladder
// already scores them at (or near) 1.0, so a near-tie between two exact
// matches is a genuine ambiguity.
const (
	exactMarginThreshold = 0.3
	fuzzyMarginThreshold = 0.2
)

// Ambiguous is returned by ResolveSymbol when no single candidate clears
// the auto-pick margin (spec §4.J): a structured report of the top
// candidates and concrete disambiguating retries.
type Ambiguous struct {
	Symbol           string
	Candidates       []types.SearchResult
	SuggestedRetries []string
}

// ResolveSymbol maps {symbol, kind?, pathHint?} to a unique node via lexical
// search with filtering (spec §4.J). It auto-picks a winner only when the
// top score exceeds the runner-up by exactMarginThreshold (exact name
// match) or fuzzyMarginThreshold (otherwise); when no candidate qualifies,
// or the store has nothing matching at all, it returns an *Ambiguous value
// (not an error) or a cgerrors.RequestError when there are zero candidates.
func (h *Handlers) ResolveSymbol(ctx context.Context, q SymbolQuery) (*types.Node, *Ambiguous, error) {
	opts := search.Options{Limit: limitOr(q.Limit, defaultNodeLimit)}
	if q.Kind != "" {
		opts.Kinds = []types.Kind{types.Kind(q.Kind)}
	}
	if q.Language != "" {
		opts.Languages = []string{q.Language}
	}
	if q.PathHint != "" {
		opts.IncludePatterns = []string{"**/" + q.PathHint + "**"}
	}

	results, err := h.Searcher.Search(ctx, q.Symbol, opts)
	if err != nil {
		return nil, nil, err
	}
	if len(results) == 0 {
		return nil, nil, cgerrors.NewRequestError("resolveSymbol",
			fmt.Sprintf("no node found for symbol %q", q.Symbol),
			fmt.Sprintf("search({query: %q, includeFiles: true})", q.Symbol))
	}
	if len(results) == 1 {
		return &results[0].Node, nil, nil
	}

	top, runnerUp := results[0], results[1]
	threshold := fuzzyMarginThreshold
	if isExactNameMatch(q.Symbol, top.Node) {
		threshold = exactMarginThreshold
	}
	if top.Final-runnerUp.Final >= threshold {
		return &top.Node, nil, nil
	}

	candidates := results
	if len(candidates) > 5 {
		candidates = candidates[:5]
	}
	return nil, &Ambiguous{
		Symbol:           q.Symbol,
		Candidates:       candidates,
		SuggestedRetries: suggestRetries(q.Symbol, candidates),
	}, nil
}

func isExactNameMatch(symbol string, n types.Node) bool {
	return strings.EqualFold(symbol, n.Name) || strings.EqualFold(symbol, n.QualifiedName)
}

// suggestRetries proposes one concrete, executable disambiguator per
// candidate: a pathHint drawn from its file location (spec §4.J, §7 "a list
// of suggested retries that are concrete, executable tool calls").
func suggestRetries(symbol string, candidates []types.SearchResult) []string {
	seen := make(map[string]bool, len(candidates))
	retries := make([]string, 0, len(candidates))
	for _, c := range candidates {
		dir := parentDir(c.Node.FilePath)
		if dir == "" || seen[dir] {
			continue
		}
		seen[dir] = true
		retries = append(retries, fmt.Sprintf("node({symbol: %q, pathHint: %q})", symbol, dir))
	}
	return retries
}

func parentDir(path string) string {
	idx := strings.LastIndexByte(path, '/')
	if idx < 0 {
		return ""
	}
	return path[:idx]
}
