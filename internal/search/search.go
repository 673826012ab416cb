// Package search is the lexical Searcher of spec §4.F: FTS5 prefix search
// with AND/OR relaxation, a substring fallback, and a deterministic
// re-ranking ladder that blends lexical match strength, a kind-based boost,
// and (on the FTS path) SQLite's bm25 score. Grounded on the teacher's
// internal/search/engine.go ranking pipeline, generalized to the codegraph
// node model and trimmed to the single-pass pipeline spec §4.F describes.
package search

import (
	"context"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/surgebase/porter2"

	"github.com/standardbeagle/codegraph/internal/store"
	"github.com/standardbeagle/codegraph/internal/types"
)

// Options narrows a Search call (spec §4.F).
type Options struct {
	Kinds           []types.Kind
	Languages       []string
	IncludePatterns []string
	ExcludePatterns []string
	Limit           int
	Offset          int
	IncludeFiles    bool
}

// Searcher runs lexical search over a Store's node set.
type Searcher struct {
	store *store.Store
}

// New returns a Searcher backed by s.
func New(s *store.Store) *Searcher {
	return &Searcher{store: s}
}

const defaultLimit = 20

// Search runs the pipeline of spec §4.F: normalize/tokenize the query, try
// an FTS5 prefix match (AND then OR relaxation), fall back to a substring
// scan when that comes up empty, then re-rank every candidate with the
// lexical/kindBoost/bm25 ladder before applying the stable tiebreak order.
func (s *Searcher) Search(ctx context.Context, query string, opts Options) ([]types.SearchResult, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	fileIntent := IsFileIntent(query)
	includeFiles := opts.IncludeFiles || fileIntent

	tokens := tokenize(query)
	fetchLimit := 5 * (limit + opts.Offset)
	if fetchLimit <= 0 {
		fetchLimit = 5 * limit
	}

	var results []types.SearchResult
	if len(tokens) > 0 {
		hits, err := s.searchFTS(ctx, tokens, fetchLimit)
		if err != nil {
			return nil, err
		}
		if len(hits) > 0 {
			results = make([]types.SearchResult, 0, len(hits))
			for _, h := range hits {
				if !s.matches(h.Node, opts, includeFiles) {
					continue
				}
				results = append(results, s.rankFTS(query, tokens, h, fileIntent))
			}
		}
	}

	if len(results) == 0 && len(strings.TrimSpace(query)) >= 2 {
		escaped := store.EscapeLike(strings.TrimSpace(query))
		nodes, err := s.store.SearchSubstring(ctx, escaped, fetchLimit)
		if err != nil {
			return nil, err
		}
		results = make([]types.SearchResult, 0, len(nodes))
		for _, n := range nodes {
			if !s.matches(n, opts, includeFiles) {
				continue
			}
			results = append(results, s.rankLike(query, tokens, n, fileIntent))
		}
	}

	sortResults(results)

	lo := opts.Offset
	if lo > len(results) {
		lo = len(results)
	}
	hi := lo + limit
	if hi > len(results) {
		hi = len(results)
	}
	return results[lo:hi], nil
}

// matches applies the kind/language/file and glob include/exclude filters
// (spec §4.F Options) to one candidate node.
func (s *Searcher) matches(n types.Node, opts Options, includeFiles bool) bool {
	if n.Kind == types.KindFile && !includeFiles {
		return false
	}
	if len(opts.Kinds) > 0 && !kindIn(opts.Kinds, n.Kind) {
		return false
	}
	if len(opts.Languages) > 0 && !stringIn(opts.Languages, n.Language) {
		return false
	}
	if len(opts.IncludePatterns) > 0 && !anyGlobMatch(opts.IncludePatterns, n.FilePath) {
		return false
	}
	if len(opts.ExcludePatterns) > 0 && anyGlobMatch(opts.ExcludePatterns, n.FilePath) {
		return false
	}
	return true
}

func kindIn(kinds []types.Kind, k types.Kind) bool {
	for _, want := range kinds {
		if want == k {
			return true
		}
	}
	return false
}

func stringIn(vals []string, v string) bool {
	for _, want := range vals {
		if strings.EqualFold(want, v) {
			return true
		}
	}
	return false
}

func anyGlobMatch(patterns []string, path string) bool {
	for _, p := range patterns {
		if ok, _ := doublestar.Match(p, path); ok {
			return true
		}
	}
	return false
}

// sortResults applies the stable tiebreak order of spec §4.F step 5: final
// desc, lexical desc, kindBoost desc, bm25 asc, name length asc.
func sortResults(results []types.SearchResult) {
	sort.SliceStable(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if a.Final != b.Final {
			return a.Final > b.Final
		}
		if a.Lexical != b.Lexical {
			return a.Lexical > b.Lexical
		}
		if a.KindBoost != b.KindBoost {
			return a.KindBoost > b.KindBoost
		}
		if a.BM25 != b.BM25 {
			return a.BM25 < b.BM25
		}
		return len(a.Node.Name) < len(b.Node.Name)
	})
}

// stem wraps porter2.Stem (spec §11 DOMAIN STACK: surgebase/porter2).
// Nothing in the Searcher calls it: tokens are ranked unstemmed.
func stem(token string) string {
	return porter2.Stem(token)
}
