package search

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/standardbeagle/codegraph/internal/store"
)

// stopWords is the small English stop-word set of spec §4.F step 1.
var stopWords = map[string]bool{
	"a": true, "an": true, "the": true, "of": true, "in": true, "on": true,
	"to": true, "for": true, "and": true, "or": true, "is": true, "are": true,
	"it": true, "with": true, "by": true, "at": true, "as": true, "be": true,
}

// tokenize lower-cases the query, splits on word boundaries, drops
// stop-words and tokens shorter than 2 characters, and de-duplicates while
// preserving first-seen order (spec §4.F step 1).
func tokenize(query string) []string {
	lower := strings.ToLower(query)
	fields := strings.FieldsFunc(lower, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	seen := make(map[string]bool, len(fields))
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if len(f) < 2 || stopWords[f] || seen[f] {
			continue
		}
		seen[f] = true
		tokens = append(tokens, f)
	}
	return tokens
}

// searchFTS runs the FTS5 prefix pass (spec §4.F step 2): an AND of
// prefix terms first, relaxed to OR if that returns nothing.
func (s *Searcher) searchFTS(ctx context.Context, tokens []string, limit int) ([]store.FTSHit, error) {
	andExpr := ftsExpr(tokens, " AND ")
	hits, err := s.store.SearchFTS(ctx, andExpr, limit)
	if err != nil {
		return nil, err
	}
	if len(hits) > 0 || len(tokens) == 1 {
		return hits, nil
	}
	orExpr := ftsExpr(tokens, " OR ")
	return s.store.SearchFTS(ctx, orExpr, limit)
}

// ftsExpr builds an FTS5 MATCH expression of prefix terms ("token"*)
// joined by the given boolean operator.
func ftsExpr(tokens []string, op string) string {
	terms := make([]string, len(tokens))
	for i, t := range tokens {
		terms[i] = fmt.Sprintf("%q*", t)
	}
	return strings.Join(terms, op)
}
