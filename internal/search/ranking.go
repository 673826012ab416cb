package search

import (
	"math"
	"path/filepath"
	"strings"

	"github.com/standardbeagle/codegraph/internal/store"
	"github.com/standardbeagle/codegraph/internal/types"
)

// rankFTS re-ranks one FTS5 hit per spec §4.F step 4, FTS weighting:
// final = 0.55*lexical + 0.25*kindBoost + 0.20*bm25Norm.
func (s *Searcher) rankFTS(query string, tokens []string, hit store.FTSHit, fileIntent bool) types.SearchResult {
	lexical := lexicalScore(query, tokens, hit.Node)
	kindBoost := kindBoostFor(hit.Node.Kind, fileIntent)
	bm25Norm := 1 / (1 + math.Abs(hit.BM25))
	final := 0.55*lexical + 0.25*kindBoost + 0.20*bm25Norm
	return types.SearchResult{Node: hit.Node, Final: final, Lexical: lexical, KindBoost: kindBoost, BM25: hit.BM25, MatchedVia: "fts"}
}

// rankLike re-ranks one substring-fallback hit per spec §4.F step 4, LIKE
// weighting: final = 0.80*lexical + 0.20*kindBoost. There is no bm25 score
// on this path, so BM25 is left at 0 (in the tiebreak it ranks ahead of
// only name length).
func (s *Searcher) rankLike(query string, tokens []string, n types.Node, fileIntent bool) types.SearchResult {
	lexical := lexicalScore(query, tokens, n)
	kindBoost := kindBoostFor(n.Kind, fileIntent)
	final := 0.80*lexical + 0.20*kindBoost
	return types.SearchResult{Node: n, Final: final, Lexical: lexical, KindBoost: kindBoost, MatchedVia: "substring"}
}

// lexicalScore implements the §4.F step 4 ladder. A query that exactly
// equals the node's name (case-insensitively) scores 1.0 outright;
// otherwise each token is scored against the ladder and combined as
// mean(matched-term scores)*0.75 + coverage*0.25.
func lexicalScore(query string, tokens []string, n types.Node) float64 {
	q := strings.ToLower(strings.TrimSpace(query))
	name := strings.ToLower(n.Name)
	if q != "" && q == name {
		return 1.0
	}
	if len(tokens) == 0 {
		return 0.2
	}

	qualified := strings.ToLower(n.QualifiedName)
	base := strings.ToLower(filepath.Base(n.FilePath))
	segments := pathSegments(n.FilePath)

	var sum, matchedSum float64
	matched := 0
	for _, t := range tokens {
		score := termLadder(t, name, base, qualified, segments)
		sum += score
		if score > 0.2 {
			matched++
			matchedSum += score
		}
	}
	// With no matched term, every term sits at the ladder's 0.2 floor.
	mean := sum / float64(len(tokens))
	if matched > 0 {
		mean = matchedSum / float64(matched)
	}
	coverage := float64(matched) / float64(len(tokens))
	return mean*0.75 + coverage*0.25
}

// termLadder scores one normalized token against a node's name, file base
// name, qualified name and path segments (spec §4.F step 4 ladder, in
// descending-confidence order).
func termLadder(token, name, fileBase, qualified string, segments []string) float64 {
	switch {
	case token == name || token == fileBase:
		return 1.0
	case strings.HasPrefix(name, token) || strings.HasPrefix(fileBase, token):
		return 0.92
	case strings.Contains(name, token) || strings.Contains(fileBase, token):
		return 0.85
	case segmentMatch(segments, token):
		return 0.82
	case strings.Contains(qualified, token):
		return 0.7
	default:
		return 0.2
	}
}

func pathSegments(path string) []string {
	clean := strings.Trim(filepath.ToSlash(path), "/")
	if clean == "" {
		return nil
	}
	return strings.Split(clean, "/")
}

func segmentMatch(segments []string, token string) bool {
	for _, seg := range segments {
		if strings.EqualFold(seg, token) || strings.Contains(strings.ToLower(seg), token) {
			return true
		}
	}
	return false
}

// kindBoostFor orders node kinds functions/methods > components > types >
// modules > files, with file nodes boosted only under file-intent (spec
// §4.F step 4 kindBoost).
func kindBoostFor(k types.Kind, fileIntent bool) float64 {
	switch k {
	case types.KindFunction, types.KindMethod:
		return 1.0
	case types.KindComponent, types.KindRoute:
		return 0.85
	case types.KindClass, types.KindInterface, types.KindStruct, types.KindEnum,
		types.KindTrait, types.KindProtocol, types.KindTypeAlias:
		return 0.7
	case types.KindModule, types.KindNamespace:
		return 0.55
	case types.KindFile:
		if fileIntent {
			return 0.9
		}
		return 0.1
	default:
		return 0.4
	}
}
