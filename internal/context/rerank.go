package contextbuilder

import (
	"sort"
	"strings"

	"github.com/standardbeagle/codegraph/internal/types"
)

// scored pairs a candidate node with the score it was ranked by, whichever
// stage produced it (semantic similarity, lexical final score, or the
// re-rank blend below).
type scored struct {
	node  types.Node
	score float64
}

// entryKindBias favors functions/methods as context roots (spec §4.H step
// 3 "a kind bias"): functions/methods, then components/routes, then
// classes/interfaces/structs, then every other kind, with files last.
func entryKindBias(k types.Kind) float64 {
	switch k {
	case types.KindFunction, types.KindMethod:
		return 1.0
	case types.KindComponent, types.KindRoute:
		return 0.8
	case types.KindClass, types.KindInterface, types.KindStruct:
		return 0.6
	case types.KindFile:
		return 0.3
	default:
		return 0.5
	}
}

// rerank blends each candidate's incoming score with a second lexical
// signal (fraction of task tokens it matches by name) and a kind bias, then
// keeps the top `limit` as entry points (spec §4.H step 3).
func rerank(task string, candidates []scored, limit int) []scored {
	tokens := taskTokens(task)
	ranked := make([]scored, len(candidates))
	copy(ranked, candidates)

	for i, c := range ranked {
		lexical := tokenOverlap(tokens, c.node.Name)
		bias := entryKindBias(c.node.Kind)
		ranked[i].score = 0.6*c.score + 0.25*lexical + 0.15*bias
	}

	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })
	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

func tokenOverlap(tokens []string, name string) float64 {
	if len(tokens) == 0 {
		return 0
	}
	lower := strings.ToLower(name)
	matched := 0
	for _, t := range tokens {
		if strings.Contains(lower, t) {
			matched++
		}
	}
	return float64(matched) / float64(len(tokens))
}
