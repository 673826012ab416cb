package contextbuilder

import (
	"context"
	"path"
	"strings"

	"github.com/standardbeagle/codegraph/internal/search"
	"github.com/standardbeagle/codegraph/internal/types"
)

// exploratoryWords signal a broad, open-ended task (spec §4.H step 1
// "detect exploratory vs focused intent"); their presence skips the
// kind='function' narrowing a focused task gets.
var exploratoryWords = map[string]bool{
	"understand": true, "explore": true, "overview": true, "how": true,
	"architecture": true, "explain": true, "learn": true, "review": true,
}

// generatedDirs are disfavored when scoring a pathHint unless the task
// names them explicitly (spec §4.H step 1), mirroring config.Default's
// exclude list for directories that are never where hand-written logic
// lives.
var generatedDirs = map[string]bool{
	"node_modules": true, "vendor": true, "dist": true, "build": true,
	"out": true, "target": true, "bin": true, "obj": true,
	"__pycache__": true, ".venv": true, ".git": true, ".codegraph": true,
}

// inferScope builds the AutoScope spec §4.H step 1 describes: exploratory
// detection, a preferred language from the project's node mix, and a
// pathHint scored from directory segments the top lexical hits and the
// task tokens have in common.
func (b *Builder) inferScope(ctx context.Context, task string, opts Options) types.AutoScope {
	scope := types.AutoScope{Language: opts.Language, PathHint: opts.PathHint}

	tokens := taskTokens(task)
	scope.Exploratory = isExploratory(tokens)

	if scope.Language == "" {
		scope.Language = b.dominantLanguage(ctx)
	}

	if scope.PathHint == "" {
		scope.PathHint = b.inferPathHint(ctx, task, tokens)
	}

	if opts.Kind != "" {
		scope.Kind = opts.Kind
	} else if !scope.Exploratory {
		scope.Kind = types.KindFunction
	}
	return scope
}

func taskTokens(task string) []string {
	fields := strings.FieldsFunc(strings.ToLower(task), func(r rune) bool {
		return !('a' <= r && r <= 'z') && !('0' <= r && r <= '9')
	})
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if len(f) >= 2 {
			out = append(out, f)
		}
	}
	return out
}

func isExploratory(tokens []string) bool {
	for _, t := range tokens {
		if exploratoryWords[t] {
			return true
		}
	}
	return false
}

// dominantLanguage returns the most frequent Language value across all
// indexed nodes, or "" if the store is empty.
func (b *Builder) dominantLanguage(ctx context.Context) string {
	nodes, err := b.store.AllNodes(ctx)
	if err != nil || len(nodes) == 0 {
		return ""
	}
	counts := make(map[string]int)
	for _, n := range nodes {
		if n.Language != "" {
			counts[n.Language]++
		}
	}
	best, bestCount := "", 0
	for lang, count := range counts {
		if count > bestCount {
			best, bestCount = lang, count
		}
	}
	return best
}

// inferPathHint runs a cheap lexical search for the raw task string, then
// scores directory segments of the hits by how many task tokens they share,
// disfavoring generated/vendor/build directories unless a task token names
// them outright.
func (b *Builder) inferPathHint(ctx context.Context, task string, tokens []string) string {
	results, err := b.searcher.Search(ctx, task, search.Options{Limit: 15, IncludeFiles: true})
	if err != nil || len(results) == 0 {
		return ""
	}

	tokenSet := make(map[string]bool, len(tokens))
	for _, t := range tokens {
		tokenSet[t] = true
	}

	scores := make(map[string]int)
	for _, r := range results {
		dir := path.Dir(r.Node.FilePath)
		for _, seg := range strings.Split(dir, "/") {
			seg = strings.ToLower(seg)
			if seg == "" || seg == "." {
				continue
			}
			if generatedDirs[seg] && !tokenSet[seg] {
				continue
			}
			if tokenSet[seg] {
				scores[seg] += 2
			} else {
				scores[seg]++
			}
		}
	}

	best, bestScore := "", 0
	for seg, score := range scores {
		if score > bestScore {
			best, bestScore = seg, score
		}
	}
	return best
}
