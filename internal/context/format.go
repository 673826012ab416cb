package contextbuilder

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/standardbeagle/codegraph/internal/types"
)

// Render renders tc per opts.Format: compact markdown by default, a raw
// JSON document, or the *types.TaskContext object itself (spec §4.H step
// 7). Object is returned as the *types.TaskContext unchanged.
func Render(tc *types.TaskContext, format Format) (any, error) {
	switch format {
	case FormatJSON:
		data, err := json.MarshalIndent(tc, "", "  ")
		if err != nil {
			return nil, err
		}
		return string(data), nil
	case FormatObject:
		return tc, nil
	default:
		return RenderMarkdown(tc), nil
	}
}

// RenderMarkdown is the default compact rendering (spec §4.H step 7, §4.J
// "compact Markdown by default").
func RenderMarkdown(tc *types.TaskContext) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## %s\n\n", tc.Summary)

	if tc.InferredFilter.Kind != "" || tc.InferredFilter.Language != "" || tc.InferredFilter.PathHint != "" {
		b.WriteString("_Inferred scope: ")
		var parts []string
		if tc.InferredFilter.Kind != "" {
			parts = append(parts, "kind="+string(tc.InferredFilter.Kind))
		}
		if tc.InferredFilter.Language != "" {
			parts = append(parts, "language="+tc.InferredFilter.Language)
		}
		if tc.InferredFilter.PathHint != "" {
			parts = append(parts, "pathHint="+tc.InferredFilter.PathHint)
		}
		b.WriteString(strings.Join(parts, ", "))
		b.WriteString("_\n\n")
	}

	if len(tc.Subgraph.Roots) > 0 {
		b.WriteString("### Entry points\n")
		for _, id := range tc.Subgraph.Roots {
			if n, ok := tc.Subgraph.Nodes[id]; ok {
				fmt.Fprintf(&b, "- `%s` (%s) — %s:%d\n", n.Name, n.Kind, n.FilePath, n.StartLine)
			}
		}
		b.WriteString("\n")
	}

	if len(tc.CodeBlocks) > 0 {
		b.WriteString("### Code\n")
		for _, block := range tc.CodeBlocks {
			fmt.Fprintf(&b, "\n**%s:%d-%d**\n```\n%s\n```\n", block.FilePath, block.StartLine, block.EndLine, block.Code)
			if block.Truncated {
				b.WriteString("_(truncated)_\n")
			}
		}
		b.WriteString("\n")
	}

	b.WriteString("### Related nodes\n")
	for _, n := range sortedNodes(tc.Subgraph.Nodes) {
		fmt.Fprintf(&b, "- `%s` (%s) — %s:%d\n", n.Name, n.Kind, n.FilePath, n.StartLine)
	}

	return b.String()
}

func sortedNodes(nodes map[string]types.Node) []types.Node {
	out := make([]types.Node, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].FilePath != out[j].FilePath {
			return out[i].FilePath < out[j].FilePath
		}
		return out[i].StartLine < out[j].StartLine
	})
	return out
}
