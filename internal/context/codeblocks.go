package contextbuilder

import (
	"strings"

	"github.com/standardbeagle/codegraph/internal/types"
)

const truncationMarker = "\n… truncated …"

// extractCodeBlocks reads source excerpts for up to opts.MaxCodeBlocks
// nodes, prioritizing entry points, then functions/methods, then classes
// (spec §4.H step 6). Blocks longer than MaxCodeBlockSize are truncated
// with a marker.
func (b *Builder) extractCodeBlocks(sub *types.Subgraph, entryPoints []scored, opts Options) []types.CodeBlock {
	ordered := orderForExtraction(sub, entryPoints)

	blocks := make([]types.CodeBlock, 0, opts.MaxCodeBlocks)
	seen := make(map[string]bool, opts.MaxCodeBlocks)
	for _, n := range ordered {
		if len(blocks) >= opts.MaxCodeBlocks {
			break
		}
		if seen[n.ID] || n.FilePath == "" || n.StartLine == 0 {
			continue
		}
		seen[n.ID] = true

		block, ok := b.readCodeBlock(n, opts.MaxCodeBlockSize)
		if !ok {
			continue
		}
		blocks = append(blocks, block)
	}
	return blocks
}

// orderForExtraction lists entry points first, then the remaining nodes by
// function/method before class/interface/struct before everything else,
// each group in stable ID order.
func orderForExtraction(sub *types.Subgraph, entryPoints []scored) []types.Node {
	ordered := make([]types.Node, 0, len(sub.Nodes))
	taken := make(map[string]bool, len(sub.Nodes))

	for _, c := range entryPoints {
		if n, ok := sub.Nodes[c.node.ID]; ok && !taken[n.ID] {
			ordered = append(ordered, n)
			taken[n.ID] = true
		}
	}

	rest := make([]types.Node, 0, len(sub.Nodes))
	for _, n := range sub.Nodes {
		if !taken[n.ID] {
			rest = append(rest, n)
		}
	}
	sortByExtractionPriority(rest)
	return append(ordered, rest...)
}

func sortByExtractionPriority(nodes []types.Node) {
	rank := func(k types.Kind) int {
		switch k {
		case types.KindFunction, types.KindMethod:
			return 0
		case types.KindClass, types.KindInterface, types.KindStruct:
			return 1
		default:
			return 2
		}
	}
	less := func(a, b types.Node) bool {
		if rank(a.Kind) != rank(b.Kind) {
			return rank(a.Kind) < rank(b.Kind)
		}
		return a.ID < b.ID
	}
	// Simple stable insertion sort: extraction lists are small (bounded by
	// MaxNodes), so this stays well under the cost of pulling in sort for
	// a three-bucket ordering.
	for i := 1; i < len(nodes); i++ {
		j := i
		for j > 0 && less(nodes[j], nodes[j-1]) {
			nodes[j-1], nodes[j] = nodes[j], nodes[j-1]
			j--
		}
	}
}

func (b *Builder) readCodeBlock(n types.Node, maxSize int) (types.CodeBlock, bool) {
	if b.readFile == nil {
		return types.CodeBlock{}, false
	}
	content, err := b.readFile(n.FilePath)
	if err != nil {
		return types.CodeBlock{}, false
	}
	lines := strings.Split(string(content), "\n")
	start := n.StartLine
	end := n.EndLine
	if end < start {
		end = start
	}
	if start < 1 || start > len(lines) {
		return types.CodeBlock{}, false
	}
	if end > len(lines) {
		end = len(lines)
	}

	code := strings.Join(lines[start-1:end], "\n")
	truncated := false
	if len(code) > maxSize {
		code = code[:maxSize] + truncationMarker
		truncated = true
	}

	return types.CodeBlock{
		NodeID:    n.ID,
		FilePath:  n.FilePath,
		StartLine: start,
		EndLine:   end,
		Code:      code,
		Truncated: truncated,
	}, true
}
