// Package extractor walks a source file's AST (via tree-sitter) and emits
// graph nodes, containment edges, and unresolved references (spec §4.B).
package extractor

import (
	"sort"
	"strings"
	"sync"
	"unicode"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/standardbeagle/codegraph/internal/idgen"
	"github.com/standardbeagle/codegraph/internal/langconf"
	"github.com/standardbeagle/codegraph/internal/types"
)

// Result is everything extracted from a single file.
type Result struct {
	Nodes      []types.Node
	Edges      []types.Edge
	Unresolved []types.UnresolvedReference
	Errors     []types.FileError
}

// Extractor drives per-language parsing. It is safe for concurrent use: it
// lazily builds and caches a parser per language, and both that setup and
// every Parse call on the shared parser are guarded by a mutex,
// mirroring the teacher's pooled-parser approach without its zero-alloc
// StringRef machinery.
type Extractor struct {
	mu      sync.Mutex
	parsers map[string]*tree_sitter.Parser
	queries map[string]*tree_sitter.Query
}

// New returns an Extractor with no parsers yet constructed.
func New() *Extractor {
	return &Extractor{parsers: make(map[string]*tree_sitter.Parser)}
}

// parserFor lazily builds and caches the tree-sitter parser and query for a
// language, so a project touching only a few languages never pays grammar
// init cost for the rest.
func (e *Extractor) parserFor(cfg langconf.Config) (*tree_sitter.Parser, *tree_sitter.Query, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if p, ok := e.parsers[cfg.Name]; ok {
		return p, e.queries[cfg.Name], nil
	}

	parser := tree_sitter.NewParser()
	language := cfg.Language()
	if err := parser.SetLanguage(language); err != nil {
		return nil, nil, err
	}
	query, _ := tree_sitter.NewQuery(language, cfg.Query)
	if query == nil {
		return nil, nil, errNoQuery(cfg.Name)
	}

	e.parsers[cfg.Name] = parser
	if e.queries == nil {
		e.queries = make(map[string]*tree_sitter.Query)
	}
	e.queries[cfg.Name] = query
	return parser, query, nil
}

type queryError string

func (e queryError) Error() string { return string(e) }

func errNoQuery(lang string) error {
	return queryError("extractor: failed to build tree-sitter query for " + lang)
}

// declaration is a pending node discovered by the query pass, prior to
// containment-tree assembly.
type declaration struct {
	kind       types.Kind
	name       string
	startByte  uint
	endByte    uint
	startLine  int
	endLine    int
	signature  string
	docstring  string
	id         string
	parentID   string
	isExported bool
}

// ExtractFile parses content (already known to be path's extension's
// language) and returns its nodes, edges and unresolved references. An
// unsupported extension yields an empty, error-free Result: the scanner
// still tracks the file, it just contributes no symbols.
func (e *Extractor) ExtractFile(path string, content []byte) Result {
	ext := extOf(path)
	cfg, ok := langconf.ForExtension(ext)
	if !ok {
		return Result{}
	}

	parser, query, err := e.parserFor(cfg)
	if err != nil {
		return Result{Errors: []types.FileError{{Severity: "error", Message: err.Error()}}}
	}

	e.mu.Lock()
	tree := parser.Parse(content, nil)
	e.mu.Unlock()
	if tree == nil {
		return Result{Errors: []types.FileError{{Severity: "error", Message: "parse failed"}}}
	}
	defer tree.Close()

	fileNodeID := idgen.FileNodeID(path)
	fileNode := types.Node{
		ID:       fileNodeID,
		Kind:     types.KindFile,
		Name:     baseName(path),
		FilePath: path,
		Language: cfg.Name,
	}

	qc := tree_sitter.NewQueryCursor()
	defer qc.Close()
	matches := qc.Matches(query, tree.RootNode(), content)
	captureNames := query.CaptureNames()

	var decls []declaration
	var unresolved []types.UnresolvedReference

	for {
		match := matches.Next()
		if match == nil {
			break
		}

		subCaptures := make(map[string]string)
		for _, c := range match.Captures {
			name := captureNames[c.Index]
			if strings.Contains(name, ".") {
				subCaptures[name] = string(content[c.Node.StartByte():c.Node.EndByte()])
			}
		}

		for _, c := range match.Captures {
			name := captureNames[c.Index]
			if strings.Contains(name, ".") {
				continue
			}
			node := c.Node

			if kind, ok := cfg.Captures[name]; ok {
				decl := declaration{
					kind:      kind,
					startByte: node.StartByte(),
					endByte:   node.EndByte(),
					startLine: int(node.StartPosition().Row) + 1,
					endLine:   int(node.EndPosition().Row) + 1,
					signature: firstLine(content, node.StartByte(), node.EndByte()),
				}
				decl.name = pickName(name, subCaptures)
				if decl.name == "" {
					continue
				}
				decl.docstring = leadingComment(content, node.StartByte())
				decl.isExported = isExported(cfg.Name, decl.name)
				decls = append(decls, decl)
				continue
			}

			if edgeKind, ok := cfg.CallCaptures[name]; ok {
				target := subCaptures[name+".target"]
				if target == "" {
					target = string(content[node.StartByte():node.EndByte()])
				}
				unresolved = append(unresolved, types.UnresolvedReference{
					FromNodeID:    fileNodeID, // corrected to enclosing decl below
					ReferenceKind: edgeKind,
					ReferenceName: lastSegment(target),
					FilePath:      path,
					Language:      cfg.Name,
					Line:          int(node.StartPosition().Row) + 1,
					Column:        int(node.StartPosition().Column) + 1,
				})
				continue
			}

			if name == "import" {
				raw := importText(subCaptures, &node, content)
				unresolved = append(unresolved, types.UnresolvedReference{
					FromNodeID:    fileNodeID,
					ReferenceKind: types.EdgeImports,
					ReferenceName: raw,
					FilePath:      path,
					Language:      cfg.Name,
					Line:          int(node.StartPosition().Row) + 1,
					Column:        int(node.StartPosition().Column) + 1,
				})
			}
		}
	}

	return assemble(path, cfg.Name, fileNode, decls, unresolved)
}

// assemble builds the containment tree from a flat list of declarations
// (sorted by start byte, nested by byte-range containment) and produces the
// final node/edge/unresolved-reference lists. Every call/extends/implements
// reference whose line falls inside a declaration's line range is
// reattached to the innermost such declaration's node ID rather than the
// file node.
func assemble(path, language string, fileNode types.Node, decls []declaration, refs []types.UnresolvedReference) Result {
	sort.SliceStable(decls, func(i, j int) bool {
		if decls[i].startByte != decls[j].startByte {
			return decls[i].startByte < decls[j].startByte
		}
		return decls[i].endByte > decls[j].endByte
	})

	type stackEntry struct {
		id      string
		endByte uint
	}
	stack := []stackEntry{{id: fileNode.ID, endByte: ^uint(0)}}

	nodes := []types.Node{fileNode}
	var edges []types.Edge

	for i := range decls {
		d := &decls[i]
		for len(stack) > 1 && d.startByte >= stack[len(stack)-1].endByte {
			stack = stack[:len(stack)-1]
		}
		parent := stack[len(stack)-1]
		d.parentID = parent.id
		d.id = idgen.NodeID(path, d.kind, d.name, d.startLine)

		nodes = append(nodes, types.Node{
			ID:         d.id,
			Kind:       d.kind,
			Name:       d.name,
			FilePath:   path,
			Language:   language,
			StartLine:  d.startLine,
			EndLine:    d.endLine,
			Signature:  d.signature,
			Docstring:  d.docstring,
			Visibility: visibilityOf(d.isExported),
			IsExported: d.isExported,
		})
		edges = append(edges, types.Edge{
			Source: parent.id,
			Target: d.id,
			Kind:   types.EdgeContains,
		})

		stack = append(stack, stackEntry{id: d.id, endByte: d.endByte})
	}

	for i := range refs {
		refs[i].FromNodeID = enclosingDecl(decls, refs[i], fileNode.ID)
	}

	return Result{Nodes: nodes, Edges: edges, Unresolved: refs}
}

// enclosingDecl finds the innermost declaration whose line range contains a
// reference's line, falling back to the file node.
func enclosingDecl(decls []declaration, ref types.UnresolvedReference, fileID string) string {
	best := fileID
	bestSpan := -1
	for _, d := range decls {
		if ref.Line < d.startLine || ref.Line > d.endLine {
			continue
		}
		span := d.endLine - d.startLine
		if bestSpan == -1 || span < bestSpan {
			best = d.id
			bestSpan = span
		}
	}
	return best
}

func pickName(capture string, subCaptures map[string]string) string {
	if name, ok := subCaptures[capture+".name"]; ok {
		return name
	}
	for k, v := range subCaptures {
		if strings.HasSuffix(k, ".name") {
			return v
		}
	}
	return ""
}

func importText(subCaptures map[string]string, node *tree_sitter.Node, content []byte) string {
	for _, key := range []string{"import.path", "import.source"} {
		if v, ok := subCaptures[key]; ok {
			return strings.Trim(v, `"'`)
		}
	}
	return strings.TrimSpace(string(content[node.StartByte():node.EndByte()]))
}

func lastSegment(raw string) string {
	raw = strings.TrimSuffix(raw, "()")
	if idx := strings.LastIndexAny(raw, ".:>"); idx >= 0 {
		return raw[idx+1:]
	}
	return raw
}

func firstLine(content []byte, start, end uint) string {
	text := string(content[start:end])
	if idx := strings.IndexByte(text, '\n'); idx >= 0 {
		return strings.TrimSpace(text[:idx])
	}
	return strings.TrimSpace(text)
}

// leadingComment walks backward from a declaration's start byte over
// contiguous comment lines, stripping common comment markers.
func leadingComment(content []byte, startByte uint) string {
	lineStart := func(pos int) int {
		for pos > 0 && content[pos-1] != '\n' {
			pos--
		}
		return pos
	}

	pos := int(startByte)
	pos = lineStart(pos)
	var lines []string
	for pos > 0 {
		prevLineEnd := pos - 1
		prevLineStart := lineStart(prevLineEnd)
		line := strings.TrimSpace(string(content[prevLineStart:prevLineEnd]))
		stripped, isComment := stripComment(line)
		if line != "" && !isComment {
			break
		}
		if isComment {
			lines = append([]string{stripped}, lines...)
		} else if line == "" {
			break
		}
		pos = prevLineStart
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

func stripComment(line string) (string, bool) {
	switch {
	case strings.HasPrefix(line, "///"):
		return strings.TrimSpace(line[3:]), true
	case strings.HasPrefix(line, "//"):
		return strings.TrimSpace(line[2:]), true
	case strings.HasPrefix(line, "#"):
		return strings.TrimSpace(line[1:]), true
	case strings.HasPrefix(line, "*") && !strings.HasPrefix(line, "*/"):
		return strings.TrimSpace(strings.TrimPrefix(line, "*")), true
	case strings.HasPrefix(line, "/**") || strings.HasPrefix(line, "/*"):
		return strings.TrimSpace(strings.TrimSuffix(strings.TrimPrefix(line, "/*"), "*/")), true
	}
	return "", false
}

func isExported(lang, name string) bool {
	if name == "" {
		return false
	}
	if lang == "go" {
		return unicode.IsUpper(rune(name[0]))
	}
	return !strings.HasPrefix(name, "_")
}

func visibilityOf(exported bool) types.Visibility {
	if exported {
		return types.VisibilityPublic
	}
	return types.VisibilityPrivate
}

func extOf(path string) string {
	idx := strings.LastIndexByte(path, '.')
	if idx < 0 {
		return ""
	}
	return path[idx:]
}

func baseName(path string) string {
	idx := strings.LastIndexByte(path, '/')
	return path[idx+1:]
}
