// Package resolver converts the Extractor's unresolved textual references
// into graph edges using a ranked cascade of strategies (spec §4.D),
// grounded on the teacher's internal/symbollinker cross-file linking engine
// generalized away from its per-language CompositeSymbolID machinery.
package resolver

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/standardbeagle/codegraph/internal/store"
	"github.com/standardbeagle/codegraph/internal/types"
)

// ReadFileFunc reads a project file's content, used by import-based
// resolution to inspect the imported file for its exported symbol.
type ReadFileFunc func(path string) ([]byte, error)

// Context is the resolver's read model over the Store (spec §4.D: "nodes-by-
// file, nodes-by-name, nodes-by-qualified-name, nodes-by-kind, file-exists,
// read-file, project-root, all-file-paths"). It is built once per bulk
// resolution pass and is immutable for the lifetime of that pass, so worker
// goroutines can share it without locking.
type Context struct {
	ProjectRoot string

	byName          map[string][]types.Node
	byQualifiedName map[string]types.Node
	byKind          map[types.Kind][]types.Node
	byFile          map[string][]types.Node
	filePaths       map[string]bool
	readFile        ReadFileFunc
}

// NewContext warms the three in-memory indices (name, qualified name, kind)
// from the whole graph, plus a by-file index and the file-exists set, in one
// pass over Store.AllNodes / Store.AllFilePaths (spec §4.D).
func NewContext(ctx context.Context, s *store.Store, projectRoot string, readFile ReadFileFunc) (*Context, error) {
	nodes, err := s.AllNodes(ctx)
	if err != nil {
		return nil, err
	}
	paths, err := s.AllFilePaths(ctx)
	if err != nil {
		return nil, err
	}

	rc := &Context{
		ProjectRoot:     projectRoot,
		byName:          make(map[string][]types.Node, len(nodes)),
		byQualifiedName: make(map[string]types.Node, len(nodes)),
		byKind:          make(map[types.Kind][]types.Node),
		byFile:          make(map[string][]types.Node),
		filePaths:       make(map[string]bool, len(paths)),
		readFile:        readFile,
	}
	for _, n := range nodes {
		rc.byName[n.Name] = append(rc.byName[n.Name], n)
		if n.QualifiedName != "" {
			rc.byQualifiedName[n.QualifiedName] = n
		}
		rc.byKind[n.Kind] = append(rc.byKind[n.Kind], n)
		rc.byFile[n.FilePath] = append(rc.byFile[n.FilePath], n)
	}
	for _, p := range paths {
		rc.filePaths[p] = true
	}
	return rc, nil
}

// NodesByFile returns every node declared in a file.
func (c *Context) NodesByFile(path string) []types.Node { return c.byFile[path] }

// NodesByName returns every node with an exact name match, across the project.
func (c *Context) NodesByName(name string) []types.Node { return c.byName[name] }

// NodeByQualifiedName returns the node with an exact qualified-name match.
func (c *Context) NodeByQualifiedName(qname string) (types.Node, bool) {
	n, ok := c.byQualifiedName[qname]
	return n, ok
}

// NodesByKind returns every node of a given kind.
func (c *Context) NodesByKind(k types.Kind) []types.Node { return c.byKind[k] }

// FileExists reports whether path is a tracked project file.
func (c *Context) FileExists(path string) bool { return c.filePaths[path] }

// ReadFile reads a tracked project file's content.
func (c *Context) ReadFile(path string) ([]byte, error) { return c.readFile(path) }

// ResolveImportPath maps an import specifier to a tracked file path, trying
// the specifier verbatim, with common source extensions appended, and with
// an index-file fallback for directory-style imports (spec §4.D strategy 3).
func (c *Context) ResolveImportPath(fromFile, spec string) (string, bool) {
	if !strings.HasPrefix(spec, ".") && !strings.HasPrefix(spec, "/") {
		return "", false // not a relative import; external package
	}
	base := filepath.Dir(fromFile)
	candidate := filepath.ToSlash(filepath.Join(base, spec))

	if c.filePaths[candidate] {
		return candidate, true
	}
	for _, ext := range []string{".go", ".ts", ".tsx", ".js", ".jsx", ".py", ".java", ".php", ".rs", ".cs", ".cpp", ".h"} {
		if c.filePaths[candidate+ext] {
			return candidate + ext, true
		}
	}
	for _, idx := range []string{"/index.ts", "/index.tsx", "/index.js", "/index.jsx", "/__init__.py"} {
		if c.filePaths[candidate+idx] {
			return candidate + idx, true
		}
	}
	return "", false
}
