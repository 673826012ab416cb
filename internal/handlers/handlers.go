// Package handlers is the thin request-shaping layer of spec §4.J: it maps
// the RPC/tool and CLI surfaces (spec §6) onto Searcher/Graph/Context/Sync
// calls, resolves `{symbol, kind?, pathHint?}` inputs to a unique node (or a
// structured ambiguous response), and renders deterministic output.
// Grounded on internal/resolver's strategy-cascade style for "try the
// precise thing, fall back, report what happened" and internal/search's
// ranking ladder, which the margin-based auto-pick logic here reuses
// directly.
package handlers

import (
	"errors"

	contextbuilder "github.com/standardbeagle/codegraph/internal/context"
	"github.com/standardbeagle/codegraph/internal/diag"
	"github.com/standardbeagle/codegraph/internal/graph"
	"github.com/standardbeagle/codegraph/internal/search"
	"github.com/standardbeagle/codegraph/internal/store"
	"github.com/standardbeagle/codegraph/internal/sync"
	"github.com/standardbeagle/codegraph/internal/vectors"
)

var (
	errAlreadyInitialized = errors.New("project already initialized (use --force to reinitialize)")
	errNotInitialized     = errors.New("not an initialized codegraph project")
)

// Handlers wires the query-side components behind the tool/CLI surface.
// ContextBuilder is named to avoid colliding with the Context method below
// (the `context` tool of spec §6).
type Handlers struct {
	Store          *store.Store
	Graph          *graph.Graph
	Searcher       *search.Searcher
	ContextBuilder *contextbuilder.Builder
	Syncer         *sync.Syncer
	Vectors        *vectors.Vectors
	Log            *diag.Logger

	// Root is the project root this instance currently serves (spec §6
	// get_root/set_root).
	Root string
}

// New wires a Handlers value from its already-constructed components.
// Vectors may be nil (spec §4.G: the component is optional).
func New(root string, s *store.Store, g *graph.Graph, searcher *search.Searcher, ctxBuilder *contextbuilder.Builder, syncer *sync.Syncer, vecs *vectors.Vectors, log *diag.Logger) *Handlers {
	if log == nil {
		log = diag.Quiet()
	}
	return &Handlers{Root: root, Store: s, Graph: g, Searcher: searcher, ContextBuilder: ctxBuilder, Syncer: syncer, Vectors: vecs, Log: log}
}

// SymbolQuery is the common `{symbol, kind?, pathHint?}` shape carried by
// callers/callees/impact/node (spec §6).
type SymbolQuery struct {
	Symbol   string
	Kind     string
	Language string
	PathHint string
	Limit    int
}

const defaultNodeLimit = 20

func limitOr(n, fallback int) int {
	if n <= 0 {
		return fallback
	}
	return n
}
