// Package mcpserver is the RPC/tool surface of spec §6: it wires
// internal/handlers onto github.com/modelcontextprotocol/go-sdk's stdio
// JSON-RPC transport, registering one mcp.Tool per row of the spec's tool
// table with a github.com/google/jsonschema-go input schema. Grounded on
// the teacher's internal/mcp package (standardbeagle-lci): the same
// NewServer -> AddTool -> Start(ctx, &mcp.StdioTransport{}) shape, and the
// same "unmarshal arguments manually, wrap the result as JSON text" handler
// pattern, trimmed from the teacher's dozens of grep-flavored tools down to
// the thirteen tools spec §6 names.
package mcpserver

import (
	"context"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/standardbeagle/codegraph/internal/handlers"
	"github.com/standardbeagle/codegraph/internal/version"
)

// Server wraps the go-sdk MCP server and the Handlers it dispatches to.
type Server struct {
	mcp     *mcp.Server
	handler *handlers.Handlers
}

// New builds a Server registering every tool of spec §6 against h.
func New(h *handlers.Handlers) *Server {
	s := &Server{
		handler: h,
		mcp: mcp.NewServer(&mcp.Implementation{
			Name:    "codegraph-mcp-server",
			Version: version.Version,
		}, nil),
	}
	s.registerTools()
	return s
}

// Start runs the server over stdio until ctx is cancelled (spec §6 `serve --mcp`).
func (s *Server) Start(ctx context.Context) error {
	return s.mcp.Run(ctx, &mcp.StdioTransport{})
}

func objectSchema(props map[string]*jsonschema.Schema, required ...string) *jsonschema.Schema {
	return &jsonschema.Schema{Type: "object", Properties: props, Required: required}
}

func stringProp(desc string) *jsonschema.Schema {
	return &jsonschema.Schema{Type: "string", Description: desc}
}

func intProp(desc string) *jsonschema.Schema {
	return &jsonschema.Schema{Type: "integer", Description: desc}
}

func boolProp(desc string) *jsonschema.Schema {
	return &jsonschema.Schema{Type: "boolean", Description: desc}
}

// registerTools registers the thirteen tools of spec §6's table.
func (s *Server) registerTools() {
	s.mcp.AddTool(&mcp.Tool{
		Name:        "search",
		Description: "Lexical search over the code graph: exact/prefix/substring/path/qualified-name ranking (spec §4.F).",
		InputSchema: objectSchema(map[string]*jsonschema.Schema{
			"query":        stringProp("search text"),
			"kind":         stringProp("restrict to a node kind, e.g. function, class"),
			"language":     stringProp("restrict to a language"),
			"pathHint":     stringProp("restrict to paths containing this fragment"),
			"includeFiles": boolProp("include synthetic file nodes in results"),
			"limit":        intProp("max results (default 20)"),
		}, "query"),
	}, s.handleSearch)

	s.mcp.AddTool(&mcp.Tool{
		Name:        "context",
		Description: "Build a task-scoped subgraph with ranked code excerpts (spec §4.H).",
		InputSchema: objectSchema(map[string]*jsonschema.Schema{
			"task":         stringProp("natural-language description of the task"),
			"maxNodes":     intProp("node budget for the returned subgraph"),
			"kind":         stringProp("restrict auto-scope to a node kind"),
			"language":     stringProp("restrict auto-scope to a language"),
			"pathHint":     stringProp("restrict auto-scope to a path fragment"),
			"includeFiles": boolProp("include file nodes in the subgraph"),
			"includeCode":  boolProp("include code excerpts (default true)"),
			"format":       stringProp("markdown, json, or object"),
		}, "task"),
	}, s.handleContext)

	s.mcp.AddTool(&mcp.Tool{
		Name:        "callers",
		Description: "Nodes that call or reference the resolved symbol (spec §6).",
		InputSchema: symbolSchema(),
	}, s.handleCallers)

	s.mcp.AddTool(&mcp.Tool{
		Name:        "callees",
		Description: "Nodes the resolved symbol calls or references (spec §6).",
		InputSchema: symbolSchema(),
	}, s.handleCallees)

	s.mcp.AddTool(&mcp.Tool{
		Name:        "impact",
		Description: "Dependency-edge impact radius from the resolved symbol, grouped by file (spec §4.E).",
		InputSchema: objectSchema(map[string]*jsonschema.Schema{
			"symbol":   stringProp("symbol name to resolve"),
			"kind":     stringProp("disambiguation hint: node kind"),
			"language": stringProp("disambiguation hint: language"),
			"pathHint": stringProp("disambiguation hint: path fragment"),
			"depth":    intProp("traversal depth (default 2)"),
		}, "symbol"),
	}, s.handleImpact)

	s.mcp.AddTool(&mcp.Tool{
		Name:        "node",
		Description: "Resolved node detail, optionally with its source excerpt (spec §6).",
		InputSchema: objectSchema(map[string]*jsonschema.Schema{
			"symbol":      stringProp("symbol name to resolve"),
			"kind":        stringProp("disambiguation hint: node kind"),
			"language":    stringProp("disambiguation hint: language"),
			"pathHint":    stringProp("disambiguation hint: path fragment"),
			"includeCode": boolProp("include the node's source excerpt"),
		}, "symbol"),
	}, s.handleNode)

	s.mcp.AddTool(&mcp.Tool{
		Name:        "status",
		Description: "Graph stats: counts by kind/language, database size, last sync time (spec §6).",
		InputSchema: objectSchema(nil),
	}, s.handleStatus)

	s.mcp.AddTool(&mcp.Tool{
		Name:        "get_root",
		Description: "Report the project root this server instance currently serves (spec §6).",
		InputSchema: objectSchema(nil),
	}, s.handleGetRoot)

	s.mcp.AddTool(&mcp.Tool{
		Name:        "set_root",
		Description: "Point this server instance at a different initialized codegraph project (spec §6).",
		InputSchema: objectSchema(map[string]*jsonschema.Schema{
			"path": stringProp("project root path"),
		}, "path"),
	}, s.handleSetRoot)

	s.mcp.AddTool(&mcp.Tool{
		Name:        "init",
		Description: "Write a fresh .codegraph/config.json under the project root (spec §6).",
		InputSchema: objectSchema(map[string]*jsonschema.Schema{
			"path":        stringProp("project root path"),
			"projectName": stringProp("project name recorded in config.json"),
			"force":       boolProp("overwrite an existing config.json"),
		}, "path", "projectName"),
	}, s.handleInit)

	s.mcp.AddTool(&mcp.Tool{
		Name:        "index",
		Description: "Full rebuild; with force, truncates the store first (spec §6).",
		InputSchema: objectSchema(map[string]*jsonschema.Schema{
			"path":  stringProp("project root path"),
			"force": boolProp("truncate the store before reindexing"),
		}, "path"),
	}, s.handleIndex)

	s.mcp.AddTool(&mcp.Tool{
		Name:        "sync",
		Description: "Incremental reindex of changed files (spec §4.I, §6).",
		InputSchema: objectSchema(map[string]*jsonschema.Schema{
			"path": stringProp("project root path"),
		}, "path"),
	}, s.handleSync)

	s.mcp.AddTool(&mcp.Tool{
		Name:        "uninit",
		Description: "Close the store and clear the served project root (spec §6).",
		InputSchema: objectSchema(nil),
	}, s.handleUninit)
}

func symbolSchema() *jsonschema.Schema {
	return objectSchema(map[string]*jsonschema.Schema{
		"symbol":   stringProp("symbol name to resolve"),
		"kind":     stringProp("disambiguation hint: node kind"),
		"language": stringProp("disambiguation hint: language"),
		"pathHint": stringProp("disambiguation hint: path fragment"),
		"limit":    intProp("max results (default 20)"),
	}, "symbol")
}
