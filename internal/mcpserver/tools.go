package mcpserver

import (
	"context"
	"encoding/json"
	"os"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	contextbuilder "github.com/standardbeagle/codegraph/internal/context"
	"github.com/standardbeagle/codegraph/internal/handlers"
)

// Every handler here follows the teacher's handleXxx shape: manually
// unmarshal req.Params.Arguments (avoids the go-sdk's "unknown field"
// strictness from fighting optional params), dispatch to Handlers, then wrap
// the result with jsonResult/errorResult.

type searchParams struct {
	Query        string `json:"query"`
	Kind         string `json:"kind"`
	Language     string `json:"language"`
	PathHint     string `json:"pathHint"`
	IncludeFiles bool   `json:"includeFiles"`
	Limit        int    `json:"limit"`
}

func (s *Server) handleSearch(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var p searchParams
	if err := json.Unmarshal(req.Params.Arguments, &p); err != nil {
		return badArgs("search", err)
	}
	results, err := s.handler.Search(ctx, handlers.SearchRequest{
		Query: p.Query, Kind: p.Kind, Language: p.Language, PathHint: p.PathHint,
		IncludeFiles: p.IncludeFiles, Limit: p.Limit,
	})
	if err != nil {
		return errorResult("search", err)
	}
	return jsonResult(results)
}

type contextParams struct {
	Task         string `json:"task"`
	MaxNodes     int    `json:"maxNodes"`
	Kind         string `json:"kind"`
	Language     string `json:"language"`
	PathHint     string `json:"pathHint"`
	IncludeFiles bool   `json:"includeFiles"`
	IncludeCode  bool   `json:"includeCode"`
	Format       string `json:"format"`
}

func (s *Server) handleContext(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var p contextParams
	if err := json.Unmarshal(req.Params.Arguments, &p); err != nil {
		return badArgs("context", err)
	}
	format := contextbuilder.Format(p.Format)
	if format == "" {
		format = contextbuilder.FormatMarkdown
	}
	// includeCode defaults to true unless the caller explicitly opts out;
	// json.Unmarshal leaves an absent bool as false, so default it here.
	includeCode := p.IncludeCode
	if _, has := rawField(req.Params.Arguments, "includeCode"); !has {
		includeCode = true
	}
	rendered, err := s.handler.Context(ctx, handlers.ContextRequest{
		Task: p.Task, MaxNodes: p.MaxNodes, Kind: p.Kind, Language: p.Language,
		PathHint: p.PathHint, IncludeFiles: p.IncludeFiles, IncludeCode: includeCode, Format: format,
	})
	if err != nil {
		return errorResult("context", err)
	}
	if text, ok := rendered.(string); ok {
		return &mcp.CallToolResult{Content: []mcp.Content{&mcp.TextContent{Text: text}}}, nil
	}
	return jsonResult(rendered)
}

// rawField reports whether key is present in a JSON object, so handlers can
// distinguish "omitted" from "explicitly false" for bool fields with a
// true-by-default contract.
func rawField(raw json.RawMessage, key string) (json.RawMessage, bool) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, false
	}
	v, ok := obj[key]
	return v, ok
}

type symbolParams struct {
	Symbol   string `json:"symbol"`
	Kind     string `json:"kind"`
	Language string `json:"language"`
	PathHint string `json:"pathHint"`
	Limit    int    `json:"limit"`
}

func (p symbolParams) query() handlers.SymbolQuery {
	return handlers.SymbolQuery{Symbol: p.Symbol, Kind: p.Kind, Language: p.Language, PathHint: p.PathHint, Limit: p.Limit}
}

func (s *Server) handleCallers(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var p symbolParams
	if err := json.Unmarshal(req.Params.Arguments, &p); err != nil {
		return badArgs("callers", err)
	}
	nodes, err := s.handler.Callers(ctx, p.query())
	if err != nil {
		return errorResult("callers", err)
	}
	return jsonResult(nodes)
}

func (s *Server) handleCallees(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var p symbolParams
	if err := json.Unmarshal(req.Params.Arguments, &p); err != nil {
		return badArgs("callees", err)
	}
	nodes, err := s.handler.Callees(ctx, p.query())
	if err != nil {
		return errorResult("callees", err)
	}
	return jsonResult(nodes)
}

type impactParams struct {
	Symbol   string `json:"symbol"`
	Kind     string `json:"kind"`
	Language string `json:"language"`
	PathHint string `json:"pathHint"`
	Depth    int    `json:"depth"`
}

func (s *Server) handleImpact(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var p impactParams
	if err := json.Unmarshal(req.Params.Arguments, &p); err != nil {
		return badArgs("impact", err)
	}
	q := handlers.SymbolQuery{Symbol: p.Symbol, Kind: p.Kind, Language: p.Language, PathHint: p.PathHint}
	groups, err := s.handler.Impact(ctx, q, p.Depth)
	if err != nil {
		return errorResult("impact", err)
	}
	return jsonResult(groups)
}

type nodeParams struct {
	Symbol      string `json:"symbol"`
	Kind        string `json:"kind"`
	Language    string `json:"language"`
	PathHint    string `json:"pathHint"`
	IncludeCode bool   `json:"includeCode"`
}

func (s *Server) handleNode(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var p nodeParams
	if err := json.Unmarshal(req.Params.Arguments, &p); err != nil {
		return badArgs("node", err)
	}
	q := handlers.SymbolQuery{Symbol: p.Symbol, Kind: p.Kind, Language: p.Language, PathHint: p.PathHint}
	detail, err := s.handler.Node(ctx, q, p.IncludeCode, os.ReadFile)
	if err != nil {
		return errorResult("node", err)
	}
	return jsonResult(detail)
}

func (s *Server) handleStatus(ctx context.Context, _ *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	report, err := s.handler.Status(ctx)
	if err != nil {
		return errorResult("status", err)
	}
	return jsonResult(report)
}

func (s *Server) handleGetRoot(_ context.Context, _ *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(map[string]string{"root": s.handler.GetRoot()})
}

type setRootParams struct {
	Path string `json:"path"`
}

func (s *Server) handleSetRoot(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var p setRootParams
	if err := json.Unmarshal(req.Params.Arguments, &p); err != nil {
		return badArgs("set_root", err)
	}
	if err := s.handler.SetRoot(p.Path); err != nil {
		return errorResult("set_root", err)
	}
	return jsonResult(map[string]string{"root": s.handler.GetRoot()})
}

type initParams struct {
	Path        string `json:"path"`
	ProjectName string `json:"projectName"`
	Force       bool   `json:"force"`
}

func (s *Server) handleInit(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var p initParams
	if err := json.Unmarshal(req.Params.Arguments, &p); err != nil {
		return badArgs("init", err)
	}
	cfg, err := s.handler.Init(ctx, p.Path, p.ProjectName, p.Force)
	if err != nil {
		return errorResult("init", err)
	}
	return jsonResult(cfg)
}

type rootPathParams struct {
	Path  string `json:"path"`
	Force bool   `json:"force"`
}

func (s *Server) handleIndex(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var p rootPathParams
	if err := json.Unmarshal(req.Params.Arguments, &p); err != nil {
		return badArgs("index", err)
	}
	result, err := s.handler.Index(ctx, p.Path, p.Force)
	if err != nil {
		return errorResult("index", err)
	}
	return jsonResult(result)
}

func (s *Server) handleSync(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var p rootPathParams
	if err := json.Unmarshal(req.Params.Arguments, &p); err != nil {
		return badArgs("sync", err)
	}
	result, err := s.handler.Sync(ctx, p.Path)
	if err != nil {
		return errorResult("sync", err)
	}
	return jsonResult(result)
}

func (s *Server) handleUninit(ctx context.Context, _ *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := s.handler.Uninit(ctx); err != nil {
		return errorResult("uninit", err)
	}
	return jsonResult(map[string]bool{"success": true})
}
