package mcpserver

import (
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// jsonResult wraps data as the tool's single text content block. Grounded on
// the teacher's createJSONResponse (internal/mcp/response.go): one JSON blob
// per call, no streaming, no multi-part content.
func jsonResult(data any) (*mcp.CallToolResult, error) {
	content, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("marshal tool response: %w", err)
	}
	return &mcp.CallToolResult{Content: []mcp.Content{&mcp.TextContent{Text: string(content)}}}, nil
}

// errorResult reports a tool-level failure inside the result object rather
// than as a protocol error, per the MCP spec comment the teacher carries
// verbatim in createErrorResponse: the LLM can only self-correct on a failure
// it can see, and a protocol-level error hides it.
func errorResult(operation string, err error) (*mcp.CallToolResult, error) {
	result, marshalErr := jsonResult(map[string]any{
		"success":   false,
		"operation": operation,
		"error":     err.Error(),
	})
	if marshalErr != nil {
		return nil, marshalErr
	}
	result.IsError = true
	return result, nil
}

// badArgs reports a request-unmarshal failure the same way errorResult does.
func badArgs(tool string, err error) (*mcp.CallToolResult, error) {
	return errorResult(tool, fmt.Errorf("invalid arguments: %w", err))
}
