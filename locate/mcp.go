package locate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// RegisterMCP registers the domfind_locate tool on an MCP server.
func (s *Service) RegisterMCP(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "domfind_locate",
		Description: "Find elements in a web page by visible text, CSS selector or XPath, including inside open shadow roots. Returns tag, text, xpath, sanitized html and markdown per element.",
		InputSchema: inputSchema(map[string]any{
			"url":            map[string]any{"type": "string", "description": "Page URL"},
			"mode":           map[string]any{"type": "string", "enum": []string{ModeText, ModeCSS, ModeXPath}, "description": "Search mode (default text)"},
			"query":          map[string]any{"type": "string", "description": "Text, CSS selector or XPath"},
			"exact":          map[string]any{"type": "boolean", "description": "Text mode: only exact matches"},
			"include_hidden": map[string]any{"type": "boolean", "description": "Keep elements that are not visible"},
			"tag":            map[string]any{"type": "string", "description": "Text mode: restrict to this tag name"},
			"interval":       map[string]any{"type": "string", "description": "Poll interval, e.g. 200ms"},
			"timeout":        map[string]any{"type": "string", "description": "Poll timeout, e.g. 5s"},
			"require":        map[string]any{"type": "boolean", "description": "Fail when nothing matches"},
			"backend":        map[string]any{"type": "string", "enum": []string{BackendAuto, BackendHTTP, BackendRod, BackendCDP}},
		}, []string{"url", "query"}),
	}

	registerTool(srv, tool, func(ctx context.Context, req *mcp.CallToolRequest) (any, error) {
		var r Request
		if err := json.Unmarshal(req.Params.Arguments, &r); err != nil {
			return nil, fmt.Errorf("invalid arguments: %w", err)
		}
		return s.Locate(ctx, r)
	})
}

func inputSchema(properties map[string]any, required []string) map[string]any {
	s := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}

// registerTool adds a tool whose handler result is returned as JSON text.
// Handler errors become tool errors, not protocol errors.
func registerTool(srv *mcp.Server, tool *mcp.Tool, handle func(context.Context, *mcp.CallToolRequest) (any, error)) {
	srv.AddTool(tool, func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		resp, err := handle(ctx, req)
		if err != nil {
			var res mcp.CallToolResult
			res.SetError(errors.New(err.Error()))
			return &res, nil
		}
		data, err := json.Marshal(resp)
		if err != nil {
			var res mcp.CallToolResult
			res.SetError(fmt.Errorf("marshal: %w", err))
			return &res, nil
		}
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
		}, nil
	})
}
