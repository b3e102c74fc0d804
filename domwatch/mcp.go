package domwatch

import (
	"context"
	"encoding/json"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hazyhaar/timewatch/kit"
)

// RegisterMCP registers the timewatch tools on an MCP server.
func (w *Watcher) RegisterMCP(srv *mcp.Server) {
	kit.RegisterMCPTool(srv, &mcp.Tool{
		Name:        "timewatch_format",
		Description: "Render an instant as a localized relative phrase (\"3 minutes ago\") with its absolute tooltip.",
		InputSchema: inputSchema(map[string]any{
			"datetime": map[string]any{"type": "string", "description": "Instant to render, ISO-8601 preferred"},
			"now":      map[string]any{"type": "string", "description": "Reference instant, default the current time"},
			"locale":   map[string]any{"type": "string", "description": "BCP 47 locale, e.g. fr-FR"},
		}, []string{"datetime"}),
	}, kit.Chain(kit.Logging(w.logger, "timewatch_format"), kit.Recover)(w.FormatEndpoint()), decodeJSON[FormatRequest])

	kit.RegisterMCPTool(srv, &mcp.Tool{
		Name:        "timewatch_render",
		Description: "Render every <time datetime> element of an HTML fragment and report what was rendered.",
		InputSchema: inputSchema(map[string]any{
			"html":   map[string]any{"type": "string", "description": "HTML document or fragment"},
			"format": map[string]any{"type": "string", "enum": []string{"html", "markdown"}},
			"locale": map[string]any{"type": "string", "description": "BCP 47 locale, e.g. fr-FR"},
		}, []string{"html"}),
	}, kit.Chain(kit.Logging(w.logger, "timewatch_render"), kit.Recover)(w.RenderEndpoint()), decodeJSON[RenderRequest])

	kit.RegisterMCPTool(srv, &mcp.Tool{
		Name:        "timewatch_pages",
		Description: "List the pages currently observed in a browser tab.",
		InputSchema: inputSchema(map[string]any{}, nil),
	}, func(_ context.Context, _ any) (any, error) {
		return map[string]any{"live": w.Live()}, nil
	}, func(*mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		return &kit.MCPDecodeResult{}, nil
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

func decodeJSON[T any](req *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
	var r T
	if err := json.Unmarshal(req.Params.Arguments, &r); err != nil {
		return nil, err
	}
	return &kit.MCPDecodeResult{Request: &r}, nil
}
