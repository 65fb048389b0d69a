// Package stdio exposes the tool registry over the MCP stdio transport.
package stdio

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"crypto-mcp/internal/registry"
)

// NewServer builds an MCP server advertising every tool in reg.
// Tool calls are routed back through reg so argument validation and
// result shapes match the HTTP endpoints.
func NewServer(reg *registry.Registry, name, version string, log *slog.Logger) *mcp.Server {
	if log == nil {
		log = slog.Default()
	}
	srv := mcp.NewServer(&mcp.Implementation{Name: name, Version: version}, nil)
	for _, t := range reg.ListAllTools() {
		schema := t.InputSchema
		if schema == nil {
			schema = &jsonschema.Schema{Type: "object"}
		}
		srv.AddTool(&mcp.Tool{
			Name:        t.Name,
			Description: t.Description,
			InputSchema: schema,
		}, toolHandler(reg, t.Name, log))
	}
	return srv
}

// Run serves srv on stdin/stdout until ctx is cancelled or the peer disconnects.
func Run(ctx context.Context, srv *mcp.Server) error {
	return srv.Run(ctx, &mcp.StdioTransport{})
}

func toolHandler(reg *registry.Registry, name string, log *slog.Logger) mcp.ToolHandler {
	return func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args, err := parseArguments(req)
		if err != nil {
			return errorResult(err.Error()), nil
		}

		out, err := reg.CallTool(ctx, name, args)
		if err != nil {
			log.Warn("tool call failed", "tool", name, "error", err)
			return errorResult(fmt.Sprintf("Tool execution failed: %v", err)), nil
		}

		text, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encode %s result: %w", name, err)
		}
		return &mcp.CallToolResult{Content: []mcp.Content{&mcp.TextContent{Text: string(text)}}}, nil
	}
}

func parseArguments(req *mcp.CallToolRequest) (map[string]any, error) {
	if req == nil || req.Params == nil {
		return nil, errors.New("missing call parameters")
	}
	args := map[string]any{}
	if len(req.Params.Arguments) == 0 {
		return args, nil
	}
	if err := json.Unmarshal(req.Params.Arguments, &args); err != nil {
		return nil, fmt.Errorf("invalid arguments: %w", err)
	}
	return args, nil
}

func errorResult(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: msg}},
		IsError: true,
	}
}
