package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

// RegisterMCP adds every tool in the registry to s.
func (r *Registry) RegisterMCP(s *mcpserver.MCPServer) {
	for _, tool := range r.Tools() {
		s.AddTool(tool, r.mcpHandler(tool.Name))
	}
}

func (r *Registry) mcpHandler(name string) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		arguments, err := json.Marshal(request.GetArguments())
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
		}

		result := r.Invoke(ctx, name, string(arguments))
		payload, err := json.Marshal(result)
		if err != nil {
			return nil, fmt.Errorf("failed to encode %s result: %w", name, err)
		}

		if result.ErrorMessage() != "" {
			return mcp.NewToolResultError(string(payload)), nil
		}
		return mcp.NewToolResultText(string(payload)), nil
	}
}
