package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
)

// Definition returns the MCP tool definition of t. Every tool takes its
// input as a single string argument.
func Definition(t Tool) mcp.Tool {
	return mcp.NewTool(t.Name(),
		mcp.WithDescription(t.Description()),
		mcp.WithString("input",
			mcp.Required(),
			mcp.Description("Tool input, exactly as the tool description asks for it"),
		),
	)
}

// Handler adapts t to the mcp-go tool handler signature.
func Handler(t Tool) func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		input := req.GetString("input", "")

		text, failed, fatal := Observation(t.Invoke(ctx, input))
		if fatal != nil {
			return mcp.NewToolResultError(fatal.Error()), nil
		}
		if failed {
			return mcp.NewToolResultError(text), nil
		}
		return mcp.NewToolResultText(text), nil
	}
}
