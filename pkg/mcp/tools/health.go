package tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

type healthResult struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Model   string `json:"model"`
}

// RegisterHealthTool adds the health tool, which reports the gateway version
// and the model analysis requests are sent to.
func RegisterHealthTool(s *server.MCPServer, version, model string) {
	tool := mcp.NewTool(
		"health",
		mcp.WithDescription("Returns gateway status, version and the configured analysis model"),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		result, err := jsonResult(healthResult{Status: "ok", Version: version, Model: model})
		if err != nil {
			return nil, fmt.Errorf("failed to marshal health result: %w", err)
		}
		return result, nil
	})
}
