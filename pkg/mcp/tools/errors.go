// Package tools implements the MCP tools served by milestone-gateway.
package tools

import (
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

// ErrorResponse is a structured error returned as tool output so that the
// client model can read and act on it.
type ErrorResponse struct {
	Error   bool   `json:"error"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewErrorResult creates a tool result carrying a caller-fixable error such as
// a bad argument or a missing milestone. System failures are returned as Go errors.
func NewErrorResult(code, message string) *mcp.CallToolResult {
	body, _ := json.Marshal(ErrorResponse{Error: true, Code: code, Message: message})
	result := mcp.NewToolResultText(string(body))
	result.IsError = true
	return result
}

// jsonResult marshals v as the text content of a successful result.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(string(body)), nil
}

// argument returns a raw tool argument.
func argument(req mcp.CallToolRequest, key string) (any, bool) {
	args, ok := req.Params.Arguments.(map[string]any)
	if !ok {
		return nil, false
	}
	val, ok := args[key]
	return val, ok && val != nil
}

// requireNumber returns a numeric argument.
func requireNumber(req mcp.CallToolRequest, key string) (float64, error) {
	raw, ok := argument(req, key)
	if !ok {
		return 0, fmt.Errorf("%s is required", key)
	}
	n, ok := raw.(float64)
	if !ok {
		return 0, fmt.Errorf("%s must be a number", key)
	}
	return n, nil
}
