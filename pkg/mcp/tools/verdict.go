package tools

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/ekaya-inc/milestone-gateway/pkg/models"
	"github.com/ekaya-inc/milestone-gateway/pkg/services"
)

// RegisterVerdictTool adds evaluate_verdict, which applies policy thresholds
// to a model verdict without calling the model.
func RegisterVerdictTool(s *server.MCPServer) {
	tool := mcp.NewTool(
		"evaluate_verdict",
		mcp.WithDescription(
			"Apply policy thresholds to a model verdict and return the pass/fail result with the arithmetic behind it. "+
				"verdict is the model's JSON output: {\"validators\":[{\"description\":...,\"result\":true}],\"confidence\":0.9}.",
		),
		mcp.WithNumber("min_validators_passed",
			mcp.Required(),
			mcp.Description("Minimum percentage of validators that must pass (0-100)"),
		),
		mcp.WithNumber("min_confidence",
			mcp.Required(),
			mcp.Description("Minimum model confidence as a percentage (0-100)"),
		),
		mcp.WithString("verdict",
			mcp.Required(),
			mcp.Description("Verdict JSON as returned by the model"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		minPassed, err := requireNumber(req, "min_validators_passed")
		if err != nil {
			return NewErrorResult("invalid_policy", err.Error()), nil
		}
		minConfidence, err := requireNumber(req, "min_confidence")
		if err != nil {
			return NewErrorResult("invalid_policy", err.Error()), nil
		}
		policy := &models.Policy{MinValidatorsPassed: minPassed, MinConfidence: minConfidence}
		if err := policy.Validate(); err != nil {
			return NewErrorResult("invalid_policy", err.Error()), nil
		}

		text, err := verdictText(req)
		if err != nil {
			return NewErrorResult("invalid_verdict", err.Error()), nil
		}
		verdict, err := services.ParseModelVerdict(text)
		if err != nil {
			return NewErrorResult("invalid_verdict", err.Error()), nil
		}

		return jsonResult(services.EvaluatePolicy(verdict, policy.Thresholds()))
	})
}

var errMissingVerdict = errors.New("verdict is required")

// verdictText accepts the verdict as JSON text or, from lenient clients, as an object.
func verdictText(req mcp.CallToolRequest) (string, error) {
	raw, ok := argument(req, "verdict")
	if !ok {
		return "", errMissingVerdict
	}
	if s, ok := raw.(string); ok {
		return s, nil
	}
	body, err := json.Marshal(raw)
	if err != nil {
		return "", err
	}
	return string(body), nil
}
