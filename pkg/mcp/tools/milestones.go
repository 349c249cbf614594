package tools

import (
	"context"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/ekaya-inc/milestone-gateway/pkg/apperrors"
	"github.com/ekaya-inc/milestone-gateway/pkg/jsonutil"
	"github.com/ekaya-inc/milestone-gateway/pkg/models"
	"github.com/ekaya-inc/milestone-gateway/pkg/services"
)

// MilestoneToolDeps contains dependencies for milestone tools.
type MilestoneToolDeps struct {
	MilestoneService services.MilestoneService
	Logger           *zap.Logger
}

// RegisterMilestoneTools registers list_milestones and get_milestone.
func RegisterMilestoneTools(s *server.MCPServer, deps *MilestoneToolDeps) {
	registerListMilestonesTool(s, deps)
	registerGetMilestoneTool(s, deps)
}

type listMilestonesResult struct {
	Milestones []*models.Milestone `json:"milestones"`
	Count      int                 `json:"count"`
}

func registerListMilestonesTool(s *server.MCPServer, deps *MilestoneToolDeps) {
	tool := mcp.NewTool(
		"list_milestones",
		mcp.WithDescription(
			"List developmental milestones that videos can be analyzed against. "+
				"Optionally filter by category. Use get_milestone for validators and the effective policy.",
		),
		mcp.WithString("category",
			mcp.Description("Optional category filter"),
			mcp.Enum("SOCIAL", "LANGUAGE", "FINE_MOTOR", "GROSS_MOTOR"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var filter models.MilestoneCategory
		if raw, ok := argument(req, "category"); ok {
			name, _ := raw.(string)
			category, err := models.ParseMilestoneCategory(name)
			if err != nil {
				return NewErrorResult("invalid_category", err.Error()), nil
			}
			filter = category
		}

		milestones, err := deps.MilestoneService.List(ctx)
		if err != nil {
			deps.Logger.Error("list_milestones failed", zap.Error(err))
			return nil, fmt.Errorf("failed to list milestones: %w", err)
		}

		result := listMilestonesResult{Milestones: make([]*models.Milestone, 0, len(milestones))}
		for _, m := range milestones {
			if filter == "" || m.Category == filter {
				result.Milestones = append(result.Milestones, m)
			}
		}
		result.Count = len(result.Milestones)

		return jsonResult(result)
	})
}

func registerGetMilestoneTool(s *server.MCPServer, deps *MilestoneToolDeps) {
	tool := mcp.NewTool(
		"get_milestone",
		mcp.WithDescription(
			"Get one milestone with its validators and the policy an analysis would apply "+
				"(the milestone's own policy, else the default). effective_policy is absent when none applies.",
		),
		mcp.WithNumber("milestone_id",
			mcp.Required(),
			mcp.Description("Milestone ID"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		raw, ok := argument(req, "milestone_id")
		if !ok {
			return NewErrorResult("invalid_milestone_id", "milestone_id is required"), nil
		}
		id, err := jsonutil.FlexibleInt64(raw)
		if err != nil {
			return NewErrorResult("invalid_milestone_id", "milestone_id must be an integer"), nil
		}

		detail, err := deps.MilestoneService.GetDetail(ctx, id)
		if errors.Is(err, apperrors.ErrNotFound) {
			return NewErrorResult("milestone_not_found", fmt.Sprintf("no milestone with id %d", id)), nil
		}
		if err != nil {
			deps.Logger.Error("get_milestone failed", zap.Int64("milestone_id", id), zap.Error(err))
			return nil, fmt.Errorf("failed to get milestone: %w", err)
		}

		return jsonResult(detail)
	})
}
