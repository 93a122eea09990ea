package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/teamfit/internal/engine"
	"github.com/HendryAvila/teamfit/internal/team"
)

// RecommendTool handles the team_recommend MCP tool.
// It returns the assignment for an order, reusing the cached result while
// the team and tasks are unchanged.
type RecommendTool struct {
	engine *engine.Engine
	mode   team.Mode
}

// NewRecommendTool creates a RecommendTool. mode is used when a call names none.
func NewRecommendTool(e *engine.Engine, mode team.Mode) *RecommendTool {
	return &RecommendTool{engine: e, mode: mode}
}

// Definition returns the MCP tool definition for registration.
func (t *RecommendTool) Definition() mcp.Tool {
	return mcp.NewTool("team_recommend",
		mcp.WithDescription(
			"Get the recommended member for every task of an order. The result is cached per order "+
				"and mode; it is recomputed automatically when any member's rate, speed, roles or "+
				"availability changes, or when a task's role or estimate changes.",
		),
		mcp.WithString("order_id",
			mcp.Required(),
			mcp.Description("Order the tasks belong to; the cache key"),
		),
		mcp.WithString("tasks",
			mcp.Required(),
			mcp.Description(`Tasks as a JSON array: [{"id","role","estimatedHours"}]`),
		),
		mcp.WithString("members",
			mcp.Required(),
			mcp.Description(`Team as a JSON array: [{"id","roles","hourlyRate","speedFactor","weeklyAvailableHours":[w1,w2,w3,w4]}]`),
		),
		mcp.WithString("mode",
			mcp.Description("Optimization mode"),
			mcp.Enum("fastest", "balanced", "cheapest"),
		),
	)
}

// Handle processes the team_recommend tool call.
func (t *RecommendTool) Handle(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	orderID := strings.TrimSpace(req.GetString("order_id", ""))
	if orderID == "" {
		return mcp.NewToolResultError("'order_id' is required"), nil
	}
	tasks, err := tasksArg(req)
	if err != nil {
		return errorResult("invalid tasks", err), nil
	}
	members, err := membersArg(req)
	if err != nil {
		return errorResult("invalid members", err), nil
	}
	mode, err := modeArg(req, t.mode)
	if err != nil {
		return errorResult("invalid mode", err), nil
	}

	out, hit := t.engine.GetOrComputeAssignments(orderID, tasks, members, mode)

	source := "computed"
	if hit {
		source = "cached"
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "## Recommendation for order %s\n\n", orderID)
	fmt.Fprintf(&sb, "**Mode:** %s | **Source:** %s\n\n", mode, source)
	if len(members) == 0 {
		sb.WriteString("**Cannot staff this order:** the team is empty.\n")
		return mcp.NewToolResultText(sb.String()), nil
	}

	sb.WriteString("| Task | Role | Member |\n")
	sb.WriteString("|------|------|--------|\n")
	for i, task := range tasks {
		fmt.Fprintf(&sb, "| %s | %s | %s |\n", taskLabel(task, i), t.engine.ResolveRole(task.Role), out[i])
	}
	sb.WriteString("\nUse `team_candidates` to see the alternatives for each task.\n")
	return mcp.NewToolResultText(sb.String()), nil
}
