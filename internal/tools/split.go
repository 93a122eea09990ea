package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/teamfit/internal/engine"
	"github.com/HendryAvila/teamfit/internal/split"
	"github.com/HendryAvila/teamfit/internal/team"
)

// SplitTool handles the team_split MCP tool.
// It divides one task's hours across several members.
type SplitTool struct {
	engine *engine.Engine
	mode   team.Mode
}

// NewSplitTool creates a SplitTool. mode is used when a call names none.
func NewSplitTool(e *engine.Engine, mode team.Mode) *SplitTool {
	return &SplitTool{engine: e, mode: mode}
}

// Definition returns the MCP tool definition for registration.
func (t *SplitTool) Definition() mcp.Tool {
	return mcp.NewTool("team_split",
		mcp.WithDescription(
			"Divide a task's hours across several members instead of giving it to one person. "+
				"Hours are drained from the best candidate's earliest free weeks first. "+
				"Tasks with splittable=false, or that came out of an earlier split, go to a single member.",
		),
		mcp.WithString("task",
			mcp.Required(),
			mcp.Description(`Task as JSON: {"id","role","estimatedHours","splittable"}`),
		),
		mcp.WithString("members",
			mcp.Required(),
			mcp.Description(`Team as a JSON array: [{"id","roles","hourlyRate","speedFactor","weeklyAvailableHours":[w1,w2,w3,w4]}]`),
		),
		mcp.WithString("assigned",
			mcp.Description(`Hours already committed per member as JSON: {"member-id":[w1,w2,w3,w4]}`),
		),
		mcp.WithString("mode",
			mcp.Description("Optimization mode"),
			mcp.Enum("fastest", "balanced", "cheapest"),
		),
	)
}

// Handle processes the team_split tool call.
func (t *SplitTool) Handle(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	task, err := taskArg(req)
	if err != nil {
		return errorResult("invalid task", err), nil
	}
	members, err := membersArg(req)
	if err != nil {
		return errorResult("invalid members", err), nil
	}
	ledger, err := ledgerArg(req)
	if err != nil {
		return errorResult("invalid assigned hours", err), nil
	}
	mode, err := modeArg(req, t.mode)
	if err != nil {
		return errorResult("invalid mode", err), nil
	}

	portions := t.engine.SplitAssign(task, members, ledger, mode)

	var sb strings.Builder
	fmt.Fprintf(&sb, "## Split for %s (%s)\n\n", taskLabel(task, 0), mode)
	if !task.CanSplit() {
		sb.WriteString("This task is not splittable; it goes to a single member.\n\n")
	}
	if len(members) == 0 {
		sb.WriteString("**Nothing could be placed:** the team is empty.\n")
		return mcp.NewToolResultText(sb.String()), nil
	}
	if len(portions) == 0 {
		est := hours(task.Normalize().EstimatedHours)
		fmt.Fprintf(&sb, "**Shortfall:** %s of %s could not be placed; the team is out of capacity.\n", est, est)
		return mcp.NewToolResultText(sb.String()), nil
	}
	writePortions(&sb, task, portions)
	return mcp.NewToolResultText(sb.String()), nil
}

func writePortions(sb *strings.Builder, task team.Task, portions []split.Portion) {
	sb.WriteString("| Subtask | Member | Tier | Covers | Effective | Weekly |\n")
	sb.WriteString("|---------|--------|------|--------|-----------|--------|\n")
	for i, p := range portions {
		id := task.Key(0)
		if len(portions) > 1 {
			id = p.Subtask(task, i+1).ID
		}
		fmt.Fprintf(sb, "| %s | %s | %s | %s | %s | %s |\n",
			id, p.Member.ID, p.Tier, hours(p.Hours), hours(p.EffectiveHours), weeks(p.Weekly))
	}
	if short := split.Shortfall(task, portions); short > 0 {
		fmt.Fprintf(sb, "\n**Shortfall:** %s of %s could not be placed; the team is out of capacity.\n",
			hours(short), hours(task.Normalize().EstimatedHours))
	}
}
