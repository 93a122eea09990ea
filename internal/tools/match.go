package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/teamfit/internal/engine"
	"github.com/HendryAvila/teamfit/internal/team"
)

// MatchTool handles the team_match MCP tool.
// It ranks every member of the team for one task under a mode.
type MatchTool struct {
	engine *engine.Engine
	mode   team.Mode
}

// NewMatchTool creates a MatchTool. mode is used when a call names none.
func NewMatchTool(e *engine.Engine, mode team.Mode) *MatchTool {
	return &MatchTool{engine: e, mode: mode}
}

// Definition returns the MCP tool definition for registration.
func (t *MatchTool) Definition() mcp.Tool {
	return mcp.NewTool("team_match",
		mcp.WithDescription(
			"Rank every team member for a single task. Members without room for the task "+
				"are still listed, after everyone who fits, so you can offer 'insufficient capacity' options.",
		),
		mcp.WithString("task",
			mcp.Required(),
			mcp.Description(`Task as JSON: {"id","role","estimatedHours"}`),
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
		mcp.WithNumber("limit",
			mcp.Description("Show at most this many candidates (default: all)"),
		),
	)
}

// Handle processes the team_match tool call.
func (t *MatchTool) Handle(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
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

	results := t.engine.Match(task, members, ledger, mode)

	var sb strings.Builder
	fmt.Fprintf(&sb, "## Candidates for %s\n\n", taskLabel(task, 0))
	fmt.Fprintf(&sb, "**Role:** %s | **Estimate:** %s | **Mode:** %s\n\n",
		t.engine.ResolveRole(task.Role), hours(task.EstimatedHours), mode)
	if len(results) == 0 {
		sb.WriteString("The team is empty: nobody can be matched.\n")
		return mcp.NewToolResultText(sb.String()), nil
	}
	writeMatchTable(&sb, results, intArg(req, "limit", 0))
	if !results[0].CanAssign {
		sb.WriteString("\n**No member has room for the whole task.** Consider `team_split`.\n")
	}
	return mcp.NewToolResultText(sb.String()), nil
}
