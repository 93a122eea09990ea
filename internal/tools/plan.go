package tools

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/teamfit/internal/engine"
	"github.com/HendryAvila/teamfit/internal/team"
)

// PlanTool handles the team_plan MCP tool.
// It staffs a whole order: unsplittable tasks go to one member each, and
// with split=true the rest are divided over the capacity that remains.
type PlanTool struct {
	engine *engine.Engine
	mode   team.Mode
}

// NewPlanTool creates a PlanTool. mode is used when a call names none.
func NewPlanTool(e *engine.Engine, mode team.Mode) *PlanTool {
	return &PlanTool{engine: e, mode: mode}
}

// Definition returns the MCP tool definition for registration.
func (t *PlanTool) Definition() mcp.Tool {
	return mcp.NewTool("team_plan",
		mcp.WithDescription(
			"Staff a whole order and report cost, weekly load per member and any hours the team "+
				"has no room for. With split=true, splittable tasks are divided across members "+
				"after unsplittable ones are placed.",
		),
		mcp.WithString("tasks",
			mcp.Required(),
			mcp.Description(`Tasks as a JSON array: [{"id","role","estimatedHours","splittable"}]`),
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
		mcp.WithBoolean("split",
			mcp.Description("Divide splittable tasks across members (default: false)"),
		),
	)
}

// Handle processes the team_plan tool call.
func (t *PlanTool) Handle(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tasks, err := tasksArg(req)
	if err != nil {
		return errorResult("invalid tasks", err), nil
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

	plan := t.engine.Plan(tasks, members, ledger, mode, boolArg(req, "split", false))

	var sb strings.Builder
	fmt.Fprintf(&sb, "## Staffing Plan (%s)\n\n", mode)
	if len(members) == 0 {
		sb.WriteString("**Cannot staff this order:** the team is empty.\n")
		return mcp.NewToolResultText(sb.String()), nil
	}

	sb.WriteString("| Task | Member | Tier | Covers | Effective | Weekly |\n")
	sb.WriteString("|------|--------|------|--------|-----------|--------|\n")
	for _, tp := range plan.Tasks {
		for n, p := range tp.Portions {
			label := taskLabel(tp.Task, tp.Index)
			if tp.Split {
				label = p.Subtask(tp.Task, n+1).ID
			}
			fmt.Fprintf(&sb, "| %s | %s | %s | %s | %s | %s |\n",
				label, p.Member.ID, p.Tier, hours(p.Hours), hours(p.EffectiveHours), weeks(p.Weekly))
		}
		if tp.Shortfall > 0 {
			fmt.Fprintf(&sb, "| %s | - | - | %s unplaced | - | - |\n", taskLabel(tp.Task, tp.Index), hours(tp.Shortfall))
		}
	}

	sb.WriteString("\n### Load\n\n")
	sb.WriteString("| Member | Booked | Weekly | Available |\n")
	sb.WriteString("|--------|--------|--------|-----------|\n")
	byID := memberByID(members)
	ids := make([]string, 0, len(plan.Ledger))
	for id := range plan.Ledger {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	for _, id := range ids {
		used := plan.Ledger[id]
		fmt.Fprintf(&sb, "| %s | %s | %s | %s |\n",
			id, hours(used.Sum()), weeks(used), weeks(byID[id].WeeklyAvailableHours))
	}

	fmt.Fprintf(&sb, "\n**Estimated cost:** %s\n", money(plan.Cost()))
	fmt.Fprintf(&sb, "**Finishes by:** %s\n", week(plan.LastWeek()))
	if short := plan.Shortfall(); short > 0 {
		fmt.Fprintf(&sb, "\n**Shortfall:** %s could not be placed within the planning horizon.\n", hours(short))
	}
	return mcp.NewToolResultText(sb.String()), nil
}
