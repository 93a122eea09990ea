package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/teamfit/internal/engine"
	"github.com/HendryAvila/teamfit/internal/scheduler"
	"github.com/HendryAvila/teamfit/internal/team"
)

// ScheduleTool handles the team_schedule MCP tool.
// It assigns every task of an order to exactly one member.
type ScheduleTool struct {
	engine *engine.Engine
	mode   team.Mode
}

// NewScheduleTool creates a ScheduleTool. mode is used when a call names none.
func NewScheduleTool(e *engine.Engine, mode team.Mode) *ScheduleTool {
	return &ScheduleTool{engine: e, mode: mode}
}

// Definition returns the MCP tool definition for registration.
func (t *ScheduleTool) Definition() mcp.Tool {
	return mcp.NewTool("team_schedule",
		mcp.WithDescription(
			"Assign every task to one team member. Tasks are placed largest first; "+
				"'fastest' spreads work across as many people as possible, 'balanced' keeps work "+
				"with people already on the order, 'cheapest' always takes the lowest rate. "+
				"With a non-empty team every task gets someone, even if that overbooks them.",
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
	)
}

// Handle processes the team_schedule tool call.
func (t *ScheduleTool) Handle(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
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

	res := t.engine.Schedule(tasks, members, ledger, mode)

	var sb strings.Builder
	fmt.Fprintf(&sb, "## Schedule (%s)\n\n", mode)
	if len(members) == 0 {
		sb.WriteString("**Cannot staff this order:** the team is empty.\n")
		return mcp.NewToolResultText(sb.String()), nil
	}
	writeDecisions(&sb, tasks, members, res.Decisions)
	return mcp.NewToolResultText(sb.String()), nil
}

// writeDecisions renders one row per task plus a cost summary.
func writeDecisions(sb *strings.Builder, tasks []team.Task, members []team.Member, decisions []scheduler.Decision) {
	byID := memberByID(members)
	sb.WriteString("| Task | Role | Member | Tier | Effective | Cost | Note |\n")
	sb.WriteString("|------|------|--------|------|-----------|------|------|\n")
	total := 0.0
	var overbooked, offRole int
	for _, d := range decisions {
		t := tasks[d.TaskIndex]
		cost := d.EffectiveHours * byID[d.MemberID].HourlyRate
		total += cost
		var notes []string
		if d.Overbooked {
			overbooked++
			notes = append(notes, "overbooked")
		}
		if d.Stage != scheduler.StagePool {
			offRole++
			notes = append(notes, string(d.Stage))
		}
		fmt.Fprintf(sb, "| %s | %s | %s | %s | %s | %s | %s |\n",
			taskLabel(t, d.TaskIndex), d.Role, d.MemberID, d.Tier,
			hours(d.EffectiveHours), money(cost), strings.Join(notes, ", "))
	}
	fmt.Fprintf(sb, "\n**Estimated cost:** %s\n", money(total))
	if overbooked > 0 {
		fmt.Fprintf(sb, "\n**%d task(s) overbook their member.** Add capacity or split them with `team_plan`.\n", overbooked)
	}
	if offRole > 0 {
		fmt.Fprintf(sb, "\n%d task(s) were staffed through a fallback stage; review the role table if this is unexpected.\n", offRole)
	}
}
