package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/spf13/cast"

	"github.com/HendryAvila/teamfit/internal/engine"
	"github.com/HendryAvila/teamfit/internal/recommend"
	"github.com/HendryAvila/teamfit/internal/team"
)

const defaultTopN = 3

// CandidatesTool handles the team_candidates MCP tool.
// It shows the top-N ranked candidates per task from the order's stored
// snapshot, computing the snapshot on first use.
type CandidatesTool struct {
	engine *engine.Engine
	mode   team.Mode
}

// NewCandidatesTool creates a CandidatesTool. mode is used when a call names none.
func NewCandidatesTool(e *engine.Engine, mode team.Mode) *CandidatesTool {
	return &CandidatesTool{engine: e, mode: mode}
}

// Definition returns the MCP tool definition for registration.
func (t *CandidatesTool) Definition() mcp.Tool {
	return mcp.NewTool("team_candidates",
		mcp.WithDescription(
			"Show the top-ranked candidates for every task of an order, plus how many more exist. "+
				"Rankings are stored with the order so repeated calls are cheap.",
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
		mcp.WithNumber("top",
			mcp.Description("Candidates to show per task (default: 3)"),
		),
	)
}

// Handle processes the team_candidates tool call.
func (t *CandidatesTool) Handle(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
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
	top := intArg(req, "top", defaultTopN)
	if top < 1 {
		top = defaultTopN
	}

	snap, hit := t.engine.SnapshotCandidates(orderID, tasks, members, mode)

	source := "computed"
	if hit {
		source = "cached"
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "## Candidates for order %s\n\n", orderID)
	fmt.Fprintf(&sb, "**Mode:** %s | **Source:** %s\n", mode, source)

	keys := recommend.TaskKeys(tasks)
	for i, task := range tasks {
		list := snap[keys[i]]
		fmt.Fprintf(&sb, "\n### %s\n\n", taskLabel(task, i))
		if len(list) == 0 {
			sb.WriteString("No candidates: the team is empty.\n")
			continue
		}
		for n, c := range list {
			if n >= top {
				fmt.Fprintf(&sb, "- _+%d more_\n", len(list)-top)
				break
			}
			fit := "fits"
			if !c.CanAssign {
				fit = "insufficient capacity"
			}
			fmt.Fprintf(&sb, "%d. **%s** (%s) %s, %s effective, %s/h, speed %s\n",
				n+1, c.MemberID, c.Tier, fit, hours(c.EffectiveHours),
				money(c.HourlyRate), cast.ToString(c.SpeedFactor))
		}
	}
	return mcp.NewToolResultText(sb.String()), nil
}
