// Package prompts implements MCP prompt handlers for teamfit.
//
// MCP prompts are user-triggered workflows (like slash commands) that
// instruct the AI to execute a specific sequence. Unlike tools (which
// the AI calls), prompts are initiated by the user.
package prompts

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/teamfit/internal/team"
)

// StaffPrompt handles the staff-order MCP prompt.
// It walks the AI through staffing an order end to end.
type StaffPrompt struct {
	mode team.Mode
}

// NewStaffPrompt creates a StaffPrompt. mode is used when the user names none.
func NewStaffPrompt(mode team.Mode) *StaffPrompt {
	return &StaffPrompt{mode: mode}
}

// Definition returns the MCP prompt definition for registration.
func (p *StaffPrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("staff-order",
		mcp.WithPromptDescription(
			"Staff an order: collect the team and tasks, pick a mode, "+
				"assign every task and flag anything the team cannot cover.",
		),
		mcp.WithArgument("order_id",
			mcp.ArgumentDescription("Order to staff"),
		),
		mcp.WithArgument("mode",
			mcp.ArgumentDescription("Optimization mode: 'fastest', 'balanced' or 'cheapest'"),
		),
	)
}

// Handle processes the staff-order prompt request.
func (p *StaffPrompt) Handle(_ context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	orderID := "new-order"
	mode := p.mode
	if args := req.Params.Arguments; args != nil {
		if id, ok := args["order_id"]; ok && id != "" {
			orderID = id
		}
		if m, ok := args["mode"]; ok && m != "" {
			parsed, err := team.ParseMode(m)
			if err != nil {
				return nil, fmt.Errorf("staff-order: %w", err)
			}
			mode = parsed
		}
	}

	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Staff order %s (%s)", orderID, mode),
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.NewTextContent(fmt.Sprintf(
					"I need to staff order '%s' in %s mode.\n\n"+
						"Please:\n"+
						"1. Ask me for the team (id, roles, hourly rate, speed factor, weekly hours) and the task list (id, role, estimated hours)\n"+
						"2. Run `team_resolve_role` on any role label you are unsure about and confirm the mapping with me\n"+
						"3. Run `team_recommend` with order_id='%s' and mode='%s'\n"+
						"4. For any task that overbooks its member or lands outside its role, run `team_candidates` and show me the alternatives\n"+
						"5. If the order does not fit, run `team_plan` with split=true and report the shortfall\n\n"+
						"%s",
					orderID, mode, orderID, mode, modeHint(mode),
				)),
			},
		},
	}, nil
}

func modeHint(mode team.Mode) string {
	switch mode {
	case team.ModeFastest:
		return "**Fastest** spreads tasks across as many people as possible and prefers the quickest members."
	case team.ModeCheapest:
		return "**Cheapest** always takes the lowest hourly rate that has room for the task."
	default:
		return "**Balanced** keeps work with the people already on the order, unless they are much slower than the team median."
	}
}
