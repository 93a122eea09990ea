package prompts

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

// ReviewPrompt handles the review-order MCP prompt.
// It asks the AI to compare the three modes for an order.
type ReviewPrompt struct{}

// NewReviewPrompt creates a ReviewPrompt.
func NewReviewPrompt() *ReviewPrompt {
	return &ReviewPrompt{}
}

// Definition returns the MCP prompt definition for registration.
func (p *ReviewPrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("review-order",
		mcp.WithPromptDescription(
			"Compare fastest, balanced and cheapest staffing for an order "+
				"and recommend one.",
		),
		mcp.WithArgument("order_id",
			mcp.ArgumentDescription("Order to review (required)"),
		),
	)
}

// Handle processes the review-order prompt request.
func (p *ReviewPrompt) Handle(_ context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	orderID := req.Params.Arguments["order_id"]
	if orderID == "" {
		return nil, fmt.Errorf("review-order: order_id is required")
	}

	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Review staffing for order %s", orderID),
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.NewTextContent(fmt.Sprintf(
					"Please review the staffing options for order '%s'.\n\n"+
						"Then:\n"+
						"1. Run `team_plan` once per mode (fastest, balanced, cheapest) with the same team and tasks\n"+
						"2. Show me a side-by-side of estimated cost, finishing week and shortfall for each mode\n"+
						"3. Point out tasks that were overbooked or staffed outside their role\n"+
						"4. Recommend one mode and say what I give up by choosing it",
					orderID,
				)),
			},
		},
	}, nil
}
