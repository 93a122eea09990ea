package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/teamfit/internal/engine"
)

// ResolveRoleTool handles the team_resolve_role MCP tool.
// It maps free-text role labels to canonical roles and shows the
// fallback ladder each one uses.
type ResolveRoleTool struct {
	engine *engine.Engine
}

// NewResolveRoleTool creates a ResolveRoleTool.
func NewResolveRoleTool(e *engine.Engine) *ResolveRoleTool {
	return &ResolveRoleTool{engine: e}
}

// Definition returns the MCP tool definition for registration.
func (t *ResolveRoleTool) Definition() mcp.Tool {
	return mcp.NewTool("team_resolve_role",
		mcp.WithDescription(
			"Resolve free-text role labels (e.g. 'Senior React Dev', 'UX researcher') to canonical roles. "+
				"Shows the fallback ladder used when no exact match is on the team: "+
				"cross-functional role, compatible roles, then the generalist pool.",
		),
		mcp.WithString("roles",
			mcp.Required(),
			mcp.Description("One role label, or several separated by commas or newlines"),
		),
	)
}

// Handle processes the team_resolve_role tool call.
func (t *ResolveRoleTool) Handle(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw := req.GetString("roles", "")
	labels := strings.FieldsFunc(raw, func(r rune) bool { return r == ',' || r == '\n' })

	r := t.engine.Roles()
	var sb strings.Builder
	sb.WriteString("## Role Resolution\n\n")
	sb.WriteString("| Label | Canonical | Compatible |\n")
	sb.WriteString("|-------|-----------|------------|\n")
	n := 0
	for _, label := range labels {
		label = strings.TrimSpace(label)
		if label == "" {
			continue
		}
		n++
		role := r.Resolve(label)
		compat := strings.Join(r.CompatibilityTier(role), ", ")
		if compat == "" {
			compat = "-"
		}
		fmt.Fprintf(&sb, "| %s | %s | %s |\n", label, role, compat)
	}
	if n == 0 {
		return mcp.NewToolResultError("'roles' is required"), nil
	}

	fmt.Fprintf(&sb, "\nCross-functional role: **%s**. Generalist pool: **%s**.\n", r.CrossFunctional(), r.Generalist())
	return mcp.NewToolResultText(sb.String()), nil
}
