package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/teamfit/internal/engine"
)

// CacheInvalidateTool handles the team_cache_invalidate MCP tool.
type CacheInvalidateTool struct {
	engine *engine.Engine
}

// NewCacheInvalidateTool creates a CacheInvalidateTool.
func NewCacheInvalidateTool(e *engine.Engine) *CacheInvalidateTool {
	return &CacheInvalidateTool{engine: e}
}

// Definition returns the MCP tool definition for registration.
func (t *CacheInvalidateTool) Definition() mcp.Tool {
	return mcp.NewTool("team_cache_invalidate",
		mcp.WithDescription(
			"Drop everything cached for an order: best picks and candidate snapshots for every mode. "+
				"Normally unnecessary, since changes to the team or tasks are detected automatically.",
		),
		mcp.WithString("order_id",
			mcp.Required(),
			mcp.Description("Order whose cache entry should be removed"),
		),
	)
}

// Handle processes the team_cache_invalidate tool call.
func (t *CacheInvalidateTool) Handle(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	orderID := strings.TrimSpace(req.GetString("order_id", ""))
	if orderID == "" {
		return mcp.NewToolResultError("'order_id' is required"), nil
	}
	_, existed := t.engine.CachedOrder(orderID)
	if err := t.engine.InvalidateOrder(orderID); err != nil {
		return errorResult("failed to invalidate cache", err), nil
	}
	if !existed {
		return mcp.NewToolResultText(fmt.Sprintf("Nothing was cached for order %s.", orderID)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Cache for order %s cleared. The next recommendation will be recomputed.", orderID)), nil
}
