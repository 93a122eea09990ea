// Package tools implements the MCP tool handlers that expose the assignment
// engine.
//
// Each tool is a struct holding its dependencies, with Definition()
// returning the mcp.Tool schema and Handle() processing a call. Members,
// tasks and committed hours arrive as JSON (either a string or an inline
// array/object); responses are markdown.
package tools

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/spf13/cast"

	"github.com/HendryAvila/teamfit/internal/capacity"
	"github.com/HendryAvila/teamfit/internal/team"
)

// ─── Argument decoding ───────────────────────────────────────────────────────

// rawArg returns an argument as JSON bytes. Clients send either a JSON
// string or an already-decoded value; both are accepted.
func rawArg(req mcp.CallToolRequest, key string) ([]byte, bool) {
	v, ok := req.GetArguments()[key]
	if !ok || v == nil {
		return nil, false
	}
	if s, isString := v.(string); isString {
		s = strings.TrimSpace(s)
		return []byte(s), s != ""
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, false
	}
	return data, true
}

func membersArg(req mcp.CallToolRequest) ([]team.Member, error) {
	data, ok := rawArg(req, "members")
	if !ok {
		return nil, fmt.Errorf("'members' is required")
	}
	members, err := team.DecodeMembers(data)
	if err != nil {
		return nil, err
	}
	return members, nil
}

func tasksArg(req mcp.CallToolRequest) ([]team.Task, error) {
	data, ok := rawArg(req, "tasks")
	if !ok {
		return nil, fmt.Errorf("'tasks' is required")
	}
	tasks, err := team.DecodeTasks(data)
	if err != nil {
		return nil, err
	}
	if len(tasks) == 0 {
		return nil, fmt.Errorf("'tasks' must contain at least one task")
	}
	return tasks, nil
}

func taskArg(req mcp.CallToolRequest) (team.Task, error) {
	data, ok := rawArg(req, "task")
	if !ok {
		return team.Task{}, fmt.Errorf("'task' is required")
	}
	return team.DecodeTask(data)
}

// ledgerArg reads optional hours already committed per member.
func ledgerArg(req mcp.CallToolRequest) (capacity.Ledger, error) {
	data, ok := rawArg(req, "assigned")
	if !ok {
		return capacity.Ledger{}, nil
	}
	m, err := team.DecodeLedger(data)
	if err != nil {
		return nil, err
	}
	return capacity.FromMap(m), nil
}

func modeArg(req mcp.CallToolRequest, def team.Mode) (team.Mode, error) {
	raw := req.GetString("mode", "")
	if strings.TrimSpace(raw) == "" {
		return def, nil
	}
	return team.ParseMode(raw)
}

// intArg extracts an integer argument, accepting numbers or numeric strings.
func intArg(req mcp.CallToolRequest, key string, defaultVal int) int {
	v, ok := req.GetArguments()[key]
	if !ok {
		return defaultVal
	}
	n, err := cast.ToIntE(v)
	if err != nil {
		return defaultVal
	}
	return n
}

// boolArg extracts a boolean argument, accepting booleans or "true"/"false".
func boolArg(req mcp.CallToolRequest, key string, defaultVal bool) bool {
	v, ok := req.GetArguments()[key]
	if !ok {
		return defaultVal
	}
	b, err := cast.ToBoolE(v)
	if err != nil {
		return defaultVal
	}
	return b
}

// ─── Rendering ───────────────────────────────────────────────────────────────

func hours(h float64) string {
	return cast.ToString(h) + "h"
}

func weeks(h team.Hours) string {
	parts := make([]string, len(h))
	for i, v := range h {
		parts[i] = cast.ToString(v)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func money(f float64) string {
	return fmt.Sprintf("$%.2f", f)
}

func week(w int) string {
	if w < 0 {
		return "none"
	}
	return fmt.Sprintf("W%d", w+1)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func taskLabel(t team.Task, i int) string {
	if t.Title != "" {
		return fmt.Sprintf("%s (%s)", t.Key(i), t.Title)
	}
	return t.Key(i)
}

func memberByID(members []team.Member) map[string]team.Member {
	out := make(map[string]team.Member, len(members))
	for _, m := range members {
		out[m.ID] = m
	}
	return out
}

// writeMatchTable renders ranked candidates as a markdown table.
func writeMatchTable(sb *strings.Builder, results []team.MatchResult, limit int) {
	sb.WriteString("| # | Member | Tier | Fits | Effective | Free | Next week | Rate | Speed |\n")
	sb.WriteString("|---|--------|------|------|-----------|------|-----------|------|-------|\n")
	for i, r := range results {
		if limit > 0 && i >= limit {
			fmt.Fprintf(sb, "\n_%d more candidate(s) not shown._\n", len(results)-limit)
			break
		}
		fmt.Fprintf(sb, "| %d | %s | %s | %s | %s | %s | %s | %s | %s |\n",
			i+1, r.Member.ID, r.Tier, yesNo(r.CanAssign), hours(r.EffectiveHours),
			hours(r.TotalAvailable), week(r.NextAvailableWeek),
			money(r.Member.HourlyRate), cast.ToString(r.Member.SpeedFactor))
	}
}

func errorResult(prefix string, err error) *mcp.CallToolResult {
	return mcp.NewToolResultError(fmt.Sprintf("%s: %v", prefix, err))
}
