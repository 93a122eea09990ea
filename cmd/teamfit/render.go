package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cast"

	"github.com/HendryAvila/teamfit/internal/capacity"
	"github.com/HendryAvila/teamfit/internal/engine"
	"github.com/HendryAvila/teamfit/internal/roles"
	"github.com/HendryAvila/teamfit/internal/team"
)

// order is the content of a plan input file.
type order struct {
	ID       string
	Members  []team.Member
	Tasks    []team.Task
	Assigned capacity.Ledger
}

func loadOrder(path string) (order, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return order{}, fmt.Errorf("reading order: %w", err)
	}
	var doc struct {
		OrderID  string          `json:"order_id"`
		Members  json.RawMessage `json:"members"`
		Tasks    json.RawMessage `json:"tasks"`
		Assigned json.RawMessage `json:"assigned"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return order{}, fmt.Errorf("parsing %s: %w", path, err)
	}
	members, err := team.DecodeMembers(doc.Members)
	if err != nil {
		return order{}, err
	}
	tasks, err := team.DecodeTasks(doc.Tasks)
	if err != nil {
		return order{}, err
	}
	if len(tasks) == 0 {
		return order{}, fmt.Errorf("%s has no tasks", path)
	}
	used, err := team.DecodeLedger(doc.Assigned)
	if err != nil {
		return order{}, err
	}
	return order{ID: doc.OrderID, Members: members, Tasks: tasks, Assigned: capacity.FromMap(used)}, nil
}

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#4D96FF"))
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))
)

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		Headers(headers...)
}

func renderPlan(o order, p engine.Plan) string {
	var sb strings.Builder
	title := fmt.Sprintf("Staffing plan (%s)", p.Mode)
	if o.ID != "" {
		title = fmt.Sprintf("Order %s: staffing plan (%s)", o.ID, p.Mode)
	}
	sb.WriteString(titleStyle.Render(title) + "\n")

	if len(o.Members) == 0 {
		sb.WriteString(warnStyle.Render("Cannot staff this order: the team is empty.") + "\n")
		return sb.String()
	}

	t := newTable("Task", "Member", "Tier", "Covers", "Effective", "Weekly")
	for _, tp := range p.Tasks {
		for n, portion := range tp.Portions {
			label := tp.Task.Key(tp.Index)
			if tp.Split {
				label = portion.Subtask(tp.Task, n+1).ID
			}
			t.Row(label, portion.Member.ID, portion.Tier.String(),
				num(portion.Hours), num(portion.EffectiveHours), weekly(portion.Weekly))
		}
		if tp.Shortfall > 0 {
			t.Row(tp.Task.Key(tp.Index), "-", "-", num(tp.Shortfall)+" unplaced", "-", "-")
		}
	}
	sb.WriteString(t.Render() + "\n")

	fmt.Fprintf(&sb, "Estimated cost: $%.2f\n", p.Cost())
	if last := p.LastWeek(); last >= 0 {
		fmt.Fprintf(&sb, "Finishes by: week %d\n", last+1)
	}
	if short := p.Shortfall(); short > 0 {
		sb.WriteString(warnStyle.Render(fmt.Sprintf("Shortfall: %sh could not be placed", num(short))) + "\n")
	}
	return sb.String()
}

func renderRoles(tbl *roles.Table) string {
	var sb strings.Builder
	sb.WriteString(titleStyle.Render("Role table") + "\n")
	t := newTable("Role", "Aliases", "Compatible")
	for _, r := range tbl.Roles {
		t.Row(r.Name, strings.Join(r.Aliases, ", "), strings.Join(r.Compatible, ", "))
	}
	sb.WriteString(t.Render() + "\n")
	fmt.Fprintf(&sb, "Cross-functional: %s  Generalist: %s\n", tbl.CrossFunctional, tbl.Generalist)
	return sb.String()
}

func num(f float64) string { return cast.ToString(f) }

func weekly(h team.Hours) string {
	parts := make([]string, len(h))
	for i, v := range h {
		parts[i] = num(v)
	}
	return strings.Join(parts, " / ")
}
