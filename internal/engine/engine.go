// Package engine wires the role resolver, matcher, scheduler, splitter and
// recommendation cache into the single in-process API the rest of teamfit
// talks to.
package engine

import (
	"cmp"
	"slices"

	"github.com/HendryAvila/teamfit/internal/capacity"
	"github.com/HendryAvila/teamfit/internal/kvstore"
	"github.com/HendryAvila/teamfit/internal/matcher"
	"github.com/HendryAvila/teamfit/internal/recommend"
	"github.com/HendryAvila/teamfit/internal/roles"
	"github.com/HendryAvila/teamfit/internal/scheduler"
	"github.com/HendryAvila/teamfit/internal/split"
	"github.com/HendryAvila/teamfit/internal/team"
)

// Engine is the assignment engine. All methods are synchronous and safe for
// concurrent use; none of them mutate their arguments.
type Engine struct {
	resolver  *roles.Resolver
	matcher   *matcher.Matcher
	scheduler *scheduler.Scheduler
	splitter  *split.Splitter
	cache     *recommend.Cache
}

// New builds an Engine. A nil store keeps the cache in memory; a nil logger
// discards notices.
func New(resolver *roles.Resolver, store kvstore.Store, logger scheduler.Logger) *Engine {
	if store == nil {
		store = kvstore.NewMemory()
	}
	m := matcher.New(resolver)
	s := scheduler.New(m, logger)
	return &Engine{
		resolver:  resolver,
		matcher:   m,
		scheduler: s,
		splitter:  split.New(s),
		cache:     recommend.New(store, s, logger),
	}
}

// Roles returns the resolver in use.
func (e *Engine) Roles() *roles.Resolver { return e.resolver }

// ResolveRole maps free text to a canonical role.
func (e *Engine) ResolveRole(raw string) string {
	return e.resolver.Resolve(raw)
}

// Match ranks every member for one task.
func (e *Engine) Match(task team.Task, members []team.Member, assigned capacity.Ledger, mode team.Mode) []team.MatchResult {
	return e.matcher.Match(task, members, assigned, mode)
}

// ScheduleAll assigns every task to one member.
func (e *Engine) ScheduleAll(tasks []team.Task, members []team.Member, prior capacity.Ledger, mode team.Mode) team.Assignments {
	return e.scheduler.ScheduleAll(tasks, members, prior, mode)
}

// Schedule is ScheduleAll with the final ledger and per-task decisions.
func (e *Engine) Schedule(tasks []team.Task, members []team.Member, prior capacity.Ledger, mode team.Mode) scheduler.Result {
	return e.scheduler.Run(tasks, members, prior, mode)
}

// SplitAssign apportions one task across members.
func (e *Engine) SplitAssign(task team.Task, members []team.Member, assigned capacity.Ledger, mode team.Mode) []split.Portion {
	return e.splitter.SplitAssign(task, members, assigned, mode)
}

// GetOrComputeAssignments is ScheduleAll memoized per order.
func (e *Engine) GetOrComputeAssignments(orderID string, tasks []team.Task, members []team.Member, mode team.Mode) (team.Assignments, bool) {
	return e.cache.GetOrCompute(orderID, tasks, members, mode)
}

// SnapshotCandidates returns the stored ranked candidates per task key.
func (e *Engine) SnapshotCandidates(orderID string, tasks []team.Task, members []team.Member, mode team.Mode) (map[string][]recommend.Candidate, bool) {
	return e.cache.SnapshotCandidates(orderID, tasks, members, mode)
}

// InvalidateOrder drops the cached document for an order.
func (e *Engine) InvalidateOrder(orderID string) error {
	return e.cache.Invalidate(orderID)
}

// CachedOrder returns the cached document for an order.
func (e *Engine) CachedOrder(orderID string) (*recommend.OrderCache, bool) {
	return e.cache.Load(orderID)
}

// ─── Plan ────────────────────────────────────────────────────────────────────

// TaskPlan is how one task was staffed.
type TaskPlan struct {
	Index    int             `json:"index"`
	Task     team.Task       `json:"task"`
	Split    bool            `json:"split"`
	Portions []split.Portion `json:"portions"`
	// Shortfall is the baseline hours the team had no room for.
	Shortfall float64 `json:"shortfall,omitempty"`
}

// Plan is a full staffing of an order.
type Plan struct {
	Mode   team.Mode       `json:"mode"`
	Tasks  []TaskPlan      `json:"tasks"`
	Ledger capacity.Ledger `json:"ledger"`
}

// Cost is the sum of effective hours times hourly rate over every portion.
func (p Plan) Cost() float64 {
	total := 0.0
	for _, t := range p.Tasks {
		for _, portion := range t.Portions {
			total += portion.EffectiveHours * portion.Member.HourlyRate
		}
	}
	return total
}

// Shortfall sums unplaced hours across the plan.
func (p Plan) Shortfall() float64 {
	total := 0.0
	for _, t := range p.Tasks {
		total += t.Shortfall
	}
	return total
}

// LastWeek is the latest week index any member is booked in, or -1.
func (p Plan) LastWeek() int {
	last := -1
	for _, h := range p.Ledger {
		for w := team.Weeks - 1; w > last; w-- {
			if h[w] > 0 {
				last = w
				break
			}
		}
	}
	return last
}

// Plan staffs a whole order. Unsplittable tasks are placed first by the
// scheduler; with allowSplit, splittable tasks are then divided largest
// first over whatever capacity is left. Without allowSplit every task goes
// through the scheduler.
func (e *Engine) Plan(tasks []team.Task, members []team.Member, prior capacity.Ledger, mode team.Mode, allowSplit bool) Plan {
	tasks = team.NormalizeTasks(tasks)
	members = team.NormalizeMembers(members)

	var atomic, splittable []int
	for i, t := range tasks {
		if allowSplit && t.CanSplit() {
			splittable = append(splittable, i)
		} else {
			atomic = append(atomic, i)
		}
	}

	plan := Plan{Mode: mode, Tasks: make([]TaskPlan, len(tasks))}

	sub := make([]team.Task, len(atomic))
	for j, i := range atomic {
		sub[j] = tasks[i]
	}
	res := e.scheduler.Run(sub, members, prior, mode)
	byID := make(map[string]team.Member, len(members))
	for _, m := range members {
		byID[m.ID] = m
	}
	decisions := make(map[int]scheduler.Decision, len(res.Decisions))
	for _, d := range res.Decisions {
		decisions[d.TaskIndex] = d
	}
	// Replay the scheduler's commits in its own order to recover each
	// task's weekly deduction.
	replay := prior.Clone()
	for _, j := range scheduler.LargestFirst(sub) {
		d, ok := decisions[j]
		if !ok {
			continue
		}
		t, m := sub[j], byID[d.MemberID]
		r := capacity.Evaluate(t, m, replay)
		r.Role, r.Tier, r.ExactRole = d.Role, d.Tier, d.Tier == team.TierExact
		weekly := replay.Commit(m, d.EffectiveHours)
		i := atomic[j]
		plan.Tasks[i] = TaskPlan{
			Index:    i,
			Task:     t,
			Portions: []split.Portion{{MatchResult: r, Hours: t.EstimatedHours, Weekly: weekly}},
		}
	}
	for j, i := range atomic {
		if plan.Tasks[i].Portions == nil {
			plan.Tasks[i] = TaskPlan{Index: i, Task: tasks[i], Shortfall: sub[j].EstimatedHours}
		}
	}

	ledger := res.Ledger
	slices.SortStableFunc(splittable, func(a, b int) int {
		return cmp.Compare(tasks[b].EstimatedHours, tasks[a].EstimatedHours)
	})
	for _, i := range splittable {
		t := tasks[i]
		portions := e.splitter.SplitAssign(t, members, ledger, mode)
		for _, p := range portions {
			ledger.Deduct(p.Member.ID, p.Weekly)
		}
		plan.Tasks[i] = TaskPlan{
			Index:     i,
			Task:      t,
			Split:     len(portions) > 1,
			Portions:  portions,
			Shortfall: split.Shortfall(t, portions),
		}
	}

	plan.Ledger = ledger
	return plan
}
