// Package split divides a task's hours across several members' weekly
// buckets instead of awarding the task to one person.
//
// Candidates are ranked with the same mode ordering the scheduler uses,
// without requiring any one of them to have room for the whole task, and
// the role ladder decides who is asked first. Hours are drained from the
// best candidate first, earliest week first, then from the next candidate,
// until the task is covered or the team runs out of room. A task that came
// out of a split is never split again.
package split

import (
	"fmt"
	"math"

	"github.com/HendryAvila/teamfit/internal/capacity"
	"github.com/HendryAvila/teamfit/internal/matcher"
	"github.com/HendryAvila/teamfit/internal/scheduler"
	"github.com/HendryAvila/teamfit/internal/team"
)

// Portion is the share of a task placed on one member.
type Portion struct {
	team.MatchResult
	// Hours is the share of the task's baseline estimate this member covers.
	Hours float64 `json:"hours"`
	// Weekly is the member-effective time deducted per week.
	Weekly team.Hours `json:"weekly"`
}

// Subtask returns the child task this portion represents. Children carry
// SplitFrom and are never split again.
func (p Portion) Subtask(parent team.Task, n int) team.Task {
	return team.Task{
		ID:             fmt.Sprintf("%s.%d", parent.Key(0), n),
		Title:          parent.Title,
		Role:           parent.Role,
		EstimatedHours: p.Hours,
		Splittable:     team.Bool(false),
		OrderID:        parent.OrderID,
		SplitFrom:      parent.Key(0),
	}
}

// Splitter apportions splittable tasks.
type Splitter struct {
	scheduler *scheduler.Scheduler
}

// New creates a Splitter. Atomic tasks are delegated to the scheduler so
// they land exactly where a scheduling pass would put them.
func New(s *scheduler.Scheduler) *Splitter {
	return &Splitter{scheduler: s}
}

// SplitAssign places the task's hours on one or more members. assigned is
// read-only; the returned portions carry the deductions a caller should
// commit if it accepts them.
func (sp *Splitter) SplitAssign(task team.Task, members []team.Member, assigned capacity.Ledger, mode team.Mode) []Portion {
	task = task.Normalize()
	members = team.NormalizeMembers(members)
	if len(members) == 0 {
		return nil
	}
	if !task.CanSplit() {
		return sp.atomic(task, members, assigned, mode)
	}

	ledger := assigned.Clone()
	ranked := sp.candidates(task, members, ledger, mode)

	var portions []Portion
	remaining := task.EstimatedHours
	for _, r := range ranked {
		if remaining <= 0 {
			break
		}
		total := capacity.TotalAvailable(r.Member, ledger)
		// Raw hours the member can cover with the time they have left.
		covers := math.Floor(total * r.Member.SpeedFactor)
		take := math.Min(remaining, covers)
		if take <= 0 {
			continue
		}
		eff := math.Min(capacity.EffectiveFor(take, r.Member), total)
		weekly := ledger.Commit(r.Member, eff)

		r.EffectiveHours = eff
		r.CanAssign = true
		portions = append(portions, Portion{MatchResult: r, Hours: take, Weekly: weekly})
		remaining -= take
	}
	return portions
}

// atomic places an unsplittable task on a single member, exactly as a
// scheduling pass over that task alone would.
func (sp *Splitter) atomic(task team.Task, members []team.Member, assigned capacity.Ledger, mode team.Mode) []Portion {
	res := sp.scheduler.Run([]team.Task{task}, members, assigned, mode)
	if len(res.Decisions) == 0 {
		return nil
	}
	d := res.Decisions[0]
	for _, m := range members {
		if m.ID != d.MemberID {
			continue
		}
		r := capacity.Evaluate(task, m, assigned)
		r.Role = d.Role
		r.Tier = d.Tier
		r.ExactRole = d.Tier == team.TierExact
		return []Portion{{
			MatchResult: r,
			Hours:       task.EstimatedHours,
			Weekly:      subtract(res.Ledger.Used(m.ID), assigned.Used(m.ID)),
		}}
	}
	return nil
}

// candidates ranks the tier pool for the task, then the cross-functional
// pool, then the rest of the team. Each stage is ranked on its own and a
// member appears once, at their earliest stage.
func (sp *Splitter) candidates(task team.Task, members []team.Member, ledger capacity.Ledger, mode team.Mode) []team.MatchResult {
	m := sp.scheduler.Matcher()
	resolver := m.Resolver()
	stats := matcher.ComputeStats(members)
	role := resolver.Resolve(task.Role)

	pool, tier := resolver.Pool(role, members)
	pools := [][]team.Member{pool}
	if tier != team.TierCrossFunctional && role != resolver.CrossFunctional() {
		pools = append(pools, resolver.WithRole(resolver.CrossFunctional(), members))
	}
	pools = append(pools, members)

	var out []team.MatchResult
	seen := make(map[string]bool, len(members))
	for _, p := range pools {
		var fresh []team.Member
		for _, member := range p {
			if !seen[member.ID] {
				seen[member.ID] = true
				fresh = append(fresh, member)
			}
		}
		ranked := m.Rank(task, fresh, ledger, mode, stats)
		matcher.SortByFit(ranked, mode)
		out = append(out, ranked...)
	}
	return out
}

func subtract(a, b team.Hours) team.Hours {
	for i := range a {
		a[i] -= b[i]
	}
	return a
}

// Covered sums the baseline hours placed by the portions.
func Covered(portions []Portion) float64 {
	total := 0.0
	for _, p := range portions {
		total += p.Hours
	}
	return total
}

// Shortfall is the part of the estimate the team had no room for.
func Shortfall(task team.Task, portions []Portion) float64 {
	return math.Max(0, task.Normalize().EstimatedHours-Covered(portions))
}
