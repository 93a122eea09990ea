// Package scheduler assigns every task of an order to a team member in one
// greedy pass per mode.
//
// Tasks are taken largest first. Each task gets a candidate pool from the
// role ladder, gated by capacity, and the mode's pick policy chooses one
// member. When nothing qualifies the scheduler retries with the
// cross-functional role, then the whole team ignoring role, and finally
// sweeps any gap with the mode's global tie-break. With a non-empty team
// every task ends up assigned.
//
// The fastest and balanced policies are separate algorithms;
// they are not two weightings of one score.
package scheduler

import (
	"cmp"
	"slices"

	"github.com/HendryAvila/teamfit/internal/capacity"
	"github.com/HendryAvila/teamfit/internal/matcher"
	"github.com/HendryAvila/teamfit/internal/team"
)

// continuityFloor is the share of the team's median speed a member must
// reach before balanced mode keeps piling work onto them.
const continuityFloor = 0.9

// Logger receives operator-facing notices such as role-taxonomy gaps.
type Logger interface {
	Printf(format string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Printf(string, ...any) {}

// Stage records which step of the fallback chain produced a pick.
type Stage string

const (
	StagePool            Stage = "pool"
	StageCrossFunctional Stage = "cross_functional"
	StageWholeTeam       Stage = "whole_team"
	StageFinalSweep      Stage = "final_sweep"
)

// Decision explains one assignment.
type Decision struct {
	TaskIndex      int       `json:"task_index"`
	TaskID         string    `json:"task_id,omitempty"`
	MemberID       string    `json:"member_id"`
	Role           string    `json:"role"`
	Tier           team.Tier `json:"tier"`
	Stage          Stage     `json:"stage"`
	EffectiveHours float64   `json:"effective_hours"`
	// Overbooked is set when the member lacked room for the whole task.
	Overbooked bool `json:"overbooked,omitempty"`
}

// Result is the full output of a scheduling pass.
type Result struct {
	Assignments team.Assignments
	// Ledger is the private capacity state after the pass.
	Ledger    capacity.Ledger
	Decisions []Decision
}

// Scheduler runs greedy assignment passes. It holds no per-call state and
// is safe for concurrent use.
type Scheduler struct {
	matcher *matcher.Matcher
	logger  Logger
}

// New creates a Scheduler. A nil logger discards notices.
func New(m *matcher.Matcher, logger Logger) *Scheduler {
	if logger == nil {
		logger = nopLogger{}
	}
	return &Scheduler{matcher: m, logger: logger}
}

// Matcher returns the matcher the scheduler ranks with.
func (s *Scheduler) Matcher() *matcher.Matcher { return s.matcher }

// ScheduleAll returns task index -> member ID for every task. prior holds
// hours already committed per member and is never modified.
func (s *Scheduler) ScheduleAll(tasks []team.Task, members []team.Member, prior capacity.Ledger, mode team.Mode) team.Assignments {
	return s.Run(tasks, members, prior, mode).Assignments
}

// Run is ScheduleAll with the final ledger and per-task decisions.
func (s *Scheduler) Run(tasks []team.Task, members []team.Member, prior capacity.Ledger, mode team.Mode) Result {
	tasks = team.NormalizeTasks(tasks)
	members = team.NormalizeMembers(members)

	res := Result{
		Assignments: make(team.Assignments, len(tasks)),
		Ledger:      prior.Clone(),
	}
	if len(members) == 0 {
		if len(tasks) > 0 {
			s.logger.Printf("scheduler: %d task(s) left unstaffed: member pool is empty", len(tasks))
		}
		return res
	}

	p := &pass{
		s:       s,
		mode:    mode,
		members: members,
		stats:   matcher.ComputeStats(members),
		ledger:  res.Ledger,
		count:   make(map[string]int, len(members)),
	}

	for _, i := range LargestFirst(tasks) {
		d := p.assign(i, tasks[i])
		res.Assignments[i] = d.MemberID
		res.Decisions = append(res.Decisions, d)
	}

	// Final sweep over anything the per-task loop left unassigned.
	for i, t := range tasks {
		if _, ok := res.Assignments[i]; ok {
			continue
		}
		m := p.globalPick()
		d := p.commit(i, t, p.s.matcher.Rank(t, []team.Member{m}, p.ledger, mode, p.stats)[0], team.TierWholeTeam, StageFinalSweep)
		s.logger.Printf("scheduler: final sweep assigned task %s to %s", t.Key(i), m.ID)
		res.Assignments[i] = d.MemberID
		res.Decisions = append(res.Decisions, d)
	}

	slices.SortFunc(res.Decisions, func(a, b Decision) int { return cmp.Compare(a.TaskIndex, b.TaskIndex) })
	return res
}

// LargestFirst returns task indices ordered by estimated hours descending,
// stable on index. Committing big tasks first keeps remaining capacity
// less fragmented.
func LargestFirst(tasks []team.Task) []int {
	order := make([]int, len(tasks))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		return cmp.Compare(tasks[b].EstimatedHours, tasks[a].EstimatedHours)
	})
	return order
}

// ─── Pass state ──────────────────────────────────────────────────────────────

// pass holds the private, mutable state of one ScheduleAll call.
type pass struct {
	s       *Scheduler
	mode    team.Mode
	members []team.Member
	stats   matcher.Stats
	ledger  capacity.Ledger
	// count is tasks awarded per member in this pass.
	count map[string]int
}

func (p *pass) assign(i int, t team.Task) Decision {
	resolver := p.s.matcher.Resolver()
	role := resolver.Resolve(t.Role)

	pool, tier := resolver.Pool(role, p.members)
	if r, ok := p.pick(t, pool); ok {
		if tier == team.TierGeneralist {
			p.s.logger.Printf("scheduler: task %s role %q staffed from generalist pool (%s); check the role table", t.Key(i), role, r.Member.ID)
		}
		return p.commit(i, t, r, tier, StagePool)
	}

	cross := resolver.CrossFunctional()
	if tier != team.TierCrossFunctional && role != cross {
		if r, ok := p.pick(t, resolver.WithRole(cross, p.members)); ok {
			return p.commit(i, t, r, team.TierCrossFunctional, StageCrossFunctional)
		}
	}

	r := p.wholeTeam(t)
	p.s.logger.Printf("scheduler: task %s role %q has no qualified member (tier %s); assigned %s ignoring role", t.Key(i), role, tier, r.Member.ID)
	return p.commit(i, t, r, team.TierWholeTeam, StageWholeTeam)
}

func (p *pass) commit(i int, t team.Task, r team.MatchResult, tier team.Tier, stage Stage) Decision {
	p.ledger.Commit(r.Member, r.EffectiveHours)
	p.count[r.Member.ID]++
	return Decision{
		TaskIndex:      i,
		TaskID:         t.ID,
		MemberID:       r.Member.ID,
		Role:           r.Role,
		Tier:           tier,
		Stage:          stage,
		EffectiveHours: r.EffectiveHours,
		Overbooked:     !r.CanAssign,
	}
}

// pick applies the mode's policy to the feasible members of a pool.
func (p *pass) pick(t team.Task, pool []team.Member) (team.MatchResult, bool) {
	if len(pool) == 0 {
		return team.MatchResult{}, false
	}
	feasible := matcher.Feasible(p.s.matcher.Rank(t, pool, p.ledger, p.mode, p.stats))
	if len(feasible) == 0 {
		return team.MatchResult{}, false
	}
	switch p.mode {
	case team.ModeFastest:
		return p.pickFastest(feasible), true
	case team.ModeCheapest:
		return pickCheapest(feasible), true
	default:
		return p.pickBalanced(feasible), true
	}
}

// pickFastest spreads work: the best-ranked member not yet used in this
// pass wins. Once everyone has work, the member whose total load after the
// task is smallest wins, then the faster one.
func (p *pass) pickFastest(ranked []team.MatchResult) team.MatchResult {
	for _, r := range ranked {
		if p.count[r.Member.ID] == 0 {
			return r
		}
	}
	best := ranked[0]
	bestLoad := p.ledger.TotalUsed(best.Member.ID) + best.EffectiveHours
	for _, r := range ranked[1:] {
		load := p.ledger.TotalUsed(r.Member.ID) + r.EffectiveHours
		switch {
		case load < bestLoad:
			best, bestLoad = r, load
		case load == bestLoad && r.Member.SpeedFactor > best.Member.SpeedFactor:
			best, bestLoad = r, load
		case load == bestLoad && r.Member.SpeedFactor == best.Member.SpeedFactor && r.Member.ID < best.Member.ID:
			best, bestLoad = r, load
		}
	}
	return best
}

// pickBalanced keeps work with whoever already holds the most tasks in this
// order; ties keep rank order. When that member is markedly slower than the
// team median, the top-ranked candidate wins instead.
func (p *pass) pickBalanced(ranked []team.MatchResult) team.MatchResult {
	var holder *team.MatchResult
	for i := range ranked {
		r := &ranked[i]
		n := p.count[r.Member.ID]
		if n == 0 {
			continue
		}
		if holder == nil || n > p.count[holder.Member.ID] {
			holder = r
		}
	}
	if holder == nil || holder.Member.SpeedFactor < continuityFloor*p.stats.MedianSpeed {
		return ranked[0]
	}
	return *holder
}

// pickCheapest takes the lowest hourly rate; ties keep rank order.
func pickCheapest(ranked []team.MatchResult) team.MatchResult {
	best := ranked[0]
	for _, r := range ranked[1:] {
		if r.Member.HourlyRate < best.Member.HourlyRate {
			best = r
		}
	}
	return best
}

// wholeTeam ignores role and orders the team by the mode's primary key.
// Members with room are preferred; when nobody has room the task is still
// placed, overbooking the chosen member.
func (p *pass) wholeTeam(t team.Task) team.MatchResult {
	ranked := p.s.matcher.Rank(t, p.members, p.ledger, p.mode, p.stats)
	candidates := matcher.Feasible(ranked)
	if len(candidates) == 0 {
		candidates = ranked
	}
	slices.SortStableFunc(candidates, func(a, b team.MatchResult) int {
		if c := p.primaryKey(a.Member, b.Member); c != 0 {
			return c
		}
		return cmp.Compare(a.Member.ID, b.Member.ID)
	})
	return candidates[0]
}

// globalPick is the final-sweep tie-break: fastest member, median-speed
// member, or cheapest member.
func (p *pass) globalPick() team.Member {
	best := p.members[0]
	for _, m := range p.members[1:] {
		c := p.primaryKey(m, best)
		if c < 0 || (c == 0 && m.ID < best.ID) {
			best = m
		}
	}
	return best
}

// primaryKey compares two members on the mode's role-free ordering key.
func (p *pass) primaryKey(a, b team.Member) int {
	switch p.mode {
	case team.ModeFastest:
		return cmp.Compare(b.SpeedFactor, a.SpeedFactor)
	case team.ModeCheapest:
		return cmp.Compare(a.HourlyRate, b.HourlyRate)
	default:
		return cmp.Compare(p.stats.MedianDistance(a), p.stats.MedianDistance(b))
	}
}
