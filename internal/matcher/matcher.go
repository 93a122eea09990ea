// Package matcher ranks team members against a single task for one of the
// three optimization modes.
//
// Every member is evaluated, including members without room for the task.
// Infeasible candidates sort after feasible ones so callers can still show
// "insufficient capacity" options instead of an empty list.
package matcher

import (
	"cmp"
	"slices"

	"github.com/HendryAvila/teamfit/internal/capacity"
	"github.com/HendryAvila/teamfit/internal/roles"
	"github.com/HendryAvila/teamfit/internal/team"
)

// Matcher scores members for tasks.
type Matcher struct {
	resolver *roles.Resolver
}

// New creates a Matcher using the given role resolver.
func New(r *roles.Resolver) *Matcher {
	return &Matcher{resolver: r}
}

// Resolver returns the role resolver the matcher was built with.
func (m *Matcher) Resolver() *roles.Resolver { return m.resolver }

// Match evaluates the task against every member and returns them ranked
// for the mode. Team statistics are taken over members.
func (m *Matcher) Match(task team.Task, members []team.Member, l capacity.Ledger, mode team.Mode) []team.MatchResult {
	members = team.NormalizeMembers(members)
	return m.Rank(task.Normalize(), members, l, mode, ComputeStats(members))
}

// Rank is Match over an explicit pool with precomputed team statistics.
// Inputs are expected to be normalized already.
func (m *Matcher) Rank(task team.Task, pool []team.Member, l capacity.Ledger, mode team.Mode, stats Stats) []team.MatchResult {
	role := m.resolver.Resolve(task.Role)
	results := make([]team.MatchResult, 0, len(pool))
	for _, member := range pool {
		r := capacity.Evaluate(task, member, l)
		r.Role = role
		r.Tier = m.tierOf(member, role)
		r.ExactRole = r.Tier == team.TierExact
		r.Deviation = stats.Deviation(member)
		results = append(results, r)
	}
	Sort(results, mode)
	return results
}

// tierOf places a single member on the role ladder for a task role.
func (m *Matcher) tierOf(member team.Member, role string) team.Tier {
	r := m.resolver
	switch {
	case r.HasRole(member, role):
		return team.TierExact
	case r.HasRole(member, r.CrossFunctional()):
		return team.TierCrossFunctional
	}
	for _, c := range r.CompatibilityTier(role) {
		if r.HasRole(member, c) {
			return team.TierCompatible
		}
	}
	if r.HasRole(member, r.Generalist()) {
		return team.TierGeneralist
	}
	return team.TierWholeTeam
}

// Sort orders results in place: feasible first, exact role first, then the
// mode's keys, then member ID.
func Sort(results []team.MatchResult, mode team.Mode) {
	slices.SortStableFunc(results, func(a, b team.MatchResult) int {
		if c := trueFirst(a.CanAssign, b.CanAssign); c != 0 {
			return c
		}
		return compareFit(a, b, mode)
	})
}

// SortByFit orders results without the capacity gate. A task divided
// across members never needs one member to hold all of it.
func SortByFit(results []team.MatchResult, mode team.Mode) {
	slices.SortStableFunc(results, func(a, b team.MatchResult) int {
		return compareFit(a, b, mode)
	})
}

func compareFit(a, b team.MatchResult, mode team.Mode) int {
	if c := trueFirst(a.ExactRole, b.ExactRole); c != 0 {
		return c
	}
	if c := CompareMode(a, b, mode); c != 0 {
		return c
	}
	return cmp.Compare(a.Member.ID, b.Member.ID)
}

// CompareMode applies only the mode-specific keys.
func CompareMode(a, b team.MatchResult, mode team.Mode) int {
	switch mode {
	case team.ModeFastest:
		if c := cmp.Compare(b.Member.SpeedFactor, a.Member.SpeedFactor); c != 0 {
			return c
		}
		return cmp.Compare(b.TotalAvailable, a.TotalAvailable)
	case team.ModeCheapest:
		if c := cmp.Compare(a.Member.HourlyRate, b.Member.HourlyRate); c != 0 {
			return c
		}
		if c := cmp.Compare(weekKey(a.NextAvailableWeek), weekKey(b.NextAvailableWeek)); c != 0 {
			return c
		}
		return cmp.Compare(b.Member.SpeedFactor, a.Member.SpeedFactor)
	default:
		if c := cmp.Compare(a.Deviation, b.Deviation); c != 0 {
			return c
		}
		return cmp.Compare(b.TotalAvailable, a.TotalAvailable)
	}
}

// weekKey sorts "no free week" (-1) after every real week.
func weekKey(w int) int {
	if w < 0 {
		return team.Weeks
	}
	return w
}

func trueFirst(a, b bool) int {
	switch {
	case a == b:
		return 0
	case a:
		return -1
	default:
		return 1
	}
}

// Feasible filters results down to members that can take the whole task.
func Feasible(results []team.MatchResult) []team.MatchResult {
	var out []team.MatchResult
	for _, r := range results {
		if r.CanAssign {
			out = append(out, r)
		}
	}
	return out
}
