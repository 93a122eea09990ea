// Package capacity tracks how many hours each member still has free across
// the four-week planning horizon, and converts task estimates into
// member-specific effective hours.
package capacity

import (
	"math"

	"github.com/HendryAvila/teamfit/internal/team"
)

// Ledger records hours already committed per member ID. A member without an
// entry has committed nothing.
//
// Scheduling passes work on a Clone; the caller's ledger is input only.
type Ledger map[string]team.Hours

// FromMap wraps a decoded map of committed hours.
func FromMap(m map[string]team.Hours) Ledger {
	return Ledger(m).Clone()
}

// Clone returns an independent copy.
func (l Ledger) Clone() Ledger {
	out := make(Ledger, len(l))
	for id, h := range l {
		out[id] = h
	}
	return out
}

// Used returns the committed hours for a member.
func (l Ledger) Used(memberID string) team.Hours {
	return l[memberID]
}

// Remaining is the member's availability minus committed hours, per week,
// never below zero.
func Remaining(m team.Member, l Ledger) team.Hours {
	used := l.Used(m.ID)
	var out team.Hours
	for i := range out {
		out[i] = math.Max(0, m.WeeklyAvailableHours[i]-used[i])
	}
	return out
}

// TotalAvailable sums Remaining across the horizon.
func TotalAvailable(m team.Member, l Ledger) float64 {
	return Remaining(m, l).Sum()
}

// NextAvailableWeek is the index of the first week with free hours, or -1.
func NextAvailableWeek(m team.Member, l Ledger) int {
	for i, h := range Remaining(m, l) {
		if h > 0 {
			return i
		}
	}
	return -1
}

// EffectiveHours converts a baseline estimate into the member's own time:
// ceil(estimatedHours / speedFactor). A non-positive speed counts as 1.0.
func EffectiveHours(t team.Task, m team.Member) float64 {
	return effective(t.EstimatedHours, m.SpeedFactor)
}

func effective(hours, speed float64) float64 {
	if speed <= 0 {
		speed = team.DefaultSpeedFactor
	}
	if hours <= 0 {
		return 0
	}
	// Guard against float noise such as 8/0.8 = 10.000000000000002.
	return math.Ceil(hours/speed - 1e-9)
}

// EffectiveFor converts an arbitrary number of baseline hours for a member.
func EffectiveFor(hours float64, m team.Member) float64 {
	return effective(hours, m.SpeedFactor)
}

// CanAssign reports whether the member has room for the whole task.
func CanAssign(t team.Task, m team.Member, l Ledger) bool {
	return TotalAvailable(m, l) >= EffectiveHours(t, m)
}

// Evaluate fills the capacity fields of a match result.
func Evaluate(t team.Task, m team.Member, l Ledger) team.MatchResult {
	eff := EffectiveHours(t, m)
	total := TotalAvailable(m, l)
	return team.MatchResult{
		Member:            m,
		CanAssign:         total >= eff,
		EffectiveHours:    eff,
		TotalAvailable:    total,
		NextAvailableWeek: NextAvailableWeek(m, l),
	}
}

// Commit books effective hours against a member, earliest week first, and
// returns the per-week deduction. Hours that do not fit are booked into the
// last week so an overbooking stays visible instead of being dropped.
func (l Ledger) Commit(m team.Member, hours float64) team.Hours {
	var deducted team.Hours
	left := hours
	rem := Remaining(m, l)
	for i := 0; i < team.Weeks && left > 0; i++ {
		take := math.Min(rem[i], left)
		deducted[i] = take
		left -= take
	}
	if left > 0 {
		deducted[team.Weeks-1] += left
	}
	l.Deduct(m.ID, deducted)
	return deducted
}

// Deduct adds an explicit per-week deduction.
func (l Ledger) Deduct(memberID string, hours team.Hours) {
	l[memberID] = l[memberID].Add(hours)
}

// TotalUsed is the member's committed hours across the horizon.
func (l Ledger) TotalUsed(memberID string) float64 {
	return l.Used(memberID).Sum()
}
