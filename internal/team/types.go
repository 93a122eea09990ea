// Package team defines the data model shared by every part of the
// assignment engine: members, tasks, match results and assignment maps.
//
// Values in this package are plain data. Nothing here holds state between
// calls; the scheduler and cache receive members and tasks as arguments and
// never mutate them in place.
package team

import (
	"math"
	"strconv"
)

// Weeks is the fixed planning horizon, in weekly buckets.
const Weeks = 4

// Hours is one number per planning week.
type Hours [Weeks]float64

// DefaultWeeklyHours is the availability profile used when a member record
// carries none.
var DefaultWeeklyHours = Hours{40, 40, 40, 40}

const (
	// DefaultSpeedFactor is the baseline throughput multiplier.
	DefaultSpeedFactor = 1.0
	// DefaultEstimatedHours replaces a missing or non-positive estimate.
	DefaultEstimatedHours = 1.0
)

// Sum returns the total across all weeks.
func (h Hours) Sum() float64 {
	total := 0.0
	for _, v := range h {
		total += v
	}
	return total
}

// Add returns h + other, week by week.
func (h Hours) Add(other Hours) Hours {
	for i := range h {
		h[i] += other[i]
	}
	return h
}

// ─── Member ──────────────────────────────────────────────────────────────────

// Member is a person who can be assigned work.
type Member struct {
	ID                   string   `json:"id"`
	Name                 string   `json:"name,omitempty"`
	Roles                []string `json:"roles"`
	HourlyRate           float64  `json:"hourly_rate"`
	SpeedFactor          float64  `json:"speed_factor"`
	WeeklyAvailableHours Hours    `json:"weekly_available_hours"`
	// ExperienceScore is carried for display; scoring ignores it.
	ExperienceScore float64 `json:"experience_score,omitempty"`
}

// Normalize returns a copy with defaults applied to malformed numeric
// fields. A single bad record must never abort scheduling for a whole team.
// An all-zero availability is kept as is: it means fully booked. Absent
// availability is defaulted at decode time.
func (m Member) Normalize() Member {
	if m.SpeedFactor <= 0 || math.IsNaN(m.SpeedFactor) || math.IsInf(m.SpeedFactor, 0) {
		m.SpeedFactor = DefaultSpeedFactor
	}
	if m.HourlyRate < 0 || math.IsNaN(m.HourlyRate) {
		m.HourlyRate = 0
	}
	for i, v := range m.WeeklyAvailableHours {
		if v < 0 || math.IsNaN(v) {
			m.WeeklyAvailableHours[i] = 0
		}
	}
	m.Roles = append([]string(nil), m.Roles...)
	return m
}

// NormalizeMembers applies Normalize to every member.
func NormalizeMembers(members []Member) []Member {
	out := make([]Member, len(members))
	for i, m := range members {
		out[i] = m.Normalize()
	}
	return out
}

// ─── Task ────────────────────────────────────────────────────────────────────

// Task is a unit of work produced by decomposing a goal.
type Task struct {
	ID    string `json:"id"`
	Title string `json:"title,omitempty"`
	// Role is free text; it is resolved to a canonical role before matching.
	Role string `json:"role"`
	// EstimatedHours is the baseline effort at SpeedFactor 1.0.
	EstimatedHours float64 `json:"estimated_hours"`
	// Splittable defaults to true when nil.
	Splittable *bool  `json:"splittable,omitempty"`
	OrderID    string `json:"order_id,omitempty"`
	// SplitFrom names the parent task when this task came out of a split.
	SplitFrom string `json:"split_from,omitempty"`
}

// CanSplit reports whether the task's hours may be divided across members.
// Tasks produced by a prior split are never split again.
func (t Task) CanSplit() bool {
	if t.SplitFrom != "" {
		return false
	}
	return t.Splittable == nil || *t.Splittable
}

// Normalize returns a copy with a usable estimate.
func (t Task) Normalize() Task {
	if t.EstimatedHours <= 0 || math.IsNaN(t.EstimatedHours) || math.IsInf(t.EstimatedHours, 0) {
		t.EstimatedHours = DefaultEstimatedHours
	}
	return t
}

// NormalizeTasks applies Normalize to every task.
func NormalizeTasks(tasks []Task) []Task {
	out := make([]Task, len(tasks))
	for i, t := range tasks {
		out[i] = t.Normalize()
	}
	return out
}

// Key identifies a task inside an order. Tasks without an ID fall back to
// their position.
func (t Task) Key(index int) string {
	if t.ID != "" {
		return t.ID
	}
	return "#" + strconv.Itoa(index)
}

// Bool returns a pointer to b, for Task.Splittable literals.
func Bool(b bool) *bool { return &b }

// ─── Match result ────────────────────────────────────────────────────────────

// Tier says which rung of the role ladder produced a candidate pool.
type Tier int

const (
	TierNone Tier = iota
	TierExact
	TierCrossFunctional
	TierCompatible
	TierGeneralist
	// TierWholeTeam means role was ignored entirely.
	TierWholeTeam
)

// String returns the wire name of the tier.
func (t Tier) String() string {
	switch t {
	case TierExact:
		return "exact"
	case TierCrossFunctional:
		return "cross_functional"
	case TierCompatible:
		return "compatible"
	case TierGeneralist:
		return "generalist"
	case TierWholeTeam:
		return "whole_team"
	default:
		return "none"
	}
}

// MarshalText encodes the tier by name.
func (t Tier) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

// UnmarshalText accepts the names produced by MarshalText. Unknown names
// decode as TierNone.
func (t *Tier) UnmarshalText(b []byte) error {
	*t = TierNone
	for c := TierExact; c <= TierWholeTeam; c++ {
		if c.String() == string(b) {
			*t = c
		}
	}
	return nil
}

// MatchResult is a derived view of one member against one task.
type MatchResult struct {
	Member Member `json:"member"`
	// Role is the task's canonical role.
	Role              string  `json:"role"`
	ExactRole         bool    `json:"exact_role"`
	Tier              Tier    `json:"tier"`
	CanAssign         bool    `json:"can_assign"`
	EffectiveHours    float64 `json:"effective_hours"`
	TotalAvailable    float64 `json:"total_available"`
	NextAvailableWeek int     `json:"next_available_week"`
	// Deviation is the balanced-mode distance from the team's central
	// tendency. Lower is better.
	Deviation float64 `json:"deviation"`
}

// Assignments maps task index to member ID. A missing key means the task
// could not be staffed.
type Assignments map[int]string
