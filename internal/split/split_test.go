package split

import (
	"fmt"
	"testing"

	"github.com/HendryAvila/teamfit/internal/capacity"
	"github.com/HendryAvila/teamfit/internal/matcher"
	"github.com/HendryAvila/teamfit/internal/roles"
	"github.com/HendryAvila/teamfit/internal/scheduler"
	"github.com/HendryAvila/teamfit/internal/team"
)

func newTestSplitter(t *testing.T) *Splitter {
	t.Helper()
	return New(scheduler.New(matcher.New(roles.Default()), nil))
}

func member(id, role string, speed, rate float64, weeks team.Hours) team.Member {
	return team.Member{
		ID:                   id,
		Roles:                []string{role},
		SpeedFactor:          speed,
		HourlyRate:           rate,
		WeeklyAvailableHours: weeks,
	}
}

func TestSplitAssign_TwoCandidatesCoverLargeTask(t *testing.T) {
	sp := newTestSplitter(t)
	members := []team.Member{
		member("be-1", "backend", 1.0, 100, team.Hours{15, 15, 15, 15}),
		member("be-2", "backend", 1.0, 110, team.Hours{15, 15, 15, 15}),
	}
	task := team.Task{ID: "api", Role: "backend", EstimatedHours: 100}

	for _, mode := range team.Modes {
		t.Run(string(mode), func(t *testing.T) {
			portions := sp.SplitAssign(task, members, nil, mode)
			if len(portions) != 2 {
				t.Fatalf("got %d portions, want 2", len(portions))
			}
			if got := Covered(portions); got < 100 {
				t.Errorf("covered = %v, want >= 100", got)
			}
			seen := map[string]bool{}
			for _, p := range portions {
				if seen[p.Member.ID] {
					t.Errorf("member %s appears twice", p.Member.ID)
				}
				seen[p.Member.ID] = true
				if p.Weekly.Sum() > p.Member.WeeklyAvailableHours.Sum() {
					t.Errorf("%s deducted %v, more than available %v", p.Member.ID, p.Weekly.Sum(), p.Member.WeeklyAvailableHours.Sum())
				}
			}
			if s := Shortfall(task, portions); s != 0 {
				t.Errorf("Shortfall = %v, want 0", s)
			}
		})
	}
}

func TestSplitAssign_DrainsEarliestWeekFirst(t *testing.T) {
	sp := newTestSplitter(t)
	members := []team.Member{member("be", "backend", 1.0, 100, team.Hours{10, 10, 10, 10})}
	portions := sp.SplitAssign(team.Task{ID: "x", Role: "backend", EstimatedHours: 25}, members, nil, team.ModeBalanced)
	if len(portions) != 1 {
		t.Fatalf("got %d portions, want 1", len(portions))
	}
	want := team.Hours{10, 10, 5, 0}
	if portions[0].Weekly != want {
		t.Errorf("Weekly = %v, want %v", portions[0].Weekly, want)
	}
}

func TestSplitAssign_ModeOrdersCandidates(t *testing.T) {
	sp := newTestSplitter(t)
	members := []team.Member{
		member("pricey", "backend", 2.0, 200, team.Hours{10, 10, 10, 10}),
		member("cheap", "backend", 1.0, 50, team.Hours{10, 10, 10, 10}),
	}
	task := team.Task{ID: "x", Role: "backend", EstimatedHours: 60}

	fast := sp.SplitAssign(task, members, nil, team.ModeFastest)
	if len(fast) == 0 || fast[0].Member.ID != "pricey" {
		t.Fatalf("fastest first portion = %+v, want pricey", fast)
	}
	// pricey covers 60 raw hours in 30 of its own.
	if len(fast) != 1 || fast[0].EffectiveHours != 30 {
		t.Errorf("fastest portions = %d, effective %v; want 1 portion of 30h", len(fast), fast[0].EffectiveHours)
	}

	cheap := sp.SplitAssign(task, members, nil, team.ModeCheapest)
	if len(cheap) != 2 || cheap[0].Member.ID != "cheap" {
		t.Fatalf("cheapest portions = %+v, want cheap first of 2", cheap)
	}
	if cheap[0].Hours != 40 || cheap[1].Hours != 20 {
		t.Errorf("cheapest hours = %v/%v, want 40/20", cheap[0].Hours, cheap[1].Hours)
	}
	if cheap[1].EffectiveHours != 10 {
		t.Errorf("second portion effective = %v, want 10", cheap[1].EffectiveHours)
	}
}

func TestSplitAssign_ShortfallWhenTeamIsFull(t *testing.T) {
	sp := newTestSplitter(t)
	members := []team.Member{member("be", "backend", 1.0, 100, team.Hours{5, 5, 5, 5})}
	task := team.Task{ID: "x", Role: "backend", EstimatedHours: 30}

	portions := sp.SplitAssign(task, members, nil, team.ModeBalanced)
	if got := Covered(portions); got != 20 {
		t.Errorf("covered = %v, want 20", got)
	}
	if got := Shortfall(task, portions); got != 10 {
		t.Errorf("Shortfall = %v, want 10", got)
	}
}

func TestSplitAssign_FallsBackWhenPoolIsFull(t *testing.T) {
	sp := newTestSplitter(t)
	members := []team.Member{
		member("fe", "frontend", 1.0, 100, team.Hours{}),
		member("fs", "fullstack", 1.0, 100, team.Hours{10, 0, 0, 0}),
		member("qa", "qa", 1.0, 60, team.Hours{40, 40, 40, 40}),
	}
	task := team.Task{ID: "x", Role: "frontend", EstimatedHours: 30}

	portions := sp.SplitAssign(task, members, nil, team.ModeCheapest)
	if len(portions) != 2 {
		t.Fatalf("got %d portions, want 2", len(portions))
	}
	if portions[0].Member.ID != "fs" || portions[0].Hours != 10 {
		t.Errorf("first portion = %s %vh, want fs 10h", portions[0].Member.ID, portions[0].Hours)
	}
	if portions[1].Member.ID != "qa" || portions[1].Hours != 20 {
		t.Errorf("second portion = %s %vh, want qa 20h", portions[1].Member.ID, portions[1].Hours)
	}

	// With the cross-functional member booked too, only the rest of the team is left.
	prior := capacity.Ledger{"fs": {10, 0, 0, 0}}
	portions = sp.SplitAssign(task, members, prior, team.ModeCheapest)
	if len(portions) != 1 || portions[0].Member.ID != "qa" || portions[0].Hours != 30 {
		t.Errorf("portions = %+v, want 30h on qa", portions)
	}
}

func TestSplitAssign_SlowMemberNeverExceedsTotal(t *testing.T) {
	sp := newTestSplitter(t)
	members := []team.Member{member("slow", "backend", 0.7, 80, team.Hours{9, 9, 9, 9})}
	portions := sp.SplitAssign(team.Task{ID: "x", Role: "backend", EstimatedHours: 100}, members, nil, team.ModeBalanced)
	if len(portions) != 1 {
		t.Fatalf("got %d portions, want 1", len(portions))
	}
	p := portions[0]
	if p.Hours != 25 {
		t.Errorf("raw hours = %v, want floor(36*0.7)=25", p.Hours)
	}
	if p.Weekly.Sum() > 36 {
		t.Errorf("deducted %v, more than 36 available", p.Weekly.Sum())
	}
}

func TestSplitAssign_NonSplittableLandsOnOneMember(t *testing.T) {
	sp := newTestSplitter(t)
	members := []team.Member{
		member("be-1", "backend", 1.0, 100, team.Hours{15, 15, 15, 15}),
		member("be-2", "backend", 1.0, 110, team.Hours{15, 15, 15, 15}),
	}
	cases := map[string]team.Task{
		"explicit": {ID: "a", Role: "backend", EstimatedHours: 100, Splittable: team.Bool(false)},
		"child":    {ID: "a.1", Role: "backend", EstimatedHours: 100, SplitFrom: "a"},
	}
	for name, task := range cases {
		t.Run(name, func(t *testing.T) {
			portions := sp.SplitAssign(task, members, nil, team.ModeCheapest)
			if len(portions) != 1 {
				t.Fatalf("got %d portions, want 1", len(portions))
			}
			p := portions[0]
			if p.Member.ID != "be-1" {
				t.Errorf("member = %s, want be-1", p.Member.ID)
			}
			if p.Hours != 100 {
				t.Errorf("hours = %v, want 100", p.Hours)
			}
			if p.CanAssign {
				t.Error("CanAssign = true for a task larger than any member")
			}
			if p.Weekly.Sum() != 100 {
				t.Errorf("deduction = %v, want 100 (overbooked)", p.Weekly.Sum())
			}
		})
	}
}

func TestSplitAssign_EmptyTeam(t *testing.T) {
	sp := newTestSplitter(t)
	if got := sp.SplitAssign(team.Task{Role: "backend", EstimatedHours: 5}, nil, nil, team.ModeBalanced); got != nil {
		t.Errorf("SplitAssign on empty team = %+v, want nil", got)
	}
}

func TestSplitAssign_DoesNotMutateInputs(t *testing.T) {
	sp := newTestSplitter(t)
	members := []team.Member{
		member("be-1", "backend", 1.0, 100, team.Hours{15, 15, 15, 15}),
		member("be-2", "backend", 1.0, 110, team.Hours{15, 15, 15, 15}),
	}
	prior := capacity.Ledger{"be-1": {1, 0, 0, 0}}
	before := fmt.Sprint(members, prior)

	sp.SplitAssign(team.Task{ID: "x", Role: "backend", EstimatedHours: 100}, members, prior, team.ModeFastest)

	if after := fmt.Sprint(members, prior); after != before {
		t.Errorf("inputs changed:\nbefore %s\nafter  %s", before, after)
	}
}

func TestPortion_Subtask(t *testing.T) {
	parent := team.Task{ID: "api", Title: "Build API", Role: "backend", EstimatedHours: 100, OrderID: "o-1"}
	p := Portion{Hours: 40}

	child := p.Subtask(parent, 2)
	if child.ID != "api.2" {
		t.Errorf("ID = %q, want api.2", child.ID)
	}
	if child.SplitFrom != "api" || child.OrderID != "o-1" || child.EstimatedHours != 40 {
		t.Errorf("child = %+v", child)
	}
	if child.CanSplit() {
		t.Error("child task must not be splittable")
	}
}
