package engine

import (
	"fmt"
	"testing"

	"github.com/HendryAvila/teamfit/internal/capacity"
	"github.com/HendryAvila/teamfit/internal/kvstore"
	"github.com/HendryAvila/teamfit/internal/roles"
	"github.com/HendryAvila/teamfit/internal/team"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	return New(roles.Default(), kvstore.NewMemory(), nil)
}

func member(id, role string, speed, rate float64, weeks team.Hours) team.Member {
	return team.Member{ID: id, Roles: []string{role}, SpeedFactor: speed, HourlyRate: rate, WeeklyAvailableHours: weeks}
}

func TestEngine_Facade(t *testing.T) {
	e := newTestEngine(t)
	members := []team.Member{
		member("fe", "frontend", 1.5, 150, team.DefaultWeeklyHours),
		member("be", "backend", 1.0, 100, team.DefaultWeeklyHours),
	}
	tasks := []team.Task{
		{ID: "a", Role: "Front-End", EstimatedHours: 8},
		{ID: "b", Role: "api work", EstimatedHours: 4},
	}

	if got := e.ResolveRole("Front-End"); got != "frontend" {
		t.Errorf("ResolveRole = %q, want frontend", got)
	}
	if got := e.Match(tasks[0], members, nil, team.ModeFastest); got[0].Member.ID != "fe" {
		t.Errorf("Match top = %s, want fe", got[0].Member.ID)
	}
	want := "map[0:fe 1:be]"
	if got := fmt.Sprint(e.ScheduleAll(tasks, members, nil, team.ModeBalanced)); got != want {
		t.Errorf("ScheduleAll = %s, want %s", got, want)
	}

	cached, hit := e.GetOrComputeAssignments("o", tasks, members, team.ModeBalanced)
	if hit || fmt.Sprint(cached) != want {
		t.Errorf("GetOrComputeAssignments = %v, hit %v", cached, hit)
	}
	if _, hit := e.GetOrComputeAssignments("o", tasks, members, team.ModeBalanced); !hit {
		t.Error("second GetOrComputeAssignments missed")
	}
	if _, ok := e.CachedOrder("o"); !ok {
		t.Error("CachedOrder found nothing")
	}
	if err := e.InvalidateOrder("o"); err != nil {
		t.Fatalf("InvalidateOrder: %v", err)
	}
	if _, ok := e.CachedOrder("o"); ok {
		t.Error("order survived InvalidateOrder")
	}

	snap, _ := e.SnapshotCandidates("o", tasks, members, team.ModeCheapest)
	if len(snap["b"]) != 2 || snap["b"][0].MemberID != "be" {
		t.Errorf("snapshot for b = %+v", snap["b"])
	}

	portions := e.SplitAssign(team.Task{Role: "backend", EstimatedHours: 200}, members, nil, team.ModeCheapest)
	if len(portions) != 2 {
		t.Errorf("SplitAssign portions = %d, want 2", len(portions))
	}
}

func TestEngine_NilStoreUsesMemory(t *testing.T) {
	e := New(roles.Default(), nil, nil)
	tasks := []team.Task{{ID: "a", Role: "qa", EstimatedHours: 2}}
	members := []team.Member{member("q", "qa", 1, 50, team.DefaultWeeklyHours)}
	e.GetOrComputeAssignments("o", tasks, members, team.ModeFastest)
	if _, hit := e.GetOrComputeAssignments("o", tasks, members, team.ModeFastest); !hit {
		t.Error("memory-backed cache missed")
	}
}

func TestPlan_AtomicOnly(t *testing.T) {
	e := newTestEngine(t)
	members := []team.Member{
		member("be-1", "backend", 1.0, 100, team.Hours{10, 10, 10, 10}),
		member("be-2", "backend", 1.0, 120, team.Hours{10, 10, 10, 10}),
	}
	tasks := []team.Task{
		{ID: "small", Role: "backend", EstimatedHours: 5},
		{ID: "big", Role: "backend", EstimatedHours: 30},
	}

	plan := e.Plan(tasks, members, nil, team.ModeCheapest, false)
	if len(plan.Tasks) != 2 {
		t.Fatalf("got %d task plans, want 2", len(plan.Tasks))
	}
	for _, tp := range plan.Tasks {
		if len(tp.Portions) != 1 || tp.Split {
			t.Errorf("task %s portions = %d, split %v", tp.Task.ID, len(tp.Portions), tp.Split)
		}
	}
	// big goes first and takes be-1's first three weeks; small lands in week four.
	if got := plan.Tasks[1].Portions[0]; got.Member.ID != "be-1" || got.Weekly != (team.Hours{10, 10, 10, 0}) {
		t.Errorf("big = %s %v", got.Member.ID, got.Weekly)
	}
	if got := plan.Tasks[0].Portions[0]; got.Member.ID != "be-1" || got.Weekly != (team.Hours{0, 0, 0, 5}) {
		t.Errorf("small = %s %v", got.Member.ID, got.Weekly)
	}
	if plan.Cost() != 3500 {
		t.Errorf("Cost = %v, want 3500", plan.Cost())
	}
	if plan.LastWeek() != 3 {
		t.Errorf("LastWeek = %d, want 3", plan.LastWeek())
	}
}

func TestPlan_SplitsAfterAtomic(t *testing.T) {
	e := newTestEngine(t)
	members := []team.Member{
		member("be-1", "backend", 1.0, 100, team.Hours{15, 15, 15, 15}),
		member("be-2", "backend", 1.0, 110, team.Hours{15, 15, 15, 15}),
	}
	tasks := []team.Task{
		{ID: "api", Role: "backend", EstimatedHours: 100},
		{ID: "fix", Role: "backend", EstimatedHours: 10, Splittable: team.Bool(false)},
	}

	plan := e.Plan(tasks, members, nil, team.ModeCheapest, true)

	fix := plan.Tasks[1]
	if fix.Split || len(fix.Portions) != 1 || fix.Portions[0].Member.ID != "be-1" {
		t.Fatalf("fix = %+v", fix)
	}

	api := plan.Tasks[0]
	if !api.Split || len(api.Portions) != 2 {
		t.Fatalf("api split = %v with %d portions", api.Split, len(api.Portions))
	}
	if api.Portions[0].Member.ID != "be-1" || api.Portions[0].Hours != 50 {
		t.Errorf("first portion = %s %v, want be-1 50h", api.Portions[0].Member.ID, api.Portions[0].Hours)
	}
	if api.Portions[1].Member.ID != "be-2" || api.Portions[1].Hours != 50 {
		t.Errorf("second portion = %s %v, want be-2 50h", api.Portions[1].Member.ID, api.Portions[1].Hours)
	}
	if api.Shortfall != 0 || plan.Shortfall() != 0 {
		t.Errorf("shortfall = %v / %v, want 0", api.Shortfall, plan.Shortfall())
	}
	for id, used := range plan.Ledger {
		if used.Sum() > 60 {
			t.Errorf("%s booked %v of 60", id, used.Sum())
		}
	}
}

func TestPlan_ReportsShortfall(t *testing.T) {
	e := newTestEngine(t)
	members := []team.Member{member("be", "backend", 1.0, 100, team.Hours{5, 5, 5, 5})}
	plan := e.Plan([]team.Task{{ID: "api", Role: "backend", EstimatedHours: 50}}, members, nil, team.ModeFastest, true)
	if got := plan.Shortfall(); got != 30 {
		t.Errorf("Shortfall = %v, want 30", got)
	}
}

func TestPlan_EmptyTeam(t *testing.T) {
	e := newTestEngine(t)
	tasks := []team.Task{{ID: "a", Role: "qa", EstimatedHours: 3}, {ID: "b", Role: "ux", EstimatedHours: 4}}
	plan := e.Plan(tasks, nil, nil, team.ModeBalanced, true)
	if plan.Shortfall() != 7 {
		t.Errorf("Shortfall = %v, want 7", plan.Shortfall())
	}
	if plan.LastWeek() != -1 {
		t.Errorf("LastWeek = %d, want -1", plan.LastWeek())
	}
}

func TestPlan_DoesNotMutatePrior(t *testing.T) {
	e := newTestEngine(t)
	members := []team.Member{member("be", "backend", 1.0, 100, team.DefaultWeeklyHours)}
	prior := capacity.Ledger{"be": {8, 0, 0, 0}}
	e.Plan([]team.Task{{ID: "a", Role: "backend", EstimatedHours: 40}}, members, prior, team.ModeFastest, true)
	if prior["be"] != (team.Hours{8, 0, 0, 0}) {
		t.Errorf("prior changed to %v", prior["be"])
	}
}
