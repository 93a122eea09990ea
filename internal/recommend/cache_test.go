package recommend

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/HendryAvila/teamfit/internal/kvstore"
	"github.com/HendryAvila/teamfit/internal/matcher"
	"github.com/HendryAvila/teamfit/internal/roles"
	"github.com/HendryAvila/teamfit/internal/scheduler"
	"github.com/HendryAvila/teamfit/internal/team"
)

// ─── Test helpers ────────────────────────────────────────────────────────────

type recordingLogger struct {
	lines []string
}

func (l *recordingLogger) Printf(format string, args ...any) {
	l.lines = append(l.lines, fmt.Sprintf(format, args...))
}

// failingStore errors on every call.
type failingStore struct{}

func (failingStore) Get(string) (string, bool, error) { return "", false, errors.New("disk gone") }
func (failingStore) Set(string, string) error         { return errors.New("disk gone") }
func (failingStore) Delete(string) error              { return errors.New("disk gone") }

func newTestCache(t *testing.T) (*Cache, *kvstore.Memory, *recordingLogger) {
	t.Helper()
	store := kvstore.NewMemory()
	log := &recordingLogger{}
	s := scheduler.New(matcher.New(roles.Default()), nil)
	return New(store, s, log), store, log
}

func fixture() ([]team.Task, []team.Member) {
	tasks := []team.Task{
		{ID: "t1", Role: "frontend", EstimatedHours: 8},
		{ID: "t2", Role: "backend", EstimatedHours: 12},
		{ID: "t3", Role: "UI", EstimatedHours: 6},
	}
	members := []team.Member{
		{ID: "fe", Roles: []string{"frontend"}, HourlyRate: 150, SpeedFactor: 1.5, WeeklyAvailableHours: team.DefaultWeeklyHours},
		{ID: "be", Roles: []string{"backend"}, HourlyRate: 100, SpeedFactor: 1.0, WeeklyAvailableHours: team.DefaultWeeklyHours},
		{ID: "ui", Roles: []string{"ui"}, HourlyRate: 90, SpeedFactor: 0.8, WeeklyAvailableHours: team.DefaultWeeklyHours},
		{ID: "fe2", Roles: []string{"frontend"}, HourlyRate: 80, SpeedFactor: 1.0, WeeklyAvailableHours: team.DefaultWeeklyHours},
	}
	return tasks, members
}

// ─── Fingerprint ─────────────────────────────────────────────────────────────

func TestFingerprint(t *testing.T) {
	_, members := fixture()
	base := Fingerprint(members)

	reversed := []team.Member{members[3], members[2], members[1], members[0]}
	if got := Fingerprint(reversed); got != base {
		t.Errorf("order changed fingerprint: %s vs %s", got, base)
	}

	mutations := map[string]func(m *team.Member){
		"rate":         func(m *team.Member) { m.HourlyRate++ },
		"speed":        func(m *team.Member) { m.SpeedFactor = 2 },
		"availability": func(m *team.Member) { m.WeeklyAvailableHours[2] = 10 },
		"roles":        func(m *team.Member) { m.Roles = append(m.Roles, "qa") },
		"id":           func(m *team.Member) { m.ID = "other" },
	}
	for name, mutate := range mutations {
		t.Run(name, func(t *testing.T) {
			changed := append([]team.Member(nil), members...)
			changed[1].Roles = append([]string(nil), members[1].Roles...)
			mutate(&changed[1])
			if Fingerprint(changed) == base {
				t.Errorf("%s change kept fingerprint %s", name, base)
			}
		})
	}

	exp := append([]team.Member(nil), members...)
	exp[0].ExperienceScore = 99
	if Fingerprint(exp) != base {
		t.Error("experience score should not affect the fingerprint")
	}
}

// ─── GetOrCompute ────────────────────────────────────────────────────────────

func TestGetOrCompute_SecondCallHits(t *testing.T) {
	c, _, _ := newTestCache(t)
	tasks, members := fixture()

	for _, mode := range team.Modes {
		t.Run(string(mode), func(t *testing.T) {
			first, hit := c.GetOrCompute("order-"+string(mode), tasks, members, mode)
			if hit {
				t.Fatal("first call reported a hit")
			}
			second, hit := c.GetOrCompute("order-"+string(mode), tasks, members, mode)
			if !hit {
				t.Fatal("second call missed")
			}
			if fmt.Sprint(first) != fmt.Sprint(second) {
				t.Errorf("results differ: %v vs %v", first, second)
			}
			if len(second) != len(tasks) {
				t.Errorf("got %d assignments, want %d", len(second), len(tasks))
			}
		})
	}
}

func TestGetOrCompute_RateChangeInvalidates(t *testing.T) {
	c, store, _ := newTestCache(t)
	tasks, members := fixture()

	before, _ := c.GetOrCompute("o-1", tasks, members, team.ModeCheapest)
	if before[0] != "fe2" {
		t.Fatalf("cheapest frontend = %s, want fe2", before[0])
	}

	changed := append([]team.Member(nil), members...)
	changed[3].HourlyRate = 500
	after, hit := c.GetOrCompute("o-1", tasks, changed, team.ModeCheapest)
	if hit {
		t.Fatal("rate change still hit the cache")
	}
	if after[0] != "fe" {
		t.Errorf("after rate change frontend = %s, want fe", after[0])
	}

	raw, _, _ := store.Get(Key("o-1"))
	var doc OrderCache
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		t.Fatalf("stored document: %v", err)
	}
	if doc.TeamFingerprint != Fingerprint(changed) {
		t.Error("stored fingerprint not updated")
	}
}

func TestGetOrCompute_TaskChangeRecomputes(t *testing.T) {
	c, _, _ := newTestCache(t)
	tasks, members := fixture()
	c.GetOrCompute("o-1", tasks, members, team.ModeFastest)

	tests := map[string]func(ts []team.Task){
		"hours": func(ts []team.Task) { ts[1].EstimatedHours = 13 },
		"role":  func(ts []team.Task) { ts[2].Role = "qa" },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			changed := append([]team.Task(nil), tasks...)
			mutate(changed)
			if _, hit := c.GetOrCompute("o-1", changed, members, team.ModeFastest); hit {
				t.Error("changed task hit the cache")
			}
		})
	}

	// Role spelling that resolves to the same canonical role still hits.
	c.GetOrCompute("o-2", tasks, members, team.ModeFastest)
	respelled := append([]team.Task(nil), tasks...)
	respelled[1].Role = "Backend Developer"
	if _, hit := c.GetOrCompute("o-2", respelled, members, team.ModeFastest); !hit {
		t.Error("equivalent role spelling missed the cache")
	}
}

func TestGetOrCompute_ModesCachedSeparately(t *testing.T) {
	c, store, _ := newTestCache(t)
	tasks, members := fixture()

	c.GetOrCompute("o-1", tasks, members, team.ModeFastest)
	if _, hit := c.GetOrCompute("o-1", tasks, members, team.ModeCheapest); hit {
		t.Error("cheapest hit a cache filled by fastest")
	}
	if _, hit := c.GetOrCompute("o-1", tasks, members, team.ModeFastest); !hit {
		t.Error("fastest entry lost after computing cheapest")
	}

	doc, ok := c.Load("o-1")
	if !ok {
		t.Fatal("Load found nothing")
	}
	if n := len(doc.Tasks["t1"].BestByMode); n != 2 {
		t.Errorf("t1 has %d modes cached, want 2", n)
	}
	if store.Len() != 1 {
		t.Errorf("store has %d keys, want 1", store.Len())
	}
}

func TestGetOrCompute_CorruptEntryIsMiss(t *testing.T) {
	c, store, log := newTestCache(t)
	tasks, members := fixture()
	if err := store.Set(Key("o-1"), "{not json"); err != nil {
		t.Fatal(err)
	}

	out, hit := c.GetOrCompute("o-1", tasks, members, team.ModeBalanced)
	if hit {
		t.Error("corrupt entry reported as hit")
	}
	if len(out) != len(tasks) {
		t.Errorf("got %d assignments, want %d", len(out), len(tasks))
	}
	if len(log.lines) == 0 || !strings.Contains(log.lines[0], "unreadable") {
		t.Errorf("log = %v, want unreadable notice", log.lines)
	}
	if _, hit := c.GetOrCompute("o-1", tasks, members, team.ModeBalanced); !hit {
		t.Error("corrupt entry was not replaced")
	}
}

func TestGetOrCompute_StoreFailureStillAnswers(t *testing.T) {
	log := &recordingLogger{}
	c := New(failingStore{}, scheduler.New(matcher.New(roles.Default()), nil), log)
	tasks, members := fixture()

	out, hit := c.GetOrCompute("o-1", tasks, members, team.ModeFastest)
	if hit || len(out) != len(tasks) {
		t.Errorf("out = %v, hit %v", out, hit)
	}
	if len(log.lines) != 2 {
		t.Errorf("log = %v, want read and write notices", log.lines)
	}
}

func TestGetOrCompute_RemovedMemberMisses(t *testing.T) {
	c, store, _ := newTestCache(t)
	tasks, members := fixture()
	c.GetOrCompute("o-1", tasks, members, team.ModeCheapest)

	// Forge a document whose best pick names someone not on the team.
	raw, _, _ := store.Get(Key("o-1"))
	var doc OrderCache
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		t.Fatal(err)
	}
	e := doc.Tasks["t1"]
	e.BestByMode[team.ModeCheapest] = "ghost"
	doc.Tasks["t1"] = e
	forged, _ := json.Marshal(doc)
	store.Set(Key("o-1"), string(forged))

	out, hit := c.GetOrCompute("o-1", tasks, members, team.ModeCheapest)
	if hit || out[0] == "ghost" {
		t.Errorf("out = %v, hit %v; stale member returned", out, hit)
	}
}

func TestGetOrCompute_NoOrderIDNeverStores(t *testing.T) {
	c, store, _ := newTestCache(t)
	tasks, members := fixture()
	c.GetOrCompute("", tasks, members, team.ModeFastest)
	if _, hit := c.GetOrCompute("", tasks, members, team.ModeFastest); hit {
		t.Error("empty order id hit")
	}
	if store.Len() != 0 {
		t.Errorf("store has %d keys, want 0", store.Len())
	}
}

// ─── SnapshotCandidates ──────────────────────────────────────────────────────

func TestTaskKeys(t *testing.T) {
	tasks := []team.Task{{ID: "a"}, {ID: "b"}, {ID: "a"}, {}}
	got := fmt.Sprint(TaskKeys(tasks))
	if want := "[a#0 b a#2 #3]"; got != want {
		t.Errorf("TaskKeys = %s, want %s", got, want)
	}
}

func TestGetOrCompute_DuplicateTaskIDs(t *testing.T) {
	c, _, _ := newTestCache(t)
	tasks := []team.Task{
		{ID: "t", Role: "backend", EstimatedHours: 10},
		{ID: "t", Role: "backend", EstimatedHours: 5},
	}
	members := []team.Member{
		{ID: "a", Roles: []string{"backend"}, HourlyRate: 100, SpeedFactor: 1.5, WeeklyAvailableHours: team.DefaultWeeklyHours},
		{ID: "b", Roles: []string{"backend"}, HourlyRate: 100, SpeedFactor: 1.0, WeeklyAvailableHours: team.DefaultWeeklyHours},
	}

	first, hit := c.GetOrCompute("o-dup", tasks, members, team.ModeFastest)
	if hit {
		t.Fatal("first call reported a hit")
	}
	if want := "map[0:a 1:b]"; fmt.Sprint(first) != want {
		t.Fatalf("first = %v, want %s", first, want)
	}
	second, hit := c.GetOrCompute("o-dup", tasks, members, team.ModeFastest)
	if !hit {
		t.Fatal("second call missed")
	}
	if fmt.Sprint(second) != fmt.Sprint(first) {
		t.Errorf("cached result %v differs from computed %v", second, first)
	}

	snap, _ := c.SnapshotCandidates("o-dup", tasks, members, team.ModeFastest)
	if len(snap) != 2 {
		t.Fatalf("snapshot has %d task lists, want 2", len(snap))
	}
	if snap["t#0"][0].EffectiveHours != 7 || snap["t#1"][0].EffectiveHours != 4 {
		t.Errorf("snapshot lists mixed up: %+v / %+v", snap["t#0"][0], snap["t#1"][0])
	}
}

func TestSnapshotCandidates(t *testing.T) {
	c, _, _ := newTestCache(t)
	tasks, members := fixture()

	first, hit := c.SnapshotCandidates("o-1", tasks, members, team.ModeFastest)
	if hit {
		t.Fatal("first snapshot reported a hit")
	}
	if len(first) != 3 {
		t.Fatalf("got %d task lists, want 3", len(first))
	}
	fe := first["t1"]
	if len(fe) != len(members) {
		t.Fatalf("t1 has %d candidates, want every member", len(fe))
	}
	if fe[0].MemberID != "fe" || fe[0].Tier != team.TierExact {
		t.Errorf("top t1 candidate = %+v", fe[0])
	}

	second, hit := c.SnapshotCandidates("o-1", tasks, members, team.ModeFastest)
	if !hit {
		t.Error("second snapshot missed")
	}
	if fmt.Sprint(first) != fmt.Sprint(second) {
		t.Error("snapshot changed between calls")
	}

	// Snapshots and best picks share one document.
	c.GetOrCompute("o-1", tasks, members, team.ModeFastest)
	if _, hit := c.SnapshotCandidates("o-1", tasks, members, team.ModeFastest); !hit {
		t.Error("GetOrCompute dropped the stored snapshot")
	}
}

func TestInvalidate(t *testing.T) {
	c, _, _ := newTestCache(t)
	tasks, members := fixture()
	c.GetOrCompute("o-1", tasks, members, team.ModeBalanced)

	if err := c.Invalidate("o-1"); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}
	if _, ok := c.Load("o-1"); ok {
		t.Error("document survived Invalidate")
	}
	if _, hit := c.GetOrCompute("o-1", tasks, members, team.ModeBalanced); hit {
		t.Error("hit after Invalidate")
	}
	if err := c.Invalidate(""); !errors.Is(err, ErrNoOrder) {
		t.Errorf("Invalidate(\"\") = %v, want ErrNoOrder", err)
	}
}
