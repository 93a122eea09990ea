// Package recommend memoizes scheduling results per order so re-rendering
// the same order does not rerun the scheduler.
//
// One JSON document is kept per order in a kvstore.Store. It records the
// team fingerprint it was computed against plus, per task, the normalized
// role, the estimate, the best member per mode and optionally the full
// ranked candidate list per mode. The document is advisory: a missing,
// stale or unreadable entry is a miss and the result is recomputed.
package recommend

import (
	"encoding/json"
	"errors"
	"strconv"

	"github.com/HendryAvila/teamfit/internal/kvstore"
	"github.com/HendryAvila/teamfit/internal/scheduler"
	"github.com/HendryAvila/teamfit/internal/team"
)

// KeyPrefix namespaces order documents in the store.
const KeyPrefix = "teamfit:order:"

// ErrNoOrder is returned when an order ID is required but empty.
var ErrNoOrder = errors.New("recommend: order id is required")

// ─── Types ───────────────────────────────────────────────────────────────────

// Candidate is the stored form of one ranked match result.
type Candidate struct {
	MemberID          string    `json:"member_id"`
	Tier              team.Tier `json:"tier"`
	ExactRole         bool      `json:"exact_role"`
	CanAssign         bool      `json:"can_assign"`
	EffectiveHours    float64   `json:"effective_hours"`
	TotalAvailable    float64   `json:"total_available"`
	NextAvailableWeek int       `json:"next_available_week"`
	HourlyRate        float64   `json:"hourly_rate"`
	SpeedFactor       float64   `json:"speed_factor"`
}

// TaskEntry is the cached state for one task of an order.
type TaskEntry struct {
	NormalizedRole   string                    `json:"normalized_role"`
	EstimatedHours   float64                   `json:"estimated_hours"`
	BestByMode       map[team.Mode]string      `json:"best_by_mode,omitempty"`
	CandidatesByMode map[team.Mode][]Candidate `json:"candidates_by_mode,omitempty"`
}

// OrderCache is the document stored per order.
type OrderCache struct {
	TeamFingerprint string               `json:"team_fingerprint"`
	Tasks           map[string]TaskEntry `json:"tasks"`
}

// Key returns the store key for an order.
func Key(orderID string) string { return KeyPrefix + orderID }

// TaskKeys returns the document key for each task: its ID, or "#<index>"
// without one. IDs that repeat within the order get "<id>#<index>" so two
// tasks never share an entry.
func TaskKeys(tasks []team.Task) []string {
	seen := make(map[string]int, len(tasks))
	for i, t := range tasks {
		seen[t.Key(i)]++
	}
	keys := make([]string, len(tasks))
	for i, t := range tasks {
		k := t.Key(i)
		if seen[k] > 1 {
			k = k + "#" + strconv.Itoa(i)
		}
		keys[i] = k
	}
	return keys
}

// ─── Cache ───────────────────────────────────────────────────────────────────

// Cache layers memoization over a scheduler. Concurrent callers on the same
// order are not coordinated; the last write wins.
type Cache struct {
	store     kvstore.Store
	scheduler *scheduler.Scheduler
	logger    scheduler.Logger
}

// New creates a Cache. A nil logger discards notices.
func New(store kvstore.Store, s *scheduler.Scheduler, logger scheduler.Logger) *Cache {
	if logger == nil {
		logger = nopLogger{}
	}
	return &Cache{store: store, scheduler: s, logger: logger}
}

type nopLogger struct{}

func (nopLogger) Printf(string, ...any) {}

// GetOrCompute returns the assignment map for an order. hit is true when
// every task was answered from the stored document.
func (c *Cache) GetOrCompute(orderID string, tasks []team.Task, members []team.Member, mode team.Mode) (team.Assignments, bool) {
	tasks = team.NormalizeTasks(tasks)
	members = team.NormalizeMembers(members)
	fp := Fingerprint(members)

	doc := c.valid(orderID, fp)
	if doc != nil {
		if out, ok := c.cached(doc, tasks, members, mode); ok {
			return out, true
		}
	}

	out := c.scheduler.ScheduleAll(tasks, members, nil, mode)
	if orderID == "" || len(members) == 0 {
		return out, false
	}
	if doc == nil {
		doc = &OrderCache{TeamFingerprint: fp, Tasks: make(map[string]TaskEntry)}
	}
	keys := TaskKeys(tasks)
	for i, t := range tasks {
		e := c.entry(doc, keys[i], t)
		if id, ok := out[i]; ok {
			e.BestByMode[mode] = id
		}
		doc.Tasks[keys[i]] = e
	}
	c.save(orderID, doc)
	return out, false
}

// SnapshotCandidates returns the ranked candidate list per task key (see
// TaskKeys) for a mode, computing and storing it when the stored snapshot is missing or
// stale. Candidates are ranked against full availability.
func (c *Cache) SnapshotCandidates(orderID string, tasks []team.Task, members []team.Member, mode team.Mode) (map[string][]Candidate, bool) {
	tasks = team.NormalizeTasks(tasks)
	members = team.NormalizeMembers(members)
	fp := Fingerprint(members)

	doc := c.valid(orderID, fp)
	if doc == nil {
		doc = &OrderCache{TeamFingerprint: fp, Tasks: make(map[string]TaskEntry)}
	}

	out := make(map[string][]Candidate, len(tasks))
	hit := true
	m := c.scheduler.Matcher()
	keys := TaskKeys(tasks)
	for i, t := range tasks {
		key := keys[i]
		e := c.entry(doc, key, t)
		if cached, ok := e.CandidatesByMode[mode]; ok {
			out[key] = cached
			continue
		}
		hit = false
		list := toCandidates(m.Match(t, members, nil, mode))
		e.CandidatesByMode[mode] = list
		doc.Tasks[key] = e
		out[key] = list
	}
	if !hit && orderID != "" {
		c.save(orderID, doc)
	}
	return out, hit
}

// Load returns the stored document for an order, if it is readable.
func (c *Cache) Load(orderID string) (*OrderCache, bool) {
	doc := c.load(orderID)
	return doc, doc != nil
}

// Invalidate drops everything stored for an order.
func (c *Cache) Invalidate(orderID string) error {
	if orderID == "" {
		return ErrNoOrder
	}
	return c.store.Delete(Key(orderID))
}

// ─── Internals ───────────────────────────────────────────────────────────────

// valid loads the order document and discards it if it was computed for a
// different team.
func (c *Cache) valid(orderID, fp string) *OrderCache {
	doc := c.load(orderID)
	if doc == nil || doc.TeamFingerprint != fp {
		return nil
	}
	return doc
}

// cached answers every task from the document, or reports false.
func (c *Cache) cached(doc *OrderCache, tasks []team.Task, members []team.Member, mode team.Mode) (team.Assignments, bool) {
	present := make(map[string]bool, len(members))
	for _, m := range members {
		present[m.ID] = true
	}
	resolver := c.scheduler.Matcher().Resolver()
	out := make(team.Assignments, len(tasks))
	keys := TaskKeys(tasks)
	for i, t := range tasks {
		e, ok := doc.Tasks[keys[i]]
		if !ok || e.NormalizedRole != resolver.Resolve(t.Role) || e.EstimatedHours != t.EstimatedHours {
			return nil, false
		}
		id, ok := e.BestByMode[mode]
		if !ok || !present[id] {
			return nil, false
		}
		out[i] = id
	}
	return out, true
}

// entry returns the document's entry for a task, reset if the task's role
// or estimate changed since it was stored.
func (c *Cache) entry(doc *OrderCache, key string, t team.Task) TaskEntry {
	role := c.scheduler.Matcher().Resolver().Resolve(t.Role)
	e, ok := doc.Tasks[key]
	if !ok || e.NormalizedRole != role || e.EstimatedHours != t.EstimatedHours {
		e = TaskEntry{NormalizedRole: role, EstimatedHours: t.EstimatedHours}
	}
	if e.BestByMode == nil {
		e.BestByMode = make(map[team.Mode]string)
	}
	if e.CandidatesByMode == nil {
		e.CandidatesByMode = make(map[team.Mode][]Candidate)
	}
	return e
}

func (c *Cache) load(orderID string) *OrderCache {
	if orderID == "" {
		return nil
	}
	raw, ok, err := c.store.Get(Key(orderID))
	if err != nil {
		c.logger.Printf("recommend: reading order %s: %v", orderID, err)
		return nil
	}
	if !ok {
		return nil
	}
	var doc OrderCache
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		c.logger.Printf("recommend: discarding unreadable cache for order %s: %v", orderID, err)
		return nil
	}
	if doc.Tasks == nil {
		doc.Tasks = make(map[string]TaskEntry)
	}
	return &doc
}

func (c *Cache) save(orderID string, doc *OrderCache) {
	raw, err := json.Marshal(doc)
	if err != nil {
		c.logger.Printf("recommend: encoding order %s: %v", orderID, err)
		return
	}
	if err := c.store.Set(Key(orderID), string(raw)); err != nil {
		c.logger.Printf("recommend: writing order %s: %v", orderID, err)
	}
}

func toCandidates(results []team.MatchResult) []Candidate {
	out := make([]Candidate, len(results))
	for i, r := range results {
		out[i] = Candidate{
			MemberID:          r.Member.ID,
			Tier:              r.Tier,
			ExactRole:         r.ExactRole,
			CanAssign:         r.CanAssign,
			EffectiveHours:    r.EffectiveHours,
			TotalAvailable:    r.TotalAvailable,
			NextAvailableWeek: r.NextAvailableWeek,
			HourlyRate:        r.Member.HourlyRate,
			SpeedFactor:       r.Member.SpeedFactor,
		}
	}
	return out
}
