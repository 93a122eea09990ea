package team

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cast"
)

// Loose intake for member and task snapshots coming from outside the
// engine (MCP arguments, CLI files, browser payloads). Keys may be camelCase
// or snake_case and numbers may arrive as strings. Malformed values are
// defaulted; only input that is not JSON at all is an error.

type record map[string]any

func (r record) lookup(keys ...string) (any, bool) {
	for _, k := range keys {
		if v, ok := r[k]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

func (r record) str(keys ...string) string {
	v, ok := r.lookup(keys...)
	if !ok {
		return ""
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(s)
}

func (r record) num(def float64, keys ...string) float64 {
	v, ok := r.lookup(keys...)
	if !ok {
		return def
	}
	f, err := cast.ToFloat64E(v)
	if err != nil {
		return def
	}
	return f
}

// decodeRecords accepts a JSON array, or an object wrapping the array under
// one of the given keys, or a single object.
func decodeRecords(data []byte, wrapKeys ...string) ([]record, error) {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" {
		return nil, nil
	}
	if strings.HasPrefix(trimmed, "[") {
		var list []record
		if err := json.Unmarshal([]byte(trimmed), &list); err != nil {
			return nil, err
		}
		return list, nil
	}
	var obj record
	if err := json.Unmarshal([]byte(trimmed), &obj); err != nil {
		return nil, err
	}
	for _, k := range wrapKeys {
		if inner, ok := obj[k]; ok {
			raw, err := json.Marshal(inner)
			if err != nil {
				return nil, err
			}
			return decodeRecords(raw)
		}
	}
	return []record{obj}, nil
}

// DecodeMembers parses a member snapshot.
func DecodeMembers(data []byte) ([]Member, error) {
	recs, err := decodeRecords(data, "members", "team")
	if err != nil {
		return nil, fmt.Errorf("decoding members: %w", err)
	}
	members := make([]Member, 0, len(recs))
	for i, r := range recs {
		m := Member{
			ID:              r.str("id", "member_id", "memberId"),
			Name:            r.str("name"),
			Roles:           decodeRoles(r),
			HourlyRate:      r.num(0, "hourly_rate", "hourlyRate", "rate"),
			SpeedFactor:     r.num(DefaultSpeedFactor, "speed_factor", "speedFactor", "speed"),
			ExperienceScore: r.num(0, "experience_score", "experienceScore"),
		}
		if m.ID == "" {
			m.ID = m.Name
		}
		if m.ID == "" {
			m.ID = fmt.Sprintf("member-%d", i+1)
		}
		m.WeeklyAvailableHours = decodeWeeks(r)
		members = append(members, m.Normalize())
	}
	return members, nil
}

func decodeRoles(r record) []string {
	v, ok := r.lookup("roles", "role")
	if !ok {
		return nil
	}
	if s, isString := v.(string); isString {
		var out []string
		for _, part := range strings.Split(s, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		return out
	}
	roles, err := cast.ToStringSliceE(v)
	if err != nil {
		return nil
	}
	out := roles[:0]
	for _, role := range roles {
		if role = strings.TrimSpace(role); role != "" {
			out = append(out, role)
		}
	}
	return out
}

// decodeWeeks always yields exactly Weeks buckets. Missing buckets take the
// default profile; extra buckets are dropped.
func decodeWeeks(r record) Hours {
	v, ok := r.lookup("weekly_available_hours", "weeklyAvailableHours", "availability")
	if !ok {
		return DefaultWeeklyHours
	}
	items, err := cast.ToSliceE(v)
	if err != nil {
		return DefaultWeeklyHours
	}
	weeks := DefaultWeeklyHours
	for i := 0; i < Weeks && i < len(items); i++ {
		f, err := cast.ToFloat64E(items[i])
		if err != nil {
			continue
		}
		weeks[i] = f
	}
	return weeks
}

// DecodeTasks parses a task list.
func DecodeTasks(data []byte) ([]Task, error) {
	recs, err := decodeRecords(data, "tasks")
	if err != nil {
		return nil, fmt.Errorf("decoding tasks: %w", err)
	}
	tasks := make([]Task, 0, len(recs))
	for _, r := range recs {
		tasks = append(tasks, decodeTask(r))
	}
	return tasks, nil
}

// DecodeTask parses a single task object.
func DecodeTask(data []byte) (Task, error) {
	tasks, err := DecodeTasks(data)
	if err != nil {
		return Task{}, err
	}
	if len(tasks) != 1 {
		return Task{}, fmt.Errorf("decoding task: expected one task, got %d", len(tasks))
	}
	return tasks[0], nil
}

func decodeTask(r record) Task {
	t := Task{
		ID:             r.str("id", "task_id", "taskId"),
		Title:          r.str("title", "name"),
		Role:           r.str("role", "required_role", "requiredRole"),
		EstimatedHours: r.num(0, "estimated_hours", "estimatedHours", "hours"),
		OrderID:        r.str("order_id", "orderId"),
		SplitFrom:      r.str("split_from", "splitFrom"),
	}
	if v, ok := r.lookup("splittable"); ok {
		if b, err := cast.ToBoolE(v); err == nil {
			t.Splittable = Bool(b)
		}
	}
	return t.Normalize()
}

// DecodeLedger parses hours already committed per member, as
// {"member-id": [w1, w2, w3, w4]}. A bare number is treated as week-one
// hours.
func DecodeLedger(data []byte) (map[string]Hours, error) {
	out := make(map[string]Hours)
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" || trimmed == "null" {
		return out, nil
	}
	var raw map[string]any
	if err := json.Unmarshal([]byte(trimmed), &raw); err != nil {
		return nil, fmt.Errorf("decoding assigned hours: %w", err)
	}
	for id, v := range raw {
		var used Hours
		if items, err := cast.ToSliceE(v); err == nil {
			for i := 0; i < Weeks && i < len(items); i++ {
				if f, err := cast.ToFloat64E(items[i]); err == nil && f > 0 {
					used[i] = f
				}
			}
		} else if f, err := cast.ToFloat64E(v); err == nil && f > 0 {
			used[0] = f
		}
		out[id] = used
	}
	return out, nil
}
