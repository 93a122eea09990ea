package roles

import (
	"sync"

	"github.com/HendryAvila/teamfit/internal/team"
)

type keyword struct {
	phrase string
	role   string
}

// Resolver maps raw labels onto the canonical role set of a Table.
// It is safe for concurrent use.
type Resolver struct {
	table      *Table
	canonical  []string
	aliases    map[string]string
	keywords   []keyword
	compatible map[string][]string
	cross      string
	generalist string

	memo sync.Map // raw label -> canonical role
}

// New builds a Resolver over a validated table.
func New(t *Table) *Resolver {
	r := &Resolver{
		table:      t,
		aliases:    make(map[string]string),
		compatible: make(map[string][]string, len(t.Roles)),
		cross:      fold(t.CrossFunctional),
		generalist: fold(t.Generalist),
	}
	for _, def := range t.Roles {
		name := fold(def.Name)
		r.canonical = append(r.canonical, name)
		r.aliases[name] = name
		// Aliases never override a canonical name or an earlier alias.
		for _, a := range def.Aliases {
			if fa := fold(a); fa != "" {
				if _, taken := r.aliases[fa]; !taken {
					r.aliases[fa] = name
				}
			}
		}
		for _, k := range def.Keywords {
			if fk := fold(k); fk != "" {
				r.keywords = append(r.keywords, keyword{phrase: fk, role: name})
			}
		}
		compat := make([]string, 0, len(def.Compatible))
		for _, c := range def.Compatible {
			compat = append(compat, fold(c))
		}
		r.compatible[name] = compat
	}
	return r
}

// Default returns a Resolver over the embedded table. The embedded table is
// covered by tests, so a parse failure here is a build defect.
func Default() *Resolver {
	t, err := DefaultTable()
	if err != nil {
		panic(err)
	}
	return New(t)
}

// Table returns the table the resolver was built from.
func (r *Resolver) Table() *Table { return r.table }

// Canonical lists the canonical roles in table order.
func (r *Resolver) Canonical() []string {
	return append([]string(nil), r.canonical...)
}

// CrossFunctional is the role that may cover any task.
func (r *Resolver) CrossFunctional() string { return r.cross }

// Generalist is the catch-all role.
func (r *Resolver) Generalist() string { return r.generalist }

// Resolve maps a free-text label to a canonical role. Unknown labels
// resolve to the generalist role.
func (r *Resolver) Resolve(raw string) string {
	if v, ok := r.memo.Load(raw); ok {
		return v.(string)
	}
	role := r.resolve(raw)
	r.memo.Store(raw, role)
	return role
}

func (r *Resolver) resolve(raw string) string {
	f := fold(raw)
	if f == "" {
		return r.generalist
	}
	if role, ok := r.aliases[f]; ok {
		return role
	}
	if stripped := stripJobWords(f); stripped != f {
		if role, ok := r.aliases[stripped]; ok {
			return role
		}
	}
	for _, k := range r.keywords {
		if containsPhrase(f, k.phrase) {
			return k.role
		}
	}
	return r.generalist
}

// CompatibilityTier returns the ordered fallback roles a canonical role
// tolerates. The result is a copy.
func (r *Resolver) CompatibilityTier(canonical string) []string {
	return append([]string(nil), r.compatible[r.Resolve(canonical)]...)
}

// MemberRoles returns the member's roles resolved to canonical form,
// deduplicated in input order.
func (r *Resolver) MemberRoles(m team.Member) []string {
	out := make([]string, 0, len(m.Roles))
	seen := make(map[string]bool, len(m.Roles))
	for _, raw := range m.Roles {
		role := r.Resolve(raw)
		if !seen[role] {
			seen[role] = true
			out = append(out, role)
		}
	}
	return out
}

// HasRole reports whether any of the member's roles resolves to canonical.
func (r *Resolver) HasRole(m team.Member, canonical string) bool {
	for _, raw := range m.Roles {
		if r.Resolve(raw) == canonical {
			return true
		}
	}
	return false
}

// WithRole filters members holding the canonical role.
func (r *Resolver) WithRole(canonical string, members []team.Member) []team.Member {
	var out []team.Member
	for _, m := range members {
		if r.HasRole(m, canonical) {
			out = append(out, m)
		}
	}
	return out
}

// Pool selects candidates for a canonical role. Tiers are tried in order
// and the first non-empty tier is returned on its own; tiers never merge.
func (r *Resolver) Pool(canonical string, members []team.Member) ([]team.Member, team.Tier) {
	if pool := r.WithRole(canonical, members); len(pool) > 0 {
		return pool, team.TierExact
	}
	if canonical != r.cross {
		if pool := r.WithRole(r.cross, members); len(pool) > 0 {
			return pool, team.TierCrossFunctional
		}
	}
	if compat := r.compatible[canonical]; len(compat) > 0 {
		var pool []team.Member
		for _, m := range members {
			for _, c := range compat {
				if r.HasRole(m, c) {
					pool = append(pool, m)
					break
				}
			}
		}
		if len(pool) > 0 {
			return pool, team.TierCompatible
		}
	}
	if canonical != r.generalist {
		if pool := r.WithRole(r.generalist, members); len(pool) > 0 {
			return pool, team.TierGeneralist
		}
	}
	return nil, team.TierNone
}
