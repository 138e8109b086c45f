package domain

import (
	"sort"
	"strings"
)

// Lineage is the set of upstream record identifiers that produced a derived
// record. It serializes canonically (sorted, pipe-joined) so that re-running
// the same transformation version yields byte-identical lineage strings.
type Lineage struct {
	ids map[string]struct{}
}

// NewLineage builds a lineage set from the given ids.
func NewLineage(ids ...string) Lineage {
	l := Lineage{ids: make(map[string]struct{}, len(ids))}
	for _, id := range ids {
		if id != "" {
			l.ids[id] = struct{}{}
		}
	}
	return l
}

// ParseLineage rebuilds a lineage set from its canonical string form.
func ParseLineage(s string) Lineage {
	if s == "" {
		return NewLineage()
	}
	return NewLineage(strings.Split(s, "|")...)
}

// Add inserts an id into the set.
func (l *Lineage) Add(id string) {
	if l.ids == nil {
		l.ids = make(map[string]struct{})
	}
	if id != "" {
		l.ids[id] = struct{}{}
	}
}

// Union returns a new lineage containing ids from both sets.
// Commutative and associative regardless of arrival order.
func (l Lineage) Union(other Lineage) Lineage {
	out := Lineage{ids: make(map[string]struct{}, len(l.ids)+len(other.ids))}
	for id := range l.ids {
		out.ids[id] = struct{}{}
	}
	for id := range other.ids {
		out.ids[id] = struct{}{}
	}
	return out
}

// IDs returns the member ids sorted ascending.
func (l Lineage) IDs() []string {
	out := make([]string, 0, len(l.ids))
	for id := range l.ids {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of member ids.
func (l Lineage) Len() int {
	return len(l.ids)
}

// Contains reports whether id is a member.
func (l Lineage) Contains(id string) bool {
	_, ok := l.ids[id]
	return ok
}

// String returns the canonical serialized form: sorted ids joined by "|".
func (l Lineage) String() string {
	return strings.Join(l.IDs(), "|")
}
