// Package membership records which sources annotate which identifiers.
package membership

import "sort"

// Map maps an identifier to the set of sources annotating it. Every key
// has at least one source.
type Map map[string]map[string]struct{}

// Resolve builds a Map from per-source identifier lists. Duplicate
// identifiers within a list and empty lists are allowed.
func Resolve(lists map[string][]string) Map {
	m := make(Map)
	for source, ids := range lists {
		m.Add(source, ids...)
	}
	return m
}

// Add records that source annotates each of ids.
func (m Map) Add(source string, ids ...string) {
	for _, id := range ids {
		set, ok := m[id]
		if !ok {
			set = make(map[string]struct{})
			m[id] = set
		}
		set[source] = struct{}{}
	}
}

// Has reports whether any source annotates id.
func (m Map) Has(id string) bool {
	_, ok := m[id]
	return ok
}

// Union returns the sorted union of the sources annotating any of ids.
// Identifiers absent from the map contribute nothing.
func (m Map) Union(ids []string) []string {
	set := make(map[string]struct{})
	for _, id := range ids {
		for s := range m[id] {
			set[s] = struct{}{}
		}
	}
	return sortedKeys(set)
}

func sortedKeys(set map[string]struct{}) []string {
	if len(set) == 0 {
		return nil
	}
	out := make([]string, 0, len(set))
	for s := range set {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
