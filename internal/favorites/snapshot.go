package favorites

import (
	"sort"
	"strings"
)

// Snapshot is an immutable copy of the favorite identifiers at one point in
// time. The zero value is an empty snapshot.
type Snapshot struct {
	ids map[string]struct{}
}

// NewSnapshot builds a snapshot from ids. Duplicates collapse.
func NewSnapshot(ids ...string) Snapshot {
	m := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		m[id] = struct{}{}
	}
	return Snapshot{ids: m}
}

// Contains reports whether id is a favorite.
func (s Snapshot) Contains(id string) bool {
	_, ok := s.ids[id]
	return ok
}

// Len returns the number of favorites.
func (s Snapshot) Len() int {
	return len(s.ids)
}

// IsEmpty reports whether there are no favorites.
func (s Snapshot) IsEmpty() bool {
	return len(s.ids) == 0
}

// IDs returns the identifiers sorted ascending.
func (s Snapshot) IDs() []string {
	ids := make([]string, 0, len(s.ids))
	for id := range s.ids {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Join returns the sorted identifiers joined by sep.
func (s Snapshot) Join(sep string) string {
	return strings.Join(s.IDs(), sep)
}

// Equal reports whether both snapshots hold the same identifiers.
func (s Snapshot) Equal(other Snapshot) bool {
	if len(s.ids) != len(other.ids) {
		return false
	}
	for id := range s.ids {
		if _, ok := other.ids[id]; !ok {
			return false
		}
	}
	return true
}

// toggled returns a new snapshot with id removed if present, added otherwise.
func (s Snapshot) toggled(id string) Snapshot {
	m := make(map[string]struct{}, len(s.ids)+1)
	for k := range s.ids {
		m[k] = struct{}{}
	}
	if _, ok := m[id]; ok {
		delete(m, id)
	} else {
		m[id] = struct{}{}
	}
	return Snapshot{ids: m}
}
