package model

import (
	"sort"
	"strings"

	"github.com/maruel/natural"
)

// Marker is a named live range, it follows content changes until removed.
type Marker struct {
	name string
	rng  Range
}

func (m *Marker) Name() string { return m.name }
func (m *Marker) Range() Range { return m.rng }

// Group returns marker name part before the first ":" ("comment" for
// "comment:42").
func (m *Marker) Group() string {
	group, _, _ := strings.Cut(m.name, ":")
	return group
}

// Markers is the document marker collection.
type Markers struct {
	byName map[string]*Marker
}

func newMarkers() *Markers {
	return &Markers{byName: make(map[string]*Marker)}
}

func (ms *Markers) Get(name string) (*Marker, bool) {
	m, ok := ms.byName[name]
	return m, ok
}

func (ms *Markers) Len() int { return len(ms.byName) }

// Names returns marker names in natural order.
func (ms *Markers) Names() []string {
	names := make([]string, 0, len(ms.byName))
	for n := range ms.byName {
		names = append(names, n)
	}
	sort.Sort(natural.StringSlice(names))
	return names
}

// All returns markers in natural name order.
func (ms *Markers) All() []*Marker {
	names := ms.Names()
	out := make([]*Marker, len(names))
	for i, n := range names {
		out[i] = ms.byName[n]
	}
	return out
}

// WithPrefix returns markers belonging to group ("comment" matches
// "comment" and "comment:1").
func (ms *Markers) WithPrefix(prefix string) []*Marker {
	var out []*Marker
	for _, m := range ms.All() {
		if m.name == prefix || strings.HasPrefix(m.name, prefix+":") {
			out = append(out, m)
		}
	}
	return out
}

// AtPosition returns markers which contain p strictly inside their range.
func (ms *Markers) AtPosition(p Position) []*Marker {
	var out []*Marker
	for _, m := range ms.All() {
		if m.rng.ContainsPosition(p) {
			out = append(out, m)
		}
	}
	return out
}

func (ms *Markers) set(name string, r Range) *Marker {
	m := &Marker{name: name, rng: r}
	ms.byName[name] = m
	return m
}

func (ms *Markers) remove(name string) {
	delete(ms.byName, name)
}

// touching returns names of markers which range meets r, boundaries
// included. Positions are compared against the current tree so it must be
// called before the tree changes.
func (ms *Markers) touching(r Range) map[string]bool {
	out := make(map[string]bool)
	for name, m := range ms.byName {
		end, start := m.rng.End.Compare(r.Start), m.rng.Start.Compare(r.End)
		if (end == Same || end == After) && (start == Same || start == Before) {
			out[name] = true
		}
	}
	return out
}

// transform moves every marker and reports those in touched in natural
// name order.
func (ms *Markers) transform(fn func(Range) Range, touched map[string]bool) []MarkerMove {
	var moves []MarkerMove
	for _, m := range ms.All() {
		old := m.rng
		m.rng = fn(old)
		if touched[m.name] {
			moves = append(moves, MarkerMove{Name: m.name, Old: old, New: m.rng})
		}
	}
	return moves
}
