package model

import "fmt"

// ChangeType is the kind of applied model operation.
type ChangeType int

const (
	ChangeInsert ChangeType = iota
	ChangeRemove
	ChangeAttribute
	ChangeAddMarker
	ChangeRemoveMarker
)

func (t ChangeType) String() string {
	switch t {
	case ChangeInsert:
		return "insert"
	case ChangeRemove:
		return "remove"
	case ChangeAttribute:
		return "attribute"
	case ChangeAddMarker:
		return "addMarker"
	case ChangeRemoveMarker:
		return "removeMarker"
	default:
		return fmt.Sprintf("ChangeType(%d)", int(t))
	}
}

// Change describes one applied operation. Records are delivered to listeners
// right after the operation, so positions and ranges are valid against the
// tree at delivery time. Remove records carry snapshot of the detached nodes.
type Change struct {
	Type ChangeType
	// Position where content was inserted or removed.
	Position Position
	// Length in offsets of inserted or removed content.
	Length int
	// Nodes inserted (may be merged with neighbouring text afterwards) or
	// removed (detached, still usable).
	Nodes []Node
	// Range of attribute change or marker range.
	Range Range
	// Key of changed attribute.
	Key      string
	OldValue any
	NewValue any
	// MarkerName for marker changes.
	MarkerName string
	// Markers touched by insert or remove, with ranges from before and
	// after the operation.
	Markers []MarkerMove
}

// MarkerMove is marker range before and after content change. Old range
// is only meaningful against content which was there before the change.
type MarkerMove struct {
	Name string
	Old  Range
	New  Range
}

func (c *Change) String() string {
	switch c.Type {
	case ChangeInsert, ChangeRemove:
		return fmt.Sprintf("%s %s+%d", c.Type, c.Position, c.Length)
	case ChangeAttribute:
		return fmt.Sprintf("%s %s %q: %v -> %v", c.Type, c.Range, c.Key, c.OldValue, c.NewValue)
	default:
		return fmt.Sprintf("%s %q %s", c.Type, c.MarkerName, c.Range)
	}
}

func transformPositionByInsert(p, at Position, length int, moveAtEqual bool) Position {
	if p.Parent != at.Parent {
		return p
	}
	if p.Offset > at.Offset || (moveAtEqual && p.Offset == at.Offset) {
		p.Offset += length
	}
	return p
}

func transformRangeByInsert(r Range, at Position, length int) Range {
	if r.IsCollapsed() {
		p := transformPositionByInsert(r.Start, at, length, true)
		return Range{Start: p, End: p}
	}
	return Range{
		Start: transformPositionByInsert(r.Start, at, length, true),
		End:   transformPositionByInsert(r.End, at, length, false),
	}
}

func transformPositionByRemove(p, at Position, length int, removed []Node) Position {
	for e := p.Parent; e != nil; e = e.parent {
		for _, n := range removed {
			if Node(e) == n {
				return at
			}
		}
	}
	if p.Parent != at.Parent {
		return p
	}
	switch {
	case p.Offset >= at.Offset+length:
		p.Offset -= length
	case p.Offset > at.Offset:
		p.Offset = at.Offset
	}
	return p
}

func transformRangeByRemove(r Range, at Position, length int, removed []Node) Range {
	return Range{
		Start: transformPositionByRemove(r.Start, at, length, removed),
		End:   transformPositionByRemove(r.End, at, length, removed),
	}
}
