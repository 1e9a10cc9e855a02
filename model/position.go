package model

import (
	"fmt"
	"strconv"
	"strings"
)

// Relation is the result of position comparison.
type Relation int

const (
	Before Relation = iota - 1
	Same
	After
	Different
)

func (r Relation) String() string {
	switch r {
	case Before:
		return "before"
	case Same:
		return "same"
	case After:
		return "after"
	default:
		return "different"
	}
}

// Position is a point between two items (or inside text) given as parent
// element and offset in it.
type Position struct {
	Parent *Element
	Offset int
}

func PositionAt(parent *Element, offset int) Position {
	return Position{Parent: parent, Offset: offset}
}

func PositionBefore(it Item) Position {
	return Position{Parent: it.Parent(), Offset: it.StartOffset()}
}

func PositionAfter(it Item) Position {
	return Position{Parent: it.Parent(), Offset: EndOffset(it)}
}

func (p Position) IsValid() bool {
	return p.Parent != nil && p.Offset >= 0 && p.Offset <= p.Parent.MaxOffset()
}

func (p Position) Root() *Element {
	if p.Parent == nil {
		return nil
	}
	return p.Parent.Root()
}

// Path returns offsets from the root down to the position.
func (p Position) Path() []int {
	var path []int
	for e := p.Parent; e.parent != nil; e = e.parent {
		path = append(path, e.StartOffset())
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return append(path, p.Offset)
}

func (p Position) Compare(q Position) Relation {
	if p.Root() != q.Root() {
		return Different
	}
	a, b := p.Path(), q.Path()
	for i := 0; i < len(a) && i < len(b); i++ {
		switch {
		case a[i] < b[i]:
			return Before
		case a[i] > b[i]:
			return After
		}
	}
	switch {
	case len(a) < len(b):
		return Before
	case len(a) > len(b):
		return After
	}
	return Same
}

func (p Position) IsEqual(q Position) bool {
	return p.Parent == q.Parent && p.Offset == q.Offset
}

func (p Position) IsBefore(q Position) bool { return p.Compare(q) == Before }
func (p Position) IsAfter(q Position) bool  { return p.Compare(q) == After }

func (p Position) ShiftedBy(n int) Position {
	return Position{Parent: p.Parent, Offset: max(0, p.Offset+n)}
}

func (p Position) IsAtStart() bool { return p.Offset == 0 }
func (p Position) IsAtEnd() bool   { return p.Offset == p.Parent.MaxOffset() }

// TextNode returns text node the position is strictly inside of.
func (p Position) TextNode() *Text {
	node := p.Parent.Child(p.Parent.offsetToIndex(p.Offset))
	if t, ok := node.(*Text); ok && t.StartOffset() < p.Offset {
		return t
	}
	return nil
}

// NodeAfter returns node starting at position, nil when position is inside
// text or at the end.
func (p Position) NodeAfter() Node {
	if p.TextNode() != nil {
		return nil
	}
	return p.Parent.Child(p.Parent.offsetToIndex(p.Offset))
}

// NodeBefore returns node ending at position, nil when position is inside
// text or at the start.
func (p Position) NodeBefore() Node {
	if p.TextNode() != nil {
		return nil
	}
	return p.Parent.Child(p.Parent.offsetToIndex(p.Offset) - 1)
}

// Ancestors returns position parent and its ancestors starting with root.
func (p Position) Ancestors() []*Element {
	return append(p.Parent.Ancestors(), p.Parent)
}

func (p Position) String() string {
	if p.Parent == nil {
		return "<nil>"
	}
	path := p.Path()
	parts := make([]string, len(path))
	for i, v := range path {
		parts[i] = strconv.Itoa(v)
	}
	root := p.Root()
	name := root.rootName
	if name == "" {
		name = root.name
	}
	return fmt.Sprintf("%s:[%s]", name, strings.Join(parts, ","))
}
