package view

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

// Position is a point in the view tree. Parent is element (offset counts
// children) or text (offset counts characters).
type Position struct {
	Parent Node
	Offset int
}

func PositionAt(parent Node, offset int) Position {
	return Position{Parent: parent, Offset: offset}
}

func PositionBefore(n Node) Position {
	return Position{Parent: n.Parent(), Offset: n.Index()}
}

func PositionAfter(n Node) Position {
	return Position{Parent: n.Parent(), Offset: n.Index() + 1}
}

// PositionBeforeItem accepts walker items: nodes and text proxies.
func PositionBeforeItem(item any) Position {
	if tp, ok := item.(TextProxy); ok {
		return Position{Parent: tp.Text, Offset: tp.OffsetInText}
	}
	return PositionBefore(item.(Node))
}

func PositionAfterItem(item any) Position {
	if tp, ok := item.(TextProxy); ok {
		return Position{Parent: tp.Text, Offset: tp.OffsetInText + tp.Length}
	}
	return PositionAfter(item.(Node))
}

// nodeLength is the number of offsets inside node.
func nodeLength(n Node) int {
	switch v := n.(type) {
	case *Element:
		return len(v.children)
	case *Text:
		return v.Len()
	}
	return 0
}

func (p Position) IsZero() bool { return p.Parent == nil }

func (p Position) ParentElement() (*Element, bool) {
	e, ok := p.Parent.(*Element)
	return e, ok
}

func (p Position) ParentText() (*Text, bool) {
	t, ok := p.Parent.(*Text)
	return t, ok
}

func (p Position) NodeAfter() Node {
	if e, ok := p.Parent.(*Element); ok {
		return e.Child(p.Offset)
	}
	return nil
}

func (p Position) NodeBefore() Node {
	if e, ok := p.Parent.(*Element); ok {
		return e.Child(p.Offset - 1)
	}
	return nil
}

func (p Position) IsAtStart() bool { return p.Offset == 0 }
func (p Position) IsAtEnd() bool   { return p.Offset == nodeLength(p.Parent) }

func (p Position) IsEqual(q Position) bool {
	return p.Parent == q.Parent && p.Offset == q.Offset
}

func (p Position) ShiftedBy(n int) Position {
	return Position{Parent: p.Parent, Offset: max(0, p.Offset+n)}
}

// Root returns topmost node of position tree.
func (p Position) Root() Node {
	if p.Parent.Parent() == nil {
		return p.Parent
	}
	return p.Parent.Parent().Root()
}

// Ancestors returns elements from the root down to the closest element
// holding the position.
func (p Position) Ancestors() []*Element {
	switch v := p.Parent.(type) {
	case *Element:
		return append(v.Ancestors(), v)
	case *Text:
		return Ancestors(v)
	}
	return nil
}

// Path returns indexes from the root to the position.
func (p Position) Path() []int {
	var path []int
	for n := p.Parent; n.Parent() != nil; n = n.Parent() {
		path = append(path, n.Index())
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return append(path, p.Offset)
}

func (p Position) Compare(q Position) Relation {
	if p.IsEqual(q) {
		return Same
	}
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

func (p Position) IsBefore(q Position) bool { return p.Compare(q) == Before }
func (p Position) IsAfter(q Position) bool  { return p.Compare(q) == After }

// InsideUI reports whether position is inside UI element.
func (p Position) InsideUI() bool {
	for _, a := range p.Ancestors() {
		if a.kind == KindUI {
			return true
		}
	}
	return false
}

// LastMatchingPosition moves from p while skip returns true and returns the
// last position reached.
func (p Position) LastMatchingPosition(skip func(WalkerValue) bool, opts WalkerOptions) Position {
	opts.StartPosition = &p
	w := NewWalker(opts)
	w.Skip(skip)
	return w.Position()
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
	return fmt.Sprintf("[%s]", strings.Join(parts, ","))
}
