// Package model is the semantic document tree: elements, text with
// attributes, positions, ranges, markers and selection. All changes go through
// Writer obtained from Document.Change, every applied operation is reported to
// change listeners synchronously.
package model

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"sync/atomic"
	"unicode/utf8"
)

// Reserved item names.
const (
	TextName     = "$text"
	RootName     = "$root"
	FragmentName = "$fragment"
)

var (
	ErrAttached     = errors.New("node is attached to a document tree")
	ErrNotDetached  = errors.New("node already has a parent")
	ErrInvalidRange = errors.New("invalid range")
	ErrOutOfBounds  = errors.New("offset out of bounds")
	ErrNotInChange  = errors.New("writer used outside of change block")
)

// NodeID identifies node for the lifetime of the process, ids are never
// reused so they can be used as map keys after node removal.
type NodeID uint64

var lastNodeID atomic.Uint64

func nextID() NodeID {
	return NodeID(lastNodeID.Add(1))
}

// Attributes are key/value pairs set on elements and text. Values are
// compared with reflect.DeepEqual.
type Attributes map[string]any

// Keys returns attribute keys sorted.
func (a Attributes) Keys() []string {
	keys := make([]string, 0, len(a))
	for k := range a {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (a Attributes) Clone() Attributes {
	if len(a) == 0 {
		return nil
	}
	out := make(Attributes, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

func (a Attributes) Equal(b Attributes) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		w, ok := b[k]
		if !ok || !reflect.DeepEqual(v, w) {
			return false
		}
	}
	return true
}

// Item is anything tree walk produces: elements and text proxies. Text nodes
// are items too.
type Item interface {
	Name() string
	Parent() *Element
	StartOffset() int
	OffsetSize() int
	Attribute(key string) (any, bool)
	AttributeKeys() []string
}

// Node is a tree member: element or text.
type Node interface {
	Item
	ID() NodeID
	Index() int
	setParent(p *Element)
	attrs() Attributes
	setAttr(key string, value any)
	removeAttr(key string)
}

// EndOffset returns offset just after the item in its parent.
func EndOffset(it Item) int {
	return it.StartOffset() + it.OffsetSize()
}

// Element is a named node with attributes and children.
type Element struct {
	id       NodeID
	name     string
	attrsMap Attributes
	children []Node
	parent   *Element
	doc      *Document
	rootName string
}

// NewElement creates detached element. Children must be detached.
func NewElement(name string, attrs Attributes, children ...Node) *Element {
	e := &Element{id: nextID(), name: name, attrsMap: attrs.Clone()}
	for _, c := range children {
		if c.Parent() != nil {
			panic(fmt.Sprintf("model: child %s of new element %s already has a parent", c.Name(), name))
		}
	}
	e.insertChildren(0, children...)
	return e
}

// NewFragment creates detached container used to pass lists of nodes around.
func NewFragment(children ...Node) *Element {
	return NewElement(FragmentName, nil, children...)
}

func (e *Element) ID() NodeID       { return e.id }
func (e *Element) Name() string     { return e.name }
func (e *Element) Parent() *Element { return e.parent }
func (e *Element) OffsetSize() int  { return 1 }
func (e *Element) IsFragment() bool { return e.name == FragmentName }

// RootName returns name under which root element is registered in its
// document, empty for other elements.
func (e *Element) RootName() string { return e.rootName }

func (e *Element) setParent(p *Element) { e.parent = p }
func (e *Element) attrs() Attributes    { return e.attrsMap }

func (e *Element) setAttr(key string, value any) {
	if e.attrsMap == nil {
		e.attrsMap = make(Attributes)
	}
	e.attrsMap[key] = value
}

func (e *Element) removeAttr(key string) { delete(e.attrsMap, key) }

func (e *Element) Attribute(key string) (any, bool) {
	v, ok := e.attrsMap[key]
	return v, ok
}

func (e *Element) AttributeKeys() []string { return e.attrsMap.Keys() }

// Attributes returns copy of element attributes.
func (e *Element) Attributes() Attributes { return e.attrsMap.Clone() }

// SetAttribute modifies detached element, attached elements are changed with
// Writer.SetAttribute.
func (e *Element) SetAttribute(key string, value any) error {
	if e.Root().doc != nil {
		return ErrAttached
	}
	e.setAttr(key, value)
	return nil
}

// AppendChildren adds detached nodes at the end of detached element. Text
// nodes with equal attributes which end up next to each other are merged.
func (e *Element) AppendChildren(nodes ...Node) error {
	if e.Root().doc != nil {
		return ErrAttached
	}
	for _, n := range nodes {
		if n.Parent() != nil {
			return fmt.Errorf("append %s to %s: %w", n.Name(), e.name, ErrNotDetached)
		}
	}
	e.insertChildren(len(e.children), nodes...)
	normalizeTexts(e)
	return nil
}

// RemoveChildren removes count children starting at index from detached
// element.
func (e *Element) RemoveChildren(index, count int) ([]Node, error) {
	if e.Root().doc != nil {
		return nil, ErrAttached
	}
	if index < 0 || count < 0 || index+count > len(e.children) {
		return nil, fmt.Errorf("remove %d children at %d from %s: %w", count, index, e.name, ErrOutOfBounds)
	}
	removed := e.removeChildren(index, count)
	normalizeTexts(e)
	return removed, nil
}

// Detach removes all children from detached element and returns them.
func (e *Element) Detach() ([]Node, error) {
	if e.Root().doc != nil {
		return nil, ErrAttached
	}
	return e.removeChildren(0, len(e.children)), nil
}

func (e *Element) ChildCount() int { return len(e.children) }

func (e *Element) Child(i int) Node {
	if i < 0 || i >= len(e.children) {
		return nil
	}
	return e.children[i]
}

// Children returns copy of the child list.
func (e *Element) Children() []Node {
	return append([]Node(nil), e.children...)
}

// MaxOffset is the sum of children offset sizes.
func (e *Element) MaxOffset() int {
	n := 0
	for _, c := range e.children {
		n += c.OffsetSize()
	}
	return n
}

func (e *Element) IsEmpty() bool { return len(e.children) == 0 }

func (e *Element) Index() int { return indexIn(e.parent, e) }

func (e *Element) StartOffset() int { return startOffsetIn(e.parent, e) }

// Root returns the topmost ancestor (or element itself).
func (e *Element) Root() *Element {
	r := e
	for r.parent != nil {
		r = r.parent
	}
	return r
}

// Document returns owning document or nil for detached trees.
func (e *Element) Document() *Document { return e.Root().doc }

// Ancestors returns ancestors starting with the root, not including element.
func (e *Element) Ancestors() []*Element {
	var out []*Element
	for p := e.parent; p != nil; p = p.parent {
		out = append(out, p)
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// IsAncestorOf reports whether e contains n somewhere below.
func (e *Element) IsAncestorOf(n Node) bool {
	for p := n.Parent(); p != nil; p = p.Parent() {
		if p == e {
			return true
		}
	}
	return false
}

// offsetToIndex returns index of the child occupying offset, or child count
// when offset is at the end.
func (e *Element) offsetToIndex(offset int) int {
	total := 0
	for i, c := range e.children {
		if offset < total+c.OffsetSize() {
			return i
		}
		total += c.OffsetSize()
	}
	return len(e.children)
}

func (e *Element) insertChildren(index int, nodes ...Node) {
	for _, n := range nodes {
		n.setParent(e)
	}
	e.children = append(e.children[:index], append(append([]Node(nil), nodes...), e.children[index:]...)...)
}

func (e *Element) removeChildren(index, count int) []Node {
	removed := append([]Node(nil), e.children[index:index+count]...)
	e.children = append(e.children[:index], e.children[index+count:]...)
	for _, n := range removed {
		n.setParent(nil)
	}
	return removed
}

// Text is a run of characters sharing the same attributes. Offsets are in
// runes.
type Text struct {
	id       NodeID
	data     string
	attrsMap Attributes
	parent   *Element
}

func NewText(data string, attrs Attributes) *Text {
	return &Text{id: nextID(), data: data, attrsMap: attrs.Clone()}
}

func (t *Text) ID() NodeID           { return t.id }
func (t *Text) Name() string         { return TextName }
func (t *Text) Data() string         { return t.data }
func (t *Text) Parent() *Element     { return t.parent }
func (t *Text) OffsetSize() int      { return utf8.RuneCountInString(t.data) }
func (t *Text) Index() int           { return indexIn(t.parent, t) }
func (t *Text) StartOffset() int     { return startOffsetIn(t.parent, t) }
func (t *Text) setParent(p *Element) { t.parent = p }
func (t *Text) attrs() Attributes    { return t.attrsMap }

func (t *Text) setAttr(key string, value any) {
	if t.attrsMap == nil {
		t.attrsMap = make(Attributes)
	}
	t.attrsMap[key] = value
}

func (t *Text) removeAttr(key string) { delete(t.attrsMap, key) }

// SetAttribute changes attribute of text which is not in a document. Nil
// value removes the attribute.
func (t *Text) SetAttribute(key string, value any) error {
	if t.parent != nil && t.parent.Root().doc != nil {
		return ErrAttached
	}
	if value == nil {
		t.removeAttr(key)
		return nil
	}
	t.setAttr(key, value)
	return nil
}

func (t *Text) Attribute(key string) (any, bool) {
	v, ok := t.attrsMap[key]
	return v, ok
}

func (t *Text) AttributeKeys() []string { return t.attrsMap.Keys() }
func (t *Text) Attributes() Attributes  { return t.attrsMap.Clone() }

// TextProxy is a slice of text node produced by tree walks. Proxies are
// values, two proxies over the same characters of the same node are equal.
type TextProxy struct {
	Text         *Text
	OffsetInText int
	Length       int
}

func (p TextProxy) Name() string     { return TextName }
func (p TextProxy) Parent() *Element { return p.Text.parent }
func (p TextProxy) StartOffset() int { return p.Text.StartOffset() + p.OffsetInText }
func (p TextProxy) OffsetSize() int  { return p.Length }

func (p TextProxy) Data() string {
	r := []rune(p.Text.data)
	return string(r[p.OffsetInText : p.OffsetInText+p.Length])
}

// IsPartial reports whether proxy does not cover the whole text node.
func (p TextProxy) IsPartial() bool {
	return p.OffsetInText != 0 || p.Length != p.Text.OffsetSize()
}

func (p TextProxy) Attribute(key string) (any, bool) { return p.Text.Attribute(key) }
func (p TextProxy) AttributeKeys() []string          { return p.Text.AttributeKeys() }

func indexIn(parent *Element, n Node) int {
	if parent == nil {
		return -1
	}
	for i, c := range parent.children {
		if c == n {
			return i
		}
	}
	return -1
}

func startOffsetIn(parent *Element, n Node) int {
	if parent == nil {
		return -1
	}
	total := 0
	for _, c := range parent.children {
		if c == n {
			return total
		}
		total += c.OffsetSize()
	}
	return -1
}
