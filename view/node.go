// Package view is the renderable document tree. Elements come in kinds with
// different structural rules: containers hold block content, attribute
// elements are inline wrappers that can be split and merged, UI elements are
// opaque leaves which never map to model content.
package view

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync/atomic"
	"unicode/utf8"
)

var (
	ErrInsertIntoUI          = errors.New("cannot insert into UI element")
	ErrBreakUI               = errors.New("cannot break UI element")
	ErrInvalidRangeContainer = errors.New("range has to be inside single container")
	ErrInvalidWrapper        = errors.New("wrapper has to be attribute element")
	ErrInvalidNode           = errors.New("invalid node to insert")
)

// Kind says which structural rules element follows.
type Kind int

const (
	KindContainer Kind = iota
	KindAttribute
	KindUI
	KindFragment
)

func (k Kind) String() string {
	switch k {
	case KindContainer:
		return "container"
	case KindAttribute:
		return "attribute"
	case KindUI:
		return "ui"
	case KindFragment:
		return "fragment"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// DefaultPriority of attribute elements. Lower priority wrappers end up
// outside of higher priority ones.
const DefaultPriority = 10

// FragmentName is the name of detached document fragments.
const FragmentName = "$fragment"

type NodeID uint64

var lastNodeID atomic.Uint64

func nextID() NodeID {
	return NodeID(lastNodeID.Add(1))
}

// Node is element or text.
type Node interface {
	ID() NodeID
	Parent() *Element
	Index() int
	IsSimilar(other Node) bool
	Clone(deep bool) Node
	setParent(p *Element)
}

// UIRenderFunc produces rendering of UI element for stringify, it replaces
// the default empty element output.
type UIRenderFunc func(ui *Element) string

// Element of any kind.
type Element struct {
	id       NodeID
	kind     Kind
	name     string
	attrs    map[string]string
	classes  map[string]struct{}
	styles   map[string]string
	children []Node
	parent   *Element
	doc      *Document
	rootName string

	priority    int
	identity    string
	render      UIRenderFunc
	highlighter Highlighter
}

func newElement(kind Kind, name string, attrs map[string]string) *Element {
	e := &Element{
		id:       nextID(),
		kind:     kind,
		name:     name,
		priority: DefaultPriority,
	}
	for _, k := range sortedKeys(attrs) {
		e.setAttribute(k, attrs[k])
	}
	return e
}

func NewContainerElement(name string, attrs map[string]string, children ...Node) *Element {
	e := newElement(KindContainer, name, attrs)
	e.insertChildren(0, children...)
	return e
}

func NewAttributeElement(name string, attrs map[string]string, children ...Node) *Element {
	e := newElement(KindAttribute, name, attrs)
	e.insertChildren(0, children...)
	return e
}

// NewUIElement creates opaque leaf element, it can never have children.
func NewUIElement(name string, attrs map[string]string) *Element {
	return newElement(KindUI, name, attrs)
}

// NewFragment creates detached holder for list of nodes.
func NewFragment(children ...Node) *Element {
	e := newElement(KindFragment, FragmentName, nil)
	e.insertChildren(0, children...)
	return e
}

// WithPriority sets attribute element priority, used while building
// elements.
func (e *Element) WithPriority(p int) *Element {
	e.priority = p
	return e
}

// WithIdentity sets identity token, elements with identity are similar only
// to elements with the same identity.
func (e *Element) WithIdentity(id string) *Element {
	e.identity = id
	return e
}

func (e *Element) WithRender(fn UIRenderFunc) *Element {
	e.render = fn
	return e
}

func (e *Element) WithHighlighter(h Highlighter) *Element {
	e.highlighter = h
	return e
}

func (e *Element) ID() NodeID               { return e.id }
func (e *Element) Kind() Kind               { return e.kind }
func (e *Element) Name() string             { return e.name }
func (e *Element) Parent() *Element         { return e.parent }
func (e *Element) Priority() int            { return e.priority }
func (e *Element) Identity() string         { return e.identity }
func (e *Element) Highlighter() Highlighter { return e.highlighter }
func (e *Element) RootName() string         { return e.rootName }
func (e *Element) IsContainer() bool        { return e.kind == KindContainer }
func (e *Element) IsAttribute() bool        { return e.kind == KindAttribute }
func (e *Element) IsUI() bool               { return e.kind == KindUI }
func (e *Element) IsFragment() bool         { return e.kind == KindFragment }

func (e *Element) setParent(p *Element) { e.parent = p }

func (e *Element) Index() int { return indexIn(e.parent, e) }

// Root returns the topmost ancestor or element itself.
func (e *Element) Root() *Element {
	r := e
	for r.parent != nil {
		r = r.parent
	}
	return r
}

func (e *Element) Document() *Document { return e.Root().doc }

// Ancestors returns ancestors starting with the root.
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

func (e *Element) ChildCount() int { return len(e.children) }

func (e *Element) Child(i int) Node {
	if i < 0 || i >= len(e.children) {
		return nil
	}
	return e.children[i]
}

func (e *Element) Children() []Node { return append([]Node(nil), e.children...) }
func (e *Element) IsEmpty() bool    { return len(e.children) == 0 }

// Attribute returns attribute value, "class" and "style" are composed from
// the class list and style map.
func (e *Element) Attribute(key string) (string, bool) {
	switch key {
	case "class":
		if len(e.classes) == 0 {
			return "", false
		}
		return strings.Join(e.ClassNames(), " "), true
	case "style":
		if len(e.styles) == 0 {
			return "", false
		}
		return FormatStyle(e.styles), true
	}
	v, ok := e.attrs[key]
	return v, ok
}

func (e *Element) HasAttribute(key string) bool {
	_, ok := e.Attribute(key)
	return ok
}

// AttributeKeys returns sorted attribute keys including "class" and "style"
// when present.
func (e *Element) AttributeKeys() []string {
	keys := sortedKeys(e.attrs)
	if len(e.classes) > 0 {
		keys = append(keys, "class")
	}
	if len(e.styles) > 0 {
		keys = append(keys, "style")
	}
	sort.Strings(keys)
	return keys
}

// Attributes returns all attributes as a map.
func (e *Element) Attributes() map[string]string {
	out := make(map[string]string, len(e.attrs)+2)
	for _, k := range e.AttributeKeys() {
		out[k], _ = e.Attribute(k)
	}
	return out
}

func (e *Element) HasClass(names ...string) bool {
	for _, n := range names {
		if _, ok := e.classes[n]; !ok {
			return false
		}
	}
	return true
}

func (e *Element) ClassNames() []string {
	return sortedKeys(e.classes)
}

func (e *Element) Style(name string) (string, bool) {
	v, ok := e.styles[name]
	return v, ok
}

func (e *Element) HasStyle(names ...string) bool {
	for _, n := range names {
		if _, ok := e.styles[n]; !ok {
			return false
		}
	}
	return true
}

func (e *Element) StyleNames() []string {
	return sortedKeys(e.styles)
}

// IsSimilar reports whether elements are interchangeable wrappers: same kind,
// name, attributes, classes and styles. Attribute elements also need equal
// priority, and when either has identity only identities are compared.
func (e *Element) IsSimilar(other Node) bool {
	o, ok := other.(*Element)
	if !ok {
		return false
	}
	if e == o {
		return true
	}
	if e.kind != o.kind {
		return false
	}
	if e.kind == KindAttribute {
		if e.identity != "" || o.identity != "" {
			return e.identity == o.identity
		}
		if e.priority != o.priority {
			return false
		}
	}
	if e.name != o.name || len(e.attrs) != len(o.attrs) || len(e.classes) != len(o.classes) || len(e.styles) != len(o.styles) {
		return false
	}
	for k, v := range e.attrs {
		if w, ok := o.attrs[k]; !ok || w != v {
			return false
		}
	}
	for k := range e.classes {
		if _, ok := o.classes[k]; !ok {
			return false
		}
	}
	for k, v := range e.styles {
		if w, ok := o.styles[k]; !ok || w != v {
			return false
		}
	}
	return true
}

// Clone copies element with new identity, deep clone copies children too.
func (e *Element) Clone(deep bool) Node {
	c := &Element{
		id:          nextID(),
		kind:        e.kind,
		name:        e.name,
		priority:    e.priority,
		identity:    e.identity,
		render:      e.render,
		highlighter: e.highlighter,
	}
	for k, v := range e.attrs {
		c.setAttribute(k, v)
	}
	for k := range e.classes {
		c.addClass(k)
	}
	for k, v := range e.styles {
		c.setStyle(k, v)
	}
	if deep {
		for _, ch := range e.children {
			c.insertChildren(len(c.children), ch.Clone(true))
		}
	}
	return c
}

// CloneElement is Clone for callers which need element back.
func (e *Element) CloneElement(deep bool) *Element {
	return e.Clone(deep).(*Element)
}

// insertChildren detaches nodes from previous parents and inserts them.
func (e *Element) insertChildren(index int, nodes ...Node) {
	for _, n := range nodes {
		if p := n.Parent(); p != nil {
			p.removeChildren(n.Index(), 1)
		}
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

func (e *Element) setAttribute(key, value string) {
	switch key {
	case "class":
		e.classes = nil
		for _, c := range ParseClasses(value) {
			e.addClass(c)
		}
	case "style":
		e.styles = nil
		for k, v := range ParseStyle(value) {
			e.setStyle(k, v)
		}
	default:
		if e.attrs == nil {
			e.attrs = make(map[string]string)
		}
		e.attrs[key] = value
	}
}

func (e *Element) removeAttribute(key string) {
	switch key {
	case "class":
		e.classes = nil
	case "style":
		e.styles = nil
	default:
		delete(e.attrs, key)
	}
}

func (e *Element) addClass(name string) {
	if e.classes == nil {
		e.classes = make(map[string]struct{})
	}
	e.classes[name] = struct{}{}
}

func (e *Element) removeClass(name string) { delete(e.classes, name) }

func (e *Element) setStyle(name, value string) {
	if e.styles == nil {
		e.styles = make(map[string]string)
	}
	e.styles[name] = value
}

func (e *Element) removeStyle(name string) { delete(e.styles, name) }

// Text holds character data. Offsets inside text are in runes.
type Text struct {
	id     NodeID
	data   string
	parent *Element
}

func NewText(data string) *Text {
	return &Text{id: nextID(), data: data}
}

func (t *Text) ID() NodeID           { return t.id }
func (t *Text) Data() string         { return t.data }
func (t *Text) Len() int             { return utf8.RuneCountInString(t.data) }
func (t *Text) Parent() *Element     { return t.parent }
func (t *Text) Index() int           { return indexIn(t.parent, t) }
func (t *Text) setParent(p *Element) { t.parent = p }

func (t *Text) IsSimilar(other Node) bool {
	o, ok := other.(*Text)
	return ok && o.data == t.data
}

func (t *Text) Clone(bool) Node { return NewText(t.data) }

// TextProxy is part of text node produced by tree walks.
type TextProxy struct {
	Text         *Text
	OffsetInText int
	Length       int
}

func (p TextProxy) Data() string {
	r := []rune(p.Text.data)
	return string(r[p.OffsetInText : p.OffsetInText+p.Length])
}

// IsPartial reports whether proxy does not cover whole text node.
func (p TextProxy) IsPartial() bool {
	return p.OffsetInText != 0 || p.Length != p.Text.Len()
}

// Ancestors returns node ancestors starting with the root.
func Ancestors(n Node) []*Element {
	if e, ok := n.(*Element); ok {
		return e.Ancestors()
	}
	if n.Parent() == nil {
		return nil
	}
	return append(n.Parent().Ancestors(), n.Parent())
}

// ParentContainer finds closest container (or fragment) holding the node,
// the node itself included.
func ParentContainer(n Node) *Element {
	var e *Element
	switch v := n.(type) {
	case *Element:
		e = v
	case *Text:
		e = v.parent
	}
	for e != nil && e.kind != KindContainer && e.kind != KindFragment {
		e = e.parent
	}
	return e
}

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

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
