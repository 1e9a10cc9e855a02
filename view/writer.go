package view

import (
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"
)

// Writer performs structural view changes keeping attribute elements
// normalized: adjacent similar wrappers and adjacent texts are merged,
// empty wrappers are removed.
type Writer struct {
	doc *Document
}

// NewWriter creates writer, doc may be nil when writer only works on
// detached fragments.
func NewWriter(doc *Document) *Writer {
	return &Writer{doc: doc}
}

func (w *Writer) Document() *Document { return w.doc }

// SetSelection replaces view selection ranges.
func (w *Writer) SetSelection(ranges []Range, backward bool) {
	if w.doc != nil {
		w.doc.selection.SetTo(ranges, backward)
	}
}

func (w *Writer) SetSelectionAt(p Position) {
	w.SetSelection([]Range{CollapsedRange(p)}, false)
}

func (w *Writer) SetFakeSelection(fake bool, label string) {
	if w.doc != nil {
		w.doc.selection.SetFake(fake, label)
	}
}

func (w *Writer) SetAttribute(key, value string, e *Element) { e.setAttribute(key, value) }
func (w *Writer) RemoveAttribute(key string, e *Element)     { e.removeAttribute(key) }
func (w *Writer) SetStyle(name, value string, e *Element)    { e.setStyle(name, value) }
func (w *Writer) RemoveStyle(name string, e *Element)        { e.removeStyle(name) }

func (w *Writer) AddClass(e *Element, names ...string) {
	for _, n := range names {
		e.addClass(n)
	}
}

func (w *Writer) RemoveClass(e *Element, names ...string) {
	for _, n := range names {
		e.removeClass(n)
	}
}

// BreakAttributes splits attribute elements so position ends up directly in
// its container. Text is not split unless forced.
func (w *Writer) BreakAttributes(p Position, forceSplitText bool) (Position, error) {
	return breakAttributes(p, forceSplitText)
}

// BreakAttributesRange breaks attributes at both range ends.
func (w *Writer) BreakAttributesRange(r Range, forceSplitText bool) (Range, error) {
	if err := validateRangeContainer(r); err != nil {
		return Range{}, err
	}
	return breakAttributesRange(r, forceSplitText)
}

// Insert puts nodes at position and returns range over inserted content
// after merging with neighbours.
func (w *Writer) Insert(p Position, nodes ...Node) (Range, error) {
	if err := validateNodesToInsert(nodes); err != nil {
		return Range{}, err
	}
	if p.InsideUI() {
		return Range{}, ErrInsertIntoUI
	}
	container := parentContainerOf(p)
	if container == nil {
		return Range{}, fmt.Errorf("insert at %s: position is not inside container: %w", p, ErrInvalidRangeContainer)
	}
	at, err := breakAttributes(p, true)
	if err != nil {
		return Range{}, err
	}
	container.insertChildren(at.Offset, nodes...)
	end := at.ShiftedBy(len(nodes))
	start := mergeAttributes(at)
	if len(nodes) == 0 {
		return CollapsedRange(start), nil
	}
	if !start.IsEqual(at) {
		end.Offset--
	}
	return Range{Start: start, End: mergeAttributes(end)}, nil
}

// Remove detaches range content and returns it as fragment. Range ends are
// merged afterwards.
func (w *Writer) Remove(r Range) (*Element, Position, error) {
	if err := validateRangeContainer(r); err != nil {
		return nil, Position{}, err
	}
	if r.IsCollapsed() {
		return NewFragment(), r.Start, nil
	}
	br, err := breakAttributesRange(r, true)
	if err != nil {
		return nil, Position{}, err
	}
	parent := br.Start.Parent.(*Element)
	removed := parent.removeChildren(br.Start.Offset, br.End.Offset-br.Start.Offset)
	merged := mergeAttributes(br.Start)
	return NewFragment(removed...), merged, nil
}

// Clear removes every element similar to e from the range. Texts inside a
// similar ancestor are removed together with the part of that ancestor which
// lies in the range.
func (w *Writer) Clear(r Range, e *Element) error {
	if err := validateRangeContainer(r); err != nil {
		return err
	}
	walker := r.Walker(WalkerOptions{Direction: Backward, IgnoreElementEnd: true})
	for v, ok := walker.Next(); ok; v, ok = walker.Next() {
		var (
			toRemove Range
			found    bool
		)
		switch item := v.Item.(type) {
		case *Element:
			if e.IsSimilar(item) {
				toRemove, found = RangeOn(item), true
			}
		case TextProxy:
			if v.NextPosition.IsAfter(r.Start) {
				break
			}
			for _, a := range Ancestors(item.Text) {
				if e.IsSimilar(a) {
					toRemove, found = RangeIn(a), true
					break
				}
			}
		}
		if !found {
			continue
		}
		if toRemove.End.IsAfter(r.End) {
			toRemove.End = r.End
		}
		if toRemove.Start.IsBefore(r.Start) {
			toRemove.Start = r.Start
		}
		if _, _, err := w.Remove(toRemove); err != nil {
			return err
		}
	}
	return nil
}

// Wrap wraps range content with attribute element. Collapsed range wraps
// the position and moves collapsed view selection there.
func (w *Writer) Wrap(r Range, attr *Element) (Range, error) {
	if attr.kind != KindAttribute {
		return Range{}, ErrInvalidWrapper
	}
	if err := validateRangeContainer(r); err != nil {
		return Range{}, err
	}
	if !r.IsCollapsed() {
		return wrapRange(r, attr)
	}
	p := r.Start
	if e, ok := p.ParentElement(); ok && !hasNonUIChildren(e) {
		p = p.LastMatchingPosition(func(v WalkerValue) bool {
			ui, isElement := v.Item.(*Element)
			return isElement && ui.kind == KindUI
		}, WalkerOptions{})
	}
	p, err := wrapPosition(p, attr)
	if err != nil {
		return Range{}, err
	}
	if w.doc != nil {
		sel := w.doc.selection
		if first, ok := sel.FirstPosition(); ok && sel.IsCollapsed() && first.IsEqual(r.Start) {
			sel.SetTo([]Range{CollapsedRange(p)}, false)
		}
	}
	return CollapsedRange(p), nil
}

// WrapPosition returns position inside new (or merged) attribute element
// created at p.
func (w *Writer) WrapPosition(p Position, attr *Element) (Position, error) {
	if attr.kind != KindAttribute {
		return Position{}, ErrInvalidWrapper
	}
	return wrapPosition(p, attr)
}

// Unwrap removes attribute element wrapping from range content. Partially
// matching wrappers lose the attributes, classes and styles of attr.
func (w *Writer) Unwrap(r Range, attr *Element) (Range, error) {
	if attr.kind != KindAttribute {
		return Range{}, ErrInvalidWrapper
	}
	if err := validateRangeContainer(r); err != nil {
		return Range{}, err
	}
	if r.IsCollapsed() {
		return r, nil
	}
	br, err := breakAttributesRange(r, true)
	if err != nil {
		return Range{}, err
	}
	parent := br.Start.Parent.(*Element)
	nr := unwrapChildren(parent, br.Start.Offset, br.End.Offset, attr)
	start := mergeAttributes(nr.Start)
	if !start.IsEqual(nr.Start) {
		nr.End.Offset--
	}
	return Range{Start: start, End: mergeAttributes(nr.End)}, nil
}

// MergeAttributes merges nodes around position when possible and returns
// the resulting position.
func (w *Writer) MergeAttributes(p Position) Position {
	return mergeAttributes(p)
}

func validateNodesToInsert(nodes []Node) error {
	for _, n := range nodes {
		switch v := n.(type) {
		case *Text:
		case *Element:
			if v.kind == KindFragment {
				return fmt.Errorf("fragment %s: %w", v.name, ErrInvalidNode)
			}
			if v.doc != nil {
				return fmt.Errorf("root %s: %w", v.name, ErrInvalidNode)
			}
			if err := validateNodesToInsert(v.children); err != nil {
				return err
			}
		default:
			return fmt.Errorf("%T: %w", n, ErrInvalidNode)
		}
	}
	return nil
}

func isContainerOrFragment(n Node) bool {
	e, ok := n.(*Element)
	return ok && (e.kind == KindContainer || e.kind == KindFragment)
}

func parentContainerOf(p Position) *Element {
	n := p.Parent
	for !isContainerOrFragment(n) {
		parent := n.Parent()
		if parent == nil {
			return nil
		}
		n = parent
	}
	return n.(*Element)
}

func validateRangeContainer(r Range) error {
	a, b := parentContainerOf(r.Start), parentContainerOf(r.End)
	if a == nil || b == nil || a != b {
		return fmt.Errorf("range %s: %w", r, ErrInvalidRangeContainer)
	}
	return nil
}

func breakAttributesRange(r Range, forceSplitText bool) (Range, error) {
	if r.IsCollapsed() {
		p, err := breakAttributes(r.Start, forceSplitText)
		return CollapsedRange(p), err
	}
	end, err := breakAttributes(r.End, forceSplitText)
	if err != nil {
		return Range{}, err
	}
	count := nodeLength(end.Parent)
	start, err := breakAttributes(r.Start, forceSplitText)
	if err != nil {
		return Range{}, err
	}
	end.Offset += nodeLength(end.Parent) - count
	return Range{Start: start, End: end}, nil
}

func breakAttributes(p Position, forceSplitText bool) (Position, error) {
	parent := p.Parent
	if e, ok := parent.(*Element); ok && e.kind == KindUI {
		return Position{}, ErrBreakUI
	}
	if t, ok := parent.(*Text); ok {
		if !forceSplitText && isContainerOrFragment(t.parent) {
			return p, nil
		}
		return breakAttributes(breakTextNode(p), forceSplitText)
	}
	if isContainerOrFragment(parent) {
		return p, nil
	}

	e := parent.(*Element)
	switch {
	case p.Offset == len(e.children):
		return breakAttributes(PositionAfter(e), forceSplitText)
	case p.Offset == 0:
		return breakAttributes(PositionBefore(e), forceSplitText)
	default:
		after := e.Index() + 1
		clone := e.CloneElement(false)
		moved := e.removeChildren(p.Offset, len(e.children)-p.Offset)
		clone.insertChildren(0, moved...)
		e.parent.insertChildren(after, clone)
		return breakAttributes(PositionAt(e.parent, after), forceSplitText)
	}
}

// breakTextNode splits text at position and returns position between the
// parts in the text parent.
func breakTextNode(p Position) Position {
	t := p.Parent.(*Text)
	if p.Offset == t.Len() {
		return PositionAfter(t)
	}
	if p.Offset == 0 {
		return PositionBefore(t)
	}
	runes := []rune(t.data)
	t.data = string(runes[:p.Offset])
	t.parent.insertChildren(t.Index()+1, NewText(string(runes[p.Offset:])))
	return PositionAfter(t)
}

func mergeTextNodes(a, b *Text) Position {
	before := a.Len()
	a.data += b.data
	b.parent.removeChildren(b.Index(), 1)
	return PositionAt(a, before)
}

func mergeAttributes(p Position) Position {
	parent, ok := p.Parent.(*Element)
	if !ok {
		return p
	}
	if parent.kind == KindAttribute && len(parent.children) == 0 {
		grand, offset := parent.parent, parent.Index()
		grand.removeChildren(offset, 1)
		return mergeAttributes(PositionAt(grand, offset))
	}
	before, after := parent.Child(p.Offset-1), parent.Child(p.Offset)
	if before == nil || after == nil {
		return p
	}
	tb, ok1 := before.(*Text)
	ta, ok2 := after.(*Text)
	if ok1 && ok2 {
		return mergeTextNodes(tb, ta)
	}
	eb, ok1 := before.(*Element)
	ea, ok2 := after.(*Element)
	if ok1 && ok2 && eb.kind == KindAttribute && ea.kind == KindAttribute && eb.IsSimilar(ea) {
		count := len(eb.children)
		moved := ea.removeChildren(0, len(ea.children))
		eb.insertChildren(count, moved...)
		parent.removeChildren(ea.Index(), 1)
		return mergeAttributes(PositionAt(eb, count))
	}
	return p
}

func hasNonUIChildren(e *Element) bool {
	for _, c := range e.children {
		if ce, ok := c.(*Element); !ok || ce.kind != KindUI {
			return true
		}
	}
	return false
}

func rangeSpansOnAllChildren(r Range) bool {
	return r.Start.Parent == r.End.Parent && r.Start.IsAtStart() && r.End.IsAtEnd()
}

func wrapRange(r Range, attr *Element) (Range, error) {
	if rangeSpansOnAllChildren(r) {
		if e, ok := r.Start.ParentElement(); ok && wrapAttributeElement(attr, e) {
			end := mergeAttributes(PositionAfter(e))
			start := mergeAttributes(PositionBefore(e))
			return Range{Start: start, End: end}, nil
		}
	}
	br, err := breakAttributesRange(r, true)
	if err != nil {
		return Range{}, err
	}
	start, end := br.Start, br.End
	if end.IsEqual(start.ShiftedBy(1)) {
		if node, ok := start.NodeAfter().(*Element); ok && node.kind == KindAttribute && wrapAttributeElement(attr, node) {
			merged := mergeAttributes(start)
			if !merged.IsEqual(start) {
				end.Offset--
			}
			return Range{Start: merged, End: mergeAttributes(end)}, nil
		}
	}
	parent := start.Parent.(*Element)
	unwrapped := unwrapChildren(parent, start.Offset, end.Offset, attr)
	nr := wrapChildren(parent, unwrapped.Start.Offset, unwrapped.End.Offset, attr)
	merged := mergeAttributes(nr.Start)
	if !merged.IsEqual(nr.Start) {
		nr.End.Offset--
	}
	return Range{Start: merged, End: mergeAttributes(nr.End)}, nil
}

// wrapPosition inserts placeholder at position, wraps it and returns the
// position left after the placeholder is removed.
func wrapPosition(p Position, attr *Element) (Position, error) {
	if e, ok := p.ParentElement(); ok && attr.IsSimilar(e) {
		return movePositionToTextNode(p), nil
	}
	if _, ok := p.ParentText(); ok {
		p = breakTextNode(p)
	}
	parent, ok := p.ParentElement()
	if !ok || parent.kind == KindUI {
		return Position{}, ErrBreakUI
	}
	placeholder := NewAttributeElement("$placeholder", nil).
		WithPriority(math.MaxInt).
		WithIdentity("placeholder-" + uuid.NewString())
	parent.insertChildren(p.Offset, placeholder)
	if _, err := wrapRange(Range{Start: p, End: p.ShiftedBy(1)}, attr); err != nil {
		return Position{}, err
	}
	np := PositionBefore(placeholder)
	placeholder.parent.removeChildren(np.Offset, 1)
	tb, ok1 := np.NodeBefore().(*Text)
	ta, ok2 := np.NodeAfter().(*Text)
	if ok1 && ok2 {
		return mergeTextNodes(tb, ta), nil
	}
	return movePositionToTextNode(np), nil
}

func movePositionToTextNode(p Position) Position {
	if t, ok := p.NodeBefore().(*Text); ok {
		return PositionAt(t, t.Len())
	}
	if t, ok := p.NodeAfter().(*Text); ok {
		return PositionAt(t, 0)
	}
	return p
}

// identityString orders wrappers of equal priority deterministically.
func identityString(e *Element) string {
	s := e.name
	if len(e.classes) > 0 {
		s += ` class="` + strings.Join(e.ClassNames(), ",") + `"`
	}
	if len(e.styles) > 0 {
		s += ` style="` + FormatStyle(e.styles) + `"`
	}
	for _, k := range sortedKeys(e.attrs) {
		s += " " + k + `="` + e.attrs[k] + `"`
	}
	return s
}

// shouldABeOutsideB decides nesting order of two wrappers.
func shouldABeOutsideB(a, b *Element) bool {
	switch {
	case a.priority < b.priority:
		return true
	case a.priority > b.priority:
		return false
	}
	return identityString(a) < identityString(b)
}

func wrapChildren(parent *Element, start, end int, attr *Element) Range {
	var wrapped []int
	for i := start; i < end; i++ {
		child := parent.children[i]
		ce, isElement := child.(*Element)
		switch {
		case !isElement || ce.kind == KindUI || (ce.kind == KindAttribute && shouldABeOutsideB(attr, ce)):
			wrapper := attr.CloneElement(false)
			parent.removeChildren(i, 1)
			wrapper.insertChildren(0, child)
			parent.insertChildren(i, wrapper)
			wrapped = append(wrapped, i)
		case ce.kind == KindAttribute:
			wrapChildren(ce, 0, len(ce.children), attr)
		}
	}
	shift := 0
	for _, offset := range wrapped {
		offset -= shift
		if offset == start {
			continue
		}
		p := PositionAt(parent, offset)
		if !mergeAttributes(p).IsEqual(p) {
			shift++
			end--
		}
	}
	return Range{Start: PositionAt(parent, start), End: PositionAt(parent, end)}
}

func unwrapChildren(parent *Element, start, end int, attr *Element) Range {
	var positions []int
	for i := start; i < end; {
		child, ok := parent.children[i].(*Element)
		if !ok || child.kind != KindAttribute {
			i++
			continue
		}
		if child.IsSimilar(attr) {
			count := len(child.children)
			moved := child.removeChildren(0, count)
			parent.removeChildren(i, 1)
			parent.insertChildren(i, moved...)
			positions = append(positions, i, i+count)
			i += count
			end += count - 1
			continue
		}
		if unwrapAttributeElement(attr, child) {
			positions = append(positions, i, i+1)
			i++
			continue
		}
		unwrapChildren(child, 0, len(child.children), attr)
		i++
	}
	shift := 0
	for _, offset := range positions {
		offset -= shift
		if offset == start || offset == end {
			continue
		}
		p := PositionAt(parent, offset)
		if !mergeAttributes(p).IsEqual(p) {
			shift++
			end--
		}
	}
	return Range{Start: PositionAt(parent, start), End: PositionAt(parent, end)}
}

// canBeJoined: elements with identity are never combined attribute-wise.
func canBeJoined(a, b *Element) bool {
	return a.identity == "" && b.identity == ""
}

// wrapAttributeElement moves wrapper attributes into existing element when
// they do not conflict.
func wrapAttributeElement(wrapper, toWrap *Element) bool {
	if toWrap.kind != KindAttribute || !canBeJoined(wrapper, toWrap) {
		return false
	}
	if wrapper.name != toWrap.name || wrapper.priority != toWrap.priority {
		return false
	}
	for k, v := range wrapper.attrs {
		if w, ok := toWrap.attrs[k]; ok && w != v {
			return false
		}
	}
	for k, v := range wrapper.styles {
		if w, ok := toWrap.styles[k]; ok && w != v {
			return false
		}
	}
	for k, v := range wrapper.attrs {
		if _, ok := toWrap.attrs[k]; !ok {
			toWrap.setAttribute(k, v)
		}
	}
	for k, v := range wrapper.styles {
		if _, ok := toWrap.styles[k]; !ok {
			toWrap.setStyle(k, v)
		}
	}
	for k := range wrapper.classes {
		toWrap.addClass(k)
	}
	return true
}

// unwrapAttributeElement removes wrapper attributes from element which has
// all of them.
func unwrapAttributeElement(wrapper, toUnwrap *Element) bool {
	if !canBeJoined(wrapper, toUnwrap) {
		return false
	}
	if wrapper.name != toUnwrap.name || wrapper.priority != toUnwrap.priority {
		return false
	}
	for k, v := range wrapper.attrs {
		if w, ok := toUnwrap.attrs[k]; !ok || w != v {
			return false
		}
	}
	if !toUnwrap.HasClass(wrapper.ClassNames()...) {
		return false
	}
	for k, v := range wrapper.styles {
		if w, ok := toUnwrap.styles[k]; !ok || w != v {
			return false
		}
	}
	for k := range wrapper.attrs {
		toUnwrap.removeAttribute(k)
	}
	for k := range wrapper.classes {
		toUnwrap.removeClass(k)
	}
	for k := range wrapper.styles {
		toUnwrap.removeStyle(k)
	}
	return true
}
