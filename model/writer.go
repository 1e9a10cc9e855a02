package model

import (
	"errors"
	"fmt"
	"reflect"
)

var ErrNoMarker = errors.New("marker does not exist")

// Writer applies operations to document. It is only available inside
// Document.Change and reports every operation to change listeners before
// returning.
type Writer struct {
	doc *Document
}

func (w *Writer) Document() *Document { return w.doc }

func (w *Writer) check(positions ...Position) error {
	if w.doc.depth == 0 {
		return ErrNotInChange
	}
	for _, p := range positions {
		if !w.doc.owns(p) {
			return fmt.Errorf("position %s does not belong to the document: %w", p, ErrInvalidRange)
		}
		if !p.IsValid() {
			return fmt.Errorf("position %s: %w", p, ErrOutOfBounds)
		}
	}
	return nil
}

// Insert puts detached nodes at position. Inserted text is merged with
// neighbouring text having the same attributes.
func (w *Writer) Insert(p Position, nodes ...Node) error {
	if err := w.check(p); err != nil {
		return err
	}
	var (
		ins    []Node
		length int
	)
	for _, n := range nodes {
		if n.Parent() != nil {
			return fmt.Errorf("insert %s: %w", n.Name(), ErrNotDetached)
		}
		switch v := n.(type) {
		case *Element:
			if v.doc != nil {
				return fmt.Errorf("insert root %q: %w", v.rootName, ErrAttached)
			}
			if v.IsFragment() {
				return fmt.Errorf("insert %s: fragment cannot be inserted, insert its children", v.name)
			}
		case *Text:
			if v.data == "" {
				continue
			}
		}
		ins = append(ins, n)
		length += n.OffsetSize()
	}
	if len(ins) == 0 {
		return nil
	}

	// markers are compared with p while the tree is still unchanged
	touched := w.doc.markers.touching(CollapsedRange(p))

	idx := splitTextAt(p)
	p.Parent.insertChildren(idx, ins...)
	mergeTextsAt(p.Parent, idx+len(ins))
	mergeTextsAt(p.Parent, idx)

	tr := func(r Range) Range { return transformRangeByInsert(r, p, length) }
	moves := w.doc.markers.transform(tr, touched)
	w.doc.selection.transform(tr)

	return w.doc.notify(&Change{Type: ChangeInsert, Position: p, Length: length, Nodes: ins, Markers: moves})
}

func (w *Writer) InsertText(p Position, data string, attrs Attributes) error {
	return w.Insert(p, NewText(data, attrs))
}

func (w *Writer) InsertElement(p Position, name string, attrs Attributes) (*Element, error) {
	e := NewElement(name, attrs)
	if err := w.Insert(p, e); err != nil {
		return nil, err
	}
	return e, nil
}

// Remove detaches content of the range. Non flat ranges are split into flat
// parts which are removed from the last one, each part is a separate
// operation.
func (w *Writer) Remove(r Range) error {
	if err := w.check(r.Start, r.End); err != nil {
		return err
	}
	r = NewRange(r.Start, r.End)
	flats := minimalFlatRanges(r)
	for i := len(flats) - 1; i >= 0; i-- {
		if err := w.removeFlat(flats[i]); err != nil {
			return err
		}
	}
	return nil
}

func (w *Writer) RemoveNode(n Node) error {
	if n.Parent() == nil {
		return fmt.Errorf("remove %s: node is detached", n.Name())
	}
	return w.Remove(RangeOn(n))
}

func (w *Writer) removeFlat(r Range) error {
	if r.IsCollapsed() {
		return nil
	}
	touched := w.doc.markers.touching(r)

	parent := r.Start.Parent
	start := splitTextAt(r.Start)
	end := splitTextAt(r.End)
	removed := parent.removeChildren(start, end-start)
	mergeTextsAt(parent, start)

	length := r.End.Offset - r.Start.Offset
	tr := func(rng Range) Range { return transformRangeByRemove(rng, r.Start, length, removed) }
	moves := w.doc.markers.transform(tr, touched)
	w.doc.selection.transform(tr)

	return w.doc.notify(&Change{Type: ChangeRemove, Position: r.Start, Length: length, Nodes: removed, Markers: moves})
}

// SetAttribute sets key on every item directly in the range, nested content
// of elements is not affected. Nil value removes the attribute. Consecutive
// items with the same previous value are reported as one change.
func (w *Writer) SetAttribute(r Range, key string, value any) error {
	if err := w.check(r.Start, r.End); err != nil {
		return err
	}
	r = NewRange(r.Start, r.End)
	var changes []*Change
	for _, flat := range minimalFlatRanges(r) {
		changes = append(changes, setAttributeOnFlat(flat, key, value)...)
	}
	for _, ch := range changes {
		if err := w.doc.notify(ch); err != nil {
			return err
		}
	}
	return nil
}

func (w *Writer) RemoveAttribute(r Range, key string) error {
	return w.SetAttribute(r, key, nil)
}

// SetElementAttribute changes attribute of a single attached element.
func (w *Writer) SetElementAttribute(e *Element, key string, value any) error {
	if e.parent == nil {
		return fmt.Errorf("set attribute on %s: %w", e.name, ErrInvalidRange)
	}
	return w.SetAttribute(RangeOn(e), key, value)
}

func setAttributeOnFlat(r Range, key string, value any) []*Change {
	if r.IsCollapsed() {
		return nil
	}
	parent := r.Start.Parent
	start := splitTextAt(r.Start)
	end := splitTextAt(r.End)

	var (
		changes    []*Change
		groupStart = r.Start.Offset
		offset     = r.Start.Offset
		groupOld   any
	)
	flush := func(to int) {
		if to > groupStart && !sameValue(groupOld, value) {
			changes = append(changes, &Change{
				Type:     ChangeAttribute,
				Range:    Range{Start: PositionAt(parent, groupStart), End: PositionAt(parent, to)},
				Key:      key,
				OldValue: groupOld,
				NewValue: value,
			})
		}
	}
	for i := start; i < end; i++ {
		n := parent.children[i]
		old := n.attrs()[key]
		if i == start {
			groupOld = old
		} else if !sameValue(old, groupOld) {
			flush(offset)
			groupStart, groupOld = offset, old
		}
		offset += n.OffsetSize()
	}
	flush(offset)

	for _, ch := range changes {
		from := parent.offsetToIndex(ch.Range.Start.Offset)
		to := parent.offsetToIndex(ch.Range.End.Offset)
		for _, n := range parent.children[from:to] {
			if value == nil {
				n.removeAttr(key)
			} else {
				n.setAttr(key, value)
			}
		}
	}
	normalizeTexts(parent)
	return changes
}

// SetMarker creates marker or moves existing one. Moving is reported as
// removal followed by addition.
func (w *Writer) SetMarker(name string, r Range) error {
	if err := w.check(r.Start, r.End); err != nil {
		return err
	}
	r = NewRange(r.Start, r.End)
	if m, ok := w.doc.markers.Get(name); ok {
		if m.rng.IsEqual(r) {
			return nil
		}
		if err := w.RemoveMarker(name); err != nil {
			return err
		}
	}
	w.doc.markers.set(name, r)
	return w.doc.notify(&Change{Type: ChangeAddMarker, MarkerName: name, Range: r})
}

func (w *Writer) RemoveMarker(name string) error {
	if w.doc.depth == 0 {
		return ErrNotInChange
	}
	m, ok := w.doc.markers.Get(name)
	if !ok {
		return fmt.Errorf("remove marker %q: %w", name, ErrNoMarker)
	}
	w.doc.markers.remove(name)
	return w.doc.notify(&Change{Type: ChangeRemoveMarker, MarkerName: name, Range: m.rng})
}

// SetSelection replaces selection ranges, selection attributes are taken
// from surrounding text.
func (w *Writer) SetSelection(ranges []Range, backward bool) error {
	for _, r := range ranges {
		if err := w.check(r.Start, r.End); err != nil {
			return err
		}
	}
	w.doc.selection.setRanges(ranges, backward)
	return nil
}

// SetSelectionAt collapses selection at p.
func (w *Writer) SetSelectionAt(p Position) error {
	return w.SetSelection([]Range{CollapsedRange(p)}, false)
}

func (w *Writer) SetSelectionAttribute(key string, value any) error {
	if w.doc.depth == 0 {
		return ErrNotInChange
	}
	if w.doc.selection.attrs == nil {
		w.doc.selection.attrs = make(Attributes)
	}
	w.doc.selection.attrs[key] = value
	return nil
}

func (w *Writer) RemoveSelectionAttribute(key string) error {
	if w.doc.depth == 0 {
		return ErrNotInChange
	}
	delete(w.doc.selection.attrs, key)
	return nil
}

func sameValue(a, b any) bool {
	return reflect.DeepEqual(a, b)
}

// splitTextAt makes p a node boundary and returns index of the child which
// starts there.
func splitTextAt(p Position) int {
	t := p.TextNode()
	if t == nil {
		return p.Parent.offsetToIndex(p.Offset)
	}
	idx := t.Index()
	runes := []rune(t.data)
	cut := p.Offset - t.StartOffset()
	t.data = string(runes[:cut])
	p.Parent.insertChildren(idx+1, NewText(string(runes[cut:]), t.attrsMap))
	return idx + 1
}

// mergeTextsAt joins children at index-1 and index when both are text with
// equal attributes. The first node survives.
func mergeTextsAt(parent *Element, index int) {
	if index <= 0 || index >= len(parent.children) {
		return
	}
	a, ok1 := parent.children[index-1].(*Text)
	b, ok2 := parent.children[index].(*Text)
	if !ok1 || !ok2 || !a.attrsMap.Equal(b.attrsMap) {
		return
	}
	a.data += b.data
	parent.removeChildren(index, 1)
}

func normalizeTexts(parent *Element) {
	for i := len(parent.children) - 1; i > 0; i-- {
		mergeTextsAt(parent, i)
	}
}

// minimalFlatRanges splits range into the smallest set of flat ranges
// covering the same content.
func minimalFlatRanges(r Range) []Range {
	var out []Range
	pos := r.Start
	for pos.Parent != r.End.Parent && !pos.Parent.IsAncestorOf(r.End.Parent) {
		if n := pos.Parent.MaxOffset() - pos.Offset; n > 0 {
			out = append(out, Range{Start: pos, End: pos.ShiftedBy(n)})
		}
		pos = PositionAfter(pos.Parent)
	}
	for {
		target, next := r.End.Offset, (*Element)(nil)
		if pos.Parent != r.End.Parent {
			c := r.End.Parent
			for c.parent != pos.Parent {
				c = c.parent
			}
			target, next = c.StartOffset(), c
		}
		if target > pos.Offset {
			out = append(out, Range{Start: pos, End: PositionAt(pos.Parent, target)})
		}
		if next == nil {
			return out
		}
		pos = PositionAt(next, 0)
	}
}
