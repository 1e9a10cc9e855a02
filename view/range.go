package view

import "fmt"

// Range between two positions, Start is not after End.
type Range struct {
	Start Position
	End   Position
}

func NewRange(start, end Position) Range {
	if start.IsAfter(end) {
		start, end = end, start
	}
	return Range{Start: start, End: end}
}

func CollapsedRange(p Position) Range { return Range{Start: p, End: p} }

// RangeIn spans over whole element content.
func RangeIn(e *Element) Range {
	return Range{Start: PositionAt(e, 0), End: PositionAt(e, len(e.children))}
}

// RangeOn spans over the node.
func RangeOn(n Node) Range {
	return Range{Start: PositionBefore(n), End: PositionAfter(n)}
}

// RangeOnItem accepts walker items.
func RangeOnItem(item any) Range {
	return Range{Start: PositionBeforeItem(item), End: PositionAfterItem(item)}
}

func (r Range) IsCollapsed() bool { return r.Start.IsEqual(r.End) }
func (r Range) IsFlat() bool      { return r.Start.Parent == r.End.Parent }

func (r Range) IsEqual(o Range) bool {
	return r.Start.IsEqual(o.Start) && r.End.IsEqual(o.End)
}

// ContainsPosition reports whether p is strictly inside.
func (r Range) ContainsPosition(p Position) bool {
	return p.IsAfter(r.Start) && p.IsBefore(r.End)
}

func (r Range) Walker(opts WalkerOptions) *Walker {
	opts.Boundaries = &r
	return NewWalker(opts)
}

// Items returns elements and text proxies inside the range.
func (r Range) Items() []any {
	var out []any
	w := r.Walker(WalkerOptions{IgnoreElementEnd: true})
	for v, ok := w.Next(); ok; v, ok = w.Next() {
		out = append(out, v.Item)
	}
	return out
}

// skipAttributesAndUI is used to enlarge and trim ranges.
func skipAttributesAndUI(v WalkerValue) bool {
	if e, ok := v.Item.(*Element); ok {
		return e.kind == KindAttribute || e.kind == KindUI
	}
	return false
}

// Enlarged moves range ends outwards over attribute and UI element
// boundaries.
func (r Range) Enlarged() Range {
	start := r.Start.LastMatchingPosition(skipAttributesAndUI, WalkerOptions{Direction: Backward})
	end := r.End.LastMatchingPosition(skipAttributesAndUI, WalkerOptions{})
	if t, ok := start.ParentText(); ok && start.IsAtStart() {
		start = PositionBefore(t)
	}
	if t, ok := end.ParentText(); ok && end.IsAtEnd() {
		end = PositionAfter(t)
	}
	return Range{Start: start, End: end}
}

// Trimmed moves range ends inwards over attribute and UI element boundaries,
// ends which reach text are moved into it.
func (r Range) Trimmed() Range {
	start := r.Start.LastMatchingPosition(skipAttributesAndUI, WalkerOptions{})
	if start.IsAfter(r.End) || start.IsEqual(r.End) {
		return CollapsedRange(start)
	}
	end := r.End.LastMatchingPosition(skipAttributesAndUI, WalkerOptions{Direction: Backward})
	if t, ok := start.NodeAfter().(*Text); ok {
		start = PositionAt(t, 0)
	}
	if t, ok := end.NodeBefore().(*Text); ok {
		end = PositionAt(t, t.Len())
	}
	return Range{Start: start, End: end}
}

func (r Range) String() string {
	return fmt.Sprintf("[%s - %s]", r.Start, r.End)
}
