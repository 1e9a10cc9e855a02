package model

import "fmt"

// Range spans from Start to End, Start is never after End.
type Range struct {
	Start Position
	End   Position
}

// NewRange creates range, swapping positions if given in reverse order.
func NewRange(start, end Position) Range {
	if start.IsAfter(end) {
		start, end = end, start
	}
	return Range{Start: start, End: end}
}

// RangeIn spans over all element content.
func RangeIn(e *Element) Range {
	return Range{Start: PositionAt(e, 0), End: PositionAt(e, e.MaxOffset())}
}

// RangeOn spans over the item.
func RangeOn(it Item) Range {
	return Range{Start: PositionBefore(it), End: PositionAfter(it)}
}

func RangeFromPositionAndShift(p Position, shift int) Range {
	return NewRange(p, p.ShiftedBy(shift))
}

// CollapsedRange has both ends at p.
func CollapsedRange(p Position) Range {
	return Range{Start: p, End: p}
}

func (r Range) Root() *Element    { return r.Start.Root() }
func (r Range) IsCollapsed() bool { return r.Start.IsEqual(r.End) }
func (r Range) IsFlat() bool      { return r.Start.Parent == r.End.Parent }

func (r Range) IsEqual(o Range) bool {
	return r.Start.IsEqual(o.Start) && r.End.IsEqual(o.End)
}

// ContainsPosition reports whether p is strictly inside the range.
func (r Range) ContainsPosition(p Position) bool {
	return p.IsAfter(r.Start) && p.IsBefore(r.End)
}

// ContainsRange reports whether o lies within r, touching ends allowed.
func (r Range) ContainsRange(o Range) bool {
	return !o.Start.IsBefore(r.Start) && !o.End.IsAfter(r.End)
}

// Items returns all items in range, elements are reported once (at their
// start) and text is cut to the range boundaries.
func (r Range) Items() []Item {
	var out []Item
	w := r.Walker(WalkerOptions{IgnoreElementEnd: true})
	for v, ok := w.Next(); ok; v, ok = w.Next() {
		out = append(out, v.Item)
	}
	return out
}

// Walker returns forward tree walker bounded by the range.
func (r Range) Walker(opts WalkerOptions) *Walker {
	opts.Boundaries = &r
	return NewWalker(opts)
}

func (r Range) String() string {
	return fmt.Sprintf("[%s - %s]", r.Start, r.End)
}

// Key returns comparable identity of the range, ranges with equal keys
// address the same place in the same tree.
func (r Range) Key() RangeKey {
	return RangeKey{Start: r.Start, End: r.End}
}

// RangeKey is used when range needs to be a map key.
type RangeKey struct {
	Start Position
	End   Position
}
