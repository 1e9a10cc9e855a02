package view

// Direction of the walk.
type Direction int

const (
	Forward Direction = iota
	Backward
)

type WalkerValueType int

const (
	ElementStart WalkerValueType = iota
	ElementEnd
	TextValue
)

// WalkerValue is one step: Item is *Element or TextProxy.
type WalkerValue struct {
	Type             WalkerValueType
	Item             any
	PreviousPosition Position
	NextPosition     Position
	Length           int
}

type WalkerOptions struct {
	Direction        Direction
	Boundaries       *Range
	StartPosition    *Position
	SingleCharacters bool
	Shallow          bool
	IgnoreElementEnd bool
}

// Walker iterates over the view tree in either direction. Text nodes are
// entered only when walk starts or ends inside them or when single
// characters are requested.
type Walker struct {
	opts        WalkerOptions
	position    Position
	startParent Node
	endParent   Node
}

func NewWalker(opts WalkerOptions) *Walker {
	w := &Walker{opts: opts}
	switch {
	case opts.StartPosition != nil:
		w.position = *opts.StartPosition
	case opts.Boundaries != nil && opts.Direction == Backward:
		w.position = opts.Boundaries.End
	case opts.Boundaries != nil:
		w.position = opts.Boundaries.Start
	}
	if opts.Boundaries != nil {
		w.startParent = opts.Boundaries.Start.Parent
		w.endParent = opts.Boundaries.End.Parent
	}
	return w
}

func (w *Walker) Position() Position { return w.position }

// Skip moves walker while skip returns true, walker stays at position
// before the first not skipped value.
func (w *Walker) Skip(skip func(WalkerValue) bool) {
	for {
		prev := w.position
		v, ok := w.Next()
		if !ok {
			return
		}
		if !skip(v) {
			w.position = prev
			return
		}
	}
}

func (w *Walker) Next() (WalkerValue, bool) {
	if w.opts.Direction == Backward {
		return w.previous()
	}
	return w.next()
}

func (w *Walker) next() (WalkerValue, bool) {
	for {
		prev := w.position
		pos := w.position
		parent := pos.Parent

		if parent.Parent() == nil && pos.Offset == nodeLength(parent) {
			return WalkerValue{}, false
		}
		if w.opts.Boundaries != nil && parent == w.endParent && pos.Offset == w.opts.Boundaries.End.Offset {
			return WalkerValue{}, false
		}

		if t, ok := parent.(*Text); ok {
			if pos.IsAtEnd() {
				w.position = PositionAfter(t)
				continue
			}
			length := 1
			if !w.opts.SingleCharacters {
				end := t.Len()
				if parent == w.endParent {
					end = w.opts.Boundaries.End.Offset
				}
				length = end - pos.Offset
			}
			proxy := TextProxy{Text: t, OffsetInText: pos.Offset, Length: length}
			pos.Offset += length
			w.position = pos
			return w.format(TextValue, proxy, prev, pos, length), true
		}

		switch n := parent.(*Element).Child(pos.Offset).(type) {
		case *Element:
			if !w.opts.Shallow {
				pos = PositionAt(n, 0)
			} else {
				pos.Offset++
			}
			w.position = pos
			return w.format(ElementStart, n, prev, pos, 1), true
		case *Text:
			if w.opts.SingleCharacters {
				w.position = PositionAt(n, 0)
				continue
			}
			length := n.Len()
			var proxy TextProxy
			if Node(n) == w.endParent {
				length = w.opts.Boundaries.End.Offset
				proxy = TextProxy{Text: n, OffsetInText: 0, Length: length}
				pos = PositionAfterItem(proxy)
			} else {
				proxy = TextProxy{Text: n, OffsetInText: 0, Length: length}
				pos.Offset++
			}
			w.position = pos
			return w.format(TextValue, proxy, prev, pos, length), true
		default:
			el := parent.(*Element)
			pos = PositionAfter(el)
			w.position = pos
			if w.opts.IgnoreElementEnd {
				continue
			}
			return w.format(ElementEnd, el, prev, pos, 0), true
		}
	}
}

func (w *Walker) previous() (WalkerValue, bool) {
	for {
		prev := w.position
		pos := w.position
		parent := pos.Parent

		if parent.Parent() == nil && pos.Offset == 0 {
			return WalkerValue{}, false
		}
		if w.opts.Boundaries != nil && parent == w.startParent && pos.Offset == w.opts.Boundaries.Start.Offset {
			return WalkerValue{}, false
		}

		if t, ok := parent.(*Text); ok {
			if pos.IsAtStart() {
				w.position = PositionBefore(t)
				continue
			}
			length := 1
			if !w.opts.SingleCharacters {
				start := 0
				if parent == w.startParent {
					start = w.opts.Boundaries.Start.Offset
				}
				length = pos.Offset - start
			}
			pos.Offset -= length
			proxy := TextProxy{Text: t, OffsetInText: pos.Offset, Length: length}
			w.position = pos
			return w.format(TextValue, proxy, prev, pos, length), true
		}

		switch n := parent.(*Element).Child(pos.Offset - 1).(type) {
		case *Element:
			if !w.opts.Shallow {
				pos = PositionAt(n, len(n.children))
				w.position = pos
				if w.opts.IgnoreElementEnd {
					continue
				}
				return w.format(ElementEnd, n, prev, pos, 0), true
			}
			pos.Offset--
			w.position = pos
			return w.format(ElementStart, n, prev, pos, 1), true
		case *Text:
			if w.opts.SingleCharacters {
				w.position = PositionAt(n, n.Len())
				continue
			}
			length := n.Len()
			var proxy TextProxy
			if Node(n) == w.startParent {
				offset := w.opts.Boundaries.Start.Offset
				proxy = TextProxy{Text: n, OffsetInText: offset, Length: length - offset}
				length = proxy.Length
				pos = PositionBeforeItem(proxy)
			} else {
				proxy = TextProxy{Text: n, OffsetInText: 0, Length: length}
				pos.Offset--
			}
			w.position = pos
			return w.format(TextValue, proxy, prev, pos, length), true
		default:
			el := parent.(*Element)
			pos = PositionBefore(el)
			w.position = pos
			return w.format(ElementStart, el, prev, pos, 1), true
		}
	}
}

// format moves positions next to text nodes out of them when proxy reaches
// text edge, so walker prefers positions between nodes.
func (w *Walker) format(typ WalkerValueType, item any, prev, next Position, length int) WalkerValue {
	if tp, ok := item.(TextProxy); ok {
		if tp.OffsetInText+tp.Length == tp.Text.Len() {
			if w.opts.Direction == Forward && !(w.opts.Boundaries != nil && w.opts.Boundaries.End.IsEqual(w.position)) {
				next = PositionAfter(tp.Text)
				w.position = next
			} else {
				prev = PositionAfter(tp.Text)
			}
		}
		if tp.OffsetInText == 0 {
			if w.opts.Direction == Backward && !(w.opts.Boundaries != nil && w.opts.Boundaries.Start.IsEqual(w.position)) {
				next = PositionBefore(tp.Text)
				w.position = next
			} else {
				prev = PositionBefore(tp.Text)
			}
		}
	}
	return WalkerValue{Type: typ, Item: item, PreviousPosition: prev, NextPosition: next, Length: length}
}
