package model

// WalkerValueType says what walker stepped over.
type WalkerValueType int

const (
	ElementStart WalkerValueType = iota
	ElementEnd
	TextValue
)

func (t WalkerValueType) String() string {
	switch t {
	case ElementStart:
		return "elementStart"
	case ElementEnd:
		return "elementEnd"
	default:
		return "text"
	}
}

// WalkerValue is a single walker step.
type WalkerValue struct {
	Type             WalkerValueType
	Item             Item
	PreviousPosition Position
	NextPosition     Position
	Length           int
}

type WalkerOptions struct {
	// Boundaries limit the walk, when nil walk goes until the end of the
	// start position root.
	Boundaries *Range
	// StartPosition defaults to boundaries start.
	StartPosition *Position
	// IgnoreElementEnd skips ElementEnd values.
	IgnoreElementEnd bool
	// Shallow does not enter elements.
	Shallow bool
}

// Walker iterates forward over the model tree.
type Walker struct {
	opts      WalkerOptions
	position  Position
	visited   *Element
	endParent *Element
}

func NewWalker(opts WalkerOptions) *Walker {
	w := &Walker{opts: opts}
	switch {
	case opts.StartPosition != nil:
		w.position = *opts.StartPosition
	case opts.Boundaries != nil:
		w.position = opts.Boundaries.Start
	}
	if opts.Boundaries != nil {
		w.endParent = opts.Boundaries.End.Parent
	}
	w.visited = w.position.Parent
	return w
}

// Position returns current walker position.
func (w *Walker) Position() Position { return w.position }

// Next makes a step, false is returned when walk is over.
func (w *Walker) Next() (WalkerValue, bool) {
	for {
		prev := w.position
		pos := w.position
		parent := w.visited

		if parent.parent == nil && pos.Offset == parent.MaxOffset() {
			return WalkerValue{}, false
		}
		if parent == w.endParent && pos.Offset == w.opts.Boundaries.End.Offset {
			return WalkerValue{}, false
		}

		var node Node
		if t := pos.TextNode(); t != nil {
			node = t
		} else {
			node = pos.NodeAfter()
		}

		switch n := node.(type) {
		case *Element:
			if !w.opts.Shallow {
				pos = Position{Parent: n, Offset: 0}
				w.visited = n
			} else {
				pos.Offset++
			}
			w.position = pos
			return WalkerValue{Type: ElementStart, Item: n, PreviousPosition: prev, NextPosition: pos, Length: 1}, true
		case *Text:
			end := EndOffset(n)
			if w.endParent == parent && w.opts.Boundaries.End.Offset < end {
				end = w.opts.Boundaries.End.Offset
			}
			count := end - pos.Offset
			proxy := TextProxy{Text: n, OffsetInText: pos.Offset - n.StartOffset(), Length: count}
			pos.Offset += count
			w.position = pos
			return WalkerValue{Type: TextValue, Item: proxy, PreviousPosition: prev, NextPosition: pos, Length: count}, true
		default:
			// end of current parent
			pos = PositionAfter(parent)
			w.position = pos
			w.visited = parent.parent
			if w.opts.IgnoreElementEnd {
				continue
			}
			return WalkerValue{Type: ElementEnd, Item: parent, PreviousPosition: prev, NextPosition: pos}, true
		}
	}
}
