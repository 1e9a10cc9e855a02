package model

// Selection is the document selection: ranges, direction and attributes
// which would be applied to typed text.
type Selection struct {
	ranges   []Range
	backward bool
	attrs    Attributes
}

func (s *Selection) Ranges() []Range  { return append([]Range(nil), s.ranges...) }
func (s *Selection) RangeCount() int  { return len(s.ranges) }
func (s *Selection) IsBackward() bool { return s.backward }

func (s *Selection) FirstRange() (Range, bool) {
	if len(s.ranges) == 0 {
		return Range{}, false
	}
	first := s.ranges[0]
	for _, r := range s.ranges[1:] {
		if r.Start.IsBefore(first.Start) {
			first = r
		}
	}
	return first, true
}

func (s *Selection) FirstPosition() (Position, bool) {
	r, ok := s.FirstRange()
	return r.Start, ok
}

// IsCollapsed is true for a single collapsed range.
func (s *Selection) IsCollapsed() bool {
	return len(s.ranges) == 1 && s.ranges[0].IsCollapsed()
}

func (s *Selection) Attribute(key string) (any, bool) {
	v, ok := s.attrs[key]
	return v, ok
}

func (s *Selection) AttributeKeys() []string { return s.attrs.Keys() }
func (s *Selection) Attributes() Attributes  { return s.attrs.Clone() }

func (s *Selection) setRanges(ranges []Range, backward bool) {
	s.ranges = append([]Range(nil), ranges...)
	s.backward = backward
	s.attrs = surroundingAttributes(s.ranges)
}

func (s *Selection) transform(fn func(Range) Range) {
	for i, r := range s.ranges {
		s.ranges[i] = fn(r)
	}
}

// surroundingAttributes picks attributes selection inherits from the text it
// is placed in or next to.
func surroundingAttributes(ranges []Range) Attributes {
	if len(ranges) == 0 {
		return nil
	}
	r := ranges[0]
	if !r.IsCollapsed() {
		for _, it := range r.Items() {
			if tp, ok := it.(TextProxy); ok {
				return tp.Text.attrsMap.Clone()
			}
		}
		return nil
	}
	p := r.Start
	if t := p.TextNode(); t != nil {
		return t.attrsMap.Clone()
	}
	if t, ok := p.NodeBefore().(*Text); ok {
		return t.attrsMap.Clone()
	}
	if t, ok := p.NodeAfter().(*Text); ok {
		return t.attrsMap.Clone()
	}
	return nil
}
