package view

import "fmt"

// Document holds view roots and the view selection.
type Document struct {
	roots     map[string]*Element
	rootNames []string
	selection *Selection
}

func NewDocument() *Document {
	return &Document{roots: make(map[string]*Element), selection: &Selection{}}
}

// CreateRoot creates root container with given element name.
func (d *Document) CreateRoot(name, elementName string) (*Element, error) {
	if _, ok := d.roots[name]; ok {
		return nil, fmt.Errorf("view root %q already exists", name)
	}
	root := NewContainerElement(elementName, nil)
	root.doc = d
	root.rootName = name
	d.roots[name] = root
	d.rootNames = append(d.rootNames, name)
	return root, nil
}

func (d *Document) Root(name string) *Element { return d.roots[name] }
func (d *Document) RootNames() []string       { return append([]string(nil), d.rootNames...) }
func (d *Document) Selection() *Selection     { return d.selection }

// Selection is the view selection. Fake selection has no ranges rendered,
// only a label describing what is selected.
type Selection struct {
	ranges    []Range
	backward  bool
	fake      bool
	fakeLabel string
}

func (s *Selection) Ranges() []Range   { return append([]Range(nil), s.ranges...) }
func (s *Selection) RangeCount() int   { return len(s.ranges) }
func (s *Selection) IsBackward() bool  { return s.backward }
func (s *Selection) IsFake() bool      { return s.fake }
func (s *Selection) FakeLabel() string { return s.fakeLabel }

func (s *Selection) IsCollapsed() bool {
	return len(s.ranges) == 1 && s.ranges[0].IsCollapsed()
}

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

// SetTo replaces selection ranges.
func (s *Selection) SetTo(ranges []Range, backward bool) {
	s.ranges = append([]Range(nil), ranges...)
	s.backward = backward
	s.fake = false
	s.fakeLabel = ""
}

// SetFake marks selection as fake with accessible label.
func (s *Selection) SetFake(fake bool, label string) {
	s.fake = fake
	s.fakeLabel = label
}

func (s *Selection) RemoveAllRanges() {
	s.ranges = nil
	s.backward = false
}
