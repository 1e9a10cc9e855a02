package view

import (
	"errors"
	"testing"
)

func parseView(t *testing.T, markup string) (*Element, []Range) {
	t.Helper()
	frag, ranges, err := Parse(markup, ParseOptions{Selection: true})
	if err != nil {
		t.Fatalf("Parse(%q) error = %v", markup, err)
	}
	return frag, ranges
}

func stringify(e *Element, ranges ...Range) string {
	return Stringify(e, ranges, StringifyOptions{})
}

func TestWriter_Insert(t *testing.T) {
	tests := []struct {
		name   string
		markup string
		nodes  func() []Node
		want   string
	}{
		{
			name:   "text merges with neighbours",
			markup: `<p>foo{}bar</p>`,
			nodes:  func() []Node { return []Node{NewText("xyz")} },
			want:   `<p>foo{xyz}bar</p>`,
		},
		{
			name:   "breaks attribute elements",
			markup: `<p><b>foo{}bar</b></p>`,
			nodes:  func() []Node { return []Node{NewAttributeElement("i", nil, NewText("x"))} },
			want:   `<p><b>foo</b>[<i>x</i>]<b>bar</b></p>`,
		},
		{
			name:   "similar attribute merges",
			markup: `<p><b>foo</b>[]</p>`,
			nodes:  func() []Node { return []Node{NewAttributeElement("b", nil, NewText("bar"))} },
			want:   `<p><b>foo{bar</b>]</p>`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frag, ranges := parseView(t, tt.markup)
			r, err := NewWriter(nil).Insert(ranges[0].Start, tt.nodes()...)
			if err != nil {
				t.Fatalf("Insert() error = %v", err)
			}
			if got := stringify(frag, r); got != tt.want {
				t.Errorf("Insert() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestWriter_InsertErrors(t *testing.T) {
	frag, _ := parseView(t, `<p><ui:span></ui:span></p>`)
	p := frag.Child(0).(*Element)
	ui := p.Child(0).(*Element)
	w := NewWriter(nil)

	if _, err := w.Insert(PositionAt(ui, 0), NewText("x")); !errors.Is(err, ErrInsertIntoUI) {
		t.Errorf("Insert() into UI error = %v, want %v", err, ErrInsertIntoUI)
	}
	if _, err := w.Insert(PositionAt(p, 0), NewFragment()); !errors.Is(err, ErrInvalidNode) {
		t.Errorf("Insert() fragment error = %v, want %v", err, ErrInvalidNode)
	}
	if _, err := w.BreakAttributes(PositionAt(ui, 0), false); !errors.Is(err, ErrBreakUI) {
		t.Errorf("BreakAttributes() error = %v, want %v", err, ErrBreakUI)
	}
}

func TestWriter_Remove(t *testing.T) {
	frag, ranges := parseView(t, `<p>f{oo<b>ba}r</b></p>`)
	removed, pos, err := NewWriter(nil).Remove(ranges[0])
	if err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if got, want := stringify(frag, CollapsedRange(pos)), `<p>f[]<b>r</b></p>`; got != want {
		t.Errorf("Remove() tree = %s, want %s", got, want)
	}
	if got, want := stringify(removed), `oo<b>ba</b>`; got != want {
		t.Errorf("Remove() fragment = %s, want %s", got, want)
	}
}

func TestWriter_Wrap(t *testing.T) {
	tests := []struct {
		name    string
		markup  string
		wrapper func() *Element
		want    string
	}{
		{
			name:    "text",
			markup:  `<p>f{oob}ar</p>`,
			wrapper: func() *Element { return NewAttributeElement("b", nil) },
			want:    `<p>f[<b>oob</b>]ar</p>`,
		},
		{
			name:    "merges with similar sibling",
			markup:  `<p><b>foo</b>[bar]</p>`,
			wrapper: func() *Element { return NewAttributeElement("b", nil) },
			want:    `<p><b>foo{bar</b>]</p>`,
		},
		{
			name:    "higher priority goes inside",
			markup:  `<p>[<attribute:b view-priority="1">foo</attribute:b>]</p>`,
			wrapper: func() *Element { return NewAttributeElement("i", nil).WithPriority(2) },
			want:    `<p>[<b><i>foo</i></b>]</p>`,
		},
		{
			name:    "lower priority goes outside",
			markup:  `<p>[<attribute:b view-priority="1">foo</attribute:b>]</p>`,
			wrapper: func() *Element { return NewAttributeElement("i", nil).WithPriority(0) },
			want:    `<p>[<i><b>foo</b></i>]</p>`,
		},
		{
			name:    "different values do not merge",
			markup:  `<p><span data-a="1">ab</span>[cd]</p>`,
			wrapper: func() *Element { return NewAttributeElement("span", map[string]string{"data-a": "2"}) },
			want:    `<p><span data-a="1">ab</span>[<span data-a="2">cd</span>]</p>`,
		},
		{
			name:    "same identity merges",
			markup:  `<p><attribute:span class="a" view-id="m">ab</attribute:span>[cd]</p>`,
			wrapper: func() *Element { return NewAttributeElement("span", map[string]string{"class": "b"}).WithIdentity("m") },
			want:    `<p><span class="a">ab{cd</span>]</p>`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frag, ranges := parseView(t, tt.markup)
			r, err := NewWriter(nil).Wrap(ranges[0], tt.wrapper())
			if err != nil {
				t.Fatalf("Wrap() error = %v", err)
			}
			if got := stringify(frag, r); got != tt.want {
				t.Errorf("Wrap() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestWriter_WrapCollapsed(t *testing.T) {
	frag, ranges := parseView(t, `<p>foo{}bar</p>`)
	doc := NewDocument()
	doc.Selection().SetTo(ranges, false)
	w := NewWriter(doc)

	r, err := w.Wrap(ranges[0], NewAttributeElement("b", nil))
	if err != nil {
		t.Fatalf("Wrap() error = %v", err)
	}
	if got, want := stringify(frag, r), `<p>foo<b>[]</b>bar</p>`; got != want {
		t.Errorf("Wrap() = %s, want %s", got, want)
	}
	if first, _ := doc.Selection().FirstPosition(); !first.IsEqual(r.Start) {
		t.Errorf("selection was not moved into wrapper: %s", first)
	}
}

func TestWriter_Unwrap(t *testing.T) {
	tests := []struct {
		name    string
		markup  string
		wrapper *Element
		want    string
	}{
		{
			name:    "similar",
			markup:  `<p>[<b>foobar</b>]</p>`,
			wrapper: NewAttributeElement("b", nil),
			want:    `<p>[foobar]</p>`,
		},
		{
			name:    "partial",
			markup:  `<p>[<b class="a b">foo</b>]</p>`,
			wrapper: NewAttributeElement("b", map[string]string{"class": "a"}),
			want:    `<p>[<b class="b">foo</b>]</p>`,
		},
		{
			name:    "part of text",
			markup:  `<p><b>f{oo}bar</b></p>`,
			wrapper: NewAttributeElement("b", nil),
			want:    `<p><b>f</b>[oo]<b>bar</b></p>`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frag, ranges := parseView(t, tt.markup)
			r, err := NewWriter(nil).Unwrap(ranges[0], tt.wrapper)
			if err != nil {
				t.Fatalf("Unwrap() error = %v", err)
			}
			if got := stringify(frag, r); got != tt.want {
				t.Errorf("Unwrap() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestWriter_WrapErrors(t *testing.T) {
	frag, ranges := parseView(t, `<p>fo{o</p><p>ba}r</p>`)
	w := NewWriter(nil)
	if _, err := w.Wrap(ranges[0], NewAttributeElement("b", nil)); !errors.Is(err, ErrInvalidRangeContainer) {
		t.Errorf("Wrap() across containers error = %v, want %v", err, ErrInvalidRangeContainer)
	}
	p := frag.Child(0).(*Element)
	if _, err := w.Wrap(RangeIn(p), NewContainerElement("div", nil)); !errors.Is(err, ErrInvalidWrapper) {
		t.Errorf("Wrap() with container error = %v, want %v", err, ErrInvalidWrapper)
	}
}

func TestWriter_Clear(t *testing.T) {
	frag, ranges := parseView(t, `<p>[foo<ui:span></ui:span>bar]</p>`)
	if err := NewWriter(nil).Clear(ranges[0], NewUIElement("span", nil)); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	if got, want := stringify(frag), `<p>foobar</p>`; got != want {
		t.Errorf("Clear() = %s, want %s", got, want)
	}
}

func TestElement_IsSimilar(t *testing.T) {
	tests := []struct {
		name string
		a, b *Element
		want bool
	}{
		{"same attribute", NewAttributeElement("b", nil), NewAttributeElement("b", nil), true},
		{"priority differs", NewAttributeElement("b", nil), NewAttributeElement("b", nil).WithPriority(5), false},
		{"attributes differ", NewAttributeElement("b", map[string]string{"a": "1"}), NewAttributeElement("b", map[string]string{"a": "2"}), false},
		{"same classes", NewAttributeElement("b", map[string]string{"class": "x y"}), NewAttributeElement("b", map[string]string{"class": "y x"}), true},
		{"same identity", NewAttributeElement("span", map[string]string{"class": "a"}).WithIdentity("m"), NewAttributeElement("span", nil).WithIdentity("m").WithPriority(3), true},
		{"different identity", NewAttributeElement("span", nil).WithIdentity("m"), NewAttributeElement("span", nil).WithIdentity("n"), false},
		{"one identity", NewAttributeElement("span", nil).WithIdentity("m"), NewAttributeElement("span", nil), false},
		{"container and attribute", NewContainerElement("b", nil), NewAttributeElement("b", nil), false},
		{"ui and attribute", NewUIElement("b", nil), NewAttributeElement("b", nil), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.IsSimilar(tt.b); got != tt.want {
				t.Errorf("IsSimilar() = %v, want %v", got, tt.want)
			}
			if got := tt.b.IsSimilar(tt.a); got != tt.want {
				t.Errorf("IsSimilar() reversed = %v, want %v", got, tt.want)
			}
		})
	}
}
