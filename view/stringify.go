package view

import (
	"slices"
	"strconv"
	"strings"

	"github.com/beevik/etree"

	"edconv/utils/debug"
)

// StringifyOptions control view markup output.
type StringifyOptions struct {
	// ShowType prefixes element names with kind: "container:", "attribute:"
	// or "ui:".
	ShowType bool
	// ShowPriority adds view-priority to attribute elements.
	ShowPriority bool
	// ShowID adds view-id to elements with identity.
	ShowID bool
	// RenderUI replaces UI elements with output of their render function.
	RenderUI bool
}

// Stringify renders element content (element itself is not included).
// Range boundaries are printed as "[" and "]" between nodes and as "{" and
// "}" inside text.
func Stringify(e *Element, ranges []Range, opts StringifyOptions) string {
	s := &stringifier{ranges: ranges, opts: opts}
	holder := etree.NewElement("holder")
	s.writeChildren(holder, e)

	var b strings.Builder
	settings := etree.WriteSettings{CanonicalText: true, CanonicalAttrVal: true}
	for _, tok := range holder.Child {
		tok.WriteTo(&b, &settings)
	}
	return b.String()
}

type stringifier struct {
	ranges []Range
	opts   StringifyOptions
}

func (s *stringifier) mark(p Position) string {
	open, closing := "[", "]"
	if _, ok := p.Parent.(*Text); ok {
		open, closing = "{", "}"
	}
	var b strings.Builder
	for _, r := range s.ranges {
		switch {
		case r.IsCollapsed() && r.Start.IsEqual(p):
			b.WriteString(open + closing)
		case r.Start.IsEqual(p):
			b.WriteString(open)
		case r.End.IsEqual(p):
			b.WriteString(closing)
		}
	}
	return b.String()
}

func (s *stringifier) writeChildren(dst *etree.Element, e *Element) {
	for i, c := range e.children {
		if m := s.mark(PositionAt(e, i)); m != "" {
			dst.CreateText(m)
		}
		switch n := c.(type) {
		case *Element:
			s.writeElement(dst, n)
		case *Text:
			s.writeText(dst, n)
		}
	}
	if m := s.mark(PositionAt(e, len(e.children))); m != "" {
		dst.CreateText(m)
	}
}

func (s *stringifier) writeText(dst *etree.Element, t *Text) {
	var b strings.Builder
	runes := []rune(t.data)
	for i, r := range runes {
		b.WriteString(s.mark(PositionAt(t, i)))
		b.WriteRune(r)
	}
	b.WriteString(s.mark(PositionAt(t, len(runes))))
	dst.CreateText(b.String())
}

func (s *stringifier) writeElement(dst *etree.Element, e *Element) {
	if e.kind == KindUI && s.opts.RenderUI && e.render != nil {
		s.writeRendered(dst, e.render(e))
		return
	}
	name := e.name
	if s.opts.ShowType {
		name = e.kind.String() + ":" + name
	}
	el := dst.CreateElement(name)
	for _, k := range e.AttributeKeys() {
		v, _ := e.Attribute(k)
		el.CreateAttr(k, v)
	}
	if e.kind == KindAttribute && s.opts.ShowPriority {
		el.CreateAttr("view-priority", strconv.Itoa(e.priority))
	}
	if e.identity != "" && s.opts.ShowID {
		el.CreateAttr("view-id", e.identity)
	}
	if e.kind == KindUI {
		return
	}
	s.writeChildren(el, e)
	if len(el.Child) == 0 {
		el.CreateText("")
	}
}

// writeRendered inserts UI element rendering, output which is not well
// formed markup is kept as text.
func (s *stringifier) writeRendered(dst *etree.Element, out string) {
	doc := etree.NewDocument()
	if err := doc.ReadFromString("<holder>" + out + "</holder>"); err != nil {
		dst.CreateText(out)
		return
	}
	for _, tok := range slices.Clone(doc.Root().Child) {
		dst.AddChild(tok)
	}
}

// Dump produces indented tree listing for logs and debug reports.
func Dump(e *Element) string {
	tw := debug.NewTreeWriter()
	dumpNode(tw, 0, e)
	return tw.String()
}

func dumpNode(tw *debug.TreeWriter, depth int, n Node) {
	switch v := n.(type) {
	case *Element:
		attrs := v.Attributes()
		if v.kind == KindAttribute {
			attrs["view-priority"] = strconv.Itoa(v.priority)
		}
		if v.identity != "" {
			attrs["view-id"] = v.identity
		}
		tw.Node(depth, v.kind.String(), v.name, attrs)
		for _, c := range v.children {
			dumpNode(tw, depth+1, c)
		}
	case *Text:
		tw.TextBlock(depth, "text", v.data)
	}
}
