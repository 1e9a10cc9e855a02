package model

import (
	"fmt"
	"strings"

	"github.com/beevik/etree"

	"edconv/utils/debug"
)

// Stringify renders element content as XML like markup: text with
// attributes is wrapped in <$text key="value">, selection boundaries (when
// sel is not nil) are printed as "[" and "]". Root element itself is not
// included.
func Stringify(root *Element, sel *Selection) string {
	holder := etree.NewElement("holder")
	writeContent(holder, root, sel)

	var b strings.Builder
	settings := etree.WriteSettings{CanonicalText: true, CanonicalAttrVal: true}
	for _, tok := range holder.Child {
		tok.WriteTo(&b, &settings)
	}
	return b.String()
}

func selectionMark(sel *Selection, p Position) string {
	if sel == nil {
		return ""
	}
	var b strings.Builder
	for _, r := range sel.ranges {
		switch {
		case r.IsCollapsed() && r.Start.IsEqual(p):
			b.WriteString("[]")
		case r.Start.IsEqual(p):
			b.WriteString("[")
		case r.End.IsEqual(p):
			b.WriteString("]")
		}
	}
	return b.String()
}

func writeContent(dst *etree.Element, e *Element, sel *Selection) {
	offset := 0
	for _, c := range e.children {
		if m := selectionMark(sel, PositionAt(e, offset)); m != "" {
			dst.CreateText(m)
		}
		switch n := c.(type) {
		case *Element:
			el := dst.CreateElement(n.name)
			writeAttributes(el, n.attrsMap)
			writeContent(el, n, sel)
			if len(el.Child) == 0 {
				el.CreateText("")
			}
		case *Text:
			var b strings.Builder
			for i, r := range []rune(n.data) {
				if i > 0 {
					b.WriteString(selectionMark(sel, PositionAt(e, offset+i)))
				}
				b.WriteRune(r)
			}
			if len(n.attrsMap) == 0 {
				dst.CreateText(b.String())
			} else {
				el := dst.CreateElement(TextName)
				writeAttributes(el, n.attrsMap)
				el.CreateText(b.String())
			}
		}
		offset += c.OffsetSize()
	}
	if m := selectionMark(sel, PositionAt(e, offset)); m != "" {
		dst.CreateText(m)
	}
}

func writeAttributes(el *etree.Element, attrs Attributes) {
	for _, k := range attrs.Keys() {
		el.CreateAttr(k, fmt.Sprint(attrs[k]))
	}
}

// Dump produces indented tree listing for logs and debug reports.
func Dump(root *Element) string {
	tw := debug.NewTreeWriter()
	dumpNode(tw, 0, root)
	return tw.String()
}

func dumpNode(tw *debug.TreeWriter, depth int, n Node) {
	strAttrs := func(a Attributes) map[string]string {
		out := make(map[string]string, len(a))
		for k, v := range a {
			out[k] = fmt.Sprint(v)
		}
		return out
	}
	switch v := n.(type) {
	case *Element:
		tw.Node(depth, "element", v.name, strAttrs(v.attrsMap))
		for _, c := range v.children {
			dumpNode(tw, depth+1, c)
		}
	case *Text:
		tw.Node(depth, "text", "", strAttrs(v.attrsMap))
		tw.TextBlock(depth+1, "data", v.data)
	}
}
