package view

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/beevik/etree"
)

// DefaultInlineNames are element names parsed as attribute elements when
// markup does not carry explicit kind prefix.
var DefaultInlineNames = []string{"a", "b", "code", "em", "i", "mark", "s", "span", "strong", "sub", "sup", "u"}

// ParseOptions control view markup parsing.
type ParseOptions struct {
	// Selection enables "[", "]", "{" and "}" range notation in text.
	Selection bool
	// InlineNames overrides DefaultInlineNames.
	InlineNames []string
}

var errSelection = errors.New("bad selection notation")

type parseMark struct {
	open bool
	pos  Position
}

type parser struct {
	opts   ParseOptions
	inline map[string]bool
	marks  []parseMark
}

// Parse builds detached fragment from view markup. Element kind is taken
// from "container:", "attribute:" or "ui:" name prefix, unprefixed names are
// attribute elements when listed as inline and containers otherwise.
// Attribute elements accept view-priority and view-id attributes.
func Parse(data string, opts ParseOptions) (*Element, []Range, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromString("<fragment>" + data + "</fragment>"); err != nil {
		return nil, nil, fmt.Errorf("unable to parse view markup: %w", err)
	}

	p := &parser{opts: opts, inline: make(map[string]bool)}
	names := opts.InlineNames
	if names == nil {
		names = DefaultInlineNames
	}
	for _, n := range names {
		p.inline[n] = true
	}

	frag := NewFragment()
	if err := p.children(frag, doc.Root()); err != nil {
		return nil, nil, err
	}
	ranges, err := p.ranges()
	if err != nil {
		return nil, nil, err
	}
	return frag, ranges, nil
}

func (p *parser) children(dst *Element, src *etree.Element) error {
	for _, tok := range src.Child {
		switch t := tok.(type) {
		case *etree.CharData:
			if err := p.text(dst, t.Data); err != nil {
				return err
			}
		case *etree.Element:
			e, err := p.element(t)
			if err != nil {
				return err
			}
			if dst.kind == KindUI {
				return fmt.Errorf("element %s: %w", dst.name, ErrInsertIntoUI)
			}
			dst.insertChildren(len(dst.children), e)
			if err := p.children(e, t); err != nil {
				return err
			}
		}
	}
	return nil
}

func (p *parser) element(src *etree.Element) (*Element, error) {
	var kind Kind
	switch src.Space {
	case "container":
		kind = KindContainer
	case "attribute":
		kind = KindAttribute
	case "ui":
		kind = KindUI
	case "":
		kind = KindContainer
		if p.inline[src.Tag] {
			kind = KindAttribute
		}
	default:
		return nil, fmt.Errorf("unknown element kind %q of %s", src.Space, src.Tag)
	}

	e := newElement(kind, src.Tag, nil)
	for _, a := range src.Attr {
		switch key := a.FullKey(); key {
		case "view-priority":
			prio, err := strconv.Atoi(a.Value)
			if err != nil {
				return nil, fmt.Errorf("element %s: bad priority %q: %w", src.Tag, a.Value, err)
			}
			e.priority = prio
		case "view-id":
			e.identity = a.Value
		default:
			e.setAttribute(key, a.Value)
		}
	}
	return e, nil
}

func (p *parser) text(dst *Element, data string) error {
	if !p.opts.Selection {
		if data != "" {
			dst.insertChildren(len(dst.children), NewText(data))
		}
		return nil
	}

	type mark struct {
		ch     rune
		offset int
	}
	var (
		marks []mark
		clean []rune
	)
	for _, r := range data {
		switch r {
		case '[', ']', '{', '}':
			marks = append(marks, mark{ch: r, offset: len(clean)})
		default:
			clean = append(clean, r)
		}
	}

	var t *Text
	if len(clean) > 0 {
		t = NewText(string(clean))
		dst.insertChildren(len(dst.children), t)
	}
	for _, m := range marks {
		var pos Position
		switch {
		case (m.ch == '{' || m.ch == '}') && t == nil:
			return fmt.Errorf("text offset mark outside of text: %w", errSelection)
		case m.ch == '{' || m.ch == '}':
			pos = PositionAt(t, m.offset)
		case t == nil:
			pos = PositionAt(dst, len(dst.children))
		case m.offset == 0:
			pos = PositionBefore(t)
		case m.offset == len(clean):
			pos = PositionAfter(t)
		default:
			return fmt.Errorf("element offset mark inside text %q: %w", string(clean), errSelection)
		}
		p.marks = append(p.marks, parseMark{open: m.ch == '[' || m.ch == '{', pos: pos})
	}
	return nil
}

func (p *parser) ranges() ([]Range, error) {
	var out []Range
	for i := 0; i < len(p.marks); i += 2 {
		if !p.marks[i].open || i+1 >= len(p.marks) || p.marks[i+1].open {
			return nil, fmt.Errorf("unbalanced range marks: %w", errSelection)
		}
		out = append(out, Range{Start: p.marks[i].pos, End: p.marks[i+1].pos})
	}
	return out, nil
}
