package view

import (
	"cmp"
	"slices"
)

// HighlightDescriptor describes how marker highlight looks in the view.
// ID identifies highlight so it can be removed later, Priority orders
// overlapping highlights, zero means DefaultPriority.
type HighlightDescriptor struct {
	Classes    []string
	ID         string
	Priority   int
	Attributes map[string]string
}

// Highlighter is set on container and UI elements which handle highlights
// themselves instead of being wrapped.
type Highlighter interface {
	AddHighlight(e *Element, d HighlightDescriptor, w *Writer) error
	RemoveHighlight(e *Element, id string, w *Writer) error
}

// HighlightSpan creates span used to wrap highlighted text.
func HighlightSpan(d HighlightDescriptor) *Element {
	span := NewAttributeElement("span", d.Attributes).WithIdentity(d.ID)
	if d.Priority != 0 {
		span.WithPriority(d.Priority)
	}
	for _, c := range d.Classes {
		span.addClass(c)
	}
	return span
}

// ClassHighlighter applies the top priority highlight classes and
// attributes directly to element. It keeps per element stack of active
// descriptors so removing top highlight restores the one below.
type ClassHighlighter struct {
	stacks map[NodeID][]HighlightDescriptor
}

func NewClassHighlighter() *ClassHighlighter {
	return &ClassHighlighter{stacks: make(map[NodeID][]HighlightDescriptor)}
}

func (h *ClassHighlighter) AddHighlight(e *Element, d HighlightDescriptor, w *Writer) error {
	stack := h.stacks[e.ID()]
	h.unapply(e, stack, w)
	stack = slices.DeleteFunc(stack, func(s HighlightDescriptor) bool { return s.ID == d.ID })
	stack = append(stack, d)
	slices.SortStableFunc(stack, func(a, b HighlightDescriptor) int { return cmp.Compare(a.Priority, b.Priority) })
	h.stacks[e.ID()] = stack
	h.apply(e, stack, w)
	return nil
}

func (h *ClassHighlighter) RemoveHighlight(e *Element, id string, w *Writer) error {
	stack := h.stacks[e.ID()]
	h.unapply(e, stack, w)
	stack = slices.DeleteFunc(stack, func(s HighlightDescriptor) bool { return s.ID == id })
	if len(stack) == 0 {
		delete(h.stacks, e.ID())
		return nil
	}
	h.stacks[e.ID()] = stack
	h.apply(e, stack, w)
	return nil
}

func (h *ClassHighlighter) apply(e *Element, stack []HighlightDescriptor, w *Writer) {
	if len(stack) == 0 {
		return
	}
	top := stack[len(stack)-1]
	w.AddClass(e, top.Classes...)
	for _, k := range sortedKeys(top.Attributes) {
		w.SetAttribute(k, top.Attributes[k], e)
	}
}

func (h *ClassHighlighter) unapply(e *Element, stack []HighlightDescriptor, w *Writer) {
	if len(stack) == 0 {
		return
	}
	top := stack[len(stack)-1]
	w.RemoveClass(e, top.Classes...)
	for k := range top.Attributes {
		w.RemoveAttribute(k, e)
	}
}
