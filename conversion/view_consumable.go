package conversion

import "edconv/view"

// ViewParts selects parts of view element: its name and some of its
// attributes, classes and styles. Text nodes and fragments only have a name.
type ViewParts struct {
	Name       bool
	Attributes []string
	Classes    []string
	Styles     []string
}

// IsEmpty reports whether no part is selected.
func (p ViewParts) IsEmpty() bool {
	return !p.Name && len(p.Attributes) == 0 && len(p.Classes) == 0 && len(p.Styles) == 0
}

type elementConsumables struct {
	name       *bool
	attributes map[string]bool
	classes    map[string]bool
	styles     map[string]bool
}

// ViewConsumable records which parts of view nodes are still waiting to be
// converted during upcast.
type ViewConsumable struct {
	nodes map[view.NodeID]*elementConsumables
}

func NewViewConsumable() *ViewConsumable {
	return &ViewConsumable{nodes: make(map[view.NodeID]*elementConsumables)}
}

// ViewConsumableFrom adds every part of node and all its descendants.
func ViewConsumableFrom(n view.Node) *ViewConsumable {
	c := NewViewConsumable()
	c.addTree(n)
	return c
}

func (c *ViewConsumable) addTree(n view.Node) {
	e, ok := n.(*view.Element)
	if !ok {
		c.Add(n, ViewParts{Name: true})
		return
	}
	parts := ViewParts{Name: true, Classes: e.ClassNames(), Styles: e.StyleNames()}
	for _, k := range e.AttributeKeys() {
		if k != "class" && k != "style" {
			parts.Attributes = append(parts.Attributes, k)
		}
	}
	c.Add(e, parts)
	for _, child := range e.Children() {
		c.addTree(child)
	}
}

func (c *ViewConsumable) entry(n view.Node, create bool) *elementConsumables {
	ec, ok := c.nodes[n.ID()]
	if !ok && create {
		ec = &elementConsumables{
			attributes: make(map[string]bool),
			classes:    make(map[string]bool),
			styles:     make(map[string]bool),
		}
		c.nodes[n.ID()] = ec
	}
	return ec
}

// Add makes parts available. Parts which were already consumed stay
// consumed.
func (c *ViewConsumable) Add(n view.Node, parts ViewParts) {
	ec := c.entry(n, true)
	if parts.Name && ec.name == nil {
		available := true
		ec.name = &available
	}
	addAll := func(m map[string]bool, keys []string) {
		for _, k := range keys {
			if _, ok := m[k]; !ok {
				m[k] = true
			}
		}
	}
	addAll(ec.attributes, parts.Attributes)
	addAll(ec.classes, parts.Classes)
	addAll(ec.styles, parts.Styles)
}

// Test is Unknown when any of the parts was never added, Consumed when any
// of them is consumed and Available otherwise.
func (c *ViewConsumable) Test(n view.Node, parts ViewParts) Availability {
	ec := c.entry(n, false)
	if ec == nil {
		return Unknown
	}
	result := Available
	check := func(state bool, known bool) {
		switch {
		case !known:
			result = Unknown
		case !state && result != Unknown:
			result = Consumed
		}
	}
	if parts.Name {
		if ec.name == nil {
			check(false, false)
		} else {
			check(*ec.name, true)
		}
	}
	for _, group := range []struct {
		m    map[string]bool
		keys []string
	}{{ec.attributes, parts.Attributes}, {ec.classes, parts.Classes}, {ec.styles, parts.Styles}} {
		for _, k := range group.keys {
			state, known := group.m[k]
			check(state, known)
		}
	}
	return result
}

// Consume consumes all parts at once, only if all of them are available.
func (c *ViewConsumable) Consume(n view.Node, parts ViewParts) bool {
	if c.Test(n, parts) != Available {
		return false
	}
	c.set(n, parts, false)
	return true
}

// Revert makes consumed parts available again, unknown parts are ignored.
func (c *ViewConsumable) Revert(n view.Node, parts ViewParts) {
	c.set(n, parts, true)
}

func (c *ViewConsumable) set(n view.Node, parts ViewParts, state bool) {
	ec := c.entry(n, false)
	if ec == nil {
		return
	}
	if parts.Name && ec.name != nil {
		*ec.name = state
	}
	for _, group := range []struct {
		m    map[string]bool
		keys []string
	}{{ec.attributes, parts.Attributes}, {ec.classes, parts.Classes}, {ec.styles, parts.Styles}} {
		for _, k := range group.keys {
			if _, ok := group.m[k]; ok {
				group.m[k] = state
			}
		}
	}
}
