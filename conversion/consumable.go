package conversion

import "edconv/model"

// Availability is the result of consumable test.
type Availability int

const (
	// Unknown capability was never added in the current pass.
	Unknown Availability = iota
	Available
	Consumed
)

func (a Availability) String() string {
	switch a {
	case Available:
		return "available"
	case Consumed:
		return "consumed"
	default:
		return "unknown"
	}
}

type textKey struct {
	parent     *model.Element
	start, end int
}

type consumableKey struct {
	item any
	name string
}

// Consumable records which capabilities of model items are still waiting to
// be converted in a single downcast pass. Items are model elements, text
// proxies (identified by their parent and offsets, so proxies created by
// different walks over the same text match), the model selection and marker
// ranges.
type Consumable struct {
	state map[consumableKey]bool
	order []consumableKey
}

func NewConsumable() *Consumable {
	return &Consumable{state: make(map[consumableKey]bool)}
}

func itemKey(item any) any {
	switch v := item.(type) {
	case model.TextProxy:
		start := v.StartOffset()
		return textKey{parent: v.Parent(), start: start, end: start + v.Length}
	case model.Range:
		return v.Key()
	}
	return item
}

// Add makes capability available, already consumed capability stays
// consumed.
func (c *Consumable) Add(item any, name string) {
	k := consumableKey{item: itemKey(item), name: name}
	if _, ok := c.state[k]; ok {
		return
	}
	c.state[k] = true
	c.order = append(c.order, k)
}

// Consume marks capability as consumed. It returns false without any side
// effect when capability is unknown or already consumed.
func (c *Consumable) Consume(item any, name string) bool {
	k := consumableKey{item: itemKey(item), name: name}
	if !c.state[k] {
		return false
	}
	c.state[k] = false
	return true
}

func (c *Consumable) Test(item any, name string) Availability {
	available, ok := c.state[consumableKey{item: itemKey(item), name: name}]
	switch {
	case !ok:
		return Unknown
	case available:
		return Available
	default:
		return Consumed
	}
}

// Revert makes consumed capability available again.
func (c *Consumable) Revert(item any, name string) bool {
	k := consumableKey{item: itemKey(item), name: name}
	if available, ok := c.state[k]; !ok || available {
		return false
	}
	c.state[k] = true
	return true
}

// Remaining lists names of capabilities nobody consumed, in the order they
// were added.
func (c *Consumable) Remaining() []string {
	var out []string
	for _, k := range c.order {
		if c.state[k] {
			out = append(out, k.name)
		}
	}
	return out
}
