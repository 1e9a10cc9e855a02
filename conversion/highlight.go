package conversion

import (
	"fmt"

	"edconv/model"
	"edconv/view"
)

// DescriptorFunc resolves highlight descriptor for marker event, nil means
// no highlight.
type DescriptorFunc func(data *DowncastData, api *DowncastAPI) *view.HighlightDescriptor

// StaticDescriptor always resolves to copy of d.
func StaticDescriptor(d view.HighlightDescriptor) DescriptorFunc {
	return func(*DowncastData, *DowncastAPI) *view.HighlightDescriptor {
		c := d
		return &c
	}
}

// prepareDescriptor resolves descriptor and fills defaults: identity is the
// marker name, priority is the default attribute element priority.
func prepareDescriptor(fn DescriptorFunc, data *DowncastData, api *DowncastAPI) *view.HighlightDescriptor {
	d := fn(data, api)
	if d == nil {
		return nil
	}
	if d.Priority == 0 {
		d.Priority = view.DefaultPriority
	}
	if d.ID == "" {
		d.ID = data.MarkerName
	}
	return d
}

// HighlightText wraps text inside marker, or collapsed selection inside
// marker, with highlight span. Spans of the same highlight merge no matter
// their classes or priority.
func HighlightText(descriptor DescriptorFunc) DowncastHandler {
	return func(evt *EventInfo, data *DowncastData, api *DowncastAPI) error {
		if data.MarkerRange.IsCollapsed() {
			return nil
		}
		_, isText := data.Item.(model.TextProxy)
		if !isText && data.Selection == nil {
			return nil
		}
		d := prepareDescriptor(descriptor, data, api)
		if d == nil {
			return nil
		}
		if !api.Consumable.Consume(data.Target(), data.ConsumableName) {
			return nil
		}

		span := view.HighlightSpan(*d)
		if data.Selection != nil {
			doc := api.Writer.Document()
			if doc == nil {
				return nil
			}
			r, ok := doc.Selection().FirstRange()
			if !ok {
				return nil
			}
			if _, err := api.Writer.Wrap(r, span); err != nil {
				return fmt.Errorf("highlight selection %s: %w", d.ID, err)
			}
			return nil
		}

		r, ok := api.Mapper.ToViewRange(data.Range)
		if !ok {
			return nil
		}
		if _, err := api.Writer.Wrap(r, span); err != nil {
			return fmt.Errorf("highlight %s: %w", d.ID, err)
		}
		return nil
	}
}

// HighlightElement hands highlight over to view element Highlighter. The
// element and everything inside it is consumed so nested content is not
// highlighted again. Elements without Highlighter are left to other
// converters.
func HighlightElement(descriptor DescriptorFunc) DowncastHandler {
	return func(evt *EventInfo, data *DowncastData, api *DowncastAPI) error {
		if data.MarkerRange.IsCollapsed() {
			return nil
		}
		me, ok := data.Item.(*model.Element)
		if !ok {
			return nil
		}
		d := prepareDescriptor(descriptor, data, api)
		if d == nil {
			return nil
		}
		if api.Consumable.Test(me, data.ConsumableName) != Available {
			return nil
		}
		ve, ok := api.Mapper.ToViewElement(me)
		if !ok || ve.Highlighter() == nil {
			return nil
		}
		api.Consumable.Consume(me, data.ConsumableName)
		for _, it := range model.RangeIn(me).Items() {
			api.Consumable.Consume(it, data.ConsumableName)
		}
		if err := ve.Highlighter().AddHighlight(ve, *d, api.Writer); err != nil {
			return fmt.Errorf("highlight %s on %s: %w", d.ID, ve.Name(), err)
		}
		return nil
	}
}

// RemoveHighlight removes highlight from marker range. Containers with
// Highlighter remove it themselves and their content is skipped, then
// highlight spans are unwrapped from the remaining text going backwards.
func RemoveHighlight(descriptor DescriptorFunc) DowncastHandler {
	return func(evt *EventInfo, data *DowncastData, api *DowncastAPI) error {
		if data.MarkerRange.IsCollapsed() {
			return nil
		}
		d := prepareDescriptor(descriptor, data, api)
		if d == nil {
			return nil
		}
		if !api.Consumable.Consume(data.Target(), data.ConsumableName) {
			return nil
		}
		r, ok := api.Mapper.ToViewRange(data.MarkerRange)
		if !ok {
			return nil
		}

		items := r.Items()
		handled := make(map[view.NodeID]bool)
		for _, it := range items {
			e, ok := it.(*view.Element)
			if !ok || !e.IsContainer() || e.Highlighter() == nil || insideHandled(e, handled) {
				continue
			}
			if err := e.Highlighter().RemoveHighlight(e, d.ID, api.Writer); err != nil {
				return fmt.Errorf("remove highlight %s from %s: %w", d.ID, e.Name(), err)
			}
			handled[e.ID()] = true
		}

		span := view.HighlightSpan(*d)
		for i := len(items) - 1; i >= 0; i-- {
			tp, ok := items[i].(view.TextProxy)
			if !ok || insideHandled(tp.Text, handled) {
				continue
			}
			if _, err := api.Writer.Unwrap(view.RangeOnItem(tp), span); err != nil {
				return fmt.Errorf("remove highlight %s: %w", d.ID, err)
			}
		}
		evt.Stop()
		return nil
	}
}

func insideHandled(n view.Node, handled map[view.NodeID]bool) bool {
	for _, a := range view.Ancestors(n) {
		if handled[a.ID()] {
			return true
		}
	}
	return false
}
