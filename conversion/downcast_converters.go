package conversion

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"edconv/model"
	"edconv/schema"
	"edconv/view"
)

// ElementCreator creates view element for converted item, nil declines
// conversion leaving the capability to other handlers.
type ElementCreator func(data *DowncastData, api *DowncastAPI) *view.Element

// ValueElementCreator creates wrapper element for attribute value. It is
// called for both old and new values, nil value usually yields nil.
type ValueElementCreator func(value any, data *DowncastData, api *DowncastAPI) *view.Element

// AttributeCreator returns view attribute for model attribute value, false
// declines.
type AttributeCreator func(value any, data *DowncastData, api *DowncastAPI) (key, viewValue string, ok bool)

// MarkerElementCreator creates marker boundary element, isOpening tells
// which boundary is requested.
type MarkerElementCreator func(data *DowncastData, api *DowncastAPI, isOpening bool) *view.Element

// InsertElement converts inserted model element to view element created by
// creator and binds the two.
func InsertElement(create ElementCreator) DowncastHandler {
	return func(evt *EventInfo, data *DowncastData, api *DowncastAPI) error {
		me, ok := data.Item.(*model.Element)
		if !ok {
			return nil
		}
		ve := create(data, api)
		if ve == nil {
			api.Log.Debug("Element creator declined", zap.String("element", me.Name()))
			return nil
		}
		if !api.Consumable.Consume(data.Item, data.ConsumableName) {
			return nil
		}
		p, ok := api.Mapper.ToViewPosition(data.Range.Start, false)
		if !ok {
			return nil
		}
		api.Mapper.BindElements(me, ve)
		if _, err := api.Writer.Insert(p, ve); err != nil {
			return fmt.Errorf("insert %s: %w", ve.Name(), err)
		}
		return nil
	}
}

// InsertText converts inserted model text into view text.
func InsertText() DowncastHandler {
	return func(evt *EventInfo, data *DowncastData, api *DowncastAPI) error {
		tp, ok := data.Item.(model.TextProxy)
		if !ok {
			return nil
		}
		if !api.Consumable.Consume(data.Item, data.ConsumableName) {
			return nil
		}
		p, ok := api.Mapper.ToViewPosition(data.Range.Start, false)
		if !ok {
			return nil
		}
		if _, err := api.Writer.Insert(p, view.NewText(tp.Data())); err != nil {
			return fmt.Errorf("insert text: %w", err)
		}
		return nil
	}
}

// Remove removes view content of removed model node. End of the removed
// content is found by phantom translation, range is trimmed so boundary UI
// elements next to it stay. Removed view elements are unbound.
func Remove() DowncastHandler {
	return func(evt *EventInfo, data *DowncastData, api *DowncastAPI) error {
		if !api.Consumable.Consume(data.Item, data.ConsumableName) {
			return nil
		}
		start, ok := api.Mapper.ToViewPosition(data.Position, false)
		if !ok {
			return nil
		}
		end, ok := api.Mapper.ToViewPosition(data.Position.ShiftedBy(data.Length), true)
		if !ok {
			return nil
		}
		removed, _, err := api.Writer.Remove(view.NewRange(start, end).Trimmed())
		if err != nil {
			return fmt.Errorf("remove %s: %w", data.Item.Name(), err)
		}
		for _, n := range removed.Children() {
			if e, ok := n.(*view.Element); ok {
				api.Mapper.UnbindViewElement(e)
			}
		}
		return nil
	}
}

// DefaultAttributeCreator uses model attribute key and value as is.
func DefaultAttributeCreator(value any, data *DowncastData, _ *DowncastAPI) (string, string, bool) {
	if value == nil {
		return "", "", false
	}
	return data.AttributeKey, fmt.Sprint(value), true
}

// ChangeAttribute converts model element attribute into attribute of its
// view element. Old value projection is removed first, then new one is set.
// "class" and "style" keys change view classes and styles.
func ChangeAttribute(create AttributeCreator) DowncastHandler {
	if create == nil {
		create = DefaultAttributeCreator
	}
	return func(evt *EventInfo, data *DowncastData, api *DowncastAPI) error {
		oldKey, oldValue, hasOld := create(data.OldValue, data, api)
		newKey, newValue, hasNew := create(data.NewValue, data, api)
		if !hasOld && !hasNew {
			return nil
		}
		me, ok := data.Item.(*model.Element)
		if !ok {
			return nil
		}
		ve, ok := api.Mapper.ToViewElement(me)
		if !ok {
			return nil
		}
		if !api.Consumable.Consume(data.Item, data.ConsumableName) {
			return nil
		}
		if data.OldValue != nil && hasOld {
			switch oldKey {
			case "class":
				api.Writer.RemoveClass(ve, strings.Fields(oldValue)...)
			case "style":
				for name := range view.ParseStyle(oldValue) {
					api.Writer.RemoveStyle(name, ve)
				}
			default:
				api.Writer.RemoveAttribute(oldKey, ve)
			}
		}
		if data.NewValue != nil && hasNew {
			switch newKey {
			case "class":
				api.Writer.AddClass(ve, strings.Fields(newValue)...)
			case "style":
				for name, v := range view.ParseStyle(newValue) {
					api.Writer.SetStyle(name, v, ve)
				}
			default:
				api.Writer.SetAttribute(newKey, newValue, ve)
			}
		}
		return nil
	}
}

// Wrap converts model attribute into attribute element wrapping the
// content. Content is unwrapped from the old value wrapper first and then
// wrapped with the new one. For selection the view selection is wrapped.
func Wrap(create ValueElementCreator) DowncastHandler {
	return func(evt *EventInfo, data *DowncastData, api *DowncastAPI) error {
		oldWrapper := create(data.OldValue, data, api)
		newWrapper := create(data.NewValue, data, api)
		if oldWrapper == nil && newWrapper == nil {
			return nil
		}
		if !api.Consumable.Consume(data.Target(), data.ConsumableName) {
			return nil
		}

		if data.Selection != nil {
			doc := api.Writer.Document()
			if newWrapper == nil || doc == nil || !selectionAttributeAllowed(data, api) {
				return nil
			}
			r, ok := doc.Selection().FirstRange()
			if !ok {
				return nil
			}
			if _, err := api.Writer.Wrap(r, newWrapper); err != nil {
				return fmt.Errorf("wrap selection with %s: %w", newWrapper.Name(), err)
			}
			return nil
		}

		r, ok := api.Mapper.ToViewRange(data.Range)
		if !ok {
			return nil
		}
		var err error
		if data.OldValue != nil && oldWrapper != nil {
			if r, err = api.Writer.Unwrap(r, oldWrapper); err != nil {
				return fmt.Errorf("unwrap %s: %w", oldWrapper.Name(), err)
			}
		}
		if data.NewValue != nil && newWrapper != nil {
			if _, err = api.Writer.Wrap(r, newWrapper); err != nil {
				return fmt.Errorf("wrap with %s: %w", newWrapper.Name(), err)
			}
		}
		return nil
	}
}

// selectionAttributeAllowed asks schema whether text typed at the selection
// may carry the attribute. Missing schema allows everything.
func selectionAttributeAllowed(data *DowncastData, api *DowncastAPI) bool {
	if api.Schema == nil {
		return true
	}
	first, ok := data.Selection.FirstPosition()
	if !ok {
		return false
	}
	q := schema.Query{Name: schema.Text, Attributes: []string{data.AttributeKey}, Context: schema.ContextOf(first)}
	if !api.Schema.Check(q) {
		api.Log.Debug("Selection attribute is not allowed", zap.String("attribute", data.AttributeKey))
		return false
	}
	return true
}

// InsertUIElement converts marker into boundary UI elements: opening one at
// marker start and, for not collapsed marker, closing one at its end.
// Collapsed marker consumes capability of its range, other markers consume
// capability of every item they contain.
func InsertUIElement(create MarkerElementCreator) DowncastHandler {
	return func(evt *EventInfo, data *DowncastData, api *DowncastAPI) error {
		opening := create(data, api, true)
		closing := create(data, api, false)
		if opening == nil || closing == nil {
			return nil
		}
		mr := data.MarkerRange
		if mr.IsCollapsed() {
			if !api.Consumable.Consume(mr, data.ConsumableName) {
				return nil
			}
		} else {
			items := mr.Items()
			for _, it := range items {
				if api.Consumable.Test(it, data.ConsumableName) != Available {
					return nil
				}
			}
			for _, it := range items {
				api.Consumable.Consume(it, data.ConsumableName)
			}
		}

		start, ok := api.Mapper.ToViewPosition(mr.Start, false)
		if !ok {
			return nil
		}
		if _, err := api.Writer.Insert(start, opening); err != nil {
			return fmt.Errorf("insert marker %s start: %w", data.MarkerName, err)
		}
		if !mr.IsCollapsed() {
			end, ok := api.Mapper.ToViewPosition(mr.End, false)
			if !ok {
				return nil
			}
			if _, err := api.Writer.Insert(end, closing); err != nil {
				return fmt.Errorf("insert marker %s end: %w", data.MarkerName, err)
			}
		}
		evt.Stop()
		return nil
	}
}

// RemoveUIElement removes marker boundary elements similar to the ones
// creator makes. Closing element is removed first, each boundary is looked
// up around its own mapped position.
func RemoveUIElement(create MarkerElementCreator) DowncastHandler {
	return func(evt *EventInfo, data *DowncastData, api *DowncastAPI) error {
		opening := create(data, api, true)
		closing := create(data, api, false)
		if opening == nil || closing == nil {
			return nil
		}
		if !api.Consumable.Consume(data.Target(), data.ConsumableName) {
			return nil
		}
		boundaries := []struct {
			p model.Position
			e *view.Element
		}{{data.MarkerRange.End, closing}, {data.MarkerRange.Start, opening}}
		if data.MarkerRange.IsCollapsed() {
			boundaries = boundaries[1:]
		}
		for _, b := range boundaries {
			p, ok := api.Mapper.ToViewPosition(b.p, false)
			if !ok {
				continue
			}
			if err := api.Writer.Clear(view.CollapsedRange(p).Enlarged(), b.e); err != nil {
				return fmt.Errorf("remove marker %s boundary: %w", data.MarkerName, err)
			}
		}
		evt.Stop()
		return nil
	}
}
