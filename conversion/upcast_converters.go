package conversion

import (
	"errors"
	"fmt"
	"slices"

	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"

	"edconv/model"
	"edconv/schema"
	"edconv/view"
)

// MarkerNameAttribute holds marker name on $marker model elements and on
// view marker boundaries.
const MarkerNameAttribute = "data-name"

var ErrMarkerName = errors.New("marker boundary without name")

// ModelElementCreator creates model element for matched view element, nil
// declines.
type ModelElementCreator func(e *view.Element, api *UpcastAPI) *model.Element

// ModelAttributeCreator returns model attribute for matched view element,
// false declines.
type ModelAttributeCreator func(e *view.Element, api *UpcastAPI) (key string, value any, ok bool)

// ModelElement creates element with fixed name.
func ModelElement(name string) ModelElementCreator {
	return func(*view.Element, *UpcastAPI) *model.Element { return model.NewElement(name, nil) }
}

// ModelAttribute creates fixed attribute.
func ModelAttribute(key string, value any) ModelAttributeCreator {
	return func(*view.Element, *UpcastAPI) (string, any, bool) { return key, value, true }
}

// ConvertToModelFragment converts element nobody else converted into its
// converted children. It is the lowest priority default for elements and
// fragments.
func ConvertToModelFragment() UpcastHandler {
	return func(evt *EventInfo, data *UpcastData, api *UpcastAPI) error {
		if data.Output != nil {
			return nil
		}
		e, ok := data.ViewItem.(*view.Element)
		if !ok || !api.Consumable.Consume(e, ViewParts{Name: true}) {
			return nil
		}
		children, err := api.ConvertChildren(e, data.Context)
		if err != nil {
			return err
		}
		data.Output = children
		return nil
	}
}

// ConvertText converts view text into normalized model text where schema
// allows text.
func ConvertText() UpcastHandler {
	return func(evt *EventInfo, data *UpcastData, api *UpcastAPI) error {
		t, ok := data.ViewItem.(*view.Text)
		if !ok {
			return nil
		}
		if !api.Schema.Check(schema.Query{Name: schema.Text, Context: data.Context}) {
			api.Log.Debug("Text is not allowed", zap.Strings("context", data.Context))
			return nil
		}
		if !api.Consumable.Consume(t, ViewParts{Name: true}) {
			return nil
		}
		data.Output = []model.Node{model.NewText(norm.NFC.String(t.Data()), nil)}
		return nil
	}
}

// ElementToElement converts matched view element into model element and its
// children into the element content. The first match whose parts are all
// still available is consumed.
func ElementToElement(m *Matcher, create ModelElementCreator) UpcastHandler {
	return func(evt *EventInfo, data *UpcastData, api *UpcastAPI) error {
		e, ok := data.ViewItem.(*view.Element)
		if !ok {
			return nil
		}
		for _, match := range m.MatchAll(e) {
			me := create(e, api)
			if me == nil {
				continue
			}
			if !api.Schema.Check(schema.Query{Name: me.Name(), Attributes: me.AttributeKeys(), Context: data.Context}) {
				api.Log.Warn("Element is not allowed", zap.String("element", me.Name()), zap.Strings("context", data.Context))
				continue
			}
			parts := match.Parts
			parts.Name = true
			if !api.Consumable.Consume(e, parts) {
				continue
			}
			children, err := api.ConvertChildren(e, append(slices.Clone(data.Context), me.Name()))
			if err != nil {
				return err
			}
			if err := me.AppendChildren(children...); err != nil {
				return fmt.Errorf("upcast %s: %w", e.Name(), err)
			}
			data.Output = []model.Node{me}
			return nil
		}
		return nil
	}
}

// ElementToAttribute sets model attribute on the conversion result of the
// matched element, converting its children when nothing else did. Nodes
// schema does not allow the attribute on are left as they are.
func ElementToAttribute(m *Matcher, create ModelAttributeCreator) UpcastHandler {
	return func(evt *EventInfo, data *UpcastData, api *UpcastAPI) error {
		e, ok := data.ViewItem.(*view.Element)
		if !ok {
			return nil
		}
		for _, match := range m.MatchAll(e) {
			key, value, ok := create(e, api)
			if !ok || !api.Consumable.Consume(e, match.Parts) {
				continue
			}
			if data.Output == nil {
				children, err := api.ConvertChildren(e, data.Context)
				if err != nil {
					return err
				}
				data.Output = children
			}
			return setAttributeOn(data.Output, key, value, data.Context, api)
		}
		return nil
	}
}

// AttributeToAttribute sets model attribute on elements already produced
// for the matched view element. Without such output it does nothing.
func AttributeToAttribute(m *Matcher, create ModelAttributeCreator) UpcastHandler {
	return func(evt *EventInfo, data *UpcastData, api *UpcastAPI) error {
		e, ok := data.ViewItem.(*view.Element)
		if !ok || len(data.Output) == 0 {
			return nil
		}
		var elements []model.Node
		for _, n := range data.Output {
			if _, ok := n.(*model.Element); ok {
				elements = append(elements, n)
			}
		}
		if len(elements) == 0 {
			return nil
		}
		for _, match := range m.MatchAll(e) {
			key, value, ok := create(e, api)
			if !ok || !api.Consumable.Consume(e, match.Parts) {
				continue
			}
			return setAttributeOn(elements, key, value, data.Context, api)
		}
		return nil
	}
}

func setAttributeOn(nodes []model.Node, key string, value any, context []string, api *UpcastAPI) error {
	for _, n := range nodes {
		q := schema.Query{Name: n.Name(), Attributes: append(n.AttributeKeys(), key), Context: context}
		if !api.Schema.Check(q) {
			api.Log.Debug("Attribute is not allowed", zap.String("item", n.Name()), zap.String("attribute", key))
			continue
		}
		var err error
		switch v := n.(type) {
		case *model.Element:
			err = v.SetAttribute(key, value)
		case *model.Text:
			err = v.SetAttribute(key, value)
		}
		if err != nil {
			return fmt.Errorf("set %s on %s: %w", key, n.Name(), err)
		}
	}
	return nil
}

// ElementToMarker converts matched view element into $marker model element
// carrying marker name. Nil name function reads the data-name attribute.
func ElementToMarker(m *Matcher, name func(e *view.Element) string) UpcastHandler {
	if name == nil {
		name = func(e *view.Element) string {
			v, _ := e.Attribute(MarkerNameAttribute)
			return v
		}
	}
	return func(evt *EventInfo, data *UpcastData, api *UpcastAPI) error {
		e, ok := data.ViewItem.(*view.Element)
		if !ok {
			return nil
		}
		matches := m.MatchAll(e)
		if len(matches) == 0 {
			return nil
		}
		markerName := name(e)
		if markerName == "" {
			return fmt.Errorf("%s: %w", e.Name(), ErrMarkerName)
		}
		me := model.NewElement(schema.Marker, model.Attributes{MarkerNameAttribute: markerName})
		if !api.Schema.Check(schema.Query{Name: me.Name(), Attributes: me.AttributeKeys(), Context: data.Context}) {
			api.Log.Warn("Marker is not allowed", zap.String("marker", markerName), zap.Strings("context", data.Context))
			return nil
		}
		for _, match := range matches {
			parts := match.Parts
			parts.Name = true
			if api.Consumable.Consume(e, parts) {
				data.Output = []model.Node{me}
				return nil
			}
		}
		return nil
	}
}

// ExtractMarkers removes $marker elements from detached fragment and returns
// ranges they delimit. The first element of a name starts the range, the
// next one ends it, a lone element gives collapsed range.
func ExtractMarkers(frag *model.Element) (map[string]model.Range, error) {
	var boundaries []*model.Element
	for _, it := range model.RangeIn(frag).Items() {
		if e, ok := it.(*model.Element); ok && e.Name() == schema.Marker {
			boundaries = append(boundaries, e)
		}
	}
	markers := make(map[string]model.Range)
	for _, b := range boundaries {
		v, _ := b.Attribute(MarkerNameAttribute)
		name, ok := v.(string)
		if !ok || name == "" {
			return nil, ErrMarkerName
		}
		p := model.PositionBefore(b)
		if r, ok := markers[name]; ok {
			r.End = p
			markers[name] = r
		} else {
			markers[name] = model.CollapsedRange(p)
		}
		if _, err := b.Parent().RemoveChildren(b.Index(), 1); err != nil {
			return nil, fmt.Errorf("unable to remove marker %q boundary: %w", name, err)
		}
	}
	return markers, nil
}
