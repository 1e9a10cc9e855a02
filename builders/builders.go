// Package builders turns short converter definitions into dispatcher
// registrations. Builders only pick conversion primitives and event names,
// all conversion logic lives in package conversion.
package builders

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"edconv/conversion"
	"edconv/view"
)

// Misuse errors, returned when a builder is asked for a conversion its
// source does not support.
var (
	ErrNotMarker    = errors.New("conversion requires model marker source")
	ErrNotAttribute = errors.New("conversion requires model attribute source")
	ErrNotElement   = errors.New("conversion requires model element source")
	ErrNoView       = errors.New("view definition is missing")
)

// ViewFactory creates view element for converted model item. Value is the
// model attribute value for attribute sources and nil otherwise. Returning
// nil declines conversion.
type ViewFactory func(value any, data *conversion.DowncastData) *view.Element

// View describes view element: either structurally or with a factory which
// takes precedence.
type View struct {
	Name       string            `yaml:"name,omitempty"`
	Classes    []string          `yaml:"classes,omitempty"`
	Styles     map[string]string `yaml:"styles,omitempty"`
	Attributes map[string]string `yaml:"attributes,omitempty"`
	// Priority of attribute elements, zero keeps the default.
	Priority int `yaml:"priority,omitempty"`

	Create ViewFactory `yaml:"-"`
}

// ViewName is the shortest view definition: element name alone.
func ViewName(name string) View { return View{Name: name} }

func (v *View) defined() bool { return v.Create != nil || v.Name != "" }

func (v *View) attributes() map[string]string {
	attrs := maps.Clone(v.Attributes)
	if attrs == nil {
		attrs = make(map[string]string)
	}
	if len(v.Classes) > 0 {
		attrs["class"] = strings.Join(v.Classes, " ")
	}
	if len(v.Styles) > 0 {
		attrs["style"] = view.FormatStyle(v.Styles)
	}
	return attrs
}

func (v *View) create(kind view.Kind, value any, data *conversion.DowncastData) *view.Element {
	if v.Create != nil {
		return v.Create(value, data)
	}
	switch kind {
	case view.KindAttribute:
		e := view.NewAttributeElement(v.Name, v.attributes())
		if v.Priority != 0 {
			e.WithPriority(v.Priority)
		}
		return e
	case view.KindUI:
		return view.NewUIElement(v.Name, v.attributes())
	}
	return view.NewContainerElement(v.Name, v.attributes())
}

// pattern matches elements created from structural definition.
func (v *View) pattern() conversion.Pattern {
	p := conversion.Pattern{Name: conversion.Exact(v.Name)}
	for _, c := range v.Classes {
		p.Classes = append(p.Classes, conversion.Exact(c))
	}
	if len(v.Styles) > 0 {
		p.Styles = make(map[string]conversion.Value, len(v.Styles))
		for k, s := range v.Styles {
			p.Styles[k] = conversion.Exact(s)
		}
	}
	if len(v.Attributes) > 0 {
		p.Attributes = make(map[string]conversion.Value, len(v.Attributes))
		for k, a := range v.Attributes {
			p.Attributes[k] = conversion.Exact(a)
		}
	}
	return p
}

// DowncastRegistration attaches converters to downcast dispatchers.
type DowncastRegistration func(d *conversion.DowncastDispatcher)

// Attach registers converters with every dispatcher.
func (r DowncastRegistration) Attach(dispatchers ...*conversion.DowncastDispatcher) {
	for _, d := range dispatchers {
		r(d)
	}
}

// UpcastRegistration attaches converters to upcast dispatchers.
type UpcastRegistration func(d *conversion.UpcastDispatcher)

// Attach registers converters with every dispatcher.
func (r UpcastRegistration) Attach(dispatchers ...*conversion.UpcastDispatcher) {
	for _, d := range dispatchers {
		r(d)
	}
}

type sourceKind int

const (
	sourceElement sourceKind = iota
	sourceAttribute
	sourceMarker
)

func (k sourceKind) String() string {
	switch k {
	case sourceElement:
		return "element"
	case sourceAttribute:
		return "attribute"
	}
	return "marker"
}

// Downcast builds model to view converters for one model source.
type Downcast struct {
	kind     sourceKind
	name     string
	on       string
	priority conversion.Priority
}

// FromModelElement starts converter of model elements with name.
func FromModelElement(name string) *Downcast {
	return &Downcast{kind: sourceElement, name: name, priority: conversion.PriorityNormal}
}

// FromModelAttribute starts converter of model attribute key.
func FromModelAttribute(key string) *Downcast {
	return &Downcast{kind: sourceAttribute, name: key, priority: conversion.PriorityNormal}
}

// FromModelMarker starts converter of markers in group, group "comment"
// covers "comment:1", "comment:2" and so on.
func FromModelMarker(group string) *Downcast {
	return &Downcast{kind: sourceMarker, name: group, priority: conversion.PriorityNormal}
}

func (b *Downcast) WithPriority(p conversion.Priority) *Downcast {
	b.priority = p
	return b
}

// OnElement limits attribute source to attributes of model elements with
// name.
func (b *Downcast) OnElement(name string) *Downcast {
	b.on = name
	return b
}

func (b *Downcast) require(kind sourceKind, err error) error {
	if b.kind != kind {
		return fmt.Errorf("%s source %q: %w", b.kind, b.name, err)
	}
	return nil
}

func (b *Downcast) event(kind conversion.EventKind) conversion.EventName {
	if b.on != "" {
		return conversion.Event(kind, b.name, b.on)
	}
	return conversion.Event(kind, b.name)
}

// ToElement converts model element into container element.
func (b *Downcast) ToElement(v View) (DowncastRegistration, error) {
	if err := b.require(sourceElement, ErrNotElement); err != nil {
		return nil, err
	}
	if !v.defined() {
		return nil, fmt.Errorf("element %q: %w", b.name, ErrNoView)
	}
	handler := conversion.InsertElement(func(data *conversion.DowncastData, _ *conversion.DowncastAPI) *view.Element {
		return v.create(view.KindContainer, nil, data)
	})
	evt, priority := conversion.Event(conversion.EventInsert, b.name), b.priority
	return func(d *conversion.DowncastDispatcher) {
		d.On(evt, handler, priority)
	}, nil
}

// ToAttributeElement wraps text carrying attribute with attribute element.
// Any not nil value gets the same element.
func (b *Downcast) ToAttributeElement(v View) (DowncastRegistration, error) {
	if !v.defined() {
		return nil, fmt.Errorf("attribute %q: %w", b.name, ErrNoView)
	}
	return b.wrap(func(value any, data *conversion.DowncastData) *view.Element {
		if value == nil {
			return nil
		}
		return v.create(view.KindAttribute, value, data)
	})
}

// ToAttributeElementByValue picks attribute element by attribute value
// formatted with fmt.Sprint. Values without definition are not converted.
func (b *Downcast) ToAttributeElementByValue(values map[string]View) (DowncastRegistration, error) {
	if len(values) == 0 {
		return nil, fmt.Errorf("attribute %q: %w", b.name, ErrNoView)
	}
	for k, v := range values {
		if !v.defined() {
			return nil, fmt.Errorf("attribute %q value %q: %w", b.name, k, ErrNoView)
		}
	}
	return b.wrap(func(value any, data *conversion.DowncastData) *view.Element {
		if value == nil {
			return nil
		}
		v, ok := values[fmt.Sprint(value)]
		if !ok {
			return nil
		}
		return v.create(view.KindAttribute, value, data)
	})
}

// wrap registers the same wrapper for content and selection attributes.
func (b *Downcast) wrap(create ViewFactory) (DowncastRegistration, error) {
	if err := b.require(sourceAttribute, ErrNotAttribute); err != nil {
		return nil, err
	}
	handler := conversion.Wrap(func(value any, data *conversion.DowncastData, _ *conversion.DowncastAPI) *view.Element {
		return create(value, data)
	})
	evt, selEvt, priority := b.event(conversion.EventAttribute), conversion.Event(conversion.EventSelectionAttribute, b.name), b.priority
	return func(d *conversion.DowncastDispatcher) {
		d.On(evt, handler, priority)
		d.On(selEvt, handler, priority)
	}, nil
}

// ToAttribute converts model attribute into attribute of the view element
// model element is mapped to. Empty key keeps model key, values map model
// values to view values, nil map formats model value with fmt.Sprint.
func (b *Downcast) ToAttribute(key string, values map[string]string) (DowncastRegistration, error) {
	if err := b.require(sourceAttribute, ErrNotAttribute); err != nil {
		return nil, err
	}
	if key == "" {
		key = b.name
	}
	handler := conversion.ChangeAttribute(func(value any, _ *conversion.DowncastData, _ *conversion.DowncastAPI) (string, string, bool) {
		if value == nil {
			return "", "", false
		}
		s := fmt.Sprint(value)
		if values == nil {
			return key, s, true
		}
		out, ok := values[s]
		return key, out, ok
	})
	evt, priority := b.event(conversion.EventAttribute), b.priority
	return func(d *conversion.DowncastDispatcher) {
		d.On(evt, handler, priority)
	}, nil
}

// ToUIElement converts marker into pair of empty UI elements at marker
// boundaries. Elements carry marker name in data-name attribute so upcast
// can restore the marker.
func (b *Downcast) ToUIElement(v View) (DowncastRegistration, error) {
	if err := b.require(sourceMarker, ErrNotMarker); err != nil {
		return nil, err
	}
	if !v.defined() {
		return nil, fmt.Errorf("marker %q: %w", b.name, ErrNoView)
	}
	create := func(data *conversion.DowncastData, _ *conversion.DowncastAPI, _ bool) *view.Element {
		if v.Create != nil {
			return v.Create(nil, data)
		}
		attrs := v.attributes()
		attrs[conversion.MarkerNameAttribute] = data.MarkerName
		return view.NewUIElement(v.Name, attrs)
	}
	add, remove := conversion.InsertUIElement(create), conversion.RemoveUIElement(create)
	addEvt, removeEvt, priority := conversion.Event(conversion.EventAddMarker, b.name), conversion.Event(conversion.EventRemoveMarker, b.name), b.priority
	return func(d *conversion.DowncastDispatcher) {
		d.On(addEvt, add, priority)
		d.On(removeEvt, remove, priority)
	}, nil
}

// ToHighlight converts marker into highlight: text is wrapped with spans,
// elements with highlighter handle it themselves, collapsed selection inside
// the marker gets highlighted placeholder.
func (b *Downcast) ToHighlight(d view.HighlightDescriptor) (DowncastRegistration, error) {
	if err := b.require(sourceMarker, ErrNotMarker); err != nil {
		return nil, err
	}
	if len(d.Classes) == 0 && len(d.Attributes) == 0 {
		return nil, fmt.Errorf("highlight %q: %w", b.name, ErrNoView)
	}
	d.Classes = slices.Clone(d.Classes)
	d.Attributes = maps.Clone(d.Attributes)
	return b.ToHighlightFunc(conversion.StaticDescriptor(d))
}

// ToHighlightFunc is ToHighlight with descriptor resolved per event.
func (b *Downcast) ToHighlightFunc(fn conversion.DescriptorFunc) (DowncastRegistration, error) {
	if err := b.require(sourceMarker, ErrNotMarker); err != nil {
		return nil, err
	}
	if fn == nil {
		return nil, fmt.Errorf("highlight %q: %w", b.name, ErrNoView)
	}
	text, element, remove := conversion.HighlightText(fn), conversion.HighlightElement(fn), conversion.RemoveHighlight(fn)
	var (
		addEvt    = conversion.Event(conversion.EventAddMarker, b.name)
		selEvt    = conversion.Event(conversion.EventSelectionMarker, b.name)
		removeEvt = conversion.Event(conversion.EventRemoveMarker, b.name)
		priority  = b.priority
	)
	return func(d *conversion.DowncastDispatcher) {
		d.On(addEvt, text, priority)
		d.On(addEvt, element, priority)
		d.On(selEvt, text, priority)
		d.On(removeEvt, remove, priority)
	}, nil
}

// Upcast builds view to model converters for view elements matching
// pattern.
type Upcast struct {
	pattern  conversion.Pattern
	priority conversion.Priority
	set      bool
}

// FromView starts converter of view elements matching pattern.
func FromView(p conversion.Pattern) *Upcast {
	return &Upcast{pattern: p, priority: conversion.PriorityNormal}
}

// FromViewName starts converter of view elements with name.
func FromViewName(name string) *Upcast {
	return FromView(conversion.Pattern{Name: conversion.Exact(name)})
}

func (b *Upcast) WithPriority(p conversion.Priority) *Upcast {
	b.priority, b.set = p, true
	return b
}

func (b *Upcast) priorityOr(def conversion.Priority) conversion.Priority {
	if b.set {
		return b.priority
	}
	return def
}

// event is specific to element name when pattern names exactly one.
func (b *Upcast) event() conversion.EventName {
	if name := b.pattern.ElementName(); name != "" {
		return conversion.Event(conversion.EventElement, name)
	}
	return conversion.Event(conversion.EventElement)
}

// ToModelElement converts matched view element into model element.
func (b *Upcast) ToModelElement(name string) (UpcastRegistration, error) {
	if name == "" {
		return nil, fmt.Errorf("view pattern to empty model element: %w", ErrNotElement)
	}
	return b.ToModelElementFunc(conversion.ModelElement(name))
}

// ToModelElementFunc converts matched view element with creator.
func (b *Upcast) ToModelElementFunc(create conversion.ModelElementCreator) (UpcastRegistration, error) {
	if create == nil {
		return nil, fmt.Errorf("view pattern to model element: %w", ErrNotElement)
	}
	handler := conversion.ElementToElement(conversion.NewMatcher(b.pattern), create)
	evt, priority := b.event(), b.priorityOr(conversion.PriorityNormal)
	return func(d *conversion.UpcastDispatcher) {
		d.On(evt, handler, priority)
	}, nil
}

// ToModelAttribute converts matched view element into attribute of its
// content, for example <strong> into bold text.
func (b *Upcast) ToModelAttribute(key string, value any) (UpcastRegistration, error) {
	if key == "" {
		return nil, fmt.Errorf("view pattern to empty model attribute: %w", ErrNotAttribute)
	}
	handler := conversion.ElementToAttribute(conversion.NewMatcher(b.pattern), conversion.ModelAttribute(key, value))
	evt, priority := b.event(), b.priorityOr(conversion.PriorityLow)
	return func(d *conversion.UpcastDispatcher) {
		d.On(evt, handler, priority)
	}, nil
}

// ToModelElementAttribute sets model attribute on the element produced for
// matched view element. It runs after element converters so the element
// exists.
func (b *Upcast) ToModelElementAttribute(create conversion.ModelAttributeCreator) (UpcastRegistration, error) {
	if create == nil {
		return nil, fmt.Errorf("view pattern to model element attribute: %w", ErrNotAttribute)
	}
	handler := conversion.AttributeToAttribute(conversion.NewMatcher(b.pattern), create)
	evt, priority := b.event(), b.priorityOr(conversion.PriorityLow)
	return func(d *conversion.UpcastDispatcher) {
		d.On(evt, handler, priority)
	}, nil
}

// ToMarker converts matched view element into marker boundary named by its
// data-name attribute.
func (b *Upcast) ToMarker() (UpcastRegistration, error) {
	handler := conversion.ElementToMarker(conversion.NewMatcher(b.pattern), nil)
	evt, priority := b.event(), b.priorityOr(conversion.PriorityNormal)
	return func(d *conversion.UpcastDispatcher) {
		d.On(evt, handler, priority)
	}, nil
}
