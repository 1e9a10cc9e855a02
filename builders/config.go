package builders

import (
	"fmt"
	"slices"
	"strings"

	"github.com/gosimple/slug"
	"go.uber.org/multierr"

	"edconv/conversion"
	"edconv/model"
	"edconv/schema"
	"edconv/view"
)

// ElementDefinition converts model element to container view element and
// back.
type ElementDefinition struct {
	Model    string `yaml:"model" validate:"required"`
	View     View   `yaml:"view"`
	Priority string `yaml:"priority,omitempty"`
}

// AttributeDefinition converts model attribute. Without On the attribute
// is a text attribute converted to attribute elements: View for any value
// or Values per value. With On the attribute belongs to model element On
// and becomes view attribute ViewKey (model key when empty), ViewValues
// map model values to view values.
type AttributeDefinition struct {
	Model      string            `yaml:"model" validate:"required"`
	View       View              `yaml:"view,omitempty"`
	Values     map[string]View   `yaml:"values,omitempty"`
	On         string            `yaml:"on,omitempty"`
	ViewKey    string            `yaml:"view_key,omitempty"`
	ViewValues map[string]string `yaml:"view_values,omitempty"`
	Priority   string            `yaml:"priority,omitempty"`
}

// MarkerDefinition converts marker group into boundary UI elements. Empty
// view name defaults to "marker-" followed by slug of the group.
type MarkerDefinition struct {
	Model    string `yaml:"model" validate:"required"`
	View     View   `yaml:"view,omitempty"`
	Priority string `yaml:"priority,omitempty"`
}

// HighlightDefinition converts marker group into highlight.
type HighlightDefinition struct {
	Model      string            `yaml:"model" validate:"required"`
	Classes    []string          `yaml:"classes,omitempty"`
	Attributes map[string]string `yaml:"attributes,omitempty"`
	// ID shared by highlights makes their spans merge, empty uses marker
	// name.
	ID           string `yaml:"id,omitempty"`
	ViewPriority int    `yaml:"view_priority,omitempty"`
	Priority     string `yaml:"priority,omitempty"`
}

// Definitions is the declarative converter set.
type Definitions struct {
	Schema     map[string]schema.Definition `yaml:"schema,omitempty"`
	Elements   []ElementDefinition          `yaml:"elements,omitempty" validate:"dive"`
	Attributes []AttributeDefinition        `yaml:"attributes,omitempty" validate:"dive"`
	Markers    []MarkerDefinition           `yaml:"markers,omitempty" validate:"dive"`
	Highlights []HighlightDefinition        `yaml:"highlights,omitempty" validate:"dive"`
}

// Converters are registrations built from definitions.
type Converters struct {
	Downcast []DowncastRegistration
	Upcast   []UpcastRegistration
}

// Attach registers all converters. Nil dispatchers are skipped.
func (c *Converters) Attach(down *conversion.DowncastDispatcher, up *conversion.UpcastDispatcher) {
	if down != nil {
		for _, r := range c.Downcast {
			r.Attach(down)
		}
	}
	if up != nil {
		for _, r := range c.Upcast {
			r.Attach(up)
		}
	}
}

// DefaultMarkerView names boundary elements of marker group.
func DefaultMarkerView(group string) string {
	return "marker-" + slug.Make(group)
}

// ApplySchema registers schema items from definitions. Already registered
// items are extended.
func (defs *Definitions) ApplySchema(s *schema.Schema) error {
	names := make([]string, 0, len(defs.Schema))
	for name := range defs.Schema {
		names = append(names, name)
	}
	slices.Sort(names)

	var errs error
	for _, name := range names {
		def := defs.Schema[name]
		if s.IsRegistered(name) {
			errs = multierr.Append(errs, s.Extend(name, def))
			continue
		}
		errs = multierr.Append(errs, s.Register(name, def))
	}
	return errs
}

// Build creates converters for every definition. All definitions are
// processed, errors are combined.
func (defs *Definitions) Build() (*Converters, error) {
	c := &Converters{}
	var errs error
	for _, d := range defs.Elements {
		errs = multierr.Append(errs, c.element(d))
	}
	for _, d := range defs.Attributes {
		errs = multierr.Append(errs, c.attribute(d))
	}
	for _, d := range defs.Markers {
		errs = multierr.Append(errs, c.marker(d))
	}
	for _, d := range defs.Highlights {
		errs = multierr.Append(errs, c.highlight(d))
	}
	if errs != nil {
		return nil, errs
	}
	return c, nil
}

func (c *Converters) add(down DowncastRegistration, up UpcastRegistration) {
	if down != nil {
		c.Downcast = append(c.Downcast, down)
	}
	if up != nil {
		c.Upcast = append(c.Upcast, up)
	}
}

func (c *Converters) element(d ElementDefinition) error {
	priority, err := conversion.ParsePriority(d.Priority)
	if err != nil {
		return fmt.Errorf("element %q: %w", d.Model, err)
	}
	down, err := FromModelElement(d.Model).WithPriority(priority).ToElement(d.View)
	if err != nil {
		return err
	}
	up, err := FromView(d.View.pattern()).WithPriority(priority).ToModelElement(d.Model)
	if err != nil {
		return err
	}
	c.add(down, up)
	return nil
}

func (c *Converters) attribute(d AttributeDefinition) error {
	priority, err := conversion.ParsePriority(d.Priority)
	if err != nil {
		return fmt.Errorf("attribute %q: %w", d.Model, err)
	}
	if d.On != "" {
		return c.elementAttribute(d, priority)
	}

	b := FromModelAttribute(d.Model).WithPriority(priority)
	if len(d.Values) == 0 {
		down, err := b.ToAttributeElement(d.View)
		if err != nil {
			return err
		}
		up, err := FromView(d.View.pattern()).ToModelAttribute(d.Model, true)
		if err != nil {
			return err
		}
		c.add(down, up)
		return nil
	}

	down, err := b.ToAttributeElementByValue(d.Values)
	if err != nil {
		return err
	}
	c.add(down, nil)
	for _, value := range sortedKeys(d.Values) {
		v := d.Values[value]
		up, err := FromView(v.pattern()).ToModelAttribute(d.Model, value)
		if err != nil {
			return err
		}
		c.add(nil, up)
	}
	return nil
}

func (c *Converters) elementAttribute(d AttributeDefinition, priority conversion.Priority) error {
	key := d.ViewKey
	if key == "" {
		key = d.Model
	}
	down, err := FromModelAttribute(d.Model).OnElement(d.On).WithPriority(priority).ToAttribute(key, d.ViewValues)
	if err != nil {
		return err
	}
	c.add(down, nil)

	if len(d.ViewValues) == 0 {
		p := conversion.Pattern{Attributes: map[string]conversion.Value{key: {}}}
		up, err := FromView(p).ToModelElementAttribute(func(e *view.Element, _ *conversion.UpcastAPI) (string, any, bool) {
			v, ok := e.Attribute(key)
			return d.Model, v, ok
		})
		if err != nil {
			return err
		}
		c.add(nil, up)
		return nil
	}

	for _, modelValue := range sortedKeys(d.ViewValues) {
		var p conversion.Pattern
		switch viewValue := d.ViewValues[modelValue]; key {
		case "class":
			for _, cls := range strings.Fields(viewValue) {
				p.Classes = append(p.Classes, conversion.Exact(cls))
			}
		case "style":
			p.Styles = make(map[string]conversion.Value)
			for name, v := range view.ParseStyle(viewValue) {
				p.Styles[name] = conversion.Exact(v)
			}
		default:
			p.Attributes = map[string]conversion.Value{key: conversion.Exact(viewValue)}
		}
		up, err := FromView(p).ToModelElementAttribute(conversion.ModelAttribute(d.Model, modelValue))
		if err != nil {
			return err
		}
		c.add(nil, up)
	}
	return nil
}

func (c *Converters) marker(d MarkerDefinition) error {
	priority, err := conversion.ParsePriority(d.Priority)
	if err != nil {
		return fmt.Errorf("marker %q: %w", d.Model, err)
	}
	v := d.View
	if v.Name == "" && v.Create == nil {
		v.Name = DefaultMarkerView(d.Model)
	}
	down, err := FromModelMarker(d.Model).WithPriority(priority).ToUIElement(v)
	if err != nil {
		return err
	}
	up, err := FromViewName(v.Name).ToMarker()
	if err != nil {
		return err
	}
	c.add(down, up)
	return nil
}

func (c *Converters) highlight(d HighlightDefinition) error {
	priority, err := conversion.ParsePriority(d.Priority)
	if err != nil {
		return fmt.Errorf("highlight %q: %w", d.Model, err)
	}
	down, err := FromModelMarker(d.Model).WithPriority(priority).ToHighlight(view.HighlightDescriptor{
		Classes:    d.Classes,
		Attributes: d.Attributes,
		ID:         d.ID,
		Priority:   d.ViewPriority,
	})
	if err != nil {
		return err
	}
	c.add(down, nil)
	return nil
}

// Defaults registers converters every editing setup needs no matter the
// definitions: plain text, removal, selection and the upcast fallbacks.
func Defaults() *Converters {
	return &Converters{
		Downcast: []DowncastRegistration{func(d *conversion.DowncastDispatcher) {
			d.On(conversion.Event(conversion.EventInsert, model.TextName), conversion.InsertText(), conversion.PriorityLowest)
			d.On(conversion.Event(conversion.EventRemove), conversion.Remove(), conversion.PriorityLowest)
			d.On(conversion.Event(conversion.EventSelection), conversion.ClearAttributes(), conversion.PriorityHigh)
			d.On(conversion.Event(conversion.EventSelection), conversion.ConvertRangeSelection(), conversion.PriorityLow)
			d.On(conversion.Event(conversion.EventSelection), conversion.ConvertCollapsedSelection(), conversion.PriorityLow)
		}},
		Upcast: []UpcastRegistration{func(d *conversion.UpcastDispatcher) {
			d.On(conversion.Event(conversion.EventFragment), conversion.ConvertToModelFragment(), conversion.PriorityLowest)
			d.On(conversion.Event(conversion.EventElement), conversion.ConvertToModelFragment(), conversion.PriorityLowest)
			d.On(conversion.Event(conversion.EventText), conversion.ConvertText(), conversion.PriorityLowest)
		}},
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
