// Package schema answers whether model item may be placed in given context.
// It only holds allow rules, no validation or fixing of existing content is
// done here.
package schema

import (
	"errors"
	"fmt"
	"slices"

	"go.uber.org/zap"

	"edconv/model"
)

// Generic item names other definitions inherit from.
const (
	Root   = model.RootName
	Block  = "$block"
	Text   = model.TextName
	Marker = "$marker"
)

var ErrRegistered = errors.New("item already registered")

// Query describes item about to be inserted. Context lists element names
// from the root down to the intended parent.
type Query struct {
	Name       string
	Attributes []string
	Context    []string
}

// Checker is what conversion needs from schema.
type Checker interface {
	Check(q Query) bool
}

// CheckerFunc adapts function to Checker.
type CheckerFunc func(q Query) bool

func (f CheckerFunc) Check(q Query) bool { return f(q) }

// Definition of model item. Inherit copies rules of other items and makes
// item count as those items when it is a parent.
type Definition struct {
	AllowIn         []string `yaml:"allow_in,omitempty"`
	AllowAttributes []string `yaml:"allow_attributes,omitempty"`
	Inherit         []string `yaml:"inherit,omitempty"`
}

type Schema struct {
	log  *zap.Logger
	defs map[string]*Definition
}

// New creates schema with generic items registered: $root, $block allowed in
// root, $text allowed in blocks and $marker allowed in root and blocks.
func New(log *zap.Logger) *Schema {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Schema{log: log.Named("schema"), defs: make(map[string]*Definition)}
	s.defs[Root] = &Definition{}
	s.defs[Block] = &Definition{AllowIn: []string{Root}}
	s.defs[Text] = &Definition{AllowIn: []string{Block}}
	s.defs[Marker] = &Definition{AllowIn: []string{Root, Block}, AllowAttributes: []string{"data-name"}}
	return s
}

// Register adds item definition.
func (s *Schema) Register(name string, def Definition) error {
	if _, ok := s.defs[name]; ok {
		return fmt.Errorf("%q: %w", name, ErrRegistered)
	}
	s.defs[name] = &def
	return nil
}

// Extend adds rules to already registered item.
func (s *Schema) Extend(name string, def Definition) error {
	d, ok := s.defs[name]
	if !ok {
		return fmt.Errorf("unable to extend %q: item is not registered", name)
	}
	d.AllowIn = append(d.AllowIn, def.AllowIn...)
	d.AllowAttributes = append(d.AllowAttributes, def.AllowAttributes...)
	d.Inherit = append(d.Inherit, def.Inherit...)
	return nil
}

func (s *Schema) IsRegistered(name string) bool {
	_, ok := s.defs[name]
	return ok
}

// AllowAttributes permits attributes on item, "$text" covers all text.
func (s *Schema) AllowAttributes(name string, attrs ...string) error {
	return s.Extend(name, Definition{AllowAttributes: attrs})
}

// Check reports whether queried item is registered, allowed in the last
// context element and allowed to carry all queried attributes.
func (s *Schema) Check(q Query) bool {
	if _, ok := s.defs[q.Name]; !ok {
		s.log.Debug("Unregistered item", zap.String("name", q.Name))
		return false
	}
	if len(q.Context) == 0 {
		return false
	}
	parent := q.Context[len(q.Context)-1]
	allowIn := s.collect(q.Name, func(d *Definition) []string { return d.AllowIn })
	if !slices.ContainsFunc(s.lineage(parent), func(n string) bool { return slices.Contains(allowIn, n) }) {
		return false
	}
	if len(q.Attributes) == 0 {
		return true
	}
	allowed := s.collect(q.Name, func(d *Definition) []string { return d.AllowAttributes })
	for _, a := range q.Attributes {
		if !slices.Contains(allowed, a) {
			return false
		}
	}
	return true
}

// lineage returns name with all names it inherits from.
func (s *Schema) lineage(name string) []string {
	var out []string
	seen := make(map[string]bool)
	var walk func(string)
	walk = func(n string) {
		if seen[n] {
			return
		}
		seen[n] = true
		out = append(out, n)
		if d, ok := s.defs[n]; ok {
			for _, i := range d.Inherit {
				walk(i)
			}
		}
	}
	walk(name)
	return out
}

func (s *Schema) collect(name string, field func(*Definition) []string) []string {
	var out []string
	for _, n := range s.lineage(name) {
		if d, ok := s.defs[n]; ok {
			out = append(out, field(d)...)
		}
	}
	return out
}

// ContextOf lists names of elements containing position, root first.
func ContextOf(p model.Position) []string {
	var out []string
	for _, a := range p.Ancestors() {
		out = append(out, a.Name())
	}
	return out
}
