package conversion

import (
	"regexp"
	"slices"

	"edconv/view"
)

// Value matches string. Zero value matches anything.
type Value struct {
	exact string
	set   bool
	re    *regexp.Regexp
	fn    func(string) bool
}

func Exact(s string) Value              { return Value{exact: s, set: true} }
func Regexp(re *regexp.Regexp) Value    { return Value{re: re} }
func Func(fn func(s string) bool) Value { return Value{fn: fn} }

// Match reports whether s is matched.
func (v Value) Match(s string) bool {
	switch {
	case v.fn != nil:
		return v.fn(s)
	case v.re != nil:
		return v.re.MatchString(s)
	case v.set:
		return s == v.exact
	}
	return true
}

func (v Value) IsZero() bool { return !v.set && v.re == nil && v.fn == nil }

// Pattern describes view elements. Every part given has to match: name,
// each attribute, each class value (matching at least one class) and each
// style. Custom function may add its own check and parts.
type Pattern struct {
	Name       Value
	Attributes map[string]Value
	Classes    []Value
	Styles     map[string]Value
	Custom     func(e *view.Element) (ViewParts, bool)
}

// MatchResult lists parts of the element matched by the pattern, these are
// the parts converter consumes.
type MatchResult struct {
	Element *view.Element
	Pattern *Pattern
	Parts   ViewParts
}

func (p *Pattern) match(e *view.Element) (ViewParts, bool) {
	var parts ViewParts
	if !p.Name.IsZero() {
		if !p.Name.Match(e.Name()) {
			return ViewParts{}, false
		}
		parts.Name = true
	}
	for _, key := range sortedPatternKeys(p.Attributes) {
		value, ok := e.Attribute(key)
		if !ok || !p.Attributes[key].Match(value) {
			return ViewParts{}, false
		}
		parts.Attributes = append(parts.Attributes, key)
	}
	for _, cv := range p.Classes {
		found := false
		for _, c := range e.ClassNames() {
			if cv.Match(c) {
				parts.Classes = append(parts.Classes, c)
				found = true
			}
		}
		if !found {
			return ViewParts{}, false
		}
	}
	for _, name := range sortedPatternKeys(p.Styles) {
		value, ok := e.Style(name)
		if !ok || !p.Styles[name].Match(value) {
			return ViewParts{}, false
		}
		parts.Styles = append(parts.Styles, name)
	}
	if p.Custom != nil {
		extra, ok := p.Custom(e)
		if !ok {
			return ViewParts{}, false
		}
		parts.Name = parts.Name || extra.Name
		parts.Attributes = append(parts.Attributes, extra.Attributes...)
		parts.Classes = append(parts.Classes, extra.Classes...)
		parts.Styles = append(parts.Styles, extra.Styles...)
	}
	return parts, true
}

// Matcher holds list of patterns, element matches when any pattern does.
type Matcher struct {
	patterns []Pattern
}

func NewMatcher(patterns ...Pattern) *Matcher {
	return &Matcher{patterns: patterns}
}

func (m *Matcher) Add(patterns ...Pattern) {
	m.patterns = append(m.patterns, patterns...)
}

// Match returns result of the first matching pattern.
func (m *Matcher) Match(e *view.Element) (MatchResult, bool) {
	for i := range m.patterns {
		if parts, ok := m.patterns[i].match(e); ok {
			return MatchResult{Element: e, Pattern: &m.patterns[i], Parts: parts}, true
		}
	}
	return MatchResult{}, false
}

// MatchAll returns results of all matching patterns in order.
func (m *Matcher) MatchAll(e *view.Element) []MatchResult {
	var out []MatchResult
	for i := range m.patterns {
		if parts, ok := m.patterns[i].match(e); ok {
			out = append(out, MatchResult{Element: e, Pattern: &m.patterns[i], Parts: parts})
		}
	}
	return out
}

// ElementName returns name pattern would match exactly, empty when name is
// not fixed.
func (p *Pattern) ElementName() string {
	if p.Name.set && p.Name.re == nil && p.Name.fn == nil {
		return p.Name.exact
	}
	return ""
}

func sortedPatternKeys(m map[string]Value) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
