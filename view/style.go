package view

import (
	"sort"
	"strings"

	"github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
)

// ParseStyle parses inline style attribute value ("color: red; font-weight:
// bold") into property map. Property names are lower cased, parsing stops
// at the first malformed declaration.
func ParseStyle(style string) map[string]string {
	props := make(map[string]string)
	parser := css.NewParser(parse.NewInputString(style), true)
	for {
		gt, _, data := parser.Next()
		switch gt {
		case css.ErrorGrammar:
			return props
		case css.DeclarationGrammar, css.CustomPropertyGrammar:
			name := strings.ToLower(string(data))
			if value := rawValue(parser.Values()); value != "" {
				props[name] = value
			}
		}
	}
}

// rawValue joins declaration tokens collapsing whitespace.
func rawValue(tokens []css.Token) string {
	var parts []string
	for _, t := range tokens {
		if t.TokenType != css.WhitespaceToken {
			parts = append(parts, string(t.Data))
		} else if len(parts) > 0 {
			parts = append(parts, " ")
		}
	}
	return strings.TrimSpace(strings.Join(parts, ""))
}

// FormatStyle is the inverse of ParseStyle with properties sorted by name.
func FormatStyle(props map[string]string) string {
	names := make([]string, 0, len(props))
	for n := range props {
		names = append(names, n)
	}
	sort.Strings(names)
	var b strings.Builder
	for _, n := range names {
		b.WriteString(n)
		b.WriteByte(':')
		b.WriteString(props[n])
		b.WriteByte(';')
	}
	return b.String()
}

// ParseClasses splits class attribute value.
func ParseClasses(value string) []string {
	return strings.Fields(value)
}
