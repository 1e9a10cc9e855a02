// Package debug has helpers producing human readable dumps of model and view
// trees for logs and debug reports.
package debug

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/maruel/natural"
)

// TreeWriter accumulates indented lines. Zero depth is the tree root.
type TreeWriter struct {
	w      *strings.Builder
	indent string
}

func NewTreeWriter() *TreeWriter {
	return &TreeWriter{
		w:      &strings.Builder{},
		indent: "  ",
	}
}

func (tw *TreeWriter) String() string {
	return tw.w.String()
}

func (tw *TreeWriter) pad(depth int) {
	for range depth {
		tw.w.WriteString(tw.indent)
	}
}

func (tw *TreeWriter) Line(depth int, format string, args ...any) {
	tw.pad(depth)
	fmt.Fprintf(tw.w, format, args...)
	tw.w.WriteByte('\n')
}

// TextBlock writes label followed by quoted text value.
func (tw *TreeWriter) TextBlock(depth int, label, value string) {
	tw.pad(depth)
	tw.w.WriteString(label)
	tw.w.WriteString(": ")
	tw.w.WriteString(encodeText(value))
	tw.w.WriteByte('\n')
}

// Node writes a node header: its kind, name and attributes in natural key
// order, so dumps of equal trees are byte-equal.
func (tw *TreeWriter) Node(depth int, kind, name string, attrs map[string]string) {
	tw.pad(depth)
	tw.w.WriteString(kind)
	if name != "" {
		tw.w.WriteByte(' ')
		tw.w.WriteString(name)
	}
	for _, k := range SortedKeys(attrs) {
		tw.w.WriteByte(' ')
		tw.w.WriteString(k)
		tw.w.WriteByte('=')
		tw.w.WriteString(strconv.Quote(attrs[k]))
	}
	tw.w.WriteByte('\n')
}

// SortedKeys returns map keys in natural order ("h2" before "h10").
func SortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Sort(natural.StringSlice(keys))
	return keys
}

func encodeText(raw string) string {
	if raw == "" {
		return raw
	}
	return strconv.Quote(raw)
}
