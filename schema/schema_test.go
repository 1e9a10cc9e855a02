package schema

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap/zaptest"

	"edconv/model"
)

func newSchema(t *testing.T) *Schema {
	t.Helper()
	s := New(zaptest.NewLogger(t))
	if err := s.Register("paragraph", Definition{Inherit: []string{Block}, AllowAttributes: []string{"alignment"}}); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if err := s.Register("blockQuote", Definition{Inherit: []string{Block}}); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if err := s.Register("image", Definition{AllowIn: []string{Root}, AllowAttributes: []string{"src"}}); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if err := s.AllowAttributes(Text, "bold"); err != nil {
		t.Fatalf("AllowAttributes() error = %v", err)
	}
	return s
}

func TestSchema_Register(t *testing.T) {
	s := newSchema(t)
	if err := s.Register("paragraph", Definition{}); !errors.Is(err, ErrRegistered) {
		t.Errorf("Register() of duplicate error = %v, want %v", err, ErrRegistered)
	}
	if err := s.Extend("table", Definition{}); err == nil {
		t.Error("Extend() of unregistered item succeeded")
	}
	for _, name := range []string{Root, Block, Text, Marker, "image"} {
		if !s.IsRegistered(name) {
			t.Errorf("%s is not registered", name)
		}
	}
	if s.IsRegistered("table") {
		t.Error("table is registered")
	}
}

func TestSchema_Check(t *testing.T) {
	s := newSchema(t)
	tests := []struct {
		name string
		q    Query
		want bool
	}{
		{"block in root", Query{Name: "paragraph", Context: []string{Root}}, true},
		{"block in block", Query{Name: "paragraph", Context: []string{Root, "blockQuote"}}, false},
		{"text in inherited block", Query{Name: Text, Context: []string{Root, "paragraph"}}, true},
		{"text in root", Query{Name: Text, Context: []string{Root}}, false},
		{"allowed attribute", Query{Name: "paragraph", Attributes: []string{"alignment"}, Context: []string{Root}}, true},
		{"not allowed attribute", Query{Name: "blockQuote", Attributes: []string{"alignment"}, Context: []string{Root}}, false},
		{"text attribute", Query{Name: Text, Attributes: []string{"bold"}, Context: []string{Root, "blockQuote"}}, true},
		{"one of attributes not allowed", Query{Name: Text, Attributes: []string{"bold", "italic"}, Context: []string{Root, "paragraph"}}, false},
		{"marker in block", Query{Name: Marker, Attributes: []string{"data-name"}, Context: []string{Root, "paragraph"}}, true},
		{"unregistered", Query{Name: "table", Context: []string{Root}}, false},
		{"empty context", Query{Name: "paragraph"}, false},
		{"own rule", Query{Name: "image", Attributes: []string{"src"}, Context: []string{Root}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.Check(tt.q); got != tt.want {
				t.Errorf("Check(%+v) = %v, want %v", tt.q, got, tt.want)
			}
		})
	}
}

func TestSchema_Extend(t *testing.T) {
	s := newSchema(t)
	q := Query{Name: "paragraph", Context: []string{Root, "blockQuote"}}
	if s.Check(q) {
		t.Fatal("paragraph is allowed in blockQuote before Extend()")
	}
	if err := s.Extend("paragraph", Definition{AllowIn: []string{"blockQuote"}}); err != nil {
		t.Fatalf("Extend() error = %v", err)
	}
	if !s.Check(q) {
		t.Error("paragraph is not allowed in blockQuote after Extend()")
	}
}

func TestCheckerFunc(t *testing.T) {
	var c Checker = CheckerFunc(func(q Query) bool { return q.Name == "x" })
	if !c.Check(Query{Name: "x"}) || c.Check(Query{Name: "y"}) {
		t.Error("CheckerFunc does not delegate")
	}
}

func TestContextOf(t *testing.T) {
	p := model.NewElement("paragraph", nil, model.NewText("foo", nil))
	quote := model.NewElement("blockQuote", nil, p)
	model.NewElement(model.RootName, nil, quote)

	want := []string{model.RootName, "blockQuote", "paragraph"}
	if diff := cmp.Diff(want, ContextOf(model.PositionAt(p, 1))); diff != "" {
		t.Errorf("ContextOf() mismatch (-want +got):\n%s", diff)
	}
}
