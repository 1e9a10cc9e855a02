package editing

import (
	"testing"

	"go.uber.org/zap/zaptest"

	"edconv/builders"
	"edconv/model"
	"edconv/schema"
	"edconv/view"
)

type editor struct {
	doc  *model.Document
	root *model.Element
	ctrl *Controller
	data *Data
}

func newEditor(t *testing.T) *editor {
	t.Helper()
	log := zaptest.NewLogger(t)
	defs := &builders.Definitions{
		Schema: map[string]schema.Definition{
			"paragraph": {Inherit: []string{schema.Block}},
			schema.Text: {AllowAttributes: []string{"bold"}},
		},
		Elements:   []builders.ElementDefinition{{Model: "paragraph", View: builders.ViewName("p")}},
		Attributes: []builders.AttributeDefinition{{Model: "bold", View: builders.ViewName("strong")}},
		Markers:    []builders.MarkerDefinition{{Model: "comment"}},
	}
	s := schema.New(log)
	if err := defs.ApplySchema(s); err != nil {
		t.Fatalf("ApplySchema() error = %v", err)
	}
	converters, err := defs.Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	e := &editor{doc: model.NewDocument(log)}
	if e.root, err = e.doc.CreateRoot("main"); err != nil {
		t.Fatalf("CreateRoot() error = %v", err)
	}
	e.ctrl = NewController(e.doc, s, log)
	e.ctrl.Attach(converters)
	if _, err := e.ctrl.BindRoot("main", ""); err != nil {
		t.Fatalf("BindRoot() error = %v", err)
	}
	e.data = NewData(e.doc, s, log)
	e.data.Attach(converters)
	return e
}

func (e *editor) expectView(t *testing.T, want string) {
	t.Helper()
	got, err := e.ctrl.Stringify("main", view.StringifyOptions{})
	if err != nil {
		t.Fatalf("Stringify() error = %v", err)
	}
	if got != want {
		t.Errorf("editing view = %s, want %s", got, want)
	}
}

func TestController_SetData(t *testing.T) {
	e := newEditor(t)
	if err := e.data.Set("main", `<p>foo<strong>bar</strong></p><p>baz</p>`); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if got, want := model.Stringify(e.root, nil), `<paragraph>foo<$text bold="true">bar</$text></paragraph><paragraph>baz</paragraph>`; got != want {
		t.Errorf("model = %s, want %s", got, want)
	}
	e.expectView(t, `<p>foo<strong>bar</strong></p><p>baz</p>`)

	p := e.root.Child(0).(*model.Element)
	if err := e.doc.Change(func(w *model.Writer) error {
		return w.SetSelection([]model.Range{model.NewRange(model.PositionAt(p, 1), model.PositionAt(p, 2))}, false)
	}); err != nil {
		t.Fatalf("Change() error = %v", err)
	}
	e.expectView(t, `<p>f{o}o<strong>bar</strong></p><p>baz</p>`)
}

func TestData_Markers(t *testing.T) {
	e := newEditor(t)
	markup := `<p>x<marker-comment data-name="comment:1"/>y<marker-comment data-name="comment:1"/></p>`
	if err := e.data.Set("main", markup); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	m, ok := e.doc.Markers().Get("comment:1")
	if !ok {
		t.Fatal("marker was not set")
	}
	p := e.root.Child(0).(*model.Element)
	want := model.NewRange(model.PositionAt(p, 1), model.PositionAt(p, 2))
	if !m.Range().IsEqual(want) {
		t.Errorf("marker range = %s, want %s", m.Range(), want)
	}
	e.expectView(t, markup)

	got, err := e.data.Get("main", view.StringifyOptions{})
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got != markup {
		t.Errorf("Get() = %s, want %s", got, markup)
	}

	if err := e.data.Set("main", `<p>new</p>`); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if got := e.doc.Markers().Len(); got != 0 {
		t.Errorf("%d markers left after Set()", got)
	}
	e.expectView(t, `<p>new</p>`)
}

func TestData_Errors(t *testing.T) {
	e := newEditor(t)
	if err := e.data.Set("main", `<p>`); err == nil {
		t.Error("Set() of broken markup succeeded")
	}
	if err := e.data.Set("other", `<p>x</p>`); err == nil {
		t.Error("Set() of missing root succeeded")
	}
	if _, err := e.data.Get("other", view.StringifyOptions{}); err == nil {
		t.Error("Get() of missing root succeeded")
	}
	if err := e.data.Set("main", `<p><marker-comment/></p>`); err == nil {
		t.Error("Set() of unnamed marker succeeded")
	}
	if _, err := e.ctrl.BindRoot("other", ""); err == nil {
		t.Error("BindRoot() of missing root succeeded")
	}
	if _, err := e.ctrl.BindRoot("main", ""); err == nil {
		t.Error("BindRoot() of bound root succeeded")
	}
	if _, err := e.ctrl.Stringify("other", view.StringifyOptions{}); err == nil {
		t.Error("Stringify() of missing root succeeded")
	}
}
