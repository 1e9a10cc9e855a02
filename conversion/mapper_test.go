package conversion

import (
	"testing"

	"go.uber.org/zap/zaptest"

	"edconv/model"
	"edconv/view"
)

type mapperFixture struct {
	m            *Mapper
	root         *model.Element
	para1, para2 *model.Element
	div, p1, p2  *view.Element
	b            *view.Element
	ba, r        *view.Text
}

// model: <paragraph>foo</paragraph><paragraph>bar</paragraph>
// view:  <div><p>foo</p><p><b>ba</b>r</p></div>
func newMapperFixture(t *testing.T) *mapperFixture {
	t.Helper()
	f := &mapperFixture{m: NewMapper(zaptest.NewLogger(t))}
	f.para1 = model.NewElement("paragraph", nil, model.NewText("foo", nil))
	f.para2 = model.NewElement("paragraph", nil, model.NewText("bar", nil))
	f.root = model.NewElement("$root", nil, f.para1, f.para2)

	f.ba, f.r = view.NewText("ba"), view.NewText("r")
	f.b = view.NewAttributeElement("b", nil, f.ba)
	f.p1 = view.NewContainerElement("p", nil, view.NewText("foo"))
	f.p2 = view.NewContainerElement("p", nil, f.b, f.r)
	f.div = view.NewContainerElement("div", nil, f.p1, f.p2)

	f.m.BindElements(f.root, f.div)
	f.m.BindElements(f.para1, f.p1)
	f.m.BindElements(f.para2, f.p2)
	return f
}

func TestMapper_ToViewPosition(t *testing.T) {
	f := newMapperFixture(t)
	tests := []struct {
		name string
		in   model.Position
		want view.Position
	}{
		{"between paragraphs", model.PositionAt(f.root, 1), view.PositionAt(f.div, 1)},
		{"root end", model.PositionAt(f.root, 2), view.PositionAt(f.div, 2)},
		{"inside attribute element", model.PositionAt(f.para2, 1), view.PositionAt(f.ba, 1)},
		{"after attribute element", model.PositionAt(f.para2, 2), view.PositionAt(f.r, 0)},
		{"paragraph start", model.PositionAt(f.para2, 0), view.PositionAt(f.p2, 0)},
		{"paragraph end", model.PositionAt(f.para2, 3), view.PositionAt(f.r, 1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := f.m.ToViewPosition(tt.in, false)
			if !ok {
				t.Fatal("ToViewPosition() failed")
			}
			if !got.IsEqual(tt.want) {
				t.Errorf("ToViewPosition(%s) = %s, want %s", tt.in, got, tt.want)
			}
		})
	}

	unbound := model.NewElement("paragraph", nil)
	if _, ok := f.m.ToViewPosition(model.PositionAt(unbound, 0), false); ok {
		t.Error("position in unbound element was mapped")
	}
	if _, ok := f.m.ToViewPosition(model.PositionAt(f.para1, 10), false); ok {
		t.Error("offset past view content was mapped")
	}
}

func TestMapper_ToModelPosition(t *testing.T) {
	f := newMapperFixture(t)
	tests := []struct {
		name string
		in   view.Position
		want model.Position
	}{
		{"between paragraphs", view.PositionAt(f.div, 1), model.PositionAt(f.root, 1)},
		{"inside attribute element text", view.PositionAt(f.ba, 1), model.PositionAt(f.para2, 1)},
		{"inside attribute element", view.PositionAt(f.b, 1), model.PositionAt(f.para2, 2)},
		{"trailing text", view.PositionAt(f.r, 1), model.PositionAt(f.para2, 3)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := f.m.ToModelPosition(tt.in)
			if !ok {
				t.Fatal("ToModelPosition() failed")
			}
			if !got.IsEqual(tt.want) {
				t.Errorf("ToModelPosition(%s) = %s, want %s", tt.in, got, tt.want)
			}
		})
	}
}

func TestMapper_ViewToModelLength(t *testing.T) {
	para := model.NewElement("paragraph", nil, model.NewText("xab", nil))
	ab := view.NewText("ab")
	p := view.NewContainerElement("p", nil, view.NewUIElement("img", nil), ab)
	m := NewMapper(zaptest.NewLogger(t))
	m.BindElements(para, p)

	if got, _ := m.ToViewPosition(model.PositionAt(para, 1), false); !got.IsEqual(view.PositionAt(ab, 1)) {
		t.Errorf("UI element takes model offset: %s", got)
	}

	m.RegisterViewToModelLength("img", func(*view.Element) int { return 1 })
	if got, _ := m.ToViewPosition(model.PositionAt(para, 1), false); !got.IsEqual(view.PositionAt(ab, 0)) {
		t.Errorf("ToViewPosition() = %s, want start of text", got)
	}
	if got := m.ModelLength(p.Child(0)); got != 1 {
		t.Errorf("ModelLength() = %d, want 1", got)
	}
	if got := m.ModelLength(p); got != 1 {
		t.Errorf("ModelLength() of bound element = %d, want 1", got)
	}
}

func TestMapper_Hooks(t *testing.T) {
	f := newMapperFixture(t)
	var calls int
	f.m.OnModelToViewPosition(func(m *Mapper, data *PositionMapping) {
		calls++
		if data.ModelPosition.Parent == f.para1 {
			data.ViewPosition = view.PositionAt(f.p1, 0)
		}
	}, PriorityNormal)
	f.m.OnModelToViewPosition(func(m *Mapper, data *PositionMapping) {
		calls++
	}, PriorityLow)

	got, ok := f.m.ToViewPosition(model.PositionAt(f.para1, 2), false)
	if !ok || !got.IsEqual(view.PositionAt(f.p1, 0)) {
		t.Errorf("hook result was not used, got %s", got)
	}
	if calls != 1 {
		t.Errorf("hooks called %d times, want 1", calls)
	}

	calls = 0
	got, _ = f.m.ToViewPosition(model.PositionAt(f.para2, 1), false)
	if !got.IsEqual(view.PositionAt(f.ba, 1)) {
		t.Errorf("default mapping after hooks = %s", got)
	}
	if calls != 2 {
		t.Errorf("hooks called %d times, want 2", calls)
	}

	f.m.OnViewToModelPosition(func(m *Mapper, data *PositionMapping) {
		data.ModelPosition = model.PositionAt(f.root, 0)
	}, PriorityNormal)
	if got, _ := f.m.ToModelPosition(view.PositionAt(f.r, 1)); !got.IsEqual(model.PositionAt(f.root, 0)) {
		t.Errorf("view to model hook result was not used, got %s", got)
	}
}

func TestMapper_Bindings(t *testing.T) {
	f := newMapperFixture(t)
	if got, ok := f.m.ToViewElement(f.para2); !ok || got != f.p2 {
		t.Error("ToViewElement() failed")
	}
	if got, ok := f.m.ToModelElement(f.p1); !ok || got != f.para1 {
		t.Error("ToModelElement() failed")
	}
	if _, ok := f.m.ToModelElement(f.b); ok {
		t.Error("attribute element is bound")
	}

	other := view.NewContainerElement("h1", nil)
	f.m.BindElements(f.para1, other)
	if _, ok := f.m.ToModelElement(f.p1); ok {
		t.Error("old view element is still bound after rebinding")
	}
	if got, _ := f.m.ToViewElement(f.para1); got != other {
		t.Error("model element is not bound to the new view element")
	}

	f.m.UnbindModelElement(f.para1)
	if _, ok := f.m.ToModelElement(other); ok {
		t.Error("UnbindModelElement() left view side bound")
	}

	f.m.UnbindViewElement(f.div)
	if got := f.m.Bindings(); got != 0 {
		t.Errorf("Bindings() after unbinding root = %d, want 0", got)
	}

	f = newMapperFixture(t)
	f.m.ClearBindings()
	if got := f.m.Bindings(); got != 0 {
		t.Errorf("Bindings() after ClearBindings = %d, want 0", got)
	}
}

func TestMapper_ToRanges(t *testing.T) {
	f := newMapperFixture(t)
	r := model.NewRange(model.PositionAt(f.para2, 1), model.PositionAt(f.para2, 3))
	vr, ok := f.m.ToViewRange(r)
	if !ok {
		t.Fatal("ToViewRange() failed")
	}
	if !vr.Start.IsEqual(view.PositionAt(f.ba, 1)) || !vr.End.IsEqual(view.PositionAt(f.r, 1)) {
		t.Errorf("ToViewRange() = %s", vr)
	}
	back, ok := f.m.ToModelRange(vr)
	if !ok || !back.IsEqual(r) {
		t.Errorf("ToModelRange() = %s, want %s", back, r)
	}
}
