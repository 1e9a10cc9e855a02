package conversion

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"go.uber.org/zap/zaptest"

	"edconv/model"
	"edconv/view"
)

type downcastHarness struct {
	doc   *model.Document
	root  *model.Element
	vdoc  *view.Document
	vroot *view.Element
	d     *DowncastDispatcher
}

// newDowncastHarness wires model document changes into dispatcher with
// paragraph, text and remove converters registered.
func newDowncastHarness(t *testing.T) *downcastHarness {
	t.Helper()
	log := zaptest.NewLogger(t)
	h := &downcastHarness{doc: model.NewDocument(log), vdoc: view.NewDocument()}
	var err error
	if h.root, err = h.doc.CreateRoot("main"); err != nil {
		t.Fatalf("CreateRoot() error = %v", err)
	}
	if h.vroot, err = h.vdoc.CreateRoot("main", "div"); err != nil {
		t.Fatalf("CreateRoot() error = %v", err)
	}
	mapper := NewMapper(log)
	mapper.BindElements(h.root, h.vroot)
	h.d = NewDowncastDispatcher(mapper, view.NewWriter(h.vdoc), nil, log)

	h.d.On(Event(EventInsert, "paragraph"), InsertElement(func(*DowncastData, *DowncastAPI) *view.Element {
		return view.NewContainerElement("p", nil)
	}), PriorityNormal)
	h.d.On(Event(EventInsert, model.TextName), InsertText(), PriorityNormal)
	h.d.On(Event(EventRemove), Remove(), PriorityNormal)

	h.doc.OnChange(func(doc *model.Document, ch *model.Change) error {
		return h.d.ConvertChange(doc, ch)
	})
	return h
}

func (h *downcastHarness) change(t *testing.T, fn func(w *model.Writer) error) {
	t.Helper()
	if err := h.doc.Change(fn); err != nil {
		t.Fatalf("Change() error = %v", err)
	}
}

func (h *downcastHarness) paragraph(t *testing.T, texts ...*model.Text) *model.Element {
	t.Helper()
	var children []model.Node
	for _, txt := range texts {
		children = append(children, txt)
	}
	p := model.NewElement("paragraph", nil, children...)
	h.change(t, func(w *model.Writer) error {
		return w.Insert(model.PositionAt(h.root, h.root.MaxOffset()), p)
	})
	return p
}

func (h *downcastHarness) view() string {
	return view.Stringify(h.vroot, h.vdoc.Selection().Ranges(), view.StringifyOptions{})
}

func (h *downcastHarness) expect(t *testing.T, want string) {
	t.Helper()
	if got := h.view(); got != want {
		t.Errorf("view = %s, want %s", got, want)
	}
}

func boldWrapper(value any, _ *DowncastData, _ *DowncastAPI) *view.Element {
	if value == nil {
		return nil
	}
	return view.NewAttributeElement("strong", nil)
}

func searchMarker(_ *DowncastData, _ *DowncastAPI, _ bool) *view.Element {
	return view.NewUIElement("marker-search", nil)
}

func TestDowncast_InsertAndRemove(t *testing.T) {
	h := newDowncastHarness(t)
	p := h.paragraph(t, model.NewText("foobar", nil))
	h.expect(t, `<p>foobar</p>`)
	if _, ok := h.d.Mapper().ToViewElement(p); !ok {
		t.Error("paragraph is not bound")
	}

	h.change(t, func(w *model.Writer) error {
		return w.InsertText(model.PositionAt(p, 3), "xx", nil)
	})
	h.expect(t, `<p>fooxxbar</p>`)

	h.change(t, func(w *model.Writer) error {
		return w.Remove(model.NewRange(model.PositionAt(p, 1), model.PositionAt(p, 6)))
	})
	h.expect(t, `<p>far</p>`)

	h.change(t, func(w *model.Writer) error { return w.RemoveNode(p) })
	h.expect(t, ``)
	if got := h.d.Mapper().Bindings(); got != 1 {
		t.Errorf("Bindings() = %d, want only root bound", got)
	}
}

func TestDowncast_AttributeWrap(t *testing.T) {
	h := newDowncastHarness(t)
	h.d.On(Event(EventAttribute, "bold"), Wrap(boldWrapper), PriorityNormal)
	p := h.paragraph(t, model.NewText("foobar", nil))

	r := model.NewRange(model.PositionAt(p, 1), model.PositionAt(p, 4))
	h.change(t, func(w *model.Writer) error { return w.SetAttribute(r, "bold", true) })
	h.expect(t, `<p>f<strong>oob</strong>ar</p>`)

	h.change(t, func(w *model.Writer) error { return w.RemoveAttribute(r, "bold") })
	h.expect(t, `<p>foobar</p>`)

	h.change(t, func(w *model.Writer) error {
		return w.InsertText(model.PositionAt(p, 6), "baz", model.Attributes{"bold": true})
	})
	h.expect(t, `<p>foobar<strong>baz</strong></p>`)
}

func TestDowncast_DifferentValuesStaySeparate(t *testing.T) {
	h := newDowncastHarness(t)
	h.d.On(Event(EventAttribute, "a"), Wrap(func(value any, _ *DowncastData, _ *DowncastAPI) *view.Element {
		if value == nil {
			return nil
		}
		return view.NewAttributeElement("span", map[string]string{"data-a": fmt.Sprint(value)})
	}), PriorityNormal)

	h.paragraph(t, model.NewText("ab", model.Attributes{"a": 1}), model.NewText("cd", model.Attributes{"a": 2}))
	h.expect(t, `<p><span data-a="1">ab</span><span data-a="2">cd</span></p>`)
}

func TestDowncast_ElementAttribute(t *testing.T) {
	h := newDowncastHarness(t)
	h.d.On(Event(EventAttribute, "align"), ChangeAttribute(func(value any, _ *DowncastData, _ *DowncastAPI) (string, string, bool) {
		if value == nil {
			return "", "", false
		}
		return "style", "text-align:" + fmt.Sprint(value), true
	}), PriorityNormal)
	h.d.On(Event(EventAttribute, "lang"), ChangeAttribute(nil), PriorityNormal)

	p := h.paragraph(t, model.NewText("foo", nil))
	h.change(t, func(w *model.Writer) error { return w.SetElementAttribute(p, "align", "right") })
	h.expect(t, `<p style="text-align:right;">foo</p>`)
	h.change(t, func(w *model.Writer) error { return w.SetElementAttribute(p, "align", nil) })
	h.expect(t, `<p>foo</p>`)

	h.change(t, func(w *model.Writer) error { return w.SetElementAttribute(p, "lang", "en") })
	h.expect(t, `<p lang="en">foo</p>`)
	h.change(t, func(w *model.Writer) error { return w.SetElementAttribute(p, "lang", "de") })
	h.expect(t, `<p lang="de">foo</p>`)
}

func TestDowncast_StopAndConsume(t *testing.T) {
	t.Run("stop", func(t *testing.T) {
		h := newDowncastHarness(t)
		h.d.On(Event(EventInsert, model.TextName), func(evt *EventInfo, _ *DowncastData, _ *DowncastAPI) error {
			evt.Stop()
			return nil
		}, PriorityHigh)
		h.paragraph(t, model.NewText("foo", nil))
		h.expect(t, `<p></p>`)
	})

	t.Run("consumed by earlier handler", func(t *testing.T) {
		h := newDowncastHarness(t)
		h.d.On(Event(EventInsert, model.TextName), func(evt *EventInfo, data *DowncastData, api *DowncastAPI) error {
			tp, ok := data.Item.(model.TextProxy)
			if !ok || !api.Consumable.Consume(data.Item, data.ConsumableName) {
				return nil
			}
			p, ok := api.Mapper.ToViewPosition(data.Range.Start, false)
			if !ok {
				return nil
			}
			_, err := api.Writer.Insert(p, view.NewText(strings.ToUpper(tp.Data())))
			return err
		}, PriorityHigh)
		h.paragraph(t, model.NewText("foo", nil))
		h.expect(t, `<p>FOO</p>`)
	})

	t.Run("error aborts change", func(t *testing.T) {
		h := newDowncastHarness(t)
		boom := errors.New("boom")
		h.d.On(Event(EventInsert, "paragraph"), func(*EventInfo, *DowncastData, *DowncastAPI) error {
			return boom
		}, PriorityHighest)
		err := h.doc.Change(func(w *model.Writer) error {
			return w.Insert(model.PositionAt(h.root, 0), model.NewElement("paragraph", nil))
		})
		if !errors.Is(err, boom) {
			t.Errorf("Change() error = %v, want %v", err, boom)
		}
	})
}

func TestDowncast_MarkerUIElements(t *testing.T) {
	tests := []struct {
		name       string
		start      int
		end        int
		want       string
		boundaries int
	}{
		{name: "range", start: 1, end: 2, want: `<p>f<marker-search/>o<marker-search/>o</p>`, boundaries: 2},
		{name: "collapsed", start: 1, end: 1, want: `<p>f<marker-search/>oo</p>`, boundaries: 1},
		{name: "whole text", start: 0, end: 3, want: `<p><marker-search/>foo<marker-search/></p>`, boundaries: 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newDowncastHarness(t)
			h.d.On(Event(EventAddMarker, "search"), InsertUIElement(searchMarker), PriorityNormal)
			h.d.On(Event(EventRemoveMarker, "search"), RemoveUIElement(searchMarker), PriorityNormal)
			p := h.paragraph(t, model.NewText("foo", nil))

			h.change(t, func(w *model.Writer) error {
				return w.SetMarker("search", model.NewRange(model.PositionAt(p, tt.start), model.PositionAt(p, tt.end)))
			})
			h.expect(t, tt.want)
			if got := strings.Count(h.view(), "<marker-search/>"); got != tt.boundaries {
				t.Errorf("got %d boundary elements, want %d", got, tt.boundaries)
			}

			h.change(t, func(w *model.Writer) error { return w.RemoveMarker("search") })
			h.expect(t, `<p>foo</p>`)
		})
	}
}

func TestDowncast_MarkerReconvertedAfterInsertInside(t *testing.T) {
	h := newDowncastHarness(t)
	h.d.On(Event(EventAddMarker, "search"), InsertUIElement(searchMarker), PriorityNormal)
	h.d.On(Event(EventRemoveMarker, "search"), RemoveUIElement(searchMarker), PriorityNormal)
	p := h.paragraph(t, model.NewText("foo", nil))
	h.change(t, func(w *model.Writer) error {
		return w.SetMarker("search", model.NewRange(model.PositionAt(p, 1), model.PositionAt(p, 3)))
	})
	h.expect(t, `<p>f<marker-search/>oo<marker-search/></p>`)

	h.change(t, func(w *model.Writer) error {
		return w.InsertText(model.PositionAt(p, 2), "x", nil)
	})
	h.expect(t, `<p>f<marker-search/>oxo<marker-search/></p>`)
}

func TestDowncast_HighlightText(t *testing.T) {
	tests := []struct {
		name       string
		ids        [2]string
		priorities [2]int
		want       string
		after      string
	}{
		{
			name:  "marker names as identity",
			want:  `<p><span class="one">ab</span><span class="two">cd</span>ef</p>`,
			after: `<p>ab<span class="two">cd</span>ef</p>`,
		},
		{
			name: "shared identity merges",
			ids:  [2]string{"h", "h"},
			want: `<p><span class="one">abcd</span>ef</p>`,
		},
		{
			name:       "shared identity merges across priorities",
			ids:        [2]string{"h", "h"},
			priorities: [2]int{5, 20},
			want:       `<p><span class="one">abcd</span>ef</p>`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newDowncastHarness(t)
			for i, name := range []string{"one", "two"} {
				desc := StaticDescriptor(view.HighlightDescriptor{ID: tt.ids[i], Priority: tt.priorities[i], Classes: []string{name}})
				h.d.On(Event(EventAddMarker, name), HighlightText(desc), PriorityNormal)
				h.d.On(Event(EventRemoveMarker, name), RemoveHighlight(desc), PriorityNormal)
			}
			p := h.paragraph(t, model.NewText("abcdef", nil))
			h.change(t, func(w *model.Writer) error {
				if err := w.SetMarker("one", model.NewRange(model.PositionAt(p, 0), model.PositionAt(p, 2))); err != nil {
					return err
				}
				return w.SetMarker("two", model.NewRange(model.PositionAt(p, 2), model.PositionAt(p, 4)))
			})
			h.expect(t, tt.want)

			if tt.after == "" {
				return
			}
			h.change(t, func(w *model.Writer) error { return w.RemoveMarker("one") })
			h.expect(t, tt.after)
		})
	}
}

func TestDowncast_HighlightElement(t *testing.T) {
	h := newDowncastHarness(t)
	highlighter := view.NewClassHighlighter()
	h.d.On(Event(EventInsert, "widget"), InsertElement(func(*DowncastData, *DowncastAPI) *view.Element {
		return view.NewContainerElement("figure", nil).WithHighlighter(highlighter)
	}), PriorityNormal)
	desc := StaticDescriptor(view.HighlightDescriptor{Classes: []string{"selected"}})
	h.d.On(Event(EventAddMarker, "comment"), HighlightElement(desc), PriorityHigh)
	h.d.On(Event(EventAddMarker, "comment"), HighlightText(desc), PriorityNormal)
	h.d.On(Event(EventRemoveMarker, "comment"), RemoveHighlight(desc), PriorityNormal)

	var widget *model.Element
	h.change(t, func(w *model.Writer) error {
		widget = model.NewElement("widget", nil, model.NewText("cap", nil))
		return w.Insert(model.PositionAt(h.root, 0), widget)
	})
	h.expect(t, `<figure>cap</figure>`)

	h.change(t, func(w *model.Writer) error {
		return w.SetMarker("comment:1", model.RangeOn(widget))
	})
	h.expect(t, `<figure class="selected">cap</figure>`)

	h.change(t, func(w *model.Writer) error { return w.RemoveMarker("comment:1") })
	h.expect(t, `<figure>cap</figure>`)
}

func TestDowncast_Selection(t *testing.T) {
	h := newDowncastHarness(t)
	h.d.On(Event(EventSelection), ClearAttributes(), PriorityHigh)
	h.d.On(Event(EventSelection), ConvertRangeSelection(), PriorityLow)
	h.d.On(Event(EventSelection), ConvertCollapsedSelection(), PriorityLow)
	h.d.On(Event(EventSelectionAttribute, "bold"), Wrap(boldWrapper), PriorityNormal)
	h.doc.OnChangesDone(func(doc *model.Document) error {
		return h.d.ConvertSelection(doc.Selection(), doc.Markers())
	})
	p := h.paragraph(t, model.NewText("foobar", nil))

	h.change(t, func(w *model.Writer) error {
		return w.SetSelection([]model.Range{model.NewRange(model.PositionAt(p, 1), model.PositionAt(p, 4))}, false)
	})
	h.expect(t, `<p>f{oob}ar</p>`)

	h.change(t, func(w *model.Writer) error {
		if err := w.SetSelectionAt(model.PositionAt(p, 3)); err != nil {
			return err
		}
		return w.SetSelectionAttribute("bold", true)
	})
	h.expect(t, `<p>foo<strong>[]</strong>bar</p>`)

	h.change(t, func(w *model.Writer) error { return w.SetSelectionAt(model.PositionAt(p, 1)) })
	h.expect(t, `<p>f{}oobar</p>`)
}

func TestDowncast_SelectionMarker(t *testing.T) {
	h := newDowncastHarness(t)
	var got []string
	h.d.On(Event(EventSelectionMarker), func(evt *EventInfo, data *DowncastData, api *DowncastAPI) error {
		if api.Consumable.Consume(data.Selection, data.ConsumableName) {
			got = append(got, data.MarkerName)
		}
		return nil
	}, PriorityNormal)
	p := h.paragraph(t, model.NewText("foobar", nil))
	h.change(t, func(w *model.Writer) error {
		if err := w.SetMarker("comment:1", model.NewRange(model.PositionAt(p, 0), model.PositionAt(p, 4))); err != nil {
			return err
		}
		if err := w.SetMarker("comment:2", model.NewRange(model.PositionAt(p, 3), model.PositionAt(p, 6))); err != nil {
			return err
		}
		return w.SetSelectionAt(model.PositionAt(p, 2))
	})

	if err := h.d.ConvertSelection(h.doc.Selection(), h.doc.Markers()); err != nil {
		t.Fatalf("ConvertSelection() error = %v", err)
	}
	if len(got) != 1 || got[0] != "comment:1" {
		t.Errorf("selection markers = %v, want [comment:1]", got)
	}
}

func (h *downcastHarness) withSearchMarker() {
	h.d.On(Event(EventAddMarker, "search"), InsertUIElement(searchMarker), PriorityNormal)
	h.d.On(Event(EventRemoveMarker, "search"), RemoveUIElement(searchMarker), PriorityNormal)
}

func (h *downcastHarness) setSearch(t *testing.T, p *model.Element, start, end int) {
	t.Helper()
	h.change(t, func(w *model.Writer) error {
		return w.SetMarker("search", model.NewRange(model.PositionAt(p, start), model.PositionAt(p, end)))
	})
}

func removeOffsets(start, end int) func(w *model.Writer, p *model.Element) error {
	return func(w *model.Writer, p *model.Element) error {
		return w.Remove(model.NewRange(model.PositionAt(p, start), model.PositionAt(p, end)))
	}
}

func insertX(offset int) func(w *model.Writer, p *model.Element) error {
	return func(w *model.Writer, p *model.Element) error {
		return w.InsertText(model.PositionAt(p, offset), "X", nil)
	}
}

func TestDowncast_MarkerFollowsContentChange(t *testing.T) {
	tests := []struct {
		name   string
		start  int
		end    int
		act    func(w *model.Writer, p *model.Element) error
		want   string
		marker [2]int
		after  string
	}{
		{
			name:   "remove over marker end",
			start:  2,
			end:    4,
			act:    removeOffsets(3, 5),
			want:   `<p>fo<marker-search/>o<marker-search/>r</p>`,
			marker: [2]int{2, 3},
			after:  `<p>foor</p>`,
		},
		{
			name:   "remove over marker start",
			start:  2,
			end:    4,
			act:    removeOffsets(1, 3),
			want:   `<p>f<marker-search/>b<marker-search/>ar</p>`,
			marker: [2]int{1, 2},
			after:  `<p>fbar</p>`,
		},
		{
			name:   "remove whole marker content",
			start:  2,
			end:    4,
			act:    removeOffsets(2, 4),
			want:   `<p>fo<marker-search/>ar</p>`,
			marker: [2]int{2, 2},
			after:  `<p>foar</p>`,
		},
		{
			name:   "insert at marker end",
			start:  2,
			end:    4,
			act:    insertX(4),
			want:   `<p>fo<marker-search/>ob<marker-search/>Xar</p>`,
			marker: [2]int{2, 4},
			after:  `<p>foobXar</p>`,
		},
		{
			name:   "insert at marker start",
			start:  2,
			end:    4,
			act:    insertX(2),
			want:   `<p>foX<marker-search/>ob<marker-search/>ar</p>`,
			marker: [2]int{3, 5},
			after:  `<p>foXobar</p>`,
		},
		{
			name:   "insert at collapsed marker",
			start:  2,
			end:    2,
			act:    insertX(2),
			want:   `<p>foX<marker-search/>obar</p>`,
			marker: [2]int{3, 3},
			after:  `<p>foXobar</p>`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newDowncastHarness(t)
			h.withSearchMarker()
			p := h.paragraph(t, model.NewText("foobar", nil))
			h.setSearch(t, p, tt.start, tt.end)

			h.change(t, func(w *model.Writer) error { return tt.act(w, p) })
			h.expect(t, tt.want)

			m, ok := h.doc.Markers().Get("search")
			if !ok {
				t.Fatal("marker is gone")
			}
			if got := [2]int{m.Range().Start.Offset, m.Range().End.Offset}; got != tt.marker {
				t.Errorf("marker offsets = %v, want %v", got, tt.marker)
			}
			want := 2
			if m.Range().IsCollapsed() {
				want = 1
			}
			if got := strings.Count(h.view(), "<marker-search/>"); got != want {
				t.Errorf("got %d boundary elements, want %d", got, want)
			}

			h.change(t, func(w *model.Writer) error { return w.RemoveMarker("search") })
			h.expect(t, tt.after)
		})
	}
}

func TestDowncast_MarkerOverAttributes(t *testing.T) {
	h := newDowncastHarness(t)
	h.withSearchMarker()
	h.d.On(Event(EventAttribute, "bold"), Wrap(boldWrapper), PriorityNormal)
	p := h.paragraph(t,
		model.NewText("f", nil),
		model.NewText("oob", model.Attributes{"bold": true}),
		model.NewText("ar", nil))
	h.expect(t, `<p>f<strong>oob</strong>ar</p>`)

	h.setSearch(t, p, 2, 5)
	if got := strings.Count(h.view(), "<marker-search/>"); got != 2 {
		t.Errorf("got %d boundary elements, want 2 in %s", got, h.view())
	}

	h.change(t, func(w *model.Writer) error { return w.RemoveMarker("search") })
	h.expect(t, `<p>f<strong>oob</strong>ar</p>`)
}

func TestDowncast_CollapsedSelectionAfterTrailingUI(t *testing.T) {
	tests := []struct {
		name   string
		offset int
		want   string
	}{
		{"end of container", 3, `<p>f<marker-search/>oo<marker-search/>[]</p>`},
		{"inside text", 2, `<p>f<marker-search/>o{}o<marker-search/></p>`},
		{"before marker", 1, `<p>f{}<marker-search/>oo<marker-search/></p>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newDowncastHarness(t)
			h.withSearchMarker()
			h.d.On(Event(EventSelection), ClearAttributes(), PriorityHigh)
			h.d.On(Event(EventSelection), ConvertCollapsedSelection(), PriorityLow)
			h.doc.OnChangesDone(func(doc *model.Document) error {
				return h.d.ConvertSelection(doc.Selection(), doc.Markers())
			})
			p := h.paragraph(t, model.NewText("foo", nil))
			h.setSearch(t, p, 1, 3)

			h.change(t, func(w *model.Writer) error { return w.SetSelectionAt(model.PositionAt(p, tt.offset)) })
			h.expect(t, tt.want)
		})
	}
}

func TestDowncast_SuppressedDefaults(t *testing.T) {
	interceptors := []struct {
		name string
		fn   DowncastHandler
	}{
		{"stop", func(evt *EventInfo, _ *DowncastData, _ *DowncastAPI) error {
			evt.Stop()
			return nil
		}},
		{"consume", func(_ *EventInfo, data *DowncastData, api *DowncastAPI) error {
			api.Consumable.Consume(data.Target(), data.ConsumableName)
			return nil
		}},
	}
	tests := []struct {
		name    string
		event   EventName
		prepare func(t *testing.T, h *downcastHarness, p *model.Element)
		act     func(w *model.Writer, p *model.Element) error
		want    string
	}{
		{
			name:  "attribute",
			event: Event(EventAttribute, "bold"),
			act: func(w *model.Writer, p *model.Element) error {
				return w.SetAttribute(model.NewRange(model.PositionAt(p, 1), model.PositionAt(p, 4)), "bold", true)
			},
			want: `<p>foobar</p>`,
		},
		{
			name:  "addMarker",
			event: Event(EventAddMarker, "search"),
			act: func(w *model.Writer, p *model.Element) error {
				return w.SetMarker("search", model.NewRange(model.PositionAt(p, 1), model.PositionAt(p, 3)))
			},
			want: `<p>foobar</p>`,
		},
		{
			name:  "removeMarker",
			event: Event(EventRemoveMarker, "search"),
			prepare: func(t *testing.T, h *downcastHarness, p *model.Element) {
				h.setSearch(t, p, 1, 3)
			},
			act:  func(w *model.Writer, _ *model.Element) error { return w.RemoveMarker("search") },
			want: `<p>f<marker-search/>oo<marker-search/>bar</p>`,
		},
		{
			name:  "remove",
			event: Event(EventRemove),
			act: func(w *model.Writer, p *model.Element) error {
				return w.Remove(model.NewRange(model.PositionAt(p, 1), model.PositionAt(p, 3)))
			},
			want: `<p>foobar</p>`,
		},
		{
			name:  "selection",
			event: Event(EventSelection),
			act: func(w *model.Writer, p *model.Element) error {
				return w.SetSelection([]model.Range{model.NewRange(model.PositionAt(p, 1), model.PositionAt(p, 4))}, false)
			},
			want: `<p>foobar</p>`,
		},
	}
	for _, tt := range tests {
		for _, ic := range interceptors {
			t.Run(tt.name+"/"+ic.name, func(t *testing.T) {
				h := newDowncastHarness(t)
				h.withSearchMarker()
				h.d.On(Event(EventAttribute, "bold"), Wrap(boldWrapper), PriorityNormal)
				h.d.On(Event(EventSelection), ConvertRangeSelection(), PriorityNormal)
				h.doc.OnChangesDone(func(doc *model.Document) error {
					return h.d.ConvertSelection(doc.Selection(), doc.Markers())
				})
				p := h.paragraph(t, model.NewText("foobar", nil))
				if tt.prepare != nil {
					tt.prepare(t, h, p)
				}

				h.d.On(tt.event, ic.fn, PriorityHigh)
				h.change(t, func(w *model.Writer) error { return tt.act(w, p) })
				h.expect(t, tt.want)
			})
		}
	}
}
