package conversion

import "edconv/view"

// ClearAttributes removes empty attribute elements left around previous
// collapsed view selection and clears the selection. It runs before other
// selection converters.
func ClearAttributes() DowncastHandler {
	return func(evt *EventInfo, data *DowncastData, api *DowncastAPI) error {
		doc := api.Writer.Document()
		if doc == nil {
			return nil
		}
		for _, r := range doc.Selection().Ranges() {
			if r.IsCollapsed() && inDocument(r.End) {
				api.Writer.MergeAttributes(r.Start)
			}
		}
		api.Writer.SetSelection(nil, false)
		api.Writer.SetFakeSelection(false, "")
		return nil
	}
}

func inDocument(p view.Position) bool {
	if p.Parent == nil {
		return false
	}
	root, ok := p.Root().(*view.Element)
	return ok && root.Document() != nil
}

// ConvertRangeSelection renders not collapsed model selection as view
// selection over mapped ranges.
func ConvertRangeSelection() DowncastHandler {
	return func(evt *EventInfo, data *DowncastData, api *DowncastAPI) error {
		sel := data.Selection
		if sel.IsCollapsed() {
			return nil
		}
		if !api.Consumable.Consume(sel, data.ConsumableName) {
			return nil
		}
		var ranges []view.Range
		for _, r := range sel.Ranges() {
			if vr, ok := api.Mapper.ToViewRange(r); ok {
				ranges = append(ranges, vr)
			}
		}
		api.Writer.SetSelection(ranges, sel.IsBackward())
		return nil
	}
}

// ConvertCollapsedSelection renders collapsed model selection. Attribute
// elements are broken at the caret so it lands directly in the container,
// UI elements trailing the container content are skipped.
func ConvertCollapsedSelection() DowncastHandler {
	return func(evt *EventInfo, data *DowncastData, api *DowncastAPI) error {
		sel := data.Selection
		if !sel.IsCollapsed() {
			return nil
		}
		if !api.Consumable.Consume(sel, data.ConsumableName) {
			return nil
		}
		first, _ := sel.FirstPosition()
		p, ok := api.Mapper.ToViewPosition(first, false)
		if !ok {
			return nil
		}
		broken, err := api.Writer.BreakAttributes(p, false)
		if err != nil {
			return err
		}
		api.Writer.SetSelectionAt(skipTrailingUI(broken))
		return nil
	}
}

// skipTrailingUI moves position past UI elements when nothing but UI
// elements follows it in the parent. Position at the end of text is lifted
// after the text first.
func skipTrailingUI(p view.Position) view.Position {
	q := p
	if t, ok := p.ParentText(); ok {
		if !p.IsAtEnd() {
			return p
		}
		q = view.PositionAfter(t)
	}
	e, ok := q.ParentElement()
	if !ok {
		return p
	}
	skipped := false
	for {
		next, ok := q.NodeAfter().(*view.Element)
		if !ok || !next.IsUI() {
			break
		}
		q.Offset++
		skipped = true
	}
	if skipped && q.Offset == e.ChildCount() {
		return q
	}
	return p
}
