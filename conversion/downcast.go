package conversion

import (
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"edconv/model"
	"edconv/schema"
	"edconv/view"
)

// DowncastData describes what a downcast event is about. Only fields
// relevant to the event kind are set.
type DowncastData struct {
	// Item is inserted item, item which attribute changed, item inside
	// marker range or removed node.
	Item model.Item
	// Range covers Item, or attribute change range.
	Range model.Range

	// Position and Length of removed content.
	Position model.Position
	Length   int

	AttributeKey string
	OldValue     any
	NewValue     any

	MarkerName  string
	MarkerRange model.Range

	// Selection is set for selection events.
	Selection *model.Selection

	// ConsumableName is the capability handlers of the event consume.
	ConsumableName string
}

// Target returns object event capability is tracked on: the selection, the
// item or, for collapsed and removed markers, the marker range.
func (d *DowncastData) Target() any {
	switch {
	case d.Selection != nil:
		return d.Selection
	case d.Item != nil:
		return d.Item
	}
	return d.MarkerRange
}

// DowncastAPI is conversion toolbox passed to handlers, fresh consumable
// is created for every pass.
type DowncastAPI struct {
	Consumable *Consumable
	Mapper     *Mapper
	Writer     *view.Writer
	Schema     schema.Checker
	PassID     string
	Log        *zap.Logger
}

// DowncastHandler processes downcast event. Returned error aborts the pass.
type DowncastHandler func(evt *EventInfo, data *DowncastData, api *DowncastAPI) error

// DowncastDispatcher converts model changes into view changes by firing
// events for every changed item.
type DowncastDispatcher struct {
	log    *zap.Logger
	mapper *Mapper
	writer *view.Writer
	schema schema.Checker
	em     emitter[*DowncastData, *DowncastAPI]
}

func NewDowncastDispatcher(mapper *Mapper, writer *view.Writer, checker schema.Checker, log *zap.Logger) *DowncastDispatcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &DowncastDispatcher{
		log:    log.Named("downcast"),
		mapper: mapper,
		writer: writer,
		schema: checker,
	}
}

func (d *DowncastDispatcher) Mapper() *Mapper      { return d.mapper }
func (d *DowncastDispatcher) Writer() *view.Writer { return d.writer }

// On registers handler, returned function unregisters it.
func (d *DowncastDispatcher) On(name EventName, h DowncastHandler, priority Priority) func() {
	return d.em.on(name, h, priority)
}

// HasHandlers reports whether any handler would receive event.
func (d *DowncastDispatcher) HasHandlers(name EventName) bool {
	return d.em.has(name)
}

func (d *DowncastDispatcher) newAPI() *DowncastAPI {
	id := uuid.NewString()
	return &DowncastAPI{
		Consumable: NewConsumable(),
		Mapper:     d.mapper,
		Writer:     d.writer,
		Schema:     d.schema,
		PassID:     id,
		Log:        d.log.With(zap.String("pass", id)),
	}
}

func (d *DowncastDispatcher) fire(name EventName, data *DowncastData, api *DowncastAPI) error {
	data.ConsumableName = name.ConsumableName()
	evt, err := d.em.fire(name, data, api)
	if err != nil {
		return err
	}
	if evt.Stopped() {
		api.Log.Debug("Event stopped", zap.Stringer("event", name))
	}
	return nil
}

// ConvertInsert converts inserted range: every item gets insert event and
// then attribute event for each of its attributes.
func (d *DowncastDispatcher) ConvertInsert(r model.Range) error {
	api := d.newAPI()
	items := r.Items()
	for _, it := range items {
		api.Consumable.Add(it, Event(EventInsert).ConsumableName())
		for _, key := range it.AttributeKeys() {
			api.Consumable.Add(it, Event(EventAttribute, key).ConsumableName())
		}
	}
	api.Log.Debug("Converting insert", zap.Stringer("range", r), zap.Int("items", len(items)))

	for _, it := range items {
		data := &DowncastData{Item: it, Range: model.RangeOn(it)}
		if err := d.fire(Event(EventInsert, it.Name()), data, api); err != nil {
			return err
		}
		for _, key := range it.AttributeKeys() {
			value, _ := it.Attribute(key)
			data := &DowncastData{Item: it, Range: model.RangeOn(it), AttributeKey: key, NewValue: value}
			if err := d.fire(Event(EventAttribute, key, it.Name()), data, api); err != nil {
				return err
			}
		}
	}
	return nil
}

// ConvertRemove converts removal of nodes which were at position. Nodes are
// already detached, each of them gets own remove event at the same
// position.
func (d *DowncastDispatcher) ConvertRemove(p model.Position, nodes []model.Node) error {
	api := d.newAPI()
	name := Event(EventRemove).ConsumableName()
	for _, n := range nodes {
		api.Consumable.Add(n, name)
	}
	for _, n := range nodes {
		data := &DowncastData{Item: n, Position: p, Length: n.OffsetSize()}
		if err := d.fire(Event(EventRemove, n.Name()), data, api); err != nil {
			return err
		}
	}
	return nil
}

// ConvertAttribute converts attribute change on items directly inside
// range.
func (d *DowncastDispatcher) ConvertAttribute(r model.Range, key string, oldValue, newValue any) error {
	api := d.newAPI()
	var items []model.Item
	w := r.Walker(model.WalkerOptions{Shallow: true, IgnoreElementEnd: true})
	for v, ok := w.Next(); ok; v, ok = w.Next() {
		items = append(items, v.Item)
		api.Consumable.Add(v.Item, Event(EventAttribute, key).ConsumableName())
	}
	for _, it := range items {
		data := &DowncastData{Item: it, Range: model.RangeOn(it), AttributeKey: key, OldValue: oldValue, NewValue: newValue}
		if err := d.fire(Event(EventAttribute, key, it.Name()), data, api); err != nil {
			return err
		}
	}
	return nil
}

// ConvertMarkerAdd converts new marker. Collapsed marker fires single event
// with capability on its range, otherwise every item inside the range gets
// event unless some handler consumed it already.
func (d *DowncastDispatcher) ConvertMarkerAdd(name string, r model.Range) error {
	if r.Root().Document() == nil {
		return nil
	}
	api := d.newAPI()
	evtName := Event(EventAddMarker, name)
	capability := evtName.ConsumableName()

	if r.IsCollapsed() {
		api.Consumable.Add(r, capability)
		return d.fire(evtName, &DowncastData{MarkerName: name, MarkerRange: r, Range: r}, api)
	}

	items := r.Items()
	for _, it := range items {
		api.Consumable.Add(it, capability)
	}
	for _, it := range items {
		if api.Consumable.Test(it, capability) != Available {
			continue
		}
		data := &DowncastData{Item: it, Range: model.RangeOn(it), MarkerName: name, MarkerRange: r}
		if err := d.fire(evtName, data, api); err != nil {
			return err
		}
	}
	return nil
}

// ConvertMarkerRemove converts removed marker, range is where the marker
// was.
func (d *DowncastDispatcher) ConvertMarkerRemove(name string, r model.Range) error {
	if r.Root().Document() == nil {
		return nil
	}
	return d.convertMarkerRemove(name, r)
}

func (d *DowncastDispatcher) convertMarkerRemove(name string, r model.Range) error {
	api := d.newAPI()
	evtName := Event(EventRemoveMarker, name)
	api.Consumable.Add(r, evtName.ConsumableName())
	return d.fire(evtName, &DowncastData{MarkerName: name, MarkerRange: r, Range: r}, api)
}

// ConvertSelection converts model selection. Selection event is always
// fired, collapsed selection then gets event for every marker it is inside
// and for every selection attribute.
func (d *DowncastDispatcher) ConvertSelection(sel *model.Selection, markers *model.Markers) error {
	first, ok := sel.FirstPosition()
	if !ok {
		return nil
	}
	var inside []*model.Marker
	for _, m := range markers.AtPosition(first) {
		if d.shouldConvertMarker(first, m) {
			inside = append(inside, m)
		}
	}

	api := d.newAPI()
	api.Consumable.Add(sel, Event(EventSelection).ConsumableName())
	for _, m := range inside {
		api.Consumable.Add(sel, Event(EventSelectionMarker, m.Name()).ConsumableName())
	}
	for _, key := range sel.AttributeKeys() {
		api.Consumable.Add(sel, Event(EventSelectionAttribute, key).ConsumableName())
	}

	if err := d.fire(Event(EventSelection), &DowncastData{Selection: sel}, api); err != nil {
		return err
	}
	if !sel.IsCollapsed() {
		return nil
	}

	for _, m := range inside {
		name := Event(EventSelectionMarker, m.Name())
		if api.Consumable.Test(sel, name.ConsumableName()) != Available {
			continue
		}
		if err := d.fire(name, &DowncastData{Selection: sel, MarkerName: m.Name(), MarkerRange: m.Range()}, api); err != nil {
			return err
		}
	}
	r, _ := sel.FirstRange()
	for _, key := range sel.AttributeKeys() {
		name := Event(EventSelectionAttribute, key)
		if api.Consumable.Test(sel, name.ConsumableName()) != Available {
			continue
		}
		value, _ := sel.Attribute(key)
		if err := d.fire(name, &DowncastData{Selection: sel, Range: r, AttributeKey: key, NewValue: value}, api); err != nil {
			return err
		}
	}
	return nil
}

// shouldConvertMarker skips selection markers when the marker covers an
// element around the selection which handles highlights itself.
func (d *DowncastDispatcher) shouldConvertMarker(p model.Position, m *model.Marker) bool {
	ancestors := p.Ancestors()
	for i := len(ancestors) - 1; i > 0; i-- {
		e := ancestors[i]
		if !m.Range().ContainsRange(model.RangeOn(e)) {
			continue
		}
		if ve, ok := d.mapper.ToViewElement(e); ok && ve.Highlighter() != nil {
			return false
		}
	}
	return true
}

// ConvertChange routes change record to the matching conversion. Markers
// touched by insert or remove are converted again: their boundaries are
// removed from the view before it follows the content change and added back
// at the moved range afterwards.
func (d *DowncastDispatcher) ConvertChange(_ *model.Document, ch *model.Change) error {
	switch ch.Type {
	case model.ChangeInsert:
		if err := d.releaseMarkers(ch.Markers); err != nil {
			return err
		}
		if err := d.ConvertInsert(model.RangeFromPositionAndShift(ch.Position, ch.Length)); err != nil {
			return err
		}
		return d.restoreMarkers(ch.Markers)
	case model.ChangeRemove:
		if err := d.releaseMarkers(ch.Markers); err != nil {
			return err
		}
		if err := d.ConvertRemove(ch.Position, ch.Nodes); err != nil {
			return err
		}
		return d.restoreMarkers(ch.Markers)
	case model.ChangeAttribute:
		return d.ConvertAttribute(ch.Range, ch.Key, ch.OldValue, ch.NewValue)
	case model.ChangeAddMarker:
		return d.ConvertMarkerAdd(ch.MarkerName, ch.Range)
	case model.ChangeRemoveMarker:
		return d.ConvertMarkerRemove(ch.MarkerName, ch.Range)
	}
	return fmt.Errorf("unknown change type %s", ch.Type)
}

// releaseMarkers removes view boundaries of moved markers. Old ranges are
// mapped against the view which has not seen the content change yet, their
// parents may already be detached from the model.
func (d *DowncastDispatcher) releaseMarkers(moves []model.MarkerMove) error {
	for _, mv := range moves {
		if !d.HasHandlers(Event(EventAddMarker, mv.Name)) {
			continue
		}
		d.log.Debug("Reconverting marker", zap.String("marker", mv.Name), zap.Stringer("from", mv.Old), zap.Stringer("to", mv.New))
		if err := d.convertMarkerRemove(mv.Name, mv.Old); err != nil {
			return err
		}
	}
	return nil
}

func (d *DowncastDispatcher) restoreMarkers(moves []model.MarkerMove) error {
	for _, mv := range moves {
		if !d.HasHandlers(Event(EventAddMarker, mv.Name)) {
			continue
		}
		if err := d.ConvertMarkerAdd(mv.Name, mv.New); err != nil {
			return err
		}
	}
	return nil
}
