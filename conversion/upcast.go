package conversion

import (
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"edconv/model"
	"edconv/schema"
	"edconv/view"
)

// UpcastData is what an upcast event is about. Context lists names of model
// elements the output is going to be inserted into, root first. Handlers
// put converted nodes into Output.
type UpcastData struct {
	ViewItem view.Node
	Context  []string
	Output   []model.Node
}

// UpcastAPI is conversion toolbox passed to upcast handlers.
type UpcastAPI struct {
	Consumable *ViewConsumable
	Schema     schema.Checker
	PassID     string
	Log        *zap.Logger

	d *UpcastDispatcher
}

// ConvertItem converts view node with the dispatcher handlers.
func (api *UpcastAPI) ConvertItem(n view.Node, context []string) ([]model.Node, error) {
	return api.d.convertItem(n, context, api)
}

// ConvertChildren converts all children of view element.
func (api *UpcastAPI) ConvertChildren(e *view.Element, context []string) ([]model.Node, error) {
	var out []model.Node
	for _, child := range e.Children() {
		nodes, err := api.ConvertItem(child, context)
		if err != nil {
			return nil, err
		}
		out = append(out, nodes...)
	}
	return out, nil
}

// UpcastHandler processes upcast event. Returned error aborts the pass.
type UpcastHandler func(evt *EventInfo, data *UpcastData, api *UpcastAPI) error

// UpcastDispatcher converts view trees into model fragments by firing
// element, text and documentFragment events for view nodes.
type UpcastDispatcher struct {
	log    *zap.Logger
	schema schema.Checker
	em     emitter[*UpcastData, *UpcastAPI]
}

// NewUpcastDispatcher creates dispatcher without handlers. Nil checker
// allows everything.
func NewUpcastDispatcher(checker schema.Checker, log *zap.Logger) *UpcastDispatcher {
	if log == nil {
		log = zap.NewNop()
	}
	if checker == nil {
		checker = schema.CheckerFunc(func(schema.Query) bool { return true })
	}
	return &UpcastDispatcher{log: log.Named("upcast"), schema: checker}
}

// On registers handler, returned function unregisters it.
func (d *UpcastDispatcher) On(name EventName, h UpcastHandler, priority Priority) func() {
	return d.em.on(name, h, priority)
}

// Convert converts view node in given model context. Result is model
// fragment with $marker elements turned into marker ranges over it.
func (d *UpcastDispatcher) Convert(n view.Node, context []string) (*model.Element, map[string]model.Range, error) {
	id := uuid.NewString()
	api := &UpcastAPI{
		Consumable: ViewConsumableFrom(n),
		Schema:     d.schema,
		PassID:     id,
		Log:        d.log.With(zap.String("pass", id)),
		d:          d,
	}
	out, err := api.ConvertItem(n, context)
	if err != nil {
		return nil, nil, err
	}
	frag := model.NewFragment()
	if err := frag.AppendChildren(out...); err != nil {
		return nil, nil, fmt.Errorf("unable to collect upcast result: %w", err)
	}
	markers, err := ExtractMarkers(frag)
	if err != nil {
		return nil, nil, err
	}
	return frag, markers, nil
}

func (d *UpcastDispatcher) convertItem(n view.Node, context []string, api *UpcastAPI) ([]model.Node, error) {
	var name EventName
	switch v := n.(type) {
	case *view.Text:
		name = Event(EventText)
	case *view.Element:
		if v.IsFragment() {
			name = Event(EventFragment)
		} else {
			name = Event(EventElement, v.Name())
		}
	default:
		return nil, fmt.Errorf("unable to upcast %T", n)
	}
	data := &UpcastData{ViewItem: n, Context: context}
	evt, err := d.em.fire(name, data, api)
	if err != nil {
		return nil, err
	}
	if evt.Stopped() {
		api.Log.Debug("Event stopped", zap.Stringer("event", name))
	}
	return data.Output, nil
}
