package model

import (
	"fmt"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// ChangeListener receives every applied operation. Returned error aborts the
// operation chain and is propagated to the Change caller.
type ChangeListener func(doc *Document, ch *Change) error

// Document holds model roots, markers and selection.
type Document struct {
	roots     map[string]*Element
	rootNames []string
	selection *Selection
	markers   *Markers

	listeners     []ChangeListener
	doneListeners []func(doc *Document) error

	writer  *Writer
	depth   int
	version int

	log *zap.Logger
}

func NewDocument(log *zap.Logger) *Document {
	if log == nil {
		log = zap.NewNop()
	}
	d := &Document{
		roots:     make(map[string]*Element),
		selection: &Selection{},
		markers:   newMarkers(),
		log:       log.Named("model"),
	}
	d.writer = &Writer{doc: d}
	return d
}

// CreateRoot registers new empty root element under name.
func (d *Document) CreateRoot(name string) (*Element, error) {
	if _, ok := d.roots[name]; ok {
		return nil, fmt.Errorf("root %q already exists", name)
	}
	root := NewElement(RootName, nil)
	root.doc = d
	root.rootName = name
	d.roots[name] = root
	d.rootNames = append(d.rootNames, name)
	return root, nil
}

func (d *Document) Root(name string) *Element { return d.roots[name] }

// RootNames returns names in creation order.
func (d *Document) RootNames() []string { return append([]string(nil), d.rootNames...) }

func (d *Document) Selection() *Selection { return d.selection }
func (d *Document) Markers() *Markers     { return d.markers }

// Version is incremented with every applied operation.
func (d *Document) Version() int { return d.version }

// OnChange subscribes listener to applied operations.
func (d *Document) OnChange(l ChangeListener) {
	d.listeners = append(d.listeners, l)
}

// OnChangesDone subscribes fn called when outermost change block ends.
func (d *Document) OnChangesDone(fn func(doc *Document) error) {
	d.doneListeners = append(d.doneListeners, fn)
}

// Change runs fn with document writer. Nested calls share the outer block,
// done listeners are called once when the outermost block ends, even if fn
// failed, so listeners may bring dependent state back in sync.
func (d *Document) Change(fn func(w *Writer) error) (err error) {
	d.depth++
	defer func() {
		d.depth--
		if d.depth > 0 {
			return
		}
		for _, l := range d.doneListeners {
			err = multierr.Append(err, l(d))
		}
	}()
	return fn(d.writer)
}

func (d *Document) notify(ch *Change) error {
	d.version++
	if ce := d.log.Check(zap.DebugLevel, "Change applied"); ce != nil {
		ce.Write(zap.Stringer("change", ch), zap.Int("version", d.version))
	}
	for _, l := range d.listeners {
		if err := l(d, ch); err != nil {
			return fmt.Errorf("%s: %w", ch.Type, err)
		}
	}
	return nil
}

func (d *Document) owns(p Position) bool {
	return p.Parent != nil && p.Root().doc == d
}
