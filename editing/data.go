package editing

import (
	"fmt"
	"sort"

	"github.com/maruel/natural"
	"go.uber.org/zap"

	"edconv/builders"
	"edconv/conversion"
	"edconv/model"
	"edconv/schema"
	"edconv/view"
)

// Data converts view markup into model content and model content back into
// markup. Output is produced by a separate downcast pass into a throw away
// view so editing view is never touched.
type Data struct {
	log    *zap.Logger
	doc    *model.Document
	schema schema.Checker

	upcast     *conversion.UpcastDispatcher
	converters []*builders.Converters
	parseOpts  view.ParseOptions
}

// NewData creates data pipeline with default upcast converters.
func NewData(doc *model.Document, s schema.Checker, log *zap.Logger) *Data {
	if log == nil {
		log = zap.NewNop()
	}
	d := &Data{
		log:        log.Named("data"),
		doc:        doc,
		schema:     s,
		upcast:     conversion.NewUpcastDispatcher(s, log),
		converters: []*builders.Converters{builders.Defaults()},
	}
	builders.Defaults().Attach(nil, d.upcast)
	return d
}

func (d *Data) Upcast() *conversion.UpcastDispatcher { return d.upcast }

// SetParseOptions changes how input markup is read.
func (d *Data) SetParseOptions(opts view.ParseOptions) { d.parseOpts = opts }

// Attach registers converters for both directions.
func (d *Data) Attach(convs ...*builders.Converters) {
	for _, conv := range convs {
		conv.Attach(nil, d.upcast)
		d.converters = append(d.converters, conv)
	}
}

// Parse converts markup into detached model fragment for root context.
func (d *Data) Parse(markup string) (*model.Element, map[string]model.Range, error) {
	frag, _, err := view.Parse(markup, d.parseOpts)
	if err != nil {
		return nil, nil, err
	}
	return d.upcast.Convert(frag, []string{schema.Root})
}

// Set replaces content of root with converted markup. Markers of the root
// are dropped, markers found in the markup are added to the document.
func (d *Data) Set(rootName, markup string) error {
	root := d.doc.Root(rootName)
	if root == nil {
		return fmt.Errorf("model root %q does not exist", rootName)
	}
	frag, markers, err := d.Parse(markup)
	if err != nil {
		return fmt.Errorf("unable to convert data for root %q: %w", rootName, err)
	}
	nodes, err := frag.Detach()
	if err != nil {
		return err
	}

	return d.doc.Change(func(w *model.Writer) error {
		for _, m := range d.doc.Markers().All() {
			if m.Range().Root() != root {
				continue
			}
			if err := w.RemoveMarker(m.Name()); err != nil {
				return err
			}
		}
		if root.MaxOffset() > 0 {
			if err := w.Remove(model.RangeIn(root)); err != nil {
				return err
			}
		}
		if err := w.Insert(model.PositionAt(root, 0), nodes...); err != nil {
			return err
		}
		names := make([]string, 0, len(markers))
		for name := range markers {
			names = append(names, name)
		}
		sort.Sort(natural.StringSlice(names))
		for _, name := range names {
			r := markers[name]
			if err := w.SetMarker(name, model.NewRange(rebase(r.Start, frag, root), rebase(r.End, frag, root))); err != nil {
				return err
			}
		}
		d.log.Debug("Data set", zap.String("root", rootName), zap.Int("nodes", len(nodes)), zap.Int("markers", len(names)))
		return nil
	})
}

// rebase moves position from fragment top level to root, positions inside
// moved elements stay valid.
func rebase(p model.Position, frag, root *model.Element) model.Position {
	if p.Parent == frag {
		return model.PositionAt(root, p.Offset)
	}
	return p
}

// Get converts root content into markup. Markers of the root are converted
// as well.
func (d *Data) Get(rootName string, opts view.StringifyOptions) (string, error) {
	root := d.doc.Root(rootName)
	if root == nil {
		return "", fmt.Errorf("model root %q does not exist", rootName)
	}
	vdoc := view.NewDocument()
	vroot, err := vdoc.CreateRoot(rootName, DefaultViewRoot)
	if err != nil {
		return "", err
	}
	mapper := conversion.NewMapper(d.log)
	mapper.BindElements(root, vroot)
	down := conversion.NewDowncastDispatcher(mapper, view.NewWriter(vdoc), d.schema, d.log)
	for _, conv := range d.converters {
		conv.Attach(down, nil)
	}

	if err := down.ConvertInsert(model.RangeIn(root)); err != nil {
		return "", fmt.Errorf("unable to convert root %q: %w", rootName, err)
	}
	for _, m := range d.doc.Markers().All() {
		if m.Range().Root() != root {
			continue
		}
		if err := down.ConvertMarkerAdd(m.Name(), m.Range()); err != nil {
			return "", fmt.Errorf("unable to convert marker %q: %w", m.Name(), err)
		}
	}
	return view.Stringify(vroot, nil, opts), nil
}
