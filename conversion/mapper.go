package conversion

import (
	"slices"

	"go.uber.org/zap"

	"edconv/model"
	"edconv/view"
)

// PositionMapping is passed to mapper position hooks. Model to view hooks
// fill ViewPosition, view to model hooks fill ModelPosition. IsPhantom is
// set when the model position refers to content which was just removed and
// only the view still has it.
type PositionMapping struct {
	ModelPosition model.Position
	ViewPosition  view.Position
	IsPhantom     bool
}

// PositionHook may resolve mapping itself, position left zero lets the
// next hook or the default algorithm run.
type PositionHook func(m *Mapper, data *PositionMapping)

type positionHook struct {
	fn       PositionHook
	priority Priority
}

// ViewLengthFunc returns number of model offsets view element stands for.
type ViewLengthFunc func(e *view.Element) int

type binding struct {
	model *model.Element
	view  *view.Element
}

// Mapper binds model elements to view elements and translates positions
// between the two trees. Bindings are kept by stable node ids in both
// directions and removed explicitly.
type Mapper struct {
	log *zap.Logger

	byModel map[model.NodeID]binding
	byView  map[view.NodeID]binding

	lengths map[string]ViewLengthFunc

	toViewHooks  []positionHook
	toModelHooks []positionHook
}

func NewMapper(log *zap.Logger) *Mapper {
	if log == nil {
		log = zap.NewNop()
	}
	return &Mapper{
		log:     log.Named("mapper"),
		byModel: make(map[model.NodeID]binding),
		byView:  make(map[view.NodeID]binding),
		lengths: make(map[string]ViewLengthFunc),
	}
}

// BindElements binds pair of elements, previous bindings of either side are
// replaced.
func (m *Mapper) BindElements(me *model.Element, ve *view.Element) {
	if old, ok := m.byModel[me.ID()]; ok {
		delete(m.byView, old.view.ID())
	}
	if old, ok := m.byView[ve.ID()]; ok {
		delete(m.byModel, old.model.ID())
	}
	b := binding{model: me, view: ve}
	m.byModel[me.ID()] = b
	m.byView[ve.ID()] = b
}

// UnbindViewElement removes bindings of view element and all its
// descendants.
func (m *Mapper) UnbindViewElement(ve *view.Element) {
	if b, ok := m.byView[ve.ID()]; ok {
		delete(m.byView, ve.ID())
		delete(m.byModel, b.model.ID())
	}
	for _, child := range ve.Children() {
		if e, ok := child.(*view.Element); ok {
			m.UnbindViewElement(e)
		}
	}
}

// UnbindModelElement removes binding of model element.
func (m *Mapper) UnbindModelElement(me *model.Element) {
	if b, ok := m.byModel[me.ID()]; ok {
		delete(m.byModel, me.ID())
		delete(m.byView, b.view.ID())
	}
}

// ClearBindings removes all bindings.
func (m *Mapper) ClearBindings() {
	clear(m.byModel)
	clear(m.byView)
}

// Bindings returns number of bound pairs.
func (m *Mapper) Bindings() int { return len(m.byModel) }

func (m *Mapper) ToViewElement(me *model.Element) (*view.Element, bool) {
	b, ok := m.byModel[me.ID()]
	return b.view, ok
}

func (m *Mapper) ToModelElement(ve *view.Element) (*model.Element, bool) {
	b, ok := m.byView[ve.ID()]
	return b.model, ok
}

// RegisterViewToModelLength sets how many model offsets view elements with
// given name take. By default bound elements take one offset, UI elements
// none and other elements the sum of their children.
func (m *Mapper) RegisterViewToModelLength(viewName string, fn ViewLengthFunc) {
	m.lengths[viewName] = fn
}

func addHook(hooks []positionHook, fn PositionHook, priority Priority) []positionHook {
	hooks = append(hooks, positionHook{fn: fn, priority: priority})
	slices.SortStableFunc(hooks, func(a, b positionHook) int { return int(a.priority) - int(b.priority) })
	return hooks
}

// OnModelToViewPosition adds hook consulted before the default algorithm,
// the first hook setting view position wins.
func (m *Mapper) OnModelToViewPosition(fn PositionHook, priority Priority) {
	m.toViewHooks = addHook(m.toViewHooks, fn, priority)
}

// OnViewToModelPosition adds hook consulted before the default algorithm,
// the first hook setting model position wins.
func (m *Mapper) OnViewToModelPosition(fn PositionHook, priority Priority) {
	m.toModelHooks = addHook(m.toModelHooks, fn, priority)
}

// ToViewPosition translates model position. When the position parent is not
// bound false is returned. Phantom translation relies on view still holding
// the content removed from the model.
func (m *Mapper) ToViewPosition(p model.Position, phantom bool) (view.Position, bool) {
	data := &PositionMapping{ModelPosition: p, IsPhantom: phantom}
	for _, h := range m.toViewHooks {
		h.fn(m, data)
		if !data.ViewPosition.IsZero() {
			return data.ViewPosition, true
		}
	}
	container, ok := m.ToViewElement(p.Parent)
	if !ok {
		m.log.Debug("Unable to map model position", zap.Stringer("position", p), zap.Bool("phantom", phantom))
		return view.Position{}, false
	}
	return m.FindPositionIn(container, p.Offset)
}

// ToViewRange translates both ends of model range.
func (m *Mapper) ToViewRange(r model.Range) (view.Range, bool) {
	start, ok := m.ToViewPosition(r.Start, false)
	if !ok {
		return view.Range{}, false
	}
	end, ok := m.ToViewPosition(r.End, false)
	if !ok {
		return view.Range{}, false
	}
	return view.Range{Start: start, End: end}, true
}

// ToModelPosition translates view position using the closest bound
// ancestor.
func (m *Mapper) ToModelPosition(p view.Position) (model.Position, bool) {
	data := &PositionMapping{ViewPosition: p}
	for _, h := range m.toModelHooks {
		h.fn(m, data)
		if data.ModelPosition.Parent != nil {
			return data.ModelPosition, true
		}
	}
	container, ok := m.FindMappedViewAncestor(p)
	if !ok {
		return model.Position{}, false
	}
	me, _ := m.ToModelElement(container)
	return model.PositionAt(me, m.toModelOffset(p.Parent, p.Offset, container)), true
}

// ToModelRange translates both ends of view range.
func (m *Mapper) ToModelRange(r view.Range) (model.Range, bool) {
	start, ok := m.ToModelPosition(r.Start)
	if !ok {
		return model.Range{}, false
	}
	end, ok := m.ToModelPosition(r.End)
	if !ok {
		return model.Range{}, false
	}
	return model.Range{Start: start, End: end}, true
}

// FindMappedViewAncestor returns the closest bound element holding
// position.
func (m *Mapper) FindMappedViewAncestor(p view.Position) (*view.Element, bool) {
	ancestors := p.Ancestors()
	for i := len(ancestors) - 1; i >= 0; i-- {
		if _, ok := m.byView[ancestors[i].ID()]; ok {
			return ancestors[i], true
		}
	}
	return nil, false
}

func (m *Mapper) toModelOffset(parent view.Node, offset int, container view.Node) int {
	if parent != container {
		return m.toModelOffset(parent.Parent(), parent.Index(), container) + m.toModelOffset(parent, offset, parent)
	}
	if _, ok := parent.(*view.Text); ok {
		return offset
	}
	e := parent.(*view.Element)
	var result int
	for i := 0; i < offset && i < e.ChildCount(); i++ {
		result += m.ModelLength(e.Child(i))
	}
	return result
}

// ModelLength returns number of model offsets view node stands for.
func (m *Mapper) ModelLength(n view.Node) int {
	switch v := n.(type) {
	case *view.Text:
		return v.Len()
	case *view.Element:
		if fn, ok := m.lengths[v.Name()]; ok {
			return fn(v)
		}
		if _, ok := m.byView[v.ID()]; ok {
			return 1
		}
		if v.IsUI() {
			return 0
		}
		var length int
		for _, child := range v.Children() {
			length += m.ModelLength(child)
		}
		return length
	}
	return 0
}

// FindPositionIn finds view position inside parent which is modelOffset
// model offsets from the parent start. Positions next to text are moved
// into the text.
func (m *Mapper) FindPositionIn(parent view.Node, modelOffset int) (view.Position, bool) {
	e, ok := parent.(*view.Element)
	if !ok {
		return view.PositionAt(parent, modelOffset), true
	}
	var (
		child       view.Node
		offset      int
		viewOffset  int
		childLength int
	)
	for offset < modelOffset {
		child = e.Child(viewOffset)
		if child == nil {
			m.log.Debug("Model offset is out of view element", zap.String("element", e.Name()), zap.Int("offset", modelOffset))
			return view.Position{}, false
		}
		childLength = m.ModelLength(child)
		offset += childLength
		viewOffset++
	}
	if offset == modelOffset {
		return moveToTextNode(view.PositionAt(e, viewOffset)), true
	}
	return m.FindPositionIn(child, modelOffset-(offset-childLength))
}

func moveToTextNode(p view.Position) view.Position {
	if t, ok := p.NodeBefore().(*view.Text); ok {
		return view.PositionAt(t, t.Len())
	}
	if t, ok := p.NodeAfter().(*view.Text); ok {
		return view.PositionAt(t, 0)
	}
	return p
}
