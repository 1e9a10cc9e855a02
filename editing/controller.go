// Package editing ties model document to view document. Controller keeps
// editing view in sync with every model change, Data moves content in and
// out of the model as view markup.
package editing

import (
	"fmt"

	"go.uber.org/zap"

	"edconv/builders"
	"edconv/conversion"
	"edconv/model"
	"edconv/schema"
	"edconv/view"
)

// DefaultViewRoot is view element name of editing roots.
const DefaultViewRoot = "div"

// Controller owns editing view. Every applied model operation is converted
// right away, selection is converted when outermost change block ends.
type Controller struct {
	log *zap.Logger

	model    *model.Document
	view     *view.Document
	mapper   *conversion.Mapper
	downcast *conversion.DowncastDispatcher
}

// NewController creates editing view for document with default text,
// removal and selection converters registered.
func NewController(doc *model.Document, s schema.Checker, log *zap.Logger) *Controller {
	if log == nil {
		log = zap.NewNop()
	}
	c := &Controller{
		log:    log.Named("editing"),
		model:  doc,
		view:   view.NewDocument(),
		mapper: conversion.NewMapper(log),
	}
	c.downcast = conversion.NewDowncastDispatcher(c.mapper, view.NewWriter(c.view), s, log)
	builders.Defaults().Attach(c.downcast, nil)

	doc.OnChange(c.downcast.ConvertChange)
	doc.OnChangesDone(func(doc *model.Document) error {
		return c.downcast.ConvertSelection(doc.Selection(), doc.Markers())
	})
	return c
}

func (c *Controller) Model() *model.Document                   { return c.model }
func (c *Controller) View() *view.Document                     { return c.view }
func (c *Controller) Mapper() *conversion.Mapper               { return c.mapper }
func (c *Controller) Downcast() *conversion.DowncastDispatcher { return c.downcast }

// Attach registers downcast part of converters.
func (c *Controller) Attach(convs ...*builders.Converters) {
	for _, conv := range convs {
		conv.Attach(c.downcast, nil)
	}
}

// BindRoot creates view root for model root with the same name. Empty
// element name uses DefaultViewRoot.
func (c *Controller) BindRoot(name, elementName string) (*view.Element, error) {
	root := c.model.Root(name)
	if root == nil {
		return nil, fmt.Errorf("model root %q does not exist", name)
	}
	if elementName == "" {
		elementName = DefaultViewRoot
	}
	vroot, err := c.view.CreateRoot(name, elementName)
	if err != nil {
		return nil, err
	}
	c.mapper.BindElements(root, vroot)
	c.log.Debug("Root bound", zap.String("root", name), zap.String("element", elementName))
	return vroot, nil
}

// Stringify renders view root with view selection.
func (c *Controller) Stringify(name string, opts view.StringifyOptions) (string, error) {
	vroot := c.view.Root(name)
	if vroot == nil {
		return "", fmt.Errorf("view root %q does not exist", name)
	}
	return view.Stringify(vroot, c.view.Selection().Ranges(), opts), nil
}
