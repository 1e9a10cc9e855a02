package state

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"edconv/schema"
)

func newLocalEnv() *LocalEnv {
	return &LocalEnv{start: time.Now()}
}

// PrepareConversion builds schema and converters from conversion
// definitions of loaded configuration. Repeated calls are no-op.
func (e *LocalEnv) PrepareConversion() error {
	if e.Converters != nil {
		return nil
	}
	if e.Cfg == nil {
		return errors.New("configuration is not loaded")
	}
	log := e.Log
	if log == nil {
		log = zap.NewNop()
	}

	defs := &e.Cfg.Conversion.Definitions
	s := schema.New(log)
	if err := defs.ApplySchema(s); err != nil {
		return fmt.Errorf("unable to prepare schema: %w", err)
	}
	convs, err := defs.Build()
	if err != nil {
		return fmt.Errorf("unable to prepare converters: %w", err)
	}
	e.Schema, e.Converters = s, convs

	log.Debug("Conversion prepared",
		zap.Int("elements", len(defs.Elements)),
		zap.Int("attributes", len(defs.Attributes)),
		zap.Int("markers", len(defs.Markers)),
		zap.Int("highlights", len(defs.Highlights)))
	return nil
}
