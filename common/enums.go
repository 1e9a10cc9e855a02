// Package common keeps enums shared by command line and conversion run.
package common

import (
	"fmt"
	"strings"
)

// OutputFmt selects what convert subcommand produces.
//
//	view  - editing view markup kept in sync by editing controller
//	data  - markup produced by separate data pipeline downcast
//	model - model tree markup
//	tree  - indented model and view dumps
type OutputFmt int

const (
	OutputFmtView OutputFmt = iota
	OutputFmtData
	OutputFmtModel
	OutputFmtTree
)

var outputFmtNames = []string{"view", "data", "model", "tree"}

func OutputFmtNames() []string {
	return append([]string(nil), outputFmtNames...)
}

func (o OutputFmt) IsValid() bool {
	return o >= 0 && int(o) < len(outputFmtNames)
}

func (o OutputFmt) String() string {
	if o.IsValid() {
		return outputFmtNames[o]
	}
	return fmt.Sprintf("OutputFmt(%d)", int(o))
}

func (o OutputFmt) Ext() string {
	switch o {
	case OutputFmtView, OutputFmtData:
		return ".xml"
	case OutputFmtModel:
		return ".model.xml"
	case OutputFmtTree:
		return ".txt"
	default:
		// this should never happen
		panic("unsupported format requested")
	}
}

// ParseOutputFmt converts case insensitive name to OutputFmt.
func ParseOutputFmt(name string) (OutputFmt, error) {
	for i, n := range outputFmtNames {
		if strings.EqualFold(n, name) {
			return OutputFmt(i), nil
		}
	}
	return OutputFmt(0), fmt.Errorf("%s is not a valid OutputFmt, try [%s]", name, strings.Join(outputFmtNames, ", "))
}

func (o OutputFmt) MarshalText() ([]byte, error) {
	if !o.IsValid() {
		return nil, fmt.Errorf("%d is not a valid OutputFmt", int(o))
	}
	return []byte(o.String()), nil
}

func (o *OutputFmt) UnmarshalText(text []byte) error {
	v, err := ParseOutputFmt(string(text))
	if err != nil {
		return err
	}
	*o = v
	return nil
}
