package convert

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"edconv/common"
	"edconv/editing"
	"edconv/model"
	"edconv/state"
	"edconv/view"
)

// Process loads markup into fresh document root through data pipeline and
// renders result in requested format. Environment must have conversion
// prepared.
func Process(ctx context.Context, markup []byte, format common.OutputFmt, env *state.LocalEnv, log *zap.Logger) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if env.Converters == nil {
		return nil, errors.New("conversion is not prepared")
	}
	if log == nil {
		log = zap.NewNop()
	}

	text, err := decode(markup, env)
	if err != nil {
		return nil, fmt.Errorf("unable to decode input: %w", err)
	}

	rootCfg := env.Cfg.Conversion.Root
	doc := model.NewDocument(log)
	root, err := doc.CreateRoot(rootCfg.Name)
	if err != nil {
		return nil, err
	}

	ctrl := editing.NewController(doc, env.Schema, log)
	ctrl.Attach(env.Converters)
	vroot, err := ctrl.BindRoot(rootCfg.Name, rootCfg.Element)
	if err != nil {
		return nil, err
	}

	data := editing.NewData(doc, env.Schema, log)
	data.SetParseOptions(view.ParseOptions{InlineNames: env.Cfg.Conversion.InlineNames})
	data.Attach(env.Converters)

	if err := data.Set(rootCfg.Name, text); err != nil {
		return nil, err
	}
	log.Debug("Data loaded", zap.String("root", rootCfg.Name), zap.Int("nodes", root.ChildCount()), zap.Int("markers", doc.Markers().Len()))

	if env.Rpt != nil {
		env.Rpt.StoreData("model.txt", []byte(model.Dump(root)))
		env.Rpt.StoreData("view.txt", []byte(view.Dump(vroot)))
	}

	var out string
	switch format {
	case common.OutputFmtView:
		out, err = ctrl.Stringify(rootCfg.Name, view.StringifyOptions{})
	case common.OutputFmtData:
		out, err = data.Get(rootCfg.Name, view.StringifyOptions{})
	case common.OutputFmtModel:
		out = model.Stringify(root, nil)
	case common.OutputFmtTree:
		var b strings.Builder
		b.WriteString(model.Dump(root))
		b.WriteString(view.Dump(vroot))
		out = b.String()
	default:
		return nil, fmt.Errorf("unsupported output format %s", format)
	}
	if err != nil {
		return nil, err
	}
	return []byte(out), nil
}

// decode converts input to UTF-8 string. Byte order mark, when present, wins
// over requested code page.
func decode(markup []byte, env *state.LocalEnv) (string, error) {
	fallback := transform.Transformer(unicode.UTF8.NewDecoder())
	if env.CodePage != nil {
		fallback = env.CodePage.NewDecoder()
	}
	out, _, err := transform.Bytes(unicode.BOMOverride(fallback), markup)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
