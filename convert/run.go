// Package convert implements convert subcommand: view markup is loaded into
// model document through data pipeline and rendered back in requested form.
package convert

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/ianaindex"

	"edconv/common"
	"edconv/state"
)

// StdIO as source or destination means standard input or output.
const StdIO = "-"

// Run is convert subcommand action.
func Run(ctx context.Context, cmd *cli.Command) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Log.Named("convert")

	src := cmd.Args().Get(0)
	if len(src) == 0 {
		return errors.New("no input source has been specified")
	}
	if src != StdIO {
		if src, err = filepath.Abs(src); err != nil {
			return err
		}
	}

	dst := cmd.Args().Get(1)
	if len(dst) != 0 && dst != StdIO {
		if dst, err = filepath.Abs(dst); err != nil {
			return err
		}
	}
	if cmd.Args().Len() > 2 {
		log.Warn("Malformed command line, too many destinations", zap.Strings("ignoring", cmd.Args().Slice()[2:]))
	}

	format, err := common.ParseOutputFmt(cmd.String("to"))
	if err != nil {
		log.Warn("Unknown output format requested, switching to view", zap.Error(err))
		format = common.OutputFmtView
	}

	env.Overwrite = cmd.Bool("overwrite")

	// input markup may come in legacy encoding
	if cp := cmd.String("input-cp"); len(cp) > 0 {
		env.CodePage, err = ianaindex.IANA.Encoding(cp)
		if err != nil || env.CodePage == nil {
			log.Warn("Unknown or unsupported character set specification. Ignoring...", zap.String("charset", cp), zap.Error(err))
			env.CodePage = nil
		} else {
			n, _ := ianaindex.IANA.Name(env.CodePage)
			log.Debug("Decoding input", zap.String("charset", n))
		}
	}

	if err := env.PrepareConversion(); err != nil {
		return err
	}

	log.Info("Processing starting", zap.String("source", src), zap.String("destination", dst), zap.Stringer("format", format))
	defer func(start time.Time) {
		log.Info("Processing completed", zap.Duration("elapsed", time.Since(start)))
	}(time.Now())

	path, err := outputPath(src, dst, format, env.Overwrite)
	if err != nil {
		return err
	}

	markup, err := readSource(src)
	if err != nil {
		return fmt.Errorf("unable to read input: %w", err)
	}
	env.Rpt.StoreData("input/"+sourceName(src), markup)

	out, err := Process(ctx, markup, format, env, log)
	if err != nil {
		return err
	}

	if len(path) == 0 {
		_, err = os.Stdout.Write(out)
		return err
	}
	if err := os.WriteFile(path, out, 0644); err != nil {
		return fmt.Errorf("unable to write output: %w", err)
	}
	env.Rpt.Store("output/"+filepath.Base(path), path)
	log.Info("Output written", zap.String("file", path))
	return nil
}

func readSource(src string) ([]byte, error) {
	if src == StdIO {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(src)
}
