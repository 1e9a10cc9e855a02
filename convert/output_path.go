package convert

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"edconv/common"
	"edconv/config"
)

// sourceName is base name of the source without extension.
func sourceName(src string) string {
	if src == StdIO {
		return "stdin"
	}
	return strings.TrimSuffix(filepath.Base(src), filepath.Ext(src))
}

// outputPath resolves destination. Empty result means standard output.
// When destination is existing directory output file name is derived from
// source name and format.
func outputPath(src, dst string, format common.OutputFmt, overwrite bool) (string, error) {
	if len(dst) == 0 || dst == StdIO {
		return "", nil
	}

	path := dst
	if fi, err := os.Stat(dst); err == nil && fi.IsDir() {
		path = filepath.Join(dst, config.CleanFileName(sourceName(src))+format.Ext())
	}

	fi, err := os.Stat(path)
	switch {
	case err == nil && fi.IsDir():
		return "", fmt.Errorf("output path is a directory (%s)", path)
	case err == nil && !overwrite:
		return "", fmt.Errorf("output file already exists (%s)", path)
	case err != nil && !os.IsNotExist(err):
		return "", fmt.Errorf("unable to access output path: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("unable to create output directory: %w", err)
	}
	return path, nil
}
