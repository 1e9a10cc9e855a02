//go:build !windows

package config

import (
	"os"
	"strings"

	"golang.org/x/term"
)

const badFileName = "_bad_file_name_"

// CleanFileName makes output file name out of source name: path and path
// list separators are dropped as well as leading dots.
func CleanFileName(in string) string {
	drop := string(os.PathSeparator) + string(os.PathListSeparator)
	out := strings.TrimLeft(strings.Map(func(r rune) rune {
		if strings.ContainsRune(drop, r) {
			return -1
		}
		return r
	}, in), ".")
	if out == "" {
		return badFileName
	}
	return out
}

// EnableColorOutput reports whether stream is a terminal.
func EnableColorOutput(stream *os.File) bool {
	return term.IsTerminal(int(stream.Fd()))
}
