//go:build windows

package config

import (
	"os"
	"strings"

	"golang.org/x/sys/windows"
	"golang.org/x/sys/windows/registry"
	"golang.org/x/term"
)

const (
	badFileName = "_bad_file_name_"

	enableVirtualTerminalProcessing uint32 = 0x4
)

// CleanFileName makes output file name out of source name dropping
// characters Windows does not allow in names.
func CleanFileName(in string) string {
	drop := `<>":/\|?*` + string(os.PathSeparator) + string(os.PathListSeparator)
	out := strings.Map(func(r rune) rune {
		if r == 0 || strings.ContainsRune(drop, r) {
			return -1
		}
		return r
	}, in)
	if out == "" {
		return badFileName
	}
	return out
}

// windows10 reports whether console supports VT100 sequences at all.
func windows10() bool {
	k, err := registry.OpenKey(registry.LOCAL_MACHINE, `SOFTWARE\Microsoft\Windows NT\CurrentVersion`, registry.QUERY_VALUE)
	if err != nil {
		return false
	}
	defer k.Close()

	v, _, err := k.GetIntegerValue("CurrentMajorVersionNumber")
	return err == nil && v >= 10
}

// EnableColorOutput reports whether stream is a terminal able to show colors
// and turns on VT100 processing for it.
func EnableColorOutput(stream *os.File) bool {
	if !windows10() || !term.IsTerminal(int(stream.Fd())) {
		return false
	}
	h := windows.Handle(stream.Fd())

	var mode uint32
	if err := windows.GetConsoleMode(h, &mode); err != nil {
		return false
	}
	return windows.SetConsoleMode(h, mode|enableVirtualTerminalProcessing) == nil
}
