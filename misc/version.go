// Package misc keeps build time information about the program.
package misc

// Set by the linker at build time (-ldflags "-X edconv/misc.version=...").
var (
	version = "dev"
	gitHash = "unknown"
)

const appName = "edconv"

func GetAppName() string {
	return appName
}

func GetVersion() string {
	return version
}

func GetGitHash() string {
	return gitHash
}
