// Package version carries build metadata injected with -ldflags.
package version

import (
	"fmt"
	"runtime/debug"
)

// Set at build time, e.g.
// -ldflags "-X github.com/sondr3/git-anger-management/pkg/version.Version=v1.0.0".
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// Init fills Version and Commit from the embedded module build info when
// they were not set by the linker, e.g. after "go install".
func Init() {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}

	if Version == "dev" && info.Main.Version != "" && info.Main.Version != "(devel)" {
		Version = info.Main.Version
	}

	if Commit != "none" {
		return
	}

	for _, setting := range info.Settings {
		if setting.Key == "vcs.revision" && setting.Value != "" {
			Commit = setting.Value

			return
		}
	}
}

// String formats the version line printed by the version command.
func String(binary string) string {
	return fmt.Sprintf("%s %s (commit: %s, built: %s)", binary, Version, Commit, Date)
}
