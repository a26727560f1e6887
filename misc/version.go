// Package misc keeps build time program identity.
package misc

import (
	"runtime/debug"
)

const appName = "mailc"

// Set with -ldflags "-X mailc/misc.version=... -X mailc/misc.gitHash=..."
var (
	version = ""
	gitHash = ""
)

// GetAppName returns program name used for logs, temporary files and reports.
func GetAppName() string {
	return appName
}

// GetVersion returns program version, module version from build info is used
// when not set at link time.
func GetVersion() string {
	if version != "" {
		return version
	}
	if bi, ok := debug.ReadBuildInfo(); ok && bi.Main.Version != "" {
		return bi.Main.Version
	}
	return "(devel)"
}

// GetGitHash returns commit program was built from.
func GetGitHash() string {
	if gitHash != "" {
		return gitHash
	}
	if bi, ok := debug.ReadBuildInfo(); ok {
		for _, s := range bi.Settings {
			if s.Key == "vcs.revision" {
				return s.Value
			}
		}
	}
	return "unknown"
}
