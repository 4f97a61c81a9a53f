// Package version reports the quilt build version.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// These variables are set via ldflags by GoReleaser
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

func init() {
	// Without ldflags, fall back to module info from "go install ...@version".
	if Version != "dev" {
		return
	}
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}
	if info.Main.Version != "" && info.Main.Version != "(devel)" {
		Version = info.Main.Version
	}
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			Commit = setting.Value
			if len(Commit) > 7 {
				Commit = Commit[:7]
			}
		case "vcs.time":
			Date = setting.Value
		}
	}
}

// Info returns formatted version information
func Info() string {
	return fmt.Sprintf("quilt %s (commit: %s, built: %s) %s",
		Version, Commit, Date, runtime.Version())
}

// Short returns just the version string
func Short() string {
	return Version
}
