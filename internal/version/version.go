// Package version reports the bobil build version.
package version

import (
	"fmt"
	"runtime/debug"
	"time"
)

// These variables can be set at build time via ldflags:
//
//	go build -ldflags="-X github.com/muurk/bobil/internal/version.Version=v1.2.3 \
//	                   -X github.com/muurk/bobil/internal/version.Commit=abc123"
//
// Otherwise they come from the module and VCS build info, or fall back to
// "dev" with a timestamp.
var (
	// Version is the semantic version of the application
	Version = ""
	// Commit is the git commit hash
	Commit = ""
)

func init() {
	if Version == "" || Commit == "" {
		if info, ok := debug.ReadBuildInfo(); ok {
			populateFromBuildInfo(info)
		}
	}

	if Version == "" {
		Version = fmt.Sprintf("dev-%s", time.Now().Format("20060102-150405"))
	}
	if Commit == "" {
		Commit = "unknown"
	}
}

// populateFromBuildInfo fills Version and Commit from build info. A module
// version (set by `go install module@version`) wins over VCS data.
func populateFromBuildInfo(info *debug.BuildInfo) {
	var vcsRevision, vcsModified, vcsTime string
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			vcsRevision = setting.Value
		case "vcs.modified":
			vcsModified = setting.Value
		case "vcs.time":
			vcsTime = setting.Value
		}
	}

	if Commit == "" && vcsRevision != "" {
		Commit = vcsRevision
		if len(Commit) > 7 {
			Commit = Commit[:7]
		}
		if vcsModified == "true" {
			Commit += "-dirty"
		}
	}

	if Version != "" {
		return
	}
	if v := info.Main.Version; v != "" && v != "(devel)" {
		Version = v
		return
	}
	if t, err := time.Parse(time.RFC3339, vcsTime); err == nil {
		Version = fmt.Sprintf("dev-%s", t.Format("20060102"))
	}
}

// Full returns the full version string including commit
func Full() string {
	return fmt.Sprintf("%s (commit: %s)", Version, Commit)
}

// UserAgent is sent with every request to the heater
func UserAgent() string {
	return "bobil/" + Version
}
