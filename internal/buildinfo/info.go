// Package buildinfo carries the release stamp of the analyzer binary.
package buildinfo

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

var (
	// Version will be set via ldflags during build.
	Version = "0.3.0"
	// Commit will be set via ldflags during build.
	Commit = ""
	// Date will be set via ldflags during build.
	Date = "unknown"
)

// Info is the resolved stamp. Commit falls back to the VCS revision the Go
// toolchain embeds when ldflags did not set one.
type Info struct {
	Version   string
	Commit    string
	Date      string
	GoVersion string
	Modified  bool
}

// Read resolves the stamp for the running binary.
func Read() Info {
	info := Info{Version: Version, Commit: Commit, Date: Date, GoVersion: runtime.Version()}
	if bi, ok := debug.ReadBuildInfo(); ok {
		for _, s := range bi.Settings {
			switch s.Key {
			case "vcs.revision":
				if info.Commit == "" {
					info.Commit = s.Value
				}
			case "vcs.modified":
				info.Modified = s.Value == "true"
			}
		}
	}
	if info.Commit == "" {
		info.Commit = "none"
	}
	return info
}

// ShortCommit trims a revision to the usual 7 characters.
func (i Info) ShortCommit() string {
	if len(i.Commit) > 7 {
		return i.Commit[:7]
	}
	return i.Commit
}

// String is the one-line form used by --version.
func (i Info) String() string {
	commit := i.ShortCommit()
	if i.Modified {
		commit += "-dirty"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", i.Version, commit, i.Date)
}
