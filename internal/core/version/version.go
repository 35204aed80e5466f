// Package version reports what build is running. Release builds stamp the
// variables with -ldflags "-X flexcode/internal/core/version.version=v1.2.0";
// plain go builds fall back to the VCS data the toolchain embeds
package version

import (
	"runtime/debug"
	"sync"
)

var (
	version = "dev"
	commit  = ""
	date    = ""
)

// BuildInfo identifies the running binary
type BuildInfo struct {
	Service   string `json:"service"`
	Version   string `json:"version"`
	Commit    string `json:"commit,omitempty"`
	Date      string `json:"date,omitempty"`
	GoVersion string `json:"go_version,omitempty"`
	Modified  bool   `json:"modified,omitempty"`
}

var info = sync.OnceValue(func() BuildInfo {
	bi := BuildInfo{Service: "flexcode", Version: version, Commit: commit, Date: date}
	if b, ok := debug.ReadBuildInfo(); ok {
		fill(&bi, b)
	}
	return bi
})

// Info returns the build identity, computed once
func Info() BuildInfo { return info() }

func fill(bi *BuildInfo, b *debug.BuildInfo) {
	bi.GoVersion = b.GoVersion
	for _, s := range b.Settings {
		switch s.Key {
		case "vcs.revision":
			if bi.Commit == "" {
				bi.Commit = s.Value
			}
		case "vcs.time":
			if bi.Date == "" {
				bi.Date = s.Value
			}
		case "vcs.modified":
			bi.Modified = s.Value == "true"
		}
	}
}
