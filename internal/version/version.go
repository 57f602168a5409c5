// Package version identifies a canfix build.
//
// Release builds stamp Version and Commit with ldflags:
//
//	go build -ldflags="-X github.com/muurk/canfix/internal/version.Version=v0.3.0 \
//	                   -X github.com/muurk/canfix/internal/version.Commit=abc1234" ./cmd/canfix
//
// Other builds take the commit from the embedded VCS stamp and report a
// dev version.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"
	"time"
)

// DefaultVersion is reported when neither ldflags nor VCS data name a release
const DefaultVersion = "dev"

var (
	// Version is the release tag of the build
	Version = ""
	// Commit is the short revision the build came from
	Commit = ""
)

// Info describes one build. Gateways publish it in their mDNS TXT records.
type Info struct {
	Version   string
	Commit    string
	Dirty     bool
	BuildTime time.Time
	GoVersion string
}

// Get returns the build information of the running binary
func Get() Info {
	info := Info{Version: Version, Commit: Commit, GoVersion: runtime.Version()}
	if bi, ok := debug.ReadBuildInfo(); ok {
		info = fromSettings(info, bi.Settings)
	}
	if info.Version == "" {
		info.Version = DefaultVersion
		if !info.BuildTime.IsZero() {
			info.Version += "-" + info.BuildTime.UTC().Format("20060102")
		}
	}
	if info.Commit == "" {
		info.Commit = "unknown"
	}
	return info
}

// fromSettings fills the fields ldflags left empty from VCS build settings.
func fromSettings(info Info, settings []debug.BuildSetting) Info {
	for _, s := range settings {
		switch s.Key {
		case "vcs.revision":
			if info.Commit == "" {
				info.Commit = shortRevision(s.Value)
			}
		case "vcs.modified":
			info.Dirty = s.Value == "true"
		case "vcs.time":
			if t, err := time.Parse(time.RFC3339, s.Value); err == nil {
				info.BuildTime = t
			}
		}
	}
	return info
}

func shortRevision(rev string) string {
	if len(rev) > 7 {
		return rev[:7]
	}
	return rev
}

// Short is the version with a -dirty marker for modified trees
func (i Info) Short() string {
	if i.Dirty {
		return i.Version + "-dirty"
	}
	return i.Version
}

// Banner is the one-line identification printed by the CLI
func (i Info) Banner() string {
	return fmt.Sprintf("canfix %s (commit: %s, %s)", i.Short(), i.Commit, i.GoVersion)
}

// TXT returns the key=value records a gateway advertises for this build.
func (i Info) TXT() []string {
	return []string{
		"version=" + i.Short(),
		"commit=" + i.Commit,
	}
}

// ParseTXT reads build information back from advertised metadata.
// Missing keys leave the field empty.
func ParseTXT(meta map[string]string) Info {
	info := Info{Version: meta["version"], Commit: meta["commit"]}
	if v, ok := strings.CutSuffix(info.Version, "-dirty"); ok {
		info.Version, info.Dirty = v, true
	}
	return info
}
