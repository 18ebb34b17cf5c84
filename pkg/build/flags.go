// SPDX-License-Identifier: MIT
//
// Package build holds the metadata stamped into the clipscope binary at link
// time. The CLI reports it through --version and the engine logs it when a
// session starts.
//
//	go build -ldflags "-X clipscope/pkg/build.buildName=clipscope \
//	  -X clipscope/pkg/build.buildVersion=0.3.0 ..."
package build

import (
	"fmt"
	"strings"
)

// Info describes one build of the binary.
type Info struct {
	Name    string
	Time    string
	Commit  string
	Version string
}

// Set through -ldflags -X; empty in development builds.
var (
	buildName    string
	buildTime    string
	buildCommit  string
	buildVersion string
)

var current = devInfo()

func devInfo() Info {
	return Info{Name: "clipscope", Time: "unknown", Commit: "unknown", Version: "dev"}
}

// Initialize adopts the link-time values. If any of them is missing it
// names every missing flag and the development defaults stay in place.
func Initialize() error {
	stamped := Info{Name: buildName, Time: buildTime, Commit: buildCommit, Version: buildVersion}

	var missing []string
	for _, f := range []struct{ flag, value string }{
		{"buildName", stamped.Name},
		{"buildTime", stamped.Time},
		{"buildCommit", stamped.Commit},
		{"buildVersion", stamped.Version},
	} {
		if f.value == "" {
			missing = append(missing, f.flag)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("build: missing ldflags %s", strings.Join(missing, ", "))
	}

	current = stamped
	return nil
}

// Current returns the active build information.
func Current() Info {
	return current
}

// ShortCommit returns the first seven characters of the commit hash.
func (i Info) ShortCommit() string {
	if len(i.Commit) > 7 {
		return i.Commit[:7]
	}
	return i.Commit
}

// Summary renders the build on one line, e.g.
// "clipscope 0.3.0 (commit abcdef1, built 2025-04-13)".
func (i Info) Summary() string {
	return fmt.Sprintf("%s %s (commit %s, built %s)", i.Name, i.Version, i.ShortCommit(), i.Time)
}
