// SPDX-License-Identifier: MIT
//
// Package build exposes the metadata stamped into the binary at link time:
//
//	go build -ldflags "-X ledvu/pkg/build.buildName=ledvu \
//	  -X ledvu/pkg/build.buildVersion=0.3.0 \
//	  -X ledvu/pkg/build.buildCommit=$(git rev-parse --short HEAD) \
//	  -X ledvu/pkg/build.buildTime=$(date -u +%FT%TZ)"
//
// Development builds run with the fallback values below.
package build

import "fmt"

// Description is the one-line summary shown by the CLI.
const Description = "Self-calibrating audio level meter for a center-out LED strip"

// Info holds build metadata.
type Info struct {
	Name    string
	Time    string
	Commit  string
	Version string
}

// String renders the version line used by --version.
func (i *Info) String() string {
	return fmt.Sprintf("%s %s (commit %s, built %s)", i.Name, i.Version, i.Commit, i.Time)
}

var (
	buildName    string
	buildTime    string
	buildCommit  string
	buildVersion string
	buildFlags   = &Info{
		Name:    "ledvu",
		Time:    "unknown",
		Commit:  "unknown",
		Version: "dev",
	}
)

// Initialize copies the ldflags variables into the build info. It returns an
// error naming the first missing flag and leaves the fallback values in place.
func Initialize() error {
	if buildName == "" {
		return fmt.Errorf("BuildName is required")
	}
	if buildTime == "" {
		return fmt.Errorf("BuildTime is required")
	}
	if buildCommit == "" {
		return fmt.Errorf("BuildCommit is required")
	}
	if buildVersion == "" {
		return fmt.Errorf("BuildVersion is required")
	}

	buildFlags.Name = buildName
	buildFlags.Time = buildTime
	buildFlags.Commit = buildCommit
	buildFlags.Version = buildVersion

	return nil
}

// GetBuildFlags returns the current build information.
func GetBuildFlags() *Info {
	return buildFlags
}
