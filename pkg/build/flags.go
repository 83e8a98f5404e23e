// SPDX-License-Identifier: MIT
//
// Package build holds the metadata embedded into the tuner binary at link
// time: application name, build timestamp, Git commit and semantic version.
//
//	go build -ldflags "-X tuner/pkg/build.buildName=tuner \
//	  -X tuner/pkg/build.buildVersion=0.1.0 ..."
//
// Development builds run without ldflags; the defaults below are used and
// Initialize reports which values were missing.
package build

import "fmt"

type ldFlags struct {
	Name        string
	Description string
	Time        string
	Commit      string
	Version     string
}

// Package-level variables for build information. These are populated by -ldflags
// during compilation.
var (
	buildName    string
	buildTime    string
	buildCommit  string
	buildVersion string
	buildFlags   = defaultFlags()
)

func defaultFlags() *ldFlags {
	return &ldFlags{
		Name:        "tuner",
		Description: "Real-time chromatic tuner",
		Time:        "unknown",
		Commit:      "unknown",
		Version:     "dev",
	}
}

// Initialize copies the ldflags variables into the build information. Values
// that were not provided keep their development defaults; the first missing
// one is reported as an error so callers can log it, the remaining values
// are still applied.
func Initialize() error {
	var missing error
	apply := func(dst *string, src, name string) {
		if src == "" {
			if missing == nil {
				missing = fmt.Errorf("%s is required", name)
			}
			return
		}
		*dst = src
	}

	apply(&buildFlags.Name, buildName, "BuildName")
	apply(&buildFlags.Time, buildTime, "BuildTime")
	apply(&buildFlags.Commit, buildCommit, "BuildCommit")
	apply(&buildFlags.Version, buildVersion, "BuildVersion")

	return missing
}

// GetBuildFlags returns the current build information.
func GetBuildFlags() *ldFlags {
	return buildFlags
}

// String renders the build information for the version banner.
func (f *ldFlags) String() string {
	return fmt.Sprintf("%s %s (commit %s, built %s)", f.Name, f.Version, f.Commit, f.Time)
}
