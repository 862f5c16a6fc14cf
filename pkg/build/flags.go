// SPDX-License-Identifier: MIT
//
// Package build carries the metadata embedded at link time:
//
//	go build -ldflags "-X specviz/pkg/build.buildName=specviz \
//	    -X specviz/pkg/build.buildVersion=0.3.0 ..."
//
// Development builds run with the defaults below; Initialize reports which
// flag is missing so the caller can decide whether that matters.
package build

import (
	"fmt"
	"runtime"
)

// Info is the build metadata shown by --version and logged at startup.
type Info struct {
	Name        string
	Description string
	Time        string
	Commit      string
	Version     string
}

// String formats the version line.
func (i Info) String() string {
	return fmt.Sprintf("%s %s (commit %s, built %s, %s)",
		i.Name, i.Version, i.Commit, i.Time, runtime.Version())
}

// Package-level variables populated by -ldflags.
var (
	buildName    string
	buildTime    string
	buildCommit  string
	buildVersion string
	buildFlags   = defaultInfo()
)

func defaultInfo() *Info {
	return &Info{
		Name:        "specviz",
		Description: "Real-time loopback audio spectrum analyzer",
		Time:        "unknown",
		Commit:      "unknown",
		Version:     "dev",
	}
}

// Initialize copies the ldflags variables into the build info. On error the
// defaults stay in place.
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
