// Package build holds version information stamped in at build time:
//
//	go build -ldflags "-X github.com/voicelens/voicelens/cmd/voicelens/internal/build.Version=v0.3.0 \
//	  -X github.com/voicelens/voicelens/cmd/voicelens/internal/build.Commit=$(git rev-parse --short HEAD) \
//	  -X github.com/voicelens/voicelens/cmd/voicelens/internal/build.Date=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
package build

import (
	"fmt"
	"runtime"
)

// Set via -ldflags; empty fields identify a local development build.
var (
	Version = "dev"
	Commit  = ""
	Date    = ""
)

// String formats the stamped version, omitting fields a local build
// leaves empty.
func String() string {
	s := "voicelens " + Version
	if Commit != "" {
		s += "+" + Commit
	}
	if Date != "" {
		s += " (" + Date + ")"
	}
	return s + fmt.Sprintf(" %s/%s", runtime.GOOS, runtime.GOARCH)
}
