// Package version carries build metadata injected with -ldflags, e.g.
//
//	go build -ldflags "-X pipellm/internal/version.Version=v1.2.0"
package version

import (
	"fmt"
	"runtime"
)

// Set at build time.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// Info returns a one-line description of the build.
func Info() string {
	return fmt.Sprintf("pipellm %s (commit %s, built %s, %s)", Version, Commit, Date, runtime.Version())
}
