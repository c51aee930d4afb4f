// Package version holds build-time version information for the ragqa binary.
// The variables in this package are populated at build time via -ldflags:
//
//	go build -ldflags="-X github.com/54b3r/ragqa-go/internal/version.Version=v1.2.3 \
//	                    -X github.com/54b3r/ragqa-go/internal/version.Commit=abc1234 \
//	                    -X github.com/54b3r/ragqa-go/internal/version.BuildDate=2025-01-01"
//
// When built without ldflags the values fall back to readable defaults.
package version

import (
	"fmt"
	"runtime"
)

// Version is the semantic version of the binary (e.g. "v1.2.3").
// Defaults to "dev" for local builds.
var Version = "dev"

// Commit is the short git SHA of the commit the binary was built from.
var Commit = "unknown"

// BuildDate is the UTC date the binary was built.
var BuildDate = "unknown"

// String returns the one-line version banner printed by `ragqa version`.
func String() string {
	return fmt.Sprintf("ragqa %s (commit %s, built %s, %s %s/%s)",
		Version, Commit, BuildDate, runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
