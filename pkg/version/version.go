// Package version carries the build-time version string linked into the
// josh-proxy binary, the same -ldflags pattern the teacher's own
// pkg/version uses.
package version

import "fmt"

var (
	version     = "dev"
	buildCommit = "none"
	buildTime   = "unknown"
)

// String returns a single-line version header suitable for the
// /version endpoint and --version output.
func String() string {
	return fmt.Sprintf("josh-proxy %s (%s), built %s", version, buildCommit, buildTime)
}

// Short returns just the semver-ish version component.
func Short() string { return version }
