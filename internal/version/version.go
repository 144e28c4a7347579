package version

import "fmt"

// These variables are set at build time via ldflags
var (
	Commit    = "unknown"
	BuildTime = "unknown"
)

// String returns the version string (commit-hash based, no semver)
func String() string {
	return fmt.Sprintf("plantcare dev (commit: %s, built: %s)", shortCommit(), BuildTime)
}

// Short returns the abbreviated commit, reported by the HTTP server in the
// version header and the health check.
func Short() string {
	return shortCommit()
}

func shortCommit() string {
	if len(Commit) > 7 {
		return Commit[:7]
	}
	return Commit
}
