package version

import "fmt"

var (
	// Version is the semantic version of the binary. Overridden at build time.
	Version = "dev"
	// Commit is the git commit hash. Overridden at build time.
	Commit = "unknown"
	// BuildDate is the build timestamp. Overridden at build time.
	BuildDate = "unknown"
)

// UserAgent identifies the binary to upstream HTTP servers.
func UserAgent() string {
	return fmt.Sprintf("glucosewatch/%s (%s)", Version, Commit)
}

// Summary is the multi-line build description printed by the version command.
func Summary() string {
	return fmt.Sprintf("version: %s\ncommit: %s\nbuilt: %s\n", Version, Commit, BuildDate)
}
