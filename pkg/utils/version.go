// Package utils provides small helpers shared by the glean packages that
// don't warrant a package of their own.
package utils

import "fmt"

// Build metadata, set with -ldflags -X at release time.
var (
	Version   = "dev"
	Sha       = "HEAD"
	Buildtime = "dev"
)

// UserAgent identifies glean on outgoing page fetches and LLM requests.
func UserAgent() string {
	return "glean/" + Version
}

// BuildInfo renders the build metadata for the version command.
func BuildInfo() string {
	return fmt.Sprintf("Version: %s\nSha: %s\nBuilt at: %s\n", Version, Sha, Buildtime)
}
