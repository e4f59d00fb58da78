package version

import "fmt"

// Set via -ldflags at build time.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// PrintVersion writes version information to stdout.
func PrintVersion() {
	fmt.Printf("hagueapi %s (commit %s, built %s)\n", Version, GitCommit, BuildDate)
}
