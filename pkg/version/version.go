// Package version holds the build-time version string, overridden via
// -ldflags "-X github.com/maxvaer/dirscan/pkg/version.Version=..." by
// release builds.
package version

// Version is the scanner's version string. "dev" means a local build.
var Version = "dev"
