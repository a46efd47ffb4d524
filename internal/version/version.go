// Package version exposes the build version stamped at link time with
// -ldflags "-X autoname/internal/version.Version=...".
package version

// Version is the release identifier, "dev" for unstamped builds.
var Version = "dev"

// String returns the version identifier.
func String() string { return Version }
