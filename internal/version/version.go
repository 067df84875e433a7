// Package version carries the release string printed by --version.
package version

// Version is overridden at build time with -ldflags "-X unfold/internal/version.Version=...".
var Version = "0.3.0"
