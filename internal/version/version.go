// Package version holds the build version, overridden at release time via
// -ldflags "-X github.com/bnema/bandit-cli/internal/version.Version=...".
package version

var Version = "dev"
