// Package version provides build version information for the stageflow CLI.
//
// Version, git commit and build time are set at compile time via -ldflags:
//
//	go build -ldflags "-X github.com/kbukum/stageflow/version.Version=1.0.0"
package version
