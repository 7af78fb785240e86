// Package version exposes build metadata for the watcher.
//
// Version, Commit and BuildTime are injected through Go ldflags and default
// to sensible values for local builds. Short and Full render the version
// string for CLI output and logs.
package version
