// Package config loads, validates and watches watcher settings.
//
// Settings come from a YAML file with environment overrides layered on top,
// so the watcher works both with a mounted settings file and with env-only
// container deployments. Invariant violations (non-positive durations,
// backoff base above the cap, mail without recipients) fail startup before
// the event loop begins.
package config
