// Package runtime adapts the Docker daemon to the watcher.
//
// It wraps the official client behind a small Runtime interface: a normalized
// container event stream with automatic reconnect, a liveness probe and a
// full container listing. Raw daemon events are normalized into domain
// ContainerEvents here; malformed events are reported, never forwarded.
package runtime
