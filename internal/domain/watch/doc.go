// Package watch contains core domain types for the container watcher.
//
// It defines ContainerEvent (a normalized runtime event), ContainerRecord
// (the per-container alerting state), DaemonState (runtime daemon liveness)
// and AlertEvent (a single human-facing notification). The types carry no
// behavior beyond small helpers; all transition logic lives in the monitor
// service.
package watch
