package watch

import "time"

// ContainerState is the last observed lifecycle phase of a container.
type ContainerState string

const (
	// StateUnknown is the phase of a freshly created record before any
	// start or stop observation has been applied.
	StateUnknown ContainerState = "unknown"
	// StateRunning means the container was last seen running.
	StateRunning ContainerState = "running"
	// StateExited means the container was last seen stopped or dead.
	StateExited ContainerState = "exited"
)

// ContainerRecord is the per-container alerting state. One record exists per
// observed container id; records are owned exclusively by the tracker and
// mutated only under its lock.
type ContainerRecord struct {
	// ID is the runtime-assigned container id.
	ID string
	// Name is the container display name.
	Name string
	// Image is the image reference, if any event carried one.
	Image string
	// State is the last observed lifecycle phase.
	State ContainerState
	// StateSince is when the current phase was entered.
	StateSince time.Time
	// RestartTimes holds restart timestamps, newest last, pruned to the
	// restart window relative to the newest entry.
	RestartTimes []time.Time
	// DownAlertSent reports whether a down alert has fired for the current
	// exited streak. It is cleared only by the healthy reset.
	DownAlertSent bool
	// LoopAlertActive reports whether a loop alert has fired and not yet
	// been cleared by the healthy reset.
	LoopAlertActive bool
	// RecoverySent reports whether the recovery notice for the last down
	// alert has already been delivered.
	RecoverySent bool
	// BackoffLevel counts consecutive mute-worthy alerts since the last
	// healthy run.
	BackoffLevel int
	// MutedUntil suppresses down and loop alerts while now is before it.
	MutedUntil time.Time
	// NextDownRecheckAt is the earliest time the first down alert of the
	// current streak may fire, set when the container is first seen down.
	NextDownRecheckAt time.Time
	// LastAlertAt is when the last down or loop alert fired.
	LastAlertAt time.Time
	// NotifyHistory holds delivery timestamps inside the notification cap
	// window, newest last.
	NotifyHistory []time.Time
	// CapMuted reports that the notification cap was reached; it holds
	// until the container has been running for the recovery quiet period.
	CapMuted bool
	// OOMSeen marks that an OOM event preceded the current exited streak.
	OOMSeen bool
}

// DaemonState tracks runtime daemon liveness. A single instance exists for
// the process lifetime.
type DaemonState struct {
	// Connected is the last probe outcome.
	Connected bool
	// Known reports whether at least one probe has been observed.
	Known bool
	// DownSince is when the current outage began.
	DownSince time.Time
	// Alerted guards the once-per-outage daemon-down alert.
	Alerted bool
}
