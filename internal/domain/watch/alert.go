package watch

import "time"

// AlertKind identifies the condition an alert reports.
type AlertKind string

const (
	// AlertContainerDown fires once per exited streak after the down grace
	// and recheck delay have both elapsed.
	AlertContainerDown AlertKind = "container_down"
	// AlertRestartLoop fires once per flap cycle when the restart threshold
	// is crossed inside the restart window.
	AlertRestartLoop AlertKind = "restart_loop"
	// AlertContainerRecovered fires when a container returns to running
	// after a delivered down alert.
	AlertContainerRecovered AlertKind = "container_recovered"
	// AlertDaemonDown fires once per runtime daemon outage.
	AlertDaemonDown AlertKind = "daemon_down"
	// AlertDaemonUp fires when the daemon becomes reachable again after an
	// alerted outage.
	AlertDaemonUp AlertKind = "daemon_up"
)

// AlertEvent is a single notification produced by the state machines.
// It is produced once, never mutated, and consumed once by the dispatcher.
type AlertEvent struct {
	// Kind is the reported condition.
	Kind AlertKind
	// ContainerID identifies the subject for container-level alerts.
	ContainerID string
	// ContainerName is the subject's display name.
	ContainerName string
	// Timestamp is when the condition was judged alert-worthy.
	Timestamp time.Time
	// RestartCount is the observed restart count for loop alerts.
	RestartCount int
	// WindowSeconds is the restart window length for loop alerts.
	WindowSeconds int
	// OOM marks a down alert whose exited streak followed an OOM kill.
	OOM bool
}
