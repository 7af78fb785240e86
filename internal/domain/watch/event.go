package watch

import "time"

// EventKind classifies a normalized container lifecycle event.
type EventKind string

const (
	// KindStart means the container entered the running state.
	KindStart EventKind = "start"
	// KindStop means the container was stopped.
	KindStop EventKind = "stop"
	// KindDie means the container process exited.
	KindDie EventKind = "die"
	// KindOOM means the kernel OOM killer fired inside the container.
	// It is informational metadata for the next die, not a transition.
	KindOOM EventKind = "oom"
	// KindOther is the catch-all for runtime actions the watcher does not
	// act on (exec, attach, rename and so on). They are forwarded so the
	// tracker can refresh identity fields, nothing else.
	KindOther EventKind = "other"
)

// ContainerEvent is a canonical container lifecycle event produced by the
// runtime adapter from a raw daemon event.
type ContainerEvent struct {
	// ID is the runtime-assigned container id, stable for its lifetime.
	ID string
	// Name is the container display name, without the leading slash.
	Name string
	// Image is the image reference, empty if the event did not carry one.
	Image string
	// Kind is the normalized event classification.
	Kind EventKind
	// Timestamp is when the daemon recorded the event.
	Timestamp time.Time
}

// Observation is one container's current state as reported by a full listing
// of the runtime. It feeds startup seeding and the reconciliation sweep.
type Observation struct {
	// ID is the runtime-assigned container id.
	ID string
	// Name is the container display name, without the leading slash.
	Name string
	// Image is the image reference.
	Image string
	// Running reports whether the container is currently in the running
	// lifecycle phase. Every other phase is treated as exited.
	Running bool
}
