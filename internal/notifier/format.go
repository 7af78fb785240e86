package notifier

import (
	"fmt"

	"github.com/oshokin/docker-watchman/internal/domain/watch"
)

// timestampLayout is the human-facing timestamp format in alert text.
const timestampLayout = "2006-01-02 15:04:05 MST"

// Formatter renders alert events into notification subjects and bodies.
type Formatter struct {
	// Hostname identifies the watcher host in alert text.
	Hostname string
}

// Format returns the subject and body for one alert event.
func (f Formatter) Format(a watch.AlertEvent) (subject, body string) {
	ts := a.Timestamp.Format(timestampLayout)
	name := a.ContainerName
	if name == "" {
		name = shortID(a.ContainerID)
	}

	switch a.Kind {
	case watch.AlertContainerDown:
		cause := ""
		if a.OOM {
			cause = " (OOM killed)"
		}

		subject = fmt.Sprintf("%s container is down at %s", name, ts)
		body = fmt.Sprintf("%s container is down%s at %s on %s.", name, cause, ts, f.Hostname)
	case watch.AlertRestartLoop:
		subject = fmt.Sprintf("%s is restarting frequently (%d times ~%ds) at %s",
			name, a.RestartCount, a.WindowSeconds, ts)
		body = fmt.Sprintf("%s is restarting frequently (%d restarts within ~%ds) at %s on %s.\n"+
			"Further loop alerts are suppressed until the container comes back up.",
			name, a.RestartCount, a.WindowSeconds, ts, f.Hostname)
	case watch.AlertContainerRecovered:
		subject = fmt.Sprintf("%s container is back up at %s", name, ts)
		body = fmt.Sprintf("%s container is back up at %s on %s.", name, ts, f.Hostname)
	case watch.AlertDaemonDown:
		subject = fmt.Sprintf("Docker daemon is down at %s", ts)
		body = fmt.Sprintf("Docker daemon is down on %s at %s.", f.Hostname, ts)
	case watch.AlertDaemonUp:
		subject = fmt.Sprintf("Docker daemon is up at %s", ts)
		body = fmt.Sprintf("Docker daemon is up on %s at %s.", f.Hostname, ts)
	default:
		subject = fmt.Sprintf("%s: %s at %s", name, a.Kind, ts)
		body = subject
	}

	return subject, body
}

// shortID trims a container id the way the runtime CLI displays it.
func shortID(id string) string {
	const shortLen = 12
	if len(id) > shortLen {
		return id[:shortLen]
	}

	return id
}
