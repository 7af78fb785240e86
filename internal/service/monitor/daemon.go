package monitor

import (
	"sync"
	"time"

	"github.com/oshokin/docker-watchman/internal/domain/watch"
)

// DaemonMonitor judges runtime daemon liveness from periodic probe results,
// independently of container state. The daemon-down alert fires on the first
// failed probe observation, without a grace period: a probe tick already
// spans a full probe interval, and an unreachable daemon means the watcher
// is blind, which is worth knowing immediately. One alert per outage.
type DaemonMonitor struct {
	// mu serializes probe observations.
	mu sync.Mutex
	// state is the single daemon liveness record.
	state watch.DaemonState
}

// NewDaemonMonitor creates a monitor with no probe history.
func NewDaemonMonitor() *DaemonMonitor {
	return &DaemonMonitor{}
}

// ObserveProbe applies one probe outcome and returns the alerts it produced.
// Transient probe I/O errors arrive here as connected=false observations.
func (m *DaemonMonitor) ObserveProbe(connected bool, now time.Time) []watch.AlertEvent {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := &m.state

	if !s.Known {
		s.Known = true
		s.Connected = connected

		if !connected {
			s.DownSince = now
			s.Alerted = true

			return []watch.AlertEvent{{Kind: watch.AlertDaemonDown, Timestamp: now}}
		}

		return nil
	}

	switch {
	case connected && !s.Connected:
		s.Connected = true
		alerted := s.Alerted
		s.Alerted = false
		s.DownSince = time.Time{}

		if alerted {
			return []watch.AlertEvent{{Kind: watch.AlertDaemonUp, Timestamp: now}}
		}
	case !connected && s.Connected:
		s.Connected = false
		s.DownSince = now
		s.Alerted = true

		return []watch.AlertEvent{{Kind: watch.AlertDaemonDown, Timestamp: now}}
	}

	return nil
}

// State returns a copy of the current daemon liveness record.
func (m *DaemonMonitor) State() watch.DaemonState {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.state
}
