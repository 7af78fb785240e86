package monitor

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/docker-watchman/internal/domain/watch"
)

func TestDaemonMonitorHealthyStart(t *testing.T) {
	t.Parallel()

	m := NewDaemonMonitor()

	require.Empty(t, m.ObserveProbe(true, at(0)))
	require.Empty(t, m.ObserveProbe(true, at(60)))

	state := m.State()
	require.True(t, state.Connected)
	require.False(t, state.Alerted)
}

// TestDaemonMonitorOutageCycle walks a full outage: one down alert at the
// first failed probe, silence while the outage lasts, one up notice on
// reconnection, silence afterwards.
func TestDaemonMonitorOutageCycle(t *testing.T) {
	t.Parallel()

	m := NewDaemonMonitor()

	require.Empty(t, m.ObserveProbe(true, at(0)))

	alerts := m.ObserveProbe(false, at(60))
	require.Equal(t, []watch.AlertKind{watch.AlertDaemonDown}, kinds(alerts))
	require.Equal(t, at(60), m.State().DownSince)

	require.Empty(t, m.ObserveProbe(false, at(120)))
	require.Empty(t, m.ObserveProbe(false, at(180)))

	alerts = m.ObserveProbe(true, at(240))
	require.Equal(t, []watch.AlertKind{watch.AlertDaemonUp}, kinds(alerts))
	require.True(t, m.State().DownSince.IsZero())

	require.Empty(t, m.ObserveProbe(true, at(300)))
}

// TestDaemonMonitorDownFromTheStart verifies an unreachable daemon alerts
// on the very first probe and recovery still produces the up notice.
func TestDaemonMonitorDownFromTheStart(t *testing.T) {
	t.Parallel()

	m := NewDaemonMonitor()

	alerts := m.ObserveProbe(false, at(0))
	require.Equal(t, []watch.AlertKind{watch.AlertDaemonDown}, kinds(alerts))

	require.Empty(t, m.ObserveProbe(false, at(60)))

	alerts = m.ObserveProbe(true, at(120))
	require.Equal(t, []watch.AlertKind{watch.AlertDaemonUp}, kinds(alerts))
}

