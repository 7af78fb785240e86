package monitor

import (
	"sync"
	"time"

	"github.com/oshokin/docker-watchman/internal/config"
	"github.com/oshokin/docker-watchman/internal/domain/watch"
)

// Tracker is the per-container state machine registry. It is the only
// mutator of container records; every entry point takes the single lock, so
// state transitions for any given id are strictly ordered.
type Tracker struct {
	// mu serializes all record mutations.
	mu sync.Mutex
	// cfg is the active settings snapshot.
	cfg *config.Config
	// records maps container id to its alerting state.
	records map[string]*watch.ContainerRecord
}

// NewTracker creates an empty registry using the provided settings.
func NewTracker(cfg *config.Config) *Tracker {
	return &Tracker{
		cfg:     cfg,
		records: make(map[string]*watch.ContainerRecord),
	}
}

// UpdateConfig swaps the settings snapshot. Records keep their state; only
// thresholds applied to future decisions change.
func (t *Tracker) UpdateConfig(cfg *config.Config) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.cfg = cfg
}

// Seed installs the current state of all listed containers without emitting
// alerts. Exited containers start their grace and recheck clocks at seed
// time, so a container that was already down alerts only after the full
// grace period from startup.
func (t *Tracker) Seed(observations []watch.Observation, now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, obs := range observations {
		rec, _ := t.ensure(obs.ID, obs.Name, obs.Image)

		if obs.Running {
			rec.State = watch.StateRunning
		} else {
			rec.State = watch.StateExited
			rec.NextDownRecheckAt = now.Add(t.cfg.DownRecheck)
		}

		rec.StateSince = now
	}
}

// Observe applies one normalized event to the registry and returns the
// alerts it produced, if any.
func (t *Tracker) Observe(ev watch.ContainerEvent, now time.Time) []watch.AlertEvent {
	t.mu.Lock()
	defer t.mu.Unlock()

	rec, fresh := t.ensure(ev.ID, ev.Name, ev.Image)

	switch ev.Kind {
	case watch.KindOOM:
		// Metadata for the upcoming die, not a transition.
		rec.OOMSeen = true
		return nil
	case watch.KindStart:
		return t.observeRunning(rec, fresh, now)
	case watch.KindStop, watch.KindDie:
		return t.observeExited(rec, now)
	default:
		// Catch-all events only refresh identity fields via ensure.
		return nil
	}
}

// Reconcile applies a full container listing as synthetic observations,
// catching transitions missed by stream gaps. Records for containers gone
// from the listing are evicted so removed containers can never alert.
func (t *Tracker) Reconcile(observations []watch.Observation, now time.Time) []watch.AlertEvent {
	t.mu.Lock()
	defer t.mu.Unlock()

	var alerts []watch.AlertEvent

	present := make(map[string]struct{}, len(observations))

	for _, obs := range observations {
		present[obs.ID] = struct{}{}

		rec, fresh := t.ensure(obs.ID, obs.Name, obs.Image)
		if obs.Running {
			alerts = append(alerts, t.observeRunning(rec, fresh, now)...)
		} else {
			alerts = append(alerts, t.observeExited(rec, now)...)
		}
	}

	for id := range t.records {
		if _, ok := present[id]; !ok {
			delete(t.records, id)
		}
	}

	return alerts
}

// Sweep runs the deferred checks over the whole registry: the down-grace
// debounce, the notification-cap release and the healthy reset.
func (t *Tracker) Sweep(now time.Time) []watch.AlertEvent {
	t.mu.Lock()
	defer t.mu.Unlock()

	var alerts []watch.AlertEvent

	for _, rec := range t.records {
		t.maybeReleaseCap(rec, now)
		t.maybeHealthyReset(rec, now)

		alerts = append(alerts, t.maybeDown(rec, now)...)
	}

	return alerts
}

// Size returns the number of tracked containers.
func (t *Tracker) Size() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return len(t.records)
}

// ensure returns the record for id, creating it in the unknown state on
// first sight, and refreshes identity fields carried by the observation.
func (t *Tracker) ensure(id, name, image string) (rec *watch.ContainerRecord, fresh bool) {
	rec, ok := t.records[id]
	if !ok {
		rec = &watch.ContainerRecord{
			ID:    id,
			State: watch.StateUnknown,
		}
		t.records[id] = rec
		fresh = true
	}

	if name != "" {
		rec.Name = name
	}

	if image != "" {
		rec.Image = image
	}

	return rec, fresh
}

// observeRunning handles a transition into the running phase. It counts the
// restart, fires the loop alert when the threshold is crossed, emits the
// recovery notice for a delivered down alert, and applies the healthy reset
// once the container has run long enough.
func (t *Tracker) observeRunning(rec *watch.ContainerRecord, fresh bool, now time.Time) []watch.AlertEvent {
	var alerts []watch.AlertEvent

	prev := rec.State
	if prev != watch.StateRunning {
		rec.State = watch.StateRunning
		rec.StateSince = now
		rec.OOMSeen = false
	}

	if prev != watch.StateRunning && !fresh {
		count := t.recordRestart(rec, now)
		if count >= t.cfg.RestartsInWindow && !rec.LoopAlertActive {
			// One loop alert per flap cycle. A muted alert is dropped,
			// not deferred, so the flag flips either way.
			rec.LoopAlertActive = true

			if t.allow(rec, now) {
				alerts = append(alerts, watch.AlertEvent{
					Kind:          watch.AlertRestartLoop,
					ContainerID:   rec.ID,
					ContainerName: rec.Name,
					Timestamp:     now,
					RestartCount:  count,
					WindowSeconds: int(t.cfg.RestartWindow / time.Second),
				})
				t.recordFired(rec, now)
			}
		}

		if prev == watch.StateExited && rec.DownAlertSent && !rec.RecoverySent && t.cfg.IncludeRecovery {
			// Recovery notices bypass backoff and the cap: they are
			// rate-limited by the down alert that preceded them.
			rec.RecoverySent = true

			alerts = append(alerts, watch.AlertEvent{
				Kind:          watch.AlertContainerRecovered,
				ContainerID:   rec.ID,
				ContainerName: rec.Name,
				Timestamp:     now,
			})
		}
	}

	t.maybeReleaseCap(rec, now)
	t.maybeHealthyReset(rec, now)

	return alerts
}

// observeExited handles a transition into the exited phase. The down alert
// is never emitted here on the first sighting; it is deferred until the
// grace and recheck delays have both elapsed.
func (t *Tracker) observeExited(rec *watch.ContainerRecord, now time.Time) []watch.AlertEvent {
	if rec.State != watch.StateExited {
		rec.State = watch.StateExited
		rec.StateSince = now
		rec.NextDownRecheckAt = now.Add(t.cfg.DownRecheck)

		return nil
	}

	// Repeated exited sightings can fire the deferred alert once due.
	return t.maybeDown(rec, now)
}

// maybeDown fires the down alert for an exited container once the grace
// period and the recheck delay have both elapsed, subject to the cap and
// backoff mutes. At most one down alert fires per exited streak.
func (t *Tracker) maybeDown(rec *watch.ContainerRecord, now time.Time) []watch.AlertEvent {
	if rec.State != watch.StateExited || rec.DownAlertSent {
		return nil
	}

	if now.Sub(rec.StateSince) < t.cfg.DownGrace {
		return nil
	}

	if now.Before(rec.NextDownRecheckAt) {
		return nil
	}

	if !t.allow(rec, now) {
		return nil
	}

	rec.DownAlertSent = true
	rec.RecoverySent = false
	t.recordFired(rec, now)

	return []watch.AlertEvent{{
		Kind:          watch.AlertContainerDown,
		ContainerID:   rec.ID,
		ContainerName: rec.Name,
		Timestamp:     now,
		OOM:           rec.OOMSeen,
	}}
}

// recordRestart appends a restart timestamp, prunes entries that fell out of
// the window relative to the newest one, and returns the resulting count.
func (t *Tracker) recordRestart(rec *watch.ContainerRecord, now time.Time) int {
	rec.RestartTimes = append(rec.RestartTimes, now)

	newest := rec.RestartTimes[len(rec.RestartTimes)-1]
	cutoff := newest.Add(-t.cfg.RestartWindow)

	kept := rec.RestartTimes[:0]
	for _, ts := range rec.RestartTimes {
		if !ts.Before(cutoff) {
			kept = append(kept, ts)
		}
	}

	rec.RestartTimes = kept

	return len(rec.RestartTimes)
}

// maybeHealthyReset returns the record to its healthy baseline after it has
// run continuously, without any alert firing, for at least one full base
// backoff interval. This is the sole path that clears the down, loop and
// backoff state.
func (t *Tracker) maybeHealthyReset(rec *watch.ContainerRecord, now time.Time) {
	if rec.State != watch.StateRunning {
		return
	}

	if now.Sub(rec.StateSince) < t.cfg.BackoffBase {
		return
	}

	if !rec.LastAlertAt.IsZero() && now.Sub(rec.LastAlertAt) < t.cfg.BackoffBase {
		return
	}

	rec.DownAlertSent = false
	rec.LoopAlertActive = false
	rec.RecoverySent = false
	rec.BackoffLevel = 0
	rec.MutedUntil = time.Time{}
}

// maybeReleaseCap lifts the notification cap after the container has been
// running for the recovery quiet period and clears the delivery history so
// the cap does not re-trip immediately.
func (t *Tracker) maybeReleaseCap(rec *watch.ContainerRecord, now time.Time) {
	if !rec.CapMuted || rec.State != watch.StateRunning {
		return
	}

	if now.Sub(rec.StateSince) < t.cfg.RecoveryQuiet {
		return
	}

	rec.CapMuted = false
	rec.NotifyHistory = nil
}

// allow reports whether a down or loop alert may fire now: the container
// must not be cap-muted and must be outside its backoff mute window.
func (t *Tracker) allow(rec *watch.ContainerRecord, now time.Time) bool {
	if rec.CapMuted {
		return false
	}

	return !now.Before(rec.MutedUntil)
}

// recordFired accounts for a delivered down or loop alert: it arms the next
// backoff mute window and advances the notification-cap history.
func (t *Tracker) recordFired(rec *watch.ContainerRecord, now time.Time) {
	rec.LastAlertAt = now

	armBackoff(rec, now, t.cfg.BackoffBase, t.cfg.BackoffMax)

	cutoff := now.Add(-t.cfg.NotifyWindow)

	kept := rec.NotifyHistory[:0]
	for _, ts := range rec.NotifyHistory {
		if !ts.Before(cutoff) {
			kept = append(kept, ts)
		}
	}

	rec.NotifyHistory = append(kept, now)

	if len(rec.NotifyHistory) >= t.cfg.MaxNotifiesInWindow {
		rec.CapMuted = true
	}
}
