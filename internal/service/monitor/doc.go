// Package monitor contains the watcher's state-and-timing engine.
//
// Tracker owns the per-container records and turns noisy start/stop/die
// streams into debounced, deduplicated, rate-limited alert events: a down
// alert fires only after the grace and recheck delays, restart bursts
// collapse into one loop alert per flap cycle, and repeated alerts are muted
// with exponential backoff plus a delivery cap that clears after a sustained
// recovery. DaemonMonitor judges runtime daemon liveness independently.
// Service composes both with the runtime adapter and the alert dispatcher
// into the long-running event loop.
package monitor
