// Package notifier turns alert events into delivered human notifications.
//
// It formats alert subjects and bodies, and ships them over SMTP and/or HTTP
// webhooks behind a single Dispatcher interface. Transport failures are
// returned to the caller for logging; the watcher never retries delivery,
// since a dropped alert is preferable to a stalled monitor.
package notifier
