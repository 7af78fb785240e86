package notifier

import (
	"context"

	"github.com/oshokin/docker-watchman/internal/logger"
)

// Log is the fallback dispatcher used when no delivery targets are
// configured. Alerts end up in the process log instead of being dropped.
type Log struct{}

// NewLog creates the log-only dispatcher.
func NewLog() Log {
	return Log{}
}

// Send writes the notification to the process log.
func (Log) Send(ctx context.Context, subject, body string) error {
	logger.WarnKV(ctx, "Alert (no delivery targets configured)", "subject", subject, "body", body)

	return nil
}
