package notifier

import (
	"context"
	"errors"

	"github.com/oshokin/docker-watchman/internal/config"
)

// Dispatcher delivers one composed notification to its targets.
type Dispatcher interface {
	Send(ctx context.Context, subject, body string) error
}

// ErrNoTargets is returned when neither SMTP nor webhooks are configured.
var ErrNoTargets = errors.New("no notification targets configured")

// Fanout delivers to every wrapped dispatcher and joins their errors.
// A failing target never blocks the others.
type Fanout []Dispatcher

// Send dispatches to all targets, collecting per-target errors.
func (f Fanout) Send(ctx context.Context, subject, body string) error {
	var errs []error

	for _, d := range f {
		if err := d.Send(ctx, subject, body); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// FromConfig builds the dispatcher described by the settings: an SMTP mailer
// when the smtp section is present, plus one webhook poster per target.
func FromConfig(cfg *config.Config) (Dispatcher, error) {
	var targets Fanout

	if cfg.SMTP != nil {
		targets = append(targets, NewMailer(cfg.SMTP))
	}

	for _, wh := range cfg.Webhooks {
		if wh.URL == "" {
			continue
		}

		targets = append(targets, NewWebhook(wh.URL))
	}

	if len(targets) == 0 {
		return nil, ErrNoTargets
	}

	if len(targets) == 1 {
		return targets[0], nil
	}

	return targets, nil
}
