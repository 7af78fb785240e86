package runtime

import (
	"context"
	"strings"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/events"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/client"

	"github.com/oshokin/docker-watchman/internal/domain/watch"
	"github.com/oshokin/docker-watchman/internal/logger"
)

const (
	// reconnectInitialDelay is the first wait after an event stream failure.
	reconnectInitialDelay = 1 * time.Second
	// reconnectMaxDelay caps the wait between reconnect attempts.
	reconnectMaxDelay = 1 * time.Minute
)

// Runtime is the container runtime boundary consumed by the monitor service.
type Runtime interface {
	// Stream delivers normalized container events into out until ctx is
	// canceled, reconnecting with backoff on stream failures.
	Stream(ctx context.Context, out chan<- watch.ContainerEvent)
	// Ping probes daemon liveness. Any error means unreachable for this tick.
	Ping(ctx context.Context) error
	// List returns the current state of all containers, running or not.
	List(ctx context.Context) ([]watch.Observation, error)
	// Close releases the underlying client.
	Close() error
}

// Docker implements Runtime on top of the official Docker client.
type Docker struct {
	// cli is the negotiated Docker API client.
	cli *client.Client
}

// NewDocker connects to the daemon using the standard environment variables
// (DOCKER_HOST and friends) with API version negotiation.
func NewDocker() (*Docker, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, err
	}

	return &Docker{cli: cli}, nil
}

// Stream consumes the daemon event stream, normalizes each message and sends
// it into out. Stream failures reconnect with exponential backoff; malformed
// events are logged and skipped. Returns when ctx is canceled.
func (d *Docker) Stream(ctx context.Context, out chan<- watch.ContainerEvent) {
	delay := reconnectInitialDelay

	for ctx.Err() == nil {
		eventFilters := filters.NewArgs()
		eventFilters.Add("type", string(events.ContainerEventType))

		messages, errs := d.cli.Events(ctx, events.ListOptions{Filters: eventFilters})
		logger.Info(ctx, "Listening for container events")

		received := false

	streamLoop:
		for {
			select {
			case <-ctx.Done():
				return
			case err := <-errs:
				if ctx.Err() != nil {
					return
				}

				logger.ErrorKV(ctx, "Event stream failed, reconnecting", "error", err, "delay", delay.String())

				break streamLoop
			case msg := <-messages:
				if !received {
					received = true
					delay = reconnectInitialDelay
				}

				ev, err := Normalize(msg)
				if err != nil {
					logger.WarnKV(ctx, "Skipping malformed event", "action", string(msg.Action), "error", err)
					continue
				}

				select {
				case out <- ev:
				case <-ctx.Done():
					return
				}
			}
		}

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return
		}

		delay *= 2
		if delay > reconnectMaxDelay {
			delay = reconnectMaxDelay
		}
	}
}

// Ping probes the daemon.
func (d *Docker) Ping(ctx context.Context) error {
	_, err := d.cli.Ping(ctx)

	return err
}

// List returns every container known to the daemon with its current phase.
func (d *Docker) List(ctx context.Context) ([]watch.Observation, error) {
	containers, err := d.cli.ContainerList(ctx, container.ListOptions{All: true})
	if err != nil {
		return nil, err
	}

	out := make([]watch.Observation, 0, len(containers))

	for _, c := range containers {
		name := ""
		if len(c.Names) > 0 {
			name = strings.TrimPrefix(c.Names[0], "/")
		}

		out = append(out, watch.Observation{
			ID:      c.ID,
			Name:    name,
			Image:   c.Image,
			Running: c.State == "running",
		})
	}

	return out, nil
}

// Close releases the underlying client.
func (d *Docker) Close() error {
	return d.cli.Close()
}
