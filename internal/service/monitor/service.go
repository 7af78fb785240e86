package monitor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/oshokin/docker-watchman/internal/config"
	"github.com/oshokin/docker-watchman/internal/domain/watch"
	"github.com/oshokin/docker-watchman/internal/logger"
	"github.com/oshokin/docker-watchman/internal/notifier"
	"github.com/oshokin/docker-watchman/internal/runtime"
	"github.com/oshokin/docker-watchman/internal/version"
)

const (
	// eventQueueSize bounds the channel between the stream producer and
	// the event loop.
	eventQueueSize = 256
	// alertQueueSize bounds the channel between the event loop and the
	// dispatch worker. A full queue drops the alert rather than stalling
	// event ingestion.
	alertQueueSize = 64
)

// Options controls the watcher process and configuration.
type Options struct {
	// ConfigPath specifies the path to the settings YAML file.
	ConfigPath string
	// LogLevel overrides the configured log level when non-empty.
	LogLevel string
}

// Service composes the tracker, the daemon monitor, the runtime adapter and
// the alert dispatcher into the long-running event loop.
type Service struct {
	// cfg is the settings active at startup. Loop cadences come from here;
	// threshold changes reach the tracker through UpdateConfig.
	cfg *config.Config
	// rt is the container runtime boundary.
	rt runtime.Runtime
	// dispatcher delivers composed notifications.
	dispatcher notifier.Dispatcher
	// tracker owns all per-container state.
	tracker *Tracker
	// daemon owns the daemon liveness state.
	daemon *DaemonMonitor
	// formatter renders alert text.
	formatter notifier.Formatter
}

// Run starts the watcher and blocks until the context is canceled. It loads
// configuration, connects to the runtime, builds the dispatcher and hands
// off to the event loop. Settings-file changes update tracker thresholds at
// runtime.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "docker-watchman")

	logger.InfoKV(ctx, "Starting watcher", "version", version.Short())

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	level := cfg.LogLevel
	if opts.LogLevel != "" {
		level = opts.LogLevel
	}

	if lvl, ok := logger.ParseLogLevel(level); ok {
		logger.SetLevel(lvl)
	}

	rt, err := runtime.NewDocker()
	if err != nil {
		return fmt.Errorf("connect runtime: %w", err)
	}

	defer func() {
		_ = rt.Close()
	}()

	dispatcher, err := notifier.FromConfig(cfg)
	if err != nil {
		if !errors.Is(err, notifier.ErrNoTargets) {
			return fmt.Errorf("build dispatcher: %w", err)
		}

		logger.Warn(ctx, "No notification targets configured, alerts will only be logged")

		dispatcher = notifier.NewLog()
	}

	svc := New(cfg, rt, dispatcher)

	// Hot-reload thresholds when a settings file is actually present.
	path := opts.ConfigPath
	if path == "" {
		path = config.DefaultConfigFilename
	}

	if _, statErr := os.Stat(path); statErr == nil {
		go func() {
			if watchErr := config.Watch(ctx, path, svc.tracker.UpdateConfig); watchErr != nil {
				logger.WarnKV(ctx, "Settings watch unavailable", "error", watchErr)
			}
		}()
	}

	return svc.Loop(ctx)
}

// New creates a Service from its collaborators. Split from Run so tests can
// substitute the runtime and dispatcher.
func New(cfg *config.Config, rt runtime.Runtime, dispatcher notifier.Dispatcher) *Service {
	return &Service{
		cfg:        cfg,
		rt:         rt,
		dispatcher: dispatcher,
		tracker:    NewTracker(cfg),
		daemon:     NewDaemonMonitor(),
		formatter:  notifier.Formatter{Hostname: cfg.Hostname},
	}
}

// Loop is the watcher's main event loop: it seeds the registry, consumes the
// event stream, and drives the reconciliation sweep and the liveness probe
// on their tickers. All state mutations happen on this goroutine plus the
// tracker's lock; alert delivery runs on a separate worker so a slow
// dispatch never stalls ingestion. Shutdown is immediate, pending alerts
// are not drained.
func (s *Service) Loop(ctx context.Context) error {
	now := time.Now()

	if observations, err := s.rt.List(ctx); err != nil {
		logger.WarnKV(ctx, "Initial container listing failed", "error", err)
	} else {
		s.tracker.Seed(observations, now)
		logger.InfoKV(ctx, "Seeded container states", "count", len(observations))
	}

	alerts := make(chan watch.AlertEvent, alertQueueSize)

	var wg sync.WaitGroup

	wg.Add(1)

	go s.dispatchLoop(ctx, alerts, &wg)

	defer wg.Wait()

	events := make(chan watch.ContainerEvent, eventQueueSize)

	go s.rt.Stream(ctx, events)

	// First probe before the ticker starts, so a dead daemon alerts at
	// startup rather than one interval later.
	s.enqueue(ctx, alerts, s.daemon.ObserveProbe(s.rt.Ping(ctx) == nil, time.Now()))

	sweepTicker := time.NewTicker(s.cfg.SweepEvery)
	defer sweepTicker.Stop()

	pingTicker := time.NewTicker(s.cfg.CheckPingEvery)
	defer pingTicker.Stop()

	logger.InfoKV(ctx, "Watching container events",
		"sweep_every", s.cfg.SweepEvery.String(),
		"check_ping_every", s.cfg.CheckPingEvery.String())

	for {
		select {
		case <-ctx.Done():
			logger.Info(ctx, "Context canceled, exiting")

			if err := ctx.Err(); !errors.Is(err, context.Canceled) {
				return err
			}

			return nil
		case ev := <-events:
			s.enqueue(ctx, alerts, s.tracker.Observe(ev, time.Now()))
		case <-sweepTicker.C:
			tick := time.Now()

			if observations, err := s.rt.List(ctx); err != nil {
				logger.WarnKV(ctx, "Sweep listing failed", "error", err)
			} else {
				s.enqueue(ctx, alerts, s.tracker.Reconcile(observations, tick))
			}

			s.enqueue(ctx, alerts, s.tracker.Sweep(tick))
		case <-pingTicker.C:
			s.enqueue(ctx, alerts, s.daemon.ObserveProbe(s.rt.Ping(ctx) == nil, time.Now()))
		}
	}
}

// enqueue hands alerts to the dispatch worker without ever blocking the
// event loop. A full queue drops the alert with a diagnostic.
func (s *Service) enqueue(ctx context.Context, queue chan<- watch.AlertEvent, events []watch.AlertEvent) {
	for _, a := range events {
		select {
		case queue <- a:
		default:
			logger.WarnKV(ctx, "Alert queue full, dropping alert",
				"kind", string(a.Kind), "container", a.ContainerName)
		}
	}
}

// dispatchLoop delivers queued alerts one at a time. Delivery failures are
// logged and never retried; a dropped alert is preferable to a stalled
// monitor.
func (s *Service) dispatchLoop(ctx context.Context, queue <-chan watch.AlertEvent, wg *sync.WaitGroup) {
	defer wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case a := <-queue:
			subject, body := s.formatter.Format(a)

			if err := s.dispatcher.Send(ctx, subject, body); err != nil {
				logger.ErrorKV(ctx, "Alert delivery failed",
					"kind", string(a.Kind), "container", a.ContainerName, "error", err)

				continue
			}

			logger.InfoKV(ctx, "Alert delivered",
				"kind", string(a.Kind), "container", a.ContainerName, "subject", subject)
		}
	}
}
