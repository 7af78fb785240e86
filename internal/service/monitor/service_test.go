package monitor

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/docker-watchman/internal/config"
	"github.com/oshokin/docker-watchman/internal/domain/watch"
)

// fakeRuntime is a scriptable runtime adapter. Tests feed events through the
// events channel and flip pingErr/listing under the mutex.
type fakeRuntime struct {
	mu      sync.Mutex
	listing []watch.Observation
	pingErr error
	events  chan watch.ContainerEvent
}

func newFakeRuntime(listing []watch.Observation) *fakeRuntime {
	return &fakeRuntime{
		listing: listing,
		events:  make(chan watch.ContainerEvent),
	}
}

func (f *fakeRuntime) Stream(ctx context.Context, out chan<- watch.ContainerEvent) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-f.events:
			out <- ev
		}
	}
}

func (f *fakeRuntime) Ping(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.pingErr
}

func (f *fakeRuntime) List(context.Context) ([]watch.Observation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]watch.Observation(nil), f.listing...), nil
}

func (f *fakeRuntime) Close() error { return nil }

func (f *fakeRuntime) setPingErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.pingErr = err
}

func (f *fakeRuntime) setListing(listing []watch.Observation) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.listing = listing
}

// recordingDispatcher captures delivered subjects.
type recordingDispatcher struct {
	mu       sync.Mutex
	subjects []string
}

func (d *recordingDispatcher) Send(_ context.Context, subject, _ string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.subjects = append(d.subjects, subject)

	return nil
}

func (d *recordingDispatcher) snapshot() []string {
	d.mu.Lock()
	defer d.mu.Unlock()

	return append([]string(nil), d.subjects...)
}

func (d *recordingDispatcher) contains(fragment string) bool {
	for _, s := range d.snapshot() {
		if strings.Contains(s, fragment) {
			return true
		}
	}

	return false
}

// fastConfig shrinks every interval so loop behavior is observable within a
// test timeout.
func fastConfig() *config.Config {
	cfg := config.Default()
	cfg.Hostname = "testhost"
	cfg.DownGrace = 20 * time.Millisecond
	cfg.DownRecheck = 20 * time.Millisecond
	cfg.SweepEvery = 10 * time.Millisecond
	cfg.CheckPingEvery = 10 * time.Millisecond
	cfg.BackoffBase = time.Minute
	cfg.RecoveryQuiet = time.Minute

	return cfg
}

// TestLoopSeededExitedContainerAlerts runs the real loop against a fake
// runtime whose listing reports one exited container: the sweep must raise
// the down alert after the grace period, without any stream events.
func TestLoopSeededExitedContainerAlerts(t *testing.T) {
	t.Parallel()

	rt := newFakeRuntime([]watch.Observation{
		{ID: "abc123def456", Name: "web", Running: false},
	})
	disp := &recordingDispatcher{}
	svc := New(fastConfig(), rt, disp)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)

	go func() { done <- svc.Loop(ctx) }()

	require.Eventually(t, func() bool {
		return disp.contains("web container is down")
	}, 2*time.Second, 5*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}

// TestLoopStreamRecovery feeds a down-then-up sequence through the stream
// and expects the recovery notice after the down alert.
func TestLoopStreamRecovery(t *testing.T) {
	t.Parallel()

	rt := newFakeRuntime([]watch.Observation{
		{ID: "abc123def456", Name: "web", Running: false},
	})
	disp := &recordingDispatcher{}
	svc := New(fastConfig(), rt, disp)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)

	go func() { done <- svc.Loop(ctx) }()

	require.Eventually(t, func() bool {
		return disp.contains("web container is down")
	}, 2*time.Second, 5*time.Millisecond)

	// The container comes back: the listing and the stream agree.
	rt.setListing([]watch.Observation{
		{ID: "abc123def456", Name: "web", Running: true},
	})
	rt.events <- watch.ContainerEvent{ID: "abc123def456", Name: "web", Kind: watch.KindStart}

	require.Eventually(t, func() bool {
		return disp.contains("web container is back up")
	}, 2*time.Second, 5*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}

// TestLoopDaemonOutage flips the probe to failing and back and expects one
// daemon-down and one daemon-up notification.
func TestLoopDaemonOutage(t *testing.T) {
	t.Parallel()

	rt := newFakeRuntime(nil)
	disp := &recordingDispatcher{}
	svc := New(fastConfig(), rt, disp)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)

	go func() { done <- svc.Loop(ctx) }()

	// Let the healthy initial probe land first.
	time.Sleep(30 * time.Millisecond)

	rt.setPingErr(errors.New("connection refused"))

	require.Eventually(t, func() bool {
		return disp.contains("Docker daemon is down")
	}, 2*time.Second, 5*time.Millisecond)

	rt.setPingErr(nil)

	require.Eventually(t, func() bool {
		return disp.contains("Docker daemon is up")
	}, 2*time.Second, 5*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}
