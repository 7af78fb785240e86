package runtime

import (
	"testing"
	"time"

	"github.com/docker/docker/api/types/events"
	"github.com/stretchr/testify/require"

	"github.com/oshokin/docker-watchman/internal/domain/watch"
)

// TestNormalize verifies required-field checks, kind classification and
// timestamp selection.
func TestNormalize(t *testing.T) {
	t.Parallel()

	base := events.Message{
		Type:   events.ContainerEventType,
		Action: "die",
		Actor: events.Actor{
			ID: "c1",
			Attributes: map[string]string{
				"name":  "/web",
				"image": "nginx:latest",
			},
		},
		Time:     100,
		TimeNano: 100_000_000_500,
	}

	ev, err := Normalize(base)
	require.NoError(t, err)
	require.Equal(t, "c1", ev.ID)
	require.Equal(t, "web", ev.Name)
	require.Equal(t, "nginx:latest", ev.Image)
	require.Equal(t, watch.KindDie, ev.Kind)

	// Nanosecond timestamp wins when present.
	require.Equal(t, time.Unix(0, 100_000_000_500), ev.Timestamp)

	// Seconds-only timestamp.
	noNano := base
	noNano.TimeNano = 0

	ev, err = Normalize(noNano)
	require.NoError(t, err)
	require.Equal(t, time.Unix(100, 0), ev.Timestamp)

	// Missing id.
	broken := base
	broken.Actor.ID = ""

	_, err = Normalize(broken)
	require.ErrorIs(t, err, ErrMalformedEvent)

	// Missing action.
	broken = base
	broken.Action = ""

	_, err = Normalize(broken)
	require.ErrorIs(t, err, ErrMalformedEvent)

	// Missing timestamp.
	broken = base
	broken.Time = 0
	broken.TimeNano = 0

	_, err = Normalize(broken)
	require.ErrorIs(t, err, ErrMalformedEvent)

	// Non-container type.
	broken = base
	broken.Type = events.NetworkEventType

	_, err = Normalize(broken)
	require.ErrorIs(t, err, ErrMalformedEvent)
}

// TestClassifyAction covers the watched actions and the catch-all.
func TestClassifyAction(t *testing.T) {
	t.Parallel()

	cases := map[events.Action]watch.EventKind{
		events.ActionStart:   watch.KindStart,
		events.ActionRestart: watch.KindStart,
		events.ActionStop:    watch.KindStop,
		events.ActionDie:     watch.KindDie,
		events.ActionOOM:     watch.KindOOM,
		"rename":             watch.KindOther,
		"exec_start: sh -c":  watch.KindOther,
	}
	for action, kind := range cases {
		require.Equal(t, kind, classifyAction(action), "action %q", action)
	}
}
