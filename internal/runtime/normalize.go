package runtime

import (
	"errors"
	"strings"
	"time"

	"github.com/docker/docker/api/types/events"

	"github.com/oshokin/docker-watchman/internal/domain/watch"
)

// ErrMalformedEvent is returned when a raw daemon event lacks a required
// field (container id, action or timestamp).
var ErrMalformedEvent = errors.New("malformed runtime event")

// Normalize maps a raw daemon event into the canonical domain event.
// Actions outside the watched set classify to the catch-all kind and are
// still forwarded. Events of a non-container type are rejected as malformed;
// the stream filter should never deliver them.
func Normalize(msg events.Message) (watch.ContainerEvent, error) {
	if msg.Type != "" && msg.Type != events.ContainerEventType {
		return watch.ContainerEvent{}, ErrMalformedEvent
	}

	id := msg.Actor.ID
	if id == "" {
		return watch.ContainerEvent{}, ErrMalformedEvent
	}

	if msg.Action == "" {
		return watch.ContainerEvent{}, ErrMalformedEvent
	}

	if msg.Time == 0 && msg.TimeNano == 0 {
		return watch.ContainerEvent{}, ErrMalformedEvent
	}

	timestamp := time.Unix(msg.Time, 0)
	if msg.TimeNano > 0 {
		timestamp = time.Unix(0, msg.TimeNano)
	}

	return watch.ContainerEvent{
		ID:        id,
		Name:      strings.TrimPrefix(msg.Actor.Attributes["name"], "/"),
		Image:     msg.Actor.Attributes["image"],
		Kind:      classifyAction(msg.Action),
		Timestamp: timestamp,
	}, nil
}

// classifyAction maps a daemon action to the normalized event kind.
// Health-check and exec actions arrive suffixed (e.g. "exec_start: sh");
// anything unrecognized is the catch-all.
func classifyAction(action events.Action) watch.EventKind {
	base, _, _ := strings.Cut(string(action), ":")

	switch events.Action(strings.TrimSpace(base)) {
	case events.ActionStart, events.ActionRestart:
		return watch.KindStart
	case events.ActionStop:
		return watch.KindStop
	case events.ActionDie:
		return watch.KindDie
	case events.ActionOOM:
		return watch.KindOOM
	default:
		return watch.KindOther
	}
}
