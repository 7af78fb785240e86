package monitor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/docker-watchman/internal/domain/watch"
)

func TestArmBackoffDoublesAndCaps(t *testing.T) {
	t.Parallel()

	rec := &watch.ContainerRecord{}
	base := 60 * time.Second
	max := 300 * time.Second

	expected := []time.Duration{
		60 * time.Second,
		120 * time.Second,
		240 * time.Second,
		300 * time.Second, // 480 clamped to max.
		300 * time.Second,
	}

	for i, want := range expected {
		armBackoff(rec, at(0), base, max)
		require.Equal(t, at(0).Add(want), rec.MutedUntil, "step %d", i)
	}

	require.Equal(t, 5, rec.BackoffLevel)
}

// TestArmBackoffLevelOverflow verifies huge levels never shift into a
// negative delay and always clamp to the max.
func TestArmBackoffLevelOverflow(t *testing.T) {
	t.Parallel()

	rec := &watch.ContainerRecord{BackoffLevel: maxBackoffLevel}

	armBackoff(rec, at(0), time.Hour, 2*time.Hour)
	require.Equal(t, at(0).Add(2*time.Hour), rec.MutedUntil)
	require.Equal(t, maxBackoffLevel, rec.BackoffLevel)
}
