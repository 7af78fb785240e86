package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
)

// TestParseLogLevel verifies mapping from strings to zapcore.Level and handling of unknown values.
func TestParseLogLevel(t *testing.T) {
	t.Parallel()

	cases := map[string]zapcore.Level{
		"debug": zapcore.DebugLevel,
		"info":  zapcore.InfoLevel,
		"warn":  zapcore.WarnLevel,
		"error": zapcore.ErrorLevel,
		"fatal": zapcore.FatalLevel,
	}
	for s, lvl := range cases {
		got, ok := ParseLogLevel(s)
		require.True(t, ok)
		require.Equal(t, lvl, got)
	}

	_, ok := ParseLogLevel("unknown")
	require.False(t, ok)
}

// TestFromContext ensures context round-trips return the stored logger and
// fall back to the global one.
func TestFromContext(t *testing.T) {
	t.Parallel()

	require.Same(t, global, FromContext(context.Background()))

	l := zaptest.NewLogger(t).Sugar()
	ctx := ToContext(context.Background(), l)
	require.Same(t, l, FromContext(ctx))

	// Named and keyed loggers are derived, not the original.
	ctx = WithName(ctx, "watcher")
	require.NotSame(t, l, FromContext(ctx))
}
