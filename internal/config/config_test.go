package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestValidate checks invariant enforcement for thresholds and SMTP settings.
func TestValidate(t *testing.T) {
	t.Parallel()

	// Defaults pass.
	cfg := Default()
	require.NoError(t, Validate(cfg))
	require.NotEmpty(t, cfg.Hostname)

	// Non-positive duration.
	cfg = Default()
	cfg.DownGrace = 0

	require.Error(t, Validate(cfg))

	// Backoff ordering.
	cfg = Default()
	cfg.BackoffBase = 2 * time.Hour
	cfg.BackoffMax = time.Hour

	require.ErrorIs(t, Validate(cfg), errBackoffOrder)

	// SMTP without host.
	cfg = Default()
	cfg.SMTP = &SMTP{To: []string{"root@localhost"}}

	require.ErrorIs(t, Validate(cfg), ErrNoSMTPHost)

	// SMTP without recipients.
	cfg = Default()
	cfg.SMTP = &SMTP{Host: "mail"}

	require.ErrorIs(t, Validate(cfg), ErrNoRecipients)

	// SMTP defaults fill in.
	cfg = Default()
	cfg.SMTP = &SMTP{
		Host: "mail",
		To:   []string{"root@localhost"},
	}

	require.NoError(t, Validate(cfg))
	require.Equal(t, DefaultSMTPPort, cfg.SMTP.Port)
	require.Equal(t, DefaultSMTPTimeout, cfg.SMTP.Timeout)
}

// TestLoad verifies YAML parsing, missing-file behavior and validation wiring.
func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "settings.yaml")

	contents := []byte(`
restarts_in_window: 5
restart_window: 90s
down_grace: 30s
hostname: testhost
smtp:
  host: mail.local
  to: [root@localhost, ops@localhost]
`)
	require.NoError(t, os.WriteFile(path, contents, 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 5, cfg.RestartsInWindow)
	require.Equal(t, 90*time.Second, cfg.RestartWindow)
	require.Equal(t, 30*time.Second, cfg.DownGrace)
	require.Equal(t, "testhost", cfg.Hostname)
	require.Len(t, cfg.SMTP.To, 2)

	// Untouched keys keep defaults.
	require.Equal(t, time.Hour, cfg.NotifyWindow)

	// Missing file falls back to defaults.
	cfg, err = Load(filepath.Join(dir, "absent.yaml"))
	require.NoError(t, err)
	require.Equal(t, 3, cfg.RestartsInWindow)

	// Invalid YAML is an error.
	require.NoError(t, os.WriteFile(path, []byte("{not yaml"), 0o600))

	_, err = Load(path)
	require.Error(t, err)
}

// TestApplyEnv verifies that environment variables override file settings.
func TestApplyEnv(t *testing.T) {
	t.Setenv("RESTARTS_IN_WINDOW", "7")
	t.Setenv("RESTART_WINDOW_SEC", "120")
	t.Setenv("INCLUDE_RECOVERY", "no")
	t.Setenv("SMTP_HOST", "relay.local")
	t.Setenv("SMTP_TO", "a@b.c, d@e.f ,")

	cfg := Default()
	ApplyEnv(cfg)

	require.Equal(t, 7, cfg.RestartsInWindow)
	require.Equal(t, 120*time.Second, cfg.RestartWindow)
	require.False(t, cfg.IncludeRecovery)
	require.NotNil(t, cfg.SMTP)
	require.Equal(t, "relay.local", cfg.SMTP.Host)
	require.Equal(t, []string{"a@b.c", "d@e.f"}, cfg.SMTP.To)
}
