package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// ApplyEnv overlays environment variables onto cfg. The variable names match
// the watcher's historical env surface, with *_SEC variables expressed as
// whole seconds. A .env file in the working directory is honored when present.
func ApplyEnv(cfg *Config) {
	// Missing .env is the normal case.
	_ = godotenv.Load()

	envInt("RESTARTS_IN_WINDOW", &cfg.RestartsInWindow)
	envSeconds("RESTART_WINDOW_SEC", &cfg.RestartWindow)
	envSeconds("BACKOFF_BASE_SEC", &cfg.BackoffBase)
	envSeconds("BACKOFF_MAX_SEC", &cfg.BackoffMax)
	envBool("INCLUDE_RECOVERY", &cfg.IncludeRecovery)
	envSeconds("CHECK_PING_EVERY", &cfg.CheckPingEvery)
	envSeconds("DOWN_GRACE_SEC", &cfg.DownGrace)
	envSeconds("NOTIFY_WINDOW_SEC", &cfg.NotifyWindow)
	envInt("MAX_NOTIFIES_IN_WINDOW", &cfg.MaxNotifiesInWindow)
	envSeconds("RECOVERY_QUIET_SEC", &cfg.RecoveryQuiet)
	envSeconds("SWEEP_ALL_EVERY_SEC", &cfg.SweepEvery)
	envSeconds("DOWN_RECHECK_SEC", &cfg.DownRecheck)
	envString("WATCHER_HOSTNAME", &cfg.Hostname)
	envString("LOG_LEVEL", &cfg.LogLevel)

	applySMTPEnv(cfg)
}

// applySMTPEnv creates or overlays the SMTP section from SMTP_* variables.
// Setting SMTP_HOST alone is enough to enable mail delivery.
func applySMTPEnv(cfg *Config) {
	if cfg.SMTP == nil {
		if os.Getenv("SMTP_HOST") == "" {
			return
		}

		cfg.SMTP = &SMTP{}
	}

	envString("SMTP_HOST", &cfg.SMTP.Host)
	envInt("SMTP_PORT", &cfg.SMTP.Port)
	envString("SMTP_FROM", &cfg.SMTP.From)
	envBool("SMTP_TLS", &cfg.SMTP.StartTLS)
	envString("SMTP_USER", &cfg.SMTP.User)
	envString("SMTP_PASS", &cfg.SMTP.Password)
	envSeconds("SMTP_TIMEOUT", &cfg.SMTP.Timeout)

	if raw := os.Getenv("SMTP_TO"); raw != "" {
		var to []string

		for _, addr := range strings.Split(raw, ",") {
			if addr = strings.TrimSpace(addr); addr != "" {
				to = append(to, addr)
			}
		}

		cfg.SMTP.To = to
	}
}

func envString(name string, target *string) {
	if v := os.Getenv(name); v != "" {
		*target = v
	}
}

func envInt(name string, target *int) {
	v := os.Getenv(name)
	if v == "" {
		return
	}

	if n, err := strconv.Atoi(v); err == nil {
		*target = n
	}
}

func envSeconds(name string, target *time.Duration) {
	v := os.Getenv(name)
	if v == "" {
		return
	}

	if n, err := strconv.Atoi(v); err == nil {
		*target = time.Duration(n) * time.Second
	}
}

func envBool(name string, target *bool) {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(name)))
	if v == "" {
		return
	}

	switch v {
	case "1", "true", "yes", "on":
		*target = true
	default:
		*target = false
	}
}
