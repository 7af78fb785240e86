package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// SMTP holds mail delivery settings for the alert dispatcher.
type SMTP struct {
	// Host is the mail relay hostname.
	Host string `yaml:"host"`
	// Port is the mail relay port.
	Port int `yaml:"port"`
	// From is the envelope and header sender address.
	From string `yaml:"from"`
	// To lists recipient addresses.
	To []string `yaml:"to"`
	// StartTLS upgrades the connection via STARTTLS before sending.
	StartTLS bool `yaml:"starttls"`
	// User is the optional SMTP auth username.
	User string `yaml:"user"`
	// Password is the optional SMTP auth password.
	Password string `yaml:"password"`
	// Timeout bounds the whole SMTP conversation.
	Timeout time.Duration `yaml:"timeout"`
}

// Webhook is one HTTP notification target receiving alert JSON via POST.
type Webhook struct {
	// URL is the endpoint receiving the alert payload.
	URL string `yaml:"url"`
}

// Config holds all watcher settings. YAML keys can be overridden through the
// environment (see ApplyEnv), which keeps the watcher usable with env-only
// configuration inside a container.
type Config struct {
	// RestartsInWindow is the restart count that qualifies as a loop.
	RestartsInWindow int `yaml:"restarts_in_window"`
	// RestartWindow is the trailing window for loop detection.
	RestartWindow time.Duration `yaml:"restart_window"`
	// BackoffBase is the first mute interval after an alert fires.
	BackoffBase time.Duration `yaml:"backoff_base"`
	// BackoffMax caps the exponential mute interval.
	BackoffMax time.Duration `yaml:"backoff_max"`
	// IncludeRecovery enables back-up notices after a delivered down alert.
	IncludeRecovery bool `yaml:"include_recovery"`
	// CheckPingEvery is the daemon liveness probe interval.
	CheckPingEvery time.Duration `yaml:"check_ping_every"`
	// DownGrace is the minimum continuous exited duration before a down
	// alert is considered real.
	DownGrace time.Duration `yaml:"down_grace"`
	// NotifyWindow is the trailing window for the per-container
	// notification cap.
	NotifyWindow time.Duration `yaml:"notify_window"`
	// MaxNotifiesInWindow is the delivery cap inside NotifyWindow.
	MaxNotifiesInWindow int `yaml:"max_notifies_in_window"`
	// RecoveryQuiet is the continuous running duration that releases the
	// notification cap.
	RecoveryQuiet time.Duration `yaml:"recovery_quiet"`
	// SweepEvery is the interval of the full-registry reconciliation sweep.
	SweepEvery time.Duration `yaml:"sweep_every"`
	// DownRecheck is the extra delay before the first down alert of a
	// streak, counted from when the container was first seen down.
	DownRecheck time.Duration `yaml:"down_recheck"`
	// Hostname identifies this watcher in alert text.
	Hostname string `yaml:"hostname"`
	// LogLevel sets the minimum level for the process logger.
	LogLevel string `yaml:"log_level"`
	// SMTP configures mail delivery. Nil disables it.
	SMTP *SMTP `yaml:"smtp"`
	// Webhooks lists HTTP notification targets.
	Webhooks []Webhook `yaml:"webhooks"`
}

const (
	// DefaultConfigFilename is the default settings file name.
	DefaultConfigFilename = "docker-watchman.yaml"

	// DefaultSMTPPort is the default mail relay port.
	DefaultSMTPPort = 25

	// DefaultSMTPTimeout bounds the SMTP conversation by default.
	DefaultSMTPTimeout = 15 * time.Second
)

var (
	// ErrNoRecipients is returned when SMTP is configured without recipients.
	ErrNoRecipients = errors.New("smtp requires at least one recipient")
	// ErrNoSMTPHost is returned when SMTP is configured without a host.
	ErrNoSMTPHost = errors.New("smtp requires a host")
	// errBackoffOrder is returned when the base mute interval exceeds the cap.
	errBackoffOrder = errors.New("backoff_base must not exceed backoff_max")
)

// durationValue parses a settings duration: either a Go duration string
// ("90s", "2m") or a bare number of whole seconds.
type durationValue time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *durationValue) UnmarshalYAML(node *yaml.Node) error {
	var n int64
	if err := node.Decode(&n); err == nil {
		*d = durationValue(time.Duration(n) * time.Second)
		return nil
	}

	var s string
	if err := node.Decode(&s); err != nil {
		return fmt.Errorf("invalid duration: %w", err)
	}

	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}

	*d = durationValue(parsed)

	return nil
}

// UnmarshalYAML decodes the mail settings, routing the timeout through
// durationValue.
func (s *SMTP) UnmarshalYAML(node *yaml.Node) error {
	var raw struct {
		Host     string         `yaml:"host"`
		Port     int            `yaml:"port"`
		From     string         `yaml:"from"`
		To       []string       `yaml:"to"`
		StartTLS bool           `yaml:"starttls"`
		User     string         `yaml:"user"`
		Password string         `yaml:"password"`
		Timeout  *durationValue `yaml:"timeout"`
	}

	if err := node.Decode(&raw); err != nil {
		return err
	}

	s.Host = raw.Host
	s.Port = raw.Port
	s.From = raw.From
	s.To = raw.To
	s.StartTLS = raw.StartTLS
	s.User = raw.User
	s.Password = raw.Password

	if raw.Timeout != nil {
		s.Timeout = time.Duration(*raw.Timeout)
	}

	return nil
}

// UnmarshalYAML decodes the settings file. Keys absent from the file keep
// their current values, so defaults survive partial files.
func (c *Config) UnmarshalYAML(node *yaml.Node) error {
	var raw struct {
		RestartsInWindow    *int           `yaml:"restarts_in_window"`
		RestartWindow       *durationValue `yaml:"restart_window"`
		BackoffBase         *durationValue `yaml:"backoff_base"`
		BackoffMax          *durationValue `yaml:"backoff_max"`
		IncludeRecovery     *bool          `yaml:"include_recovery"`
		CheckPingEvery      *durationValue `yaml:"check_ping_every"`
		DownGrace           *durationValue `yaml:"down_grace"`
		NotifyWindow        *durationValue `yaml:"notify_window"`
		MaxNotifiesInWindow *int           `yaml:"max_notifies_in_window"`
		RecoveryQuiet       *durationValue `yaml:"recovery_quiet"`
		SweepEvery          *durationValue `yaml:"sweep_every"`
		DownRecheck         *durationValue `yaml:"down_recheck"`
		Hostname            *string        `yaml:"hostname"`
		LogLevel            *string        `yaml:"log_level"`
		SMTP                *SMTP          `yaml:"smtp"`
		Webhooks            []Webhook      `yaml:"webhooks"`
	}

	if err := node.Decode(&raw); err != nil {
		return err
	}

	setInt(&c.RestartsInWindow, raw.RestartsInWindow)
	setDuration(&c.RestartWindow, raw.RestartWindow)
	setDuration(&c.BackoffBase, raw.BackoffBase)
	setDuration(&c.BackoffMax, raw.BackoffMax)
	setDuration(&c.CheckPingEvery, raw.CheckPingEvery)
	setDuration(&c.DownGrace, raw.DownGrace)
	setDuration(&c.NotifyWindow, raw.NotifyWindow)
	setInt(&c.MaxNotifiesInWindow, raw.MaxNotifiesInWindow)
	setDuration(&c.RecoveryQuiet, raw.RecoveryQuiet)
	setDuration(&c.SweepEvery, raw.SweepEvery)
	setDuration(&c.DownRecheck, raw.DownRecheck)

	if raw.IncludeRecovery != nil {
		c.IncludeRecovery = *raw.IncludeRecovery
	}

	if raw.Hostname != nil {
		c.Hostname = *raw.Hostname
	}

	if raw.LogLevel != nil {
		c.LogLevel = *raw.LogLevel
	}

	if raw.SMTP != nil {
		c.SMTP = raw.SMTP
	}

	if raw.Webhooks != nil {
		c.Webhooks = raw.Webhooks
	}

	return nil
}

func setInt(dst *int, src *int) {
	if src != nil {
		*dst = *src
	}
}

func setDuration(dst *time.Duration, src *durationValue) {
	if src != nil {
		*dst = time.Duration(*src)
	}
}

// Default returns a Config populated with the stock thresholds.
func Default() *Config {
	return &Config{
		RestartsInWindow:    3,
		RestartWindow:       60 * time.Second,
		BackoffBase:         60 * time.Second,
		BackoffMax:          3600 * time.Second,
		IncludeRecovery:     true,
		CheckPingEvery:      60 * time.Second,
		DownGrace:           60 * time.Second,
		NotifyWindow:        time.Hour,
		MaxNotifiesInWindow: 3,
		RecoveryQuiet:       10 * time.Minute,
		SweepEvery:          10 * time.Second,
		DownRecheck:         60 * time.Second,
		LogLevel:            "info",
	}
}

// Load reads configuration from the provided path, applies environment
// overrides and validates the result. A missing file is not an error: the
// watcher then runs on defaults plus environment, matching container-only
// deployments with no mounted settings file.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	cfg := Default()

	contents, err := os.ReadFile(filepath.Clean(path))
	switch {
	case err == nil:
		if err = yaml.Unmarshal(contents, cfg); err != nil {
			return nil, fmt.Errorf("unmarshal settings: %w", err)
		}
	case errors.Is(err, os.ErrNotExist):
		// Defaults plus environment.
	default:
		return nil, fmt.Errorf("read settings: %w", err)
	}

	ApplyEnv(cfg)

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the provided settings for invariant violations.
// Violations abort startup before the event loop begins.
func Validate(cfg *Config) error {
	positives := map[string]time.Duration{
		"restart_window":   cfg.RestartWindow,
		"backoff_base":     cfg.BackoffBase,
		"backoff_max":      cfg.BackoffMax,
		"check_ping_every": cfg.CheckPingEvery,
		"down_grace":       cfg.DownGrace,
		"notify_window":    cfg.NotifyWindow,
		"recovery_quiet":   cfg.RecoveryQuiet,
		"sweep_every":      cfg.SweepEvery,
		"down_recheck":     cfg.DownRecheck,
	}
	for name, d := range positives {
		if d <= 0 {
			return fmt.Errorf("%s must be positive, got %s", name, d)
		}
	}

	if cfg.RestartsInWindow < 1 {
		return fmt.Errorf("restarts_in_window must be at least 1, got %d", cfg.RestartsInWindow)
	}

	if cfg.MaxNotifiesInWindow < 1 {
		return fmt.Errorf("max_notifies_in_window must be at least 1, got %d", cfg.MaxNotifiesInWindow)
	}

	if cfg.BackoffBase > cfg.BackoffMax {
		return errBackoffOrder
	}

	if cfg.Hostname == "" {
		hostname, err := os.Hostname()
		if err != nil {
			return fmt.Errorf("detect hostname: %w", err)
		}

		cfg.Hostname = hostname
	}

	if cfg.SMTP != nil {
		if cfg.SMTP.Host == "" {
			return ErrNoSMTPHost
		}

		if len(cfg.SMTP.To) == 0 {
			return ErrNoRecipients
		}

		if cfg.SMTP.Port <= 0 {
			cfg.SMTP.Port = DefaultSMTPPort
		}

		if cfg.SMTP.Timeout <= 0 {
			cfg.SMTP.Timeout = DefaultSMTPTimeout
		}
	}

	return nil
}
