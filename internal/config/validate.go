package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"hwbot/internal/poller"
	"hwbot/internal/storage"
)

const (
	DefaultSchedule       = "10m"
	DefaultRequestTimeout = 30 * time.Second
	DefaultSendTimeout    = 10 * time.Second
	DefaultMetricsAddr    = "127.0.0.1:9464"
)

// Validate checks cfg. Missing credentials are reported together in one
// *ConfigError; any other problem is a *ConfigError naming the field.
func (c *Config) Validate() error {
	if c == nil {
		return &ConfigError{Err: fmt.Errorf("config is nil")}
	}
	var missing []string
	if strings.TrimSpace(c.Practicum.Token) == "" {
		missing = append(missing, EnvPracticumToken)
	}
	if strings.TrimSpace(c.Telegram.Token) == "" {
		missing = append(missing, EnvTelegramToken)
	}
	if strings.TrimSpace(string(c.Telegram.ChatID)) == "" {
		missing = append(missing, EnvTelegramChatID)
	}
	if len(missing) > 0 {
		return &ConfigError{Missing: missing, Err: ErrMissingCredentials}
	}

	if ep := strings.TrimSpace(c.Practicum.Endpoint); ep != "" {
		u, err := url.Parse(ep)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return &ConfigError{Field: "practicum.endpoint", Err: fmt.Errorf("invalid url %q", ep)}
		}
	}

	sched, err := c.Schedule()
	if err != nil {
		return &ConfigError{Field: "poll.schedule", Err: err}
	}
	timeout, err := c.RequestTimeout()
	if err != nil {
		return &ConfigError{Field: "practicum.request_timeout", Err: err}
	}
	if period := sched.Period(time.Now()); timeout >= period {
		return &ConfigError{
			Field: "practicum.request_timeout",
			Err:   fmt.Errorf("%s must be shorter than the poll period %s", timeout, period),
		}
	}
	if _, err := c.SendTimeout(); err != nil {
		return &ConfigError{Field: "telegram.send_timeout", Err: err}
	}
	if c.Telegram.RatePerSec < 0 {
		return &ConfigError{Field: "telegram.rate_per_sec", Err: fmt.Errorf("must be >= 0")}
	}

	if st := c.Storage; st != nil {
		if _, ok := storage.NormalizeDriver(st.Driver); !ok {
			return &ConfigError{Field: "storage.driver", Err: fmt.Errorf("unknown driver %q", st.Driver)}
		}
		if _, err := ParseDurationField("storage.busy_timeout", st.BusyTimeout); err != nil {
			return &ConfigError{Field: "storage.busy_timeout", Err: err}
		}
	}

	m := c.Metrics
	for path, raw := range map[string]string{
		"metrics.read_timeout":  m.ReadTimeout,
		"metrics.write_timeout": m.WriteTimeout,
		"metrics.idle_timeout":  m.IdleTimeout,
	} {
		if _, err := ParseDurationField(path, raw); err != nil {
			return &ConfigError{Field: path, Err: err}
		}
	}
	return nil
}

func (c *Config) Schedule() (poller.Schedule, error) {
	raw := strings.TrimSpace(c.Poll.Schedule)
	if raw == "" {
		raw = DefaultSchedule
	}
	return poller.ParseSchedule(raw)
}

func (c *Config) RequestTimeout() (time.Duration, error) {
	return ParseDurationOrDefault("practicum.request_timeout", c.Practicum.RequestTimeout, DefaultRequestTimeout)
}

func (c *Config) SendTimeout() (time.Duration, error) {
	return ParseDurationOrDefault("telegram.send_timeout", c.Telegram.SendTimeout, DefaultSendTimeout)
}
