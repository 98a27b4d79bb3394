package app

import (
	"fmt"
	"strings"
	"time"

	"hwbot/internal/config"
	"hwbot/internal/notifier"
	"hwbot/internal/observability/metrics"
	"hwbot/internal/storage"
	kit "hwbot/internal/transport"
	logx "hwbot/pkg/logx"
)

func mapLogConfig(cfg *config.Config) logx.Config {
	l := cfg.Logging
	return logx.Config{
		Level:   l.Level,
		Console: l.Console,
		File: logx.FileConfig{
			Enabled: l.File.Enabled,
			Path:    l.File.Path,
		},
		Telegram: logx.TelegramConfig{
			Enabled:    l.Telegram.Enabled,
			MinLevel:   l.Telegram.MinLevel,
			RatePerSec: l.Telegram.RatePerSec,
		},
	}
}

func chatTarget(cfg *config.Config) kit.ChatTarget {
	return kit.ChatTarget{
		Chat:     strings.TrimSpace(cfg.Telegram.ChatID.String()),
		ThreadID: cfg.Telegram.ThreadID,
	}
}

// logTarget is the chat for forwarded log records: the notification chat,
// optionally in its own forum topic.
func logTarget(cfg *config.Config) kit.ChatTarget {
	to := chatTarget(cfg)
	if cfg.Logging.Telegram.ThreadID != 0 {
		to.ThreadID = cfg.Logging.Telegram.ThreadID
	}
	return to
}

func mapNotifierConfig(cfg *config.Config) (notifier.Config, error) {
	timeout, err := cfg.SendTimeout()
	if err != nil {
		return notifier.Config{}, err
	}
	return notifier.Config{
		Target:      chatTarget(cfg),
		SendTimeout: timeout,
		RatePerSec:  cfg.Telegram.RatePerSec,
		Silent:      cfg.Telegram.Silent,
	}, nil
}

// mapStorageConfig returns enabled=false when no journal is configured.
func mapStorageConfig(cfg *config.Config) (storage.Config, bool, error) {
	if cfg.Storage == nil {
		return storage.Config{}, false, nil
	}
	driver, ok := storage.NormalizeDriver(cfg.Storage.Driver)
	if !ok {
		return storage.Config{}, false, fmt.Errorf("storage.driver: unknown driver %q", cfg.Storage.Driver)
	}
	if driver == "" {
		return storage.Config{}, false, nil
	}
	busy, err := config.ParseDurationOrDefault("storage.busy_timeout", cfg.Storage.BusyTimeout, time.Second)
	if err != nil {
		return storage.Config{}, false, err
	}
	return storage.Config{Driver: driver, Path: strings.TrimSpace(cfg.Storage.Path), BusyTimeout: busy}, true, nil
}

// mapMetricsConfig derives StaleAfter from the poll cadence: three missed
// periods plus one request timeout.
func mapMetricsConfig(cfg *config.Config, period, requestTimeout time.Duration) (metrics.Config, error) {
	m := cfg.Metrics
	read, err := config.ParseDurationField("metrics.read_timeout", m.ReadTimeout)
	if err != nil {
		return metrics.Config{}, err
	}
	write, err := config.ParseDurationField("metrics.write_timeout", m.WriteTimeout)
	if err != nil {
		return metrics.Config{}, err
	}
	idle, err := config.ParseDurationField("metrics.idle_timeout", m.IdleTimeout)
	if err != nil {
		return metrics.Config{}, err
	}
	addr := strings.TrimSpace(m.Addr)
	if addr == "" {
		addr = config.DefaultMetricsAddr
	}
	return metrics.Config{
		Addr:          addr,
		Token:         m.Token,
		AllowInsecure: m.AllowInsecure,
		Pprof:         m.Pprof,
		StaleAfter:    3*period + requestTimeout,
		ReadTimeout:   read,
		WriteTimeout:  write,
		IdleTimeout:   idle,
	}, nil
}

// botRequestTimeout is the Bot API http timeout for sendTimeout. It stays
// below the notifier deadline so the http call always finishes first.
func botRequestTimeout(sendTimeout time.Duration) time.Duration {
	margin := sendTimeout / 5
	if margin > 2*time.Second {
		margin = 2 * time.Second
	}
	return sendTimeout - margin
}
