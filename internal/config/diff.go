package config

import (
	"strings"

	logx "hwbot/pkg/logx"
)

// SummarizeConfigChange compares two configs. It returns the sections that
// changed, safe log fields (never tokens), and the subset of sections that
// only take effect after a restart.
func SummarizeConfigChange(oldCfg, newCfg *Config) (changed []string, attrs []logx.Field, restart []string) {
	if oldCfg == nil {
		oldCfg = &Config{}
	}
	if newCfg == nil {
		newCfg = &Config{}
	}

	o, n := oldCfg.Logging, newCfg.Logging
	if o != n {
		changed = append(changed, "logging")
		attrs = append(attrs,
			logx.String("logging.level", n.Level),
			logx.Bool("logging.console", n.Console),
			logx.Bool("logging.file_enabled", n.File.Enabled),
			logx.Bool("logging.telegram_enabled", n.Telegram.Enabled),
		)
	}

	if oldCfg.Practicum != newCfg.Practicum {
		changed = append(changed, "practicum")
		restart = append(restart, "practicum")
		attrs = append(attrs,
			logx.String("practicum.endpoint", strings.TrimSpace(newCfg.Practicum.Endpoint)),
			logx.String("practicum.request_timeout", newCfg.Practicum.RequestTimeout),
			logx.Bool("practicum.token_changed", oldCfg.Practicum.Token != newCfg.Practicum.Token),
		)
	}

	if oldCfg.Telegram != newCfg.Telegram {
		changed = append(changed, "telegram")
		restart = append(restart, "telegram")
		attrs = append(attrs,
			logx.String("telegram.chat_id", newCfg.Telegram.ChatID.String()),
			logx.String("telegram.send_timeout", newCfg.Telegram.SendTimeout),
			logx.Bool("telegram.token_changed", oldCfg.Telegram.Token != newCfg.Telegram.Token),
		)
	}

	if oldCfg.Poll != newCfg.Poll {
		changed = append(changed, "poll")
		restart = append(restart, "poll")
		attrs = append(attrs, logx.String("poll.schedule", newCfg.Poll.Schedule))
	}

	if derefStorage(oldCfg.Storage) != derefStorage(newCfg.Storage) {
		changed = append(changed, "storage")
		restart = append(restart, "storage")
		st := derefStorage(newCfg.Storage)
		attrs = append(attrs, logx.String("storage.driver", st.Driver), logx.String("storage.path", st.Path))
	}

	if oldCfg.Metrics != newCfg.Metrics {
		changed = append(changed, "metrics")
		restart = append(restart, "metrics")
		attrs = append(attrs,
			logx.Bool("metrics.enabled", newCfg.Metrics.Enabled),
			logx.String("metrics.addr", newCfg.Metrics.Addr),
		)
	}
	return changed, attrs, restart
}

func derefStorage(s *StorageConfig) StorageConfig {
	if s == nil {
		return StorageConfig{}
	}
	return *s
}
