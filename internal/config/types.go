package config

// Config is the effective configuration: defaults, then the optional config
// file, then environment variables.
//
// Secrets (tokens) normally come from the environment; the file fields exist
// for local runs and are overridden by the environment when both are set.
type Config struct {
	Practicum PracticumConfig `json:"practicum"`
	Telegram  TelegramConfig  `json:"telegram"`
	Poll      PollConfig      `json:"poll"`
	Logging   LoggingConfig   `json:"logging"`
	Storage   *StorageConfig  `json:"storage,omitempty"`
	Metrics   MetricsConfig   `json:"metrics,omitempty"`
}

type PracticumConfig struct {
	Token    string `json:"token,omitempty"`
	Endpoint string `json:"endpoint,omitempty"`
	// RequestTimeout is a Go duration string. It must be shorter than the poll period.
	RequestTimeout string `json:"request_timeout,omitempty"`
}

type TelegramConfig struct {
	Token string `json:"token,omitempty"`
	// ChatID is a numeric chat id or an @channel username.
	ChatID   ChatID `json:"chat_id,omitempty"`
	ThreadID int    `json:"thread_id,omitempty"`
	APIURL   string `json:"api_url,omitempty"`

	SendTimeout string `json:"send_timeout,omitempty"`
	RatePerSec  int    `json:"rate_per_sec,omitempty"`
	Silent      bool   `json:"silent,omitempty"`
}

// PollConfig controls the polling cadence.
//
// Schedule accepts a duration ("10m"), an HH:MM interval ("00:10") or a cron
// expression ("*/10 * * * *").
type PollConfig struct {
	Schedule string `json:"schedule,omitempty"`
	// InitialWindow is the first from_date (unix seconds). 0 means one period ago.
	InitialWindow int64 `json:"initial_window,omitempty"`
}

type LoggingConfig struct {
	Level    string          `json:"level"`
	Console  bool            `json:"console"`
	File     LoggingFile     `json:"file"`
	Telegram LoggingTelegram `json:"telegram"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

// LoggingTelegram forwards warn+ records to the notification chat.
type LoggingTelegram struct {
	Enabled    bool   `json:"enabled"`
	ThreadID   int    `json:"thread_id"`
	MinLevel   string `json:"min_level"`
	RatePerSec int    `json:"rate_per_sec"`
}

// StorageConfig enables the append-only audit journal.
//
// Example:
//
//	"storage": { "driver": "sqlite", "path": "./hwbot_audit.db" }
type StorageConfig struct {
	Driver      string `json:"driver"`
	Path        string `json:"path"`
	BusyTimeout string `json:"busy_timeout,omitempty"` // sqlite only
}

// MetricsConfig controls the metrics/health HTTP server.
//
// Prefer a loopback address. A non-loopback address needs a token or
// allow_insecure.
type MetricsConfig struct {
	Enabled       bool   `json:"enabled"`
	Addr          string `json:"addr,omitempty"`  // default: "127.0.0.1:9464"
	Token         string `json:"token,omitempty"` // optional bearer token (do not log)
	AllowInsecure bool   `json:"allow_insecure,omitempty"`
	Pprof         bool   `json:"pprof,omitempty"`

	ReadTimeout  string `json:"read_timeout,omitempty"`
	WriteTimeout string `json:"write_timeout,omitempty"`
	IdleTimeout  string `json:"idle_timeout,omitempty"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Poll: PollConfig{Schedule: DefaultSchedule},
		Logging: LoggingConfig{
			Level:   "info",
			Console: true,
		},
	}
}
