package config

import (
	"errors"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

const (
	EnvPracticumToken    = "PRACTICUM_TOKEN"
	EnvTelegramToken     = "TELEGRAM_TOKEN"
	EnvTelegramChatID    = "TELEGRAM_CHAT_ID"
	EnvPracticumEndpoint = "PRACTICUM_ENDPOINT"
	EnvPollInterval      = "POLL_INTERVAL"
	EnvLogLevel          = "LOG_LEVEL"
)

// LoadDotEnv loads the first existing file among paths into the process
// environment. Variables that are already set are never overridden.
// It returns the path that was loaded, or "" when none exists.
func LoadDotEnv(paths ...string) (string, error) {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return "", err
		}
		if err := godotenv.Load(p); err != nil {
			return "", err
		}
		return p, nil
	}
	return "", nil
}

// ApplyEnv overlays environment variables on cfg. Empty values are ignored.
func ApplyEnv(cfg *Config, getenv func(string) string) {
	if cfg == nil {
		return
	}
	if getenv == nil {
		getenv = os.Getenv
	}
	set := func(dst *string, key string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}
	set(&cfg.Practicum.Token, EnvPracticumToken)
	set(&cfg.Practicum.Endpoint, EnvPracticumEndpoint)
	set(&cfg.Telegram.Token, EnvTelegramToken)
	set((*string)(&cfg.Telegram.ChatID), EnvTelegramChatID)
	set(&cfg.Poll.Schedule, EnvPollInterval)
	set(&cfg.Logging.Level, EnvLogLevel)
}
