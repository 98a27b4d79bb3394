package config

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func fakeEnv(kv map[string]string) func(string) string {
	return func(k string) string { return kv[k] }
}

var fullEnv = map[string]string{
	EnvPracticumToken: "practicum-secret",
	EnvTelegramToken:  "123:telegram-secret",
	EnvTelegramChatID: "424242",
}

func newManager(t *testing.T, path string, env map[string]string) *ConfigManager {
	t.Helper()
	m := NewConfigManager(path)
	m.SetEnv(fakeEnv(env))
	return m
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", p, err)
	}
	return p
}

func TestLoadFromEnvOnly(t *testing.T) {
	t.Parallel()
	cfg, err := newManager(t, "", fullEnv).Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Practicum.Token != "practicum-secret" || cfg.Telegram.ChatID != "424242" {
		t.Fatalf("env not applied: %+v", cfg)
	}
	sch, err := cfg.Schedule()
	if err != nil || sch.Every != 10*time.Minute {
		t.Fatalf("default schedule = %+v, %v", sch, err)
	}
	if d, _ := cfg.RequestTimeout(); d != DefaultRequestTimeout {
		t.Fatalf("RequestTimeout = %s", d)
	}
	if d, _ := cfg.SendTimeout(); d != DefaultSendTimeout {
		t.Fatalf("SendTimeout = %s", d)
	}
}

func TestLoadMissingCredentials(t *testing.T) {
	t.Parallel()
	_, err := newManager(t, "", map[string]string{EnvTelegramToken: "x"}).Load()
	var ce *ConfigError
	if !errors.As(err, &ce) {
		t.Fatalf("expected *ConfigError, got %v", err)
	}
	want := []string{EnvPracticumToken, EnvTelegramChatID}
	if !reflect.DeepEqual(ce.Missing, want) {
		t.Fatalf("Missing = %v, want %v", ce.Missing, want)
	}
	if !errors.Is(err, ErrMissingCredentials) {
		t.Fatal("errors.Is(err, ErrMissingCredentials) = false")
	}
}

func TestLoadYAMLWithEnvOverride(t *testing.T) {
	t.Parallel()
	p := writeFile(t, "config.yaml", `
practicum:
  token: from-file
  request_timeout: 5s
telegram:
  chat_id: -1001234567890
  send_timeout: 3s
poll:
  schedule: "*/15 * * * *"
logging:
  level: debug
  console: true
storage:
  driver: file
  path: ./audit
`)
	env := map[string]string{
		EnvPracticumToken: "from-env",
		EnvTelegramToken:  "tg",
	}
	cfg, err := newManager(t, p, env).Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Practicum.Token != "from-env" {
		t.Fatalf("env must win over file, got %q", cfg.Practicum.Token)
	}
	if cfg.Telegram.ChatID != "-1001234567890" {
		t.Fatalf("ChatID = %q", cfg.Telegram.ChatID)
	}
	if cfg.Storage == nil || cfg.Storage.Driver != "file" {
		t.Fatalf("Storage = %+v", cfg.Storage)
	}
	if cfg.Logging.Level != "debug" {
		t.Fatalf("Level = %q", cfg.Logging.Level)
	}
}

func TestLoadJSONRejectsUnknownField(t *testing.T) {
	t.Parallel()
	p := writeFile(t, "config.json", `{"poll": {"schedule": "10m", "retry": 3}}`)
	_, err := newManager(t, p, fullEnv).Load()
	var ce *ConfigError
	if !errors.As(err, &ce) || ce.Field != "file" {
		t.Fatalf("expected file ConfigError, got %v", err)
	}
}

func TestValidateRejects(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		mut   func(*Config)
		field string
	}{
		{"timeout not shorter than period", func(c *Config) {
			c.Poll.Schedule = "30s"
			c.Practicum.RequestTimeout = "30s"
		}, "practicum.request_timeout"},
		{"bad schedule", func(c *Config) { c.Poll.Schedule = "whenever" }, "poll.schedule"},
		{"bad endpoint", func(c *Config) { c.Practicum.Endpoint = "not a url" }, "practicum.endpoint"},
		{"negative send timeout", func(c *Config) { c.Telegram.SendTimeout = "-1s" }, "telegram.send_timeout"},
		{"unknown storage", func(c *Config) { c.Storage = &StorageConfig{Driver: "redis"} }, "storage.driver"},
		{"bad metrics timeout", func(c *Config) { c.Metrics.IdleTimeout = "soon" }, "metrics.idle_timeout"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := Default()
			ApplyEnv(cfg, fakeEnv(fullEnv))
			tt.mut(cfg)
			err := cfg.Validate()
			var ce *ConfigError
			if !errors.As(err, &ce) {
				t.Fatalf("expected *ConfigError, got %v", err)
			}
			if ce.Field != tt.field {
				t.Fatalf("Field = %q, want %q (%v)", ce.Field, tt.field, err)
			}
		})
	}
}

func TestValidateAcceptsStorageDrivers(t *testing.T) {
	t.Parallel()
	for _, driver := range []string{"", "none", "file", "sqlite", "sqlite3", "SQLite3"} {
		cfg := Default()
		ApplyEnv(cfg, fakeEnv(fullEnv))
		cfg.Storage = &StorageConfig{Driver: driver, Path: "hw.db"}
		if err := cfg.Validate(); err != nil {
			t.Fatalf("driver %q rejected: %v", driver, err)
		}
	}
}

func TestChatIDAcceptsNumberAndString(t *testing.T) {
	t.Parallel()
	for in, want := range map[string]ChatID{`123`: "123", `"@news"`: "@news", `-100500`: "-100500"} {
		var c ChatID
		if err := c.UnmarshalJSON([]byte(in)); err != nil {
			t.Fatalf("UnmarshalJSON(%s): %v", in, err)
		}
		if c != want {
			t.Fatalf("UnmarshalJSON(%s) = %q, want %q", in, c, want)
		}
	}
	var c ChatID
	if err := c.UnmarshalJSON([]byte(`1.5`)); err == nil {
		t.Fatal("fractional chat id must fail")
	}
}

func TestMask(t *testing.T) {
	t.Parallel()
	tests := map[string]string{
		"":                 "<unset>",
		"short":            "****",
		"AQAAAAAsecretXYZ": "AQAA****",
	}
	for in, want := range tests {
		if got := Mask(in); got != want {
			t.Fatalf("Mask(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestParseDurationField(t *testing.T) {
	t.Parallel()
	if d, err := ParseDurationField("x", ""); err != nil || d != 0 {
		t.Fatalf("empty: %s, %v", d, err)
	}
	if _, err := ParseDurationField("x", "-1s"); err == nil {
		t.Fatal("negative must fail")
	}
	if d, err := ParseDurationOrDefault("x", "0s", time.Minute); err != nil || d != time.Minute {
		t.Fatalf("default: %s, %v", d, err)
	}
}

func TestSummarizeConfigChange(t *testing.T) {
	t.Parallel()
	oldCfg := Default()
	newCfg := Default()
	newCfg.Logging.Level = "debug"
	newCfg.Poll.Schedule = "5m"

	changed, attrs, restart := SummarizeConfigChange(oldCfg, newCfg)
	if !reflect.DeepEqual(changed, []string{"logging", "poll"}) {
		t.Fatalf("changed = %v", changed)
	}
	if !reflect.DeepEqual(restart, []string{"poll"}) {
		t.Fatalf("restart = %v", restart)
	}
	if len(attrs) == 0 {
		t.Fatal("expected log attrs")
	}
}

func TestLoadDotEnvDoesNotOverride(t *testing.T) {
	p := writeFile(t, ".env", "HWBOT_TEST_A=from-file\nHWBOT_TEST_B=from-file\n")
	t.Setenv("HWBOT_TEST_A", "from-env")
	t.Setenv("HWBOT_TEST_B", "")
	os.Unsetenv("HWBOT_TEST_B")

	got, err := LoadDotEnv(filepath.Join(t.TempDir(), "missing.env"), p)
	if err != nil {
		t.Fatalf("LoadDotEnv: %v", err)
	}
	if got != p {
		t.Fatalf("loaded %q, want %q", got, p)
	}
	if v := os.Getenv("HWBOT_TEST_A"); v != "from-env" {
		t.Fatalf("HWBOT_TEST_A = %q, existing env was overridden", v)
	}
	if v := os.Getenv("HWBOT_TEST_B"); v != "from-file" {
		t.Fatalf("HWBOT_TEST_B = %q", v)
	}
	os.Unsetenv("HWBOT_TEST_B")
}
