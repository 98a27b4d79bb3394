package logx

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()
	tests := []struct {
		raw  string
		want zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{" WARNING ", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"", zerolog.InfoLevel},
		{"nonsense", zerolog.InfoLevel},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.raw, zerolog.InfoLevel); got != tt.want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", tt.raw, got, tt.want)
		}
	}
}

func TestLoggerWithFields(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	log := FromZerolog(zerolog.New(&buf)).With(String("comp", "poller"))
	log.Info("cycle done", Int64("window", 1000))

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("decode log line: %v (%q)", err, buf.String())
	}
	if rec["comp"] != "poller" || rec["message"] != "cycle done" {
		t.Fatalf("unexpected record: %v", rec)
	}
	if rec["window"] != float64(1000) {
		t.Fatalf("window = %v", rec["window"])
	}
	if _, ok := rec["caller"]; !ok {
		t.Fatal("expected caller field")
	}
}

func TestZeroLoggerIsNoop(t *testing.T) {
	t.Parallel()
	var l Logger
	if !l.IsZero() {
		t.Fatal("zero logger should report IsZero")
	}
	l.Error("must not panic")
}

func TestFormatTelegramRecord(t *testing.T) {
	t.Parallel()
	got := formatTelegramRecord([]byte(`{"level":"warn","message":"poll failed","time":"x","status":502,"comp":"poller"}` + "\n"))
	want := "[WARN] poll failed\n- comp=poller\n- status=502"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
	if raw := formatTelegramRecord([]byte("plain text\n")); !strings.HasPrefix(raw, "plain text") {
		t.Fatalf("raw fallback = %q", raw)
	}
}

func TestTruncateKeepsRunes(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"short", 10, "short"},
		{strings.Repeat("Ж", 10), 13, strings.Repeat("Ж", 5) + "..."},
		{strings.Repeat("Ж", 10), 5, "ЖЖ"},
		{"a" + strings.Repeat("Ж", 10), 12, "a" + strings.Repeat("Ж", 4) + "..."},
	}
	for _, tt := range tests {
		got := truncate(tt.in, tt.max)
		if got != tt.want {
			t.Fatalf("truncate(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
		}
		if !utf8.ValidString(got) || len(got) > tt.max {
			t.Fatalf("truncate(%q, %d) = %q: invalid or too long", tt.in, tt.max, got)
		}
	}
}

// Not parallel: New sets zerolog package globals.
func TestApplyKeepsFileWritesAcrossReload(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "first.log")
	second := filepath.Join(dir, "second.log")

	svc, log := New(Config{Level: "info", File: FileConfig{Enabled: true, Path: first}}, nil)
	defer svc.Close()

	log.Info("before reload")
	held := svc.current()

	svc.Apply(Config{Level: "info", File: FileConfig{Enabled: true, Path: second}})
	held.Info().Msg("from held logger")
	log.Info("after reload")

	a, err := os.ReadFile(first)
	if err != nil {
		t.Fatalf("read first: %v", err)
	}
	b, err := os.ReadFile(second)
	if err != nil {
		t.Fatalf("read second: %v", err)
	}
	if !strings.Contains(string(a), "before reload") {
		t.Fatalf("first log = %q", a)
	}
	for _, want := range []string{"from held logger", "after reload"} {
		if !strings.Contains(string(b), want) {
			t.Fatalf("second log missing %q: %q", want, b)
		}
	}
}
