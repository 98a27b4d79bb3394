package storage

import (
	"bufio"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	logx "hwbot/pkg/logx"
)

func TestOpenDisabled(t *testing.T) {
	t.Parallel()
	for _, d := range []string{"", "none", " NONE "} {
		st, err := Open(Config{Driver: d}, logx.Nop())
		if err != nil || st != nil {
			t.Fatalf("Open(%q) = %v, %v; want nil, nil", d, st, err)
		}
	}
	if _, err := Open(Config{Driver: "redis", Path: "x"}, logx.Nop()); err == nil {
		t.Fatal("unknown driver must fail")
	}
	if _, err := Open(Config{Driver: "file"}, logx.Nop()); err == nil {
		t.Fatal("file driver without path must fail")
	}
}

func TestFileStoreAppends(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	st, err := Open(Config{Driver: "file", Path: filepath.Join(dir, "hwbot.db")}, logx.Nop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	ctx := context.Background()
	entries := []Entry{
		{CycleID: "a", Outcome: "notified", Homework: "hw1", Status: "approved", From: 100, Window: 200},
		{CycleID: "b", Outcome: "poll_failed", From: 200, Window: 200, Error: "http 503"},
	}
	for _, e := range entries {
		if err := st.Append(ctx, e); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}
	if err := st.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := st.Append(ctx, entries[0]); !errors.Is(err, ErrClosed) {
		t.Fatalf("Append after close = %v, want ErrClosed", err)
	}

	f, err := os.Open(filepath.Join(dir, "hwbot.audit.jsonl"))
	if err != nil {
		t.Fatalf("open journal: %v", err)
	}
	defer f.Close()
	var got []Entry
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var e Entry
		if err := json.Unmarshal(sc.Bytes(), &e); err != nil {
			t.Fatalf("line %q: %v", sc.Text(), err)
		}
		got = append(got, e)
	}
	if len(got) != 2 {
		t.Fatalf("got %d lines, want 2", len(got))
	}
	if got[0].Homework != "hw1" || got[1].Error != "http 503" || got[0].At.IsZero() {
		t.Fatalf("unexpected entries %+v", got)
	}
}

func TestSQLiteStoreAppends(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "audit.db")
	st, err := Open(Config{Driver: "sqlite", Path: path, BusyTimeout: time.Second}, logx.Nop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	ctx := context.Background()
	if err := st.Append(ctx, Entry{CycleID: "c1", Outcome: "delivery_failed", Homework: "hw1", Status: "reviewing", From: 1, Window: 1, Error: "timeout"}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := st.Append(ctx, Entry{CycleID: "c2", Outcome: "notified", Homework: "hw1", Status: "reviewing", From: 1, Window: 5, ServerTime: 5}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := st.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer db.Close()
	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM audit WHERE homework = 'hw1'`).Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 2 {
		t.Fatalf("count = %d, want 2", n)
	}
	var errText sql.NullString
	if err := db.QueryRow(`SELECT err FROM audit WHERE cycle_id = 'c2'`).Scan(&errText); err != nil {
		t.Fatalf("select: %v", err)
	}
	if errText.Valid {
		t.Fatalf("empty error should be NULL, got %q", errText.String)
	}
}

func TestNormalizeDriver(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"", "", true},
		{" None ", "", true},
		{"file", "file", true},
		{"SQLite", "sqlite", true},
		{"sqlite3", "sqlite", true},
		{"redis", "redis", false},
	}
	for _, tt := range tests {
		got, ok := NormalizeDriver(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Fatalf("NormalizeDriver(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}
