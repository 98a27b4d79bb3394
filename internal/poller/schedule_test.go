package poller

import (
	"testing"
	"time"
)

func TestParseSchedule(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in     string
		kind   ScheduleKind
		every  time.Duration
		source string
	}{
		{"10m", ScheduleInterval, 10 * time.Minute, "duration"},
		{"00:10", ScheduleInterval, 10 * time.Minute, "hhmm"},
		{"interval:1h30m", ScheduleInterval, 90 * time.Minute, "duration"},
		{"every:02:30", ScheduleInterval, 150 * time.Minute, "hhmm"},
		{"*/10 * * * *", ScheduleCron, 0, "cron"},
		{"@hourly", ScheduleCron, 0, "cron"},
		{"cron:@every 5m", ScheduleCron, 0, "cron"},
	}
	for _, tt := range tests {
		got, err := ParseSchedule(tt.in)
		if err != nil {
			t.Fatalf("ParseSchedule(%q): %v", tt.in, err)
		}
		if got.Kind != tt.kind || got.Every != tt.every || got.Source != tt.source {
			t.Fatalf("ParseSchedule(%q) = %+v", tt.in, got)
		}
		if got.IsZero() {
			t.Fatalf("ParseSchedule(%q) has no schedule", tt.in)
		}
	}
}

func TestParseScheduleRejects(t *testing.T) {
	t.Parallel()
	for _, in := range []string{"", "  ", "soon", "0s", "-5m", "500ms", "00:75", "cron:", "61 * * * *"} {
		if _, err := ParseSchedule(in); err == nil {
			t.Fatalf("ParseSchedule(%q) expected error", in)
		}
	}
}

func TestSchedulePeriod(t *testing.T) {
	t.Parallel()
	now := time.Date(2024, 3, 1, 12, 3, 0, 0, time.UTC)

	sch, err := ParseSchedule("*/10 * * * *")
	if err != nil {
		t.Fatal(err)
	}
	if next := sch.Next(now); !next.Equal(time.Date(2024, 3, 1, 12, 10, 0, 0, time.UTC)) {
		t.Fatalf("Next = %s", next)
	}
	if p := sch.Period(now); p != 10*time.Minute {
		t.Fatalf("cron Period = %s", p)
	}
	if p := Every(7 * time.Minute).Period(now); p != 7*time.Minute {
		t.Fatalf("interval Period = %s", p)
	}
}
