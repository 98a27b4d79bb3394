package poller

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

type ScheduleKind int

const (
	ScheduleInterval ScheduleKind = iota
	ScheduleCron
)

// Schedule is the polling cadence.
//
// Accepted forms:
//   - Go duration: "10m", "1h30m"
//   - HH:MM interval: "00:10" (10 minutes)
//   - cron: "*/10 * * * *", "@hourly", "@every 10m"
//
// The prefixes "cron:", "interval:" and "every:" force one interpretation.
type Schedule struct {
	Kind   ScheduleKind
	Every  time.Duration
	Cron   string
	Source string // "duration" | "hhmm" | "cron"

	sched cron.Schedule
}

var (
	reHHMM     = regexp.MustCompile(`^\s*(\d{1,3}):(\d{2})\s*$`)
	cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
)

func ParseSchedule(raw string) (Schedule, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Schedule{}, fmt.Errorf("schedule required")
	}

	low := strings.ToLower(s)
	switch {
	case strings.HasPrefix(low, "cron:"):
		return parseCron(strings.TrimSpace(s[len("cron:"):]))
	case strings.HasPrefix(low, "interval:"):
		return parseInterval(strings.TrimSpace(s[len("interval:"):]))
	case strings.HasPrefix(low, "every:"):
		return parseInterval(strings.TrimSpace(s[len("every:"):]))
	}

	if strings.ContainsAny(s, " \t\n\r") || strings.HasPrefix(s, "@") {
		return parseCron(s)
	}
	if sch, err := parseInterval(s); err == nil {
		return sch, nil
	}
	return Schedule{}, fmt.Errorf(
		"invalid schedule %q (use a duration like '10m', HH:MM like '00:10', or cron like '*/10 * * * *')",
		raw,
	)
}

// Every returns a fixed-interval schedule.
func Every(d time.Duration) Schedule {
	return Schedule{Kind: ScheduleInterval, Every: d, Source: "duration", sched: cron.Every(d)}
}

func parseCron(expr string) (Schedule, error) {
	if expr == "" {
		return Schedule{}, fmt.Errorf("cron expression required")
	}
	sched, err := cronParser.Parse(expr)
	if err != nil {
		return Schedule{}, fmt.Errorf("invalid cron %q: %w", expr, err)
	}
	return Schedule{Kind: ScheduleCron, Cron: expr, Source: "cron", sched: sched}, nil
}

func parseInterval(v string) (Schedule, error) {
	if v == "" {
		return Schedule{}, fmt.Errorf("interval required")
	}
	src := "duration"
	var d time.Duration
	if m := reHHMM.FindStringSubmatch(v); len(m) == 3 {
		hh, _ := strconv.Atoi(m[1])
		mm, _ := strconv.Atoi(m[2])
		if mm > 59 {
			return Schedule{}, fmt.Errorf("invalid minutes in %q", v)
		}
		d = time.Duration(hh)*time.Hour + time.Duration(mm)*time.Minute
		src = "hhmm"
	} else {
		var err error
		d, err = time.ParseDuration(v)
		if err != nil {
			return Schedule{}, fmt.Errorf("invalid interval %q: %w", v, err)
		}
	}
	if d < time.Second {
		return Schedule{}, fmt.Errorf("interval must be at least 1s, got %s", d)
	}
	sch := Every(d)
	sch.Source = src
	return sch, nil
}

func (s Schedule) IsZero() bool { return s.sched == nil }

// Next returns the first fire time strictly after now.
func (s Schedule) Next(now time.Time) time.Time {
	if s.sched == nil {
		return now
	}
	return s.sched.Next(now)
}

// Period is the expected gap between polls seen from now. For cron schedules
// it is the distance between the next two fires.
func (s Schedule) Period(now time.Time) time.Duration {
	if s.Kind == ScheduleInterval {
		return s.Every
	}
	first := s.Next(now)
	return s.Next(first).Sub(first)
}

func (s Schedule) String() string {
	if s.Kind == ScheduleCron {
		return "cron:" + s.Cron
	}
	return s.Every.String()
}
