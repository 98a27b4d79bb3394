package storage

import (
	"context"
	"errors"
	"time"
)

var ErrClosed = errors.New("storage closed")

// Config selects the driver. An empty Driver or "none" disables storage.
type Config struct {
	Driver      string
	Path        string
	BusyTimeout time.Duration // sqlite only; 0 means driver default
}

// Entry is one journal record. Keep it compact and schema-stable.
type Entry struct {
	At         time.Time `json:"at"`
	CycleID    string    `json:"cycle_id"`
	Outcome    string    `json:"outcome"`
	Homework   string    `json:"homework,omitempty"`
	Status     string    `json:"status,omitempty"`
	From       int64     `json:"from"`
	Window     int64     `json:"window"`
	ServerTime int64     `json:"server_time,omitempty"`
	Error      string    `json:"error,omitempty"`
	TookMS     int64     `json:"took_ms"`
}

type Store interface {
	Append(ctx context.Context, e Entry) error
	Close() error
}
