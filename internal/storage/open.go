package storage

import (
	"fmt"
	"strings"

	logx "hwbot/pkg/logx"
)

// NormalizeDriver maps a configured driver name to its canonical form:
// "" (disabled), "file" or "sqlite". ok is false for unknown names.
func NormalizeDriver(name string) (driver string, ok bool) {
	switch d := strings.ToLower(strings.TrimSpace(name)); d {
	case "", "none":
		return "", true
	case "file":
		return d, true
	case "sqlite", "sqlite3":
		return "sqlite", true
	default:
		return d, false
	}
}

// Open initializes the configured store. It returns (nil, nil) when storage
// is disabled.
func Open(cfg Config, log logx.Logger) (Store, error) {
	driver, ok := NormalizeDriver(cfg.Driver)
	if !ok {
		return nil, fmt.Errorf("unknown storage driver: %s", driver)
	}
	if driver == "" {
		return nil, nil
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	log = log.With(logx.String("comp", "storage"), logx.String("driver", driver))

	if driver == "file" {
		return openFile(cfg, log)
	}
	return openSQLite(cfg, log)
}
