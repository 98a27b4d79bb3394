package config

import (
	"errors"
	"fmt"
	"strings"
)

var ErrMissingCredentials = errors.New("missing required credentials")

// ConfigError is a configuration problem detected before the poll loop starts.
type ConfigError struct {
	// Missing lists unset environment variables.
	Missing []string
	// Field is the offending config path for other problems.
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	if len(e.Missing) > 0 {
		return fmt.Sprintf("missing required environment variables: %s", strings.Join(e.Missing, ", "))
	}
	if e.Field != "" {
		return fmt.Sprintf("config %s: %v", e.Field, e.Err)
	}
	return fmt.Sprintf("config: %v", e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

func (e *ConfigError) Is(target error) bool {
	return target == ErrMissingCredentials && len(e.Missing) > 0
}

// Mask renders a secret for logs: at most a 4-character prefix survives.
func Mask(secret string) string {
	s := strings.TrimSpace(secret)
	switch {
	case s == "":
		return "<unset>"
	case len(s) <= 8:
		return "****"
	default:
		return s[:4] + "****"
	}
}
