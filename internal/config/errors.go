package config

import (
	"errors"
	"strings"
)

// Error is a fatal configuration error. It aborts the run before any network
// activity.
type Error struct {
	// Missing lists absent mandatory settings by env name.
	Missing []string
	// Problems lists invalid values and source failures.
	Problems []string
}

func (e *Error) Error() string {
	parts := make([]string, 0, 2)
	if len(e.Missing) > 0 {
		parts = append(parts, "missing required settings: "+strings.Join(e.Missing, ", "))
	}
	if len(e.Problems) > 0 {
		parts = append(parts, strings.Join(e.Problems, "; "))
	}
	if len(parts) == 0 {
		return "invalid configuration"
	}
	return "config: " + strings.Join(parts, "; ")
}

// IsConfigError reports whether err is (or wraps) a configuration error.
func IsConfigError(err error) bool {
	var e *Error
	return errors.As(err, &e)
}
