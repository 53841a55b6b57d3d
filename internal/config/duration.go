package config

import (
	"fmt"
	"strings"
	"time"
)

// ParseDurationField parses a Go duration setting named name. Blank means
// zero; negative values are rejected.
func ParseDurationField(name, raw string) (time.Duration, error) {
	d, _, err := parseDuration(name, raw)
	return d, err
}

// DurationOr returns def when raw is blank. An explicit "0s" stays zero.
func DurationOr(name, raw string, def time.Duration) (time.Duration, error) {
	d, set, err := parseDuration(name, raw)
	if err != nil {
		return 0, err
	}
	if !set {
		return def, nil
	}
	return d, nil
}

func parseDuration(name, raw string) (time.Duration, bool, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, false, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, true, fmt.Errorf("%s: invalid duration %q (want e.g. 500ms, 2s, 1m)", name, raw)
	}
	if d < 0 {
		return 0, true, fmt.Errorf("%s: duration must be >= 0, got %s", name, d)
	}
	return d, true, nil
}
