package config

import (
	"fmt"
	"strings"
	"time"

	logx "chanrelay/pkg/logx"
)

const (
	DriverJSON   = "json"
	DriverSQLite = "sqlite"
)

// Validate checks mandatory settings and value ranges. It reports every
// problem at once so a misconfigured deployment is fixed in one pass.
func (c *Config) Validate() error {
	e := &Error{}

	if c.Telegram.APIID == 0 {
		e.Missing = append(e.Missing, "API_ID")
	}
	if c.Telegram.APIHash == "" {
		e.Missing = append(e.Missing, "API_HASH")
	}
	if c.Telegram.Phone == "" {
		e.Missing = append(e.Missing, "PHONE_NUMBER")
	}
	if c.Channels.Source == "" {
		e.Missing = append(e.Missing, "SOURCE_CHANNEL")
	}
	if c.Channels.Target == "" {
		e.Missing = append(e.Missing, "TARGET_CHANNEL")
	}

	if c.Telegram.APIID < 0 {
		e.Problems = append(e.Problems, "API_ID must be positive")
	}
	if c.Telegram.SessionFile == "" {
		e.Problems = append(e.Problems, "SESSION_FILE must not be empty")
	}
	if c.Channels.Source != "" && strings.EqualFold(c.Channels.Source, c.Channels.Target) {
		e.Problems = append(e.Problems, "SOURCE_CHANNEL and TARGET_CHANNEL must differ")
	}

	switch {
	case c.Notify.BotToken != "" && c.Notify.ChatID == 0:
		e.Problems = append(e.Problems, "BOT_TOKEN is set but NOTIFY_CHAT_ID is missing")
	case c.Notify.BotToken == "" && c.Notify.ChatID != 0:
		e.Problems = append(e.Problems, "NOTIFY_CHAT_ID is set but BOT_TOKEN is missing")
	}

	switch c.Ledger.Driver {
	case DriverJSON, DriverSQLite:
	default:
		e.Problems = append(e.Problems, fmt.Sprintf("LEDGER_DRIVER: unknown driver %q", c.Ledger.Driver))
	}
	if c.Ledger.Path == "" {
		e.Problems = append(e.Problems, "FORWARDED_MESSAGES_FILE must not be empty")
	}
	if _, err := ParseDurationField("LEDGER_BUSY_TIMEOUT", c.Ledger.BusyTimeout); err != nil {
		e.Problems = append(e.Problems, err.Error())
	}

	if c.Relay.Window <= 0 {
		e.Problems = append(e.Problems, "RELAY_WINDOW must be > 0")
	}
	if c.Relay.FirstRunWindow <= 0 {
		e.Problems = append(e.Problems, "FIRST_RUN_WINDOW must be > 0")
	}
	if _, err := ParseDurationField("RELAY_DELAY", c.Relay.Delay); err != nil {
		e.Problems = append(e.Problems, err.Error())
	}
	if _, err := ParseDurationField("RATE_LIMIT_COOLDOWN", c.Relay.RateLimitCooldown); err != nil {
		e.Problems = append(e.Problems, err.Error())
	}

	if !logx.ValidLevel(c.Logging.Level) {
		e.Problems = append(e.Problems, fmt.Sprintf("LOG_LEVEL: unknown level %q", c.Logging.Level))
	}

	if len(e.Missing) == 0 && len(e.Problems) == 0 {
		return nil
	}
	return e
}

// DelayDuration returns the pause between successive successful relays.
// An empty value falls back to 2s; "0s" disables pacing.
func (r RelayConfig) DelayDuration() time.Duration {
	d, _ := DurationOr("RELAY_DELAY", r.Delay, 2*time.Second)
	return d
}

// CooldownDuration returns the pause after a rate-limited relay.
func (r RelayConfig) CooldownDuration() time.Duration {
	d, _ := DurationOr("RATE_LIMIT_COOLDOWN", r.RateLimitCooldown, 60*time.Second)
	return d
}

// BusyTimeoutDuration returns the sqlite busy timeout (0 means driver default).
func (l LedgerConfig) BusyTimeoutDuration() time.Duration {
	d, _ := ParseDurationField("LEDGER_BUSY_TIMEOUT", l.BusyTimeout)
	return d
}
