package notifier

import (
	"context"
	"errors"
	"time"
)

var ErrDisabled = errors.New("notifier disabled")

// Kind classifies an operator alert.
type Kind string

const (
	KindAuthRequired   Kind = "auth_required"
	KindAuthFailed     Kind = "auth_failed"
	KindSessionExpired Kind = "session_expired"
	KindRelayError     Kind = "relay_error"
)

type Notification struct {
	Kind Kind
	Text string
}

// Notifier delivers operator alerts.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// Nop discards every notification. Used when no bot is configured.
type Nop struct{}

func (Nop) Notify(context.Context, Notification) error { return ErrDisabled }

// Config controls the bot-backed notifier.
//
// Defaults (when fields are zero):
//   - rate_per_sec: 1
//   - retry_max: 2
//   - retry_base: 500ms
//   - retry_max_delay: 5s
//   - send_timeout: 10s
type Config struct {
	Token    string
	ChatID   int64
	ThreadID int

	// APIURL overrides the Bot API endpoint (self-hosted Bot API servers).
	APIURL string

	RatePerSec    int
	RetryMax      int
	RetryBase     time.Duration
	RetryMaxDelay time.Duration
	SendTimeout   time.Duration

	// Source labels alerts (e.g. "@source → @target").
	Source string
}

// Sender delivers one text chunk to a chat.
type Sender interface {
	SendText(ctx context.Context, chatID int64, threadID int, text string) error
}
