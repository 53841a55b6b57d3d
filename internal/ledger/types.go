package ledger

import (
	"errors"
	"time"
)

var ErrClosed = errors.New("ledger store closed")

// Config configures the ledger store.
//
// Driver values:
//   - "json": flat JSON array at Path, audit journal next to it
//   - "sqlite": SQLite database file at Path
type Config struct {
	Driver string
	Path   string
	// AuditPath overrides the json audit journal location; "-" disables it.
	AuditPath   string
	BusyTimeout time.Duration // sqlite only; 0 means default
}

// AuditEntry records one relay attempt.
// Keep it compact and schema-stable.
type AuditEntry struct {
	At        time.Time `json:"at"`
	RunID     string    `json:"run_id,omitempty"`
	MessageID int       `json:"message_id"`
	Source    string    `json:"source"`
	Target    string    `json:"target"`
	OK        bool      `json:"ok"`
	Class     string    `json:"class,omitempty"` // error class: rate_limited, unauthorized, ...
	Error     string    `json:"error,omitempty"`
	TookMS    int64     `json:"took_ms"`
}
