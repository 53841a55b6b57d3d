// Package messenger defines the narrow capability the forwarder needs from a
// messaging platform client. Transport, the authentication handshake and
// delivery all live behind this interface.
package messenger

import (
	"context"
	"time"
)

// Message is a source message as seen by the relay. It is read-only.
type Message struct {
	ID   int
	Peer string // origin channel
	Text string
	Date time.Time
}

// Account identifies the signed-in user.
type Account struct {
	ID       int64
	Username string
	Name     string
	Phone    string
}

func (a Account) String() string {
	switch {
	case a.Username != "":
		return "@" + a.Username
	case a.Name != "":
		return a.Name
	default:
		return "user"
	}
}

// Authenticator supplies interactive sign-in secrets.
type Authenticator interface {
	// Code returns the login code the platform sent to the user.
	Code(ctx context.Context) (string, error)
	// Password returns the two-step verification password.
	Password(ctx context.Context) (string, error)
}

// Client is the messaging platform capability used by the forwarder.
//
// All methods except SessionExists and DeleteSession must be called inside
// the fn passed to Run, which owns the connection lifetime.
type Client interface {
	// Run connects, calls fn, and disconnects when fn returns.
	Run(ctx context.Context, fn func(ctx context.Context) error) error

	// SessionExists reports whether a stored session credential is present.
	SessionExists() bool
	// DeleteSession removes the stored session credential.
	DeleteSession() error

	// IsAuthorized reports whether the current session is signed in.
	IsAuthorized(ctx context.Context) (bool, error)
	// StartSession performs interactive sign-in and persists the session.
	StartSession(ctx context.Context, auth Authenticator) error
	// Self resolves the signed-in account.
	Self(ctx context.Context) (Account, error)

	// FetchRecent returns up to limit most recent messages of peer,
	// newest first.
	FetchRecent(ctx context.Context, peer string, limit int) ([]Message, error)
	// Relay forwards m from peer `from` into peer `to`.
	Relay(ctx context.Context, from, to string, m Message) error
}
