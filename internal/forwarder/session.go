package forwarder

import (
	"context"
	"errors"
	"fmt"

	"chanrelay/internal/messenger"
	"chanrelay/internal/notifier"
	logx "chanrelay/pkg/logx"
)

// State is a step of session bootstrap.
//
//	NoSession → Authenticating → Ready
//	SessionPresent → Validating → Ready | Invalid → NoSession
//
// Whether a session exists is decided before connecting: the client library
// writes a fresh (unauthorized) key to the session file as soon as it
// connects. A stale session is removed only after its connection is closed,
// and sign-in always runs on a new connection so the key it authorizes is
// the one that ends up on disk.
type State int

const (
	StateNoSession State = iota
	StateSessionPresent
	StateValidating
	StateInvalid
	StateAuthenticating
	StateReady
)

func (s State) String() string {
	switch s {
	case StateNoSession:
		return "no_session"
	case StateSessionPresent:
		return "session_present"
	case StateValidating:
		return "validating"
	case StateInvalid:
		return "invalid"
	case StateAuthenticating:
		return "authenticating"
	case StateReady:
		return "ready"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// errSessionInvalid ends a validation connection whose stored session the
// server no longer accepts.
var errSessionInvalid = errors.New("stored session is not authorized")

// session drives bootstrap to Ready and then calls ready on the same
// connection.
func (f *Forwarder) session(ctx context.Context, ready func(ctx context.Context) error) error {
	state := StateNoSession
	if f.client.SessionExists() {
		state = StateSessionPresent
	}
	expired := false

	for {
		f.enter(state)

		switch state {
		case StateSessionPresent:
			err := f.client.Run(ctx, func(ctx context.Context) error {
				f.enter(StateValidating)
				ok, err := f.client.IsAuthorized(ctx)
				if err != nil && !messenger.IsUnauthorized(err) {
					return fmt.Errorf("validate session: %w", err)
				}
				if !ok {
					return errSessionInvalid
				}
				f.log.Info("resumed stored session")
				f.enter(StateReady)
				return ready(ctx)
			})
			if !errors.Is(err, errSessionInvalid) {
				return err
			}
			state = StateInvalid

		case StateInvalid:
			f.log.Warn("stored session expired or was revoked; removing it")
			expired = true
			if err := f.client.DeleteSession(); err != nil {
				f.log.Warn("could not remove stale session", logx.Err(err))
			}
			state = StateNoSession

		case StateNoSession:
			if f.prompt == nil || !f.prompt.Interactive() {
				f.log.Error("authentication required but no interactive input is attached; run once from a terminal to log in")
				kind := notifier.KindAuthRequired
				if expired {
					kind = notifier.KindSessionExpired
				}
				f.notify(ctx, kind, "Run the relay once from a terminal to log in again.")
				return ErrAuthRequired
			}
			state = StateAuthenticating

		case StateAuthenticating:
			return f.client.Run(ctx, func(ctx context.Context) error {
				f.log.Info("interactive login required")
				if err := f.client.StartSession(ctx, f.prompt); err != nil {
					if ctx.Err() != nil {
						return ctx.Err()
					}
					f.log.Error("login failed", logx.Err(err))
					f.notify(ctx, notifier.KindAuthFailed, err.Error())
					return fmt.Errorf("%w: %w", ErrAuthFailed, err)
				}
				f.log.Info("login succeeded; session stored")
				f.enter(StateReady)
				return ready(ctx)
			})

		default:
			return fmt.Errorf("unexpected session state %s", state)
		}
	}
}

func (f *Forwarder) enter(s State) {
	f.log.Debug("session state", logx.String("state", s.String()))
}

// account resolves and logs the signed-in user.
func (f *Forwarder) account(ctx context.Context) (messenger.Account, error) {
	acc, err := f.client.Self(ctx)
	if err != nil {
		return messenger.Account{}, fmt.Errorf("resolve current account: %w", err)
	}
	f.log.Info("connected to Telegram as user", logx.String("account", acc.String()), logx.Int64("user_id", acc.ID))
	return acc, nil
}
