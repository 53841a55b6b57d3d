// Package messengertest provides an in-memory messenger.Client for tests.
package messengertest

import (
	"context"
	"errors"
	"sync"

	"chanrelay/internal/messenger"
)

// Fake is an in-memory messenger.Client.
//
// HasSession mirrors the session file. Like the real client, connecting
// without one writes a fresh, unauthorized key; signing in authorizes the
// key already on disk and never writes the file itself.
//
// History holds source messages per peer in chronological order (oldest
// first); FetchRecent serves the tail newest-first like a real platform.
type Fake struct {
	mu sync.Mutex

	HasSession bool
	Authorized bool
	Account    messenger.Account
	History    map[string][]messenger.Message

	// Optional failure hooks.
	RunErr       error
	AuthCheckErr error
	SignInErr    error
	FetchErr     error
	RelayErr     func(m messenger.Message) error

	// Recorded calls.
	Connected             bool
	Runs                  int
	DeletedWhileConnected int
	SessionChecks         int
	Deleted               int
	SignIns               int
	Fetches               []int
	Relayed               []int
	RelayAttempts         []int
	Targets               []string
}

var _ messenger.Client = (*Fake)(nil)

func New() *Fake {
	return &Fake{History: map[string][]messenger.Message{}}
}

// Post appends messages with the given IDs to peer's history.
func (f *Fake) Post(peer string, ids ...int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.History == nil {
		f.History = map[string][]messenger.Message{}
	}
	for _, id := range ids {
		f.History[peer] = append(f.History[peer], messenger.Message{ID: id, Peer: peer})
	}
}

func (f *Fake) Run(ctx context.Context, fn func(ctx context.Context) error) error {
	if f.RunErr != nil {
		return f.RunErr
	}
	f.mu.Lock()
	f.Connected = true
	f.Runs++
	if !f.HasSession {
		f.HasSession = true
		f.Authorized = false
	}
	f.mu.Unlock()
	defer func() {
		f.mu.Lock()
		f.Connected = false
		f.mu.Unlock()
	}()
	return fn(ctx)
}

func (f *Fake) SessionExists() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.SessionChecks++
	return f.HasSession
}

func (f *Fake) DeleteSession() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Deleted++
	if f.Connected {
		f.DeletedWhileConnected++
	}
	f.HasSession = false
	f.Authorized = false
	return nil
}

func (f *Fake) IsAuthorized(ctx context.Context) (bool, error) {
	if err := f.check(ctx); err != nil {
		return false, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.AuthCheckErr != nil {
		return false, f.AuthCheckErr
	}
	return f.HasSession && f.Authorized, nil
}

func (f *Fake) StartSession(ctx context.Context, auth messenger.Authenticator) error {
	if err := f.check(ctx); err != nil {
		return err
	}
	f.mu.Lock()
	f.SignIns++
	signInErr := f.SignInErr
	f.mu.Unlock()

	if signInErr != nil {
		return signInErr
	}
	if _, err := auth.Code(ctx); err != nil {
		return err
	}

	f.mu.Lock()
	f.Authorized = true
	f.mu.Unlock()
	return nil
}

func (f *Fake) Self(ctx context.Context) (messenger.Account, error) {
	if err := f.check(ctx); err != nil {
		return messenger.Account{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.Authorized {
		return messenger.Account{}, messenger.ErrUnauthorized
	}
	return f.Account, nil
}

func (f *Fake) FetchRecent(ctx context.Context, peer string, limit int) ([]messenger.Message, error) {
	if err := f.check(ctx); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Fetches = append(f.Fetches, limit)
	if f.FetchErr != nil {
		return nil, f.FetchErr
	}

	h := f.History[peer]
	out := make([]messenger.Message, 0, limit)
	for i := len(h) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, h[i])
	}
	return out, nil
}

func (f *Fake) Relay(ctx context.Context, from, to string, m messenger.Message) error {
	if err := f.check(ctx); err != nil {
		return err
	}
	f.mu.Lock()
	f.RelayAttempts = append(f.RelayAttempts, m.ID)
	hook := f.RelayErr
	f.mu.Unlock()

	if hook != nil {
		if err := hook(m); err != nil {
			return err
		}
	}

	f.mu.Lock()
	f.Relayed = append(f.Relayed, m.ID)
	f.Targets = append(f.Targets, to)
	f.mu.Unlock()
	return nil
}

var errNotConnected = errors.New("messengertest: call outside Run")

func (f *Fake) check(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.Connected {
		return errNotConnected
	}
	return nil
}
