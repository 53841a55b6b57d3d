// Package forwarder relays new messages from a source channel to a target
// channel once per run.
//
// A run brings the account session to the Ready state, fetches a
// bounded window of recent source messages, relays the ones the ledger has not
// seen (oldest first), and saves the ledger. Delivery is at-least-once: a
// message that failed is simply not recorded and is retried next run.
package forwarder

import (
	"context"
	"errors"
	"fmt"
	"time"

	"chanrelay/internal/ledger"
	"chanrelay/internal/messenger"
	"chanrelay/internal/notifier"
	logx "chanrelay/pkg/logx"
)

var (
	// ErrAuthRequired means no usable session exists and nobody is at the
	// terminal to log in.
	ErrAuthRequired = errors.New("authentication required")
	// ErrAuthFailed means interactive sign-in was attempted and failed.
	ErrAuthFailed = errors.New("authentication failed")
)

// Config tunes one Forwarder.
type Config struct {
	Source string
	Target string

	Window         int           // lookback on normal runs (50)
	FirstRunWindow int           // lookback when the ledger is empty (1)
	Delay          time.Duration // between successive successful relays
	Cooldown       time.Duration // after a rate-limited relay

	// RunID tags audit entries.
	RunID string
}

// Prompter asks the operator for login secrets.
type Prompter interface {
	messenger.Authenticator
	// Interactive reports whether someone can answer prompts.
	Interactive() bool
}

// SleepFunc pauses for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

type Option func(*Forwarder)

// WithSleep replaces the pause used for relay pacing and cooldowns.
func WithSleep(fn SleepFunc) Option {
	return func(f *Forwarder) {
		if fn != nil {
			f.sleep = fn
		}
	}
}

// WithNotifier sets the operator notifier (default: none).
func WithNotifier(n notifier.Notifier) Option {
	return func(f *Forwarder) {
		if n != nil {
			f.notif = n
		}
	}
}

// Forwarder orchestrates one relay run. It is not safe for concurrent use.
type Forwarder struct {
	cfg    Config
	client messenger.Client
	ledger *ledger.Ledger
	prompt Prompter
	notif  notifier.Notifier
	log    logx.Logger
	sleep  SleepFunc
	now    func() time.Time
}

// New builds a Forwarder. The ledger must already be loaded.
func New(cfg Config, client messenger.Client, led *ledger.Ledger, prompt Prompter, log logx.Logger, opts ...Option) *Forwarder {
	if cfg.Window <= 0 {
		cfg.Window = 50
	}
	if cfg.FirstRunWindow <= 0 {
		cfg.FirstRunWindow = 1
	}
	if cfg.Cooldown < 0 {
		cfg.Cooldown = 0
	}
	if cfg.Delay < 0 {
		cfg.Delay = 0
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	f := &Forwarder{
		cfg:    cfg,
		client: client,
		ledger: led,
		prompt: prompt,
		notif:  notifier.Nop{},
		log:    log,
		sleep:  sleepCtx,
		now:    time.Now,
	}
	for _, o := range opts {
		if o != nil {
			o(f)
		}
	}
	return f
}

// Run performs one complete relay run. The returned Report is valid even
// when err is non-nil.
func (f *Forwarder) Run(ctx context.Context) (Report, error) {
	var rep Report
	err := f.session(ctx, func(ctx context.Context) error {
		if _, err := f.account(ctx); err != nil {
			return err
		}
		var err error
		rep, err = f.relay(ctx)
		return err
	})
	if err != nil && !isAuthError(err) && ctx.Err() == nil {
		f.log.Error("relay run failed", logx.Err(err))
		f.notify(ctx, notifier.KindRelayError, err.Error())
	}
	return rep, err
}

func isAuthError(err error) bool {
	return errors.Is(err, ErrAuthRequired) || errors.Is(err, ErrAuthFailed)
}

// notify is best-effort: a failed delivery is logged and never escalated.
func (f *Forwarder) notify(ctx context.Context, kind notifier.Kind, text string) {
	// Deliver even when the run is being cancelled; the notifier bounds each send.
	nctx := context.WithoutCancel(ctx)
	if err := f.notif.Notify(nctx, notifier.Notification{Kind: kind, Text: text}); err != nil {
		if errors.Is(err, notifier.ErrDisabled) {
			f.log.Debug("operator notification skipped (no bot configured)", logx.String("kind", string(kind)))
			return
		}
		f.log.Warn("operator notification failed", logx.String("kind", string(kind)), logx.Err(err))
		return
	}
	f.log.Info("operator notified", logx.String("kind", string(kind)))
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Report summarizes one run.
type Report struct {
	FirstRun    bool
	Window      int
	Fetched     int
	Skipped     int // already in the ledger
	Forwarded   int
	Failed      int
	RateLimited int
}

func (r Report) String() string {
	if r.Forwarded == 0 && r.Failed == 0 {
		return fmt.Sprintf("no new messages to forward (%d checked)", r.Fetched)
	}
	return fmt.Sprintf("%d forwarded, %d failed, %d already relayed (%d checked)", r.Forwarded, r.Failed, r.Skipped, r.Fetched)
}
