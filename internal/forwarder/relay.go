package forwarder

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"chanrelay/internal/ledger"
	"chanrelay/internal/messenger"
	logx "chanrelay/pkg/logx"
)

// relay fetches the window, relays unseen messages oldest-first and saves
// the ledger once on the way out, whatever ended the loop.
func (f *Forwarder) relay(ctx context.Context) (rep Report, err error) {
	rep.FirstRun = f.ledger.IsFirstRun()
	rep.Window = f.cfg.Window
	if rep.FirstRun {
		rep.Window = f.cfg.FirstRunWindow
		f.log.Info("first run detected; only the latest messages will be forwarded", logx.Int("window", rep.Window))
	}

	defer func() {
		if serr := f.ledger.Save(context.WithoutCancel(ctx)); serr != nil {
			err = errors.Join(err, fmt.Errorf("save ledger: %w", serr))
		}
	}()

	msgs, err := f.client.FetchRecent(ctx, f.cfg.Source, rep.Window)
	if err != nil {
		return rep, fmt.Errorf("fetch recent messages: %w", err)
	}
	rep.Fetched = len(msgs)
	f.log.Debug("fetched source messages", logx.Int("count", len(msgs)), logx.Int("window", rep.Window))

	// Newest-first from the platform; relay in source chronology.
	slices.Reverse(msgs)

	// lastOK gates pacing: only back-to-back successes are spaced out.
	lastOK := false
	for _, m := range msgs {
		if f.ledger.Contains(m.ID) {
			rep.Skipped++
			continue
		}

		if lastOK && f.cfg.Delay > 0 {
			if err := f.sleep(ctx, f.cfg.Delay); err != nil {
				return rep, err
			}
		}
		lastOK = false

		start := f.now()
		rerr := f.client.Relay(ctx, f.cfg.Source, f.cfg.Target, m)
		f.audit(ctx, m, rerr, start)

		if rerr != nil {
			if ctx.Err() != nil {
				return rep, ctx.Err()
			}
			rep.Failed++
			f.log.Error("error forwarding message", logx.Int("message_id", m.ID), logx.String("class", messenger.Class(rerr)), logx.Err(rerr))

			if messenger.IsRateLimited(rerr) {
				rep.RateLimited++
				hint, _ := messenger.RetryAfter(rerr)
				f.log.Warn("rate limit hit, cooling down", logx.Duration("cooldown", f.cfg.Cooldown), logx.Duration("retry_after_hint", hint))
				if err := f.sleep(ctx, f.cfg.Cooldown); err != nil {
					return rep, err
				}
			}
			continue
		}

		f.ledger.Add(m.ID)
		lastOK = true
		rep.Forwarded++
		f.log.Info("forwarded message", logx.Int("message_id", m.ID))
	}

	if rep.Forwarded > 0 {
		f.log.Info("successfully forwarded new messages", logx.Int("count", rep.Forwarded))
	} else {
		f.log.Info("no new messages to forward")
	}
	return rep, nil
}

func (f *Forwarder) audit(ctx context.Context, m messenger.Message, err error, start time.Time) {
	e := ledger.AuditEntry{
		At:        start,
		RunID:     f.cfg.RunID,
		MessageID: m.ID,
		Source:    f.cfg.Source,
		Target:    f.cfg.Target,
		OK:        err == nil,
		TookMS:    f.now().Sub(start).Milliseconds(),
	}
	if err != nil {
		e.Class = messenger.Class(err)
		e.Error = err.Error()
	}
	f.ledger.Audit(context.WithoutCancel(ctx), e)
}
