package notifier

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	logx "chanrelay/pkg/logx"
	"chanrelay/pkg/tgui"
)

// maxDetailRunes caps the free-form part of an alert (error chains can be long).
const maxDetailRunes = 12000

// Service sends operator alerts through a Sender with rate limiting and
// bounded retries. It is safe for concurrent use.
type Service struct {
	mu sync.Mutex

	cfg     Config
	sender  Sender
	log     logx.Logger
	limiter *rate.Limiter
	rng     *rand.Rand
}

// New returns a bot-backed notifier, or Nop when no bot is configured.
func New(cfg Config, log logx.Logger) (Notifier, error) {
	if strings.TrimSpace(cfg.Token) == "" || cfg.ChatID == 0 {
		return Nop{}, nil
	}
	sender, err := newBotSender(cfg)
	if err != nil {
		return nil, err
	}
	return NewWithSender(cfg, sender, log), nil
}

// NewWithSender builds a Service over any Sender.
func NewWithSender(cfg Config, sender Sender, log logx.Logger) *Service {
	if log.IsZero() {
		log = logx.Nop()
	}
	cfg = withDefaults(cfg)
	return &Service{
		cfg:    cfg,
		sender: sender,
		log:    log,
		// Token bucket: burst = rate per sec, so a short burst of alerts is not delayed.
		limiter: rate.NewLimiter(rate.Limit(cfg.RatePerSec), cfg.RatePerSec),
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func withDefaults(cfg Config) Config {
	if cfg.RatePerSec <= 0 {
		cfg.RatePerSec = 1
	}
	if cfg.RetryMax < 0 {
		cfg.RetryMax = 0
	} else if cfg.RetryMax == 0 {
		cfg.RetryMax = 2
	}
	if cfg.RetryBase <= 0 {
		cfg.RetryBase = 500 * time.Millisecond
	}
	if cfg.RetryMaxDelay <= 0 {
		cfg.RetryMaxDelay = 5 * time.Second
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = 10 * time.Second
	}
	return cfg
}

// Notify formats n and delivers it, splitting text that exceeds the
// platform limit. It returns the last delivery error, if any.
func (s *Service) Notify(ctx context.Context, n Notification) error {
	if s == nil || s.sender == nil {
		return ErrDisabled
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	text := s.format(n)
	for _, chunk := range tgui.Split(text, tgui.MaxMessageRunes) {
		if err := s.sendWithRetry(ctx, chunk); err != nil {
			return fmt.Errorf("notify %s: %w", n.Kind, err)
		}
	}
	s.log.Debug("operator notified", logx.String("kind", string(n.Kind)))
	return nil
}

func (s *Service) format(n Notification) string {
	var b strings.Builder
	b.WriteString(prefixForKind(n.Kind))
	b.WriteString("chanrelay")
	if s.cfg.Source != "" {
		b.WriteString(" (")
		b.WriteString(s.cfg.Source)
		b.WriteString(")")
	}
	b.WriteString(": ")
	b.WriteString(titleForKind(n.Kind))
	if t := strings.TrimSpace(n.Text); t != "" {
		b.WriteString("\n")
		b.WriteString(tgui.TruncRunes(t, maxDetailRunes))
	}
	return b.String()
}

func (s *Service) sendWithRetry(ctx context.Context, text string) error {
	maxAttempts := 1 + s.cfg.RetryMax

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := s.limiter.Wait(ctx); err != nil {
			return err
		}

		// Bound per-send call.
		callCtx, cancel := context.WithTimeout(ctx, s.cfg.SendTimeout)
		err := s.sender.SendText(callCtx, s.cfg.ChatID, s.cfg.ThreadID, text)
		cancel()
		if err == nil {
			return nil
		}
		lastErr = err
		s.log.Debug("notify send failed", logx.Err(err), logx.Int("attempt", attempt), logx.Int("max", maxAttempts))

		if attempt >= maxAttempts {
			break
		}

		t := time.NewTimer(s.retryDelay(attempt))
		select {
		case <-t.C:
		case <-ctx.Done():
			t.Stop()
			return errors.Join(lastErr, ctx.Err())
		}
	}
	return lastErr
}

// retryDelay returns the pause before attempt+1: base * 2^(attempt-1),
// capped, with 0.7..1.3 jitter.
func (s *Service) retryDelay(attempt int) time.Duration {
	d := s.cfg.RetryBase
	maxD := s.cfg.RetryMaxDelay
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= maxD {
			d = maxD
			break
		}
	}
	s.mu.Lock()
	j := 0.7 + s.rng.Float64()*0.6
	s.mu.Unlock()
	d = time.Duration(float64(d) * j)
	if d < 0 {
		return 0
	}
	if d > maxD {
		d = maxD
	}
	return d
}

func prefixForKind(k Kind) string {
	switch k {
	case KindAuthRequired, KindSessionExpired:
		return "🔑 "
	case KindAuthFailed, KindRelayError:
		return "🚨 "
	default:
		return ""
	}
}

func titleForKind(k Kind) string {
	switch k {
	case KindAuthRequired:
		return "authentication required; run interactively to log in"
	case KindAuthFailed:
		return "authentication failed"
	case KindSessionExpired:
		return "session expired; stored credential removed"
	case KindRelayError:
		return "relay run failed"
	default:
		return string(k)
	}
}
