package notifier

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	logx "chanrelay/pkg/logx"
	"chanrelay/pkg/tgui"
)

type sent struct {
	chatID   int64
	threadID int
	text     string
}

type fakeSender struct {
	mu    sync.Mutex
	fails int // fail this many calls first
	calls int
	out   []sent
}

func (f *fakeSender) SendText(_ context.Context, chatID int64, threadID int, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.calls <= f.fails {
		return errors.New("bot api unavailable")
	}
	f.out = append(f.out, sent{chatID: chatID, threadID: threadID, text: text})
	return nil
}

func fastConfig() Config {
	return Config{
		ChatID:        -100123,
		ThreadID:      7,
		RatePerSec:    1000,
		RetryMax:      2,
		RetryBase:     time.Millisecond,
		RetryMaxDelay: 2 * time.Millisecond,
		Source:        "@src → @dst",
	}
}

func TestNewWithoutBotIsNop(t *testing.T) {
	n, err := New(Config{}, logx.Nop())
	require.NoError(t, err)
	assert.IsType(t, Nop{}, n)
	assert.ErrorIs(t, n.Notify(context.Background(), Notification{Kind: KindAuthRequired}), ErrDisabled)

	n, err = New(Config{Token: "1:abc"}, logx.Nop())
	require.NoError(t, err)
	assert.IsType(t, Nop{}, n, "a token without a chat is not enough")
}

func TestNewWithBotBuildsOffline(t *testing.T) {
	n, err := New(Config{Token: "123:abc", ChatID: 42}, logx.Nop())
	require.NoError(t, err)
	assert.IsType(t, &Service{}, n)
}

func TestNotifyFormatsAndTargets(t *testing.T) {
	fs := &fakeSender{}
	s := NewWithSender(fastConfig(), fs, logx.Nop())

	require.NoError(t, s.Notify(context.Background(), Notification{Kind: KindSessionExpired, Text: "run chanrelay in a terminal"}))

	require.Len(t, fs.out, 1)
	assert.Equal(t, int64(-100123), fs.out[0].chatID)
	assert.Equal(t, 7, fs.out[0].threadID)
	assert.True(t, strings.HasPrefix(fs.out[0].text, "🔑 chanrelay (@src → @dst): session expired"))
	assert.Contains(t, fs.out[0].text, "\nrun chanrelay in a terminal")
}

func TestNotifyRetriesThenSucceeds(t *testing.T) {
	fs := &fakeSender{fails: 2}
	s := NewWithSender(fastConfig(), fs, logx.Nop())

	require.NoError(t, s.Notify(context.Background(), Notification{Kind: KindRelayError, Text: "boom"}))
	assert.Equal(t, 3, fs.calls)
	assert.Len(t, fs.out, 1)
}

func TestNotifyGivesUpAfterRetries(t *testing.T) {
	fs := &fakeSender{fails: 10}
	s := NewWithSender(fastConfig(), fs, logx.Nop())

	err := s.Notify(context.Background(), Notification{Kind: KindAuthFailed})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "auth_failed")
	assert.Equal(t, 3, fs.calls)
}

func TestNotifyHonorsCancellation(t *testing.T) {
	fs := &fakeSender{}
	s := NewWithSender(fastConfig(), fs, logx.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, s.Notify(ctx, Notification{Kind: KindAuthRequired}), context.Canceled)
	assert.Zero(t, fs.calls)
}

func TestNotifySplitsLongText(t *testing.T) {
	fs := &fakeSender{}
	s := NewWithSender(fastConfig(), fs, logx.Nop())

	long := strings.Repeat("line of relay error context\n", 400)
	require.NoError(t, s.Notify(context.Background(), Notification{Kind: KindRelayError, Text: long}))
	require.Greater(t, len(fs.out), 1)
	for _, m := range fs.out {
		assert.LessOrEqual(t, len([]rune(m.text)), tgui.MaxMessageRunes)
	}
}

func TestRetryDelayBounds(t *testing.T) {
	s := NewWithSender(Config{ChatID: 1, RetryBase: 100 * time.Millisecond, RetryMaxDelay: time.Second}, &fakeSender{}, logx.Nop())
	for attempt := 1; attempt <= 6; attempt++ {
		d := s.retryDelay(attempt)
		assert.Greater(t, d, time.Duration(0))
		assert.LessOrEqual(t, d, time.Second)
	}
	first := s.retryDelay(1)
	assert.GreaterOrEqual(t, first, 70*time.Millisecond)
	assert.LessOrEqual(t, first, 130*time.Millisecond)
}
