package notifier

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	tele "gopkg.in/telebot.v4"
)

// botSender delivers through the Telegram Bot API.
type botSender struct {
	bot *tele.Bot
}

func newBotSender(cfg Config) (*botSender, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, errors.New("notifier: bot token is empty")
	}
	timeout := cfg.SendTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	b, err := tele.NewBot(tele.Settings{
		Token: cfg.Token,
		URL:   strings.TrimSpace(cfg.APIURL),
		// No getMe round-trip at construction: the bot is only used when
		// something goes wrong.
		Offline: true,
		Client:  &http.Client{Timeout: timeout},
	})
	if err != nil {
		return nil, err
	}
	return &botSender{bot: b}, nil
}

func (s *botSender) SendText(ctx context.Context, chatID int64, threadID int, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := s.bot.Send(&tele.Chat{ID: chatID}, text, &tele.SendOptions{
		DisableWebPagePreview: true,
		ThreadID:              threadID,
	})
	return err
}
