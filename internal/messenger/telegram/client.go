// Package telegram implements messenger.Client for a Telegram user account
// over MTProto (gotd/td). Bots cannot read channel history, so the relay runs
// as a regular user whose session is stored in a local file.
package telegram

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/gotd/td/session"
	"github.com/gotd/td/telegram"
	"github.com/gotd/td/telegram/auth"
	"github.com/gotd/td/telegram/message"
	"github.com/gotd/td/tg"
	"github.com/gotd/td/tgerr"

	"chanrelay/internal/messenger"
	logx "chanrelay/pkg/logx"
)

type Config struct {
	AppID       int
	AppHash     string
	Phone       string
	SessionFile string
}

// Client is a Telegram user-account client.
//
// It is not safe for concurrent use.
type Client struct {
	cfg Config
	log logx.Logger

	tc     *telegram.Client
	api    *tg.Client
	sender *message.Sender

	// peers caches resolved channels for the lifetime of one run.
	peers map[string]tg.InputPeerClass
}

var _ messenger.Client = (*Client)(nil)

func New(cfg Config, log logx.Logger) (*Client, error) {
	if cfg.AppID <= 0 || strings.TrimSpace(cfg.AppHash) == "" {
		return nil, errors.New("telegram: api id and hash are required")
	}
	if strings.TrimSpace(cfg.SessionFile) == "" {
		return nil, errors.New("telegram: session file is required")
	}
	if log.IsZero() {
		log = logx.Nop()
	}

	tc := telegram.NewClient(cfg.AppID, cfg.AppHash, telegram.Options{
		SessionStorage: &session.FileStorage{Path: cfg.SessionFile},
		// One-shot run: nothing consumes live updates.
		NoUpdates: true,
	})
	api := tc.API()

	return &Client{
		cfg:    cfg,
		log:    log,
		tc:     tc,
		api:    api,
		sender: message.NewSender(api),
		peers:  map[string]tg.InputPeerClass{},
	}, nil
}

func (c *Client) Run(ctx context.Context, fn func(ctx context.Context) error) error {
	c.log.Debug("connecting")
	err := c.tc.Run(ctx, fn)
	c.log.Debug("disconnected", logx.Err(err))
	return err
}

func (c *Client) SessionExists() bool {
	st, err := os.Stat(c.cfg.SessionFile)
	return err == nil && !st.IsDir() && st.Size() > 0
}

func (c *Client) DeleteSession() error {
	err := os.Remove(c.cfg.SessionFile)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

func (c *Client) IsAuthorized(ctx context.Context) (bool, error) {
	st, err := c.tc.Auth().Status(ctx)
	if err != nil {
		if tgerr.IsCode(err, 401) {
			return false, nil
		}
		return false, classify(err)
	}
	return st.Authorized, nil
}

func (c *Client) StartSession(ctx context.Context, a messenger.Authenticator) error {
	flow := auth.NewFlow(userAuth{phone: c.cfg.Phone, prompt: a}, auth.SendCodeOptions{})
	if err := flow.Run(ctx, c.tc.Auth()); err != nil {
		return fmt.Errorf("sign in: %w", classify(err))
	}
	return nil
}

func (c *Client) Self(ctx context.Context) (messenger.Account, error) {
	u, err := c.tc.Self(ctx)
	if err != nil {
		return messenger.Account{}, classify(err)
	}
	return messenger.Account{
		ID:       u.ID,
		Username: u.Username,
		Name:     strings.TrimSpace(u.FirstName + " " + u.LastName),
		Phone:    u.Phone,
	}, nil
}

func (c *Client) FetchRecent(ctx context.Context, peer string, limit int) ([]messenger.Message, error) {
	if limit <= 0 {
		return nil, nil
	}
	p, err := c.resolve(ctx, peer)
	if err != nil {
		return nil, err
	}

	res, err := c.api.MessagesGetHistory(ctx, &tg.MessagesGetHistoryRequest{
		Peer:  p,
		Limit: limit,
	})
	if err != nil {
		return nil, fmt.Errorf("get history %s: %w", peer, classify(err))
	}
	return historyMessages(peer, res), nil
}

func (c *Client) Relay(ctx context.Context, from, to string, m messenger.Message) error {
	src, err := c.resolve(ctx, from)
	if err != nil {
		return err
	}
	dst, err := c.resolve(ctx, to)
	if err != nil {
		return err
	}

	rid, err := randomID()
	if err != nil {
		return err
	}
	_, err = c.api.MessagesForwardMessages(ctx, &tg.MessagesForwardMessagesRequest{
		FromPeer: src,
		ID:       []int{m.ID},
		RandomID: []int64{rid},
		ToPeer:   dst,
	})
	if err != nil {
		return fmt.Errorf("forward %d: %w", m.ID, classify(err))
	}
	return nil
}

func (c *Client) resolve(ctx context.Context, name string) (tg.InputPeerClass, error) {
	key := strings.TrimSpace(name)
	if p, ok := c.peers[key]; ok {
		return p, nil
	}
	p, err := c.sender.Resolve(key).AsInputPeer(ctx)
	if err != nil {
		if tgerr.Is(err, "USERNAME_NOT_OCCUPIED", "USERNAME_INVALID", "CHANNEL_INVALID", "CHANNEL_PRIVATE") {
			return nil, fmt.Errorf("resolve %s: %w: %w", key, messenger.ErrPeerNotFound, err)
		}
		return nil, fmt.Errorf("resolve %s: %w", key, classify(err))
	}
	c.peers[key] = p
	return p, nil
}

// historyMessages keeps regular messages only; service entries (joins,
// pins, title changes) are not relayed.
func historyMessages(peer string, res tg.MessagesMessagesClass) []messenger.Message {
	var raw []tg.MessageClass
	switch r := res.(type) {
	case *tg.MessagesMessages:
		raw = r.Messages
	case *tg.MessagesMessagesSlice:
		raw = r.Messages
	case *tg.MessagesChannelMessages:
		raw = r.Messages
	}

	out := make([]messenger.Message, 0, len(raw))
	for _, m := range raw {
		msg, ok := m.(*tg.Message)
		if !ok {
			continue
		}
		out = append(out, messenger.Message{
			ID:   msg.ID,
			Peer: peer,
			Text: msg.Message,
			Date: time.Unix(int64(msg.Date), 0),
		})
	}
	return out
}

// classify maps RPC errors onto messenger's typed errors.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if d, ok := tgerr.AsFloodWait(err); ok {
		return messenger.RateLimited(err, d)
	}
	if tgerr.IsCode(err, 420) {
		return messenger.RateLimited(err, 0)
	}
	if tgerr.IsCode(err, 401) || tgerr.Is(err, "AUTH_KEY_UNREGISTERED", "SESSION_REVOKED", "SESSION_EXPIRED", "USER_DEACTIVATED") {
		return fmt.Errorf("%w: %w", messenger.ErrUnauthorized, err)
	}
	return err
}

func randomID() (int64, error) {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return 0, err
	}
	return int64(binary.LittleEndian.Uint64(b[:])), nil
}
