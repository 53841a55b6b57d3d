package telegram

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/gotd/td/tg"
	"github.com/gotd/td/tgerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chanrelay/internal/messenger"
	logx "chanrelay/pkg/logx"
)

func TestHistoryMessagesSkipsServiceEntries(t *testing.T) {
	res := &tg.MessagesChannelMessages{
		Messages: []tg.MessageClass{
			&tg.Message{ID: 12, Message: "newest", Date: 1700000100},
			&tg.MessageService{ID: 11},
			&tg.MessageEmpty{ID: 10},
			&tg.Message{ID: 9, Message: "older", Date: 1700000000},
		},
	}

	got := historyMessages("@src", res)
	require.Len(t, got, 2)
	assert.Equal(t, 12, got[0].ID)
	assert.Equal(t, "newest", got[0].Text)
	assert.Equal(t, "@src", got[0].Peer)
	assert.Equal(t, int64(1700000100), got[0].Date.Unix())
	assert.Equal(t, 9, got[1].ID)

	assert.Empty(t, historyMessages("@src", &tg.MessagesMessagesNotModified{}))
}

func TestClassify(t *testing.T) {
	assert.Nil(t, classify(nil))

	flood := classify(tgerr.New(420, "FLOOD_WAIT_30"))
	assert.True(t, messenger.IsRateLimited(flood))

	unauth := classify(tgerr.New(401, "AUTH_KEY_UNREGISTERED"))
	assert.True(t, messenger.IsUnauthorized(unauth))

	other := errors.New("network down")
	assert.Equal(t, other, classify(other))
}

type staticPrompt struct{ code, password string }

func (p staticPrompt) Code(context.Context) (string, error)     { return p.code, nil }
func (p staticPrompt) Password(context.Context) (string, error) { return p.password, nil }

func TestUserAuth(t *testing.T) {
	a := userAuth{phone: "+15550100", prompt: staticPrompt{code: " 12345\n", password: "pw"}}
	ctx := context.Background()

	phone, err := a.Phone(ctx)
	require.NoError(t, err)
	assert.Equal(t, "+15550100", phone)

	code, err := a.Code(ctx, &tg.AuthSentCode{})
	require.NoError(t, err)
	assert.Equal(t, "12345", code)

	pw, err := a.Password(ctx)
	require.NoError(t, err)
	assert.Equal(t, "pw", pw)

	_, err = a.SignUp(ctx)
	assert.ErrorIs(t, err, errSignUpUnsupported)
}

func TestSessionFileLifecycle(t *testing.T) {
	path := filepath.Join(t.TempDir(), "user_session.json")
	c, err := New(Config{AppID: 1, AppHash: "hash", Phone: "+1", SessionFile: path}, logx.Nop())
	require.NoError(t, err)

	assert.False(t, c.SessionExists())
	require.NoError(t, c.DeleteSession(), "deleting a missing session is not an error")

	require.NoError(t, os.WriteFile(path, []byte(`{"Version":1}`), 0o600))
	assert.True(t, c.SessionExists())

	require.NoError(t, c.DeleteSession())
	assert.False(t, c.SessionExists())
}

func TestNewValidates(t *testing.T) {
	_, err := New(Config{AppHash: "h", SessionFile: "s"}, logx.Nop())
	assert.Error(t, err)
	_, err = New(Config{AppID: 1, AppHash: "h"}, logx.Nop())
	assert.Error(t, err)
}
