package systemd

import (
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusOutsideUnit(t *testing.T) {
	t.Setenv("NOTIFY_SOCKET", "")
	sent, err := Status("3 forwarded")
	require.NoError(t, err)
	assert.False(t, sent)
}

func TestStatusDelivered(t *testing.T) {
	sock := filepath.Join(t.TempDir(), "notify.sock")
	conn, err := net.ListenUnixgram("unixgram", &net.UnixAddr{Name: sock, Net: "unixgram"})
	require.NoError(t, err)
	defer conn.Close()
	t.Setenv("NOTIFY_SOCKET", sock)

	sent, err := Status("ok: 2 forwarded\nsecond line")
	require.NoError(t, err)
	require.True(t, sent)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	buf := make([]byte, 256)
	n, err := conn.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "STATUS=ok: 2 forwarded second line", string(buf[:n]))
}
