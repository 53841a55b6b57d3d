// Package systemd reports run status to the service manager.
package systemd

import (
	"strings"

	"github.com/coreos/go-systemd/v22/daemon"
)

// Status publishes a one-line STATUS= for `systemctl status`.
//
// Outside a unit (NOTIFY_SOCKET unset) it does nothing and returns false.
func Status(line string) (bool, error) {
	return daemon.SdNotify(false, "STATUS="+oneLine(line))
}

func oneLine(s string) string {
	s = strings.TrimSpace(s)
	return strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ").Replace(s)
}
