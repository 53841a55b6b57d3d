// Package console reads login secrets from the operator's terminal.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"golang.org/x/term"
)

var ErrNotInteractive = errors.New("console: no interactive input attached")

// Console prompts on out and reads answers from in.
type Console struct {
	in  io.Reader
	out io.Writer

	// fd is the terminal descriptor of in, or -1.
	fd          int
	interactive bool

	r *bufio.Reader
}

// Std returns a Console over the process stdin/stderr. Prompts go to stderr
// so stdout stays clean for the status line.
func Std() *Console {
	fd := int(os.Stdin.Fd())
	interactive := isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
	if !interactive {
		fd = -1
	}
	return &Console{in: os.Stdin, out: os.Stderr, fd: fd, interactive: interactive}
}

// New returns a Console over arbitrary streams. interactive states whether
// a person is expected to answer.
func New(in io.Reader, out io.Writer, interactive bool) *Console {
	return &Console{in: in, out: out, fd: -1, interactive: interactive}
}

// Interactive reports whether input is attached to a terminal.
func (c *Console) Interactive() bool { return c.interactive }

func (c *Console) Code(ctx context.Context) (string, error) {
	return c.ask(ctx, "Enter the login code Telegram sent you: ", false)
}

func (c *Console) Password(ctx context.Context) (string, error) {
	return c.ask(ctx, "Enter your two-step verification password: ", true)
}

type answer struct {
	s   string
	err error
}

// ask blocks on input in a goroutine so ctx cancellation (SIGINT) returns
// promptly; the reader goroutine is abandoned in that case.
func (c *Console) ask(ctx context.Context, prompt string, secret bool) (string, error) {
	if !c.interactive {
		return "", ErrNotInteractive
	}
	fmt.Fprint(c.out, prompt)

	ch := make(chan answer, 1)
	go func() {
		if secret && c.fd >= 0 {
			b, err := term.ReadPassword(c.fd)
			fmt.Fprintln(c.out)
			ch <- answer{s: string(b), err: err}
			return
		}
		if c.r == nil {
			c.r = bufio.NewReader(c.in)
		}
		line, err := c.r.ReadString('\n')
		if err != nil && !(errors.Is(err, io.EOF) && line != "") {
			ch <- answer{err: err}
			return
		}
		ch <- answer{s: line}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case a := <-ch:
		if a.err != nil {
			return "", fmt.Errorf("console: read: %w", a.err)
		}
		s := strings.TrimSpace(a.s)
		if s == "" {
			return "", errors.New("console: empty answer")
		}
		return s, nil
	}
}
