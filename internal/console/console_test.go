package console

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAskReadsTrimmedLines(t *testing.T) {
	var out bytes.Buffer
	c := New(strings.NewReader(" 12345 \nsecret\n"), &out, true)

	code, err := c.Code(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "12345", code)

	pw, err := c.Password(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "secret", pw)

	assert.Contains(t, out.String(), "login code")
	assert.Contains(t, out.String(), "two-step verification")
}

func TestAskLastLineWithoutNewline(t *testing.T) {
	c := New(strings.NewReader("777"), io.Discard, true)
	code, err := c.Code(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "777", code)
}

func TestAskNonInteractive(t *testing.T) {
	c := New(strings.NewReader("12345\n"), io.Discard, false)
	assert.False(t, c.Interactive())

	_, err := c.Code(context.Background())
	assert.ErrorIs(t, err, ErrNotInteractive)
}

func TestAskEmptyAndEOF(t *testing.T) {
	c := New(strings.NewReader("\n"), io.Discard, true)
	_, err := c.Code(context.Background())
	assert.Error(t, err)

	c = New(strings.NewReader(""), io.Discard, true)
	_, err = c.Code(context.Background())
	assert.ErrorIs(t, err, io.EOF)
}

func TestAskCancelled(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()
	c := New(pr, io.Discard, true)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.Code(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
