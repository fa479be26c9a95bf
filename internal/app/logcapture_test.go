package app

import (
	"testing"

	"fyne.io/fyne/v2/data/binding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestLogCaptureKeepsLastLines(t *testing.T) {
	c := newLogCapture(nil, 3)

	n, err := c.Write([]byte("one\r\ntwo\n\n"))
	require.NoError(t, err)
	assert.Equal(t, 11, n)
	_, _ = c.Write([]byte("three\nfour\n"))

	assert.Equal(t, "two\nthree\nfour", c.Text())
	assert.NoError(t, c.Sync())
}

func TestLogCaptureDefaultsLimit(t *testing.T) {
	c := newLogCapture(nil, 0)
	assert.Equal(t, maxLogLines, c.limit)
}

func TestLogCaptureStop(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	b := binding.NewString()
	c := newLogCapture(b, 10)
	c.start()
	_, _ = c.Write([]byte("loading\n"))
	c.stop()
	c.stop()

	v, err := b.Get()
	require.NoError(t, err)
	assert.Equal(t, "loading", v)

	_, _ = c.Write([]byte("closed\n"))
	v, err = b.Get()
	require.NoError(t, err)
	assert.Equal(t, "loading\nclosed", v)
}
