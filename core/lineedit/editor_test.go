package lineedit

import (
	"bytes"
	"errors"
	"io"
	"os"
	"strings"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadLine(t *testing.T) {
	cases := map[string]struct {
		input    string
		wantLine string
		wantEcho string
	}{
		"newline":             {"echo hi\n", "echo hi", "\r> echo hi\r\n"},
		"carriage return":     {"echo hi\r", "echo hi", "\r> echo hi\r\n"},
		"empty":               {"\r", "", "\r> \r\n"},
		"backspace at start":  {"\x7fls\n", "ls", "\r> ls\r\n"},
		"backspace":           {"ab\x7fc\n", "ac", "\r> ab\b \bc\r\n"},
		"ctrl-h":              {"ab\bc\n", "ac", "\r> ab\b \bc\r\n"},
		"erase all":           {"ab\x7f\x7f\x7f\n", "", "\r> ab\b \b\b \b\r\n"},
		"tab echoed only":     {"a\tb\n", "ab", "\r> a\tb\r\n"},
		"control bytes drop":  {"a\x01\x1bb\n", "ab", "\r> ab\r\n"},
		"high bytes kept":     {"caf\xc3\xa9\n", "caf\xc3\xa9", "\r> caf\xc3\xa9\r\n"},
		"spaces verbatim":     {"  a   b  \n", "  a   b  ", "\r>   a   b  \r\n"},
	}

	for tn, tc := range cases {
		t.Run(tn, func(t *testing.T) {
			out := &bytes.Buffer{}
			editor := New(strings.NewReader(tc.input), out, 0)
			defer editor.Close()

			line, err := editor.ReadLine("> ")
			require.Nil(t, err)
			assert.Equal(t, tc.wantLine, line)
			assert.Equal(t, tc.wantEcho, out.String())
		})
	}
}

func TestReadLine_consecutive(t *testing.T) {
	editor := New(strings.NewReader("one\ntwo\r"), io.Discard, 0)
	defer editor.Close()

	first, err := editor.ReadLine("")
	require.Nil(t, err)
	second, err := editor.ReadLine("")
	require.Nil(t, err)

	assert.Equal(t, "one", first)
	assert.Equal(t, "two", second)
}

func TestReadLine_tooLong(t *testing.T) {
	out := &bytes.Buffer{}
	editor := New(strings.NewReader("abcd\n"), out, 3)
	defer editor.Close()
	assert.Equal(t, 3, editor.MaxLength())

	line, err := editor.ReadLine("")
	assert.True(t, errors.Is(err, ErrInputTooLong))
	assert.Equal(t, "abc", line)
	assert.Equal(t, "\rabc\r\nInput too long! Maximum length is 3\r\n", out.String())

	// The rest of the input is still there for the next read.
	line, err = editor.ReadLine("")
	assert.Nil(t, err)
	assert.Equal(t, "", line)
}

func TestReadLine_exactlyMaxLength(t *testing.T) {
	editor := New(strings.NewReader("abc\n"), io.Discard, 3)
	defer editor.Close()

	line, err := editor.ReadLine("")
	assert.Nil(t, err)
	assert.Equal(t, "abc", line)
}

func TestReadLine_eof(t *testing.T) {
	editor := New(strings.NewReader("partial"), io.Discard, 0)
	defer editor.Close()

	line, err := editor.ReadLine("")
	assert.True(t, errors.Is(err, ErrInput))
	assert.Equal(t, "partial", line)
}

type eintrOnce struct {
	r      io.Reader
	failed bool
}

func (e *eintrOnce) Read(p []byte) (int, error) {
	if !e.failed {
		e.failed = true
		return 0, syscall.EINTR
	}
	return e.r.Read(p)
}

func TestReadLine_retriesEINTR(t *testing.T) {
	editor := New(&eintrOnce{r: strings.NewReader("ok\n")}, io.Discard, 0)
	defer editor.Close()

	line, err := editor.ReadLine("")
	assert.Nil(t, err)
	assert.Equal(t, "ok", line)
}

func TestReadLine_interruptByte(t *testing.T) {
	errStop := errors.New("stop")

	t.Run("handler aborts", func(t *testing.T) {
		var got []os.Signal
		editor := New(strings.NewReader("ab\x03cd\n"), io.Discard, 0)
		defer editor.Close()
		editor.OnInterrupt = func(sig os.Signal) error {
			got = append(got, sig)
			return errStop
		}

		line, err := editor.ReadLine("")
		assert.Equal(t, errStop, err)
		assert.Equal(t, "ab", line)
		assert.Equal(t, []os.Signal{os.Interrupt}, got)
	})

	t.Run("handler continues", func(t *testing.T) {
		editor := New(strings.NewReader("ab\x03cd\n"), io.Discard, 0)
		defer editor.Close()
		editor.OnInterrupt = func(os.Signal) error { return nil }

		line, err := editor.ReadLine("")
		assert.Nil(t, err)
		assert.Equal(t, "abcd", line)
	})

	t.Run("no handler", func(t *testing.T) {
		editor := New(strings.NewReader("\x03x\n"), io.Discard, 0)
		defer editor.Close()

		line, err := editor.ReadLine("")
		assert.Nil(t, err)
		assert.Equal(t, "x", line)
	})
}

func TestReadLine_signalWhileBlocked(t *testing.T) {
	errStop := errors.New("stop")

	// The pipe is never written, so the read blocks until the signal arrives.
	r, w := io.Pipe()
	defer w.Close()

	signals := make(chan os.Signal, 1)
	signals <- syscall.SIGTERM

	editor := New(r, io.Discard, 0)
	defer editor.Close()
	editor.Signals = signals
	editor.OnInterrupt = func(sig os.Signal) error {
		assert.Equal(t, syscall.SIGTERM, sig)
		return errStop
	}

	_, err := editor.ReadLine("")
	assert.Equal(t, errStop, err)
}
