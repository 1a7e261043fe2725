// Package lineedit reads a line from a raw-mode terminal, doing the echo and
// erase work the terminal driver would do in canonical mode.
package lineedit

import (
	"errors"
	"fmt"
	"io"
	"os"
)

var (
	// ErrInput is returned when the input can't be read. It's fatal to the
	// session.
	ErrInput = errors.New("cannot read from stdin")
	// ErrInputTooLong is returned, along with the truncated line, when the
	// line exceeds the maximum length.
	ErrInputTooLong = errors.New("input too long")
)

const (
	keyInterrupt = 0x03
	keyBackspace = '\b'
	keyDelete    = 0x7f
	keyTab       = '\t'

	// DefaultMaxLength is the longest line accepted if none is configured.
	DefaultMaxLength = 1023
)

// Editor reads lines byte by byte.
type Editor struct {
	out       io.Writer
	src       *byteSource
	maxLength int

	// OnInterrupt is called for the interrupt byte (sig is os.Interrupt) and
	// for signals received on Signals while a line is being read. A non-nil
	// return aborts the read and is passed back from ReadLine.
	OnInterrupt func(sig os.Signal) error

	// Signals delivers signals that arrive while the editor is blocked.
	Signals <-chan os.Signal
}

// New creates an editor reading from in and echoing to out. maxLength <= 0
// uses DefaultMaxLength.
func New(in io.Reader, out io.Writer, maxLength int) *Editor {
	if maxLength <= 0 {
		maxLength = DefaultMaxLength
	}

	return &Editor{
		out:       out,
		src:       newByteSource(in),
		maxLength: maxLength,
	}
}

// MaxLength gets the longest line the editor accepts.
func (e *Editor) MaxLength() int {
	return e.maxLength
}

func (e *Editor) interrupt(sig os.Signal) error {
	if e.OnInterrupt == nil {
		return nil
	}
	return e.OnInterrupt(sig)
}

func (e *Editor) next() (byte, error) {
	for {
		e.src.request()
		select {
		case res := <-e.src.results:
			e.src.pending = false
			return res.b, res.err
		case sig := <-e.Signals:
			if err := e.interrupt(sig); err != nil {
				return 0, err
			}
		}
	}
}

// Close stops the background reader once its current read finishes.
func (e *Editor) Close() {
	e.src.Close()
}

// ReadLine writes prompt, then reads until a line terminator. The returned
// line never contains the terminator.
//
// If the line grows past the maximum length the partial line is returned with
// ErrInputTooLong. Read failures wrap ErrInput.
func (e *Editor) ReadLine(prompt string) (string, error) {
	fmt.Fprint(e.out, "\r"+prompt)

	buf := make([]byte, 0, 64)
	for {
		c, err := e.next()
		if err != nil {
			return string(buf), err
		}

		switch {
		case c == '\n' || c == '\r':
			fmt.Fprint(e.out, "\r\n")
			return string(buf), nil

		case c == keyBackspace || c == keyDelete:
			if len(buf) > 0 {
				buf = buf[:len(buf)-1]
				fmt.Fprint(e.out, "\b \b")
			}

		case c == keyTab:
			fmt.Fprint(e.out, "\t")

		case c == keyInterrupt:
			if err := e.interrupt(os.Interrupt); err != nil {
				return string(buf), err
			}

		case isControl(c):
			// Other control bytes are dropped.

		case len(buf) >= e.maxLength:
			fmt.Fprintf(e.out, "\r\nInput too long! Maximum length is %d\r\n", e.maxLength)
			return string(buf), ErrInputTooLong

		default:
			buf = append(buf, c)
			e.out.Write([]byte{c})
		}
	}
}

func isControl(c byte) bool {
	return c < 0x20 || c == keyDelete
}
