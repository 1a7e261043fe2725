// Package terminal manages the controlling terminal: raw mode and which
// process group owns the foreground.
package terminal

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"golang.org/x/sys/unix"
	"golang.org/x/term"
)

// ErrNotTerminal is returned when an operation needs a terminal but the file
// isn't one.
var ErrNotTerminal = errors.New("not a terminal")

// ErrNotForeground is returned when the caller's process group doesn't own
// its controlling terminal, e.g. it was started with '&'.
var ErrNotForeground = errors.New("not in the terminal's foreground process group")

// Terminal is the controlling terminal of the shell.
type Terminal struct {
	file *os.File
	fd   int

	mu       sync.Mutex
	original *term.State
}

// New wraps f, usually os.Stdin.
func New(f *os.File) *Terminal {
	return &Terminal{file: f, fd: int(f.Fd())}
}

// File gets the underlying file.
func (t *Terminal) File() *os.File {
	return t.file
}

// IsTerminal reports whether the file is a terminal at all. Job control and
// raw mode are skipped when it isn't.
func (t *Terminal) IsTerminal() bool {
	return term.IsTerminal(t.fd)
}

// Termios gets a snapshot of the current terminal configuration.
func (t *Terminal) Termios() (*unix.Termios, error) {
	return unix.IoctlGetTermios(t.fd, ioctlReadTermios)
}

// MakeRaw switches the terminal to raw mode and returns a function that puts
// the original configuration back. The restore function is safe to call more
// than once and from any goroutine.
//
// Unlike term.MakeRaw, ISIG stays enabled so ^C and ^Z still generate SIGINT
// and SIGTSTP for whichever process group is in the foreground.
func (t *Terminal) MakeRaw() (restore func() error, err error) {
	if !t.IsTerminal() {
		return nil, fmt.Errorf("raw mode on fd %d: %w", t.fd, ErrNotTerminal)
	}

	original, err := term.GetState(t.fd)
	if err != nil {
		return nil, err
	}

	raw, err := t.Termios()
	if err != nil {
		return nil, err
	}
	raw.Iflag &^= unix.BRKINT | unix.ICRNL | unix.INPCK | unix.ISTRIP | unix.IXON
	raw.Oflag &^= unix.OPOST
	raw.Cflag |= unix.CS8
	raw.Lflag &^= unix.ECHO | unix.ICANON | unix.IEXTEN
	raw.Cc[unix.VMIN] = 1
	raw.Cc[unix.VTIME] = 0

	if err := unix.IoctlSetTermios(t.fd, ioctlWriteTermiosFlush, raw); err != nil {
		return nil, err
	}

	t.mu.Lock()
	t.original = original
	t.mu.Unlock()

	return t.restore, nil
}

func (t *Terminal) restore() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.original == nil {
		return nil
	}
	err := term.Restore(t.fd, t.original)
	t.original = nil
	return err
}

// ForegroundGroup gets the process group that owns the terminal.
func (t *Terminal) ForegroundGroup() (int, error) {
	return unix.IoctlGetInt(t.fd, unix.TIOCGPGRP)
}

// CheckForeground verifies the terminal is the caller's controlling terminal
// and that the caller's process group is in the foreground.
func (t *Terminal) CheckForeground() error {
	pgid, err := t.ForegroundGroup()
	if err != nil {
		return fmt.Errorf("not the controlling terminal: %w", err)
	}
	if pgid != unix.Getpgrp() {
		return fmt.Errorf("%w: owned by group %d", ErrNotForeground, pgid)
	}
	return nil
}

// SetForegroundGroup hands the terminal to pgid.
//
// SIGTTOU is ignored for the duration of the call because the caller may not
// be in the foreground group itself, in which case the kernel would stop it.
func (t *Terminal) SetForegroundGroup(pgid int) error {
	signal.Ignore(syscall.SIGTTOU)
	defer signal.Reset(syscall.SIGTTOU)

	return unix.IoctlSetPointerInt(t.fd, unix.TIOCSPGRP, pgid)
}
