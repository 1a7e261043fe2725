package commands

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/josephlewis42/rsh/core"
	"github.com/josephlewis42/rsh/core/config"
	"github.com/josephlewis42/rsh/core/jobctl"
	"github.com/josephlewis42/rsh/core/lineedit"
	"github.com/josephlewis42/rsh/core/logger"
	"github.com/josephlewis42/rsh/core/shell"
)

// ErrExit is returned when the session should end normally.
var ErrExit = errors.New("exit")

// Shell is the interactive read, parse, dispatch loop.
type Shell struct {
	Config *config.Configuration
	State  *core.State
	Editor *lineedit.Editor
	Jobs   *jobctl.Coordinator
	Events jobctl.EventRecorder

	Stdout io.Writer
	Stderr io.Writer

	// IsTerminal controls colors in auto mode.
	IsTerminal bool

	lastStatus int
	out        *crlfWriter
	errOut     *crlfWriter
}

func (s *Shell) stdout() io.Writer {
	if s.out == nil {
		w := s.Stdout
		if w == nil {
			w = os.Stdout
		}
		s.out = newCRLFWriter(w)
	}
	return s.out
}

func (s *Shell) stderr() io.Writer {
	if s.errOut == nil {
		w := s.Stderr
		if w == nil {
			w = os.Stderr
		}
		s.errOut = newCRLFWriter(w)
	}
	return s.errOut
}

func (s *Shell) record(eventType logger.EventType, fields logger.Fields) {
	if s.Events != nil {
		s.Events.Record(eventType, fields)
	}
}

func (s *Shell) colors() *ColorPrinter {
	return &ColorPrinter{Mode: s.Config.Color, IsTerminal: s.IsTerminal}
}

// Run prints the banner then reads and executes lines until the session ends.
//
// It returns ErrExit for exit and for interrupts while idle, errors wrapping
// lineedit.ErrInput if the terminal can't be read.
func (s *Shell) Run() error {
	s.record(logger.SessionStart, nil)
	defer func() {
		s.record(logger.SessionEnd, logger.Fields{"history_length": s.State.History.Len()})
	}()

	if s.Config.Banner != "" {
		fmt.Fprintln(s.stdout(), s.Config.Banner)
	}

	for {
		s.Jobs.Reap()

		line, err := s.Editor.ReadLine(s.Config.Prompt)
		switch {
		case errors.Is(err, lineedit.ErrInputTooLong):
			s.State.History.Record(line)
			continue
		case errors.Is(err, jobctl.ErrTerminate):
			return ErrExit
		case err != nil:
			return err
		}

		s.State.History.Record(line)

		if _, err := s.Execute(line); errors.Is(err, ErrExit) {
			return err
		}
	}
}

// Execute parses and runs one line. Failures are reported to the user before
// being returned; only ErrExit should end the session.
func (s *Shell) Execute(line string) (int, error) {
	pipeline := shell.Parse(line)
	if pipeline.IsEmpty() {
		return s.lastStatus, nil
	}

	s.record(logger.Command, logger.Fields{
		"argv":   logger.Strings(pipeline[0]),
		"line":   line,
		"stages": len(pipeline),
	})

	var (
		status int
		err    error
	)
	switch kind := Classify(pipeline); {
	case kind != External:
		status, err = builtins[kind](s, pipeline[0])
	case pipeline.IsSimple():
		status, err = s.Jobs.RunForeground(pipeline[0])
	default:
		status, err = s.Jobs.RunPipeline(pipeline)
	}

	s.lastStatus = status
	return status, err
}
