package cmd

import (
	"errors"
	"io"
	"log"
	"os"

	"github.com/josephlewis42/rsh/commands"
	"github.com/josephlewis42/rsh/core"
	"github.com/josephlewis42/rsh/core/config"
	"github.com/josephlewis42/rsh/core/jobctl"
	"github.com/josephlewis42/rsh/core/launcher"
	"github.com/josephlewis42/rsh/core/lineedit"
	"github.com/josephlewis42/rsh/core/logger"
	"github.com/josephlewis42/rsh/core/terminal"
)

// openEventLog opens the configured event log, falling back to discarding
// events if it can't be opened.
func openEventLog(cfg *config.Configuration, diagnostics *log.Logger) (*logger.Logger, io.Closer) {
	if !cfg.EventLog {
		return logger.NewNopLogger(), io.NopCloser(nil)
	}

	fd, err := cfg.OpenAppLog()
	if err != nil {
		diagnostics.Printf("couldn't open event log: %v", err)
		return logger.NewNopLogger(), io.NopCloser(nil)
	}
	return logger.NewJsonLinesLogRecorder(fd), fd
}

// runShell runs an interactive session on the process's standard streams.
//
// The terminal is restored on every return path, including panics.
func runShell(cfg *config.Configuration, diagnostics *log.Logger) error {
	tty := terminal.New(os.Stdin)

	var (
		jobTerminal jobctl.Terminal
		controlling *os.File
	)
	if tty.IsTerminal() {
		switch err := tty.CheckForeground(); {
		case errors.Is(err, terminal.ErrNotForeground):
			return err
		case err != nil:
			diagnostics.Printf("job control disabled: %v", err)
		default:
			jobTerminal = tty
			controlling = tty.File()
		}

		restore, err := tty.MakeRaw()
		if err != nil {
			return err
		}
		defer restore()
	}

	eventLog, closer := openEventLog(cfg, diagnostics)
	defer closer.Close()
	events := &logger.QuietRecorder{Session: eventLog.NewSession(), Log: diagnostics}

	state := core.NewState(os.Getenv, cfg.DefaultSearchPath())
	defer state.Close()

	coordinator := jobctl.New(state, &launcher.Launcher{
		SearchPath: state.SearchPath,
		Stdin:      os.Stdin,
		Stdout:     os.Stdout,
		Stderr:     os.Stderr,
		Terminal:   controlling,
	}, jobTerminal, events, os.Stderr)
	stopRelay := coordinator.StartRelay()
	defer stopRelay()

	editor := lineedit.New(os.Stdin, os.Stdout, cfg.MaxLineLength)
	defer editor.Close()
	editor.Signals = coordinator.Idle()
	editor.OnInterrupt = coordinator.HandleIdle

	sh := &commands.Shell{
		Config:     cfg,
		State:      state,
		Editor:     editor,
		Jobs:       coordinator,
		Events:     events,
		Stdout:     os.Stdout,
		Stderr:     os.Stderr,
		IsTerminal: tty.IsTerminal(),
	}
	return sh.Run()
}
