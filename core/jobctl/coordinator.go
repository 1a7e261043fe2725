// Package jobctl moves process groups between the foreground, the background
// and the job table.
package jobctl

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"syscall"

	"github.com/josephlewis42/rsh/core"
	"github.com/josephlewis42/rsh/core/jobs"
	"github.com/josephlewis42/rsh/core/launcher"
	"github.com/josephlewis42/rsh/core/logger"
	"github.com/josephlewis42/rsh/core/shell"
	"golang.org/x/sys/unix"
)

var (
	// ErrUsage is returned for malformed fg/bg invocations. It's never fatal.
	ErrUsage = errors.New("usage")
	// ErrNoSuchJob is returned when a pid isn't a child of the shell.
	ErrNoSuchJob = errors.New("no such job")
	// ErrTerminate is returned when the shell received a signal that ends the
	// session.
	ErrTerminate = errors.New("terminated")
)

// Terminal hands the controlling terminal to a process group.
type Terminal interface {
	SetForegroundGroup(pgid int) error
}

// EventRecorder stores shell events.
type EventRecorder interface {
	Record(eventType logger.EventType, fields logger.Fields) error
}

type nopRecorder struct{}

func (nopRecorder) Record(logger.EventType, logger.Fields) error { return nil }

// Coordinator runs foreground jobs and resumes parked ones.
//
// All methods except the signal relay must be called from the shell's main
// loop.
type Coordinator struct {
	state    *core.State
	launcher *launcher.Launcher
	term     Terminal
	events   EventRecorder
	stderr   io.Writer

	// shellPgid is the group the terminal is returned to.
	shellPgid int

	idle chan os.Signal
}

// New creates a coordinator. term may be nil if the shell has no controlling
// terminal; ownership transfers are skipped.
func New(state *core.State, l *launcher.Launcher, term Terminal, events EventRecorder, stderr io.Writer) *Coordinator {
	if events == nil {
		events = nopRecorder{}
	}
	if stderr == nil {
		stderr = os.Stderr
	}

	return &Coordinator{
		state:     state,
		launcher:  l,
		term:      term,
		events:    events,
		stderr:    stderr,
		shellPgid: unix.Getpgrp(),
		idle:      make(chan os.Signal, 8),
	}
}

func (c *Coordinator) record(eventType logger.EventType, fields logger.Fields) {
	// Failures are surfaced by the recorder, they never change what the shell
	// does.
	c.events.Record(eventType, fields)
}

func (c *Coordinator) grant(pgid int) {
	if c.term != nil {
		c.term.SetForegroundGroup(pgid)
	}
	c.state.SetForeground(pgid)
}

func (c *Coordinator) reclaim() {
	c.state.SetForeground(0)
	if c.term != nil {
		c.term.SetForegroundGroup(c.shellPgid)
	}
}

// RunForeground starts a single command in its own process group, gives it
// the terminal and waits until it exits or stops. A stopped command is added
// to the job table.
func (c *Coordinator) RunForeground(stage shell.Stage) (int, error) {
	pid, err := c.launcher.Start(stage)
	switch {
	case errors.Is(err, launcher.ErrExecNotFound):
		c.launcher.ReportNotFound(stage.Name())
		c.record(logger.CommandNotFound, logger.Fields{"argv": logger.Strings(stage)})
		return launcher.StatusNotFound, nil
	case err != nil:
		fmt.Fprintf(c.stderr, "Error: Fork failed\r\n")
		c.record(logger.LaunchError, logger.Fields{"argv": logger.Strings(stage), "error": err.Error()})
		return -1, err
	}

	c.grant(pid)
	return c.foreground(pid, strings.Join(stage, " "))
}

// RunPipeline runs a multi-stage pipeline. Pipelines stay in the shell's
// process group and never become jobs.
func (c *Coordinator) RunPipeline(p shell.Pipeline) (int, error) {
	status, err := c.launcher.RunPipeline(p)
	if err != nil {
		fmt.Fprintf(c.stderr, "Error (FATAL): Could not open pipe\r\n")
		c.record(logger.LaunchError, logger.Fields{"pipeline": p.String(), "error": err.Error()})
	}
	return status, err
}

// foreground waits for pgid, which must already own the terminal.
func (c *Coordinator) foreground(pgid int, command string) (int, error) {
	ws, err := launcher.WaitPid(pgid, unix.WUNTRACED)
	c.reclaim()

	if err != nil {
		if errors.Is(err, unix.ECHILD) {
			return -1, fmt.Errorf("%w: %d", ErrNoSuchJob, pgid)
		}
		return -1, err
	}

	status := launcher.ExitStatus(ws)
	if ws.Stopped() {
		c.state.Jobs.Add(pgid, command, jobs.Stopped)
		fmt.Fprint(c.stderr, "\r\n")
		c.record(logger.JobStopped, logger.Fields{"pid": pgid, "command": command})
		return status, nil
	}

	c.state.Jobs.Remove(pgid)
	c.record(logger.JobExited, logger.Fields{"pid": pgid, "command": command, "status": status})
	return status, nil
}

// Resume continues the process group pid in the foreground and waits for it
// the same way RunForeground does.
//
// pid doesn't have to be in the job table. If it isn't a child of the shell
// the wait fails with ErrNoSuchJob and the table is left alone.
func (c *Coordinator) Resume(pid int) (int, error) {
	if pid <= 0 {
		return -1, fmt.Errorf("%w: invalid pid %d", ErrUsage, pid)
	}

	command := ""
	if job, ok := c.state.Jobs.Get(pid); ok {
		command = job.Command
	}

	c.record(logger.JobResumed, logger.Fields{"pid": pid, "command": command})
	c.grant(pid)
	// The group may already be gone, the wait reports that. -1 would signal
	// every process we're allowed to.
	if pid > 1 {
		unix.Kill(-pid, unix.SIGCONT)
	}
	return c.foreground(pid, command)
}

// Continue lets pid run in the background and stops tracking it. Only the
// process itself is signalled, not its group.
func (c *Coordinator) Continue(pid int) error {
	if pid <= 0 {
		return fmt.Errorf("%w: invalid pid %d", ErrUsage, pid)
	}

	err := unix.Kill(pid, unix.SIGCONT)
	c.state.Jobs.Remove(pid)
	c.record(logger.JobContinued, logger.Fields{"pid": pid})

	if errors.Is(err, unix.ESRCH) {
		return fmt.Errorf("%w: %d", ErrNoSuchJob, pid)
	}
	return err
}

// Jobs lists the tracked jobs, newest first.
func (c *Coordinator) Jobs() []jobs.Job {
	return c.state.Jobs.List()
}

// Reap collects children that exited in the background and drops them from
// the job table. It never blocks.
func (c *Coordinator) Reap() {
	for {
		var ws unix.WaitStatus
		pid, err := unix.Wait4(-1, &ws, unix.WNOHANG, nil)
		if err == unix.EINTR {
			continue
		}
		if err != nil || pid <= 0 {
			return
		}

		if c.state.Jobs.Remove(pid) {
			c.record(logger.JobExited, logger.Fields{"pid": pid, "status": launcher.ExitStatus(ws)})
		}
	}
}

// HandleIdle reacts to a signal delivered while the shell owns the terminal.
// Interrupts, quits and hangups end the session with ErrTerminate, stop
// requests are ignored.
func (c *Coordinator) HandleIdle(sig os.Signal) error {
	if pgid := c.state.Foreground(); pgid != 0 {
		c.forward(pgid, sig)
		return nil
	}

	switch sig {
	case syscall.SIGINT, syscall.SIGQUIT, syscall.SIGTERM, syscall.SIGHUP:
		c.record(logger.Interrupt, logger.Fields{"signal": sig.String()})
		return ErrTerminate
	default:
		return nil
	}
}
