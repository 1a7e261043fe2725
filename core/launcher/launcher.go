// Package launcher starts external programs and wires pipelines together.
package launcher

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"syscall"

	"github.com/josephlewis42/rsh/core/shell"
	"golang.org/x/sys/unix"
)

var (
	// ErrLaunch is returned when a pipe or process couldn't be created.
	ErrLaunch = errors.New("launch failed")
	// ErrExecNotFound is returned when a stage couldn't be executed. It's
	// treated like a child that exited with StatusNotFound.
	ErrExecNotFound = errors.New("command not found")
)

// StatusNotFound is the exit status of a stage that couldn't be executed.
const StatusNotFound = 127

// Launcher starts processes with the shell's standard streams.
type Launcher struct {
	// SearchPath is the snapshot of directories used to resolve names.
	SearchPath []string

	Stdin  *os.File
	Stdout *os.File
	Stderr *os.File

	// Env of launched processes, nil inherits the shell's environment.
	Env []string

	// Terminal is the shell's controlling terminal. If set, single commands
	// take the terminal's foreground before they exec.
	Terminal *os.File
}

func (l *Launcher) command(stage shell.Stage, stdin, stdout *os.File) (*exec.Cmd, error) {
	if len(stage) == 0 {
		return nil, fmt.Errorf("%w: empty command", ErrExecNotFound)
	}

	path, err := LookPath(l.SearchPath, stage.Name())
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrExecNotFound, stage.Name(), err)
	}

	cmd := &exec.Cmd{
		Path: path,
		Args: stage,
		Env:  l.Env,
	}
	// Unset streams must stay nil interfaces so the child gets /dev/null.
	if stdin != nil {
		cmd.Stdin = stdin
	}
	if stdout != nil {
		cmd.Stdout = stdout
	}
	if l.Stderr != nil {
		cmd.Stderr = l.Stderr
	}
	return cmd, nil
}

// start starts cmd and drops the Go process handle; the caller reaps the pid
// with WaitPid.
func start(cmd *exec.Cmd) (int, error) {
	if err := cmd.Start(); err != nil {
		if errors.Is(err, syscall.EAGAIN) || errors.Is(err, syscall.ENOMEM) {
			return 0, fmt.Errorf("%w: %v", ErrLaunch, err)
		}
		return 0, fmt.Errorf("%w: %s: %v", ErrExecNotFound, cmd.Args[0], err)
	}

	pid := cmd.Process.Pid
	cmd.Process.Release()
	return pid, nil
}

// ReportNotFound writes the diagnostic for a stage that couldn't be executed.
func (l *Launcher) ReportNotFound(name string) {
	var w io.Writer = l.Stderr
	if l.Stderr == nil {
		w = os.Stderr
	}
	fmt.Fprintf(w, "%s: command not found\r\n", name)
}

// Start starts a single command as the leader of a new process group. The
// group ID is the returned pid.
//
// With a Terminal the group is made the foreground group in the child, so the
// command can read the terminal as soon as it runs instead of being stopped
// with SIGTTIN.
func (l *Launcher) Start(stage shell.Stage) (int, error) {
	cmd, err := l.command(stage, l.Stdin, l.Stdout)
	if err != nil {
		return 0, err
	}
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	if l.Terminal != nil {
		cmd.SysProcAttr.Foreground = true
		cmd.SysProcAttr.Ctty = int(l.Terminal.Fd())
	}

	return start(cmd)
}

// RunPipeline starts one process per stage, each stage's output feeding the
// next stage's input, and waits for all of them.
//
// The returned status is that of the last stage only. Stages stay in the
// shell's process group. A stage that can't be executed is reported on stderr
// and counts as exiting with StatusNotFound; its neighbours see a closed pipe.
func (l *Launcher) RunPipeline(p shell.Pipeline) (int, error) {
	var (
		pids     []int
		lastPid  int
		status   int
		prevRead *os.File
	)

	abandon := func(err error) (int, error) {
		if prevRead != nil {
			prevRead.Close()
		}
		for _, pid := range pids {
			WaitPid(pid, 0)
		}
		return -1, err
	}

	for i, stage := range p {
		last := i == len(p)-1

		var nextRead, nextWrite *os.File
		if !last {
			var err error
			nextRead, nextWrite, err = os.Pipe()
			if err != nil {
				return abandon(fmt.Errorf("%w: could not open pipe: %v", ErrLaunch, err))
			}
		}

		stdin, stdout := l.Stdin, l.Stdout
		if i > 0 {
			stdin = prevRead
		}
		if !last {
			stdout = nextWrite
		}

		var pid int
		cmd, err := l.command(stage, stdin, stdout)
		if err == nil {
			pid, err = start(cmd)
		}

		// The stage has inherited its ends, the shell's copies would keep
		// readers from ever seeing EOF.
		if prevRead != nil {
			prevRead.Close()
		}
		if nextWrite != nil {
			nextWrite.Close()
		}
		prevRead = nextRead

		switch {
		case errors.Is(err, ErrExecNotFound):
			l.ReportNotFound(stage.Name())
			if last {
				status = StatusNotFound
			}
		case err != nil:
			return abandon(err)
		default:
			pids = append(pids, pid)
			if last {
				lastPid = pid
			}
		}
	}

	for _, pid := range pids {
		ws, err := WaitPid(pid, 0)
		if err != nil {
			continue
		}
		if pid == lastPid {
			status = ExitStatus(ws)
		}
	}

	return status, nil
}

// WaitPid waits for pid to change state, retrying if interrupted by a signal.
func WaitPid(pid int, options int) (unix.WaitStatus, error) {
	var ws unix.WaitStatus
	for {
		_, err := unix.Wait4(pid, &ws, options, nil)
		if err == unix.EINTR {
			continue
		}
		return ws, err
	}
}

// ExitStatus converts a wait status into a shell style exit status, signals
// are reported as 128 plus the signal number.
func ExitStatus(ws unix.WaitStatus) int {
	switch {
	case ws.Exited():
		return ws.ExitStatus()
	case ws.Signaled():
		return 128 + int(ws.Signal())
	case ws.Stopped():
		return 128 + int(ws.StopSignal())
	default:
		return -1
	}
}
