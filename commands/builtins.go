package commands

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/josephlewis42/rsh/core/jobctl"
	"github.com/josephlewis42/rsh/core/jobs"
	"github.com/josephlewis42/rsh/core/shell"
)

// BuiltinKind identifies how a line is dispatched.
type BuiltinKind int

const (
	// External lines are run by the launcher.
	External BuiltinKind = iota
	Exit
	Clear
	Jobs
	Fg
	Bg
	History
)

var builtinNames = map[string]BuiltinKind{
	"exit":    Exit,
	"clear":   Clear,
	"jobs":    Jobs,
	"fg":      Fg,
	"bg":      Bg,
	"history": History,
	"History": History,
}

func (k BuiltinKind) String() string {
	switch k {
	case External:
		return "external"
	case Exit:
		return "exit"
	case Clear:
		return "clear"
	case Jobs:
		return "jobs"
	case Fg:
		return "fg"
	case Bg:
		return "bg"
	case History:
		return "history"
	default:
		return fmt.Sprintf("BuiltinKind(%d)", int(k))
	}
}

// Classify resolves the dispatch kind of a parsed line. Builtins only apply to
// simple commands, any line containing a pipe is external.
func Classify(p shell.Pipeline) BuiltinKind {
	if !p.IsSimple() {
		return External
	}
	if kind, ok := builtinNames[p[0].Name()]; ok {
		return kind
	}
	return External
}

// ListBuiltins gets the names the shell handles itself, sorted.
func ListBuiltins() []string {
	var out []string
	for name := range builtinNames {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// builtinFunc runs a builtin. Errors other than ErrExit have already been
// reported to the user.
type builtinFunc func(s *Shell, args []string) (int, error)

var builtins = map[BuiltinKind]builtinFunc{
	Exit:    runExit,
	Clear:   runClear,
	Jobs:    runJobs,
	Fg:      runFg,
	Bg:      runBg,
	History: runHistory,
}

func runExit(s *Shell, args []string) (int, error) {
	cmd := &SimpleCommand{
		Use:   "exit",
		Short: "Exit the shell.",
	}

	exit := false
	status := cmd.Run(args, s.stdout(), s.stderr(), func() int {
		exit = true
		return 0
	})
	if exit {
		return status, ErrExit
	}
	return status, nil
}

func runClear(s *Shell, args []string) (int, error) {
	cmd := &SimpleCommand{
		Use:   "clear",
		Short: "Scroll the screen clear.",
	}

	return cmd.Run(args, s.stdout(), s.stderr(), func() int {
		fmt.Fprint(s.stdout(), strings.Repeat("\r\n", s.Config.ClearLines))
		return 0
	}), nil
}

func runJobs(s *Shell, args []string) (int, error) {
	cmd := &SimpleCommand{
		Use:   "jobs",
		Short: "List stopped jobs, most recent first.",
	}

	return cmd.Run(args, s.stdout(), s.stderr(), func() int {
		for _, job := range s.Jobs.Jobs() {
			label := ColorBoldGreen
			if job.Status == jobs.Stopped {
				label = ColorBoldRed
			}
			fmt.Fprintf(s.stdout(), "[%d] %s\t%s\n", job.Pid, s.colors().Sprintf(label, "%s", job.Status), job.Command)
		}
		return 0
	}), nil
}

func runHistory(s *Shell, args []string) (int, error) {
	cmd := &SimpleCommand{
		Use:   "history",
		Short: "Display every line entered this session, oldest first.",
	}

	return cmd.Run(args, s.stdout(), s.stderr(), func() int {
		if err := s.State.History.RenderAll(s.stdout()); err != nil {
			return 1
		}
		return 0
	}), nil
}

// pidCommand parses "<name> <pid>", printing the usage line if it's malformed.
func pidCommand(s *Shell, name, short string, args []string, run func(pid int) (int, error)) (int, error) {
	var err error
	usage := func() int {
		fmt.Fprintf(s.stderr(), "Usage: %s <pid>\n", name)
		err = jobctl.ErrUsage
		return 1
	}

	cmd := &SimpleCommand{
		Use:          name + " <pid>",
		Short:        short,
		OnUsageError: func(error) int { return usage() },
	}

	status := cmd.Run(args, s.stdout(), s.stderr(), func() int {
		rest := cmd.Args()
		if len(rest) != 1 {
			return usage()
		}
		pid, convErr := strconv.Atoi(rest[0])
		if convErr != nil || pid <= 0 {
			return usage()
		}

		var code int
		code, err = run(pid)
		return code
	})
	return status, err
}

func runFg(s *Shell, args []string) (int, error) {
	return pidCommand(s, "fg", "Resume the process group <pid> in the foreground.", args, func(pid int) (int, error) {
		status, err := s.Jobs.Resume(pid)
		if errors.Is(err, jobctl.ErrNoSuchJob) {
			fmt.Fprintf(s.stderr(), "fg: %d: no such job\n", pid)
			return 1, err
		}
		if err != nil {
			fmt.Fprintf(s.stderr(), "fg: %v\n", err)
			return 1, err
		}
		return status, nil
	})
}

func runBg(s *Shell, args []string) (int, error) {
	return pidCommand(s, "bg", "Continue <pid> in the background and stop tracking it.", args, func(pid int) (int, error) {
		if err := s.Jobs.Continue(pid); err != nil {
			if errors.Is(err, jobctl.ErrNoSuchJob) {
				fmt.Fprintf(s.stderr(), "bg: %d: no such job\n", pid)
			} else {
				fmt.Fprintf(s.stderr(), "bg: %v\n", err)
			}
			return 1, err
		}
		return 0, nil
	})
}
