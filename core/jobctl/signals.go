package jobctl

import (
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sys/unix"
)

// relayed are the signals the shell intercepts.
var relayed = []os.Signal{
	syscall.SIGINT,
	syscall.SIGQUIT,
	syscall.SIGTSTP,
	syscall.SIGTERM,
	syscall.SIGHUP,
}

// Idle delivers signals that arrived while no job owned the terminal. The
// line editor selects on it so the main loop handles them.
func (c *Coordinator) Idle() <-chan os.Signal {
	return c.idle
}

// StartRelay begins intercepting job control signals. The returned function
// stops it.
//
// Signals arriving while a job is in the foreground are forwarded to the job's
// process group. Terminations and hangups are also queued on Idle so the
// session ends once the terminal is back, as is anything arriving while idle.
func (c *Coordinator) StartRelay() (stop func()) {
	sigs := make(chan os.Signal, 8)
	done := make(chan struct{})
	signal.Notify(sigs, relayed...)

	go func() {
		for {
			select {
			case sig := <-sigs:
				c.relay(sig)
			case <-done:
				return
			}
		}
	}()

	return func() {
		signal.Stop(sigs)
		close(done)
	}
}

func (c *Coordinator) relay(sig os.Signal) {
	if pgid := c.state.Foreground(); pgid != 0 {
		c.forward(pgid, sig)
		switch sig {
		case syscall.SIGINT, syscall.SIGQUIT, syscall.SIGTSTP:
			return
		}
	}

	select {
	case c.idle <- sig:
	default:
		// The main loop hasn't drained the last few, one of them will do.
	}
}

func (c *Coordinator) forward(pgid int, sig os.Signal) {
	if s, ok := sig.(syscall.Signal); ok {
		unix.Kill(-pgid, s)
	}
}
