package core

import (
	"path/filepath"
	"sync/atomic"

	"github.com/josephlewis42/rsh/core/history"
	"github.com/josephlewis42/rsh/core/jobs"
)

const (
	EnvPath = "PATH"

	// DefaultPath is searched if PATH isn't set.
	DefaultPath = "/bin:/usr/bin"
)

// State is the state of one shell session.
//
// The main loop is the only writer. The signal relay reads the foreground
// group, which is why that one field is atomic.
type State struct {
	// SearchPath is captured once when the state is created.
	SearchPath []string
	History    *history.Log
	Jobs       *jobs.Table

	foreground atomic.Int64
}

// NewState snapshots the search path from getenv, falling back to
// defaultPath if PATH is unset or empty.
func NewState(getenv func(string) string, defaultPath []string) *State {
	searchPath := filepath.SplitList(getenv(EnvPath))
	if len(searchPath) == 0 {
		searchPath = defaultPath
	}
	if len(searchPath) == 0 {
		searchPath = filepath.SplitList(DefaultPath)
	}

	return &State{
		SearchPath: searchPath,
		History:    &history.Log{},
		Jobs:       &jobs.Table{},
	}
}

// Foreground gets the process group running in the foreground, 0 if the shell
// itself is.
func (s *State) Foreground() int {
	return int(s.foreground.Load())
}

// SetForeground records which process group is in the foreground.
func (s *State) SetForeground(pgid int) {
	s.foreground.Store(int64(pgid))
}

// Close drops the session's history and jobs.
func (s *State) Close() error {
	s.SetForeground(0)
	s.Jobs.Clear()
	s.History = &history.Log{}
	return nil
}
