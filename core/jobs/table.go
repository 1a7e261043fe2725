// Package jobs tracks process groups the shell has parked.
package jobs

import "fmt"

// Status is the run state of a job.
type Status int

const (
	Running Status = iota
	Stopped
)

func (s Status) String() string {
	switch s {
	case Running:
		return "Running"
	case Stopped:
		return "Stopped"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Job is a tracked process group.
type Job struct {
	// Pid of the process group leader, also the group ID.
	Pid int
	// Command is the text shown to the user.
	Command string
	Status  Status
}

// Table holds jobs, newest first. A pid appears at most once.
//
// The zero value is ready to use. Tables aren't safe for concurrent use; the
// job control coordinator is the only writer.
type Table struct {
	jobs []Job
}

func (t *Table) index(pid int) int {
	for i, j := range t.jobs {
		if j.Pid == pid {
			return i
		}
	}
	return -1
}

// Add puts a job at the front of the table. If pid is already tracked the old
// entry is replaced so the pid stays unique.
func (t *Table) Add(pid int, command string, status Status) {
	t.Remove(pid)
	t.jobs = append([]Job{{Pid: pid, Command: command, Status: status}}, t.jobs...)
}

// Remove deletes the job with the given pid, it's a no-op if the pid isn't
// tracked. It reports whether an entry was removed.
func (t *Table) Remove(pid int) bool {
	i := t.index(pid)
	if i < 0 {
		return false
	}
	t.jobs = append(t.jobs[:i], t.jobs[i+1:]...)
	return true
}

// Get looks up a job by pid.
func (t *Table) Get(pid int) (Job, bool) {
	i := t.index(pid)
	if i < 0 {
		return Job{}, false
	}
	return t.jobs[i], true
}

// Len gets the number of tracked jobs.
func (t *Table) Len() int {
	return len(t.jobs)
}

// List returns a copy of the jobs in table order.
func (t *Table) List() []Job {
	out := make([]Job, len(t.jobs))
	copy(out, t.jobs)
	return out
}

// Clear drops every job.
func (t *Table) Clear() {
	t.jobs = nil
}
