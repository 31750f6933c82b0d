// Package job defines the data model shared by the parser, launcher,
// supervisor and job table: redirections, processes and jobs, and the
// state machine that advances them as the kernel reports status changes.
package job

import "fmt"

// RedirMode identifies which of the five redirection shapes a Redirection
// describes. The (mode, target-kind) pairing is fixed: WriteTrunc,
// WriteAppend and ReadFile always carry a path; DupOut and DupIn always
// carry a destination fd.
type RedirMode int

const (
	WriteTrunc RedirMode = iota
	WriteAppend
	DupOut
	ReadFile
	DupIn
)

func (m RedirMode) String() string {
	switch m {
	case WriteTrunc:
		return "WriteTrunc"
	case WriteAppend:
		return "WriteAppend"
	case DupOut:
		return "DupOut"
	case ReadFile:
		return "ReadFile"
	case DupIn:
		return "DupIn"
	default:
		return fmt.Sprintf("RedirMode(%d)", int(m))
	}
}

// Redirection describes one file-descriptor rewiring, applied by the
// launcher in a child after pipe wiring and before exec.
type Redirection struct {
	Mode RedirMode
	// SrcFD is the descriptor being rewired: 1 for output modes, 0 for
	// input modes, unless the command line specified a different one.
	SrcFD int
	// TargetPath is valid when Mode is WriteTrunc, WriteAppend or ReadFile.
	TargetPath string
	// TargetFD is valid when Mode is DupOut or DupIn.
	TargetFD int
}

// IsPathTarget reports whether this redirection's target is a filesystem
// path (as opposed to another descriptor).
func (r Redirection) IsPathTarget() bool {
	switch r.Mode {
	case WriteTrunc, WriteAppend, ReadFile:
		return true
	default:
		return false
	}
}

// ProcessState is the lifecycle state of one forked command. Running is
// the only non-terminal, non-stopped state; Terminated and Killed are
// terminal.
type ProcessState int

const (
	Running ProcessState = iota
	Stopped
	Terminated
	Killed
)

func (s ProcessState) String() string {
	switch s {
	case Running:
		return "RUNNING"
	case Stopped:
		return "STOPPED"
	case Terminated:
		return "TERMINATED"
	case Killed:
		return "KILLED"
	default:
		return fmt.Sprintf("ProcessState(%d)", int(s))
	}
}

// Process is one command in a pipeline.
type Process struct {
	Argv   []string
	Redirs []Redirection
	Pid    int
	State  ProcessState
}

func (p *Process) String() string {
	if p == nil {
		return "<nil process>"
	}
	return fmt.Sprintf("Process{pid=%d argv=%v state=%s}", p.Pid, p.Argv, p.State)
}

// State is the lifecycle state of a pipeline as a whole, derived from the
// states of its live processes.
type State int

const (
	JobRunning State = iota
	JobStopped
	JobDone
	JobKilled
)

func (s State) String() string {
	switch s {
	case JobRunning:
		return "RUNNING"
	case JobStopped:
		return "STOPPED"
	case JobDone:
		return "DONE"
	case JobKilled:
		return "KILLED"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Job is one pipeline submitted as a single command line.
type Job struct {
	Cmd        string
	Processes  []*Process // live processes only, in pipeline order
	Background bool
	Pgid       int
	Spec       int
	State      State
	NRunning   int
	NStopped   int
	// Status is the last reaped process's exit code or killing signal,
	// regardless of its position in the pipeline.
	Status int
	LastPid int

	lastRemovedKilled bool
}

// New builds a Job from an already-parsed process list. It does not
// assign pids, pgid or spec; those are the launcher's and job table's
// job.
func New(cmd string, processes []*Process, background bool) *Job {
	return &Job{
		Cmd:        cmd,
		Processes:  processes,
		Background: background,
		State:      JobRunning,
	}
}

// Find returns the live process with the given pid, or nil.
func (j *Job) Find(pid int) *Process {
	for _, p := range j.Processes {
		if p.Pid == pid {
			return p
		}
	}
	return nil
}

func (j *Job) removeProcess(p *Process) {
	out := j.Processes[:0]
	for _, q := range j.Processes {
		if q != p {
			out = append(out, q)
		}
	}
	j.Processes = out
}

// Exited applies a normal-termination event to p.
func (j *Job) Exited(p *Process, exitCode int) {
	switch p.State {
	case Running:
		j.NRunning--
	case Stopped:
		j.NStopped--
	}
	p.State = Terminated
	j.Status = exitCode
	j.lastRemovedKilled = false
	j.removeProcess(p)
	j.recompute()
}

// KilledBySignal applies a Killed event to p.
func (j *Job) KilledBySignal(p *Process, signal int) {
	switch p.State {
	case Running:
		j.NRunning--
	case Stopped:
		j.NStopped--
	}
	p.State = Killed
	j.Status = signal
	j.lastRemovedKilled = true
	j.removeProcess(p)
	j.recompute()
}

// StoppedBySignal applies a Stopped event to p.
func (j *Job) StoppedBySignal(p *Process) {
	if p.State != Running {
		return
	}
	j.NRunning--
	j.NStopped++
	p.State = Stopped
	j.recompute()
}

// Continued applies a Continued event to p.
func (j *Job) Continued(p *Process) {
	if p.State != Stopped {
		return
	}
	j.NStopped--
	j.NRunning++
	p.State = Running
	j.recompute()
}

// recompute re-derives Job.State after every transition: an emptied
// process list is Done or Killed depending on how the last process went;
// otherwise any running process keeps the job Running, else it is
// Stopped.
func (j *Job) recompute() {
	if len(j.Processes) == 0 {
		if j.lastRemovedKilled {
			j.State = JobKilled
		} else {
			j.State = JobDone
		}
		return
	}
	if j.NRunning > 0 {
		j.State = JobRunning
		return
	}
	j.State = JobStopped
}
